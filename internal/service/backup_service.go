package service

import (
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"sliptrack/internal/database"
)

// BackupData represents the complete database backup structure
type BackupData struct {
	Version      string           `json:"version"`
	ExportedAt   time.Time        `json:"exported_at"`
	DatabaseType string           `json:"database_type"`
	Users        []UserBackup     `json:"users"`
	Profiles     []ProfileBackup  `json:"profiles"`
	Receipts     []ReceiptBackup  `json:"receipts"`
	Students     []StudentBackup  `json:"students"`
	Views        int64            `json:"views"`
}

// UserBackup represents a user record for backup
type UserBackup struct {
	ID            int64     `json:"id"`
	Email         string    `json:"email"`
	PasswordHash  string    `json:"password_hash"`
	Name          string    `json:"name"`
	OAuthProvider string    `json:"oauth_provider"`
	OAuthSubject  string    `json:"oauth_subject"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// ProfileBackup represents an onboarding profile for backup
type ProfileBackup struct {
	UserID     int64  `json:"user_id"`
	SchoolName string `json:"school_name"`
	Region     string `json:"region"`
	Role       string `json:"role"`
}

// ReceiptBackup represents a receipt batch for backup
type ReceiptBackup struct {
	ID        string    `json:"id"`
	OwnerID   int64     `json:"owner_id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

// StudentBackup represents a roster row for backup
type StudentBackup struct {
	ID        string `json:"id"`
	OwnerID   int64  `json:"owner_id"`
	ReceiptID string `json:"receipt_id"`
	Class     string `json:"class"`
	No        string `json:"no"`
	Name      string `json:"name"`
	IsDone    bool   `json:"is_done"`
	Note      string `json:"note"`
}

// BackupService handles database backup and restore operations.
// Sessions are intentionally not exported; users sign in again after a
// restore.
type BackupService struct {
	db *database.DB
}

// NewBackupService creates a new backup service
func NewBackupService(db *database.DB) *BackupService {
	return &BackupService{db: db}
}

// Export creates a complete backup of the database to a file
func (s *BackupService) Export(outputPath string) error {
	log.Println("Starting database export...")

	backup := &BackupData{
		Version:      "1.0",
		ExportedAt:   time.Now(),
		DatabaseType: "universal",
	}

	if err := s.exportUsers(backup); err != nil {
		return fmt.Errorf("failed to export users: %w", err)
	}
	if err := s.exportProfiles(backup); err != nil {
		return fmt.Errorf("failed to export profiles: %w", err)
	}
	if err := s.exportReceipts(backup); err != nil {
		return fmt.Errorf("failed to export receipts: %w", err)
	}
	if err := s.exportStudents(backup); err != nil {
		return fmt.Errorf("failed to export students: %w", err)
	}
	if err := s.db.QueryRow("SELECT views FROM stats WHERE id = 1").Scan(&backup.Views); err != nil {
		return fmt.Errorf("failed to export stats: %w", err)
	}

	file, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer file.Close()

	encoder := json.NewEncoder(file)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(backup); err != nil {
		return fmt.Errorf("failed to encode backup: %w", err)
	}

	log.Printf("Database exported successfully to %s", outputPath)
	log.Printf("Exported: %d users, %d profiles, %d receipts, %d students",
		len(backup.Users), len(backup.Profiles), len(backup.Receipts), len(backup.Students))
	return nil
}

// Import restores a database from a backup file
func (s *BackupService) Import(inputPath string) error {
	file, err := os.Open(inputPath)
	if err != nil {
		return fmt.Errorf("failed to open input file: %w", err)
	}
	defer file.Close()
	return s.ImportFromReader(file)
}

// ImportFromReader restores a database from a backup reader
func (s *BackupService) ImportFromReader(reader io.Reader) error {
	var backup BackupData
	if err := json.NewDecoder(reader).Decode(&backup); err != nil {
		return fmt.Errorf("failed to decode backup: %w", err)
	}

	log.Printf("Backup version: %s, exported at: %s", backup.Version, backup.ExportedAt)

	// Import in order of dependencies
	if err := s.importUsers(backup.Users); err != nil {
		return fmt.Errorf("failed to import users: %w", err)
	}
	if err := s.importProfiles(backup.Profiles); err != nil {
		return fmt.Errorf("failed to import profiles: %w", err)
	}
	if err := s.importReceipts(backup.Receipts); err != nil {
		return fmt.Errorf("failed to import receipts: %w", err)
	}
	if err := s.importStudents(backup.Students); err != nil {
		return fmt.Errorf("failed to import students: %w", err)
	}
	if _, err := s.db.Exec("UPDATE stats SET views = ? WHERE id = 1", backup.Views); err != nil {
		return fmt.Errorf("failed to import stats: %w", err)
	}

	log.Println("Database import completed successfully")
	return nil
}

// Clear removes all data, children before parents
func (s *BackupService) Clear() error {
	for _, table := range []string{"students", "receipts", "profiles", "sessions", "users"} {
		if _, err := s.db.Exec("DELETE FROM " + table); err != nil {
			return fmt.Errorf("failed to clear %s: %w", table, err)
		}
	}
	if _, err := s.db.Exec("UPDATE stats SET views = 0 WHERE id = 1"); err != nil {
		return fmt.Errorf("failed to reset stats: %w", err)
	}
	return nil
}

func (s *BackupService) exportUsers(backup *BackupData) error {
	query := "SELECT id, email, password_hash, name, COALESCE(oauth_provider, ''), COALESCE(oauth_subject, ''), created_at, updated_at FROM users ORDER BY id"
	rows, err := s.db.Query(query)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var u UserBackup
		if err := rows.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.Name, &u.OAuthProvider, &u.OAuthSubject, &u.CreatedAt, &u.UpdatedAt); err != nil {
			return err
		}
		backup.Users = append(backup.Users, u)
	}
	return rows.Err()
}

func (s *BackupService) exportProfiles(backup *BackupData) error {
	query := "SELECT user_id, school_name, region, role FROM profiles ORDER BY user_id"
	rows, err := s.db.Query(query)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var p ProfileBackup
		if err := rows.Scan(&p.UserID, &p.SchoolName, &p.Region, &p.Role); err != nil {
			return err
		}
		backup.Profiles = append(backup.Profiles, p)
	}
	return rows.Err()
}

func (s *BackupService) exportReceipts(backup *BackupData) error {
	query := "SELECT id, owner_id, name, created_at FROM receipts ORDER BY owner_id, created_at"
	rows, err := s.db.Query(query)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var r ReceiptBackup
		if err := rows.Scan(&r.ID, &r.OwnerID, &r.Name, &r.CreatedAt); err != nil {
			return err
		}
		backup.Receipts = append(backup.Receipts, r)
	}
	return rows.Err()
}

func (s *BackupService) exportStudents(backup *BackupData) error {
	query := "SELECT id, owner_id, receipt_id, class, seq_no, name, is_done, note FROM students ORDER BY owner_id, receipt_id, id"
	rows, err := s.db.Query(query)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var st StudentBackup
		if err := rows.Scan(&st.ID, &st.OwnerID, &st.ReceiptID, &st.Class, &st.No, &st.Name, &st.IsDone, &st.Note); err != nil {
			return err
		}
		backup.Students = append(backup.Students, st)
	}
	return rows.Err()
}

func (s *BackupService) importUsers(users []UserBackup) error {
	query := "INSERT INTO users (id, email, password_hash, name, oauth_provider, oauth_subject, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?, ?, ?)"
	for _, u := range users {
		if _, err := s.db.Exec(query, u.ID, u.Email, u.PasswordHash, u.Name, u.OAuthProvider, u.OAuthSubject, u.CreatedAt, u.UpdatedAt); err != nil {
			return fmt.Errorf("user %d: %w", u.ID, err)
		}
	}
	return nil
}

func (s *BackupService) importProfiles(profiles []ProfileBackup) error {
	query := "INSERT INTO profiles (user_id, school_name, region, role) VALUES (?, ?, ?, ?)"
	for _, p := range profiles {
		if _, err := s.db.Exec(query, p.UserID, p.SchoolName, p.Region, p.Role); err != nil {
			return fmt.Errorf("profile %d: %w", p.UserID, err)
		}
	}
	return nil
}

func (s *BackupService) importReceipts(receipts []ReceiptBackup) error {
	query := "INSERT INTO receipts (id, owner_id, name, created_at) VALUES (?, ?, ?, ?)"
	for _, r := range receipts {
		if _, err := s.db.Exec(query, r.ID, r.OwnerID, r.Name, r.CreatedAt); err != nil {
			return fmt.Errorf("receipt %s: %w", r.ID, err)
		}
	}
	return nil
}

func (s *BackupService) importStudents(students []StudentBackup) error {
	query := "INSERT INTO students (id, owner_id, receipt_id, class, seq_no, name, is_done, note) VALUES (?, ?, ?, ?, ?, ?, ?, ?)"
	for _, st := range students {
		if _, err := s.db.Exec(query, st.ID, st.OwnerID, st.ReceiptID, st.Class, st.No, st.Name, st.IsDone, st.Note); err != nil {
			return fmt.Errorf("student %s: %w", st.ID, err)
		}
	}
	return nil
}
