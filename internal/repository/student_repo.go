package repository

import (
	"database/sql"
	"fmt"

	"sliptrack/internal/database"
	"sliptrack/internal/models"
)

// ChunkSize is the store's per-transaction operation limit. Bulk
// writes are split into chunks of at most this many rows; each chunk
// commits atomically, chunks are not jointly atomic.
const ChunkSize = 500

// ChunkStudents splits entries into insertion-order chunks of at most
// ChunkSize
func ChunkStudents(entries []models.Student) [][]models.Student {
	var chunks [][]models.Student
	for start := 0; start < len(entries); start += ChunkSize {
		end := start + ChunkSize
		if end > len(entries) {
			end = len(entries)
		}
		chunks = append(chunks, entries[start:end])
	}
	return chunks
}

// ChunkIDs splits id lists the same way
func ChunkIDs(ids []string) [][]string {
	var chunks [][]string
	for start := 0; start < len(ids); start += ChunkSize {
		end := start + ChunkSize
		if end > len(ids) {
			end = len(ids)
		}
		chunks = append(chunks, ids[start:end])
	}
	return chunks
}

// StudentRepository handles database operations for roster students
type StudentRepository struct {
	db database.DBTX
}

// NewStudentRepository creates a new student repository
func NewStudentRepository(db database.DBTX) *StudentRepository {
	return &StudentRepository{db: db}
}

// BulkInsert writes all entries in sequential chunks. A failed chunk
// aborts the whole insert; chunks already committed are not rolled
// back.
func (r *StudentRepository) BulkInsert(entries []models.Student) error {
	for i, chunk := range ChunkStudents(entries) {
		if err := r.insertChunk(chunk); err != nil {
			return fmt.Errorf("bulk insert aborted at chunk %d: %w", i+1, err)
		}
	}
	return nil
}

func (r *StudentRepository) insertChunk(chunk []models.Student) error {
	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	query := `
		INSERT INTO students (id, owner_id, receipt_id, class, seq_no, name, is_done, note)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`
	for _, s := range chunk {
		if _, err := tx.Exec(query, s.ID, s.OwnerID, s.ReceiptID, s.Class, s.No, s.Name, s.IsDone, s.Note); err != nil {
			tx.Rollback()
			return fmt.Errorf("failed to insert student %s: %w", s.ID, err)
		}
	}
	return tx.Commit()
}

const studentColumns = "id, owner_id, receipt_id, class, seq_no, name, is_done, note"

// ListByReceipt retrieves every student referencing one receipt
func (r *StudentRepository) ListByReceipt(ownerID int64, receiptID string) ([]models.Student, error) {
	query := "SELECT " + studentColumns + " FROM students WHERE owner_id = ? AND receipt_id = ?"
	rows, err := r.db.Query(query, ownerID, receiptID)
	if err != nil {
		return nil, fmt.Errorf("failed to query students: %w", err)
	}
	defer rows.Close()

	var students []models.Student
	for rows.Next() {
		var s models.Student
		if err := rows.Scan(
			&s.ID,
			&s.OwnerID,
			&s.ReceiptID,
			&s.Class,
			&s.No,
			&s.Name,
			&s.IsDone,
			&s.Note,
		); err != nil {
			return nil, fmt.Errorf("failed to scan student: %w", err)
		}
		students = append(students, s)
	}
	return students, rows.Err()
}

// GetReceiptID returns the receipt one student belongs to, or "" when
// the student does not exist
func (r *StudentRepository) GetReceiptID(ownerID int64, studentID string) (string, error) {
	query := "SELECT receipt_id FROM students WHERE owner_id = ? AND id = ?"
	var receiptID string
	err := r.db.QueryRow(query, ownerID, studentID).Scan(&receiptID)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to resolve receipt for student: %w", err)
	}
	return receiptID, nil
}

// UpdateDone updates the completion flag of one student
func (r *StudentRepository) UpdateDone(ownerID int64, studentID string, isDone bool) error {
	query := "UPDATE students SET is_done = ? WHERE owner_id = ? AND id = ?"
	if _, err := r.db.Exec(query, isDone, ownerID, studentID); err != nil {
		return fmt.Errorf("failed to update completion flag: %w", err)
	}
	return nil
}

// UpdateNote updates the free-text note of one student
func (r *StudentRepository) UpdateNote(ownerID int64, studentID, note string) error {
	query := "UPDATE students SET note = ? WHERE owner_id = ? AND id = ?"
	if _, err := r.db.Exec(query, note, ownerID, studentID); err != nil {
		return fmt.Errorf("failed to update note: %w", err)
	}
	return nil
}

// BulkUpdateDone sets the completion flag on many students with the
// same chunk discipline as BulkInsert
func (r *StudentRepository) BulkUpdateDone(ownerID int64, studentIDs []string, isDone bool) error {
	query := "UPDATE students SET is_done = ? WHERE owner_id = ? AND id = ?"
	for i, chunk := range ChunkIDs(studentIDs) {
		tx, err := r.db.Begin()
		if err != nil {
			return fmt.Errorf("failed to begin transaction: %w", err)
		}
		for _, id := range chunk {
			if _, err := tx.Exec(query, isDone, ownerID, id); err != nil {
				tx.Rollback()
				return fmt.Errorf("bulk update aborted at chunk %d: %w", i+1, err)
			}
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("bulk update aborted at chunk %d: %w", i+1, err)
		}
	}
	return nil
}

// ListIDsByReceipt returns the ids of every student referencing one
// receipt, for chunked cascade deletion
func (r *StudentRepository) ListIDsByReceipt(ownerID int64, receiptID string) ([]string, error) {
	query := "SELECT id FROM students WHERE owner_id = ? AND receipt_id = ?"
	rows, err := r.db.Query(query, ownerID, receiptID)
	if err != nil {
		return nil, fmt.Errorf("failed to query student ids: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan student id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// DeleteByIDs removes students in chunked transactions
func (r *StudentRepository) DeleteByIDs(ownerID int64, studentIDs []string) error {
	query := "DELETE FROM students WHERE owner_id = ? AND id = ?"
	for i, chunk := range ChunkIDs(studentIDs) {
		tx, err := r.db.Begin()
		if err != nil {
			return fmt.Errorf("failed to begin transaction: %w", err)
		}
		for _, id := range chunk {
			if _, err := tx.Exec(query, ownerID, id); err != nil {
				tx.Rollback()
				return fmt.Errorf("cascade delete aborted at chunk %d: %w", i+1, err)
			}
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("cascade delete aborted at chunk %d: %w", i+1, err)
		}
	}
	return nil
}
