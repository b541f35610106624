package service

import (
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"sliptrack/internal/classify"
	"sliptrack/internal/live"
	"sliptrack/internal/models"
	"sliptrack/internal/report"
	"sliptrack/internal/repository"
	"sliptrack/internal/roster"
	"sliptrack/internal/validation"
)

var (
	ErrBusy            = errors.New("a bulk operation is already in progress")
	ErrReceiptNotFound = errors.New("receipt not found")
	ErrStudentNotFound = errors.New("student not found")
)

// ReceiptStore is the persistence surface RosterService needs for
// receipt batches
type ReceiptStore interface {
	Create(ownerID int64, id, name string, createdAt time.Time) (*models.Receipt, error)
	Rename(ownerID int64, id, newName string) error
	Get(ownerID int64, id string) (*models.Receipt, error)
	ListByOwner(ownerID int64) ([]models.Receipt, error)
	Delete(ownerID int64, id string) error
}

// StudentStore is the persistence surface for roster rows
type StudentStore interface {
	BulkInsert(entries []models.Student) error
	ListByReceipt(ownerID int64, receiptID string) ([]models.Student, error)
	GetReceiptID(ownerID int64, studentID string) (string, error)
	UpdateDone(ownerID int64, studentID string, isDone bool) error
	UpdateNote(ownerID int64, studentID, note string) error
	BulkUpdateDone(ownerID int64, studentIDs []string, isDone bool) error
	ListIDsByReceipt(ownerID int64, receiptID string) ([]string, error)
	DeleteByIDs(ownerID int64, studentIDs []string) error
}

// RosterService orchestrates receipt and roster operations. Bulk
// operations (import, bulk mark, cascade delete) are serialized per
// owner; a second bulk call while one is running gets ErrBusy.
type RosterService struct {
	receipts  ReceiptStore
	students  StudentStore
	publisher live.Publisher

	mu   sync.Mutex
	busy map[int64]bool
}

// NewRosterService creates a new roster service
func NewRosterService(receipts ReceiptStore, students StudentStore, publisher live.Publisher) *RosterService {
	return &RosterService{
		receipts:  receipts,
		students:  students,
		publisher: publisher,
		busy:      make(map[int64]bool),
	}
}

func (s *RosterService) acquire(ownerID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.busy[ownerID] {
		return ErrBusy
	}
	s.busy[ownerID] = true
	return nil
}

func (s *RosterService) release(ownerID int64) {
	s.mu.Lock()
	delete(s.busy, ownerID)
	s.mu.Unlock()
}

// Busy reports whether a bulk operation is running for the owner
func (s *RosterService) Busy(ownerID int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.busy[ownerID]
}

// Import parses an uploaded workbook and creates a receipt with its
// roster. The workbook is parsed in full before anything is written;
// a malformed file is rejected without touching the store. Returns the
// new receipt and the number of imported students.
func (s *RosterService) Import(ownerID int64, name string, workbook io.Reader) (*models.Receipt, int, error) {
	if err := validation.ValidateReceiptName(name); err != nil {
		return nil, 0, err
	}
	if err := s.acquire(ownerID); err != nil {
		return nil, 0, err
	}
	defer s.release(ownerID)

	now := time.Now()
	receiptID := repository.NewReceiptID(now)

	entries, err := roster.NormalizeWorkbook(workbook, ownerID, receiptID)
	if err != nil {
		return nil, 0, err
	}

	receipt, err := s.receipts.Create(ownerID, receiptID, name, now)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to create receipt: %w", err)
	}
	s.publisher.Publish(live.ReceiptsTopic(ownerID))

	if len(entries) > 0 {
		if err := s.students.BulkInsert(entries); err != nil {
			// Committed chunks stay; the receipt is visible with a
			// partial roster and the caller decides what to do.
			return receipt, 0, fmt.Errorf("import failed: %w", err)
		}
		s.publisher.Publish(live.StudentsTopic(ownerID, receiptID))
	}
	return receipt, len(entries), nil
}

// Receipts lists the owner's receipts in creation order
func (s *RosterService) Receipts(ownerID int64) ([]models.Receipt, error) {
	return s.receipts.ListByOwner(ownerID)
}

// Students lists the roster of one receipt sorted by class then seat
// number
func (s *RosterService) Students(ownerID int64, receiptID string) ([]models.Student, error) {
	students, err := s.students.ListByReceipt(ownerID, receiptID)
	if err != nil {
		return nil, err
	}
	classify.SortStudents(students)
	return students, nil
}

// Rename changes the display name of a receipt
func (s *RosterService) Rename(ownerID int64, receiptID, newName string) error {
	if err := validation.ValidateReceiptName(newName); err != nil {
		return err
	}
	receipt, err := s.receipts.Get(ownerID, receiptID)
	if err != nil {
		return err
	}
	if receipt == nil {
		return ErrReceiptNotFound
	}
	if err := s.receipts.Rename(ownerID, receiptID, newName); err != nil {
		return err
	}
	s.publisher.Publish(live.ReceiptsTopic(ownerID))
	return nil
}

// resolveReceipt looks up the receipt a student belongs to. The
// change notification topic is derived from the stored row, never
// from caller input.
func (s *RosterService) resolveReceipt(ownerID int64, studentID string) (string, error) {
	receiptID, err := s.students.GetReceiptID(ownerID, studentID)
	if err != nil {
		return "", err
	}
	if receiptID == "" {
		return "", ErrStudentNotFound
	}
	return receiptID, nil
}

// SetDone flips the completion flag of one student
func (s *RosterService) SetDone(ownerID int64, studentID string, done bool) error {
	receiptID, err := s.resolveReceipt(ownerID, studentID)
	if err != nil {
		return err
	}
	if err := s.students.UpdateDone(ownerID, studentID, done); err != nil {
		return err
	}
	s.publisher.Publish(live.StudentsTopic(ownerID, receiptID))
	return nil
}

// SetNote updates the free-text note of one student
func (s *RosterService) SetNote(ownerID int64, studentID, note string) error {
	receiptID, err := s.resolveReceipt(ownerID, studentID)
	if err != nil {
		return err
	}
	if err := s.students.UpdateNote(ownerID, studentID, note); err != nil {
		return err
	}
	s.publisher.Publish(live.StudentsTopic(ownerID, receiptID))
	return nil
}

// BulkSetDone sets the completion flag on many students at once
func (s *RosterService) BulkSetDone(ownerID int64, receiptID string, studentIDs []string, done bool) error {
	if len(studentIDs) == 0 {
		return nil
	}
	if err := s.acquire(ownerID); err != nil {
		return err
	}
	defer s.release(ownerID)

	if err := s.students.BulkUpdateDone(ownerID, studentIDs, done); err != nil {
		return err
	}
	s.publisher.Publish(live.StudentsTopic(ownerID, receiptID))
	return nil
}

// DeleteReceipt removes a receipt and its roster. Students go first in
// chunks, then the receipt itself; the steps are not jointly atomic,
// so a crash mid-way leaves the receipt present with a partial roster
// rather than orphaned students.
func (s *RosterService) DeleteReceipt(ownerID int64, receiptID string) error {
	if err := s.acquire(ownerID); err != nil {
		return err
	}
	defer s.release(ownerID)

	receipt, err := s.receipts.Get(ownerID, receiptID)
	if err != nil {
		return err
	}
	if receipt == nil {
		return ErrReceiptNotFound
	}

	ids, err := s.students.ListIDsByReceipt(ownerID, receiptID)
	if err != nil {
		return fmt.Errorf("failed to list roster for delete: %w", err)
	}
	if len(ids) > 0 {
		if err := s.students.DeleteByIDs(ownerID, ids); err != nil {
			return fmt.Errorf("failed to delete roster: %w", err)
		}
	}
	if err := s.receipts.Delete(ownerID, receiptID); err != nil {
		return fmt.Errorf("failed to delete receipt: %w", err)
	}

	s.publisher.Publish(live.StudentsTopic(ownerID, receiptID))
	s.publisher.Publish(live.ReceiptsTopic(ownerID))
	return nil
}

// BuildReport assembles the unsubmitted-names report for one receipt.
// An empty activeClass selects the whole-school view.
func (s *RosterService) BuildReport(ownerID int64, receiptID, activeClass string) (*report.Report, error) {
	receipt, err := s.receipts.Get(ownerID, receiptID)
	if err != nil {
		return nil, err
	}
	if receipt == nil {
		return nil, ErrReceiptNotFound
	}

	students, err := s.Students(ownerID, receiptID)
	if err != nil {
		return nil, err
	}

	var unsubmitted []models.Student
	for _, st := range students {
		if st.IsDone {
			continue
		}
		if activeClass != "" && activeClass != string(classify.All) && st.Class != activeClass {
			continue
		}
		unsubmitted = append(unsubmitted, st)
	}

	r := report.Build(receipt.Name, activeClass, unsubmitted, time.Now())
	return &r, nil
}
