// Package view maintains the derived, per-client projection of the
// roster data: receipt list, sorted student list, filters and
// aggregate counters. State is recomputed from full snapshots, never
// from deltas.
package view

import (
	"sliptrack/internal/classify"
	"sliptrack/internal/models"
)

// State collects every piece of client view state in one structure so
// transitions are pure functions that can be tested without a
// rendering surface.
type State struct {
	OwnerID int64

	Receipts []models.Receipt
	// Students holds the full roster of the selected receipt, sorted
	// per classify.CompareStudents.
	Students []models.Student

	SelectedReceipt string
	Grade           classify.GradeGroup
	ActiveClass     string

	// TitleBuffer is the locally editable copy of the receipt name.
	// While TitleEditing is set, incoming receipt snapshots must not
	// overwrite it, so keystrokes survive racing store updates.
	TitleBuffer  string
	TitleEditing bool

	// Busy gates bulk operations (import, bulk status, cascade
	// delete) at the UI level. Cooperative only: nothing stops a
	// second session from writing concurrently.
	Busy bool

	// firstLoad arms the one-shot class auto-select that fires on the
	// first student snapshot after a receipt selection.
	firstLoad bool
}

// NewState creates the initial view state for one signed-in owner
func NewState(ownerID int64) State {
	return State{
		OwnerID:   ownerID,
		Grade:     classify.Grade1,
		firstLoad: true,
	}
}

// ApplyReceipts folds a receipt-collection snapshot into the state.
// When nothing is selected yet the most recently created receipt (the
// array tail) is auto-selected.
func ApplyReceipts(s State, receipts []models.Receipt) State {
	s.Receipts = receipts
	if s.SelectedReceipt == "" && len(receipts) > 0 {
		s.SelectedReceipt = receipts[len(receipts)-1].ID
		s.firstLoad = true
	}
	if !s.TitleEditing {
		s.TitleBuffer = s.selectedReceiptName()
	}
	return s
}

// ApplyStudents folds a student-collection snapshot into the state.
// The slice is copied and sorted; the caller's slice is not modified.
// On the first non-empty snapshot since the receipt selection changed,
// the first class in sorted order becomes the active class filter;
// afterwards the latch stays disarmed until the next receipt switch.
func ApplyStudents(s State, students []models.Student) State {
	sorted := make([]models.Student, len(students))
	copy(sorted, students)
	classify.SortStudents(sorted)
	s.Students = sorted

	if s.firstLoad && len(sorted) > 0 {
		s.ActiveClass = sorted[0].Class
		s.firstLoad = false
	}
	return s
}

// SelectReceipt switches the active receipt and re-arms the first-load
// latch
func SelectReceipt(s State, receiptID string) State {
	if receiptID == s.SelectedReceipt {
		return s
	}
	s.SelectedReceipt = receiptID
	s.Students = nil
	s.ActiveClass = ""
	s.firstLoad = true
	s.TitleEditing = false
	s.TitleBuffer = s.selectedReceiptName()
	return s
}

// ClearSelection drops the receipt selection entirely (after a cascade
// delete)
func ClearSelection(s State) State {
	s.SelectedReceipt = ""
	s.Students = nil
	s.ActiveClass = ""
	s.firstLoad = true
	s.TitleEditing = false
	s.TitleBuffer = ""
	return s
}

// SetGrade selects a grade filter. Clicking the already-expanded grade
// collapses it. Either way the class filter resets.
func SetGrade(s State, grade classify.GradeGroup) State {
	if s.Grade == grade {
		s.Grade = ""
	} else {
		s.Grade = grade
	}
	s.ActiveClass = ""
	return s
}

// SetClass selects the active class filter
func SetClass(s State, class string) State {
	s.ActiveClass = class
	return s
}

// EditTitle records a keystroke into the local title buffer
func EditTitle(s State, text string) State {
	s.TitleBuffer = text
	s.TitleEditing = true
	return s
}

// CommitTitle ends the local edit; the caller flushes the buffer to
// the store
func CommitTitle(s State) State {
	s.TitleEditing = false
	return s
}

// SetBusy toggles the cooperative bulk-operation gate
func SetBusy(s State, busy bool) State {
	s.Busy = busy
	return s
}

func (s State) selectedReceiptName() string {
	for _, r := range s.Receipts {
		if r.ID == s.SelectedReceipt {
			return r.Name
		}
	}
	return ""
}
