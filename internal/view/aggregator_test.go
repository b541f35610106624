package view

import (
	"context"
	"sync"
	"testing"
	"time"

	"sliptrack/internal/live"
	"sliptrack/internal/models"
)

// fakeLoader serves snapshots from mutable in-memory collections
type fakeLoader struct {
	mu       sync.Mutex
	receipts []models.Receipt
	students map[string][]models.Student
}

func (f *fakeLoader) Receipts(ownerID int64) ([]models.Receipt, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]models.Receipt(nil), f.receipts...), nil
}

func (f *fakeLoader) Students(ownerID int64, receiptID string) ([]models.Student, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]models.Student(nil), f.students[receiptID]...), nil
}

func (f *fakeLoader) setDone(receiptID, studentID string, done bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, s := range f.students[receiptID] {
		if s.ID == studentID {
			f.students[receiptID][i].IsDone = done
		}
	}
}

// waitFor reads snapshots until one satisfies the predicate
func waitFor(t *testing.T, agg *Aggregator, what string, pred func(Snapshot) bool) Snapshot {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for {
		select {
		case snap := <-agg.Snapshots():
			if pred(snap) {
				return snap
			}
		case <-deadline:
			t.Fatalf("timed out waiting for snapshot: %s", what)
			return Snapshot{}
		}
	}
}

func newFixture() *fakeLoader {
	now := time.Now()
	return &fakeLoader{
		receipts: []models.Receipt{
			{ID: "r_1", OwnerID: 1, Name: "舊回條", CreatedAt: now.Add(-time.Hour)},
			{ID: "r_2", OwnerID: 1, Name: "校外教學回條", CreatedAt: now},
		},
		students: map[string][]models.Student{
			"r_1": {
				{ID: "s_r_1_0", ReceiptID: "r_1", Class: "301", No: "01", Name: "甲"},
			},
			"r_2": {
				{ID: "s_r_2_0", ReceiptID: "r_2", Class: "101", No: "01", Name: "乙"},
				{ID: "s_r_2_1", ReceiptID: "r_2", Class: "101", No: "02", Name: "丙"},
			},
		},
	}
}

func TestAggregatorInitialLoad(t *testing.T) {
	loader := newFixture()
	hub := live.NewHub()
	agg := NewAggregator(loader, hub, 1)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go agg.Run(ctx)

	snap := waitFor(t, agg, "initial students loaded", func(s Snapshot) bool {
		return s.SelectedReceipt == "r_2" && len(s.Students) == 2
	})
	if snap.Title != "校外教學回條" {
		t.Errorf("title = %q, want the selected receipt's name", snap.Title)
	}
	if snap.ActiveClass != "101" {
		t.Errorf("activeClass = %q, want first-load auto-select", snap.ActiveClass)
	}
	if snap.Aggregates.Total != 2 || snap.Aggregates.Done != 0 {
		t.Errorf("aggregates = %+v", snap.Aggregates)
	}
}

func TestAggregatorReactsToStudentChange(t *testing.T) {
	loader := newFixture()
	hub := live.NewHub()
	agg := NewAggregator(loader, hub, 1)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go agg.Run(ctx)

	waitFor(t, agg, "initial load", func(s Snapshot) bool {
		return s.SelectedReceipt == "r_2" && len(s.Students) == 2
	})

	loader.setDone("r_2", "s_r_2_0", true)
	hub.Publish(live.StudentsTopic(1, "r_2"))

	snap := waitFor(t, agg, "done count updated", func(s Snapshot) bool {
		return s.Aggregates.Done == 1
	})
	if snap.Aggregates.Percent != 50 {
		t.Errorf("percent = %d, want 50", snap.Aggregates.Percent)
	}
	if len(snap.Aggregates.Unsubmitted) != 1 || snap.Aggregates.Unsubmitted[0].ID != "s_r_2_1" {
		t.Errorf("unsubmitted = %+v", snap.Aggregates.Unsubmitted)
	}
}

func TestAggregatorSwitchesReceipt(t *testing.T) {
	loader := newFixture()
	hub := live.NewHub()
	agg := NewAggregator(loader, hub, 1)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go agg.Run(ctx)

	waitFor(t, agg, "initial load", func(s Snapshot) bool {
		return s.SelectedReceipt == "r_2" && len(s.Students) == 2
	})

	agg.Do(func(s State) State { return SelectReceipt(s, "r_1") })

	snap := waitFor(t, agg, "switched to r_1", func(s Snapshot) bool {
		return s.SelectedReceipt == "r_1" && len(s.Students) == 1
	})
	if snap.ActiveClass != "301" {
		t.Errorf("activeClass = %q, first-load should fire for the new receipt", snap.ActiveClass)
	}
	if snap.Title != "舊回條" {
		t.Errorf("title = %q", snap.Title)
	}
}
