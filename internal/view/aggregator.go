package view

import (
	"context"
	"log"

	"sliptrack/internal/classify"
	"sliptrack/internal/live"
	"sliptrack/internal/models"
)

// Loader supplies current collection snapshots. Implemented by the
// repositories.
type Loader interface {
	Receipts(ownerID int64) ([]models.Receipt, error)
	Students(ownerID int64, receiptID string) ([]models.Student, error)
}

// Snapshot is the flattened view pushed to a connected client
type Snapshot struct {
	Receipts        []models.Receipt    `json:"receipts"`
	SelectedReceipt string              `json:"selectedReceiptId"`
	Title           string              `json:"title"`
	Grade           classify.GradeGroup `json:"grade"`
	ActiveClass     string              `json:"activeClass"`
	Classes         []string            `json:"classes"`
	Students        []models.Student    `json:"students"`
	Aggregates      Aggregates          `json:"aggregates"`
	Busy            bool                `json:"busy"`
}

// BuildSnapshot projects the state into its client-facing form
func BuildSnapshot(s State) Snapshot {
	return Snapshot{
		Receipts:        s.Receipts,
		SelectedReceipt: s.SelectedReceipt,
		Title:           s.TitleBuffer,
		Grade:           s.Grade,
		ActiveClass:     s.ActiveClass,
		Classes:         s.ClassList(),
		Students:        s.ActiveStudents(),
		Aggregates:      s.ComputeAggregates(),
		Busy:            s.Busy,
	}
}

// Transition is a pure state-transition function queued onto the
// aggregator loop
type Transition func(State) State

// Aggregator owns one client's view state. It subscribes to the hub,
// reloads full snapshots from the Loader on every change notification
// and emits the recomputed view. All state access happens on the Run
// goroutine; interleaving of change notifications and user actions is
// therefore serialized.
type Aggregator struct {
	loader  Loader
	hub     *live.Hub
	state   State
	out     chan Snapshot
	actions chan Transition
}

// NewAggregator creates an aggregator for one signed-in owner
func NewAggregator(loader Loader, hub *live.Hub, ownerID int64) *Aggregator {
	return &Aggregator{
		loader:  loader,
		hub:     hub,
		state:   NewState(ownerID),
		out:     make(chan Snapshot, 1),
		actions: make(chan Transition, 16),
	}
}

// Snapshots is the stream of recomputed views. Only the latest
// snapshot is retained when the consumer lags.
func (a *Aggregator) Snapshots() <-chan Snapshot {
	return a.out
}

// Do queues a user action (receipt/grade/class selection, title edit)
func (a *Aggregator) Do(t Transition) {
	a.actions <- t
}

// Run drives the aggregator until the context is cancelled
func (a *Aggregator) Run(ctx context.Context) {
	receiptsSub := a.hub.Subscribe(live.ReceiptsTopic(a.state.OwnerID))
	defer receiptsSub.Unsubscribe()

	var studentsSub *live.Subscription
	var studentsC <-chan struct{}
	subscribedReceipt := ""

	defer func() {
		if studentsSub != nil {
			studentsSub.Unsubscribe()
		}
	}()

	// resubscribe retargets the student subscription whenever the
	// selected receipt changed. Subscribing primes an immediate tick,
	// which triggers the first load.
	resubscribe := func() {
		if a.state.SelectedReceipt == subscribedReceipt {
			return
		}
		if studentsSub != nil {
			studentsSub.Unsubscribe()
			studentsSub = nil
			studentsC = nil
		}
		subscribedReceipt = a.state.SelectedReceipt
		if subscribedReceipt != "" {
			studentsSub = a.hub.Subscribe(live.StudentsTopic(a.state.OwnerID, subscribedReceipt))
			studentsC = studentsSub.C
		}
	}

	for {
		select {
		case <-ctx.Done():
			return

		case <-receiptsSub.C:
			receipts, err := a.loader.Receipts(a.state.OwnerID)
			if err != nil {
				log.Printf("Failed to load receipts for owner %d: %v", a.state.OwnerID, err)
				continue
			}
			a.state = ApplyReceipts(a.state, receipts)

		case <-studentsC:
			students, err := a.loader.Students(a.state.OwnerID, subscribedReceipt)
			if err != nil {
				log.Printf("Failed to load students for receipt %s: %v", subscribedReceipt, err)
				continue
			}
			a.state = ApplyStudents(a.state, students)

		case t := <-a.actions:
			a.state = t(a.state)
		}

		resubscribe()
		a.emit()
	}
}

// emit pushes the latest snapshot, replacing any undelivered one
func (a *Aggregator) emit() {
	snap := BuildSnapshot(a.state)
	for {
		select {
		case a.out <- snap:
			return
		default:
			select {
			case <-a.out:
			default:
			}
		}
	}
}
