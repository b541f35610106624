package view

import (
	"math"

	"sliptrack/internal/classify"
	"sliptrack/internal/models"
)

// Aggregates are the derived counters for the currently filtered view
type Aggregates struct {
	Total       int              `json:"total"`
	Done        int              `json:"done"`
	Percent     int              `json:"percent"`
	Unsubmitted []models.Student `json:"unsubmitted"`
}

// ActiveStudents returns the students the current filters select: the
// whole roster under the 全校 filter, the active class's students when
// one is chosen, nothing otherwise.
func (s State) ActiveStudents() []models.Student {
	if s.Grade == classify.All {
		return s.Students
	}
	if s.ActiveClass == "" {
		return nil
	}
	var active []models.Student
	for _, st := range s.Students {
		if st.Class == s.ActiveClass {
			active = append(active, st)
		}
	}
	return active
}

// ComputeAggregates derives the counters from the active students.
// Pure: calling it twice on the same state yields identical results.
func (s State) ComputeAggregates() Aggregates {
	active := s.ActiveStudents()
	agg := Aggregates{Total: len(active), Unsubmitted: []models.Student{}}
	for _, st := range active {
		if st.IsDone {
			agg.Done++
		} else {
			agg.Unsubmitted = append(agg.Unsubmitted, st)
		}
	}
	if agg.Total > 0 {
		agg.Percent = int(math.Round(float64(agg.Done) / float64(agg.Total) * 100))
	}
	return agg
}

// ClassList returns the receipt's distinct group labels in sorted order
func (s State) ClassList() []string {
	labels := make([]string, len(s.Students))
	for i, st := range s.Students {
		labels[i] = st.Class
	}
	return classify.SortClasses(labels)
}

// ClassesInGrade filters the class list down to one grade bucket
func (s State) ClassesInGrade(grade classify.GradeGroup) []string {
	var classes []string
	for _, label := range s.ClassList() {
		if classify.GradeGroupOf(label) == grade {
			classes = append(classes, label)
		}
	}
	return classes
}
