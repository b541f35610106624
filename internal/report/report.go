// Package report derives the grouped "unsubmitted" projection used
// for on-screen display and the exported report artifact.
package report

import (
	"fmt"
	"time"

	"sliptrack/internal/classify"
	"sliptrack/internal/models"
)

// Group is one class/club section of the report
type Group struct {
	Label    string           `json:"label"`
	Students []models.Student `json:"students"`
	Count    int              `json:"count"`
}

// Report is the renderable unsubmitted-names summary
type Report struct {
	Title       string    `json:"title"`
	ActiveClass string    `json:"activeClass"`
	GeneratedAt time.Time `json:"generatedAt"`
	Groups      []Group   `json:"groups"`
	Total       int       `json:"total"`
	AllDone     bool      `json:"allDone"`
}

// Build groups the unsubmitted students by group label. Order inside a
// group preserves the incoming (already sorted) order; groups are
// iterated in collation order. An empty activeClass means the
// whole-school view.
func Build(title, activeClass string, unsubmitted []models.Student, now time.Time) Report {
	if activeClass == "" {
		activeClass = string(classify.All)
	}

	byLabel := make(map[string][]models.Student)
	labels := make([]string, 0, len(unsubmitted))
	for _, s := range unsubmitted {
		if _, seen := byLabel[s.Class]; !seen {
			labels = append(labels, s.Class)
		}
		byLabel[s.Class] = append(byLabel[s.Class], s)
	}

	groups := make([]Group, 0, len(labels))
	for _, label := range classify.SortClasses(labels) {
		groups = append(groups, Group{
			Label:    label,
			Students: byLabel[label],
			Count:    len(byLabel[label]),
		})
	}

	return Report{
		Title:       title,
		ActiveClass: activeClass,
		GeneratedAt: now,
		Groups:      groups,
		Total:       len(unsubmitted),
		AllDone:     len(unsubmitted) == 0,
	}
}

// Filename composes the export artifact name from the active class,
// the receipt title and the current date
func Filename(activeClass, title string, now time.Time) string {
	if activeClass == "" {
		activeClass = string(classify.All)
	}
	return fmt.Sprintf("%s_%s_未繳名單_%s", activeClass, title, now.Format("20060102"))
}
