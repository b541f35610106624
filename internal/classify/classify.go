package classify

import (
	"regexp"
	"sort"
	"strconv"
	"strings"
	"sync"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"sliptrack/internal/models"
)

// GradeGroup is the coarse bucket a group label classifies into
type GradeGroup string

const (
	Grade1 GradeGroup = "高一"
	Grade2 GradeGroup = "高二"
	Grade3 GradeGroup = "高三"
	Other  GradeGroup = "其他"
	// All is the sentinel filter value that matches every group label.
	// It is never returned by GradeGroupOf.
	All GradeGroup = "全校"
)

// Groups lists the selectable grade filters in display order
var Groups = []GradeGroup{Grade1, Grade2, Grade3, Other, All}

// classPattern matches class codes: exactly three digits starting 1-3
var classPattern = regexp.MustCompile(`^[123]\d{2}$`)

// The collator is not safe for concurrent use, so all comparisons go
// through compareMu. Numeric ordering keeps "2" before "10" inside
// compound labels like "203-01".
var (
	compareMu sync.Mutex
	collator  = collate.New(language.TraditionalChinese, collate.Numeric)
)

// CompareLabels compares two group labels with Han-script-aware
// collation rather than byte order
func CompareLabels(a, b string) int {
	compareMu.Lock()
	defer compareMu.Unlock()
	return collator.CompareString(a, b)
}

// GradeGroupOf classifies a group label into a grade bucket. Labels
// that are not three-digit class codes (club names, empty strings)
// fall into Other.
func GradeGroupOf(label string) GradeGroup {
	name := strings.TrimSpace(label)
	if !classPattern.MatchString(name) {
		return Other
	}
	switch name[0] {
	case '1':
		return Grade1
	case '2':
		return Grade2
	default:
		return Grade3
	}
}

// SortClasses returns the unique group labels in ascending collation order
func SortClasses(labels []string) []string {
	seen := make(map[string]bool, len(labels))
	unique := make([]string, 0, len(labels))
	for _, l := range labels {
		if !seen[l] {
			seen[l] = true
			unique = append(unique, l)
		}
	}
	sort.Slice(unique, func(i, j int) bool {
		return CompareLabels(unique[i], unique[j]) < 0
	})
	return unique
}

// CompareStudents orders students by group label, then by sequence
// label. Sequence labels that both parse as integers compare
// numerically so "2" sorts before "10"; anything else (compound
// "203-01" labels, padded strings of differing width) falls back to
// the collator, which is consistent within one receipt because the
// import stamps every row in the same format.
func CompareStudents(a, b models.Student) int {
	if c := CompareLabels(a.Class, b.Class); c != 0 {
		return c
	}
	an, aerr := strconv.Atoi(strings.TrimSpace(a.No))
	bn, berr := strconv.Atoi(strings.TrimSpace(b.No))
	if aerr == nil && berr == nil {
		switch {
		case an < bn:
			return -1
		case an > bn:
			return 1
		default:
			return 0
		}
	}
	return CompareLabels(a.No, b.No)
}

// SortStudents sorts a student list in place per CompareStudents
func SortStudents(students []models.Student) {
	sort.SliceStable(students, func(i, j int) bool {
		return CompareStudents(students[i], students[j]) < 0
	})
}
