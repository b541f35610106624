package classify

import (
	"testing"

	"sliptrack/internal/models"
)

func TestGradeGroupOf(t *testing.T) {
	tests := []struct {
		name  string
		label string
		want  GradeGroup
	}{
		{name: "grade one class", label: "101", want: Grade1},
		{name: "grade two class", label: "215", want: Grade2},
		{name: "grade three class", label: "305", want: Grade3},
		{name: "leading whitespace", label: " 101 ", want: Grade1},
		{name: "club name", label: "機器人社", want: Other},
		{name: "empty label", label: "", want: Other},
		{name: "four digits", label: "1011", want: Other},
		{name: "two digits", label: "10", want: Other},
		{name: "starts with four", label: "401", want: Other},
		{name: "digits with suffix", label: "101A", want: Other},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := GradeGroupOf(tt.label); got != tt.want {
				t.Errorf("GradeGroupOf(%q) = %v, want %v", tt.label, got, tt.want)
			}
		})
	}
}

func TestSortClasses(t *testing.T) {
	tests := []struct {
		name   string
		labels []string
		want   []string
	}{
		{
			name:   "numeric codes ascend",
			labels: []string{"301", "101", "205"},
			want:   []string{"101", "205", "301"},
		},
		{
			name:   "duplicates removed",
			labels: []string{"101", "102", "101", "102"},
			want:   []string{"101", "102"},
		},
		{
			name:   "empty input",
			labels: nil,
			want:   []string{},
		},
		{
			name:   "digit runs compare numerically",
			labels: []string{"110", "12", "9"},
			want:   []string{"9", "12", "110"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SortClasses(tt.labels)
			if len(got) != len(tt.want) {
				t.Fatalf("SortClasses() = %v, want %v", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("position %d: got %q, want %q", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestCompareStudents(t *testing.T) {
	tests := []struct {
		name string
		a, b models.Student
		want int // sign only
	}{
		{
			name: "different classes",
			a:    models.Student{Class: "101", No: "30"},
			b:    models.Student{Class: "102", No: "01"},
			want: -1,
		},
		{
			name: "same class numeric seats",
			a:    models.Student{Class: "101", No: "02"},
			b:    models.Student{Class: "101", No: "10"},
			want: -1,
		},
		{
			name: "unpadded seat still numeric",
			a:    models.Student{Class: "101", No: "9"},
			b:    models.Student{Class: "101", No: "10"},
			want: -1,
		},
		{
			name: "compound club labels",
			a:    models.Student{Class: "合唱團", No: "203-01"},
			b:    models.Student{Class: "合唱團", No: "203-02"},
			want: -1,
		},
		{
			name: "compound labels across classes",
			a:    models.Student{Class: "合唱團", No: "101-05"},
			b:    models.Student{Class: "合唱團", No: "203-01"},
			want: -1,
		},
		{
			name: "equal",
			a:    models.Student{Class: "101", No: "05"},
			b:    models.Student{Class: "101", No: "05"},
			want: 0,
		},
	}

	sign := func(n int) int {
		switch {
		case n < 0:
			return -1
		case n > 0:
			return 1
		default:
			return 0
		}
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := sign(CompareStudents(tt.a, tt.b)); got != tt.want {
				t.Errorf("CompareStudents() sign = %d, want %d", got, tt.want)
			}
			// ordering must be antisymmetric
			if got := sign(CompareStudents(tt.b, tt.a)); got != -tt.want {
				t.Errorf("CompareStudents() reversed sign = %d, want %d", got, -tt.want)
			}
		})
	}
}

func TestSortStudentsStable(t *testing.T) {
	students := []models.Student{
		{ID: "a", Class: "102", No: "01"},
		{ID: "b", Class: "101", No: "10"},
		{ID: "c", Class: "101", No: "02"},
		{ID: "d", Class: "101", No: "02"},
	}
	SortStudents(students)

	wantIDs := []string{"c", "d", "b", "a"}
	for i, id := range wantIDs {
		if students[i].ID != id {
			t.Errorf("position %d: got %q, want %q", i, students[i].ID, id)
		}
	}
}
