package repository

import (
	"fmt"
	"testing"

	"sliptrack/internal/models"
)

func TestChunkStudents(t *testing.T) {
	makeEntries := func(n int) []models.Student {
		entries := make([]models.Student, n)
		for i := range entries {
			entries[i] = models.Student{ID: fmt.Sprintf("s_r_%d", i)}
		}
		return entries
	}

	tests := []struct {
		name      string
		count     int
		wantSizes []int
	}{
		{name: "empty", count: 0, wantSizes: nil},
		{name: "below limit", count: 3, wantSizes: []int{3}},
		{name: "exactly one chunk", count: 500, wantSizes: []int{500}},
		{name: "one over", count: 501, wantSizes: []int{500, 1}},
		{name: "three chunks", count: 1201, wantSizes: []int{500, 500, 201}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			chunks := ChunkStudents(makeEntries(tt.count))
			if len(chunks) != len(tt.wantSizes) {
				t.Fatalf("got %d chunks, want %d", len(chunks), len(tt.wantSizes))
			}
			for i, want := range tt.wantSizes {
				if len(chunks[i]) != want {
					t.Errorf("chunk %d: size %d, want %d", i, len(chunks[i]), want)
				}
			}
			// order must be preserved across chunk boundaries
			if tt.count > 500 {
				if chunks[1][0].ID != "s_r_500" {
					t.Errorf("chunk 1 starts at %s, want s_r_500", chunks[1][0].ID)
				}
			}
		})
	}
}

func TestChunkIDs(t *testing.T) {
	ids := make([]string, 1201)
	for i := range ids {
		ids[i] = fmt.Sprintf("s_%d", i)
	}
	chunks := ChunkIDs(ids)
	if len(chunks) != 3 {
		t.Fatalf("got %d chunks, want 3", len(chunks))
	}
	if len(chunks[0]) != 500 || len(chunks[1]) != 500 || len(chunks[2]) != 201 {
		t.Errorf("chunk sizes = %d,%d,%d, want 500,500,201", len(chunks[0]), len(chunks[1]), len(chunks[2]))
	}
}
