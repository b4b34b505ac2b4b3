package search

import (
	"math"
	"testing"
	"time"

	"github.com/taskmaster-cloud/tasksearch/internal/domain"
)

const epsilon = 1e-9

func TestFuse_Weights(t *testing.T) {
	tests := []struct {
		name       string
		textRank   float64
		similarity float64
		want       float64
	}{
		{"text only", 1.0, 0.0, 0.3},
		{"similarity only", 0.0, 1.0, 0.7},
		{"both full", 1.0, 1.0, 1.0},
		{"mixed", 0.5, 0.8, 0.3*0.5 + 0.7*0.8},
		{"zero", 0.0, 0.0, 0.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Fuse(tt.textRank, tt.similarity)
			if math.Abs(got-tt.want) > epsilon {
				t.Errorf("Fuse(%v, %v) = %v, want %v", tt.textRank, tt.similarity, got, tt.want)
			}
		})
	}
}

func TestSortByScore_Descending(t *testing.T) {
	results := []domain.SearchResult{
		{Task: domain.Task{ID: 1}, CombinedScore: 0.4},
		{Task: domain.Task{ID: 2}, CombinedScore: 0.9},
		{Task: domain.Task{ID: 3}, CombinedScore: 0.6},
	}

	sortByScore(results)

	wantIDs := []int64{2, 3, 1}
	for i, want := range wantIDs {
		if results[i].Task.ID != want {
			t.Errorf("position %d: got task %d, want %d", i, results[i].Task.ID, want)
		}
	}
}

func TestSortByScore_TieBreaksOnRecency(t *testing.T) {
	older := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	newer := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)

	results := []domain.SearchResult{
		{Task: domain.Task{ID: 1, CreatedAt: older}, CombinedScore: 0.5},
		{Task: domain.Task{ID: 2, CreatedAt: newer}, CombinedScore: 0.5},
	}

	sortByScore(results)

	if results[0].Task.ID != 2 {
		t.Errorf("expected newer task first on score tie, got task %d", results[0].Task.ID)
	}
}

func TestSortByScore_TieBreaksOnID(t *testing.T) {
	at := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	results := []domain.SearchResult{
		{Task: domain.Task{ID: 7, CreatedAt: at}, CombinedScore: 0.5},
		{Task: domain.Task{ID: 9, CreatedAt: at}, CombinedScore: 0.5},
	}

	sortByScore(results)

	if results[0].Task.ID != 9 {
		t.Errorf("expected higher id first on full tie, got task %d", results[0].Task.ID)
	}
}
