package repository

import (
	"fmt"

	"sliptrack/internal/database"
)

// StatsRepository handles the single global visitor-counter row
type StatsRepository struct {
	db database.DBTX
}

// NewStatsRepository creates a new stats repository
func NewStatsRepository(db database.DBTX) *StatsRepository {
	return &StatsRepository{db: db}
}

// IncrementViews bumps the counter and returns the new value
func (r *StatsRepository) IncrementViews() (int64, error) {
	if _, err := r.db.Exec("UPDATE stats SET views = views + 1 WHERE id = 1"); err != nil {
		return 0, fmt.Errorf("failed to increment views: %w", err)
	}
	return r.GetViews()
}

// GetViews returns the current counter value
func (r *StatsRepository) GetViews() (int64, error) {
	var views int64
	if err := r.db.QueryRow("SELECT views FROM stats WHERE id = 1").Scan(&views); err != nil {
		return 0, fmt.Errorf("failed to read views: %w", err)
	}
	return views, nil
}
