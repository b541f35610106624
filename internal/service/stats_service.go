package service

import (
	"fmt"

	"sliptrack/internal/live"
	"sliptrack/internal/repository"
)

// StatsService maintains the global visitor counter. Each session
// increments the counter at most once regardless of how many pages it
// loads.
type StatsService struct {
	userRepo  *repository.UserRepository
	statsRepo *repository.StatsRepository
	publisher live.Publisher
}

// NewStatsService creates a new stats service
func NewStatsService(userRepo *repository.UserRepository, statsRepo *repository.StatsRepository, publisher live.Publisher) *StatsService {
	return &StatsService{
		userRepo:  userRepo,
		statsRepo: statsRepo,
		publisher: publisher,
	}
}

// RecordVisit counts the session toward the visitor total if it has
// not been counted yet, then returns the current total
func (s *StatsService) RecordVisit(sessionID string) (int64, error) {
	counted, err := s.userRepo.MarkSessionVisitCounted(sessionID)
	if err != nil {
		return 0, fmt.Errorf("failed to record visit: %w", err)
	}
	if !counted {
		return s.statsRepo.GetViews()
	}

	views, err := s.statsRepo.IncrementViews()
	if err != nil {
		return 0, err
	}
	s.publisher.Publish(live.StatsTopic)
	return views, nil
}

// Views returns the current visitor total
func (s *StatsService) Views() (int64, error) {
	return s.statsRepo.GetViews()
}
