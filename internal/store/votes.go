package store

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// CastVote records a vote for candidateID on behalf of clientID.
//
// It returns false without touching any row when the client is still locked
// from an earlier vote or the candidate does not exist. The vote row and the
// client's lock are written in one transaction.
func (s *Store) CastVote(ctx context.Context, clientID string, candidateID uint) (accepted bool, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var status ClientStatus
		err := tx.Where("client_id = ?", clientID).First(&status).Error
		switch {
		case err == nil:
			if status.HasVoted {
				return nil
			}
		case errors.Is(err, gorm.ErrRecordNotFound):
		default:
			return err
		}

		var n int64
		if err := tx.Model(&Candidate{}).Where("id = ?", candidateID).Count(&n).Error; err != nil {
			return err
		}
		if n == 0 {
			return nil
		}

		now := s.now()
		if err := tx.Create(&Vote{CandidateID: candidateID, ClientID: clientID, Timestamp: now}).Error; err != nil {
			return err
		}

		lock := ClientStatus{ClientID: clientID, HasVoted: true, LastVoteTime: &now}
		err = tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "client_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"has_voted", "last_vote_time"}),
		}).Create(&lock).Error
		if err != nil {
			return err
		}

		accepted = true
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("cast vote for client %q: %w", clientID, err)
	}
	return accepted, nil
}

// HasVoted reports whether clientID is currently locked. Unknown clients
// have never voted.
func (s *Store) HasVoted(ctx context.Context, clientID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var status ClientStatus
	err := s.db.WithContext(ctx).Where("client_id = ?", clientID).First(&status).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, nil
		}
		return false, fmt.Errorf("load client %q: %w", clientID, err)
	}
	return status.HasVoted, nil
}

// ResetVotes deletes every vote and unlocks every client.
func (s *Store) ResetVotes(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		all := tx.Session(&gorm.Session{AllowGlobalUpdate: true})
		if err := all.Delete(&Vote{}).Error; err != nil {
			return err
		}
		return all.Model(&ClientStatus{}).Updates(map[string]any{
			"has_voted":      false,
			"last_vote_time": nil,
		}).Error
	})
	if err != nil {
		return fmt.Errorf("reset votes: %w", err)
	}
	return nil
}

// UnlockClients lets every client vote again. Recorded votes are kept.
func (s *Store) UnlockClients(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	err := s.db.WithContext(ctx).
		Session(&gorm.Session{AllowGlobalUpdate: true}).
		Model(&ClientStatus{}).
		Update("has_voted", false).Error
	if err != nil {
		return fmt.Errorf("unlock clients: %w", err)
	}
	return nil
}

// GetResults tallies votes per candidate, most votes first and ties by name.
// Candidates without votes are included with a count of zero.
func (s *Store) GetResults(ctx context.Context) ([]Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.results(ctx)
}

func (s *Store) results(ctx context.Context) ([]Result, error) {
	results := []Result{}
	err := s.db.WithContext(ctx).
		Table("candidates AS c").
		Select("c.id AS candidate_id, c.name AS candidate_name, COALESCE(c.description, '') AS description, COUNT(v.id) AS vote_count").
		Joins("LEFT JOIN votes AS v ON v.candidate_id = c.id").
		Group("c.id, c.name, c.description").
		Order("vote_count DESC, c.name ASC, c.id ASC").
		Scan(&results).Error
	if err != nil {
		return nil, fmt.Errorf("tally results: %w", err)
	}
	return results, nil
}

// Tally returns the results and the vote total read under a single lock, so
// the two always agree.
func (s *Store) Tally(ctx context.Context) ([]Result, int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	results, err := s.results(ctx)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.totalVotes(ctx)
	if err != nil {
		return nil, 0, err
	}
	return results, total, nil
}

// GetTotalVotes counts all vote rows.
func (s *Store) GetTotalVotes(ctx context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.totalVotes(ctx)
}

func (s *Store) totalVotes(ctx context.Context) (int64, error) {
	var n int64
	if err := s.db.WithContext(ctx).Model(&Vote{}).Count(&n).Error; err != nil {
		return 0, fmt.Errorf("count votes: %w", err)
	}
	return n, nil
}

// VoteDetails lists every vote with its candidate name, newest first.
func (s *Store) VoteDetails(ctx context.Context) ([]VoteDetail, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	details := []VoteDetail{}
	err := s.db.WithContext(ctx).
		Table("votes AS v").
		Select("v.id AS vote_id, c.name AS candidate_name, v.client_id AS client_id, v.timestamp AS timestamp").
		Joins("JOIN candidates AS c ON c.id = v.candidate_id").
		Order("v.timestamp DESC, v.id DESC").
		Scan(&details).Error
	if err != nil {
		return nil, fmt.Errorf("list vote details: %w", err)
	}
	return details, nil
}
