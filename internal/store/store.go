package store

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"gorm.io/gorm"
)

// Store owns every persisted poll record. Each method takes the store-wide
// mutex, so operations are linearizable with respect to one another.
type Store struct {
	mu  sync.Mutex
	db  *gorm.DB
	now func() time.Time
}

// New wraps an open gorm connection. Call Migrate before first use.
func New(db *gorm.DB) *Store {
	return &Store{db: db, now: time.Now}
}

// Migrate creates or updates the tables the store needs.
func (s *Store) Migrate(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.db.WithContext(ctx).AutoMigrate(&Candidate{}, &Vote{}, &ClientStatus{}, &Setting{}); err != nil {
		return fmt.Errorf("migrate poll tables: %w", err)
	}
	return nil
}

// AddCandidate inserts a candidate and returns it with its assigned ID.
func (s *Store) AddCandidate(ctx context.Context, name, description string) (Candidate, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c := Candidate{Name: name, Description: description, CreatedAt: s.now()}
	if err := s.db.WithContext(ctx).Create(&c).Error; err != nil {
		return Candidate{}, fmt.Errorf("insert candidate: %w", err)
	}
	return c, nil
}

// UpdateCandidate replaces name and description. found is false when no
// candidate has the given id.
func (s *Store) UpdateCandidate(ctx context.Context, id uint, name, description string) (c Candidate, found bool, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&Candidate{}).Where("id = ?", id).Updates(map[string]any{
			"name":        name,
			"description": description,
		})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return nil
		}
		found = true
		return tx.First(&c, id).Error
	})
	if err != nil {
		return Candidate{}, false, fmt.Errorf("update candidate %d: %w", id, err)
	}
	return c, found, nil
}

// DeleteCandidate removes a candidate together with all of its votes.
func (s *Store) DeleteCandidate(ctx context.Context, id uint) (found bool, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("candidate_id = ?", id).Delete(&Vote{}).Error; err != nil {
			return err
		}
		res := tx.Delete(&Candidate{}, id)
		if res.Error != nil {
			return res.Error
		}
		found = res.RowsAffected > 0
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("delete candidate %d: %w", id, err)
	}
	return found, nil
}

// GetCandidate looks up a single candidate.
func (s *Store) GetCandidate(ctx context.Context, id uint) (Candidate, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var c Candidate
	err := s.db.WithContext(ctx).First(&c, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return Candidate{}, false, nil
		}
		return Candidate{}, false, fmt.Errorf("load candidate %d: %w", id, err)
	}
	return c, true, nil
}

// ListCandidates returns all candidates ordered by name.
func (s *Store) ListCandidates(ctx context.Context) ([]Candidate, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	candidates := []Candidate{}
	if err := s.db.WithContext(ctx).Order("name ASC").Order("id ASC").Find(&candidates).Error; err != nil {
		return nil, fmt.Errorf("list candidates: %w", err)
	}
	return candidates, nil
}

// CountCandidates returns the number of candidates.
func (s *Store) CountCandidates(ctx context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var n int64
	if err := s.db.WithContext(ctx).Model(&Candidate{}).Count(&n).Error; err != nil {
		return 0, fmt.Errorf("count candidates: %w", err)
	}
	return n, nil
}

// Wipe deletes every candidate, vote and client status. Settings are kept.
func (s *Store) Wipe(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		all := tx.Session(&gorm.Session{AllowGlobalUpdate: true})
		if err := all.Delete(&Vote{}).Error; err != nil {
			return err
		}
		if err := all.Delete(&ClientStatus{}).Error; err != nil {
			return err
		}
		return all.Delete(&Candidate{}).Error
	})
	if err != nil {
		return fmt.Errorf("wipe poll: %w", err)
	}
	return nil
}
