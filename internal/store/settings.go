package store

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Setting keys.
const (
	// TitleKey holds the heading shown above the ballot.
	TitleKey = "vote_title"
)

// GetSetting returns the value stored under key. found is false when the key
// was never written.
func (s *Store) GetSetting(ctx context.Context, key string) (value string, found bool, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var setting Setting
	err = s.db.WithContext(ctx).Where("key = ?", key).First(&setting).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("load setting %q: %w", key, err)
	}
	return setting.Value, true, nil
}

// SetSetting inserts or replaces the value stored under key.
func (s *Store) SetSetting(ctx context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value"}),
	}).Create(&Setting{Key: key, Value: value}).Error
	if err != nil {
		return fmt.Errorf("save setting %q: %w", key, err)
	}
	return nil
}
