package store

import "time"

// Candidate is a choice voters can pick.
type Candidate struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Name        string    `gorm:"not null;type:varchar(200)" json:"name"`
	Description string    `gorm:"type:varchar(1000)" json:"description"`
	CreatedAt   time.Time `json:"created_at"`
}

// Vote is a single ballot. Rows are only removed in bulk (reset, wipe) or
// together with their candidate.
type Vote struct {
	ID          uint      `gorm:"primaryKey"`
	CandidateID uint      `gorm:"not null;index"`
	ClientID    string    `gorm:"not null;index;type:varchar(500)"`
	Timestamp   time.Time `gorm:"not null"`
}

// ClientStatus records whether a client is currently locked out of voting.
type ClientStatus struct {
	ID           uint   `gorm:"primaryKey"`
	ClientID     string `gorm:"uniqueIndex;not null;type:varchar(500)"`
	HasVoted     bool   `gorm:"not null;default:false"`
	LastVoteTime *time.Time
}

// TableName keeps the table name short and stable.
func (ClientStatus) TableName() string {
	return "clients"
}

// Setting is a key/value pair, e.g. the display title.
type Setting struct {
	Key   string `gorm:"primaryKey;type:varchar(255)"`
	Value string `gorm:"not null"`
}

// Result is one row of the tally.
type Result struct {
	CandidateID   uint   `json:"candidate_id"`
	CandidateName string `json:"candidate_name"`
	Description   string `json:"description"`
	VoteCount     int64  `json:"vote_count"`
}

// VoteDetail is one vote joined with its candidate name, for exports.
type VoteDetail struct {
	VoteID        uint      `json:"vote_id"`
	CandidateName string    `json:"candidate_name"`
	ClientID      string    `json:"client_id"`
	Timestamp     time.Time `json:"timestamp"`
}
