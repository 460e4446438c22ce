package event

import (
	"encoding/json"

	"github.com/livepoll/livepoll/internal/store"
)

// Type names a push message.
type Type string

const (
	TypeInitialSnapshot  Type = "initial_snapshot"
	TypeResultsUpdate    Type = "results_update"
	TypeVoteCast         Type = "vote_cast"
	TypeReset            Type = "reset"
	TypeUnlock           Type = "unlock"
	TypeCandidatesUpdate Type = "candidates_update"
)

// Message is the envelope every push message is wrapped in.
type Message struct {
	Type Type `json:"type"`
	Data any  `json:"data"`
}

// Results is the payload of initial_snapshot and results_update.
type Results struct {
	Results    []store.Result `json:"results"`
	TotalVotes int64          `json:"total_votes"`
}

// VoteCast is the payload of vote_cast.
type VoteCast struct {
	CandidateID   uint   `json:"candidate_id"`
	CandidateName string `json:"candidate_name"`
}

// Notice is the payload of reset, unlock and candidates_update.
type Notice struct {
	Message string `json:"message"`
}

const (
	resetNotice      = "The poll has been reset"
	unlockNotice     = "A new voting round has started, you can vote again"
	candidatesNotice = "The candidate list has been updated"
)

// Encode marshals a message envelope.
func Encode(t Type, data any) ([]byte, error) {
	return json.Marshal(Message{Type: t, Data: data})
}
