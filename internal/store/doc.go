// Package store persists candidates, votes, client lock state and settings
// with gorm. Every method is serialized by one mutex, and CastVote writes the
// vote and the client's lock in a single transaction.
package store
