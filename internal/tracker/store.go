package tracker

import (
	"context"
	"errors"
)

// ErrNotFound is returned by stores when a record does not exist.
var ErrNotFound = errors.New("tracker: not found")

// Store is the persistence boundary. SQLite is the default backend;
// PostgreSQL is selected when DATABASE_URL is set.
type Store interface {
	ListApplications(ctx context.Context) ([]Application, error)
	GetApplication(ctx context.Context, id string) (*Application, error)
	CreateApplication(ctx context.Context, app *Application) error
	UpdateApplication(ctx context.Context, id string, patch ApplicationPatch) error

	CreateRound(ctx context.Context, applicationID string, data RoundData) error
	UpdateRound(ctx context.Context, applicationID string, roundNumber int, data RoundData) error

	SaveSprint(ctx context.Context, s *Sprint) error
	ListSprints(ctx context.Context, limit int) ([]Sprint, error)

	AddQuestion(ctx context.Context, q *Question) error
	ListQuestions(ctx context.Context, topic string, limit int) ([]Question, error)

	// ReplaceAll swaps the entire dataset for the snapshot contents in one
	// transaction. Used by snapshot import.
	ReplaceAll(ctx context.Context, snap *Snapshot) error

	Close() error
}

// Package-level store instance, set from main.go.
var store Store

// SetStore sets the package-level store.
func SetStore(s Store) { store = s }

// GetStore returns the package-level store (may be nil in tests).
func GetStore() Store { return store }

// StoreDeps binds the round resolver's dependency bundle to a Store.
// GetApplications and RefreshApplications both hit the store directly, so
// the refresh retry sees any rows written moments earlier.
func StoreDeps(s Store) UpsertDeps {
	return UpsertDeps{
		GetApplications:     s.ListApplications,
		RefreshApplications: s.ListApplications,
		CreateRound:         s.CreateRound,
		UpdateRound:         s.UpdateRound,
		UpdateApplication:   s.UpdateApplication,
	}
}
