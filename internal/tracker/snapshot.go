package tracker

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// SnapshotVersion is the current backup format version. Imports with any
// other version are rejected outright.
const SnapshotVersion = 1

// Snapshot is the versioned backup JSON format.
type Snapshot struct {
	Version      int           `json:"version"`
	ExportedAt   time.Time     `json:"exported_at"`
	Applications []Application `json:"applications"`
	Sprints      []Sprint      `json:"sprints"`
	Questions    []Question    `json:"questions"`
}

// SnapshotImportInput is the input for snapshot_import.
type SnapshotImportInput struct {
	Data string `json:"data"` // snapshot JSON, as produced by snapshot_export
}

// SnapshotImportResult is the output for snapshot_import.
type SnapshotImportResult struct {
	Applications int    `json:"applications"`
	Sprints      int    `json:"sprints"`
	Questions    int    `json:"questions"`
	Message      string `json:"message"`
}

// ExportSnapshot serializes the full dataset.
func ExportSnapshot(ctx context.Context) (*Snapshot, error) {
	s := GetStore()
	if s == nil {
		return nil, errors.New("snapshot_export: store not initialized")
	}
	apps, err := s.ListApplications(ctx)
	if err != nil {
		return nil, fmt.Errorf("snapshot_export: %w", err)
	}
	sprints, err := s.ListSprints(ctx, 100)
	if err != nil {
		return nil, fmt.Errorf("snapshot_export: %w", err)
	}
	questions, err := s.ListQuestions(ctx, "", 200)
	if err != nil {
		return nil, fmt.Errorf("snapshot_export: %w", err)
	}
	reg.Incr(MetricSnapshotExports)
	return &Snapshot{
		Version:      SnapshotVersion,
		ExportedAt:   time.Now().UTC(),
		Applications: apps,
		Sprints:      sprints,
		Questions:    questions,
	}, nil
}

// ImportSnapshot validates a snapshot strictly, then replaces the entire
// dataset in one transaction. Nothing is written if validation fails.
func ImportSnapshot(ctx context.Context, input SnapshotImportInput) (*SnapshotImportResult, error) {
	snap, err := DecodeSnapshot([]byte(input.Data))
	if err != nil {
		return nil, fmt.Errorf("snapshot_import: %w", err)
	}

	s := GetStore()
	if s == nil {
		return nil, errors.New("snapshot_import: store not initialized")
	}
	if err := s.ReplaceAll(ctx, snap); err != nil {
		return nil, fmt.Errorf("snapshot_import: %w", err)
	}
	reg.Incr(MetricSnapshotImports)
	return &SnapshotImportResult{
		Applications: len(snap.Applications),
		Sprints:      len(snap.Sprints),
		Questions:    len(snap.Questions),
		Message:      fmt.Sprintf("Imported %d applications, %d sprints, %d questions", len(snap.Applications), len(snap.Sprints), len(snap.Questions)),
	}, nil
}

// DecodeSnapshot parses and validates snapshot JSON. Unknown fields are
// rejected, the version must match, and the per-application round-number
// uniqueness invariant is re-checked before anything touches the store.
func DecodeSnapshot(data []byte) (*Snapshot, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()

	var snap Snapshot
	if err := dec.Decode(&snap); err != nil {
		return nil, fmt.Errorf("parse: %w", err)
	}
	if snap.Version != SnapshotVersion {
		return nil, fmt.Errorf("unsupported snapshot version %d (want %d)", snap.Version, SnapshotVersion)
	}

	seenIDs := map[string]bool{}
	for i := range snap.Applications {
		app := &snap.Applications[i]
		if app.ID == "" {
			return nil, fmt.Errorf("application %d: missing id", i)
		}
		if seenIDs[app.ID] {
			return nil, fmt.Errorf("duplicate application id %s", app.ID)
		}
		seenIDs[app.ID] = true
		if app.Company == "" {
			return nil, fmt.Errorf("application %s: missing company", app.ID)
		}
		if !ValidStatus(string(app.Status)) {
			return nil, fmt.Errorf("application %s: invalid status %q", app.ID, app.Status)
		}
		seenRounds := map[int]bool{}
		for _, r := range app.Rounds {
			if r.RoundNumber <= 0 {
				return nil, fmt.Errorf("application %s: round number must be positive", app.ID)
			}
			if seenRounds[r.RoundNumber] {
				return nil, fmt.Errorf("application %s: duplicate round %d", app.ID, r.RoundNumber)
			}
			seenRounds[r.RoundNumber] = true
		}
	}

	for i := range snap.Sprints {
		if snap.Sprints[i].ID == "" {
			return nil, fmt.Errorf("sprint %d: missing id", i)
		}
	}
	for i := range snap.Questions {
		if snap.Questions[i].ID == "" {
			return nil, fmt.Errorf("question %d: missing id", i)
		}
		if snap.Questions[i].Question == "" {
			return nil, fmt.Errorf("question %s: missing question text", snap.Questions[i].ID)
		}
	}

	return &snap, nil
}
