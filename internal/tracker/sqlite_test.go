package tracker

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := OpenSQLite(filepath.Join(t.TempDir(), "tracker.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestOpenSQLiteBadPath(t *testing.T) {
	blocker := filepath.Join(t.TempDir(), "blocker")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0600))

	// Parent "directory" is a regular file, so schema init can never run.
	_, err := OpenSQLite(filepath.Join(blocker, "tracker.db"))
	require.Error(t, err)
}

func TestSQLiteApplicationCRUD(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	a := &Application{Company: "Stripe", Role: "Backend Engineer", Status: StatusApplied}
	require.NoError(t, s.CreateApplication(ctx, a))
	require.NotEmpty(t, a.ID)

	got, err := s.GetApplication(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, "Stripe", got.Company)
	assert.Equal(t, StatusApplied, got.Status)
	assert.Empty(t, got.Rounds)

	newStatus := StatusInterview
	newRound := RoundTypeHR
	when := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, s.UpdateApplication(ctx, a.ID, ApplicationPatch{
		Status:        &newStatus,
		CurrentRound:  &newRound,
		InterviewDate: &when,
	}))

	got, err = s.GetApplication(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusInterview, got.Status)
	assert.Equal(t, RoundTypeHR, got.CurrentRound)
	require.NotNil(t, got.InterviewDate)
	assert.True(t, got.InterviewDate.Equal(when))

	err = s.UpdateApplication(ctx, "nope", ApplicationPatch{Status: &newStatus})
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = s.GetApplication(ctx, "nope")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSQLiteRounds(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	a := &Application{Company: "Acme", Role: "SWE", Status: StatusApplied}
	require.NoError(t, s.CreateApplication(ctx, a))

	when := time.Date(2026, 3, 5, 0, 0, 0, 0, time.UTC)
	require.NoError(t, s.CreateRound(ctx, a.ID, RoundData{
		RoundNumber:   1,
		RoundType:     RoundTypeHR,
		Notes:         "intro call",
		ScheduledDate: &when,
	}))

	// Same number again violates the per-application uniqueness key.
	err := s.CreateRound(ctx, a.ID, RoundData{RoundNumber: 1, RoundType: RoundTypeTechnical1})
	assert.Error(t, err)

	require.NoError(t, s.UpdateRound(ctx, a.ID, 1, RoundData{
		RoundNumber:   1,
		RoundType:     RoundTypeHR,
		Notes:         "intro call. rescheduled",
		ScheduledDate: &when,
	}))

	err = s.UpdateRound(ctx, a.ID, 9, RoundData{RoundNumber: 9, RoundType: RoundTypeFinal})
	assert.ErrorIs(t, err, ErrNotFound)

	got, err := s.GetApplication(ctx, a.ID)
	require.NoError(t, err)
	require.Len(t, got.Rounds, 1)
	assert.Equal(t, "intro call. rescheduled", got.Rounds[0].Notes)
	assert.NotNil(t, got.Rounds[0].QuestionsAsked)
}

func TestSQLiteSprintsAndQuestions(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	sp := &Sprint{
		Role:         "Backend Engineer",
		Focus:        "system design",
		DurationDays: 7,
		Days:         []SprintDay{{Day: 1, Topic: "caching", Tasks: []string{"read", "practice"}}},
	}
	require.NoError(t, s.SaveSprint(ctx, sp))
	require.NotEmpty(t, sp.ID)

	sprints, err := s.ListSprints(ctx, 10)
	require.NoError(t, err)
	require.Len(t, sprints, 1)
	assert.Equal(t, 7, sprints[0].DurationDays)
	require.Len(t, sprints[0].Days, 1)
	assert.Equal(t, "caching", sprints[0].Days[0].Topic)

	require.NoError(t, s.AddQuestion(ctx, &Question{Topic: "dsa", Question: "invert a binary tree"}))
	require.NoError(t, s.AddQuestion(ctx, &Question{Topic: "behavioral", Question: "tell me about a conflict"}))

	qs, err := s.ListQuestions(ctx, "DSA", 10)
	require.NoError(t, err)
	require.Len(t, qs, 1)
	assert.Equal(t, "invert a binary tree", qs[0].Question)

	all, err := s.ListQuestions(ctx, "", 10)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestSQLiteReplaceAll(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	old := &Application{Company: "Old Co", Role: "SWE", Status: StatusRejected}
	require.NoError(t, s.CreateApplication(ctx, old))

	snap := &Snapshot{
		Version: SnapshotVersion,
		Applications: []Application{{
			ID:      "app-1",
			Company: "Stripe",
			Role:    "Backend Engineer",
			Status:  StatusInterview,
			Rounds: []InterviewRound{
				{RoundNumber: 1, RoundType: RoundTypeHR, QuestionsAsked: []string{"why us"}},
				{RoundNumber: 2, RoundType: RoundTypeTechnical1},
			},
		}},
		Questions: []Question{{ID: "q-1", Question: "design a rate limiter"}},
	}
	require.NoError(t, s.ReplaceAll(ctx, snap))

	apps, err := s.ListApplications(ctx)
	require.NoError(t, err)
	require.Len(t, apps, 1)
	assert.Equal(t, "app-1", apps[0].ID)
	require.Len(t, apps[0].Rounds, 2)
	assert.Equal(t, []string{"why us"}, apps[0].Rounds[0].QuestionsAsked)

	qs, err := s.ListQuestions(ctx, "", 10)
	require.NoError(t, err)
	require.Len(t, qs, 1)
}

// End-to-end: resolver instructions flowing through the real store.
func TestUpsertBatchThroughSQLite(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	a := &Application{Company: "Stripe", Role: "Backend Engineer", Status: StatusApplied}
	require.NoError(t, s.CreateApplication(ctx, a))

	deps := StoreDeps(s)
	deps.Now = time.Date(2026, 2, 8, 10, 0, 0, 0, time.UTC)

	result := UpsertInterviewRoundsBatch(ctx, []RoundUpdate{
		{Company: "Stripe", RoundType: "hr", ScheduledDate: "tomorrow", Notes: "with recruiter"},
		{RoundType: "tech 1", ScheduledDate: "in 5 days"},
	}, deps)

	require.Equal(t, 2, result.Count, "failed: %v", result.Failed)
	require.Empty(t, result.Failed)

	got, err := s.GetApplication(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusInterview, got.Status)
	assert.Equal(t, RoundTypeTechnical1, got.CurrentRound)
	require.Len(t, got.Rounds, 2)
	assert.Equal(t, RoundTypeHR, got.Rounds[0].RoundType)
	assert.Equal(t, RoundTypeTechnical1, got.Rounds[1].RoundType)

	// Re-running the HR instruction merges instead of duplicating.
	result = UpsertInterviewRoundsBatch(ctx, []RoundUpdate{
		{Company: "Stripe", RoundType: "recruiter call", ScheduledDate: "tomorrow", Notes: "with recruiter"},
	}, deps)
	require.Equal(t, 1, result.Count, "failed: %v", result.Failed)

	got, err = s.GetApplication(ctx, a.ID)
	require.NoError(t, err)
	require.Len(t, got.Rounds, 2)
	assert.Equal(t, "with recruiter", got.Rounds[0].Notes)
}
