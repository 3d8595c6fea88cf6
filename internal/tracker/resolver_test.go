package tracker

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"
)

// fakeData is an in-memory application set wired into UpsertDeps, so the
// resolver's between-instruction re-reads observe mutations made earlier
// in the same batch.
type fakeData struct {
	apps []Application

	createErr error
	updateErr error
	patchErr  error

	createCalls int
	updateCalls int
	patchCalls  int
	refreshes   int
}

func (f *fakeData) find(id string) *Application {
	for i := range f.apps {
		if f.apps[i].ID == id {
			return &f.apps[i]
		}
	}
	return nil
}

func (f *fakeData) deps() UpsertDeps {
	return UpsertDeps{
		GetApplications: func(context.Context) ([]Application, error) {
			out := make([]Application, len(f.apps))
			copy(out, f.apps)
			return out, nil
		},
		RefreshApplications: func(context.Context) ([]Application, error) {
			f.refreshes++
			out := make([]Application, len(f.apps))
			copy(out, f.apps)
			return out, nil
		},
		CreateRound: func(_ context.Context, appID string, data RoundData) error {
			f.createCalls++
			if f.createErr != nil {
				return f.createErr
			}
			app := f.find(appID)
			if app == nil {
				return fmt.Errorf("no application %s", appID)
			}
			app.Rounds = append(app.Rounds, InterviewRound{
				RoundNumber:    data.RoundNumber,
				RoundType:      data.RoundType,
				Notes:          data.Notes,
				ScheduledDate:  data.ScheduledDate,
				QuestionsAsked: data.QuestionsAsked,
			})
			return nil
		},
		UpdateRound: func(_ context.Context, appID string, roundNumber int, data RoundData) error {
			f.updateCalls++
			if f.updateErr != nil {
				return f.updateErr
			}
			app := f.find(appID)
			if app == nil {
				return fmt.Errorf("no application %s", appID)
			}
			r := findRound(app, roundNumber)
			if r == nil {
				return fmt.Errorf("no round %d", roundNumber)
			}
			r.RoundType = data.RoundType
			r.Notes = data.Notes
			r.ScheduledDate = data.ScheduledDate
			return nil
		},
		UpdateApplication: func(_ context.Context, appID string, patch ApplicationPatch) error {
			f.patchCalls++
			if f.patchErr != nil {
				return f.patchErr
			}
			app := f.find(appID)
			if app == nil {
				return fmt.Errorf("no application %s", appID)
			}
			if patch.Status != nil {
				app.Status = *patch.Status
			}
			if patch.Role != nil {
				app.Role = *patch.Role
			}
			if patch.CurrentRound != nil {
				app.CurrentRound = *patch.CurrentRound
			}
			if patch.InterviewDate != nil {
				app.InterviewDate = patch.InterviewDate
			}
			return nil
		},
		Now: time.Date(2026, 2, 8, 10, 0, 0, 0, time.UTC),
	}
}

func app(id, company, role string, status ApplicationStatus, rounds ...InterviewRound) Application {
	return Application{ID: id, Company: company, Role: role, Status: status, Rounds: rounds}
}

func TestUpsertBatch_DirectIDBypassesMatching(t *testing.T) {
	f := &fakeData{apps: []Application{
		app("a1", "Stripe", "Backend Engineer", StatusApplied),
		app("a2", "Stripe", "Backend Engineer", StatusApplied),
	}}

	result := UpsertInterviewRoundsBatch(context.Background(), []RoundUpdate{
		{ApplicationID: "a2", ScheduledDate: "tomorrow"},
	}, f.deps())

	if result.Count != 1 {
		t.Fatalf("count = %d, want 1 (failed: %v)", result.Count, result.Failed)
	}
	if len(f.apps[1].Rounds) != 1 {
		t.Errorf("expected round created on a2, got %d rounds", len(f.apps[1].Rounds))
	}
	if len(f.apps[0].Rounds) != 0 {
		t.Errorf("a1 should be untouched")
	}
}

func TestUpsertBatch_CompanyMatchSingle(t *testing.T) {
	f := &fakeData{apps: []Application{
		app("a1", "Stripe | applied last week", "Backend Engineer", StatusApplied),
		app("a2", "Google", "SWE", StatusApplied),
	}}

	result := UpsertInterviewRoundsBatch(context.Background(), []RoundUpdate{
		{Company: "stripe", ScheduledDate: "2026-03-01", RoundType: "tech 1"},
	}, f.deps())

	if result.Count != 1 {
		t.Fatalf("count = %d, want 1 (failed: %v)", result.Count, result.Failed)
	}
	if f.apps[0].Status != StatusInterview {
		t.Errorf("status = %s, want interview", f.apps[0].Status)
	}
	if f.apps[0].CurrentRound != RoundTypeTechnical1 {
		t.Errorf("current round = %q, want %q", f.apps[0].CurrentRound, RoundTypeTechnical1)
	}
	if !strings.Contains(result.Updated[0], "Stripe -> Round 1 (Technical Round 1) on 2026-03-01") {
		t.Errorf("summary = %q", result.Updated[0])
	}
}

func TestUpsertBatch_AmbiguousCompanyPrefersInterviewStatus(t *testing.T) {
	f := &fakeData{apps: []Application{
		app("a1", "Acme", "SWE", StatusApplied),
		app("a2", "Acme", "SWE", StatusInterview),
	}}

	result := UpsertInterviewRoundsBatch(context.Background(), []RoundUpdate{
		{Company: "Acme", ScheduledDate: "today"},
	}, f.deps())

	if result.Count != 1 {
		t.Fatalf("count = %d, want 1 (failed: %v)", result.Count, result.Failed)
	}
	if len(f.apps[1].Rounds) != 1 {
		t.Errorf("round should land on the interview-status application")
	}
	if len(f.apps[0].Rounds) != 0 {
		t.Errorf("applied-status application should be untouched")
	}
}

func TestUpsertBatch_AmbiguousCompanyPrefersExistingRounds(t *testing.T) {
	f := &fakeData{apps: []Application{
		app("a1", "Acme", "SWE", StatusApplied),
		app("a2", "Acme", "SWE", StatusApplied,
			InterviewRound{RoundNumber: 1, RoundType: RoundTypeHR}),
	}}

	result := UpsertInterviewRoundsBatch(context.Background(), []RoundUpdate{
		{Company: "Acme", ScheduledDate: "today"},
	}, f.deps())

	if result.Count != 1 {
		t.Fatalf("count = %d, want 1 (failed: %v)", result.Count, result.Failed)
	}
	if len(f.apps[1].Rounds) != 2 {
		t.Errorf("round should land on the application that already has rounds, got %d", len(f.apps[1].Rounds))
	}
}

func TestUpsertBatch_RoleGivenPrefersCanonicalCompanyForm(t *testing.T) {
	f := &fakeData{apps: []Application{
		app("a1", "Acme | referral from Dana", "SWE", StatusApplied),
		app("a2", "Acme", "SWE", StatusApplied),
	}}

	result := UpsertInterviewRoundsBatch(context.Background(), []RoundUpdate{
		{Company: "Acme", Role: "swe", ScheduledDate: "today"},
	}, f.deps())

	if result.Count != 1 {
		t.Fatalf("count = %d, want 1 (failed: %v)", result.Count, result.Failed)
	}
	if len(f.apps[1].Rounds) != 1 {
		t.Errorf("round should land on the clean company form")
	}
	if len(f.apps[0].Rounds) != 0 {
		t.Errorf("annotated duplicate should be untouched")
	}
}

func TestUpsertBatch_NoRoleCanonicalFormDoesNotDisambiguate(t *testing.T) {
	f := &fakeData{apps: []Application{
		app("a1", "Acme | referral from Dana", "SWE", StatusApplied),
		app("a2", "Acme", "SWE", StatusApplied),
	}}

	result := UpsertInterviewRoundsBatch(context.Background(), []RoundUpdate{
		{Company: "Acme", ScheduledDate: "today"},
	}, f.deps())

	if result.Count != 0 {
		t.Fatalf("count = %d, want 0: without a role the clean form must not win", result.Count)
	}
	if len(result.Failed) != 1 || result.Failed[0] != "Acme" {
		t.Errorf("failed = %v, want [Acme]", result.Failed)
	}
	if f.createCalls+f.updateCalls != 0 {
		t.Errorf("no mutation expected on ambiguous resolution")
	}
}

func TestUpsertBatch_AmbiguousCompanyBothInterviewFails(t *testing.T) {
	f := &fakeData{apps: []Application{
		app("a1", "Acme", "SWE", StatusInterview),
		app("a2", "Acme", "SWE", StatusInterview),
	}}

	result := UpsertInterviewRoundsBatch(context.Background(), []RoundUpdate{
		{Company: "Acme", ScheduledDate: "today"},
	}, f.deps())

	if result.Count != 0 {
		t.Fatalf("count = %d, want 0", result.Count)
	}
	if len(result.Failed) != 1 || result.Failed[0] != "Acme" {
		t.Errorf("failed = %v, want [Acme]", result.Failed)
	}
	if f.createCalls != 0 {
		t.Errorf("no mutation expected on ambiguous resolution")
	}
}

func TestUpsertBatch_RoleNarrowsCompanyMatches(t *testing.T) {
	f := &fakeData{apps: []Application{
		app("a1", "Acme", "Data Engineer", StatusApplied),
		app("a2", "Acme", "Backend Engineer", StatusApplied),
	}}

	result := UpsertInterviewRoundsBatch(context.Background(), []RoundUpdate{
		{Company: "Acme", Role: "backend engineer", ScheduledDate: "today"},
	}, f.deps())

	if result.Count != 1 {
		t.Fatalf("count = %d, want 1 (failed: %v)", result.Count, result.Failed)
	}
	if len(f.apps[1].Rounds) != 1 {
		t.Errorf("round should land on the role-equivalent application")
	}
}

func TestUpsertBatch_GenericRoleGetsRenamed(t *testing.T) {
	f := &fakeData{apps: []Application{
		app("a1", "Acme", "Unknown", StatusApplied),
	}}

	result := UpsertInterviewRoundsBatch(context.Background(), []RoundUpdate{
		{Company: "Acme", Role: "Platform Engineer", ScheduledDate: "today"},
	}, f.deps())

	if result.Count != 1 {
		t.Fatalf("count = %d, want 1 (failed: %v)", result.Count, result.Failed)
	}
	if f.apps[0].Role != "Platform Engineer" {
		t.Errorf("role = %q, want renamed to Platform Engineer", f.apps[0].Role)
	}
}

func TestUpsertBatch_RoleOnlyResolution(t *testing.T) {
	f := &fakeData{apps: []Application{
		app("a1", "Acme", "Data Engineer", StatusApplied),
		app("a2", "Initech", "Backend Engineer", StatusApplied),
	}}

	result := UpsertInterviewRoundsBatch(context.Background(), []RoundUpdate{
		{Role: "backend engineer", ScheduledDate: "today"},
	}, f.deps())

	if result.Count != 1 {
		t.Fatalf("count = %d, want 1 (failed: %v)", result.Count, result.Failed)
	}
	if len(f.apps[1].Rounds) != 1 {
		t.Errorf("round should land on Initech")
	}
}

func TestUpsertBatch_ContextCarryOver(t *testing.T) {
	f := &fakeData{apps: []Application{
		app("a1", "Stripe", "Backend Engineer", StatusApplied),
	}}

	result := UpsertInterviewRoundsBatch(context.Background(), []RoundUpdate{
		{Company: "Stripe", RoundNumber: 1, ScheduledDate: "tomorrow", RoundType: "HR"},
		{RoundNumber: 2, ScheduledDate: "in 3 days", RoundType: "tech 1"},
	}, f.deps())

	if result.Count != 2 {
		t.Fatalf("count = %d, want 2 (failed: %v)", result.Count, result.Failed)
	}
	if len(f.apps[0].Rounds) != 2 {
		t.Fatalf("rounds = %d, want 2 distinct rounds", len(f.apps[0].Rounds))
	}
	if f.apps[0].Rounds[0].RoundNumber == f.apps[0].Rounds[1].RoundNumber {
		t.Errorf("round numbers must be distinct")
	}
}

func TestUpsertBatch_RoundNumberDefaultsToMaxPlusOne(t *testing.T) {
	f := &fakeData{apps: []Application{
		app("a1", "Acme", "SWE", StatusInterview,
			InterviewRound{RoundNumber: 1, RoundType: RoundTypeHR},
			InterviewRound{RoundNumber: 3, RoundType: RoundTypeTechnical1}),
	}}

	result := UpsertInterviewRoundsBatch(context.Background(), []RoundUpdate{
		{Company: "Acme", ScheduledDate: "today"},
	}, f.deps())

	if result.Count != 1 {
		t.Fatalf("count = %d, want 1 (failed: %v)", result.Count, result.Failed)
	}
	r := findRound(&f.apps[0], 4)
	if r == nil {
		t.Fatalf("expected new round 4, rounds: %+v", f.apps[0].Rounds)
	}
	if r.RoundType != "Round 4" {
		t.Errorf("round type = %q, want derived 'Round 4'", r.RoundType)
	}
}

func TestUpsertBatch_ExistingTypeReusesNumber(t *testing.T) {
	f := &fakeData{apps: []Application{
		app("a1", "Acme", "SWE", StatusInterview,
			InterviewRound{RoundNumber: 2, RoundType: RoundTypeSystemDesign, Notes: "whiteboard"}),
	}}

	result := UpsertInterviewRoundsBatch(context.Background(), []RoundUpdate{
		{Company: "Acme", RoundType: "sys design", ScheduledDate: "next friday", Notes: "rescheduled"},
	}, f.deps())

	if result.Count != 1 {
		t.Fatalf("count = %d, want 1 (failed: %v)", result.Count, result.Failed)
	}
	if f.createCalls != 0 || f.updateCalls != 1 {
		t.Errorf("create/update = %d/%d, want 0/1", f.createCalls, f.updateCalls)
	}
	r := findRound(&f.apps[0], 2)
	if r.Notes != "whiteboard. rescheduled" {
		t.Errorf("notes = %q, want merged", r.Notes)
	}
}

func TestUpsertBatch_NoteMergeIdempotent(t *testing.T) {
	f := &fakeData{apps: []Application{
		app("a1", "Acme", "SWE", StatusInterview,
			InterviewRound{RoundNumber: 1, RoundType: RoundTypeHR, Notes: "bring portfolio"}),
	}}

	result := UpsertInterviewRoundsBatch(context.Background(), []RoundUpdate{
		{Company: "Acme", RoundNumber: 1, ScheduledDate: "today", Notes: "Bring Portfolio"},
	}, f.deps())

	if result.Count != 1 {
		t.Fatalf("count = %d, want 1 (failed: %v)", result.Count, result.Failed)
	}
	if got := findRound(&f.apps[0], 1).Notes; got != "bring portfolio" {
		t.Errorf("notes = %q, want unchanged", got)
	}
}

func TestUpsertBatch_BadDateNoMutation(t *testing.T) {
	f := &fakeData{apps: []Application{
		app("a1", "Acme", "SWE", StatusApplied),
	}}

	result := UpsertInterviewRoundsBatch(context.Background(), []RoundUpdate{
		{Company: "Acme", ScheduledDate: "whenever works"},
	}, f.deps())

	if result.Count != 0 || len(result.Failed) != 1 {
		t.Fatalf("result = %+v, want one failure", result)
	}
	if f.createCalls+f.updateCalls+f.patchCalls != 0 {
		t.Errorf("no mutator may run on date-parse failure")
	}
}

func TestUpsertBatch_BadDateLabelUsesResolvedCompany(t *testing.T) {
	f := &fakeData{apps: []Application{
		app("a1", "Stripe | applied last week", "SWE", StatusApplied),
	}}

	result := UpsertInterviewRoundsBatch(context.Background(), []RoundUpdate{
		{ApplicationID: "a1", ScheduledDate: "gibberish"},
	}, f.deps())

	if len(result.Failed) != 1 || result.Failed[0] != "Stripe" {
		t.Errorf("failed = %v, want the resolved application's company, not 'unknown'", result.Failed)
	}
}

func TestUpsertBatch_PersistFailureContinuesBatch(t *testing.T) {
	f := &fakeData{apps: []Application{
		app("a1", "Acme", "SWE", StatusApplied),
		app("a2", "Initech", "SWE", StatusApplied),
	}}
	f.createErr = errors.New("boom")

	deps := f.deps()
	result := UpsertInterviewRoundsBatch(context.Background(), []RoundUpdate{
		{Company: "Acme", ScheduledDate: "today"},
		{Company: "Initech", ScheduledDate: "today"},
	}, deps)

	if len(result.Failed) != 2 {
		t.Fatalf("failed = %v, want both (createErr set)", result.Failed)
	}
	if result.Count != 0 {
		t.Errorf("count = %d, want 0", result.Count)
	}
}

func TestUpsertBatch_EveryInstructionAccountedFor(t *testing.T) {
	f := &fakeData{apps: []Application{
		app("a1", "Acme", "SWE", StatusApplied),
	}}

	updates := []RoundUpdate{
		{Company: "Acme", ScheduledDate: "today"},
		{Company: "Nowhere Inc", ScheduledDate: "today"},
		{Company: "Acme", ScheduledDate: "gibberish"},
	}
	result := UpsertInterviewRoundsBatch(context.Background(), updates, f.deps())

	if got := len(result.Updated) + len(result.Failed); got != len(updates) {
		t.Errorf("updated+failed = %d, want %d", got, len(updates))
	}
	if result.Count != len(result.Updated) {
		t.Errorf("count = %d, want len(updated) = %d", result.Count, len(result.Updated))
	}
}

func TestUpsertBatch_UnknownTargetFailsWithLabel(t *testing.T) {
	f := &fakeData{}

	result := UpsertInterviewRoundsBatch(context.Background(), []RoundUpdate{
		{ScheduledDate: "today"},
	}, f.deps())

	if len(result.Failed) != 1 || result.Failed[0] != "unknown" {
		t.Errorf("failed = %v, want [unknown]", result.Failed)
	}
}

func TestUpsertBatch_RefreshRetryUsed(t *testing.T) {
	f := &fakeData{apps: []Application{
		app("a1", "Acme", "SWE", StatusApplied),
	}}

	result := UpsertInterviewRoundsBatch(context.Background(), []RoundUpdate{
		{Company: "Missing Co", ScheduledDate: "today"},
	}, f.deps())

	if result.Count != 0 {
		t.Fatalf("count = %d, want 0", result.Count)
	}
	if f.refreshes != 1 {
		t.Errorf("refreshes = %d, want exactly one retry fetch", f.refreshes)
	}
}

func TestMergeNotes(t *testing.T) {
	cases := []struct {
		existing, incoming, want string
	}{
		{"", "", ""},
		{"a", "", "a"},
		{"", "b", "b"},
		{"same note", "same note", "same note"},
		{"prep STAR stories", "prep star stories and metrics", "prep star stories and metrics"},
		{"first.", "second", "first. second"},
		{"first", "second", "first. second"},
	}
	for _, tc := range cases {
		if got := MergeNotes(tc.existing, tc.incoming); got != tc.want {
			t.Errorf("MergeNotes(%q, %q) = %q, want %q", tc.existing, tc.incoming, got, tc.want)
		}
	}
}
