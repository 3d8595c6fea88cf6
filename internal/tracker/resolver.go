package tracker

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"
)

// RoundUpdate is one loosely specified "set an interview round" instruction,
// typically assembled by an LLM tool call from free-text chat. Every field
// except ScheduledDate is optional; resolution fills in the gaps.
type RoundUpdate struct {
	ApplicationID string `json:"application_id,omitempty"`
	Company       string `json:"company,omitempty"`
	Role          string `json:"role,omitempty"`
	RoundType     string `json:"round_type,omitempty"`
	RoundNumber   int    `json:"round_number,omitempty"`
	ScheduledDate string `json:"scheduled_date"`
	Notes         string `json:"notes,omitempty"`
}

// UpsertDeps supplies the data accessors and mutators the resolver works
// through. The resolver itself holds no state between calls.
type UpsertDeps struct {
	GetApplications func(ctx context.Context) ([]Application, error)
	// RefreshApplications, when non-nil, forces a refetch for a single
	// retry after a failed resolution (tolerates stale caller caches).
	RefreshApplications func(ctx context.Context) ([]Application, error)
	CreateRound         func(ctx context.Context, applicationID string, data RoundData) error
	UpdateRound         func(ctx context.Context, applicationID string, roundNumber int, data RoundData) error
	UpdateApplication   func(ctx context.Context, applicationID string, patch ApplicationPatch) error
	// Now overrides the base date for parsing; zero means time.Now().
	Now time.Time
}

// BatchResult reports per-instruction outcomes. Count always equals
// len(Updated); failures never abort the batch.
type BatchResult struct {
	Updated []string `json:"updated"`
	Failed  []string `json:"failed"`
	Count   int      `json:"count"`
}

// UpsertInterviewRoundsBatch resolves and persists a batch of round update
// instructions. Instructions are processed strictly in order: a later
// instruction may omit company/role and still resolve through the id of
// the application an earlier instruction just touched, and round numbering
// must see rounds created earlier in the same batch. The function never
// panics past its own boundary and never returns an error; callers inspect
// Updated/Failed.
func UpsertInterviewRoundsBatch(ctx context.Context, updates []RoundUpdate, deps UpsertDeps) BatchResult {
	result := BatchResult{Updated: []string{}, Failed: []string{}}
	now := deps.Now
	if now.IsZero() {
		now = time.Now()
	}

	var lastResolvedID string

	for _, upd := range updates {
		role := strings.TrimSpace(upd.Role)
		company := SanitizeCompanyName(upd.Company)

		app := resolveWithRefresh(ctx, deps, upd, company, role, lastResolvedID)
		if app == nil {
			reg.Incr(MetricRoundsFailed)
			result.Failed = append(result.Failed, failLabel(company, role))
			continue
		}
		lastResolvedID = app.ID

		scheduled, ok := TryParseDateInput(upd.ScheduledDate, now)
		if !ok {
			slog.Warn("round_upsert: unparseable date, skipping",
				slog.String("date", upd.ScheduledDate),
				slog.String("company", app.Company))
			reg.Incr(MetricRoundsFailed)
			result.Failed = append(result.Failed, failLabel(SanitizeCompanyName(app.Company), role))
			continue
		}

		canonicalType, typeKnown := ParseRoundType(upd.RoundType)

		roundNumber := upd.RoundNumber
		if roundNumber <= 0 {
			if typeKnown {
				for _, r := range app.Rounds {
					if r.RoundType == canonicalType {
						roundNumber = r.RoundNumber
						break
					}
				}
			}
			if roundNumber <= 0 {
				roundNumber = maxRoundNumber(app) + 1
			}
		}

		roundType := canonicalType
		if !typeKnown {
			roundType = DerivedRoundType(roundNumber)
		}

		existing := findRound(app, roundNumber)
		notes := upd.Notes
		if existing != nil {
			notes = MergeNotes(existing.Notes, upd.Notes)
		}

		data := RoundData{
			RoundNumber:   roundNumber,
			RoundType:     roundType,
			Notes:         notes,
			ScheduledDate: &scheduled,
		}

		var err error
		if existing != nil {
			err = deps.UpdateRound(ctx, app.ID, roundNumber, data)
		} else {
			data.QuestionsAsked = []string{}
			err = deps.CreateRound(ctx, app.ID, data)
		}
		if err == nil {
			err = deps.UpdateApplication(ctx, app.ID, interviewPatch(app, role, roundType, scheduled))
		}
		if err != nil {
			slog.Warn("round_upsert: persist failed",
				slog.String("application_id", app.ID),
				slog.Int("round", roundNumber),
				slog.Any("error", err))
			reg.Incr(MetricRoundsFailed)
			result.Failed = append(result.Failed, failLabel(SanitizeCompanyName(app.Company), role))
			continue
		}

		reg.Incr(MetricRoundsResolved)
		result.Updated = append(result.Updated, fmt.Sprintf("%s -> Round %d (%s) on %s",
			SanitizeCompanyName(app.Company), roundNumber, roundType, scheduled.Format("2006-01-02")))
	}

	result.Count = len(result.Updated)
	return result
}

// resolveWithRefresh runs resolution against the current snapshot, and on
// failure refetches once (when the dep is provided) and retries. No second
// retry: remaining ambiguity means the instruction fails rather than
// risking a silent write to the wrong application.
func resolveWithRefresh(ctx context.Context, deps UpsertDeps, upd RoundUpdate, company, role, lastID string) *Application {
	apps, err := deps.GetApplications(ctx)
	if err != nil {
		slog.Warn("round_upsert: snapshot read failed", slog.Any("error", err))
	} else if app := resolveApplication(apps, upd, company, role, lastID); app != nil {
		return app
	}

	if deps.RefreshApplications == nil {
		return nil
	}
	apps, err = deps.RefreshApplications(ctx)
	if err != nil {
		slog.Warn("round_upsert: refresh failed", slog.Any("error", err))
		return nil
	}
	return resolveApplication(apps, upd, company, role, lastID)
}

// resolveApplication identifies exactly one target application, in priority
// order: explicit id, company (optionally narrowed by role), role alone,
// batch context. Each path errs toward returning nil over guessing.
func resolveApplication(apps []Application, upd RoundUpdate, company, role, lastID string) *Application {
	if upd.ApplicationID != "" {
		for i := range apps {
			if apps[i].ID == upd.ApplicationID {
				return &apps[i]
			}
		}
		return nil
	}

	if company != "" {
		var candidates []*Application
		for i := range apps {
			if companiesMatch(apps[i].Company, company) {
				candidates = append(candidates, &apps[i])
			}
		}
		return disambiguate(candidates, role)
	}

	if role != "" {
		var matched []*Application
		for i := range apps {
			if RolesEquivalent(apps[i].Role, role) {
				matched = append(matched, &apps[i])
			}
		}
		if len(matched) == 0 {
			for i := range apps {
				if IsGenericRole(apps[i].Role) {
					matched = append(matched, &apps[i])
				}
			}
		}
		if len(matched) == 1 {
			return matched[0]
		}
		return nil
	}

	if lastID != "" {
		for i := range apps {
			if apps[i].ID == lastID {
				return &apps[i]
			}
		}
	}
	return nil
}

// disambiguate narrows company matches down to a single application.
// Confidence ladder: role-equivalent match, then generic-role candidates
// (safe to rename), then the one candidate whose company field is already
// canonical, then the unique "interview"-status match, then the unique
// candidate that already has rounds. Anything still ambiguous fails.
func disambiguate(candidates []*Application, role string) *Application {
	if len(candidates) == 0 {
		return nil
	}

	if role != "" {
		if sub := filterApps(candidates, func(a *Application) bool { return RolesEquivalent(a.Role, role) }); len(sub) > 0 {
			candidates = sub
		} else if sub := filterApps(candidates, func(a *Application) bool { return IsGenericRole(a.Role) }); len(sub) > 0 {
			candidates = sub
		}
	}
	if len(candidates) == 1 {
		return candidates[0]
	}

	if role != "" {
		if sub := filterApps(candidates, func(a *Application) bool { return companyCanonical(a.Company) }); len(sub) == 1 {
			return sub[0]
		}
	}
	if sub := filterApps(candidates, func(a *Application) bool { return a.Status == StatusInterview }); len(sub) == 1 {
		return sub[0]
	}
	if sub := filterApps(candidates, func(a *Application) bool { return len(a.Rounds) > 0 }); len(sub) == 1 {
		return sub[0]
	}
	return nil
}

func filterApps(apps []*Application, keep func(*Application) bool) []*Application {
	var out []*Application
	for _, a := range apps {
		if keep(a) {
			out = append(out, a)
		}
	}
	return out
}

// interviewPatch builds the unconditional application update that follows
// every round upsert. The role is only overwritten when an incoming role
// was given and the stored one is a placeholder or genuinely different.
func interviewPatch(app *Application, role, roundType string, scheduled time.Time) ApplicationPatch {
	status := StatusInterview
	patch := ApplicationPatch{
		Status:        &status,
		CurrentRound:  &roundType,
		InterviewDate: &scheduled,
	}
	if role != "" && (IsGenericRole(app.Role) || !RolesEquivalent(app.Role, role)) {
		patch.Role = &role
	}
	return patch
}

// MergeNotes combines an existing note with an incoming one without
// duplicating content: when either side already contains the other
// (case-insensitive), the more inclusive note wins unchanged; otherwise
// they concatenate with a period separator.
func MergeNotes(existing, incoming string) string {
	existing = strings.TrimSpace(existing)
	incoming = strings.TrimSpace(incoming)
	if incoming == "" {
		return existing
	}
	if existing == "" {
		return incoming
	}
	lowerExisting := strings.ToLower(existing)
	lowerIncoming := strings.ToLower(incoming)
	if strings.Contains(lowerExisting, lowerIncoming) {
		return existing
	}
	if strings.Contains(lowerIncoming, lowerExisting) {
		return incoming
	}
	sep := ". "
	if strings.HasSuffix(existing, ".") || strings.HasSuffix(existing, "!") || strings.HasSuffix(existing, "?") {
		sep = " "
	}
	return existing + sep + incoming
}

// failLabel builds the best-effort identifier recorded for a failed instruction.
func failLabel(company, role string) string {
	if company != "" {
		return company
	}
	if role != "" {
		return role
	}
	return "unknown"
}
