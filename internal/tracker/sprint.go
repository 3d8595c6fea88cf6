package tracker

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/anatolykoptev/go-kit/strutil"
	"golang.org/x/time/rate"
)

// --- Study Sprint Generation ---

// SprintInput is the input for study_sprint_generate.
type SprintInput struct {
	Role         string `json:"role"`
	Company      string `json:"company,omitempty"`
	Focus        string `json:"focus,omitempty"` // e.g. "system design", "dsa", "behavioral"
	DurationDays int    `json:"duration_days,omitempty"`
	Context      string `json:"context,omitempty"` // free text: weak areas, JD excerpt
}

// SprintListInput is the input for study_sprint_list.
type SprintListInput struct {
	Limit int `json:"limit,omitempty"`
}

// SprintListResult is the output for study_sprint_list.
type SprintListResult struct {
	Sprints []Sprint `json:"sprints"`
	Total   int      `json:"total"`
}

const sprintPrompt = `You are an interview preparation coach. Build a day-by-day study sprint for a candidate preparing for interviews.

ROLE: %s
COMPANY: %s
FOCUS: %s
DAYS: %d
CANDIDATE CONTEXT:
%s

Rules:
- Exactly one entry per day, days numbered 1..N
- Each day has a single topic, 3-5 concrete tasks, and up to 3 resources
- Order topics from fundamentals to the focus area, ending with mock interviews
- Tasks must be actionable ("implement an LRU cache", not "study caching")

Return a JSON object with this exact structure:
{
  "days": [
    {"day": 1, "topic": "<topic>", "tasks": ["<task>"], "resources": ["<resource>"]}
  ],
  "summary": "<2-3 sentences of overall guidance for this sprint>"
}

Return ONLY the JSON object, no markdown, no explanation.`

// sprintLimiter spaces out LLM calls so a chatty assistant can't burn the quota.
var sprintLimiter = rate.NewLimiter(rate.Every(2*time.Second), 3)

// GenerateStudySprint builds (or reuses from cache) a study plan and persists it.
func GenerateStudySprint(ctx context.Context, input SprintInput) (*Sprint, error) {
	role := strings.TrimSpace(input.Role)
	if role == "" {
		return nil, fmt.Errorf("study_sprint: role is required")
	}

	days := input.DurationDays
	maxDays := cfg.SprintMaxDays
	if maxDays <= 0 {
		maxDays = 30
	}
	if days <= 0 {
		days = 7
	}
	if days > maxDays {
		days = maxDays
	}

	cacheKey := CacheKey("study_sprint", role, input.Company, input.Focus, strconv.Itoa(days))
	if cached, ok := CacheGetJSON[Sprint](ctx, cacheKey); ok {
		sprint := cached
		sprint.ID = "" // persisted as a fresh record below
		if err := saveSprint(ctx, &sprint); err != nil {
			return nil, err
		}
		return &sprint, nil
	}

	if err := sprintLimiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("study_sprint: %w", err)
	}

	focus := input.Focus
	if focus == "" {
		focus = "balanced"
	}
	prompt := fmt.Sprintf(sprintPrompt, role, orDash(input.Company), focus, days,
		orDash(strutil.TruncateWith(input.Context, 3000, "")))

	raw, err := CallLLM(ctx, prompt)
	if err != nil {
		return nil, fmt.Errorf("study_sprint LLM: %w", err)
	}

	var parsed struct {
		Days    []SprintDay `json:"days"`
		Summary string      `json:"summary"`
	}
	if err := json.Unmarshal([]byte(raw), &parsed); err != nil {
		return nil, fmt.Errorf("study_sprint parse: %w (raw: %s)", err, strutil.TruncateWith(raw, 200, "..."))
	}
	if len(parsed.Days) == 0 {
		return nil, fmt.Errorf("study_sprint: LLM returned no days")
	}
	if len(parsed.Days) > days {
		parsed.Days = parsed.Days[:days]
	}

	sprint := Sprint{
		Role:         role,
		Company:      input.Company,
		Focus:        focus,
		DurationDays: len(parsed.Days),
		Days:         parsed.Days,
		Summary:      parsed.Summary,
	}
	if err := saveSprint(ctx, &sprint); err != nil {
		return nil, err
	}
	CacheSetJSON(ctx, cacheKey, sprint)
	return &sprint, nil
}

func saveSprint(ctx context.Context, sp *Sprint) error {
	s := GetStore()
	if s == nil {
		return fmt.Errorf("study_sprint: store not initialized")
	}
	if err := s.SaveSprint(ctx, sp); err != nil {
		return fmt.Errorf("study_sprint: save: %w", err)
	}
	return nil
}

// ListStudySprints returns previously generated sprints, newest first.
func ListStudySprints(ctx context.Context, input SprintListInput) (*SprintListResult, error) {
	s := GetStore()
	if s == nil {
		return nil, fmt.Errorf("study_sprint_list: store not initialized")
	}
	sprints, err := s.ListSprints(ctx, input.Limit)
	if err != nil {
		return nil, fmt.Errorf("study_sprint_list: %w", err)
	}
	return &SprintListResult{Sprints: sprints, Total: len(sprints)}, nil
}

func orDash(s string) string {
	if strings.TrimSpace(s) == "" {
		return "-"
	}
	return s
}
