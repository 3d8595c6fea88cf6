package tracker

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// ApplicationAddInput is the input for application_add.
type ApplicationAddInput struct {
	Company string `json:"company"`
	Role    string `json:"role,omitempty"`
	Status  string `json:"status,omitempty"`
	Notes   string `json:"notes,omitempty"`
}

// ApplicationListInput is the input for application_list.
type ApplicationListInput struct {
	Status string `json:"status,omitempty"`
}

// ApplicationUpdateInput is the input for application_update.
type ApplicationUpdateInput struct {
	ID     string `json:"id"`
	Status string `json:"status,omitempty"`
	Role   string `json:"role,omitempty"`
	Notes  string `json:"notes,omitempty"`
}

// ApplicationResult is the output for add/update operations.
type ApplicationResult struct {
	ID      string `json:"id"`
	Message string `json:"message"`
}

// ApplicationListResult is the output for list operations.
type ApplicationListResult struct {
	Applications []Application `json:"applications"`
	Total        int           `json:"total"`
}

// AddApplication saves a new tracked application. A missing role gets the
// generic placeholder so the round resolver can rename it later without
// data loss.
func AddApplication(ctx context.Context, input ApplicationAddInput) (*ApplicationResult, error) {
	company := SanitizeCompanyName(input.Company)
	if company == "" {
		return nil, errors.New("application_add: company is required")
	}

	status := strings.ToLower(strings.TrimSpace(input.Status))
	if status == "" {
		status = string(StatusApplied)
	}
	if !ValidStatus(status) {
		return nil, fmt.Errorf("application_add: invalid status %q (valid: applied, shortlisted, interview, offer, rejected)", status)
	}

	role := strings.TrimSpace(input.Role)
	if role == "" {
		role = "Unknown"
	}

	s := GetStore()
	if s == nil {
		return nil, errors.New("application_add: store not initialized")
	}

	app := Application{
		Company: company,
		Role:    role,
		Status:  ApplicationStatus(status),
		Notes:   input.Notes,
	}
	if err := s.CreateApplication(ctx, &app); err != nil {
		return nil, fmt.Errorf("application_add: %w", err)
	}

	return &ApplicationResult{
		ID:      app.ID,
		Message: fmt.Sprintf("Application for '%s' at '%s' saved with status '%s' (id=%s)", role, company, status, app.ID),
	}, nil
}

// ListApplications returns tracked applications, optionally filtered by status.
func ListApplications(ctx context.Context, input ApplicationListInput) (*ApplicationListResult, error) {
	s := GetStore()
	if s == nil {
		return nil, errors.New("application_list: store not initialized")
	}

	apps, err := s.ListApplications(ctx)
	if err != nil {
		return nil, fmt.Errorf("application_list: %w", err)
	}

	if input.Status != "" {
		status := strings.ToLower(input.Status)
		if !ValidStatus(status) {
			return nil, fmt.Errorf("application_list: invalid status %q", status)
		}
		filtered := apps[:0]
		for _, a := range apps {
			if a.Status == ApplicationStatus(status) {
				filtered = append(filtered, a)
			}
		}
		apps = filtered
	}

	if apps == nil {
		apps = []Application{}
	}
	return &ApplicationListResult{Applications: apps, Total: len(apps)}, nil
}

// UpdateApplicationFields updates status, role and/or notes of an application by id.
func UpdateApplicationFields(ctx context.Context, input ApplicationUpdateInput) (*ApplicationResult, error) {
	if input.ID == "" {
		return nil, errors.New("application_update: id is required")
	}
	if input.Status == "" && input.Role == "" && input.Notes == "" {
		return nil, errors.New("application_update: at least one of status, role or notes must be provided")
	}

	var patch ApplicationPatch
	if input.Status != "" {
		status := strings.ToLower(input.Status)
		if !ValidStatus(status) {
			return nil, fmt.Errorf("application_update: invalid status %q", status)
		}
		st := ApplicationStatus(status)
		patch.Status = &st
	}
	if input.Role != "" {
		role := strings.TrimSpace(input.Role)
		patch.Role = &role
	}
	if input.Notes != "" {
		patch.Notes = &input.Notes
	}

	s := GetStore()
	if s == nil {
		return nil, errors.New("application_update: store not initialized")
	}
	if err := s.UpdateApplication(ctx, input.ID, patch); err != nil {
		return nil, fmt.Errorf("application_update: %w", err)
	}

	return &ApplicationResult{
		ID:      input.ID,
		Message: fmt.Sprintf("Application %s updated successfully", input.ID),
	}, nil
}

// --- Interview rounds ---

// RoundsBatchInput is the input for interview_rounds_set.
type RoundsBatchInput struct {
	Updates []RoundUpdate `json:"updates"`
}

// SetInterviewRounds runs the round resolver against the configured store.
func SetInterviewRounds(ctx context.Context, input RoundsBatchInput) (*BatchResult, error) {
	s := GetStore()
	if s == nil {
		return nil, errors.New("interview_rounds_set: store not initialized")
	}
	result := UpsertInterviewRoundsBatch(ctx, input.Updates, StoreDeps(s))
	return &result, nil
}

// --- Question bank ---

// QuestionAddInput is the input for question_bank_add.
type QuestionAddInput struct {
	Topic    string `json:"topic,omitempty"`
	Question string `json:"question"`
	Answer   string `json:"answer,omitempty"`
	Source   string `json:"source,omitempty"` // e.g. company or round where it was asked
}

// QuestionListInput is the input for question_bank_list.
type QuestionListInput struct {
	Topic string `json:"topic,omitempty"`
	Limit int    `json:"limit,omitempty"`
}

// QuestionListResult is the output for question_bank_list.
type QuestionListResult struct {
	Questions []Question `json:"questions"`
	Total     int        `json:"total"`
}

// AddBankQuestion saves a question bank entry.
func AddBankQuestion(ctx context.Context, input QuestionAddInput) (*ApplicationResult, error) {
	if strings.TrimSpace(input.Question) == "" {
		return nil, errors.New("question_bank_add: question is required")
	}
	s := GetStore()
	if s == nil {
		return nil, errors.New("question_bank_add: store not initialized")
	}
	q := Question{
		Topic:    input.Topic,
		Question: input.Question,
		Answer:   input.Answer,
		Source:   input.Source,
	}
	if err := s.AddQuestion(ctx, &q); err != nil {
		return nil, fmt.Errorf("question_bank_add: %w", err)
	}
	return &ApplicationResult{ID: q.ID, Message: fmt.Sprintf("Question saved (id=%s)", q.ID)}, nil
}

// ListBankQuestions returns question bank entries, optionally filtered by topic.
func ListBankQuestions(ctx context.Context, input QuestionListInput) (*QuestionListResult, error) {
	s := GetStore()
	if s == nil {
		return nil, errors.New("question_bank_list: store not initialized")
	}
	questions, err := s.ListQuestions(ctx, input.Topic, input.Limit)
	if err != nil {
		return nil, fmt.Errorf("question_bank_list: %w", err)
	}
	return &QuestionListResult{Questions: questions, Total: len(questions)}, nil
}
