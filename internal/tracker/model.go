package tracker

import "time"

// ApplicationStatus represents where a tracked application currently stands.
type ApplicationStatus string

const (
	StatusApplied     ApplicationStatus = "applied"
	StatusShortlisted ApplicationStatus = "shortlisted"
	StatusInterview   ApplicationStatus = "interview"
	StatusOffer       ApplicationStatus = "offer"
	StatusRejected    ApplicationStatus = "rejected"
)

// ValidStatus checks if a status string is valid.
func ValidStatus(s string) bool {
	switch ApplicationStatus(s) {
	case StatusApplied, StatusShortlisted, StatusInterview, StatusOffer, StatusRejected:
		return true
	}
	return false
}

// Application is a single tracked job application with its interview rounds.
type Application struct {
	ID            string            `json:"id"`
	Company       string            `json:"company"`
	Role          string            `json:"role"`
	Status        ApplicationStatus `json:"status"`
	CurrentRound  string            `json:"current_round,omitempty"`
	InterviewDate *time.Time        `json:"interview_date,omitempty"`
	Notes         string            `json:"notes,omitempty"`
	Rounds        []InterviewRound  `json:"rounds,omitempty"`
	CreatedAt     time.Time         `json:"created_at"`
	UpdatedAt     time.Time         `json:"updated_at"`
}

// InterviewRound is one interview stage of an application.
// Round numbers are unique within an application.
type InterviewRound struct {
	RoundNumber    int        `json:"round_number"`
	RoundType      string     `json:"round_type"`
	Notes          string     `json:"notes,omitempty"`
	ScheduledDate  *time.Time `json:"scheduled_date,omitempty"`
	QuestionsAsked []string   `json:"questions_asked"`
}

// RoundData carries the mutable fields of a round for create/update calls.
type RoundData struct {
	RoundNumber    int        `json:"round_number"`
	RoundType      string     `json:"round_type"`
	Notes          string     `json:"notes,omitempty"`
	ScheduledDate  *time.Time `json:"scheduled_date,omitempty"`
	QuestionsAsked []string   `json:"questions_asked"`
}

// ApplicationPatch is a partial update of an application. Nil fields are left untouched.
type ApplicationPatch struct {
	Company       *string
	Role          *string
	Status        *ApplicationStatus
	CurrentRound  *string
	InterviewDate *time.Time
	Notes         *string
}

// SprintDay is one day of a generated study sprint.
type SprintDay struct {
	Day       int      `json:"day"`
	Topic     string   `json:"topic"`
	Tasks     []string `json:"tasks"`
	Resources []string `json:"resources,omitempty"`
}

// Sprint is a persisted study plan generated for an upcoming interview.
type Sprint struct {
	ID           string      `json:"id"`
	Role         string      `json:"role"`
	Company      string      `json:"company,omitempty"`
	Focus        string      `json:"focus,omitempty"`
	DurationDays int         `json:"duration_days"`
	Days         []SprintDay `json:"days"`
	Summary      string      `json:"summary,omitempty"`
	CreatedAt    time.Time   `json:"created_at"`
}

// Question is a single question bank entry.
type Question struct {
	ID        string    `json:"id"`
	Topic     string    `json:"topic,omitempty"`
	Question  string    `json:"question"`
	Answer    string    `json:"answer,omitempty"`
	Source    string    `json:"source,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// maxRoundNumber returns the highest round number on the application, 0 if none.
func maxRoundNumber(app *Application) int {
	max := 0
	for _, r := range app.Rounds {
		if r.RoundNumber > max {
			max = r.RoundNumber
		}
	}
	return max
}

// findRound returns the round with the given number, or nil.
func findRound(app *Application, number int) *InterviewRound {
	for i := range app.Rounds {
		if app.Rounds[i].RoundNumber == number {
			return &app.Rounds[i]
		}
	}
	return nil
}
