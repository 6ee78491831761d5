package triggers

// Event names dispatched through events.Registry.
const (
	EventJobPosted                = "job_posted"
	EventApplicationReceived      = "application_received"
	EventApplicationStatusChanged = "application_status_changed"
	EventMatchScoreCalculated     = "match_score_calculated"
	EventUserCreated              = "user_created"
)

// JobPosted is raised when a recruiter publishes a job.
type JobPosted struct {
	JobID       string `json:"job_id"`
	Title       string `json:"title"`
	CompanyName string `json:"company_name"`
	JobType     string `json:"job_type"`
	Location    string `json:"location"`
	PostedBy    string `json:"posted_by"`
	// SeekerIDs are recipients already matched by the publisher.
	SeekerIDs []string `json:"seeker_ids,omitempty"`
}

// ApplicationReceived is raised when a seeker applies to a job.
type ApplicationReceived struct {
	ApplicationID string `json:"application_id"`
	JobID         string `json:"job_id"`
	JobTitle      string `json:"job_title"`
	ApplicantID   string `json:"applicant_id"`
	ApplicantName string `json:"applicant_name"`
	RecruiterID   string `json:"recruiter_id"`
}

// ApplicationStatusChanged is raised when a recruiter moves an application.
type ApplicationStatusChanged struct {
	ApplicationID string `json:"application_id"`
	JobID         string `json:"job_id"`
	JobTitle      string `json:"job_title"`
	CompanyName   string `json:"company_name"`
	SeekerID      string `json:"seeker_id"`
	OldStatus     string `json:"old_status"`
	NewStatus     string `json:"new_status"`
}

// MatchScoreCalculated is raised when a seeker's resume is scored against a job.
type MatchScoreCalculated struct {
	JobID       string  `json:"job_id"`
	JobTitle    string  `json:"job_title"`
	CompanyName string  `json:"company_name"`
	SeekerID    string  `json:"seeker_id"`
	Score       float64 `json:"score"`
}

// UserCreated is raised when a user account is created.
type UserCreated struct {
	UserID string `json:"user_id"`
	Role   string `json:"role"`
	Email  string `json:"email,omitempty"`
}
