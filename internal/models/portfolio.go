package models

import "time"

// SubmissionStatus enumerates portfolio review outcomes.
type SubmissionStatus string

const (
	SubmissionSubmitted SubmissionStatus = "SUBMITTED"
	SubmissionApproved  SubmissionStatus = "APPROVED"
	SubmissionRework    SubmissionStatus = "REWORK"
)

// PortfolioTask is an assignment a trainer publishes to a batch.
type PortfolioTask struct {
	ID          string    `db:"id" json:"id"`
	BatchID     string    `db:"batch_id" json:"batch_id"`
	Title       string    `db:"title" json:"title"`
	Description string    `db:"description" json:"description,omitempty"`
	DueDate     time.Time `db:"due_date" json:"due_date"`
	CreatedBy   *string   `db:"created_by" json:"created_by,omitempty"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}

// PortfolioSubmission is a student's answer to a task.
type PortfolioSubmission struct {
	ID         string           `db:"id" json:"id"`
	TaskID     string           `db:"task_id" json:"task_id"`
	StudentID  string           `db:"student_id" json:"student_id"`
	URL        string           `db:"url" json:"url"`
	Status     SubmissionStatus `db:"status" json:"status"`
	Feedback   string           `db:"feedback" json:"feedback,omitempty"`
	ReviewedBy *string          `db:"reviewed_by" json:"reviewed_by,omitempty"`
	CreatedAt  time.Time        `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time        `db:"updated_at" json:"updated_at"`
}
