package models

import "time"

// Expense is a branch-level spend entry.
type Expense struct {
	ID        string    `db:"id" json:"id"`
	BranchID  string    `db:"branch_id" json:"branch_id"`
	Category  string    `db:"category" json:"category"`
	Amount    int64     `db:"amount" json:"amount"`
	SpentOn   time.Time `db:"spent_on" json:"spent_on"`
	Notes     string    `db:"notes" json:"notes,omitempty"`
	CreatedBy *string   `db:"created_by" json:"created_by,omitempty"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// EventStatus enumerates event plan states.
type EventStatus string

const (
	EventPlanned   EventStatus = "PLANNED"
	EventDone      EventStatus = "DONE"
	EventCancelled EventStatus = "CANCELLED"
)

// EventPlan is a scheduled branch event (seminar, drive, workshop).
type EventPlan struct {
	ID          string      `db:"id" json:"id"`
	BranchID    string      `db:"branch_id" json:"branch_id"`
	Title       string      `db:"title" json:"title"`
	ScheduledOn time.Time   `db:"scheduled_on" json:"scheduled_on"`
	Budget      int64       `db:"budget" json:"budget"`
	Status      EventStatus `db:"status" json:"status"`
	CreatedAt   time.Time   `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time   `db:"updated_at" json:"updated_at"`
}
