package models

import "time"

// LeadStatus enumerates the lead pipeline states.
type LeadStatus string

const (
	LeadStatusNew         LeadStatus = "NEW"
	LeadStatusContacted   LeadStatus = "CONTACTED"
	LeadStatusQualified   LeadStatus = "QUALIFIED"
	LeadStatusNegotiating LeadStatus = "NEGOTIATING"
	LeadStatusConverted   LeadStatus = "CONVERTED"
	LeadStatusLost        LeadStatus = "LOST"
)

// ValidLeadStatus reports whether the status belongs to the pipeline.
func ValidLeadStatus(s LeadStatus) bool {
	switch s {
	case LeadStatusNew, LeadStatusContacted, LeadStatusQualified,
		LeadStatusNegotiating, LeadStatusConverted, LeadStatusLost:
		return true
	}
	return false
}

// Lead is a prospective-student enquiry record.
type Lead struct {
	ID         string     `db:"id" json:"id"`
	Name       string     `db:"name" json:"name"`
	Email      string     `db:"email" json:"email,omitempty"`
	Phone      string     `db:"phone" json:"phone"`
	Source     string     `db:"source" json:"source"`
	BranchID   string     `db:"branch_id" json:"branch_id"`
	CourseID   *string    `db:"course_id" json:"course_id,omitempty"`
	Status     LeadStatus `db:"status" json:"status"`
	AssignedTo *string    `db:"assigned_to" json:"assigned_to,omitempty"`
	Notes      string     `db:"notes" json:"notes,omitempty"`
	CreatedAt  time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time  `db:"updated_at" json:"updated_at"`
}

// LeadFilter captures list filters for leads.
type LeadFilter struct {
	Status     *LeadStatus
	BranchID   string
	AssignedTo string
	Source     string
	Search     string
	Page       int
	PageSize   int
	SortBy     string
	SortOrder  string
}
