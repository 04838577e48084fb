package models

import "time"

// Company is a hiring partner.
type Company struct {
	ID        string    `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	Contact   string    `db:"contact" json:"contact,omitempty"`
	City      string    `db:"city" json:"city,omitempty"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// Placement records a student placed at a company.
type Placement struct {
	ID        string    `db:"id" json:"id"`
	StudentID string    `db:"student_id" json:"student_id"`
	CompanyID string    `db:"company_id" json:"company_id"`
	RoleTitle string    `db:"role_title" json:"role_title"`
	CTC       int64     `db:"ctc" json:"ctc"`
	PlacedOn  time.Time `db:"placed_on" json:"placed_on"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// IncentiveStatus enumerates payout states for partner incentives.
type IncentiveStatus string

const (
	IncentivePending  IncentiveStatus = "PENDING"
	IncentiveApproved IncentiveStatus = "APPROVED"
	IncentivePaid     IncentiveStatus = "PAID"
)

// Incentive is a channel partner's commission on an admission.
type Incentive struct {
	ID          string          `db:"id" json:"id"`
	PartnerID   string          `db:"partner_id" json:"partner_id"`
	AdmissionID string          `db:"admission_id" json:"admission_id"`
	Amount      int64           `db:"amount" json:"amount"`
	Status      IncentiveStatus `db:"status" json:"status"`
	CreatedAt   time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time       `db:"updated_at" json:"updated_at"`
}
