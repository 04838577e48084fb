package models

import "time"

// AdmissionStatus enumerates admission workflow states.
type AdmissionStatus string

const (
	AdmissionStatusPending   AdmissionStatus = "PENDING"
	AdmissionStatusApproved  AdmissionStatus = "APPROVED"
	AdmissionStatusRejected  AdmissionStatus = "REJECTED"
	AdmissionStatusConverted AdmissionStatus = "CONVERTED"
)

// Admission is an enrollment record carrying fee terms.
type Admission struct {
	ID          string          `db:"id" json:"id"`
	AdmissionNo string          `db:"admission_no" json:"admission_no"`
	LeadID      *string         `db:"lead_id" json:"lead_id,omitempty"`
	Name        string          `db:"name" json:"name"`
	Email       string          `db:"email" json:"email,omitempty"`
	Phone       string          `db:"phone" json:"phone"`
	CourseID    string          `db:"course_id" json:"course_id"`
	BranchID    string          `db:"branch_id" json:"branch_id"`
	TotalFee    int64           `db:"total_fee" json:"total_fee"`
	FeePaid     int64           `db:"fee_paid" json:"fee_paid"`
	Status      AdmissionStatus `db:"status" json:"status"`
	CreatedBy   *string         `db:"created_by" json:"created_by,omitempty"`
	CreatedAt   time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time       `db:"updated_at" json:"updated_at"`
}

// Balance is the outstanding fee. Overpayment yields a negative balance on
// purpose so reconciliation mistakes stay visible.
func (a Admission) Balance() int64 {
	return a.TotalFee - a.FeePaid
}

// FeePayment records a single payment against an admission.
type FeePayment struct {
	ID          string    `db:"id" json:"id"`
	AdmissionID string    `db:"admission_id" json:"admission_id"`
	Amount      int64     `db:"amount" json:"amount"`
	Mode        string    `db:"mode" json:"mode"`
	Reference   string    `db:"reference" json:"reference,omitempty"`
	RecordedBy  *string   `db:"recorded_by" json:"recorded_by,omitempty"`
	PaidAt      time.Time `db:"paid_at" json:"paid_at"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}

// AdmissionFilter captures list filters for admissions.
type AdmissionFilter struct {
	Status    *AdmissionStatus
	BranchID  string
	CourseID  string
	Search    string
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}
