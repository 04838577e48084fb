package models

import "time"

// AdminDashboard is the ADMIN/CEO overview.
type AdminDashboard struct {
	TotalLeads       int       `json:"total_leads"`
	OpenLeads        int       `json:"open_leads"`
	ConvertedLeads   int       `json:"converted_leads"`
	TotalAdmissions  int       `json:"total_admissions"`
	ActiveStudents   int       `json:"active_students"`
	ActiveBatches    int       `json:"active_batches"`
	TotalPlacements  int       `json:"total_placements"`
	FeeCollected     int64     `json:"fee_collected"`
	FeeOutstanding   int64     `json:"fee_outstanding"`
	LeadsByStatus    []KV      `json:"leads_by_status"`
	AdmissionsByMonth []KV     `json:"admissions_by_month"`
	GeneratedAt      time.Time `json:"generated_at"`
}

// BranchDashboard is the CHANNEL_PARTNER / branch-head overview.
type BranchDashboard struct {
	BranchID        string    `json:"branch_id"`
	TotalLeads      int       `json:"total_leads"`
	OpenLeads       int       `json:"open_leads"`
	TotalAdmissions int       `json:"total_admissions"`
	ActiveStudents  int       `json:"active_students"`
	FeeCollected    int64     `json:"fee_collected"`
	FeeOutstanding  int64     `json:"fee_outstanding"`
	IncentivesDue   int64     `json:"incentives_due"`
	GeneratedAt     time.Time `json:"generated_at"`
}

// TrainerDashboard summarises a trainer's batches.
type TrainerDashboard struct {
	TrainerID       string    `json:"trainer_id"`
	ActiveBatches   int       `json:"active_batches"`
	TotalStudents   int       `json:"total_students"`
	PendingReviews  int       `json:"pending_reviews"`
	UpcomingTests   int       `json:"upcoming_tests"`
	GeneratedAt     time.Time `json:"generated_at"`
}

// StudentDashboard summarises one student's standing.
type StudentDashboard struct {
	StudentID            string    `json:"student_id"`
	BatchName            string    `json:"batch_name,omitempty"`
	AttendancePercentage float64   `json:"attendance_percentage"`
	PendingTasks         int       `json:"pending_tasks"`
	TotalFee             int64     `json:"total_fee"`
	FeePaid              int64     `json:"fee_paid"`
	FeeBalance           int64     `json:"fee_balance"`
	PlacementEligible    bool      `json:"placement_eligible"`
	GeneratedAt          time.Time `json:"generated_at"`
}

// KV is a generic label/count pair used by dashboard breakdowns.
type KV struct {
	Key   string `db:"key" json:"key"`
	Count int    `db:"count" json:"count"`
}
