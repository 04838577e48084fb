package models

import "time"

// Batch is a scheduled cohort of students under one trainer for one course.
type Batch struct {
	ID        string    `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	CourseID  string    `db:"course_id" json:"course_id"`
	BranchID  string    `db:"branch_id" json:"branch_id"`
	TrainerID string    `db:"trainer_id" json:"trainer_id"`
	StartDate time.Time `db:"start_date" json:"start_date"`
	EndDate   time.Time `db:"end_date" json:"end_date"`
	StartTime string    `db:"start_time" json:"start_time"`
	EndTime   string    `db:"end_time" json:"end_time"`
	Active    bool      `db:"active" json:"active"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// BatchDetail joins batch with course, branch and trainer names plus roster size.
type BatchDetail struct {
	Batch
	CourseName   string `db:"course_name" json:"course_name"`
	BranchName   string `db:"branch_name" json:"branch_name"`
	TrainerName  string `db:"trainer_name" json:"trainer_name"`
	StudentCount int    `db:"student_count" json:"student_count"`
}

// BatchFilter captures list filters for batches.
type BatchFilter struct {
	BranchID  string
	CourseID  string
	TrainerID string
	Active    *bool
	Search    string
	Page      int
	PageSize  int
}
