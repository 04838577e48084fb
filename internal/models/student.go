package models

import "time"

// Student is the enrolled-learner profile linked 1:1 to a STUDENT user.
type Student struct {
	ID                string    `db:"id" json:"id"`
	UserID            string    `db:"user_id" json:"user_id"`
	AdmissionID       *string   `db:"admission_id" json:"admission_id,omitempty"`
	CourseID          string    `db:"course_id" json:"course_id"`
	BranchID          string    `db:"branch_id" json:"branch_id"`
	BatchID           *string   `db:"batch_id" json:"batch_id,omitempty"`
	Aadhaar           string    `db:"aadhaar" json:"aadhaar,omitempty"`
	PAN               string    `db:"pan" json:"pan,omitempty"`
	Photo             string    `db:"photo" json:"photo,omitempty"`
	PlacementEligible bool      `db:"placement_eligible" json:"placement_eligible"`
	CertificateLocked bool      `db:"certificate_locked" json:"certificate_locked"`
	Active            bool      `db:"active" json:"active"`
	CreatedAt         time.Time `db:"created_at" json:"created_at"`
	UpdatedAt         time.Time `db:"updated_at" json:"updated_at"`
}

// StudentDetail joins the student row with its user and course names.
type StudentDetail struct {
	Student
	FirstName  string  `db:"first_name" json:"first_name"`
	LastName   string  `db:"last_name" json:"last_name"`
	Email      string  `db:"email" json:"email"`
	Phone      string  `db:"phone" json:"phone,omitempty"`
	CourseName *string `db:"course_name" json:"course_name,omitempty"`
	BranchName *string `db:"branch_name" json:"branch_name,omitempty"`
	BatchName  *string `db:"batch_name" json:"batch_name,omitempty"`
}

// StudentFilter captures list filters for students.
type StudentFilter struct {
	BranchID  string
	CourseID  string
	BatchID   string
	Active    *bool
	Eligible  *bool
	Search    string
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}
