package models

import "time"

// Course is an offered training program.
type Course struct {
	ID            string    `db:"id" json:"id"`
	Name          string    `db:"name" json:"name"`
	Code          string    `db:"code" json:"code"`
	DurationWeeks int       `db:"duration_weeks" json:"duration_weeks"`
	Fee           int64     `db:"fee" json:"fee"`
	Active        bool      `db:"active" json:"active"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time `db:"updated_at" json:"updated_at"`
}

// Branch is a physical institute location; branch heads are CHANNEL_PARTNER
// users bound to one branch.
type Branch struct {
	ID        string    `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	Code      string    `db:"code" json:"code"`
	City      string    `db:"city" json:"city,omitempty"`
	Active    bool      `db:"active" json:"active"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// CatalogFilter is shared by course and branch listings.
type CatalogFilter struct {
	Active   *bool
	Search   string
	Page     int
	PageSize int
}
