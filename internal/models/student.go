package models

import "time"

// Student represents a learner on a grade/section roster.
type Student struct {
	ID            string    `db:"id" json:"id"`
	StudentID     string    `db:"student_id" json:"student_id"`
	Name          string    `db:"name" json:"name"`
	Grade         string    `db:"grade" json:"grade"`
	Section       string    `db:"section" json:"section"`
	ParentName    string    `db:"parent_name" json:"parent_name,omitempty"`
	ParentContact string    `db:"parent_contact" json:"parent_contact"`
	Active        bool      `db:"active" json:"active"`
	CreatedBy     *string   `db:"created_by" json:"created_by,omitempty"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
}

// RosterFilter selects active students of one grade and section.
type RosterFilter struct {
	Grade   string
	Section string
}
