package canvas

import "time"

// Course is the subset of a Canvas course the calendar needs.
type Course struct {
	ID         int64  `json:"id"`
	Name       string `json:"name"`
	CourseCode string `json:"course_code,omitempty"`
}

// Assignment is a Canvas assignment annotated with its course name.
type Assignment struct {
	ID             int64      `json:"id"`
	Name           string     `json:"name"`
	CourseID       int64      `json:"course_id"`
	Course         string     `json:"course"`
	DueAt          *time.Time `json:"due_at"`
	CreatedAt      *time.Time `json:"created_at"`
	PointsPossible float64    `json:"points_possible"`
	Description    string     `json:"description"`
}

// ProcessedAssignment adds the signed whole days left until the due date.
type ProcessedAssignment struct {
	Assignment
	DaysUntilDue *int `json:"daysUntilDue"`
}
