package models

import "time"

// Enrollment captures a student's registration to a workshop.
// It is soft-closed on withdrawal and never hard-deleted while payments
// reference it.
type Enrollment struct {
	ID          string     `db:"id" json:"id"`
	StudentID   string     `db:"student_id" json:"student_id"`
	WorkshopID  string     `db:"workshop_id" json:"workshop_id"`
	EnrolledAt  time.Time  `db:"enrolled_at" json:"enrolled_at"`
	WithdrawnAt *time.Time `db:"withdrawn_at" json:"withdrawn_at,omitempty"`
}

// Active reports whether the enrollment is still open.
func (e Enrollment) Active() bool {
	return e.WithdrawnAt == nil
}

// EnrollmentDetail carries the enrollment joined with billing-relevant
// workshop and student facts.
type EnrollmentDetail struct {
	Enrollment
	StudentName       string        `db:"student_name" json:"student_name"`
	StudentActive     bool          `db:"student_active" json:"student_active"`
	FamilyGroupID     *string       `db:"family_group_id" json:"family_group_id,omitempty"`
	WorkshopTypeID    string        `db:"workshop_type_id" json:"workshop_type_id"`
	WorkshopName      string        `db:"workshop_name" json:"workshop_name"`
	WorkshopYear      int           `db:"workshop_year" json:"workshop_year"`
	WorkshopStartDate time.Time     `db:"workshop_start_date" json:"workshop_start_date"`
	WorkshopState     WorkshopState `db:"workshop_state" json:"workshop_state"`
}

// EnrollmentFilter narrows enrollment listings.
type EnrollmentFilter struct {
	StudentID  string
	WorkshopID string
	ActiveOnly bool
	Page       int
	PageSize   int
	SortBy     string
	SortOrder  string
}
