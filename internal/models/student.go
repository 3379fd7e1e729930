package models

import "time"

// Student represents a learner registered in the institution.
type Student struct {
	ID            string    `db:"id" json:"id"`
	Document      string    `db:"document" json:"document"`
	FullName      string    `db:"full_name" json:"full_name"`
	BirthDate     time.Time `db:"birth_date" json:"birth_date"`
	Address       string    `db:"address" json:"address"`
	Phone         string    `db:"phone" json:"phone"`
	Active        bool      `db:"active" json:"active"`
	FamilyGroupID *string   `db:"family_group_id" json:"family_group_id,omitempty"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time `db:"updated_at" json:"updated_at"`
}

// StudentFilter encapsulates allowed search parameters for listing students.
type StudentFilter struct {
	Search        string
	FamilyGroupID string
	Active        *bool
	Page          int
	PageSize      int
	SortBy        string
	SortOrder     string
}

// StudentDetail contains student information with family group context.
type StudentDetail struct {
	Student
	FamilyGroupName *string `db:"family_group_name" json:"family_group_name,omitempty"`
}

// FamilyGroup bundles siblings billed together for discount purposes.
type FamilyGroup struct {
	ID        string    `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	Phone     string    `db:"phone" json:"phone"`
	Email     string    `db:"email" json:"email"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}
