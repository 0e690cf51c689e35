package model

import (
	"time"

	"gorm.io/gorm"
)

// Course represents a single offering (e.g., "History 101: American History")
type Course struct {
	ID         uint           `gorm:"primaryKey" json:"id"`
	CreatedAt  time.Time      `json:"created_at"`
	UpdatedAt  time.Time      `json:"updated_at"`
	DeletedAt  gorm.DeletedAt `gorm:"index" json:"-"`
	AccountID  uint           `gorm:"not null;index" json:"account_id"`
	TermID     uint           `gorm:"not null;index" json:"term_id"`
	Name       string         `gorm:"not null" json:"name"`
	CourseCode string         `gorm:"type:varchar(50);not null" json:"course_code"` // e.g., "HIST101"
	IsPublic   bool           `gorm:"default:false" json:"is_public"`

	// Relationships
	Account     Account      `gorm:"foreignKey:AccountID;constraint:OnDelete:CASCADE" json:"account,omitempty"`
	Term        Term         `gorm:"foreignKey:TermID;constraint:OnDelete:RESTRICT" json:"term,omitempty"`
	Sections    []Section    `gorm:"foreignKey:CourseID;constraint:OnDelete:CASCADE" json:"sections,omitempty"`
	Modules     []Module     `gorm:"foreignKey:CourseID;constraint:OnDelete:CASCADE" json:"-"`
	Pages       []Page       `gorm:"foreignKey:CourseID;constraint:OnDelete:CASCADE" json:"-"`
	Assignments []Assignment `gorm:"foreignKey:CourseID;constraint:OnDelete:CASCADE" json:"-"`
	Videos      []Video      `gorm:"foreignKey:CourseID;constraint:OnDelete:CASCADE" json:"-"`
}

// Section represents a group of enrolled users within a course
type Section struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
	CourseID  uint           `gorm:"not null;index" json:"course_id"`
	Name      string         `gorm:"not null" json:"name"`

	// Relationships
	Course      Course       `gorm:"foreignKey:CourseID;constraint:OnDelete:CASCADE" json:"course,omitempty"`
	Enrollments []Enrollment `gorm:"foreignKey:SectionID;constraint:OnDelete:CASCADE" json:"enrollments,omitempty"`
}

// EnrollmentRole represents the function a user performs in a section
type EnrollmentRole string

const (
	RoleStudent  EnrollmentRole = "student"
	RoleTeacher  EnrollmentRole = "teacher"
	RoleTA       EnrollmentRole = "ta"
	RoleObserver EnrollmentRole = "observer"
	RoleDesigner EnrollmentRole = "designer"
)

// Valid reports whether r is one of the known enrollment roles.
func (r EnrollmentRole) Valid() bool {
	switch r {
	case RoleStudent, RoleTeacher, RoleTA, RoleObserver, RoleDesigner:
		return true
	}
	return false
}

// EnrollmentState represents the lifecycle state of an enrollment
type EnrollmentState string

const (
	EnrollmentActive    EnrollmentState = "active"
	EnrollmentInactive  EnrollmentState = "inactive"
	EnrollmentConcluded EnrollmentState = "concluded"
	EnrollmentPending   EnrollmentState = "pending"
)

// Valid reports whether s is one of the known enrollment states.
func (s EnrollmentState) Valid() bool {
	switch s {
	case EnrollmentActive, EnrollmentInactive, EnrollmentConcluded, EnrollmentPending:
		return true
	}
	return false
}

// Enrollment ties a user to a section with a role and state.
// A user holds at most one enrollment per section.
type Enrollment struct {
	ID        uint            `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
	DeletedAt gorm.DeletedAt  `gorm:"index" json:"-"`
	UserID    uint            `gorm:"not null;uniqueIndex:uniq_enrollment_user_section,where:deleted_at IS NULL" json:"user_id"`
	SectionID uint            `gorm:"not null;uniqueIndex:uniq_enrollment_user_section,where:deleted_at IS NULL" json:"section_id"`
	Role      EnrollmentRole  `gorm:"type:varchar(20);not null;default:'student'" json:"role"`
	State     EnrollmentState `gorm:"type:varchar(20);not null;default:'pending'" json:"state"`
	Grade     *float64        `gorm:"type:numeric(5,2)" json:"grade,omitempty"` // Final grade percentage, when posted

	// Relationships
	User    User    `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"user,omitempty"`
	Section Section `gorm:"foreignKey:SectionID;constraint:OnDelete:CASCADE" json:"section,omitempty"`
}
