package model

import (
	"time"

	"gorm.io/gorm"
)

// Module represents an ordered unit of course content
type Module struct {
	ID                        uint           `gorm:"primaryKey" json:"id"`
	CreatedAt                 time.Time      `json:"created_at"`
	UpdatedAt                 time.Time      `json:"updated_at"`
	DeletedAt                 gorm.DeletedAt `gorm:"index" json:"-"`
	CourseID                  uint           `gorm:"not null;index" json:"course_id"`
	Name                      string         `gorm:"not null" json:"name"`
	Position                  int            `gorm:"not null;default:0" json:"position"`
	UnlockAt                  *time.Time     `json:"unlock_at,omitempty"`
	RequireSequentialProgress bool           `gorm:"default:false" json:"require_sequential_progress"`

	// Relationships
	Course        Course               `gorm:"foreignKey:CourseID;constraint:OnDelete:CASCADE" json:"course,omitempty"`
	Items         []ModuleItem         `gorm:"foreignKey:ModuleID;constraint:OnDelete:CASCADE" json:"items,omitempty"`
	Prerequisites []ModulePrerequisite `gorm:"foreignKey:ModuleID;constraint:OnDelete:CASCADE" json:"prerequisites,omitempty"`
}

// ModulePrerequisite records that a module expects another module of the
// same course to come first. Stored as plain adjacency rows; the chain is
// informational and is not enforced when students open content.
type ModulePrerequisite struct {
	ModuleID       uint `gorm:"primaryKey" json:"module_id"`
	PrerequisiteID uint `gorm:"primaryKey" json:"prerequisite_id"`

	// Relationships
	Module       Module `gorm:"foreignKey:ModuleID;constraint:OnDelete:CASCADE" json:"-"`
	Prerequisite Module `gorm:"foreignKey:PrerequisiteID;constraint:OnDelete:CASCADE" json:"prerequisite,omitempty"`
}

// TableName specifies the table name for ModulePrerequisite
func (ModulePrerequisite) TableName() string {
	return "module_prerequisites"
}

// ContentKind identifies which table a module item points into
type ContentKind string

const (
	ContentPage       ContentKind = "page"
	ContentAssignment ContentKind = "assignment"
)

// Valid reports whether k is a known content kind.
func (k ContentKind) Valid() bool {
	return k == ContentPage || k == ContentAssignment
}

// CompletionRequirement represents what a student must do with an item
type CompletionRequirement string

const (
	RequireMustView   CompletionRequirement = "must_view"
	RequireMustSubmit CompletionRequirement = "must_submit"
	RequireMinScore   CompletionRequirement = "min_score"
)

// Valid reports whether c is a known completion requirement.
func (c CompletionRequirement) Valid() bool {
	switch c {
	case RequireMustView, RequireMustSubmit, RequireMinScore:
		return true
	}
	return false
}

// ModuleItem represents one entry inside a module, pointing at a page or an
// assignment. Items order within a module by Position, then ID.
type ModuleItem struct {
	ID          uint                   `gorm:"primaryKey" json:"id"`
	CreatedAt   time.Time              `json:"created_at"`
	UpdatedAt   time.Time              `json:"updated_at"`
	DeletedAt   gorm.DeletedAt         `gorm:"index" json:"-"`
	ModuleID    uint                   `gorm:"not null;index" json:"module_id"`
	Position    int                    `gorm:"not null;default:0" json:"position"`
	Indent      int                    `gorm:"not null;default:0" json:"indent"` // 0..5
	ContentType ContentKind            `gorm:"type:varchar(20);not null" json:"content_type"`
	ContentID   uint                   `gorm:"not null" json:"content_id"`
	Requirement *CompletionRequirement `gorm:"type:varchar(20)" json:"completion_requirement,omitempty"`

	// Relationships
	Module Module `gorm:"foreignKey:ModuleID;constraint:OnDelete:CASCADE" json:"module,omitempty"`
}
