package model

import (
	"time"

	"gorm.io/gorm"
)

// Page represents a wiki-style content page inside a course. At most one
// page per course may be flagged as the front page; the partial unique
// index below is the barrier.
type Page struct {
	ID          uint           `gorm:"primaryKey" json:"id"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`
	CourseID    uint           `gorm:"not null;index;uniqueIndex:uniq_course_front_page,where:is_front_page AND deleted_at IS NULL" json:"course_id"`
	Title       string         `gorm:"not null" json:"title"`
	Body        string         `gorm:"type:text" json:"body"` // Sanitized HTML
	IsPublished bool           `gorm:"default:false" json:"is_published"`
	IsFrontPage bool           `gorm:"default:false" json:"is_front_page"`

	// Relationships
	Course Course `gorm:"foreignKey:CourseID;constraint:OnDelete:CASCADE" json:"course,omitempty"`
}
