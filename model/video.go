package model

import (
	"time"

	"gorm.io/gorm"
)

// Video represents a lecture video attached to a course. The source is
// either an external URL or a file stored in object storage; VideoURL wins
// when both are present.
type Video struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
	CourseID  uint           `gorm:"not null;index" json:"course_id"`
	Title     string         `gorm:"not null" json:"title"`
	VideoURL  *string        `gorm:"type:varchar(500)" json:"video_url,omitempty"`
	FileKey   *string        `gorm:"type:varchar(500)" json:"-"` // Object storage key for uploaded files
	FileURL   *string        `gorm:"type:varchar(500)" json:"file_url,omitempty"`
	Duration  uint           `gorm:"not null;default:0" json:"duration"` // Seconds

	// Relationships
	Course   Course          `gorm:"foreignKey:CourseID;constraint:OnDelete:CASCADE" json:"course,omitempty"`
	Progress []VideoProgress `gorm:"foreignKey:VideoID;constraint:OnDelete:CASCADE" json:"-"`
}

// SrcURL returns the playable source for the video, preferring the
// external URL over an uploaded file.
func (v *Video) SrcURL() string {
	if v.VideoURL != nil && *v.VideoURL != "" {
		return *v.VideoURL
	}
	if v.FileURL != nil {
		return *v.FileURL
	}
	return ""
}

// VideoProgress tracks how far one user has watched one video. WatchedTime
// only ever grows and IsCompleted never flips back to false once set.
type VideoProgress struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
	UserID      uint      `gorm:"not null;uniqueIndex:uniq_progress_user_video" json:"user_id"`
	VideoID     uint      `gorm:"not null;uniqueIndex:uniq_progress_user_video" json:"video_id"`
	WatchedTime float64   `gorm:"not null;default:0" json:"watched_time"` // Seconds
	IsCompleted bool      `gorm:"default:false" json:"is_completed"`

	// Relationships
	User  User  `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
	Video Video `gorm:"foreignKey:VideoID;constraint:OnDelete:CASCADE" json:"-"`
}

// TableName specifies the table name for VideoProgress
func (VideoProgress) TableName() string {
	return "video_progress"
}
