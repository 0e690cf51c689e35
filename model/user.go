package model

import (
	"time"

	"gorm.io/gorm"
)

// User represents a registered user in the system
type User struct {
	ID           uint           `gorm:"primaryKey" json:"id"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
	Email        string         `gorm:"uniqueIndex;not null" json:"email"`
	PasswordHash string         `gorm:"not null" json:"-"` // Never expose password in JSON
	FullName     string         `gorm:"not null" json:"full_name"`
	SISID        *string        `gorm:"uniqueIndex;type:varchar(100)" json:"sis_id,omitempty"` // Student information system identifier
	AvatarURL    string         `gorm:"type:varchar(500)" json:"avatar_url"`
	TimeZone     string         `gorm:"type:varchar(50);default:'UTC'" json:"time_zone"`
	IsStaff      bool           `gorm:"default:false" json:"is_staff"` // Staff can manage accounts, terms and courses
	TokenVersion int            `gorm:"default:0" json:"-"`            // Increment to invalidate all user tokens

	// Relationships
	Enrollments    []Enrollment        `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"enrollments,omitempty"`
	Submissions    []Submission        `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
	VideoProgress  []VideoProgress     `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
	Notifications  []UserNotification  `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
	TokenBlacklist []JWTTokenBlacklist `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
}

// DisplayName returns the name shown in course rosters, falling back to
// the email local part when the profile has no full name.
func (u *User) DisplayName() string {
	if u.FullName != "" {
		return u.FullName
	}
	for i := 0; i < len(u.Email); i++ {
		if u.Email[i] == '@' {
			return u.Email[:i]
		}
	}
	return u.Email
}
