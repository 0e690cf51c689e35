package model

import (
	"time"

	"gorm.io/gorm"
)

// Account represents an institutional unit (e.g., a school or department).
// Accounts form a tree through ParentID; courses hang off accounts.
type Account struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
	Name      string         `gorm:"not null" json:"name"`
	ParentID  *uint          `gorm:"index" json:"parent_id,omitempty"`

	// Relationships
	Parent      *Account  `gorm:"foreignKey:ParentID;constraint:OnDelete:CASCADE" json:"parent,omitempty"`
	SubAccounts []Account `gorm:"foreignKey:ParentID;constraint:OnDelete:CASCADE" json:"sub_accounts,omitempty"`
	Courses     []Course  `gorm:"foreignKey:AccountID;constraint:OnDelete:CASCADE" json:"-"`
}

// Term represents an academic term (e.g., "Fall 2025") that courses run in.
// A term cannot be removed while any course still references it.
type Term struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
	Name      string         `gorm:"not null" json:"name"`
	StartDate time.Time      `gorm:"type:date;not null" json:"start_date"`
	EndDate   time.Time      `gorm:"type:date;not null" json:"end_date"`

	// Relationships
	Courses []Course `gorm:"foreignKey:TermID;constraint:OnDelete:RESTRICT" json:"-"`
}
