package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// SocialAccount is the platform-level credential owner behind one or more
// pages. It holds the long-lived refresh secret for platforms whose refresh
// strategy needs one. Read-only to the sync engine.
type SocialAccount struct {
	ID       string `gorm:"primaryKey;type:uuid" json:"id"`
	Platform string `gorm:"not null;index" json:"platform"`

	RefreshToken *string `gorm:"type:text" json:"-"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName overrides the default table name
func (SocialAccount) TableName() string {
	return "social_accounts"
}

// BeforeCreate generates a UUID primary key when one is not supplied
func (a *SocialAccount) BeforeCreate(tx *gorm.DB) error {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	return nil
}
