package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// SocialPage is a connected presence on one external platform (a YouTube
// channel, a Facebook page, ...). Created and updated by the connection flow;
// the sync engine only ever writes the token fields, via the token manager.
type SocialPage struct {
	ID        string `gorm:"primaryKey;type:uuid" json:"id"`
	AccountID string `gorm:"not null;index" json:"account_id"`
	Platform  string `gorm:"not null;index" json:"platform"`

	// Platform-native identifier (channel id, page id)
	PageID string `gorm:"not null" json:"page_id"`
	Name   string `gorm:"not null" json:"name"`

	// Current access token and its absolute expiry. A nil expiry is treated
	// as already expired.
	AuthToken          *string    `gorm:"type:text" json:"-"`
	AuthTokenExpiresAt *time.Time `json:"auth_token_expires_at"`

	Connected bool `gorm:"default:false;index" json:"connected"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName overrides the default table name
func (SocialPage) TableName() string {
	return "social_pages"
}

// BeforeCreate generates a UUID primary key when one is not supplied
func (p *SocialPage) BeforeCreate(tx *gorm.DB) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	return nil
}

// Eligible reports whether the page qualifies for analytics sync.
func (p *SocialPage) Eligible() bool {
	return p.Connected && p.AuthToken != nil && *p.AuthToken != ""
}
