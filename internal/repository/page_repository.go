package repository

import (
	"context"
	"errors"
	"time"

	"github.com/feedbird/feedbird/backend/internal/models"
	"gorm.io/gorm"
)

var (
	ErrAccountNotFound = errors.New("social account not found")
	ErrPageNotFound    = errors.New("social page not found")
)

// PageRepository handles database operations for social pages and their
// owning accounts. It is the credential store adapter: the token manager is
// the only caller of UpdateToken.
type PageRepository interface {
	// Discovery query: connected = true AND auth_token IS NOT NULL
	ListConnected(ctx context.Context) ([]*models.SocialPage, error)

	GetAccount(ctx context.Context, accountID string) (*models.SocialAccount, error)

	// UpdateToken persists a refreshed token and its absolute expiry
	UpdateToken(ctx context.Context, pageID string, token string, expiresAt time.Time) error
}

// pageRepository implements PageRepository
type pageRepository struct {
	db *gorm.DB
}

// NewPageRepository creates a new page repository
func NewPageRepository(db *gorm.DB) PageRepository {
	return &pageRepository{db: db}
}

// ListConnected returns every page eligible for sync, in discovery order
func (r *pageRepository) ListConnected(ctx context.Context) ([]*models.SocialPage, error) {
	var pages []*models.SocialPage
	err := r.db.WithContext(ctx).
		Where("connected = ? AND auth_token IS NOT NULL", true).
		Order("created_at ASC").
		Find(&pages).Error
	return pages, err
}

// GetAccount returns the account owning a page, with its refresh secret
func (r *pageRepository) GetAccount(ctx context.Context, accountID string) (*models.SocialAccount, error) {
	var account models.SocialAccount
	err := r.db.WithContext(ctx).Where("id = ?", accountID).First(&account).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrAccountNotFound
	}
	if err != nil {
		return nil, err
	}

	return &account, nil
}

// UpdateToken writes the refreshed token and expiry for a page
func (r *pageRepository) UpdateToken(ctx context.Context, pageID string, token string, expiresAt time.Time) error {
	result := r.db.WithContext(ctx).
		Model(&models.SocialPage{}).
		Where("id = ?", pageID).
		Updates(map[string]interface{}{
			"auth_token":            token,
			"auth_token_expires_at": expiresAt,
		})

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrPageNotFound
	}
	return nil
}
