package main

import (
	"log"
	"time"

	"github.com/feedbird/feedbird/backend/internal/config"
	"github.com/feedbird/feedbird/backend/internal/database"
	"github.com/feedbird/feedbird/backend/internal/models"
	"github.com/joho/godotenv"
)

// Seeds a development database with a few connected pages so a sync run has
// something to discover. Tokens are placeholders; point the platform base
// URLs at a stub if you want fetches to succeed.
func main() {
	log.Println("Seeding development social pages")

	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found, using system environment variables")
	}

	cfg := config.Load()

	db, err := database.Connect(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer database.Close(db)

	if err := database.Migrate(db); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	refresh := "dev-refresh-token"
	ytAccount := &models.SocialAccount{Platform: "youtube", RefreshToken: &refresh}
	fbAccount := &models.SocialAccount{Platform: "facebook"}

	for _, account := range []*models.SocialAccount{ytAccount, fbAccount} {
		if err := db.Create(account).Error; err != nil {
			log.Fatalf("Failed to create account: %v", err)
		}
	}

	token := "dev-access-token"
	soon := time.Now().Add(30 * time.Minute)
	past := time.Now().Add(-time.Hour)

	pages := []*models.SocialPage{
		{
			AccountID: ytAccount.ID, Platform: "youtube",
			PageID: "UCdev0000000000000000001", Name: "FeedBird Dev Channel",
			AuthToken: &token, AuthTokenExpiresAt: &soon, Connected: true,
		},
		{
			AccountID: fbAccount.ID, Platform: "facebook",
			PageID: "1000000000001", Name: "FeedBird Dev Page",
			AuthToken: &token, AuthTokenExpiresAt: &past, Connected: true,
		},
		{
			AccountID: fbAccount.ID, Platform: "tiktok",
			PageID: "dev-tiktok", Name: "Unregistered Platform Page",
			AuthToken: &token, AuthTokenExpiresAt: &soon, Connected: true,
		},
	}

	for _, page := range pages {
		if err := db.Create(page).Error; err != nil {
			log.Fatalf("Failed to create page %s: %v", page.Name, err)
		}
		log.Printf("Created %s page %q (%s)", page.Platform, page.Name, page.ID)
	}

	log.Println("Seed complete")
}
