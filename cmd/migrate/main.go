package main

import (
	"log"

	"github.com/feedbird/feedbird/backend/internal/config"
	"github.com/feedbird/feedbird/backend/internal/database"
	"github.com/joho/godotenv"
)

func main() {
	log.Println("Running analytics schema migrations")

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

	log.Println("Migrations completed")
}
