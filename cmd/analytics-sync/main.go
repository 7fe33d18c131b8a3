package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"

	"github.com/feedbird/feedbird/backend/internal/config"
	"github.com/feedbird/feedbird/backend/internal/database"
	"github.com/feedbird/feedbird/backend/internal/logger"
	"github.com/feedbird/feedbird/backend/internal/platforms"
	"github.com/feedbird/feedbird/backend/internal/repository"
	"github.com/feedbird/feedbird/backend/internal/runlock"
	"github.com/feedbird/feedbird/backend/internal/sync"
	"github.com/feedbird/feedbird/backend/internal/tokens"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var (
	platformFilter string
	dryRun         bool
)

var rootCmd = &cobra.Command{
	Use:   "analytics-sync",
	Short: "Run one analytics sync pass over all connected social pages",
	Long: `analytics-sync discovers every connected social page, refreshes expired
credentials, fetches platform analytics and writes one canonical snapshot per
page per day. Re-running on the same day is a no-op for already-synced pages.`,
	RunE: run,
}

func init() {
	rootCmd.Flags().StringVar(&platformFilter, "platform", "", "Only sync pages of this platform (e.g. youtube)")
	rootCmd.Flags().BoolVar(&dryRun, "dry-run", false, "Discover and group pages without fetching or writing anything")
}

func run(cmd *cobra.Command, args []string) error {
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found, using system environment variables")
	}

	cfg := config.Load()

	if err := logger.Initialize(cfg.LogLevel, cfg.LogFile); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer logger.Close()

	db, err := database.Connect(cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer database.Close(db)

	pageRepo := repository.NewPageRepository(db)
	snapshotRepo := repository.NewSnapshotRepository(db)

	registry := platforms.NewRegistryFromConfig(cfg)
	if platformFilter != "" {
		adapter, ok := registry.Lookup(platformFilter)
		if !ok {
			return fmt.Errorf("no adapter registered for platform %q", platformFilter)
		}
		registry = platforms.NewRegistry(adapter)
	}

	tokenManager := tokens.NewManager(pageRepo)
	orchestrator := sync.NewOrchestrator(pageRepo, snapshotRepo, registry, tokenManager)

	ctx := context.Background()

	if dryRun {
		return printDiscovery(ctx, orchestrator)
	}

	var lock *runlock.Lock
	if cfg.RedisEnabled() {
		lock, err = runlock.New(cfg.RedisHost, cfg.RedisPort, cfg.RedisPassword)
		if err != nil {
			logger.ErrorWithFields("Redis unavailable, running without the run lock", err)
			lock = nil
		} else {
			defer lock.Close()
		}
	}

	entrypoint := sync.NewEntrypoint(cfg, db, lock, orchestrator)
	result := entrypoint.Run(ctx)

	out, _ := json.MarshalIndent(result, "", "  ")
	fmt.Println(string(out))

	if !result.Success {
		os.Exit(1)
	}
	return nil
}

// printDiscovery reports what a run would attempt, without network or writes
func printDiscovery(ctx context.Context, orchestrator *sync.Orchestrator) error {
	groups, err := orchestrator.Discover(ctx)
	if err != nil {
		return err
	}

	total := 0
	for _, g := range groups {
		fmt.Printf("%s: %d pages\n", g.Platform, len(g.Pages))
		for _, p := range g.Pages {
			fmt.Printf("  - %s (%s)\n", p.Name, p.ID)
		}
		total += len(g.Pages)
	}
	fmt.Printf("total: %d connected pages\n", total)
	return nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
