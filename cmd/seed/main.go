package main

import (
	"context"
	"fmt"
	"os"

	"github.com/fatih/color"

	"github.com/dukerupert/tracknotes/internal/config"
	"github.com/dukerupert/tracknotes/internal/database"
	"github.com/dukerupert/tracknotes/internal/docstore"
	"github.com/dukerupert/tracknotes/internal/logging"
	"github.com/dukerupert/tracknotes/internal/seed"
)

func main() {
	if err := run(); err != nil {
		color.Red("Seeding error: %v", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	logger := logging.Setup(cfg.Logging.Level, cfg.Logging.Format)

	ctx := context.Background()
	db, err := database.Connect(ctx, cfg.Database.Path, cfg.Database.ConnectAttempts, cfg.Database.ConnectDelay, logger.With("component", "database"))
	if err != nil {
		return err
	}
	defer db.Close()

	res, err := seed.Run(ctx, docstore.New(db))
	if err != nil {
		return err
	}

	bold := color.New(color.Bold)
	fmt.Println("Cleared existing data")
	fmt.Printf("Created %d users:\n", res.Users)
	for _, acct := range seed.Accounts {
		fmt.Printf("  - %s / %s\n", acct.Username, acct.Password)
	}
	fmt.Printf("Created %d notes\n", res.Notes)

	rule := "============================================================"
	fmt.Println()
	fmt.Println(rule)
	color.Green("Database seeded successfully!")
	fmt.Println(rule)
	bold.Println("\nTest Accounts (username / password):")
	for _, acct := range seed.Accounts {
		fmt.Printf("  %-8s / %s\n", acct.Username, acct.Password)
	}
	color.Yellow("\nPasswords are stored in plain text (intentionally vulnerable)")
	fmt.Println(rule)
	fmt.Println()
	return nil
}
