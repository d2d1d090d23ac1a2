//go:build ignore

package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/holden/retroboard/internal/database"
	"github.com/holden/retroboard/internal/database/models"
	"github.com/holden/retroboard/internal/metrics"
	"github.com/holden/retroboard/internal/session"
	"github.com/holden/retroboard/internal/team"
	"github.com/holden/retroboard/pkg/config"
	"github.com/holden/retroboard/pkg/util"
	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger := util.NewLogger(cfg.Server.Env)

	db, err := database.Connect(&cfg.Database, logger)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}

	// Run migrations
	if err := database.AutoMigrate(db); err != nil {
		log.Fatalf("failed to run migrations: %v", err)
	}

	email := os.Getenv("ADMIN_EMAIL")
	name := os.Getenv("ADMIN_NAME")
	teamName := os.Getenv("DEMO_TEAM_NAME")

	if email == "" {
		email = "admin@example.com"
	}
	if name == "" {
		name = "Admin"
	}
	if teamName == "" {
		teamName = "Demo Team"
	}

	ctx := context.Background()

	codec := session.NewTokenCodec(cfg.Session.TokenScheme, cfg.Session.TokenSecret, cfg.Session.TokenExpiry())
	sessionService := session.NewService(db, codec, nil, metrics.Nop{})
	teamService := team.NewService(db, metrics.Nop{})

	// Bootstrap an admin through the same path clients take: anonymous
	// session first, then upgrade
	result, err := sessionService.Initialize(ctx, "", name)
	if err != nil {
		log.Fatalf("failed to create session: %v", err)
	}

	admin, err := sessionService.UpgradeToAccount(ctx, result.Session.ID, email, name, models.RoleAdmin)
	if err != nil {
		log.Fatalf("failed to create admin account: %v", err)
	}

	demoTeam, err := teamService.CreateTeam(ctx, admin.ID, teamName)
	if err != nil {
		log.Fatalf("failed to create demo team: %v", err)
	}

	fmt.Printf("seeded admin %s (token %s)\n", admin.Email, result.Token)
	fmt.Printf("seeded team %q with invite code %s\n", demoTeam.Name, demoTeam.InviteCode)
}
