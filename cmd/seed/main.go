package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"

	"github.com/flextech/employees-backend/internal/users"
	"github.com/flextech/employees-backend/pkg/config"
	"github.com/flextech/employees-backend/pkg/db"
	"github.com/flextech/employees-backend/pkg/db/models"
	"github.com/flextech/employees-backend/pkg/enums"
	"github.com/flextech/employees-backend/pkg/logger"
	"github.com/flextech/employees-backend/pkg/security"
)

// Seeds the first admin account so a fresh deployment can log in.
func main() {
	ctx := context.Background()
	logg := logger.New(logger.Options{ServiceName: "seed"})

	_ = godotenv.Load()

	email := flag.String("email", "", "admin email address")
	password := flag.String("password", "", "admin password")
	name := flag.String("name", "Administrator", "admin full name")
	code := flag.String("code", "ADMIN-001", "admin employee code")
	flag.Parse()

	if *email == "" || *password == "" {
		fmt.Fprintln(os.Stderr, "both -email and -password are required")
		os.Exit(1)
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(ctx, "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "seed",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
	})

	dbClient, err := db.New(ctx, cfg.DB, logg)
	if err != nil {
		logg.Error(ctx, "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer dbClient.Close()

	repo := users.NewRepository(dbClient.DB())

	normalized := strings.ToLower(strings.TrimSpace(*email))
	existing, err := repo.FindByEmail(ctx, normalized)
	if err != nil {
		logg.Error(ctx, "failed to check existing admin", err)
		os.Exit(1)
	}
	if existing != nil {
		logg.Info(logg.WithField(ctx, "email", normalized), "admin already exists, nothing to do")
		return
	}

	hash, err := security.HashPassword(*password, cfg.Password)
	if err != nil {
		logg.Error(ctx, "failed to hash password", err)
		os.Exit(1)
	}

	role := enums.UserRoleAdmin
	admin := &models.User{
		EmployeeCode: code,
		FullName:     strings.TrimSpace(*name),
		Email:        normalized,
		PasswordHash: hash,
		Status:       enums.UserStatusActive,
		Role:         &role,
	}
	if err := repo.Create(ctx, admin); err != nil {
		logg.Error(ctx, "failed to create admin", err)
		os.Exit(1)
	}

	ctx = logg.WithFields(ctx, map[string]any{"email": normalized, "user_id": admin.ID})
	logg.Info(ctx, "admin account seeded")
}
