package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"
	"syscall"

	"github.com/algobucks/platform/internal/config"
	"github.com/algobucks/platform/internal/database"
	"github.com/algobucks/platform/internal/logger"
	"github.com/algobucks/platform/internal/repository"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/term"
)

// Recovery tool for when no admin can log in. Runs against the database
// directly, so it works even with the API down.
func main() {
	// ─── Load Configuration ────────────────────────────────────────────
	cfg := config.Load()

	// ─── Initialize Logger ─────────────────────────────────────────────
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat)

	ctx := context.Background()

	// ─── Connect to PostgreSQL ─────────────────────────────────────────
	pool, err := database.NewPostgresPool(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer pool.Close()

	adminRepo := repository.NewAdminRepository(pool)

	reader := bufio.NewReader(os.Stdin)

	fmt.Println("=== Reset Admin Password ===")

	fmt.Print("Enter Admin Email: ")
	email, _ := reader.ReadString('\n')
	email = strings.TrimSpace(email)
	if email == "" {
		fmt.Println("Error: Email is required")
		return
	}

	admin, err := adminRepo.GetByEmail(ctx, email)
	if err != nil {
		log.Fatal().Err(err).Str("email", email).Msg("Admin not found")
	}

	fmt.Print("Enter New Password: ")
	bytePassword, err := term.ReadPassword(int(syscall.Stdin))
	if err != nil {
		fmt.Println("\nError reading password")
		return
	}
	password := string(bytePassword)
	fmt.Println()
	if len(password) < 6 {
		fmt.Println("Error: Password must be at least 6 characters")
		return
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), cfg.BcryptCost)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to hash password")
	}

	if err := adminRepo.UpdatePassword(ctx, admin.ID, string(hashedPassword)); err != nil {
		log.Fatal().Err(err).Msg("Failed to update password")
	}

	fmt.Printf("\nSuccess! Password reset for '%s' (%s).\n", admin.Name, admin.Email)
}
