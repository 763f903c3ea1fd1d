package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"

	"github.com/khoahotran/profile-portal/internal/domain/user"
	"github.com/khoahotran/profile-portal/pkg/auth"
)

func main() {
	fmt.Println("adding user into database...")

	err := godotenv.Load()
	if err != nil {
		log.Println("warning: .env file not found, use system environment variables.")
	}

	dsn := os.Getenv("DB_DSN")
	email := user.NormalizeEmail(os.Getenv("SEED_EMAIL"))
	password := os.Getenv("SEED_PASSWORD")
	if dsn == "" || email == "" {
		log.Fatal("DB_DSN and SEED_EMAIL are required")
	}
	if problems := user.PasswordProblems(password); len(problems) > 0 {
		log.Fatalf("SEED_PASSWORD is too weak: %v", problems)
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		log.Fatalf("cannot hash password: %v", err)
	}

	pool, err := pgxpool.New(context.Background(), dsn)
	if err != nil {
		log.Fatalf("cannot connect DB: %v", err)
	}
	defer pool.Close()

	query := `
		INSERT INTO users (id, email, password_hash)
		VALUES ($1, $2, $3)
		ON CONFLICT (email) DO UPDATE SET password_hash = $3, updated_at = NOW()
	`
	_, err = pool.Exec(context.Background(), query, uuid.New(), email, hash)
	if err != nil {
		log.Fatalf("cannot add user: %v", err)
	}

	fmt.Printf("added or updated user '%s' successfully!\n", email)
}
