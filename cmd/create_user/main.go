package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"os"

	"todo_webapp/internal/db"
	"todo_webapp/internal/domain"
	"todo_webapp/internal/repository"
	"todo_webapp/internal/service"

	"github.com/joho/godotenv"
	"golang.org/x/crypto/bcrypt"
)

func main() {
	username := flag.String("username", "testuser", "username to create")
	password := flag.String("password", "", "password for the new user")
	flag.Parse()

	if *password == "" {
		log.Fatal("-password is required")
	}

	_ = godotenv.Load()
	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		log.Fatal("DATABASE_URL not set")
	}
	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		log.Fatal("JWT_SECRET not set")
	}

	pool := db.Connect(dsn)
	defer pool.Close()

	ctx := context.Background()
	users := repository.NewUserRepository(pool)
	tokens := service.NewTokenService(secret, 0)
	auth := service.NewAuthService(users, service.NewBcryptHasher(bcrypt.DefaultCost), tokens,
		service.NewAuditService(repository.NewAuditRepository(pool)))

	u, err := auth.Register(ctx, *username, *password)
	switch {
	case err == nil:
		log.Printf("user created id=%d\n", u.ID)
	case errors.Is(err, domain.ErrConflict):
		log.Printf("user %q already exists\n", *username)
	default:
		log.Fatalf("create user failed: %v", err)
	}

	// verify the credentials round-trip and print a token
	token, err := auth.Login(ctx, *username, *password)
	if err != nil {
		log.Fatalf("login failed: %v", err)
	}
	log.Printf("token=%s\n", token)
}
