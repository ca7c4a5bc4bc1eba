package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"todo_webapp/internal/db"

	"github.com/joho/godotenv"
)

func main() {
	apply := flag.Bool("apply", false, "apply migrations")
	flag.Parse()

	names, err := db.MigrationNames()
	if err != nil {
		log.Fatalf("list migrations: %v", err)
	}

	if !*apply {
		for _, name := range names {
			fmt.Println(name)
		}
		return
	}

	_ = godotenv.Load()
	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		log.Fatal("DATABASE_URL not set")
	}

	pool := db.Connect(dsn)
	defer pool.Close()

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	if err := db.Migrate(ctx, pool); err != nil {
		log.Fatalf("migrate: %v", err)
	}
	for _, name := range names {
		fmt.Printf("applied %s\n", name)
	}
}
