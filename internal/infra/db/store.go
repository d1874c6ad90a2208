package db

import (
	"fmt"
	"log"

	"veritrust/internal/config"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// Store owns the shared database handle. It is acquired once at startup
// and reused for every request; the database serializes audit appends.
type Store struct {
	DB *gorm.DB
}

func NewStore(cfg config.Config) (*Store, error) {
	if cfg.PostgresDSN == "" {
		log.Printf("POSTGRES_DSN not set; starting with in-memory audit store.")
		return &Store{DB: nil}, nil
	}

	gdb, err := gorm.Open(postgres.Open(cfg.PostgresDSN), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}

	return &Store{DB: gdb}, nil
}
