// Package archive keeps the results of finished games in Postgres.
package archive

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const maxRecent = 100

type Store struct {
	db *gorm.DB
}

// Open connects to Postgres at dsn.
func Open(dsn string) (*Store, error) {
	if dsn == "" {
		return nil, errors.New("archive: empty dsn")
	}
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("archive: open: %w", err)
	}
	return &Store{db: db}, nil
}

// Migrate runs GORM auto-migrations for the archive tables.
func (s *Store) Migrate(ctx context.Context) error {
	if err := s.db.WithContext(ctx).AutoMigrate(&GameRecord{}, &PlayerResult{}); err != nil {
		return fmt.Errorf("archive: migrate: %w", err)
	}
	return nil
}

// Record stores a finished game and its standings in one transaction.
func (s *Store) Record(ctx context.Context, r Result) error {
	rec := r.record()
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		players := rec.Players
		rec.Players = nil
		if err := tx.Create(&rec).Error; err != nil {
			return err
		}
		if len(players) == 0 {
			return nil
		}
		for i := range players {
			players[i].GameID = rec.ID
		}
		return tx.Create(&players).Error
	})
	if err != nil {
		return fmt.Errorf("archive: record %s: %w", r.Code, err)
	}
	return nil
}

// Recent lists the newest finished games, players ordered by rank.
func (s *Store) Recent(ctx context.Context, limit int) ([]GameRecord, error) {
	if limit <= 0 || limit > maxRecent {
		limit = maxRecent
	}
	var games []GameRecord
	err := s.db.WithContext(ctx).
		Preload("Players", func(db *gorm.DB) *gorm.DB {
			return db.Order("rank ASC, name ASC")
		}).
		Order("finished_at DESC").
		Limit(limit).
		Find(&games).Error
	if err != nil {
		return nil, fmt.Errorf("archive: recent: %w", err)
	}
	return games, nil
}

func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Nop discards results. It is used when no database is configured.
type Nop struct{}

func (Nop) Record(context.Context, Result) error { return nil }

func (Nop) Recent(context.Context, int) ([]GameRecord, error) { return []GameRecord{}, nil }
