// Package store persists credential-check results and catalog
// snapshots for the speechflow CLI, so consecutive runs can be diffed.
// Secrets are never stored; credentials are reduced to a SHA-256
// fingerprint before they reach the database.
package store

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// CredentialCheck records one provider credential probe.
type CredentialCheck struct {
	ID          uint   `gorm:"primaryKey"`
	Provider    string `gorm:"index;size:64"`
	Fingerprint string `gorm:"size:64"` // SHA-256 of the api key, hex
	OK          bool
	Message     string `gorm:"size:1024"`
	CheckedAt   time.Time
}

// CatalogSnapshot records the models a bundle surfaced at a point in time.
type CatalogSnapshot struct {
	ID        uint   `gorm:"primaryKey"`
	Provider  string `gorm:"index;size:64"`
	ModelType string `gorm:"size:32"`
	Model     string `gorm:"size:128"`
	TakenAt   time.Time
}

// Store wraps the snapshot database.
type Store struct {
	db *gorm.DB
}

// Open opens (and migrates) the snapshot database at dsn. Use
// ":memory:" for an in-memory store.
func Open(dsn string) (*Store, error) {
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	if err := db.AutoMigrate(&CredentialCheck{}, &CatalogSnapshot{}); err != nil {
		return nil, fmt.Errorf("migrate store: %w", err)
	}
	return &Store{db: db}, nil
}

// Fingerprint reduces a secret to its storable SHA-256 hex digest.
func Fingerprint(secret string) string {
	sum := sha256.Sum256([]byte(secret))
	return hex.EncodeToString(sum[:])
}

// RecordCheck appends a credential-check result.
func (s *Store) RecordCheck(provider, secret string, ok bool, message string) error {
	check := CredentialCheck{
		Provider:    provider,
		Fingerprint: Fingerprint(secret),
		OK:          ok,
		Message:     message,
		CheckedAt:   time.Now(),
	}
	if err := s.db.Create(&check).Error; err != nil {
		return fmt.Errorf("record check: %w", err)
	}
	return nil
}

// LastCheck returns the most recent check for a provider, or nil.
func (s *Store) LastCheck(provider string) (*CredentialCheck, error) {
	var check CredentialCheck
	err := s.db.Where("provider = ?", provider).Order("checked_at desc").First(&check).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("last check: %w", err)
	}
	return &check, nil
}

// SaveSnapshot replaces the stored catalog snapshot for a provider.
func (s *Store) SaveSnapshot(provider string, models map[string][]string) error {
	now := time.Now()
	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("provider = ?", provider).Delete(&CatalogSnapshot{}).Error; err != nil {
			return err
		}
		for modelType, ids := range models {
			for _, id := range ids {
				row := CatalogSnapshot{
					Provider:  provider,
					ModelType: modelType,
					Model:     id,
					TakenAt:   now,
				}
				if err := tx.Create(&row).Error; err != nil {
					return err
				}
			}
		}
		return nil
	})
}

// Snapshot returns the stored catalog for a provider as model-type → ids.
func (s *Store) Snapshot(provider string) (map[string][]string, error) {
	var rows []CatalogSnapshot
	if err := s.db.Where("provider = ?", provider).Order("model_type, model").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("load snapshot: %w", err)
	}
	out := make(map[string][]string)
	for _, row := range rows {
		out[row.ModelType] = append(out[row.ModelType], row.Model)
	}
	return out, nil
}
