package db

import (
	"errors"

	"github.com/glebarez/sqlite"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/Abhijeet-077/Auto-Meet-AI-agent/internal/db/models"
)

// InitDB opens the SQLite database and runs migrations.
func InitDB(dbPath string) (*gorm.DB, error) {
	db, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, err
	}

	if err := db.AutoMigrate(&models.TokenRecord{}); err != nil {
		return nil, err
	}

	return db, nil
}

// TokenStore persists encrypted token records. It satisfies the ledger's
// RecordStore interface.
type TokenStore struct {
	db *gorm.DB
}

// NewTokenStore wraps a gorm handle.
func NewTokenStore(db *gorm.DB) *TokenStore {
	return &TokenStore{db: db}
}

// Put inserts or replaces the record for ownerKey.
func (s *TokenStore) Put(ownerKey, ciphertext string) error {
	rec := models.TokenRecord{OwnerKey: ownerKey, Ciphertext: ciphertext}
	return s.db.Save(&rec).Error
}

// Get returns the ciphertext for ownerKey, or false when none is stored.
func (s *TokenStore) Get(ownerKey string) (string, bool) {
	var rec models.TokenRecord
	err := s.db.First(&rec, "owner_key = ?", ownerKey).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", false
	}
	if err != nil {
		log.Warn().Err(err).Str("owner", ownerKey).Msg("read token record")
		return "", false
	}
	return rec.Ciphertext, true
}

// Delete removes the record for ownerKey. Deleting a missing record is not
// an error.
func (s *TokenStore) Delete(ownerKey string) error {
	return s.db.Delete(&models.TokenRecord{}, "owner_key = ?", ownerKey).Error
}
