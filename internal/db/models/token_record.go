package models

import "time"

// TokenRecord is one encrypted token bundle keyed by its owner (the browser
// session today, a user id if real accounts ever land). The ciphertext is a
// base64 blob; plaintext tokens never touch the database.
type TokenRecord struct {
	OwnerKey   string `gorm:"primaryKey"`
	Ciphertext string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}
