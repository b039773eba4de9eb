// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the Content
// model: single-row lookup by the opaque content key, and inserts used by
// seeding tooling and tests.
package repo

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/mkravets/contentgate/internal/domain"
)

// GetContent fetches a single content record by exact key match.
// If the record does not exist, it returns ErrNotFound. On other DB errors
// (store unreachable, malformed row), the raw error is returned so callers
// can distinguish "absent" from "backend trouble".
func GetContent(ctx context.Context, db *gorm.DB, key string) (*domain.Content, error) {
	var c domain.Content
	err := db.WithContext(ctx).
		Where("key = ?", key).
		First(&c).Error
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// CreateContent inserts a new content record. The key is caller-supplied
// and must be unique; a duplicate insert returns the DB constraint error.
func CreateContent(ctx context.Context, db *gorm.DB, c *domain.Content) error {
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now().UTC()
	}
	return db.WithContext(ctx).Create(c).Error
}
