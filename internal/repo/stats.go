// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides small aggregate queries used by the
// ops HTTP surface (/status). Each function is context-aware and safe to
// call from services or handlers.
package repo

import (
	"context"

	"gorm.io/gorm"

	"github.com/mkravets/contentgate/internal/domain"
)

// CountUsers returns the total number of registered users.
func CountUsers(ctx context.Context, db *gorm.DB) (int64, error) {
	var total int64
	err := db.WithContext(ctx).Model(&domain.User{}).Count(&total).Error
	return total, err
}

// CountContent returns the total number of stored content records.
func CountContent(ctx context.Context, db *gorm.DB) (int64, error) {
	var total int64
	err := db.WithContext(ctx).Model(&domain.Content{}).Count(&total).Error
	return total, err
}
