// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the Tag model.
//
// Tags are small shared reference data, so the listing is unpaginated and
// ordered by id for stable output.
//
// Functions:
//
//   - ListTags(ctx, db) -> []domain.Tag, error
//     Returns every tag ordered by id ascending.
//
//   - GetTag(ctx, db, id) -> *domain.Tag, error
//     Fetches a single tag by id, or ErrNotFound.
//
//   - GetTagsByIDs(ctx, db, ids) -> []domain.Tag, error
//     Bulk fetch used when validating recipe tag sets.
package repo

import (
	"context"

	"gorm.io/gorm"

	"github.com/tbourn/go-recipe-backend/internal/domain"
)

// ListTags returns all tags ordered by id.
func ListTags(ctx context.Context, db *gorm.DB) ([]domain.Tag, error) {
	var out []domain.Tag
	err := db.WithContext(ctx).Order("id asc").Find(&out).Error
	return out, err
}

// GetTag fetches a single tag by id, or ErrNotFound when missing.
func GetTag(ctx context.Context, db *gorm.DB, id uint) (*domain.Tag, error) {
	var t domain.Tag
	if err := db.WithContext(ctx).First(&t, id).Error; err != nil {
		return nil, err
	}
	return &t, nil
}

// GetTagsByIDs fetches the tags matching the given ids. The result may be
// shorter than ids when some do not exist; callers compare lengths to detect
// unknown tag references.
func GetTagsByIDs(ctx context.Context, db *gorm.DB, ids []uint) ([]domain.Tag, error) {
	var out []domain.Tag
	if len(ids) == 0 {
		return out, nil
	}
	err := db.WithContext(ctx).Where("id IN ?", ids).Find(&out).Error
	return out, err
}
