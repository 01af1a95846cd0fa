// Package services – CatalogService
//
// Read-only access to the shared reference data: tags and the ingredient
// catalog with its ranked name search.
package services

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/tbourn/go-recipe-backend/internal/domain"
	"github.com/tbourn/go-recipe-backend/internal/repo"
)

// ErrTagNotFound indicates that the requested tag does not exist.
var ErrTagNotFound = errors.New("tag not found")

// ErrIngredientNotFound indicates that the requested ingredient does not exist.
var ErrIngredientNotFound = errors.New("ingredient not found")

// CatalogService serves tags and ingredients.
type CatalogService struct {
	DB *gorm.DB

	// SearchLimit caps the ingredient search result size; <= 0 means no cap.
	SearchLimit int
}

// ListTags returns every tag.
func (s *CatalogService) ListTags(ctx context.Context) ([]domain.Tag, error) {
	return repo.ListTags(ctx, s.DB)
}

// GetTag returns one tag by id, or ErrTagNotFound.
func (s *CatalogService) GetTag(ctx context.Context, id uint) (*domain.Tag, error) {
	t, err := repo.GetTag(ctx, s.DB, id)
	if errors.Is(err, repo.ErrNotFound) {
		return nil, ErrTagNotFound
	}
	return t, err
}

// SearchIngredients runs the ranked name search: prefix matches first, then
// substring matches, alphabetical within each rank. An empty query lists the
// whole catalog alphabetically.
func (s *CatalogService) SearchIngredients(ctx context.Context, query string) ([]domain.Ingredient, error) {
	return repo.SearchIngredients(ctx, s.DB, query, s.SearchLimit)
}

// GetIngredient returns one ingredient by id, or ErrIngredientNotFound.
func (s *CatalogService) GetIngredient(ctx context.Context, id uint) (*domain.Ingredient, error) {
	found, err := repo.GetIngredientsByIDs(ctx, s.DB, []uint{id})
	if err != nil {
		return nil, err
	}
	if len(found) == 0 {
		return nil, ErrIngredientNotFound
	}
	return &found[0], nil
}
