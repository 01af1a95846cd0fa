// Package services – RelationService
//
// This file implements RelationService, which owns the two per-user recipe
// marks (favorites and the shopping cart) and the aggregated shopping-list
// export built from the cart. Both marks share identical add/remove
// semantics, so they funnel through one parameterized mutation and differ
// only in their repo calls and sentinel errors.
package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"
	"gorm.io/gorm"

	"github.com/tbourn/go-recipe-backend/internal/repo"
)

// RelationService implements favorites, the shopping cart, and the
// shopping-list export.
type RelationService struct {
	DB *gorm.DB

	// MediaURL is the public prefix joined with recipe image filenames.
	MediaURL string
}

// markOps bundles the repo calls and sentinel errors of one mark kind.
type markOps struct {
	create       func(ctx context.Context, db *gorm.DB, userID, recipeID uint) error
	delete       func(ctx context.Context, db *gorm.DB, userID, recipeID uint) error
	errDuplicate error
	errMissing   error
}

var favoriteOps = markOps{
	create:       repo.CreateFavorite,
	delete:       repo.DeleteFavorite,
	errDuplicate: ErrAlreadyFavorited,
	errMissing:   ErrNotFavorited,
}

var cartOps = markOps{
	create:       repo.CreateCart,
	delete:       repo.DeleteCart,
	errDuplicate: ErrAlreadyInCart,
	errMissing:   ErrNotInCart,
}

// AddFavorite marks a recipe as favorited and returns its compact card.
// Missing recipe yields ErrRecipeNotFound; duplicates yield ErrAlreadyFavorited.
func (s *RelationService) AddFavorite(ctx context.Context, userID, recipeID uint) (*RecipeSummary, error) {
	return s.add(ctx, favoriteOps, userID, recipeID)
}

// RemoveFavorite unmarks a favorited recipe; ErrNotFavorited when it was not.
func (s *RelationService) RemoveFavorite(ctx context.Context, userID, recipeID uint) error {
	return s.remove(ctx, favoriteOps, userID, recipeID)
}

// AddToCart puts a recipe into the shopping cart and returns its compact card.
// Missing recipe yields ErrRecipeNotFound; duplicates yield ErrAlreadyInCart.
func (s *RelationService) AddToCart(ctx context.Context, userID, recipeID uint) (*RecipeSummary, error) {
	return s.add(ctx, cartOps, userID, recipeID)
}

// RemoveFromCart takes a recipe out of the cart; ErrNotInCart when absent.
func (s *RelationService) RemoveFromCart(ctx context.Context, userID, recipeID uint) error {
	return s.remove(ctx, cartOps, userID, recipeID)
}

func (s *RelationService) add(ctx context.Context, ops markOps, userID, recipeID uint) (*RecipeSummary, error) {
	r, err := repo.GetRecipe(ctx, s.DB, recipeID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrRecipeNotFound
		}
		return nil, err
	}
	if err := ops.create(ctx, s.DB, userID, recipeID); err != nil {
		if errors.Is(err, repo.ErrDuplicate) {
			return nil, ops.errDuplicate
		}
		return nil, err
	}
	card := NewRecipeSummary(*r, s.MediaURL)
	return &card, nil
}

func (s *RelationService) remove(ctx context.Context, ops markOps, userID, recipeID uint) error {
	if _, err := repo.GetRecipe(ctx, s.DB, recipeID); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return ErrRecipeNotFound
		}
		return err
	}
	if err := ops.delete(ctx, s.DB, userID, recipeID); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return ops.errMissing
		}
		return err
	}
	return nil
}

// ShoppingList renders the user's aggregated shopping list as plain text:
// one "name\ttotal unit" line per distinct (name, unit) pair across every
// recipe in the cart, sorted with locale-aware collation so Cyrillic
// ingredient names order naturally. An empty cart yields an empty string.
func (s *RelationService) ShoppingList(ctx context.Context, userID uint) (string, error) {
	tr := otel.Tracer("services/RelationService")
	ctx, span := tr.Start(ctx, "ShoppingList",
		trace.WithAttributes(attribute.Int("user.id", int(userID))),
	)
	defer span.End()

	lines, err := repo.AggregateCart(ctx, s.DB, userID)
	if err != nil {
		return "", err
	}
	if len(lines) == 0 {
		return "", nil
	}

	coll := collate.New(language.Russian)
	sort.SliceStable(lines, func(a, b int) bool {
		if c := coll.CompareString(lines[a].Name, lines[b].Name); c != 0 {
			return c < 0
		}
		return lines[a].MeasurementUnit < lines[b].MeasurementUnit
	})

	var b strings.Builder
	for _, l := range lines {
		fmt.Fprintf(&b, "%s\t%d %s\n", l.Name, l.Total, l.MeasurementUnit)
	}
	return b.String(), nil
}

// ShoppingListFilename is the attachment name used by the export endpoint.
const ShoppingListFilename = "list.txt"
