// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the Recipe
// aggregate: filtered listing, eager-loaded reads, creation and update of
// the recipe row together with its tag set and ingredient lines, deletion,
// and the stats snapshot used for HTTP caching of the listing.
//
// Functions:
//
//   - CountRecipes / ListRecipesPage
//     Filtered pagination over recipes, newest-first by publish date.
//
//   - GetRecipe(ctx, db, id) -> *domain.Recipe, error
//     Fetches one recipe with Author, Tags, and Quantities.Ingredient
//     preloaded, or ErrNotFound.
//
//   - CreateRecipe(ctx, db, r) -> error
//     Inserts the recipe row only; associations are written separately.
//
//   - UpdateRecipe(ctx, db, r) -> error
//     Persists the scalar columns of an existing recipe.
//
//   - ReplaceRecipeTags / ReplaceRecipeQuantities
//     Atomically swap a recipe's tag set / ingredient lines. Intended to be
//     called inside the service-level transaction.
//
//   - DeleteRecipe(ctx, db, id) -> error
//     Hard delete; ErrNotFound when no row matched. FK cascades remove the
//     dependent quantities, favorites, and cart rows.
//
//   - ListRecipesByAuthorLimited / CountRecipesByAuthor
//     Compact per-author listing used by subscription entries.
//
//   - RecipesStats(ctx, db) -> (count, lastModified, error)
//     Cheap snapshot for ETag / Last-Modified on the public listing.
package repo

import (
	"context"
	"database/sql"
	"time"

	"gorm.io/gorm"

	"github.com/tbourn/go-recipe-backend/internal/domain"
)

// RecipeFilter narrows the recipe listing. Nil / empty fields are ignored.
// TagSlugs combine with OR; the remaining predicates combine with AND.
type RecipeFilter struct {
	AuthorID    *uint    // only recipes by this author
	TagSlugs    []string // recipes carrying at least one of these tag slugs
	FavoritedBy *uint    // only recipes favorited by this user
	InCartOf    *uint    // only recipes in this user's shopping cart
}

// applyRecipeFilter appends the filter predicates to a recipes query.
func applyRecipeFilter(q *gorm.DB, f RecipeFilter) *gorm.DB {
	if f.AuthorID != nil {
		q = q.Where("recipes.author_id = ?", *f.AuthorID)
	}
	if len(f.TagSlugs) > 0 {
		q = q.Where(
			"recipes.id IN (?)",
			q.Session(&gorm.Session{NewDB: true}).
				Table("recipe_tags").
				Select("recipe_tags.recipe_id").
				Joins("JOIN tags ON tags.id = recipe_tags.tag_id").
				Where("tags.slug IN ?", f.TagSlugs),
		)
	}
	if f.FavoritedBy != nil {
		q = q.Where(
			"recipes.id IN (?)",
			q.Session(&gorm.Session{NewDB: true}).
				Table("favorites").
				Select("favorites.recipe_id").
				Where("favorites.user_id = ?", *f.FavoritedBy),
		)
	}
	if f.InCartOf != nil {
		q = q.Where(
			"recipes.id IN (?)",
			q.Session(&gorm.Session{NewDB: true}).
				Table("carts").
				Select("carts.recipe_id").
				Where("carts.user_id = ?", *f.InCartOf),
		)
	}
	return q
}

// CountRecipes returns the number of recipes matching the filter.
func CountRecipes(ctx context.Context, db *gorm.DB, f RecipeFilter) (int64, error) {
	var total int64
	q := applyRecipeFilter(db.WithContext(ctx).Model(&domain.Recipe{}), f)
	err := q.Count(&total).Error
	return total, err
}

// ListRecipesPage returns a page of recipes matching the filter, newest
// first by publish date (id descending as a tiebreaker for same-instant
// inserts). Author, Tags, and ingredient lines are preloaded.
func ListRecipesPage(ctx context.Context, db *gorm.DB, f RecipeFilter, offset, limit int) ([]domain.Recipe, error) {
	var out []domain.Recipe
	q := applyRecipeFilter(db.WithContext(ctx).Model(&domain.Recipe{}), f)
	err := q.
		Preload("Author").
		Preload("Tags").
		Preload("Quantities.Ingredient").
		Order("recipes.pub_date desc, recipes.id desc").
		Offset(offset).
		Limit(limit).
		Find(&out).Error
	return out, err
}

// GetRecipe fetches one recipe with its author, tags, and ingredient lines
// preloaded. Returns ErrNotFound when missing.
func GetRecipe(ctx context.Context, db *gorm.DB, id uint) (*domain.Recipe, error) {
	var r domain.Recipe
	err := db.WithContext(ctx).
		Preload("Author").
		Preload("Tags").
		Preload("Quantities.Ingredient").
		First(&r, id).Error
	if err != nil {
		return nil, err
	}
	return &r, nil
}

// CreateRecipe inserts the recipe row. Tag and quantity associations are
// written by ReplaceRecipeTags / ReplaceRecipeQuantities within the same
// transaction, so association auto-saving is disabled here.
func CreateRecipe(ctx context.Context, db *gorm.DB, r *domain.Recipe) error {
	return db.WithContext(ctx).Omit("Author", "Tags", "Quantities").Create(r).Error
}

// UpdateRecipe persists the editable scalar columns of an existing recipe.
// PubDate and AuthorID are immutable after creation.
func UpdateRecipe(ctx context.Context, db *gorm.DB, r *domain.Recipe) error {
	res := db.WithContext(ctx).
		Model(&domain.Recipe{}).
		Where("id = ?", r.ID).
		Updates(map[string]any{
			"name":         r.Name,
			"image":        r.Image,
			"text":         r.Text,
			"cooking_time": r.CookingTime,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// ReplaceRecipeTags swaps the recipe's tag set for the given tags. Must run
// inside the caller's transaction so a later failure rolls it back.
func ReplaceRecipeTags(ctx context.Context, db *gorm.DB, recipeID uint, tags []domain.Tag) error {
	r := domain.Recipe{ID: recipeID}
	return db.WithContext(ctx).Model(&r).Association("Tags").Replace(tags)
}

// ReplaceRecipeQuantities deletes the recipe's ingredient lines and inserts
// the given ones. Must run inside the caller's transaction.
func ReplaceRecipeQuantities(ctx context.Context, db *gorm.DB, recipeID uint, lines []domain.Quantity) error {
	tx := db.WithContext(ctx)
	if err := tx.Where("recipe_id = ?", recipeID).Delete(&domain.Quantity{}).Error; err != nil {
		return err
	}
	if len(lines) == 0 {
		return nil
	}
	for i := range lines {
		lines[i].ID = 0
		lines[i].RecipeID = recipeID
	}
	return tx.Create(&lines).Error
}

// DeleteRecipe hard-deletes a recipe. Quantities, favorites, and cart rows
// go with it via FK cascades; the recipe_tags join rows are removed here
// since many2many joins carry no cascade constraint.
func DeleteRecipe(ctx context.Context, db *gorm.DB, id uint) error {
	tx := db.WithContext(ctx)
	if err := tx.Exec("DELETE FROM recipe_tags WHERE recipe_id = ?", id).Error; err != nil {
		return err
	}
	res := tx.Delete(&domain.Recipe{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// ListRecipesByAuthorLimited returns the author's newest recipes, at most
// limit rows (limit <= 0 means all). Used for the compact recipe cards in
// subscription entries, so no associations are preloaded.
func ListRecipesByAuthorLimited(ctx context.Context, db *gorm.DB, authorID uint, limit int) ([]domain.Recipe, error) {
	var out []domain.Recipe
	q := db.WithContext(ctx).
		Where("author_id = ?", authorID).
		Order("pub_date desc, id desc")
	if limit > 0 {
		q = q.Limit(limit)
	}
	err := q.Find(&out).Error
	return out, err
}

// CountRecipesByAuthor returns the author's total recipe count.
func CountRecipesByAuthor(ctx context.Context, db *gorm.DB, authorID uint) (int64, error) {
	var total int64
	err := db.WithContext(ctx).
		Model(&domain.Recipe{}).
		Where("author_id = ?", authorID).
		Count(&total).Error
	return total, err
}

// RecipesStats returns the total recipe count and the most recent publish
// timestamp. Handlers derive ETag / Last-Modified for the public listing
// from this pair; it changes whenever a recipe is created or removed.
func RecipesStats(ctx context.Context, db *gorm.DB) (int64, time.Time, error) {
	var total int64
	if err := db.WithContext(ctx).Model(&domain.Recipe{}).Count(&total).Error; err != nil {
		return 0, time.Time{}, err
	}
	var last sql.NullTime
	if err := db.WithContext(ctx).
		Model(&domain.Recipe{}).
		Select("MAX(pub_date)").
		Scan(&last).Error; err != nil {
		return 0, time.Time{}, err
	}
	if !last.Valid {
		return total, time.Time{}, nil
	}
	return total, last.Time.UTC(), nil
}
