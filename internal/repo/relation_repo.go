// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the per-user
// relation rows: favorites, shopping-cart entries, and author follows.
// All three share the same shape (unique (user, target) pair, hard delete),
// so creates map unique violations to ErrDuplicate and deletes map zero
// affected rows to ErrNotFound.
//
// Functions:
//
//   - CreateFavorite / DeleteFavorite / FavoriteRecipeIDs
//   - CreateCart / DeleteCart / CartRecipeIDs
//   - CreateFollow / DeleteFollow / FollowExists / FollowingIDs
//   - ListFollowedAuthors / CountFollowedAuthors
//     Paginated listing of the authors a user follows, ordered by when the
//     follow was created (newest first).
//   - AggregateCart(ctx, db, userID) -> []CartLine, error
//     Sums ingredient amounts across every recipe in the user's cart,
//     grouped by (name, measurement unit).
package repo

import (
	"context"

	"gorm.io/gorm"

	"github.com/tbourn/go-recipe-backend/internal/domain"
)

// CartLine is one aggregated row of a user's shopping list: all cart recipes'
// amounts of the same (name, unit) ingredient summed together.
type CartLine struct {
	Name            string
	MeasurementUnit string
	Total           int64
}

// CreateFavorite inserts a favorite row; ErrDuplicate when already present.
func CreateFavorite(ctx context.Context, db *gorm.DB, userID, recipeID uint) error {
	err := db.WithContext(ctx).Create(&domain.Favorite{UserID: userID, RecipeID: recipeID}).Error
	if isUniqueViolation(err) {
		return ErrDuplicate
	}
	return err
}

// DeleteFavorite removes a favorite row; ErrNotFound when none existed.
func DeleteFavorite(ctx context.Context, db *gorm.DB, userID, recipeID uint) error {
	res := db.WithContext(ctx).
		Where("user_id = ? AND recipe_id = ?", userID, recipeID).
		Delete(&domain.Favorite{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// FavoriteRecipeIDs returns, for the given recipe ids, the subset the user
// has favorited, as a membership set. A nil userID yields an empty set.
func FavoriteRecipeIDs(ctx context.Context, db *gorm.DB, userID *uint, recipeIDs []uint) (map[uint]bool, error) {
	return relationIDSet(ctx, db, &domain.Favorite{}, "recipe_id", userID, recipeIDs)
}

// CreateCart inserts a cart row; ErrDuplicate when already present.
func CreateCart(ctx context.Context, db *gorm.DB, userID, recipeID uint) error {
	err := db.WithContext(ctx).Create(&domain.Cart{UserID: userID, RecipeID: recipeID}).Error
	if isUniqueViolation(err) {
		return ErrDuplicate
	}
	return err
}

// DeleteCart removes a cart row; ErrNotFound when none existed.
func DeleteCart(ctx context.Context, db *gorm.DB, userID, recipeID uint) error {
	res := db.WithContext(ctx).
		Where("user_id = ? AND recipe_id = ?", userID, recipeID).
		Delete(&domain.Cart{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// CartRecipeIDs returns, for the given recipe ids, the subset present in the
// user's cart, as a membership set. A nil userID yields an empty set.
func CartRecipeIDs(ctx context.Context, db *gorm.DB, userID *uint, recipeIDs []uint) (map[uint]bool, error) {
	return relationIDSet(ctx, db, &domain.Cart{}, "recipe_id", userID, recipeIDs)
}

// CreateFollow inserts a follow row; ErrDuplicate when already present.
// Self-follow rejection happens at the service layer.
func CreateFollow(ctx context.Context, db *gorm.DB, userID, authorID uint) error {
	err := db.WithContext(ctx).Create(&domain.Follow{UserID: userID, AuthorID: authorID}).Error
	if isUniqueViolation(err) {
		return ErrDuplicate
	}
	return err
}

// DeleteFollow removes a follow row; ErrNotFound when none existed.
func DeleteFollow(ctx context.Context, db *gorm.DB, userID, authorID uint) error {
	res := db.WithContext(ctx).
		Where("user_id = ? AND author_id = ?", userID, authorID).
		Delete(&domain.Follow{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// FollowExists reports whether userID follows authorID.
func FollowExists(ctx context.Context, db *gorm.DB, userID, authorID uint) (bool, error) {
	var n int64
	err := db.WithContext(ctx).
		Model(&domain.Follow{}).
		Where("user_id = ? AND author_id = ?", userID, authorID).
		Count(&n).Error
	return n > 0, err
}

// FollowingIDs returns, for the given author ids, the subset the user
// follows, as a membership set. A nil userID yields an empty set.
func FollowingIDs(ctx context.Context, db *gorm.DB, userID *uint, authorIDs []uint) (map[uint]bool, error) {
	return relationIDSet(ctx, db, &domain.Follow{}, "author_id", userID, authorIDs)
}

// relationIDSet runs the shared membership query behind the three *IDs
// helpers: select the target column from the relation table for one user,
// restricted to the candidate ids.
func relationIDSet(ctx context.Context, db *gorm.DB, model any, column string, userID *uint, ids []uint) (map[uint]bool, error) {
	out := make(map[uint]bool, len(ids))
	if userID == nil || len(ids) == 0 {
		return out, nil
	}
	var hits []uint
	err := db.WithContext(ctx).
		Model(model).
		Where("user_id = ?", *userID).
		Where(column+" IN ?", ids).
		Pluck(column, &hits).Error
	if err != nil {
		return nil, err
	}
	for _, id := range hits {
		out[id] = true
	}
	return out, nil
}

// ListFollowedAuthors returns a page of the users that userID follows,
// newest follow first (follow id descending as tiebreaker).
func ListFollowedAuthors(ctx context.Context, db *gorm.DB, userID uint, offset, limit int) ([]domain.User, error) {
	var out []domain.User
	err := db.WithContext(ctx).
		Model(&domain.User{}).
		Joins("JOIN follows ON follows.author_id = users.id").
		Where("follows.user_id = ?", userID).
		Order("follows.created_at desc, follows.id desc").
		Offset(offset).
		Limit(limit).
		Find(&out).Error
	return out, err
}

// CountFollowedAuthors returns how many authors userID follows.
func CountFollowedAuthors(ctx context.Context, db *gorm.DB, userID uint) (int64, error) {
	var total int64
	err := db.WithContext(ctx).
		Model(&domain.Follow{}).
		Where("user_id = ?", userID).
		Count(&total).Error
	return total, err
}

// AggregateCart sums ingredient amounts across every recipe in the user's
// cart, grouped by ingredient name and measurement unit so that the same
// name under different units stays on separate lines.
func AggregateCart(ctx context.Context, db *gorm.DB, userID uint) ([]CartLine, error) {
	var out []CartLine
	err := db.WithContext(ctx).
		Table("quantities").
		Select("ingredients.name AS name, ingredients.measurement_unit AS measurement_unit, SUM(quantities.amount) AS total").
		Joins("JOIN ingredients ON ingredients.id = quantities.ingredient_id").
		Joins("JOIN carts ON carts.recipe_id = quantities.recipe_id").
		Where("carts.user_id = ?", userID).
		Group("ingredients.name, ingredients.measurement_unit").
		Scan(&out).Error
	return out, err
}
