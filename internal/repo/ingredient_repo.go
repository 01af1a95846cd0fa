// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the Ingredient
// model, including the ranked prefix-first name search used by the
// ingredient autocomplete endpoint.
//
// Functions:
//
//   - SearchIngredients(ctx, db, query, limit) -> []domain.Ingredient, error
//     Case-insensitive substring search. Prefix matches rank before mid-word
//     matches; ties break alphabetically. An empty query lists all
//     ingredients alphabetically.
//
//   - GetIngredientsByIDs(ctx, db, ids) -> []domain.Ingredient, error
//     Bulk fetch used when validating recipe ingredient lines.
package repo

import (
	"context"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/tbourn/go-recipe-backend/internal/domain"
)

// SearchIngredients performs a case-insensitive substring search over
// ingredient names. Results that start with the query sort before results
// that merely contain it, and within each rank the ordering is alphabetical.
// limit <= 0 means no limit.
func SearchIngredients(ctx context.Context, db *gorm.DB, query string, limit int) ([]domain.Ingredient, error) {
	var out []domain.Ingredient

	q := db.WithContext(ctx).Model(&domain.Ingredient{})
	needle := strings.ToLower(strings.TrimSpace(query))
	if needle != "" {
		q = q.Where(`LOWER(name) LIKE ? ESCAPE '\'`, "%"+escapeLike(needle)+"%").
			Order(clause.OrderBy{Expression: clause.Expr{
				SQL:  `CASE WHEN LOWER(name) LIKE ? ESCAPE '\' THEN 0 ELSE 1 END, LOWER(name)`,
				Vars: []any{escapeLike(needle) + "%"},
			}})
	} else {
		q = q.Order("LOWER(name)")
	}
	if limit > 0 {
		q = q.Limit(limit)
	}
	err := q.Find(&out).Error
	return out, err
}

// GetIngredientsByIDs fetches the ingredients matching the given ids.
// Missing ids are silently absent; callers compare lengths.
func GetIngredientsByIDs(ctx context.Context, db *gorm.DB, ids []uint) ([]domain.Ingredient, error) {
	var out []domain.Ingredient
	if len(ids) == 0 {
		return out, nil
	}
	err := db.WithContext(ctx).Where("id IN ?", ids).Find(&out).Error
	return out, err
}

// escapeLike neutralizes LIKE wildcards in user input so "100%" matches
// literally.
func escapeLike(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, "%", `\%`)
	s = strings.ReplaceAll(s, "_", `\_`)
	return s
}
