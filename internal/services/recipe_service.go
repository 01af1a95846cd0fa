// Package services – RecipeService
//
// This file implements RecipeService, the application-level component that
// owns the recipe lifecycle: filtered listing, detail reads, and the atomic
// create/update/delete operations that keep the recipe row, its tag set, its
// ingredient lines, and the stored image file consistent. Creation supports
// safe client retries through Idempotency-Key records.
//
// Observability: the mutating methods are OpenTelemetry-instrumented; spans
// include recipe/user identifiers.
package services

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/tbourn/go-recipe-backend/internal/domain"
	"github.com/tbourn/go-recipe-backend/internal/media"
	"github.com/tbourn/go-recipe-backend/internal/repo"
)

// IngredientRef is one submitted ingredient line: a catalog id and an amount.
type IngredientRef struct {
	ID     uint `json:"id"`
	Amount int  `json:"amount"`
}

// RecipeInput is the payload for creating or updating a recipe. Image is a
// base64 data URI; on update an empty Image keeps the stored file.
type RecipeInput struct {
	Name        string          `json:"name"`
	Text        string          `json:"text"`
	Image       string          `json:"image"`
	CookingTime int             `json:"cooking_time"`
	TagIDs      []uint          `json:"tags"`
	Ingredients []IngredientRef `json:"ingredients"`
}

// RecipeService coordinates recipe persistence, validation, and image storage.
type RecipeService struct {
	DB    *gorm.DB
	Media *media.Store

	// MediaURL is the public prefix joined with stored image filenames.
	MediaURL string

	// Validation lower bounds (config-driven, both default to 1).
	MinCookingTime      int
	MinIngredientAmount int

	// IdempotencyTTL is how long a recorded Idempotency-Key shields retries.
	IdempotencyTTL time.Duration
}

// List returns a page of recipes matching the filter, newest first, with the
// viewer-relative flags resolved in batch.
func (s *RecipeService) List(ctx context.Context, viewer *uint, f repo.RecipeFilter, page, pageSize int) ([]RecipeDetail, int64, error) {
	page, pageSize = normalizePage(page, pageSize)

	total, err := repo.CountRecipes(ctx, s.DB, f)
	if err != nil {
		return nil, 0, err
	}
	recipes, err := repo.ListRecipesPage(ctx, s.DB, f, (page-1)*pageSize, pageSize)
	if err != nil {
		return nil, 0, err
	}

	recipeIDs := make([]uint, len(recipes))
	authorIDs := make([]uint, len(recipes))
	for i, r := range recipes {
		recipeIDs[i] = r.ID
		authorIDs[i] = r.AuthorID
	}
	favs, err := repo.FavoriteRecipeIDs(ctx, s.DB, viewer, recipeIDs)
	if err != nil {
		return nil, 0, err
	}
	cart, err := repo.CartRecipeIDs(ctx, s.DB, viewer, recipeIDs)
	if err != nil {
		return nil, 0, err
	}
	following, err := repo.FollowingIDs(ctx, s.DB, viewer, authorIDs)
	if err != nil {
		return nil, 0, err
	}

	out := make([]RecipeDetail, 0, len(recipes))
	for _, r := range recipes {
		out = append(out, newRecipeDetail(r, s.MediaURL, following[r.AuthorID], favs[r.ID], cart[r.ID]))
	}
	return out, total, nil
}

// Get returns one recipe detail, or ErrRecipeNotFound.
func (s *RecipeService) Get(ctx context.Context, viewer *uint, id uint) (*RecipeDetail, error) {
	r, err := repo.GetRecipe(ctx, s.DB, id)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrRecipeNotFound
		}
		return nil, err
	}
	var favorited, inCart, subscribed bool
	if viewer != nil {
		favs, err := repo.FavoriteRecipeIDs(ctx, s.DB, viewer, []uint{id})
		if err != nil {
			return nil, err
		}
		carts, err := repo.CartRecipeIDs(ctx, s.DB, viewer, []uint{id})
		if err != nil {
			return nil, err
		}
		subscribed, err = repo.FollowExists(ctx, s.DB, *viewer, r.AuthorID)
		if err != nil {
			return nil, err
		}
		favorited, inCart = favs[id], carts[id]
	}
	d := newRecipeDetail(*r, s.MediaURL, subscribed, favorited, inCart)
	return &d, nil
}

// Create validates the submission, stores the image, and persists the recipe
// with its tag set and ingredient lines in one transaction.
//
// Idempotency: when idemKey is non-empty and a non-expired record exists for
// (authorID, idemKey), the originally created recipe is returned with
// replayed=true and no new row is written.
func (s *RecipeService) Create(ctx context.Context, authorID uint, in RecipeInput, idemKey string) (out *RecipeDetail, replayed bool, err error) {
	tr := otel.Tracer("services/RecipeService")
	ctx, span := tr.Start(ctx, "Create",
		trace.WithAttributes(attribute.Int("user.id", int(authorID))),
	)
	defer span.End()

	if idemKey != "" {
		rec, err := repo.GetIdempotency(ctx, s.DB, authorID, idemKey, time.Now().UTC())
		if err == nil {
			prev, gerr := s.Get(ctx, &authorID, rec.RecipeID)
			if gerr != nil {
				return nil, false, gerr
			}
			return prev, true, nil
		}
		if !errors.Is(err, repo.ErrNotFound) {
			return nil, false, err
		}
	}

	tags, lines, err := s.validate(ctx, in, true)
	if err != nil {
		return nil, false, err
	}

	imageName, err := s.Media.SaveDataURI(in.Image)
	if err != nil {
		return nil, false, ErrBadImage
	}

	r := &domain.Recipe{
		Name:        in.Name,
		AuthorID:    authorID,
		Image:       imageName,
		Text:        in.Text,
		CookingTime: in.CookingTime,
	}
	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := repo.CreateRecipe(ctx, tx, r); err != nil {
			return err
		}
		if err := repo.ReplaceRecipeTags(ctx, tx, r.ID, tags); err != nil {
			return err
		}
		if err := repo.ReplaceRecipeQuantities(ctx, tx, r.ID, lines); err != nil {
			return err
		}
		if idemKey != "" {
			if _, err := repo.CreateIdempotency(ctx, tx, authorID, idemKey, r.ID, 201, s.IdempotencyTTL); err != nil &&
				!errors.Is(err, repo.ErrDuplicate) {
				return err
			}
		}
		return nil
	})
	if err != nil {
		// The transaction rolled back; drop the orphaned image file.
		_ = s.Media.Remove(imageName)
		return nil, false, err
	}
	span.SetAttributes(attribute.Int("recipe.id", int(r.ID)))

	detail, err := s.Get(ctx, &authorID, r.ID)
	return detail, false, err
}

// Update validates the submission and atomically replaces the recipe's
// scalar fields, tag set, and ingredient lines. Only the author or a staff
// account may update; anyone else gets ErrForbidden.
func (s *RecipeService) Update(ctx context.Context, actorID, recipeID uint, in RecipeInput) (*RecipeDetail, error) {
	tr := otel.Tracer("services/RecipeService")
	ctx, span := tr.Start(ctx, "Update",
		trace.WithAttributes(
			attribute.Int("user.id", int(actorID)),
			attribute.Int("recipe.id", int(recipeID)),
		),
	)
	defer span.End()

	existing, err := s.authorize(ctx, actorID, recipeID)
	if err != nil {
		return nil, err
	}

	tags, lines, err := s.validate(ctx, in, in.Image != "")
	if err != nil {
		return nil, err
	}

	imageName := existing.Image
	oldImage := ""
	if in.Image != "" {
		imageName, err = s.Media.SaveDataURI(in.Image)
		if err != nil {
			return nil, ErrBadImage
		}
		oldImage = existing.Image
	}

	next := &domain.Recipe{
		ID:          recipeID,
		Name:        in.Name,
		Image:       imageName,
		Text:        in.Text,
		CookingTime: in.CookingTime,
	}
	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := repo.UpdateRecipe(ctx, tx, next); err != nil {
			return err
		}
		if err := repo.ReplaceRecipeTags(ctx, tx, recipeID, tags); err != nil {
			return err
		}
		return repo.ReplaceRecipeQuantities(ctx, tx, recipeID, lines)
	})
	if err != nil {
		if oldImage != "" {
			_ = s.Media.Remove(imageName)
		}
		return nil, err
	}
	if oldImage != "" {
		_ = s.Media.Remove(oldImage)
	}

	return s.Get(ctx, &actorID, recipeID)
}

// Delete removes a recipe and its stored image. Only the author or a staff
// account may delete; anyone else gets ErrForbidden.
func (s *RecipeService) Delete(ctx context.Context, actorID, recipeID uint) error {
	tr := otel.Tracer("services/RecipeService")
	ctx, span := tr.Start(ctx, "Delete",
		trace.WithAttributes(
			attribute.Int("user.id", int(actorID)),
			attribute.Int("recipe.id", int(recipeID)),
		),
	)
	defer span.End()

	existing, err := s.authorize(ctx, actorID, recipeID)
	if err != nil {
		return err
	}
	if err := repo.DeleteRecipe(ctx, s.DB, recipeID); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return ErrRecipeNotFound
		}
		return err
	}
	_ = s.Media.Remove(existing.Image)
	return nil
}

// Stats returns the recipe count and latest publish time for HTTP caching.
func (s *RecipeService) Stats(ctx context.Context) (int64, time.Time, error) {
	return repo.RecipesStats(ctx, s.DB)
}

// authorize loads the recipe and checks that actorID may mutate it: the
// author always can, staff accounts can mutate anything.
func (s *RecipeService) authorize(ctx context.Context, actorID, recipeID uint) (*domain.Recipe, error) {
	r, err := repo.GetRecipe(ctx, s.DB, recipeID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrRecipeNotFound
		}
		return nil, err
	}
	if r.AuthorID == actorID {
		return r, nil
	}
	actor, err := repo.GetUser(ctx, s.DB, actorID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrForbidden
		}
		return nil, err
	}
	if !actor.IsStaff {
		return nil, ErrForbidden
	}
	return r, nil
}

// validate checks a submission against the domain rules and resolves the
// referenced tags and ingredients. requireImage distinguishes create (image
// mandatory) from update (empty image keeps the stored file).
func (s *RecipeService) validate(ctx context.Context, in RecipeInput, requireImage bool) ([]domain.Tag, []domain.Quantity, error) {
	minTime := s.MinCookingTime
	if minTime < 1 {
		minTime = 1
	}
	minAmount := s.MinIngredientAmount
	if minAmount < 1 {
		minAmount = 1
	}

	if in.CookingTime < minTime {
		return nil, nil, ErrBadCookingTime
	}
	if requireImage && in.Image == "" {
		return nil, nil, ErrBadImage
	}
	if len(in.TagIDs) == 0 {
		return nil, nil, ErrNoTags
	}
	if len(in.TagIDs) != len(uniqueIDs(in.TagIDs)) {
		return nil, nil, ErrDuplicateTag
	}
	if len(in.Ingredients) == 0 {
		return nil, nil, ErrNoIngredients
	}

	seen := make(map[uint]struct{}, len(in.Ingredients))
	ingredientIDs := make([]uint, 0, len(in.Ingredients))
	for _, line := range in.Ingredients {
		if _, dup := seen[line.ID]; dup {
			return nil, nil, ErrDuplicateIngredient
		}
		seen[line.ID] = struct{}{}
		if line.Amount < minAmount {
			return nil, nil, ErrBadAmount
		}
		ingredientIDs = append(ingredientIDs, line.ID)
	}

	tags, err := repo.GetTagsByIDs(ctx, s.DB, in.TagIDs)
	if err != nil {
		return nil, nil, err
	}
	if len(tags) != len(in.TagIDs) {
		return nil, nil, ErrUnknownTag
	}
	ingredients, err := repo.GetIngredientsByIDs(ctx, s.DB, ingredientIDs)
	if err != nil {
		return nil, nil, err
	}
	if len(ingredients) != len(ingredientIDs) {
		return nil, nil, ErrUnknownIngredient
	}

	lines := make([]domain.Quantity, 0, len(in.Ingredients))
	for _, line := range in.Ingredients {
		lines = append(lines, domain.Quantity{IngredientID: line.ID, Amount: line.Amount})
	}
	return tags, lines, nil
}

// uniqueIDs deduplicates an id slice preserving order.
func uniqueIDs(ids []uint) []uint {
	seen := make(map[uint]struct{}, len(ids))
	out := make([]uint, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
