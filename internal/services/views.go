// Package services – view models
//
// This file defines the representation shapes returned by the service layer
// and serialized by the handlers: user profiles with the viewer-relative
// is_subscribed flag, compact and detailed recipe views, ingredient lines,
// and the subscription entries combining a profile with the author's newest
// recipes. Computed flags (is_subscribed, is_favorited, is_in_shopping_cart)
// are always false for anonymous viewers.
package services

import (
	"github.com/tbourn/go-recipe-backend/internal/domain"
)

// UserProfile is the public representation of an account.
type UserProfile struct {
	ID           uint   `json:"id"`
	Email        string `json:"email"`
	Username     string `json:"username"`
	FirstName    string `json:"first_name"`
	LastName     string `json:"last_name"`
	IsSubscribed bool   `json:"is_subscribed"`
}

// NewUserProfile builds a profile view; subscribed is viewer-relative.
func NewUserProfile(u domain.User, subscribed bool) UserProfile {
	return UserProfile{
		ID:           u.ID,
		Email:        u.Email,
		Username:     u.Username,
		FirstName:    u.FirstName,
		LastName:     u.LastName,
		IsSubscribed: subscribed,
	}
}

// IngredientLine is one ingredient of a recipe detail: catalog fields plus
// the recipe-specific amount.
type IngredientLine struct {
	ID              uint   `json:"id"`
	Name            string `json:"name"`
	MeasurementUnit string `json:"measurement_unit"`
	Amount          int    `json:"amount"`
}

// RecipeSummary is the compact recipe card used inside favorites, cart
// responses, and subscription entries.
type RecipeSummary struct {
	ID          uint   `json:"id"`
	Name        string `json:"name"`
	Image       string `json:"image"`
	CookingTime int    `json:"cooking_time"`
}

// NewRecipeSummary builds a compact card; mediaURL is the public prefix the
// stored image filename is joined with.
func NewRecipeSummary(r domain.Recipe, mediaURL string) RecipeSummary {
	return RecipeSummary{
		ID:          r.ID,
		Name:        r.Name,
		Image:       mediaURL + r.Image,
		CookingTime: r.CookingTime,
	}
}

// RecipeDetail is the full recipe representation: tags, author profile,
// ingredient lines with amounts, and the viewer-relative flags.
type RecipeDetail struct {
	ID               uint             `json:"id"`
	Tags             []domain.Tag     `json:"tags"`
	Author           UserProfile      `json:"author"`
	Ingredients      []IngredientLine `json:"ingredients"`
	IsFavorited      bool             `json:"is_favorited"`
	IsInShoppingCart bool             `json:"is_in_shopping_cart"`
	Name             string           `json:"name"`
	Image            string           `json:"image"`
	Text             string           `json:"text"`
	CookingTime      int              `json:"cooking_time"`
}

// newRecipeDetail assembles a detail view from a preloaded recipe and the
// viewer-relative flags. The recipe must have Author, Tags, and
// Quantities.Ingredient loaded.
func newRecipeDetail(r domain.Recipe, mediaURL string, subscribedToAuthor, favorited, inCart bool) RecipeDetail {
	lines := make([]IngredientLine, 0, len(r.Quantities))
	for _, q := range r.Quantities {
		lines = append(lines, IngredientLine{
			ID:              q.Ingredient.ID,
			Name:            q.Ingredient.Name,
			MeasurementUnit: q.Ingredient.MeasurementUnit,
			Amount:          q.Amount,
		})
	}
	tags := r.Tags
	if tags == nil {
		tags = []domain.Tag{}
	}
	return RecipeDetail{
		ID:               r.ID,
		Tags:             tags,
		Author:           NewUserProfile(r.Author, subscribedToAuthor),
		Ingredients:      lines,
		IsFavorited:      favorited,
		IsInShoppingCart: inCart,
		Name:             r.Name,
		Image:            mediaURL + r.Image,
		Text:             r.Text,
		CookingTime:      r.CookingTime,
	}
}

// SubscriptionEntry is one row of GET /users/subscriptions: the followed
// author's profile plus their newest recipes and total recipe count.
type SubscriptionEntry struct {
	UserProfile
	Recipes      []RecipeSummary `json:"recipes"`
	RecipesCount int64           `json:"recipes_count"`
}
