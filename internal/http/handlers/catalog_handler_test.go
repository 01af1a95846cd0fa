package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-recipe-backend/internal/domain"
	"github.com/tbourn/go-recipe-backend/internal/services"
)

func TestListTags_ReturnsAll(t *testing.T) {
	gin.SetMode(gin.TestMode)

	catalog := stubCatalogSvc{listTags: func(context.Context) ([]domain.Tag, error) {
		return []domain.Tag{
			{ID: 1, Name: "Завтрак", Color: "#E26C2D", Slug: "breakfast"},
			{ID: 2, Name: "Обед", Color: "#49B64E", Slug: "lunch"},
		}, nil
	}}
	h := New(stubUserSvc{}, catalog, stubRecipeSvc{}, stubRelSvc{}, stubTokens{})

	r := gin.New()
	r.GET("/tags", h.ListTags)

	w := perform(t, r, http.MethodGet, "/tags", "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var tags []domain.Tag
	if err := json.Unmarshal(w.Body.Bytes(), &tags); err != nil {
		t.Fatalf("json: %v", err)
	}
	if len(tags) != 2 || tags[0].Slug != "breakfast" {
		t.Fatalf("unexpected tags: %+v", tags)
	}
}

func TestGetTag_NotFound404(t *testing.T) {
	gin.SetMode(gin.TestMode)

	catalog := stubCatalogSvc{getTag: func(context.Context, uint) (*domain.Tag, error) {
		return nil, services.ErrTagNotFound
	}}
	h := New(stubUserSvc{}, catalog, stubRecipeSvc{}, stubRelSvc{}, stubTokens{})

	r := gin.New()
	r.GET("/tags/:id", h.GetTag)

	w := perform(t, r, http.MethodGet, "/tags/99", "")
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", w.Code)
	}
}

func TestSearchIngredients_PassesQuery(t *testing.T) {
	gin.SetMode(gin.TestMode)

	catalog := stubCatalogSvc{searchIngredients: func(_ context.Context, query string) ([]domain.Ingredient, error) {
		if query != "карт" {
			t.Fatalf("query not passed through: %q", query)
		}
		return []domain.Ingredient{{ID: 1, Name: "картофель", MeasurementUnit: "г"}}, nil
	}}
	h := New(stubUserSvc{}, catalog, stubRecipeSvc{}, stubRelSvc{}, stubTokens{})

	r := gin.New()
	r.GET("/ingredients", h.SearchIngredients)

	w := perform(t, r, http.MethodGet, "/ingredients?name=%D0%BA%D0%B0%D1%80%D1%82", "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var found []domain.Ingredient
	if err := json.Unmarshal(w.Body.Bytes(), &found); err != nil {
		t.Fatalf("json: %v", err)
	}
	if len(found) != 1 || found[0].Name != "картофель" {
		t.Fatalf("unexpected ingredients: %+v", found)
	}
}

func TestGetIngredient_NotFound404(t *testing.T) {
	gin.SetMode(gin.TestMode)

	catalog := stubCatalogSvc{getIngredient: func(context.Context, uint) (*domain.Ingredient, error) {
		return nil, services.ErrIngredientNotFound
	}}
	h := New(stubUserSvc{}, catalog, stubRecipeSvc{}, stubRelSvc{}, stubTokens{})

	r := gin.New()
	r.GET("/ingredients/:id", h.GetIngredient)

	w := perform(t, r, http.MethodGet, "/ingredients/12345", "")
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", w.Code)
	}
}
