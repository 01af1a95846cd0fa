package handlers

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-recipe-backend/internal/domain"
	"github.com/tbourn/go-recipe-backend/internal/repo"
	"github.com/tbourn/go-recipe-backend/internal/services"
)

// ---- stubs to satisfy handlers.New() dependencies ----
//
// Each stub forwards to an optional function field so individual tests can
// observe arguments and inject errors without a shared mock framework.

type stubUserSvc struct {
	register       func(ctx context.Context, email, username, firstName, lastName, password string) (*domain.User, error)
	login          func(ctx context.Context, email, password string) (*domain.User, error)
	changePassword func(ctx context.Context, userID uint, current, next string) error
	getProfile     func(ctx context.Context, id uint, viewer *uint) (*services.UserProfile, error)
	listProfiles   func(ctx context.Context, viewer *uint, page, pageSize int) ([]services.UserProfile, int64, error)
	subscribe      func(ctx context.Context, userID, authorID uint, recipesLimit int) (*services.SubscriptionEntry, error)
	unsubscribe    func(ctx context.Context, userID, authorID uint) error
	subscriptions  func(ctx context.Context, userID uint, page, pageSize, recipesLimit int) ([]services.SubscriptionEntry, int64, error)
}

func (s stubUserSvc) Register(ctx context.Context, email, username, firstName, lastName, password string) (*domain.User, error) {
	if s.register != nil {
		return s.register(ctx, email, username, firstName, lastName, password)
	}
	return &domain.User{ID: 1, Email: email, Username: username}, nil
}

func (s stubUserSvc) Login(ctx context.Context, email, password string) (*domain.User, error) {
	if s.login != nil {
		return s.login(ctx, email, password)
	}
	return &domain.User{ID: 1, Email: email}, nil
}

func (s stubUserSvc) ChangePassword(ctx context.Context, userID uint, current, next string) error {
	if s.changePassword != nil {
		return s.changePassword(ctx, userID, current, next)
	}
	return nil
}

func (s stubUserSvc) GetProfile(ctx context.Context, id uint, viewer *uint) (*services.UserProfile, error) {
	if s.getProfile != nil {
		return s.getProfile(ctx, id, viewer)
	}
	return &services.UserProfile{ID: id}, nil
}

func (s stubUserSvc) ListProfiles(ctx context.Context, viewer *uint, page, pageSize int) ([]services.UserProfile, int64, error) {
	if s.listProfiles != nil {
		return s.listProfiles(ctx, viewer, page, pageSize)
	}
	return nil, 0, nil
}

func (s stubUserSvc) Subscribe(ctx context.Context, userID, authorID uint, recipesLimit int) (*services.SubscriptionEntry, error) {
	if s.subscribe != nil {
		return s.subscribe(ctx, userID, authorID, recipesLimit)
	}
	return &services.SubscriptionEntry{}, nil
}

func (s stubUserSvc) Unsubscribe(ctx context.Context, userID, authorID uint) error {
	if s.unsubscribe != nil {
		return s.unsubscribe(ctx, userID, authorID)
	}
	return nil
}

func (s stubUserSvc) Subscriptions(ctx context.Context, userID uint, page, pageSize, recipesLimit int) ([]services.SubscriptionEntry, int64, error) {
	if s.subscriptions != nil {
		return s.subscriptions(ctx, userID, page, pageSize, recipesLimit)
	}
	return nil, 0, nil
}

type stubCatalogSvc struct {
	listTags          func(ctx context.Context) ([]domain.Tag, error)
	getTag            func(ctx context.Context, id uint) (*domain.Tag, error)
	searchIngredients func(ctx context.Context, query string) ([]domain.Ingredient, error)
	getIngredient     func(ctx context.Context, id uint) (*domain.Ingredient, error)
}

func (s stubCatalogSvc) ListTags(ctx context.Context) ([]domain.Tag, error) {
	if s.listTags != nil {
		return s.listTags(ctx)
	}
	return nil, nil
}

func (s stubCatalogSvc) GetTag(ctx context.Context, id uint) (*domain.Tag, error) {
	if s.getTag != nil {
		return s.getTag(ctx, id)
	}
	return &domain.Tag{ID: id}, nil
}

func (s stubCatalogSvc) SearchIngredients(ctx context.Context, query string) ([]domain.Ingredient, error) {
	if s.searchIngredients != nil {
		return s.searchIngredients(ctx, query)
	}
	return nil, nil
}

func (s stubCatalogSvc) GetIngredient(ctx context.Context, id uint) (*domain.Ingredient, error) {
	if s.getIngredient != nil {
		return s.getIngredient(ctx, id)
	}
	return &domain.Ingredient{ID: id}, nil
}

type stubRecipeSvc struct {
	list   func(ctx context.Context, viewer *uint, f repo.RecipeFilter, page, pageSize int) ([]services.RecipeDetail, int64, error)
	get    func(ctx context.Context, viewer *uint, id uint) (*services.RecipeDetail, error)
	create func(ctx context.Context, authorID uint, in services.RecipeInput, idemKey string) (*services.RecipeDetail, bool, error)
	update func(ctx context.Context, actorID, recipeID uint, in services.RecipeInput) (*services.RecipeDetail, error)
	delete func(ctx context.Context, actorID, recipeID uint) error
	stats  func(ctx context.Context) (int64, time.Time, error)
}

func (s stubRecipeSvc) List(ctx context.Context, viewer *uint, f repo.RecipeFilter, page, pageSize int) ([]services.RecipeDetail, int64, error) {
	if s.list != nil {
		return s.list(ctx, viewer, f, page, pageSize)
	}
	return nil, 0, nil
}

func (s stubRecipeSvc) Get(ctx context.Context, viewer *uint, id uint) (*services.RecipeDetail, error) {
	if s.get != nil {
		return s.get(ctx, viewer, id)
	}
	return &services.RecipeDetail{ID: id}, nil
}

func (s stubRecipeSvc) Create(ctx context.Context, authorID uint, in services.RecipeInput, idemKey string) (*services.RecipeDetail, bool, error) {
	if s.create != nil {
		return s.create(ctx, authorID, in, idemKey)
	}
	return &services.RecipeDetail{ID: 1}, false, nil
}

func (s stubRecipeSvc) Update(ctx context.Context, actorID, recipeID uint, in services.RecipeInput) (*services.RecipeDetail, error) {
	if s.update != nil {
		return s.update(ctx, actorID, recipeID, in)
	}
	return &services.RecipeDetail{ID: recipeID}, nil
}

func (s stubRecipeSvc) Delete(ctx context.Context, actorID, recipeID uint) error {
	if s.delete != nil {
		return s.delete(ctx, actorID, recipeID)
	}
	return nil
}

func (s stubRecipeSvc) Stats(ctx context.Context) (int64, time.Time, error) {
	if s.stats != nil {
		return s.stats(ctx)
	}
	return 0, time.Time{}, nil
}

type stubRelSvc struct {
	addFavorite    func(ctx context.Context, userID, recipeID uint) (*services.RecipeSummary, error)
	removeFavorite func(ctx context.Context, userID, recipeID uint) error
	addToCart      func(ctx context.Context, userID, recipeID uint) (*services.RecipeSummary, error)
	removeFromCart func(ctx context.Context, userID, recipeID uint) error
	shoppingList   func(ctx context.Context, userID uint) (string, error)
}

func (s stubRelSvc) AddFavorite(ctx context.Context, userID, recipeID uint) (*services.RecipeSummary, error) {
	if s.addFavorite != nil {
		return s.addFavorite(ctx, userID, recipeID)
	}
	return &services.RecipeSummary{ID: recipeID}, nil
}

func (s stubRelSvc) RemoveFavorite(ctx context.Context, userID, recipeID uint) error {
	if s.removeFavorite != nil {
		return s.removeFavorite(ctx, userID, recipeID)
	}
	return nil
}

func (s stubRelSvc) AddToCart(ctx context.Context, userID, recipeID uint) (*services.RecipeSummary, error) {
	if s.addToCart != nil {
		return s.addToCart(ctx, userID, recipeID)
	}
	return &services.RecipeSummary{ID: recipeID}, nil
}

func (s stubRelSvc) RemoveFromCart(ctx context.Context, userID, recipeID uint) error {
	if s.removeFromCart != nil {
		return s.removeFromCart(ctx, userID, recipeID)
	}
	return nil
}

func (s stubRelSvc) ShoppingList(ctx context.Context, userID uint) (string, error) {
	if s.shoppingList != nil {
		return s.shoppingList(ctx, userID)
	}
	return "", nil
}

type stubTokens struct {
	issue func(userID uint) (string, error)
}

func (s stubTokens) Issue(userID uint) (string, error) {
	if s.issue != nil {
		return s.issue(userID)
	}
	return "token", nil
}

// ---- harness helpers ----

// asUser injects an authenticated identity the way the auth middleware does.
func asUser(id uint) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set("userID", id)
		c.Next()
	}
}

func perform(t *testing.T, r *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	w := httptest.NewRecorder()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, bytes.NewBufferString(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	r.ServeHTTP(w, req)
	return w
}
