// Recipe HTTP handlers.
//
// This file exposes REST endpoints for recipe resources and the per-user
// relations attached to them:
//   - GET    /recipes                         (list, filtered + paginated, ETag support)
//   - POST   /recipes                         (create, idempotency-key aware)
//   - GET    /recipes/{id}
//   - PATCH  /recipes/{id}
//   - DELETE /recipes/{id}
//   - POST   /recipes/{id}/favorite           DELETE to remove
//   - POST   /recipes/{id}/shopping_cart      DELETE to remove
//   - GET    /recipes/download_shopping_cart  (aggregated text export)
//
// Handlers are transport-thin: they validate input, call application services,
// and translate results into HTTP responses (including conditional responses).
package handlers

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-recipe-backend/internal/http/middleware"
	"github.com/tbourn/go-recipe-backend/internal/repo"
	"github.com/tbourn/go-recipe-backend/internal/services"
)

// ListRecipesResponse is the paginated envelope for recipe listings.
type ListRecipesResponse struct {
	Count   int64                   `json:"count"`
	Results []services.RecipeDetail `json:"results"`
}

// recipeFilter builds the repository filter from query parameters. The
// viewer-relative flags (is_favorited, is_in_shopping_cart) only apply when
// an authenticated viewer is present; anonymous requests ignore them.
func recipeFilter(c *gin.Context, viewer *uint) repo.RecipeFilter {
	var f repo.RecipeFilter
	if raw := c.Query("author"); raw != "" {
		if id, err := strconv.ParseUint(raw, 10, 64); err == nil && id > 0 {
			aid := uint(id)
			f.AuthorID = &aid
		}
	}
	if tags := c.QueryArray("tags"); len(tags) > 0 {
		f.TagSlugs = tags
	}
	if viewer != nil {
		if v := c.Query("is_favorited"); v == "1" || v == "true" {
			f.FavoritedBy = viewer
		}
		if v := c.Query("is_in_shopping_cart"); v == "1" || v == "true" {
			f.InCartOf = viewer
		}
	}
	return f
}

// recipeInputMessage maps recipe validation errors to client-facing messages.
// Unknown errors return "" so callers can fall through to 500 handling.
func recipeInputMessage(err error) string {
	switch err {
	case services.ErrNoTags:
		return "at least one tag is required"
	case services.ErrUnknownTag:
		return "unknown tag id"
	case services.ErrDuplicateTag:
		return "duplicate tag in recipe"
	case services.ErrNoIngredients:
		return "at least one ingredient is required"
	case services.ErrUnknownIngredient:
		return "unknown ingredient id"
	case services.ErrDuplicateIngredient:
		return "duplicate ingredient in recipe"
	case services.ErrBadAmount:
		return "ingredient amount is below the minimum"
	case services.ErrBadCookingTime:
		return "cooking time is below the minimum"
	case services.ErrBadImage:
		return "image must be a valid base64 data URI"
	}
	return ""
}

// ListRecipes godoc
// @ID          listRecipes
// @Summary     List recipes (filtered, paginated)
// @Description Newest first. Supports author/tags filters for everyone and is_favorited/is_in_shopping_cart for authenticated viewers. Supports weak ETag via If-None-Match and may return 304.
// @Tags        Recipes
// @Produce     json
//
// @Param       If-None-Match        header  string  false "Return 304 if ETag matches"  example(W/\"abc123\")
// @Param       page                 query   int     false "Page number"      minimum(1) default(1)
// @Param       limit                query   int     false "Items per page"   minimum(1) maximum(100) default(6)
// @Param       author               query   int     false "Filter by author id"
// @Param       tags                 query   []string false "Filter by tag slugs (repeatable)" collectionFormat(multi)
// @Param       is_favorited         query   int     false "Only the viewer's favorites (1)"
// @Param       is_in_shopping_cart  query   int     false "Only the viewer's cart (1)"
//
// @Success     200  {object} handlers.ListRecipesResponse
// @Header      200  {string} ETag "Weak ETag for current result"
// @Success     304  {string} string "Not Modified"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /recipes [get]
func (h *Handlers) ListRecipes(c *gin.Context) {
	ctx := c.Request.Context()
	viewer := currentUser(c)
	page, pageSize := clampPagination(c)

	// ETag pre-check (best effort). Only meaningful for unfiltered anonymous
	// reads, but harmless otherwise since the tag covers the whole table.
	if count, maxTS, err := h.recipeSvc.Stats(ctx); err == nil {
		var ts int64
		if !maxTS.IsZero() {
			ts = maxTS.Unix()
		}
		etag := fmt.Sprintf(`W/"recipes:%d:%d"`, count, ts)
		c.Header("ETag", etag)
		if inm := c.GetHeader("If-None-Match"); inm != "" && inm == etag {
			c.Status(http.StatusNotModified)
			return
		}
	}

	items, total, err := h.recipeSvc.List(ctx, viewer, recipeFilter(c, viewer), page, pageSize)
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeListFailed, err.Error())
		return
	}
	ok(c, http.StatusOK, ListRecipesResponse{Count: total, Results: items})
}

// GetRecipe godoc
// @ID          getRecipe
// @Summary     Recipe by id
// @Tags        Recipes
// @Produce     json
//
// @Param       id  path  int  true  "Recipe ID"
//
// @Success     200  {object} services.RecipeDetail
// @Failure     404  {object} handlers.ErrorResponse "Recipe not found"
// @Router      /recipes/{id} [get]
func (h *Handlers) GetRecipe(c *gin.Context) {
	id, okID := pathID(c)
	if !okID {
		return
	}
	detail, err := h.recipeSvc.Get(c.Request.Context(), currentUser(c), id)
	if err != nil {
		if err == services.ErrRecipeNotFound {
			fail(c, http.StatusNotFound, ErrCodeNotFound, "recipe not found")
			return
		}
		fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		return
	}
	ok(c, http.StatusOK, detail)
}

// CreateRecipe godoc
// @ID          createRecipe
// @Summary     Create a recipe
// @Description Decodes the base64 image, validates tags/ingredients, and stores the recipe. Safe to retry with an Idempotency-Key header: a replay returns the original recipe with 200.
// @Tags        Recipes
// @Accept      json
// @Produce     json
// @Security    BearerAuth
//
// @Param       Idempotency-Key  header  string  false "Client-generated key to dedupe retries"
// @Param       body             body    services.RecipeInput  true  "Recipe payload"
//
// @Success     201  {object} services.RecipeDetail
// @Success     200  {object} services.RecipeDetail "Idempotent replay"
// @Failure     400  {object} handlers.ErrorResponse "Invalid payload"
// @Failure     401  {object} handlers.ErrorResponse "Unauthorized"
// @Router      /recipes [post]
func (h *Handlers) CreateRecipe(c *gin.Context) {
	uid, authed := requireUser(c)
	if !authed {
		return
	}
	var in services.RecipeInput
	if err := c.ShouldBindJSON(&in); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid recipe payload")
		return
	}
	idemKey, _ := middleware.GetIdempotencyKey(c)

	detail, replayed, err := h.recipeSvc.Create(c.Request.Context(), uid, in, idemKey)
	if err != nil {
		if msg := recipeInputMessage(err); msg != "" {
			fail(c, http.StatusBadRequest, ErrCodeBadRequest, msg)
			return
		}
		fail(c, http.StatusInternalServerError, ErrCodeCreateFailed, err.Error())
		return
	}
	status := http.StatusCreated
	if replayed {
		status = http.StatusOK
	}
	ok(c, status, detail)
}

// UpdateRecipe godoc
// @ID          updateRecipe
// @Summary     Update a recipe
// @Description Replaces the recipe fields, tags, and ingredient lines. Only the author (or staff) may update. Omitting image keeps the stored one.
// @Tags        Recipes
// @Accept      json
// @Produce     json
// @Security    BearerAuth
//
// @Param       id    path  int                   true  "Recipe ID"
// @Param       body  body  services.RecipeInput  true  "Recipe payload"
//
// @Success     200  {object} services.RecipeDetail
// @Failure     400  {object} handlers.ErrorResponse "Invalid payload"
// @Failure     401  {object} handlers.ErrorResponse "Unauthorized"
// @Failure     403  {object} handlers.ErrorResponse "Not the author"
// @Failure     404  {object} handlers.ErrorResponse "Recipe not found"
// @Router      /recipes/{id} [patch]
func (h *Handlers) UpdateRecipe(c *gin.Context) {
	uid, authed := requireUser(c)
	if !authed {
		return
	}
	id, okID := pathID(c)
	if !okID {
		return
	}
	var in services.RecipeInput
	if err := c.ShouldBindJSON(&in); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid recipe payload")
		return
	}

	detail, err := h.recipeSvc.Update(c.Request.Context(), uid, id, in)
	if err != nil {
		switch err {
		case services.ErrRecipeNotFound:
			fail(c, http.StatusNotFound, ErrCodeNotFound, "recipe not found")
		case services.ErrForbidden:
			fail(c, http.StatusForbidden, ErrCodeForbidden, "only the author can modify this recipe")
		default:
			if msg := recipeInputMessage(err); msg != "" {
				fail(c, http.StatusBadRequest, ErrCodeBadRequest, msg)
				return
			}
			fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		}
		return
	}
	ok(c, http.StatusOK, detail)
}

// DeleteRecipe godoc
// @ID          deleteRecipe
// @Summary     Delete a recipe
// @Tags        Recipes
// @Security    BearerAuth
//
// @Param       id  path  int  true  "Recipe ID"
//
// @Success     204  {string} string "No Content"
// @Failure     401  {object} handlers.ErrorResponse "Unauthorized"
// @Failure     403  {object} handlers.ErrorResponse "Not the author"
// @Failure     404  {object} handlers.ErrorResponse "Recipe not found"
// @Router      /recipes/{id} [delete]
func (h *Handlers) DeleteRecipe(c *gin.Context) {
	uid, authed := requireUser(c)
	if !authed {
		return
	}
	id, okID := pathID(c)
	if !okID {
		return
	}
	if err := h.recipeSvc.Delete(c.Request.Context(), uid, id); err != nil {
		switch err {
		case services.ErrRecipeNotFound:
			fail(c, http.StatusNotFound, ErrCodeNotFound, "recipe not found")
		case services.ErrForbidden:
			fail(c, http.StatusForbidden, ErrCodeForbidden, "only the author can delete this recipe")
		default:
			fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		}
		return
	}
	noContent(c)
}

//
// Favorites & shopping cart
//

// markRecipe is the shared add-relation flow: resolve the recipe, create the
// edge, answer 201 with the short card. Duplicate adds are a client error
// with the user-facing message the mobile apps expect.
func (h *Handlers) markRecipe(
	c *gin.Context,
	add func(c *gin.Context, userID, recipeID uint) (*services.RecipeSummary, error),
	dupErr error,
) {
	uid, authed := requireUser(c)
	if !authed {
		return
	}
	id, okID := pathID(c)
	if !okID {
		return
	}
	summary, err := add(c, uid, id)
	if err != nil {
		switch err {
		case services.ErrRecipeNotFound:
			fail(c, http.StatusNotFound, ErrCodeNotFound, "recipe not found")
		case dupErr:
			fail(c, http.StatusBadRequest, ErrCodeBadRequest, "Вы уже добавили этот рецепт")
		default:
			fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		}
		return
	}
	ok(c, http.StatusCreated, summary)
}

// unmarkRecipe is the shared remove-relation flow; removing an absent edge is
// a client error.
func (h *Handlers) unmarkRecipe(
	c *gin.Context,
	remove func(c *gin.Context, userID, recipeID uint) error,
	missingErr error,
) {
	uid, authed := requireUser(c)
	if !authed {
		return
	}
	id, okID := pathID(c)
	if !okID {
		return
	}
	if err := remove(c, uid, id); err != nil {
		switch err {
		case services.ErrRecipeNotFound:
			fail(c, http.StatusNotFound, ErrCodeNotFound, "recipe not found")
		case missingErr:
			fail(c, http.StatusBadRequest, ErrCodeBadRequest, "Вы не добавляли этот рецепт")
		default:
			fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		}
		return
	}
	noContent(c)
}

// Favorite godoc
// @ID          favoriteRecipe
// @Summary     Add a recipe to favorites
// @Tags        Relations
// @Produce     json
// @Security    BearerAuth
//
// @Param       id  path  int  true  "Recipe ID"
//
// @Success     201  {object} services.RecipeSummary
// @Failure     400  {object} handlers.ErrorResponse "Already favorited"
// @Failure     401  {object} handlers.ErrorResponse "Unauthorized"
// @Failure     404  {object} handlers.ErrorResponse "Recipe not found"
// @Router      /recipes/{id}/favorite [post]
func (h *Handlers) Favorite(c *gin.Context) {
	h.markRecipe(c, func(gc *gin.Context, userID, recipeID uint) (*services.RecipeSummary, error) {
		return h.relSvc.AddFavorite(gc.Request.Context(), userID, recipeID)
	}, services.ErrAlreadyFavorited)
}

// Unfavorite godoc
// @ID          unfavoriteRecipe
// @Summary     Remove a recipe from favorites
// @Tags        Relations
// @Security    BearerAuth
//
// @Param       id  path  int  true  "Recipe ID"
//
// @Success     204  {string} string "No Content"
// @Failure     400  {object} handlers.ErrorResponse "Not favorited"
// @Failure     401  {object} handlers.ErrorResponse "Unauthorized"
// @Failure     404  {object} handlers.ErrorResponse "Recipe not found"
// @Router      /recipes/{id}/favorite [delete]
func (h *Handlers) Unfavorite(c *gin.Context) {
	h.unmarkRecipe(c, func(gc *gin.Context, userID, recipeID uint) error {
		return h.relSvc.RemoveFavorite(gc.Request.Context(), userID, recipeID)
	}, services.ErrNotFavorited)
}

// AddToCart godoc
// @ID          addRecipeToCart
// @Summary     Add a recipe to the shopping cart
// @Tags        Relations
// @Produce     json
// @Security    BearerAuth
//
// @Param       id  path  int  true  "Recipe ID"
//
// @Success     201  {object} services.RecipeSummary
// @Failure     400  {object} handlers.ErrorResponse "Already in cart"
// @Failure     401  {object} handlers.ErrorResponse "Unauthorized"
// @Failure     404  {object} handlers.ErrorResponse "Recipe not found"
// @Router      /recipes/{id}/shopping_cart [post]
func (h *Handlers) AddToCart(c *gin.Context) {
	h.markRecipe(c, func(gc *gin.Context, userID, recipeID uint) (*services.RecipeSummary, error) {
		return h.relSvc.AddToCart(gc.Request.Context(), userID, recipeID)
	}, services.ErrAlreadyInCart)
}

// RemoveFromCart godoc
// @ID          removeRecipeFromCart
// @Summary     Remove a recipe from the shopping cart
// @Tags        Relations
// @Security    BearerAuth
//
// @Param       id  path  int  true  "Recipe ID"
//
// @Success     204  {string} string "No Content"
// @Failure     400  {object} handlers.ErrorResponse "Not in cart"
// @Failure     401  {object} handlers.ErrorResponse "Unauthorized"
// @Failure     404  {object} handlers.ErrorResponse "Recipe not found"
// @Router      /recipes/{id}/shopping_cart [delete]
func (h *Handlers) RemoveFromCart(c *gin.Context) {
	h.unmarkRecipe(c, func(gc *gin.Context, userID, recipeID uint) error {
		return h.relSvc.RemoveFromCart(gc.Request.Context(), userID, recipeID)
	}, services.ErrNotInCart)
}

// DownloadShoppingCart godoc
// @ID          downloadShoppingCart
// @Summary     Download the aggregated shopping list
// @Description Sums ingredient amounts across every recipe in the cart and returns a plain-text file, one ingredient per line.
// @Tags        Relations
// @Produce     plain
// @Security    BearerAuth
//
// @Success     200  {string} string "Aggregated list"
// @Header      200  {string} Content-Disposition "attachment; filename=list.txt"
// @Failure     401  {object} handlers.ErrorResponse "Unauthorized"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /recipes/download_shopping_cart [get]
func (h *Handlers) DownloadShoppingCart(c *gin.Context) {
	uid, authed := requireUser(c)
	if !authed {
		return
	}
	list, err := h.relSvc.ShoppingList(c.Request.Context(), uid)
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", services.ShoppingListFilename))
	c.Data(http.StatusOK, "text/plain; charset=utf-8", []byte(list))
}
