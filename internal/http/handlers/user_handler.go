// User HTTP handlers.
//
// This file exposes REST endpoints for account resources:
//   - POST   /users                  (register)
//   - GET    /users                  (list, paginated)
//   - GET    /users/me               (current profile)
//   - GET    /users/{id}             (public profile)
//   - POST   /users/set_password     (change password)
//   - GET    /users/subscriptions    (followed authors, paginated)
//   - POST   /users/{id}/subscribe   (follow)
//   - DELETE /users/{id}/subscribe   (unfollow)
//
// Handlers are transport-thin: they validate input, call application services,
// and translate service errors into HTTP responses. Relation conflicts answer
// 400 with the user-facing messages the frontend displays verbatim.
package handlers

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-recipe-backend/internal/domain"
	"github.com/tbourn/go-recipe-backend/internal/repo"
	"github.com/tbourn/go-recipe-backend/internal/services"
	"github.com/tbourn/go-recipe-backend/internal/utils"
)

//
// Service contracts (context-aware)
//

// UserService defines account and follow-graph operations consumed by HTTP
// handlers. Implementations must honor the provided context.
type UserService interface {
	// Register creates a new account with a hashed password.
	Register(ctx context.Context, email, username, firstName, lastName, password string) (*domain.User, error)
	// Login verifies an email/password pair.
	Login(ctx context.Context, email, password string) (*domain.User, error)
	// ChangePassword swaps the stored hash after verifying the current password.
	ChangePassword(ctx context.Context, userID uint, current, next string) error
	// GetProfile returns a public profile with the viewer-relative flag.
	GetProfile(ctx context.Context, id uint, viewer *uint) (*services.UserProfile, error)
	// ListProfiles returns a page of public profiles and the total count.
	ListProfiles(ctx context.Context, viewer *uint, page, pageSize int) ([]services.UserProfile, int64, error)
	// Subscribe follows an author and returns the subscription entry.
	Subscribe(ctx context.Context, userID, authorID uint, recipesLimit int) (*services.SubscriptionEntry, error)
	// Unsubscribe removes a follow edge.
	Unsubscribe(ctx context.Context, userID, authorID uint) error
	// Subscriptions returns a page of followed authors and the total count.
	Subscriptions(ctx context.Context, userID uint, page, pageSize, recipesLimit int) ([]services.SubscriptionEntry, int64, error)
}

// CatalogService defines read access to tags and the ingredient catalog.
type CatalogService interface {
	ListTags(ctx context.Context) ([]domain.Tag, error)
	GetTag(ctx context.Context, id uint) (*domain.Tag, error)
	SearchIngredients(ctx context.Context, query string) ([]domain.Ingredient, error)
	GetIngredient(ctx context.Context, id uint) (*domain.Ingredient, error)
}

// RecipeService defines the recipe lifecycle operations consumed by HTTP
// handlers.
type RecipeService interface {
	List(ctx context.Context, viewer *uint, f repo.RecipeFilter, page, pageSize int) ([]services.RecipeDetail, int64, error)
	Get(ctx context.Context, viewer *uint, id uint) (*services.RecipeDetail, error)
	Create(ctx context.Context, authorID uint, in services.RecipeInput, idemKey string) (*services.RecipeDetail, bool, error)
	Update(ctx context.Context, actorID, recipeID uint, in services.RecipeInput) (*services.RecipeDetail, error)
	Delete(ctx context.Context, actorID, recipeID uint) error
	Stats(ctx context.Context) (int64, time.Time, error)
}

// RelationService defines favorites, shopping cart, and the list export.
type RelationService interface {
	AddFavorite(ctx context.Context, userID, recipeID uint) (*services.RecipeSummary, error)
	RemoveFavorite(ctx context.Context, userID, recipeID uint) error
	AddToCart(ctx context.Context, userID, recipeID uint) (*services.RecipeSummary, error)
	RemoveFromCart(ctx context.Context, userID, recipeID uint) error
	ShoppingList(ctx context.Context, userID uint) (string, error)
}

// TokenIssuer mints access tokens for authenticated accounts.
type TokenIssuer interface {
	Issue(userID uint) (string, error)
}

//
// Handler wiring
//

// Handlers groups the HTTP endpoints for accounts, catalog data, recipes,
// and relations. It depends on abstract service interfaces to keep transport
// concerns separate from business logic.
type Handlers struct {
	userSvc    UserService
	catalogSvc CatalogService
	recipeSvc  RecipeService
	relSvc     RelationService
	tokens     TokenIssuer
}

// New constructs a Handlers instance bound to the given services.
func New(userSvc UserService, catalogSvc CatalogService, recipeSvc RecipeService, relSvc RelationService, tokens TokenIssuer) *Handlers {
	return &Handlers{
		userSvc:    userSvc,
		catalogSvc: catalogSvc,
		recipeSvc:  recipeSvc,
		relSvc:     relSvc,
		tokens:     tokens,
	}
}

// currentUser returns the authenticated user id from Gin context (set by the
// auth middleware), or nil for anonymous requests.
func currentUser(c *gin.Context) *uint {
	if v, ok := c.Get("userID"); ok {
		if id, ok := v.(uint); ok && id != 0 {
			return &id
		}
	}
	return nil
}

// requireUser returns the authenticated user id or writes a 401 and reports
// false. Routes behind RequireAuth always pass, this is a safety net.
func requireUser(c *gin.Context) (uint, bool) {
	if id := currentUser(c); id != nil {
		return *id, true
	}
	fail(c, http.StatusUnauthorized, ErrCodeUnauthorized, "authentication required")
	return 0, false
}

// pathID parses the numeric id path parameter.
func pathID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		fail(c, http.StatusNotFound, ErrCodeNotFound, "resource not found")
		return 0, false
	}
	return uint(id), true
}

//
// DTOs
//

// RegisterRequest is the JSON payload for creating an account.
type RegisterRequest struct {
	Email     string `json:"email" binding:"required,email,max=254" example:"vpupkin@yandex.ru"`
	Username  string `json:"username" binding:"required,max=150" example:"vasya.pupkin"`
	FirstName string `json:"first_name" binding:"required,max=150" example:"Вася"`
	LastName  string `json:"last_name" binding:"required,max=150" example:"Пупкин"`
	Password  string `json:"password" binding:"required,min=8,max=150" example:"Qwerty123"`
}

// SetPasswordRequest is the JSON payload for changing the password.
type SetPasswordRequest struct {
	NewPassword     string `json:"new_password" binding:"required,min=8,max=150"`
	CurrentPassword string `json:"current_password" binding:"required"`
}

// ListUsersResponse wraps a page of profiles.
type ListUsersResponse struct {
	Count   int64                  `json:"count"`
	Results []services.UserProfile `json:"results"`
}

// ListSubscriptionsResponse wraps a page of subscription entries.
type ListSubscriptionsResponse struct {
	Count   int64                        `json:"count"`
	Results []services.SubscriptionEntry `json:"results"`
}

//
// Helpers
//

// clampPagination parses and bounds the page and limit query params.
func clampPagination(c *gin.Context) (page, pageSize int) {
	const (
		defaultPage  = 1
		defaultLimit = 6
		maxLimit     = 100
	)
	page = utils.AtoiDefault(c.Query("page"), defaultPage)
	if page < 1 {
		page = 1
	}
	pageSize = utils.AtoiDefault(c.Query("limit"), defaultLimit)
	if pageSize < 1 {
		pageSize = 1
	}
	if pageSize > maxLimit {
		pageSize = maxLimit
	}
	return
}

//
// Handlers
//

// Register godoc
// @ID          registerUser
// @Summary     Register a new account
// @Description Creates an account; username is pattern-validated and must not collide with reserved route words.
// @Tags        Users
// @Accept      json
// @Produce     json
//
// @Param       body  body  handlers.RegisterRequest  true  "Registration payload"
//
// @Success     201  {object}  services.UserProfile
// @Failure     400  {object}  handlers.ErrorResponse "Validation failed"
// @Failure     500  {object}  handlers.ErrorResponse "Internal error"
// @Router      /users [post]
func (h *Handlers) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid registration payload")
		return
	}

	u, err := h.userSvc.Register(c.Request.Context(), req.Email, req.Username, req.FirstName, req.LastName, req.Password)
	if err != nil {
		switch err {
		case services.ErrInvalidUsername:
			fail(c, http.StatusBadRequest, ErrCodeBadRequest, "username contains invalid characters")
		case services.ErrUsernameTaken:
			fail(c, http.StatusBadRequest, ErrCodeBadRequest, "username not available")
		case services.ErrEmailTaken:
			fail(c, http.StatusBadRequest, ErrCodeBadRequest, "email already registered")
		default:
			fail(c, http.StatusInternalServerError, ErrCodeCreateFailed, err.Error())
		}
		return
	}
	ok(c, http.StatusCreated, services.NewUserProfile(*u, false))
}

// ListUsers godoc
// @ID          listUsers
// @Summary     List user profiles (paginated)
// @Tags        Users
// @Produce     json
//
// @Param       page   query  int  false "Page number"     minimum(1) default(1)
// @Param       limit  query  int  false "Items per page"  minimum(1) maximum(100) default(6)
//
// @Success     200  {object}  handlers.ListUsersResponse
// @Failure     500  {object}  handlers.ErrorResponse "Internal error"
// @Router      /users [get]
func (h *Handlers) ListUsers(c *gin.Context) {
	page, pageSize := clampPagination(c)
	items, total, err := h.userSvc.ListProfiles(c.Request.Context(), currentUser(c), page, pageSize)
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeListFailed, err.Error())
		return
	}
	ok(c, http.StatusOK, ListUsersResponse{Count: total, Results: items})
}

// Me godoc
// @ID          currentUser
// @Summary     Current user's profile
// @Tags        Users
// @Produce     json
// @Security    BearerAuth
//
// @Success     200  {object}  services.UserProfile
// @Failure     401  {object}  handlers.ErrorResponse "Unauthorized"
// @Router      /users/me [get]
func (h *Handlers) Me(c *gin.Context) {
	uid, authed := requireUser(c)
	if !authed {
		return
	}
	p, err := h.userSvc.GetProfile(c.Request.Context(), uid, &uid)
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		return
	}
	ok(c, http.StatusOK, p)
}

// GetUser godoc
// @ID          getUser
// @Summary     Public profile by id
// @Tags        Users
// @Produce     json
//
// @Param       id  path  int  true  "User ID"
//
// @Success     200  {object}  services.UserProfile
// @Failure     404  {object}  handlers.ErrorResponse "User not found"
// @Router      /users/{id} [get]
func (h *Handlers) GetUser(c *gin.Context) {
	id, okID := pathID(c)
	if !okID {
		return
	}
	p, err := h.userSvc.GetProfile(c.Request.Context(), id, currentUser(c))
	if err != nil {
		if err == services.ErrUserNotFound {
			fail(c, http.StatusNotFound, ErrCodeNotFound, "user not found")
			return
		}
		fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		return
	}
	ok(c, http.StatusOK, p)
}

// SetPassword godoc
// @ID          setPassword
// @Summary     Change the current user's password
// @Tags        Users
// @Accept      json
// @Security    BearerAuth
//
// @Param       body  body  handlers.SetPasswordRequest  true  "Password change payload"
//
// @Success     204  {string} string "No Content"
// @Failure     400  {object} handlers.ErrorResponse "Wrong current password"
// @Failure     401  {object} handlers.ErrorResponse "Unauthorized"
// @Router      /users/set_password [post]
func (h *Handlers) SetPassword(c *gin.Context) {
	uid, authed := requireUser(c)
	if !authed {
		return
	}
	var req SetPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "new_password and current_password required")
		return
	}
	if err := h.userSvc.ChangePassword(c.Request.Context(), uid, req.CurrentPassword, req.NewPassword); err != nil {
		switch err {
		case services.ErrWrongPassword:
			fail(c, http.StatusBadRequest, ErrCodeBadRequest, "current password is incorrect")
		case services.ErrUserNotFound:
			fail(c, http.StatusUnauthorized, ErrCodeUnauthorized, "account no longer exists")
		default:
			fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		}
		return
	}
	noContent(c)
}

// Subscriptions godoc
// @ID          listSubscriptions
// @Summary     Followed authors with their newest recipes
// @Tags        Users
// @Produce     json
// @Security    BearerAuth
//
// @Param       page           query  int  false "Page number"                    minimum(1) default(1)
// @Param       limit          query  int  false "Items per page"                 minimum(1) maximum(100) default(6)
// @Param       recipes_limit  query  int  false "Max recipes per author (0=all)" minimum(0) default(0)
//
// @Success     200  {object} handlers.ListSubscriptionsResponse
// @Failure     401  {object} handlers.ErrorResponse "Unauthorized"
// @Router      /users/subscriptions [get]
func (h *Handlers) Subscriptions(c *gin.Context) {
	uid, authed := requireUser(c)
	if !authed {
		return
	}
	page, pageSize := clampPagination(c)
	recipesLimit := utils.AtoiDefault(c.Query("recipes_limit"), 0)

	items, total, err := h.userSvc.Subscriptions(c.Request.Context(), uid, page, pageSize, recipesLimit)
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeListFailed, err.Error())
		return
	}
	ok(c, http.StatusOK, ListSubscriptionsResponse{Count: total, Results: items})
}

// Subscribe godoc
// @ID          subscribe
// @Summary     Follow an author
// @Tags        Users
// @Produce     json
// @Security    BearerAuth
//
// @Param       id             path   int  true  "Author ID"
// @Param       recipes_limit  query  int  false "Max recipes in the response (0=all)"
//
// @Success     201  {object} services.SubscriptionEntry
// @Failure     400  {object} handlers.ErrorResponse "Self-follow or duplicate"
// @Failure     401  {object} handlers.ErrorResponse "Unauthorized"
// @Failure     404  {object} handlers.ErrorResponse "Author not found"
// @Router      /users/{id}/subscribe [post]
func (h *Handlers) Subscribe(c *gin.Context) {
	uid, authed := requireUser(c)
	if !authed {
		return
	}
	authorID, okID := pathID(c)
	if !okID {
		return
	}
	recipesLimit := utils.AtoiDefault(c.Query("recipes_limit"), 0)

	entry, err := h.userSvc.Subscribe(c.Request.Context(), uid, authorID, recipesLimit)
	if err != nil {
		switch err {
		case services.ErrUserNotFound:
			fail(c, http.StatusNotFound, ErrCodeNotFound, "user not found")
		case services.ErrSelfFollow:
			fail(c, http.StatusBadRequest, ErrCodeBadRequest, "Нельзя подписаться на самого себя")
		case services.ErrAlreadyFollowing:
			fail(c, http.StatusBadRequest, ErrCodeBadRequest, "Вы уже подписаны на этого пользователя")
		default:
			fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		}
		return
	}
	ok(c, http.StatusCreated, entry)
}

// Unsubscribe godoc
// @ID          unsubscribe
// @Summary     Unfollow an author
// @Tags        Users
// @Security    BearerAuth
//
// @Param       id  path  int  true  "Author ID"
//
// @Success     204  {string} string "No Content"
// @Failure     400  {object} handlers.ErrorResponse "Not subscribed"
// @Failure     401  {object} handlers.ErrorResponse "Unauthorized"
// @Failure     404  {object} handlers.ErrorResponse "Author not found"
// @Router      /users/{id}/subscribe [delete]
func (h *Handlers) Unsubscribe(c *gin.Context) {
	uid, authed := requireUser(c)
	if !authed {
		return
	}
	authorID, okID := pathID(c)
	if !okID {
		return
	}
	if err := h.userSvc.Unsubscribe(c.Request.Context(), uid, authorID); err != nil {
		switch err {
		case services.ErrUserNotFound:
			fail(c, http.StatusNotFound, ErrCodeNotFound, "user not found")
		case services.ErrNotFollowing:
			fail(c, http.StatusBadRequest, ErrCodeBadRequest, "Вы не подписаны на этого пользователя")
		default:
			fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		}
		return
	}
	noContent(c)
}
