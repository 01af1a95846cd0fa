// Package services – UserService
//
// This file implements UserService, the application-level component that owns
// account registration, credential checks, password changes, public profile
// reads, and the follow graph (subscribe, unsubscribe, subscription listing).
// Service-level errors (e.g. ErrEmailTaken, ErrInvalidCredentials,
// ErrSelfFollow, ErrAlreadyFollowing) are returned for predictable cases so
// handlers can map them to HTTP results consistently.
package services

import (
	"context"
	"errors"
	"regexp"
	"strings"

	"gorm.io/gorm"

	"github.com/tbourn/go-recipe-backend/internal/auth"
	"github.com/tbourn/go-recipe-backend/internal/domain"
	"github.com/tbourn/go-recipe-backend/internal/repo"
)

// usernameRE is the allowed username alphabet: word characters plus ".@+-".
var usernameRE = regexp.MustCompile(`^[\w.@+-]+$`)

// reservedUsernames are route words that would collide with /users/ paths.
var reservedUsernames = map[string]struct{}{
	"me":            {},
	"set_password":  {},
	"subscriptions": {},
	"admin":         {},
}

// UserService implements the use-cases around accounts and subscriptions.
type UserService struct {
	// DB is the database handle used for all account operations.
	DB *gorm.DB

	// MediaURL is the public prefix joined with recipe image filenames when
	// rendering the recipe cards inside subscription entries.
	MediaURL string
}

// Register creates a new account with a bcrypt-hashed password.
//
// Validation:
//   - username must match the allowed alphabet; otherwise ErrInvalidUsername.
//   - username must not be a reserved route word; otherwise ErrUsernameTaken.
//   - email and username must be unused; otherwise ErrEmailTaken /
//     ErrUsernameTaken.
func (s *UserService) Register(ctx context.Context, email, username, firstName, lastName, password string) (*domain.User, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	username = strings.TrimSpace(username)

	if !usernameRE.MatchString(username) {
		return nil, ErrInvalidUsername
	}
	if _, reserved := reservedUsernames[strings.ToLower(username)]; reserved {
		return nil, ErrUsernameTaken
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return nil, err
	}
	u := &domain.User{
		Email:     email,
		Username:  username,
		FirstName: firstName,
		LastName:  lastName,
		Password:  hash,
	}
	if err := repo.CreateUser(ctx, s.DB, u); err != nil {
		if errors.Is(err, repo.ErrDuplicate) {
			// Disambiguate which unique index fired for a precise message.
			if _, lookErr := repo.GetUserByEmail(ctx, s.DB, email); lookErr == nil {
				return nil, ErrEmailTaken
			}
			return nil, ErrUsernameTaken
		}
		return nil, err
	}
	return u, nil
}

// Login verifies an email/password pair and returns the account.
// Both unknown email and wrong password collapse into ErrInvalidCredentials.
func (s *UserService) Login(ctx context.Context, email, password string) (*domain.User, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	u, err := repo.GetUserByEmail(ctx, s.DB, email)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if !auth.CheckPassword(u.Password, password) {
		return nil, ErrInvalidCredentials
	}
	return u, nil
}

// ChangePassword swaps the stored hash after verifying the current password.
func (s *UserService) ChangePassword(ctx context.Context, userID uint, current, next string) error {
	u, err := repo.GetUser(ctx, s.DB, userID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return ErrUserNotFound
		}
		return err
	}
	if !auth.CheckPassword(u.Password, current) {
		return ErrWrongPassword
	}
	hash, err := auth.HashPassword(next)
	if err != nil {
		return err
	}
	return repo.UpdateUserPassword(ctx, s.DB, userID, hash)
}

// GetProfile returns the public profile of a user. The is_subscribed flag is
// relative to the viewer; a nil viewer (anonymous) always sees false.
func (s *UserService) GetProfile(ctx context.Context, id uint, viewer *uint) (*UserProfile, error) {
	u, err := repo.GetUser(ctx, s.DB, id)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	subscribed := false
	if viewer != nil {
		subscribed, err = repo.FollowExists(ctx, s.DB, *viewer, id)
		if err != nil {
			return nil, err
		}
	}
	p := NewUserProfile(*u, subscribed)
	return &p, nil
}

// ListProfiles returns a page of public profiles ordered by username, with
// the viewer-relative is_subscribed flag resolved in one batch query.
func (s *UserService) ListProfiles(ctx context.Context, viewer *uint, page, pageSize int) ([]UserProfile, int64, error) {
	page, pageSize = normalizePage(page, pageSize)

	total, err := repo.CountUsers(ctx, s.DB)
	if err != nil {
		return nil, 0, err
	}
	users, err := repo.ListUsersPage(ctx, s.DB, (page-1)*pageSize, pageSize)
	if err != nil {
		return nil, 0, err
	}

	ids := make([]uint, len(users))
	for i, u := range users {
		ids[i] = u.ID
	}
	following, err := repo.FollowingIDs(ctx, s.DB, viewer, ids)
	if err != nil {
		return nil, 0, err
	}

	out := make([]UserProfile, 0, len(users))
	for _, u := range users {
		out = append(out, NewUserProfile(u, following[u.ID]))
	}
	return out, total, nil
}

// Subscribe adds a follow edge from userID to authorID and returns the
// resulting subscription entry (profile + the author's newest recipes).
//
// Semantics:
//   - authorID must exist; otherwise ErrUserNotFound.
//   - userID == authorID is rejected with ErrSelfFollow.
//   - A duplicate subscription yields ErrAlreadyFollowing.
func (s *UserService) Subscribe(ctx context.Context, userID, authorID uint, recipesLimit int) (*SubscriptionEntry, error) {
	if userID == authorID {
		return nil, ErrSelfFollow
	}
	author, err := repo.GetUser(ctx, s.DB, authorID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	if err := repo.CreateFollow(ctx, s.DB, userID, authorID); err != nil {
		if errors.Is(err, repo.ErrDuplicate) {
			return nil, ErrAlreadyFollowing
		}
		return nil, err
	}
	return s.subscriptionEntry(ctx, *author, recipesLimit)
}

// Unsubscribe removes the follow edge from userID to authorID.
// Missing author yields ErrUserNotFound; missing edge yields ErrNotFollowing.
func (s *UserService) Unsubscribe(ctx context.Context, userID, authorID uint) error {
	if _, err := repo.GetUser(ctx, s.DB, authorID); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return ErrUserNotFound
		}
		return err
	}
	if err := repo.DeleteFollow(ctx, s.DB, userID, authorID); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return ErrNotFollowing
		}
		return err
	}
	return nil
}

// Subscriptions returns a page of the authors userID follows, newest follow
// first, each with up to recipesLimit of their newest recipes
// (recipesLimit <= 0 means all).
func (s *UserService) Subscriptions(ctx context.Context, userID uint, page, pageSize, recipesLimit int) ([]SubscriptionEntry, int64, error) {
	page, pageSize = normalizePage(page, pageSize)

	total, err := repo.CountFollowedAuthors(ctx, s.DB, userID)
	if err != nil {
		return nil, 0, err
	}
	authors, err := repo.ListFollowedAuthors(ctx, s.DB, userID, (page-1)*pageSize, pageSize)
	if err != nil {
		return nil, 0, err
	}

	out := make([]SubscriptionEntry, 0, len(authors))
	for _, a := range authors {
		entry, err := s.subscriptionEntry(ctx, a, recipesLimit)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, *entry)
	}
	return out, total, nil
}

// subscriptionEntry assembles one subscription row. The entry is always
// rendered from the follower's perspective, so is_subscribed is true.
func (s *UserService) subscriptionEntry(ctx context.Context, author domain.User, recipesLimit int) (*SubscriptionEntry, error) {
	recipes, err := repo.ListRecipesByAuthorLimited(ctx, s.DB, author.ID, recipesLimit)
	if err != nil {
		return nil, err
	}
	count, err := repo.CountRecipesByAuthor(ctx, s.DB, author.ID)
	if err != nil {
		return nil, err
	}
	cards := make([]RecipeSummary, 0, len(recipes))
	for _, r := range recipes {
		cards = append(cards, NewRecipeSummary(r, s.MediaURL))
	}
	return &SubscriptionEntry{
		UserProfile:  NewUserProfile(author, true),
		Recipes:      cards,
		RecipesCount: count,
	}, nil
}

// normalizePage clamps pagination parameters to sane values.
func normalizePage(page, pageSize int) (int, int) {
	if page < 1 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 6
	}
	return page, pageSize
}
