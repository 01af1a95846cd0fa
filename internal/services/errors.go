// Package services defines the business logic for accounts, recipes,
// catalog data, and the per-user relations (favorites, cart, follows).
// This file centralizes common service-level error values so that they can be
// consistently returned by service methods and checked by callers.
//
// These errors are intended for internal use by the service layer and translation
// into user-facing messages or HTTP status codes should be performed at the
// handler/controller layer.
package services

import "errors"

// Account-related errors.
var (
	// ErrUserNotFound indicates that the requested user does not exist.
	ErrUserNotFound = errors.New("user not found")

	// ErrEmailTaken is returned on registration when the email is already in use.
	ErrEmailTaken = errors.New("email already registered")

	// ErrUsernameTaken is returned on registration when the username is already
	// in use or is one of the reserved route words.
	ErrUsernameTaken = errors.New("username not available")

	// ErrInvalidUsername is returned when the username contains characters
	// outside the allowed set.
	ErrInvalidUsername = errors.New("username contains invalid characters")

	// ErrInvalidCredentials is returned by Login for a wrong email/password
	// pair. Deliberately indistinguishable between the two cases.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrWrongPassword is returned by ChangePassword when the supplied current
	// password does not match.
	ErrWrongPassword = errors.New("current password is incorrect")
)

// Follow-related errors.
var (
	// ErrSelfFollow is returned when a user attempts to subscribe to themselves.
	ErrSelfFollow = errors.New("cannot subscribe to yourself")

	// ErrAlreadyFollowing is returned on a duplicate subscribe attempt.
	ErrAlreadyFollowing = errors.New("already subscribed to this user")

	// ErrNotFollowing is returned when unsubscribing without a subscription.
	ErrNotFollowing = errors.New("not subscribed to this user")
)

// Recipe-related errors.
var (
	// ErrRecipeNotFound indicates that the requested recipe does not exist.
	ErrRecipeNotFound = errors.New("recipe not found")

	// ErrForbidden is returned when a non-author, non-staff user attempts to
	// modify or delete a recipe.
	ErrForbidden = errors.New("not allowed to modify this recipe")

	// ErrNoIngredients is returned when a recipe submission carries no
	// ingredient lines.
	ErrNoIngredients = errors.New("recipe needs at least one ingredient")

	// ErrNoTags is returned when a recipe submission carries no tags.
	ErrNoTags = errors.New("recipe needs at least one tag")

	// ErrDuplicateIngredient is returned when the same ingredient id appears
	// more than once in a submission.
	ErrDuplicateIngredient = errors.New("duplicate ingredient in recipe")

	// ErrDuplicateTag is returned when the same tag id appears more than once
	// in a submission.
	ErrDuplicateTag = errors.New("duplicate tag in recipe")

	// ErrUnknownIngredient is returned when a submitted ingredient id does not
	// exist in the catalog.
	ErrUnknownIngredient = errors.New("unknown ingredient")

	// ErrUnknownTag is returned when a submitted tag id does not exist.
	ErrUnknownTag = errors.New("unknown tag")

	// ErrBadAmount is returned when an ingredient amount is below the
	// configured minimum.
	ErrBadAmount = errors.New("ingredient amount below minimum")

	// ErrBadCookingTime is returned when cooking time is below the configured
	// minimum.
	ErrBadCookingTime = errors.New("cooking time below minimum")

	// ErrBadImage is returned when the submitted image is not a valid base64
	// data URI of a supported type.
	ErrBadImage = errors.New("invalid recipe image")
)

// Favorite / cart errors.
var (
	// ErrAlreadyFavorited is returned on a duplicate favorite attempt.
	ErrAlreadyFavorited = errors.New("recipe already in favorites")

	// ErrNotFavorited is returned when removing a favorite that does not exist.
	ErrNotFavorited = errors.New("recipe not in favorites")

	// ErrAlreadyInCart is returned on a duplicate cart add.
	ErrAlreadyInCart = errors.New("recipe already in shopping cart")

	// ErrNotInCart is returned when removing a cart row that does not exist.
	ErrNotInCart = errors.New("recipe not in shopping cart")
)
