package services

import (
	"context"
	"errors"
	"strings"
	"testing"
)

func TestRelation_Favorite_Lifecycle(t *testing.T) {
	db := newTestDB(t)
	users := &UserService{DB: db}
	author := registerUser(t, users, "a@b.c", "alice")
	svc := newRecipeService(t, db)
	rel := &RelationService{DB: db, MediaURL: "/media/"}
	tag, salt, oil := seedCatalog(t, db)
	ctx := context.Background()

	created, _, err := svc.Create(ctx, author.ID, validInput(tag, salt, oil), "")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	card, err := rel.AddFavorite(ctx, author.ID, created.ID)
	if err != nil {
		t.Fatalf("AddFavorite: %v", err)
	}
	if card.ID != created.ID || card.Name != "Soup" || !strings.HasPrefix(card.Image, "/media/") {
		t.Fatalf("unexpected card: %+v", card)
	}
	if _, err := rel.AddFavorite(ctx, author.ID, created.ID); !errors.Is(err, ErrAlreadyFavorited) {
		t.Fatalf("expected ErrAlreadyFavorited, got %v", err)
	}
	if _, err := rel.AddFavorite(ctx, author.ID, 999); !errors.Is(err, ErrRecipeNotFound) {
		t.Fatalf("expected ErrRecipeNotFound, got %v", err)
	}

	if err := rel.RemoveFavorite(ctx, author.ID, created.ID); err != nil {
		t.Fatalf("RemoveFavorite: %v", err)
	}
	if err := rel.RemoveFavorite(ctx, author.ID, created.ID); !errors.Is(err, ErrNotFavorited) {
		t.Fatalf("expected ErrNotFavorited, got %v", err)
	}
	if err := rel.RemoveFavorite(ctx, author.ID, 999); !errors.Is(err, ErrRecipeNotFound) {
		t.Fatalf("expected ErrRecipeNotFound, got %v", err)
	}
}

func TestRelation_Cart_Lifecycle(t *testing.T) {
	db := newTestDB(t)
	users := &UserService{DB: db}
	author := registerUser(t, users, "a@b.c", "alice")
	svc := newRecipeService(t, db)
	rel := &RelationService{DB: db, MediaURL: "/media/"}
	tag, salt, oil := seedCatalog(t, db)
	ctx := context.Background()

	created, _, err := svc.Create(ctx, author.ID, validInput(tag, salt, oil), "")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	if _, err := rel.AddToCart(ctx, author.ID, created.ID); err != nil {
		t.Fatalf("AddToCart: %v", err)
	}
	if _, err := rel.AddToCart(ctx, author.ID, created.ID); !errors.Is(err, ErrAlreadyInCart) {
		t.Fatalf("expected ErrAlreadyInCart, got %v", err)
	}
	if err := rel.RemoveFromCart(ctx, author.ID, created.ID); err != nil {
		t.Fatalf("RemoveFromCart: %v", err)
	}
	if err := rel.RemoveFromCart(ctx, author.ID, created.ID); !errors.Is(err, ErrNotInCart) {
		t.Fatalf("expected ErrNotInCart, got %v", err)
	}
}

func TestRelation_ShoppingList_AggregatesAndSorts(t *testing.T) {
	db := newTestDB(t)
	users := &UserService{DB: db}
	author := registerUser(t, users, "a@b.c", "alice")
	svc := newRecipeService(t, db)
	rel := &RelationService{DB: db, MediaURL: "/media/"}
	tag, salt, oil := seedCatalog(t, db)
	ctx := context.Background()

	// Two cart recipes sharing salt: 5 g + 10 g must merge into one line.
	first := validInput(tag, salt, oil)
	r1, _, err := svc.Create(ctx, author.ID, first, "")
	if err != nil {
		t.Fatalf("create r1: %v", err)
	}
	second := validInput(tag, salt, oil)
	second.Name = "Stew"
	second.Ingredients = []IngredientRef{{ID: salt.ID, Amount: 10}}
	r2, _, err := svc.Create(ctx, author.ID, second, "")
	if err != nil {
		t.Fatalf("create r2: %v", err)
	}
	for _, id := range []uint{r1.ID, r2.ID} {
		if _, err := rel.AddToCart(ctx, author.ID, id); err != nil {
			t.Fatalf("AddToCart: %v", err)
		}
	}

	text, err := rel.ShoppingList(ctx, author.ID)
	if err != nil {
		t.Fatalf("ShoppingList: %v", err)
	}
	lines := strings.Split(strings.TrimRight(text, "\n"), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %q", text)
	}
	// Collated alphabetical order: Oil before Salt.
	if lines[0] != "Oil\t30 ml" {
		t.Fatalf("line 0 = %q; want %q", lines[0], "Oil\t30 ml")
	}
	if lines[1] != "Salt\t15 g" {
		t.Fatalf("line 1 = %q; want %q", lines[1], "Salt\t15 g")
	}
}

func TestRelation_ShoppingList_EmptyCart(t *testing.T) {
	db := newTestDB(t)
	users := &UserService{DB: db}
	u := registerUser(t, users, "a@b.c", "alice")
	rel := &RelationService{DB: db}

	text, err := rel.ShoppingList(context.Background(), u.ID)
	if err != nil || text != "" {
		t.Fatalf("empty cart: text=%q err=%v", text, err)
	}
}
