package services

import (
	"context"
	"encoding/base64"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"gorm.io/gorm"

	"github.com/tbourn/go-recipe-backend/internal/domain"
	"github.com/tbourn/go-recipe-backend/internal/media"
	"github.com/tbourn/go-recipe-backend/internal/repo"
)

func testDataURI() string {
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString([]byte{0x89, 'P', 'N', 'G'})
}

func newRecipeService(t *testing.T, db *gorm.DB) *RecipeService {
	t.Helper()
	st, err := media.NewStore(filepath.Join(t.TempDir(), "media"))
	if err != nil {
		t.Fatalf("media store: %v", err)
	}
	return &RecipeService{
		DB:                  db,
		Media:               st,
		MediaURL:            "/media/",
		MinCookingTime:      1,
		MinIngredientAmount: 1,
		IdempotencyTTL:      time.Hour,
	}
}

// seedCatalog inserts one tag and two ingredients, returning their rows.
func seedCatalog(t *testing.T, db *gorm.DB) (domain.Tag, domain.Ingredient, domain.Ingredient) {
	t.Helper()
	tag := domain.Tag{Name: "Dinner", Color: "#00ff00", Slug: "dinner"}
	if err := db.Create(&tag).Error; err != nil {
		t.Fatalf("seed tag: %v", err)
	}
	salt := domain.Ingredient{Name: "Salt", MeasurementUnit: "g"}
	oil := domain.Ingredient{Name: "Oil", MeasurementUnit: "ml"}
	for _, ing := range []*domain.Ingredient{&salt, &oil} {
		if err := db.Create(ing).Error; err != nil {
			t.Fatalf("seed ingredient: %v", err)
		}
	}
	return tag, salt, oil
}

func validInput(tag domain.Tag, salt, oil domain.Ingredient) RecipeInput {
	return RecipeInput{
		Name:        "Soup",
		Text:        "Boil water, add salt and oil.",
		Image:       testDataURI(),
		CookingTime: 15,
		TagIDs:      []uint{tag.ID},
		Ingredients: []IngredientRef{
			{ID: salt.ID, Amount: 5},
			{ID: oil.ID, Amount: 30},
		},
	}
}

func TestRecipe_Create_Success(t *testing.T) {
	db := newTestDB(t)
	users := &UserService{DB: db}
	author := registerUser(t, users, "a@b.c", "alice")
	svc := newRecipeService(t, db)
	tag, salt, oil := seedCatalog(t, db)

	detail, replayed, err := svc.Create(context.Background(), author.ID, validInput(tag, salt, oil), "")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if replayed {
		t.Fatalf("fresh create must not be a replay")
	}
	if detail.ID == 0 || detail.Name != "Soup" || detail.CookingTime != 15 {
		t.Fatalf("unexpected detail: %+v", detail)
	}
	if detail.Author.Username != "alice" {
		t.Fatalf("author not rendered: %+v", detail.Author)
	}
	if len(detail.Tags) != 1 || detail.Tags[0].Slug != "dinner" {
		t.Fatalf("tags not rendered: %+v", detail.Tags)
	}
	if len(detail.Ingredients) != 2 {
		t.Fatalf("ingredient lines not rendered: %+v", detail.Ingredients)
	}
	if !strings.HasPrefix(detail.Image, "/media/") || !strings.HasSuffix(detail.Image, ".png") {
		t.Fatalf("unexpected image url %q", detail.Image)
	}

	// The decoded image actually landed in the media directory.
	name := strings.TrimPrefix(detail.Image, "/media/")
	if _, err := os.Stat(filepath.Join(svc.Media.Dir, name)); err != nil {
		t.Fatalf("stored image missing: %v", err)
	}
}

func TestRecipe_Create_Validation(t *testing.T) {
	db := newTestDB(t)
	users := &UserService{DB: db}
	author := registerUser(t, users, "a@b.c", "alice")
	svc := newRecipeService(t, db)
	svc.MinCookingTime = 5
	svc.MinIngredientAmount = 2
	tag, salt, oil := seedCatalog(t, db)

	cases := []struct {
		name   string
		mutate func(*RecipeInput)
		want   error
	}{
		{"cooking time below minimum", func(in *RecipeInput) { in.CookingTime = 4 }, ErrBadCookingTime},
		{"missing image", func(in *RecipeInput) { in.Image = "" }, ErrBadImage},
		{"undecodable image", func(in *RecipeInput) { in.Image = "data:image/png;base64,@@@" }, ErrBadImage},
		{"no tags", func(in *RecipeInput) { in.TagIDs = nil }, ErrNoTags},
		{"unknown tag", func(in *RecipeInput) { in.TagIDs = []uint{999} }, ErrUnknownTag},
		{"duplicate tag", func(in *RecipeInput) { in.TagIDs = []uint{tag.ID, tag.ID} }, ErrDuplicateTag},
		{"no ingredients", func(in *RecipeInput) { in.Ingredients = nil }, ErrNoIngredients},
		{"duplicate ingredient", func(in *RecipeInput) {
			in.Ingredients = []IngredientRef{{ID: salt.ID, Amount: 5}, {ID: salt.ID, Amount: 7}}
		}, ErrDuplicateIngredient},
		{"unknown ingredient", func(in *RecipeInput) {
			in.Ingredients = []IngredientRef{{ID: 999, Amount: 5}}
		}, ErrUnknownIngredient},
		{"amount below minimum", func(in *RecipeInput) {
			in.Ingredients = []IngredientRef{{ID: salt.ID, Amount: 1}}
		}, ErrBadAmount},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			in := validInput(tag, salt, oil)
			tc.mutate(&in)
			_, _, err := svc.Create(context.Background(), author.ID, in, "")
			if !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
		})
	}

	// Nothing got persisted by the failed attempts.
	var n int64
	db.Model(&domain.Recipe{}).Count(&n)
	if n != 0 {
		t.Fatalf("expected no recipes after failed creates, got %d", n)
	}
}

func TestRecipe_Create_IdempotentReplay(t *testing.T) {
	db := newTestDB(t)
	users := &UserService{DB: db}
	author := registerUser(t, users, "a@b.c", "alice")
	svc := newRecipeService(t, db)
	tag, salt, oil := seedCatalog(t, db)
	ctx := context.Background()

	first, replayed, err := svc.Create(ctx, author.ID, validInput(tag, salt, oil), "retry-key")
	if err != nil || replayed {
		t.Fatalf("first create: replayed=%v err=%v", replayed, err)
	}
	second, replayed, err := svc.Create(ctx, author.ID, validInput(tag, salt, oil), "retry-key")
	if err != nil {
		t.Fatalf("second create: %v", err)
	}
	if !replayed || second.ID != first.ID {
		t.Fatalf("expected replay of recipe %d, got replayed=%v id=%d", first.ID, replayed, second.ID)
	}
	var n int64
	db.Model(&domain.Recipe{}).Count(&n)
	if n != 1 {
		t.Fatalf("replay must not create a second recipe, got %d", n)
	}

	// A different key creates a new recipe.
	third, replayed, err := svc.Create(ctx, author.ID, validInput(tag, salt, oil), "other-key")
	if err != nil || replayed || third.ID == first.ID {
		t.Fatalf("different key: id=%d replayed=%v err=%v", third.ID, replayed, err)
	}
}

func TestRecipe_Update_OwnershipAndReplacement(t *testing.T) {
	db := newTestDB(t)
	users := &UserService{DB: db}
	author := registerUser(t, users, "a@b.c", "alice")
	stranger := registerUser(t, users, "b@b.c", "bob")
	staff := registerUser(t, users, "s@b.c", "moderator")
	if err := db.Model(&domain.User{}).Where("id = ?", staff.ID).Update("is_staff", true).Error; err != nil {
		t.Fatalf("promote staff: %v", err)
	}
	svc := newRecipeService(t, db)
	tag, salt, oil := seedCatalog(t, db)
	ctx := context.Background()

	created, _, err := svc.Create(ctx, author.ID, validInput(tag, salt, oil), "")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	upd := validInput(tag, salt, oil)
	upd.Name = "Better soup"
	upd.Image = "" // keep stored image
	upd.Ingredients = []IngredientRef{{ID: oil.ID, Amount: 40}}

	if _, err := svc.Update(ctx, stranger.ID, created.ID, upd); !errors.Is(err, ErrForbidden) {
		t.Fatalf("stranger update: expected ErrForbidden, got %v", err)
	}

	got, err := svc.Update(ctx, author.ID, created.ID, upd)
	if err != nil {
		t.Fatalf("author update: %v", err)
	}
	if got.Name != "Better soup" || got.Image != created.Image {
		t.Fatalf("update result: %+v", got)
	}
	if len(got.Ingredients) != 1 || got.Ingredients[0].Name != "Oil" || got.Ingredients[0].Amount != 40 {
		t.Fatalf("lines not replaced: %+v", got.Ingredients)
	}

	// Staff may update someone else's recipe.
	upd.Name = "Moderated soup"
	if _, err := svc.Update(ctx, staff.ID, created.ID, upd); err != nil {
		t.Fatalf("staff update: %v", err)
	}

	if _, err := svc.Update(ctx, author.ID, 999, upd); !errors.Is(err, ErrRecipeNotFound) {
		t.Fatalf("expected ErrRecipeNotFound, got %v", err)
	}
}

func TestRecipe_Delete(t *testing.T) {
	db := newTestDB(t)
	users := &UserService{DB: db}
	author := registerUser(t, users, "a@b.c", "alice")
	stranger := registerUser(t, users, "b@b.c", "bob")
	svc := newRecipeService(t, db)
	tag, salt, oil := seedCatalog(t, db)
	ctx := context.Background()

	created, _, err := svc.Create(ctx, author.ID, validInput(tag, salt, oil), "")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	if err := svc.Delete(ctx, stranger.ID, created.ID); !errors.Is(err, ErrForbidden) {
		t.Fatalf("stranger delete: expected ErrForbidden, got %v", err)
	}
	if err := svc.Delete(ctx, author.ID, created.ID); err != nil {
		t.Fatalf("author delete: %v", err)
	}
	if _, err := svc.Get(ctx, nil, created.ID); !errors.Is(err, ErrRecipeNotFound) {
		t.Fatalf("expected ErrRecipeNotFound after delete, got %v", err)
	}
	// Stored image removed with the recipe.
	name := strings.TrimPrefix(created.Image, "/media/")
	if _, err := os.Stat(filepath.Join(svc.Media.Dir, name)); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected image file removed, stat err=%v", err)
	}
	if err := svc.Delete(ctx, author.ID, created.ID); !errors.Is(err, ErrRecipeNotFound) {
		t.Fatalf("second delete: expected ErrRecipeNotFound, got %v", err)
	}
}

func TestRecipe_ListAndGet_ViewerFlags(t *testing.T) {
	db := newTestDB(t)
	users := &UserService{DB: db}
	author := registerUser(t, users, "a@b.c", "alice")
	viewer := registerUser(t, users, "b@b.c", "bob")
	svc := newRecipeService(t, db)
	rel := &RelationService{DB: db, MediaURL: "/media/"}
	tag, salt, oil := seedCatalog(t, db)
	ctx := context.Background()

	created, _, err := svc.Create(ctx, author.ID, validInput(tag, salt, oil), "")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, err := rel.AddFavorite(ctx, viewer.ID, created.ID); err != nil {
		t.Fatalf("AddFavorite: %v", err)
	}
	if _, err := (&UserService{DB: db}).Subscribe(ctx, viewer.ID, author.ID, 0); err != nil {
		t.Fatalf("Subscribe: %v", err)
	}

	list, total, err := svc.List(ctx, &viewer.ID, repo.RecipeFilter{}, 1, 10)
	if err != nil || total != 1 || len(list) != 1 {
		t.Fatalf("List: total=%d len=%d err=%v", total, len(list), err)
	}
	got := list[0]
	if !got.IsFavorited || got.IsInShoppingCart || !got.Author.IsSubscribed {
		t.Fatalf("viewer flags wrong: %+v", got)
	}

	// Anonymous listing: all flags false.
	anonList, _, err := svc.List(ctx, nil, repo.RecipeFilter{}, 1, 10)
	if err != nil {
		t.Fatalf("anonymous List: %v", err)
	}
	a := anonList[0]
	if a.IsFavorited || a.IsInShoppingCart || a.Author.IsSubscribed {
		t.Fatalf("anonymous flags must be false: %+v", a)
	}

	// Favorite filter narrows to the viewer's favorites.
	favList, total, err := svc.List(ctx, &viewer.ID, repo.RecipeFilter{FavoritedBy: &viewer.ID}, 1, 10)
	if err != nil || total != 1 || len(favList) != 1 {
		t.Fatalf("favorites filter: total=%d err=%v", total, err)
	}
	other, total, err := svc.List(ctx, &author.ID, repo.RecipeFilter{FavoritedBy: &author.ID}, 1, 10)
	if err != nil || total != 0 || len(other) != 0 {
		t.Fatalf("author has no favorites: total=%d err=%v", total, err)
	}
}
