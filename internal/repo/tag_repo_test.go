package repo

import (
	"context"
	"errors"
	"testing"

	"github.com/tbourn/go-recipe-backend/internal/domain"
)

func TestListTags_OrderedByID(t *testing.T) {
	db := newRepoDB(t, &domain.Tag{})
	for _, tag := range []domain.Tag{
		{Name: "Dinner", Color: "#00ff00", Slug: "dinner"},
		{Name: "Breakfast", Color: "#ff0000", Slug: "breakfast"},
	} {
		tag := tag
		if err := db.Create(&tag).Error; err != nil {
			t.Fatalf("seed tag: %v", err)
		}
	}

	got, err := ListTags(context.Background(), db)
	if err != nil {
		t.Fatalf("ListTags: %v", err)
	}
	if len(got) != 2 || got[0].Slug != "dinner" || got[1].Slug != "breakfast" {
		t.Fatalf("unexpected tags: %+v", got)
	}
}

func TestGetTag_AndByIDs(t *testing.T) {
	db := newRepoDB(t, &domain.Tag{})
	tag := domain.Tag{Name: "Dinner", Color: "#00ff00", Slug: "dinner"}
	if err := db.Create(&tag).Error; err != nil {
		t.Fatalf("seed tag: %v", err)
	}

	got, err := GetTag(context.Background(), db, tag.ID)
	if err != nil || got.Slug != "dinner" {
		t.Fatalf("GetTag: %+v err=%v", got, err)
	}
	if _, err := GetTag(context.Background(), db, 999); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	byIDs, err := GetTagsByIDs(context.Background(), db, []uint{tag.ID, 999})
	if err != nil || len(byIDs) != 1 || byIDs[0].ID != tag.ID {
		t.Fatalf("GetTagsByIDs: %+v err=%v", byIDs, err)
	}
	empty, err := GetTagsByIDs(context.Background(), db, nil)
	if err != nil || len(empty) != 0 {
		t.Fatalf("nil ids: %+v err=%v", empty, err)
	}
}
