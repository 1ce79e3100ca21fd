//go:build integration

package data_test

import (
	"context"
	"errors"
	"testing"

	"event-site/internal/data"
	"event-site/internal/data/datatest"
)

// setupCategoryTest creates a migrated in-memory database and a CategoryRepository for testing.
func setupCategoryTest(t *testing.T) *data.CategoryRepository {
	t.Helper()
	return data.NewCategoryRepository(datatest.NewDB(t))
}

func TestCategoryRepository_Save(t *testing.T) {
	repo := setupCategoryTest(t)

	category := &data.Category{Name: "Weddings", Slug: "weddings"}
	id, err := repo.Save(context.Background(), category)
	if err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if id == 0 {
		t.Error("expected non-zero id")
	}
	if category.ID != id {
		t.Errorf("expected category.ID to be set to %d, got %d", id, category.ID)
	}
}

func TestCategoryRepository_SaveDuplicateName(t *testing.T) {
	repo := setupCategoryTest(t)
	ctx := context.Background()

	if _, err := repo.Save(ctx, &data.Category{Name: "Corporate", Slug: "corporate"}); err != nil {
		t.Fatal(err)
	}
	if _, err := repo.Save(ctx, &data.Category{Name: "Corporate", Slug: "corporate-2"}); err == nil {
		t.Error("expected unique constraint error for duplicate name")
	}
}

func TestCategoryRepository_FindByName(t *testing.T) {
	repo := setupCategoryTest(t)
	ctx := context.Background()

	if _, err := repo.Save(ctx, &data.Category{Name: "Galas", Slug: "galas"}); err != nil {
		t.Fatal(err)
	}

	found, err := repo.FindByName(ctx, "Galas")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if found.Slug != "galas" {
		t.Errorf("expected slug 'galas', got '%s'", found.Slug)
	}

	// Test not found
	_, err = repo.FindByName(ctx, "Birthdays")
	if !errors.Is(err, data.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestCategoryRepository_GetBySlugAndID(t *testing.T) {
	repo := setupCategoryTest(t)
	ctx := context.Background()

	id, err := repo.Save(ctx, &data.Category{Name: "Concerts", Slug: "concerts", Description: "Live music"})
	if err != nil {
		t.Fatal(err)
	}

	bySlug, err := repo.GetBySlug(ctx, "concerts")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if bySlug.ID != id {
		t.Errorf("expected id %d, got %d", id, bySlug.ID)
	}

	byID, err := repo.GetByID(ctx, id)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if byID.Description != "Live music" {
		t.Errorf("expected description 'Live music', got '%s'", byID.Description)
	}

	if _, err := repo.GetByID(ctx, 999); !errors.Is(err, data.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestCategoryRepository_GetAllOrdersBySequence(t *testing.T) {
	repo := setupCategoryTest(t)
	ctx := context.Background()

	for _, c := range []*data.Category{
		{Name: "Books", Slug: "books", Sequence: 2},
		{Name: "Music", Slug: "music", Sequence: 1},
	} {
		if _, err := repo.Save(ctx, c); err != nil {
			t.Fatal(err)
		}
	}

	categories, err := repo.GetAll(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(categories) != 2 {
		t.Fatalf("expected 2 categories, got %d", len(categories))
	}
	if categories[0].Name != "Music" {
		t.Errorf("expected 'Music' first, got '%s'", categories[0].Name)
	}
}

func TestCategoryRepository_SearchByName(t *testing.T) {
	repo := setupCategoryTest(t)
	ctx := context.Background()

	for _, name := range []string{"Private Parties", "Corporate Parties", "Weddings"} {
		if _, err := repo.Save(ctx, &data.Category{Name: name, Slug: name}); err != nil {
			t.Fatal(err)
		}
	}

	results, err := repo.SearchByName(ctx, "Parties")
	if err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if len(results) != 2 {
		t.Errorf("expected 2 results, got %d", len(results))
	}
}

func TestCategoryRepository_UpdateDeleteAndSlugExists(t *testing.T) {
	repo := setupCategoryTest(t)
	ctx := context.Background()

	category := &data.Category{Name: "Festivals", Slug: "festivals"}
	if _, err := repo.Save(ctx, category); err != nil {
		t.Fatal(err)
	}

	exists, err := repo.SlugExists(ctx, "festivals", category.ID)
	if err != nil || exists {
		t.Errorf("slug should not collide with its own row: exists=%v err=%v", exists, err)
	}
	exists, err = repo.SlugExists(ctx, "festivals", 0)
	if err != nil || !exists {
		t.Errorf("expected slug to exist: exists=%v err=%v", exists, err)
	}

	category.Name = "Street Festivals"
	category.Slug = "street-festivals"
	if err := repo.Update(ctx, category); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := repo.Delete(ctx, category.ID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := repo.Delete(ctx, category.ID); !errors.Is(err, data.ErrNotFound) {
		t.Errorf("expected ErrNotFound on second delete, got %v", err)
	}
}
