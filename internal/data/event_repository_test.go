//go:build integration

package data_test

import (
	"context"
	"testing"
	"time"

	"event-site/internal/data"
	"event-site/internal/data/datatest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedCategory(t *testing.T, repo *data.CategoryRepository, name, slug string) int64 {
	t.Helper()
	id, err := repo.Save(context.Background(), &data.Category{Name: name, Slug: slug})
	require.NoError(t, err)
	return id
}

func seq(v float64) *float64 { return &v }

func str(s string) *string { return &s }

func TestEventRepository_ListOrdering(t *testing.T) {
	db := datatest.NewDB(t)
	categories := data.NewCategoryRepository(db)
	events := data.NewEventRepository(db)
	ctx := context.Background()

	catID := seedCategory(t, categories, "Weddings", "weddings")
	t1 := time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)

	// Sequences [nil, 2.0, 1.0, nil] created at t1 < t2 < t3 < t4.
	fixtures := []struct {
		title string
		seq   *float64
	}{
		{"t1-null", nil},
		{"t2-two", seq(2.0)},
		{"t3-one", seq(1.0)},
		{"t4-null", nil},
	}
	for i, f := range fixtures {
		e := &data.Event{
			Title:      f.title,
			CategoryID: catID,
			CreatedAt:  t1.Add(time.Duration(i) * time.Hour),
			ImagePath:  str("uploads/images/" + f.title + ".png"),
			Sequence:   f.seq,
		}
		require.NoError(t, events.Create(ctx, e))
	}

	list, err := events.List(ctx, data.EventFilter{})
	require.NoError(t, err)

	titles := make([]string, len(list))
	for i, e := range list {
		titles[i] = e.Title
	}
	assert.Equal(t, []string{"t3-one", "t2-two", "t4-null", "t1-null"}, titles)
	assert.Equal(t, "Weddings", list[0].CategoryName)
	assert.Equal(t, "weddings", list[0].CategorySlug)
}

func TestEventRepository_ListFilters(t *testing.T) {
	db := datatest.NewDB(t)
	categories := data.NewCategoryRepository(db)
	events := data.NewEventRepository(db)
	ctx := context.Background()

	weddings := seedCategory(t, categories, "Weddings", "weddings")
	galas := seedCategory(t, categories, "Galas", "galas")
	now := time.Now().UTC()
	for i, e := range []*data.Event{
		{Title: "Garden wedding", CategoryID: weddings},
		{Title: "Beach wedding", CategoryID: weddings},
		{Title: "Charity gala", CategoryID: galas},
	} {
		e.CreatedAt = now.Add(time.Duration(i) * time.Minute)
		e.ImagePath = str("uploads/images/x.png")
		require.NoError(t, events.Create(ctx, e))
	}

	byCategory, err := events.List(ctx, data.EventFilter{CategorySlug: "galas"})
	require.NoError(t, err)
	require.Len(t, byCategory, 1)
	assert.Equal(t, "Charity gala", byCategory[0].Title)

	bySearch, err := events.List(ctx, data.EventFilter{Search: "wedding"})
	require.NoError(t, err)
	assert.Len(t, bySearch, 2)

	limited, err := events.List(ctx, data.EventFilter{Limit: 1})
	require.NoError(t, err)
	require.Len(t, limited, 1)
	assert.Equal(t, "Charity gala", limited[0].Title)
}

func TestEventRepository_UpdateSequencesSkipsUnknownIDs(t *testing.T) {
	db := datatest.NewDB(t)
	categories := data.NewCategoryRepository(db)
	events := data.NewEventRepository(db)
	ctx := context.Background()

	catID := seedCategory(t, categories, "Concerts", "concerts")
	first := &data.Event{Title: "one", CategoryID: catID, CreatedAt: time.Now().UTC(), ImagePath: str("uploads/images/1.png")}
	second := &data.Event{Title: "two", CategoryID: catID, CreatedAt: time.Now().UTC(), ImagePath: str("uploads/images/2.png")}
	require.NoError(t, events.Create(ctx, first))
	require.NoError(t, events.Create(ctx, second))

	updated, err := events.UpdateSequences(ctx, map[int64]float64{
		first.ID:  1.5,
		second.ID: 3.2,
		999:       9,
	})
	require.NoError(t, err)
	assert.Equal(t, 2, updated)

	got, err := events.GetByID(ctx, first.ID)
	require.NoError(t, err)
	require.NotNil(t, got.Sequence)
	assert.InDelta(t, 1.5, *got.Sequence, 1e-9)

	got, err = events.GetByID(ctx, second.ID)
	require.NoError(t, err)
	require.NotNil(t, got.Sequence)
	assert.InDelta(t, 3.2, *got.Sequence, 1e-9)
}

func TestEventRepository_ClearFilesAndDelete(t *testing.T) {
	db := datatest.NewDB(t)
	categories := data.NewCategoryRepository(db)
	events := data.NewEventRepository(db)
	ctx := context.Background()

	catID := seedCategory(t, categories, "Expos", "expos")
	e := &data.Event{
		Title:      "Trade expo",
		CategoryID: catID,
		CreatedAt:  time.Now().UTC(),
		ImagePath:  str("uploads/images/expo.png"),
		VideoPath:  str("uploads/videos/expo.mp4"),
	}
	require.NoError(t, events.Create(ctx, e))

	require.NoError(t, events.ClearVideo(ctx, e.ID))
	got, err := events.GetByID(ctx, e.ID)
	require.NoError(t, err)
	assert.Nil(t, got.VideoPath)
	require.NotNil(t, got.ImagePath)
	assert.Equal(t, "uploads/images/expo.png", *got.ImagePath)

	require.NoError(t, events.Delete(ctx, e.ID))
	_, err = events.GetByID(ctx, e.ID)
	assert.ErrorIs(t, err, data.ErrNotFound)
}

func TestEventRepository_CategoryInUseCannotBeDeleted(t *testing.T) {
	db := datatest.NewDB(t)
	categories := data.NewCategoryRepository(db)
	events := data.NewEventRepository(db)
	ctx := context.Background()

	catID := seedCategory(t, categories, "Launches", "launches")
	require.NoError(t, events.Create(ctx, &data.Event{
		Title: "Product launch", CategoryID: catID, CreatedAt: time.Now().UTC(), ImagePath: str("uploads/images/l.png"),
	}))

	n, err := categories.CountEvents(ctx, catID)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Error(t, categories.Delete(ctx, catID))
}
