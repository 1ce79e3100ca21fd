//go:build integration

package data_test

import (
	"context"
	"testing"

	"event-site/internal/data"
	"event-site/internal/data/datatest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func defaultThemes() []*data.Theme {
	return []*data.Theme{
		{Name: "Light Theme", Slug: "light", Colors: &data.ThemeColors{Primary: "#ffffff", Secondary: "#333333", Accent: "#007bff"}},
		{Name: "Dark Theme", Slug: "dark", Colors: &data.ThemeColors{Primary: "#333333", Secondary: "#ffffff", Accent: "#17a2b8"}},
	}
}

func activeIDs(t *testing.T, repo *data.ThemeRepository) []int64 {
	t.Helper()
	themes, err := repo.List(context.Background())
	require.NoError(t, err)
	var ids []int64
	for _, th := range themes {
		if th.IsActive {
			ids = append(ids, th.ID)
		}
	}
	return ids
}

func TestThemeRepository_BootstrapSeedsOnce(t *testing.T) {
	repo := data.NewThemeRepository(datatest.NewDB(t))
	ctx := context.Background()

	seeded, err := repo.Bootstrap(ctx, defaultThemes())
	require.NoError(t, err)
	assert.True(t, seeded)

	seeded, err = repo.Bootstrap(ctx, defaultThemes())
	require.NoError(t, err)
	assert.False(t, seeded)

	n, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	active, err := repo.GetActive(ctx)
	require.NoError(t, err)
	assert.Equal(t, "light", active.Slug)
	require.NotNil(t, active.Colors)
	assert.Equal(t, "#007bff", active.Colors.Accent)
}

func TestThemeRepository_BootstrapActivatesFirstWhenNoneActive(t *testing.T) {
	repo := data.NewThemeRepository(datatest.NewDB(t))
	ctx := context.Background()

	first := &data.Theme{Name: "Sand", Slug: "sand", IsCustom: true}
	second := &data.Theme{Name: "Sea", Slug: "sea", IsCustom: true}
	require.NoError(t, repo.Create(ctx, first, false))
	require.NoError(t, repo.Create(ctx, second, false))
	assert.Empty(t, activeIDs(t, repo))

	seeded, err := repo.Bootstrap(ctx, defaultThemes())
	require.NoError(t, err)
	assert.False(t, seeded)
	assert.Equal(t, []int64{first.ID}, activeIDs(t, repo))
}

func TestThemeRepository_ActivateKeepsExactlyOneActive(t *testing.T) {
	repo := data.NewThemeRepository(datatest.NewDB(t))
	ctx := context.Background()

	themes := defaultThemes()
	_, err := repo.Bootstrap(ctx, themes)
	require.NoError(t, err)
	third := &data.Theme{Name: "Forest", Slug: "forest", IsCustom: true}
	require.NoError(t, repo.Create(ctx, third, false))

	for _, id := range []int64{themes[1].ID, third.ID, third.ID, themes[0].ID, themes[1].ID} {
		require.NoError(t, repo.Activate(ctx, id))
		assert.Equal(t, []int64{id}, activeIDs(t, repo))
	}
}

func TestThemeRepository_ActivateUnknownTheme(t *testing.T) {
	repo := data.NewThemeRepository(datatest.NewDB(t))
	ctx := context.Background()

	themes := defaultThemes()
	_, err := repo.Bootstrap(ctx, themes)
	require.NoError(t, err)

	err = repo.Activate(ctx, 999)
	assert.ErrorIs(t, err, data.ErrNotFound)
	assert.Equal(t, []int64{themes[0].ID}, activeIDs(t, repo))
}

func TestThemeRepository_DeactivateSoleActiveIsRejected(t *testing.T) {
	repo := data.NewThemeRepository(datatest.NewDB(t))
	ctx := context.Background()

	themes := defaultThemes()
	_, err := repo.Bootstrap(ctx, themes)
	require.NoError(t, err)

	err = repo.Deactivate(ctx, themes[0].ID)
	assert.ErrorIs(t, err, data.ErrSoleActiveTheme)
	assert.Equal(t, []int64{themes[0].ID}, activeIDs(t, repo))

	// Deactivating an inactive theme changes nothing.
	require.NoError(t, repo.Deactivate(ctx, themes[1].ID))
	assert.Equal(t, []int64{themes[0].ID}, activeIDs(t, repo))

	assert.ErrorIs(t, repo.Deactivate(ctx, 999), data.ErrNotFound)
}

func TestThemeRepository_CreateAndUpdateCanActivate(t *testing.T) {
	repo := data.NewThemeRepository(datatest.NewDB(t))
	ctx := context.Background()

	themes := defaultThemes()
	_, err := repo.Bootstrap(ctx, themes)
	require.NoError(t, err)

	coral := &data.Theme{Name: "Coral", Slug: "coral", IsCustom: true,
		Colors: &data.ThemeColors{Primary: "#ff7f50", Secondary: "#333333", Accent: "#ffffff"}}
	require.NoError(t, repo.Create(ctx, coral, true))
	assert.True(t, coral.IsActive)
	assert.Equal(t, []int64{coral.ID}, activeIDs(t, repo))

	bare := &data.Theme{Name: "Bare", Slug: "bare", IsCustom: true}
	require.NoError(t, repo.Create(ctx, bare, false))
	bare.Colors = &data.ThemeColors{Primary: "#010101", Secondary: "#020202", Accent: "#030303"}
	require.NoError(t, repo.Update(ctx, bare, true))
	assert.Equal(t, []int64{bare.ID}, activeIDs(t, repo))

	got, err := repo.GetByID(ctx, bare.ID)
	require.NoError(t, err)
	require.NotNil(t, got.Colors)
	assert.Equal(t, bare.Colors.ID, got.Colors.ID)
	assert.Equal(t, "#030303", got.Colors.Accent)
}

func TestThemeRepository_EnsureColors(t *testing.T) {
	repo := data.NewThemeRepository(datatest.NewDB(t))
	ctx := context.Background()

	bare := &data.Theme{Name: "Bare", Slug: "bare", IsCustom: true}
	require.NoError(t, repo.Create(ctx, bare, false))

	defaults := data.ThemeColors{Primary: "#f8f5f2", Secondary: "#2c3e50", Accent: "#e67e22"}
	created, err := repo.EnsureColors(ctx, bare.ID, defaults)
	require.NoError(t, err)
	assert.Equal(t, bare.ID, created.ThemeID)
	assert.Equal(t, "#e67e22", created.Accent)

	// Existing colors are never replaced.
	again, err := repo.EnsureColors(ctx, bare.ID, data.ThemeColors{Primary: "#000000", Secondary: "#000000", Accent: "#000000"})
	require.NoError(t, err)
	assert.Equal(t, created.ID, again.ID)
	assert.Equal(t, "#e67e22", again.Accent)

	_, err = repo.EnsureColors(ctx, 999, defaults)
	assert.ErrorIs(t, err, data.ErrNotFound)
}

func TestThemeRepository_UpdateAndDelete(t *testing.T) {
	repo := data.NewThemeRepository(datatest.NewDB(t))
	ctx := context.Background()

	themes := defaultThemes()
	_, err := repo.Bootstrap(ctx, themes)
	require.NoError(t, err)

	dark := themes[1]
	dark.Name = "Midnight"
	dark.Colors.Accent = "#ff00aa"
	require.NoError(t, repo.Update(ctx, dark, false))

	got, err := repo.GetByID(ctx, dark.ID)
	require.NoError(t, err)
	assert.Equal(t, "Midnight", got.Name)
	assert.Equal(t, "#ff00aa", got.Colors.Accent)
	assert.False(t, got.IsActive)

	assert.ErrorIs(t, repo.Update(ctx, &data.Theme{ID: 999, Name: "Ghost", Slug: "ghost"}, false), data.ErrNotFound)

	assert.ErrorIs(t, repo.Delete(ctx, themes[0].ID), data.ErrSoleActiveTheme)
	require.NoError(t, repo.Delete(ctx, dark.ID))
	_, err = repo.GetColors(ctx, dark.ID)
	assert.ErrorIs(t, err, data.ErrNotFound)

	// The last remaining theme may go even while active.
	require.NoError(t, repo.Delete(ctx, themes[0].ID))
	n, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
}
