package service

import (
	"context"
	"errors"
	"fmt"

	"event-site/internal/config"
	"event-site/internal/data"
	"event-site/internal/logger"
)

// ThemeRepository defines the storage operations the ThemeManager needs.
type ThemeRepository interface {
	List(ctx context.Context) ([]*data.Theme, error)
	GetByID(ctx context.Context, id int64) (*data.Theme, error)
	GetActive(ctx context.Context) (*data.Theme, error)
	SlugExists(ctx context.Context, slug string, excludeID int64) (bool, error)
	Create(ctx context.Context, theme *data.Theme, activate bool) error
	Update(ctx context.Context, theme *data.Theme, activate bool) error
	EnsureColors(ctx context.Context, themeID int64, defaults data.ThemeColors) (*data.ThemeColors, error)
	Activate(ctx context.Context, id int64) error
	Deactivate(ctx context.Context, id int64) error
	Delete(ctx context.Context, id int64) error
	Bootstrap(ctx context.Context, defaults []*data.Theme) (bool, error)
}

// Palette is the three-color set templates are rendered with.
type Palette struct {
	Primary   string `validate:"required,hexcolor,len=7"`
	Secondary string `validate:"required,hexcolor,len=7"`
	Accent    string `validate:"required,hexcolor,len=7"`
}

func paletteOf(c *data.ThemeColors) Palette {
	return Palette{Primary: c.Primary, Secondary: c.Secondary, Accent: c.Accent}
}

func (p Palette) colors(themeID int64) data.ThemeColors {
	return data.ThemeColors{ThemeID: themeID, Primary: p.Primary, Secondary: p.Secondary, Accent: p.Accent}
}

// ThemeInput is the editable part of a theme.
type ThemeInput struct {
	Name   string  `validate:"required,max=100"`
	Colors Palette `validate:"required"`
	Active bool
}

// ThemeManager owns theme activation and palette resolution.
type ThemeManager struct {
	repo     ThemeRepository
	defaults Palette
	log      logger.Logger
}

// NewThemeManager creates a ThemeManager whose fallback palette comes from cfg.
func NewThemeManager(repo ThemeRepository, cfg config.ThemeConfig, log logger.Logger) *ThemeManager {
	return &ThemeManager{
		repo: repo,
		defaults: Palette{
			Primary:   cfg.DefaultPrimary,
			Secondary: cfg.DefaultSecondary,
			Accent:    cfg.DefaultAccent,
		},
		log: log,
	}
}

// Defaults returns the configured fallback palette.
func (m *ThemeManager) Defaults() Palette {
	return m.defaults
}

// builtinThemes are seeded into an empty database; the first one is active.
func builtinThemes() []*data.Theme {
	return []*data.Theme{
		{Name: "Light", Slug: "light", Colors: &data.ThemeColors{Primary: "#ffffff", Secondary: "#333333", Accent: "#007bff"}},
		{Name: "Dark", Slug: "dark", Colors: &data.ThemeColors{Primary: "#333333", Secondary: "#ffffff", Accent: "#17a2b8"}},
	}
}

// Bootstrap seeds the built-in themes into an empty table, or activates the
// earliest theme when none is active.
func (m *ThemeManager) Bootstrap(ctx context.Context) error {
	seeded, err := m.repo.Bootstrap(ctx, builtinThemes())
	if err != nil {
		return fmt.Errorf("failed to initialize themes: %w", err)
	}
	if seeded {
		m.log.Info("Seeded default themes")
	}
	return nil
}

// ActiveColors returns the palette of the active theme. It is read from the
// database on every call so activation takes effect on the next request.
// Any failure falls back to the configured defaults.
func (m *ThemeManager) ActiveColors(ctx context.Context) Palette {
	theme, err := m.repo.GetActive(ctx)
	if err != nil {
		if errors.Is(err, data.ErrNotFound) {
			m.log.Warn("No active theme found, using default colors")
		} else {
			m.log.Error(err, "Failed to load active theme, using default colors")
		}
		return m.defaults
	}
	if theme.Colors != nil {
		return paletteOf(theme.Colors)
	}
	colors, err := m.EnsureColors(ctx, theme.ID, nil)
	if err != nil {
		m.log.Error(err, "Failed to create colors for active theme, using default colors")
		return m.defaults
	}
	return paletteOf(colors)
}

// ActiveTheme returns the active theme, or ErrNotFound.
func (m *ThemeManager) ActiveTheme(ctx context.Context) (*data.Theme, error) {
	return m.repo.GetActive(ctx)
}

// List returns all themes with their colors.
func (m *ThemeManager) List(ctx context.Context) ([]*data.Theme, error) {
	return m.repo.List(ctx)
}

// Get returns a single theme.
func (m *ThemeManager) Get(ctx context.Context, id int64) (*data.Theme, error) {
	return m.repo.GetByID(ctx, id)
}

// Activate makes id the only active theme.
func (m *ThemeManager) Activate(ctx context.Context, id int64) error {
	if err := m.repo.Activate(ctx, id); err != nil {
		m.logActivationFailure(err, id)
		return err
	}
	m.log.With(map[string]interface{}{"theme_id": id}).Info("Theme activated")
	return nil
}

func (m *ThemeManager) logActivationFailure(err error, id int64) {
	if errors.Is(err, ErrInconsistentTheme) {
		m.log.With(map[string]interface{}{"theme_id": id}).Error(err, "Theme activation rolled back")
	}
}

// Deactivate switches a theme off. The active theme cannot be switched off
// since that would leave the site without one.
func (m *ThemeManager) Deactivate(ctx context.Context, id int64) error {
	if err := m.repo.Deactivate(ctx, id); err != nil {
		if errors.Is(err, data.ErrSoleActiveTheme) {
			return invalid("Cannot deactivate the only active theme")
		}
		return err
	}
	return nil
}

// EnsureColors creates the colors row of a theme when it is missing, using
// supplied or else the defaults. An existing row is returned unchanged.
func (m *ThemeManager) EnsureColors(ctx context.Context, themeID int64, supplied *Palette) (*data.ThemeColors, error) {
	p := m.defaults
	if supplied != nil {
		if err := check(supplied); err != nil {
			return nil, err
		}
		p = *supplied
	}
	return m.repo.EnsureColors(ctx, themeID, p.colors(themeID))
}

// Create adds a custom theme. It becomes active when requested or when no
// theme is active yet.
func (m *ThemeManager) Create(ctx context.Context, in ThemeInput) (*data.Theme, error) {
	if err := check(in); err != nil {
		return nil, err
	}
	slug, err := uniqueSlug(ctx, in.Name, "theme", func(ctx context.Context, s string) (bool, error) {
		return m.repo.SlugExists(ctx, s, 0)
	})
	if err != nil {
		return nil, err
	}
	activate := in.Active
	if !activate {
		if _, err := m.repo.GetActive(ctx); errors.Is(err, data.ErrNotFound) {
			activate = true
		}
	}

	colors := in.Colors.colors(0)
	theme := &data.Theme{Name: in.Name, Slug: slug, IsCustom: true, Colors: &colors}
	if err := m.repo.Create(ctx, theme, activate); err != nil {
		m.logActivationFailure(err, 0)
		return nil, err
	}
	if activate {
		m.log.With(map[string]interface{}{"theme_id": theme.ID}).Info("Theme activated")
	}
	return theme, nil
}

// Update changes the name and colors of a theme and applies the requested
// activation state. Switching off the active theme is rejected before
// anything is written.
func (m *ThemeManager) Update(ctx context.Context, id int64, in ThemeInput) (*data.Theme, error) {
	if err := check(in); err != nil {
		return nil, err
	}
	theme, err := m.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if theme.IsActive && !in.Active {
		return nil, invalid("Cannot deactivate the only active theme")
	}

	if in.Name != theme.Name {
		slug, err := uniqueSlug(ctx, in.Name, "theme", func(ctx context.Context, s string) (bool, error) {
			return m.repo.SlugExists(ctx, s, id)
		})
		if err != nil {
			return nil, err
		}
		theme.Name, theme.Slug = in.Name, slug
	}
	colors := in.Colors.colors(id)
	theme.Colors = &colors

	activate := in.Active && !theme.IsActive
	if err := m.repo.Update(ctx, theme, activate); err != nil {
		m.logActivationFailure(err, id)
		return nil, err
	}
	if activate {
		m.log.With(map[string]interface{}{"theme_id": id}).Info("Theme activated")
	}
	return theme, nil
}

// Delete removes a theme. The active theme can only be removed when it is
// the last one.
func (m *ThemeManager) Delete(ctx context.Context, id int64) error {
	if err := m.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, data.ErrSoleActiveTheme) {
			return invalid("Activate another theme before deleting the active one")
		}
		return err
	}
	return nil
}
