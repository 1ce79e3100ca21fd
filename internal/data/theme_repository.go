package data

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
)

var (
	// ErrInconsistentActiveTheme means an activation did not leave exactly
	// the requested theme active. The transaction is rolled back.
	ErrInconsistentActiveTheme = errors.New("active theme check failed")
	// ErrSoleActiveTheme is returned when an operation would leave no
	// active theme while themes exist.
	ErrSoleActiveTheme = errors.New("theme is the only active theme")
)

// ThemeRepository handles database operations for themes and their colors.
type ThemeRepository struct {
	db *sqlx.DB
}

// NewThemeRepository creates a new ThemeRepository.
func NewThemeRepository(db *sqlx.DB) *ThemeRepository {
	return &ThemeRepository{db: db}
}

const themeColumns = `id, name, slug, is_custom, is_active, created_at`
const colorColumns = `id, theme_id, primary_color, secondary_color, accent_color`

// Count returns the number of themes.
func (r *ThemeRepository) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.db.GetContext(ctx, &n, "SELECT COUNT(*) FROM themes"); err != nil {
		return 0, fmt.Errorf("failed to count themes: %w", err)
	}
	return n, nil
}

// List returns all themes in insertion order with their colors attached.
func (r *ThemeRepository) List(ctx context.Context) ([]*Theme, error) {
	themes := []*Theme{}
	if err := r.db.SelectContext(ctx, &themes, "SELECT "+themeColumns+" FROM themes ORDER BY id"); err != nil {
		return nil, fmt.Errorf("failed to list themes: %w", err)
	}
	var colors []*ThemeColors
	if err := r.db.SelectContext(ctx, &colors, "SELECT "+colorColumns+" FROM theme_colors"); err != nil {
		return nil, fmt.Errorf("failed to list theme colors: %w", err)
	}
	byTheme := make(map[int64]*ThemeColors, len(colors))
	for _, c := range colors {
		byTheme[c.ThemeID] = c
	}
	for _, t := range themes {
		t.Colors = byTheme[t.ID]
	}
	return themes, nil
}

// GetByID retrieves a theme and its colors, if any.
func (r *ThemeRepository) GetByID(ctx context.Context, id int64) (*Theme, error) {
	return r.getWithColors(ctx, "SELECT "+themeColumns+" FROM themes WHERE id = ?", id)
}

// GetActive retrieves the active theme and its colors.
func (r *ThemeRepository) GetActive(ctx context.Context) (*Theme, error) {
	return r.getWithColors(ctx, "SELECT "+themeColumns+" FROM themes WHERE is_active = 1 ORDER BY id LIMIT 1")
}

func (r *ThemeRepository) getWithColors(ctx context.Context, query string, args ...interface{}) (*Theme, error) {
	var theme Theme
	if err := r.db.GetContext(ctx, &theme, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get theme: %w", err)
	}
	colors, err := r.GetColors(ctx, theme.ID)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return nil, err
	}
	theme.Colors = colors
	return &theme, nil
}

// GetColors retrieves the colors row of a theme.
func (r *ThemeRepository) GetColors(ctx context.Context, themeID int64) (*ThemeColors, error) {
	var colors ThemeColors
	err := r.db.GetContext(ctx, &colors, "SELECT "+colorColumns+" FROM theme_colors WHERE theme_id = ?", themeID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get theme colors: %w", err)
	}
	return &colors, nil
}

// SlugExists reports whether slug is taken by a theme other than excludeID.
func (r *ThemeRepository) SlugExists(ctx context.Context, slug string, excludeID int64) (bool, error) {
	var n int
	if err := r.db.GetContext(ctx, &n, "SELECT COUNT(*) FROM themes WHERE slug = ? AND id <> ?", slug, excludeID); err != nil {
		return false, fmt.Errorf("failed to check theme slug: %w", err)
	}
	return n > 0, nil
}

// Create inserts a theme and, when theme.Colors is set, its colors. With
// activate set the new theme is made the only active one before commit, so a
// failed activation leaves no row behind.
func (r *ThemeRepository) Create(ctx context.Context, theme *Theme, activate bool) error {
	theme.IsActive = false
	err := WithTx(ctx, r.db, func(tx *sqlx.Tx) error {
		if err := insertTheme(ctx, tx, theme); err != nil {
			return err
		}
		if activate {
			return activateTheme(ctx, tx, theme.ID)
		}
		return nil
	})
	if err != nil {
		theme.ID = 0
		return err
	}
	theme.IsActive = activate
	return nil
}

func insertTheme(ctx context.Context, q Queryer, theme *Theme) error {
	if theme.CreatedAt.IsZero() {
		theme.CreatedAt = time.Now().UTC()
	}
	res, err := sqlx.NamedExecContext(ctx, q,
		"INSERT INTO themes (name, slug, is_custom, is_active, created_at) VALUES (:name, :slug, :is_custom, :is_active, :created_at)", theme)
	if err != nil {
		return fmt.Errorf("failed to insert theme: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to read theme id: %w", err)
	}
	theme.ID = id
	if theme.Colors != nil {
		theme.Colors.ThemeID = id
		if err := insertColors(ctx, q, theme.Colors); err != nil {
			return err
		}
	}
	return nil
}

func insertColors(ctx context.Context, q Queryer, colors *ThemeColors) error {
	res, err := sqlx.NamedExecContext(ctx, q,
		`INSERT INTO theme_colors (theme_id, primary_color, secondary_color, accent_color)
		VALUES (:theme_id, :primary_color, :secondary_color, :accent_color)`, colors)
	if err != nil {
		return fmt.Errorf("failed to insert theme colors: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to read theme colors id: %w", err)
	}
	colors.ID = id
	return nil
}

// Update writes the name and slug of a theme and, when theme.Colors is set,
// replaces its colors row or creates it if missing. With activate set the
// theme is also made the only active one. Everything commits together.
func (r *ThemeRepository) Update(ctx context.Context, theme *Theme, activate bool) error {
	err := WithTx(ctx, r.db, func(tx *sqlx.Tx) error {
		var n int
		if err := tx.GetContext(ctx, &n, "SELECT COUNT(*) FROM themes WHERE id = ?", theme.ID); err != nil {
			return fmt.Errorf("failed to check theme: %w", err)
		}
		if n == 0 {
			return ErrNotFound
		}
		if _, err := sqlx.NamedExecContext(ctx, tx, "UPDATE themes SET name = :name, slug = :slug WHERE id = :id", theme); err != nil {
			return fmt.Errorf("failed to update theme: %w", err)
		}
		if theme.Colors != nil {
			theme.Colors.ThemeID = theme.ID
			if err := saveColors(ctx, tx, theme.Colors); err != nil {
				return err
			}
		}
		if activate {
			return activateTheme(ctx, tx, theme.ID)
		}
		return nil
	})
	if err != nil {
		return err
	}
	if activate {
		theme.IsActive = true
	}
	return nil
}

func saveColors(ctx context.Context, q Queryer, colors *ThemeColors) error {
	var id int64
	err := sqlx.GetContext(ctx, q, &id, "SELECT id FROM theme_colors WHERE theme_id = ?", colors.ThemeID)
	if errors.Is(err, sql.ErrNoRows) {
		return insertColors(ctx, q, colors)
	}
	if err != nil {
		return fmt.Errorf("failed to get theme colors: %w", err)
	}
	colors.ID = id
	if _, err := sqlx.NamedExecContext(ctx, q,
		`UPDATE theme_colors SET primary_color = :primary_color, secondary_color = :secondary_color,
		accent_color = :accent_color WHERE id = :id`, colors); err != nil {
		return fmt.Errorf("failed to update theme colors: %w", err)
	}
	return nil
}

// EnsureColors inserts colors for themeID unless a row already exists, and
// returns the row that is stored afterwards.
func (r *ThemeRepository) EnsureColors(ctx context.Context, themeID int64, defaults ThemeColors) (*ThemeColors, error) {
	var stored ThemeColors
	err := WithTx(ctx, r.db, func(tx *sqlx.Tx) error {
		var n int
		if err := tx.GetContext(ctx, &n, "SELECT COUNT(*) FROM themes WHERE id = ?", themeID); err != nil {
			return fmt.Errorf("failed to check theme: %w", err)
		}
		if n == 0 {
			return ErrNotFound
		}
		err := tx.GetContext(ctx, &stored, "SELECT "+colorColumns+" FROM theme_colors WHERE theme_id = ?", themeID)
		if err == nil {
			return nil
		}
		if !errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("failed to get theme colors: %w", err)
		}
		stored = defaults
		stored.ThemeID = themeID
		return insertColors(ctx, tx, &stored)
	})
	if err != nil {
		return nil, err
	}
	return &stored, nil
}

// Activate makes id the only active theme. All rows are switched off and
// the target switched on in one transaction; if anything other than exactly
// that row is active afterwards, the transaction is rolled back with
// ErrInconsistentActiveTheme.
func (r *ThemeRepository) Activate(ctx context.Context, id int64) error {
	return WithTx(ctx, r.db, func(tx *sqlx.Tx) error {
		return activateTheme(ctx, tx, id)
	})
}

func activateTheme(ctx context.Context, q Queryer, id int64) error {
	var n int
	if err := sqlx.GetContext(ctx, q, &n, "SELECT COUNT(*) FROM themes WHERE id = ?", id); err != nil {
		return fmt.Errorf("failed to check theme: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	if _, err := q.ExecContext(ctx, "UPDATE themes SET is_active = 0"); err != nil {
		return fmt.Errorf("failed to clear active theme: %w", err)
	}
	if _, err := q.ExecContext(ctx, "UPDATE themes SET is_active = 1 WHERE id = ?", id); err != nil {
		return fmt.Errorf("failed to set active theme: %w", err)
	}

	var active []int64
	if err := sqlx.SelectContext(ctx, q, &active, "SELECT id FROM themes WHERE is_active = 1"); err != nil {
		return fmt.Errorf("failed to verify active theme: %w", err)
	}
	if len(active) != 1 || active[0] != id {
		return fmt.Errorf("%w: want theme %d active, found %v", ErrInconsistentActiveTheme, id, active)
	}
	return nil
}

// Deactivate switches a theme off. Because at most one theme is active, an
// active theme is always the sole one, so this fails with ErrSoleActiveTheme
// for it; an inactive theme is left unchanged.
func (r *ThemeRepository) Deactivate(ctx context.Context, id int64) error {
	return WithTx(ctx, r.db, func(tx *sqlx.Tx) error {
		var theme Theme
		if err := tx.GetContext(ctx, &theme, "SELECT "+themeColumns+" FROM themes WHERE id = ?", id); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return ErrNotFound
			}
			return fmt.Errorf("failed to get theme: %w", err)
		}
		if !theme.IsActive {
			return nil
		}
		var active int
		if err := tx.GetContext(ctx, &active, "SELECT COUNT(*) FROM themes WHERE is_active = 1"); err != nil {
			return fmt.Errorf("failed to count active themes: %w", err)
		}
		if active <= 1 {
			return ErrSoleActiveTheme
		}
		if _, err := tx.ExecContext(ctx, "UPDATE themes SET is_active = 0 WHERE id = ?", id); err != nil {
			return fmt.Errorf("failed to deactivate theme: %w", err)
		}
		return nil
	})
}

// Delete removes a theme and its colors. The active theme can only be
// deleted when it is the last theme left.
func (r *ThemeRepository) Delete(ctx context.Context, id int64) error {
	return WithTx(ctx, r.db, func(tx *sqlx.Tx) error {
		var theme Theme
		if err := tx.GetContext(ctx, &theme, "SELECT "+themeColumns+" FROM themes WHERE id = ?", id); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return ErrNotFound
			}
			return fmt.Errorf("failed to get theme: %w", err)
		}
		if theme.IsActive {
			var total int
			if err := tx.GetContext(ctx, &total, "SELECT COUNT(*) FROM themes"); err != nil {
				return fmt.Errorf("failed to count themes: %w", err)
			}
			if total > 1 {
				return ErrSoleActiveTheme
			}
		}
		if _, err := tx.ExecContext(ctx, "DELETE FROM theme_colors WHERE theme_id = ?", id); err != nil {
			return fmt.Errorf("failed to delete theme colors: %w", err)
		}
		if _, err := tx.ExecContext(ctx, "DELETE FROM themes WHERE id = ?", id); err != nil {
			return fmt.Errorf("failed to delete theme: %w", err)
		}
		return nil
	})
}

// Bootstrap seeds defaults when the table is empty, marking the first of
// them active. When themes exist but none is active, the earliest inserted
// theme is activated. It reports whether the defaults were inserted.
func (r *ThemeRepository) Bootstrap(ctx context.Context, defaults []*Theme) (bool, error) {
	seeded := false
	err := WithTx(ctx, r.db, func(tx *sqlx.Tx) error {
		var total int
		if err := tx.GetContext(ctx, &total, "SELECT COUNT(*) FROM themes"); err != nil {
			return fmt.Errorf("failed to count themes: %w", err)
		}
		if total == 0 {
			for i, theme := range defaults {
				theme.IsActive = i == 0
				if err := insertTheme(ctx, tx, theme); err != nil {
					return err
				}
			}
			seeded = len(defaults) > 0
			return nil
		}

		var active int
		if err := tx.GetContext(ctx, &active, "SELECT COUNT(*) FROM themes WHERE is_active = 1"); err != nil {
			return fmt.Errorf("failed to count active themes: %w", err)
		}
		if active > 0 {
			return nil
		}
		var first int64
		if err := tx.GetContext(ctx, &first, "SELECT id FROM themes ORDER BY id LIMIT 1"); err != nil {
			return fmt.Errorf("failed to find first theme: %w", err)
		}
		return activateTheme(ctx, tx, first)
	})
	return seeded, err
}
