package data

import (
	"html/template"
	"time"

	"golang.org/x/crypto/bcrypt"
)

// User is an account that can sign in to the admin area.
type User struct {
	ID           int64     `db:"id"`
	Username     string    `db:"username"`
	Email        string    `db:"email"`
	PasswordHash string    `db:"password_hash"`
	IsAdmin      bool      `db:"is_admin"`
	CreatedAt    time.Time `db:"created_at"`
}

// SetPassword stores a bcrypt hash of password.
func (u *User) SetPassword(password string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	u.PasswordHash = string(hash)
	return nil
}

// CheckPassword reports whether password matches the stored hash.
func (u *User) CheckPassword(password string) bool {
	if u.PasswordHash == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) == nil
}

// Category groups events on the portfolio page.
type Category struct {
	ID          int64  `db:"id"`
	Name        string `db:"name"`
	Slug        string `db:"slug"`
	Description string `db:"description"`
	Sequence    int    `db:"sequence"`

	// DescriptionHTML is the rendered Markdown description. It is filled in
	// by the service layer and never stored.
	DescriptionHTML template.HTML `db:"-"`
}

// Event is a portfolio entry. ImagePath and VideoPath are relative to the
// uploads root, e.g. "uploads/images/stage.png".
type Event struct {
	ID           int64     `db:"id"`
	Title        string    `db:"title"`
	CategoryID   int64     `db:"category_id"`
	CategoryName string    `db:"category_name"`
	CategorySlug string    `db:"category_slug"`
	Description  string    `db:"description"`
	CreatedAt    time.Time `db:"created_at"`
	ImagePath    *string   `db:"image_path"`
	VideoPath    *string   `db:"video_path"`
	Sequence     *float64  `db:"sequence"`
}

// Testimonial is a client quote shown on the home page.
type Testimonial struct {
	ID         int64     `db:"id"`
	ClientName string    `db:"client_name"`
	Content    string    `db:"content"`
	EventType  string    `db:"event_type"`
	CreatedAt  time.Time `db:"created_at"`
}

// Contact is a message submitted through the public contact form.
type Contact struct {
	ID        int64     `db:"id"`
	Name      string    `db:"name"`
	Email     string    `db:"email"`
	Message   string    `db:"message"`
	CreatedAt time.Time `db:"created_at"`
}

// Theme is a named color palette. At most one theme is active.
type Theme struct {
	ID        int64        `db:"id"`
	Name      string       `db:"name"`
	Slug      string       `db:"slug"`
	IsCustom  bool         `db:"is_custom"`
	IsActive  bool         `db:"is_active"`
	CreatedAt time.Time    `db:"created_at"`
	Colors    *ThemeColors `db:"-"`
}

// ThemeColors holds the #RRGGBB palette of a single theme.
type ThemeColors struct {
	ID        int64  `db:"id"`
	ThemeID   int64  `db:"theme_id"`
	Primary   string `db:"primary_color"`
	Secondary string `db:"secondary_color"`
	Accent    string `db:"accent_color"`
}
