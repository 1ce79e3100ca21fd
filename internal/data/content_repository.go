package data

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
)

// TestimonialRepository handles database operations for testimonials.
type TestimonialRepository struct {
	db *sqlx.DB
}

// NewTestimonialRepository creates a new TestimonialRepository.
func NewTestimonialRepository(db *sqlx.DB) *TestimonialRepository {
	return &TestimonialRepository{db: db}
}

// List returns testimonials, newest first. An empty search matches all;
// otherwise client name or event type must contain it. A zero limit means
// no limit.
func (r *TestimonialRepository) List(ctx context.Context, search string, limit int) ([]*Testimonial, error) {
	query := "SELECT id, client_name, content, event_type, created_at FROM testimonials"
	args := []interface{}{}
	if search != "" {
		query += " WHERE client_name LIKE ? OR event_type LIKE ?"
		args = append(args, "%"+search+"%", "%"+search+"%")
	}
	query += " ORDER BY created_at DESC, id DESC"
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}
	testimonials := []*Testimonial{}
	if err := r.db.SelectContext(ctx, &testimonials, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list testimonials: %w", err)
	}
	return testimonials, nil
}

// GetByID retrieves a testimonial by ID.
func (r *TestimonialRepository) GetByID(ctx context.Context, id int64) (*Testimonial, error) {
	var t Testimonial
	err := r.db.GetContext(ctx, &t, "SELECT id, client_name, content, event_type, created_at FROM testimonials WHERE id = ?", id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get testimonial: %w", err)
	}
	return &t, nil
}

// Create inserts a testimonial and sets its ID.
func (r *TestimonialRepository) Create(ctx context.Context, t *Testimonial) error {
	if t.CreatedAt.IsZero() {
		t.CreatedAt = time.Now().UTC()
	}
	res, err := r.db.NamedExecContext(ctx,
		`INSERT INTO testimonials (client_name, content, event_type, created_at)
		VALUES (:client_name, :content, :event_type, :created_at)`, t)
	if err != nil {
		return fmt.Errorf("failed to insert testimonial: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to read testimonial id: %w", err)
	}
	t.ID = id
	return nil
}

// Update writes the editable fields of a testimonial.
func (r *TestimonialRepository) Update(ctx context.Context, t *Testimonial) error {
	res, err := r.db.NamedExecContext(ctx,
		"UPDATE testimonials SET client_name = :client_name, content = :content, event_type = :event_type WHERE id = :id", t)
	if err != nil {
		return fmt.Errorf("failed to update testimonial: %w", err)
	}
	return expectRow(res)
}

// Delete removes a testimonial by ID.
func (r *TestimonialRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM testimonials WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete testimonial: %w", err)
	}
	return expectRow(res)
}

// ContactRepository handles database operations for contact messages.
type ContactRepository struct {
	db *sqlx.DB
}

// NewContactRepository creates a new ContactRepository.
func NewContactRepository(db *sqlx.DB) *ContactRepository {
	return &ContactRepository{db: db}
}

// List returns contact messages, newest first, optionally filtered by name
// or email.
func (r *ContactRepository) List(ctx context.Context, search string) ([]*Contact, error) {
	query := "SELECT id, name, email, message, created_at FROM contacts"
	args := []interface{}{}
	if search != "" {
		query += " WHERE name LIKE ? OR email LIKE ?"
		args = append(args, "%"+search+"%", "%"+search+"%")
	}
	query += " ORDER BY created_at DESC, id DESC"
	contacts := []*Contact{}
	if err := r.db.SelectContext(ctx, &contacts, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list contacts: %w", err)
	}
	return contacts, nil
}

// GetByID retrieves a contact message by ID.
func (r *ContactRepository) GetByID(ctx context.Context, id int64) (*Contact, error) {
	var c Contact
	err := r.db.GetContext(ctx, &c, "SELECT id, name, email, message, created_at FROM contacts WHERE id = ?", id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get contact: %w", err)
	}
	return &c, nil
}

// Create inserts a contact message and sets its ID.
func (r *ContactRepository) Create(ctx context.Context, c *Contact) error {
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now().UTC()
	}
	res, err := r.db.NamedExecContext(ctx,
		"INSERT INTO contacts (name, email, message, created_at) VALUES (:name, :email, :message, :created_at)", c)
	if err != nil {
		return fmt.Errorf("failed to insert contact: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to read contact id: %w", err)
	}
	c.ID = id
	return nil
}
