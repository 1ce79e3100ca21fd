package data

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"
)

// EventFilter narrows an event listing. Zero values mean "no filter".
type EventFilter struct {
	CategorySlug string
	Search       string
	Limit        uint64
}

// EventRepository handles database operations for events.
type EventRepository struct {
	db *sqlx.DB
}

// NewEventRepository creates a new EventRepository.
func NewEventRepository(db *sqlx.DB) *EventRepository {
	return &EventRepository{db: db}
}

// eventOrder sorts by sequence with NULLs last, then newest first.
var eventOrder = []string{
	"CASE WHEN e.sequence IS NULL THEN 1 ELSE 0 END",
	"e.sequence ASC",
	"e.created_at DESC",
	"e.id DESC",
}

func selectEvents() sq.SelectBuilder {
	return sq.Select(
		"e.id", "e.title", "e.category_id", "c.name AS category_name", "c.slug AS category_slug",
		"e.description", "e.created_at", "e.image_path", "e.video_path", "e.sequence",
	).From("events e").Join("categories c ON c.id = e.category_id")
}

// List returns events matching filter in display order.
func (r *EventRepository) List(ctx context.Context, filter EventFilter) ([]*Event, error) {
	q := selectEvents().OrderBy(eventOrder...)
	if filter.CategorySlug != "" {
		q = q.Where(sq.Eq{"c.slug": filter.CategorySlug})
	}
	if filter.Search != "" {
		q = q.Where(sq.Like{"e.title": "%" + filter.Search + "%"})
	}
	if filter.Limit > 0 {
		q = q.Limit(filter.Limit)
	}

	query, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build event query: %w", err)
	}
	events := []*Event{}
	if err := r.db.SelectContext(ctx, &events, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list events: %w", err)
	}
	return events, nil
}

// GetByID retrieves a single event with its category name.
func (r *EventRepository) GetByID(ctx context.Context, id int64) (*Event, error) {
	query, args, err := selectEvents().Where(sq.Eq{"e.id": id}).ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build event query: %w", err)
	}
	var event Event
	if err := r.db.GetContext(ctx, &event, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get event by id: %w", err)
	}
	return &event, nil
}

// Create inserts event and sets its ID.
func (r *EventRepository) Create(ctx context.Context, event *Event) error {
	query := `INSERT INTO events (title, category_id, description, created_at, image_path, video_path, sequence)
		VALUES (:title, :category_id, :description, :created_at, :image_path, :video_path, :sequence)`
	res, err := r.db.NamedExecContext(ctx, query, event)
	if err != nil {
		return fmt.Errorf("failed to execute create event query: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to read event id: %w", err)
	}
	event.ID = id
	return nil
}

// Update writes all editable fields of an existing event.
func (r *EventRepository) Update(ctx context.Context, event *Event) error {
	query := `UPDATE events SET title = :title, category_id = :category_id, description = :description,
		image_path = :image_path, video_path = :video_path, sequence = :sequence WHERE id = :id`
	res, err := r.db.NamedExecContext(ctx, query, event)
	if err != nil {
		return fmt.Errorf("failed to update event: %w", err)
	}
	return expectRow(res)
}

// ClearImage sets image_path to NULL.
func (r *EventRepository) ClearImage(ctx context.Context, id int64) error {
	return r.clear(ctx, "UPDATE events SET image_path = NULL WHERE id = ?", id)
}

// ClearVideo sets video_path to NULL.
func (r *EventRepository) ClearVideo(ctx context.Context, id int64) error {
	return r.clear(ctx, "UPDATE events SET video_path = NULL WHERE id = ?", id)
}

func (r *EventRepository) clear(ctx context.Context, query string, id int64) error {
	res, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to clear event file: %w", err)
	}
	return expectRow(res)
}

// Delete removes an event by its ID.
func (r *EventRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM events WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete event: %w", err)
	}
	return expectRow(res)
}

// UpdateSequences applies every id -> sequence pair in one transaction.
// Ids without a row are skipped. It returns the number of rows changed.
func (r *EventRepository) UpdateSequences(ctx context.Context, sequences map[int64]float64) (int, error) {
	ids := make([]int64, 0, len(sequences))
	for id := range sequences {
		ids = append(ids, id)
	}
	// Stable lock order across concurrent batches.
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	updated := 0
	err := WithTx(ctx, r.db, func(tx *sqlx.Tx) error {
		stmt, err := tx.PreparexContext(ctx, "UPDATE events SET sequence = ? WHERE id = ?")
		if err != nil {
			return fmt.Errorf("failed to prepare sequence update: %w", err)
		}
		defer stmt.Close()

		for _, id := range ids {
			res, err := stmt.ExecContext(ctx, sequences[id], id)
			if err != nil {
				return fmt.Errorf("failed to update sequence of event %d: %w", id, err)
			}
			n, err := res.RowsAffected()
			if err != nil {
				return fmt.Errorf("failed to get rows affected: %w", err)
			}
			updated += int(n)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return updated, nil
}
