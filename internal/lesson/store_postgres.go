package lesson

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const dbTimeout = 5 * time.Second

const lessonColumns = `id::text, title, outline, content, status, error_message, created_at, updated_at`

// PostgresStore is a PostgreSQL-backed Store.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a store on an existing pool. The schema must
// already be applied.
func NewPostgresStore(pool *pgxpool.Pool) (*PostgresStore, error) {
	if pool == nil {
		return nil, fmt.Errorf("pool is nil")
	}
	return &PostgresStore{pool: pool}, nil
}

func (s *PostgresStore) Create(ctx context.Context, l Lesson) (Lesson, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	if l.ID == "" {
		l.ID = uuid.NewString()
	}
	if l.Status == "" {
		l.Status = StatusGenerating
	}
	if err := l.Validate(); err != nil {
		return Lesson{}, err
	}

	err := s.pool.QueryRow(ctx,
		`INSERT INTO lessons (id, title, outline, content, status, error_message)
		 VALUES ($1::uuid, $2, $3, $4, $5, $6)
		 RETURNING created_at, updated_at`,
		l.ID,
		l.Title,
		l.Outline,
		l.Content,
		string(l.Status),
		l.ErrorMessage,
	).Scan(&l.CreatedAt, &l.UpdatedAt)
	if err != nil {
		return Lesson{}, fmt.Errorf("create lesson: %w", err)
	}
	return l, nil
}

func (s *PostgresStore) Get(ctx context.Context, id string) (Lesson, error) {
	if _, err := uuid.Parse(id); err != nil {
		return Lesson{}, ErrNotFound
	}

	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	row := s.pool.QueryRow(ctx,
		`SELECT `+lessonColumns+` FROM lessons WHERE id = $1::uuid`,
		id,
	)
	l, err := scanLesson(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return Lesson{}, ErrNotFound
	}
	if err != nil {
		return Lesson{}, fmt.Errorf("get lesson: %w", err)
	}
	return l, nil
}

func (s *PostgresStore) List(ctx context.Context) ([]Lesson, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	rows, err := s.pool.Query(ctx,
		`SELECT `+lessonColumns+` FROM lessons ORDER BY created_at DESC, id`,
	)
	if err != nil {
		return nil, fmt.Errorf("list lessons: %w", err)
	}
	defer rows.Close()

	lessons := []Lesson{}
	for rows.Next() {
		l, err := scanLesson(rows)
		if err != nil {
			return nil, fmt.Errorf("scan lesson: %w", err)
		}
		lessons = append(lessons, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list lessons: %w", err)
	}
	return lessons, nil
}

func (s *PostgresStore) MarkGenerating(ctx context.Context, id string) error {
	return s.exec(ctx, id,
		`UPDATE lessons SET status = 'generating', error_message = NULL, updated_at = now()
		 WHERE id = $1::uuid`,
		id,
	)
}

func (s *PostgresStore) MarkGenerated(ctx context.Context, id, title, content string) error {
	return s.exec(ctx, id,
		`UPDATE lessons
		 SET title = $2, content = $3, status = 'generated', error_message = NULL, updated_at = now()
		 WHERE id = $1::uuid`,
		id, title, content,
	)
}

func (s *PostgresStore) MarkFailed(ctx context.Context, id, message string) error {
	return s.exec(ctx, id,
		`UPDATE lessons SET status = 'error', error_message = $2, updated_at = now()
		 WHERE id = $1::uuid`,
		id, message,
	)
}

func (s *PostgresStore) Delete(ctx context.Context, id string) error {
	return s.exec(ctx, id, `DELETE FROM lessons WHERE id = $1::uuid`, id)
}

// exec runs a single-row statement and maps zero affected rows to ErrNotFound.
func (s *PostgresStore) exec(ctx context.Context, id, query string, args ...any) error {
	if _, err := uuid.Parse(id); err != nil {
		return ErrNotFound
	}

	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	cmd, err := s.pool.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update lesson %s: %w", id, err)
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func scanLesson(row pgx.Row) (Lesson, error) {
	var l Lesson
	var status string
	err := row.Scan(
		&l.ID,
		&l.Title,
		&l.Outline,
		&l.Content,
		&status,
		&l.ErrorMessage,
		&l.CreatedAt,
		&l.UpdatedAt,
	)
	l.Status = Status(status)
	return l, err
}
