package article

import (
	"context"
	"database/sql"
)

type PostgresRepo struct {
	db *sql.DB
}

func NewPostgresRepo(db *sql.DB) *PostgresRepo {
	return &PostgresRepo{db: db}
}

// Upsert inserts an article or refreshes its metadata and chunk count when
// the title already exists.
func (r *PostgresRepo) Upsert(ctx context.Context, a *Article) error {
	query := `INSERT INTO articles (title, author, url, published_date, chunk_count)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (title) DO UPDATE SET
			author = EXCLUDED.author,
			url = EXCLUDED.url,
			published_date = EXCLUDED.published_date,
			chunk_count = EXCLUDED.chunk_count,
			updated_at = NOW()
		RETURNING id`
	return r.db.QueryRowContext(ctx, query,
		a.Title, a.Author, a.URL, a.PublishedDate, a.ChunkCount).Scan(&a.ID)
}

func (r *PostgresRepo) List(ctx context.Context) ([]Article, error) {
	query := `SELECT id, title, author, url, published_date, chunk_count, created_at, updated_at
		FROM articles ORDER BY created_at DESC`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var articles []Article
	for rows.Next() {
		var a Article
		if err := rows.Scan(&a.ID, &a.Title, &a.Author, &a.URL, &a.PublishedDate,
			&a.ChunkCount, &a.CreatedAt, &a.UpdatedAt); err != nil {
			return nil, err
		}
		articles = append(articles, a)
	}
	return articles, rows.Err()
}

func (r *PostgresRepo) DeleteByTitle(ctx context.Context, title string) error {
	query := `DELETE FROM articles WHERE title = $1`
	_, err := r.db.ExecContext(ctx, query, title)
	return err
}

func (r *PostgresRepo) Count(ctx context.Context) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM articles`).Scan(&count)
	return count, err
}
