package article_test

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"semsearch/features/article"
)

func TestPostgresRepo_Upsert(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := article.NewPostgresRepo(db)

	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO articles (title, author, url, published_date, chunk_count)`)).
		WithArgs("go internals", "grace", "http://example.com", "2024-05-01", 7).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("article-id-1"))

	a := &article.Article{
		Title:         "go internals",
		Author:        "grace",
		URL:           "http://example.com",
		PublishedDate: "2024-05-01",
		ChunkCount:    7,
	}
	err = repo.Upsert(context.Background(), a)
	require.NoError(t, err)
	assert.Equal(t, "article-id-1", a.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresRepo_List(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := article.NewPostgresRepo(db)

	now := time.Now()
	rows := sqlmock.NewRows([]string{"id", "title", "author", "url", "published_date", "chunk_count", "created_at", "updated_at"}).
		AddRow("id-2", "newer article", "bea", "", "", 3, now, now).
		AddRow("id-1", "older article", "", "http://a.example.com", "2023-01-01", 5, now.Add(-time.Hour), now.Add(-time.Hour))

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT id, title, author, url, published_date, chunk_count, created_at, updated_at`)).
		WillReturnRows(rows)

	articles, err := repo.List(context.Background())
	require.NoError(t, err)
	require.Len(t, articles, 2)
	assert.Equal(t, "newer article", articles[0].Title)
	assert.Equal(t, 3, articles[0].ChunkCount)
	assert.Equal(t, "older article", articles[1].Title)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresRepo_DeleteByTitle(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := article.NewPostgresRepo(db)

	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM articles WHERE title = $1`)).
		WithArgs("go internals").
		WillReturnResult(sqlmock.NewResult(0, 1))

	err = repo.DeleteByTitle(context.Background(), "go internals")
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresRepo_Count(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := article.NewPostgresRepo(db)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT COUNT(*) FROM articles`)).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(12))

	count, err := repo.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 12, count)
	assert.NoError(t, mock.ExpectationsWereMet())
}
