package repository

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"

	"inkpress/internal/model"
)

func newMockDB(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock) {
	t.Helper()
	mockDB, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { mockDB.Close() })
	return sqlx.NewDb(mockDB, "postgres"), mock
}

var commentColumns = []string{
	"id", "post_id", "author_id", "body", "parent_comment_id", "depth",
	"is_deleted", "created_at", "updated_at",
}

func TestCommentRepository_Update_Success(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewCommentRepository(db)

	now := time.Now()
	mock.ExpectQuery(regexp.QuoteMeta("UPDATE comments")).
		WithArgs("edited", int64(5), int64(7)).
		WillReturnRows(sqlmock.NewRows(commentColumns).
			AddRow(int64(5), int64(1), int64(7), "edited", nil, 0, false, now, now))

	c, err := repo.Update(context.Background(), 5, 7, "edited")
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
	if c.Body != "edited" {
		t.Errorf("body = %q, want %q", c.Body, "edited")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestCommentRepository_Update_NotAuthor(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewCommentRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("UPDATE comments")).
		WithArgs("edited", int64(5), int64(2)).
		WillReturnError(sql.ErrNoRows)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT EXISTS")).
		WithArgs(int64(5)).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	_, err := repo.Update(context.Background(), 5, 2, "edited")
	if !errors.Is(err, model.ErrNotCommentAuthor) {
		t.Fatalf("expected ErrNotCommentAuthor, got: %v", err)
	}
}

func TestCommentRepository_Update_Missing(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewCommentRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("UPDATE comments")).
		WithArgs("edited", int64(404), int64(2)).
		WillReturnError(sql.ErrNoRows)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT EXISTS")).
		WithArgs(int64(404)).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))

	_, err := repo.Update(context.Background(), 404, 2, "edited")
	if !errors.Is(err, model.ErrCommentNotFound) {
		t.Fatalf("expected ErrCommentNotFound, got: %v", err)
	}
}

func TestCommentRepository_Update_ExistsCheckFailureSurfaces(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewCommentRepository(db)

	dbErr := errors.New("connection reset")
	mock.ExpectQuery(regexp.QuoteMeta("UPDATE comments")).
		WithArgs("edited", int64(5), int64(2)).
		WillReturnError(sql.ErrNoRows)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT EXISTS")).
		WithArgs(int64(5)).
		WillReturnError(dbErr)

	_, err := repo.Update(context.Background(), 5, 2, "edited")
	if err == nil {
		t.Fatal("expected the store error to surface")
	}
	if errors.Is(err, model.ErrCommentNotFound) || errors.Is(err, model.ErrNotCommentAuthor) {
		t.Fatalf("store failure must not be reported as a domain error, got: %v", err)
	}
	if !errors.Is(err, dbErr) {
		t.Fatalf("expected wrapped store error, got: %v", err)
	}
}
