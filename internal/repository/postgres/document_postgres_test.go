package postgres

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"doclib/internal/model"
	"doclib/internal/repository"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var docCols = []string{
	"id", "filename", "content_type", "size", "storage_backend", "storage_key",
	"category_id", "subcategory_id", "uploaded_by", "position", "created_at",
}

func docRow(id string, position int, subID any) *sqlmock.Rows {
	return sqlmock.NewRows(docCols).
		AddRow(id, "informe.pdf", "application/pdf", 123, "s3", "documents/"+id,
			int64(1), subID, "operator-1", position, time.Now().UTC())
}

func TestDocumentPostgres_Create(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewDocumentPostgres(db)
	ctx := context.Background()

	now := time.Now().UTC()
	doc := &model.Document{
		ID:             "doc-1",
		Filename:       "informe.pdf",
		ContentType:    "application/pdf",
		Size:           123,
		StorageBackend: model.BackendS3,
		StorageKey:     "documents/doc-1",
		CategoryID:     1,
		UploadedBy:     "operator-1",
		CreatedAt:      now,
	}

	mock.ExpectQuery("INSERT INTO documents").
		WithArgs(doc.ID, doc.Filename, doc.ContentType, doc.Size, doc.StorageBackend,
			doc.StorageKey, doc.CategoryID, nil, doc.UploadedBy, doc.CreatedAt).
		WillReturnRows(docRow("doc-1", 3, nil))

	stored, err := repo.Create(ctx, doc)

	assert.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, "doc-1", stored.ID)
	assert.Equal(t, 3, stored.Position)
	assert.Nil(t, stored.SubcategoryID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDocumentPostgres_CreateWithBlob(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewDocumentPostgres(db)
	ctx := context.Background()

	now := time.Now().UTC()
	doc := &model.Document{
		ID:             "doc-1",
		Filename:       "informe.pdf",
		ContentType:    "application/pdf",
		Size:           5,
		StorageBackend: model.BackendEmbedded,
		StorageKey:     "documents/doc-1",
		CategoryID:     1,
		UploadedBy:     "operator-1",
		CreatedAt:      now,
	}
	content := []byte("hello")

	t.Run("both rows commit together", func(t *testing.T) {
		mock.ExpectBegin()
		mock.ExpectExec("INSERT INTO document_blobs").
			WithArgs(doc.StorageKey, content, doc.ContentType, len(content), now).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectQuery("INSERT INTO documents").
			WithArgs(doc.ID, doc.Filename, doc.ContentType, doc.Size, doc.StorageBackend,
				doc.StorageKey, doc.CategoryID, nil, doc.UploadedBy, doc.CreatedAt).
			WillReturnRows(docRow("doc-1", 0, nil))
		mock.ExpectCommit()

		stored, err := repo.CreateWithBlob(ctx, doc, content)

		assert.NoError(t, err)
		require.NotNil(t, stored)
		assert.Equal(t, 0, stored.Position)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("record failure rolls the blob back", func(t *testing.T) {
		mock.ExpectBegin()
		mock.ExpectExec("INSERT INTO document_blobs").
			WithArgs(doc.StorageKey, content, doc.ContentType, len(content), now).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectQuery("INSERT INTO documents").
			WillReturnError(errors.New("insert failed"))
		mock.ExpectRollback()

		_, err := repo.CreateWithBlob(ctx, doc, content)

		assert.Error(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestDocumentPostgres_FindByID(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewDocumentPostgres(db)
	ctx := context.Background()

	t.Run("found", func(t *testing.T) {
		mock.ExpectQuery("SELECT (.+) FROM documents WHERE id = ?").
			WithArgs("doc-1").
			WillReturnRows(docRow("doc-1", 0, int64(7)))

		doc, err := repo.FindByID(ctx, "doc-1")

		assert.NoError(t, err)
		require.NotNil(t, doc)
		assert.Equal(t, "doc-1", doc.ID)
		require.NotNil(t, doc.SubcategoryID)
		assert.Equal(t, int64(7), *doc.SubcategoryID)
	})

	t.Run("not found", func(t *testing.T) {
		mock.ExpectQuery("SELECT (.+) FROM documents WHERE id = ?").
			WithArgs("missing").
			WillReturnError(sql.ErrNoRows)

		doc, err := repo.FindByID(ctx, "missing")

		assert.ErrorIs(t, err, sql.ErrNoRows)
		assert.Nil(t, doc)
	})
}

func TestDocumentPostgres_ListByScope(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewDocumentPostgres(db)
	ctx := context.Background()

	t.Run("root scope", func(t *testing.T) {
		rows := sqlmock.NewRows(docCols).
			AddRow("a", "a.pdf", "application/pdf", 1, "s3", "documents/a", int64(1), nil, "op", 0, time.Now()).
			AddRow("b", "b.pdf", "application/pdf", 2, "s3", "documents/b", int64(1), nil, "op", 1, time.Now())

		mock.ExpectQuery("SELECT (.+) FROM documents").
			WithArgs(int64(1), nil).
			WillReturnRows(rows)

		items, err := repo.ListByScope(ctx, model.Scope{CategoryID: 1})

		assert.NoError(t, err)
		require.Len(t, items, 2)
		assert.Equal(t, "a", items[0].ID)
		assert.Equal(t, 0, items[0].Position)
		assert.Equal(t, 1, items[1].Position)
	})

	t.Run("subcategory scope", func(t *testing.T) {
		mock.ExpectQuery("SELECT (.+) FROM documents").
			WithArgs(int64(1), int64(4)).
			WillReturnRows(sqlmock.NewRows(docCols))

		sub := int64(4)
		items, err := repo.ListByScope(ctx, model.Scope{CategoryID: 1, SubcategoryID: &sub})

		assert.NoError(t, err)
		assert.Empty(t, items)
	})
}

func TestDocumentPostgres_Delete(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewDocumentPostgres(db)
	ctx := context.Background()

	t.Run("deletes and renumbers", func(t *testing.T) {
		mock.ExpectBegin()
		mock.ExpectQuery("DELETE FROM documents WHERE id = (.+) RETURNING").
			WithArgs("doc-1").
			WillReturnRows(docRow("doc-1", 1, nil))
		mock.ExpectExec("UPDATE documents d SET position").
			WithArgs(int64(1), nil).
			WillReturnResult(sqlmock.NewResult(0, 2))
		mock.ExpectCommit()

		doc, err := repo.Delete(ctx, "doc-1")

		assert.NoError(t, err)
		require.NotNil(t, doc)
		assert.Equal(t, "documents/doc-1", doc.StorageKey)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("missing document rolls back", func(t *testing.T) {
		mock.ExpectBegin()
		mock.ExpectQuery("DELETE FROM documents WHERE id = (.+) RETURNING").
			WithArgs("missing").
			WillReturnError(sql.ErrNoRows)
		mock.ExpectRollback()

		doc, err := repo.Delete(ctx, "missing")

		assert.ErrorIs(t, err, sql.ErrNoRows)
		assert.Nil(t, doc)
	})
}

func TestDocumentPostgres_ReassignScope(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewDocumentPostgres(db)
	ctx := context.Background()

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT category_id, subcategory_id FROM documents WHERE id = (.+) FOR UPDATE").
		WithArgs("doc-1").
		WillReturnRows(sqlmock.NewRows([]string{"category_id", "subcategory_id"}).AddRow(int64(1), int64(4)))
	mock.ExpectQuery("UPDATE documents SET category_id").
		WithArgs("doc-1", int64(2), nil).
		WillReturnRows(sqlmock.NewRows(docCols).
			AddRow("doc-1", "informe.pdf", "application/pdf", 123, "s3", "documents/doc-1",
				int64(2), nil, "operator-1", 5, time.Now()))
	mock.ExpectExec("UPDATE documents d SET position").
		WithArgs(int64(1), int64(4)).
		WillReturnResult(sqlmock.NewResult(0, 3))
	mock.ExpectCommit()

	doc, err := repo.ReassignScope(ctx, "doc-1", model.Scope{CategoryID: 2})

	assert.NoError(t, err)
	require.NotNil(t, doc)
	assert.Equal(t, int64(2), doc.CategoryID)
	assert.Equal(t, 5, doc.Position)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDocumentPostgres_Reorder(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewDocumentPostgres(db)
	ctx := context.Background()
	scope := model.Scope{CategoryID: 1}

	t.Run("rewrites positions densely", func(t *testing.T) {
		mock.ExpectBegin()
		mock.ExpectQuery("SELECT id FROM documents").
			WithArgs(int64(1), nil).
			WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("a").AddRow("b").AddRow("c"))
		mock.ExpectExec("UPDATE documents SET position").
			WithArgs(0, "c").WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec("UPDATE documents SET position").
			WithArgs(1, "a").WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec("UPDATE documents SET position").
			WithArgs(2, "b").WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		err := repo.Reorder(ctx, scope, []string{"c", "a", "b"})

		assert.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("membership mismatch writes nothing", func(t *testing.T) {
		mock.ExpectBegin()
		mock.ExpectQuery("SELECT id FROM documents").
			WithArgs(int64(1), nil).
			WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("a").AddRow("b").AddRow("c"))
		mock.ExpectRollback()

		err := repo.Reorder(ctx, scope, []string{"c", "a"})

		assert.ErrorIs(t, err, repository.ErrScopeMembersChanged)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("foreign id writes nothing", func(t *testing.T) {
		mock.ExpectBegin()
		mock.ExpectQuery("SELECT id FROM documents").
			WithArgs(int64(1), nil).
			WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("a").AddRow("b"))
		mock.ExpectRollback()

		err := repo.Reorder(ctx, scope, []string{"a", "x"})

		assert.ErrorIs(t, err, repository.ErrScopeMembersChanged)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestSameIDSet(t *testing.T) {
	assert.True(t, sameIDSet([]string{"a", "b", "c"}, []string{"c", "a", "b"}))
	assert.True(t, sameIDSet(nil, nil))
	assert.False(t, sameIDSet([]string{"a", "b"}, []string{"a"}))
	assert.False(t, sameIDSet([]string{"a", "b"}, []string{"a", "x"}))
	assert.False(t, sameIDSet([]string{"a", "a"}, []string{"a", "b"}))
}
