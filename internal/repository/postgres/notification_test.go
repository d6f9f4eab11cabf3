package postgres

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carebook/scheduling-api/internal/repository"
)

func TestMarkReadScopedToUser(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewNotificationRepository(db)
	ctx := context.Background()

	id := uuid.New()
	userID := uuid.New()

	mock.ExpectExec("UPDATE notifications SET read = true WHERE id = (.+) AND user_id = (.+)").
		WithArgs(id, userID).
		WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, repo.MarkRead(ctx, id, userID))

	// Another user's id misses the row entirely.
	mock.ExpectExec("UPDATE notifications SET read = true WHERE id = (.+) AND user_id = (.+)").
		WithArgs(id, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 0))
	err := repo.MarkRead(ctx, id, uuid.New())
	assert.ErrorIs(t, err, repository.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}
