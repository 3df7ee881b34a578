package notifications

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/homefix/homeservices-backend/internal/dbtest"
	"github.com/homefix/homeservices-backend/pkg/db/models"
	"github.com/homefix/homeservices-backend/pkg/enums"
)

func seedNotifications(t *testing.T, repo Repository, userID uuid.UUID, n int) []models.Notification {
	t.Helper()
	base := time.Date(2026, 2, 1, 8, 0, 0, 0, time.UTC)
	rows := make([]models.Notification, 0, n)
	for i := 0; i < n; i++ {
		row := &models.Notification{
			UserID:    userID,
			Type:      enums.NotificationTypeSystemUpdate,
			Title:     "update",
			Message:   "message",
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		}
		require.NoError(t, repo.Create(context.Background(), row))
		rows = append(rows, *row)
	}
	return rows
}

func TestRepositoryListPaginatesNewestFirst(t *testing.T) {
	conn := dbtest.Open(t)
	repo := NewRepository(conn)
	userID := uuid.New()
	rows := seedNotifications(t, repo, userID, 5)
	seedNotifications(t, repo, uuid.New(), 2)

	page, cursor, err := repo.List(context.Background(), listNotificationsParams{UserID: userID, Limit: 2})
	require.NoError(t, err)
	require.Len(t, page, 2)
	require.NotNil(t, cursor)
	assert.Equal(t, rows[4].ID, page[0].ID)
	assert.Equal(t, rows[3].ID, page[1].ID)

	page, cursor, err = repo.List(context.Background(), listNotificationsParams{UserID: userID, Limit: 2, Cursor: cursor})
	require.NoError(t, err)
	require.Len(t, page, 2)
	assert.Equal(t, rows[2].ID, page[0].ID)
	assert.Equal(t, rows[1].ID, page[1].ID)

	page, cursor, err = repo.List(context.Background(), listNotificationsParams{UserID: userID, Limit: 2, Cursor: cursor})
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.Nil(t, cursor)
	assert.Equal(t, rows[0].ID, page[0].ID)
}

func TestRepositoryMarkReadScopesToOwner(t *testing.T) {
	conn := dbtest.Open(t)
	repo := NewRepository(conn)
	userID := uuid.New()
	rows := seedNotifications(t, repo, userID, 3)
	now := time.Now().UTC()

	result, err := repo.MarkRead(context.Background(), uuid.New(), rows[0].ID, now)
	require.NoError(t, err)
	assert.False(t, result.Found)

	result, err = repo.MarkRead(context.Background(), userID, rows[0].ID, now)
	require.NoError(t, err)
	assert.True(t, result.Found)
	assert.True(t, result.Updated)

	result, err = repo.MarkRead(context.Background(), userID, rows[0].ID, now)
	require.NoError(t, err)
	assert.True(t, result.Found)
	assert.False(t, result.Updated)

	unread, err := repo.CountUnread(context.Background(), userID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), unread)

	updated, err := repo.MarkAllRead(context.Background(), userID, now)
	require.NoError(t, err)
	assert.Equal(t, int64(2), updated)

	page, _, err := repo.List(context.Background(), listNotificationsParams{UserID: userID, UnreadOnly: true})
	require.NoError(t, err)
	assert.Empty(t, page)
}

func TestRepositoryDeleteOlderThanKeepsUnread(t *testing.T) {
	conn := dbtest.Open(t)
	repo := NewRepository(conn)
	userID := uuid.New()
	rows := seedNotifications(t, repo, userID, 3)
	_, err := repo.MarkRead(context.Background(), userID, rows[0].ID, time.Now().UTC())
	require.NoError(t, err)

	deleted, err := repo.DeleteOlderThan(context.Background(), nil, time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)

	unread, err := repo.CountUnread(context.Background(), userID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), unread)
}
