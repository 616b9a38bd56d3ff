package sessions

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestCreateAndValidateSession(t *testing.T) {
	svc := NewService(NewMemoryRepository())
	ctx := context.Background()
	r, err := svc.CreateSession(ctx, "user-1", "test-agent", time.Hour)
	require.NoError(t, err)
	require.Len(t, r, 64)

	sess, err := svc.ValidateRefresh(ctx, r)
	require.NoError(t, err)
	require.NotNil(t, sess)
	require.Equal(t, "user-1", sess.Sub)
	require.Equal(t, "test-agent", sess.UserAgent)

	require.NoError(t, svc.DeleteRefresh(ctx, r))
	sess2, err := svc.ValidateRefresh(ctx, r)
	require.NoError(t, err)
	require.Nil(t, sess2)
}

func TestValidateRefresh_ExpiredIsRemoved(t *testing.T) {
	repo := NewMemoryRepository()
	svc := NewService(repo)
	ctx := context.Background()
	r, err := svc.CreateSession(ctx, "user-2", "", time.Minute)
	require.NoError(t, err)

	svc.now = func() time.Time { return time.Now().Add(2 * time.Minute) }
	sess, err := svc.ValidateRefresh(ctx, r)
	require.NoError(t, err)
	require.Nil(t, sess)

	stored, err := repo.GetByRefresh(ctx, r)
	require.NoError(t, err)
	require.Nil(t, stored, "expired session should be cleaned up")
}

func TestRotate(t *testing.T) {
	svc := NewService(NewMemoryRepository())
	ctx := context.Background()
	r, err := svc.CreateSession(ctx, "user-3", "", time.Hour)
	require.NoError(t, err)

	next, sess, err := svc.Rotate(ctx, r, time.Hour)
	require.NoError(t, err)
	require.NotNil(t, sess)
	require.Equal(t, "user-3", sess.Sub)
	require.NotEqual(t, r, next)

	// old token is consumed
	old, err := svc.ValidateRefresh(ctx, r)
	require.NoError(t, err)
	require.Nil(t, old)

	// unknown token
	none, sess2, err := svc.Rotate(ctx, "unknown", time.Hour)
	require.NoError(t, err)
	require.Empty(t, none)
	require.Nil(t, sess2)
}

func TestRevokeUser(t *testing.T) {
	svc := NewService(NewMemoryRepository())
	ctx := context.Background()
	a, err := svc.CreateSession(ctx, "editor-1", "firefox", time.Hour)
	require.NoError(t, err)
	_, err = svc.CreateSession(ctx, "editor-1", "phone", time.Hour)
	require.NoError(t, err)
	other, err := svc.CreateSession(ctx, "editor-2", "", time.Hour)
	require.NoError(t, err)

	n, err := svc.RevokeUser(ctx, "editor-1")
	require.NoError(t, err)
	require.EqualValues(t, 2, n)

	sess, err := svc.ValidateRefresh(ctx, a)
	require.NoError(t, err)
	require.Nil(t, sess)
	sess, err = svc.ValidateRefresh(ctx, other)
	require.NoError(t, err)
	require.NotNil(t, sess)
}
