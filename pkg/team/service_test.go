package team

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreatePersonal(t *testing.T) {
	ctx := context.Background()
	svc := NewService(NewInMemoryRepository())

	created, err := svc.CreatePersonal(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, PersonalTeamName, created.Name)
	assert.True(t, created.IsPersonal)
	assert.Equal(t, int64(1), created.UserID)
}

func TestGet(t *testing.T) {
	ctx := context.Background()
	svc := NewService(NewInMemoryRepository())

	_, err := svc.Create(ctx, 1, "alpha")
	require.NoError(t, err)
	_, err = svc.Create(ctx, 1, "beta")
	require.NoError(t, err)
	_, err = svc.Create(ctx, 2, "other")
	require.NoError(t, err)

	teams, err := svc.Get(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, teams, 2)

	empty, err := svc.Get(ctx, 3)
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestGetOne(t *testing.T) {
	ctx := context.Background()
	svc := NewService(NewInMemoryRepository())

	created, err := svc.Create(ctx, 1, "alpha")
	require.NoError(t, err)

	got, err := svc.GetOne(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created, got)

	_, err = svc.GetOne(ctx, 9999)
	assert.ErrorIs(t, err, ErrTeamNotFound)
}

func TestUpdate(t *testing.T) {
	ctx := context.Background()

	t.Run("OwnerCanRename", func(t *testing.T) {
		svc := NewService(NewInMemoryRepository())
		created, err := svc.Create(ctx, 1, "alpha")
		require.NoError(t, err)

		require.NoError(t, svc.Update(ctx, created.ID, 1, "renamed"))

		got, err := svc.GetOne(ctx, created.ID)
		require.NoError(t, err)
		assert.Equal(t, "renamed", got.Name)
	})

	t.Run("NonOwnerGetsNotFound", func(t *testing.T) {
		svc := NewService(NewInMemoryRepository())
		created, err := svc.Create(ctx, 1, "alpha")
		require.NoError(t, err)

		err = svc.Update(ctx, created.ID, 2, "stolen")
		assert.ErrorIs(t, err, ErrTeamNotFound)

		got, err := svc.GetOne(ctx, created.ID)
		require.NoError(t, err)
		assert.Equal(t, "alpha", got.Name)
	})

	t.Run("UnknownTeam", func(t *testing.T) {
		svc := NewService(NewInMemoryRepository())
		err := svc.Update(ctx, 9999, 1, "x")
		assert.ErrorIs(t, err, ErrTeamNotFound)
	})
}
