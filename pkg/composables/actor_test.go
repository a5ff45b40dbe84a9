package composables

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func TestUseActor(t *testing.T) {
	_, err := UseActor(context.Background())
	require.ErrorIs(t, err, ErrNoActorFound)

	actor := Actor{
		ID:           uuid.New(),
		DepartmentID: uuid.New(),
		Roles:        []string{"operations_manager"},
	}
	ctx := WithActor(context.Background(), actor)

	got, err := UseActor(ctx)
	require.NoError(t, err)
	require.Equal(t, actor.ID, got.ID)
	require.True(t, got.HasRole("operations_manager"))
	require.False(t, got.HasRole("department_head"))
}
