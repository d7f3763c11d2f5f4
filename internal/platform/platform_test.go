package platform_test

import (
	"context"
	"testing"
	"time"

	"github.com/robalyx/keeper/internal/platform"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var _ platform.Adapter = (*platform.Disgo)(nil)

func TestFakeCapabilities(t *testing.T) {
	t.Parallel()

	fake := platform.NewFake()
	fake.Grant(1, platform.CapabilityKickMembers)
	fake.Grant(2, platform.CapabilityAdministrator)

	ctx := context.Background()

	ok, err := fake.HasCapability(ctx, 10, 1, platform.CapabilityKickMembers)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, _ = fake.HasCapability(ctx, 10, 1, platform.CapabilityManageRoles)
	assert.False(t, ok)

	ok, _ = fake.HasCapability(ctx, 10, 2, platform.CapabilityManageRoles)
	assert.True(t, ok, "administrators have every capability")
}

func TestFakeTimeout(t *testing.T) {
	t.Parallel()

	fake := platform.NewFake()
	ctx := context.Background()
	until := time.Unix(1_700_000_000, 0)

	require.NoError(t, fake.Timeout(ctx, 1, 5, until))
	got, ok := fake.TimeoutOf(5)
	assert.True(t, ok)
	assert.Equal(t, until, got)

	require.NoError(t, fake.Timeout(ctx, 1, 5, time.Time{}))
	_, ok = fake.TimeoutOf(5)
	assert.False(t, ok)
}

func TestUserHelpers(t *testing.T) {
	t.Parallel()

	user := platform.User{ID: 175928847299117063, Username: "keeper"}
	assert.Equal(t, "keeper", user.DisplayName())
	assert.Equal(t, "<@175928847299117063>", user.Mention())
	assert.Equal(t, 2016, user.CreatedAt().UTC().Year())

	user.GlobalName = "Keeper"
	assert.Equal(t, "Keeper", user.DisplayName())

	assert.Equal(t, "Manage Messages", platform.CapabilityManageMessages.String())
}
