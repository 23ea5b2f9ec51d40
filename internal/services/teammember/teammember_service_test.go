package teammember_test

import (
	"context"
	"testing"

	"github.com/facebookgo/clock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/curaious/dashboard/internal/services/capacity"
	"github.com/curaious/dashboard/internal/services/project"
	"github.com/curaious/dashboard/internal/services/task"
	"github.com/curaious/dashboard/internal/services/teammember"
	"github.com/curaious/dashboard/internal/store/memory"
)

func assignTasks(t *testing.T, store *memory.Store, assignee string, n int) {
	t.Helper()
	ctx := context.Background()

	p, err := store.Projects().Create(ctx, &project.Project{Name: assignee, Slug: assignee})
	require.NoError(t, err)
	for i := 0; i < n; i++ {
		_, err := store.Tasks().Create(ctx, &task.Task{ProjectID: p.ID, Name: "t", Status: task.StatusIncomplete, AssignedTo: assignee})
		require.NoError(t, err)
	}
}

func TestCreate_UsesDefaultCapacity(t *testing.T) {
	clk := clock.NewMock()
	svc := teammember.NewTeamMemberService(memory.New(clk, 5).TeamMembers(), clk, 8)
	ctx := context.Background()

	m, err := svc.Create(ctx, &teammember.CreateTeamMemberRequest{Name: "Grace", Email: " Grace@Example.com "})
	require.NoError(t, err)
	assert.Equal(t, 5, m.MaxCapacity)
	assert.Equal(t, "grace@example.com", m.Email)
	assert.True(t, m.Available)
	assert.Equal(t, capacity.TierComfortable, m.Tier)

	override := 3
	m, err = svc.Create(ctx, &teammember.CreateTeamMemberRequest{Name: "Linus", Email: "linus@example.com", MaxCapacity: &override})
	require.NoError(t, err)
	assert.Equal(t, 3, m.MaxCapacity)

	_, err = svc.Create(ctx, &teammember.CreateTeamMemberRequest{Name: "Grace", Email: "other@example.com"})
	assert.ErrorIs(t, err, teammember.ErrTeamMemberAlreadyExists)

	_, err = svc.Create(ctx, &teammember.CreateTeamMemberRequest{Name: "", Email: "x@example.com"})
	assert.ErrorIs(t, err, teammember.ErrInvalidTeamMember)

	zero := 0
	_, err = svc.Create(ctx, &teammember.CreateTeamMemberRequest{Name: "Ken", Email: "ken@example.com", MaxCapacity: &zero})
	assert.ErrorIs(t, err, teammember.ErrInvalidTeamMember)
}

func TestList_DerivesCapacity(t *testing.T) {
	clk := clock.NewMock()
	store := memory.New(clk, 8)
	svc := teammember.NewTeamMemberService(store.TeamMembers(), clk, 8)
	ctx := context.Background()

	for _, name := range []string{"ada", "bob", "cy"} {
		_, err := svc.Create(ctx, &teammember.CreateTeamMemberRequest{Name: name, Email: name + "@example.com"})
		require.NoError(t, err)
	}
	assignTasks(t, store, "ada", 5)
	assignTasks(t, store, "bob", 8)
	assignTasks(t, store, "cy", 12)

	members, err := svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, members, 3)

	assert.Equal(t, 5, members[0].TaskCount)
	assert.Equal(t, 63, members[0].CapacityPercent)
	assert.Equal(t, capacity.TierModerate, members[0].Tier)
	assert.True(t, members[0].Available)

	assert.Equal(t, 100, members[1].CapacityPercent)
	assert.Equal(t, capacity.TierHeavy, members[1].Tier)
	assert.False(t, members[1].Available)

	assert.Equal(t, 12, members[2].TaskCount)
	assert.Equal(t, 100, members[2].CapacityPercent)
	assert.False(t, members[2].Available)

	available, err := svc.ListAvailable(ctx)
	require.NoError(t, err)
	require.Len(t, available, 1)
	assert.Equal(t, "ada", available[0].Name)
}

func TestSetGlobalMaxCapacity(t *testing.T) {
	clk := clock.NewMock()
	store := memory.New(clk, 8)
	svc := teammember.NewTeamMemberService(store.TeamMembers(), clk, 8)
	ctx := context.Background()

	override := 2
	_, err := svc.Create(ctx, &teammember.CreateTeamMemberRequest{Name: "ada", Email: "ada@example.com", MaxCapacity: &override})
	require.NoError(t, err)
	_, err = svc.Create(ctx, &teammember.CreateTeamMemberRequest{Name: "bob", Email: "bob@example.com"})
	require.NoError(t, err)

	members, err := svc.SetGlobalMaxCapacity(ctx, 10)
	require.NoError(t, err)
	for _, m := range members {
		assert.Equal(t, 10, m.MaxCapacity, m.Name)
	}
	assert.Equal(t, 10, svc.DefaultMaxCapacity(ctx))

	m, err := svc.Create(ctx, &teammember.CreateTeamMemberRequest{Name: "cy", Email: "cy@example.com"})
	require.NoError(t, err)
	assert.Equal(t, 10, m.MaxCapacity)

	_, err = svc.SetGlobalMaxCapacity(ctx, 0)
	assert.ErrorIs(t, err, teammember.ErrInvalidTeamMember)
}

func TestDelete(t *testing.T) {
	clk := clock.NewMock()
	svc := teammember.NewTeamMemberService(memory.New(clk, 8).TeamMembers(), clk, 8)
	ctx := context.Background()

	m, err := svc.Create(ctx, &teammember.CreateTeamMemberRequest{Name: "ada", Email: "ada@example.com"})
	require.NoError(t, err)

	require.NoError(t, svc.Delete(ctx, m.ID))
	assert.ErrorIs(t, svc.Delete(ctx, m.ID), teammember.ErrTeamMemberNotFound)
}
