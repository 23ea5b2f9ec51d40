package project_test

import (
	"context"
	"testing"
	"time"

	"github.com/facebookgo/clock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/curaious/dashboard/internal/services/project"
	"github.com/curaious/dashboard/internal/store/memory"
)

func TestSlugify(t *testing.T) {
	tests := map[string]string{
		"Apollo":                "apollo",
		"  Moon Landing 2026! ": "moon-landing-2026",
		"a--b__c":               "a-b-c",
		"Überprojekt":           "berprojekt",
		"!!!":                   "project",
		"":                      "project",
	}
	for in, want := range tests {
		assert.Equal(t, want, project.Slugify(in), in)
	}

	assert.Equal(t, "apollo", project.SlugCandidate("apollo", 1))
	assert.Equal(t, "apollo-3", project.SlugCandidate("apollo", 3))
}

func newService() (*project.ProjectService, *clock.Mock) {
	clk := clock.NewMock()
	store := memory.New(clk, 8)
	return project.NewProjectService(store.Projects(), clk), clk
}

func TestCreate_ResolvesSlugCollisions(t *testing.T) {
	svc, _ := newService()
	ctx := context.Background()
	owner := uuid.New()

	var slugs []string
	for i := 0; i < 3; i++ {
		p, err := svc.Create(ctx, &project.CreateProjectRequest{Name: "Apollo Program"}, owner)
		require.NoError(t, err)
		slugs = append(slugs, p.Slug)

		assert.Equal(t, project.StatusPlanning, p.Status)
		assert.Equal(t, 0, p.Progress)
		assert.Equal(t, project.TaskStats{}, p.TaskStats)
		assert.Equal(t, owner, p.CreatedBy)
	}

	assert.Equal(t, []string{"apollo-program", "apollo-program-2", "apollo-program-3"}, slugs)
}

func TestCreate_RequiresName(t *testing.T) {
	svc, _ := newService()

	_, err := svc.Create(context.Background(), &project.CreateProjectRequest{Name: "   "}, uuid.New())
	assert.ErrorIs(t, err, project.ErrInvalidProject)
}

func TestUpdate(t *testing.T) {
	svc, clk := newService()
	ctx := context.Background()

	_, err := svc.Create(ctx, &project.CreateProjectRequest{Name: "Gemini"}, uuid.New())
	require.NoError(t, err)
	p, err := svc.Create(ctx, &project.CreateProjectRequest{Name: "Apollo", Description: "moon"}, uuid.New())
	require.NoError(t, err)

	clk.Add(time.Minute)
	description := "to the moon"
	updated, err := svc.Update(ctx, p.ID, &project.UpdateProjectRequest{Description: &description})
	require.NoError(t, err)
	assert.Equal(t, "apollo", updated.Slug)
	assert.Equal(t, "to the moon", updated.Description)
	assert.True(t, updated.UpdatedAt.Equal(clk.Now()))

	name := "Gemini"
	renamed, err := svc.Update(ctx, p.ID, &project.UpdateProjectRequest{Name: &name})
	require.NoError(t, err)
	assert.Equal(t, "Gemini", renamed.Name)
	assert.Equal(t, "gemini-2", renamed.Slug)
	assert.Equal(t, project.StatusPlanning, renamed.Status)

	// Renaming to the current name keeps the slug.
	renamed, err = svc.Update(ctx, p.ID, &project.UpdateProjectRequest{Name: &name})
	require.NoError(t, err)
	assert.Equal(t, "gemini-2", renamed.Slug)

	empty := " "
	_, err = svc.Update(ctx, p.ID, &project.UpdateProjectRequest{Name: &empty})
	assert.ErrorIs(t, err, project.ErrInvalidProject)

	_, err = svc.Update(ctx, uuid.New(), &project.UpdateProjectRequest{Name: &name})
	assert.ErrorIs(t, err, project.ErrProjectNotFound)
}

func TestDelete(t *testing.T) {
	svc, _ := newService()
	ctx := context.Background()

	p, err := svc.Create(ctx, &project.CreateProjectRequest{Name: "Apollo"}, uuid.New())
	require.NoError(t, err)

	require.NoError(t, svc.Delete(ctx, p.ID))
	assert.ErrorIs(t, svc.Delete(ctx, p.ID), project.ErrProjectNotFound)

	_, err = svc.GetByID(ctx, p.ID)
	assert.ErrorIs(t, err, project.ErrProjectNotFound)
}

func TestTaskStatsScan(t *testing.T) {
	var ts project.TaskStats
	require.NoError(t, ts.Scan([]byte(`{"total":3,"completed":2,"incomplete":1}`)))
	assert.Equal(t, project.TaskStats{Total: 3, Completed: 2, Incomplete: 1}, ts)

	require.NoError(t, ts.Scan(nil))
	assert.Equal(t, project.TaskStats{}, ts)

	assert.Error(t, ts.Scan(42))
}
