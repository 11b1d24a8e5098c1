package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/Ali-LB/dbcc/internal/app/service"
	"github.com/Ali-LB/dbcc/internal/common"
	"github.com/Ali-LB/dbcc/internal/domain/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateEvent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	admin := f.admin(t)
	limit := 25
	date := time.Date(2025, 6, 14, 18, 30, 0, 0, time.UTC)

	event, err := f.events.Create(ctx, admin, service.CreateEventRequest{
		Title:        "  Summer Social  ",
		Description:  "Drinks on the terrace",
		Location:     "Main hall",
		Date:         date,
		MaxAttendees: &limit,
		Published:    true,
	})
	require.NoError(t, err)

	assert.Equal(t, "Summer Social", event.Title)
	assert.Equal(t, "summer-social-2025-06-14-"+event.ID[:8], event.Slug)
	assert.True(t, event.IsActive)
	require.NotNil(t, event.MaxAttendees)
	assert.Equal(t, 25, *event.MaxAttendees)
}

func TestCreateEvent_Validation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	admin := f.admin(t)
	negative := -1

	tests := []struct {
		name string
		req  service.CreateEventRequest
	}{
		{"missing title", service.CreateEventRequest{Description: "d", Location: "l", Date: time.Now()}},
		{"missing date", service.CreateEventRequest{Title: "t", Description: "d", Location: "l"}},
		{"negative capacity", service.CreateEventRequest{Title: "t", Description: "d", Location: "l", Date: time.Now(), MaxAttendees: &negative}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.events.Create(ctx, admin, tt.req)
			assert.ErrorIs(t, err, common.ErrValidation)
		})
	}
}

func TestCreateEvent_SameTitleSameDay(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	admin := f.admin(t)
	req := service.CreateEventRequest{Title: "Board Games", Description: "d", Location: "l", Date: time.Date(2025, 5, 1, 19, 0, 0, 0, time.UTC)}

	first, err := f.events.Create(ctx, admin, req)
	require.NoError(t, err)
	req.Date = req.Date.Add(2 * time.Hour)
	second, err := f.events.Create(ctx, admin, req)
	require.NoError(t, err)

	assert.NotEqual(t, first.Slug, second.Slug)
	assert.Equal(t, "board-games-2025-05-01-"+first.ID[:8], first.Slug)
	assert.Equal(t, "board-games-2025-05-01-"+second.ID[:8], second.Slug)
}

func TestEventAdminOperations_RequireAdmin(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	event := f.event(t, f.admin(t), 5)
	member, _ := f.member(t)

	_, err := f.events.Create(ctx, member, service.CreateEventRequest{})
	assert.ErrorIs(t, err, common.ErrForbidden)

	_, err = f.events.Update(ctx, member, event.ID, service.UpdateEventRequest{})
	assert.ErrorIs(t, err, common.ErrForbidden)

	assert.ErrorIs(t, f.events.Delete(ctx, model.AnonymousPrincipal(), event.ID), common.ErrUnauthorized)

	_, err = f.events.AdminList(ctx, member)
	assert.ErrorIs(t, err, common.ErrForbidden)
}

func TestHiddenEvents_VisibleOnlyToAdmins(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	admin := f.admin(t)
	member, _ := f.member(t)

	visible := f.event(t, admin, 0)
	draft, err := f.events.Create(ctx, admin, service.CreateEventRequest{
		Title: "Draft", Description: "d", Location: "l", Date: time.Now().Add(time.Hour),
	})
	require.NoError(t, err)

	public, err := f.events.ListPublic(ctx, model.AnonymousPrincipal())
	require.NoError(t, err)
	require.Len(t, public, 1)
	assert.Equal(t, visible.ID, public[0].ID)

	_, err = f.events.Get(ctx, member, draft.ID)
	assert.ErrorIs(t, err, common.ErrEventNotFound)

	got, err := f.events.Get(ctx, admin, draft.ID)
	require.NoError(t, err)
	assert.False(t, got.Published)

	all, err := f.events.AdminList(ctx, admin)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestUpdateEvent_LoweringCapacityKeepsRegistrations(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	admin := f.admin(t)
	event := f.event(t, admin, 3)

	for range 3 {
		p, _ := f.member(t)
		_, err := f.registrations.Register(ctx, p, event.ID)
		require.NoError(t, err)
	}

	one := 1
	updated, err := f.events.Update(ctx, admin, event.ID, service.UpdateEventRequest{MaxAttendees: &one})
	require.NoError(t, err)
	assert.Equal(t, 3, updated.ConfirmedCount)

	late, _ := f.member(t)
	_, err = f.registrations.Register(ctx, late, event.ID)
	assert.ErrorIs(t, err, common.ErrEventFull)

	zero := 0
	updated, err = f.events.Update(ctx, admin, event.ID, service.UpdateEventRequest{MaxAttendees: &zero})
	require.NoError(t, err)
	assert.Nil(t, updated.MaxAttendees)

	_, err = f.registrations.Register(ctx, late, event.ID)
	assert.NoError(t, err)
}

func TestUpdateEvent_ReslugsOnTitleChange(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	admin := f.admin(t)
	event := f.event(t, admin, 0)
	title := "Renamed Night"

	updated, err := f.events.Update(ctx, admin, event.ID, service.UpdateEventRequest{Title: &title})
	require.NoError(t, err)
	assert.Equal(t, "renamed-night-"+event.Date.Format("2006-01-02")+"-"+event.ID[:8], updated.Slug)

	empty := "  "
	_, err = f.events.Update(ctx, admin, event.ID, service.UpdateEventRequest{Title: &empty})
	assert.ErrorIs(t, err, common.ErrValidation)
}

func TestDeleteEvent_RemovesRegistrations(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	admin := f.admin(t)
	event := f.event(t, admin, 0)
	p, _ := f.member(t)
	_, err := f.registrations.Register(ctx, p, event.ID)
	require.NoError(t, err)

	require.NoError(t, f.events.Delete(ctx, admin, event.ID))

	_, err = f.events.Get(ctx, admin, event.ID)
	assert.ErrorIs(t, err, common.ErrEventNotFound)

	regs, err := f.registrations.ListMine(ctx, p)
	require.NoError(t, err)
	assert.Empty(t, regs)

	assert.ErrorIs(t, f.events.Delete(ctx, admin, event.ID), common.ErrEventNotFound)
}
