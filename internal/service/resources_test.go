package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhay-kr-0705/GEN-X/internal/logging"
	"github.com/abhay-kr-0705/GEN-X/internal/model"
	"github.com/abhay-kr-0705/GEN-X/internal/service"
	"github.com/abhay-kr-0705/GEN-X/internal/storage"
)

func goResource() service.ResourceInput {
	return service.ResourceInput{
		Title:       "Tour of Go",
		Description: "Interactive introduction",
		URL:         "https://go.dev/tour",
		Type:        model.ResourceLink,
		Domain:      "Web Development",
	}
}

func TestResourceOwnership(t *testing.T) {
	ctx := context.Background()
	host := &fakeHost{}
	svc := service.NewResourceService(storage.NewMemoryStore().Resources(), host, time.Minute, logging.Discard())
	owner := &model.User{ID: "owner", Role: model.RoleUser}
	other := &model.User{ID: "other", Role: model.RoleUser}
	admin := &model.User{ID: "admin", Role: model.RoleAdmin, IsAdmin: true}

	r, err := svc.Create(ctx, owner, goResource())
	require.NoError(t, err)
	assert.Equal(t, "owner", r.UploadedBy)

	in := goResource()
	in.Title = "Effective Go"
	_, err = svc.Update(ctx, other, r.ID, in)
	assert.ErrorIs(t, err, model.ErrForbidden)

	updated, err := svc.Update(ctx, owner, r.ID, in)
	require.NoError(t, err)
	assert.Equal(t, "Effective Go", updated.Title)

	assert.ErrorIs(t, svc.Delete(ctx, other, r.ID), model.ErrForbidden)
	require.NoError(t, svc.Delete(ctx, admin, r.ID))
	assert.ErrorIs(t, svc.Delete(ctx, admin, r.ID), model.ErrNotFound)
}

func TestResourceValidation(t *testing.T) {
	svc := service.NewResourceService(storage.NewMemoryStore().Resources(), &fakeHost{}, time.Minute, logging.Discard())
	in := goResource()
	in.Domain = "Astrology"
	_, err := svc.Create(context.Background(), &model.User{ID: "u"}, in)
	assert.ErrorIs(t, err, model.ErrBadRequest)
}

func TestUploadDocumentStoresFile(t *testing.T) {
	host := &fakeHost{}
	svc := service.NewResourceService(storage.NewMemoryStore().Resources(), host, time.Minute, logging.Discard())
	file := spool(t, 1)[0]
	file.ContentType = "application/pdf"

	doc, err := svc.UploadDocument(context.Background(), file)
	require.NoError(t, err)
	assert.Equal(t, "genx_resources/asset1", doc.PublicID)
	assert.Zero(t, doc.Pages)
	requireRemoved(t, file)
}

func TestAdminSetRoleAndStats(t *testing.T) {
	ctx := context.Background()
	m := storage.NewMemoryStore()
	admin := service.NewAdminService(m.Users(), m.Events())
	now := time.Now()
	require.NoError(t, m.Users().Create(ctx, &model.User{ID: "u1", Email: "a@x.io", RegistrationNo: "R1", Role: model.RoleUser, LastLoginAt: &now}))
	require.NoError(t, m.Users().Create(ctx, &model.User{ID: "u2", Email: "b@x.io", RegistrationNo: "R2", Role: model.RoleUser}))
	require.NoError(t, m.Events().Create(ctx, &model.Event{ID: "e1", Date: now.Add(time.Hour)}))
	require.NoError(t, m.Events().Create(ctx, &model.Event{ID: "e2", Date: now.Add(-time.Hour)}))

	_, err := admin.SetRole(ctx, &model.User{Role: model.RoleAdmin}, "u2", model.RoleAdmin)
	assert.ErrorIs(t, err, model.ErrForbidden)

	u, err := admin.SetRole(ctx, &model.User{Role: model.RoleSuperAdmin}, "u2", model.RoleAdmin)
	require.NoError(t, err)
	assert.True(t, u.IsAdmin)

	_, err = admin.SetRole(ctx, &model.User{Role: model.RoleSuperAdmin}, "u2", "owner")
	assert.ErrorIs(t, err, model.ErrBadRequest)

	st, err := admin.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, service.Stats{TotalUsers: 2, ActiveUsers: 1, TotalEvents: 2, UpcomingEvents: 1}, st)

	promoted, err := admin.MakeAdmin(ctx, "A@X.io", model.RoleSuperAdmin)
	require.NoError(t, err)
	assert.Equal(t, model.RoleSuperAdmin, promoted.Role)
}
