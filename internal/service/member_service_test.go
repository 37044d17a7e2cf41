package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/duty-roster-api/internal/models"
	appErrors "github.com/noah-isme/duty-roster-api/pkg/errors"
)

type memberStoreStub struct {
	members map[string]*models.Member
}

func newMemberStoreStub() *memberStoreStub {
	return &memberStoreStub{members: map[string]*models.Member{
		"alice": {ID: "alice", Email: "alice@example.com", FullName: "Alice", Role: models.RoleMember, Present: true, Active: true},
		"bob":   {ID: "bob", Email: "bob@example.com", FullName: "Bob", Role: models.RoleMember, Present: false, Active: true},
		"admin": {ID: "admin", Email: "admin@example.com", FullName: "Admin", Role: models.RoleAdmin, Present: true, Active: true},
	}}
}

func (m *memberStoreStub) FindByID(ctx context.Context, id string) (*models.Member, error) {
	if member, ok := m.members[id]; ok {
		copied := *member
		return &copied, nil
	}
	return nil, sql.ErrNoRows
}

func (m *memberStoreStub) List(ctx context.Context, filter models.MemberFilter) ([]models.Member, int, error) {
	result := make([]models.Member, 0, len(m.members))
	for _, member := range m.members {
		if filter.Role != nil && member.Role != *filter.Role {
			continue
		}
		if filter.Present != nil && member.Present != *filter.Present {
			continue
		}
		result = append(result, *member)
	}
	return result, len(result), nil
}

func (m *memberStoreStub) UpdatePresence(ctx context.Context, id string, present bool) error {
	member, ok := m.members[id]
	if !ok {
		return sql.ErrNoRows
	}
	member.Present = present
	return nil
}

func (m *memberStoreStub) UpdateRole(ctx context.Context, id string, role models.MemberRole) error {
	member, ok := m.members[id]
	if !ok {
		return sql.ErrNoRows
	}
	member.Role = role
	return nil
}

func TestMemberServiceList(t *testing.T) {
	store := newMemberStoreStub()
	svc := NewMemberService(store, &auditStub{}, nil)

	present := true
	items, pagination, err := svc.List(context.Background(), models.MemberFilter{Present: &present})
	require.NoError(t, err)
	require.Len(t, items, 2)
	require.Equal(t, 2, pagination.TotalCount)
	require.Equal(t, 1, pagination.Page)
}

func TestMemberServiceGetStripsCredentials(t *testing.T) {
	store := newMemberStoreStub()
	store.members["alice"].PasswordHash = "$2a$10$secret"
	svc := NewMemberService(store, &auditStub{}, nil)

	item, err := svc.Get(context.Background(), "alice")
	require.NoError(t, err)
	require.Equal(t, "alice", item.ID)
	require.Equal(t, "Alice", item.FullName)

	_, err = svc.Get(context.Background(), "nobody")
	require.Error(t, err)
	require.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestMemberServiceSetPresenceSelfOnly(t *testing.T) {
	store := newMemberStoreStub()
	audit := &auditStub{}
	svc := NewMemberService(store, audit, nil)

	require.NoError(t, svc.SetPresence(context.Background(), "bob", "bob", true))
	require.True(t, store.members["bob"].Present)
	require.Len(t, audit.logs, 1)

	err := svc.SetPresence(context.Background(), "alice", "bob", false)
	require.Error(t, err)
	require.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
	require.True(t, store.members["bob"].Present)
}

func TestMemberServiceSetRole(t *testing.T) {
	store := newMemberStoreStub()
	svc := NewMemberService(store, &auditStub{}, nil)

	require.NoError(t, svc.SetRole(context.Background(), "admin", "alice", models.RoleAdmin))
	require.Equal(t, models.RoleAdmin, store.members["alice"].Role)
}

func TestMemberServiceSetRoleNotSelf(t *testing.T) {
	store := newMemberStoreStub()
	svc := NewMemberService(store, &auditStub{}, nil)

	err := svc.SetRole(context.Background(), "admin", "admin", models.RoleMember)
	require.Error(t, err)
	require.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
	require.Equal(t, models.RoleAdmin, store.members["admin"].Role)
}
