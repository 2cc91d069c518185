package service

import (
	"context"
	"testing"

	"github.com/MBSciTech/EcoChat/internal/repo"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestCreateGroupMakesCreatorAdmin(t *testing.T) {
	groups := newStubGroupRepo()
	svc := NewGroupService(groups, zap.NewNop())

	group, err := svc.CreateGroup(context.Background(), "alice", "team", "")
	require.NoError(t, err)
	require.True(t, group.IsMember("alice"))
	require.True(t, group.IsAdmin("alice"))
}

func TestAddMemberRequiresAdmin(t *testing.T) {
	groups := newStubGroupRepo()
	svc := NewGroupService(groups, zap.NewNop())
	ctx := context.Background()

	group, err := svc.CreateGroup(ctx, "alice", "team", "")
	require.NoError(t, err)
	gid := group.ID.Hex()

	_, err = svc.AddMember(ctx, gid, "alice", "bob")
	require.NoError(t, err)

	// bob is a member but not an admin
	_, err = svc.AddMember(ctx, gid, "bob", "carol")
	require.ErrorIs(t, err, ErrNotAdmin)

	// adding an existing member changes nothing
	updated, err := svc.AddMember(ctx, gid, "alice", "bob")
	require.NoError(t, err)
	require.Len(t, updated.Members, 2)
}

func TestRemoveMemberRequiresAdmin(t *testing.T) {
	groups := newStubGroupRepo()
	svc := NewGroupService(groups, zap.NewNop())
	ctx := context.Background()

	group, err := svc.CreateGroup(ctx, "alice", "team", "")
	require.NoError(t, err)
	gid := group.ID.Hex()
	_, err = svc.AddMember(ctx, gid, "alice", "bob")
	require.NoError(t, err)
	_, err = svc.AddMember(ctx, gid, "alice", "carol")
	require.NoError(t, err)

	_, err = svc.RemoveMember(ctx, gid, "bob", "carol")
	require.ErrorIs(t, err, ErrNotAdmin)

	updated, err := svc.RemoveMember(ctx, gid, "alice", "carol")
	require.NoError(t, err)
	require.False(t, updated.IsMember("carol"))

	// evicting a non-member changes nothing
	_, err = svc.RemoveMember(ctx, gid, "alice", "carol")
	require.NoError(t, err)
}

func TestLeaveGroupDropsAdminRights(t *testing.T) {
	groups := newStubGroupRepo()
	svc := NewGroupService(groups, zap.NewNop())
	ctx := context.Background()

	group, err := svc.CreateGroup(ctx, "alice", "team", "")
	require.NoError(t, err)
	gid := group.ID.Hex()
	_, err = svc.AddMember(ctx, gid, "alice", "bob")
	require.NoError(t, err)

	require.NoError(t, svc.LeaveGroup(ctx, gid, "alice"))

	stored, err := groups.FindGroup(ctx, gid)
	require.NoError(t, err)
	require.False(t, stored.IsMember("alice"))
	require.False(t, stored.IsAdmin("alice"))

	require.ErrorIs(t, svc.LeaveGroup(ctx, gid, "alice"), ErrNotAMember)
}

func TestGetGroupHidesDetailsFromNonMembers(t *testing.T) {
	groups := newStubGroupRepo()
	svc := NewGroupService(groups, zap.NewNop())
	ctx := context.Background()

	group, err := svc.CreateGroup(ctx, "alice", "team", "")
	require.NoError(t, err)

	_, err = svc.GetGroup(ctx, group.ID.Hex(), "mallory")
	require.ErrorIs(t, err, ErrNotAMember)

	_, err = svc.GetGroup(ctx, "missing", "alice")
	require.ErrorIs(t, err, repo.ErrNotFound)
}

func TestHistoryRequiresMembership(t *testing.T) {
	groups := newStubGroupRepo()
	groupSvc := NewGroupService(groups, zap.NewNop())
	ctx := context.Background()

	group, err := groupSvc.CreateGroup(ctx, "alice", "team", "")
	require.NoError(t, err)

	msgSvc := NewMessageService(&stubMessageRepo{}, groups)

	_, err = msgSvc.GetGroupMessages(ctx, group.ID.Hex(), "mallory", 1)
	require.ErrorIs(t, err, ErrNotAMember)

	_, err = msgSvc.GetGroupMessages(ctx, group.ID.Hex(), "alice", 1)
	require.NoError(t, err)
}
