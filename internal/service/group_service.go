package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/MBSciTech/EcoChat/internal/model"
	"github.com/MBSciTech/EcoChat/internal/repo"
	"go.uber.org/zap"
)

var (
	ErrNotAMember = errors.New("user is not a member of the group")
	ErrNotAdmin   = errors.New("user is not an admin of the group")
)

type GroupService interface {
	CreateGroup(ctx context.Context, creatorID, name, description string) (*model.Group, error)
	GetGroup(ctx context.Context, groupID, userID string) (*model.Group, error)
	ListGroups(ctx context.Context, userID string) ([]model.Group, error)
	AddMember(ctx context.Context, groupID, actorID, userID string) (*model.Group, error)
	RemoveMember(ctx context.Context, groupID, actorID, userID string) (*model.Group, error)
	LeaveGroup(ctx context.Context, groupID, userID string) error
}

type groupService struct {
	groups repo.GroupRepository
	logger *zap.Logger
}

func NewGroupService(groups repo.GroupRepository, logger *zap.Logger) GroupService {
	return &groupService{
		groups: groups,
		logger: logger,
	}
}

func (s *groupService) CreateGroup(ctx context.Context, creatorID, name, description string) (*model.Group, error) {
	group := model.NewGroup(name, description, creatorID)

	id, err := s.groups.InsertGroup(ctx, group)
	if err != nil {
		return nil, fmt.Errorf("create group failed: %w", err)
	}

	s.logger.Info("group created", zap.String("group_id", id), zap.String("creator", creatorID))
	return group, nil
}

// GetGroup loads a group the caller belongs to. Non-members cannot see
// group details.
func (s *groupService) GetGroup(ctx context.Context, groupID, userID string) (*model.Group, error) {
	group, err := s.groups.FindGroup(ctx, groupID)
	if err != nil {
		return nil, err
	}
	if !group.IsMember(userID) {
		return nil, ErrNotAMember
	}
	return group, nil
}

func (s *groupService) ListGroups(ctx context.Context, userID string) ([]model.Group, error) {
	return s.groups.GroupsForMember(ctx, userID)
}

// AddMember lets an admin add a user to the group. Adding an existing
// member is a no-op.
func (s *groupService) AddMember(ctx context.Context, groupID, actorID, userID string) (*model.Group, error) {
	group, err := s.groups.FindGroup(ctx, groupID)
	if err != nil {
		return nil, err
	}
	if !group.IsAdmin(actorID) {
		return nil, ErrNotAdmin
	}
	if group.IsMember(userID) {
		return group, nil
	}

	group.AddMember(userID)
	if err := s.groups.UpdateMembers(ctx, groupID, group.Members, group.Admins); err != nil {
		return nil, fmt.Errorf("persist members failed: %w", err)
	}
	return group, nil
}

// RemoveMember lets an admin evict a user from the group. Evicting a
// non-member is a no-op.
func (s *groupService) RemoveMember(ctx context.Context, groupID, actorID, userID string) (*model.Group, error) {
	group, err := s.groups.FindGroup(ctx, groupID)
	if err != nil {
		return nil, err
	}
	if !group.IsAdmin(actorID) {
		return nil, ErrNotAdmin
	}
	if !group.IsMember(userID) {
		return group, nil
	}

	group.RemoveMember(userID)
	if err := s.groups.UpdateMembers(ctx, groupID, group.Members, group.Admins); err != nil {
		return nil, fmt.Errorf("persist members failed: %w", err)
	}
	return group, nil
}

// LeaveGroup removes the caller from the group, dropping admin rights
// with the membership.
func (s *groupService) LeaveGroup(ctx context.Context, groupID, userID string) error {
	group, err := s.groups.FindGroup(ctx, groupID)
	if err != nil {
		return err
	}
	if !group.IsMember(userID) {
		return ErrNotAMember
	}

	group.RemoveMember(userID)
	if err := s.groups.UpdateMembers(ctx, groupID, group.Members, group.Admins); err != nil {
		return fmt.Errorf("persist members failed: %w", err)
	}
	return nil
}
