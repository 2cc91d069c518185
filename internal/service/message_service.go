package service

import (
	"context"
	"fmt"

	"github.com/MBSciTech/EcoChat/internal/db"
	"github.com/MBSciTech/EcoChat/internal/model"
	"github.com/MBSciTech/EcoChat/internal/repo"
)

type MessageService interface {
	GetGroupMessages(ctx context.Context, groupID, userID string, page int64) (*db.PaginatedResult[model.Message], error)
}

type messageService struct {
	messages repo.MessageRepository
	groups   repo.GroupRepository
}

func NewMessageService(messages repo.MessageRepository, groups repo.GroupRepository) MessageService {
	return &messageService{
		messages: messages,
		groups:   groups,
	}
}

// GetGroupMessages returns one page of the group's history, newest
// first. Only members can read history.
func (s *messageService) GetGroupMessages(ctx context.Context, groupID, userID string, page int64) (*db.PaginatedResult[model.Message], error) {
	group, err := s.groups.FindGroup(ctx, groupID)
	if err != nil {
		return nil, err
	}
	if !group.IsMember(userID) {
		return nil, ErrNotAMember
	}

	result, err := s.messages.FilterMessages(ctx, groupID, page)
	if err != nil {
		return nil, fmt.Errorf("load history failed: %w", err)
	}
	return result, nil
}
