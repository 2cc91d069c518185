package service

import (
	"context"
	"sync"
	"time"

	"github.com/MBSciTech/EcoChat/internal/db"
	"github.com/MBSciTech/EcoChat/internal/model"
	"github.com/MBSciTech/EcoChat/internal/repo"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type stubUserRepo struct {
	mu   sync.Mutex
	byID map[string]*model.User
}

func newStubUserRepo() *stubUserRepo {
	return &stubUserRepo{byID: make(map[string]*model.User)}
}

func (u *stubUserRepo) InsertUser(_ context.Context, user *model.User) (string, error) {
	u.mu.Lock()
	defer u.mu.Unlock()
	if user.ID.IsZero() {
		user.ID = primitive.NewObjectID()
	}
	u.byID[user.ID.Hex()] = user
	return user.ID.Hex(), nil
}

func (u *stubUserRepo) FindByID(_ context.Context, id string) (*model.User, error) {
	u.mu.Lock()
	defer u.mu.Unlock()
	if user, ok := u.byID[id]; ok {
		return user, nil
	}
	return nil, repo.ErrNotFound
}

func (u *stubUserRepo) FindByEmail(_ context.Context, email string) (*model.User, error) {
	u.mu.Lock()
	defer u.mu.Unlock()
	for _, user := range u.byID {
		if user.Email == email {
			return user, nil
		}
	}
	return nil, repo.ErrNotFound
}

func (u *stubUserRepo) FindByIDs(_ context.Context, ids []string) ([]model.User, error) {
	u.mu.Lock()
	defer u.mu.Unlock()
	var out []model.User
	for _, id := range ids {
		if user, ok := u.byID[id]; ok {
			out = append(out, *user)
		}
	}
	return out, nil
}

func (u *stubUserRepo) UpdatePresence(context.Context, string, string, time.Time) error {
	return nil
}

type stubGroupRepo struct {
	mu   sync.Mutex
	byID map[string]*model.Group
}

func newStubGroupRepo() *stubGroupRepo {
	return &stubGroupRepo{byID: make(map[string]*model.Group)}
}

func (g *stubGroupRepo) InsertGroup(_ context.Context, group *model.Group) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if group.ID.IsZero() {
		group.ID = primitive.NewObjectID()
	}
	g.byID[group.ID.Hex()] = group
	return group.ID.Hex(), nil
}

func (g *stubGroupRepo) FindGroup(_ context.Context, id string) (*model.Group, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if group, ok := g.byID[id]; ok {
		return group, nil
	}
	return nil, repo.ErrNotFound
}

func (g *stubGroupRepo) GroupsForMember(_ context.Context, userID string) ([]model.Group, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	var out []model.Group
	for _, group := range g.byID {
		if group.IsMember(userID) {
			out = append(out, *group)
		}
	}
	return out, nil
}

func (g *stubGroupRepo) UpdateMembers(_ context.Context, id string, members, admins []string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	group, ok := g.byID[id]
	if !ok {
		return repo.ErrNotFound
	}
	group.Members = members
	group.Admins = admins
	return nil
}

type stubMessageRepo struct {
	pages map[string]*db.PaginatedResult[model.Message]
}

func (m *stubMessageRepo) InsertMessage(context.Context, *model.Message) (string, error) {
	return "", nil
}
func (m *stubMessageRepo) FindMessage(context.Context, string) (*model.Message, error) {
	return nil, repo.ErrNotFound
}
func (m *stubMessageRepo) UpdateStatus(context.Context, string, model.DeliveryStatus) error {
	return nil
}
func (m *stubMessageRepo) UpdateReactions(context.Context, string, []model.Reaction) error {
	return nil
}
func (m *stubMessageRepo) UpdatePoll(context.Context, string, *model.Poll) error { return nil }
func (m *stubMessageRepo) UpdateContent(context.Context, string, string, time.Time) error {
	return nil
}
func (m *stubMessageRepo) MarkDeleted(context.Context, string, time.Time) error { return nil }
func (m *stubMessageRepo) FindUnseen(context.Context, string, string) ([]model.Message, error) {
	return nil, nil
}
func (m *stubMessageRepo) FilterMessages(_ context.Context, groupID string, _ int64) (*db.PaginatedResult[model.Message], error) {
	if page, ok := m.pages[groupID]; ok {
		return page, nil
	}
	return &db.PaginatedResult[model.Message]{}, nil
}
