package hub

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/MBSciTech/EcoChat/internal/auth"
	"github.com/MBSciTech/EcoChat/internal/db"
	"github.com/MBSciTech/EcoChat/internal/event"
	"github.com/MBSciTech/EcoChat/internal/model"
	"github.com/MBSciTech/EcoChat/internal/repo"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// In-memory repository doubles. They honor the same not-found semantics
// as the Mongo-backed implementations so handlers behave identically.

type memMessageRepo struct {
	mu   sync.Mutex
	byID map[string]*model.Message

	insertErr error
	updateErr error
}

func newMemMessageRepo() *memMessageRepo {
	return &memMessageRepo{byID: make(map[string]*model.Message)}
}

// copyMessage mimics the driver decoding a fresh document per read, so
// handler mutations never alias the stored record.
func copyMessage(m *model.Message) *model.Message {
	out := *m
	out.Reactions = append([]model.Reaction(nil), m.Reactions...)
	out.Status = model.DeliveryStatus{
		Sent:      copyBoolMap(m.Status.Sent),
		Delivered: copyBoolMap(m.Status.Delivered),
		Seen:      copyBoolMap(m.Status.Seen),
	}
	out.Poll = copyPoll(m.Poll)
	if m.DeletedAt != nil {
		at := *m.DeletedAt
		out.DeletedAt = &at
	}
	return &out
}

func copyBoolMap(in map[string]bool) map[string]bool {
	if in == nil {
		return nil
	}
	out := make(map[string]bool, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

func copyPoll(p *model.Poll) *model.Poll {
	if p == nil {
		return nil
	}
	out := model.Poll{Question: p.Question}
	for _, opt := range p.Options {
		out.Options = append(out.Options, model.PollOption{
			Text:  opt.Text,
			Votes: append([]string(nil), opt.Votes...),
		})
	}
	return &out
}

func (m *memMessageRepo) InsertMessage(_ context.Context, msg *model.Message) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.insertErr != nil {
		return "", m.insertErr
	}
	if msg.ID.IsZero() {
		msg.ID = primitive.NewObjectID()
	}
	m.byID[msg.ID.Hex()] = copyMessage(msg)
	return msg.ID.Hex(), nil
}

func (m *memMessageRepo) FindMessage(_ context.Context, id string) (*model.Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	msg, ok := m.byID[id]
	if !ok {
		return nil, repo.ErrNotFound
	}
	return copyMessage(msg), nil
}

func (m *memMessageRepo) get(t *testing.T, id string) *model.Message {
	t.Helper()
	m.mu.Lock()
	defer m.mu.Unlock()
	msg, ok := m.byID[id]
	require.True(t, ok, "message %s should exist", id)
	return msg
}

// fetch returns the stored record, honoring the injected update error,
// so the update methods below can $set fields the way the driver would.
func (m *memMessageRepo) fetch(id string) (*model.Message, error) {
	if m.updateErr != nil {
		return nil, m.updateErr
	}
	msg, ok := m.byID[id]
	if !ok {
		return nil, repo.ErrNotFound
	}
	return msg, nil
}

func (m *memMessageRepo) UpdateStatus(_ context.Context, id string, status model.DeliveryStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	msg, err := m.fetch(id)
	if err != nil {
		return err
	}
	msg.Status = model.DeliveryStatus{
		Sent:      copyBoolMap(status.Sent),
		Delivered: copyBoolMap(status.Delivered),
		Seen:      copyBoolMap(status.Seen),
	}
	return nil
}

func (m *memMessageRepo) UpdateReactions(_ context.Context, id string, reactions []model.Reaction) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	msg, err := m.fetch(id)
	if err != nil {
		return err
	}
	msg.Reactions = append([]model.Reaction(nil), reactions...)
	return nil
}

func (m *memMessageRepo) UpdatePoll(_ context.Context, id string, poll *model.Poll) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	msg, err := m.fetch(id)
	if err != nil {
		return err
	}
	msg.Poll = copyPoll(poll)
	return nil
}

func (m *memMessageRepo) UpdateContent(_ context.Context, id string, content string, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	msg, err := m.fetch(id)
	if err != nil {
		return err
	}
	msg.Content = content
	msg.UpdatedAt = at
	return nil
}

func (m *memMessageRepo) MarkDeleted(_ context.Context, id string, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	msg, err := m.fetch(id)
	if err != nil {
		return err
	}
	msg.MarkDeleted(at)
	return nil
}

func (m *memMessageRepo) FindUnseen(_ context.Context, groupID, userID string) ([]model.Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []model.Message
	for _, msg := range m.byID {
		if msg.GroupID != groupID || msg.SenderID == userID || msg.Deleted {
			continue
		}
		if msg.Status.Seen[userID] {
			continue
		}
		out = append(out, *copyMessage(msg))
	}
	return out, nil
}

func (m *memMessageRepo) FilterMessages(_ context.Context, groupID string, page int64) (*db.PaginatedResult[model.Message], error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []model.Message
	for _, msg := range m.byID {
		if msg.GroupID == groupID {
			out = append(out, *copyMessage(msg))
		}
	}
	return &db.PaginatedResult[model.Message]{
		Data:     out,
		Total:    int64(len(out)),
		Page:     page,
		PageSize: int64(len(out)),
	}, nil
}

type memGroupRepo struct {
	mu   sync.Mutex
	byID map[string]*model.Group
}

func newMemGroupRepo() *memGroupRepo {
	return &memGroupRepo{byID: make(map[string]*model.Group)}
}

func (g *memGroupRepo) InsertGroup(_ context.Context, group *model.Group) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if group.ID.IsZero() {
		group.ID = primitive.NewObjectID()
	}
	g.byID[group.ID.Hex()] = group
	return group.ID.Hex(), nil
}

func (g *memGroupRepo) FindGroup(_ context.Context, id string) (*model.Group, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	group, ok := g.byID[id]
	if !ok {
		return nil, repo.ErrNotFound
	}
	return group, nil
}

func (g *memGroupRepo) GroupsForMember(_ context.Context, userID string) ([]model.Group, error) {
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

func (g *memGroupRepo) UpdateMembers(_ context.Context, id string, members, admins []string) error {
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

type memUserRepo struct {
	mu   sync.Mutex
	byID map[string]*model.User

	// last persisted presence per user
	presence map[string]string
}

func newMemUserRepo() *memUserRepo {
	return &memUserRepo{
		byID:     make(map[string]*model.User),
		presence: make(map[string]string),
	}
}

func (u *memUserRepo) InsertUser(_ context.Context, user *model.User) (string, error) {
	u.mu.Lock()
	defer u.mu.Unlock()
	if user.ID.IsZero() {
		user.ID = primitive.NewObjectID()
	}
	u.byID[user.ID.Hex()] = user
	return user.ID.Hex(), nil
}

func (u *memUserRepo) FindByID(_ context.Context, id string) (*model.User, error) {
	u.mu.Lock()
	defer u.mu.Unlock()
	user, ok := u.byID[id]
	if !ok {
		return nil, repo.ErrNotFound
	}
	return user, nil
}

func (u *memUserRepo) FindByEmail(_ context.Context, email string) (*model.User, error) {
	u.mu.Lock()
	defer u.mu.Unlock()
	for _, user := range u.byID {
		if user.Email == email {
			return user, nil
		}
	}
	return nil, repo.ErrNotFound
}

func (u *memUserRepo) FindByIDs(_ context.Context, ids []string) ([]model.User, error) {
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

func (u *memUserRepo) UpdatePresence(_ context.Context, userID, status string, _ time.Time) error {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.presence[userID] = status
	return nil
}

func (u *memUserRepo) presenceOf(userID string) string {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.presence[userID]
}

// testRig wires a hub, a chat handler and the in-memory repositories.
type testRig struct {
	hub      *Hub
	handler  *ChatHandler
	messages *memMessageRepo
	groups   *memGroupRepo
	users    *memUserRepo
}

func newTestRig(t *testing.T) *testRig {
	t.Helper()

	users := newMemUserRepo()
	tokens := auth.NewTokenManager("test-secret", time.Hour)
	h := NewHub(users, tokens, nil, zap.NewNop())
	t.Cleanup(h.Stop)

	rig := &testRig{
		hub:      h,
		messages: newMemMessageRepo(),
		groups:   newMemGroupRepo(),
		users:    users,
	}
	rig.handler = NewChatHandler(h, rig.messages, rig.groups, rig.users, zap.NewNop())
	h.SetHandler(rig.handler.HandleEvent)
	return rig
}

// connect registers a pump-less client so tests can inspect its egress
// channel directly.
func (r *testRig) connect(userID string) *Client {
	c := newClient(userID, nil, r.hub)
	r.hub.addClient(c)
	return c
}

func (r *testRig) addGroup(t *testing.T, creator string, members ...string) *model.Group {
	t.Helper()
	group := model.NewGroup("room", "", creator)
	for _, m := range members {
		group.AddMember(m)
	}
	_, err := r.groups.InsertGroup(context.Background(), group)
	require.NoError(t, err)
	return group
}

func (r *testRig) dispatch(t *testing.T, c *Client, name string, payload any) {
	t.Helper()
	raw, err := json.Marshal(payload)
	require.NoError(t, err)
	r.handler.HandleEvent(event.WsEvent{Event: name, Payload: raw}, c)
}

// nextEvent pops one queued outbound event, failing the test when the
// client heard nothing.
func nextEvent(t *testing.T, c *Client) event.WsEvent {
	t.Helper()
	select {
	case ev := <-c.egress:
		return ev
	case <-time.After(time.Second):
		t.Fatalf("no event queued for user %s", c.userID)
		return event.WsEvent{}
	}
}

func requireNoEvent(t *testing.T, c *Client) {
	t.Helper()
	select {
	case ev := <-c.egress:
		t.Fatalf("unexpected event %q queued for user %s", ev.Event, c.userID)
	default:
	}
}

func requireErrorEvent(t *testing.T, c *Client, code string) {
	t.Helper()
	ev := nextEvent(t, c)
	require.Equal(t, event.EventError, ev.Event)

	var payload model.ErrorPayload
	require.NoError(t, json.Unmarshal(ev.Payload, &payload))
	require.Equal(t, code, payload.Code)
}

func decodePayload[T any](t *testing.T, ev event.WsEvent) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(ev.Payload, &out))
	return out
}
