package synchub_test

import (
	"sync"
	"time"

	"peerhaven/backend/internal/models"
	"peerhaven/backend/internal/storage"
	"peerhaven/backend/internal/synchub"

	"github.com/stretchr/testify/mock"
)

// MockStorage is a testify mock implementation of the storage.Storage
// interface for hub tests.
type MockStorage struct {
	mock.Mock
}

var _ storage.Storage = (*MockStorage)(nil)

func (m *MockStorage) SavePost(post *models.Post) error {
	args := m.Called(post)
	return args.Error(0)
}

func (m *MockStorage) GetPostByID(id string) (*models.Post, error) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Post), args.Error(1)
}

func (m *MockStorage) ListActivePosts() ([]models.Post, error) {
	args := m.Called()
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Post), args.Error(1)
}

func (m *MockStorage) SaveReply(reply *models.Reply) error {
	args := m.Called(reply)
	return args.Error(0)
}

func (m *MockStorage) SaveChatMessage(msg *models.ChatMessage) error {
	args := m.Called(msg)
	return args.Error(0)
}

func (m *MockStorage) GetSessionHistory(sessionID string) ([]models.ChatMessage, error) {
	args := m.Called(sessionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.ChatMessage), args.Error(1)
}

func (m *MockStorage) IncrementReportCount(contentID string, kind models.ContentKind) (int, error) {
	args := m.Called(contentID, kind)
	return args.Int(0), args.Error(1)
}

func (m *MockStorage) ClearReportCount(contentID string, kind models.ContentKind) error {
	args := m.Called(contentID, kind)
	return args.Error(0)
}

func (m *MockStorage) SetContentStatus(contentID string, kind models.ContentKind, status models.ContentStatus) error {
	args := m.Called(contentID, kind, status)
	return args.Error(0)
}

func (m *MockStorage) CreateEscalation(esc *models.Escalation) error {
	args := m.Called(esc)
	return args.Error(0)
}

func (m *MockStorage) GetEscalationByID(id string) (*models.Escalation, error) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Escalation), args.Error(1)
}

func (m *MockStorage) GetEscalationForContent(contentID string, kind models.ContentKind) (*models.Escalation, error) {
	args := m.Called(contentID, kind)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Escalation), args.Error(1)
}

func (m *MockStorage) ListEscalations(filter storage.EscalationFilter) ([]models.Escalation, error) {
	args := m.Called(filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Escalation), args.Error(1)
}

func (m *MockStorage) AssignEscalation(id, staffID string) (bool, error) {
	args := m.Called(id, staffID)
	return args.Bool(0), args.Error(1)
}

func (m *MockStorage) RaiseEscalationLevel(id string, level models.EscalationLevel, reason string) (bool, error) {
	args := m.Called(id, level, reason)
	return args.Bool(0), args.Error(1)
}

func (m *MockStorage) ResolveEscalation(id string, at time.Time) (bool, error) {
	args := m.Called(id, at)
	return args.Bool(0), args.Error(1)
}

func (m *MockStorage) ReopenEscalation(id string) (bool, error) {
	args := m.Called(id)
	return args.Bool(0), args.Error(1)
}

func (m *MockStorage) SaveModerationAction(action *models.ModerationAction) error {
	args := m.Called(action)
	return args.Error(0)
}

func (m *MockStorage) ListModerationActions(contentID string) ([]models.ModerationAction, error) {
	args := m.Called(contentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.ModerationAction), args.Error(1)
}

func (m *MockStorage) SaveStaff(user *models.StaffUser) error {
	args := m.Called(user)
	return args.Error(0)
}

func (m *MockStorage) GetStaffByID(id string) (*models.StaffUser, error) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.StaffUser), args.Error(1)
}

func (m *MockStorage) ListOnCallStaff() ([]models.StaffUser, error) {
	args := m.Called()
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.StaffUser), args.Error(1)
}

func (m *MockStorage) SetStaffOnCall(staffID string, onCall bool) error {
	args := m.Called(staffID, onCall)
	return args.Error(0)
}

func (m *MockStorage) PublishEvent(evt models.Event) error {
	args := m.Called(evt)
	return args.Error(0)
}

// mockClient is a test double for the synchub.Client interface.
type mockClient struct {
	staffID string
	send    chan models.Event
	closed  bool
	mu      sync.Mutex
}

func newMockClient(id string) *mockClient {
	return &mockClient{
		staffID: id,
		send:    make(chan models.Event, 10), // buffered to prevent blocking in tests
	}
}

func (c *mockClient) GetStaffID() string                  { return c.staffID }
func (c *mockClient) GetSendChannel() chan<- models.Event { return c.send }
func (c *mockClient) Run()                                {}

func (c *mockClient) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.closed {
		c.closed = true
		close(c.send)
	}
}

func (c *mockClient) drain() []models.Event {
	var events []models.Event
	for {
		select {
		case evt, ok := <-c.send:
			if !ok {
				return events
			}
			events = append(events, evt)
		default:
			return events
		}
	}
}

// fakeTransport is an in-memory Transport so hub tests run without redis.
type fakeTransport struct {
	mu       sync.Mutex
	nextID   int
	handlers map[string]map[int]synchub.EventHandler
	hooks    []func()

	Published []models.Event
}

func newFakeTransport() *fakeTransport {
	return &fakeTransport{handlers: make(map[string]map[int]synchub.EventHandler)}
}

func (t *fakeTransport) Subscribe(channel string, fn synchub.EventHandler) *synchub.Handle {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.nextID++
	id := t.nextID
	if t.handlers[channel] == nil {
		t.handlers[channel] = make(map[int]synchub.EventHandler)
	}
	t.handlers[channel][id] = fn
	return synchub.NewHandle(channel, func() {
		t.mu.Lock()
		defer t.mu.Unlock()
		delete(t.handlers[channel], id)
		if len(t.handlers[channel]) == 0 {
			delete(t.handlers, channel)
		}
	})
}

func (t *fakeTransport) Publish(evt models.Event) error {
	t.mu.Lock()
	t.Published = append(t.Published, evt)
	handlers := make([]synchub.EventHandler, 0)
	for _, fn := range t.handlers[evt.Channel] {
		handlers = append(handlers, fn)
	}
	t.mu.Unlock()

	for _, fn := range handlers {
		fn(evt)
	}
	return nil
}

func (t *fakeTransport) OnReconnect(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.hooks = append(t.hooks, fn)
}

func (t *fakeTransport) triggerReconnect() {
	t.mu.Lock()
	hooks := append([]func(){}, t.hooks...)
	t.mu.Unlock()
	for _, fn := range hooks {
		fn()
	}
}

func (t *fakeTransport) subscriberCount(channel string) int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.handlers[channel])
}
