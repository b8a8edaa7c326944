package escalation_test

import (
	"time"

	"peerhaven/backend/internal/models"
	"peerhaven/backend/internal/storage"

	"github.com/stretchr/testify/mock"
)

// MockStorage is a testify mock implementation of the storage.Storage
// interface, shared by the service tests in this package.
type MockStorage struct {
	mock.Mock
}

var _ storage.Storage = (*MockStorage)(nil)

func escalationNotFound() error { return storage.ErrNotFound }

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
