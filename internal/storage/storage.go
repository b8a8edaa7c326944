package storage

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"time"

	"peerhaven/backend/internal/models"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("record not found")

// EventKeyPrefix namespaces the redis pub/sub keys used by the sync
// transport. A subscriber listens on EventKeyPrefix + "*".
const EventKeyPrefix = "triage:"

// EscalationFilter narrows ListEscalations. Zero values mean "no filter".
type EscalationFilter struct {
	Status     models.EscalationStatus
	MinLevel   models.EscalationLevel
	AssignedTo string
}

// Storage is the persistence boundary of the triage core. The backing
// database is the sole source of truth for conflict resolution: assignment is
// first-writer-wins and level raises are monotonic, both enforced by guarded
// updates.
type Storage interface {
	SavePost(post *models.Post) error
	GetPostByID(id string) (*models.Post, error)
	ListActivePosts() ([]models.Post, error)
	SaveReply(reply *models.Reply) error
	SaveChatMessage(msg *models.ChatMessage) error
	GetSessionHistory(sessionID string) ([]models.ChatMessage, error)
	IncrementReportCount(contentID string, kind models.ContentKind) (int, error)
	ClearReportCount(contentID string, kind models.ContentKind) error
	SetContentStatus(contentID string, kind models.ContentKind, status models.ContentStatus) error

	CreateEscalation(esc *models.Escalation) error
	GetEscalationByID(id string) (*models.Escalation, error)
	GetEscalationForContent(contentID string, kind models.ContentKind) (*models.Escalation, error)
	ListEscalations(filter EscalationFilter) ([]models.Escalation, error)
	AssignEscalation(id, staffID string) (bool, error)
	RaiseEscalationLevel(id string, level models.EscalationLevel, reason string) (bool, error)
	ResolveEscalation(id string, at time.Time) (bool, error)
	ReopenEscalation(id string) (bool, error)

	SaveModerationAction(action *models.ModerationAction) error
	ListModerationActions(contentID string) ([]models.ModerationAction, error)

	SaveStaff(user *models.StaffUser) error
	GetStaffByID(id string) (*models.StaffUser, error)
	ListOnCallStaff() ([]models.StaffUser, error)
	SetStaffOnCall(staffID string, onCall bool) error

	PublishEvent(evt models.Event) error
}

// Service implements Storage on PostgreSQL (gorm) plus Redis for pub/sub and
// fast flags.
type Service struct {
	DB    *gorm.DB
	Redis *redis.Client
	Ctx   context.Context
}

// NewStorageService Constructor
func NewStorageService(db *gorm.DB, rdb *redis.Client) *Service {
	return &Service{
		DB:    db,
		Redis: rdb,
		Ctx:   context.Background(),
	}
}

func (s *Service) SavePost(post *models.Post) error {
	return s.DB.Save(post).Error
}

func (s *Service) GetPostByID(id string) (*models.Post, error) {
	var post models.Post
	err := s.DB.Where("id = ?", id).First(&post).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		log.Printf("ERROR: Failed to get post %s: %v", id, err)
		return nil, err
	}
	return &post, nil
}

func (s *Service) ListActivePosts() ([]models.Post, error) {
	var posts []models.Post
	err := s.DB.Where("status <> ?", models.ContentArchived).
		Order("created_at desc").
		Find(&posts).Error
	if err != nil {
		return nil, err
	}
	return posts, nil
}

func (s *Service) SaveReply(reply *models.Reply) error {
	return s.DB.Save(reply).Error
}

func (s *Service) SaveChatMessage(msg *models.ChatMessage) error {
	if err := s.DB.Create(msg).Error; err != nil {
		log.Printf("ERROR: Failed to save message for session %s: %v", msg.SessionID, err)
		return err
	}
	return nil
}

// GetSessionHistory loads session messages ordered by creation time.
func (s *Service) GetSessionHistory(sessionID string) ([]models.ChatMessage, error) {
	var history []models.ChatMessage
	if err := s.DB.Where("session_id = ?", sessionID).Order("created_at asc").Find(&history).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return history, nil
		}
		log.Printf("ERROR: Failed to get history for session %s: %v", sessionID, err)
		return nil, err
	}
	return history, nil
}

func tableFor(kind models.ContentKind) interface{} {
	switch kind {
	case models.KindReply:
		return &models.Reply{}
	case models.KindMessage:
		return &models.ChatMessage{}
	default:
		return &models.Post{}
	}
}

// IncrementReportCount bumps the report counter atomically and returns the
// new count.
func (s *Service) IncrementReportCount(contentID string, kind models.ContentKind) (int, error) {
	res := s.DB.Model(tableFor(kind)).
		Where("id = ?", contentID).
		UpdateColumn("reported_count", gorm.Expr("reported_count + 1"))
	if res.Error != nil {
		return 0, res.Error
	}
	if res.RowsAffected == 0 {
		return 0, ErrNotFound
	}

	var count int
	if err := s.DB.Model(tableFor(kind)).
		Where("id = ?", contentID).
		Pluck("reported_count", &count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (s *Service) ClearReportCount(contentID string, kind models.ContentKind) error {
	return s.DB.Model(tableFor(kind)).
		Where("id = ?", contentID).
		UpdateColumn("reported_count", 0).Error
}

func (s *Service) SetContentStatus(contentID string, kind models.ContentKind, status models.ContentStatus) error {
	return s.DB.Model(tableFor(kind)).
		Where("id = ?", contentID).
		UpdateColumn("status", status).Error
}

func (s *Service) CreateEscalation(esc *models.Escalation) error {
	if err := s.DB.Create(esc).Error; err != nil {
		log.Printf("ERROR: Failed to create escalation for content %s: %v", esc.ContentID, err)
		return err
	}
	return nil
}

func (s *Service) GetEscalationByID(id string) (*models.Escalation, error) {
	var esc models.Escalation
	err := s.DB.Where("id = ?", id).First(&esc).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &esc, nil
}

func (s *Service) GetEscalationForContent(contentID string, kind models.ContentKind) (*models.Escalation, error) {
	var esc models.Escalation
	err := s.DB.Where("content_id = ? AND content_kind = ?", contentID, kind).First(&esc).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &esc, nil
}

func (s *Service) ListEscalations(filter EscalationFilter) ([]models.Escalation, error) {
	query := s.DB.Model(&models.Escalation{})
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.MinLevel != "" {
		query = query.Where("level_rank >= ?", filter.MinLevel.Rank())
	}
	if filter.AssignedTo != "" {
		query = query.Where("assigned_to = ?", filter.AssignedTo)
	}

	var escalations []models.Escalation
	if err := query.Order("level_rank desc, detected_at desc").Find(&escalations).Error; err != nil {
		log.Printf("ERROR: Failed to list escalations: %v", err)
		return nil, err
	}
	return escalations, nil
}

// AssignEscalation claims an escalation for a staff member. The guarded
// update serializes concurrent claims: only the first writer sees a row with
// no assignee, every later caller gets false back.
func (s *Service) AssignEscalation(id, staffID string) (bool, error) {
	res := s.DB.Model(&models.Escalation{}).
		Where("id = ? AND assigned_to IS NULL AND status = ?", id, models.StatusPending).
		Updates(map[string]interface{}{
			"assigned_to": staffID,
			"status":      models.StatusInProgress,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// RaiseEscalationLevel applies a level raise only when the new level is
// strictly stronger, so concurrent signals can never lower a level.
func (s *Service) RaiseEscalationLevel(id string, level models.EscalationLevel, reason string) (bool, error) {
	res := s.DB.Model(&models.Escalation{}).
		Where("id = ? AND level_rank < ?", id, level.Rank()).
		Updates(map[string]interface{}{
			"level":      level,
			"level_rank": level.Rank(),
			"reason":     reason,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (s *Service) ResolveEscalation(id string, at time.Time) (bool, error) {
	res := s.DB.Model(&models.Escalation{}).
		Where("id = ? AND status = ?", id, models.StatusInProgress).
		Updates(map[string]interface{}{
			"status":      models.StatusResolved,
			"resolved_at": at,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// ReopenEscalation drops a resolved escalation back to pending. The assignee
// is cleared; a pending record with an assignee would violate the lifecycle
// invariant.
func (s *Service) ReopenEscalation(id string) (bool, error) {
	res := s.DB.Model(&models.Escalation{}).
		Where("id = ? AND status = ?", id, models.StatusResolved).
		Updates(map[string]interface{}{
			"status":      models.StatusPending,
			"assigned_to": nil,
			"resolved_at": nil,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (s *Service) SaveModerationAction(action *models.ModerationAction) error {
	if err := s.DB.Create(action).Error; err != nil {
		log.Printf("ERROR: Failed to save moderation action for content %s: %v", action.ContentID, err)
		return err
	}
	return nil
}

func (s *Service) ListModerationActions(contentID string) ([]models.ModerationAction, error) {
	var actions []models.ModerationAction
	if err := s.DB.Where("content_id = ?", contentID).Order("created_at asc").Find(&actions).Error; err != nil {
		return nil, err
	}
	return actions, nil
}

func (s *Service) SaveStaff(user *models.StaffUser) error {
	return s.DB.Save(user).Error
}

func (s *Service) GetStaffByID(id string) (*models.StaffUser, error) {
	var user models.StaffUser
	err := s.DB.Where("id = ?", id).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (s *Service) ListOnCallStaff() ([]models.StaffUser, error) {
	var staff []models.StaffUser
	if err := s.DB.Where("on_call = ?", true).Find(&staff).Error; err != nil {
		return nil, err
	}
	return staff, nil
}

// SetStaffOnCall flips the on-call flag in PostgreSQL and mirrors it in Redis
// so hot paths can check it without a database round trip.
func (s *Service) SetStaffOnCall(staffID string, onCall bool) error {
	if err := s.DB.Model(&models.StaffUser{}).
		Where("id = ?", staffID).
		UpdateColumn("on_call", onCall).Error; err != nil {
		return err
	}

	key := "oncall:" + staffID
	if onCall {
		return s.Redis.Set(s.Ctx, key, "1", 0).Err()
	}
	return s.Redis.Del(s.Ctx, key).Err()
}

// PublishEvent pushes a change event into Redis Pub/Sub under the triage key
// prefix. Delivery to subscribers is at-least-once; per-key ordering follows
// publish order.
func (s *Service) PublishEvent(evt models.Event) error {
	payload, err := json.Marshal(evt)
	if err != nil {
		return err
	}

	if err := s.Redis.Publish(s.Ctx, EventKeyPrefix+evt.Channel, string(payload)).Err(); err != nil {
		log.Printf("ERROR: Failed to publish event on %s: %v", evt.Channel, err)
		return err
	}
	return nil
}
