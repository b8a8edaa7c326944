// Package escalation owns the escalation lifecycle: detection on new content,
// first-writer-wins assignment, authorized resolution and reopening, and
// monotonic level raises. Every transition appends a moderation audit record
// and publishes a change event on the escalations channel.
package escalation

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"peerhaven/backend/internal/models"
	"peerhaven/backend/internal/storage"
	"peerhaven/backend/internal/triage"
)

// SystemActor is recorded as the actor on transitions the classifier
// triggers on its own.
const SystemActor = "system"

// Service handles the business logic for escalations.
type Service struct {
	Storage storage.Storage

	// now is swappable for tests.
	now func() time.Time
}

// NewService creates a new escalation service.
func NewService(s storage.Storage) *Service {
	return &Service{
		Storage: s,
		now:     time.Now,
	}
}

// HandleNewContent runs the classifier over freshly created content and, when
// a risk threshold is crossed, opens a pending escalation. Returns nil when
// the content classifies as none. Classification failures never block the
// submission; they degrade to no escalation.
func (s *Service) HandleNewContent(contentID string, kind models.ContentKind, body string, category models.Category) (*models.Escalation, error) {
	level, reason := triage.Classify(body, category)
	if level == models.LevelNone {
		return nil, nil
	}
	return s.escalate(contentID, kind, level, reason)
}

// HandleReport increments the content's report counter and raises (or opens)
// the escalation when the report volume crosses a threshold. A weaker report
// signal never lowers an existing level.
func (s *Service) HandleReport(contentID string, kind models.ContentKind) (*models.Escalation, error) {
	count, err := s.Storage.IncrementReportCount(contentID, kind)
	if err != nil {
		return nil, err
	}

	level := triage.ReportLevel(count)
	if level == models.LevelNone {
		return nil, nil
	}

	existing, err := s.Storage.GetEscalationForContent(contentID, kind)
	if errors.Is(err, storage.ErrNotFound) {
		esc, createErr := s.escalate(contentID, kind, level, reasonForReports(count))
		if createErr == nil {
			return esc, nil
		}
		// A concurrent report won the insert against the one-escalation-per-
		// content index; raise its record instead of surfacing the conflict.
		existing, err = s.Storage.GetEscalationForContent(contentID, kind)
		if err != nil {
			return nil, createErr
		}
	} else if err != nil {
		return nil, err
	}

	return existing, s.RaiseLevel(existing.ID, level, reasonForReports(count))
}

func reasonForReports(count int) string {
	return fmt.Sprintf("report volume reached %d", count)
}

// escalate opens the pending escalation record, flips the content status,
// writes the audit row and fans the insert out to queue viewers.
func (s *Service) escalate(contentID string, kind models.ContentKind, level models.EscalationLevel, reason string) (*models.Escalation, error) {
	esc := &models.Escalation{
		ContentID:   contentID,
		ContentKind: kind,
		Level:       level,
		Reason:      reason,
		DetectedAt:  s.now(),
		Status:      models.StatusPending,
	}
	if err := s.Storage.CreateEscalation(esc); err != nil {
		return nil, err
	}

	if err := s.Storage.SetContentStatus(contentID, kind, models.ContentEscalated); err != nil {
		log.Printf("WARNING: Escalation %s created but content status update failed: %v", esc.ID, err)
	}
	s.audit(contentID, models.ActionEscalated, SystemActor)
	s.publish(models.EventInsert, esc)

	return esc, nil
}

// Assign claims the escalation for a staff member. First assignment wins: if
// someone else already holds it, the call fails with ErrAlreadyAssigned and
// the existing assignee is untouched. Assigning to the current assignee again
// is a no-op.
func (s *Service) Assign(escalationID, staffID string) (*models.Escalation, error) {
	claimed, err := s.Storage.AssignEscalation(escalationID, staffID)
	if err != nil {
		return nil, err
	}

	esc, err := s.Storage.GetEscalationByID(escalationID)
	if err != nil {
		return nil, err
	}

	if !claimed {
		if esc.AssignedTo != nil && *esc.AssignedTo == staffID {
			return esc, nil
		}
		return esc, ErrAlreadyAssigned
	}

	s.audit(esc.ContentID, models.ActionAssigned, staffID)
	s.publish(models.EventUpdate, esc)
	return esc, nil
}

// Resolve closes an in-progress escalation. Only the current assignee or an
// override-capable role (executive, admin) may resolve. Resolving a pending
// escalation fails with ErrInvalidTransition.
func (s *Service) Resolve(escalationID string, actor *models.StaffUser) (*models.Escalation, error) {
	esc, err := s.Storage.GetEscalationByID(escalationID)
	if err != nil {
		return nil, err
	}

	if !s.mayTransition(esc, actor) {
		return esc, ErrUnauthorized
	}

	done, err := s.Storage.ResolveEscalation(escalationID, s.now())
	if err != nil {
		return nil, err
	}
	if !done {
		return esc, ErrInvalidTransition
	}

	esc, err = s.Storage.GetEscalationByID(escalationID)
	if err != nil {
		return nil, err
	}
	s.audit(esc.ContentID, models.ActionResolved, actor.ID)
	s.publish(models.EventUpdate, esc)
	return esc, nil
}

// Reopen drops a resolved escalation back to pending. Separately authorized
// and always logged as a moderation action.
func (s *Service) Reopen(escalationID string, actor *models.StaffUser) (*models.Escalation, error) {
	esc, err := s.Storage.GetEscalationByID(escalationID)
	if err != nil {
		return nil, err
	}

	if !s.mayTransition(esc, actor) {
		return esc, ErrUnauthorized
	}

	done, err := s.Storage.ReopenEscalation(escalationID)
	if err != nil {
		return nil, err
	}
	if !done {
		return esc, ErrInvalidTransition
	}

	esc, err = s.Storage.GetEscalationByID(escalationID)
	if err != nil {
		return nil, err
	}
	s.audit(esc.ContentID, models.ActionReopened, actor.ID)
	s.publish(models.EventUpdate, esc)
	return esc, nil
}

// RaiseLevel applies a level-only update. It changes no lifecycle state; a
// level weaker than the current one is silently ignored. Raises are visible
// to queue viewers on the next sync event.
func (s *Service) RaiseLevel(escalationID string, level models.EscalationLevel, reason string) error {
	raised, err := s.Storage.RaiseEscalationLevel(escalationID, level, reason)
	if err != nil {
		return err
	}
	if !raised {
		return nil
	}

	esc, err := s.Storage.GetEscalationByID(escalationID)
	if err != nil {
		return err
	}
	s.publish(models.EventUpdate, esc)
	return nil
}

// ApproveContent clears a content item after review: report counter reset,
// status back to active, audit row appended.
func (s *Service) ApproveContent(contentID string, kind models.ContentKind, actor *models.StaffUser) error {
	if err := s.Storage.ClearReportCount(contentID, kind); err != nil {
		return err
	}
	if err := s.Storage.SetContentStatus(contentID, kind, models.ContentActive); err != nil {
		return err
	}
	s.audit(contentID, models.ActionApproved, actor.ID)
	return nil
}

// RemoveContent archives a content item after review.
func (s *Service) RemoveContent(contentID string, kind models.ContentKind, actor *models.StaffUser) error {
	if err := s.Storage.SetContentStatus(contentID, kind, models.ContentArchived); err != nil {
		return err
	}
	s.audit(contentID, models.ActionRemoved, actor.ID)
	return nil
}

func (s *Service) mayTransition(esc *models.Escalation, actor *models.StaffUser) bool {
	if actor == nil {
		return false
	}
	if actor.Role.CanOverride() {
		return true
	}
	return esc.AssignedTo != nil && *esc.AssignedTo == actor.ID
}

func (s *Service) audit(contentID string, action models.ModerationActionType, actorID string) {
	entry := &models.ModerationAction{
		ContentID: contentID,
		Action:    action,
		ActorID:   actorID,
	}
	if err := s.Storage.SaveModerationAction(entry); err != nil {
		log.Printf("ERROR: Failed to append moderation action %s for %s: %v", action, contentID, err)
	}
}

func (s *Service) publish(eventType models.EventType, esc *models.Escalation) {
	record, err := json.Marshal(esc)
	if err != nil {
		log.Printf("ERROR: Failed to encode escalation %s: %v", esc.ID, err)
		return
	}

	evt := models.Event{
		Type:    eventType,
		Channel: models.ChannelEscalations,
		Record:  record,
	}
	if err := s.Storage.PublishEvent(evt); err != nil {
		// Subscribers recover via catch-up on their next reconnect.
		log.Printf("ERROR: Failed to publish escalation event for %s: %v", esc.ID, err)
	}
}
