// Package handler exposes the HTTP and websocket surface of the triage
// backend: anonymous content submission, the staff queue, and the escalation
// lifecycle operations.
package handler

import (
	"peerhaven/backend/internal/escalation"
	"peerhaven/backend/internal/storage"
	"peerhaven/backend/internal/synchub"
)

// Handler carries the service dependencies for all routes.
type Handler struct {
	Hub         *synchub.ManagerService
	Escalations *escalation.Service
	Storage     storage.Storage
}

func NewHandler(hub *synchub.ManagerService, esc *escalation.Service, s storage.Storage) *Handler {
	return &Handler{
		Hub:         hub,
		Escalations: esc,
		Storage:     s,
	}
}
