package synchub

import "peerhaven/backend/internal/models"

// Client is the interface for any connected staff viewer. It abstracts the
// underlying connection so the hub can manage websocket clients and test
// doubles uniformly.
type Client interface {
	// GetStaffID returns the unique identifier of the staff member behind
	// the connection.
	GetStaffID() string

	// GetSendChannel returns the channel the hub pushes change events into.
	// It is a send-only channel from the hub's point of view.
	GetSendChannel() chan<- models.Event

	// Run starts the client's read and write pumps.
	Run()
	// Close shuts the client down. Safe to call more than once.
	Close()
}
