package synchub

import (
	"encoding/json"
	"log"
	"strings"

	"peerhaven/backend/internal/models"
	"peerhaven/backend/internal/storage"
)

type subscribeCmd struct {
	client  Client
	channel string
	add     bool
}

// ManagerService is the staff-facing hub. One goroutine owns the client map
// and the per-channel subscription registry; all mutations arrive over
// channels, so no lock is needed around the shared view state.
type ManagerService struct {
	Clients map[string]Client

	RegisterCh   chan Client
	UnregisterCh chan Client
	EventCh      chan models.Event

	subscribeCh chan subscribeCmd
	catchUpCh   chan struct{}

	Storage   storage.Storage
	Transport Transport

	// channel key -> staff id -> client
	subs    map[string]map[string]Client
	handles map[string]*Handle
}

// NewManagerService wires the hub to its storage and transport collaborators.
func NewManagerService(s storage.Storage, t Transport) *ManagerService {
	return &ManagerService{
		Clients:      make(map[string]Client),
		RegisterCh:   make(chan Client),
		UnregisterCh: make(chan Client),
		EventCh:      make(chan models.Event, 64),
		subscribeCh:  make(chan subscribeCmd, 64),
		catchUpCh:    make(chan struct{}, 1),
		Storage:      s,
		Transport:    t,
		subs:         make(map[string]map[string]Client),
		handles:      make(map[string]*Handle),
	}
}

// Subscribe follows a channel key on behalf of a client. The actual registry
// update happens on the hub goroutine.
func (m *ManagerService) Subscribe(client Client, channel string) {
	m.subscribeCh <- subscribeCmd{client: client, channel: channel, add: true}
}

// Unsubscribe drops a client's interest in a channel key. Idempotent.
func (m *ManagerService) Unsubscribe(client Client, channel string) {
	m.subscribeCh <- subscribeCmd{client: client, channel: channel, add: false}
}

// Run is the hub main loop.
func (m *ManagerService) Run() {
	if m.Transport != nil {
		m.Transport.OnReconnect(m.enqueueCatchUp)
	}

	for {
		select {
		case client := <-m.RegisterCh:
			m.Clients[client.GetStaffID()] = client

		case client := <-m.UnregisterCh:
			m.removeClient(client)

		case cmd := <-m.subscribeCh:
			if cmd.add {
				m.addSubscription(cmd.client, cmd.channel)
			} else {
				m.dropSubscription(cmd.client, cmd.channel)
			}

		case evt := <-m.EventCh:
			m.fanOut(evt)

		case <-m.catchUpCh:
			m.catchUp()
		}
	}
}

func (m *ManagerService) addSubscription(client Client, channel string) {
	if _, ok := m.Clients[client.GetStaffID()]; !ok {
		return // unsubscribed client raced its own teardown
	}
	if m.subs[channel] == nil {
		m.subs[channel] = make(map[string]Client)
	}
	m.subs[channel][client.GetStaffID()] = client

	// First interest in this key opens the transport subscription.
	if _, ok := m.handles[channel]; !ok && m.Transport != nil {
		m.handles[channel] = m.Transport.Subscribe(channel, func(evt models.Event) {
			m.EventCh <- evt
		})
	}
}

func (m *ManagerService) dropSubscription(client Client, channel string) {
	if clients, ok := m.subs[channel]; ok {
		delete(clients, client.GetStaffID())
		if len(clients) == 0 {
			delete(m.subs, channel)
			if handle, ok := m.handles[channel]; ok {
				handle.Unsubscribe()
				delete(m.handles, channel)
			}
		}
	}
}

func (m *ManagerService) removeClient(client Client) {
	staffID := client.GetStaffID()
	if _, ok := m.Clients[staffID]; !ok {
		return
	}
	delete(m.Clients, staffID)

	for channel := range m.subs {
		m.dropSubscription(client, channel)
	}
	client.Close()
}

// fanOut delivers an event to every client following its channel. A client
// whose send buffer is full gets dropped rather than stalling the hub.
func (m *ManagerService) fanOut(evt models.Event) {
	for _, client := range m.subs[evt.Channel] {
		select {
		case client.GetSendChannel() <- evt:
		default:
			log.Printf("WARNING: Dropping slow staff client %s", client.GetStaffID())
			m.removeClient(client)
		}
	}
}

// enqueueCatchUp is called from the transport goroutine; the actual re-fetch
// runs on the hub goroutine where the subscription registry lives.
func (m *ManagerService) enqueueCatchUp() {
	select {
	case m.catchUpCh <- struct{}{}:
	default: // one pending catch-up covers any number of reconnects
	}
}

// catchUp re-fetches current state for each open channel after the transport
// reconnected, since events missed during the outage are not replayed.
// Records are re-emitted as updates; consumers are idempotent against
// duplicates.
func (m *ManagerService) catchUp() {
	escalations, err := m.Storage.ListEscalations(storage.EscalationFilter{})
	if err != nil {
		log.Printf("ERROR: Catch-up failed to list escalations: %v", err)
		return
	}
	for i := range escalations {
		record, err := json.Marshal(&escalations[i])
		if err != nil {
			continue
		}
		m.fanOut(models.Event{
			Type:    models.EventUpdate,
			Channel: models.ChannelEscalations,
			Record:  record,
		})
	}

	for channel := range m.subs {
		if !strings.HasPrefix(channel, "session:") {
			continue
		}
		sessionID := strings.TrimPrefix(channel, "session:")
		history, err := m.Storage.GetSessionHistory(sessionID)
		if err != nil {
			log.Printf("ERROR: Catch-up failed for session %s: %v", sessionID, err)
			continue
		}
		for i := range history {
			record, err := json.Marshal(&history[i])
			if err != nil {
				continue
			}
			m.fanOut(models.Event{
				Type:    models.EventUpdate,
				Channel: channel,
				Record:  record,
			})
		}
	}
}
