// Package alert pages on-call staff over Telegram when an escalation reaches
// the critical level. It is a pure consumer of the sync transport; it never
// feeds back into triage state.
package alert

import (
	"encoding/json"
	"fmt"
	"log"
	"sync"

	"peerhaven/backend/internal/models"
	"peerhaven/backend/internal/storage"
	"peerhaven/backend/internal/synchub"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// maxTrackedAlerts bounds the dedup set. When it fills, the whole set is
// discarded; a long-resolved escalation re-delivered after that may page
// twice.
const maxTrackedAlerts = 1024

// Sender is the part of the Telegram bot API the notifier needs.
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// Notifier watches the escalations channel and alerts on-call staff. Paging
// involves database and Telegram round trips, so events are queued and worked
// off a dedicated goroutine instead of blocking the transport dispatch.
type Notifier struct {
	Bot       Sender
	Storage   storage.Storage
	Transport synchub.Transport

	events   chan models.Event
	done     chan struct{}
	stopOnce sync.Once
	// alerted is owned by the worker goroutine.
	alerted map[string]bool
	handle  *synchub.Handle
}

// NewNotifier creates the notifier around an authorized bot.
func NewNotifier(token string, s storage.Storage, t synchub.Transport) (*Notifier, error) {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, err
	}
	bot.Debug = false
	log.Printf("Alert bot authorized on account %s", bot.Self.UserName)

	return &Notifier{
		Bot:       bot,
		Storage:   s,
		Transport: t,
		events:    make(chan models.Event, 64),
		done:      make(chan struct{}),
		alerted:   make(map[string]bool),
	}, nil
}

// Run subscribes to the escalations channel and starts the paging worker.
// Call Stop to detach.
func (n *Notifier) Run() {
	n.handle = n.Transport.Subscribe(models.ChannelEscalations, n.enqueue)
	go n.loop()
}

// Stop detaches from the transport and stops the worker. Idempotent.
func (n *Notifier) Stop() {
	if n.handle != nil {
		n.handle.Unsubscribe()
	}
	n.stopOnce.Do(func() { close(n.done) })
}

// enqueue runs on the transport dispatch goroutine and must not block it.
func (n *Notifier) enqueue(evt models.Event) {
	select {
	case n.events <- evt:
	default:
		log.Printf("WARNING: Alert queue full, dropping event on %s", evt.Channel)
	}
}

func (n *Notifier) loop() {
	for {
		select {
		case evt := <-n.events:
			n.handleEvent(evt)
		case <-n.done:
			return
		}
	}
}

func (n *Notifier) handleEvent(evt models.Event) {
	var esc models.Escalation
	if err := json.Unmarshal(evt.Record, &esc); err != nil {
		log.Printf("ERROR: Alert notifier could not decode event: %v", err)
		return
	}

	if esc.Level != models.LevelCritical || esc.Status == models.StatusResolved {
		return
	}

	// The transport delivers at least once; page each escalation only once.
	if n.alerted[esc.ID] {
		return
	}
	if len(n.alerted) >= maxTrackedAlerts {
		n.alerted = make(map[string]bool)
	}
	n.alerted[esc.ID] = true

	staff, err := n.Storage.ListOnCallStaff()
	if err != nil {
		log.Printf("ERROR: Alert notifier could not list on-call staff: %v", err)
		return
	}
	if len(staff) == 0 {
		log.Printf("WARNING: Critical escalation %s but nobody is on call", esc.ID)
		return
	}

	text := fmt.Sprintf(
		"CRITICAL escalation %s\nContent: %s (%s)\nReason: %s\nDetected: %s",
		esc.ID, esc.ContentID, esc.ContentKind, esc.Reason,
		esc.DetectedAt.Format("15:04:05 MST"),
	)

	for _, member := range staff {
		if member.TelegramChatID == 0 {
			continue
		}
		msg := tgbotapi.NewMessage(member.TelegramChatID, text)
		if _, err := n.Bot.Send(msg); err != nil {
			log.Printf("ERROR: Failed to page %s: %v", member.ID, err)
		}
	}
}
