// Package chat implements the conversation engine: a per-connection menu
// state machine that turns raw text input into state transitions, order
// mutations through the order store, and reply text.
package chat

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iliyamo/restaurant-chatbot/internal/catalog"
	"github.com/iliyamo/restaurant-chatbot/internal/logger"
	"github.com/iliyamo/restaurant-chatbot/internal/metrics"
	"github.com/iliyamo/restaurant-chatbot/internal/model"
	"github.com/iliyamo/restaurant-chatbot/internal/repository"
)

// OrderStore is the persistence the engine needs.  Implementations must
// serialize AddLine and PlaceOrder per device identifier.
type OrderStore interface {
	EnsureSession(ctx context.Context, deviceID string) error
	SessionExists(ctx context.Context, deviceID string) (bool, error)
	GetCurrentOrder(ctx context.Context, deviceID string) ([]model.OrderLine, error)
	AddLine(ctx context.Context, deviceID string, itemID int, name string, price decimal.Decimal) ([]model.OrderLine, error)
	ClearCurrentOrder(ctx context.Context, deviceID string) error
	PlaceOrder(ctx context.Context, deviceID string) (model.PlacedOrder, error)
	ListPlacedOrders(ctx context.Context, deviceID string) ([]model.PlacedOrder, error)
}

// OrderEvents is notified after an order has been placed.  Failures are
// logged and never change the reply sent to the client.
type OrderEvents interface {
	OrderPlaced(ctx context.Context, order model.PlacedOrder) error
}

// Event names the outbound channel of a reply.
type Event string

const (
	EventMessage Event = "message"
	EventError   Event = "error"
)

// Reply is one outbound text on a channel.
type Reply struct {
	Event Event
	Text  string
}

// Kind classifies how a message was handled.  KindOK covers every normal
// branch, including "No order to place." style answers.
type Kind string

const (
	KindOK             Kind = "ok"
	KindFormat         Kind = "format"
	KindDomain         Kind = "domain"
	KindIdentity       Kind = "identity"
	KindThrottled      Kind = "throttled"
	KindSessionMissing Kind = "session_missing"
	KindPersistence    Kind = "persistence"
)

// Inbound is a client message as received on the "message" channel.
type Inbound struct {
	Text     string `json:"text"`
	DeviceID string `json:"deviceId"`
}

// Outcome is the result of handling one inbound message.  When Terminate is
// set the transport must deliver Replies and then close the connection.
type Outcome struct {
	Replies   []Reply
	Kind      Kind
	Terminate bool
}

// Transition is what a state handler decides: the next state and the
// replies to send.  Store mutations have already happened when a handler
// returns a Transition; a handler that fails returns an error instead and
// the session keeps its previous state.
type Transition struct {
	Next    State
	Replies []string
	Kind    Kind
}

// Params configure the engine.
type Params struct {
	Catalog     *catalog.Catalog
	Store       OrderStore
	Events      OrderEvents
	Logger      *logger.Logger
	Metrics     *metrics.ChatMetrics
	Debounce    time.Duration
	MaxSessions int
	Now         func() time.Time
}

// Engine routes messages of every connection through the state machine.
// It is safe for concurrent use; messages of one connection are handled
// one at a time.
type Engine struct {
	catalog  *catalog.Catalog
	store    OrderStore
	events   OrderEvents
	logg     *logger.Logger
	metrics  *metrics.ChatMetrics
	debounce time.Duration
	now      func() time.Time
	sessions *registry
}

// NewEngine validates params and builds an engine.
func NewEngine(p Params) (*Engine, error) {
	if p.Catalog == nil {
		return nil, fmt.Errorf("catalog required")
	}
	if p.Store == nil {
		return nil, fmt.Errorf("order store required")
	}
	logg := p.Logger
	if logg == nil {
		logg = logger.Nop()
	}
	debounce := p.Debounce
	if debounce < 0 {
		debounce = 0
	}
	now := p.Now
	if now == nil {
		now = time.Now
	}
	return &Engine{
		catalog:  p.Catalog,
		store:    p.Store,
		events:   p.Events,
		logg:     logg,
		metrics:  p.Metrics,
		debounce: debounce,
		now:      now,
		sessions: newRegistry(p.MaxSessions),
	}, nil
}

// Connect binds a new connection to deviceID.  It makes sure the device has
// a persisted session, allocates the connection's session context in
// MainMenu and returns its connection id together with the welcome text,
// which the transport must send before any other reply.
func (e *Engine) Connect(ctx context.Context, deviceID string) (string, Reply, error) {
	if strings.TrimSpace(deviceID) == "" {
		return "", Reply{}, fmt.Errorf("device id required")
	}
	if err := e.store.EnsureSession(ctx, deviceID); err != nil {
		return "", Reply{}, fmt.Errorf("ensure session: %w", err)
	}
	s, err := e.sessions.open(deviceID)
	if err != nil {
		return "", Reply{}, err
	}
	e.metrics.SessionOpened()
	e.logg.Info(e.logg.WithFields(ctx, map[string]any{"device_id": deviceID, "conn_id": s.connID}), "chat session opened")
	return s.connID, Reply{Event: EventMessage, Text: WelcomeText}, nil
}

// Disconnect releases the session context of connID.  Persisted orders are
// not touched.
func (e *Engine) Disconnect(connID string) {
	if e.sessions.close(connID) {
		e.metrics.SessionClosed()
	}
}

// ActiveSessions returns the number of live session contexts.
func (e *Engine) ActiveSessions() int { return e.sessions.len() }

// State returns the current state of connID.
func (e *Engine) State(connID string) (State, bool) {
	s, ok := e.sessions.get(connID)
	if !ok {
		return nil, false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state, true
}

// Handle processes one inbound message of connection connID.  Checks run in
// a fixed order: device identity, debounce, persisted session, number
// format, then the handler of the current state.  A message that ends in a
// store failure leaves the session untouched, debounce timestamp included.
func (e *Engine) Handle(ctx context.Context, connID string, in Inbound) Outcome {
	s, ok := e.sessions.get(connID)
	if !ok {
		return e.finish(ctx, terminal())
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	ctx = e.logg.WithFields(ctx, map[string]any{"device_id": s.deviceID, "conn_id": s.connID})

	if in.DeviceID == "" || in.DeviceID != s.deviceID {
		e.logg.Warn(e.logg.WithField(ctx, "claimed_device_id", in.DeviceID), "device id mismatch")
		return e.finish(ctx, Outcome{
			Replies: []Reply{{Event: EventError, Text: msgInvalidDeviceID}},
			Kind:    KindIdentity,
		})
	}

	now := e.now()
	if ShouldThrottle(s.lastAccepted, now, e.debounce) {
		return e.finish(ctx, Outcome{
			Replies: []Reply{{Event: EventMessage, Text: msgThrottled}},
			Kind:    KindThrottled,
		})
	}
	prevAccepted := s.lastAccepted
	s.lastAccepted = now

	input := strings.TrimSpace(in.Text)
	e.logg.Debug(e.logg.WithField(ctx, "text", input), "chat message received")

	exists, err := e.store.SessionExists(ctx, s.deviceID)
	if err != nil {
		s.lastAccepted = prevAccepted
		return e.finish(ctx, e.persistenceFailure(ctx, s, err))
	}
	if !exists {
		return e.finish(ctx, terminal())
	}

	n, ok := parseNumber(input)
	if !ok {
		return e.finish(ctx, messages(KindFormat, withPrompt(notANumberText(input), s.state.prompt(e.catalog))))
	}

	tr, err := e.dispatch(ctx, s, input, n)
	if err != nil {
		if errors.Is(err, repository.ErrSessionNotFound) {
			return e.finish(ctx, terminal())
		}
		s.lastAccepted = prevAccepted
		return e.finish(ctx, e.persistenceFailure(ctx, s, err))
	}
	if tr.Kind == "" {
		tr.Kind = KindOK
	}
	if tr.Next.Name() != s.state.Name() {
		e.logg.Debug(e.logg.WithFields(ctx, map[string]any{"from": s.state.Name(), "to": tr.Next.Name()}), "chat state changed")
	}
	s.state = tr.Next
	return e.finish(ctx, messages(tr.Kind, tr.Replies...))
}

func (e *Engine) dispatch(ctx context.Context, s *Session, input string, n int) (Transition, error) {
	switch st := s.state.(type) {
	case MainMenu:
		return e.handleMainMenu(ctx, s.deviceID, input, n)
	case ItemSelection:
		return e.handleItemSelection(ctx, s.deviceID, input, n)
	case SubMenu:
		return e.handleSubMenu(ctx, s.deviceID, st, input, n)
	}
	return Transition{Next: MainMenu{}, Replies: []string{WelcomeText}}, nil
}

func (e *Engine) persistenceFailure(ctx context.Context, s *Session, err error) Outcome {
	e.logg.Error(ctx, "order store failure", err)
	return messages(KindPersistence, withPrompt(msgInternalFailure, s.state.prompt(e.catalog)))
}

func (e *Engine) finish(ctx context.Context, out Outcome) Outcome {
	e.metrics.ObserveMessage(string(out.Kind))
	for _, r := range out.Replies {
		e.logg.Debug(e.logg.WithFields(ctx, map[string]any{"event": r.Event, "text": r.Text}), "chat reply")
	}
	return out
}

func messages(kind Kind, texts ...string) Outcome {
	out := Outcome{Kind: kind, Replies: make([]Reply, 0, len(texts))}
	for _, t := range texts {
		out.Replies = append(out.Replies, Reply{Event: EventMessage, Text: t})
	}
	return out
}

func terminal() Outcome {
	return Outcome{
		Replies:   []Reply{{Event: EventError, Text: msgSessionNotFound}},
		Kind:      KindSessionMissing,
		Terminate: true,
	}
}

// parseNumber accepts non-negative integer literals made of ASCII digits
// only.  Literals too large for an int are reported as -1 so they fail the
// membership check instead of the format check.
func parseNumber(input string) (int, bool) {
	if input == "" {
		return 0, false
	}
	for i := 0; i < len(input); i++ {
		if input[i] < '0' || input[i] > '9' {
			return 0, false
		}
	}
	n, err := strconv.Atoi(input)
	if err != nil {
		return -1, true
	}
	return n, true
}

// BusyText is sent on the error channel when Connect fails with
// ErrTooManySessions.
func BusyText() string { return msgServerBusy }

// ConnectFailedText is sent on the error channel when Connect fails for any
// reason other than a full registry, typically a store outage.
func ConnectFailedText() string { return msgConnectFailed }

// SessionNotFoundText is sent on the error channel when a connection has no
// usable session.
func SessionNotFoundText() string { return msgSessionNotFound }

// InvalidDeviceText is sent on the error channel for identity failures.
func InvalidDeviceText() string { return msgInvalidDeviceID }
