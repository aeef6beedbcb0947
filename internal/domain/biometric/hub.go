package biometric

import (
	"context"
	"errors"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/okian/skillup/internal/domain/model"
	"github.com/okian/skillup/pkg/logger"
	"github.com/okian/skillup/pkg/metrics"
)

// Defaults.
const (
	defaultTick         = 2 * time.Second
	defaultHistoryLimit = 10
	defaultRecentLimit  = 30
	defaultSubBuffer    = 8
)

// Status is a user's device and session state.
type Status struct {
	DeviceConnected bool          `json:"deviceConnected"`
	SessionActive   bool          `json:"sessionActive"`
	SessionID       string        `json:"sessionId,omitempty"`
	SessionStart    *time.Time    `json:"sessionStart,omitempty"`
	ElapsedSeconds  int           `json:"elapsedSeconds"`
	Reading         model.Reading `json:"reading"`
}

// Report is the performance view of a user's latest data.
type Report struct {
	Reading  model.Reading  `json:"reading"`
	Score    int            `json:"score"`
	Rating   string         `json:"rating"`
	Insights model.Insights `json:"insights"`
}

// Stats are hub-wide counters.
type Stats struct {
	Users          int `json:"users"`
	ActiveSessions int `json:"activeSessions"`
	Subscribers    int `json:"subscribers"`
}

// Hub owns one simulated device per user. Each running session has a single
// ticker goroutine; a tick finishes before the next one is taken.
type Hub struct {
	tick         time.Duration
	historyLimit int
	recentLimit  int
	subBuffer    int
	rnd          func() float64
	now          func() time.Time
	log          logger.Logger

	mu       sync.Mutex
	trackers map[string]*tracker
	closed   bool
	wg       sync.WaitGroup
}

// NewHub creates a hub.
func NewHub(opts ...Option) *Hub {
	h := &Hub{
		tick:         defaultTick,
		historyLimit: defaultHistoryLimit,
		recentLimit:  defaultRecentLimit,
		subBuffer:    defaultSubBuffer,
		rnd:          rand.Float64,
		now:          time.Now,
		log:          logger.Nop(),
		trackers:     make(map[string]*tracker),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

type tracker struct {
	// ctl serializes device and session control.
	ctl sync.Mutex

	mu         sync.Mutex
	connected  bool
	active     bool
	sessionID  string
	start      time.Time
	current    model.Reading
	session    []model.Reading
	recent     []model.Reading
	history    []model.Session
	subs       map[int]chan model.Reading
	nextSub    int
	stop, done chan struct{}
}

func (h *Hub) get(uid string) (*tracker, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return nil, ErrHubClosed
	}
	t, ok := h.trackers[uid]
	if !ok {
		t = &tracker{current: Initial(h.now()), subs: make(map[int]chan model.Reading)}
		h.trackers[uid] = t
	}
	return t, nil
}

// Connect pairs the user's device. Connecting twice is a no-op.
func (h *Hub) Connect(uid string) (Status, error) {
	t, err := h.get(uid)
	if err != nil {
		return Status{}, err
	}
	t.ctl.Lock()
	defer t.ctl.Unlock()
	t.mu.Lock()
	t.connected = true
	t.mu.Unlock()
	return h.status(t), nil
}

// Disconnect unpairs the device, stopping and recording any running session.
func (h *Hub) Disconnect(uid string) (Status, error) {
	t, err := h.get(uid)
	if err != nil {
		return Status{}, err
	}
	t.ctl.Lock()
	defer t.ctl.Unlock()
	if _, err := h.stopLocked(t); err != nil && !errors.Is(err, ErrNoActiveSession) {
		return Status{}, err
	}
	t.mu.Lock()
	t.connected = false
	t.mu.Unlock()
	return h.status(t), nil
}

// StartSession begins a session and its ticker. The device must be connected.
func (h *Hub) StartSession(uid string) (Status, error) {
	t, err := h.get(uid)
	if err != nil {
		return Status{}, err
	}
	t.ctl.Lock()
	defer t.ctl.Unlock()

	t.mu.Lock()
	switch {
	case !t.connected:
		t.mu.Unlock()
		return Status{}, ErrDeviceDisconnected
	case t.active:
		t.mu.Unlock()
		return Status{}, ErrSessionActive
	}
	now := h.now()
	t.active = true
	t.sessionID = ulid.Make().String()
	t.start = now
	t.current.Timestamp = now
	t.session = []model.Reading{t.current}
	t.stop = make(chan struct{})
	t.done = make(chan struct{})
	stop, done := t.stop, t.done
	t.mu.Unlock()

	h.wg.Add(1)
	go h.run(uid, t, stop, done)
	h.updateActive()
	h.log.Debug(context.Background(), "biometric session started", logger.String("uid", uid))
	return h.status(t), nil
}

// StopSession ends the running session and records its summary at the front
// of the user's history.
func (h *Hub) StopSession(uid string) (model.Session, error) {
	t, err := h.get(uid)
	if err != nil {
		return model.Session{}, err
	}
	t.ctl.Lock()
	defer t.ctl.Unlock()
	return h.stopLocked(t)
}

// stopLocked requires t.ctl.
func (h *Hub) stopLocked(t *tracker) (model.Session, error) {
	t.mu.Lock()
	if !t.active {
		t.mu.Unlock()
		return model.Session{}, ErrNoActiveSession
	}
	stop, done := t.stop, t.done
	t.mu.Unlock()

	close(stop)
	<-done

	t.mu.Lock()
	end := h.now()
	s := model.Session{
		ID:              t.sessionID,
		Start:           t.start,
		End:             end,
		DurationSeconds: int(end.Sub(t.start) / time.Second),
	}
	in := Insights(t.session)
	s.AvgConcentration = in.Concentration
	s.AvgMotivation = in.Motivation

	t.history = append([]model.Session{s}, t.history...)
	if len(t.history) > h.historyLimit {
		t.history = t.history[:h.historyLimit]
	}
	t.active = false
	t.sessionID = ""
	t.session = nil
	t.stop, t.done = nil, nil
	t.mu.Unlock()

	h.updateActive()
	metrics.RecordBiometricSessionSaved()
	return s, nil
}

func (h *Hub) run(uid string, t *tracker, stop <-chan struct{}, done chan<- struct{}) {
	defer h.wg.Done()
	defer close(done)
	ticker := time.NewTicker(h.tick)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			h.step(uid, t)
		}
	}
}

func (h *Hub) step(uid string, t *tracker) {
	t.mu.Lock()
	r := Step(t.current, h.rnd, h.now())
	t.current = r
	t.session = append(t.session, r)
	t.recent = append(t.recent, r)
	if len(t.recent) > h.recentLimit {
		t.recent = t.recent[len(t.recent)-h.recentLimit:]
	}
	subs := make([]chan model.Reading, 0, len(t.subs))
	for _, ch := range t.subs {
		subs = append(subs, ch)
	}
	// Sends happen under t.mu so a concurrent unsubscribe cannot close a
	// channel mid-send.
	for _, ch := range subs {
		select {
		case ch <- r:
		default:
			metrics.RecordBiometricDropped()
			h.log.Debug(context.Background(), "dropped reading for slow subscriber", logger.String("uid", uid))
		}
	}
	t.mu.Unlock()
	metrics.RecordBiometricTick()
}

// Status returns the user's device state and latest reading.
func (h *Hub) Status(uid string) (Status, error) {
	t, err := h.get(uid)
	if err != nil {
		return Status{}, err
	}
	return h.status(t), nil
}

func (h *Hub) status(t *tracker) Status {
	t.mu.Lock()
	defer t.mu.Unlock()
	s := Status{
		DeviceConnected: t.connected,
		SessionActive:   t.active,
		SessionID:       t.sessionID,
		Reading:         t.current,
	}
	if t.active {
		start := t.start
		s.SessionStart = &start
		s.ElapsedSeconds = int(h.now().Sub(start) / time.Second)
	}
	return s
}

// Sessions returns the user's session history, newest first.
func (h *Hub) Sessions(uid string) ([]model.Session, error) {
	t, err := h.get(uid)
	if err != nil {
		return nil, err
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]model.Session, len(t.history))
	copy(out, t.history)
	return out, nil
}

// Performance scores the latest reading and summarizes recent readings.
func (h *Hub) Performance(uid string) (Report, error) {
	t, err := h.get(uid)
	if err != nil {
		return Report{}, err
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	window := t.recent
	if len(window) == 0 {
		window = []model.Reading{t.current}
	}
	score := Performance(t.current)
	return Report{
		Reading:  t.current,
		Score:    score,
		Rating:   Rating(score),
		Insights: Insights(window),
	}, nil
}

// Subscribe returns a channel receiving every new reading for uid. Readings
// are dropped when the channel is full. cancel releases the subscription and
// closes the channel.
func (h *Hub) Subscribe(uid string) (<-chan model.Reading, func(), error) {
	t, err := h.get(uid)
	if err != nil {
		return nil, nil, err
	}
	ch := make(chan model.Reading, h.subBuffer)
	t.mu.Lock()
	id := t.nextSub
	t.nextSub++
	t.subs[id] = ch
	t.mu.Unlock()
	h.updateSubscribers()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			t.mu.Lock()
			if c, ok := t.subs[id]; ok {
				delete(t.subs, id)
				close(c)
			}
			t.mu.Unlock()
			h.updateSubscribers()
		})
	}
	return ch, cancel, nil
}

// Stats returns hub-wide counts.
func (h *Hub) Stats() Stats {
	h.mu.Lock()
	trackers := make([]*tracker, 0, len(h.trackers))
	for _, t := range h.trackers {
		trackers = append(trackers, t)
	}
	h.mu.Unlock()

	s := Stats{Users: len(trackers)}
	for _, t := range trackers {
		t.mu.Lock()
		if t.active {
			s.ActiveSessions++
		}
		s.Subscribers += len(t.subs)
		t.mu.Unlock()
	}
	return s
}

func (h *Hub) updateActive() {
	metrics.UpdateBiometricActiveSessions(h.Stats().ActiveSessions)
}

func (h *Hub) updateSubscribers() {
	metrics.UpdateBiometricSubscribers(h.Stats().Subscribers)
}

// Close stops every session ticker and closes all subscriber channels.
// Running sessions are discarded.
func (h *Hub) Close(ctx context.Context) error {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return nil
	}
	h.closed = true
	trackers := h.trackers
	h.mu.Unlock()

	for _, t := range trackers {
		t.ctl.Lock()
		t.mu.Lock()
		if t.active {
			close(t.stop)
			t.active = false
		}
		for id, ch := range t.subs {
			delete(t.subs, id)
			close(ch)
		}
		t.mu.Unlock()
		t.ctl.Unlock()
	}

	waitDone := make(chan struct{})
	go func() {
		h.wg.Wait()
		close(waitDone)
	}()
	select {
	case <-waitDone:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
