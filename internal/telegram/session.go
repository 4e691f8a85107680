package telegram

import (
	"sync"
	"time"
)

// Step tags the dialogue state machine position for one chat.
type Step string

const (
	StepIdle      Step = ""
	StepLinkCode  Step = "awaiting_link_code"
	StepHeight    Step = "awaiting_height"
	StepWeight    Step = "awaiting_weight"
	StepAge       Step = "awaiting_age"
	StepActivity  Step = "awaiting_activity"
	StepGravity   Step = "awaiting_gravity"
	StepDietIndex Step = "awaiting_diet_index"
)

// session holds the partially collected dialogue fields for one chat.
// Not persisted; a restart drops all in-flight conversations.
type session struct {
	mu sync.Mutex

	step     Step
	height   float64
	weight   float64
	age      int
	activity string // digit key into diet.ActivityLevels

	touched time.Time
}

// sessionManager owns the chat-id keyed session map. Each session
// carries its own mutex so two concurrent messages from the same chat
// serialize instead of racing the step state.
type sessionManager struct {
	mu       sync.Mutex
	sessions map[int64]*session
	idle     time.Duration
	now      func() time.Time
}

func newSessionManager(idle time.Duration) *sessionManager {
	return &sessionManager{
		sessions: make(map[int64]*session),
		idle:     idle,
		now:      time.Now,
	}
}

// acquire returns the chat's session with its lock held; the caller
// must release it. Idle sessions are swept and stale ones restart at
// StepIdle.
func (m *sessionManager) acquire(chatID int64) *session {
	m.mu.Lock()
	now := m.now()
	for id, s := range m.sessions {
		if id != chatID && now.Sub(s.touched) > m.idle {
			delete(m.sessions, id)
		}
	}
	s, ok := m.sessions[chatID]
	if !ok {
		s = &session{touched: now}
		m.sessions[chatID] = s
	}
	m.mu.Unlock()

	s.mu.Lock()
	if now.Sub(s.touched) > m.idle {
		s.reset()
	}
	s.touched = now
	return s
}

func (s *session) release() {
	s.mu.Unlock()
}

func (s *session) reset() {
	s.step = StepIdle
	s.height, s.weight, s.age, s.activity = 0, 0, 0, ""
}
