package bot

import (
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/samber/lo"

	"github.com/warp/primo-estimator/calendar"
	"github.com/warp/primo-estimator/estimate"
)

// =============================================================================
// COMPONENT IDS
// =============================================================================

const (
	IDBlessingMenu = "blessing_menu"
	IDAbyssMenu    = "abyss_menu"
	IDTheaterMenu  = "theater_menu"
	IDEstimate     = "estimate"
	IDPlusOne      = "days_plus_1"
	IDPlusTen      = "days_plus_10"
	IDMinusTen     = "days_minus_10"
	IDMinusOne     = "days_minus_1"
)

// Menu bounds.
const (
	MaxAbyssChambers = 12
	MaxTheaterStages = 10
)

var dayDeltas = map[string]int{
	IDPlusOne:  1,
	IDPlusTen:  10,
	IDMinusTen: -10,
	IDMinusOne: -1,
}

var (
	ErrUnknownComponent = errors.New("unknown menu component")
	ErrInvalidSelection = errors.New("invalid menu selection")
	ErrSessionNotFound  = errors.New("menu session not found")
)

// =============================================================================
// CHOICES
// =============================================================================

// Action is what the caller should do after a component interaction.
type Action int

const (
	// ActionRefresh redraws the menu with the new choices.
	ActionRefresh Action = iota
	// ActionEstimate replies with an estimate for the current choices.
	ActionEstimate
)

// Choices are the values picked in one menu.
type Choices struct {
	Blessing        bool
	MidMonthUnits   int
	MonthStartUnits int
	Days            int
}

// Apply updates c for one component interaction. Days never drop below 0.
func (c *Choices) Apply(customID string, values []string) (Action, error) {
	switch customID {
	case IDBlessingMenu:
		v, err := selection(customID, values, 1)
		if err != nil {
			return ActionRefresh, err
		}
		c.Blessing = v == 1
	case IDAbyssMenu:
		v, err := selection(customID, values, MaxAbyssChambers)
		if err != nil {
			return ActionRefresh, err
		}
		c.MidMonthUnits = v
	case IDTheaterMenu:
		v, err := selection(customID, values, MaxTheaterStages)
		if err != nil {
			return ActionRefresh, err
		}
		c.MonthStartUnits = v
	case IDEstimate:
		return ActionEstimate, nil
	default:
		delta, ok := dayDeltas[customID]
		if !ok {
			return ActionRefresh, fmt.Errorf("%w: %q", ErrUnknownComponent, customID)
		}
		c.Days = max(0, c.Days+delta)
	}
	return ActionRefresh, nil
}

// Inputs builds estimator inputs starting at today.
func (c Choices) Inputs(today calendar.Date) estimate.Inputs {
	return estimate.Inputs{
		Days:            c.Days,
		Start:           today,
		Blessing:        c.Blessing,
		MidMonthUnits:   c.MidMonthUnits,
		MonthStartUnits: c.MonthStartUnits,
	}
}

func selection(customID string, values []string, maxValue int) (int, error) {
	if len(values) != 1 {
		return 0, fmt.Errorf("%w: %s expects one value, got %d", ErrInvalidSelection, customID, len(values))
	}
	v, err := strconv.Atoi(values[0])
	if err != nil || v < 0 || v > maxValue {
		return 0, fmt.Errorf("%w: %s value %q not in 0..%d", ErrInvalidSelection, customID, values[0], maxValue)
	}
	return v, nil
}

// =============================================================================
// SESSIONS
// =============================================================================

// Session is one open menu message.
type Session struct {
	ChannelID string
	MessageID string
	OwnerID   string
	Choices   Choices
	Deadline  time.Time
}

// Sessions tracks open menus by message ID. Each interaction pushes the
// deadline back by the timeout.
type Sessions struct {
	mu        sync.Mutex
	timeout   time.Duration
	byMessage map[string]*Session
}

// NewSessions creates an empty session table.
func NewSessions(timeout time.Duration) *Sessions {
	return &Sessions{
		timeout:   timeout,
		byMessage: make(map[string]*Session),
	}
}

// Open registers a new menu.
func (s *Sessions) Open(channelID, messageID, ownerID string, now time.Time) Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess := &Session{
		ChannelID: channelID,
		MessageID: messageID,
		OwnerID:   ownerID,
		Deadline:  now.Add(s.timeout),
	}
	s.byMessage[messageID] = sess
	return *sess
}

// Update runs fn on the session for messageID and extends its deadline.
// Expired sessions are treated as missing.
func (s *Sessions) Update(messageID string, now time.Time, fn func(*Session) error) (Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.byMessage[messageID]
	if !ok || !now.Before(sess.Deadline) {
		return Session{}, fmt.Errorf("%w: %s", ErrSessionNotFound, messageID)
	}
	if err := fn(sess); err != nil {
		return *sess, err
	}
	sess.Deadline = now.Add(s.timeout)
	return *sess, nil
}

// Expire removes and returns every session whose deadline has passed.
func (s *Sessions) Expire(now time.Time) []Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	var expired []Session
	for id, sess := range s.byMessage {
		if !now.Before(sess.Deadline) {
			expired = append(expired, *sess)
			delete(s.byMessage, id)
		}
	}
	return expired
}

// CloseAll removes and returns every session.
func (s *Sessions) CloseAll() []Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	all := lo.MapToSlice(s.byMessage, func(_ string, sess *Session) Session { return *sess })
	s.byMessage = make(map[string]*Session)
	return all
}

// Len is the number of open sessions.
func (s *Sessions) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.byMessage)
}
