package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"

	"github.com/mcdev12/typerace/go/internal/leaderboard"
	"github.com/mcdev12/typerace/go/internal/models"
	"github.com/mcdev12/typerace/go/internal/scoring"
	"github.com/mcdev12/typerace/go/internal/store"
)

var (
	// ErrNoRoomID is returned when Join is called without a room ID.
	ErrNoRoomID = errors.New("no room ID supplied")

	// ErrAlreadyJoined is returned when Join is called on a session that is
	// already a member of a room.
	ErrAlreadyJoined = errors.New("session already joined a room")
)

const (
	// DefaultCountdownTicks is the number of one-second ticks between joining
	// a room and the race starting for that player.
	DefaultCountdownTicks = 3

	// DefaultTickInterval is the cadence of countdown ticks.
	DefaultTickInterval = time.Second
)

// Config holds configuration for a room session.
type Config struct {
	ReferenceText  string
	CountdownTicks int
	TickInterval   time.Duration
	Clock          clockwork.Clock

	// OnChange, when set, fires with a fresh view after every state change:
	// join, countdown tick, accepted submission, remote snapshot, leave.
	OnChange func(View)
}

// View is the read-only snapshot a session exposes to its presentation
// collaborator.
type View struct {
	Phase        models.Phase                   `json:"phase"`
	Countdown    int                            `json:"countdown"`
	RoomID       string                         `json:"room_id,omitempty"`
	PlayerID     string                         `json:"player_id,omitempty"`
	Players      map[string]models.PlayerRecord `json:"players"`
	Leaderboard  []leaderboard.Entry            `json:"leaderboard"`
	SyncDegraded bool                           `json:"sync_degraded,omitempty"`
}

// Session owns one local player's view of a room: the lifecycle state
// machine, the canonical start time for this player, and every write of this
// player's record into the shared store. Other players' records arrive as
// read-only snapshots through the store subscription; the session's own
// record stays locally authoritative so a stale store echo can never roll it
// back.
//
// Each session runs its countdown independently on join. Two players who
// join moments apart therefore race against different start times; each
// player's WPM is measured from their own start, which keeps every WPM
// individually fair at the cost of perfectly simultaneous starts.
type Session struct {
	store  store.Store
	clock  clockwork.Clock
	config Config

	mu              sync.RWMutex
	phase           models.Phase
	countdown       int
	roomID          string
	playerID        string
	startTime       time.Time
	record          models.PlayerRecord
	others          store.Snapshot
	degraded        bool
	unsubscribe     func()
	cancelCountdown context.CancelFunc
}

// New creates a session for one local player backed by the given store.
func New(st store.Store, config Config) *Session {
	if config.CountdownTicks <= 0 {
		config.CountdownTicks = DefaultCountdownTicks
	}
	if config.TickInterval <= 0 {
		config.TickInterval = DefaultTickInterval
	}
	if config.Clock == nil {
		config.Clock = clockwork.NewRealClock()
	}
	return &Session{
		store:  st,
		clock:  config.Clock,
		config: config,
		phase:  models.PhaseLobby,
	}
}

// Join enters the room, publishes a zeroed record for a freshly allocated
// player ID, subscribes to the room's snapshots, and starts this player's
// countdown. Joining an ID with no prior members creates the room; there is
// no "room not found" case. An empty roomID is the one user-surfaced error.
func (s *Session) Join(ctx context.Context, roomID string) error {
	if roomID == "" {
		return ErrNoRoomID
	}

	s.mu.Lock()
	if s.playerID != "" {
		s.mu.Unlock()
		return ErrAlreadyJoined
	}
	playerID := s.store.NewPlayerID(roomID)
	s.roomID = roomID
	s.playerID = playerID
	s.record = models.NewPlayerRecord()
	s.others = nil
	s.degraded = false
	s.phase = models.PhaseCountdown
	s.countdown = s.config.CountdownTicks
	s.mu.Unlock()

	if err := s.store.Upsert(ctx, roomID, playerID, models.NewPlayerRecord()); err != nil {
		s.markDegraded(err)
	}

	unsubscribe, err := s.store.Subscribe(ctx, roomID, s.applySnapshot)
	if err != nil {
		s.markDegraded(err)
	} else {
		s.mu.Lock()
		s.unsubscribe = unsubscribe
		s.mu.Unlock()
	}

	countdownCtx, cancel := context.WithCancel(context.Background())
	s.mu.Lock()
	s.cancelCountdown = cancel
	s.mu.Unlock()
	go s.runCountdown(countdownCtx)

	log.Info().Str("room_id", roomID).Str("player_id", playerID).Msg("joined room")
	s.notify()
	return nil
}

// SubmitTyped scores the player's current typed value and publishes the
// resulting record. Submissions are silently ignored outside the Racing
// phase, when they exceed the reference text, or once this player has
// finished; malformed input never corrupts shared state.
func (s *Session) SubmitTyped(ctx context.Context, value string) {
	s.mu.Lock()
	if s.phase != models.PhaseRacing || s.record.Finished || len(value) > len(s.config.ReferenceText) {
		s.mu.Unlock()
		return
	}
	result := scoring.Score(value, s.config.ReferenceText, s.clock.Now().Sub(s.startTime))
	s.record = models.PlayerRecord{
		Typed:    value,
		Progress: result.Progress,
		Accuracy: result.Accuracy,
		WPM:      result.WPM,
		Finished: result.Finished,
	}
	if result.Finished {
		s.phase = models.PhaseFinished
	}
	record := s.record
	roomID, playerID := s.roomID, s.playerID
	s.mu.Unlock()

	if err := s.store.Upsert(ctx, roomID, playerID, record); err != nil {
		// Local state already reflects the submission; the view just runs
		// stale for other players until connectivity resumes.
		s.markDegraded(err)
	} else {
		s.clearDegraded()
	}

	if record.Finished {
		log.Info().
			Str("room_id", roomID).
			Str("player_id", playerID).
			Float64("wpm", record.WPM).
			Float64("accuracy", record.Accuracy).
			Msg("player finished race")
	}
	s.notify()
}

// Leave exits the room from any phase: it cancels a pending countdown,
// stops the subscription, and deletes this player's record so departed
// players vanish from every remaining participant's leaderboard. Leave is
// idempotent and must run on every exit path, or ghost records accumulate
// in the shared store.
func (s *Session) Leave(ctx context.Context) {
	s.mu.Lock()
	if s.playerID == "" {
		s.mu.Unlock()
		return
	}
	roomID, playerID := s.roomID, s.playerID
	cancel, unsubscribe := s.cancelCountdown, s.unsubscribe
	s.roomID = ""
	s.playerID = ""
	s.cancelCountdown = nil
	s.unsubscribe = nil
	s.others = nil
	s.record = models.PlayerRecord{}
	s.phase = models.PhaseLobby
	s.countdown = 0
	s.degraded = false
	s.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if unsubscribe != nil {
		unsubscribe()
	}
	if err := s.store.Delete(ctx, roomID, playerID); err != nil {
		log.Warn().Err(err).Str("room_id", roomID).Str("player_id", playerID).Msg("failed to delete player record on leave")
	}

	log.Info().Str("room_id", roomID).Str("player_id", playerID).Msg("left room")
	s.notify()
}

// View returns the current read-only snapshot: phase, countdown, the full
// record mapping with this player's record overlaid, and the leaderboard
// derived from it.
func (s *Session) View() View {
	s.mu.RLock()
	defer s.mu.RUnlock()

	players := make(map[string]models.PlayerRecord, len(s.others)+1)
	for id, record := range s.others {
		players[id] = record
	}
	if s.playerID != "" {
		players[s.playerID] = s.record
	}
	return View{
		Phase:        s.phase,
		Countdown:    s.countdown,
		RoomID:       s.roomID,
		PlayerID:     s.playerID,
		Players:      players,
		Leaderboard:  leaderboard.Rank(players),
		SyncDegraded: s.degraded,
	}
}

// runCountdown ticks the local countdown and transitions to Racing when it
// reaches zero, recording this player's canonical start time.
func (s *Session) runCountdown(ctx context.Context) {
	ticker := s.clock.NewTicker(s.config.TickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.Chan():
			s.mu.Lock()
			if s.phase != models.PhaseCountdown {
				s.mu.Unlock()
				return
			}
			s.countdown--
			if s.countdown > 0 {
				s.mu.Unlock()
				s.notify()
				continue
			}
			s.countdown = 0
			s.phase = models.PhaseRacing
			startTime := s.clock.Now()
			s.startTime = startTime
			roomID, playerID := s.roomID, s.playerID
			s.mu.Unlock()

			log.Info().Str("room_id", roomID).Str("player_id", playerID).Time("start_time", startTime).Msg("race started")
			s.notify()
			return
		}
	}
}

// applySnapshot merges a store snapshot into the read-only cache of other
// players' records. The session's own record is deliberately skipped: local
// writes win over their own store echo.
func (s *Session) applySnapshot(snapshot store.Snapshot) {
	s.mu.Lock()
	if s.playerID == "" {
		s.mu.Unlock()
		return
	}
	others := make(store.Snapshot, len(snapshot))
	for id, record := range snapshot {
		if id == s.playerID {
			continue
		}
		others[id] = record
	}
	s.others = others
	s.mu.Unlock()
	s.notify()
}

func (s *Session) markDegraded(err error) {
	s.mu.Lock()
	already := s.degraded
	s.degraded = true
	roomID := s.roomID
	s.mu.Unlock()
	if !already {
		log.Warn().Err(err).Str("room_id", roomID).Msg("room store unreachable, sync degraded")
	}
}

func (s *Session) clearDegraded() {
	s.mu.Lock()
	recovered := s.degraded
	s.degraded = false
	roomID := s.roomID
	s.mu.Unlock()
	if recovered {
		log.Info().Str("room_id", roomID).Msg("room store sync recovered")
	}
}

func (s *Session) notify() {
	if s.config.OnChange != nil {
		s.config.OnChange(s.View())
	}
}
