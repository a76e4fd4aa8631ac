package gateway

import (
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/mcdev12/typerace/go/internal/roomcode"
	"github.com/mcdev12/typerace/go/internal/session"
	"github.com/mcdev12/typerace/go/internal/store"
)

// Service is the race gateway: it accepts WebSocket connections from browser
// clients, gives each one a room session backed by the shared store, and
// mints room codes over HTTP.
type Service struct {
	connectionManager *ConnectionManager
	store             store.Store
	sessionConfig     session.Config
}

// Config holds configuration for the gateway service.
type Config struct {
	Connection ConnectionConfig
	Session    session.Config
}

// DefaultConfig returns default gateway configuration for the given
// reference text.
func DefaultConfig(referenceText string) Config {
	return Config{
		Connection: DefaultConnectionConfig(),
		Session:    session.Config{ReferenceText: referenceText},
	}
}

// NewService creates a gateway backed by the given store.
func NewService(st store.Store, config Config) *Service {
	return &Service{
		connectionManager: NewConnectionManager(config.Connection),
		store:             st,
		sessionConfig:     config.Session,
	}
}

// RegisterRoutes registers the gateway HTTP routes.
func (s *Service) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/ws/race", s.HandleRaceConnection)
	mux.HandleFunc("/ws/stats", s.HandleConnectionStats)
	mux.HandleFunc("/api/rooms", s.HandleCreateRoom)
	log.Info().Msg("gateway routes registered")
}

// HandleRaceConnection upgrades the request and binds a fresh room session
// to the connection. The client then drives the session with join/input/
// leave frames and receives full view snapshots in return.
func (s *Service) HandleRaceConnection(w http.ResponseWriter, r *http.Request) {
	newSession := func(onChange func(session.View)) *session.Session {
		config := s.sessionConfig
		config.OnChange = onChange
		return session.New(s.store, config)
	}
	if _, err := s.connectionManager.UpgradeConnection(w, r, newSession); err != nil {
		log.Error().Err(err).Msg("failed to upgrade WebSocket connection")
		return
	}
}

// HandleCreateRoom mints a fresh room code. The room itself comes into
// existence when its first player joins; there is no registration step.
func (s *Service) HandleCreateRoom(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	code := roomcode.Generate()
	log.Info().Str("room_id", code).Msg("minted room code")

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(map[string]string{"room_id": code}); err != nil {
		log.Error().Err(err).Msg("failed to write room code response")
	}
}

// HandleConnectionStats returns statistics about active connections.
func (s *Service) HandleConnectionStats(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(s.connectionManager.GetConnectionStats()); err != nil {
		log.Error().Err(err).Msg("failed to write stats response")
	}
}
