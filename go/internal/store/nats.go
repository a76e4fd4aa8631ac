package store

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
	"github.com/rs/zerolog/log"

	"github.com/mcdev12/typerace/go/internal/models"
)

// NATSConfig holds configuration for the NATS-backed store.
type NATSConfig struct {
	URL           string
	Bucket        string
	MaxReconnects int
	ReconnectWait time.Duration
}

// DefaultNATSConfig returns default NATS store configuration.
func DefaultNATSConfig() NATSConfig {
	return NATSConfig{
		URL:           nats.DefaultURL,
		Bucket:        "TYPERACE_ROOMS",
		MaxReconnects: -1, // Infinite
		ReconnectWait: 2 * time.Second,
	}
}

// NATS is a Store backed by a JetStream key-value bucket. Records live under
// "<roomID>.<playerID>"; a watch on "<roomID>.*" delivers the current values
// followed by every update, which backs the subscribe contract. Put replaces
// the whole record, so the last full write for a player wins.
type NATS struct {
	nc     *nats.Conn
	kv     jetstream.KeyValue
	config NATSConfig
}

// NewNATS connects to NATS and creates or binds the key-value bucket.
func NewNATS(ctx context.Context, config NATSConfig) (*NATS, error) {
	opts := []nats.Option{
		nats.MaxReconnects(config.MaxReconnects),
		nats.ReconnectWait(config.ReconnectWait),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			log.Error().Err(err).Msg("NATS disconnected")
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			log.Info().Str("url", nc.ConnectedUrl()).Msg("NATS reconnected")
		}),
		nats.ErrorHandler(func(nc *nats.Conn, sub *nats.Subscription, err error) {
			log.Error().Err(err).Msg("NATS error")
		}),
	}

	nc, err := nats.Connect(config.URL, opts...)
	if err != nil {
		return nil, fmt.Errorf("connect to NATS: %w", err)
	}

	js, err := jetstream.New(nc)
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("create JetStream context: %w", err)
	}

	kv, err := js.CreateOrUpdateKeyValue(ctx, jetstream.KeyValueConfig{
		Bucket:      config.Bucket,
		Description: "Typing race player records",
	})
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("create key-value bucket: %w", err)
	}

	return &NATS{nc: nc, kv: kv, config: config}, nil
}

// Upsert replaces the record stored for the player.
func (s *NATS) Upsert(ctx context.Context, roomID, playerID string, record models.PlayerRecord) error {
	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("marshal player record: %w", err)
	}
	if _, err := s.kv.Put(ctx, recordKey(roomID, playerID), data); err != nil {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return nil
}

// Subscribe watches the room's keys and mirrors them into snapshots. The
// initial snapshot is delivered once the watcher has replayed the current
// values, then again after every put or delete.
func (s *NATS) Subscribe(ctx context.Context, roomID string, onSnapshot func(Snapshot)) (func(), error) {
	watcher, err := s.kv.Watch(ctx, roomID+".*")
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	done := make(chan struct{})
	go func() {
		players := make(Snapshot)
		replaying := true
		for {
			select {
			case <-done:
				return
			case entry, ok := <-watcher.Updates():
				if !ok {
					return
				}
				if entry == nil {
					// Watcher has replayed all current values.
					replaying = false
					onSnapshot(players.clone())
					continue
				}
				playerID := strings.TrimPrefix(entry.Key(), roomID+".")
				switch entry.Operation() {
				case jetstream.KeyValueDelete, jetstream.KeyValuePurge:
					delete(players, playerID)
				default:
					var record models.PlayerRecord
					if err := json.Unmarshal(entry.Value(), &record); err != nil {
						log.Error().Err(err).Str("key", entry.Key()).Msg("dropping undecodable player record")
						continue
					}
					players[playerID] = record
				}
				if !replaying {
					onSnapshot(players.clone())
				}
			}
		}
	}()

	var once sync.Once
	unsubscribe := func() {
		once.Do(func() {
			close(done)
			if err := watcher.Stop(); err != nil {
				log.Warn().Err(err).Str("room_id", roomID).Msg("failed to stop room watcher")
			}
		})
	}
	return unsubscribe, nil
}

// Delete removes the player's record and its revision history so departed
// players vanish from every subscriber's view.
func (s *NATS) Delete(ctx context.Context, roomID, playerID string) error {
	if err := s.kv.Purge(ctx, recordKey(roomID, playerID)); err != nil {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return nil
}

// NewPlayerID allocates a fresh player ID.
func (s *NATS) NewPlayerID(roomID string) string {
	return uuid.New().String()
}

// Close closes the underlying NATS connection.
func (s *NATS) Close() {
	s.nc.Close()
}

func recordKey(roomID, playerID string) string {
	return roomID + "." + playerID
}
