package store

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/mcdev12/typerace/go/internal/models"
)

// Memory is an in-process Store. It serves tests and single-node
// deployments where every session lives in the same process.
type Memory struct {
	mu          sync.Mutex
	rooms       map[string]Snapshot
	subscribers map[string]map[int]func(Snapshot)
	nextSubID   int
}

// NewMemory creates an empty in-process store.
func NewMemory() *Memory {
	return &Memory{
		rooms:       make(map[string]Snapshot),
		subscribers: make(map[string]map[int]func(Snapshot)),
	}
}

// Upsert replaces the record for the player and fans the new room snapshot
// out to every subscriber.
func (m *Memory) Upsert(ctx context.Context, roomID, playerID string, record models.PlayerRecord) error {
	m.mu.Lock()
	room, ok := m.rooms[roomID]
	if !ok {
		room = make(Snapshot)
		m.rooms[roomID] = room
	}
	room[playerID] = record
	snapshot, subscribers := room.clone(), m.subscribersLocked(roomID)
	m.mu.Unlock()

	for _, onSnapshot := range subscribers {
		onSnapshot(snapshot)
	}
	return nil
}

// Subscribe registers onSnapshot for the room and invokes it once with the
// current mapping before returning.
func (m *Memory) Subscribe(ctx context.Context, roomID string, onSnapshot func(Snapshot)) (func(), error) {
	m.mu.Lock()
	subs, ok := m.subscribers[roomID]
	if !ok {
		subs = make(map[int]func(Snapshot))
		m.subscribers[roomID] = subs
	}
	id := m.nextSubID
	m.nextSubID++
	subs[id] = onSnapshot
	snapshot := m.rooms[roomID].clone()
	m.mu.Unlock()

	onSnapshot(snapshot)

	var once sync.Once
	unsubscribe := func() {
		once.Do(func() {
			m.mu.Lock()
			defer m.mu.Unlock()
			delete(m.subscribers[roomID], id)
			if len(m.subscribers[roomID]) == 0 {
				delete(m.subscribers, roomID)
			}
		})
	}
	return unsubscribe, nil
}

// Delete removes the player's record if present and notifies subscribers.
func (m *Memory) Delete(ctx context.Context, roomID, playerID string) error {
	m.mu.Lock()
	room, ok := m.rooms[roomID]
	if !ok {
		m.mu.Unlock()
		return nil
	}
	if _, ok := room[playerID]; !ok {
		m.mu.Unlock()
		return nil
	}
	delete(room, playerID)
	if len(room) == 0 {
		delete(m.rooms, roomID)
	}
	snapshot, subscribers := room.clone(), m.subscribersLocked(roomID)
	m.mu.Unlock()

	for _, onSnapshot := range subscribers {
		onSnapshot(snapshot)
	}
	return nil
}

// NewPlayerID allocates a fresh player ID.
func (m *Memory) NewPlayerID(roomID string) string {
	return uuid.New().String()
}

func (m *Memory) subscribersLocked(roomID string) []func(Snapshot) {
	subs := make([]func(Snapshot), 0, len(m.subscribers[roomID]))
	for _, onSnapshot := range m.subscribers[roomID] {
		subs = append(subs, onSnapshot)
	}
	return subs
}
