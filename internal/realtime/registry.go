package realtime

import (
	"fmt"
	"sync"

	"github.com/google/uuid"
)

// Peer is one connected socket as seen by the registry.
type Peer interface {
	ID() string
	UserID() uuid.UUID
	// Send queues a frame for delivery and reports whether it was accepted.
	Send(frame Frame) bool
}

// Registry maps room ids to the peers currently joined to them.
type Registry struct {
	mu    sync.RWMutex
	rooms map[string]map[string]Peer
	// joined is the reverse index used to drop a peer from every room.
	joined map[string]map[string]struct{}
}

func NewRegistry() *Registry {
	return &Registry{
		rooms:  map[string]map[string]Peer{},
		joined: map[string]map[string]struct{}{},
	}
}

// UserRoom is the private room every connection of a user joins.
func UserRoom(userID uuid.UUID) string {
	return "user:" + userID.String()
}

// ConversationRoom is shared by two users regardless of argument order.
func ConversationRoom(a, b uuid.UUID) string {
	x, y := a.String(), b.String()
	if y < x {
		x, y = y, x
	}
	return fmt.Sprintf("conversation:%s:%s", x, y)
}

func (r *Registry) Join(room string, peer Peer) {
	r.mu.Lock()
	defer r.mu.Unlock()
	members, ok := r.rooms[room]
	if !ok {
		members = map[string]Peer{}
		r.rooms[room] = members
	}
	members[peer.ID()] = peer

	rooms, ok := r.joined[peer.ID()]
	if !ok {
		rooms = map[string]struct{}{}
		r.joined[peer.ID()] = rooms
	}
	rooms[room] = struct{}{}
}

func (r *Registry) Leave(room string, peer Peer) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.leaveLocked(room, peer.ID())
}

// LeaveAll removes peer from every room it joined.
func (r *Registry) LeaveAll(peer Peer) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for room := range r.joined[peer.ID()] {
		r.leaveLocked(room, peer.ID())
	}
	delete(r.joined, peer.ID())
}

func (r *Registry) leaveLocked(room, peerID string) {
	if members, ok := r.rooms[room]; ok {
		delete(members, peerID)
		if len(members) == 0 {
			delete(r.rooms, room)
		}
	}
	if rooms, ok := r.joined[peerID]; ok {
		delete(rooms, room)
	}
}

// Emit sends frame to every peer in room and returns the number that accepted it.
func (r *Registry) Emit(room string, frame Frame) int {
	r.mu.RLock()
	peers := make([]Peer, 0, len(r.rooms[room]))
	for _, peer := range r.rooms[room] {
		peers = append(peers, peer)
	}
	r.mu.RUnlock()

	delivered := 0
	for _, peer := range peers {
		if peer.Send(frame) {
			delivered++
		}
	}
	return delivered
}

// HasUser reports whether any connection of userID is joined to room.
func (r *Registry) HasUser(room string, userID uuid.UUID) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, peer := range r.rooms[room] {
		if peer.UserID() == userID {
			return true
		}
	}
	return false
}

func (r *Registry) Size(room string) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.rooms[room])
}
