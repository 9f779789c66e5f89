package hmsws

import (
	"hash/fnv"
	"sort"
	"sync"
)

const registryShards = 32

// Registry maps live connections to the users they joined as and holds the
// presence record of every online user. Users are spread over shards so
// unrelated joins and leaves do not contend; a connection's entry in
// sessions only changes while the shard of the user it maps to is locked.
type Registry struct {
	sessions sync.Map // connection id -> user id
	shards   [registryShards]registryShard
}

type registryShard struct {
	mu    sync.Mutex
	users map[string]*presenceEntry
}

type presenceEntry struct {
	record PresenceRecord
	conns  map[string]struct{}
}

func NewRegistry() *Registry {
	r := &Registry{}
	for i := range r.shards {
		r.shards[i].users = map[string]*presenceEntry{}
	}
	return r
}

func shardIndex(userID string) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(userID))
	return int(h.Sum32() % registryShards)
}

func (r *Registry) shard(userID string) *registryShard {
	return &r.shards[shardIndex(userID)]
}

// lockAll takes every shard lock in index order. Mutators never hold more
// than one shard lock, so this cannot deadlock against them.
func (r *Registry) lockAll() {
	for i := range r.shards {
		r.shards[i].mu.Lock()
	}
}

func (r *Registry) unlockAll() {
	for i := range r.shards {
		r.shards[i].mu.Unlock()
	}
}

// Join maps connID to userID and stores record as the user's presence.
// Other connections of the same user stay mapped.
func (r *Registry) Join(connID, userID string, record PresenceRecord) {
	r.join(connID, userID, record, false)
}

// JoinExclusive behaves like Join and, in the same step, unmaps every
// other connection of userID. It returns the unmapped connection ids.
func (r *Registry) JoinExclusive(connID, userID string, record PresenceRecord) []string {
	return r.join(connID, userID, record, true)
}

func (r *Registry) join(connID, userID string, record PresenceRecord, exclusive bool) []string {
	if prev, ok := r.sessions.Load(connID); ok && prev.(string) != userID {
		r.detach(connID, prev.(string))
	}

	s := r.shard(userID)
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.users[userID]
	if !ok {
		entry = &presenceEntry{conns: map[string]struct{}{}}
		s.users[userID] = entry
	}
	entry.record = record
	entry.conns[connID] = struct{}{}
	r.sessions.Store(connID, userID)

	if !exclusive {
		return nil
	}
	var evicted []string
	for id := range entry.conns {
		if id == connID {
			continue
		}
		delete(entry.conns, id)
		r.sessions.CompareAndDelete(id, userID)
		evicted = append(evicted, id)
	}
	sort.Strings(evicted)
	return evicted
}

// detach removes connID from userID if it is still mapped there.
func (r *Registry) detach(connID, userID string) bool {
	s := r.shard(userID)
	s.mu.Lock()
	defer s.mu.Unlock()

	if !r.sessions.CompareAndDelete(connID, userID) {
		return false
	}
	if entry, ok := s.users[userID]; ok {
		delete(entry.conns, connID)
		if len(entry.conns) == 0 {
			delete(s.users, userID)
		}
	}
	return true
}

// Leave unmaps connID. The user's presence record goes with its last
// connection. ok is false when connID had no entry.
func (r *Registry) Leave(connID string) (userID string, ok bool) {
	for {
		v, found := r.sessions.Load(connID)
		if !found {
			return "", false
		}
		userID = v.(string)
		if r.detach(connID, userID) {
			return userID, true
		}
		// remapped concurrently; retry against the new owner
	}
}

// Lookup returns the user connID joined as.
func (r *Registry) Lookup(connID string) (string, bool) {
	v, ok := r.sessions.Load(connID)
	if !ok {
		return "", false
	}
	return v.(string), true
}

// Presence returns the current record of userID.
func (r *Registry) Presence(userID string) (PresenceRecord, bool) {
	s := r.shard(userID)
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.users[userID]
	if !ok {
		return PresenceRecord{}, false
	}
	return entry.record, true
}

// SnapshotOnlineUsers copies every presence record, sorted by user id.
// The copy is taken with all shards locked, so it reflects a single point
// in time.
func (r *Registry) SnapshotOnlineUsers() []PresenceRecord {
	users := []PresenceRecord{}
	r.lockAll()
	for i := range r.shards {
		for _, entry := range r.shards[i].users {
			users = append(users, entry.record)
		}
	}
	r.unlockAll()
	sort.Slice(users, func(i, j int) bool {
		return users[i].UserID < users[j].UserID
	})
	return users
}

// Len returns the number of online users.
func (r *Registry) Len() int {
	r.lockAll()
	defer r.unlockAll()

	n := 0
	for i := range r.shards {
		n += len(r.shards[i].users)
	}
	return n
}

// Clear drops every entry.
func (r *Registry) Clear() {
	for i := range r.shards {
		s := &r.shards[i]
		s.mu.Lock()
		for _, entry := range s.users {
			for id := range entry.conns {
				r.sessions.Delete(id)
			}
		}
		s.users = map[string]*presenceEntry{}
		s.mu.Unlock()
	}
}
