package hmsws

import (
	"fmt"
	"sync"
	"testing"
	"time"

	hmschat "github.com/ahmadijaz02/hms-go-chat/hms-chat"
	"github.com/tj/assert"
)

func TestRegistry(t *testing.T) {
	alice := NewPresenceRecord("u1", "Alice", hmschat.RolePatient)
	bob := NewPresenceRecord("u2", "Bob", hmschat.RoleDoctor)

	t.Run("join and leave", func(t *testing.T) {
		r := NewRegistry()
		r.Join("c1", "u1", alice)
		r.Join("c2", "u2", bob)

		users := r.SnapshotOnlineUsers()
		assert.Len(t, users, 2)
		assert.True(t, users[0].Equal(alice))
		assert.True(t, users[1].Equal(bob))

		userID, ok := r.Leave("c1")
		assert.True(t, ok)
		assert.Equal(t, "u1", userID)

		users = r.SnapshotOnlineUsers()
		assert.Len(t, users, 1)
		assert.Equal(t, "u2", users[0].UserID)

		_, ok = r.Leave("c1")
		assert.False(t, ok)
		_, ok = r.Leave("never-joined")
		assert.False(t, ok)
	})

	t.Run("repeated identical joins", func(t *testing.T) {
		r := NewRegistry()
		r.Join("c1", "u1", alice)
		r.Join("c1", "u1", alice)
		r.Join("c1", "u1", alice)

		users := r.SnapshotOnlineUsers()
		assert.Len(t, users, 1)
		assert.True(t, users[0].Equal(alice))
	})

	t.Run("later join replaces record", func(t *testing.T) {
		r := NewRegistry()
		r.Join("c1", "u1", alice)
		renamed := NewPresenceRecord("u1", "Alice B", hmschat.RolePatient)
		r.Join("c1", "u1", renamed)

		record, ok := r.Presence("u1")
		assert.True(t, ok)
		assert.Equal(t, "Alice B", record.Name())
	})

	t.Run("rejoin as another user", func(t *testing.T) {
		r := NewRegistry()
		r.Join("c1", "u1", alice)
		r.Join("c1", "u2", bob)

		_, ok := r.Presence("u1")
		assert.False(t, ok)
		userID, ok := r.Lookup("c1")
		assert.True(t, ok)
		assert.Equal(t, "u2", userID)
	})

	t.Run("record outlives a duplicate connection", func(t *testing.T) {
		r := NewRegistry()
		r.Join("c1", "u1", alice)
		r.Join("c2", "u1", alice)

		userID, ok := r.Leave("c1")
		assert.True(t, ok)
		assert.Equal(t, "u1", userID)
		assert.Equal(t, 1, r.Len())

		_, ok = r.Leave("c2")
		assert.True(t, ok)
		assert.Equal(t, 0, r.Len())
	})

	t.Run("exclusive join unmaps older connections", func(t *testing.T) {
		r := NewRegistry()
		r.Join("c1", "u1", alice)
		r.Join("c2", "u1", alice)

		evicted := r.JoinExclusive("c3", "u1", alice)
		assert.Equal(t, []string{"c1", "c2"}, evicted)

		_, ok := r.Lookup("c1")
		assert.False(t, ok)
		_, ok = r.Leave("c2")
		assert.False(t, ok)

		users := r.SnapshotOnlineUsers()
		assert.Len(t, users, 1)

		_, ok = r.Leave("c3")
		assert.True(t, ok)
		assert.Len(t, r.SnapshotOnlineUsers(), 0)
	})

	t.Run("snapshot is a copy", func(t *testing.T) {
		r := NewRegistry()
		r.Join("c1", "u1", alice)
		users := r.SnapshotOnlineUsers()
		r.Leave("c1")
		assert.Len(t, users, 1)
		assert.NotNil(t, r.SnapshotOnlineUsers())
	})

	t.Run("clear", func(t *testing.T) {
		r := NewRegistry()
		r.Join("c1", "u1", alice)
		r.Join("c2", "u2", bob)
		r.Clear()

		assert.Equal(t, 0, r.Len())
		_, ok := r.Lookup("c1")
		assert.False(t, ok)
	})
}

func TestRegistryConcurrent(t *testing.T) {
	const n = 200

	r := NewRegistry()
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			var (
				connID = fmt.Sprintf("c%v", i)
				userID = fmt.Sprintf("u%v", i)
			)
			r.Join(connID, userID, NewPresenceRecord(userID, "", ""))
			if i%2 == 0 {
				got, ok := r.Leave(connID)
				assert.True(t, ok)
				assert.Equal(t, userID, got)
			}
		}(i)
	}
	wg.Wait()

	users := r.SnapshotOnlineUsers()
	assert.Len(t, users, n/2)
	seen := map[string]bool{}
	for _, u := range users {
		assert.False(t, seen[u.UserID])
		seen[u.UserID] = true

		var i int
		_, err := fmt.Sscanf(u.UserID, "u%d", &i)
		assert.NoError(t, err)
		assert.Equal(t, 1, i%2)

		userID, ok := r.Lookup(fmt.Sprintf("c%v", i))
		assert.True(t, ok)
		assert.Equal(t, u.UserID, userID)
	}
}

func TestRegistryConcurrentSameUser(t *testing.T) {
	const n = 100

	r := NewRegistry()
	record := NewPresenceRecord("u1", "Alice", hmschat.RolePatient)

	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			connID := fmt.Sprintf("c%v", i)
			r.JoinExclusive(connID, "u1", record)
			r.Leave(connID)
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 0, r.Len())
	assert.Len(t, r.SnapshotOnlineUsers(), 0)
}

// userInShard returns a user id that hashes to shard i.
func userInShard(t *testing.T, i int) string {
	for n := 0; n < 100000; n++ {
		id := fmt.Sprintf("u%v", n)
		if shardIndex(id) == i {
			return id
		}
	}
	t.Fatalf("no user id found for shard %v", i)
	return ""
}

func TestSnapshotIsPointInTime(t *testing.T) {
	r := NewRegistry()
	early := userInShard(t, 0)
	late := userInShard(t, registryShards-1)
	r.Join("c1", late, NewPresenceRecord(late, "Alice", hmschat.RolePatient))

	// hold a shard in the middle so the snapshot stalls partway through
	held := &r.shards[registryShards/2]
	held.mu.Lock()

	snapshot := make(chan []PresenceRecord, 1)
	go func() { snapshot <- r.SnapshotOnlineUsers() }()
	time.Sleep(50 * time.Millisecond)

	// the user moves from the last shard to the first while the snapshot waits
	moved := make(chan struct{})
	go func() {
		defer close(moved)
		r.Join("c2", early, NewPresenceRecord(early, "Alice", hmschat.RolePatient))
		r.Leave("c1")
	}()
	time.Sleep(50 * time.Millisecond)
	held.mu.Unlock()

	users := <-snapshot
	assert.True(t, len(users) > 0, "snapshot must see the user before or after the move")
	<-moved

	users = r.SnapshotOnlineUsers()
	assert.Len(t, users, 1)
	assert.Equal(t, early, users[0].UserID)
}
