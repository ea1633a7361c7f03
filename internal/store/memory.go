package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/sylvieyl/heartlog/backend/internal/model/diary"
	"github.com/sylvieyl/heartlog/backend/internal/model/user"
	"github.com/sylvieyl/heartlog/backend/internal/service/journal"
)

// MemoryUserStore keeps users in memory, for development and tests.
type MemoryUserStore struct {
	mu    sync.RWMutex
	users map[string]user.User
}

// NewMemoryUserStore 创建内存用户存储。
func NewMemoryUserStore() *MemoryUserStore {
	return &MemoryUserStore{users: make(map[string]user.User)}
}

func (s *MemoryUserStore) Create(_ context.Context, u user.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[u.ID] = u
	return nil
}

func (s *MemoryUserStore) FindByEmail(_ context.Context, email string) (user.User, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, u := range s.users {
		if u.Email == email {
			return u, true, nil
		}
	}
	return user.User{}, false, nil
}

func (s *MemoryUserStore) FindByID(_ context.Context, id string) (user.User, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[id]
	return u, ok, nil
}

// MemoryEntryStore keeps diary entries in memory.
type MemoryEntryStore struct {
	mu      sync.RWMutex
	entries map[string]diary.Entry
}

// NewMemoryEntryStore 创建内存日记存储。
func NewMemoryEntryStore() *MemoryEntryStore {
	return &MemoryEntryStore{entries: make(map[string]diary.Entry)}
}

func (s *MemoryEntryStore) Save(_ context.Context, entry diary.Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[entry.ID] = entry
	return nil
}

func (s *MemoryEntryStore) Get(_ context.Context, id, userID string) (diary.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	entry, ok := s.entries[id]
	if !ok || entry.UserID != userID {
		return diary.Entry{}, journal.ErrEntryNotFound
	}
	return entry, nil
}

func (s *MemoryEntryStore) ListRange(_ context.Context, userID string, from, to time.Time) ([]diary.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]diary.Entry, 0)
	for _, entry := range s.entries {
		if entry.UserID != userID {
			continue
		}
		if entry.Date.Before(from) || entry.Date.After(to) {
			continue
		}
		out = append(out, entry)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (s *MemoryEntryStore) SetPhoto(_ context.Context, id, userID, photoKey string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.entries[id]
	if !ok || entry.UserID != userID {
		return journal.ErrEntryNotFound
	}
	entry.PhotoKey = photoKey
	s.entries[id] = entry
	return nil
}

func (s *MemoryEntryStore) Delete(_ context.Context, id, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.entries[id]
	if !ok || entry.UserID != userID {
		return journal.ErrEntryNotFound
	}
	delete(s.entries, id)
	return nil
}
