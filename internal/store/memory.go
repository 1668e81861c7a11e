package store

import (
	"context"
	"errors"
	"path"
	"sync"

	"github.com/serroba/shortlinks/internal/kv"
)

// ErrWrongType mirrors Redis' WRONGTYPE reply for an operation against a key of another type.
var ErrWrongType = errors.New("operation against a key holding the wrong kind of value")

// MemoryKV is an in-memory implementation of kv.Store with Redis semantics.
// Every call locks on its own, so sequences of calls interleave exactly like
// independent commands against a shared server.
type MemoryKV struct {
	mu      sync.RWMutex
	strings map[string]string
	hashes  map[string]map[string]string
	sets    map[string]map[string]struct{}
}

// NewMemoryKV creates an empty in-memory store.
func NewMemoryKV() *MemoryKV {
	return &MemoryKV{
		strings: make(map[string]string),
		hashes:  make(map[string]map[string]string),
		sets:    make(map[string]map[string]struct{}),
	}
}

func (m *MemoryKV) Get(_ context.Context, key string) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	value, ok := m.strings[key]
	if !ok {
		if m.holdsOther(key, "string") {
			return "", ErrWrongType
		}

		return "", kv.ErrNil
	}

	return value, nil
}

func (m *MemoryKV) Set(_ context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	// SET replaces a value of any type.
	m.deleteLocked(key)
	m.strings[key] = value

	return nil
}

func (m *MemoryKV) Delete(_ context.Context, key string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.deleteLocked(key), nil
}

func (m *MemoryKV) Exists(_ context.Context, key string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.existsLocked(key), nil
}

func (m *MemoryKV) Keys(_ context.Context, pattern string) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var keys []string

	collect := func(key string) error {
		ok, err := path.Match(pattern, key)
		if err != nil {
			return err
		}

		if ok {
			keys = append(keys, key)
		}

		return nil
	}

	for key := range m.strings {
		if err := collect(key); err != nil {
			return nil, err
		}
	}

	for key := range m.hashes {
		if err := collect(key); err != nil {
			return nil, err
		}
	}

	for key := range m.sets {
		if err := collect(key); err != nil {
			return nil, err
		}
	}

	return keys, nil
}

func (m *MemoryKV) HGetAll(_ context.Context, key string) (map[string]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.holdsOther(key, "hash") {
		return nil, ErrWrongType
	}

	fields := make(map[string]string, len(m.hashes[key]))
	for k, v := range m.hashes[key] {
		fields[k] = v
	}

	return fields, nil
}

func (m *MemoryKV) HSet(_ context.Context, key string, fields map[string]string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.holdsOther(key, "hash") {
		return ErrWrongType
	}

	if len(fields) == 0 {
		return nil
	}

	h, ok := m.hashes[key]
	if !ok {
		h = make(map[string]string, len(fields))
		m.hashes[key] = h
	}

	for k, v := range fields {
		h[k] = v
	}

	return nil
}

func (m *MemoryKV) SAdd(_ context.Context, key string, members ...string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.holdsOther(key, "set") {
		return 0, ErrWrongType
	}

	if len(members) == 0 {
		return 0, nil
	}

	s, ok := m.sets[key]
	if !ok {
		s = make(map[string]struct{}, len(members))
		m.sets[key] = s
	}

	var added int64

	for _, member := range members {
		if _, exists := s[member]; !exists {
			s[member] = struct{}{}
			added++
		}
	}

	return added, nil
}

func (m *MemoryKV) SRem(_ context.Context, key string, members ...string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.holdsOther(key, "set") {
		return 0, ErrWrongType
	}

	s, ok := m.sets[key]
	if !ok {
		return 0, nil
	}

	var removed int64

	for _, member := range members {
		if _, exists := s[member]; exists {
			delete(s, member)
			removed++
		}
	}

	// Redis drops a set once its last member is gone.
	if len(s) == 0 {
		delete(m.sets, key)
	}

	return removed, nil
}

func (m *MemoryKV) SMembers(_ context.Context, key string) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.holdsOther(key, "set") {
		return nil, ErrWrongType
	}

	members := make([]string, 0, len(m.sets[key]))
	for member := range m.sets[key] {
		members = append(members, member)
	}

	return members, nil
}

func (m *MemoryKV) deleteLocked(key string) bool {
	existed := m.existsLocked(key)

	delete(m.strings, key)
	delete(m.hashes, key)
	delete(m.sets, key)

	return existed
}

func (m *MemoryKV) existsLocked(key string) bool {
	if _, ok := m.strings[key]; ok {
		return true
	}

	if _, ok := m.hashes[key]; ok {
		return true
	}

	_, ok := m.sets[key]

	return ok
}

// holdsOther reports whether key exists with a type other than want.
func (m *MemoryKV) holdsOther(key, want string) bool {
	if _, ok := m.strings[key]; ok && want != "string" {
		return true
	}

	if _, ok := m.hashes[key]; ok && want != "hash" {
		return true
	}

	if _, ok := m.sets[key]; ok && want != "set" {
		return true
	}

	return false
}

// Compile-time check.
var _ kv.Store = (*MemoryKV)(nil)
