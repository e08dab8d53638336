package cache

import (
	lru "github.com/hashicorp/golang-lru/v2"
)

// DefaultMemoryEntries bounds the in-memory cache used by long running modes.
const DefaultMemoryEntries = 1024

// Memory is a bounded in-process LRU store.
type Memory struct {
	lru *lru.Cache[string, []byte]
}

// NewMemory creates an LRU store holding up to size entries.
func NewMemory(size int) (*Memory, error) {
	if size <= 0 {
		size = DefaultMemoryEntries
	}
	c, err := lru.New[string, []byte](size)
	if err != nil {
		return nil, err
	}
	return &Memory{lru: c}, nil
}

// Get implements Store.
func (m *Memory) Get(key string) ([]byte, bool) {
	return m.lru.Get(key)
}

// Set implements Store.
func (m *Memory) Set(key string, data []byte) error {
	m.lru.Add(key, data)
	return nil
}

// Len returns the number of cached entries.
func (m *Memory) Len() int {
	return m.lru.Len()
}

// Layered checks each store in order and fills earlier stores on a hit in a
// later one. Writes go to every store.
type Layered []Store

// Get implements Store.
func (l Layered) Get(key string) ([]byte, bool) {
	for i, s := range l {
		if data, ok := s.Get(key); ok {
			for _, earlier := range l[:i] {
				_ = earlier.Set(key, data)
			}
			return data, true
		}
	}
	return nil, false
}

// Set implements Store.
func (l Layered) Set(key string, data []byte) error {
	var first error
	for _, s := range l {
		if err := s.Set(key, data); err != nil && first == nil {
			first = err
		}
	}
	return first
}
