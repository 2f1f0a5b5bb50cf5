package cache

import (
	"sync"
	"time"
)

// Store es un cache en memoria con TTL y capacidad maxima, protegido por mutex.
// Al superar la capacidad se desaloja la entrada mas vieja (por momento de escritura).
type Store[K comparable, V any] struct {
	mu      sync.Mutex
	ttl     time.Duration
	max     int
	entries map[K]entry[V]
}

type entry[V any] struct {
	value    V
	storedAt time.Time
}

// New crea un Store con el TTL y la capacidad dados.
func New[K comparable, V any](ttl time.Duration, max int) *Store[K, V] {
	if ttl <= 0 {
		ttl = time.Minute
	}
	if max <= 0 {
		max = 1
	}
	return &Store[K, V]{
		ttl:     ttl,
		max:     max,
		entries: make(map[K]entry[V]),
	}
}

// Get devuelve el valor si existe y su TTL no expiro.
func (s *Store[K, V]) Get(key K) (V, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[key]
	if !ok {
		var zero V
		return zero, false
	}
	if time.Now().UTC().Sub(e.storedAt) > s.ttl {
		delete(s.entries, key)
		var zero V
		return zero, false
	}
	return e.value, true
}

// Set guarda el valor, desalojando la entrada mas vieja si se supera la capacidad.
func (s *Store[K, V]) Set(key K, value V) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.entries[key]; !exists && len(s.entries) >= s.max {
		s.evictOldestLocked()
	}
	s.entries[key] = entry[V]{value: value, storedAt: time.Now().UTC()}
}

// Delete elimina la entrada si existe.
func (s *Store[K, V]) Delete(key K) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, key)
}

// DeleteFunc elimina todas las entradas cuya clave cumpla el predicado.
func (s *Store[K, V]) DeleteFunc(match func(K) bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for k := range s.entries {
		if match(k) {
			delete(s.entries, k)
		}
	}
}

// Len devuelve la cantidad de entradas almacenadas, expiradas o no.
func (s *Store[K, V]) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

func (s *Store[K, V]) evictOldestLocked() {
	var oldestKey K
	var oldestAt time.Time
	first := true
	for k, e := range s.entries {
		if first || e.storedAt.Before(oldestAt) {
			oldestKey = k
			oldestAt = e.storedAt
			first = false
		}
	}
	if !first {
		delete(s.entries, oldestKey)
	}
}
