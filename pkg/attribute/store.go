// Package attribute holds the single mutable value exposed by the base station's
// question/answer resource.
//
// The store is owned by the resource handler and is only touched from the stack's
// event loop, so it carries no locking.
package attribute

// Capacity is the size of the backing buffer, including the terminating NUL.
const Capacity = 256

// MaxValueLen is the largest value that can be stored.
const MaxValueLen = Capacity - 1

// Store is a fixed-capacity byte value. The zero value is an empty store.
type Store struct {
	buf [Capacity]byte
	n   int
}

// New returns an empty store.
func New() *Store {
	return &Store{}
}

// Set overwrites the value with p, truncated to MaxValueLen bytes.
// It returns the number of bytes stored.
func (s *Store) Set(p []byte) int {
	n := copy(s.buf[:MaxValueLen], p)
	// Clear the tail so the buffer stays NUL terminated after a shorter write.
	clear(s.buf[n:])
	s.n = n
	return n
}

// SetString is Set for string values.
func (s *Store) SetString(v string) int {
	return s.Set([]byte(v))
}

// Bytes returns a copy of the current value.
func (s *Store) Bytes() []byte {
	out := make([]byte, s.n)
	copy(out, s.buf[:s.n])
	return out
}

// String returns the current value as a string.
func (s *Store) String() string {
	return string(s.buf[:s.n])
}

// Len returns the length of the current value.
func (s *Store) Len() int {
	return s.n
}

// Cap returns the capacity of the backing buffer, including the terminator.
func (s *Store) Cap() int {
	return Capacity
}

// Reset clears the value.
func (s *Store) Reset() {
	clear(s.buf[:])
	s.n = 0
}
