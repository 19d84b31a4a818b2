//go:build debug

package channel

// New creates a new channel. Debug builds hand back an unbuffered
// channel (size is ignored) so lost updates surface as deadlocks.
func New[T any](size int) Channel[T] {
	return NewUnbuffered[T]()
}
