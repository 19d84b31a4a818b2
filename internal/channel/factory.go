//go:build !debug

package channel

// New creates a new channel with the given buffer size. Production
// builds buffer so task updates never block the producing goroutine.
func New[T any](size int) Channel[T] {
	return NewBuffered[T](size)
}
