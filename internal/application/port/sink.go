package port

// Channel is one subscriber connection. Emit must be safe for concurrent use
// and must not block for long; slow consumers may drop events.
type Channel interface {
	ID() string
	Emit(event string, payload any) error
}
