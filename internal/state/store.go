package state

import "context"

// UpdateFunc derives the next state from the stored one. It runs while the
// session is locked, must not block, and may run more than once.
type UpdateFunc func(AppState) (AppState, error)

// Store keeps session states between requests. Implementations are safe for
// concurrent use and expire sessions that have not been saved for a while.
type Store interface {
	// Get returns ErrNotFound for unknown or expired sessions.
	Get(ctx context.Context, id string) (AppState, error)
	Save(ctx context.Context, s AppState) error
	// Update applies fn to the stored session atomically. When fn fails
	// nothing is written and the stored state is returned with its error.
	// Unknown or expired sessions give ErrNotFound; they are never recreated.
	Update(ctx context.Context, id string, fn UpdateFunc) (AppState, error)
	Delete(ctx context.Context, id string) error
	List(ctx context.Context) ([]AppState, error)
	Stats() map[string]interface{}
	Close() error
}
