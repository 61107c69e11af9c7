package participant

import "context"

// Registry is the read contract the assignment flow consumes.
// GetByIDs fails with ErrNotFound when any requested id is missing.
type Registry interface {
	GetByIDs(ctx context.Context, ids []string) ([]Participant, error)
}

type Repository interface {
	Registry
	Create(ctx context.Context, p Participant) error
	Update(ctx context.Context, p Participant) error
	// Delete fails with ErrNotFound when id is unknown.
	Delete(ctx context.Context, id string) error
	GetByID(ctx context.Context, id string) (Participant, bool, error)
	List(ctx context.Context) ([]Participant, error)
}
