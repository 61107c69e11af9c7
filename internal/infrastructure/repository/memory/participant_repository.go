package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/riskibarqy/gift-exchange/internal/domain/participant"
)

type ParticipantRepository struct {
	mu    sync.RWMutex
	items map[string]participant.Participant
}

func NewParticipantRepository(seed []participant.Participant) *ParticipantRepository {
	items := make(map[string]participant.Participant, len(seed))
	for _, item := range seed {
		items[item.ID] = cloneParticipant(item)
	}
	return &ParticipantRepository{items: items}
}

func (r *ParticipantRepository) Create(_ context.Context, p participant.Participant) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.items[p.ID]; exists {
		return fmt.Errorf("participant %s already exists", p.ID)
	}
	r.items[p.ID] = cloneParticipant(p)
	return nil
}

func (r *ParticipantRepository) Update(_ context.Context, p participant.Participant) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.items[p.ID]; !exists {
		return fmt.Errorf("%w: %s", participant.ErrNotFound, p.ID)
	}
	r.items[p.ID] = cloneParticipant(p)
	return nil
}

func (r *ParticipantRepository) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.items[id]; !exists {
		return fmt.Errorf("%w: %s", participant.ErrNotFound, id)
	}
	delete(r.items, id)
	return nil
}

func (r *ParticipantRepository) GetByID(_ context.Context, id string) (participant.Participant, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	item, ok := r.items[id]
	if !ok {
		return participant.Participant{}, false, nil
	}
	return cloneParticipant(item), true, nil
}

// GetByIDs returns participants in the order of ids.
func (r *ParticipantRepository) GetByIDs(_ context.Context, ids []string) ([]participant.Participant, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]participant.Participant, 0, len(ids))
	var missing []string
	for _, id := range ids {
		item, ok := r.items[id]
		if !ok {
			missing = append(missing, id)
			continue
		}
		out = append(out, cloneParticipant(item))
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: %v", participant.ErrNotFound, missing)
	}
	return out, nil
}

func (r *ParticipantRepository) List(_ context.Context) ([]participant.Participant, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]participant.Participant, 0, len(r.items))
	for _, item := range r.items {
		out = append(out, cloneParticipant(item))
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func cloneParticipant(p participant.Participant) participant.Participant {
	copied := p
	if p.BirthDate != nil {
		d := *p.BirthDate
		copied.BirthDate = &d
	}
	return copied
}
