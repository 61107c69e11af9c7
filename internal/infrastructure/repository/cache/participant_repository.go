package cache

import (
	"context"

	"github.com/riskibarqy/gift-exchange/internal/domain/participant"
	basecache "github.com/riskibarqy/gift-exchange/internal/platform/cache"
)

const (
	participantListKey     = "participant:list"
	participantIDKeyPrefix = "participant:id:"
)

// Registry caches participant lookups by id. It fits both the local
// repository and the remote registry client.
type Registry struct {
	next  participant.Registry
	cache *basecache.Store
}

func NewRegistry(next participant.Registry, cache *basecache.Store) *Registry {
	return &Registry{next: next, cache: cache}
}

// GetByIDs serves cached ids and fetches the rest in one call to next.
func (r *Registry) GetByIDs(ctx context.Context, ids []string) ([]participant.Participant, error) {
	found := make(map[string]participant.Participant, len(ids))
	missing := make([]string, 0, len(ids))
	gens := make(map[string]uint64, len(ids))
	for _, id := range ids {
		key := participantIDKeyPrefix + id
		if v, ok := r.cache.Get(ctx, key); ok {
			if item, ok := v.(participant.Participant); ok {
				found[id] = item
				continue
			}
		}
		gens[id] = r.cache.Generation(key)
		missing = append(missing, id)
	}

	if len(missing) > 0 {
		items, err := r.next.GetByIDs(ctx, missing)
		if err != nil {
			return nil, err
		}
		for _, item := range items {
			r.cache.SetIfGeneration(ctx, participantIDKeyPrefix+item.ID, gens[item.ID], item)
			found[item.ID] = item
		}
	}

	out := make([]participant.Participant, 0, len(ids))
	for _, id := range ids {
		if item, ok := found[id]; ok {
			out = append(out, cloneParticipant(item))
		}
	}
	return out, nil
}

// ParticipantRepository adds read caching to a full participant repository
// and drops affected keys on every write.
type ParticipantRepository struct {
	*Registry
	next participant.Repository
}

func NewParticipantRepository(next participant.Repository, cache *basecache.Store) *ParticipantRepository {
	return &ParticipantRepository{
		Registry: NewRegistry(next, cache),
		next:     next,
	}
}

func (r *ParticipantRepository) Create(ctx context.Context, p participant.Participant) error {
	if err := r.next.Create(ctx, p); err != nil {
		return err
	}
	r.cache.Delete(ctx, participantListKey)
	return nil
}

func (r *ParticipantRepository) Update(ctx context.Context, p participant.Participant) error {
	if err := r.next.Update(ctx, p); err != nil {
		return err
	}
	r.cache.Delete(ctx, participantListKey, participantIDKeyPrefix+p.ID)
	return nil
}

func (r *ParticipantRepository) Delete(ctx context.Context, id string) error {
	if err := r.next.Delete(ctx, id); err != nil {
		return err
	}
	r.cache.Delete(ctx, participantListKey, participantIDKeyPrefix+id)
	return nil
}

func (r *ParticipantRepository) GetByID(ctx context.Context, id string) (participant.Participant, bool, error) {
	key := participantIDKeyPrefix + id
	if v, ok := r.cache.Get(ctx, key); ok {
		if item, ok := v.(participant.Participant); ok {
			return cloneParticipant(item), true, nil
		}
	}

	gen := r.cache.Generation(key)
	item, exists, err := r.next.GetByID(ctx, id)
	if err != nil || !exists {
		return participant.Participant{}, exists, err
	}
	r.cache.SetIfGeneration(ctx, key, gen, item)
	return cloneParticipant(item), true, nil
}

func (r *ParticipantRepository) List(ctx context.Context) ([]participant.Participant, error) {
	v, err := r.cache.GetOrLoad(ctx, participantListKey, func(ctx context.Context) (any, error) {
		items, err := r.next.List(ctx)
		if err != nil {
			return nil, err
		}
		return append([]participant.Participant(nil), items...), nil
	})
	if err != nil {
		return nil, err
	}

	items, _ := v.([]participant.Participant)
	out := make([]participant.Participant, 0, len(items))
	for _, item := range items {
		out = append(out, cloneParticipant(item))
	}
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
