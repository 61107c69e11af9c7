// Package matching draws giver -> receiver pairs for a gift exchange.
//
// The draw is a uniformly random derangement of the participant list: a
// Fisher-Yates shuffle of positions that is rejected and resampled while any
// participant would give to themselves. Functions here are pure and safe for
// concurrent use.
package matching

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"strings"

	"github.com/riskibarqy/gift-exchange/internal/domain/game"
	"github.com/riskibarqy/gift-exchange/internal/domain/participant"
)

// DefaultMaxAttempts bounds resampling. For any n >= 3 a single shuffle is a
// derangement with probability >= 1/3, so exhausting this bound does not happen.
const DefaultMaxAttempts = 2000

var (
	ErrInvalidParticipants = errors.New("invalid participant set")
	ErrDrawExhausted       = errors.New("derangement draw exhausted")
)

// Pair is one giver -> receiver edge of a draw.
type Pair struct {
	GiverID    string
	ReceiverID string
}

type options struct {
	rng         *rand.Rand
	maxAttempts int
}

type Option func(*options)

// WithSeed makes the draw reproducible.
func WithSeed(seed uint64) Option {
	return func(o *options) {
		o.rng = rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	}
}

// WithRand uses the given generator. The caller must not share it between
// goroutines.
func WithRand(rng *rand.Rand) Option {
	return func(o *options) {
		if rng != nil {
			o.rng = rng
		}
	}
}

func WithMaxAttempts(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.maxAttempts = n
		}
	}
}

// Assign draws a derangement over participants for the given mode.
//
// Birthday mode additionally requires every participant to carry a birth date
// and fails with *game.MissingBirthDateError naming the ones that do not.
// Pairs are returned in the input order of givers.
func Assign(participants []participant.Participant, mode game.Mode, opts ...Option) ([]Pair, error) {
	if !mode.Valid() {
		return nil, fmt.Errorf("%w: unknown mode %q", ErrInvalidParticipants, mode)
	}

	ids, err := participantIDs(participants)
	if err != nil {
		return nil, err
	}
	if len(ids) < game.MinParticipants {
		return nil, fmt.Errorf("%w: need at least %d, got %d", game.ErrInsufficientParticipants, game.MinParticipants, len(ids))
	}

	if mode == game.ModeBirthday {
		if err := requireBirthDates(participants); err != nil {
			return nil, err
		}
	}

	cfg := options{maxAttempts: DefaultMaxAttempts}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.rng == nil {
		cfg.rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}

	perm, err := derangement(cfg.rng, len(ids), cfg.maxAttempts)
	if err != nil {
		return nil, err
	}

	pairs := make([]Pair, len(ids))
	for i, j := range perm {
		pairs[i] = Pair{GiverID: ids[i], ReceiverID: ids[j]}
	}
	return pairs, nil
}

// derangement returns a permutation of [0, n) with no fixed point.
func derangement(rng *rand.Rand, n, maxAttempts int) ([]int, error) {
	perm := make([]int, n)
	for attempt := 0; attempt < maxAttempts; attempt++ {
		for i := range perm {
			perm[i] = i
		}
		rng.Shuffle(n, func(i, j int) {
			perm[i], perm[j] = perm[j], perm[i]
		})
		if !hasFixedPoint(perm) {
			return perm, nil
		}
	}
	return nil, fmt.Errorf("%w after %d attempts", ErrDrawExhausted, maxAttempts)
}

func hasFixedPoint(perm []int) bool {
	for i, v := range perm {
		if i == v {
			return true
		}
	}
	return false
}

func participantIDs(participants []participant.Participant) ([]string, error) {
	ids := make([]string, 0, len(participants))
	seen := make(map[string]struct{}, len(participants))
	for _, p := range participants {
		id := strings.TrimSpace(p.ID)
		if id == "" {
			return nil, fmt.Errorf("%w: participant id cannot be empty", ErrInvalidParticipants)
		}
		if _, ok := seen[id]; ok {
			return nil, fmt.Errorf("%w: duplicate participant id %s", ErrInvalidParticipants, id)
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}
	return ids, nil
}

func requireBirthDates(participants []participant.Participant) error {
	var missing []string
	for _, p := range participants {
		if !p.HasBirthDate() {
			missing = append(missing, p.ID)
		}
	}
	if len(missing) > 0 {
		return &game.MissingBirthDateError{ParticipantIDs: missing}
	}
	return nil
}
