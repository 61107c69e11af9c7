package usecase

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/panjf2000/ants/v2"
)

const (
	completionStatusCompleted = "completed"
	completionStatusFailed    = "failed"

	defaultCompletionWorkers = 4
	maxCompletionWorkers     = 32
)

type CompletionItem struct {
	GameID     string `json:"game_id"`
	Status     string `json:"status"`
	Message    string `json:"message,omitempty"`
	DurationMs int64  `json:"duration_ms"`
}

type CompletionResult struct {
	DueCount       int              `json:"due_count"`
	CompletedCount int              `json:"completed_count"`
	FailedCount    int              `json:"failed_count"`
	WorkerCount    int              `json:"worker_count"`
	Items          []CompletionItem `json:"items"`
}

// CompleteDueGames completes every active classic game whose delivery date
// lies before the calendar day of now. A failing game is reported in the
// result and does not stop the others. Birthday games are left alone.
func (s *GameService) CompleteDueGames(ctx context.Context, now time.Time) (CompletionResult, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.GameService.CompleteDueGames")
	defer span.End()

	if now.IsZero() {
		now = s.now()
	}
	now = now.UTC()
	day := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)

	due, err := s.games.ListActiveClassicDueBefore(ctx, day)
	if err != nil {
		return CompletionResult{}, fmt.Errorf("list due games: %w", err)
	}

	workerCount := normalizeCompletionWorkers(s.completionWorkers, len(due))
	result := CompletionResult{
		DueCount:    len(due),
		WorkerCount: workerCount,
		Items:       make([]CompletionItem, 0, len(due)),
	}
	if len(due) == 0 {
		return result, nil
	}

	pool, err := ants.NewPool(workerCount)
	if err != nil {
		return CompletionResult{}, fmt.Errorf("create worker pool: %w", err)
	}
	defer pool.Release()

	items := make(chan CompletionItem, len(due))
	var completed atomic.Int32
	var failed atomic.Int32
	var workers sync.WaitGroup
	for _, g := range due {
		gameID := g.ID
		workers.Add(1)
		if err := pool.Submit(func() {
			defer workers.Done()

			start := time.Now()
			item := CompletionItem{GameID: gameID, Status: completionStatusCompleted}
			if _, err := s.CompleteGame(ctx, gameID); err != nil {
				item.Status = completionStatusFailed
				item.Message = err.Error()
				failed.Add(1)
				s.logger.WarnContext(ctx, "complete due game failed", "game_id", gameID, "error", err)
			} else {
				completed.Add(1)
			}
			item.DurationMs = time.Since(start).Milliseconds()
			items <- item
		}); err != nil {
			workers.Done()
			workers.Wait()
			return CompletionResult{}, fmt.Errorf("submit task to worker pool: %w", err)
		}
	}

	workers.Wait()
	close(items)
	for item := range items {
		result.Items = append(result.Items, item)
	}
	sort.SliceStable(result.Items, func(i, j int) bool {
		return result.Items[i].GameID < result.Items[j].GameID
	})

	result.CompletedCount = int(completed.Load())
	result.FailedCount = int(failed.Load())
	s.logger.InfoContext(ctx, "due games swept",
		"due_count", result.DueCount,
		"completed_count", result.CompletedCount,
		"failed_count", result.FailedCount,
	)
	return result, nil
}

func normalizeCompletionWorkers(configured, tasks int) int {
	workers := configured
	if workers <= 0 {
		workers = defaultCompletionWorkers
	}
	if workers > maxCompletionWorkers {
		workers = maxCompletionWorkers
	}
	if tasks > 0 && workers > tasks {
		workers = tasks
	}
	if workers < 1 {
		workers = 1
	}
	return workers
}
