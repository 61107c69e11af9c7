package memory

import (
	"time"

	"github.com/riskibarqy/gift-exchange/internal/domain/participant"
)

// SeedParticipants is the demo registry loaded when running on memory
// storage in dev.
func SeedParticipants(now time.Time) []participant.Participant {
	date := func(year int, month time.Month, day int) *time.Time {
		d := time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
		return &d
	}
	now = now.UTC()
	return []participant.Participant{
		{ID: "demo-ana", Name: "Ana Putri", Email: "ana@example.com", BirthDate: date(1990, time.March, 14), CreatedAt: now, UpdatedAt: now},
		{ID: "demo-budi", Name: "Budi Santoso", Email: "budi@example.com", BirthDate: date(1988, time.July, 2), CreatedAt: now, UpdatedAt: now},
		{ID: "demo-citra", Name: "Citra Lestari", Email: "citra@example.com", BirthDate: date(1992, time.February, 29), CreatedAt: now, UpdatedAt: now},
		{ID: "demo-dewi", Name: "Dewi Anggraini", Email: "dewi@example.com", BirthDate: date(1995, time.November, 23), CreatedAt: now, UpdatedAt: now},
		{ID: "demo-eko", Name: "Eko Prasetyo", Email: "eko@example.com", CreatedAt: now, UpdatedAt: now},
	}
}
