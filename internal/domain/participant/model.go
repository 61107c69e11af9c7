package participant

import (
	"errors"
	"time"
)

// DateLayout is the wire and storage layout for calendar dates.
const DateLayout = "2006-01-02"

var ErrNotFound = errors.New("participant not found")

// Participant is a registry record. Games reference participants by ID only.
type Participant struct {
	ID        string
	Name      string
	Email     string
	BirthDate *time.Time
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (p Participant) HasBirthDate() bool {
	return p.BirthDate != nil && !p.BirthDate.IsZero()
}

// NextBirthday returns the first birthday on or after the calendar day of now.
// A Feb 29 birthday is observed on Feb 28 in non-leap years.
func (p Participant) NextBirthday(now time.Time) (time.Time, bool) {
	if !p.HasBirthDate() {
		return time.Time{}, false
	}

	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	next := birthdayInYear(*p.BirthDate, today.Year())
	if next.Before(today) {
		next = birthdayInYear(*p.BirthDate, today.Year()+1)
	}
	return next, true
}

func birthdayInYear(birthDate time.Time, year int) time.Time {
	month, day := birthDate.Month(), birthDate.Day()
	if month == time.February && day == 29 && !isLeapYear(year) {
		day = 28
	}
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

func isLeapYear(year int) bool {
	return year%4 == 0 && (year%100 != 0 || year%400 == 0)
}
