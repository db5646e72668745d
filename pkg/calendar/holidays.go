package calendar

import (
	"time"

	"cloud.google.com/go/civil"
)

// Holidays is an immutable set of national holidays compared by exact date.
type Holidays struct {
	days map[civil.Date]struct{}
}

func NewHolidays(dates ...civil.Date) Holidays {
	h := Holidays{days: make(map[civil.Date]struct{}, len(dates))}
	for _, d := range dates {
		h.days[d] = struct{}{}
	}
	return h
}

// Contains reports whether t's date is a holiday.
func (h Holidays) Contains(t time.Time) bool {
	_, ok := h.days[civil.DateOf(t)]
	return ok
}

func (h Holidays) Len() int {
	return len(h.days)
}
