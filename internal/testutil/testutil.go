// Package testutil holds small helpers shared by tests.
package testutil

import "time"

func Ptr[T any](v T) *T {
	return &v
}

// Date returns midnight UTC of the given day.
func Date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}
