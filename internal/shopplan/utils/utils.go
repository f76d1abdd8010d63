// Вспомогательные функции для работы со срезами, итераторами и датами.
package utils

import (
	"iter"
	"time"
)

func SliceToSlice[T any, U any](in *[]T, f func(*T) U) []U {
	if in == nil {
		return make([]U, 0)
	}
	out := make([]U, len(*in))
	for i, v := range *in {
		out[i] = f(&v)
	}
	return out
}

func SliceToMap[K comparable, V any](in *[]V, f func(*V) K) map[K]V {
	out := make(map[K]V, 0)
	if in == nil {
		return out
	}
	for _, v := range *in {
		out[f(&v)] = v
	}
	return out
}

func Filter[T any](seq iter.Seq[T], by func(T) bool) iter.Seq[T] {
	return func(yield func(T) bool) {
		for i := range seq {
			if by(i) {
				if !yield(i) {
					return
				}
			}
		}
	}
}

func All[T any](res []T) iter.Seq[T] {
	return func(yield func(T) bool) {
		for i := range res {
			if !yield(res[i]) {
				return
			}
		}
	}
}

func Collect[T any](seq iter.Seq[T]) []T {
	out := make([]T, 0)
	seq(func(val T) bool {
		out = append(out, val)
		return true
	})
	return out
}

// SumBy суммирует значения f по элементам среза.
func SumBy[T any](in []T, f func(*T) int) int {
	var sum int
	for i := range in {
		sum += f(&in[i])
	}
	return sum
}

// DateOf отбрасывает время суток, оставляя полночь в локации loc.
func DateOf(t time.Time, loc *time.Location) time.Time {
	t = t.In(loc)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
}

// SameDay сравнивает календарные даты в локации loc.
func SameDay(a, b time.Time, loc *time.Location) bool {
	return DateOf(a, loc).Equal(DateOf(b, loc))
}

// DaysBetween количество календарных дней от from до to (отрицательное, если to раньше).
func DaysBetween(from, to time.Time, loc *time.Location) int {
	f := DateOf(from, loc)
	t := DateOf(to, loc)
	// Round absorbs DST shifts
	return int(t.Sub(f).Round(24*time.Hour) / (24 * time.Hour))
}
