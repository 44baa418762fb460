package date

import (
	"iter"
	"slices"
	"sort"
)

// History stores a chronological series of values, each associated with a
// specific date. Dates are unique and the series is always sorted.
type History[T float32 | float64 | string] struct {
	days   []Date
	values []T
}

// Len returns the number of items in the history.
func (h *History[T]) Len() int { return len(h.days) }

// Clear removes all items from the history.
func (h *History[T]) Clear() {
	h.days = h.days[:0]
	h.values = h.values[:0]
}

// Latest returns the latest date and value in the history.
// If the history is empty, it returns zero values.
func (h *History[T]) Latest() (day Date, value T) {
	last := len(h.days) - 1
	if last < 0 {
		return Date{}, *new(T)
	}
	return h.days[last], h.values[last]
}

// chronological is a private implementation to sort a history chronologically.
type chronological[T float32 | float64 | string] struct{ *History[T] }

func (s chronological[T]) Len() int           { return len(s.days) }
func (s chronological[T]) Less(i, j int) bool { return s.days[i].Before(s.days[j]) }
func (s chronological[T]) Swap(i, j int) {
	s.days[i], s.days[j] = s.days[j], s.days[i]
	s.values[i], s.values[j] = s.values[j], s.values[i]
}

func (h *History[T]) sort() { sort.Sort(chronological[T]{h}) }

// Append adds a point to the history.
//
// An existing value at that date is overwritten.
func (h *History[T]) Append(on Date, q T) *History[T] {
	if i := slices.Index(h.days, on); i >= 0 {
		// Last write wins for a same-day duplicate.
		h.values[i] = q
		return h
	}
	h.days, h.values = append(h.days, on), append(h.values, q)
	h.sort()
	return h
}

// Get returns the value at 'day' and true, or the zero value and false.
func (h *History[T]) Get(day Date) (T, bool) {
	if i, found := h.search(day); found {
		return h.values[i], true
	}
	var zero T
	return zero, false
}

// ValueAsOf returns the value on a given day, or the most recent value before it.
func (h *History[T]) ValueAsOf(day Date) (T, bool) {
	i, found := h.search(day)
	if found {
		return h.values[i], true
	}
	// Not found. i is the insertion index; the last entry before day is at i-1.
	if i == 0 {
		var zero T
		return zero, false
	}
	return h.values[i-1], true
}

// search performs a binary search for day over the sorted days slice.
func (h *History[T]) search(day Date) (int, bool) {
	return slices.BinarySearchFunc(h.days, day, Date.Compare)
}

// Values returns an iterator over all date/value pairs, in chronological order.
func (h *History[T]) Values() iter.Seq2[Date, T] {
	return func(yield func(Date, T) bool) {
		for i, on := range h.days {
			if !yield(on, h.values[i]) {
				return
			}
		}
	}
}

// Between returns a copy of the history restricted to [from, to].
// A zero boundary leaves that side open.
func (h *History[T]) Between(from, to Date) *History[T] {
	clipped := &History[T]{}
	for i, on := range h.days {
		if !from.IsZero() && on.Before(from) {
			continue
		}
		if !to.IsZero() && on.After(to) {
			break
		}
		clipped.days = append(clipped.days, on)
		clipped.values = append(clipped.values, h.values[i])
	}
	return clipped
}

// Days returns a copy of the sorted dates of the history.
func (h *History[T]) Days() []Date { return slices.Clone(h.days) }

// Intersect returns the sorted dates present in both histories.
func Intersect[T float32 | float64 | string](a, b *History[T]) []Date {
	common := make([]Date, 0, min(len(a.days), len(b.days)))
	i, j := 0, 0
	for i < len(a.days) && j < len(b.days) {
		switch a.days[i].Compare(b.days[j]) {
		case -1:
			i++
		case 1:
			j++
		default:
			common = append(common, a.days[i])
			i, j = i+1, j+1
		}
	}
	return common
}

// Union returns an iterator over all unique, sorted dates from multiple histories.
func Union[T float32 | float64 | string](histories ...*History[T]) iter.Seq[Date] {
	return func(yield func(Date) bool) {
		indexes := make([]int, len(histories))
		for {
			// Find the minimum un-consumed date across all series.
			var m Date
			found := false
			for i, index := range indexes {
				if index >= len(histories[i].days) {
					continue
				}
				on := histories[i].days[index]
				if !found || on.Before(m) {
					m = on
					found = true
				}
			}
			if !found {
				return // all series consumed
			}
			// Consume every series positioned at the minimum.
			for i, index := range indexes {
				if index < len(histories[i].days) && histories[i].days[index] == m {
					indexes[i]++
				}
			}
			if !yield(m) {
				return
			}
		}
	}
}
