package date

import (
	"slices"
	"testing"
)

func TestHistory_AppendKeepsChronologicalOrder(t *testing.T) {
	h := &History[float64]{}
	h.Append(MustParse("2025-01-03"), 3)
	h.Append(MustParse("2025-01-01"), 1)
	h.Append(MustParse("2025-01-02"), 2)

	want := []Date{MustParse("2025-01-01"), MustParse("2025-01-02"), MustParse("2025-01-03")}
	if got := h.Days(); !slices.Equal(got, want) {
		t.Errorf("Days() = %v, want %v", got, want)
	}

	// Appending the same day overwrites.
	h.Append(MustParse("2025-01-02"), 20)
	if v, ok := h.Get(MustParse("2025-01-02")); !ok || v != 20 {
		t.Errorf("Get after overwrite = %v, %v; want 20, true", v, ok)
	}
	if h.Len() != 3 {
		t.Errorf("Len() = %d, want 3", h.Len())
	}
}

func TestHistory_ValueAsOf(t *testing.T) {
	h := &History[float64]{}
	h.Append(MustParse("2025-01-10"), 10)
	h.Append(MustParse("2025-01-20"), 20)

	testCases := []struct {
		on     string
		want   float64
		wantOK bool
	}{
		{"2025-01-09", 0, false},
		{"2025-01-10", 10, true},
		{"2025-01-15", 10, true},
		{"2025-01-20", 20, true},
		{"2025-01-25", 20, true},
	}
	for _, tc := range testCases {
		got, ok := h.ValueAsOf(MustParse(tc.on))
		if ok != tc.wantOK || got != tc.want {
			t.Errorf("ValueAsOf(%s) = %v, %v; want %v, %v", tc.on, got, ok, tc.want, tc.wantOK)
		}
	}
}

func TestIntersect(t *testing.T) {
	a := &History[float64]{}
	b := &History[float64]{}
	for _, d := range []string{"2025-01-01", "2025-01-02", "2025-01-04"} {
		a.Append(MustParse(d), 1)
	}
	for _, d := range []string{"2025-01-02", "2025-01-03", "2025-01-04"} {
		b.Append(MustParse(d), 1)
	}
	want := []Date{MustParse("2025-01-02"), MustParse("2025-01-04")}
	if got := Intersect(a, b); !slices.Equal(got, want) {
		t.Errorf("Intersect = %v, want %v", got, want)
	}
}

func TestUnion(t *testing.T) {
	a := &History[float64]{}
	b := &History[float64]{}
	a.Append(MustParse("2025-01-01"), 1)
	a.Append(MustParse("2025-01-03"), 1)
	b.Append(MustParse("2025-01-02"), 1)
	b.Append(MustParse("2025-01-03"), 1)

	var got []Date
	for d := range Union(a, b) {
		got = append(got, d)
	}
	want := []Date{MustParse("2025-01-01"), MustParse("2025-01-02"), MustParse("2025-01-03")}
	if !slices.Equal(got, want) {
		t.Errorf("Union = %v, want %v", got, want)
	}
}
