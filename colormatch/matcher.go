package colormatch

import (
	"math"
	"sort"
	"sync/atomic"
)

// NumAlternatives is how many runners-up a Result carries.
const NumAlternatives = 3

// Candidate is a reference colour annotated with its distance to the input.
type Candidate struct {
	Entry
	Distance float64 `json:"distance"`
}

// Result is the ranked outcome of a match.
type Result struct {
	Input        string      `json:"input"`
	Best         Candidate   `json:"match"`
	Alternatives []Candidate `json:"alternatives"`
}

// Matcher answers lookups against the current reference table. The table
// can be swapped at any time; each call works on a single table snapshot.
type Matcher struct {
	table atomic.Pointer[Table]
}

// NewMatcher returns a matcher serving t.
func NewMatcher(t *Table) *Matcher {
	m := &Matcher{}
	if t == nil {
		t, _ = NewTable(nil)
	}
	m.table.Store(t)
	return m
}

// Replace swaps in a new table. Concurrent readers see either the old or the
// new table, never a mix.
func (m *Matcher) Replace(t *Table) {
	if t == nil {
		return
	}
	m.table.Store(t)
}

// Table returns the current table snapshot.
func (m *Matcher) Table() *Table {
	return m.table.Load()
}

// IsValidColorCode reports whether code exists in the reference table.
func (m *Matcher) IsValidColorCode(code string) bool {
	_, ok := m.Table().Lookup(code)
	return ok
}

// ColorByCode looks up a reference entry; ok is false for unknown codes.
func (m *Matcher) ColorByCode(code string) (Entry, bool) {
	return m.Table().Lookup(code)
}

// Entries returns all reference entries in table order.
func (m *Matcher) Entries() []Entry {
	return m.Table().Entries()
}

// Match parses hex and ranks every reference colour by CIEDE2000 distance.
func (m *Matcher) Match(hex string) (Result, error) {
	rgb, err := ParseHex(hex)
	if err != nil {
		return Result{}, err
	}
	return m.MatchRGB(rgb)
}

// MatchRGB ranks every reference colour against rgb. Distances are sorted
// unrounded with a stable sort, so equal distances keep table order; the
// reported distances are rounded to one decimal place.
func (m *Matcher) MatchRGB(rgb RGB) (Result, error) {
	t := m.Table()
	if t.Len() == 0 {
		return Result{}, ErrEmptyTable
	}

	input := RGBToLab(rgb)
	ranked := make([]Candidate, len(t.entries))
	for i, e := range t.entries {
		ranked[i] = Candidate{Entry: e, Distance: CIEDE2000(input, t.labs[i])}
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Distance < ranked[j].Distance
	})

	for i := range ranked {
		ranked[i].Distance = RoundDistance(ranked[i].Distance)
	}

	end := 1 + NumAlternatives
	if end > len(ranked) {
		end = len(ranked)
	}

	return Result{
		Input:        rgb.Hex(),
		Best:         ranked[0],
		Alternatives: append([]Candidate{}, ranked[1:end]...),
	}, nil
}

// Nearest returns the closest reference entry and its unrounded distance.
func (m *Matcher) Nearest(rgb RGB) (Entry, float64, error) {
	t := m.Table()
	if t.Len() == 0 {
		return Entry{}, 0, ErrEmptyTable
	}

	input := RGBToLab(rgb)
	best := 0
	bestDist := math.Inf(1)
	for i := range t.entries {
		if d := CIEDE2000(input, t.labs[i]); d < bestDist {
			best, bestDist = i, d
		}
	}

	return t.entries[best], bestDist, nil
}

// RoundDistance rounds to one decimal place, halves away from zero.
func RoundDistance(d float64) float64 {
	return math.Round(d*10) / 10
}
