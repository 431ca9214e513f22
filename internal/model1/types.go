package model1

import (
	"fmt"
	"strings"
)

const NAValue = "n/a"

// EntryState tracks a cache entry lifecycle.
type EntryState int

const (
	// Absent entries have never been fetched or were invalidated.
	Absent EntryState = iota
	// Loading entries are covered by an in-flight fetch.
	Loading
	// Present entries hold a fetched row.
	Present
)

func (s EntryState) String() string {
	switch s {
	case Loading:
		return "loading"
	case Present:
		return "present"
	default:
		return "absent"
	}
}

// Item is a snapshot of one cache slot.
type Item struct {
	Index  int
	Row    Row
	State  EntryState
	Failed bool
}

// Placeholder returns true if the item carries no row yet.
func (i Item) Placeholder() bool {
	return i.State != Present
}

// ChangeKind represents a structural change emitted by a provider.
type ChangeKind int

const (
	ChangeReset ChangeKind = 1 << iota
	ChangeItemsAdded
	ChangeItemsRemoved
	ChangeItemsReplaced
	ChangeSorted
)

func (k ChangeKind) String() string {
	switch k {
	case ChangeReset:
		return "Reset"
	case ChangeItemsAdded:
		return "ItemsAdded"
	case ChangeItemsRemoved:
		return "ItemsRemoved"
	case ChangeItemsReplaced:
		return "ItemsReplaced"
	case ChangeSorted:
		return "Sorted"
	default:
		return fmt.Sprintf("ChangeKind(%d)", int(k))
	}
}

// ChangeEvent describes a structural change over [Start, Start+Count).
type ChangeEvent struct {
	Kind  ChangeKind
	Start int
	Count int
}

// Structural returns true if the change shifts the index space.
func (e ChangeEvent) Structural() bool {
	return e.Kind != ChangeItemsReplaced
}

// SortDirection represents a sort order.
type SortDirection int

const (
	Ascending SortDirection = iota
	Descending
)

func (d SortDirection) String() string {
	if d == Descending {
		return "desc"
	}
	return "asc"
}

// ParseSortDirection parses asc or desc.
func ParseSortDirection(s string) (SortDirection, error) {
	switch strings.ToLower(s) {
	case "", "asc", "ascending":
		return Ascending, nil
	case "desc", "descending":
		return Descending, nil
	default:
		return Ascending, fmt.Errorf("invalid sort direction %q", s)
	}
}

// Flip returns the opposite direction.
func (d SortDirection) Flip() SortDirection {
	if d == Descending {
		return Ascending
	}
	return Descending
}

// SortDescription pairs a column key with a direction.
type SortDescription struct {
	Key       string
	Direction SortDirection
}

func (s SortDescription) String() string {
	return s.Key + ":" + s.Direction.String()
}

// SortDescriptions is an ordered list, the first entry being the primary key.
type SortDescriptions []SortDescription

// IndexOf returns the position of a key or -1.
func (s SortDescriptions) IndexOf(key string) int {
	for i, d := range s {
		if d.Key == key {
			return i
		}
	}
	return -1
}

func (s SortDescriptions) Clone() SortDescriptions {
	if s == nil {
		return nil
	}
	out := make(SortDescriptions, len(s))
	copy(out, s)
	return out
}

// DecoratorFunc decorates a string
type DecoratorFunc func(string) string
