// Package types provides type definitions for structured data used throughout the question pipeline.
//
//nolint:revive // types is a standard Go package name pattern
package types

import (
	"fmt"
	"slices"
)

// Beat identifies one of the five fixed sections a plan and question set are organized around.
type Beat string

// Beat constants, in presentation order.
const (
	BeatA Beat = "A"
	BeatB Beat = "B"
	BeatC Beat = "C"
	BeatD Beat = "D"
	BeatE Beat = "E"
)

// AllBeats returns every beat in presentation order.
// A fresh slice is returned so callers may sort or trim it freely.
func AllBeats() []Beat {
	return []Beat{BeatA, BeatB, BeatC, BeatD, BeatE}
}

// ParseBeat converts a raw string into a Beat, rejecting anything outside A–E.
func ParseBeat(s string) (Beat, error) {
	b := Beat(s)
	if !b.Valid() {
		return "", fmt.Errorf("unknown beat %q", s)
	}
	return b, nil
}

// Valid reports whether b is one of the five known beats.
func (b Beat) Valid() bool {
	return slices.Contains(AllBeats(), b)
}

// Index returns the position of b in presentation order, or -1 for an unknown beat.
func (b Beat) Index() int {
	return slices.Index(AllBeats(), b)
}

// SortBeats sorts beats in presentation order in place.
func SortBeats(beats []Beat) {
	slices.SortFunc(beats, func(a, b Beat) int {
		return a.Index() - b.Index()
	})
}

// IsCompleteBeatSet reports whether beats contains each of A–E exactly once.
func IsCompleteBeatSet(beats []Beat) bool {
	sorted := slices.Clone(beats)
	SortBeats(sorted)
	return slices.Equal(sorted, AllBeats())
}
