package usecase

import (
	"testing"

	"github.com/rmarban/euroleague-fantasy/internal/domain/round"
)

func TestBuildCanonicalRounds_RescheduledRoundCollapses(t *testing.T) {
	raw := []round.Round{
		{ID: 150, Name: "Jornada 5 (aplazada)"},
		{ID: 100, Name: "Jornada 5"},
		{ID: 101, Name: "Jornada 6"},
	}

	canonical := BuildCanonicalRounds(raw, "(aplazada)")

	if got := canonical.Resolve(round.Round{ID: 150, Name: "Jornada 5 (aplazada)"}); got != 100 {
		t.Fatalf("rescheduled round resolved to %d, want 100", got)
	}
	if got := canonical.Resolve(round.Round{ID: 100, Name: "Jornada 5"}); got != 100 {
		t.Fatalf("original round resolved to %d, want 100", got)
	}
	if got := canonical.Resolve(round.Round{ID: 101, Name: "Jornada 6"}); got != 101 {
		t.Fatalf("plain round resolved to %d, want 101", got)
	}
}

func TestBuildCanonicalRounds_LowestIDWinsRegardlessOfOrder(t *testing.T) {
	// Same name three times; the input order must not matter.
	raw := []round.Round{
		{ID: 300, Name: "Jornada 9 (aplazada)"},
		{ID: 120, Name: "Jornada 9"},
		{ID: 250, Name: "jornada 9"},
	}

	canonical := BuildCanonicalRounds(raw, "(aplazada)")

	for _, r := range raw {
		if got := canonical.Resolve(r); got != 120 {
			t.Fatalf("round %d resolved to %d, want 120", r.ID, got)
		}
	}
}

func TestCanonicalRounds_UnknownRoundResolvesToItself(t *testing.T) {
	canonical := BuildCanonicalRounds([]round.Round{{ID: 1, Name: "Jornada 1"}}, "(aplazada)")

	stranger := round.Round{ID: 999, Name: "Final Four"}
	if got := canonical.Resolve(stranger); got != 999 {
		t.Fatalf("unknown round resolved to %d, want its own id 999", got)
	}
	if !canonical.Canonical(stranger) {
		t.Fatal("unknown round must be its own canonical representative")
	}
}

func TestCanonicalRounds_Apply(t *testing.T) {
	raw := []round.Round{
		{ID: 150, Name: "Jornada 5 (aplazada)"},
		{ID: 100, Name: "Jornada 5"},
	}
	canonical := BuildCanonicalRounds(raw, "(aplazada)")

	stamped := canonical.Apply(raw)
	if len(stamped) != 2 {
		t.Fatalf("expected 2 stamped rounds, got %d", len(stamped))
	}
	if stamped[0].CanonicalID != 100 || stamped[1].CanonicalID != 100 {
		t.Fatalf("unexpected canonical ids %d, %d", stamped[0].CanonicalID, stamped[1].CanonicalID)
	}
	// Apply must not mutate its input.
	if raw[0].CanonicalID != 0 {
		t.Fatalf("input slice was mutated: %+v", raw[0])
	}

	if canonical.Canonical(stamped[0]) {
		t.Fatal("rescheduled duplicate must not be canonical")
	}
	if !canonical.Canonical(stamped[1]) {
		t.Fatal("originally scheduled round must be canonical")
	}
}

func TestNormalizeRoundName(t *testing.T) {
	tests := []struct {
		name   string
		marker string
		want   string
	}{
		{"Jornada 5 (aplazada)", "(aplazada)", "jornada 5"},
		{"Jornada 5 (APLAZADA)", "(aplazada)", "jornada 5"},
		{"  Jornada   5  ", "(aplazada)", "jornada 5"},
		{"Jornada (aplazada) 5", "(aplazada)", "jornada (aplazada) 5"},
		{"Jornada 5", "", "jornada 5"},
	}
	for _, tt := range tests {
		if got := round.NormalizeName(tt.name, tt.marker); got != tt.want {
			t.Fatalf("NormalizeName(%q, %q) = %q, want %q", tt.name, tt.marker, got, tt.want)
		}
	}
}
