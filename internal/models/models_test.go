package models

import (
	"testing"
	"time"
)

func TestIdentityKey(t *testing.T) {
	tc := []struct {
		name string
		a, b Song
		same bool
	}{
		{
			name: "same number different title",
			a:    Song{Origin: OriginCongregation, Number: "12", Title: "Amazing"},
			b:    Song{Origin: OriginCongregation, Number: "12", Title: "Amazing (reprise)"},
			same: true,
		},
		{
			name: "same number different origin",
			a:    Song{Origin: OriginCongregation, Number: "12", Title: "Amazing"},
			b:    Song{Origin: OriginChildren, Number: "12", Title: "Amazing"},
			same: false,
		},
		{
			name: "loose songs fall back to lowercased title",
			a:    Song{Origin: OriginLoose, Title: "Grace"},
			b:    Song{Origin: OriginLoose, Title: "grace"},
			same: true,
		},
		{
			name: "title fallback ignores surrounding spaces",
			a:    Song{Origin: OriginLoose, Title: " Grace "},
			b:    Song{Origin: OriginLoose, Title: "GRACE"},
			same: true,
		},
		{
			name: "number ignores surrounding spaces",
			a:    Song{Origin: OriginCongregation, Number: " 12", Title: "Amazing"},
			b:    Song{Origin: OriginCongregation, Number: "12", Title: "Other"},
			same: true,
		},
		{
			name: "blank number falls back to title",
			a:    Song{Origin: OriginLoose, Number: "   ", Title: "Grace"},
			b:    Song{Origin: OriginLoose, Title: "grace"},
			same: true,
		},
		{
			name: "numbered and unnumbered never match on title",
			a:    Song{Origin: OriginCustom, Number: "1", Title: "Grace"},
			b:    Song{Origin: OriginCustom, Title: "Grace"},
			same: false,
		},
	}

	for _, tt := range tc {
		t.Run(tt.name, func(t *testing.T) {
			got := IdentityKey(tt.a) == IdentityKey(tt.b)
			if got != tt.same {
				t.Errorf("IdentityKey(%+v) == IdentityKey(%+v) = %v, want %v", tt.a, tt.b, got, tt.same)
			}
			if tt.a.Key() != IdentityKey(tt.a) {
				t.Error("Song.Key() must equal IdentityKey()")
			}
		})
	}
}

func TestParseOrigin(t *testing.T) {
	tc := map[string]Origin{
		"congregation": OriginCongregation,
		"Congregação":  OriginCongregation,
		"criancas":     OriginChildren,
		"loose":        OriginLoose,
		"custom":       OriginCustom,
	}
	for in, want := range tc {
		got, err := ParseOrigin(in)
		if err != nil {
			t.Errorf("ParseOrigin(%q) error = %v", in, err)
			continue
		}
		if got != want {
			t.Errorf("ParseOrigin(%q) = %s, want %s", in, got, want)
		}
	}

	if _, err := ParseOrigin("hymnal"); err == nil {
		t.Error("expected error for unknown origin")
	}
}

func TestDates(t *testing.T) {
	t.Run("DateOf drops the clock", func(t *testing.T) {
		loc := time.FixedZone("BRT", -3*60*60)
		got := DateOf(time.Date(2026, 10, 15, 23, 30, 0, 0, loc))
		if !got.Equal(NewDate(2026, 10, 15)) {
			t.Errorf("DateOf() = %v, want 2026-10-15", got)
		}
	})

	t.Run("DaysBetween", func(t *testing.T) {
		a := NewDate(2026, 2, 27)
		b := NewDate(2026, 3, 2)
		if got := DaysBetween(a, b); got != 3 {
			t.Errorf("DaysBetween() = %d, want 3", got)
		}
		if got := DaysBetween(b, a); got != -3 {
			t.Errorf("DaysBetween() = %d, want -3", got)
		}
	})

	t.Run("ParseDate round trip", func(t *testing.T) {
		d, err := ParseDate("2026-10-15")
		if err != nil {
			t.Fatalf("ParseDate() error = %v", err)
		}
		if FormatDate(d) != "2026-10-15" {
			t.Errorf("FormatDate() = %s", FormatDate(d))
		}
		if _, err := ParseDate("15/10/2026"); err == nil {
			t.Error("expected error for non ISO date")
		}
	})
}

func TestHistoryEntryContains(t *testing.T) {
	entry := HistoryEntry{Items: []Song{
		{Origin: OriginLoose, Title: "Grace"},
		{Origin: OriginCongregation, Number: "7", Title: "Santo"},
	}}

	if !entry.Contains(IdentityKey(Song{Origin: OriginLoose, Title: "GRACE"})) {
		t.Error("expected case-insensitive title match")
	}
	if entry.Contains(IdentityKey(Song{Origin: OriginChildren, Number: "7", Title: "Santo"})) {
		t.Error("different origin must not match")
	}
}

func TestCloneSongs(t *testing.T) {
	in := []Song{{Title: "A", Origin: OriginLoose}}
	out := CloneSongs(in)
	out[0].Title = "B"
	if in[0].Title != "A" {
		t.Error("CloneSongs must not share the backing array")
	}
	if CloneSongs(nil) == nil {
		t.Error("CloneSongs(nil) should return an empty slice")
	}
}
