// package models defines the data model for the setlist service
package models

import (
	"fmt"
	"strings"
	"time"
)

// Model defines the base interface for persistent models that carry their own identity.
type Model interface {
	ID() string           // ID returns the unique identifier for this model
	CreatedAt() time.Time // CreatedAt returns when this model was created
	UpdatedAt() time.Time // UpdatedAt returns when this model was last updated
	Validate() error      // Validate checks if the model's data is valid and returns an error if not
}

// Repository defines the interface for data access operations.
// Implementations handle database interactions for specific model types.
type Repository[T Model] interface {
	Create(model T) error                      // Create inserts a new model into the database
	Get(id string) (T, error)                  // Get retrieves a model by its ID
	Update(model T) error                      // Update modifies an existing model in the database
	Delete(id string) error                    // Delete removes a model from the database by its ID
	List(criteria map[string]any) ([]T, error) // List retrieves all models matching the given criteria
}

// Origin is the catalog partition a song belongs to.
type Origin string

const (
	OriginCongregation Origin = "congregacao"
	OriginChildren     Origin = "criancas"
	OriginLoose        Origin = "avulsos"
	OriginCustom       Origin = "custom"
)

// Origins lists the known origins in display order.
var Origins = []Origin{OriginCongregation, OriginChildren, OriginLoose, OriginCustom}

// Label returns the human readable name used in exports.
func (o Origin) Label() string {
	switch o {
	case OriginCongregation:
		return "Coletânea"
	case OriginChildren:
		return "Crianças"
	case OriginLoose:
		return "Avulso"
	case OriginCustom:
		return "Personalizado"
	default:
		return string(o)
	}
}

// Numbered reports whether songs of this origin are expected to carry a hymnal number.
func (o Origin) Numbered() bool {
	return o == OriginCongregation || o == OriginChildren
}

// ParseOrigin accepts the canonical tag or a common alias ("congregation", "children", "loose", ...).
func ParseOrigin(s string) (Origin, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "congregacao", "congregação", "congregation", "coletanea", "coletânea", "c":
		return OriginCongregation, nil
	case "criancas", "crianças", "children", "kids", "k":
		return OriginChildren, nil
	case "avulsos", "avulso", "loose", "l":
		return OriginLoose, nil
	case "custom", "personalizado":
		return OriginCustom, nil
	}
	return "", fmt.Errorf("unknown origin %q", s)
}

// Song identifies one catalog entry or custom entry.
type Song struct {
	Title  string `json:"title"`
	Number string `json:"number,omitempty"`
	Origin Origin `json:"origin"`
	Lyrics string `json:"lyrics,omitempty"`
}

// SongKey is the identity of a song: its origin plus the number, or the lowercased title when the
// number is empty. Two songs are the same song iff their keys are equal.
type SongKey struct {
	Origin Origin
	Ref    string
}

func (k SongKey) String() string {
	return string(k.Origin) + ":" + k.Ref
}

// IdentityKey computes the [SongKey] of s. Every de-duplication and recency comparison goes through
// this function so the two can never disagree on what "the same song" means.
//
// Number is trimmed before use: " 12" and "12" are the same song, and a blank number falls back to the title.
func IdentityKey(s Song) SongKey {
	if n := strings.TrimSpace(s.Number); n != "" {
		return SongKey{Origin: s.Origin, Ref: n}
	}
	return SongKey{Origin: s.Origin, Ref: strings.ToLower(strings.TrimSpace(s.Title))}
}

// Key is shorthand for [IdentityKey].
func (s Song) Key() SongKey {
	return IdentityKey(s)
}

// Validate checks the invariants a song must hold before it can enter a list.
func (s Song) Validate() error {
	if strings.TrimSpace(s.Title) == "" {
		return fmt.Errorf("song title is required")
	}
	if s.Origin == "" {
		return fmt.Errorf("song origin is required")
	}
	return nil
}

// Display renders "12 - Title" for numbered songs and just the title otherwise.
func (s Song) Display() string {
	if s.Number == "" {
		return s.Title
	}
	return s.Number + " - " + s.Title
}

// CloneSongs returns a copy of songs that shares no backing array with the input.
func CloneSongs(songs []Song) []Song {
	if songs == nil {
		return []Song{}
	}
	out := make([]Song, len(songs))
	copy(out, songs)
	return out
}
