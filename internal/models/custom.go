package models

import (
	"fmt"
	"strings"
	"time"
)

// CustomSong is a user-defined song owned by a group. It is persisted and merged into the catalog of
// its group with [OriginCustom].
type CustomSong struct {
	id        string
	sequence  int
	groupID   string
	song      Song
	createdAt time.Time
	updatedAt time.Time
	deletedAt *time.Time
}

// NewCustomSong creates an unsaved custom song for groupID.
func NewCustomSong(groupID, number, title, lyrics string) *CustomSong {
	now := time.Now()
	return &CustomSong{
		groupID: groupID,
		song: Song{
			Title:  strings.TrimSpace(title),
			Number: strings.TrimSpace(number),
			Origin: OriginCustom,
			Lyrics: lyrics,
		},
		createdAt: now,
		updatedAt: now,
	}
}

func (c *CustomSong) ID() string            { return c.id }
func (c *CustomSong) Sequence() int         { return c.sequence }
func (c *CustomSong) GroupID() string       { return c.groupID }
func (c *CustomSong) Song() Song            { return c.song }
func (c *CustomSong) CreatedAt() time.Time  { return c.createdAt }
func (c *CustomSong) UpdatedAt() time.Time  { return c.updatedAt }
func (c *CustomSong) DeletedAt() *time.Time { return c.deletedAt }

func (c *CustomSong) SetID(id string)               { c.id = id }
func (c *CustomSong) SetSequence(seq int)           { c.sequence = seq }
func (c *CustomSong) SetCreatedAt(t time.Time)      { c.createdAt = t }
func (c *CustomSong) SetUpdatedAt(t time.Time)      { c.updatedAt = t }
func (c *CustomSong) SetDeletedAt(t *time.Time)     { c.deletedAt = t }
func (c *CustomSong) SetTitle(title string)         { c.song.Title = strings.TrimSpace(title) }
func (c *CustomSong) SetLyrics(lyrics string)       { c.song.Lyrics = lyrics }
func (c *CustomSong) SetNumber(number string)       { c.song.Number = strings.TrimSpace(number) }

// Validate checks that the custom song can be stored.
func (c *CustomSong) Validate() error {
	if c.groupID == "" {
		return fmt.Errorf("custom song group is required")
	}
	return c.song.Validate()
}
