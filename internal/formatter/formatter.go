// package formatter renders song lists for sharing (WhatsApp-style text, Markdown, CSV, lyric sheets, JSON)
package formatter

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/desertthunder/setlist/internal/models"
	"github.com/desertthunder/setlist/internal/shared"
)

// Format names an export format.
type Format string

const (
	FormatText     Format = "txt"
	FormatMarkdown Format = "markdown"
	FormatCSV      Format = "csv"
	FormatLyrics   Format = "lyrics"
	FormatJSON     Format = "json"
)

// Formats lists the supported formats.
var Formats = []Format{FormatText, FormatMarkdown, FormatCSV, FormatLyrics, FormatJSON}

// ParseFormat accepts a format name or a common alias ("text", "md", "whatsapp").
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "txt", "text", "whatsapp":
		return FormatText, nil
	case "markdown", "md":
		return FormatMarkdown, nil
	case "csv":
		return FormatCSV, nil
	case "lyrics", "letras":
		return FormatLyrics, nil
	case "json":
		return FormatJSON, nil
	}
	return "", fmt.Errorf("%w: unknown format %q", shared.ErrInvalidArgument, s)
}

// Extension returns the file extension for f, without the dot.
func (f Format) Extension() string {
	switch f {
	case FormatMarkdown:
		return "md"
	case FormatLyrics:
		return "txt"
	default:
		return string(f)
	}
}

// Export renders snap in the given format.
func Export(snap models.PlaylistSnapshot, f Format) ([]byte, error) {
	switch f {
	case FormatText:
		return ExportToText(snap)
	case FormatMarkdown:
		return ExportToMarkdown(snap)
	case FormatCSV:
		return ExportToCSV(snap)
	case FormatLyrics:
		return ExportLyrics(snap)
	case FormatJSON:
		return ExportToJSON(snap)
	}
	return nil, fmt.Errorf("%w: unknown format %q", shared.ErrInvalidArgument, f)
}

// displayDate renders a service date the way the congregation reads it: 18/10/2026.
func displayDate(snap models.PlaylistSnapshot) string {
	return models.DateOf(snap.Date).Format("02/01/2006")
}

func line(song models.Song) string {
	return fmt.Sprintf("%s (%s)", song.Display(), song.Origin.Label())
}

// ExportToText renders the share text: a bold date header followed by numbered songs with their origin.
//
//	*Louvores - 18/10/2026*
//
//	1. 12 - Graça Maravilhosa (Coletânea)
//	2. Oceanos (Avulso)
func ExportToText(snap models.PlaylistSnapshot) ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteString(fmt.Sprintf("*Louvores - %s*\n", displayDate(snap)))
	if len(snap.Items) == 0 {
		buf.WriteString("\n(lista vazia)\n")
		return buf.Bytes(), nil
	}

	buf.WriteString("\n")
	for i, song := range snap.Items {
		buf.WriteString(fmt.Sprintf("%d. %s\n", i+1, line(song)))
	}

	return buf.Bytes(), nil
}

// ExportToMarkdown renders the list as a Markdown document.
func ExportToMarkdown(snap models.PlaylistSnapshot) ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteString(fmt.Sprintf("# Louvores - %s\n\n", displayDate(snap)))
	if snap.GroupID != "" {
		buf.WriteString(fmt.Sprintf("**Grupo**: %s\n", snap.GroupID))
	}
	buf.WriteString(fmt.Sprintf("**Músicas**: %d\n\n", len(snap.Items)))

	for i, song := range snap.Items {
		buf.WriteString(fmt.Sprintf("%d. %s\n", i+1, line(song)))
	}

	return buf.Bytes(), nil
}

// ExportToCSV renders one row per song with columns: Position, Origin, Number, Title
func ExportToCSV(snap models.PlaylistSnapshot) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	headers := []string{"Position", "Origin", "Number", "Title"}
	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for i, song := range snap.Items {
		record := []string{strconv.Itoa(i + 1), string(song.Origin), song.Number, song.Title}
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}

	return buf.Bytes(), nil
}

// ExportLyrics renders a lyric sheet: each song's heading followed by its lyrics.
// Songs without lyrics get a placeholder line.
func ExportLyrics(snap models.PlaylistSnapshot) ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteString(fmt.Sprintf("LOUVORES - %s\n", displayDate(snap)))
	for i, song := range snap.Items {
		buf.WriteString(fmt.Sprintf("\n%d. %s\n\n", i+1, strings.ToUpper(song.Display())))

		lyrics := strings.TrimSpace(song.Lyrics)
		if lyrics == "" {
			lyrics = "(letra não disponível)"
		}
		buf.WriteString(lyrics)
		buf.WriteString("\n")
	}

	return buf.Bytes(), nil
}

// ExportToJSON renders the snapshot as indented JSON with the date as "2006-01-02".
func ExportToJSON(snap models.PlaylistSnapshot) ([]byte, error) {
	doc := struct {
		GroupID string        `json:"groupId"`
		Date    string        `json:"date"`
		Items   []models.Song `json:"items"`
	}{snap.GroupID, models.FormatDate(snap.Date), models.CloneSongs(snap.Items)}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal JSON: %w", err)
	}
	return append(data, '\n'), nil
}

// DefaultFilename is {group}_{date}.{ext}, or setlist_{date}.{ext} without a group.
func DefaultFilename(snap models.PlaylistSnapshot, f Format) string {
	base := snap.GroupID
	if base == "" {
		base = "setlist"
	}
	if f == FormatLyrics {
		base += "_letras"
	}
	return fmt.Sprintf("%s_%s.%s", base, models.FormatDate(snap.Date), f.Extension())
}

// WriteExport renders snap and writes it to path, creating parent directories.
//
// Defaults to [DefaultFilename] in the working directory.
func WriteExport(snap models.PlaylistSnapshot, f Format, path string) (string, error) {
	if path == "" {
		path = DefaultFilename(snap, f)
	}

	data, err := Export(snap, f)
	if err != nil {
		return "", fmt.Errorf("failed to generate %s: %w", f, err)
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return "", fmt.Errorf("failed to create directory: %w", err)
		}
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write %s file: %w", f, err)
	}

	return path, nil
}
