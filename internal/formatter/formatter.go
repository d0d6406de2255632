// package formatter renders playlist matches for people: view counts, archive names and match-table exports (CSV, Markdown, plain text, JSON)
package formatter

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/desertthunder/plzip/internal/models"
)

const (
	// ArchiveExt is appended to every archive name.
	ArchiveExt = ".zip"
	// NotAvailable is shown for absent candidate fields.
	NotAvailable = "N/A"
)

// FormatViews renders a view count as "999", "1.0K" or "1.5M"; nil renders as "N/A".
func FormatViews(views *int64) string {
	if views == nil {
		return NotAvailable
	}
	v := *views
	switch {
	case v >= 1_000_000:
		return fmt.Sprintf("%.1fM", float64(v)/1_000_000)
	case v >= 1_000:
		return fmt.Sprintf("%.1fK", float64(v)/1_000)
	default:
		return strconv.FormatInt(v, 10)
	}
}

// Optional renders an optional string field, using "N/A" when absent or empty.
func Optional(s *string) string {
	if s == nil || *s == "" {
		return NotAvailable
	}
	return *s
}

// ArchiveFileName derives the archive name from a playlist name.
func ArchiveFileName(playlistName string) string {
	if strings.TrimSpace(playlistName) == "" {
		playlistName = models.DefaultPlaylistName
	}
	return playlistName + ArchiveExt
}

// SafeFileName replaces path separators and control characters so name can be used as a single path element.
func SafeFileName(name string) string {
	name = strings.Map(func(r rune) rune {
		switch {
		case r == '/' || r == '\\' || r == ':' || r == 0:
			return '_'
		case r < 0x20 || r == 0x7f:
			return -1
		default:
			return r
		}
	}, strings.TrimSpace(name))

	name = strings.Trim(name, ".")
	if name == "" {
		return models.DefaultPlaylistName
	}
	return name
}

// Row is one line of a match table: a track and its currently selected candidate.
type Row struct {
	Position   int
	TrackID    string
	Title      string
	Artists    string
	Selected   int
	Candidates int
	Candidate  models.CandidateMedia
}

// Rows builds the match table of result using the indices in sel, in playlist order.
//
// Tracks missing from sel or with an out of range index show their first candidate.
func Rows(result models.PlaylistResult, sel models.SelectionMap) []Row {
	rows := make([]Row, 0, len(result.Matches))
	for i, m := range result.Matches {
		idx, ok := sel[m.Source.ID]
		if !ok || idx < 0 || idx >= len(m.Candidates) {
			idx = 0
		}

		row := Row{
			Position:   i + 1,
			TrackID:    m.Source.ID,
			Title:      m.Source.Title,
			Artists:    m.Source.Artists,
			Selected:   idx,
			Candidates: len(m.Candidates),
		}
		if len(m.Candidates) > 0 {
			row.Candidate = m.Candidates[idx]
		}
		rows = append(rows, row)
	}
	return rows
}

// ExportToCSV converts the match table to CSV with columns: Position, Track ID, Title, Artists, Selected, Video Title, Channel, Duration, Views, URL
func ExportToCSV(result models.PlaylistResult, sel models.SelectionMap) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	headers := []string{"Position", "Track ID", "Title", "Artists", "Selected", "Video Title", "Channel", "Duration", "Views", "URL"}
	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, row := range Rows(result, sel) {
		c := row.Candidate
		record := []string{
			strconv.Itoa(row.Position),
			row.TrackID,
			row.Title,
			row.Artists,
			strconv.Itoa(row.Selected),
			Optional(c.Title),
			Optional(c.Channel),
			Optional(c.Duration),
			FormatViews(c.ViewCount),
			Optional(c.SourceURL),
		}
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

// ExportToMarkdown converts the match table to a Markdown document with a table of selections.
func ExportToMarkdown(result models.PlaylistResult, sel models.SelectionMap) ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteString(fmt.Sprintf("# %s\n\n", result.Name))
	buf.WriteString(fmt.Sprintf("**Tracks**: %d\n", len(result.Matches)))
	if len(result.Skipped) > 0 {
		buf.WriteString(fmt.Sprintf("**Skipped**: %d\n", len(result.Skipped)))
	}
	buf.WriteString("\n## Tracks\n\n")
	buf.WriteString("| # | Track | Video | Channel | Duration | Views |\n")
	buf.WriteString("|---|-------|-------|---------|----------|-------|\n")

	for _, row := range Rows(result, sel) {
		c := row.Candidate
		video := escapeCell(Optional(c.Title))
		if u, ok := c.URL(); ok {
			video = fmt.Sprintf("[%s](%s)", video, u)
		}
		buf.WriteString(fmt.Sprintf("| %d | %s - %s | %s | %s | %s | %s |\n",
			row.Position, escapeCell(row.Artists), escapeCell(row.Title), video,
			escapeCell(Optional(c.Channel)), Optional(c.Duration), FormatViews(c.ViewCount)))
	}

	if len(result.Skipped) > 0 {
		buf.WriteString("\n## Skipped\n\n")
		for _, s := range result.Skipped {
			buf.WriteString(fmt.Sprintf("- %s - %s (%s)\n", s.Source.Artists, s.Source.Title, s.Reason))
		}
	}

	return buf.Bytes(), nil
}

// ExportToText converts the match table to plain text format.
func ExportToText(result models.PlaylistResult, sel models.SelectionMap) ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteString(fmt.Sprintf("Playlist: %s\n", result.Name))
	buf.WriteString(fmt.Sprintf("Tracks: %d\n\n", len(result.Matches)))

	for _, row := range Rows(result, sel) {
		c := row.Candidate
		buf.WriteString(fmt.Sprintf("%d. %s - %s\n", row.Position, row.Artists, row.Title))
		buf.WriteString(fmt.Sprintf("   [%d/%d] %s | %s | %s | %s views\n",
			row.Selected+1, row.Candidates, Optional(c.Title), Optional(c.Channel), Optional(c.Duration), FormatViews(c.ViewCount)))
	}

	return buf.Bytes(), nil
}

type jsonRow struct {
	Position int    `json:"position"`
	TrackID  string `json:"track_id"`
	Title    string `json:"title"`
	Artists  string `json:"artists"`
	Selected int    `json:"selected"`
	Video    struct {
		Title    *string `json:"title"`
		Channel  *string `json:"channel"`
		Duration *string `json:"duration"`
		Views    *int64  `json:"views"`
		URL      *string `json:"url"`
	} `json:"video"`
}

// ExportToJSON converts the match table to indented JSON; absent candidate fields are null.
func ExportToJSON(result models.PlaylistResult, sel models.SelectionMap) ([]byte, error) {
	rows := Rows(result, sel)
	out := struct {
		Playlist string    `json:"playlist"`
		Tracks   []jsonRow `json:"tracks"`
	}{Playlist: result.Name, Tracks: make([]jsonRow, 0, len(rows))}

	for _, row := range rows {
		jr := jsonRow{Position: row.Position, TrackID: row.TrackID, Title: row.Title, Artists: row.Artists, Selected: row.Selected}
		jr.Video.Title = row.Candidate.Title
		jr.Video.Channel = row.Candidate.Channel
		jr.Video.Duration = row.Candidate.Duration
		jr.Video.Views = row.Candidate.ViewCount
		jr.Video.URL = row.Candidate.SourceURL
		out.Tracks = append(out.Tracks, jr)
	}

	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode JSON: %w", err)
	}
	return data, nil
}

// Export renders the match table in format: csv, md (markdown), txt (text) or json.
func Export(format string, result models.PlaylistResult, sel models.SelectionMap) ([]byte, error) {
	switch strings.ToLower(format) {
	case "csv":
		return ExportToCSV(result, sel)
	case "md", "markdown":
		return ExportToMarkdown(result, sel)
	case "txt", "text":
		return ExportToText(result, sel)
	case "json":
		return ExportToJSON(result, sel)
	default:
		return nil, fmt.Errorf("unsupported export format: %s", format)
	}
}

// WriteExport renders the match table and writes it to path.
//
// Defaults to {playlist name}_tracks.{format} as the filename.
func WriteExport(format string, result models.PlaylistResult, sel models.SelectionMap, path string) (string, error) {
	data, err := Export(format, result, sel)
	if err != nil {
		return "", err
	}

	if path == "" {
		path = fmt.Sprintf("%s_tracks.%s", SafeFileName(result.Name), strings.ToLower(format))
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write export file: %w", err)
	}

	return path, nil
}

func escapeCell(s string) string {
	return strings.ReplaceAll(s, "|", `\|`)
}
