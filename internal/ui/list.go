package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	"github.com/desertthunder/plzip/internal/formatter"
	"github.com/desertthunder/plzip/internal/models"
)

var (
	_ list.Item = trackItem{}
	_ list.Item = candidateItem{}
)

// trackItem wraps [models.TrackMatch] and its selected candidate to implement [list.Item].
type trackItem struct {
	match    models.TrackMatch
	selected int
}

func (i trackItem) FilterValue() string { return i.match.Source.Title + " " + i.match.Source.Artists }
func (i trackItem) Title() string {
	return fmt.Sprintf("%s • %s", i.match.Source.Title, i.match.Source.Artists)
}
func (i trackItem) Description() string {
	c := i.match.Candidates[i.selected]
	return fmt.Sprintf("[%d/%d] %s", i.selected+1, len(i.match.Candidates), describe(c))
}

// candidateItem wraps [models.CandidateMedia] to implement [list.Item].
type candidateItem struct {
	index     int
	candidate models.CandidateMedia
	selected  bool
}

func (i candidateItem) FilterValue() string { return formatter.Optional(i.candidate.Title) }
func (i candidateItem) Title() string {
	title := fmt.Sprintf("%d. %s", i.index+1, formatter.Optional(i.candidate.Title))
	if i.selected {
		return styles.selected.Render("✓ " + title)
	}
	return title
}
func (i candidateItem) Description() string {
	desc := describe(i.candidate)
	if url, ok := i.candidate.URL(); ok {
		desc = fmt.Sprintf("%s • %s", desc, url)
	}
	return desc
}

// describe renders the optional candidate metadata, using N/A for absent fields.
func describe(c models.CandidateMedia) string {
	parts := []string{
		formatter.Optional(c.Title),
		formatter.Optional(c.Channel),
		formatter.Optional(c.Duration),
		formatter.FormatViews(c.ViewCount) + " views",
	}
	return strings.Join(parts, " • ")
}
