package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	"github.com/desertthunder/plconv/internal/models"
)

var _ list.Item = trackItem{}

// trackItem wraps [models.Track] to implement [list.Item].
type trackItem struct {
	pos   int
	track models.Track
}

func (i trackItem) FilterValue() string { return i.track.String() }

// Title returns the song title, or the whole track when it has no artist part.
func (i trackItem) Title() string {
	if _, title, ok := strings.Cut(i.track.String(), " - "); ok {
		return title
	}
	return i.track.String()
}

func (i trackItem) Description() string {
	artist, _, ok := strings.Cut(i.track.String(), " - ")
	if !ok {
		return fmt.Sprintf("#%d", i.pos)
	}
	return fmt.Sprintf("#%d • %s", i.pos, artist)
}

func trackItems(tracks []models.Track) []list.Item {
	items := make([]list.Item, len(tracks))
	for i, t := range tracks {
		items[i] = trackItem{pos: i + 1, track: t}
	}
	return items
}
