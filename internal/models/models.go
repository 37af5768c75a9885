package models

import (
	"fmt"
	"strings"

	"github.com/desertthunder/plconv/internal/shared"
)

// Track is a display line for one source track, formatted "<artist> - <title>".
//
// The line is used verbatim as the free-text query against the target catalog.
type Track string

// NewTrack joins artist and title into a [Track]. Tracks without an artist use the title only.
func NewTrack(artist, title string) Track {
	artist = strings.TrimSpace(artist)
	title = strings.TrimSpace(title)
	if artist == "" {
		return Track(title)
	}
	return Track(artist + " - " + title)
}

func (t Track) String() string { return string(t) }

// TrackList is an ordered list of tracks with the playlist display name kept apart.
type TrackList struct {
	Name   string  `json:"name"`
	Tracks []Track `json:"tracks"`
}

// Len returns the number of tracks, excluding the name.
func (l *TrackList) Len() int {
	if l == nil {
		return 0
	}
	return len(l.Tracks)
}

// ParseTrackList builds a [TrackList] from a header-first sequence,
// where element 0 is the playlist name and the rest are tracks.
//
// An empty sequence has no header and is rejected.
func ParseTrackList(lines []string) (*TrackList, error) {
	if len(lines) == 0 {
		return nil, fmt.Errorf("%w: track list has no header", shared.ErrInvalidArgument)
	}

	tracks := make([]Track, 0, len(lines)-1)
	for _, line := range lines[1:] {
		tracks = append(tracks, Track(line))
	}
	return &TrackList{Name: lines[0], Tracks: tracks}, nil
}

// Lines returns the header-first form of l, the inverse of [ParseTrackList].
func (l *TrackList) Lines() []string {
	lines := make([]string, 0, len(l.Tracks)+1)
	lines = append(lines, l.Name)
	for _, t := range l.Tracks {
		lines = append(lines, string(t))
	}
	return lines
}

// Credentials carries an opaque bearer token for one catalog.
//
// The token is redacted by String and GoString so it cannot leak through log output.
type Credentials struct {
	AccessToken string
}

// NewCredentials wraps token, trimming an optional "Bearer " prefix.
func NewCredentials(token string) Credentials {
	token = strings.TrimSpace(token)
	if len(token) > 7 && strings.EqualFold(token[:7], "bearer ") {
		token = strings.TrimSpace(token[7:])
	}
	return Credentials{AccessToken: token}
}

// Empty reports whether no token is present.
func (c Credentials) Empty() bool { return c.AccessToken == "" }

func (c Credentials) String() string {
	if c.Empty() {
		return "Credentials(<none>)"
	}
	return "Credentials(<redacted>)"
}

func (c Credentials) GoString() string { return c.String() }

// Visibility is the privacy status of a target playlist.
type Visibility string

const (
	VisibilityPublic   Visibility = "public"
	VisibilityPrivate  Visibility = "private"
	VisibilityUnlisted Visibility = "unlisted"
)

// ParseVisibility parses s case-insensitively. An empty string means private.
func ParseVisibility(s string) (Visibility, error) {
	switch v := Visibility(strings.ToLower(strings.TrimSpace(s))); v {
	case "":
		return VisibilityPrivate, nil
	case VisibilityPublic, VisibilityPrivate, VisibilityUnlisted:
		return v, nil
	default:
		return "", fmt.Errorf("%w: privacy status must be public, private or unlisted, got %q", shared.ErrInvalidArgument, s)
	}
}

// Valid reports whether v is one of the known privacy statuses.
func (v Visibility) Valid() bool {
	switch v {
	case VisibilityPublic, VisibilityPrivate, VisibilityUnlisted:
		return true
	}
	return false
}

func (v Visibility) String() string { return string(v) }
