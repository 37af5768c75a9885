package shared

import (
	"fmt"
	"net/url"
	"strings"
)

const spotifyURIPrefix = "spotify:playlist:"

// ExtractPlaylistID normalizes a Spotify playlist reference to its bare ID.
//
// Accepts a raw ID, a "spotify:playlist:<id>" URI, or an open.spotify.com URL
// (query parameters such as ?si= are ignored). Percent-encoded input is decoded first.
func ExtractPlaylistID(input string) (string, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return "", fmt.Errorf("%w: playlist reference is empty", ErrInvalidArgument)
	}

	if decoded, err := url.PathUnescape(input); err == nil {
		input = decoded
	}

	var id string
	switch {
	case strings.HasPrefix(input, spotifyURIPrefix):
		id = strings.TrimPrefix(input, spotifyURIPrefix)
	case !strings.Contains(input, "/"):
		id = input
	default:
		u, err := url.Parse(input)
		if err != nil {
			return "", fmt.Errorf("%w: playlist URL %q: %v", ErrInvalidArgument, input, err)
		}
		segments := strings.Split(strings.Trim(u.Path, "/"), "/")
		for i, seg := range segments {
			if strings.EqualFold(seg, "playlist") && i+1 < len(segments) {
				id = segments[i+1]
				break
			}
		}
		if id == "" {
			return "", fmt.Errorf("%w: no playlist ID in URL %q", ErrInvalidArgument, input)
		}
	}

	if !isPlaylistID(id) {
		return "", fmt.Errorf("%w: malformed playlist ID %q", ErrInvalidArgument, id)
	}
	return id, nil
}

// isPlaylistID reports whether id is a non-empty base62 string.
func isPlaylistID(id string) bool {
	if id == "" {
		return false
	}
	for _, r := range id {
		switch {
		case r >= '0' && r <= '9', r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z':
		default:
			return false
		}
	}
	return true
}
