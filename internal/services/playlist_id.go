package services

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"github.com/desertthunder/playlist-viewer/internal/shared"
)

var (
	bareIDPattern = regexp.MustCompile(`^[A-Za-z0-9]{22}$`)
	uriPattern    = regexp.MustCompile(`^spotify:(?:user:[^:]+:)?playlist:([A-Za-z0-9]{22})$`)
	pathPattern   = regexp.MustCompile(`^/(?:intl-[a-z]{2}(?:-[a-zA-Z]{2})?/)?(?:embed/)?playlist/([A-Za-z0-9]{22})/?$`)
)

// ExtractPlaylistID returns the playlist id from a Spotify playlist URL, spotify: URI or bare id.
func ExtractPlaylistID(input string) (string, error) {
	s := strings.TrimSpace(input)
	if s == "" {
		return "", fmt.Errorf("%w: empty input", shared.ErrInvalidPlaylistURL)
	}

	if bareIDPattern.MatchString(s) {
		return s, nil
	}

	if m := uriPattern.FindStringSubmatch(s); m != nil {
		return m[1], nil
	}

	if !strings.Contains(s, "://") && strings.HasPrefix(s, "open.spotify.com/") {
		s = "https://" + s
	}

	u, err := url.Parse(s)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host != "open.spotify.com" {
		return "", fmt.Errorf("%w: %q", shared.ErrInvalidPlaylistURL, input)
	}

	if m := pathPattern.FindStringSubmatch(u.Path); m != nil {
		return m[1], nil
	}

	return "", fmt.Errorf("%w: %q", shared.ErrInvalidPlaylistURL, input)
}
