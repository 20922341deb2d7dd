package apierr

import (
	"encoding/json"
	"net/http"

	"github.com/charmbracelet/log"
	"golang.org/x/text/language"
)

var supported = []language.Tag{language.English, language.Japanese}

var matcher = language.NewMatcher(supported)

// catalog holds the user-facing message for each [Code], per supported language (same order as supported).
var catalog = []map[Code]string{
	{
		CodeBadRequest:       "The request was invalid.",
		CodeUnauthorized:     "Please log in with Spotify to continue.",
		CodeForbidden:        "You do not have access to this resource.",
		CodeNotFound:         "The requested resource was not found.",
		CodePlaylistNotFound: "Playlist not found. Check the URL and try again.",
		CodeTrackNotFound:    "Track not found.",
		CodeInvalidPlaylist:  "Enter a Spotify playlist URL or ID.",
		CodeUpstream:         "The playlist service returned an error.",
		CodeBadGateway:       "The playlist service is unavailable. Please try again later.",
		CodeInternal:         "An unexpected error occurred.",
	},
	{
		CodeBadRequest:       "リクエストが不正です。",
		CodeUnauthorized:     "続けるにはSpotifyでログインしてください。",
		CodeForbidden:        "このリソースへのアクセス権がありません。",
		CodeNotFound:         "リソースが見つかりません。",
		CodePlaylistNotFound: "プレイリストが見つかりません。URLを確認してもう一度お試しください。",
		CodeTrackNotFound:    "トラックが見つかりません。",
		CodeInvalidPlaylist:  "SpotifyのプレイリストURLまたはIDを入力してください。",
		CodeUpstream:         "プレイリストサービスでエラーが発生しました。",
		CodeBadGateway:       "プレイリストサービスに接続できません。しばらくしてからお試しください。",
		CodeInternal:         "予期しないエラーが発生しました。",
	},
}

// Body is the JSON shape of every error response.
type Body struct {
	Error   string `json:"error"`
	Code    Code   `json:"code"`
	Message string `json:"message,omitempty"`
	Details any    `json:"details,omitempty"`
}

// Writer renders errors as JSON responses in the caller's language.
type Writer struct {
	fallback int
	logger   *log.Logger
}

// NewWriter creates a [Writer] that falls back to locale when Accept-Language matches nothing.
//
// The logger may be nil.
func NewWriter(locale string, logger *log.Logger) *Writer {
	w := &Writer{logger: logger}
	if tag, err := language.Parse(locale); err == nil {
		_, idx, conf := matcher.Match(tag)
		if conf != language.No {
			w.fallback = idx
		}
	}
	return w
}

// Localize returns the message for code in the language best matching acceptLanguage.
func (w *Writer) Localize(code Code, acceptLanguage string) string {
	idx := w.fallback
	if tags, _, err := language.ParseAcceptLanguage(acceptLanguage); err == nil && len(tags) > 0 {
		if _, i, conf := matcher.Match(tags...); conf != language.No {
			idx = i
		}
	}

	if msg, ok := catalog[idx][code]; ok {
		return msg
	}
	return catalog[idx][CodeInternal]
}

// Handle writes err as a JSON error response. Errors that are not [*Error] become 500s.
func (w *Writer) Handle(rw http.ResponseWriter, r *http.Request, err error) {
	e := From(err)

	if w.logger != nil {
		if e.Status >= http.StatusInternalServerError {
			w.logger.Error("request failed", "method", r.Method, "path", r.URL.Path, "status", e.Status, "error", err)
		} else {
			w.logger.Debug("request rejected", "method", r.Method, "path", r.URL.Path, "status", e.Status, "error", err)
		}
	}

	body := Body{
		Error: w.Localize(e.Code, r.Header.Get("Accept-Language")),
		Code:  e.Code,
	}
	// server failures are logged above; clients only get the localized message
	if e.Status < http.StatusInternalServerError {
		body.Message = e.Message
		body.Details = e.Details
	}

	rw.Header().Set("Content-Type", "application/json")
	rw.WriteHeader(e.Status)
	json.NewEncoder(rw).Encode(body)
}

var defaultWriter = NewWriter("en", nil)

// Handle writes err with the default English [Writer].
func Handle(w http.ResponseWriter, r *http.Request, err error) {
	defaultWriter.Handle(w, r, err)
}
