// package formatter provides functions to export playlist data to various formats (CSV, Markdown, plain text, YAML)
// and to render tables and bar charts for the terminal
package formatter

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/desertthunder/playlist-viewer/internal/models"
	"github.com/desertthunder/playlist-viewer/internal/shared"
	"gopkg.in/yaml.v3"
)

// PlaylistExport is a playlist with its tracks and, when fetched, their audio features.
type PlaylistExport struct {
	Playlist models.Playlist
	Tracks   []models.Track
	Features []models.AudioFeatures
}

// Format is an export file format.
type Format string

const (
	FormatCSV      Format = "csv"
	FormatMarkdown Format = "markdown"
	FormatText     Format = "text"
	FormatYAML     Format = "yaml"
	FormatJSON     Format = "json"
)

// ParseFormat accepts a format name or its usual file extension.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimPrefix(strings.TrimSpace(s), ".")) {
	case "csv":
		return FormatCSV, nil
	case "md", "markdown":
		return FormatMarkdown, nil
	case "txt", "text":
		return FormatText, nil
	case "yml", "yaml":
		return FormatYAML, nil
	case "json":
		return FormatJSON, nil
	}
	return "", fmt.Errorf("%w: unknown export format %q", shared.ErrInvalidArgument, s)
}

// Ext returns the file extension written for f.
func (f Format) Ext() string {
	switch f {
	case FormatText:
		return "txt"
	case FormatMarkdown:
		return "md"
	default:
		return string(f)
	}
}

func popularity(t models.Track) string {
	if t.Popularity == nil {
		return ""
	}
	return strconv.Itoa(*t.Popularity)
}

// ExportToCSV converts a PlaylistExport to CSV format with columns: ID, Title, Artists, Album, Duration, Popularity,
// Added
func ExportToCSV(export *PlaylistExport) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	headers := []string{"ID", "Title", "Artists", "Album", "Duration", "Popularity", "Added"}
	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, track := range export.Tracks {
		record := []string{
			track.ID,
			track.Name,
			track.ArtistNames(),
			track.Album.Name,
			shared.FormatDuration(track.DurationMs),
			popularity(track),
			track.AddedAt,
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

// ExportToMarkdown converts a PlaylistExport to Markdown format with optional cover image
func ExportToMarkdown(export *PlaylistExport, imageFilename string) ([]byte, error) {
	var buf bytes.Buffer
	p := export.Playlist

	buf.WriteString(fmt.Sprintf("# %s\n\n", p.Name))

	if imageFilename != "" {
		buf.WriteString(fmt.Sprintf("![Cover](%s)\n\n", imageFilename))
	}

	if p.Description != "" {
		buf.WriteString(fmt.Sprintf("**Description**: %s\n\n", p.Description))
	}

	if p.Owner.DisplayName != "" {
		buf.WriteString(fmt.Sprintf("**Owner**: %s\n", p.Owner.DisplayName))
	}
	buf.WriteString(fmt.Sprintf("**Tracks**: %d\n\n", len(export.Tracks)))

	buf.WriteString("## Tracks\n\n")
	buf.WriteString("| # | Title | Artists | Album | Duration | Popularity |\n")
	buf.WriteString("|---|---|---|---|---|---|\n")
	for i, track := range export.Tracks {
		pop := popularity(track)
		if pop == "" {
			pop = "-"
		}
		buf.WriteString(fmt.Sprintf("| %d | %s | %s | %s | %s | %s |\n",
			i+1, mdEscape(track.Name), mdEscape(track.ArtistNames()), mdEscape(track.Album.Name),
			shared.FormatDuration(track.DurationMs), pop))
	}

	return buf.Bytes(), nil
}

func mdEscape(s string) string {
	return strings.ReplaceAll(s, "|", `\|`)
}

// ExportToText converts a PlaylistExport to plain text format
func ExportToText(export *PlaylistExport) ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteString(fmt.Sprintf("Playlist: %s\n", export.Playlist.Name))
	if export.Playlist.Description != "" {
		buf.WriteString(fmt.Sprintf("Description: %s\n", export.Playlist.Description))
	}
	buf.WriteString(fmt.Sprintf("Tracks: %d\n\n", len(export.Tracks)))

	for i, track := range export.Tracks {
		buf.WriteString(fmt.Sprintf("%d. %s - %s [%s]\n", i+1, track.ArtistNames(), track.Name, shared.FormatDuration(track.DurationMs)))
	}

	return buf.Bytes(), nil
}

type yamlTrack struct {
	ID         string   `yaml:"id"`
	Name       string   `yaml:"name"`
	Artists    []string `yaml:"artists"`
	Album      string   `yaml:"album,omitempty"`
	Duration   string   `yaml:"duration"`
	Popularity *int     `yaml:"popularity,omitempty"`
	AddedAt    string   `yaml:"added_at,omitempty"`
}

type yamlFeatures struct {
	ID           string  `yaml:"id"`
	Key          string  `yaml:"key"`
	Tempo        float64 `yaml:"tempo"`
	Danceability float64 `yaml:"danceability"`
	Energy       float64 `yaml:"energy"`
	Valence      float64 `yaml:"valence"`
}

type yamlExport struct {
	ID          string         `yaml:"id"`
	Name        string         `yaml:"name"`
	Description string         `yaml:"description,omitempty"`
	Owner       string         `yaml:"owner,omitempty"`
	URL         string         `yaml:"url,omitempty"`
	Tracks      []yamlTrack    `yaml:"tracks"`
	Features    []yamlFeatures `yaml:"audio_features,omitempty"`
}

// ExportToYAML converts a PlaylistExport to a YAML document
func ExportToYAML(export *PlaylistExport) ([]byte, error) {
	p := export.Playlist
	doc := yamlExport{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		Owner:       p.Owner.DisplayName,
		URL:         p.URL,
		Tracks:      make([]yamlTrack, 0, len(export.Tracks)),
	}

	for _, t := range export.Tracks {
		artists := make([]string, 0, len(t.Artists))
		for _, a := range t.Artists {
			artists = append(artists, a.Name)
		}
		doc.Tracks = append(doc.Tracks, yamlTrack{
			ID:         t.ID,
			Name:       t.Name,
			Artists:    artists,
			Album:      t.Album.Name,
			Duration:   shared.FormatDuration(t.DurationMs),
			Popularity: t.Popularity,
			AddedAt:    t.AddedAt,
		})
	}

	for _, f := range export.Features {
		doc.Features = append(doc.Features, yamlFeatures{
			ID:           f.ID,
			Key:          f.KeyName(),
			Tempo:        f.Tempo,
			Danceability: f.Danceability,
			Energy:       f.Energy,
			Valence:      f.Valence,
		})
	}

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(doc); err != nil {
		return nil, fmt.Errorf("failed to encode YAML: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("failed to encode YAML: %w", err)
	}

	return buf.Bytes(), nil
}

// DownloadImage downloads an image from the given URL and returns the raw bytes
func DownloadImage(url string) ([]byte, error) {
	if url == "" {
		return nil, fmt.Errorf("empty URL provided")
	}

	client := &http.Client{
		Timeout: 30 * time.Second,
	}

	resp, err := client.Get(url)
	if err != nil {
		return nil, fmt.Errorf("failed to download image: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("failed to download image: status %d", resp.StatusCode)
	}

	imageData, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read image data: %w", err)
	}

	return imageData, nil
}

// ToMetadataJSON generates a JSON representation of playlist metadata (without tracks)
func ToMetadataJSON(playlist models.Playlist) ([]byte, error) {
	playlist.Tracks = nil
	return shared.MarshalJSON(playlist, true)
}

// Export renders export in format. Markdown is rendered without a cover image.
func Export(export *PlaylistExport, format Format) ([]byte, error) {
	switch format {
	case FormatCSV:
		return ExportToCSV(export)
	case FormatMarkdown:
		return ExportToMarkdown(export, "")
	case FormatText:
		return ExportToText(export)
	case FormatYAML:
		return ExportToYAML(export)
	case FormatJSON:
		full := export.Playlist
		full.Tracks = export.Tracks
		return shared.MarshalJSON(full, true)
	}
	return nil, fmt.Errorf("%w: unknown export format %q", shared.ErrInvalidArgument, format)
}

// CSVExportResult contains the paths of files created by WriteCSVExport
type CSVExportResult struct {
	TracksFile   string
	MetadataFile string
}

// WriteCSVExport exports a playlist to CSV format with accompanying metadata JSON file.
//
// Defaults to playlist ID as the base filename & creates {base}_tracks.csv and {base}_metadata.json
func WriteCSVExport(export *PlaylistExport, baseFilepath string) (*CSVExportResult, error) {
	if baseFilepath == "" {
		baseFilepath = export.Playlist.ID
	}

	csvData, err := ExportToCSV(export)
	if err != nil {
		return nil, fmt.Errorf("failed to generate CSV: %w", err)
	}

	tracksFile := baseFilepath + "_tracks.csv"
	if err := os.WriteFile(tracksFile, csvData, 0644); err != nil {
		return nil, fmt.Errorf("failed to write CSV file: %w", err)
	}

	metadataJSON, err := ToMetadataJSON(export.Playlist)
	if err != nil {
		return nil, fmt.Errorf("failed to generate metadata JSON: %w", err)
	}

	metadataFile := baseFilepath + "_metadata.json"
	if err := os.WriteFile(metadataFile, metadataJSON, 0644); err != nil {
		return nil, fmt.Errorf("failed to write metadata file: %w", err)
	}

	return &CSVExportResult{
		TracksFile:   tracksFile,
		MetadataFile: metadataFile,
	}, nil
}

// MarkdownExportResult contains information about files created by WriteMarkdownExport
type MarkdownExportResult struct {
	Directory  string
	Files      []string
	CoverImage string
}

// WriteMarkdownExport exports a playlist to Markdown format in a dedicated directory.
//
// Directory name defaults to the playlist ID.
// The cover image is downloaded from the playlist's first image when it has one; a failed download is reported
// through warn and the export continues without it.
// Creates a directory structure: {dir}/README.md and optionally {dir}/cover.jpg
func WriteMarkdownExport(export *PlaylistExport, outputDir string, warn func(error)) (*MarkdownExportResult, error) {
	if outputDir == "" {
		outputDir = export.Playlist.ID
	}
	if warn == nil {
		warn = func(error) {}
	}

	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	result := &MarkdownExportResult{
		Directory: outputDir,
		Files:     []string{},
	}

	var coverImageFilename string
	if imageURL := export.Playlist.CoverURL(); imageURL != "" {
		imageData, err := DownloadImage(imageURL)
		if err != nil {
			warn(err)
		} else {
			coverImageFilename = "cover.jpg"
			coverImagePath := filepath.Join(outputDir, coverImageFilename)
			if err := os.WriteFile(coverImagePath, imageData, 0644); err != nil {
				warn(fmt.Errorf("failed to save cover image: %w", err))
				coverImageFilename = ""
			} else {
				result.CoverImage = coverImagePath
				result.Files = append(result.Files, coverImagePath)
			}
		}
	}

	mdData, err := ExportToMarkdown(export, coverImageFilename)
	if err != nil {
		return nil, fmt.Errorf("failed to generate Markdown: %w", err)
	}

	mdFile := filepath.Join(outputDir, "README.md")
	if err := os.WriteFile(mdFile, mdData, 0644); err != nil {
		return nil, fmt.Errorf("failed to write Markdown file: %w", err)
	}

	result.Files = append(result.Files, mdFile)

	return result, nil
}

// WriteExport writes export in format to path, defaulting to {playlist.ID}_tracks.{ext}.
func WriteExport(export *PlaylistExport, format Format, path string) (string, error) {
	if path == "" {
		path = fmt.Sprintf("%s_tracks.%s", export.Playlist.ID, format.Ext())
	}

	data, err := Export(export, format)
	if err != nil {
		return "", err
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write %s file: %w", format, err)
	}

	return path, nil
}
