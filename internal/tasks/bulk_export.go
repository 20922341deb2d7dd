package tasks

import (
	"cmp"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/playlist-viewer/internal/formatter"
	"github.com/desertthunder/playlist-viewer/internal/models"
	"github.com/desertthunder/playlist-viewer/internal/services"
	"github.com/desertthunder/playlist-viewer/internal/shared"
	"golang.org/x/time/rate"
)

// Source is the slice of the backend client an export needs.
type Source interface {
	GetPlaylist(ctx context.Context, id string, creds services.Credentials) (*models.Playlist, error)
	GetPlaylistTracks(ctx context.Context, id string, creds services.Credentials) ([]models.Track, error)
	GetPlaylistAudioFeatures(ctx context.Context, id string, creds services.Credentials) ([]models.AudioFeatures, error)
}

var _ Source = (*services.BackendClient)(nil)

// BulkExportOpts contains configuration for bulk playlist exports.
type BulkExportOpts struct {
	Format     formatter.Format // Export format
	OutputDir  string           // Base output directory (default: playlist_export_{epoch})
	NumWorkers int              // Concurrent writers (default: 4, at most 10)
	RateLimit  float64          // Backend fetches per second (default: 5)
	Features   bool             // Include audio features
}

// PlaylistExportJob is one fetched playlist waiting to be written.
type PlaylistExportJob struct {
	Index      int
	PlaylistID string
	Export     *formatter.PlaylistExport
}

// PlaylistExportResult is the outcome for one playlist.
type PlaylistExportResult struct {
	Index        int      `json:"-"`
	PlaylistID   string   `json:"playlist_id"`
	PlaylistName string   `json:"playlist_name"`
	Success      bool     `json:"success"`
	Files        []string `json:"files,omitempty"`
	Error        error    `json:"-"`
}

// BulkExportResult summarizes a bulk export; Results follow the order of the requested ids.
type BulkExportResult struct {
	TotalPlaylists    int                    `json:"total_playlists"`
	SuccessfulExports int                    `json:"successful_exports"`
	FailedExports     int                    `json:"failed_exports"`
	OutputDirectory   string                 `json:"output_directory"`
	ManifestPath      string                 `json:"-"`
	Results           []PlaylistExportResult `json:"results"`
}

// Exporter writes playlists fetched from a [Source].
type Exporter struct {
	src    Source
	creds  services.Credentials
	logger *log.Logger
}

// NewExporter creates an exporter calling src with creds.
func NewExporter(src Source, creds services.Credentials, logger *log.Logger) *Exporter {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &Exporter{src: src, creds: creds, logger: logger}
}

func (e *Exporter) sendProgress(progress chan<- ProgressUpdate, update ProgressUpdate) {
	if progress == nil {
		return
	}
	select {
	case progress <- update:
	default:
	}
}

// BulkExport exports multiple playlists concurrently with rate limiting and progress tracking.
//
// Playlists are fetched one at a time under the rate limit and handed to a pool of writers. Partial failures are
// recorded per playlist; the returned error is reserved for problems with the output directory or manifest.
func (e *Exporter) BulkExport(ctx context.Context, prog chan<- ProgressUpdate, ids []string, opts BulkExportOpts) (*BulkExportResult, error) {
	if e.src == nil {
		return nil, fmt.Errorf("%w: backend not initialized", shared.ErrServiceUnavailable)
	}
	if opts.Format == "" {
		opts.Format = formatter.FormatJSON
	}
	if opts.OutputDir == "" {
		opts.OutputDir = fmt.Sprintf("playlist_export_%d", time.Now().Unix())
	}
	if opts.NumWorkers <= 0 {
		opts.NumWorkers = 4
	}
	opts.NumWorkers = min(opts.NumWorkers, 10)
	if opts.RateLimit <= 0 {
		opts.RateLimit = 5.0
	}

	if err := os.MkdirAll(opts.OutputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	result := &BulkExportResult{
		TotalPlaylists:  len(ids),
		OutputDirectory: opts.OutputDir,
		Results:         make([]PlaylistExportResult, 0, len(ids)),
	}

	limiter := rate.NewLimiter(rate.Limit(opts.RateLimit), 1)

	jobs := make(chan PlaylistExportJob, len(ids))
	results := make(chan PlaylistExportResult, len(ids))

	var wg sync.WaitGroup
	for range opts.NumWorkers {
		wg.Add(1)
		go e.exportWorker(ctx, &wg, jobs, results, opts)
	}

	// results is closed only once the producer and every worker are done sending.
	producerDone := make(chan struct{})
	go func() {
		defer close(producerDone)
		defer close(jobs)
		for i, id := range ids {
			if err := limiter.Wait(ctx); err != nil {
				return
			}

			e.sendProgress(prog, fetchingPlaylistUpdate(i+1, len(ids), id))
			export, err := e.fetch(ctx, id, opts.Features)
			if err != nil {
				failed := PlaylistExportResult{
					Index:        i,
					PlaylistID:   id,
					PlaylistName: fmt.Sprintf("Unknown (%s)", id),
					Error:        fmt.Errorf("failed to fetch playlist: %w", err),
				}
				select {
				case results <- failed:
				case <-ctx.Done():
					return
				}
				continue
			}

			select {
			case jobs <- PlaylistExportJob{Index: i, PlaylistID: id, Export: export}:
			case <-ctx.Done():
				return
			}
			e.sendProgress(prog, exportingPlaylistUpdate(i+1, len(ids), export.Playlist.Name))
		}
	}()

	go func() {
		wg.Wait()
		<-producerDone
		close(results)
	}()

	completed := 0
	for res := range results {
		completed++
		result.Results = append(result.Results, res)

		if res.Success {
			result.SuccessfulExports++
			e.sendProgress(prog, exportCompletedUpdate(completed, len(ids), res.PlaylistName, len(res.Files)))
		} else {
			result.FailedExports++
			e.logger.Warn("playlist export failed", "playlist", res.PlaylistID, "error", res.Error)
			e.sendProgress(prog, exportFailedUpdate(completed, len(ids), res.PlaylistName, res.Error))
		}
	}
	slices.SortFunc(result.Results, func(a, b PlaylistExportResult) int { return cmp.Compare(a.Index, b.Index) })

	if err := ctx.Err(); err != nil {
		return result, err
	}

	manifestPath := filepath.Join(opts.OutputDir, "export_manifest.json")
	if err := writeManifest(result, opts.Format, manifestPath); err != nil {
		return result, fmt.Errorf("export completed but failed to write manifest: %w", err)
	}
	result.ManifestPath = manifestPath
	e.sendProgress(prog, manifestUpdate(manifestPath, result))
	return result, nil
}

// fetch loads a playlist, its tracks when they are not embedded, and optionally its audio features.
func (e *Exporter) fetch(ctx context.Context, id string, features bool) (*formatter.PlaylistExport, error) {
	playlist, err := e.src.GetPlaylist(ctx, id, e.creds)
	if err != nil {
		return nil, err
	}

	if len(playlist.Tracks) == 0 && playlist.TrackCount() > 0 {
		if playlist.Tracks, err = e.src.GetPlaylistTracks(ctx, id, e.creds); err != nil {
			return nil, err
		}
	}

	export := &formatter.PlaylistExport{Playlist: *playlist, Tracks: playlist.Tracks}
	if features {
		if export.Features, err = e.src.GetPlaylistAudioFeatures(ctx, id, e.creds); err != nil {
			e.logger.Warn("exporting without audio features", "playlist", id, "error", err)
		}
	}
	return export, nil
}

// exportWorker is a worker goroutine that exports playlists from the jobs channel.
func (e *Exporter) exportWorker(
	ctx context.Context,
	wg *sync.WaitGroup,
	jobs <-chan PlaylistExportJob,
	results chan<- PlaylistExportResult,
	opts BulkExportOpts,
) {
	defer wg.Done()

	for job := range jobs {
		if ctx.Err() != nil {
			return
		}
		results <- e.exportSinglePlaylist(job, opts)
	}
}

// exportSinglePlaylist exports a single playlist to the appropriate format.
func (e *Exporter) exportSinglePlaylist(j PlaylistExportJob, opts BulkExportOpts) PlaylistExportResult {
	result := PlaylistExportResult{
		Index:        j.Index,
		PlaylistID:   j.PlaylistID,
		PlaylistName: j.Export.Playlist.Name,
		Files:        []string{},
	}

	switch opts.Format {
	case formatter.FormatCSV:
		csvRes, err := formatter.WriteCSVExport(j.Export, filepath.Join(opts.OutputDir, j.PlaylistID))
		if err != nil {
			result.Error = fmt.Errorf("CSV export failed: %w", err)
			return result
		}
		result.Files = []string{csvRes.TracksFile, csvRes.MetadataFile}

	case formatter.FormatMarkdown:
		warn := func(err error) {
			e.logger.Warn("cover image skipped", "playlist", j.PlaylistID, "error", err)
		}
		mdRes, err := formatter.WriteMarkdownExport(j.Export, filepath.Join(opts.OutputDir, j.PlaylistID), warn)
		if err != nil {
			result.Error = fmt.Errorf("markdown export failed: %w", err)
			return result
		}
		result.Files = mdRes.Files

	default:
		path := filepath.Join(opts.OutputDir, j.PlaylistID+"."+opts.Format.Ext())
		written, err := formatter.WriteExport(j.Export, opts.Format, path)
		if err != nil {
			result.Error = fmt.Errorf("%s export failed: %w", opts.Format, err)
			return result
		}
		result.Files = []string{written}
	}

	result.Success = true
	return result
}

type manifest struct {
	Format      formatter.Format `json:"format"`
	GeneratedAt time.Time        `json:"generated_at"`
	*BulkExportResult
	Errors map[string]string `json:"errors,omitempty"`
}

// writeManifest records the export summary, with failures keyed by playlist id.
func writeManifest(result *BulkExportResult, format formatter.Format, path string) error {
	m := manifest{Format: format, GeneratedAt: time.Now().UTC(), BulkExportResult: result}
	for _, res := range result.Results {
		if res.Error == nil {
			continue
		}
		if m.Errors == nil {
			m.Errors = map[string]string{}
		}
		m.Errors[res.PlaylistID] = res.Error.Error()
	}

	data, err := shared.MarshalJSON(m, true)
	if err != nil {
		return fmt.Errorf("failed to marshal manifest: %w", err)
	}
	return os.WriteFile(path, data, 0644)
}
