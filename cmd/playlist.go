package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/desertthunder/playlist-viewer/internal/charts"
	"github.com/desertthunder/playlist-viewer/internal/formatter"
	"github.com/desertthunder/playlist-viewer/internal/models"
	"github.com/desertthunder/playlist-viewer/internal/services"
	"github.com/desertthunder/playlist-viewer/internal/shared"
	"github.com/desertthunder/playlist-viewer/internal/tables"
	"github.com/desertthunder/playlist-viewer/internal/tasks"
	"github.com/urfave/cli/v3"
)

func playlistArg(cmd *cli.Command) (string, error) {
	raw := cmd.StringArg("playlist")
	if raw == "" {
		return "", fmt.Errorf("%w: playlist URL or ID", shared.ErrMissingArgument)
	}
	return services.ExtractPlaylistID(raw)
}

// fetchPlaylist loads a playlist with its tracks, asking for them separately when the backend does not embed them.
func (r *Runner) fetchPlaylist(ctx context.Context, id string, creds services.Credentials) (*models.Playlist, error) {
	playlist, err := r.backend.GetPlaylist(ctx, id, creds)
	if err != nil {
		return nil, err
	}

	if len(playlist.Tracks) == 0 && playlist.TrackCount() > 0 {
		tracks, err := r.backend.GetPlaylistTracks(ctx, id, creds)
		if err != nil {
			return nil, err
		}
		playlist.Tracks = tracks
	}

	return playlist, nil
}

// PlaylistShow prints playlist metadata.
func (r *Runner) PlaylistShow(ctx context.Context, cmd *cli.Command) error {
	id, err := playlistArg(cmd)
	if err != nil {
		return err
	}
	creds, err := r.credentials(ctx, cmd)
	if err != nil {
		return err
	}

	playlist, err := r.backend.GetPlaylist(ctx, id, creds)
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(playlist, true)
	}

	r.writePlainHeader(playlist.Name)
	if playlist.Description != "" {
		r.writePlain("%s\n", playlist.Description)
	}
	r.writePlain("Owner:     %s\n", playlist.Owner.DisplayName)
	r.writePlain("Tracks:    %d\n", playlist.TrackCount())
	if playlist.Followers != nil {
		r.writePlain("Followers: %d\n", playlist.Followers.Total)
	}
	if playlist.URL != "" {
		r.writePlain("URL:       %s\n", playlist.URL)
	}

	if creds.Authenticated() {
		fav, err := r.backend.IsFavorite(ctx, id, creds)
		if err != nil {
			r.logger.Warn("failed to check favorite", "error", err)
		} else if fav {
			r.writePlain("★ In favorites\n")
		}
	}
	return nil
}

// PlaylistTracks prints the playlist's tracks, sorted when --sort is given.
func (r *Runner) PlaylistTracks(ctx context.Context, cmd *cli.Command) error {
	id, err := playlistArg(cmd)
	if err != nil {
		return err
	}
	creds, err := r.credentials(ctx, cmd)
	if err != nil {
		return err
	}

	playlist, err := r.fetchPlaylist(ctx, id, creds)
	if err != nil {
		return err
	}

	tracks := playlist.Tracks
	if column := cmd.String("sort"); column != "" {
		if tracks, err = tables.SortTracks(tracks, column, tables.ParseDirection(cmd.String("dir"))); err != nil {
			return fmt.Errorf("%w (columns: %s)", err, strings.Join(tables.TrackColumns, ", "))
		}
	}

	if cmd.Bool("json") {
		return r.writeJSON(tracks, true)
	}

	r.writePlain("%s\n", formatter.TrackTable(tracks))
	r.writePlain("%d tracks\n", len(tracks))
	return nil
}

// PlaylistFeatures prints per-track audio features and their averages.
func (r *Runner) PlaylistFeatures(ctx context.Context, cmd *cli.Command) error {
	id, err := playlistArg(cmd)
	if err != nil {
		return err
	}
	creds, err := r.credentials(ctx, cmd)
	if err != nil {
		return err
	}

	features, err := r.backend.GetPlaylistAudioFeatures(ctx, id, creds)
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(features, true)
	}

	r.writePlain("%s\n", formatter.FeaturesTable(features))
	r.writePlain("%s", formatter.RadarBars(charts.AverageFeatures(charts.Pointers(features)), 30))
	return nil
}

type chartOutput struct {
	By     charts.Dimension `json:"by"`
	Slices []charts.Slice   `json:"slices"`
	Radar  charts.Radar     `json:"radar"`
}

// PlaylistChart prints the top artists or albums (with the rest grouped as Other) and the audio-feature averages.
func (r *Runner) PlaylistChart(ctx context.Context, cmd *cli.Command) error {
	id, err := playlistArg(cmd)
	if err != nil {
		return err
	}
	by, ok := charts.ParseDimension(cmd.String("by"))
	if !ok {
		return fmt.Errorf("%w: --by must be artist or album", shared.ErrInvalidArgument)
	}
	creds, err := r.credentials(ctx, cmd)
	if err != nil {
		return err
	}

	playlist, err := r.fetchPlaylist(ctx, id, creds)
	if err != nil {
		return err
	}

	out := chartOutput{By: by, Slices: charts.Distribution(playlist.Tracks, by)}
	if features, err := r.backend.GetPlaylistAudioFeatures(ctx, id, creds); err != nil {
		r.logger.Warn("audio features unavailable", "error", err)
	} else {
		out.Radar = charts.AverageFeatures(charts.Pointers(features))
	}

	if cmd.Bool("json") {
		return r.writeJSON(out, true)
	}

	width := cmd.Int("width")
	r.writePlainHeader(fmt.Sprintf("%s by %s", playlist.Name, by))
	r.writePlain("%s", formatter.PieBars(out.Slices, width))
	r.writePlainln("Audio features")
	r.writePlain("%s", formatter.RadarBars(out.Radar, width))
	return nil
}

// PlaylistExport writes the playlist in the requested format to stdout or --output.
func (r *Runner) PlaylistExport(ctx context.Context, cmd *cli.Command) error {
	id, err := playlistArg(cmd)
	if err != nil {
		return err
	}
	format, err := formatter.ParseFormat(cmd.String("format"))
	if err != nil {
		return err
	}
	creds, err := r.credentials(ctx, cmd)
	if err != nil {
		return err
	}

	playlist, err := r.fetchPlaylist(ctx, id, creds)
	if err != nil {
		return err
	}

	export := &formatter.PlaylistExport{Playlist: *playlist, Tracks: playlist.Tracks}
	if cmd.Bool("features") {
		if export.Features, err = r.backend.GetPlaylistAudioFeatures(ctx, id, creds); err != nil {
			r.logger.Warn("exporting without audio features", "error", err)
		}
	}

	output := cmd.String("output")
	if output == "" {
		data, err := formatter.Export(export, format)
		if err != nil {
			return err
		}
		_, err = r.output.Write(data)
		return err
	}

	switch format {
	case formatter.FormatMarkdown:
		result, err := formatter.WriteMarkdownExport(export, output, func(err error) {
			r.logger.Warn("cover image skipped", "error", err)
		})
		if err != nil {
			return err
		}
		for _, f := range result.Files {
			r.writePlain("✓ %s\n", f)
		}
	case formatter.FormatCSV:
		result, err := formatter.WriteCSVExport(export, strings.TrimSuffix(output, ".csv"))
		if err != nil {
			return err
		}
		r.writePlain("✓ %s\n✓ %s\n", result.TracksFile, result.MetadataFile)
	default:
		path, err := formatter.WriteExport(export, format, output)
		if err != nil {
			return err
		}
		r.writePlain("✓ %s\n", path)
	}
	return nil
}

// TrackShow prints a track with its audio features.
func (r *Runner) TrackShow(ctx context.Context, cmd *cli.Command) error {
	id := cmd.StringArg("id")
	if id == "" {
		return fmt.Errorf("%w: track ID", shared.ErrMissingArgument)
	}
	creds, err := r.credentials(ctx, cmd)
	if err != nil {
		return err
	}

	track, err := r.backend.GetTrack(ctx, id, creds)
	if err != nil {
		return err
	}
	features, err := r.backend.GetTrackAudioFeatures(ctx, id, creds)
	if err != nil {
		r.logger.Warn("audio features unavailable", "track", id, "error", err)
	}

	if cmd.Bool("json") {
		return r.writeJSON(struct {
			Track    *models.Track         `json:"track"`
			Features *models.AudioFeatures `json:"audio_features,omitempty"`
		}{track, features}, true)
	}

	r.writePlainHeader(track.Name)
	r.writePlain("Artists:  %s\n", track.ArtistNames())
	r.writePlain("Album:    %s\n", track.Album.Name)
	r.writePlain("Duration: %s\n", shared.FormatDuration(track.DurationMs))
	if track.Popularity != nil {
		r.writePlain("Popularity: %d\n", *track.Popularity)
	}
	if features != nil {
		r.writePlainln("Key %s, %d/4", features.KeyName(), features.TimeSignature)
		r.writePlain("%s", formatter.RadarBars(charts.FeatureRadar(*features), 30))
	}
	return nil
}

// FavoritesList prints favorite playlists.
func (r *Runner) FavoritesList(ctx context.Context, cmd *cli.Command) error {
	creds, err := r.requireAuth(ctx, cmd)
	if err != nil {
		return err
	}

	favs, err := r.backend.ListFavorites(ctx, creds)
	if err != nil {
		return err
	}

	if column := cmd.String("sort"); column != "" {
		if favs, err = tables.SortFavorites(favs, column, tables.ParseDirection(cmd.String("dir"))); err != nil {
			return fmt.Errorf("%w (columns: %s)", err, strings.Join(tables.FavoriteColumns, ", "))
		}
	}

	if cmd.Bool("json") {
		return r.writeJSON(favs, true)
	}

	if len(favs) == 0 {
		return r.writePlain("No favorite playlists yet.\n")
	}
	return r.writePlain("%s\n", formatter.FavoritesTable(favs))
}

// FavoritesAdd looks the playlist up and saves it as a favorite.
func (r *Runner) FavoritesAdd(ctx context.Context, cmd *cli.Command) error {
	id, err := playlistArg(cmd)
	if err != nil {
		return err
	}
	creds, err := r.requireAuth(ctx, cmd)
	if err != nil {
		return err
	}

	playlist, err := r.backend.GetPlaylist(ctx, id, creds)
	if err != nil {
		return err
	}

	fav, err := r.backend.AddFavorite(ctx, models.FavoriteFromPlaylist(*playlist), creds)
	if err != nil {
		return err
	}
	return r.writePlain("★ Added %s\n", fav.Name)
}

// FavoritesRemove deletes a favorite by playlist URL or ID.
func (r *Runner) FavoritesRemove(ctx context.Context, cmd *cli.Command) error {
	id, err := playlistArg(cmd)
	if err != nil {
		return err
	}
	creds, err := r.requireAuth(ctx, cmd)
	if err != nil {
		return err
	}

	if err := r.backend.RemoveFavorite(ctx, id, creds); err != nil {
		return err
	}
	return r.writePlain("✓ Removed %s\n", id)
}

// FavoritesExport writes every favorite playlist with the bulk exporter, printing progress as it goes.
func (r *Runner) FavoritesExport(ctx context.Context, cmd *cli.Command) error {
	format, err := formatter.ParseFormat(cmd.String("format"))
	if err != nil {
		return err
	}
	creds, err := r.requireAuth(ctx, cmd)
	if err != nil {
		return err
	}

	favs, err := r.backend.ListFavorites(ctx, creds)
	if err != nil {
		return err
	}
	if len(favs) == 0 {
		return r.writePlain("No favorite playlists to export.\n")
	}

	ids := make([]string, len(favs))
	for i, f := range favs {
		ids[i] = f.PlaylistID
	}

	progress := make(chan tasks.ProgressUpdate, len(ids)*3+1)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for update := range progress {
			r.writePlain("%s\n", update.Message)
		}
	}()

	result, err := tasks.NewExporter(r.backend, creds, r.logger).BulkExport(ctx, progress, ids, tasks.BulkExportOpts{
		Format:     format,
		OutputDir:  cmd.String("output"),
		NumWorkers: cmd.Int("workers"),
		RateLimit:  cmd.Float("rate"),
		Features:   cmd.Bool("features"),
	})
	close(progress)
	<-done
	if err != nil {
		return err
	}

	r.writePlainln("Exported %d of %d playlists to %s", result.SuccessfulExports, result.TotalPlaylists, result.OutputDirectory)
	if result.FailedExports > 0 {
		return fmt.Errorf("%w: %d playlists failed, see %s", shared.ErrAPIRequest, result.FailedExports, result.ManifestPath)
	}
	return nil
}
