// Package tasks runs long playlist jobs with progress reporting.
//
// [Exporter.BulkExport] fetches a set of playlists through the backend and writes each one in a [formatter.Format]
// using a small worker pool. Backend fetches go through a [rate.Limiter] so a large favorites list does not flood
// the backend; writes run concurrently. A failed playlist is recorded in the result and the export carries on.
//
// # Progress Reporting
//
// Progress is sent on an optional channel as [ProgressUpdate] values. Sends use select with default, so a slow or
// absent reader never blocks the export.
//
// When the export finishes an export_manifest.json summarizing every playlist is written to the output directory.
package tasks
