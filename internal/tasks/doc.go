// Package tasks converts spreadsheets of track links into video links with real-time progress reporting.
//
// # Conversion
//
// [ConvertEngine.Run] processes links strictly in order: extract the track ID, resolve it to a
// title/artist pair, search "{title} {artist}" and record the first video. One row finishes before
// the next starts. A failed row gets an empty cell and a typed error on its [RowResult]; it never
// aborts the batch.
//
// [ConvertEngine.ConvertFile] wraps Run with the spreadsheet boundary: the links come from the
// first column of the input and the output is the input plus one column.
//
// # Rate limiting
//
// Rows that reach the network wait on a [rate.Limiter]. Cached rows do not.
//
// # Link cache
//
// The optional [LinkCache] (repositories.LinkCacheAdapter) short-circuits rows whose track was
// already matched in an earlier run. Cache errors are logged and otherwise ignored.
//
// # Progress Reporting
//
// [ProgressUpdate]s are sent with select/default so a slow or absent reader never blocks a run.
package tasks
