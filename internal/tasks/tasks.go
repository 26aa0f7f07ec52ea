// package tasks implements the spreadsheet conversion loop.
//
// The core abstraction is ConvertEngine, which resolves each track link, searches for a video
// and records the outcome, one row at a time. Operations emit progress updates via channels for
// non-blocking status reporting to CLI/UI layers.
package tasks

import (
	"context"
	"fmt"
	"math"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/ytlinks/internal/models"
	"github.com/desertthunder/ytlinks/internal/services"
	"github.com/desertthunder/ytlinks/internal/shared"
	"github.com/desertthunder/ytlinks/internal/sheet"
	"golang.org/x/time/rate"
)

const (
	DefaultOutput = "youtube.xlsx"
	DefaultColumn = "YouTube Link"
)

// RowResult is the outcome of converting one input row.
type RowResult struct {
	Row      int                 // Zero-based data row index
	Link     string              // Input cell
	TrackID  string              // Extracted track ID
	Track    *services.TrackInfo // Resolved track (nil if resolution failed)
	VideoURL string              // First video found ("" on failure)
	Cached   bool                // Served from the link cache
	Err      error               // Why the row has no video
}

// ConvertResult contains all data from a conversion.
type ConvertResult struct {
	Input           string
	Output          string
	Rows            []RowResult
	Total           int     // Rows in the input
	SuccessCount    int     // Rows with a video link
	FailedCount     int     // Processed rows without a video link
	CachedCount     int     // Successful rows served from cache
	MatchPercentage float64 // SuccessCount as a percentage of Total
}

func (r *ConvertResult) add(row RowResult) {
	r.Rows = append(r.Rows, row)
	if row.Err != nil {
		r.FailedCount++
		return
	}
	r.SuccessCount++
	if row.Cached {
		r.CachedCount++
	}
	if r.Total > 0 {
		r.MatchPercentage = math.Round(float64(r.SuccessCount)/float64(r.Total)*1000) / 10
	}
}

// Links returns one output cell per input row, empty where no video was found or the row was not processed.
func (r *ConvertResult) Links() []string {
	links := make([]string, r.Total)
	for _, row := range r.Rows {
		if row.Row < len(links) {
			links[row.Row] = row.VideoURL
		}
	}
	return links
}

// Failures groups failed rows by [shared.FailureKind].
func (r *ConvertResult) Failures() map[string][]RowResult {
	failures := make(map[string][]RowResult)
	for _, row := range r.Rows {
		if row.Err != nil {
			kind := shared.FailureKind(row.Err)
			failures[kind] = append(failures[kind], row)
		}
	}
	return failures
}

// LinkCache persists resolved links between runs.
type LinkCache interface {
	// Lookup returns the cached link for trackID, or nil on a miss.
	Lookup(trackID string) (*models.ResolvedLink, error)

	// Save stores the resolution of trackID.
	Save(trackID, title, artist, album, videoURL string) error
}

// EngineOpts contains optional configuration for a [ConvertEngine].
type EngineOpts struct {
	Cache     LinkCache   // nil disables caching
	RateLimit float64     // Upstream rows per second; <= 0 is unlimited
	Logger    *log.Logger // defaults to stderr
}

// ConvertEngine converts track links to video links, strictly one row at a time.
type ConvertEngine struct {
	resolver services.TrackResolver
	searcher services.VideoSearcher
	cache    LinkCache
	limiter  *rate.Limiter
	logger   *log.Logger
}

// NewConvertEngine creates a new ConvertEngine with the provided services.
func NewConvertEngine(resolver services.TrackResolver, searcher services.VideoSearcher, opts EngineOpts) *ConvertEngine {
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}

	limit := rate.Inf
	if opts.RateLimit > 0 {
		limit = rate.Limit(opts.RateLimit)
	}

	return &ConvertEngine{
		resolver: resolver,
		searcher: searcher,
		cache:    opts.Cache,
		limiter:  rate.NewLimiter(limit, 1),
		logger:   shared.WithLogger(opts.Logger, "component", "convert"),
	}
}

// sendProgress sends a progress update through the channel without blocking.
func (e *ConvertEngine) sendProgress(progress chan<- ProgressUpdate, update ProgressUpdate) {
	if progress == nil {
		return
	}
	select {
	case progress <- update:
	default:
	}
}

// Run converts links in order.
//
// Per-row failures are recorded on the row and never stop the run. The only error returned is
// the context's, alongside the rows converted so far.
func (e *ConvertEngine) Run(ctx context.Context, progress chan<- ProgressUpdate, links []string) (*ConvertResult, error) {
	if e.resolver == nil || e.searcher == nil {
		return nil, fmt.Errorf("%w: conversion services not initialized", shared.ErrServiceUnavailable)
	}

	total := len(links)
	result := &ConvertResult{Total: total, Rows: make([]RowResult, 0, total)}
	e.sendProgress(progress, convertStartUpdate(total))

	for i, link := range links {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		row := e.convertRow(ctx, i, link)
		if row.Err != nil {
			e.logger.Warn("row failed", "row", i+1, "link", link, "kind", shared.FailureKind(row.Err), "err", row.Err)
		}
		result.add(row)
		e.sendProgress(progress, rowDoneUpdate(i+1, total, row))
	}

	e.logger.Info("conversion finished", "total", total, "matched", result.SuccessCount, "failed", result.FailedCount)
	return result, nil
}

func (e *ConvertEngine) convertRow(ctx context.Context, i int, link string) RowResult {
	row := RowResult{Row: i, Link: link}

	id, err := services.TrackIDFromLink(link)
	if err != nil {
		row.Err = err
		return row
	}
	row.TrackID = id

	if cached := e.lookup(id); cached != nil {
		row.Track = &services.TrackInfo{ID: id, Title: cached.Title(), Artist: cached.Artist(), Album: cached.Album()}
		row.VideoURL = cached.VideoURL()
		row.Cached = true
		return row
	}

	if err := e.limiter.Wait(ctx); err != nil {
		row.Err = err
		return row
	}

	info, err := e.resolver.Resolve(ctx, id)
	if err != nil {
		row.Err = err
		return row
	}
	row.Track = info

	query := info.SearchQuery()
	videoURL, err := e.searcher.Search(ctx, query)
	if err != nil {
		row.Err = err
		return row
	}

	e.save(id, info, videoURL)
	if videoURL == "" {
		row.Err = fmt.Errorf("%w: %q on %s", shared.ErrNoVideoFound, query, e.searcher.Name())
		return row
	}

	row.VideoURL = videoURL
	return row
}

// lookup returns a cache hit that carries a video URL, or nil.
func (e *ConvertEngine) lookup(trackID string) *models.ResolvedLink {
	if e.cache == nil {
		return nil
	}
	cached, err := e.cache.Lookup(trackID)
	if err != nil {
		e.logger.Warn("cache lookup failed", "track", trackID, "err", err)
		return nil
	}
	if cached == nil || cached.VideoURL() == "" {
		return nil
	}
	return cached
}

func (e *ConvertEngine) save(trackID string, info *services.TrackInfo, videoURL string) {
	if e.cache == nil {
		return
	}
	if err := e.cache.Save(trackID, info.Title, info.Artist, info.Album, videoURL); err != nil {
		e.logger.Warn("failed to cache link", "track", trackID, "err", err)
	}
}

// ConvertOpts describes a spreadsheet conversion.
type ConvertOpts struct {
	Input  string // Spreadsheet with links in the first column
	Output string // Defaults to [DefaultOutput]
	Sheet  string // Sheet to read; first sheet when empty
	Column string // Header of the added column; defaults to [DefaultColumn]
}

// ConvertFile reads opts.Input, converts its first column and writes the sheet with an added
// video-link column to opts.Output.
//
// Failing to read the input is fatal. When the context is cancelled mid-run the partial sheet
// is still written and the context error returned.
func (e *ConvertEngine) ConvertFile(ctx context.Context, progress chan<- ProgressUpdate, opts ConvertOpts) (*ConvertResult, error) {
	if opts.Output == "" {
		opts.Output = DefaultOutput
	}
	if opts.Column == "" {
		opts.Column = DefaultColumn
	}

	e.sendProgress(progress, readSheetUpdate(opts.Input))
	s, err := sheet.Read(opts.Input, opts.Sheet)
	if err != nil {
		return nil, fmt.Errorf("failed to read input spreadsheet: %w", err)
	}

	result, runErr := e.Run(ctx, progress, s.Column(0))
	if result == nil {
		return nil, runErr
	}
	result.Input = opts.Input
	result.Output = opts.Output

	s.AddColumn(opts.Column, result.Links())

	e.sendProgress(progress, writeSheetUpdate(opts.Output))
	if err := sheet.Write(opts.Output, s); err != nil {
		return result, fmt.Errorf("failed to write output spreadsheet: %w", err)
	}

	return result, runErr
}
