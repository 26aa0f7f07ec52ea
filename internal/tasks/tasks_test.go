package tasks

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/desertthunder/ytlinks/internal/models"
	"github.com/desertthunder/ytlinks/internal/services"
	"github.com/desertthunder/ytlinks/internal/shared"
	tu "github.com/desertthunder/ytlinks/internal/testing"
)

const (
	linkA = "https://open.spotify.com/track/aaa?si=1"
	linkB = "https://open.spotify.com/track/bbb"
	linkC = "spotify:track:ccc"
)

func fixtures() (*tu.MockResolver, *tu.MockSearcher) {
	resolver := &tu.MockResolver{
		Tracks: map[string]*services.TrackInfo{
			"aaa": {ID: "aaa", Title: "Song A", Artist: "Artist A"},
			"bbb": {ID: "bbb", Title: "Song B", Artist: "Artist B"},
			"ccc": {ID: "ccc", Title: "Song C", Artist: "Artist C"},
		},
	}
	searcher := &tu.MockSearcher{
		Results: map[string]string{
			"Song A Artist A": "https://www.youtube.com/watch?v=va",
			"Song B Artist B": "https://www.youtube.com/watch?v=vb",
			"Song C Artist C": "https://www.youtube.com/watch?v=vc",
		},
	}
	return resolver, searcher
}

func newTestEngine(resolver services.TrackResolver, searcher services.VideoSearcher, cache LinkCache) *ConvertEngine {
	return NewConvertEngine(resolver, searcher, EngineOpts{Cache: cache, Logger: shared.NewLogger(io.Discard)})
}

func TestConvertEngine_Run(t *testing.T) {
	ctx := context.Background()

	t.Run("converts every row in order", func(t *testing.T) {
		resolver, searcher := fixtures()
		engine := newTestEngine(resolver, searcher, nil)

		result, err := engine.Run(ctx, nil, []string{linkA, linkB, linkC})
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		if result.Total != 3 || result.SuccessCount != 3 || result.FailedCount != 0 {
			t.Errorf("unexpected counts: %+v", result)
		}
		if result.MatchPercentage != 100 {
			t.Errorf("expected 100%% match, got %v", result.MatchPercentage)
		}
		if !reflect.DeepEqual(resolver.Calls, []string{"aaa", "bbb", "ccc"}) {
			t.Errorf("expected sequential resolution, got %v", resolver.Calls)
		}
		if !reflect.DeepEqual(searcher.Queries, []string{"Song A Artist A", "Song B Artist B", "Song C Artist C"}) {
			t.Errorf("unexpected queries: %v", searcher.Queries)
		}

		want := []string{
			"https://www.youtube.com/watch?v=va",
			"https://www.youtube.com/watch?v=vb",
			"https://www.youtube.com/watch?v=vc",
		}
		if got := result.Links(); !reflect.DeepEqual(got, want) {
			t.Errorf("expected links %v, got %v", want, got)
		}
	})

	t.Run("row failures do not stop the run", func(t *testing.T) {
		resolver, searcher := fixtures()
		resolver.Errs = map[string]error{"bbb": shared.ErrAuthRefreshFailed}
		searcher.Errs = map[string]error{"Song C Artist C": shared.ErrSearchFailed}
		delete(searcher.Results, "Song A Artist A")

		engine := newTestEngine(resolver, searcher, nil)
		links := []string{linkA, linkB, "", linkC, "https://open.spotify.com/track/missing"}

		result, err := engine.Run(ctx, nil, links)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		if result.SuccessCount != 0 || result.FailedCount != 5 {
			t.Errorf("expected 5 failures, got %+v", result)
		}
		if got := result.Links(); !reflect.DeepEqual(got, make([]string, 5)) {
			t.Errorf("expected all cells empty, got %v", got)
		}

		wantKinds := []string{"no_video_found", "auth_refresh_failed", "invalid_input", "search_failed", "lookup_http_error"}
		for i, row := range result.Rows {
			if row.Row != i {
				t.Errorf("expected row %d, got %d", i, row.Row)
			}
			if got := shared.FailureKind(row.Err); got != wantKinds[i] {
				t.Errorf("row %d: expected %s, got %s (%v)", i, wantKinds[i], got, row.Err)
			}
		}
	})

	t.Run("lookup status is kept on the row error", func(t *testing.T) {
		resolver, searcher := fixtures()
		engine := newTestEngine(resolver, searcher, nil)

		result, _ := engine.Run(ctx, nil, []string{"unknown"})
		if code := shared.StatusCode(result.Rows[0].Err); code != 404 {
			t.Errorf("expected status 404, got %d", code)
		}
	})

	t.Run("cache hits skip network calls", func(t *testing.T) {
		resolver, searcher := fixtures()
		cache := tu.NewMemoryLinkCache(
			models.NewResolvedLink("aaa", "Cached A", "Artist A", "", "https://www.youtube.com/watch?v=cached"),
		)
		engine := newTestEngine(resolver, searcher, cache)

		result, err := engine.Run(ctx, nil, []string{linkA, linkB})
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		if !reflect.DeepEqual(resolver.Calls, []string{"bbb"}) {
			t.Errorf("expected only bbb to be resolved, got %v", resolver.Calls)
		}
		if !result.Rows[0].Cached || result.Rows[0].VideoURL != "https://www.youtube.com/watch?v=cached" {
			t.Errorf("expected cached row, got %+v", result.Rows[0])
		}
		if result.Rows[0].Track.Title != "Cached A" {
			t.Errorf("expected cached title, got %s", result.Rows[0].Track.Title)
		}
		if result.CachedCount != 1 || result.SuccessCount != 2 {
			t.Errorf("unexpected counts: %+v", result)
		}
		if saved := cache.Get("bbb"); saved == nil || saved.VideoURL() != "https://www.youtube.com/watch?v=vb" {
			t.Errorf("expected bbb to be cached, got %+v", saved)
		}
	})

	t.Run("cached entries without a video are retried", func(t *testing.T) {
		resolver, searcher := fixtures()
		cache := tu.NewMemoryLinkCache(models.NewResolvedLink("aaa", "Song A", "Artist A", "", ""))
		engine := newTestEngine(resolver, searcher, cache)

		result, _ := engine.Run(ctx, nil, []string{linkA})
		if result.Rows[0].Cached {
			t.Error("expected a fresh lookup")
		}
		if len(resolver.Calls) != 1 {
			t.Errorf("expected one resolve call, got %d", len(resolver.Calls))
		}
	})

	t.Run("cache errors are ignored", func(t *testing.T) {
		resolver, searcher := fixtures()
		cache := tu.NewMemoryLinkCache()
		cache.LookupErr = errors.New("disk gone")
		cache.SaveErr = errors.New("disk gone")
		engine := newTestEngine(resolver, searcher, cache)

		result, err := engine.Run(ctx, nil, []string{linkA})
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if result.SuccessCount != 1 {
			t.Errorf("expected success despite cache errors, got %+v", result)
		}
		if cache.Saves != 1 {
			t.Errorf("expected one save attempt, got %d", cache.Saves)
		}
	})

	t.Run("cancelled context returns partial result", func(t *testing.T) {
		resolver, searcher := fixtures()
		engine := newTestEngine(resolver, searcher, nil)

		cctx, cancel := context.WithCancel(ctx)
		cancel()

		result, err := engine.Run(cctx, nil, []string{linkA, linkB})
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("expected context.Canceled, got %v", err)
		}
		if result == nil || result.Total != 2 || len(result.Rows) != 0 {
			t.Errorf("expected empty partial result, got %+v", result)
		}
		if len(resolver.Calls) != 0 {
			t.Errorf("expected no lookups, got %v", resolver.Calls)
		}
	})

	t.Run("rows interrupted mid-lookup are reported as cancelled", func(t *testing.T) {
		resolver, searcher := fixtures()
		resolver.Errs = map[string]error{"bbb": fmt.Errorf("%w: %w", shared.ErrLookupTransport, context.DeadlineExceeded)}
		searcher.Errs = map[string]error{"Song C Artist C": context.Canceled}
		engine := newTestEngine(resolver, searcher, nil)

		result, err := engine.Run(ctx, nil, []string{linkA, linkB, linkC})
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		failures := result.Failures()
		if got := len(failures["cancelled"]); got != 2 {
			t.Errorf("expected 2 cancelled rows, got %d (%v)", got, failures)
		}
		if _, ok := failures["unknown"]; ok {
			t.Errorf("expected no unknown failures, got %v", failures["unknown"])
		}
	})

	t.Run("missing services", func(t *testing.T) {
		engine := newTestEngine(nil, nil, nil)
		if _, err := engine.Run(ctx, nil, []string{linkA}); !errors.Is(err, shared.ErrServiceUnavailable) {
			t.Errorf("expected ErrServiceUnavailable, got %v", err)
		}
	})

	t.Run("sends progress updates", func(t *testing.T) {
		resolver, searcher := fixtures()
		engine := newTestEngine(resolver, searcher, nil)

		progress := make(chan ProgressUpdate, 10)
		if _, err := engine.Run(ctx, progress, []string{linkA, ""}); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		close(progress)

		var updates []ProgressUpdate
		for u := range progress {
			updates = append(updates, u)
		}
		if len(updates) != 3 {
			t.Fatalf("expected 3 updates, got %d", len(updates))
		}
		if updates[0].Phase != ConvertRows || updates[0].Total != 2 {
			t.Errorf("unexpected start update: %+v", updates[0])
		}
		if !strings.Contains(updates[1].Message, "Artist A - Song A") {
			t.Errorf("unexpected row message: %s", updates[1].Message)
		}
		if !strings.Contains(updates[2].Message, "invalid_input") {
			t.Errorf("expected failure kind in message, got %s", updates[2].Message)
		}
		if row, ok := updates[2].Data.(RowResult); !ok || row.Row != 1 {
			t.Errorf("expected RowResult data, got %#v", updates[2].Data)
		}
	})

	t.Run("full progress channel does not block", func(t *testing.T) {
		resolver, searcher := fixtures()
		engine := newTestEngine(resolver, searcher, nil)

		progress := make(chan ProgressUpdate)
		if _, err := engine.Run(ctx, progress, []string{linkA, linkB}); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
	})
}

func TestConvertResult(t *testing.T) {
	t.Run("Failures groups by kind", func(t *testing.T) {
		r := &ConvertResult{Total: 4}
		r.add(RowResult{Row: 0, VideoURL: "v"})
		r.add(RowResult{Row: 1, Err: shared.ErrNoVideoFound})
		r.add(RowResult{Row: 2, Err: shared.ErrAuthUnavailable})
		r.add(RowResult{Row: 3, Err: shared.ErrNoVideoFound})

		failures := r.Failures()
		if len(failures["no_video_found"]) != 2 || len(failures["auth_unavailable"]) != 1 {
			t.Errorf("unexpected grouping: %v", failures)
		}
		if r.MatchPercentage != 25 {
			t.Errorf("expected 25%% match, got %v", r.MatchPercentage)
		}
	})

	t.Run("Links pads unprocessed rows", func(t *testing.T) {
		r := &ConvertResult{Total: 3}
		r.add(RowResult{Row: 0, VideoURL: "v"})
		if got := r.Links(); !reflect.DeepEqual(got, []string{"v", "", ""}) {
			t.Errorf("unexpected links: %v", got)
		}
	})
}

func TestPhase(t *testing.T) {
	tests := []struct {
		phase Phase
		want  string
	}{
		{ReadSheet, "read_sheet"},
		{ConvertRows, "convert_rows"},
		{WriteSheet, "write_sheet"},
		{Phase(99), ""},
	}
	for _, tt := range tests {
		if got := tt.phase.String(); got != tt.want {
			t.Errorf("Phase(%d).String() = %q, want %q", tt.phase, got, tt.want)
		}
	}
}

func TestConvertEngine_ConvertFile(t *testing.T) {
	ctx := context.Background()

	writeInput := func(t *testing.T, dir string) string {
		t.Helper()
		path := filepath.Join(dir, "links.csv")
		content := "Spotify Link\n" + linkA + "\nnot a link/\n" + linkB + "\n"
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			t.Fatalf("failed to write input: %v", err)
		}
		return path
	}

	t.Run("appends the video column", func(t *testing.T) {
		dir := t.TempDir()
		input := writeInput(t, dir)
		output := filepath.Join(dir, "out.csv")

		resolver, searcher := fixtures()
		engine := newTestEngine(resolver, searcher, nil)

		result, err := engine.ConvertFile(ctx, nil, ConvertOpts{Input: input, Output: output})
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if result.Output != output || result.Input != input {
			t.Errorf("unexpected paths on result: %+v", result)
		}
		if result.SuccessCount != 2 || result.FailedCount != 1 {
			t.Errorf("unexpected counts: %+v", result)
		}

		got := tu.MustReadFile(t, output)
		want := "Spotify Link,YouTube Link\n" +
			linkA + ",https://www.youtube.com/watch?v=va\n" +
			"not a link/,\n" +
			linkB + ",https://www.youtube.com/watch?v=vb\n"
		if got != want {
			t.Errorf("unexpected output:\n%s\nwant:\n%s", got, want)
		}
	})

	t.Run("custom column name and xlsx output", func(t *testing.T) {
		dir := t.TempDir()
		input := writeInput(t, dir)
		output := filepath.Join(dir, "out.xlsx")

		resolver, searcher := fixtures()
		engine := newTestEngine(resolver, searcher, nil)

		if _, err := engine.ConvertFile(ctx, nil, ConvertOpts{Input: input, Output: output, Column: "Video"}); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		tu.AssertFileExists(t, output)
	})

	t.Run("defaults the output path", func(t *testing.T) {
		dir := t.TempDir()
		input := writeInput(t, dir)

		wd := tu.MustGetwd(t)
		tu.MustChdir(t, dir)
		defer tu.MustChdir(t, wd)

		resolver, searcher := fixtures()
		engine := newTestEngine(resolver, searcher, nil)

		result, err := engine.ConvertFile(ctx, nil, ConvertOpts{Input: input})
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if result.Output != DefaultOutput {
			t.Errorf("expected %s, got %s", DefaultOutput, result.Output)
		}
		tu.AssertFileExists(t, filepath.Join(dir, DefaultOutput))
	})

	t.Run("missing input is fatal", func(t *testing.T) {
		resolver, searcher := fixtures()
		engine := newTestEngine(resolver, searcher, nil)

		result, err := engine.ConvertFile(ctx, nil, ConvertOpts{Input: filepath.Join(t.TempDir(), "nope.csv")})
		if err == nil {
			t.Fatal("expected error for missing input")
		}
		if result != nil {
			t.Errorf("expected no result, got %+v", result)
		}
		if len(resolver.Calls) != 0 {
			t.Error("expected no lookups")
		}
	})

	t.Run("unsupported output", func(t *testing.T) {
		dir := t.TempDir()
		input := writeInput(t, dir)

		resolver, searcher := fixtures()
		engine := newTestEngine(resolver, searcher, nil)

		result, err := engine.ConvertFile(ctx, nil, ConvertOpts{Input: input, Output: filepath.Join(dir, "out.txt")})
		if !errors.Is(err, shared.ErrUnsupportedFile) {
			t.Errorf("expected ErrUnsupportedFile, got %v", err)
		}
		if result == nil || result.SuccessCount != 2 {
			t.Errorf("expected result despite write failure, got %+v", result)
		}
	})
}
