package services

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/desertthunder/ytlinks/internal/auth"
	"github.com/desertthunder/ytlinks/internal/shared"
	"golang.org/x/oauth2"
)

const songA = `{"id":"abc","name":"Song A","artists":[{"name":"Artist A"},{"name":"Artist B"}],"album":{"name":"Album A"}}`

// fakeTokens hands out tok-1, tok-2, ... on each Renew, or renewErrs in order when set.
type fakeTokens struct {
	cached    *oauth2.Token
	renews    int
	renewErrs []error
}

func (f *fakeTokens) Cached() *oauth2.Token { return f.cached }

func (f *fakeTokens) Renew(ctx context.Context) (*oauth2.Token, error) {
	f.renews++
	if len(f.renewErrs) >= f.renews && f.renewErrs[f.renews-1] != nil {
		f.cached = nil
		return nil, f.renewErrs[f.renews-1]
	}
	f.cached = &oauth2.Token{AccessToken: "tok-" + string(rune('0'+f.renews))}
	return f.cached, nil
}

// lookupServer answers each /tracks request with the next step (the last one repeats).
type lookupStep struct {
	status int
	body   string
}

func lookupServer(t *testing.T, calls *atomic.Int32, tokens *[]string, steps ...lookupStep) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := int(calls.Add(1)) - 1
		if r.URL.Path != "/tracks/abc" {
			t.Errorf("expected path /tracks/abc, got %s", r.URL.Path)
		}
		if tokens != nil {
			*tokens = append(*tokens, r.Header.Get("Authorization"))
		}
		if n >= len(steps) {
			n = len(steps) - 1
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(steps[n].status)
		io.WriteString(w, steps[n].body)
	}))
	t.Cleanup(server.Close)
	return server
}

func newTestResolver(tokens TokenProvider, url string) *SpotifyResolver {
	return NewSpotifyResolver(tokens, SpotifyResolverOpts{BaseURL: url, Logger: shared.NewLogger(io.Discard)})
}

func TestSpotifyResolver(t *testing.T) {
	ctx := context.Background()

	t.Run("Name", func(t *testing.T) {
		if name := newTestResolver(&fakeTokens{}, "").Name(); name != "Spotify" {
			t.Errorf("expected 'Spotify', got %s", name)
		}
	})

	t.Run("Success with cached token", func(t *testing.T) {
		var calls atomic.Int32
		var seen []string
		server := lookupServer(t, &calls, &seen, lookupStep{http.StatusOK, songA})
		tokens := &fakeTokens{cached: &oauth2.Token{AccessToken: "cached"}}

		info, err := newTestResolver(tokens, server.URL).Resolve(ctx, "abc")
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		want := TrackInfo{ID: "abc", Title: "Song A", Artist: "Artist A", Album: "Album A"}
		if *info != want {
			t.Errorf("expected %+v, got %+v", want, *info)
		}
		if tokens.renews != 0 {
			t.Errorf("expected no renewals, got %d", tokens.renews)
		}
		if len(seen) != 1 || seen[0] != "Bearer cached" {
			t.Errorf("expected cached bearer token, got %v", seen)
		}
	})

	t.Run("No cached token renews first", func(t *testing.T) {
		var calls atomic.Int32
		var seen []string
		server := lookupServer(t, &calls, &seen, lookupStep{http.StatusOK, songA})
		tokens := &fakeTokens{}

		if _, err := newTestResolver(tokens, server.URL).Resolve(ctx, "abc"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if tokens.renews != 1 {
			t.Errorf("expected one renewal, got %d", tokens.renews)
		}
		if seen[0] != "Bearer tok-1" {
			t.Errorf("expected renewed token, got %s", seen[0])
		}
	})

	t.Run("No cached token and renewal fails", func(t *testing.T) {
		var calls atomic.Int32
		server := lookupServer(t, &calls, nil, lookupStep{http.StatusOK, songA})
		tokens := &fakeTokens{renewErrs: []error{shared.ErrAuthExchange}}

		_, err := newTestResolver(tokens, server.URL).Resolve(ctx, "abc")
		if !errors.Is(err, shared.ErrAuthUnavailable) {
			t.Fatalf("expected ErrAuthUnavailable, got %v", err)
		}
		if calls.Load() != 0 {
			t.Errorf("expected no lookup calls, got %d", calls.Load())
		}
	})

	t.Run("401 then success after one renewal", func(t *testing.T) {
		var calls atomic.Int32
		var seen []string
		server := lookupServer(t, &calls, &seen,
			lookupStep{http.StatusUnauthorized, `{"error":{"status":401}}`},
			lookupStep{http.StatusOK, songA},
		)
		tokens := &fakeTokens{cached: &oauth2.Token{AccessToken: "stale"}}

		info, err := newTestResolver(tokens, server.URL).Resolve(ctx, "abc")
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if info.Title != "Song A" || info.Artist != "Artist A" {
			t.Errorf("unexpected track info %+v", info)
		}
		if calls.Load() != 2 {
			t.Errorf("expected 2 lookup calls, got %d", calls.Load())
		}
		if tokens.renews != 1 {
			t.Errorf("expected 1 renewal, got %d", tokens.renews)
		}
		if seen[0] != "Bearer stale" || seen[1] != "Bearer tok-1" {
			t.Errorf("expected stale then renewed token, got %v", seen)
		}
	})

	t.Run("401 twice stops after one retry", func(t *testing.T) {
		var calls atomic.Int32
		server := lookupServer(t, &calls, nil, lookupStep{http.StatusUnauthorized, `{}`})
		tokens := &fakeTokens{cached: &oauth2.Token{AccessToken: "stale"}}

		_, err := newTestResolver(tokens, server.URL).Resolve(ctx, "abc")
		if !errors.Is(err, shared.ErrLookupFailedAfterRefresh) {
			t.Fatalf("expected ErrLookupFailedAfterRefresh, got %v", err)
		}
		if calls.Load() != 2 {
			t.Errorf("expected exactly 2 lookup calls, got %d", calls.Load())
		}
		if tokens.renews != 1 {
			t.Errorf("expected exactly 1 renewal, got %d", tokens.renews)
		}
	})

	t.Run("401 then renewal fails", func(t *testing.T) {
		var calls atomic.Int32
		server := lookupServer(t, &calls, nil, lookupStep{http.StatusUnauthorized, `{}`})
		tokens := &fakeTokens{
			cached:    &oauth2.Token{AccessToken: "stale"},
			renewErrs: []error{shared.ErrAuthExchange},
		}

		_, err := newTestResolver(tokens, server.URL).Resolve(ctx, "abc")
		if !errors.Is(err, shared.ErrAuthRefreshFailed) {
			t.Fatalf("expected ErrAuthRefreshFailed, got %v", err)
		}
		if calls.Load() != 1 {
			t.Errorf("expected 1 lookup call, got %d", calls.Load())
		}
	})

	t.Run("401 then other failure after refresh", func(t *testing.T) {
		tc := []struct {
			name  string
			retry lookupStep
		}{
			{name: "server error", retry: lookupStep{http.StatusInternalServerError, `{}`}},
			{name: "malformed body", retry: lookupStep{http.StatusOK, `{"name":"Song A","artists":[]}`}},
		}

		for _, tt := range tc {
			t.Run(tt.name, func(t *testing.T) {
				var calls atomic.Int32
				server := lookupServer(t, &calls, nil, lookupStep{http.StatusUnauthorized, `{}`}, tt.retry)
				tokens := &fakeTokens{cached: &oauth2.Token{AccessToken: "stale"}}

				_, err := newTestResolver(tokens, server.URL).Resolve(ctx, "abc")
				if !errors.Is(err, shared.ErrLookupFailedAfterRefresh) {
					t.Fatalf("expected ErrLookupFailedAfterRefresh, got %v", err)
				}
				if calls.Load() != 2 {
					t.Errorf("expected 2 lookup calls, got %d", calls.Load())
				}
			})
		}
	})

	t.Run("Non-401 error status does not retry", func(t *testing.T) {
		for _, status := range []int{http.StatusForbidden, http.StatusNotFound, http.StatusTooManyRequests, http.StatusInternalServerError} {
			t.Run(http.StatusText(status), func(t *testing.T) {
				var calls atomic.Int32
				server := lookupServer(t, &calls, nil, lookupStep{status, `{}`})
				tokens := &fakeTokens{cached: &oauth2.Token{AccessToken: "cached"}}

				_, err := newTestResolver(tokens, server.URL).Resolve(ctx, "abc")
				if !errors.Is(err, shared.ErrLookupHTTP) {
					t.Fatalf("expected ErrLookupHTTP, got %v", err)
				}
				if code := shared.StatusCode(err); code != status {
					t.Errorf("expected status %d, got %d", status, code)
				}
				if calls.Load() != 1 {
					t.Errorf("expected 1 lookup call, got %d", calls.Load())
				}
				if tokens.renews != 0 {
					t.Errorf("expected no renewals, got %d", tokens.renews)
				}
			})
		}
	})

	t.Run("Transport error does not retry", func(t *testing.T) {
		server := httptest.NewServer(http.NotFoundHandler())
		url := server.URL
		server.Close()
		tokens := &fakeTokens{cached: &oauth2.Token{AccessToken: "cached"}}

		_, err := newTestResolver(tokens, url).Resolve(ctx, "abc")
		if !errors.Is(err, shared.ErrLookupTransport) {
			t.Fatalf("expected ErrLookupTransport, got %v", err)
		}
		if tokens.renews != 0 {
			t.Errorf("expected no renewals, got %d", tokens.renews)
		}
	})

	t.Run("Malformed success body", func(t *testing.T) {
		tc := []struct {
			name string
			body string
		}{
			{name: "not json", body: `<html>`},
			{name: "missing name", body: `{"artists":[{"name":"Artist A"}]}`},
			{name: "no artists", body: `{"name":"Song A","artists":[]}`},
			{name: "artist without name", body: `{"name":"Song A","artists":[{"id":"x"}]}`},
			{name: "wrong type", body: `{"name":"Song A","artists":"Artist A"}`},
		}

		for _, tt := range tc {
			t.Run(tt.name, func(t *testing.T) {
				var calls atomic.Int32
				server := lookupServer(t, &calls, nil, lookupStep{http.StatusOK, tt.body})
				tokens := &fakeTokens{cached: &oauth2.Token{AccessToken: "cached"}}

				_, err := newTestResolver(tokens, server.URL).Resolve(ctx, "abc")
				if !errors.Is(err, shared.ErrMalformedTrackResponse) {
					t.Errorf("expected ErrMalformedTrackResponse, got %v", err)
				}
			})
		}
	})

	t.Run("With auth.Manager", func(t *testing.T) {
		var tokenCalls atomic.Int32
		tokenSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			n := tokenCalls.Add(1)
			w.Header().Set("Content-Type", "application/json")
			if n == 1 {
				io.WriteString(w, `{"access_token":"first"}`)
				return
			}
			io.WriteString(w, `{"access_token":"second"}`)
		}))
		defer tokenSrv.Close()

		var lookupCalls atomic.Int32
		apiSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			lookupCalls.Add(1)
			if r.Header.Get("Authorization") != "Bearer second" {
				w.WriteHeader(http.StatusUnauthorized)
				return
			}
			io.WriteString(w, songA)
		}))
		defer apiSrv.Close()

		manager, err := auth.NewManager(auth.Credentials{ClientID: "id", ClientSecret: "secret"}, auth.ManagerOpts{
			TokenURL: tokenSrv.URL,
			Logger:   shared.NewLogger(io.Discard),
		})
		if err != nil {
			t.Fatalf("failed to create manager: %v", err)
		}

		info, err := newTestResolver(manager, apiSrv.URL).Resolve(ctx, "abc")
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if info.Artist != "Artist A" {
			t.Errorf("expected Artist A, got %s", info.Artist)
		}
		if tokenCalls.Load() != 2 || lookupCalls.Load() != 2 {
			t.Errorf("expected 2 token and 2 lookup calls, got %d and %d", tokenCalls.Load(), lookupCalls.Load())
		}
		if manager.Cached().AccessToken != "second" {
			t.Errorf("expected renewed token to be cached, got %s", manager.Cached().AccessToken)
		}
	})
}
