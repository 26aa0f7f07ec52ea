// YouTube [VideoSearcher] implementations
//
// [YouTubeSearcher] calls the YouTube Data API v3 search endpoint directly.
// [ProxySearcher] calls the ytmusicapi FastAPI proxy (music/) instead.
package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/ytlinks/internal/shared"
)

const (
	defaultYTAPIURL   = "https://www.googleapis.com/youtube/v3"
	defaultYTProxyURL = "http://localhost:8080"
)

// SearchOpts contains optional collaborators for the searchers.
type SearchOpts struct {
	BaseURL    string
	HTTPClient *http.Client
	Logger     *log.Logger
}

func (o SearchOpts) withDefaults(baseURL, component string) SearchOpts {
	if o.BaseURL == "" {
		o.BaseURL = baseURL
	}
	if o.HTTPClient == nil {
		o.HTTPClient = &http.Client{Timeout: 30 * time.Second}
	}
	if o.Logger == nil {
		o.Logger = shared.NewLogger(nil)
	}
	o.Logger = shared.WithLogger(o.Logger, "component", component)
	return o
}

// YouTubeSearchResult is one item of a search.list response.
type YouTubeSearchResult struct {
	ID struct {
		Kind    string `json:"kind"`
		VideoID string `json:"videoId"`
	} `json:"id"`
	Snippet struct {
		Title        string `json:"title"`
		ChannelTitle string `json:"channelTitle"`
	} `json:"snippet"`
}

// YouTubeSearcher implements [VideoSearcher] with the YouTube Data API.
type YouTubeSearcher struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
	logger     *log.Logger
}

var _ VideoSearcher = (*YouTubeSearcher)(nil)

// NewYouTubeSearcher creates a Data API searcher authenticated with apiKey.
func NewYouTubeSearcher(apiKey string, opts SearchOpts) *YouTubeSearcher {
	opts = opts.withDefaults(defaultYTAPIURL, "youtube")
	return &YouTubeSearcher{
		apiKey:     apiKey,
		baseURL:    opts.BaseURL,
		httpClient: opts.HTTPClient,
		logger:     opts.Logger,
	}
}

// Name returns the backend name.
func (y *YouTubeSearcher) Name() string {
	return "YouTube"
}

// Search returns the watch URL of the first video matching query.
//
// Calls GET /search?part=snippet&type=video&maxResults=1&q={query}&key={key}.
func (y *YouTubeSearcher) Search(ctx context.Context, query string) (string, error) {
	params := url.Values{
		"part":       {"snippet"},
		"type":       {"video"},
		"maxResults": {"1"},
		"q":          {query},
		"key":        {y.apiKey},
	}

	var response struct {
		Items []YouTubeSearchResult `json:"items"`
	}
	if err := getJSON(ctx, y.httpClient, y.baseURL+"/search?"+params.Encode(), &response); err != nil {
		return "", err
	}

	if len(response.Items) == 0 || response.Items[0].ID.VideoID == "" {
		y.logger.Info("no video found", "query", query)
		return "", nil
	}

	link := VideoURL(response.Items[0].ID.VideoID)
	y.logger.Debug("found video", "query", query, "link", link)
	return link, nil
}

// YouTubeArtist represents an artist in YouTube Music responses.
type YouTubeArtist struct {
	Name string `json:"name"`
	ID   string `json:"id"`
}

// ProxySearcher implements [VideoSearcher] via the ytmusicapi proxy.
type ProxySearcher struct {
	baseURL    string
	authFile   string
	httpClient *http.Client
	logger     *log.Logger
}

var _ VideoSearcher = (*ProxySearcher)(nil)

// NewProxySearcher creates a searcher for the proxy at opts.BaseURL.
//
// authFile, when set, is sent as the X-Auth-File header on each request.
func NewProxySearcher(authFile string, opts SearchOpts) *ProxySearcher {
	opts = opts.withDefaults(defaultYTProxyURL, "ytmusic")
	return &ProxySearcher{
		baseURL:    opts.BaseURL,
		authFile:   authFile,
		httpClient: opts.HTTPClient,
		logger:     opts.Logger,
	}
}

// Name returns the backend name.
func (p *ProxySearcher) Name() string {
	return "YouTube Music"
}

// Search returns the watch URL of the first song matching query.
//
// Calls GET /api/search?q={query}&filter=songs on the proxy.
func (p *ProxySearcher) Search(ctx context.Context, query string) (string, error) {
	endpoint := fmt.Sprintf("%s/api/search?q=%s&filter=songs", p.baseURL, url.QueryEscape(query))

	var results []struct {
		VideoID string          `json:"videoId"`
		Title   string          `json:"title"`
		Artists []YouTubeArtist `json:"artists"`
	}

	header := http.Header{}
	if p.authFile != "" {
		header.Set("X-Auth-File", p.authFile)
	}
	if err := getJSONWithHeader(ctx, p.httpClient, endpoint, header, &results); err != nil {
		return "", err
	}

	if len(results) == 0 || results[0].VideoID == "" {
		p.logger.Info("no song found", "query", query)
		return "", nil
	}
	return VideoURL(results[0].VideoID), nil
}

func getJSON(ctx context.Context, client *http.Client, endpoint string, result any) error {
	return getJSONWithHeader(ctx, client, endpoint, nil, result)
}

// getJSONWithHeader performs a GET and decodes a 2xx JSON body into result.
//
// Every failure wraps [shared.ErrSearchFailed].
func getJSONWithHeader(ctx context.Context, client *http.Client, endpoint string, header http.Header, result any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("%w: failed to create request: %v", shared.ErrSearchFailed, err)
	}
	for k, v := range header {
		req.Header[k] = v
	}
	req.Header.Set("Accept", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: request failed: %w", shared.ErrSearchFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var errResp struct {
			Error struct {
				Message string `json:"message"`
			} `json:"error"`
			Detail string `json:"detail"`
		}
		status := &shared.StatusError{StatusCode: resp.StatusCode}
		if err := json.NewDecoder(resp.Body).Decode(&errResp); err == nil {
			if msg := errResp.Error.Message + errResp.Detail; msg != "" {
				return fmt.Errorf("%w: %w: %s", shared.ErrSearchFailed, status, msg)
			}
		}
		return fmt.Errorf("%w: %w", shared.ErrSearchFailed, status)
	}

	if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
		return fmt.Errorf("%w: failed to decode response: %v", shared.ErrSearchFailed, err)
	}
	return nil
}
