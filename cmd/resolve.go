package main

import (
	"context"
	"fmt"

	"github.com/desertthunder/ytlinks/internal/services"
	"github.com/desertthunder/ytlinks/internal/shared"
	"github.com/urfave/cli/v3"
)

type resolveOutput struct {
	*services.TrackInfo
	Query    string `json:"query"`
	VideoURL string `json:"video_url,omitempty"`
}

// Resolve looks up one track link and prints its title and artist.
func (r *Runner) Resolve(ctx context.Context, cmd *cli.Command) error {
	link := cmd.StringArg("link")
	if link == "" {
		return fmt.Errorf("%w: track link", shared.ErrMissingArgument)
	}

	trackID, err := services.TrackIDFromLink(link)
	if err != nil {
		return err
	}

	resolver, err := r.trackResolver()
	if err != nil {
		return err
	}

	info, err := resolver.Resolve(ctx, trackID)
	if err != nil {
		return fmt.Errorf("failed to resolve %s: %w", trackID, err)
	}
	out := resolveOutput{TrackInfo: info, Query: info.SearchQuery()}

	if cmd.Bool("search") {
		searcher, err := r.videoSearcher()
		if err != nil {
			return err
		}
		if out.VideoURL, err = searcher.Search(ctx, out.Query); err != nil {
			return err
		}
	}

	if cmd.Bool("json") {
		return r.writeJSON(out, true)
	}

	r.writePlain("Track:  %s\n", info.Title)
	r.writePlain("Artist: %s\n", info.Artist)
	if info.Album != "" {
		r.writePlain("Album:  %s\n", info.Album)
	}
	r.writePlain("Query:  %s\n", out.Query)
	if cmd.Bool("search") {
		if out.VideoURL == "" {
			r.writePlain("Video:  (no results)\n")
		} else {
			r.writePlain("Video:  %s\n", out.VideoURL)
		}
	}
	return nil
}

// Search prints the first video link for a free-text query.
func (r *Runner) Search(ctx context.Context, cmd *cli.Command) error {
	query := shared.NormalizeQuery(cmd.StringArg("query"))
	if query == "" {
		return fmt.Errorf("%w: search query", shared.ErrMissingArgument)
	}

	searcher, err := r.videoSearcher()
	if err != nil {
		return err
	}

	videoURL, err := searcher.Search(ctx, query)
	if err != nil {
		return err
	}
	if videoURL == "" {
		return fmt.Errorf("%w: %q on %s", shared.ErrNoVideoFound, query, searcher.Name())
	}

	return r.writePlain("%s\n", videoURL)
}
