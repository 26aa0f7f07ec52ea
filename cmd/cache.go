package main

import (
	"context"

	"github.com/urfave/cli/v3"
)

// CacheList prints cached links, newest first.
func (r *Runner) CacheList(ctx context.Context, cmd *cli.Command) error {
	links, err := r.linkRepository()
	if err != nil {
		return err
	}

	criteria := map[string]any{"limit": int(cmd.Int("limit"))}
	if artist := cmd.String("artist"); artist != "" {
		criteria["artist"] = artist
	}
	if cmd.Bool("missing") {
		criteria["has_video"] = false
	}

	cached, err := links.List(criteria)
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		out := make([]map[string]any, 0, len(cached))
		for _, l := range cached {
			out = append(out, l.MarshalMap())
		}
		return r.writeJSON(out, true)
	}

	if len(cached) == 0 {
		return r.writePlain("No cached links\n")
	}

	r.writePlainHeader("Cached Links")
	for i, l := range cached {
		video := l.VideoURL()
		if video == "" {
			video = "(no video)"
		}
		r.writePlain("%d. %s - %s\n   %s → %s\n", i+1, l.Artist(), l.Title(), l.TrackID(), video)
	}
	return nil
}

// CacheClear deletes every cached link.
func (r *Runner) CacheClear(ctx context.Context, cmd *cli.Command) error {
	links, err := r.linkRepository()
	if err != nil {
		return err
	}

	n, err := links.Clear()
	if err != nil {
		return err
	}

	r.logger.Info("cleared link cache", "rows", n)
	return r.writePlain("✓ Removed %d cached links\n", n)
}
