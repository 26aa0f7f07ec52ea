package tasks

import (
	"fmt"
	"path/filepath"

	"github.com/desertthunder/ytlinks/internal/shared"
)

// ProgressUpdate represents a progress event during a long-running operation.
//
// Used to send real-time updates to the CLI or UI layer for display.
type ProgressUpdate struct {
	Phase   Phase  // Operation phase
	Step    int    // Current step number within phase
	Total   int    // Total steps in this phase
	Message string // Human-readable message for display
	Data    any    // Optional phase-specific data for advanced UIs
}

// Operation phase enumeration
type Phase int

const (
	ReadSheet Phase = iota
	ConvertRows
	WriteSheet
)

func (p Phase) String() string {
	switch p {
	case ReadSheet:
		return "read_sheet"
	case ConvertRows:
		return "convert_rows"
	case WriteSheet:
		return "write_sheet"
	default:
		return ""
	}
}

func readSheetUpdate(path string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ReadSheet,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Reading %s...", filepath.Base(path)),
	}
}

func convertStartUpdate(total int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ConvertRows,
		Step:    0,
		Total:   total,
		Message: fmt.Sprintf("Converting %d links...", total),
	}
}

func rowDoneUpdate(step, total int, row RowResult) ProgressUpdate {
	var msg string
	switch {
	case row.Err != nil:
		msg = fmt.Sprintf("[%d/%d] ✗ %s (%s)", step, total, row.Link, shared.FailureKind(row.Err))
	case row.Cached:
		msg = fmt.Sprintf("[%d/%d] ✓ %s - %s (cached)", step, total, row.Track.Artist, row.Track.Title)
	default:
		msg = fmt.Sprintf("[%d/%d] ✓ %s - %s", step, total, row.Track.Artist, row.Track.Title)
	}

	return ProgressUpdate{
		Phase:   ConvertRows,
		Step:    step,
		Total:   total,
		Message: msg,
		Data:    row,
	}
}

func writeSheetUpdate(path string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   WriteSheet,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Writing %s...", path),
	}
}
