// Package ui implements the terminal progress view for conversions using bubbletea's Elm architecture.
//
// The TUI has two views:
//  1. [ConvertView] : spinner, progress bar and the most recent rows while the engine runs
//  2. [ResultView] : match counts and failed rows grouped by failure kind
//
// The [Model] implements bubbletea/Elm's standard Init/Update/View pattern, receiving messages via the [Msg] union type.
// Progress updates flow through a channel from the ConvertEngine. Pressing q during a run cancels the context;
// the engine stops after the current row and the partial sheet is still written.
package ui
