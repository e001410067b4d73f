// Package ui implements an interactive terminal interface using bubbletea's Elm architecture.
//
// The TUI provides a multi-view workflow for a playlist sync run:
//  1. [PlanView] : Compute and preview the target playlist roster
//  2. [ConfirmView] : Confirm the run before anything is mutated
//  3. [RunView] : Monitor real-time progress updates
//  4. [ResultView] : Display per-playlist outcomes and the mutation count
//
// The (view) [Model] implements bubbletea/Elm's standard Init/Update/View pattern.
// Progress updates flow through a channel from the sync engine, providing
// non-blocking status reporting during the run.
package ui
