// Package ui provides rendering functions for the stashy terminal UI.
//
// Render takes RenderParams (the stash list, the preview pane content, help
// visibility and an optional error message) and produces the terminal
// output. Rendering is pure and kept apart from the state machine in
// package app, which also uses the layout helpers here to size the preview.
package ui
