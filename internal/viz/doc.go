// Package viz renders terminal summaries of a frame: a lipgloss panel with
// aggregate quantities and an asciigraph plot of the radial mass profile.
package viz
