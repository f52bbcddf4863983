package ui

// Config contains window/input settings for the host window. Audio, save
// states, the ROM picker and CGB compatibility toggles are out of scope
// for this core (see DESIGN.md) so this keeps only what a DMG-only front
// end needs.
type Config struct {
	Title string // window title
	Scale int    // integer upscaling factor
}

// Defaults fills missing fields with reasonable defaults.
func (c *Config) Defaults() {
	if c.Title == "" {
		c.Title = "gbemu"
	}
	if c.Scale <= 0 {
		c.Scale = 3
	}
}
