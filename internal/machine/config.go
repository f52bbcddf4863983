package machine

// Config carries the knobs the host (CLI or UI) can set before New.
type Config struct {
	// Trace, when set, makes Run call the configured trace hook before
	// every instruction decode (see Machine.SetTraceHook). The core
	// itself never logs; logging is the host's concern.
	Trace bool

	// ValidateChecksum opts into an optional header checksum check: when
	// set, New returns *ErrInvalidChecksum instead of loading a ROM whose
	// header checksum byte doesn't match.
	ValidateChecksum bool
}

// Defaults returns the configuration a freshly started host should use.
func Defaults() Config {
	return Config{Trace: false, ValidateChecksum: false}
}
