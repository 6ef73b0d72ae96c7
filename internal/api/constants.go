package api

// API limits and constants.
const (
	// MaxBodySize caps request bodies; filter descriptors are small.
	MaxBodySize = 64 << 10

	// DefaultListLimit is used by aggregate endpoints when no limit is given.
	DefaultListLimit = 15
)
