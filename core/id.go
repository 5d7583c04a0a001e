package core

import "github.com/google/uuid"

// NewID returns a fresh opaque 128-bit identifier, used for agent ids,
// task ids, message ids and conversation ids alike (spec §3: "id
// (opaque 128-bit)").
func NewID() string {
	return uuid.NewString()
}

// NewIDWithPrefix returns a fresh id prefixed with a human-readable tag
// ("task", "agent", "msg", ...), which keeps log lines and checkpoint
// files self-describing without changing the underlying uniqueness
// guarantee.
func NewIDWithPrefix(prefix string) string {
	return prefix + "-" + uuid.NewString()
}
