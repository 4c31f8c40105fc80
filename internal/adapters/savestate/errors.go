package savestate

import "errors"

var (
	// ErrUnsupportedVersion is returned for blobs this build cannot read.
	ErrUnsupportedVersion = errors.New("unsupported save-state version")
	// ErrUnknownOfferKind is returned when an offer record has no valid kind.
	ErrUnknownOfferKind = errors.New("unknown offer kind")
	// ErrUnknownFormat is returned for an encoding other than JSON or YAML.
	ErrUnknownFormat = errors.New("unknown save-state format")
	// ErrSlotNotFound is returned when a Redis save slot is empty.
	ErrSlotNotFound = errors.New("save slot not found")
	// ErrInvalidSlot is returned for an empty or malformed slot name.
	ErrInvalidSlot = errors.New("invalid save slot name")
)
