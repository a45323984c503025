package domain

import (
	"github.com/allisson/otpvault/internal/errors"
)

// Slot errors.
var (
	// ErrSlot indicates structurally invalid slot data. It is never retried.
	ErrSlot = errors.Wrap(errors.ErrInvalidInput, "invalid slot")

	// ErrUnsupportedSlotType indicates a slot type code this build does not know.
	ErrUnsupportedSlotType = errors.Wrap(ErrSlot, "unsupported slot type")

	// ErrInvalidSlotUUID indicates a slot whose uuid does not parse.
	ErrInvalidSlotUUID = errors.Wrap(ErrSlot, "invalid slot uuid")

	// ErrMissingSlotField indicates a required slot field is absent.
	ErrMissingSlotField = errors.Wrap(ErrSlot, "missing slot field")

	// ErrSlotIntegrity indicates the wrapped master key failed tag verification.
	// Wrong credentials and tampered slots are reported the same way.
	ErrSlotIntegrity = errors.Wrap(errors.ErrIntegrity, "slot integrity check failed")

	// ErrSlotNotFound indicates no slot with the given uuid exists.
	ErrSlotNotFound = errors.Wrap(errors.ErrNotFound, "slot not found")

	// ErrDuplicateSlot indicates a slot with the same uuid is already present.
	ErrDuplicateSlot = errors.Wrap(errors.ErrConflict, "duplicate slot uuid")

	// ErrLastSlot indicates an attempt to remove the only remaining slot.
	ErrLastSlot = errors.Wrap(errors.ErrConflict, "cannot remove the last slot")

	// ErrNoMatchingSlot indicates no slot of the credential's type exists.
	ErrNoMatchingSlot = errors.Wrap(errors.ErrNotFound, "no slot matches the credential")

	// ErrSlotTypeMismatch indicates an operation was applied to a slot of another type.
	ErrSlotTypeMismatch = errors.Wrap(errors.ErrInvalidInput, "slot type mismatch")
)
