package repository

import "errors"

// Sentinel errors the service layer translates into its taxonomy.
var (
	ErrNotFound = errors.New("record not found")

	// ErrSlotTaken: the slot reservation compare-and-swap affected zero rows,
	// i.e. a concurrent booker got there first.
	ErrSlotTaken = errors.New("slot no longer available")

	// ErrWindowTaken: a direct booking's window overlaps an existing
	// non-cancelled slot or appointment.
	ErrWindowTaken = errors.New("time window no longer available")

	// ErrStatusChanged: a conditional status update affected zero rows
	// because the appointment left the expected state.
	ErrStatusChanged = errors.New("appointment status changed concurrently")

	// ErrUnavailable: the store call timed out or the connection dropped;
	// transient and retryable.
	ErrUnavailable = errors.New("store unavailable")
)
