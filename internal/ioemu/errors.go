package ioemu

import "errors"

// Behavioral error kinds surfaced at the component boundary.
var (
	// ErrInvalid marks a malformed request; fatal for this request.
	ErrInvalid = errors.New("ioemu: invalid request")
	// ErrSpanError marks an access straddling a registered region boundary.
	ErrSpanError = errors.New("ioemu: access spans a region boundary")
	// ErrBusy marks a setup operation refused because the resource already
	// exists.
	ErrBusy = errors.New("ioemu: resource already set up")
)
