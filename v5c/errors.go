package v5c

import "errors"

// Error kinds from spec.md section 7, surfaced at the API boundary and
// never panicked in the steady state. Callers distinguish them with
// errors.Is.
var (
	// ErrFormat covers wrong magic/version/format_type/reserved bytes,
	// or any header invariant violation.
	ErrFormat = errors.New("v5c: format error")

	// ErrTruncated indicates the file is shorter than header + outputs
	// + the declared gate region.
	ErrTruncated = errors.New("v5c: truncated file")

	// ErrAddressRange indicates scratch_space exceeds MaxMemoryAddress,
	// or a gate references an address >= scratch_space.
	ErrAddressRange = errors.New("v5c: address out of range")

	// ErrChecksumMismatch indicates the computed BLAKE3 checksum
	// differs from the one stored in the header.
	ErrChecksumMismatch = errors.New("v5c: checksum mismatch")
)
