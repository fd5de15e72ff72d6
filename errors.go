package dns

import "github.com/pkg/errors"

// Sentinel errors for the result taxonomy used throughout the zone
// store and packet codec. Callers that need to distinguish a failure
// kind should compare with errors.Is against one of these, not against
// the wrapped value returned by a function (call sites add context with
// errors.Wrap, which preserves the sentinel for errors.Is).
var (
	// ErrBadArg is returned for a null or logically invalid argument.
	ErrBadArg = errors.New("bad argument")

	// ErrOutOfZone is returned when a name or node falls outside the
	// zone apex.
	ErrOutOfZone = errors.New("out of zone")

	// ErrNoSpace is returned when the wire buffer is too small to hold
	// the requested write.
	ErrNoSpace = errors.New("no space in wire buffer")

	// ErrMalformed is returned when wire bytes violate DNS framing.
	ErrMalformed = errors.New("malformed wire data")

	// ErrFewData is returned when a section's declared RR count
	// exceeds the number of bytes remaining in the wire buffer.
	ErrFewData = errors.New("too few data for declared section count")

	// ErrNoNsec3Params is returned when NSEC3 hashing is requested but
	// the zone has no NSEC3PARAM loaded.
	ErrNoNsec3Params = errors.New("no NSEC3 parameters")

	// ErrCrypto is returned when hash computation or base32 encoding
	// fails.
	ErrCrypto = errors.New("crypto failure")

	// ErrNoMem is returned when the memory context's allocator
	// returned nil.
	ErrNoMem = errors.New("allocation failed")

	// ErrDuplicate is returned by Zone.Insert when an owner name is
	// already present in the tree.
	ErrDuplicate = errors.New("duplicate owner in zone tree")
)
