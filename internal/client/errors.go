package client

import "errors"

// Retrieval errors the coordinator branches on. Adapters wrap these with
// call detail; callers test with errors.Is.
var (
	// ErrViewUnavailable means the named precomputed view does not exist on
	// the record store (or the endpoint is gone).
	ErrViewUnavailable = errors.New("view unavailable")

	// ErrPermissionDenied means the record store rejected the call for the
	// caller's role.
	ErrPermissionDenied = errors.New("permission denied")

	// ErrExpandUnsupported means the adapter cannot expand relations inline;
	// the caller must fall back to the manual join path.
	ErrExpandUnsupported = errors.New("relation expansion not supported")
)
