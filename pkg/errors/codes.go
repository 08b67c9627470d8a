package errors

// ErrorCode represents a standardized way to categorize different types of errors.
type ErrorCode string

// Base error codes represent the fundamental categories of failures that can
// occur across any software system. These codes provide the foundation layer
// of error classification.
const (
	// ErrorCodeIO represents failures in input/output operations across any
	// system boundary. This includes file system operations like reading or
	// writing segment files, network operations when communicating with remote
	// systems, and device I/O when accessing storage hardware.
	ErrorCodeIO ErrorCode = "IO_ERROR"

	// ErrorCodeInvalidInput represents client-side errors where the provided
	// data doesn't meet the system's requirements or constraints. This maps
	// to HTTP 400-series errors and indicates problems with the request itself
	// rather than system failures.
	ErrorCodeInvalidInput ErrorCode = "INVALID_INPUT"

	// ErrorCodeInternal represents unexpected system failures that don't fit
	// into other categories. These are the equivalent of HTTP 500 errors and
	// indicate bugs, assertion failures, or other programming errors that
	// shouldn't occur during normal operation.
	ErrorCodeInternal ErrorCode = "INTERNAL_ERROR"
)

// Storage-specific error codes extend the base error taxonomy to handle the
// unique failure modes that occur in persistent storage systems. These codes
// represent problems that are specific to the storage layer of your key-value
// store, particularly focusing on segment file management and data persistence.
const (
	// ErrorCodeSegmentCorrupted indicates that a segment file's data has been
	// damaged or is in an inconsistent state.
	ErrorCodeSegmentCorrupted ErrorCode = "SEGMENT_CORRUPTED"

	// ErrorCodeHeaderReadFailure occurs when the system cannot read the header
	// portion of a segment file. Headers contain critical metadata about the
	// segment's structure, so header read failures prevent access to the
	// entire segment and all data it contains.
	ErrorCodeHeaderReadFailure ErrorCode = "HEADER_READ_FAILURE"

	// ErrorCodePayloadReadFailure indicates problems reading the actual data
	// content from segment files after successfully reading the header. This
	// represents a more localized failure compared to header problems, as the
	// segment structure is intact but specific data regions are inaccessible.
	ErrorCodePayloadReadFailure ErrorCode = "PAYLOAD_READ_FAILURE"

	// ErrorCodeRecoveryFailed indicates that the storage system's attempt to
	// recover from a previous failure was unsuccessful. This represents a
	// compound failure where both the original problem and the recovery
	// mechanism have failed, creating a more serious operational situation.
	ErrorCodeRecoveryFailed ErrorCode = "STORAGE_RECOVERY_FAILED"

	// ErrorCodePermissionDenied indicates insufficient permissions to access a resource.
	// This is distinct from generic IO errors because it has a specific resolution path:
	// the user needs to adjust file/directory permissions or run with elevated privileges.
	ErrorCodePermissionDenied ErrorCode = "PERMISSION_DENIED"

	// ErrorCodeDiskFull indicates that the storage device has run out of space.
	// This requires specific handling like cleanup operations or alerting administrators.
	ErrorCodeDiskFull ErrorCode = "DISK_FULL"

	// ErrorCodeFilesystemReadonly indicates that the filesystem is mounted read-only.
	// This requires administrative intervention to remount the filesystem with write permissions.
	ErrorCodeFilesystemReadonly ErrorCode = "FILESYSTEM_READONLY"

	// ErrorCodeUnsortedEntries indicates an attempt to append an entry whose key is
	// less than the previously written key in the same segment. This is a fatal
	// precondition violation: the segment's sorted-key invariant has been broken
	// and the segment must not be written to further.
	ErrorCodeUnsortedEntries ErrorCode = "UNSORTED_ENTRIES"
)

// Index-specific error codes cover failures encountered while building,
// querying, or maintaining the in-memory sparse index.
const (
	// ErrorCodeIndexCorrupted indicates the in-memory index data structure
	// has been found in an inconsistent state and must be rebuilt.
	ErrorCodeIndexCorrupted ErrorCode = "INDEX_CORRUPTED"
)

// Merge-specific error codes cover failures encountered while reconciling
// overlapping segments into new, merged segments.
const (
	// ErrorCodeMergeCorruptSegment indicates an input segment line failed to
	// parse during a merge. A merge aborts rather than skipping the
	// offending line, since merge correctness depends on reading every
	// input entry.
	ErrorCodeMergeCorruptSegment ErrorCode = "MERGE_CORRUPT_SEGMENT"

	// ErrorCodeMergeCancelled indicates a merge was abandoned due to
	// cooperative cancellation; any partial output has already been
	// cleaned up by the time this error is returned.
	ErrorCodeMergeCancelled ErrorCode = "MERGE_CANCELLED"
)

// Bloom-filter-specific error codes cover failures persisting or loading
// the engine's membership filter.
const (
	// ErrorCodeBloomCorrupted indicates a persisted bloom filter file
	// failed to parse, or its stored parameters are internally
	// inconsistent (e.g. bit array length does not match the recorded
	// bit count).
	ErrorCodeBloomCorrupted ErrorCode = "BLOOM_CORRUPTED"
)
