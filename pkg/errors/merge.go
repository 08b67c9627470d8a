package errors

// MergeError provides specialized error handling for k-way merge
// operations. It extends the base error system with the context needed to
// diagnose a failed or aborted merge: which input segments were involved
// and how far the merge had progressed.
type MergeError struct {
	*baseError

	// inputTimestamps records the string form of every input segment's
	// creation timestamp, for quick identification in logs.
	inputTimestamps []string

	// offendingTimestamp identifies the specific input segment whose entry
	// could not be read or parsed, if applicable.
	offendingTimestamp string

	// emittedCount is how many entries had already been written to output
	// segments when the merge failed.
	emittedCount int
}

// NewMergeError creates a new merge-specific error with the provided context.
func NewMergeError(err error, code ErrorCode, msg string) *MergeError {
	return &MergeError{baseError: NewBaseError(err, code, msg)}
}

// WithMessage updates the error message while maintaining the MergeError type.
func (me *MergeError) WithMessage(msg string) *MergeError {
	me.baseError.WithMessage(msg)
	return me
}

// WithDetail adds contextual information while maintaining the MergeError type.
func (me *MergeError) WithDetail(key string, value any) *MergeError {
	me.baseError.WithDetail(key, value)
	return me
}

// WithInputTimestamps records which input segments participated in the merge.
func (me *MergeError) WithInputTimestamps(timestamps []string) *MergeError {
	me.inputTimestamps = timestamps
	return me
}

// WithOffendingTimestamp records which input segment's entry triggered the failure.
func (me *MergeError) WithOffendingTimestamp(timestamp string) *MergeError {
	me.offendingTimestamp = timestamp
	return me
}

// WithEmittedCount records how many entries had already reached output segments.
func (me *MergeError) WithEmittedCount(count int) *MergeError {
	me.emittedCount = count
	return me
}

// InputTimestamps returns the input segments' timestamps.
func (me *MergeError) InputTimestamps() []string {
	return me.inputTimestamps
}

// OffendingTimestamp returns the input segment whose entry caused the failure.
func (me *MergeError) OffendingTimestamp() string {
	return me.offendingTimestamp
}

// EmittedCount returns how many entries had been emitted before the failure.
func (me *MergeError) EmittedCount() int {
	return me.emittedCount
}
