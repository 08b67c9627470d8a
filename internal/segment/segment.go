// Package segment implements one immutable, key-sorted on-disk run of the
// storage engine: append-only writer, positional reader, and tombstone-
// aware entry encoding. Segment files are the durable unit of the engine;
// a successful flush closes its segment's file before the segment is
// added to the engine's live set.
package segment

import (
	stdErrors "errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"encoding/json"

	"github.com/kraytos17/kv-db/internal/kv"
	"github.com/kraytos17/kv-db/pkg/errors"
	"github.com/kraytos17/kv-db/pkg/filesys"
	"github.com/kraytos17/kv-db/pkg/seginfo"
	"go.uber.org/zap"
)

var (
	// ErrSegmentClosed is returned when attempting to read, write, seek,
	// or otherwise access a segment after it has been closed.
	ErrSegmentClosed = stdErrors.New("operation failed: cannot access closed segment")
)

// Open opens an existing segment file for reading (and, if the caller
// continues to append, writing). Its creation timestamp is extracted from
// the filename; a filename that doesn't match the naming contract yields
// the zero Timestamp.
func Open(path string, log *zap.SugaredLogger) (*Segment, error) {
	file, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0644)
	if err != nil {
		return nil, errors.ClassifyFileOpenError(err, path, filepath.Base(path))
	}

	info, err := file.Stat()
	if err != nil {
		_ = file.Close()
		return nil, errors.NewStorageError(err, errors.ErrorCodeIO, "failed to stat segment file").WithPath(path)
	}

	ts, _ := seginfo.ParseTimestamp(path)

	log.Infow("Opened segment file", "path", path, "size", info.Size(), "timestamp", ts.String())

	return &Segment{
		log:         log,
		file:        file,
		path:        path,
		timestamp:   ts,
		size:        info.Size(),
		writeOffset: info.Size(),
	}, nil
}

// Create creates a new, empty segment file in dir, named per ts, and opens
// it for writing. It fails if a segment with that name already exists,
// since two segments must never share a creation timestamp.
func Create(dir string, ts seginfo.Timestamp, log *zap.SugaredLogger) (*Segment, error) {
	name := seginfo.GenerateName(ts)
	path := filepath.Join(dir, name)

	file, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_EXCL, 0644)
	if err != nil {
		return nil, errors.ClassifyFileOpenError(err, path, name)
	}

	log.Infow("Created new segment file", "path", path, "timestamp", ts.String())

	return &Segment{
		log:       log,
		file:      file,
		path:      path,
		timestamp: ts,
	}, nil
}

// AddEntry appends one entry. Its precondition is that e.Key is
// ordinally greater than or equal to the previously appended key;
// violating it is a fatal precondition violation reported as a
// StorageError carrying errors.ErrorCodeUnsortedEntries.
func (s *Segment) AddEntry(e kv.Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrSegmentClosed
	}

	if s.hasLastWritten && e.Key < s.lastWrittenKey {
		return errors.NewStorageError(
			nil, errors.ErrorCodeUnsortedEntries, "segment entries must be appended in non-decreasing key order",
		).WithPath(s.path).
			WithDetail("previousKey", s.lastWrittenKey).
			WithDetail("offendingKey", e.Key)
	}

	line, err := encodeLine(e)
	if err != nil {
		return errors.NewStorageError(err, errors.ErrorCodeIO, "failed to encode entry").WithPath(s.path)
	}

	n, err := s.file.WriteAt(line, s.writeOffset)
	if err != nil {
		return errors.NewStorageError(err, errors.ErrorCodeIO, "failed to write entry").
			WithPath(s.path).WithOffset(int(s.writeOffset))
	}

	s.writeOffset += int64(n)
	if s.writeOffset > s.size {
		s.size = s.writeOffset
	}
	s.hasLastWritten = true
	s.lastWrittenKey = e.Key
	return nil
}

// ReadEntry reads the next entry sequentially from the current read
// position. ok is false, with a nil error, at end of file.
func (s *Segment) ReadEntry() (e kv.Entry, ok bool, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return kv.Entry{}, false, ErrSegmentClosed
	}
	if s.readOffset >= s.size {
		return kv.Entry{}, false, nil
	}

	line, n, err := s.readLineAt(s.readOffset)
	if err != nil {
		return kv.Entry{}, false, errors.NewStorageError(err, errors.ErrorCodeIO, "failed to read entry").
			WithPath(s.path).WithOffset(int(s.readOffset))
	}

	s.readOffset += n

	entry, err := decodeLine(line)
	if err != nil {
		return kv.Entry{}, false, errors.NewStorageError(
			err, errors.ErrorCodeSegmentCorrupted, "segment line failed to parse as a single-entry dictionary",
		).WithPath(s.path).WithOffset(int(s.readOffset) - int(n))
	}

	return entry, true, nil
}

// ReadEntryAt reads one entry starting at offset without touching the
// segment's shared read cursor, so concurrent point lookups against the
// same segment (which Seek/ReadEntry's shared readOffset cannot safely
// support) can each scan independently. next is the offset immediately
// following the entry just read, for chaining further ReadEntryAt calls
// during a forward scan. ok is false, with a nil error, at end of file.
func (s *Segment) ReadEntryAt(offset int64) (e kv.Entry, next int64, ok bool, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return kv.Entry{}, offset, false, ErrSegmentClosed
	}
	if offset < 0 || offset >= s.size {
		return kv.Entry{}, offset, false, nil
	}

	line, n, err := s.readLineAt(offset)
	if err != nil {
		return kv.Entry{}, offset, false, errors.NewStorageError(err, errors.ErrorCodeIO, "failed to read entry").
			WithPath(s.path).WithOffset(int(offset))
	}

	entry, err := decodeLine(line)
	if err != nil {
		return kv.Entry{}, offset, false, errors.NewStorageError(
			err, errors.ErrorCodeSegmentCorrupted, "segment line failed to parse as a single-entry dictionary",
		).WithPath(s.path).WithOffset(int(offset))
	}

	return entry, offset + n, true, nil
}

// Seek repositions the reader to offset; the next ReadEntry resumes there.
func (s *Segment) Seek(offset int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrSegmentClosed
	}
	if offset < 0 || offset > s.size {
		return errors.NewStorageError(nil, errors.ErrorCodeIO, "seek offset out of range").
			WithPath(s.path).WithOffset(int(offset))
	}

	s.readOffset = offset
	return nil
}

// Position returns the current read offset.
func (s *Segment) Position() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.readOffset
}

// EOF reports whether the reader has no more bytes to read.
func (s *Segment) EOF() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.readOffset >= s.size
}

// Close fsyncs any writes this segment performed (so a completed flush
// or merge output is actually durable, not just sitting in the OS page
// cache) and releases the file handle. It is safe to call Close more
// than once.
func (s *Segment) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true

	if s.writeOffset > 0 {
		if err := s.file.Sync(); err != nil {
			_ = s.file.Close()
			return errors.ClassifySyncError(err, filepath.Base(s.path), s.path, int(s.writeOffset))
		}
	}

	if err := s.file.Close(); err != nil {
		return errors.NewStorageError(err, errors.ErrorCodeIO, "failed to close segment file").WithPath(s.path)
	}
	return nil
}

// Timestamp returns the segment's creation timestamp.
func (s *Segment) Timestamp() seginfo.Timestamp {
	return s.timestamp
}

// Path returns the segment's file path.
func (s *Segment) Path() string {
	return s.path
}

// Size returns the segment's total committed byte size.
func (s *Segment) Size() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.size
}

// Remove closes (if necessary) and deletes the segment's file. It is used
// to discard superseded segments after a merge and to clean up partially
// written output on a cancelled flush or merge.
func (s *Segment) Remove() error {
	_ = s.Close()
	if err := filesys.DeleteFile(s.path); err != nil && !os.IsNotExist(err) {
		return errors.NewStorageError(err, errors.ErrorCodeIO, "failed to remove segment file").WithPath(s.path)
	}
	return nil
}

// readLineAt reads one newline-terminated line starting at offset,
// returning the line (without the trailing newline) and the number of
// bytes consumed, including the newline.
func (s *Segment) readLineAt(offset int64) ([]byte, int64, error) {
	const chunkSize = 4096

	buf := make([]byte, 0, chunkSize)
	chunk := make([]byte, chunkSize)

	pos := offset
	for {
		n, err := s.file.ReadAt(chunk, pos)
		if n > 0 {
			buf = append(buf, chunk[:n]...)
			if idx := indexByte(buf, '\n'); idx >= 0 {
				return buf[:idx], int64(idx) + 1, nil
			}
		}
		if err != nil {
			if err == io.EOF {
				if len(buf) > 0 {
					return buf, int64(len(buf)), nil
				}
				return nil, 0, io.EOF
			}
			return nil, 0, err
		}
		pos += int64(n)
	}
}

func indexByte(b []byte, c byte) int {
	for i, v := range b {
		if v == c {
			return i
		}
	}
	return -1
}

// encodeLine renders e as a single-line, single-key JSON dictionary.
// encoding/json round-trips embedded quotes, control characters, and
// non-ASCII content safely, which is exactly what the on-disk encoding
// requires.
func encodeLine(e kv.Entry) ([]byte, error) {
	record := lineRecord{e.Key: e.Value}
	b, err := json.Marshal(record)
	if err != nil {
		return nil, err
	}
	return append(b, '\n'), nil
}

// decodeLine parses one on-disk line back into an Entry.
func decodeLine(line []byte) (kv.Entry, error) {
	var record lineRecord
	if err := json.Unmarshal(line, &record); err != nil {
		return kv.Entry{}, err
	}
	if len(record) != 1 {
		return kv.Entry{}, fmt.Errorf("expected exactly one key, got %d", len(record))
	}
	for key, value := range record {
		return kv.Entry{Key: key, Value: value}, nil
	}
	return kv.Entry{}, fmt.Errorf("unreachable: empty single-entry record")
}
