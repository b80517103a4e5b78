// Package readings admits or drops device readings according to a
// whitelist.
//
// A reading is one line of text whose fields are split with Split. One of
// the fields carries the transmitter ID; the line is passed through
// byte for byte, terminator included, when that ID is whitelisted and
// dropped otherwise. Lines longer than MaxLineLength are dropped as
// malformed.
package readings

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/hashicorp/go-hclog"
	"github.com/itchio/headway/counter"

	ecerrors "github.com/provide-io/ec3000/go/ec3000/pkg/errors"
	"github.com/provide-io/ec3000/go/ec3000/pkg/whitelist"
)

// MaxLineLength bounds the bytes kept for one reading, terminator included.
const MaxLineLength = 64 * 1024

// Filter passes through readings from whitelisted devices.
type Filter struct {
	Whitelist *whitelist.Whitelist
	// Field is the zero-based index of the ID field in a reading.
	Field  int
	Logger hclog.Logger
}

// Stats summarizes a Run.
type Stats struct {
	Lines     int // readings seen, excluding blank and comment lines
	Admitted  int
	Rejected  int
	Malformed int
	Bytes     int64          // bytes written to the output
	PerID     map[string]int // admitted readings per ID
}

// ID extracts the device ID from a reading line.
func (f *Filter) ID(line string) (string, error) {
	fields, err := Split(line)
	if err != nil {
		return "", err
	}
	if f.Field < 0 || f.Field >= len(fields) {
		return "", fmt.Errorf("%w: want field %d, have %d", ecerrors.ErrMissingField, f.Field, len(fields))
	}
	return fields[f.Field], nil
}

// readLine returns the next line including its terminator. A line over
// MaxLineLength is consumed up to its newline and reported as tooLong with
// only its first MaxLineLength bytes.
func readLine(br *bufio.Reader) (line []byte, tooLong bool, err error) {
	for {
		chunk, err := br.ReadSlice('\n')
		if len(line)+len(chunk) > MaxLineLength {
			tooLong = true
			if room := MaxLineLength - len(line); room > 0 {
				line = append(line, chunk[:room]...)
			}
		} else {
			line = append(line, chunk...)
		}
		if errors.Is(err, bufio.ErrBufferFull) {
			continue
		}
		return line, tooLong, err
	}
}

// Run copies admitted readings from r to w. It stops at EOF, on a read or
// write error, or when ctx is done; the stats gathered so far are returned
// in every case.
func (f *Filter) Run(ctx context.Context, r io.Reader, w io.Writer) (Stats, error) {
	logger := f.Logger
	if logger == nil {
		logger = hclog.NewNullLogger()
	}

	stats := Stats{PerID: map[string]int{}}
	cw := counter.NewWriter(w)
	out := bufio.NewWriter(cw)

	finish := func(err error) (Stats, error) {
		if flushErr := out.Flush(); flushErr != nil && err == nil {
			err = fmt.Errorf("failed to write readings: %w", flushErr)
		}
		stats.Bytes = cw.Count()
		return stats, err
	}

	br := bufio.NewReader(r)
	for {
		if err := ctx.Err(); err != nil {
			return finish(err)
		}

		raw, tooLong, readErr := readLine(br)
		if readErr != nil && !errors.Is(readErr, io.EOF) {
			return finish(fmt.Errorf("failed to read readings: %w", readErr))
		}
		if len(raw) > 0 {
			if err := f.handle(raw, tooLong, out, &stats, logger); err != nil {
				return finish(fmt.Errorf("failed to write readings: %w", err))
			}
		}
		if readErr != nil {
			return finish(nil)
		}
	}
}

func (f *Filter) handle(raw []byte, tooLong bool, out *bufio.Writer, stats *Stats, logger hclog.Logger) error {
	line := strings.TrimRight(string(raw), "\r\n")
	trimmed := strings.TrimSpace(line)
	if trimmed == "" || strings.HasPrefix(trimmed, "#") {
		return nil
	}
	stats.Lines++

	if tooLong {
		stats.Malformed++
		logger.Debug("⚠️ Skipping oversized reading", "line", stats.Lines, "limit", MaxLineLength)
		return nil
	}

	id, err := f.ID(line)
	if err != nil {
		stats.Malformed++
		logger.Debug("⚠️ Skipping malformed reading", "line", stats.Lines, "error", err)
		return nil
	}

	if !f.Whitelist.Contains(id) {
		stats.Rejected++
		logger.Trace("🚫 Dropping reading", "id", id)
		return nil
	}

	stats.Admitted++
	stats.PerID[id]++
	if label, _ := f.Whitelist.Label(id); label != "" {
		logger.Trace("✅ Admitting reading", "id", id, "label", label)
	} else {
		logger.Trace("✅ Admitting reading", "id", id)
	}

	_, err = out.Write(raw)
	return err
}
