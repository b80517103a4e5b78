package logging

import (
	"bytes"
	"io"
)

// PrefixWriter prepends a prefix to every complete line written through it.
// Partial lines are held until their newline arrives.
type PrefixWriter struct {
	prefix []byte
	writer io.Writer
	buffer bytes.Buffer
}

// NewPrefixWriter creates a new PrefixWriter.
func NewPrefixWriter(prefix string, w io.Writer) *PrefixWriter {
	return &PrefixWriter{
		prefix: []byte(prefix),
		writer: w,
	}
}

// Write implements io.Writer. It reports len(p) on success even when part of
// p is still buffered.
func (pw *PrefixWriter) Write(p []byte) (int, error) {
	pw.buffer.Write(p)

	for {
		i := bytes.IndexByte(pw.buffer.Bytes(), '\n')
		if i < 0 {
			break
		}
		line := pw.buffer.Next(i + 1)

		if _, err := pw.writer.Write(pw.prefix); err != nil {
			return 0, err
		}
		if _, err := pw.writer.Write(line); err != nil {
			return 0, err
		}
	}

	return len(p), nil
}

// Flush writes any buffered partial line, prefixed, without a newline.
func (pw *PrefixWriter) Flush() error {
	if pw.buffer.Len() == 0 {
		return nil
	}
	line := pw.buffer.Next(pw.buffer.Len())
	if _, err := pw.writer.Write(pw.prefix); err != nil {
		return err
	}
	_, err := pw.writer.Write(line)
	return err
}
