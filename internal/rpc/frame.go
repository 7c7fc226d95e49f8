// Package rpc implements the framed JSON-RPC protocol engine: deframing an
// unbounded byte stream into messages, dispatching them, and writing framed
// replies. Messages are processed strictly in the order their frames
// complete; there is no internal parallelism.
package rpc

import (
	"bytes"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// Frame delimiters. Headers end at the first blank line; both bare-LF and
// CRLF conventions appear in the wild and both are accepted.
var (
	delimCRLF = []byte("\r\n\r\n")
	delimLF   = []byte("\n\n")
)

// HeaderError reports a header region that could not be parsed. The region
// is already discarded when this is returned; the stream keeps going.
type HeaderError struct {
	Header string
}

func (e *HeaderError) Error() string {
	return fmt.Sprintf("unparseable frame header: %q", e.Header)
}

// Framer accumulates arbitrarily-chunked input and yields complete message
// bodies. One growable buffer holds all not-yet-consumed bytes; the split
// points of incoming chunks never affect which bodies come out.
type Framer struct {
	buf []byte
}

// Append adds a chunk of input to the buffer.
func (f *Framer) Append(chunk []byte) {
	f.buf = append(f.buf, chunk...)
}

// Pending reports whether undelivered bytes remain buffered. At stream end
// a pending incomplete frame is discarded, not retried.
func (f *Framer) Pending() bool {
	return len(f.buf) > 0
}

// Next returns the next complete message body. A nil body with nil error
// means more bytes are needed. A *HeaderError means one malformed header
// region was dropped and the caller should try Next again.
func (f *Framer) Next() ([]byte, error) {
	header, bodyStart, found := f.splitHeader()
	if !found {
		return nil, nil
	}

	length, err := parseContentLength(header)
	if err != nil {
		// Drop just the bad header region and keep scanning; one garbage
		// frame must not stall the whole stream.
		f.buf = f.buf[bodyStart:]
		return nil, &HeaderError{Header: string(header)}
	}

	if len(f.buf) < bodyStart+length {
		return nil, nil
	}

	body := make([]byte, length)
	copy(body, f.buf[bodyStart:bodyStart+length])
	f.buf = f.buf[bodyStart+length:]
	return body, nil
}

// splitHeader finds the header/body delimiter. Returns the header region,
// the body start offset, and whether a delimiter was found at all.
func (f *Framer) splitHeader() (header []byte, bodyStart int, found bool) {
	idxCRLF := bytes.Index(f.buf, delimCRLF)
	idxLF := bytes.Index(f.buf, delimLF)

	switch {
	case idxCRLF == -1 && idxLF == -1:
		return nil, 0, false
	case idxCRLF == -1:
		return f.buf[:idxLF], idxLF + len(delimLF), true
	case idxLF == -1 || idxCRLF <= idxLF:
		return f.buf[:idxCRLF], idxCRLF + len(delimCRLF), true
	default:
		return f.buf[:idxLF], idxLF + len(delimLF), true
	}
}

// parseContentLength extracts the Content-Length value from a header
// region. The field name is case-insensitive.
func parseContentLength(header []byte) (int, error) {
	for _, line := range strings.Split(string(header), "\n") {
		line = strings.TrimRight(line, "\r")
		name, value, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		if !strings.EqualFold(strings.TrimSpace(name), "Content-Length") {
			continue
		}
		n, err := strconv.Atoi(strings.TrimSpace(value))
		if err != nil {
			return 0, fmt.Errorf("bad Content-Length value %q", strings.TrimSpace(value))
		}
		if n < 0 {
			return 0, fmt.Errorf("negative Content-Length %d", n)
		}
		return n, nil
	}
	return 0, fmt.Errorf("no Content-Length field")
}

// WriteFrame writes body with the same header/body framing used for input.
// The length is the exact byte length of body, which keeps framing correct
// for multi-byte encodings.
func WriteFrame(w io.Writer, body []byte) error {
	if _, err := fmt.Fprintf(w, "Content-Length: %d\r\n\r\n", len(body)); err != nil {
		return err
	}
	_, err := w.Write(body)
	return err
}
