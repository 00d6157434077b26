package ingress

import (
	"bufio"
	"errors"
	"fmt"
	"io"
)

// ErrOverlongDigitRun is returned when an octet-counting frame's length
// prefix exceeds the bounded digit run (spec §4.5).
var ErrOverlongDigitRun = errors.New("ingress: octet-count digit run too long")

// ErrFrameTooLarge is returned when a frame (of either framing) exceeds
// maxMessageSize.
var ErrFrameTooLarge = errors.New("ingress: frame exceeds maximum message size")

const maxDigitRun = 10

// readFrame extracts exactly one RFC 6587 frame from r, auto-detecting the
// framing from the first non-space byte: a leading ASCII digit means
// octet-counting, anything else means non-transparent (LF-terminated)
// framing. io.EOF is returned when the connection has no more data, and
// io.ErrUnexpectedEOF when it ends inside a partial frame.
func readFrame(r *bufio.Reader, maxMessageSize int) ([]byte, error) {
	first, err := r.Peek(1)
	if err != nil {
		return nil, err
	}

	// Look past leading spaces without consuming them, so a
	// non-transparent frame keeps its own leading spaces.
	lead := 0
	for first[lead] == ' ' {
		if first, err = r.Peek(lead + 2); err != nil {
			return readNonTransparentFrame(r, maxMessageSize)
		}
		lead++
	}

	if first[lead] >= '0' && first[lead] <= '9' {
		_, _ = r.Discard(lead)
		return readOctetCountedFrame(r, maxMessageSize)
	}
	return readNonTransparentFrame(r, maxMessageSize)
}

func readOctetCountedFrame(r *bufio.Reader, maxMessageSize int) ([]byte, error) {
	digits := make([]byte, 0, maxDigitRun)
	for {
		b, err := r.ReadByte()
		if err != nil {
			return nil, err
		}
		if b == ' ' {
			break
		}
		if b < '0' || b > '9' {
			return nil, fmt.Errorf("ingress: unexpected byte %q in octet-count length", b)
		}
		digits = append(digits, b)
		if len(digits) > maxDigitRun {
			return nil, ErrOverlongDigitRun
		}
	}

	length := 0
	for _, d := range digits {
		length = length*10 + int(d-'0')
	}
	if length > maxMessageSize {
		return nil, ErrFrameTooLarge
	}

	buf := make([]byte, length)
	if _, err := io.ReadFull(r, buf); err != nil {
		return nil, err
	}
	return buf, nil
}

func readNonTransparentFrame(r *bufio.Reader, maxMessageSize int) ([]byte, error) {
	line, err := r.ReadBytes('\n')
	if err != nil {
		// A non-empty trailing fragment with no terminating LF is a
		// truncated frame, not a valid message; surface it as EOF so the
		// caller closes the connection without emitting a partial record.
		if len(line) > 0 && errors.Is(err, io.EOF) {
			return nil, io.ErrUnexpectedEOF
		}
		return nil, err
	}
	line = line[:len(line)-1] // drop the LF
	if len(line) > 0 && line[len(line)-1] == '\r' {
		line = line[:len(line)-1]
	}
	if len(line) > maxMessageSize {
		return nil, ErrFrameTooLarge
	}
	return line, nil
}
