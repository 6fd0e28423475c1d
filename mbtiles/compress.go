package mbtiles

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zlib"
)

// ChunkSize bounds how much compressed input is buffered and how much
// inflated output is produced per step.
const ChunkSize = 32 << 10

// Envelope is the container wrapped around a deflate stream.
type Envelope string

const (
	EnvelopeGzip Envelope = "gzip"
	EnvelopeZlib Envelope = "zlib"
)

// DetectEnvelope inspects the first two bytes of a payload.
func DetectEnvelope(head []byte) (Envelope, bool) {
	if len(head) < 2 {
		return "", false
	}
	if head[0] == 0x1f && head[1] == 0x8b {
		return EnvelopeGzip, true
	}
	// RFC 1950: CM=8 (deflate), CINFO<=7, and the header is a multiple of 31.
	if head[0]&0x0f == 8 && head[0]>>4 <= 7 && (uint16(head[0])<<8|uint16(head[1]))%31 == 0 {
		return EnvelopeZlib, true
	}
	return "", false
}

// Inflate decompresses a gzip or zlib payload read from r. Every failure,
// whatever its cause, satisfies errors.Is(err, ErrInflate).
func Inflate(r io.Reader) ([]byte, error) {
	br := bufio.NewReaderSize(r, ChunkSize)
	head, err := br.Peek(2)
	if err != nil {
		return nil, inflateError(err)
	}

	envelope, ok := DetectEnvelope(head)
	if !ok {
		return nil, inflateError(ErrUnknownEnvelope)
	}

	var dec io.ReadCloser
	switch envelope {
	case EnvelopeGzip:
		zr, err := gzip.NewReader(br)
		if err != nil {
			return nil, inflateError(err)
		}
		// Stop at the end of the first member; trailing bytes are ignored
		// just as they are for zlib.
		zr.Multistream(false)
		dec = zr
	case EnvelopeZlib:
		zr, err := zlib.NewReader(br)
		if err != nil {
			return nil, inflateError(err)
		}
		dec = zr
	}
	defer dec.Close()

	var out []byte
	chunk := make([]byte, ChunkSize)
	for {
		n, err := dec.Read(chunk)
		out = append(out, chunk[:n]...)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, inflateError(err)
		}
	}
	if err := dec.Close(); err != nil {
		return nil, inflateError(err)
	}
	return out, nil
}

// InflateBytes is Inflate over an in-memory payload.
func InflateBytes(payload []byte) ([]byte, error) {
	return Inflate(bytes.NewReader(payload))
}

func inflateError(err error) error {
	return fmt.Errorf("%w: %w", ErrInflate, err)
}

// Compress wraps data in the given envelope.
func Compress(envelope Envelope, data []byte) ([]byte, error) {
	var buf bytes.Buffer
	var w io.WriteCloser
	switch envelope {
	case EnvelopeGzip:
		w = gzip.NewWriter(&buf)
	case EnvelopeZlib:
		w = zlib.NewWriter(&buf)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownEnvelope, envelope)
	}
	if _, err := w.Write(data); err != nil {
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
