// Package compression wraps payloads with a one-byte algorithm tag so readers
// can decode them without out-of-band configuration.
package compression

import (
	"bytes"
	"compress/gzip"
	"errors"
	"fmt"
	"io"

	"github.com/dsnet/compress/bzip2"
)

const (
	None  = "none"
	Gzip  = "gzip"
	Bzip2 = "bzip2"
)

const (
	tagNone byte = iota
	tagGzip
	tagBzip2
)

var ErrUnsupported = errors.New("unsupported compression")

// NewWriter returns an io.WriteCloser that wraps w with the requested compression.
// Supported: "gzip", "bzip2", or "" / "none".
func NewWriter(w io.Writer, algo string) (io.WriteCloser, error) {
	switch algo {
	case Gzip:
		return gzip.NewWriter(w), nil
	case Bzip2:
		return bzip2.NewWriter(w, &bzip2.WriterConfig{Level: bzip2.BestCompression})
	case "", None:
		return nopWriteCloser{w}, nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupported, algo)
	}
}

func NewReader(r io.Reader, algo string) (io.Reader, error) {
	switch algo {
	case Gzip:
		return gzip.NewReader(r)
	case Bzip2:
		return bzip2.NewReader(r, nil)
	case "", None:
		return r, nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupported, algo)
	}
}

// Encode compresses data and prefixes the algorithm tag.
func Encode(data []byte, algo string) ([]byte, error) {
	tag, err := tagFor(algo)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	buf.WriteByte(tag)
	w, err := NewWriter(&buf, algo)
	if err != nil {
		return nil, err
	}
	if _, err := w.Write(data); err != nil {
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Decode reverses Encode. Empty input decodes to nil.
func Decode(data []byte) ([]byte, error) {
	if len(data) == 0 {
		return nil, nil
	}
	algo, err := algoFor(data[0])
	if err != nil {
		return nil, err
	}
	r, err := NewReader(bytes.NewReader(data[1:]), algo)
	if err != nil {
		return nil, err
	}
	return io.ReadAll(r)
}

// Supported reports whether algo can be used with Encode.
func Supported(algo string) error {
	_, err := tagFor(algo)
	return err
}

func tagFor(algo string) (byte, error) {
	switch algo {
	case "", None:
		return tagNone, nil
	case Gzip:
		return tagGzip, nil
	case Bzip2:
		return tagBzip2, nil
	}
	return 0, fmt.Errorf("%w: %s", ErrUnsupported, algo)
}

func algoFor(tag byte) (string, error) {
	switch tag {
	case tagNone:
		return None, nil
	case tagGzip:
		return Gzip, nil
	case tagBzip2:
		return Bzip2, nil
	}
	return "", fmt.Errorf("%w: tag %d", ErrUnsupported, tag)
}
