// Package compression implements the stream codecs used for vault backups.
package compression

import (
	"compress/gzip"
	"fmt"
	"io"

	"github.com/klauspost/compress/zstd"
)

// Codec names accepted by Compress and Decompress.
const (
	CodecGzip = "gzip"
	CodecZstd = "zstd"
)

// Compress copies r through the named codec into w and returns the number
// of compressed bytes written.
func Compress(codec string, r io.Reader, w io.Writer) (int64, error) {
	switch codec {
	case CodecGzip:
		return CompressGzip(r, w)
	case CodecZstd:
		return CompressZstd(r, w)
	default:
		return 0, fmt.Errorf("unknown codec %q", codec)
	}
}

// Decompress copies compressed data from r through the named codec into w
// and returns the number of decompressed bytes written.
func Decompress(codec string, r io.Reader, w io.Writer) (int64, error) {
	switch codec {
	case CodecGzip:
		return DecompressGzip(r, w)
	case CodecZstd:
		return DecompressZstd(r, w)
	default:
		return 0, fmt.Errorf("unknown codec %q", codec)
	}
}

// CompressGzip compresses using standard gzip
func CompressGzip(r io.Reader, w io.Writer) (int64, error) {
	counter := &byteCounter{w: w}
	gz := gzip.NewWriter(counter)

	if _, err := io.Copy(gz, r); err != nil {
		gz.Close()
		return 0, err
	}
	if err := gz.Close(); err != nil {
		return 0, err
	}

	return counter.Count(), nil
}

// DecompressGzip decompresses gzip data
func DecompressGzip(r io.Reader, w io.Writer) (int64, error) {
	gz, err := gzip.NewReader(r)
	if err != nil {
		return 0, err
	}
	defer gz.Close()

	return io.Copy(w, gz)
}

// CompressZstd compresses using zstd
func CompressZstd(r io.Reader, w io.Writer) (int64, error) {
	counter := &byteCounter{w: w}
	enc, err := zstd.NewWriter(counter)
	if err != nil {
		return 0, err
	}

	if _, err := io.Copy(enc, r); err != nil {
		enc.Close()
		return 0, err
	}
	if err := enc.Close(); err != nil {
		return 0, err
	}

	return counter.Count(), nil
}

// DecompressZstd decompresses zstd data
func DecompressZstd(r io.Reader, w io.Writer) (int64, error) {
	dec, err := zstd.NewReader(r)
	if err != nil {
		return 0, err
	}
	defer dec.Close()

	return io.Copy(w, dec)
}

// byteCounter wraps an io.Writer and counts bytes written
type byteCounter struct {
	w     io.Writer
	count int64
}

func (bc *byteCounter) Write(p []byte) (int, error) {
	n, err := bc.w.Write(p)
	bc.count += int64(n)
	return n, err
}

func (bc *byteCounter) Count() int64 {
	return bc.count
}
