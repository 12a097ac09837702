package source

import (
	"fmt"
	"io"
	"strings"

	"github.com/klauspost/compress/zstd"
)

// IsCompressed checks if a name refers to a zstd-compressed input.
func IsCompressed(name string) bool {
	return strings.HasSuffix(name, ".zst") || strings.HasSuffix(name, ".zstd")
}

// useZstd resolves the compression setting for an input name.
func useZstd(name, compression string) bool {
	switch compression {
	case "zstd":
		return true
	case "none":
		return false
	default:
		return IsCompressed(name)
	}
}

// decompressed layers a zstd decoder over rc. Closing the result closes both.
func decompressed(rc io.ReadCloser) (io.ReadCloser, error) {
	dec, err := zstd.NewReader(rc, zstd.WithDecoderConcurrency(1))
	if err != nil {
		rc.Close()
		return nil, fmt.Errorf("create zstd decoder: %w", err)
	}
	return &zstdReadCloser{dec: dec, under: rc}, nil
}

type zstdReadCloser struct {
	dec   *zstd.Decoder
	under io.ReadCloser
}

func (z *zstdReadCloser) Read(p []byte) (int, error) {
	n, err := z.dec.Read(p)
	if err != nil && err != io.EOF {
		return n, fmt.Errorf("zstd decompress: %w", err)
	}
	return n, err
}

func (z *zstdReadCloser) Close() error {
	z.dec.Close()
	return z.under.Close()
}
