// Package image loads program images from disk, decompressing them when the
// file extension asks for it.
package image

import (
	"bytes"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/andybalholm/brotli"
	"github.com/bodgit/sevenzip"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zip"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
	"github.com/pkg/errors"
	"github.com/ulikunitz/xz"
)

// MaxSize is the largest image that fits the 16 bit address space.
const MaxSize = 0x10000

// Load reads the image at filename. Files ending in .gz, .xz, .zst, .lz4 or
// .br are decompressed; for .zip and .7z archives the first regular file in
// the archive is used. Anything else is returned as is.
func Load(filename string) ([]byte, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, errors.Wrap(err, "read image")
	}

	ext := strings.ToLower(filepath.Ext(filename))
	raw, err := Decode(ext, data)
	if err != nil {
		return nil, errors.Wrapf(err, "decode %s", filename)
	}

	slog.Debug("Loaded image file", "path", filename, "format", formatName(ext), "size", len(raw))
	return raw, nil
}

// Decode turns the contents of a file with the given extension (".gz",
// ".zip", ...) into a raw image.
func Decode(ext string, data []byte) ([]byte, error) {
	var decoder io.Reader
	switch ext {
	case ".gz":
		r, err := gzip.NewReader(bytes.NewReader(data))
		if err != nil {
			return nil, err
		}
		defer r.Close()
		decoder = r
	case ".xz":
		r, err := xz.NewReader(bytes.NewReader(data))
		if err != nil {
			return nil, err
		}
		decoder = r
	case ".zst":
		r, err := zstd.NewReader(bytes.NewReader(data))
		if err != nil {
			return nil, err
		}
		defer r.Close()
		decoder = r
	case ".lz4":
		decoder = lz4.NewReader(bytes.NewReader(data))
	case ".br":
		decoder = brotli.NewReader(bytes.NewReader(data))
	case ".zip":
		return firstZipEntry(data)
	case ".7z":
		return firstSevenZipEntry(data)
	default:
		return checkSize(data)
	}

	return readAll(decoder)
}

func firstZipEntry(data []byte) ([]byte, error) {
	r, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, err
	}
	for _, f := range r.File {
		if f.FileInfo().IsDir() {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return nil, errors.Wrapf(err, "open %s", f.Name)
		}
		defer rc.Close()
		return readAll(rc)
	}
	return nil, errors.New("archive contains no files")
}

func firstSevenZipEntry(data []byte) ([]byte, error) {
	r, err := sevenzip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, err
	}
	for _, f := range r.File {
		if f.FileInfo().IsDir() {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return nil, errors.Wrapf(err, "open %s", f.Name)
		}
		defer rc.Close()
		return readAll(rc)
	}
	return nil, errors.New("archive contains no files")
}

// readAll drains r, refusing images that cannot fit in memory.
func readAll(r io.Reader) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(r, MaxSize+1))
	if err != nil {
		return nil, err
	}
	return checkSize(data)
}

func checkSize(data []byte) ([]byte, error) {
	if len(data) > MaxSize {
		return nil, errors.Errorf("image is larger than %d bytes", MaxSize)
	}
	return data, nil
}

func formatName(ext string) string {
	switch ext {
	case ".gz", ".xz", ".zst", ".lz4", ".br", ".zip", ".7z":
		return ext[1:]
	}
	return "raw"
}
