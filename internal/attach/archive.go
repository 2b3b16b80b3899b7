// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

package attach

import (
	"archive/tar"
	"fmt"
	"io"
	"io/fs"

	"github.com/klauspost/compress/flate"
	"github.com/klauspost/compress/zip"
	"github.com/klauspost/compress/zstd"
)

// Archive formats.
const (
	FormatZip    = "zip"
	FormatTarZst = "tar.zst"
)

// Extension returns the file extension for an archive format.
func Extension(format string) string {
	return "." + format
}

// ValidFormat reports whether format is supported.
func ValidFormat(format string) bool {
	return format == FormatZip || format == FormatTarZst
}

// archiveWriter adds entries to a flat archive.
type archiveWriter interface {
	add(name string, info fs.FileInfo, r io.Reader) error
	Close() error
}

func newArchiveWriter(format string, level int, w io.Writer) (archiveWriter, error) {
	switch format {
	case FormatZip:
		return newZipArchive(w, level), nil
	case FormatTarZst:
		return newTarZstArchive(w, level)
	default:
		return nil, fmt.Errorf("unsupported archive format %q", format)
	}
}

type zipArchive struct {
	zw *zip.Writer
}

func newZipArchive(w io.Writer, level int) *zipArchive {
	zw := zip.NewWriter(w)
	zw.RegisterCompressor(zip.Deflate, func(out io.Writer) (io.WriteCloser, error) {
		return flate.NewWriter(out, level)
	})
	return &zipArchive{zw: zw}
}

func (a *zipArchive) add(name string, info fs.FileInfo, r io.Reader) error {
	hdr, err := zip.FileInfoHeader(info)
	if err != nil {
		return err
	}
	hdr.Name = name
	hdr.Method = zip.Deflate

	w, err := a.zw.CreateHeader(hdr)
	if err != nil {
		return err
	}
	_, err = io.CopyN(w, r, info.Size())
	return err
}

func (a *zipArchive) Close() error {
	return a.zw.Close()
}

type tarZstArchive struct {
	enc *zstd.Encoder
	tw  *tar.Writer
}

func newTarZstArchive(w io.Writer, level int) (*tarZstArchive, error) {
	enc, err := zstd.NewWriter(w, zstd.WithEncoderLevel(zstd.EncoderLevelFromZstd(level)))
	if err != nil {
		return nil, err
	}
	return &tarZstArchive{enc: enc, tw: tar.NewWriter(enc)}, nil
}

func (a *tarZstArchive) add(name string, info fs.FileInfo, r io.Reader) error {
	hdr, err := tar.FileInfoHeader(info, "")
	if err != nil {
		return err
	}
	hdr.Name = name
	hdr.Uname, hdr.Gname = "", ""

	if err := a.tw.WriteHeader(hdr); err != nil {
		return err
	}
	_, err = io.CopyN(a.tw, r, info.Size())
	return err
}

func (a *tarZstArchive) Close() error {
	if err := a.tw.Close(); err != nil {
		a.enc.Close()
		return err
	}
	return a.enc.Close()
}
