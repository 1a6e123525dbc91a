// Copyright 2024 Bjørn Erik Pedersen
// SPDX-License-Identifier: MIT

// Package imagereport reads the EXIF capture settings and the Lightroom/Camera Raw
// XMP edit settings from images and renders them as a text report.
package imagereport

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"
)

// UnknownPrefix is used as prefix for unknown tags.
const UnknownPrefix = "UnknownTag_"

// ImageFormat is the image format.
type ImageFormat int

const (
	// ImageFormatAuto signals that the image format should be detected from the file signature.
	ImageFormatAuto ImageFormat = iota
	// JPEG is the JPEG image format.
	JPEG
	// TIFF is the TIFF image format.
	TIFF
	// PNG is the PNG image format.
	PNG
	// WebP is the WebP image format.
	WebP
)

func (f ImageFormat) String() string {
	switch f {
	case ImageFormatAuto:
		return "auto"
	case JPEG:
		return "JPEG"
	case TIFF:
		return "TIFF"
	case PNG:
		return "PNG"
	case WebP:
		return "WebP"
	default:
		return fmt.Sprintf("ImageFormat(%d)", int(f))
	}
}

// ImageFormatFromExt returns the image format for the given file extension,
// with or without the leading dot, e.g. ".jpg" or "JPEG".
func ImageFormatFromExt(ext string) (ImageFormat, bool) {
	switch strings.ToLower(strings.TrimPrefix(ext, ".")) {
	case "jpg", "jpeg", "jpe", "jfif":
		return JPEG, true
	case "tif", "tiff":
		return TIFF, true
	case "png":
		return PNG, true
	case "webp":
		return WebP, true
	}
	return ImageFormatAuto, false
}

// Options contains the options for the Extract and Decode functions.
type Options struct {
	// The Reader (typically a *os.File) to read image metadata from.
	R io.ReadSeeker

	// The image format in R.
	// If not set, the format is detected from the file signature.
	ImageFormat ImageFormat

	// Warnf will be called for each warning, e.g. a dropped field or a malformed XMP packet.
	Warnf func(string, ...any)

	// Timeout is the maximum time the decoder will spend on reading metadata.
	// Mostly useful for testing.
	// If set to 0, the decoder will not time out.
	Timeout time.Duration
}

// RawData is the raw metadata of an image as read from the container.
type RawData struct {
	// Tags holds the EXIF tags from IFD0 and the EXIF sub-IFD.
	Tags RawTagSet
	// XMP is the raw XMP packet, nil if the image has none.
	XMP []byte
}

// Record decodes and reconciles d into a Record.
func (d RawData) Record() Record {
	return d.record(func(string, ...any) {})
}

func (d RawData) record(warnf func(string, ...any)) Record {
	return Reconcile(decodeTags(d.Tags, warnf), parseXMP(d.XMP, warnf))
}

// Decode reads the metadata from opts.R and returns the reconciled Record.
// An image without metadata is not an error; the Record will be empty.
func Decode(opts Options) (Record, error) {
	if opts.Warnf == nil {
		opts.Warnf = func(string, ...any) {}
	}
	raw, err := Extract(opts)
	if err != nil {
		return Record{}, err
	}
	return raw.record(opts.Warnf), nil
}

// Extract reads the raw EXIF tags and XMP packet from opts.R.
// If the container cannot be read, the error satisfies IsUnreadableImage.
// A corrupt EXIF block is reported through opts.Warnf.
func Extract(opts Options) (RawData, error) {
	if opts.R == nil {
		return RawData{}, errors.New("no reader provided")
	}
	if opts.Warnf == nil {
		opts.Warnf = func(string, ...any) {}
	}
	switch opts.ImageFormat {
	case ImageFormatAuto:
		f, err := detectImageFormat(opts.R)
		if err != nil {
			return RawData{}, err
		}
		opts.ImageFormat = f
	case JPEG, TIFF, PNG, WebP:
	default:
		return RawData{}, fmt.Errorf("unsupported image format %s", opts.ImageFormat)
	}

	blocks, err := extractBlocks(opts)
	if err != nil {
		return RawData{}, err
	}

	return RawData{
		Tags: decodeEXIF(blocks.exif, opts.Warnf),
		XMP:  blocks.xmp,
	}, nil
}

// metaBlocks holds the metadata payloads found in the container.
type metaBlocks struct {
	// exif is a TIFF structured EXIF block, possibly prefixed with "Exif\0\0".
	exif []byte
	xmp  []byte
}

type baseStreamingDecoder struct {
	*streamReader
	opts   Options
	blocks metaBlocks
}

func (d *baseStreamingDecoder) streamErr() error {
	return d.readErr
}

func extractBlocks(opts Options) (blocks metaBlocks, err error) {
	var base *baseStreamingDecoder

	errFinal := func(err2 error) error {
		if (err2 == nil || err2 == errStop) && base != nil {
			err2 = base.streamErr()
		}

		if err2 == nil || err2 == errStop {
			return nil
		}

		return newUnreadableImageError(err2)
	}

	defer func() {
		err = errFinal(err)
	}()

	errFromRecover := func(r any) (err2 error) {
		if r == nil {
			return nil
		}
		if errp, ok := r.(error); ok {
			err2 = errp
		} else {
			err2 = fmt.Errorf("unknown panic: %v", r)
		}
		return
	}

	defer func() {
		err2 := errFromRecover(recover())
		if err == nil {
			err = err2
		}
	}()

	if _, err := opts.R.Seek(0, io.SeekStart); err != nil {
		return blocks, err
	}

	br := &streamReader{
		r:         opts.R,
		byteOrder: binary.BigEndian,
	}

	base = &baseStreamingDecoder{
		streamReader: br,
		opts:         opts,
	}

	var dec decoder

	switch opts.ImageFormat {
	case JPEG:
		dec = &imageDecoderJPEG{baseStreamingDecoder: base}
	case TIFF:
		dec = &imageDecoderTIF{baseStreamingDecoder: base}
	case PNG:
		dec = &imageDecoderPNG{baseStreamingDecoder: base}
	case WebP:
		base.byteOrder = binary.LittleEndian
		dec = &imageDecoderWebP{baseStreamingDecoder: base}
	default:
		return blocks, fmt.Errorf("unsupported image format %s", opts.ImageFormat)
	}

	decode := func() chan error {
		errc := make(chan error, 1)
		go func() {
			defer func() {
				err2 := errFromRecover(recover())
				if err2 != nil {
					errc <- err2
				}
			}()
			errc <- dec.decode()
		}()
		return errc
	}

	if opts.Timeout > 0 {
		select {
		case <-time.After(opts.Timeout):
			// The decoder goroutine may still be running.
			base = nil
			return metaBlocks{}, fmt.Errorf("timed out after %s", opts.Timeout)
		case err = <-decode():
		}
	} else {
		err = dec.decode()
	}

	return base.blocks, err
}

// detectImageFormat detects the image format from the signature at the start of r.
func detectImageFormat(r io.ReadSeeker) (ImageFormat, error) {
	var b [12]byte
	if _, err := r.Seek(0, io.SeekStart); err != nil {
		return ImageFormatAuto, err
	}
	n, err := io.ReadFull(r, b[:])
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return ImageFormatAuto, newUnreadableImageError(err)
	}
	if _, err := r.Seek(0, io.SeekStart); err != nil {
		return ImageFormatAuto, err
	}
	sig := b[:n]

	switch {
	case bytes.HasPrefix(sig, []byte{0xff, 0xd8}):
		return JPEG, nil
	case bytes.HasPrefix(sig, []byte("II*\x00")), bytes.HasPrefix(sig, []byte("MM\x00*")):
		return TIFF, nil
	case bytes.HasPrefix(sig, pngSignature):
		return PNG, nil
	case len(sig) == 12 && string(sig[:4]) == "RIFF" && string(sig[8:]) == "WEBP":
		return WebP, nil
	}
	return ImageFormatAuto, newUnreadableImageErrorf("unknown image format")
}
