// Copyright 2024 Bjørn Erik Pedersen
// SPDX-License-Identifier: MIT

package imagereport

import (
	"errors"
	"fmt"
)

var (
	// ErrUnreadableImage is returned when an image container cannot be read,
	// e.g. because of a bad signature or a truncated segment.
	// Use IsUnreadableImage to check for it.
	ErrUnreadableImage = errors.New("imagereport: unreadable image")

	// Internal error to signal that we should stop any further processing.
	errStop = errors.New("stop")

	errUnsupportedTagValue = errors.New("unsupported tag value")
	errMalformedXMP        = errors.New("malformed XMP")
)

// IsUnreadableImage reports whether err means the image could not be read at all.
func IsUnreadableImage(err error) bool {
	return errors.Is(err, ErrUnreadableImage)
}

func newUnreadableImageError(err error) error {
	if IsUnreadableImage(err) {
		return err
	}
	return fmt.Errorf("%w: %w", ErrUnreadableImage, err)
}

func newUnreadableImageErrorf(format string, args ...any) error {
	return newUnreadableImageError(fmt.Errorf(format, args...))
}

func newMalformedXMPError(err error) error {
	return fmt.Errorf("%w: %w", errMalformedXMP, err)
}
