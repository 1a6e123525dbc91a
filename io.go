// Copyright 2024 Bjørn Erik Pedersen
// SPDX-License-Identifier: MIT

package imagereport

import (
	"encoding/binary"
	"errors"
	"io"
)

var errShortRead = errors.New("short read")

type decoder interface {
	decode() error
}

// streamReader is a wrapper around a Reader that provides methods to read binary data.
// Note that this is not thread safe.
type streamReader struct {
	r         io.ReadSeeker
	byteOrder binary.ByteOrder

	buf []byte

	isEOF   bool
	readErr error
}

// 10 MB should be plenty for image metadata.
const maxBufSize = 10 * 1024 * 1024

// readBlock reads length bytes from the stream into a new slice.
func (e *streamReader) readBlock(length int64) ([]byte, error) {
	if length > maxBufSize {
		return nil, newUnreadableImageErrorf("length %d exceeds max %d", length, maxBufSize)
	}
	if length < 0 {
		return nil, newUnreadableImageErrorf("negative length")
	}
	b := make([]byte, length)
	if _, err := io.ReadFull(e.r, b); err != nil {
		if err == io.EOF {
			err = io.ErrUnexpectedEOF
		}
		return nil, newUnreadableImageError(err)
	}
	return b, nil
}

func (e *streamReader) allocateBuf(length int) {
	if length > cap(e.buf) {
		e.buf = make([]byte, length)
	}
}

func (e *streamReader) read2() uint16 {
	const n = 2
	e.readNIntoBuf(n)
	return e.byteOrder.Uint16(e.buf[:n])
}

func (e *streamReader) read2E() (uint16, error) {
	const n = 2
	if err := e.readNIntoBufE(n); err != nil {
		return 0, err
	}
	return e.byteOrder.Uint16(e.buf[:n]), nil
}

func (e *streamReader) read4() uint32 {
	const n = 4
	e.readNIntoBuf(n)
	return e.byteOrder.Uint32(e.buf[:n])
}

// readBytesVolatileE reads a slice of bytes from the stream
// which is not guaranteed to be valid after the next read.
func (e *streamReader) readBytesVolatileE(n int) ([]byte, error) {
	err := e.readNIntoBufE(n)
	if err != nil {
		return nil, err
	}
	return e.buf[:n], nil
}

func (e *streamReader) readNIntoBuf(n int) {
	if err := e.readNIntoBufE(n); err != nil {
		e.stop(err)
	}
}

func (e *streamReader) readNIntoBufE(n int) error {
	e.allocateBuf(n)
	n2, err := io.ReadFull(e.r, e.buf[:n])
	if err != nil {
		return err
	}
	if n != n2 {
		return errShortRead
	}
	return nil
}

func (e *streamReader) seek(pos int64) {
	_, err := e.r.Seek(pos, io.SeekStart)
	if err != nil {
		e.stop(err)
	}
}

func (e *streamReader) skip(n int64) {
	if _, err := e.r.Seek(n, io.SeekCurrent); err != nil {
		e.stop(err)
	}
}

func (e *streamReader) stop(err error) {
	// Allow one silent EOF.
	// This allows the client to not having to check for EOF on every read.
	if err == io.EOF && !e.isEOF {
		e.isEOF = true
		e.allocateBuf(8)
		clear(e.buf)
		return
	}
	if err != nil {
		e.readErr = err
	}
	panic(errStop)
}
