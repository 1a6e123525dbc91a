package imagereport

import (
	"encoding/binary"
	"io"
)

const (
	byteOrderBigEndian    = 0x4d4d // MM
	byteOrderLittleEndian = 0x4949 // II
)

type imageDecoderTIF struct {
	*baseStreamingDecoder
}

func (e *imageDecoderTIF) decode() error {
	const (
		xmpTag        = 0x02bc
		meaningOfLife = 42
	)

	byteOrderTag := e.read2()
	switch byteOrderTag {
	case byteOrderBigEndian:
		e.byteOrder = binary.BigEndian
	case byteOrderLittleEndian:
		e.byteOrder = binary.LittleEndian
	default:
		return newUnreadableImageErrorf("tiff: invalid byte order %#04x", byteOrderTag)
	}

	if id := e.read2(); id != meaningOfLife {
		return newUnreadableImageErrorf("tiff: invalid magic number %d", id)
	}

	ifdOffset := e.read4()
	if ifdOffset < 8 {
		return newUnreadableImageErrorf("tiff: invalid IFD0 offset %d", ifdOffset)
	}

	e.seek(int64(ifdOffset))

	entryCount := e.read2()
	if e.isEOF {
		return newUnreadableImageErrorf("tiff: IFD0 offset %d out of range", ifdOffset)
	}

	for range int(entryCount) {
		tag := e.read2()
		// Skip type
		e.skip(2)
		count := e.read4()
		valueOffset := e.read4() // Offset relative to the start of the file.
		if e.isEOF {
			return newUnreadableImageErrorf("tiff: truncated IFD0")
		}
		// Values of 4 bytes or less are stored inline, which is too small to hold an XMP packet.
		if tag == xmpTag && count > 4 {
			e.seek(int64(valueOffset))
			b, err := e.readBlock(int64(count))
			if err != nil {
				return err
			}
			e.blocks.xmp = b
			break
		}
	}

	// The TIFF file itself is the EXIF block.
	size, err := e.r.Seek(0, io.SeekEnd)
	if err != nil {
		return newUnreadableImageError(err)
	}
	if size > maxBufSize {
		e.opts.Warnf("tiff: reading the first %d of %d bytes", maxBufSize, size)
		size = maxBufSize
	}
	e.seek(0)
	b, err := e.readBlock(size)
	if err != nil {
		return err
	}
	e.blocks.exif = b

	return nil
}
