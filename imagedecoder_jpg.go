package imagereport

import (
	"bytes"
)

const (
	markerSOI  = 0xffd8
	markerEOI  = 0xffd9
	markerSOS  = 0xffda
	markerApp1 = 0xffe1
	markerTEM  = 0xff01
	markerRST0 = 0xffd0
	markerRST7 = 0xffd7
)

var markerXMP = []byte("http://ns.adobe.com/xap/1.0/\x00")

type imageDecoderJPEG struct {
	*baseStreamingDecoder
}

func (e *imageDecoderJPEG) decode() error {
	// JPEG SOI marker.
	soi, err := e.read2E()
	if err != nil || soi != markerSOI {
		return newUnreadableImageErrorf("jpeg: missing SOI marker")
	}

	for {
		if e.blocks.exif != nil && e.blocks.xmp != nil {
			// Done.
			return nil
		}

		marker := e.read2()
		if e.isEOF {
			return nil
		}

		if marker == 0 {
			continue
		}

		if marker == markerSOS || marker == markerEOI {
			// Start of scan. We're done.
			return nil
		}

		if marker>>8 != 0xff {
			return newUnreadableImageErrorf("jpeg: invalid marker %#04x", marker)
		}

		if marker == markerTEM || (marker >= markerRST0 && marker <= markerRST7) {
			// No payload.
			continue
		}

		// Read the 16-bit length of the segment. The value includes the 2 bytes for the
		// length itself, so we subtract 2 to get the number of remaining bytes.
		length := e.read2()
		if length < 2 {
			return newUnreadableImageErrorf("jpeg: invalid segment length %d", length)
		}
		length -= 2

		if marker != markerApp1 {
			e.skip(int64(length))
			continue
		}

		b, err := e.readBlock(int64(length))
		if err != nil {
			return err
		}

		switch {
		case e.blocks.exif == nil && bytes.HasPrefix(b, exifHeader):
			e.blocks.exif = b[len(exifHeader):]
		case e.blocks.xmp == nil && bytes.HasPrefix(b, markerXMP):
			e.blocks.xmp = b[len(markerXMP):]
		}
	}
}
