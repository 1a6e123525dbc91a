package imagereport

import (
	"bytes"
	"compress/zlib"
	"encoding/binary"
	"io"
)

var pngSignature = []byte("\x89PNG\r\n\x1a\n")

var (
	pngChunkEXIF = pngChunkType("eXIf")
	pngChunkITXT = pngChunkType("iTXt")
	pngChunkIEND = pngChunkType("IEND")
)

const pngXMPKeyword = "XML:com.adobe.xmp"

func pngChunkType(s string) uint32 {
	return binary.BigEndian.Uint32([]byte(s))
}

type imageDecoderPNG struct {
	*baseStreamingDecoder
}

func (e *imageDecoderPNG) decode() error {
	// http://ftp-osl.osuosl.org/pub/libpng/documents/pngext-1.5.0.html#C.eXIf
	// The data segment of the eXIf chunk contains an Exif profile in the format specified in "4.7.2 Interoperability Structure of APP1 in Compressed Data"
	// of [CIPA DC-008-2016] except that the JPEG APP1 marker, length, and the "Exif ID code" described in 4.7.2(C), i.e., "Exif", NULL, and padding byte, are not included.
	sig, err := e.readBytesVolatileE(len(pngSignature))
	if err != nil || !bytes.Equal(sig, pngSignature) {
		return newUnreadableImageErrorf("png: invalid signature")
	}

	for {
		if e.blocks.exif != nil && e.blocks.xmp != nil {
			return nil
		}

		chunkLength := e.read4()
		if e.isEOF {
			// No IEND chunk.
			return nil
		}
		typ := e.read4()

		switch typ {
		case pngChunkIEND:
			return nil
		case pngChunkEXIF:
			b, err := e.readBlock(int64(chunkLength))
			if err != nil {
				return err
			}
			if e.blocks.exif == nil {
				e.blocks.exif = b
			}
		case pngChunkITXT:
			b, err := e.readBlock(int64(chunkLength))
			if err != nil {
				return err
			}
			if e.blocks.xmp == nil {
				xmp, err := pngXMP(b)
				if err != nil {
					e.opts.Warnf("png: %s", err)
				}
				e.blocks.xmp = xmp
			}
		default:
			e.skip(int64(chunkLength))
		}

		e.skip(4) // skip CRC
	}
}

// pngXMP returns the XMP packet in an iTXt chunk, nil if the chunk holds some other text.
//
// The iTXt layout is: keyword, NUL, compression flag, compression method,
// language tag, NUL, translated keyword, NUL, text.
func pngXMP(b []byte) ([]byte, error) {
	keyword, rest, ok := bytes.Cut(b, []byte{0})
	if !ok || string(keyword) != pngXMPKeyword || len(rest) < 2 {
		return nil, nil
	}
	compressed := rest[0] == 1
	rest = rest[2:]

	// Language tag and translated keyword.
	for range 2 {
		if _, rest, ok = bytes.Cut(rest, []byte{0}); !ok {
			return nil, nil
		}
	}

	if !compressed {
		return rest, nil
	}

	zr, err := zlib.NewReader(bytes.NewReader(rest))
	if err != nil {
		return nil, err
	}
	defer zr.Close()
	return io.ReadAll(io.LimitReader(zr, maxBufSize))
}
