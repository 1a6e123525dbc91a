package imagereport

import (
	"io"

	"golang.org/x/image/riff"
)

var (
	fccVP8X = riff.FourCC{'V', 'P', '8', 'X'}
	fccWEBP = riff.FourCC{'W', 'E', 'B', 'P'}
	fccEXIF = riff.FourCC{'E', 'X', 'I', 'F'}
	fccXMP  = riff.FourCC{'X', 'M', 'P', ' '}
)

type imageDecoderWebP struct {
	*baseStreamingDecoder
}

func (e *imageDecoderWebP) decode() error {
	formType, riffReader, err := riff.NewReader(e.r)
	if err != nil {
		return newUnreadableImageError(err)
	}
	if formType != fccWEBP {
		return newUnreadableImageErrorf("webp: invalid form type %q", formType[:])
	}

	var buf [10]byte

	for {
		if e.blocks.exif != nil && e.blocks.xmp != nil {
			return nil
		}

		chunkID, chunkLen, chunkData, err := riffReader.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return newUnreadableImageError(err)
		}

		switch chunkID {
		case fccVP8X:
			if chunkLen != 10 {
				return newUnreadableImageErrorf("webp: invalid VP8X chunk length %d", chunkLen)
			}
			const (
				xmpMetadataBit  = 1 << 2
				exifMetadataBit = 1 << 3
			)
			if _, err := io.ReadFull(chunkData, buf[:10]); err != nil {
				return newUnreadableImageError(err)
			}

			if buf[0]&(exifMetadataBit|xmpMetadataBit) == 0 {
				return nil
			}
		case fccEXIF, fccXMP:
			if chunkLen > maxBufSize {
				return newUnreadableImageErrorf("webp: chunk length %d exceeds max %d", chunkLen, maxBufSize)
			}
			b := make([]byte, chunkLen)
			if _, err := io.ReadFull(chunkData, b); err != nil {
				return newUnreadableImageError(err)
			}
			if chunkID == fccEXIF {
				if e.blocks.exif == nil {
					e.blocks.exif = b
				}
			} else if e.blocks.xmp == nil {
				e.blocks.xmp = b
			}
		}
	}
}
