package imagereport_test

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"hash/crc32"
	"io"
	"slices"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/bep/imagereport"

	qt "github.com/frankban/quicktest"
)

const sampleXMP = `<x:xmpmeta xmlns:x="adobe:ns:meta/">
 <rdf:RDF xmlns:rdf="http://www.w3.org/1999/02/22-rdf-syntax-ns#">
  <rdf:Description rdf:about=""
    xmlns:xmp="http://ns.adobe.com/xap/1.0/"
    xmlns:crs="http://ns.adobe.com/camera-raw-settings/1.0/"
    xmp:CreatorTool="Adobe Lightroom 7.4.1 (Windows)"
    crs:Exposure2012="+0.28"
    crs:Contrast2012="+5"
    crs:Highlights2012="-81"
    crs:Shadows2012="+54"
    crs:Whites2012="-3"
    crs:Blacks2012="-12"
    crs:Texture="0"
    crs:PerspectiveScale="100"
    crs:HasCrop="True"
    crs:CropLeft="0.3333"
    crs:CropTop="0"
    crs:CropRight="1"
    crs:CropBottom="1">
   <crs:ToneCurveName2012>Linear</crs:ToneCurveName2012>
  </rdf:Description>
 </rdf:RDF>
</x:xmpmeta>`

func sampleTags(c *qt.C) imagereport.RawTagSet {
	c.Helper()
	rat := func(num, den int64) imagereport.TagValue {
		v, err := imagereport.RationalValue(num, den)
		c.Assert(err, qt.IsNil)
		return v
	}
	return imagereport.RawTagSet{
		imagereport.TagMake:             imagereport.StringValue("Canon"),
		imagereport.TagModel:            imagereport.StringValue("EOS 200D"),
		imagereport.TagLensModel:        imagereport.StringValue("EF85mm f/1.8 USM"),
		imagereport.TagFNumber:          rat(28, 10),
		imagereport.TagExposureTime:     rat(1, 30),
		imagereport.TagISOSpeedRatings:  imagereport.IntValue(400),
		imagereport.TagFocalLength:      rat(85, 1),
		imagereport.TagExposureProgram:  imagereport.IntValue(1),
		imagereport.TagWhiteBalance:     imagereport.IntValue(0),
		imagereport.TagDateTimeOriginal: imagereport.StringValue("2024:07:30 22:12:59"),
	}
}

// TIFF data types.
const (
	tiffASCII     = 2
	tiffShort     = 3
	tiffLong      = 4
	tiffRational  = 5
	tiffUndefined = 7
)

type tiffEntry struct {
	tag   uint16
	typ   uint16
	count uint32
	data  []byte
}

func asciiEntry(tag uint16, s string) tiffEntry {
	b := append([]byte(s), 0)
	return tiffEntry{tag: tag, typ: tiffASCII, count: uint32(len(b)), data: b}
}

func shortEntry(tag, v uint16) tiffEntry {
	return tiffEntry{tag: tag, typ: tiffShort, count: 1, data: binary.LittleEndian.AppendUint16(nil, v)}
}

func longEntry(tag uint16, v uint32) tiffEntry {
	return tiffEntry{tag: tag, typ: tiffLong, count: 1, data: binary.LittleEndian.AppendUint32(nil, v)}
}

func ratEntry(tag uint16, num, den uint32) tiffEntry {
	b := binary.LittleEndian.AppendUint32(nil, num)
	b = binary.LittleEndian.AppendUint32(b, den)
	return tiffEntry{tag: tag, typ: tiffRational, count: 1, data: b}
}

func undefinedEntry(tag uint16, b []byte) tiffEntry {
	return tiffEntry{tag: tag, typ: tiffUndefined, count: uint32(len(b)), data: b}
}

// buildTIFF builds a little endian TIFF file with the given IFD0 entries
// and, if exifIFD is not empty, an EXIF sub-IFD.
func buildTIFF(ifd0, exifIFD []tiffEntry) []byte {
	le := binary.LittleEndian

	ifd0 = slices.Clone(ifd0)
	var exifPointer tiffEntry
	if len(exifIFD) > 0 {
		exifPointer = longEntry(0x8769, 0)
		ifd0 = append(ifd0, exifPointer)
	}

	byTag := func(a, b tiffEntry) int {
		return int(a.tag) - int(b.tag)
	}
	slices.SortFunc(ifd0, byTag)
	exifIFD = slices.Clone(exifIFD)
	slices.SortFunc(exifIFD, byTag)

	ifdSize := func(n int) int {
		return 2 + 12*n + 4
	}

	const ifd0Offset = 8
	exifOffset := ifd0Offset + ifdSize(len(ifd0))
	dataOffset := exifOffset
	if len(exifIFD) > 0 {
		dataOffset += ifdSize(len(exifIFD))
		le.PutUint32(exifPointer.data, uint32(exifOffset))
	}

	var data []byte
	writeIFD := func(entries []tiffEntry) []byte {
		b := le.AppendUint16(nil, uint16(len(entries)))
		for _, e := range entries {
			b = le.AppendUint16(b, e.tag)
			b = le.AppendUint16(b, e.typ)
			b = le.AppendUint32(b, e.count)
			if len(e.data) <= 4 {
				v := make([]byte, 4)
				copy(v, e.data)
				b = append(b, v...)
				continue
			}
			b = le.AppendUint32(b, uint32(dataOffset+len(data)))
			data = append(data, e.data...)
			if len(data)%2 == 1 {
				data = append(data, 0)
			}
		}
		// No next IFD.
		return le.AppendUint32(b, 0)
	}

	out := []byte("II*\x00")
	out = le.AppendUint32(out, ifd0Offset)
	out = append(out, writeIFD(ifd0)...)
	if len(exifIFD) > 0 {
		out = append(out, writeIFD(exifIFD)...)
	}
	return append(out, data...)
}

// sampleTIFF returns the EXIF block of the sample image as a TIFF file.
// If xmp is set, it is added as the XMP tag in IFD0.
func sampleTIFF(xmp string) []byte {
	ifd0 := []tiffEntry{
		asciiEntry(0x010f, "Canon"),
		asciiEntry(0x0110, "Canon EOS 200D"),
		asciiEntry(0x0132, "2024:08:01 10:00:00"),
	}
	if xmp != "" {
		ifd0 = append(ifd0, tiffEntry{tag: 0x02bc, typ: 1, count: uint32(len(xmp)), data: []byte(xmp)})
	}
	exifIFD := []tiffEntry{
		ratEntry(0x829a, 1, 30),
		ratEntry(0x829d, 28, 10),
		shortEntry(0x8822, 1),
		shortEntry(0x8827, 400),
		undefinedEntry(0x9000, []byte("0231")),
		asciiEntry(0x9003, "2024:07:30 22:12:59"),
		ratEntry(0x920a, 85, 1),
		shortEntry(0xa403, 0),
		asciiEntry(0xa434, "EF85mm f/1.8 USM"),
	}
	return buildTIFF(ifd0, exifIFD)
}

func jpegSegment(marker uint16, payload []byte) []byte {
	b := binary.BigEndian.AppendUint16(nil, marker)
	b = binary.BigEndian.AppendUint16(b, uint16(len(payload)+2))
	return append(b, payload...)
}

func buildJPEG(exif []byte, xmp string) []byte {
	b := []byte{0xff, 0xd8}
	b = append(b, jpegSegment(0xffe0, []byte("JFIF\x00\x01\x01\x00\x00\x01\x00\x01\x00\x00"))...)
	if exif != nil {
		b = append(b, jpegSegment(0xffe1, append([]byte("Exif\x00\x00"), exif...))...)
	}
	if xmp != "" {
		b = append(b, jpegSegment(0xffe1, append([]byte("http://ns.adobe.com/xap/1.0/\x00"), xmp...))...)
	}
	b = append(b, jpegSegment(0xffda, []byte{0x01, 0x01, 0x00, 0x00, 0x3f, 0x00})...)
	b = append(b, 0x12, 0x34, 0x56)
	return append(b, 0xff, 0xd9)
}

func pngChunk(typ string, data []byte) []byte {
	b := binary.BigEndian.AppendUint32(nil, uint32(len(data)))
	b = append(b, typ...)
	b = append(b, data...)
	return binary.BigEndian.AppendUint32(b, crc32.ChecksumIEEE(append([]byte(typ), data...)))
}

func buildPNG(exif []byte, xmp string) []byte {
	b := []byte("\x89PNG\r\n\x1a\n")
	ihdr := binary.BigEndian.AppendUint32(nil, 1)
	ihdr = binary.BigEndian.AppendUint32(ihdr, 1)
	ihdr = append(ihdr, 8, 2, 0, 0, 0)
	b = append(b, pngChunk("IHDR", ihdr)...)
	b = append(b, pngChunk("tEXt", []byte("Comment\x00Hello"))...)
	if xmp != "" {
		b = append(b, pngChunk("iTXt", append([]byte("XML:com.adobe.xmp\x00\x00\x00\x00\x00"), xmp...))...)
	}
	if exif != nil {
		b = append(b, pngChunk("eXIf", exif)...)
	}
	b = append(b, pngChunk("IDAT", []byte{0x78, 0x9c, 0x62, 0x00, 0x00})...)
	return append(b, pngChunk("IEND", nil)...)
}

func riffChunk(id string, data []byte) []byte {
	b := []byte(id)
	b = binary.LittleEndian.AppendUint32(b, uint32(len(data)))
	b = append(b, data...)
	if len(data)%2 == 1 {
		b = append(b, 0)
	}
	return b
}

func buildWebP(exif []byte, xmp string) []byte {
	var flags byte
	if exif != nil {
		flags |= 1 << 3
	}
	if xmp != "" {
		flags |= 1 << 2
	}
	vp8x := []byte{flags, 0, 0, 0, 0, 0, 0, 0, 0, 0}

	body := []byte("WEBP")
	body = append(body, riffChunk("VP8X", vp8x)...)
	body = append(body, riffChunk("VP8 ", make([]byte, 16))...)
	if exif != nil {
		body = append(body, riffChunk("EXIF", exif)...)
	}
	if xmp != "" {
		body = append(body, riffChunk("XMP ", []byte(xmp))...)
	}

	b := []byte("RIFF")
	b = binary.LittleEndian.AppendUint32(b, uint32(len(body)))
	return append(b, body...)
}

// buildImage builds an image in the given format with the sample metadata.
func buildImage(imageFormat imagereport.ImageFormat, xmp string) []byte {
	switch imageFormat {
	case imagereport.JPEG:
		return buildJPEG(sampleTIFF(""), xmp)
	case imagereport.TIFF:
		return sampleTIFF(xmp)
	case imagereport.PNG:
		return buildPNG(sampleTIFF(""), xmp)
	case imagereport.WebP:
		return buildWebP(sampleTIFF(""), xmp)
	default:
		panic("unsupported format")
	}
}

var allImageFormats = []imagereport.ImageFormat{imagereport.JPEG, imagereport.TIFF, imagereport.PNG, imagereport.WebP}

type warnings struct {
	mu   sync.Mutex
	msgs []string
}

func (w *warnings) warnf(format string, args ...any) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.msgs = append(w.msgs, fmt.Sprintf(format, args...))
}

func TestDecodeAllImageFormats(t *testing.T) {
	c := qt.New(t)

	for _, imageFormat := range allImageFormats {
		c.Run(imageFormat.String(), func(c *qt.C) {
			var w warnings
			r, err := imagereport.Decode(imagereport.Options{
				R:           bytes.NewReader(buildImage(imageFormat, sampleXMP)),
				ImageFormat: imageFormat,
				Warnf:       w.warnf,
			})
			c.Assert(err, qt.IsNil)
			c.Assert(imagereport.FormatReport(r), qt.Equals, sampleReport)
			c.Assert(w.msgs, qt.HasLen, 0)
		})
	}
}

func TestDecodeDetectFormat(t *testing.T) {
	c := qt.New(t)

	for _, imageFormat := range allImageFormats {
		c.Run(imageFormat.String(), func(c *qt.C) {
			r, err := imagereport.Decode(imagereport.Options{
				R: bytes.NewReader(buildImage(imageFormat, sampleXMP)),
			})
			c.Assert(err, qt.IsNil)
			c.Assert(r.Camera, qt.Equals, "Canon EOS 200D")
			c.Assert(r.Software, qt.Equals, "Adobe Lightroom 7.4.1 (Windows)")
		})
	}

	_, err := imagereport.Decode(imagereport.Options{R: strings.NewReader("GIF89a")})
	c.Assert(imagereport.IsUnreadableImage(err), qt.IsTrue)
}

func TestExtract(t *testing.T) {
	c := qt.New(t)

	c.Run("Raw tags", func(c *qt.C) {
		raw, err := imagereport.Extract(imagereport.Options{
			R:           bytes.NewReader(buildImage(imagereport.JPEG, sampleXMP)),
			ImageFormat: imagereport.JPEG,
		})
		c.Assert(err, qt.IsNil)
		c.Assert(string(raw.XMP), qt.Equals, sampleXMP)

		v, found := raw.Tags[imagereport.TagFNumber]
		c.Assert(found, qt.IsTrue)
		r, ok := v.Rat()
		c.Assert(ok, qt.IsTrue)
		c.Assert(r.String(), qt.Equals, "14/5")

		v = raw.Tags[imagereport.TagModel]
		s, _ := v.Text()
		c.Assert(s, qt.Equals, "Canon EOS 200D")

		// ExifVersion is not used in the report, but is passed through.
		v = raw.Tags[imagereport.TagID(0x9000)]
		b, ok := v.Bytes()
		c.Assert(ok, qt.IsTrue)
		c.Assert(string(b), qt.Equals, "0231")

		c.Assert(imagereport.FormatReport(raw.Record()), qt.Equals, sampleReport)
	})

	c.Run("No metadata", func(c *qt.C) {
		for _, imageFormat := range []imagereport.ImageFormat{imagereport.JPEG, imagereport.PNG, imagereport.WebP} {
			var img []byte
			switch imageFormat {
			case imagereport.JPEG:
				img = buildJPEG(nil, "")
			case imagereport.PNG:
				img = buildPNG(nil, "")
			case imagereport.WebP:
				img = buildWebP(nil, "")
			}
			raw, err := imagereport.Extract(imagereport.Options{R: bytes.NewReader(img), ImageFormat: imageFormat})
			c.Assert(err, qt.IsNil, qt.Commentf("%s", imageFormat))
			c.Assert(raw.Tags, qt.HasLen, 0)
			c.Assert(raw.XMP, qt.IsNil)
			c.Assert(imagereport.FormatReport(raw.Record()), qt.Equals, "No metadata present")
		}
	})

	c.Run("XMP only", func(c *qt.C) {
		r, err := imagereport.Decode(imagereport.Options{
			R:           bytes.NewReader(buildJPEG(nil, sampleXMP)),
			ImageFormat: imagereport.JPEG,
		})
		c.Assert(err, qt.IsNil)
		c.Assert(r.CaptureInfo.IsZero(), qt.IsTrue)
		c.Assert(r.Software, qt.Equals, "Adobe Lightroom 7.4.1 (Windows)")
	})

	c.Run("Malformed XMP", func(c *qt.C) {
		var w warnings
		r, err := imagereport.Decode(imagereport.Options{
			R:           bytes.NewReader(buildImage(imagereport.PNG, "<rdf:RDF><oops")),
			ImageFormat: imagereport.PNG,
			Warnf:       w.warnf,
		})
		c.Assert(err, qt.IsNil)
		c.Assert(r.EditInfo.IsZero(), qt.IsTrue)
		c.Assert(r.Camera, qt.Equals, "Canon EOS 200D")
		c.Assert(w.msgs, qt.HasLen, 1)
		c.Assert(w.msgs[0], qt.Matches, "xmp: malformed XMP: .*")
	})

	c.Run("Corrupt EXIF", func(c *qt.C) {
		var w warnings
		r, err := imagereport.Decode(imagereport.Options{
			R:           bytes.NewReader(buildJPEG([]byte("II*\x00\xff\xff\xff\x7f"), sampleXMP)),
			ImageFormat: imagereport.JPEG,
			Warnf:       w.warnf,
		})
		c.Assert(err, qt.IsNil)
		c.Assert(r.CaptureInfo.IsZero(), qt.IsTrue)
		c.Assert(r.Software, qt.Equals, "Adobe Lightroom 7.4.1 (Windows)")
		c.Assert(len(w.msgs) > 0, qt.IsTrue)
		c.Assert(w.msgs[0], qt.Matches, "exif: .*")
	})
}

func TestDecodeUnreadableImage(t *testing.T) {
	c := qt.New(t)

	jpeg := buildImage(imagereport.JPEG, sampleXMP)
	png := buildImage(imagereport.PNG, sampleXMP)
	webp := buildImage(imagereport.WebP, sampleXMP)

	for _, test := range []struct {
		name        string
		imageFormat imagereport.ImageFormat
		b           []byte
	}{
		{"JPEG bad signature", imagereport.JPEG, []byte("not a jpeg")},
		{"JPEG truncated segment", imagereport.JPEG, jpeg[:60]},
		{"JPEG invalid segment length", imagereport.JPEG, []byte{0xff, 0xd8, 0xff, 0xe1, 0x00, 0x01}},
		{"TIFF bad byte order", imagereport.TIFF, []byte("XX*\x00\x08\x00\x00\x00")},
		{"TIFF bad magic", imagereport.TIFF, []byte("II\x2b\x00\x08\x00\x00\x00")},
		{"TIFF IFD out of range", imagereport.TIFF, []byte("II*\x00\xff\x00\x00\x00")},
		{"PNG bad signature", imagereport.PNG, []byte("\x89PNX\r\n\x1a\n")},
		{"PNG truncated chunk", imagereport.PNG, png[:len(png)-100]},
		{"WebP bad signature", imagereport.WebP, []byte("RIFF\x04\x00\x00\x00WAVE")},
		{"WebP truncated chunk", imagereport.WebP, webp[:len(webp)-10]},
		{"Empty", imagereport.JPEG, nil},
	} {
		c.Run(test.name, func(c *qt.C) {
			_, err := imagereport.Decode(imagereport.Options{
				R:           bytes.NewReader(test.b),
				ImageFormat: test.imageFormat,
			})
			c.Assert(err, qt.IsNotNil)
			c.Assert(imagereport.IsUnreadableImage(err), qt.IsTrue, qt.Commentf("%v", err))
		})
	}
}

func TestDecodeOptions(t *testing.T) {
	c := qt.New(t)

	_, err := imagereport.Decode(imagereport.Options{})
	c.Assert(err, qt.ErrorMatches, "no reader provided")

	_, err = imagereport.Decode(imagereport.Options{R: bytes.NewReader(nil), ImageFormat: 42})
	c.Assert(err, qt.ErrorMatches, "unsupported image format ImageFormat\\(42\\)")
	c.Assert(imagereport.IsUnreadableImage(err), qt.IsFalse)
}

func TestDecodeTimeout(t *testing.T) {
	c := qt.New(t)

	r := &slowReader{ReadSeeker: bytes.NewReader(buildImage(imagereport.JPEG, sampleXMP)), delay: 50 * time.Millisecond}
	_, err := imagereport.Decode(imagereport.Options{
		R:           r,
		ImageFormat: imagereport.JPEG,
		Timeout:     10 * time.Millisecond,
	})
	c.Assert(err, qt.ErrorMatches, ".*timed out after 10ms")
	c.Assert(imagereport.IsUnreadableImage(err), qt.IsTrue)

	r = &slowReader{ReadSeeker: bytes.NewReader(buildImage(imagereport.JPEG, sampleXMP))}
	_, err = imagereport.Decode(imagereport.Options{
		R:           r,
		ImageFormat: imagereport.JPEG,
		Timeout:     time.Minute,
	})
	c.Assert(err, qt.IsNil)
}

type slowReader struct {
	io.ReadSeeker
	delay time.Duration
}

func (r *slowReader) Read(p []byte) (int, error) {
	time.Sleep(r.delay)
	return r.ReadSeeker.Read(p)
}

func TestImageFormatFromExt(t *testing.T) {
	c := qt.New(t)

	for ext, want := range map[string]imagereport.ImageFormat{
		".jpg":  imagereport.JPEG,
		"JPEG":  imagereport.JPEG,
		".tif":  imagereport.TIFF,
		".TIFF": imagereport.TIFF,
		".png":  imagereport.PNG,
		"webp":  imagereport.WebP,
	} {
		got, ok := imagereport.ImageFormatFromExt(ext)
		c.Assert(ok, qt.IsTrue)
		c.Assert(got, qt.Equals, want)
	}

	_, ok := imagereport.ImageFormatFromExt(".gif")
	c.Assert(ok, qt.IsFalse)
}
