package imagereport

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/rwcarlsen/goexif/exif"
	"github.com/rwcarlsen/goexif/tiff"
)

// exifHeader is the "Exif\0\0" identifier that prefixes the TIFF block in
// JPEG APP1 segments and, in some files, in WebP and PNG chunks.
var exifHeader = []byte("Exif\x00\x00")

// decodeEXIF decodes the TIFF structured EXIF block in b into a RawTagSet.
// A corrupt block is not an error; whatever could be read is returned.
func decodeEXIF(b []byte, warnf func(string, ...any)) (tags RawTagSet) {
	tags = make(RawTagSet)

	defer func() {
		if r := recover(); r != nil {
			warnf("exif: %v", r)
		}
	}()

	b = bytes.TrimPrefix(b, exifHeader)
	if len(b) == 0 {
		return tags
	}

	x, err := exif.Decode(bytes.NewReader(b))
	if err != nil {
		if x == nil || exif.IsCriticalError(err) {
			warnf("exif: %s", err)
			return tags
		}
		warnf("exif: partially decoded: %s", err)
	}

	w := &exifWalker{tags: tags, names: make(map[TagID]exif.FieldName), warnf: warnf}
	if err := x.Walk(w); err != nil {
		warnf("exif: %s", err)
	}

	return tags
}

type exifWalker struct {
	tags  RawTagSet
	names map[TagID]exif.FieldName
	warnf func(string, ...any)
}

// Walk is called in map order. GPS and interoperability tags share IDs
// with the main IFDs, so colliding IDs are resolved by preferredField.
func (w *exifWalker) Walk(name exif.FieldName, tag *tiff.Tag) error {
	id := TagID(tag.Id)
	if seen, ok := w.names[id]; ok && !preferredField(name, seen) {
		return nil
	}
	v, err := tagValue(tag)
	if err != nil {
		w.warnf("exif: skipping %s: %s", name, err)
		return nil
	}
	w.tags[id] = v
	w.names[id] = name
	return nil
}

// preferredField reports whether a should replace b for the same tag ID.
// Fields from IFD0 and the EXIF sub-IFD win, then the lowest name.
func preferredField(a, b exif.FieldName) bool {
	sub := func(name exif.FieldName) bool {
		return strings.HasPrefix(string(name), "GPS") || strings.HasPrefix(string(name), "Interoperability")
	}
	if sub(a) != sub(b) {
		return !sub(a)
	}
	return a < b
}

// tagValue converts the first value of tag to a TagValue.
func tagValue(tag *tiff.Tag) (TagValue, error) {
	if tag.Count == 0 {
		return TagValue{}, fmt.Errorf("%w: no values", errUnsupportedTagValue)
	}

	switch tag.Format() {
	case tiff.StringVal:
		s, err := tag.StringVal()
		if err != nil {
			return TagValue{}, err
		}
		return StringValue(s), nil
	case tiff.RatVal:
		num, den, err := tag.Rat2(0)
		if err != nil {
			return TagValue{}, err
		}
		return RationalValue(num, den)
	case tiff.IntVal:
		i, err := tag.Int64(0)
		if err != nil {
			return TagValue{}, err
		}
		return IntValue(i), nil
	case tiff.FloatVal:
		f, err := tag.Float(0)
		if err != nil {
			return TagValue{}, err
		}
		return FloatValue(f), nil
	case tiff.UndefVal:
		return BytesValue(bytes.Clone(tag.Val)), nil
	default:
		return TagValue{}, fmt.Errorf("%w: TIFF type %d", errUnsupportedTagValue, tag.Type)
	}
}
