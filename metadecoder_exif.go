// Copyright 2024 Bjørn Erik Pedersen
// SPDX-License-Identifier: MIT

package imagereport

import (
	"fmt"
	"math"
	"strings"
	"time"
)

// exifTimeLayout is the layout used for EXIF date/time values.
const exifTimeLayout = "2006:01:02 15:04:05"

// DecodeTags decodes the EXIF tags in tags into the capture info of a Record.
// Tags that are missing or have an unexpected value kind leave their field unset.
func DecodeTags(tags RawTagSet) CaptureInfo {
	return decodeTags(tags, func(string, ...any) {})
}

type tagDecoder func(c *CaptureInfo, v TagValue) error

var (
	exifConverters  = &vc{}
	exifTagDecoders = []struct {
		tag    TagID
		decode tagDecoder
	}{
		{TagLensModel, exifConverters.decodeLens},
		{TagFNumber, exifConverters.decodeAperture},
		{TagExposureTime, exifConverters.decodeExposureTime},
		{TagISOSpeedRatings, exifConverters.decodeISO},
		{TagFocalLength, exifConverters.decodeFocalLength},
		{TagWhiteBalance, exifConverters.decodeWhiteBalance},
	}
)

func decodeTags(tags RawTagSet, warnf func(string, ...any)) CaptureInfo {
	var c CaptureInfo

	c.Camera = cameraName(tagText(tags, TagMake), tagText(tags, TagModel))

	for _, d := range exifTagDecoders {
		v, found := tags[d.tag]
		if !found {
			continue
		}
		if err := d.decode(&c, v); err != nil {
			warnf("exif: dropping %s: %s", d.tag, err)
		}
	}

	c.Mode = exposureMode(tags)

	for _, tag := range []TagID{TagDateTimeOriginal, TagDateTime} {
		v, found := tags[tag]
		if !found {
			continue
		}
		t, err := exifConverters.parseTime(v)
		if err != nil {
			warnf("exif: dropping %s: %s", tag, err)
			continue
		}
		c.CaptureTime = &t
		break
	}

	return c
}

func errUnsupported(v TagValue, want string) error {
	return fmt.Errorf("%w: got %s, want %s", errUnsupportedTagValue, kindName(v.Kind()), want)
}

func kindName(k ValueKind) string {
	switch k {
	case KindString:
		return "string"
	case KindRational:
		return "rational"
	case KindFloat:
		return "float"
	case KindBytes:
		return "bytes"
	default:
		return "invalid"
	}
}

func tagText(tags RawTagSet, tag TagID) string {
	v, found := tags[tag]
	if !found {
		return ""
	}
	s, _ := v.Text()
	return s
}

// cameraName joins make and model, avoiding the common duplication
// where the model already starts with the make (e.g. "Canon" + "Canon EOS 200D").
func cameraName(maker, model string) string {
	if maker == "" || model == "" {
		return collapseRepeatedWords(maker + model)
	}
	if strings.HasPrefix(strings.ToLower(model), strings.ToLower(maker)) {
		return collapseRepeatedWords(model)
	}
	return collapseRepeatedWords(maker + " " + model)
}

func collapseRepeatedWords(s string) string {
	words := strings.Fields(s)
	out := words[:0]
	for i, w := range words {
		if i > 0 && strings.EqualFold(w, words[i-1]) {
			continue
		}
		out = append(out, w)
	}
	return strings.Join(out, " ")
}

func exposureMode(tags RawTagSet) ExposureMode {
	if v, found := tags[TagExposureProgram]; found {
		if i, ok := v.Int(); ok {
			if m, ok := exposurePrograms[i]; ok {
				return m
			}
		}
	}
	if v, found := tags[TagExposureMode]; found {
		if i, ok := v.Int(); ok {
			if m, ok := exposureModes[i]; ok {
				return m
			}
		}
	}
	return ModeUnknown
}

type vc struct{}

func (vc) decimal(v TagValue) (float64, error) {
	f, ok := v.Float64()
	if !ok {
		return 0, errUnsupported(v, "decimal")
	}
	return f, nil
}

func (vc) decodeLens(c *CaptureInfo, v TagValue) error {
	s, ok := v.Text()
	if !ok {
		return errUnsupported(v, "string")
	}
	c.Lens = s
	return nil
}

func (e vc) decodeAperture(c *CaptureInfo, v TagValue) error {
	f, err := e.decimal(v)
	if err != nil {
		return err
	}
	if f <= 0 {
		return fmt.Errorf("%w: aperture %v", errUnsupportedTagValue, f)
	}
	c.Exposure.Aperture = &f
	return nil
}

func (e vc) decodeExposureTime(c *CaptureInfo, v TagValue) error {
	f, err := e.decimal(v)
	if err != nil {
		return err
	}
	// 1/f must fit the denominator of the rendered fraction.
	if f <= 0 || 1/f >= math.MaxInt64 {
		return fmt.Errorf("%w: exposure time %v", errUnsupportedTagValue, f)
	}
	c.Exposure.ExposureTime = &f
	return nil
}

func (vc) decodeISO(c *CaptureInfo, v TagValue) error {
	var iso int
	if i, ok := v.Int(); ok {
		iso = int(i)
	} else if f, ok := v.Float64(); ok {
		iso = int(math.Round(f))
	} else {
		return errUnsupported(v, "integer")
	}
	if iso <= 0 {
		return fmt.Errorf("%w: ISO %d", errUnsupportedTagValue, iso)
	}
	c.Exposure.ISO = &iso
	return nil
}

func (e vc) decodeFocalLength(c *CaptureInfo, v TagValue) error {
	f, err := e.decimal(v)
	if err != nil {
		return err
	}
	c.Exposure.FocalLength = &f
	return nil
}

func (vc) decodeWhiteBalance(c *CaptureInfo, v TagValue) error {
	i, ok := v.Int()
	if !ok {
		return errUnsupported(v, "integer")
	}
	// An unmapped code leaves the field unset.
	c.WhiteBalance = whiteBalances[i]
	return nil
}

func (vc) parseTime(v TagValue) (time.Time, error) {
	s, ok := v.Text()
	if !ok {
		return time.Time{}, errUnsupported(v, "string")
	}
	t, err := time.ParseInLocation(exifTimeLayout, s, time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %s", errUnsupportedTagValue, err)
	}
	return t, nil
}
