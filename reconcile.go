// Copyright 2024 Bjørn Erik Pedersen
// SPDX-License-Identifier: MIT

package imagereport

import (
	"strings"
	"time"
)

// Record is the metadata of one image.
// CaptureInfo is sourced from EXIF only, EditInfo from XMP only.
type Record struct {
	CaptureInfo
	EditInfo
}

// IsZero reports whether no field in r is set.
func (r Record) IsZero() bool {
	return r.CaptureInfo.IsZero() && r.EditInfo.IsZero()
}

// CaptureInfo holds the capture facts read from EXIF.
// Empty strings, nil pointers and ModeUnknown mean not set.
type CaptureInfo struct {
	Camera       string
	Lens         string
	Exposure     Exposure
	Mode         ExposureMode
	WhiteBalance string
	CaptureTime  *time.Time
}

// IsZero reports whether no field in c is set.
func (c CaptureInfo) IsZero() bool {
	return c.Camera == "" && c.Lens == "" && c.Exposure.IsZero() &&
		c.Mode == ModeUnknown && c.WhiteBalance == "" && c.CaptureTime == nil
}

// Exposure holds the exposure settings.
type Exposure struct {
	// Aperture is the f-number.
	Aperture *float64
	// ExposureTime is the shutter speed in seconds.
	ExposureTime *float64
	ISO          *int
	// FocalLength is in millimeters.
	FocalLength *float64
}

// IsZero reports whether no field in e is set.
func (e Exposure) IsZero() bool {
	return e.Aperture == nil && e.ExposureTime == nil && e.ISO == nil && e.FocalLength == nil
}

// EditInfo holds the edit history read from the Lightroom/Camera Raw XMP properties.
type EditInfo struct {
	Software    string
	Crop        *Crop
	Adjustments []Adjustment
}

// IsZero reports whether no field in e is set.
func (e EditInfo) IsZero() bool {
	return e.Software == "" && e.Crop == nil && len(e.Adjustments) == 0
}

// Adjustment is a named Lightroom adjustment, e.g. Highlights -81.
type Adjustment struct {
	Name  string
	Value PropertyValue
}

// NumberValue creates a numeric PropertyValue.
func NumberValue(f float64) PropertyValue {
	return PropertyValue{Text: formatDecimal(f), Number: f, isNumber: true}
}

// TextValue creates a text PropertyValue.
func TextValue(s string) PropertyValue {
	return PropertyValue{Text: s}
}

// Reconcile combines the EXIF capture info and the XMP properties into one Record.
func Reconcile(capture CaptureInfo, props XMPProperties) Record {
	return Record{
		CaptureInfo: capture,
		EditInfo:    editInfoFromXMP(props),
	}
}

func editInfoFromXMP(props XMPProperties) EditInfo {
	e := EditInfo{
		Software: props.Software(),
	}

	if rect, ok := cropRectFromXMP(props); ok {
		if c := CalculateCrop(rect); !c.IsZero() {
			e.Crop = &c
		}
	}

	for _, adj := range lightroomAdjustments {
		v, found := adj.lookup(props)
		if !found || adj.isNeutral(v) {
			continue
		}
		e.Adjustments = append(e.Adjustments, Adjustment{Name: adj.name, Value: v})
	}

	return e
}

// lookup returns the value of the first of a's properties present in props.
func (a lightroomAdjustment) lookup(props XMPProperties) (PropertyValue, bool) {
	for _, prop := range a.props {
		if v, ok := props[prop]; ok {
			return v, true
		}
	}
	return PropertyValue{}, false
}

func (a lightroomAdjustment) isNeutral(v PropertyValue) bool {
	if v.IsNumber() {
		return v.Number == a.neutral
	}
	switch strings.ToLower(strings.TrimSpace(v.Text)) {
	case "", "0", "false", "none":
		return true
	}
	return false
}
