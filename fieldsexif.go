package imagereport

import "fmt"

// TagID is a numeric EXIF tag ID.
type TagID uint16

// The EXIF tags used to build a report.
// Other tag IDs may be present in a RawTagSet, they are ignored.
const (
	TagMake             TagID = 0x010f
	TagModel            TagID = 0x0110
	TagDateTime         TagID = 0x0132
	TagExposureTime     TagID = 0x829a
	TagFNumber          TagID = 0x829d
	TagExposureProgram  TagID = 0x8822
	TagISOSpeedRatings  TagID = 0x8827
	TagDateTimeOriginal TagID = 0x9003
	TagFocalLength      TagID = 0x920a
	TagExposureMode     TagID = 0xa402
	TagWhiteBalance     TagID = 0xa403
	TagLensModel        TagID = 0xa434
)

var exifTagNames = map[TagID]string{
	TagMake:             "Make",
	TagModel:            "Model",
	TagDateTime:         "DateTime",
	TagExposureTime:     "ExposureTime",
	TagFNumber:          "FNumber",
	TagExposureProgram:  "ExposureProgram",
	TagISOSpeedRatings:  "ISOSpeedRatings",
	TagDateTimeOriginal: "DateTimeOriginal",
	TagFocalLength:      "FocalLength",
	TagExposureMode:     "ExposureMode",
	TagWhiteBalance:     "WhiteBalance",
	TagLensModel:        "LensModel",
}

func (t TagID) String() string {
	if name, ok := exifTagNames[t]; ok {
		return name
	}
	return fmt.Sprintf("%s0x%x", UnknownPrefix, uint16(t))
}

// ExposureMode is the exposure mode the image was shot in.
type ExposureMode int

const (
	// ModeUnknown means the mode is not set.
	ModeUnknown ExposureMode = iota
	ModeManual
	ModeAperturePriority
	ModeShutterPriority
	ModeProgram
	ModeAuto
)

var exposureModeNames = map[ExposureMode]string{
	ModeManual:           "Manual",
	ModeAperturePriority: "Aperture-priority",
	ModeShutterPriority:  "Shutter-priority",
	ModeProgram:          "Program",
	ModeAuto:             "Auto",
}

func (m ExposureMode) String() string {
	if s, ok := exposureModeNames[m]; ok {
		return s
	}
	return fmt.Sprintf("ExposureMode(%d)", int(m))
}

// Source: https://exiftool.org/TagNames/EXIF.html
var (
	// ExposureProgram (0x8822).
	exposurePrograms = map[int64]ExposureMode{
		1: ModeManual,
		2: ModeProgram,
		3: ModeAperturePriority,
		4: ModeShutterPriority,
	}

	// ExposureMode (0xa402), used when ExposureProgram is missing or not defined.
	exposureModes = map[int64]ExposureMode{
		0: ModeAuto,
		1: ModeManual,
	}

	// WhiteBalance (0xa403).
	whiteBalances = map[int64]string{
		0: "Auto",
		1: "Manual",
	}
)
