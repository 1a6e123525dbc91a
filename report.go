package imagereport

import (
	"fmt"
	"math"
	"strings"
)

// Report section titles, in order.
const (
	sectionHeader         = "📸 Camera Settings Breakdown 📸"
	sectionSettings       = "📊 Settings"
	sectionTechDetails    = "🔍 Tech Details"
	sectionCrop           = "✂️ Crop Info"
	sectionPostProcessing = "✨ Post-Processing"
	sectionCaptureDate    = "📅 Capture Date"
)

// NoMetadata is the report for a Record with no fields set.
const NoMetadata = "No metadata present"

type reportSection struct {
	title string
	lines func(r Record) []string
	// Emitted even if empty.
	always bool
}

var reportSections = []reportSection{
	{title: sectionHeader, lines: cameraLines, always: true},
	{title: sectionSettings, lines: settingsLines},
	{title: sectionTechDetails, lines: techDetailsLines},
	{title: sectionCrop, lines: cropLines},
	{title: sectionPostProcessing, lines: postProcessingLines},
	{title: sectionCaptureDate, lines: captureDateLines},
}

// FormatReport renders r as a sectioned text report.
// Sections without any set field are omitted.
// The output has no trailing newline and is the same for the same Record.
func FormatReport(r Record) string {
	if r.IsZero() {
		return NoMetadata
	}

	var b strings.Builder
	for _, section := range reportSections {
		lines := section.lines(r)
		if len(lines) == 0 && !section.always {
			continue
		}
		if b.Len() > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(section.title)
		for _, line := range lines {
			b.WriteByte('\n')
			b.WriteString(line)
		}
	}

	return b.String()
}

func cameraLines(r Record) []string {
	var lines []string
	if r.Camera != "" {
		lines = append(lines, "Camera: "+r.Camera)
	}
	if r.Lens != "" {
		lines = append(lines, "Lens: "+r.Lens)
	}
	return lines
}

func settingsLines(r Record) []string {
	var (
		lines []string
		e     = r.Exposure
	)
	if e.Aperture != nil {
		lines = append(lines, fmt.Sprintf("Aperture: f/%.1f", *e.Aperture))
	}
	if e.ExposureTime != nil {
		lines = append(lines, "Shutter Speed: "+formatShutterSpeed(*e.ExposureTime))
	}
	if e.ISO != nil {
		lines = append(lines, fmt.Sprintf("ISO: %d", *e.ISO))
	}
	if e.FocalLength != nil {
		lines = append(lines, fmt.Sprintf("Focal Length: %.1f mm", *e.FocalLength))
	}
	return lines
}

// formatShutterSpeed formats an exposure time in seconds,
// as a fraction for times below one second.
// Denominators that do not fit an int64 fall back to the decimal form.
func formatShutterSpeed(t float64) string {
	if t > 0 && t < 1 {
		if n := math.Round(1 / t); n < math.MaxInt64 {
			return fmt.Sprintf("1/%d sec", int64(n))
		}
	}
	return formatDecimal(t) + " sec"
}

func techDetailsLines(r Record) []string {
	var lines []string
	if r.Mode != ModeUnknown {
		lines = append(lines, fmt.Sprintf("Shot in %s mode", r.Mode))
	}
	if r.WhiteBalance != "" {
		lines = append(lines, "White Balance: "+r.WhiteBalance)
	}
	return lines
}

func cropLines(r Record) []string {
	if r.Crop == nil {
		return nil
	}
	var lines []string
	for _, edge := range r.Crop.Edges() {
		lines = append(lines, fmt.Sprintf("%s: %.2f%% cropped", edge.Name, edge.Percent))
	}
	return lines
}

func postProcessingLines(r Record) []string {
	var lines []string
	if r.Software != "" {
		lines = append(lines, "Edited in "+r.Software)
	}
	for _, adj := range r.Adjustments {
		lines = append(lines, adj.Name+": "+formatAdjustment(adj.Value))
	}
	return lines
}

// formatAdjustment formats numbers with an explicit sign. Text is kept verbatim.
func formatAdjustment(v PropertyValue) string {
	if v.IsNumber() {
		return formatSigned(v.Number)
	}
	return v.Text
}

func captureDateLines(r Record) []string {
	if r.CaptureTime == nil {
		return nil
	}
	t := *r.CaptureTime
	return []string{"Captured on " + t.Format("2006-01-02") + " at " + t.Format("15:04:05")}
}
