package imagereport

const (
	// NamespaceCameraRaw is the Adobe Camera Raw / Lightroom settings namespace.
	NamespaceCameraRaw = "http://ns.adobe.com/camera-raw-settings/1.0/"
	// NamespaceXMPBasic is the XMP basic namespace.
	NamespaceXMPBasic = "http://ns.adobe.com/xap/1.0/"

	namespaceRDF = "http://www.w3.org/1999/02/22-rdf-syntax-ns#"
)

// Canonical prefixes used in XMPProperties keys.
var xmpPrefixes = map[string]string{
	NamespaceCameraRaw: "crs",
	NamespaceXMPBasic:  "xmp",
}

type xmpFieldKind int

const (
	xmpNumber xmpFieldKind = iota + 1
	xmpText
)

// Property keys read outside of the adjustment list.
const (
	propCreatorTool = "xmp:CreatorTool"
	propVersion     = "crs:Version"
	propHasCrop     = "crs:HasCrop"
	propCropLeft    = "crs:CropLeft"
	propCropTop     = "crs:CropTop"
	propCropRight   = "crs:CropRight"
	propCropBottom  = "crs:CropBottom"
)

// xmpFields holds the known properties and how to type their values.
// Properties not listed here are ignored.
var xmpFields = map[string]xmpFieldKind{
	propCreatorTool:      xmpText,
	propVersion:          xmpText,
	"crs:ProcessVersion": xmpText,
	propHasCrop:          xmpText,
	propCropLeft:         xmpNumber,
	propCropTop:          xmpNumber,
	propCropRight:        xmpNumber,
	propCropBottom:       xmpNumber,
	"crs:CropAngle":      xmpNumber,
}

// lightroomAdjustment is an entry in the canonical adjustment order.
type lightroomAdjustment struct {
	// Display name in the report.
	name string
	// Property names, most specific first. Process version 2012 names
	// are preferred over the legacy ones.
	props []string
	kind  xmpFieldKind
	// The value that means "not adjusted".
	neutral float64
}

// lightroomAdjustments is the canonical order of the adjustments in a Record.
var lightroomAdjustments = []lightroomAdjustment{
	{name: "Exposure", props: []string{"crs:Exposure2012", "crs:Exposure"}, kind: xmpNumber},
	{name: "Contrast", props: []string{"crs:Contrast2012", "crs:Contrast"}, kind: xmpNumber},
	{name: "Highlights", props: []string{"crs:Highlights2012", "crs:Highlights"}, kind: xmpNumber},
	{name: "Shadows", props: []string{"crs:Shadows2012", "crs:Shadows"}, kind: xmpNumber},
	{name: "Whites", props: []string{"crs:Whites2012", "crs:Whites"}, kind: xmpNumber},
	{name: "Blacks", props: []string{"crs:Blacks2012", "crs:Blacks"}, kind: xmpNumber},
	{name: "Texture", props: []string{"crs:Texture"}, kind: xmpNumber},
	{name: "Clarity", props: []string{"crs:Clarity2012", "crs:Clarity"}, kind: xmpNumber},
	{name: "Vibrance", props: []string{"crs:Vibrance"}, kind: xmpNumber},
	{name: "Saturation", props: []string{"crs:Saturation"}, kind: xmpNumber},
	{name: "Parametric Shadow Split", props: []string{"crs:ParametricShadowSplit"}, kind: xmpNumber},
	{name: "Parametric Midtone Split", props: []string{"crs:ParametricMidtoneSplit"}, kind: xmpNumber},
	{name: "Parametric Highlight Split", props: []string{"crs:ParametricHighlightSplit"}, kind: xmpNumber},
	{name: "Sharpness", props: []string{"crs:Sharpness"}, kind: xmpNumber},
	{name: "Luminance Smoothing", props: []string{"crs:LuminanceSmoothing"}, kind: xmpNumber},
	{name: "Color Noise Reduction", props: []string{"crs:ColorNoiseReduction"}, kind: xmpNumber},
	{name: "Color Grade Blending", props: []string{"crs:ColorGradeBlending"}, kind: xmpNumber},
	{name: "Defringe Purple Hue Lo", props: []string{"crs:DefringePurpleHueLo"}, kind: xmpNumber},
	{name: "Defringe Purple Hue Hi", props: []string{"crs:DefringePurpleHueHi"}, kind: xmpNumber},
	{name: "Defringe Green Hue Lo", props: []string{"crs:DefringeGreenHueLo"}, kind: xmpNumber},
	{name: "Defringe Green Hue Hi", props: []string{"crs:DefringeGreenHueHi"}, kind: xmpNumber},
	{name: "Perspective Scale", props: []string{"crs:PerspectiveScale"}, kind: xmpNumber, neutral: 100},
	{name: "Tone Curve Name", props: []string{"crs:ToneCurveName2012", "crs:ToneCurveName"}, kind: xmpText},
}

func init() {
	for _, adj := range lightroomAdjustments {
		for _, prop := range adj.props {
			xmpFields[prop] = adj.kind
		}
	}
}
