package hints

// MwmHints is the legacy Motif decoration hint. The property on the wire
// can carry five fields in Motif 2.0, but only the first three have ever
// mattered, so decoding is capped at three.
type MwmHints struct {
	Flags       uint
	Functions   uint
	Decorations uint
}

// MwmElements is the number of property fields MwmHints decodes.
const MwmElements = 3

// MwmHints flag bits.
const (
	MwmFlagFunctions   = 1 << 0
	MwmFlagDecorations = 1 << 1
)

// MwmHints function bits.
const (
	MwmFuncAll      = 1 << 0
	MwmFuncResize   = 1 << 1
	MwmFuncMove     = 1 << 2
	MwmFuncIconify  = 1 << 3
	MwmFuncMaximize = 1 << 4
)

// MwmHints decoration bits.
const (
	MwmDecorAll      = 1 << 0
	MwmDecorBorder   = 1 << 1
	MwmDecorHandle   = 1 << 2
	MwmDecorTitle    = 1 << 3
	MwmDecorIconify  = 1 << 5
	MwmDecorMaximize = 1 << 6
)

// FunctionsSet reports whether the hint constrains the allowed functions.
func (m MwmHints) FunctionsSet() bool {
	return m.Flags&MwmFlagFunctions > 0
}

// DecorationsSet reports whether the hint constrains the decorations.
func (m MwmHints) DecorationsSet() bool {
	return m.Flags&MwmFlagDecorations > 0
}

// DecodeMwm reads the _MOTIF_WM_HINTS payload positionally. Extra fields
// are ignored and missing trailing fields read as zero, so a short or
// over-long property never fails to decode.
func DecodeMwm(raw []uint) MwmHints {
	var m MwmHints
	if len(raw) > 0 {
		m.Flags = raw[0]
	}
	if len(raw) > 1 {
		m.Functions = raw[1]
	}
	if len(raw) > 2 {
		m.Decorations = raw[2]
	}
	return m
}
