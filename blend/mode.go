// Package blend implements the compositor's blend modes: the Porter-Duff
// operators a fixed-function pipeline can express through blend factors, and
// the advanced separable and non-separable modes that need shader support
// or a backdrop read.
//
// All operations work on float colors in [0, 1]. Functions document whether
// they expect premultiplied or straight alpha.
//
// References:
//   - Porter-Duff: "Compositing Digital Images" (1984)
//   - W3C Compositing and Blending Level 1: https://www.w3.org/TR/compositing-1/
package blend

import "fmt"

// Mode is a compositing operation.
type Mode uint8

const (
	// Porter-Duff modes, expressible as pipeline blend factors.
	ModeClear           Mode = iota // Result: 0
	ModeSource                      // Result: S
	ModeDestination                 // Result: D
	ModeSourceOver                  // Result: S + D*(1-Sa) [default]
	ModeDestinationOver             // Result: S*(1-Da) + D
	ModeSourceIn                    // Result: S*Da
	ModeDestinationIn               // Result: D*Sa
	ModeSourceOut                   // Result: S*(1-Da)
	ModeDestinationOut              // Result: D*(1-Sa)
	ModeSourceATop                  // Result: S*Da + D*(1-Sa)
	ModeDestinationATop             // Result: S*(1-Da) + D*Sa
	ModeXor                         // Result: S*(1-Da) + D*(1-Sa)
	ModePlus                        // Result: S + D (clamped)
	ModeModulate                    // Result: S*D

	// Advanced separable modes.
	ModeScreen
	ModeOverlay
	ModeDarken
	ModeLighten
	ModeColorDodge
	ModeColorBurn
	ModeHardLight
	ModeSoftLight
	ModeDifference
	ModeExclusion
	ModeMultiply

	// Advanced non-separable modes.
	ModeHue
	ModeSaturation
	ModeColor
	ModeLuminosity
)

const (
	// LastPipelineMode is the last mode a fixed-function blend unit can do.
	LastPipelineMode = ModeModulate
	// LastAdvancedMode is the last defined mode.
	LastAdvancedMode = ModeLuminosity
)

var modeNames = [...]string{
	"Clear", "Source", "Destination", "SourceOver", "DestinationOver",
	"SourceIn", "DestinationIn", "SourceOut", "DestinationOut", "SourceATop",
	"DestinationATop", "Xor", "Plus", "Modulate", "Screen", "Overlay", "Darken",
	"Lighten", "ColorDodge", "ColorBurn", "HardLight", "SoftLight",
	"Difference", "Exclusion", "Multiply", "Hue", "Saturation", "Color",
	"Luminosity",
}

// String returns the mode name.
func (m Mode) String() string {
	if int(m) < len(modeNames) {
		return modeNames[m]
	}
	return fmt.Sprintf("Mode(%d)", int(m))
}

// ParseMode returns the mode with the given name.
func ParseMode(name string) (Mode, error) {
	for i, n := range modeNames {
		if n == name {
			return Mode(i), nil
		}
	}
	return ModeSourceOver, fmt.Errorf("blend: unknown mode %q", name)
}

// IsAdvanced reports whether the mode cannot be expressed with pipeline
// blend factors.
func (m Mode) IsAdvanced() bool {
	return m > LastPipelineMode
}

// IsDestructive reports whether a transparent source pixel changes the
// destination under this mode, so that content outside the drawn area is
// affected.
func (m Mode) IsDestructive() bool {
	switch m {
	case ModeClear, ModeSource, ModeSourceIn, ModeDestinationIn, ModeSourceOut, ModeDestinationOut, ModeDestinationATop, ModeModulate:
		return true
	default:
		return false
	}
}

// Factor is a fixed-function blend factor.
type Factor uint8

const (
	FactorZero Factor = iota
	FactorOne
	FactorSrcColor
	FactorSrcAlpha
	FactorOneMinusSrcAlpha
	FactorDstAlpha
	FactorOneMinusDstAlpha
)

// Factors is the pair of factors a pipeline applies to a premultiplied
// source and destination: out = src*Src + dst*Dst.
type Factors struct {
	Src, Dst Factor
}

// PipelineFactors returns the blend factors for a Porter-Duff mode.
// The second result is false for advanced modes.
func (m Mode) PipelineFactors() (Factors, bool) {
	switch m {
	case ModeClear:
		return Factors{FactorZero, FactorZero}, true
	case ModeSource:
		return Factors{FactorOne, FactorZero}, true
	case ModeDestination:
		return Factors{FactorZero, FactorOne}, true
	case ModeSourceOver:
		return Factors{FactorOne, FactorOneMinusSrcAlpha}, true
	case ModeDestinationOver:
		return Factors{FactorOneMinusDstAlpha, FactorOne}, true
	case ModeSourceIn:
		return Factors{FactorDstAlpha, FactorZero}, true
	case ModeDestinationIn:
		return Factors{FactorZero, FactorSrcAlpha}, true
	case ModeSourceOut:
		return Factors{FactorOneMinusDstAlpha, FactorZero}, true
	case ModeDestinationOut:
		return Factors{FactorZero, FactorOneMinusSrcAlpha}, true
	case ModeSourceATop:
		return Factors{FactorDstAlpha, FactorOneMinusSrcAlpha}, true
	case ModeDestinationATop:
		return Factors{FactorOneMinusDstAlpha, FactorSrcAlpha}, true
	case ModeXor:
		return Factors{FactorOneMinusDstAlpha, FactorOneMinusSrcAlpha}, true
	case ModePlus:
		return Factors{FactorOne, FactorOne}, true
	case ModeModulate:
		return Factors{FactorZero, FactorSrcColor}, true
	default:
		return Factors{}, false
	}
}

// factor evaluates f for one channel.
func factor(f Factor, srcChannel, sa, da float32) float32 {
	switch f {
	case FactorOne:
		return 1
	case FactorSrcColor:
		return srcChannel
	case FactorSrcAlpha:
		return sa
	case FactorOneMinusSrcAlpha:
		return 1 - sa
	case FactorDstAlpha:
		return da
	case FactorOneMinusDstAlpha:
		return 1 - da
	default:
		return 0
	}
}
