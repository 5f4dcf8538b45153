package settings

import (
	"fmt"

	"github.com/lucasb-eyer/go-colorful"
	"github.com/sadopc/nexus/internal/store"
)

// Luminance weights scaled to integers so the 0.5 boundary is exact.
const (
	weightR = 299
	weightG = 587
	weightB = 114

	maxLuminance = (weightR + weightG + weightB) * 255
)

// luminance255k returns 299R+587G+114B for a hex color, in [0, maxLuminance].
func luminance255k(hex string) (int, error) {
	c, err := colorful.Hex(hex)
	if err != nil {
		return 0, fmt.Errorf("parse color %q: %w", hex, err)
	}
	r, g, b := c.RGB255()
	return weightR*int(r) + weightG*int(g) + weightB*int(b), nil
}

// Luminance returns the perceptual luminance of a hex color in [0, 1].
func Luminance(hex string) (float64, error) {
	l, err := luminance255k(hex)
	if err != nil {
		return 0, err
	}
	return float64(l) / maxLuminance, nil
}

// UseLightText reports whether text over bg should be light. An explicit
// mode wins; in auto mode light text is chosen when luminance is strictly
// below 0.5 (a gradient uses the mean of its endpoints) and always over a
// photo. A color that does not parse is treated as dark.
func UseLightText(bg store.BackgroundSettings) bool {
	switch bg.TextColor {
	case store.TextColorLight:
		return true
	case store.TextColorDark:
		return false
	}

	switch bg.Type {
	case store.BackgroundSolid:
		l, err := luminance255k(bg.SolidColor)
		if err != nil {
			return true
		}
		return 2*l < maxLuminance
	case store.BackgroundGradient:
		l1, err1 := luminance255k(bg.GradientStart)
		l2, err2 := luminance255k(bg.GradientEnd)
		if err1 != nil || err2 != nil {
			return true
		}
		return l1+l2 < maxLuminance
	default:
		return true
	}
}
