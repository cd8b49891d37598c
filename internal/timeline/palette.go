package timeline

import "maps"

// FallbackColor is used for stages without a configured colour.
const FallbackColor = "#6B7280"

// Palette maps stage names to display colours. It is built once from
// configuration and passed to whoever renders a chart.
type Palette struct {
	Colors   map[string]string `json:"colors" yaml:"colors"`
	Fallback string            `json:"fallback" yaml:"fallback"`
}

func DefaultPalette() Palette {
	return Palette{
		Colors: map[string]string{
			"Permits":              "#8B5CF6",
			"Sponsorship":          "#F59E0B",
			"Design/Production":    "#10B981",
			"PR/Promotion":         "#3B82F6",
			"Operations/Transport": "#EF4444",
			"Event Day":            "#EC4899",
		},
		Fallback: FallbackColor,
	}
}

// Color returns the stage's colour or the fallback.
func (p Palette) Color(stage string) string {
	if c, ok := p.Colors[stage]; ok && c != "" {
		return c
	}
	if p.Fallback != "" {
		return p.Fallback
	}
	return FallbackColor
}

// Merge overlays other's colours on a copy of p.
func (p Palette) Merge(other Palette) Palette {
	out := Palette{
		Colors:   maps.Clone(p.Colors),
		Fallback: p.Fallback,
	}
	if out.Colors == nil {
		out.Colors = make(map[string]string)
	}
	maps.Copy(out.Colors, other.Colors)
	if other.Fallback != "" {
		out.Fallback = other.Fallback
	}
	return out
}
