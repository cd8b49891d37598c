package render

import (
	"fmt"
	"os"

	"github.com/nadmax/ganttline/internal/timeline"
	"gopkg.in/yaml.v3"
)

// Theme controls the look of a rendered chart.
type Theme struct {
	FontFamily       string  `yaml:"font_family"`
	FontSize         int     `yaml:"font_size"`
	Background       string  `yaml:"background"`
	Text             string  `yaml:"text"`
	Grid             string  `yaml:"grid"`
	Important        string  `yaml:"important"`
	Today            string  `yaml:"today"`
	CompletedOpacity float64 `yaml:"completed_opacity"`
}

// Style is the content of a palette file: stage colours plus theme.
type Style struct {
	Theme   Theme            `yaml:"theme"`
	Palette timeline.Palette `yaml:"palette"`
}

func DefaultTheme() Theme {
	return Theme{
		FontFamily:       "Arial, sans-serif",
		FontSize:         12,
		Background:       "#FFFFFF",
		Text:             "#1F2937",
		Grid:             "#E5E7EB",
		Important:        "#DC2626",
		Today:            "#EF4444",
		CompletedOpacity: 0.4,
	}
}

func DefaultStyle() Style {
	return Style{Theme: DefaultTheme(), Palette: timeline.DefaultPalette()}
}

// Merge returns t with every non-zero field of other applied.
func (t Theme) Merge(other Theme) Theme {
	if other.FontFamily != "" {
		t.FontFamily = other.FontFamily
	}
	if other.FontSize > 0 {
		t.FontSize = other.FontSize
	}
	if other.Background != "" {
		t.Background = other.Background
	}
	if other.Text != "" {
		t.Text = other.Text
	}
	if other.Grid != "" {
		t.Grid = other.Grid
	}
	if other.Important != "" {
		t.Important = other.Important
	}
	if other.Today != "" {
		t.Today = other.Today
	}
	if other.CompletedOpacity > 0 && other.CompletedOpacity <= 1 {
		t.CompletedOpacity = other.CompletedOpacity
	}
	return t
}

// LoadStyle reads a YAML palette file and layers it over the defaults.
// An empty path yields the defaults.
func LoadStyle(path string) (Style, error) {
	if path == "" {
		return DefaultStyle(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return Style{}, fmt.Errorf("error reading palette file: %w", err)
	}

	return ParseStyle(data)
}

func ParseStyle(data []byte) (Style, error) {
	var fromFile Style
	if err := yaml.Unmarshal(data, &fromFile); err != nil {
		return Style{}, fmt.Errorf("error parsing palette file: %w", err)
	}

	def := DefaultStyle()
	return Style{
		Theme:   def.Theme.Merge(fromFile.Theme),
		Palette: def.Palette.Merge(fromFile.Palette),
	}, nil
}
