// Package theme holds the color palettes used by the table browser and the
// text output.
package theme

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/charmbracelet/lipgloss"
	"github.com/lucasb-eyer/go-colorful"
	"github.com/muesli/termenv"

	"github.com/adsdrill/drillctl/internal/cmd/common"
)

// DefaultName follows the terminal background.
const DefaultName = "auto"

// Token represents a semantic color slot.
type Token string

const (
	ColorTextPrimary   Token = "text.primary"
	ColorTextSecondary Token = "text.secondary"
	ColorTextMuted     Token = "text.muted"
	ColorBorder        Token = "border"
	ColorPrimary       Token = "primary"
	ColorPrimaryText   Token = "primary.text"
	ColorAccent        Token = "accent"
	ColorDanger        Token = "danger"
	ColorHighlight     Token = "highlight"
)

// Color stores light and dark variants for adaptive rendering.
type Color struct {
	Light string
	Dark  string
}

func (c Color) Adaptive() lipgloss.AdaptiveColor {
	return lipgloss.AdaptiveColor{Light: c.Light, Dark: c.Dark}
}

// Palette represents a concrete theme.
type Palette struct {
	Name   string
	Colors map[Token]Color
}

// Color returns the color for token, falling back to the auto palette.
func (p Palette) Color(token Token) Color {
	if c, ok := p.Colors[token]; ok {
		return c
	}
	if c, ok := autoPalette.Colors[token]; ok {
		return c
	}
	return Color{Light: "#000000", Dark: "#FFFFFF"}
}

func (p Palette) Adaptive(token Token) lipgloss.AdaptiveColor {
	return p.Color(token).Adaptive()
}

// ForegroundStyle returns a lipgloss style with the foreground set to the requested token.
func (p Palette) ForegroundStyle(token Token) lipgloss.Style {
	return lipgloss.NewStyle().Foreground(p.Adaptive(token))
}

type contextKey struct{}

var (
	mu      sync.RWMutex
	current = autoPalette
)

// ContextWithPalette stores the palette on the context.
func ContextWithPalette(ctx context.Context, p Palette) context.Context {
	return context.WithValue(ctx, contextKey{}, p)
}

// FromContext returns the palette stored on the context or the current palette.
func FromContext(ctx context.Context) Palette {
	if ctx != nil {
		if p, ok := ctx.Value(contextKey{}).(Palette); ok {
			return p
		}
	}
	return Current()
}

// Available returns the registered theme names.
func Available() []string {
	return slices.Clone(common.ColorThemes)
}

// Get returns the palette with the provided name.
func Get(name string) (Palette, bool) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", DefaultName:
		return autoPalette, true
	case "light":
		return lightPalette, true
	case "dark":
		return darkPalette, true
	default:
		return Palette{}, false
	}
}

// SetCurrent sets the active palette.
func SetCurrent(name string) error {
	p, ok := Get(name)
	if !ok {
		return fmt.Errorf("unknown color theme %q, must be one of %v", name, Available())
	}
	mu.Lock()
	defer mu.Unlock()
	current = p
	return nil
}

// Current returns the active palette.
func Current() Palette {
	mu.RLock()
	defer mu.RUnlock()
	return current
}

// ApplyColorMode configures the lipgloss renderer for the --color setting.
// never strips all styling; always forces 256 colors even without a terminal.
func ApplyColorMode(mode common.ColorMode) {
	switch mode {
	case common.ColorModeNever:
		lipgloss.SetColorProfile(termenv.Ascii)
	case common.ColorModeAlways:
		lipgloss.SetColorProfile(termenv.ANSI256)
	case common.ColorModeAuto:
	}
}

// fixed palettes use the same value for both variants so the terminal
// background is ignored
func fixed(light bool, base map[Token]string) Palette {
	colors := make(map[Token]Color, len(base)+2)
	for token, hex := range base {
		colors[token] = Color{Light: hex, Dark: hex}
	}
	text := base[ColorTextPrimary]
	if light {
		colors[ColorTextMuted] = Color{Light: lighten(text, 0.45), Dark: lighten(text, 0.45)}
		colors[ColorBorder] = Color{Light: lighten(text, 0.7), Dark: lighten(text, 0.7)}
	} else {
		colors[ColorTextMuted] = Color{Light: darken(text, 0.4), Dark: darken(text, 0.4)}
		colors[ColorBorder] = Color{Light: darken(text, 0.65), Dark: darken(text, 0.65)}
	}
	return Palette{Name: map[bool]string{true: "light", false: "dark"}[light], Colors: colors}
}

var (
	lightPalette = fixed(true, map[Token]string{
		ColorTextPrimary:   "#1B1F24",
		ColorTextSecondary: "#41474F",
		ColorPrimary:       "#1F6FEB",
		ColorPrimaryText:   "#FFFFFF",
		ColorAccent:        "#8250DF",
		ColorDanger:        "#CF222E",
		ColorHighlight:     "#DDF4FF",
	})

	darkPalette = fixed(false, map[Token]string{
		ColorTextPrimary:   "#E6EDF3",
		ColorTextSecondary: "#B1BAC4",
		ColorPrimary:       "#58A6FF",
		ColorPrimaryText:   "#0D1117",
		ColorAccent:        "#D2A8FF",
		ColorDanger:        "#FF7B72",
		ColorHighlight:     "#1F2A37",
	})

	autoPalette = merge(DefaultName, lightPalette, darkPalette)
)

func merge(name string, light, dark Palette) Palette {
	colors := make(map[Token]Color, len(light.Colors))
	for token, c := range light.Colors {
		colors[token] = Color{Light: c.Light, Dark: dark.Colors[token].Dark}
	}
	return Palette{Name: name, Colors: colors}
}

// ContrastText picks black or white text for a background color.
func ContrastText(hex string) string {
	c, err := colorful.Hex(hex)
	if err != nil {
		return "#FFFFFF"
	}
	r, g, b := c.LinearRgb()
	if 0.2126*r+0.7152*g+0.0722*b > 0.55 {
		return "#121418"
	}
	return "#F8F8F8"
}

func lighten(hex string, amount float64) string {
	return blend(hex, colorful.Color{R: 1, G: 1, B: 1}, amount)
}

func darken(hex string, amount float64) string {
	return blend(hex, colorful.Color{}, amount)
}

func blend(hex string, target colorful.Color, amount float64) string {
	c, err := colorful.Hex(hex)
	if err != nil {
		return hex
	}
	return c.BlendLab(target, min(max(amount, 0), 1)).Clamped().Hex()
}
