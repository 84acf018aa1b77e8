package theme

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestGetPalettes(t *testing.T) {
	for _, name := range Available() {
		p, ok := Get(name)
		require.True(t, ok, name)
		require.Equal(t, name, p.Name)
		for _, token := range []Token{ColorTextPrimary, ColorTextMuted, ColorBorder, ColorPrimary, ColorHighlight} {
			c := p.Color(token)
			require.NotEmpty(t, c.Light, "%s %s", name, token)
			require.NotEmpty(t, c.Dark, "%s %s", name, token)
		}
	}

	_, ok := Get("neon")
	require.False(t, ok)
}

func TestAutoPaletteAdapts(t *testing.T) {
	p, _ := Get("auto")
	c := p.Color(ColorTextPrimary)
	require.Equal(t, "#1B1F24", c.Light)
	require.Equal(t, "#E6EDF3", c.Dark)

	light, _ := Get("light")
	require.Equal(t, light.Color(ColorTextMuted).Light, light.Color(ColorTextMuted).Dark)
}

func TestSetCurrentAndContext(t *testing.T) {
	t.Cleanup(func() { _ = SetCurrent(DefaultName) })

	require.Error(t, SetCurrent("neon"))
	require.NoError(t, SetCurrent("Dark"))
	require.Equal(t, "dark", Current().Name)

	light, _ := Get("light")
	ctx := ContextWithPalette(context.Background(), light)
	require.Equal(t, "light", FromContext(ctx).Name)
	require.Equal(t, "dark", FromContext(context.Background()).Name)
}

func TestContrastText(t *testing.T) {
	require.Equal(t, "#121418", ContrastText("#FFFFFF"))
	require.Equal(t, "#F8F8F8", ContrastText("#000000"))
}
