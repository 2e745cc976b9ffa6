// Package app provides the desktop application theme.
package app

import (
	"image/color"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/theme"
)

// EditorTheme is the banner editor's light theme.
type EditorTheme struct{}

var _ fyne.Theme = (*EditorTheme)(nil)

func (t *EditorTheme) Color(name fyne.ThemeColorName, variant fyne.ThemeVariant) color.Color {
	switch name {
	case theme.ColorNamePrimary:
		return color.NRGBA{R: 0xdb, G: 0x27, B: 0x77, A: 0xff} // Storefront pink
	case theme.ColorNameBackground:
		if variant == theme.VariantLight {
			return color.NRGBA{R: 0xf3, G: 0xf4, B: 0xf6, A: 0xff}
		}
	case theme.ColorNameFocus:
		return color.NRGBA{R: 0xdb, G: 0x27, B: 0x77, A: 0x60}
	}
	return theme.DefaultTheme().Color(name, variant)
}

func (t *EditorTheme) Font(style fyne.TextStyle) fyne.Resource {
	return theme.DefaultTheme().Font(style)
}

func (t *EditorTheme) Icon(name fyne.ThemeIconName) fyne.Resource {
	return theme.DefaultTheme().Icon(name)
}

func (t *EditorTheme) Size(name fyne.ThemeSizeName) float32 {
	if name == theme.SizeNameInnerPadding {
		return 6
	}
	return theme.DefaultTheme().Size(name)
}
