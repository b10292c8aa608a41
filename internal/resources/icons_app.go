package resources

import (
	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/theme"
)

var appIconResources = map[fyne.ThemeVariant]fyne.Resource{
	theme.VariantDark:  fyne.NewStaticResource("camwatch-dark.svg", uiDarkCamera),
	theme.VariantLight: fyne.NewStaticResource("camwatch-light.svg", uiLightCamera),
}

// AppIconResource returns the window icon for the given theme variant.
func AppIconResource(variant fyne.ThemeVariant) fyne.Resource {
	if res, ok := appIconResources[variant]; ok {
		return res
	}

	return appIconResources[theme.VariantDark]
}

// TrayIconResource returns the system tray icon. The tray sits on the
// desktop panel, so it follows the same variant as the app icon.
func TrayIconResource(variant fyne.ThemeVariant) fyne.Resource {
	return AppIconResource(variant)
}
