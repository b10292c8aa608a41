package resources

import (
	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/theme"
)

type UIIcon string

const (
	UIIconConnected    UIIcon = "connected"
	UIIconDisconnected UIIcon = "disconnected"
	UIIconNoVideo      UIIcon = "no_video"
)

var uiDarkIconResources = map[UIIcon]fyne.Resource{
	UIIconConnected:    fyne.NewStaticResource("resources/ui/dark/connected.svg", uiDarkConnected),
	UIIconDisconnected: fyne.NewStaticResource("resources/ui/dark/disconnected.svg", uiDarkDisconnected),
	UIIconNoVideo:      fyne.NewStaticResource("resources/ui/dark/no_video.svg", uiDarkNoVideo),
}

var uiLightIconResources = map[UIIcon]fyne.Resource{
	UIIconConnected:    fyne.NewStaticResource("resources/ui/light/connected.svg", uiLightConnected),
	UIIconDisconnected: fyne.NewStaticResource("resources/ui/light/disconnected.svg", uiLightDisconnected),
	UIIconNoVideo:      fyne.NewStaticResource("resources/ui/light/no_video.svg", uiLightNoVideo),
}

func UIIconResource(icon UIIcon, variant fyne.ThemeVariant) fyne.Resource {
	if variant == theme.VariantLight {
		if res, ok := uiLightIconResources[icon]; ok {
			return res
		}
	}
	if res, ok := uiDarkIconResources[icon]; ok {
		return res
	}

	return nil
}
