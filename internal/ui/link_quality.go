package ui

import (
	"fyne.io/fyne/v2/widget"

	"github.com/skobkin/camwatch/internal/domain"
)

func linkBarsForQuality(quality domain.LinkQuality) string {
	switch quality {
	case domain.LinkGood:
		return "▂▄▆█"
	case domain.LinkFair:
		return "▂▄▆ "
	case domain.LinkBad:
		return "▂▄  "
	default:
		return ""
	}
}

func linkBarsOrPlaceholder(quality domain.LinkQuality) string {
	if bars := linkBarsForQuality(quality); bars != "" {
		return bars
	}

	return domain.Placeholder
}

func importanceForQuality(quality domain.LinkQuality) widget.Importance {
	switch quality {
	case domain.LinkGood:
		return widget.SuccessImportance
	case domain.LinkFair:
		return widget.WarningImportance
	case domain.LinkBad:
		return widget.DangerImportance
	default:
		return widget.MediumImportance
	}
}
