package resources

import (
	"bytes"
	"testing"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/theme"
)

func TestUIIconResourceCoversBothVariants(t *testing.T) {
	icons := []UIIcon{UIIconConnected, UIIconDisconnected, UIIconNoVideo}
	variants := []fyne.ThemeVariant{theme.VariantDark, theme.VariantLight}

	for _, icon := range icons {
		for _, variant := range variants {
			res := UIIconResource(icon, variant)
			if res == nil {
				t.Fatalf("expected %s resource for variant %d", icon, variant)
			}
			if !bytes.Contains(res.Content(), []byte("<svg")) {
				t.Fatalf("expected svg content for %s", icon)
			}
		}
	}
	if got := UIIconResource("unknown", theme.VariantLight); got != nil {
		t.Fatalf("expected nil for unknown icon, got %v", got.Name())
	}
}

func TestAppIconFallsBackToDark(t *testing.T) {
	if AppIconResource(theme.VariantLight) == AppIconResource(theme.VariantDark) {
		t.Fatalf("expected distinct light and dark app icons")
	}
	if got := AppIconResource(fyne.ThemeVariant(42)); got != AppIconResource(theme.VariantDark) {
		t.Fatalf("expected unknown variant to use dark icon")
	}
	if TrayIconResource(theme.VariantLight) == nil {
		t.Fatalf("expected tray icon")
	}
}
