package activity

import (
	"sync"

	"github.com/goliatone/go-audit/pkg/types"
	"github.com/goliatone/go-masker"
)

var defaultMaskerOnce sync.Once

// DefaultMasker returns the shared masker with the activity denylist applied.
func DefaultMasker() *masker.Masker {
	defaultMaskerOnce.Do(func() {
		if masker.Default == nil {
			return
		}
		registerDefaultMaskFields(masker.Default)
	})
	return masker.Default
}

// SanitizeDisplay masks sensitive metadata values before an entry is shown to
// tenant members. When masking fails the metadata is dropped.
func SanitizeDisplay(mask *masker.Masker, display types.ActivityDisplay) types.ActivityDisplay {
	if len(display.Metadata) == 0 {
		return display
	}
	if mask == nil {
		mask = DefaultMasker()
	}
	if mask == nil {
		display.Metadata = nil
		return display
	}

	masked, err := mask.Mask(cloneMap(display.Metadata))
	if err != nil {
		display.Metadata = nil
		return display
	}
	switch masked := masked.(type) {
	case map[string]any:
		display.Metadata = masked
	default:
		display.Metadata = nil
	}
	return display
}

// SanitizeDisplays masks every entry in the slice.
func SanitizeDisplays(mask *masker.Masker, displays []types.ActivityDisplay) []types.ActivityDisplay {
	if len(displays) == 0 {
		return displays
	}
	out := make([]types.ActivityDisplay, 0, len(displays))
	for _, display := range displays {
		out = append(out, SanitizeDisplay(mask, display))
	}
	return out
}

func registerDefaultMaskFields(mask *masker.Masker) {
	if mask == nil {
		return
	}
	mask.RegisterMaskField("Secret", "filled4")
	mask.RegisterMaskField("secret", "filled4")
	mask.RegisterMaskField("apiKey", "filled4")
	mask.RegisterMaskField("api_key", "filled4")
}
