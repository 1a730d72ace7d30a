package runtime

import (
	"fmt"

	"github.com/go-viper/mapstructure/v2"
)

// DecodeConfiguration maps the host platform's loosely-typed configuration
// object onto a typed per-adapter struct. Fields absent from the map are left
// at their zero value; each adapter's Validate decides which of those are
// fatal, so the "is it present" decision lives in exactly one place.
func DecodeConfiguration(raw map[string]any, target any) error {
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           target,
		TagName:          "config",
		WeaklyTypedInput: true,
	})
	if err != nil {
		return fmt.Errorf("building configuration decoder: %w", err)
	}

	if err := decoder.Decode(raw); err != nil {
		return fmt.Errorf("decoding configuration: %w", err)
	}

	return nil
}
