package behavior

import (
	"fmt"
	"strings"

	"github.com/aretw0/espalier/pkg/domain"
	"github.com/mitchellh/mapstructure"
)

// configPrefix marks attributes carrying per-type configuration.
const configPrefix = "data-"

// DecodeConfig decodes a node's data-* attributes into a plugin-defined
// configuration struct. The binding attributes themselves are skipped. Field
// mapping uses mapstructure tags; values decode weakly, so numeric and
// boolean attribute strings land in typed fields:
//
//	type tabConfig struct {
//		Selected bool `mapstructure:"selected"`
//		Count    int  `mapstructure:"count"`
//	}
//	var cfg tabConfig
//	err := behavior.DecodeConfig(node, &cfg) // reads data-selected, data-count
func DecodeConfig(n domain.Node, out any) error {
	raw := make(map[string]string)
	for name, value := range n.Attrs() {
		if !strings.HasPrefix(name, configPrefix) {
			continue
		}
		if name == domain.AttrBehavior || name == domain.AttrComponent {
			continue
		}
		raw[strings.TrimPrefix(name, configPrefix)] = value
	}

	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           out,
		WeaklyTypedInput: true,
	})
	if err != nil {
		return fmt.Errorf("failed to build config decoder: %w", err)
	}
	if err := dec.Decode(raw); err != nil {
		return fmt.Errorf("failed to decode node config: %w", err)
	}
	return nil
}
