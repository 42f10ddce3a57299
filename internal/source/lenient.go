package source

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"keksly-go/internal/keksly"
)

// coerceDocument repairs the field shapes hand-written overrides most often
// get wrong, so one mistyped field does not discard the whole document:
// a numeric string in version or uid.version becomes a number, and a single
// string category becomes a one-element list. It returns the paths it
// rewrote. Anything else is left for the strict decode to reject.
func coerceDocument(doc map[string]any) []string {
	var changed []string
	if coerceInt(doc, "version") {
		changed = append(changed, "version")
	}
	if uid, ok := doc["uid"].(map[string]any); ok && coerceInt(uid, "version") {
		changed = append(changed, "uid.version")
	}
	if services, ok := doc["services"].([]any); ok {
		for i, s := range services {
			srv, ok := s.(map[string]any)
			if !ok {
				continue
			}
			if c, ok := srv["category"].(string); ok {
				srv["category"] = []any{c}
				changed = append(changed, fmt.Sprintf("services[%d].category", i))
			}
		}
	}
	return changed
}

func coerceInt(m map[string]any, key string) bool {
	s, ok := m[key].(string)
	if !ok {
		return false
	}
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return false
	}
	m[key] = n
	return true
}

func logCoerced(logger keksly.Logger, changed []string) {
	for _, path := range changed {
		logger.Warn("coerced config field", "field", path)
	}
}

func orNop(logger keksly.Logger) keksly.Logger {
	if logger == nil {
		return keksly.NewNopLogger()
	}
	return logger
}

func decodeJSON(data []byte, logger keksly.Logger) (*keksly.PartialConfig, error) {
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("decoding config document: %w", err)
	}
	if raw == nil {
		return nil, fmt.Errorf("config document is empty")
	}
	if doc, ok := raw.(map[string]any); ok {
		if changed := coerceDocument(doc); len(changed) > 0 {
			logCoerced(orNop(logger), changed)
			var err error
			if data, err = json.Marshal(doc); err != nil {
				return nil, fmt.Errorf("encoding coerced config: %w", err)
			}
		}
	}

	var cfg *keksly.PartialConfig
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("decoding config document: %w", err)
	}
	if cfg == nil {
		return nil, fmt.Errorf("config document is empty")
	}
	return cfg, nil
}

func decodeYAML(data []byte, logger keksly.Logger) (*keksly.PartialConfig, error) {
	var raw any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("decoding yaml config: %w", err)
	}
	if raw == nil {
		return nil, fmt.Errorf("config document is empty")
	}
	if doc, ok := raw.(map[string]any); ok {
		if changed := coerceDocument(doc); len(changed) > 0 {
			logCoerced(orNop(logger), changed)
			var err error
			if data, err = yaml.Marshal(doc); err != nil {
				return nil, fmt.Errorf("encoding coerced config: %w", err)
			}
		}
	}

	var cfg *keksly.PartialConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("decoding yaml config: %w", err)
	}
	if cfg == nil {
		return nil, fmt.Errorf("config document is empty")
	}
	return cfg, nil
}
