package appconfig

import "strings"

// CleanProperties strips the legacy Figma disambiguator from property keys
// ("title#381:0" -> "title"), recursing into nested objects and arrays.
// When both the suffixed and the bare key are present the bare key wins.
// The operation is idempotent: cleaning already-clean properties is a no-op.
func CleanProperties(props map[string]any) map[string]any {
	if props == nil {
		return nil
	}
	out := make(map[string]any, len(props))
	for key, value := range props {
		base := stripKeySuffix(key)
		if base != key {
			if _, exists := props[base]; exists {
				continue
			}
		}
		out[base] = cleanValue(value)
	}
	return out
}

func cleanValue(v any) any {
	switch x := v.(type) {
	case map[string]any:
		return CleanProperties(x)
	case []any:
		out := make([]any, len(x))
		for i := range x {
			out[i] = cleanValue(x[i])
		}
		return out
	default:
		return v
	}
}

func stripKeySuffix(key string) string {
	if i := strings.Index(key, "#"); i >= 0 {
		return key[:i]
	}
	return key
}
