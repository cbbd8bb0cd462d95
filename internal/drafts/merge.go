package drafts

// MergeOverwriteArrays merges overlay onto base and returns a new map.
// Overlay wins for scalars, nested objects merge recursively and arrays
// are replaced wholesale. Neither input is modified.
func MergeOverwriteArrays(base, overlay map[string]any) map[string]any {
	out := Clone(base)
	if out == nil {
		out = make(map[string]any, len(overlay))
	}
	for k, ov := range overlay {
		om, overlayIsObject := ov.(map[string]any)
		bm, baseIsObject := out[k].(map[string]any)
		if overlayIsObject && baseIsObject {
			out[k] = MergeOverwriteArrays(bm, om)
			continue
		}
		out[k] = CloneValue(ov)
	}
	return out
}

// Clone deep-copies a JSON object
func Clone(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = CloneValue(v)
	}
	return out
}

// CloneValue deep-copies a decoded JSON value
func CloneValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		return Clone(t)
	case []any:
		s := make([]any, len(t))
		for i, e := range t {
			s[i] = CloneValue(e)
		}
		return s
	default:
		return v
	}
}
