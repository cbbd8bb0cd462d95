package eventform

import (
	"fmt"
	"strings"

	"github.com/goccy/go-json"

	"github.com/abrezinsky/bisadmin/internal/drafts"
	"github.com/abrezinsky/bisadmin/internal/models"
)

// Project returns the part of v addressed by dotted paths such as
// "propagation.cost". Missing paths are left out.
func Project(v drafts.Values, paths []string) drafts.Values {
	out := drafts.Values{}
	for _, p := range paths {
		if val, ok := lookup(v, p); ok {
			assign(out, p, drafts.CloneValue(val))
		}
	}
	return out
}

func lookup(v drafts.Values, path string) (any, bool) {
	parts := strings.Split(path, ".")
	var cur any = v
	for _, part := range parts {
		m, ok := cur.(map[string]any)
		if !ok {
			return nil, false
		}
		if cur, ok = m[part]; !ok {
			return nil, false
		}
	}
	return cur, true
}

func assign(v drafts.Values, path string, val any) {
	parts := strings.Split(path, ".")
	m := v
	for _, part := range parts[:len(parts)-1] {
		next, ok := m[part].(map[string]any)
		if !ok {
			next = map[string]any{}
			m[part] = next
		}
		m = next
	}
	m[parts[len(parts)-1]] = val
}

// ToValues converts a typed form into generic step values
func ToValues(form models.EventForm) (drafts.Values, error) {
	data, err := json.Marshal(form)
	if err != nil {
		return nil, fmt.Errorf("failed to encode form: %w", err)
	}
	var v drafts.Values
	if err := json.Unmarshal(data, &v); err != nil {
		return nil, fmt.Errorf("failed to decode form: %w", err)
	}
	return v, nil
}

// Decode converts generic values into a typed form
func Decode(v drafts.Values) (models.EventForm, error) {
	var form models.EventForm
	data, err := json.Marshal(v)
	if err != nil {
		return form, fmt.Errorf("failed to encode form: %w", err)
	}
	if err := json.Unmarshal(data, &form); err != nil {
		return form, fmt.Errorf("invalid form values: %w", err)
	}
	return form, nil
}
