package spectree

import (
	"encoding/json"
	"fmt"
	"math"
	"slices"
	"sort"
	"strconv"
	"strings"

	"github.com/starford/millwork/internal/apperr"
	"github.com/starford/millwork/internal/parser"
)

// Keys UpdateFields never takes from the caller.
var protectedFields = map[string]bool{
	"id":                  true,
	"type":                true,
	"children":            true,
	"created_at":          true,
	"linear_feet":         true,
	"estimated_price":     true,
	"pricing_unavailable": true,
}

// Numeric keys that must be positive. Values that are not are dropped.
var dimensionFields = map[string]bool{
	"length_inches": true,
	"width_inches":  true,
	"height_inches": true,
	"depth_inches":  true,
	"quantity":      true,
}

// Numeric keys where zero is meaningful, e.g. a ground floor or a free part.
var nonNegativeFields = map[string]bool{
	"unit_cost":    true,
	"floor_number": true,
}

var integerFields = map[string]bool{
	"quantity":     true,
	"floor_number": true,
}

// UpdateFields merges fields into the node at p. id, type and children are
// always preserved. A numeric field that is out of range or unparseable is
// dropped and its key returned in rejected while the remaining fields still
// apply. Setting "code" on a cabinet re-infers type, length and default
// dimensions for every such field not in the same update.
//
// If the merged node fails to decode or validate, the node is left as it was.
func (f *Forest) UpdateFields(p Path, fields map[string]any) (rejected []string, err error) {
	n, err := f.Get(p)
	if err != nil {
		return nil, err
	}

	merged, err := currentFields(n)
	if err != nil {
		return nil, err
	}
	for k, v := range fields {
		if protectedFields[k] {
			continue
		}
		if dimensionFields[k] || nonNegativeFields[k] {
			num, ok := normalizeDimension(k, v)
			if !ok {
				rejected = append(rejected, k)
				continue
			}
			merged[k] = num
			continue
		}
		merged[k] = v
	}
	sort.Strings(rejected)

	raw, err := json.Marshal(merged)
	if err != nil {
		return rejected, fmt.Errorf("spectree: update %s: %w: %w", p, apperr.ErrInvalidInput, err)
	}
	var hdr struct {
		Name   string `json:"name"`
		Source Source `json:"source"`
	}
	if err := json.Unmarshal(raw, &hdr); err != nil {
		return rejected, fmt.Errorf("spectree: update %s: %w: %w", p, apperr.ErrInvalidInput, err)
	}
	if hdr.Source != "" && hdr.Source != SourceUser && hdr.Source != SourceAI {
		return rejected, fmt.Errorf("spectree: update %s: unknown source %q: %w", p, hdr.Source, apperr.ErrInvalidInput)
	}
	attrs := newAttrs(n.Type)
	if err := json.Unmarshal(raw, attrs); err != nil {
		return rejected, fmt.Errorf("spectree: update %s: %w: %w", p, apperr.ErrInvalidInput, err)
	}
	if err := attrs.Validate(); err != nil {
		return rejected, fmt.Errorf("spectree: update %s: %w: %w", p, apperr.ErrInvalidInput, err)
	}

	if cab, ok := attrs.(*CabinetAttrs); ok {
		if _, set := fields["code"]; set && cab.Code != "" {
			overridden := FieldSet{}
			for k := range fields {
				if !slices.Contains(rejected, k) {
					overridden[k] = true
				}
			}
			ApplyCode(cab, cab.Code, overridden)
		}
	}

	n.Name = hdr.Name
	if hdr.Source != "" {
		n.Source = hdr.Source
	}
	n.Attrs = attrs
	return rejected, nil
}

// currentFields returns the node's editable fields as a JSON-shaped map.
func currentFields(n *Node) (map[string]any, error) {
	m := map[string]any{}
	if n.Attrs != nil {
		raw, err := json.Marshal(n.Attrs)
		if err != nil {
			return nil, err
		}
		if err := json.Unmarshal(raw, &m); err != nil {
			return nil, err
		}
	}
	m["name"] = n.Name
	m["source"] = string(n.Source)
	return m, nil
}

// normalizeDimension converts a raw numeric value to a positive number, or
// a non-negative one for nonNegativeFields. Inch-valued strings go through
// width normalization so "2ft" or `30"` are accepted.
func normalizeDimension(key string, v any) (float64, bool) {
	var x float64
	switch t := v.(type) {
	case float64:
		x = t
	case float32:
		x = float64(t)
	case int:
		x = float64(t)
	case int64:
		x = float64(t)
	case json.Number:
		f, err := t.Float64()
		if err != nil {
			return 0, false
		}
		x = f
	case string:
		if strings.HasSuffix(key, "_inches") {
			w, ok := parser.ParseWidth(t)
			if !ok {
				return 0, false
			}
			x = w
		} else {
			f, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
			if err != nil {
				return 0, false
			}
			x = f
		}
	default:
		return 0, false
	}
	if math.IsNaN(x) || math.IsInf(x, 0) || x < 0 {
		return 0, false
	}
	if x == 0 && !nonNegativeFields[key] {
		return 0, false
	}
	if integerFields[key] && x != math.Trunc(x) {
		return 0, false
	}
	return x, true
}
