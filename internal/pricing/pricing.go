// Package pricing maps (cabinet level, material category, finish option)
// triples to a unit price per linear foot.
package pricing

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Level is a cabinet construction level, 1 (basic) through 5 (custom).
// The zero value means "unset".
type Level int

// Valid reports whether l is within 1..5.
func (l Level) Valid() bool {
	return l >= 1 && l <= 5
}

// UnmarshalJSON accepts a JSON number, a numeric string ("3"), an empty string or null.
func (l *Level) UnmarshalJSON(data []byte) error {
	if len(data) == 0 || string(data) == "null" {
		*l = 0
		return nil
	}

	var n int
	if err := json.Unmarshal(data, &n); err == nil {
		*l = Level(n)
		return nil
	}

	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		s = strings.TrimSpace(s)
		if s == "" {
			*l = 0
			return nil
		}
		v, err := strconv.Atoi(s)
		if err != nil {
			return fmt.Errorf("pricing: invalid level %q: %w", s, err)
		}
		*l = Level(v)
		return nil
	}

	return fmt.Errorf("pricing: level must be a number or numeric string")
}

// Material categories and finish options known to the default table.
const (
	MaterialPaintGrade   = "paint_grade"
	MaterialStainGrade   = "stain_grade"
	MaterialPremium      = "premium"
	MaterialCustomExotic = "custom_exotic"

	FinishUnfinished   = "unfinished"
	FinishNaturalStain = "natural_stain"
	FinishCustomStain  = "custom_stain"
	FinishPaint        = "paint_finish"
	FinishClearCoat    = "clear_coat"
)

// Triple is the (level, material, finish) combination a price is looked up by.
type Triple struct {
	Level    Level  `json:"cabinet_level"`
	Material string `json:"material_category"`
	Finish   string `json:"finish_option"`
}

// DefaultTriple is the baseline applied when no ancestor sets a pricing attribute.
var DefaultTriple = Triple{Level: 3, Material: MaterialStainGrade, Finish: FinishUnfinished}

func (t Triple) String() string {
	return fmt.Sprintf("level=%d material=%s finish=%s", t.Level, t.Material, t.Finish)
}

// Resolver looks up the unit price per linear foot for a triple.
// Implementations must be free of side effects observable by the caller.
type Resolver interface {
	UnitPricePerLinearFoot(t Triple) (float64, error)
}

// ResolverFunc adapts a plain function to Resolver.
type ResolverFunc func(t Triple) (float64, error)

// UnitPricePerLinearFoot calls f(t).
func (f ResolverFunc) UnitPricePerLinearFoot(t Triple) (float64, error) {
	return f(t)
}
