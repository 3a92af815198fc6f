// Package parser infers cabinet type and width from shorthand cabinet codes
// (B24, W3012, SB36, ...) and normalizes free-text width input.
package parser

import (
	"math"
	"regexp"
	"strconv"
	"strings"
)

// Cabinet types the parser can infer.
const (
	TypeBase   = "base"
	TypeWall   = "wall"
	TypeTall   = "tall"
	TypeVanity = "vanity"
)

// Inference is the result of parsing a cabinet code. Type is empty and
// Width is zero when the code matched no rule.
type Inference struct {
	Type  string
	Width float64
}

// Matched reports whether a rule recognised the code.
func (i Inference) Matched() bool {
	return i.Type != ""
}

// Dimensions holds the type-specific default depth and height in inches.
type Dimensions struct {
	Depth  float64
	Height float64
}

var typeDefaults = map[string]Dimensions{
	TypeBase:   {Depth: 24, Height: 34.5},
	TypeWall:   {Depth: 12, Height: 30},
	TypeTall:   {Depth: 24, Height: 84},
	TypeVanity: {Depth: 21, Height: 34.5},
}

// Defaults returns the default depth/height for a cabinet type.
func Defaults(cabinetType string) (Dimensions, bool) {
	d, ok := typeDefaults[cabinetType]
	return d, ok
}

type codeRule struct {
	re  *regexp.Regexp
	typ string
}

// Ordered; first match wins. The width is always capture group 2.
var codeRules = []codeRule{
	{regexp.MustCompile(`^(S?B|DB|BBC|LS|LZ)(\d{2,3})$`), TypeBase},
	{regexp.MustCompile(`^(W|U)(\d{2})(\d{2})$`), TypeWall},
	{regexp.MustCompile(`^(W|U)(\d+)$`), TypeWall},
	{regexp.MustCompile(`^(T|TP|P)(\d+)$`), TypeTall},
	{regexp.MustCompile(`^V(D)?(\d+)$`), TypeVanity},
}

var codeShapeRe = regexp.MustCompile(`^[A-Z]{1,3}\d{2,3}`)

// ParseCode infers cabinet type and width from a shorthand code.
// Matching is case-insensitive and ignores surrounding whitespace.
func ParseCode(code string) Inference {
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" {
		return Inference{}
	}
	for _, r := range codeRules {
		m := r.re.FindStringSubmatch(code)
		if m == nil {
			continue
		}
		w, err := strconv.ParseFloat(m[2], 64)
		if err != nil {
			return Inference{}
		}
		return Inference{Type: r.typ, Width: w}
	}
	return Inference{}
}

// LooksLikeCode reports whether text has the shape of a cabinet code:
// one to three letters followed by two or three digits.
func LooksLikeCode(text string) bool {
	return codeShapeRe.MatchString(strings.ToUpper(strings.TrimSpace(text)))
}

var (
	feetSuffixRe   = regexp.MustCompile(`\s*(feet|foot|ft|')$`)
	inchesSuffixRe = regexp.MustCompile(`\s*(inches|inch|in|"|'')$`)
)

// ParseWidth normalizes raw width text to inches. A trailing feet unit
// (ft, feet, foot, ') multiplies by 12; an inch unit or no unit is taken
// as inches. Unparseable or non-positive input returns false.
func ParseWidth(text string) (float64, bool) {
	s := strings.ToLower(strings.TrimSpace(text))
	if s == "" {
		return 0, false
	}

	factor := 1.0
	switch {
	case inchesSuffixRe.MatchString(s):
		s = inchesSuffixRe.ReplaceAllString(s, "")
	case feetSuffixRe.MatchString(s):
		s = feetSuffixRe.ReplaceAllString(s, "")
		factor = 12
	}

	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || v <= 0 || math.IsInf(v, 0) || math.IsNaN(v) {
		return 0, false
	}
	return v * factor, true
}
