package pricing

import (
	"errors"
	"fmt"
	"os"
	"sort"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/starford/millwork/internal/apperr"
)

// Component is one priced option: a level base price or a material/finish add-on.
type Component struct {
	Name  string
	Price decimal.Decimal
}

// Table prices a triple as level base + material add-on + finish add-on.
type Table struct {
	Levels    map[Level]Component
	Materials map[string]Component
	Finishes  map[string]Component
}

// Breakdown itemizes a unit price.
type Breakdown struct {
	Level    Component
	Material Component
	Finish   Component
	Total    decimal.Decimal
}

// Verify *Table satisfies Resolver at compile time.
var _ Resolver = (*Table)(nil)

// DefaultTable returns the built-in price list used when no pricing file is configured.
func DefaultTable() *Table {
	d := decimal.NewFromInt
	return &Table{
		Levels: map[Level]Component{
			1: {Name: "Level 1 - Basic", Price: d(138)},
			2: {Name: "Level 2 - Standard", Price: d(168)},
			3: {Name: "Level 3 - Enhanced", Price: d(192)},
			4: {Name: "Level 4 - Premium", Price: d(210)},
			5: {Name: "Level 5 - Custom", Price: d(225)},
		},
		Materials: map[string]Component{
			MaterialPaintGrade:   {Name: "Paint Grade", Price: d(138)},
			MaterialStainGrade:   {Name: "Stain Grade", Price: d(156)},
			MaterialPremium:      {Name: "Premium", Price: d(185)},
			MaterialCustomExotic: {Name: "Custom/Exotic", Price: d(240)},
		},
		Finishes: map[string]Component{
			FinishUnfinished:   {Name: "Unfinished", Price: decimal.Zero},
			FinishNaturalStain: {Name: "Natural Stain", Price: d(65)},
			FinishCustomStain:  {Name: "Custom Stain", Price: d(85)},
			FinishPaint:        {Name: "Paint Finish", Price: d(90)},
			FinishClearCoat:    {Name: "Clear Coat", Price: d(45)},
		},
	}
}

// Breakdown returns the itemized unit price for t.
func (tb *Table) Breakdown(t Triple) (Breakdown, error) {
	lvl, ok := tb.Levels[t.Level]
	if !ok {
		return Breakdown{}, fmt.Errorf("pricing: %w: no level %d", apperr.ErrUnknownPricingTriple, t.Level)
	}
	mat, ok := tb.Materials[t.Material]
	if !ok {
		return Breakdown{}, fmt.Errorf("pricing: %w: no material %q", apperr.ErrUnknownPricingTriple, t.Material)
	}
	fin, ok := tb.Finishes[t.Finish]
	if !ok {
		return Breakdown{}, fmt.Errorf("pricing: %w: no finish %q", apperr.ErrUnknownPricingTriple, t.Finish)
	}
	return Breakdown{
		Level:    lvl,
		Material: mat,
		Finish:   fin,
		Total:    lvl.Price.Add(mat.Price).Add(fin.Price),
	}, nil
}

// UnitPricePerLinearFoot implements Resolver.
func (tb *Table) UnitPricePerLinearFoot(t Triple) (float64, error) {
	b, err := tb.Breakdown(t)
	if err != nil {
		return 0, err
	}
	return b.Total.InexactFloat64(), nil
}

// Option is a selectable pricing choice for UI pickers.
type Option struct {
	Key   string          `json:"key"`
	Name  string          `json:"name"`
	Price decimal.Decimal `json:"price"`
}

// Options lists the table's levels, materials and finishes sorted by key.
func (tb *Table) Options() (levels, materials, finishes []Option) {
	for l, c := range tb.Levels {
		levels = append(levels, Option{Key: fmt.Sprint(int(l)), Name: c.Name, Price: c.Price})
	}
	materials = componentOptions(tb.Materials)
	finishes = componentOptions(tb.Finishes)
	sort.Slice(levels, func(i, j int) bool { return levels[i].Key < levels[j].Key })
	return levels, materials, finishes
}

func componentOptions(m map[string]Component) []Option {
	out := make([]Option, 0, len(m))
	for k, c := range m {
		out = append(out, Option{Key: k, Name: c.Name, Price: c.Price})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out
}

// tableFile is the on-disk YAML layout of a price list.
//
//	levels:
//	  3: {name: "Level 3 - Enhanced", price: "192.00"}
//	materials:
//	  stain_grade: {name: "Stain Grade", price: 156}
//	finishes:
//	  unfinished: {name: "Unfinished", price: 0}
type tableFile struct {
	Levels    map[int]componentFile    `yaml:"levels"`
	Materials map[string]componentFile `yaml:"materials"`
	Finishes  map[string]componentFile `yaml:"finishes"`
}

type componentFile struct {
	Name  string `yaml:"name"`
	Price string `yaml:"price"`
}

// ParseTable decodes a YAML price list.
func ParseTable(data []byte) (*Table, error) {
	var f tableFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("pricing: parse table: %w", err)
	}
	if len(f.Levels) == 0 || len(f.Materials) == 0 || len(f.Finishes) == 0 {
		return nil, errors.New("pricing: table needs levels, materials and finishes")
	}

	tb := &Table{
		Levels:    make(map[Level]Component, len(f.Levels)),
		Materials: make(map[string]Component, len(f.Materials)),
		Finishes:  make(map[string]Component, len(f.Finishes)),
	}
	for n, c := range f.Levels {
		if !Level(n).Valid() {
			return nil, fmt.Errorf("pricing: level %d out of range", n)
		}
		comp, err := c.component()
		if err != nil {
			return nil, fmt.Errorf("pricing: level %d: %w", n, err)
		}
		tb.Levels[Level(n)] = comp
	}
	for k, c := range f.Materials {
		comp, err := c.component()
		if err != nil {
			return nil, fmt.Errorf("pricing: material %s: %w", k, err)
		}
		tb.Materials[k] = comp
	}
	for k, c := range f.Finishes {
		comp, err := c.component()
		if err != nil {
			return nil, fmt.Errorf("pricing: finish %s: %w", k, err)
		}
		tb.Finishes[k] = comp
	}
	return tb, nil
}

func (c componentFile) component() (Component, error) {
	if c.Price == "" {
		return Component{Name: c.Name, Price: decimal.Zero}, nil
	}
	p, err := decimal.NewFromString(c.Price)
	if err != nil {
		return Component{}, fmt.Errorf("invalid price %q: %w", c.Price, err)
	}
	if p.IsNegative() {
		return Component{}, fmt.Errorf("negative price %s", p)
	}
	return Component{Name: c.Name, Price: p}, nil
}

// LoadTable reads and parses a YAML price list file.
func LoadTable(path string) (*Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("pricing: read table %s: %w", path, err)
	}
	return ParseTable(data)
}
