package spectree

import (
	"errors"

	"github.com/starford/millwork/internal/pricing"
)

// RunFailure records a run whose price could not be resolved.
type RunFailure struct {
	Path   string         `json:"path"`
	RunID  string         `json:"run_id"`
	Triple pricing.Triple `json:"triple"`
	Reason string         `json:"reason"`
}

// Report holds the forest-wide totals of one recalculation.
type Report struct {
	TotalLinearFeet float64      `json:"total_linear_feet"`
	TotalPrice      float64      `json:"total_price"`
	Failures        []RunFailure `json:"failures,omitempty"`
}

// Calculator recomputes linear feet and estimated price for every node.
type Calculator struct {
	resolver pricing.Resolver
}

// NewCalculator returns a Calculator pricing runs through r.
func NewCalculator(r pricing.Resolver) *Calculator {
	return &Calculator{resolver: r}
}

var errNoResolver = errors.New("no pricing resolver configured")

// Recalculate walks rooms, locations and runs, sums cabinet linear feet
// into each run, prices each run once at its effective triple, and rolls
// the results up. A run that cannot be priced contributes zero price and
// flags itself and its ancestors pricing_unavailable; other runs are
// unaffected. Values are never rounded.
func (c *Calculator) Recalculate(f *Forest) Report {
	var rep Report
	for ri, room := range f.Rooms {
		resetComputed(room)
		if room.Type != KindRoom {
			continue
		}
		roomTriple := Effective(pricing.DefaultTriple, ownPricing(room))

		for li, loc := range room.Children {
			if loc.Type != KindLocation {
				continue
			}
			locTriple := Effective(roomTriple, ownPricing(loc))

			for ui, run := range loc.Children {
				if run.Type != KindRun {
					continue
				}
				runTriple := Effective(locTriple, ownPricing(run))

				for _, cab := range run.Children {
					if cab.Type != KindCabinet {
						continue
					}
					cab.LinearFeet = cabinetLinearFeet(cab.Cabinet())
					run.LinearFeet += cab.LinearFeet
				}

				unit, err := c.unitPrice(runTriple)
				if err != nil {
					run.PricingUnavailable = true
					loc.PricingUnavailable = true
					room.PricingUnavailable = true
					rep.Failures = append(rep.Failures, RunFailure{
						Path:   Path{ri, li, ui}.String(),
						RunID:  run.ID,
						Triple: runTriple,
						Reason: err.Error(),
					})
				} else {
					run.EstimatedPrice = run.LinearFeet * unit
				}

				loc.LinearFeet += run.LinearFeet
				loc.EstimatedPrice += run.EstimatedPrice
			}

			room.LinearFeet += loc.LinearFeet
			room.EstimatedPrice += loc.EstimatedPrice
		}

		rep.TotalLinearFeet += room.LinearFeet
		rep.TotalPrice += room.EstimatedPrice
	}
	return rep
}

func (c *Calculator) unitPrice(t pricing.Triple) (float64, error) {
	if c == nil || c.resolver == nil {
		return 0, errNoResolver
	}
	return c.resolver.UnitPricePerLinearFoot(t)
}

// cabinetLinearFeet is length/12*quantity. Missing or non-positive length
// counts as zero; missing or non-positive quantity counts as one.
func cabinetLinearFeet(a *CabinetAttrs) float64 {
	if a == nil || a.LengthInches <= 0 {
		return 0
	}
	qty := a.Quantity
	if qty <= 0 {
		qty = 1
	}
	return a.LengthInches / 12 * float64(qty)
}

func ownPricing(n *Node) Pricing {
	if pa := n.PricingAttrs(); pa != nil {
		return *pa
	}
	return Pricing{}
}

// resetComputed clears stale computed values across a subtree.
func resetComputed(n *Node) {
	walkNode(n, func(x *Node) {
		x.LinearFeet = 0
		x.EstimatedPrice = 0
		x.PricingUnavailable = false
	})
}
