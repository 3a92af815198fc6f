package pricing

import (
	"math"
	"strconv"
)

// DefaultShopCapacity is the linear feet a shop completes per day at level 2.
const DefaultShopCapacity = 20.0

// complexity multiplies build effort per level.
var complexity = map[Level]float64{
	1: 0.8,
	2: 1.0,
	3: 1.2,
	4: 1.5,
	5: 2.0,
}

// Minimum shop capacity, in linear feet per day, to offer a level.
var minCapacity = map[Level]float64{
	4: 15,
	5: 20,
}

// CanProduceLevel reports whether a shop with the given daily capacity
// takes on level. An unknown capacity (zero or less) allows every level.
func CanProduceLevel(level Level, capacityPerDay float64) bool {
	if capacityPerDay <= 0 {
		return true
	}
	return capacityPerDay >= minCapacity[level]
}

// AvailableLevels drops the level options a shop with capacityPerDay
// cannot produce. Options with a non-numeric key are kept.
func AvailableLevels(levels []Option, capacityPerDay float64) []Option {
	out := make([]Option, 0, len(levels))
	for _, o := range levels {
		n, err := strconv.Atoi(o.Key)
		if err == nil && !CanProduceLevel(Level(n), capacityPerDay) {
			continue
		}
		out = append(out, o)
	}
	return out
}

// EstimateLeadTime returns the production days needed to build lf linear
// feet at the given level. Without a shop capacity it is a flat
// DefaultShopCapacity per day regardless of level. With one, the capacity
// is divided by the level's complexity, an unset level counts as the
// default level, and the result is at least one day.
func EstimateLeadTime(lf float64, level Level, capacityPerDay float64) int {
	if capacityPerDay <= 0 {
		if lf <= 0 {
			return 0
		}
		return int(math.Ceil(lf / DefaultShopCapacity))
	}
	mult, ok := complexity[level]
	if !ok {
		mult = complexity[DefaultTriple.Level]
	}
	if lf <= 0 {
		return 1
	}
	days := int(math.Ceil(lf / (capacityPerDay / mult)))
	if days < 1 {
		days = 1
	}
	return days
}
