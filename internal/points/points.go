// Package points computes the composed loyalty multiplier. All functions are
// pure; timestamps and notes are supplied per call, so the same composition
// applies at order and at item level.
package points

import (
	"regexp"
	"strconv"
	"time"
	// America/Sao_Paulo must resolve even without a system zoneinfo db.
	_ "time/tzdata"
)

// markerPattern matches multiplier markers embedded in free-text product
// notes, e.g. "{{0.05}}".
var markerPattern = regexp.MustCompile(`\{\{(\d+\.\d+)\}\}`)

// saoPaulo is the fixed local timezone for all promotional windows and
// calendar dates. Deliberately not configurable.
var saoPaulo = func() *time.Location {
	loc, err := time.LoadLocation("America/Sao_Paulo")
	if err != nil {
		panic(err)
	}
	return loc
}()

// Rates are the configured multiplier constants.
type Rates struct {
	Loyalty   float64
	Morning   float64
	HappyHour float64
}

// Local converts an instant to the fixed local timezone.
func Local(ts time.Time) time.Time {
	return ts.In(saoPaulo)
}

// ProductRate extracts the multiplier embedded in product notes. When more
// than one marker is present the minimum wins; matches reports how many
// markers were found so callers can log the tie-break.
func ProductRate(notes string) (rate float64, matches int) {
	found := markerPattern.FindAllStringSubmatch(notes, -1)
	if len(found) == 0 {
		return 0.0, 0
	}
	lowest := 0.0
	for i, m := range found {
		v, err := strconv.ParseFloat(m[1], 64)
		if err != nil {
			continue
		}
		if i == 0 || v < lowest {
			lowest = v
		}
	}
	return lowest, len(found)
}

// SituationalRate evaluates the time-window promotions against the
// processing timestamp in local time. Overlapping windows stack: both rates
// are summed, not max'd.
func SituationalRate(r Rates, ts time.Time) float64 {
	local := Local(ts)
	minutes := local.Hour()*60 + local.Minute()

	rate := 0.0
	// Morning window [05:00, 10:00).
	if minutes >= 5*60 && minutes < 10*60 {
		rate += r.Morning
	}
	// Happy hour: Fridays [18:00, 22:00).
	if local.Weekday() == time.Friday && minutes >= 18*60 && minutes < 22*60 {
		rate += r.HappyHour
	}
	return rate
}

// Composition is the three-part multiplier for one order or one line item.
type Composition struct {
	Loyalty     float64
	Situational float64
	Product     float64
}

// Compose builds the item-level composition for a processing timestamp and
// a product's embedded rate.
func Compose(r Rates, ts time.Time, productRate float64) Composition {
	return Composition{
		Loyalty:     r.Loyalty,
		Situational: SituationalRate(r, ts),
		Product:     productRate,
	}
}

func (c Composition) Final() float64 {
	return c.Loyalty + c.Situational + c.Product
}

// Points applies the final rate multiplicatively to a monetary base.
func (c Composition) Points(base float64) float64 {
	return base * c.Final()
}
