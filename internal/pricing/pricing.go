// Package pricing derives the cost and price fields of a style draft.
//
// Recompute is the whole derivation graph. It evaluates, leaves first:
// row totals, the materials and labor aggregates, the grand total, the
// extended-size total and the price fields.
package pricing

import (
	"maps"
	"slices"
)

// Recompute fills every derived field of d from its authored fields and
// returns the result. It never fails and never mutates d. Applying it twice
// yields the same draft as applying it once.
func Recompute(d Draft) Draft {
	out := d.Clone()
	out.clampInputs()

	var fabricCost, freight float64
	for i := range out.Fabrics {
		f := &out.Fabrics[i]
		f.Primary = i == 0

		costPerYard := f.CatalogCost
		if f.Sublimation {
			costPerYard += out.Rates.SublimationSurcharge
		}
		f.CostPerYard = Round2(costPerYard)

		product := costPerYard * f.Yards
		f.RowTotal = 0
		if f.Yards > 0 {
			f.RowTotal = Round2(product + f.FreightShipCost)
		}
		fabricCost += product
		freight += f.FreightShipCost
	}

	var notionCost float64
	for i := range out.Notions {
		n := &out.Notions[i]
		n.Primary = i == 0
		total := n.CostPerUnit * n.Qty
		n.RowTotal = Round2(total)
		notionCost += total
	}

	var laborCost float64
	for _, key := range slices.Sorted(maps.Keys(out.Labor)) {
		l := out.Labor[key]
		total := l.Rate * l.QtyOrHours
		l.RowTotal = Round2(total)
		out.Labor[key] = l
		laborCost += total
	}

	// Freight is additive per row and never scaled by yards.
	materials := fabricCost + notionCost + out.LabelCost + freight
	labor := laborCost + out.CleaningCost
	// Label cost lives inside materials; shipping is added here only.
	grand := Round2(materials + labor + out.ShippingCost)

	out.Totals = Totals{
		Materials: Round2(materials),
		Labor:     Round2(labor),
		Grand:     grand,
		Retail:    PriceFromMargin(grand, out.Margin),
	}
	if out.SizeRange != nil && out.SizeRange.HasExtended() {
		ext := Round2(grand * (1 + nonNeg(out.SizeRange.MarkupPercent)/100))
		out.Totals.Extended = &ext
	}

	out.applySuggestedPrice()
	return out
}

// clampInputs zeroes negative or non-finite authored amounts. The input layer
// already rejects them; the graph must still hold if one slips through.
func (d *Draft) clampInputs() {
	d.LabelCost = nonNeg(d.LabelCost)
	d.ShippingCost = nonNeg(d.ShippingCost)
	d.CleaningCost = nonNeg(d.CleaningCost)
	d.SuggestedPrice = nonNeg(d.SuggestedPrice)
	d.SuggestedMargin = ClampPercent(d.SuggestedMargin)
	d.Rates.SublimationSurcharge = nonNeg(d.Rates.SublimationSurcharge)

	for i := range d.Fabrics {
		f := &d.Fabrics[i]
		f.CatalogCost = nonNeg(f.CatalogCost)
		f.Yards = nonNeg(f.Yards)
		f.FreightShipCost = nonNeg(f.FreightShipCost)
	}
	for i := range d.Notions {
		n := &d.Notions[i]
		n.CostPerUnit = nonNeg(n.CostPerUnit)
		n.Qty = nonNeg(n.Qty)
	}
	for key, l := range d.Labor {
		l.Rate = nonNeg(l.Rate)
		l.QtyOrHours = nonNeg(l.QtyOrHours)
		d.Labor[key] = l
	}
}

// applySuggestedPrice derives whichever side of the suggested price/margin
// pair PriceBasis does not name.
func (d *Draft) applySuggestedPrice() {
	grand := d.Totals.Grand
	if grand <= 0 {
		return
	}

	if d.PriceBasis == BasisPrice && d.SuggestedPrice > 0 {
		d.SuggestedMargin = MarginFromPrice(grand, d.SuggestedPrice)
		return
	}

	margin := d.SuggestedMargin
	if margin == 0 {
		margin = ClampPercent(d.Rates.DefaultSuggestedMargin)
		// Hydration is about to write the stored margin.
		if !d.Loading {
			d.SuggestedMargin = margin
		}
	}
	d.SuggestedPrice = PriceFromMargin(grand, margin)
}
