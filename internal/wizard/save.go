package wizard

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/JAITteam/ja-uniforms-pricing/internal/styles"
)

// MarkSaved records the id assigned by the store. Later saves update it.
func (s *Session) MarkSaved(id int64) {
	s.state.Draft.StyleID = &id
	s.state.Dirty = false
	s.state.DuplicateOf = nil
	s.state.DuplicateSource = ""
}

// CanSave runs the save guard against the current draft.
func (s *Session) CanSave(ctx context.Context) (GuardResult, error) {
	d := s.state.Draft
	sc := SaveContext{
		StyleName:       d.StyleName,
		VendorStyle:     d.VendorStyle,
		BaseItemNumber:  d.BaseItemNumber,
		Margin:          d.Margin,
		Fabrics:         d.Fabrics,
		Notions:         d.Notions,
		Labor:           d.Labor,
		Duplicating:     s.state.DuplicateOf != nil,
		DuplicateSource: s.state.DuplicateSource,
	}
	if sc.Duplicating && strings.TrimSpace(d.VendorStyle) != "" {
		taken, err := s.lookup.VendorStyleExists(ctx, strings.TrimSpace(d.VendorStyle))
		if err != nil {
			return GuardResult{}, fmt.Errorf("check vendor style: %w", err)
		}
		sc.VendorStyleTaken = taken
	}
	return CanSave(sc), nil
}

// SaveRequest builds the store payload. Empty rows and zero labor
// quantities are left out.
func (s *Session) SaveRequest() styles.Input {
	d := s.state.Draft
	in := styles.Input{
		VendorStyle:    strings.TrimSpace(d.VendorStyle),
		BaseItemNumber: d.BaseItemNumber,
		VariantCode:    d.VariantCode,
		StyleName:      strings.TrimSpace(d.StyleName),
		Gender:         string(d.Gender),
		GarmentType:    d.GarmentType,
		Notes:          d.Notes,
		SizeRangeID:    d.SizeRangeID,
		Margin:         d.SuggestedMargin,
		SuggestedPrice: d.SuggestedPrice,
		LabelCost:      d.LabelCost,
		ShippingCost:   d.ShippingCost,
	}
	if d.StyleID != nil {
		id := *d.StyleID
		in.ID = &id
	}
	for _, f := range d.Fabrics {
		if f.IsEmpty() {
			continue
		}
		in.Fabrics = append(in.Fabrics, styles.FabricInput{FabricID: f.FabricID, Yards: f.Yards, Sublimation: f.Sublimation})
	}
	for _, n := range d.Notions {
		if n.IsEmpty() {
			continue
		}
		in.Notions = append(in.Notions, styles.NotionInput{NotionID: n.NotionID, Qty: n.Qty})
	}
	for _, key := range slices.Sorted(maps.Keys(d.Labor)) {
		l := d.Labor[key]
		if l.QtyOrHours == 0 {
			continue
		}
		in.Labor = append(in.Labor, styles.LaborInput{Name: l.Name, QtyOrHours: l.QtyOrHours})
	}
	for _, r := range d.Colors {
		in.ColorIDs = append(in.ColorIDs, r.ID)
	}
	for _, r := range d.Variables {
		in.VariableIDs = append(in.VariableIDs, r.ID)
	}
	for _, r := range d.Clients {
		in.ClientIDs = append(in.ClientIDs, r.ID)
	}
	return in
}
