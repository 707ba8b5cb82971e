package wizard

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/JAITteam/ja-uniforms-pricing/internal/pricing"
)

// LoadByVendorStyle replaces the draft with the stored style. The new draft
// is built completely before it is swapped in, so a failed load leaves the
// current draft untouched. A missing style yields ErrStyleNotFound and the
// caller may offer StartNew.
func (s *Session) LoadByVendorStyle(ctx context.Context, code string) error {
	code = strings.TrimSpace(code)
	if code == "" {
		return fmt.Errorf("%w: empty vendor style", ErrStyleNotFound)
	}
	stored, err := s.lookup.StyleByVendorStyle(ctx, code)
	if errors.Is(err, ErrNotFound) {
		s.notify(LevelInfo, "style %s not found; you can create it as a new style", code)
		return fmt.Errorf("%w: %s", ErrStyleNotFound, code)
	}
	if err != nil {
		s.notify(LevelWarning, "could not load style %s", code)
		return fmt.Errorf("load style %s: %w", code, err)
	}

	s.state = State{Draft: s.hydrate(ctx, stored)}
	s.notify(LevelInfo, "loaded %s", s.state.Draft.VendorStyle)
	return nil
}

// LoadForDuplicate starts a new draft from a stored style. The copy gets the
// vendor style "<source>-COPY" and the name "<source> (Copy)"; it must be
// given a vendor style of its own before it can be saved.
func (s *Session) LoadForDuplicate(ctx context.Context, id int64) error {
	stored, err := s.lookup.StyleByID(ctx, id)
	if errors.Is(err, ErrNotFound) {
		return fmt.Errorf("%w: id %d", ErrStyleNotFound, id)
	}
	if err != nil {
		return fmt.Errorf("load style %d: %w", id, err)
	}

	d := s.hydrate(ctx, stored)
	source := d.VendorStyle
	d.StyleID = nil
	d.Images = nil
	d.VendorStyle = source + "-COPY"
	d.StyleName = d.StyleName + " (Copy)"

	sourceID := id
	s.state = State{
		Draft:              d,
		VendorStyleTouched: true,
		Dirty:              true,
		DuplicateOf:        &sourceID,
		DuplicateSource:    source,
	}
	return nil
}

// hydrate builds a complete draft from stored authored fields. Loading is
// set for the single recompute so hydration never bootstraps defaults over
// stored values.
func (s *Session) hydrate(ctx context.Context, stored pricing.Draft) pricing.Draft {
	d := stored.Clone()
	d.Loading = true
	d.Rates = s.defaults.Rates
	d.Margin = s.defaults.Rates.DefaultSuggestedMargin
	d.PriceBasis = pricing.BasisMargin
	if d.SuggestedMargin == 0 {
		d.SuggestedMargin = s.defaults.Rates.DefaultSuggestedMargin
	}
	if len(d.Fabrics) == 0 {
		d.Fabrics = []pricing.FabricLine{{}}
	}
	if len(d.Notions) == 0 {
		d.Notions = []pricing.NotionLine{{}}
	}
	if d.Labor == nil {
		d.Labor = pricing.LaborRows{}
	}
	if d.CleaningCost == 0 && d.GarmentType != "" {
		d.CleaningCost = s.cleaningCost(ctx, d.GarmentType)
	}
	s.mergeLaborCatalog(ctx, d.Labor)
	if f, ok := d.PrimaryFabric(); ok {
		d.FabricCode = f.FabricCode
	}

	d = pricing.Recompute(d)
	d.Loading = false
	return d
}

// mergeLaborCatalog adds every catalog operation missing from rows with a
// zero quantity and refreshes the rates of the ones present.
func (s *Session) mergeLaborCatalog(ctx context.Context, rows pricing.LaborRows) {
	ops, err := s.lookup.LaborCatalog(ctx)
	if err != nil {
		s.notify(LevelWarning, "could not load labor operations")
		return
	}
	for _, op := range ops {
		key := pricing.LaborKey(op.Name)
		row := rows[key]
		row.Name = op.Name
		row.CostType = op.CostType
		row.Rate = op.Rate
		rows[key] = row
	}
}

// StartNew discards the draft and begins a new style, optionally from a
// typed vendor style whose segments prefill base and variant.
func (s *Session) StartNew(ctx context.Context, code string) {
	d := s.freshDraft()
	s.mergeLaborCatalog(ctx, d.Labor)
	s.state = State{Draft: pricing.Recompute(d)}

	if code = strings.TrimSpace(code); code != "" {
		s.TypeVendorStyle(code)
		s.CommitVendorStyle()
	}
}
