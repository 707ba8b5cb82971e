package wizard

import (
	"context"
	"fmt"
	"slices"

	"github.com/JAITteam/ja-uniforms-pricing/internal/pricing"
)

// AddFabricRow appends an empty fabric row. It is a no-op with a warning
// while the primary row is incomplete.
func (s *Session) AddFabricRow() GuardResult {
	res := CanAddFabricRow(s.state.Draft.Fabrics)
	if !res.Allowed {
		s.notify(LevelWarning, "%s", res.Reason)
		return res
	}
	s.state.Draft.Fabrics = append(s.state.Draft.Fabrics, pricing.FabricLine{})
	s.commit()
	return res
}

// AddNotionRow appends an empty notion row under the same rule as fabrics.
func (s *Session) AddNotionRow() GuardResult {
	res := CanAddNotionRow(s.state.Draft.Notions)
	if !res.Allowed {
		s.notify(LevelWarning, "%s", res.Reason)
		return res
	}
	s.state.Draft.Notions = append(s.state.Draft.Notions, pricing.NotionLine{})
	s.commit()
	return res
}

// RemoveFabricRow deletes row i. The primary row is cleared instead.
func (s *Session) RemoveFabricRow(i int) error {
	d := &s.state.Draft
	if i < 0 || i >= len(d.Fabrics) {
		return fmt.Errorf("%w: fabric %d", ErrRowIndex, i)
	}
	if i == 0 {
		d.Fabrics[0] = pricing.FabricLine{Primary: true}
		s.rebuildVendorStyle()
	} else {
		d.Fabrics = slices.Delete(d.Fabrics, i, i+1)
	}
	s.commit()
	return nil
}

// RemoveNotionRow deletes row i. The primary row is cleared instead.
func (s *Session) RemoveNotionRow(i int) error {
	d := &s.state.Draft
	if i < 0 || i >= len(d.Notions) {
		return fmt.Errorf("%w: notion %d", ErrRowIndex, i)
	}
	if i == 0 {
		d.Notions[0] = pricing.NotionLine{Primary: true}
	} else {
		d.Notions = slices.Delete(d.Notions, i, i+1)
	}
	s.commit()
	return nil
}

// SelectFabric fills row i from the fabric catalog. Choosing the primary
// fabric re-encodes the vendor style. A failed lookup leaves the row as it
// was.
func (s *Session) SelectFabric(ctx context.Context, i int, fabricID int64) error {
	d := &s.state.Draft
	if i < 0 || i >= len(d.Fabrics) {
		return fmt.Errorf("%w: fabric %d", ErrRowIndex, i)
	}

	row := pricing.FabricLine{Yards: d.Fabrics[i].Yards, Sublimation: d.Fabrics[i].Sublimation}
	if fabricID != 0 {
		info, err := s.lookup.Fabric(ctx, fabricID)
		if err != nil {
			s.notify(LevelWarning, "could not load fabric %d", fabricID)
			return fmt.Errorf("load fabric %d: %w", fabricID, err)
		}
		row.VendorID = info.VendorID
		row.VendorName = info.VendorName
		row.VendorCode = info.VendorCode
		row.FabricID = info.ID
		row.FabricName = info.Name
		row.FabricCode = info.Code
		row.CatalogCost = info.CostPerYard
		row.FreightShipCost = info.FreightShipCost
	}
	d.Fabrics[i] = row
	if i == 0 {
		s.rebuildVendorStyle()
	}
	s.commit()
	return nil
}

// SelectNotion fills row i from the notion catalog.
func (s *Session) SelectNotion(ctx context.Context, i int, notionID int64) error {
	d := &s.state.Draft
	if i < 0 || i >= len(d.Notions) {
		return fmt.Errorf("%w: notion %d", ErrRowIndex, i)
	}

	row := pricing.NotionLine{Qty: d.Notions[i].Qty}
	if notionID != 0 {
		info, err := s.lookup.Notion(ctx, notionID)
		if err != nil {
			s.notify(LevelWarning, "could not load notion %d", notionID)
			return fmt.Errorf("load notion %d: %w", notionID, err)
		}
		row.VendorID = info.VendorID
		row.VendorName = info.VendorName
		row.NotionID = info.ID
		row.NotionName = info.Name
		row.CostPerUnit = info.CostPerUnit
	}
	d.Notions[i] = row
	s.commit()
	return nil
}

func (s *Session) SetFabricYards(i int, yards float64) error {
	d := &s.state.Draft
	if i < 0 || i >= len(d.Fabrics) {
		return fmt.Errorf("%w: fabric %d", ErrRowIndex, i)
	}
	d.Fabrics[i].Yards = max(yards, 0)
	s.commit()
	return nil
}

func (s *Session) SetFabricSublimation(i int, on bool) error {
	d := &s.state.Draft
	if i < 0 || i >= len(d.Fabrics) {
		return fmt.Errorf("%w: fabric %d", ErrRowIndex, i)
	}
	d.Fabrics[i].Sublimation = on
	if i == 0 {
		s.rebuildVendorStyle()
	}
	s.commit()
	return nil
}

func (s *Session) SetNotionQty(i int, qty float64) error {
	d := &s.state.Draft
	if i < 0 || i >= len(d.Notions) {
		return fmt.Errorf("%w: notion %d", ErrRowIndex, i)
	}
	d.Notions[i].Qty = max(qty, 0)
	s.commit()
	return nil
}

// SetLaborQty sets the quantity (or hours) of the named labor operation.
// Rows are matched by name; an operation missing from the draft is fetched
// from the labor catalog.
func (s *Session) SetLaborQty(ctx context.Context, name string, qty float64) error {
	key := pricing.LaborKey(name)
	row, ok := s.state.Draft.Labor[key]
	if !ok {
		ops, err := s.lookup.LaborCatalog(ctx)
		if err != nil {
			return fmt.Errorf("load labor catalog: %w", err)
		}
		i := slices.IndexFunc(ops, func(op LaborOp) bool { return pricing.LaborKey(op.Name) == key })
		if i < 0 {
			return fmt.Errorf("%w: %s", ErrUnknownLabor, name)
		}
		row = pricing.LaborLine{Name: ops[i].Name, CostType: ops[i].CostType, Rate: ops[i].Rate}
	}
	row.QtyOrHours = max(qty, 0)
	s.state.Draft.Labor[key] = row
	s.commit()
	return nil
}

func (s *Session) SetColors(refs []pricing.Ref) {
	s.state.Draft.Colors = uniqueRefs(refs)
	s.commit()
}

func (s *Session) SetVariables(refs []pricing.Ref) {
	s.state.Draft.Variables = uniqueRefs(refs)
	s.commit()
}

func (s *Session) SetClients(refs []pricing.Ref) {
	s.state.Draft.Clients = uniqueRefs(refs)
	s.commit()
}

func uniqueRefs(refs []pricing.Ref) []pricing.Ref {
	out := make([]pricing.Ref, 0, len(refs))
	for _, r := range refs {
		if slices.ContainsFunc(out, func(o pricing.Ref) bool { return o.ID == r.ID }) {
			continue
		}
		out = append(out, r)
	}
	return out
}
