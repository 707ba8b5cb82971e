package catalog

import (
	"context"
)

// MasterCosts is every catalog list, as shown on the master costs screen.
type MasterCosts struct {
	FabricVendors []Vendor         `json:"fabric_vendors"`
	NotionVendors []Vendor         `json:"notion_vendors"`
	Fabrics       []Fabric         `json:"fabrics"`
	Notions       []Notion         `json:"notions"`
	Labor         []LaborOperation `json:"labor_operations"`
	Cleaning      []CleaningCost   `json:"cleaning_costs"`
	SizeRanges    []SizeRange      `json:"size_ranges"`
	Colors        []Named          `json:"colors"`
	Variables     []Named          `json:"variables"`
	Clients       []Named          `json:"clients"`
	Settings      []Setting        `json:"global_settings"`
}

func (s *Store) MasterCosts(ctx context.Context) (MasterCosts, error) {
	var m MasterCosts
	var err error

	if m.FabricVendors, err = s.ListVendors(ctx, FabricVendors); err != nil {
		return MasterCosts{}, err
	}
	if m.NotionVendors, err = s.ListVendors(ctx, NotionVendors); err != nil {
		return MasterCosts{}, err
	}
	if m.Fabrics, err = s.ListFabrics(ctx, 0); err != nil {
		return MasterCosts{}, err
	}
	if m.Notions, err = s.ListNotions(ctx, 0); err != nil {
		return MasterCosts{}, err
	}
	if m.Labor, err = s.ListLabor(ctx, false); err != nil {
		return MasterCosts{}, err
	}
	if m.Cleaning, err = s.ListCleaning(ctx); err != nil {
		return MasterCosts{}, err
	}
	if m.SizeRanges, err = s.ListSizeRanges(ctx); err != nil {
		return MasterCosts{}, err
	}
	if m.Colors, err = s.ListNamed(ctx, Colors); err != nil {
		return MasterCosts{}, err
	}
	if m.Variables, err = s.ListNamed(ctx, Variables); err != nil {
		return MasterCosts{}, err
	}
	if m.Clients, err = s.ListNamed(ctx, Clients); err != nil {
		return MasterCosts{}, err
	}
	if m.Settings, err = s.ListSettings(ctx); err != nil {
		return MasterCosts{}, err
	}
	return m, nil
}
