// Package app wires the SQL stores into the style wizard and resolves the
// pricing defaults shared by the server and the CLI.
package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/JAITteam/ja-uniforms-pricing/internal/catalog"
	"github.com/JAITteam/ja-uniforms-pricing/internal/config"
	"github.com/JAITteam/ja-uniforms-pricing/internal/pricing"
	"github.com/JAITteam/ja-uniforms-pricing/internal/styles"
	"github.com/JAITteam/ja-uniforms-pricing/internal/wizard"
)

// Lookup implements wizard.Lookup on top of the catalog and style stores.
type Lookup struct {
	Catalog *catalog.Store
	Styles  *styles.Store
	Rates   pricing.Rates
}

var _ wizard.Lookup = Lookup{}

// notFound rewraps a store miss as wizard.ErrNotFound.
func notFound(err error) error {
	if errors.Is(err, catalog.ErrNotFound) || errors.Is(err, styles.ErrNotFound) {
		return fmt.Errorf("%w: %v", wizard.ErrNotFound, err)
	}
	return err
}

func (l Lookup) StyleByVendorStyle(ctx context.Context, code string) (pricing.Draft, error) {
	r, err := l.Styles.GetByVendorStyle(ctx, code)
	if err != nil {
		return pricing.Draft{}, notFound(err)
	}
	return r.Draft(l.Rates), nil
}

func (l Lookup) StyleByID(ctx context.Context, id int64) (pricing.Draft, error) {
	r, err := l.Styles.Get(ctx, id)
	if err != nil {
		return pricing.Draft{}, notFound(err)
	}
	return r.Draft(l.Rates), nil
}

func (l Lookup) VendorStyleExists(ctx context.Context, code string) (bool, error) {
	return l.Styles.VendorStyleExists(ctx, code)
}

func (l Lookup) CleaningCost(ctx context.Context, garmentType string) (float64, error) {
	c, err := l.Catalog.CleaningCostFor(ctx, garmentType)
	if err != nil {
		return 0, notFound(err)
	}
	return c.FixedCost, nil
}

func (l Lookup) Fabric(ctx context.Context, id int64) (wizard.FabricInfo, error) {
	f, err := l.Catalog.GetFabric(ctx, id)
	if err != nil {
		return wizard.FabricInfo{}, notFound(err)
	}
	return wizard.FabricInfo{
		ID:              f.ID,
		Name:            f.Name,
		Code:            f.FabricCode,
		VendorID:        f.VendorID,
		VendorName:      f.VendorName,
		VendorCode:      f.VendorCode,
		CostPerYard:     f.CostPerYard,
		FreightShipCost: f.FreightShipCost,
	}, nil
}

func (l Lookup) Notion(ctx context.Context, id int64) (wizard.NotionInfo, error) {
	n, err := l.Catalog.GetNotion(ctx, id)
	if err != nil {
		return wizard.NotionInfo{}, notFound(err)
	}
	return wizard.NotionInfo{
		ID:          n.ID,
		Name:        n.Name,
		VendorID:    n.VendorID,
		VendorName:  n.VendorName,
		CostPerUnit: n.CostPerUnit,
	}, nil
}

func (l Lookup) SizeRange(ctx context.Context, id int64) (pricing.SizeRange, error) {
	sr, err := l.Catalog.GetSizeRange(ctx, id)
	if err != nil {
		return pricing.SizeRange{}, notFound(err)
	}
	return sr.SizeRange, nil
}

// LaborCatalog lists the active labor operations in catalog order.
func (l Lookup) LaborCatalog(ctx context.Context) ([]wizard.LaborOp, error) {
	ops, err := l.Catalog.ListLabor(ctx, true)
	if err != nil {
		return nil, err
	}
	out := make([]wizard.LaborOp, 0, len(ops))
	for _, op := range ops {
		out = append(out, wizard.LaborOp{Name: op.Name, CostType: op.CostType, Rate: op.Rate()})
	}
	return out, nil
}

// Defaults overlays the stored global settings on the configured pricing
// defaults. Settings win; the configuration covers a fresh database.
func Defaults(ctx context.Context, cat *catalog.Store, p config.Pricing) (wizard.Defaults, error) {
	sublimation, err := cat.Setting(ctx, catalog.SettingSublimation, p.SublimationSurcharge)
	if err != nil {
		return wizard.Defaults{}, fmt.Errorf("load pricing defaults: %w", err)
	}
	label, err := cat.Setting(ctx, catalog.SettingLabelCost, p.DefaultLabelCost)
	if err != nil {
		return wizard.Defaults{}, fmt.Errorf("load pricing defaults: %w", err)
	}
	shipping, err := cat.Setting(ctx, catalog.SettingShipping, p.DefaultShippingCost)
	if err != nil {
		return wizard.Defaults{}, fmt.Errorf("load pricing defaults: %w", err)
	}

	return wizard.Defaults{
		Rates: pricing.Rates{
			SublimationSurcharge:   sublimation,
			DefaultSuggestedMargin: p.DefaultMargin,
		},
		LabelCost:    label,
		ShippingCost: shipping,
	}, nil
}
