package wizard

import (
	"context"
	"errors"

	"github.com/JAITteam/ja-uniforms-pricing/internal/pricing"
)

// ErrNotFound is returned (wrapped) by a Lookup when the requested entity
// does not exist.
var ErrNotFound = errors.New("not found")

// Lookup resolves the catalog and persisted styles the wizard depends on.
// Implementations report a missing entity by wrapping ErrNotFound; any other
// error is treated as a transient failure.
type Lookup interface {
	// StyleByVendorStyle and StyleByID return the authored fields of a
	// stored style. Derived fields are ignored.
	StyleByVendorStyle(ctx context.Context, code string) (pricing.Draft, error)
	StyleByID(ctx context.Context, id int64) (pricing.Draft, error)
	VendorStyleExists(ctx context.Context, code string) (bool, error)

	CleaningCost(ctx context.Context, garmentType string) (float64, error)
	Fabric(ctx context.Context, id int64) (FabricInfo, error)
	Notion(ctx context.Context, id int64) (NotionInfo, error)
	SizeRange(ctx context.Context, id int64) (pricing.SizeRange, error)
	LaborCatalog(ctx context.Context) ([]LaborOp, error)
}

// FabricInfo is the catalog data copied into a fabric row on selection.
type FabricInfo struct {
	ID              int64
	Name            string
	Code            string
	VendorID        int64
	VendorName      string
	VendorCode      string
	CostPerYard     float64
	FreightShipCost float64
}

// NotionInfo is the catalog data copied into a notion row on selection.
type NotionInfo struct {
	ID          int64
	Name        string
	VendorID    int64
	VendorName  string
	CostPerUnit float64
}

// LaborOp is one labor catalog entry with the rate that matches its cost type.
type LaborOp struct {
	Name     string
	CostType string
	Rate     float64
}
