package wizard

import (
	"fmt"
	"strings"

	"github.com/JAITteam/ja-uniforms-pricing/internal/pricing"
)

const (
	maxStyleNameLen   = 200
	maxVendorStyleLen = 50
)

// GuardResult represents the outcome of a guard evaluation.
type GuardResult struct {
	Allowed bool   `json:"allowed"`
	Reason  string `json:"reason,omitempty"`
}

// Error converts the guard result to an error if not allowed.
func (r GuardResult) Error() error {
	if r.Allowed {
		return nil
	}
	return fmt.Errorf("%w: %s", ErrBlocked, r.Reason)
}

func deny(format string, args ...any) GuardResult {
	return GuardResult{Allowed: false, Reason: fmt.Sprintf(format, args...)}
}

// CanAddFabricRow evaluates whether another fabric row may be added.
// Rules:
// - The primary fabric row must be complete
func CanAddFabricRow(rows []pricing.FabricLine) GuardResult {
	if len(rows) > 0 && !rows[0].IsComplete() {
		return deny("complete the primary fabric (vendor, fabric and yards) before adding another")
	}
	return GuardResult{Allowed: true}
}

// CanAddNotionRow evaluates whether another notion row may be added.
// Rules:
// - The primary notion row must be complete
func CanAddNotionRow(rows []pricing.NotionLine) GuardResult {
	if len(rows) > 0 && !rows[0].IsComplete() {
		return deny("complete the primary notion (vendor, notion and quantity) before adding another")
	}
	return GuardResult{Allowed: true}
}

// SaveContext provides context for the save guard.
type SaveContext struct {
	StyleName       string
	VendorStyle     string
	BaseItemNumber  string
	Margin          float64
	Fabrics         []pricing.FabricLine
	Notions         []pricing.NotionLine
	Labor           pricing.LaborRows
	Duplicating     bool
	DuplicateSource string
	// VendorStyleTaken is only consulted while duplicating.
	VendorStyleTaken bool
}

// CanSave evaluates whether a draft may be sent to the store.
// Rules:
// - Style name is required and at most 200 characters
// - Vendor style is required and at most 50 characters
// - Base item number is required
// - Margin is between 0 and 100
// - The primary fabric row is complete
// - Every other fabric or notion row is either empty or complete
// - Labor quantities are not negative
// - A duplicate gets a vendor style of its own
func CanSave(ctx SaveContext) GuardResult {
	name := strings.TrimSpace(ctx.StyleName)
	vendorStyle := strings.TrimSpace(ctx.VendorStyle)

	if name == "" {
		return deny("style name is required")
	}
	if len(name) > maxStyleNameLen {
		return deny("style name must be at most %d characters", maxStyleNameLen)
	}
	if vendorStyle == "" {
		return deny("vendor style is required")
	}
	if len(vendorStyle) > maxVendorStyleLen {
		return deny("vendor style must be at most %d characters", maxVendorStyleLen)
	}
	if strings.TrimSpace(ctx.BaseItemNumber) == "" {
		return deny("base item number is required")
	}
	if ctx.Margin < 0 || ctx.Margin > 100 {
		return deny("margin must be between 0 and 100")
	}

	if len(ctx.Fabrics) == 0 || !ctx.Fabrics[0].IsComplete() {
		return deny("the primary fabric needs a vendor, a fabric and yards greater than 0")
	}
	for i, f := range ctx.Fabrics[1:] {
		if !f.IsEmpty() && !f.IsComplete() {
			return deny("fabric #%d is incomplete: select vendor and fabric and enter yards greater than 0", i+2)
		}
	}
	for i, n := range ctx.Notions {
		if !n.IsEmpty() && !n.IsComplete() {
			return deny("notion #%d is incomplete: select vendor and notion and enter a quantity greater than 0", i+1)
		}
	}
	for _, l := range ctx.Labor {
		if l.QtyOrHours < 0 {
			return deny("labor %s cannot have a negative quantity", l.Name)
		}
	}

	if ctx.Duplicating {
		if strings.EqualFold(vendorStyle, strings.TrimSpace(ctx.DuplicateSource)) {
			return deny("change the vendor style; it must differ from the original %s", ctx.DuplicateSource)
		}
		if ctx.VendorStyleTaken {
			return deny("vendor style %s already exists", vendorStyle)
		}
	}

	return GuardResult{Allowed: true}
}
