package wizard

import (
	"context"
	"errors"
	"fmt"

	"github.com/JAITteam/ja-uniforms-pricing/internal/pricing"
)

var ErrUnknownAction = errors.New("unknown action")

// Event is one user edit as sent by a client. Numeric values travel as the
// raw text the user typed and are parsed leniently.
type Event struct {
	Action string        `json:"action"`
	Index  int           `json:"index,omitempty"`
	ID     int64         `json:"id,omitempty"`
	Name   string        `json:"name,omitempty"`
	Value  string        `json:"value,omitempty"`
	Flag   bool          `json:"flag,omitempty"`
	Refs   []pricing.Ref `json:"refs,omitempty"`
}

const (
	ActionSetBaseItemNumber    = "set_base_item_number"
	ActionSetVariantCode       = "set_variant_code"
	ActionTypeVendorStyle      = "type_vendor_style"
	ActionCommitVendorStyle    = "commit_vendor_style"
	ActionRegenVendorStyle     = "regenerate_vendor_style"
	ActionSetStyleName         = "set_style_name"
	ActionSetGender            = "set_gender"
	ActionSetNotes             = "set_notes"
	ActionSetGarmentType       = "set_garment_type"
	ActionSetLabelCost         = "set_label_cost"
	ActionSetShippingCost      = "set_shipping_cost"
	ActionSetMargin            = "set_margin"
	ActionSetSuggestedMargin   = "set_suggested_margin"
	ActionSetSuggestedPrice    = "set_suggested_price"
	ActionSetSizeRange         = "set_size_range"
	ActionAddFabricRow         = "add_fabric_row"
	ActionAddNotionRow         = "add_notion_row"
	ActionRemoveFabricRow      = "remove_fabric_row"
	ActionRemoveNotionRow      = "remove_notion_row"
	ActionSelectFabric         = "select_fabric"
	ActionSelectNotion         = "select_notion"
	ActionSetFabricYards       = "set_fabric_yards"
	ActionSetFabricSublimation = "set_fabric_sublimation"
	ActionSetNotionQty         = "set_notion_qty"
	ActionSetLaborQty          = "set_labor_qty"
	ActionSetColors            = "set_colors"
	ActionSetVariables         = "set_variables"
	ActionSetClients           = "set_clients"
	ActionLoad                 = "load"
	ActionLoadForDuplicate     = "load_for_duplicate"
	ActionStartNew             = "start_new"
)

// Apply dispatches e to the matching operation. Blocked row additions are
// reported as notices, not errors.
func (s *Session) Apply(ctx context.Context, e Event) error {
	amount := pricing.ParseAmount(e.Value)

	switch e.Action {
	case ActionSetBaseItemNumber:
		s.SetBaseItemNumber(e.Value)
	case ActionSetVariantCode:
		s.SetVariantCode(e.Value)
	case ActionTypeVendorStyle:
		s.TypeVendorStyle(e.Value)
	case ActionCommitVendorStyle:
		s.CommitVendorStyle()
	case ActionRegenVendorStyle:
		s.RegenerateVendorStyle()
	case ActionSetStyleName:
		s.SetStyleName(e.Value)
	case ActionSetGender:
		return s.SetGender(e.Value)
	case ActionSetNotes:
		s.SetNotes(e.Value)
	case ActionSetGarmentType:
		s.SetGarmentType(ctx, e.Value)
	case ActionSetLabelCost:
		s.SetLabelCost(amount)
	case ActionSetShippingCost:
		s.SetShippingCost(amount)
	case ActionSetMargin:
		s.SetMargin(amount)
	case ActionSetSuggestedMargin:
		s.SetSuggestedMargin(amount)
	case ActionSetSuggestedPrice:
		s.SetSuggestedPrice(amount)
	case ActionSetSizeRange:
		return s.SetSizeRange(ctx, e.ID)
	case ActionAddFabricRow:
		s.AddFabricRow()
	case ActionAddNotionRow:
		s.AddNotionRow()
	case ActionRemoveFabricRow:
		return s.RemoveFabricRow(e.Index)
	case ActionRemoveNotionRow:
		return s.RemoveNotionRow(e.Index)
	case ActionSelectFabric:
		return s.SelectFabric(ctx, e.Index, e.ID)
	case ActionSelectNotion:
		return s.SelectNotion(ctx, e.Index, e.ID)
	case ActionSetFabricYards:
		return s.SetFabricYards(e.Index, amount)
	case ActionSetFabricSublimation:
		return s.SetFabricSublimation(e.Index, e.Flag)
	case ActionSetNotionQty:
		return s.SetNotionQty(e.Index, amount)
	case ActionSetLaborQty:
		return s.SetLaborQty(ctx, e.Name, amount)
	case ActionSetColors:
		s.SetColors(e.Refs)
	case ActionSetVariables:
		s.SetVariables(e.Refs)
	case ActionSetClients:
		s.SetClients(e.Refs)
	case ActionLoad:
		return s.LoadByVendorStyle(ctx, e.Value)
	case ActionLoadForDuplicate:
		return s.LoadForDuplicate(ctx, e.ID)
	case ActionStartNew:
		s.StartNew(ctx, e.Value)
	default:
		return fmt.Errorf("%w: %q", ErrUnknownAction, e.Action)
	}
	return nil
}
