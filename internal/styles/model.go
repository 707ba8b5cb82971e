package styles

import (
	"errors"
	"time"

	"github.com/JAITteam/ja-uniforms-pricing/internal/pricing"
)

var (
	ErrNotFound             = errors.New("style not found")
	ErrDuplicateVendorStyle = errors.New("vendor style already exists")
	ErrDuplicateStyleName   = errors.New("style name already exists")
)

// Input is the save payload for one style. Empty rows must already be
// filtered out by the caller.
type Input struct {
	ID             *int64        `json:"style_id"`
	VendorStyle    string        `json:"vendor_style"`
	BaseItemNumber string        `json:"base_item_number"`
	VariantCode    string        `json:"variant_code"`
	StyleName      string        `json:"style_name"`
	Gender         string        `json:"gender"`
	GarmentType    string        `json:"garment_type"`
	Notes          string        `json:"notes"`
	SizeRangeID    int64         `json:"size_range_id"`
	Margin         float64       `json:"margin"`
	SuggestedPrice float64       `json:"suggested_price"`
	LabelCost      float64       `json:"label_cost"`
	ShippingCost   float64       `json:"shipping_cost"`
	Fabrics        []FabricInput `json:"fabrics"`
	Notions        []NotionInput `json:"notions"`
	Labor          []LaborInput  `json:"labor"`
	ColorIDs       []int64       `json:"color_ids"`
	VariableIDs    []int64       `json:"variable_ids"`
	ClientIDs      []int64       `json:"client_ids"`
}

type FabricInput struct {
	FabricID    int64   `json:"fabric_id"`
	Yards       float64 `json:"yards"`
	Sublimation bool    `json:"sublimation"`
}

type NotionInput struct {
	NotionID int64   `json:"notion_id"`
	Qty      float64 `json:"qty"`
}

// LaborInput names the operation; the store resolves it against the labor
// catalog case-insensitively.
type LaborInput struct {
	Name       string  `json:"name"`
	QtyOrHours float64 `json:"qty_or_hours"`
}

// Record is a persisted style with its catalog data joined in. Fabric and
// notion rows keep insertion order.
type Record struct {
	ID             int64                `json:"id"`
	VendorStyle    string               `json:"vendor_style"`
	BaseItemNumber string               `json:"base_item_number"`
	VariantCode    string               `json:"variant_code"`
	StyleName      string               `json:"style_name"`
	Gender         string               `json:"gender"`
	GarmentType    string               `json:"garment_type"`
	Notes          string               `json:"notes"`
	SizeRange      *pricing.SizeRange   `json:"size_range,omitempty"`
	Margin         float64              `json:"margin"`
	SuggestedPrice float64              `json:"suggested_price"`
	LabelCost      float64              `json:"label_cost"`
	ShippingCost   float64              `json:"shipping_cost"`
	CleaningCost   float64              `json:"cleaning_cost"`
	Favorite       bool                 `json:"is_favorite"`
	CreatedAt      time.Time            `json:"created_at"`
	UpdatedAt      time.Time            `json:"updated_at"`
	Fabrics        []pricing.FabricLine `json:"fabrics"`
	Notions        []pricing.NotionLine `json:"notions"`
	Labor          []pricing.LaborLine  `json:"labor"`
	Colors         []pricing.Ref        `json:"colors"`
	Variables      []pricing.Ref        `json:"variables"`
	Clients        []pricing.Ref        `json:"clients"`
	Images         []pricing.Image      `json:"images"`
}

// Draft converts the record into the authored fields of a pricing draft.
// The stored margin becomes the suggested margin; derived fields are left for
// pricing.Recompute.
func (r Record) Draft(rates pricing.Rates) pricing.Draft {
	d := pricing.NewDraft(rates)
	id := r.ID
	d.StyleID = &id
	d.VendorStyle = r.VendorStyle
	d.BaseItemNumber = r.BaseItemNumber
	d.VariantCode = r.VariantCode
	d.StyleName = r.StyleName
	d.Gender = pricing.Gender(r.Gender)
	d.GarmentType = r.GarmentType
	d.Notes = r.Notes
	d.SuggestedMargin = r.Margin
	d.SuggestedPrice = r.SuggestedPrice
	d.LabelCost = r.LabelCost
	d.ShippingCost = r.ShippingCost
	d.CleaningCost = r.CleaningCost

	if len(r.Fabrics) > 0 {
		d.Fabrics = append([]pricing.FabricLine(nil), r.Fabrics...)
		d.FabricCode = r.Fabrics[0].FabricCode
	}
	if len(r.Notions) > 0 {
		d.Notions = append([]pricing.NotionLine(nil), r.Notions...)
	}
	for _, l := range r.Labor {
		d.Labor[pricing.LaborKey(l.Name)] = l
	}
	if r.SizeRange != nil {
		sr := *r.SizeRange
		d.SizeRange = &sr
		d.SizeRangeID = sr.ID
	}
	d.Colors = append([]pricing.Ref(nil), r.Colors...)
	d.Variables = append([]pricing.Ref(nil), r.Variables...)
	d.Clients = append([]pricing.Ref(nil), r.Clients...)
	d.Images = append([]pricing.Image(nil), r.Images...)
	return d
}

// Summary is one row of the style list.
type Summary struct {
	ID          int64     `json:"id"`
	VendorStyle string    `json:"vendor_style"`
	StyleName   string    `json:"style_name"`
	Gender      string    `json:"gender"`
	GarmentType string    `json:"garment_type"`
	Favorite    bool      `json:"is_favorite"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Input converts the record back into a save payload.
func (r Record) Input() Input {
	id := r.ID
	in := Input{
		ID:             &id,
		VendorStyle:    r.VendorStyle,
		BaseItemNumber: r.BaseItemNumber,
		VariantCode:    r.VariantCode,
		StyleName:      r.StyleName,
		Gender:         r.Gender,
		GarmentType:    r.GarmentType,
		Notes:          r.Notes,
		Margin:         r.Margin,
		SuggestedPrice: r.SuggestedPrice,
		LabelCost:      r.LabelCost,
		ShippingCost:   r.ShippingCost,
	}
	if r.SizeRange != nil {
		in.SizeRangeID = r.SizeRange.ID
	}
	for _, f := range r.Fabrics {
		in.Fabrics = append(in.Fabrics, FabricInput{FabricID: f.FabricID, Yards: f.Yards, Sublimation: f.Sublimation})
	}
	for _, n := range r.Notions {
		in.Notions = append(in.Notions, NotionInput{NotionID: n.NotionID, Qty: n.Qty})
	}
	for _, l := range r.Labor {
		in.Labor = append(in.Labor, LaborInput{Name: l.Name, QtyOrHours: l.QtyOrHours})
	}
	for _, c := range r.Colors {
		in.ColorIDs = append(in.ColorIDs, c.ID)
	}
	for _, v := range r.Variables {
		in.VariableIDs = append(in.VariableIDs, v.ID)
	}
	for _, c := range r.Clients {
		in.ClientIDs = append(in.ClientIDs, c.ID)
	}
	return in
}
