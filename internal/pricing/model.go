package pricing

import "strings"

// Gender classifies a style for catalog filtering.
type Gender string

const (
	GenderMens   Gender = "MENS"
	GenderWomens Gender = "WOMENS"
	GenderUnisex Gender = "UNISEX"
)

// PriceBasis names the field that is authoritative for the suggested
// price/margin pair. Recompute derives the other one.
type PriceBasis string

const (
	BasisMargin PriceBasis = "margin"
	BasisPrice  PriceBasis = "price"
)

// Rates holds the fixed constants the derivation rules depend on.
type Rates struct {
	SublimationSurcharge   float64 `json:"sublimation_surcharge"`
	DefaultSuggestedMargin float64 `json:"default_suggested_margin"`
}

// DefaultRates returns the rates used when no configuration overrides them.
func DefaultRates() Rates {
	return Rates{SublimationSurcharge: 6.00, DefaultSuggestedMargin: 60}
}

// FabricLine is one fabric row of a style. CatalogCost, VendorName,
// FabricName, FabricCode and FreightShipCost are copied from the catalog;
// CostPerYard and RowTotal are derived.
type FabricLine struct {
	Primary         bool    `json:"primary"`
	VendorID        int64   `json:"vendor_id"`
	VendorName      string  `json:"vendor_name,omitempty"`
	VendorCode      string  `json:"vendor_code,omitempty"`
	FabricID        int64   `json:"fabric_id"`
	FabricName      string  `json:"fabric_name,omitempty"`
	FabricCode      string  `json:"fabric_code,omitempty"`
	CatalogCost     float64 `json:"catalog_cost"`
	Yards           float64 `json:"yards"`
	FreightShipCost float64 `json:"freight_ship_cost"`
	Sublimation     bool    `json:"sublimation"`
	CostPerYard     float64 `json:"cost_per_yard"`
	RowTotal        float64 `json:"row_total"`
}

// IsEmpty reports whether no authored field of the row is set.
func (l FabricLine) IsEmpty() bool {
	return l.VendorID == 0 && l.FabricID == 0 && l.Yards == 0
}

// IsComplete reports whether vendor, fabric and a positive yardage are all set.
func (l FabricLine) IsComplete() bool {
	return l.VendorID != 0 && l.FabricID != 0 && l.Yards > 0
}

// NotionLine is one notion (trim/fastener) row of a style.
type NotionLine struct {
	Primary     bool    `json:"primary"`
	VendorID    int64   `json:"vendor_id"`
	VendorName  string  `json:"vendor_name,omitempty"`
	NotionID    int64   `json:"notion_id"`
	NotionName  string  `json:"notion_name,omitempty"`
	CostPerUnit float64 `json:"cost_per_unit"`
	Qty         float64 `json:"qty"`
	RowTotal    float64 `json:"row_total"`
}

func (l NotionLine) IsEmpty() bool {
	return l.VendorID == 0 && l.NotionID == 0 && l.Qty == 0
}

func (l NotionLine) IsComplete() bool {
	return l.VendorID != 0 && l.NotionID != 0 && l.Qty > 0
}

// LaborLine is one named labor operation. Its identity is Name.
type LaborLine struct {
	Name       string  `json:"name"`
	CostType   string  `json:"cost_type,omitempty"`
	Rate       float64 `json:"rate"`
	QtyOrHours float64 `json:"qty_or_hours"`
	RowTotal   float64 `json:"row_total"`
}

// LaborRows maps an operation name to its row. Rows are matched to the labor
// catalog by name, never by position.
type LaborRows map[string]LaborLine

// LaborKey normalises an operation name into the LaborRows key.
func LaborKey(name string) string {
	return strings.ToUpper(strings.TrimSpace(name))
}

// SizeRange is a read-only catalog entry selected by the style.
type SizeRange struct {
	ID            int64   `json:"id"`
	Name          string  `json:"name"`
	RegularSizes  string  `json:"regular_sizes"`
	ExtendedSizes string  `json:"extended_sizes"`
	MarkupPercent float64 `json:"extended_markup_percent"`
}

// HasExtended reports whether the range defines an extended size tier.
func (r SizeRange) HasExtended() bool {
	return strings.TrimSpace(r.ExtendedSizes) != ""
}

// Ref points at a catalog entity such as a color, variable or client.
type Ref struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// Image is a stored picture attached to a persisted style.
type Image struct {
	ID       int64  `json:"id"`
	URL      string `json:"url"`
	ThumbURL string `json:"thumb_url,omitempty"`
	Primary  bool   `json:"is_primary"`
}

// Totals are the derived aggregate fields. Extended is nil when the selected
// size range has no extended tier, which is distinct from a zero price.
type Totals struct {
	Materials float64  `json:"materials_total"`
	Labor     float64  `json:"labor_total"`
	Grand     float64  `json:"total_reg"`
	Extended  *float64 `json:"total_ext"`
	Retail    float64  `json:"retail_price"`
}

// Draft is the in-progress form state of a style. Totals and the derived
// row fields are owned by Recompute and never authored directly.
type Draft struct {
	StyleID        *int64 `json:"style_id"`
	VendorStyle    string `json:"vendor_style"`
	BaseItemNumber string `json:"base_item_number"`
	VariantCode    string `json:"variant_code"`
	FabricCode     string `json:"fabric_code"`

	StyleName   string `json:"style_name"`
	Gender      Gender `json:"gender"`
	GarmentType string `json:"garment_type"`
	Notes       string `json:"notes"`

	Margin          float64    `json:"margin"`
	SuggestedMargin float64    `json:"suggested_margin"`
	SuggestedPrice  float64    `json:"suggested_price"`
	PriceBasis      PriceBasis `json:"price_basis"`
	LabelCost       float64    `json:"label_cost"`
	ShippingCost    float64    `json:"shipping_cost"`
	CleaningCost    float64    `json:"cleaning_cost"`

	Fabrics []FabricLine `json:"fabrics"`
	Notions []NotionLine `json:"notions"`
	Labor   LaborRows    `json:"labor"`

	SizeRangeID int64      `json:"size_range_id"`
	SizeRange   *SizeRange `json:"size_range,omitempty"`
	Colors      []Ref      `json:"colors"`
	Variables   []Ref      `json:"variables"`
	Clients     []Ref      `json:"clients"`
	Images      []Image    `json:"images"`

	// Loading is set while a stored style is being hydrated into the draft.
	Loading bool  `json:"loading"`
	Rates   Rates `json:"rates"`

	Totals Totals `json:"totals"`
}

// NewDraft returns an empty, unsaved draft with one blank primary row of each
// kind and the estimation margin preset to the default.
func NewDraft(rates Rates) Draft {
	return Draft{
		Gender:     GenderMens,
		Margin:     rates.DefaultSuggestedMargin,
		PriceBasis: BasisMargin,
		Fabrics:    []FabricLine{{Primary: true}},
		Notions:    []NotionLine{{Primary: true}},
		Labor:      LaborRows{},
		Rates:      rates,
	}
}

// PrimaryFabric returns the first fabric row, which drives the vendor style.
func (d Draft) PrimaryFabric() (FabricLine, bool) {
	if len(d.Fabrics) == 0 {
		return FabricLine{}, false
	}
	return d.Fabrics[0], true
}

// IsNew reports whether the draft has never been saved.
func (d Draft) IsNew() bool {
	return d.StyleID == nil
}

// Clone returns a deep copy so callers can mutate it without aliasing.
func (d Draft) Clone() Draft {
	out := d
	if d.StyleID != nil {
		id := *d.StyleID
		out.StyleID = &id
	}
	out.Fabrics = append([]FabricLine(nil), d.Fabrics...)
	out.Notions = append([]NotionLine(nil), d.Notions...)
	out.Labor = make(LaborRows, len(d.Labor))
	for k, v := range d.Labor {
		out.Labor[k] = v
	}
	if d.SizeRange != nil {
		sr := *d.SizeRange
		out.SizeRange = &sr
	}
	out.Colors = append([]Ref(nil), d.Colors...)
	out.Variables = append([]Ref(nil), d.Variables...)
	out.Clients = append([]Ref(nil), d.Clients...)
	out.Images = append([]Image(nil), d.Images...)
	if d.Totals.Extended != nil {
		ext := *d.Totals.Extended
		out.Totals.Extended = &ext
	}
	return out
}
