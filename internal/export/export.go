// Package export writes styles in the SAP Business One item import layout:
// one row per color and size, and per variable when the style has any.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/JAITteam/ja-uniforms-pricing/internal/pricing"
	"github.com/JAITteam/ja-uniforms-pricing/internal/sizes"
	"github.com/JAITteam/ja-uniforms-pricing/internal/styles"
)

const (
	defaultCardCode = "V100"
	sheetName       = "SAP Export"
)

// Header is the SAP column layout. SAP B1 expects it on the first two lines.
var Header = []string{
	"Code", "Name", "U_COLOR", "U_SIZE", "U_VARIABLE",
	"U_PRICE", "U_SHIP_COST", "U_STYLE", "U_CardCode", "U_PROD_NAME",
}

// Row is one exported line.
type Row struct {
	Color       string
	Size        string
	Variable    string
	Price       float64
	ShipCost    float64
	Style       string
	CardCode    string
	ProductName string
}

func money(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}

// Strings renders the row in Header order. Code and Name are left for SAP.
func (r Row) Strings() []string {
	return []string{"", "", r.Color, r.Size, r.Variable, money(r.Price), money(r.ShipCost), r.Style, r.CardCode, r.ProductName}
}

// ValidationError lists what keeps a style from being exported.
type ValidationError struct {
	VendorStyle string   `json:"vendor_style"`
	StyleName   string   `json:"style_name"`
	Missing     []string `json:"missing"`
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("style %s cannot be exported: missing %s", e.VendorStyle, strings.Join(e.Missing, ", "))
}

// ValidationErrors collects the failures of a bulk export.
type ValidationErrors []*ValidationError

func (e ValidationErrors) Error() string {
	parts := make([]string, 0, len(e))
	for _, v := range e {
		parts = append(parts, v.Error())
	}
	return strings.Join(parts, "; ")
}

// Validate returns the missing required fields of r; an empty result means
// the style can be exported.
func Validate(r styles.Record) []string {
	var missing []string
	if strings.TrimSpace(r.VendorStyle) == "" {
		missing = append(missing, "Vendor Style")
	}
	if strings.TrimSpace(r.StyleName) == "" {
		missing = append(missing, "Style Name")
	}
	if len(r.Colors) == 0 {
		missing = append(missing, "At least ONE Color")
	}
	switch {
	case r.SizeRange == nil:
		missing = append(missing, "Size Range")
	case len(sizes.All(r.SizeRange.RegularSizes, r.SizeRange.ExtendedSizes)) == 0:
		missing = append(missing, "Size Range has NO sizes defined")
	}
	return missing
}

// Rows expands one style into export rows. Regular sizes are priced at the
// style's total cost; extended sizes add the size range markup.
func Rows(r styles.Record, rates pricing.Rates) ([]Row, error) {
	if missing := Validate(r); len(missing) > 0 {
		return nil, &ValidationError{VendorStyle: r.VendorStyle, StyleName: r.StyleName, Missing: missing}
	}

	d := pricing.Recompute(r.Draft(rates))
	base := d.Totals.Grand
	sr := r.SizeRange
	extended := pricing.Round2(base * (1 + max(sr.MarkupPercent, 0)/100))

	cardCode := defaultCardCode
	if len(r.Fabrics) > 0 && r.Fabrics[0].VendorCode != "" {
		cardCode = r.Fabrics[0].VendorCode
	}
	style := strings.ReplaceAll(r.VendorStyle, "-", "")

	variables := make([]string, 0, len(r.Variables))
	for _, v := range r.Variables {
		variables = append(variables, strings.ToUpper(v.Name))
	}

	var rows []Row
	for _, c := range r.Colors {
		color := strings.ToUpper(c.Name)
		for _, size := range sizes.All(sr.RegularSizes, sr.ExtendedSizes) {
			price := base
			if sizes.IsExtended(size, sr.ExtendedSizes) {
				price = extended
			}
			row := Row{
				Color:       color,
				Size:        size,
				Price:       price,
				ShipCost:    r.ShippingCost,
				Style:       style,
				CardCode:    cardCode,
				ProductName: r.StyleName,
			}
			for _, v := range variables {
				withVar := row
				withVar.Variable = v
				rows = append(rows, withVar)
			}
			rows = append(rows, row)
		}
	}
	return rows, nil
}

// RowsForAll validates every record before expanding any of them. When one
// or more fail, the returned error is ValidationErrors.
func RowsForAll(records []styles.Record, rates pricing.Rates) ([]Row, error) {
	var invalid ValidationErrors
	for _, r := range records {
		if missing := Validate(r); len(missing) > 0 {
			invalid = append(invalid, &ValidationError{VendorStyle: r.VendorStyle, StyleName: r.StyleName, Missing: missing})
		}
	}
	if len(invalid) > 0 {
		return nil, invalid
	}

	var all []Row
	for _, r := range records {
		rows, err := Rows(r, rates)
		if err != nil {
			return nil, err
		}
		all = append(all, rows...)
	}
	return all, nil
}

// WriteCSV writes the header twice followed by rows.
func WriteCSV(w io.Writer, rows []Row) error {
	cw := csv.NewWriter(w)
	for i := 0; i < 2; i++ {
		if err := cw.Write(Header); err != nil {
			return fmt.Errorf("write csv header: %w", err)
		}
	}
	for _, r := range rows {
		if err := cw.Write(r.Strings()); err != nil {
			return fmt.Errorf("write csv row: %w", err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("flush csv: %w", err)
	}
	return nil
}

// WriteXLSX writes the same layout as WriteCSV into a single-sheet workbook.
// Prices are stored as numbers.
func WriteXLSX(w io.Writer, rows []Row) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), sheetName); err != nil {
		return fmt.Errorf("name export sheet: %w", err)
	}

	header := make([]any, len(Header))
	for i, h := range Header {
		header[i] = h
	}
	for line := 1; line <= 2; line++ {
		if err := f.SetSheetRow(sheetName, fmt.Sprintf("A%d", line), &header); err != nil {
			return fmt.Errorf("write xlsx header: %w", err)
		}
	}
	for i, r := range rows {
		values := []any{"", "", r.Color, r.Size, r.Variable, r.Price, r.ShipCost, r.Style, r.CardCode, r.ProductName}
		if err := f.SetSheetRow(sheetName, fmt.Sprintf("A%d", i+3), &values); err != nil {
			return fmt.Errorf("write xlsx row %d: %w", i+1, err)
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write xlsx: %w", err)
	}
	return nil
}

// Filename names an export file. An empty vendorStyle names a bulk export.
func Filename(vendorStyle string, now time.Time, ext string) string {
	stamp := now.Format("20060102_150405")
	if vendorStyle == "" {
		return fmt.Sprintf("SAP_Export_%s.%s", stamp, ext)
	}
	safe := strings.Map(func(r rune) rune {
		if r == '-' || r == '_' || ('0' <= r && r <= '9') || ('A' <= r && r <= 'Z') || ('a' <= r && r <= 'z') {
			return r
		}
		return '_'
	}, vendorStyle)
	return fmt.Sprintf("SAP_%s_%s.%s", safe, stamp, ext)
}
