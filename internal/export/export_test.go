package export

import (
	"bytes"
	"encoding/csv"
	"errors"
	"slices"
	"strings"
	"testing"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/JAITteam/ja-uniforms-pricing/internal/pricing"
	"github.com/JAITteam/ja-uniforms-pricing/internal/styles"
)

func exportable() styles.Record {
	return styles.Record{
		ID:           1,
		VendorStyle:  "100-AT1",
		StyleName:    "Bistro Apron",
		ShippingCost: 2,
		Margin:       60,
		SizeRange: &pricing.SizeRange{
			ID:            1,
			Name:          "S-2XL",
			RegularSizes:  "S-M",
			ExtendedSizes: "2XL",
			MarkupPercent: 10,
		},
		Fabrics: []pricing.FabricLine{{
			VendorID:    1,
			VendorCode:  "F101",
			FabricID:    1,
			CatalogCost: 5,
			Yards:       2,
		}},
		Colors:    []pricing.Ref{{ID: 1, Name: "navy"}},
		Variables: []pricing.Ref{{ID: 1, Name: "Logo"}},
	}
}

func TestValidate(t *testing.T) {
	if missing := Validate(exportable()); len(missing) != 0 {
		t.Fatalf("expected exportable style, missing %v", missing)
	}

	r := exportable()
	r.StyleName = " "
	r.Colors = nil
	r.SizeRange = nil
	want := []string{"Style Name", "At least ONE Color", "Size Range"}
	if got := Validate(r); !slices.Equal(got, want) {
		t.Fatalf("Validate = %v, want %v", got, want)
	}

	r = exportable()
	r.SizeRange.RegularSizes = ""
	r.SizeRange.ExtendedSizes = ""
	if got := Validate(r); !slices.Equal(got, []string{"Size Range has NO sizes defined"}) {
		t.Fatalf("Validate = %v", got)
	}
}

func TestRows(t *testing.T) {
	rows, err := Rows(exportable(), pricing.DefaultRates())
	if err != nil {
		t.Fatalf("rows: %v", err)
	}

	// 3 sizes, each with one variable row and one blank-variable row.
	if len(rows) != 6 {
		t.Fatalf("expected 6 rows, got %d", len(rows))
	}

	first := rows[0]
	want := []string{"", "", "NAVY", "S", "LOGO", "12.00", "2.00", "100AT1", "F101", "Bistro Apron"}
	if got := first.Strings(); !slices.Equal(got, want) {
		t.Fatalf("first row = %v, want %v", got, want)
	}
	if rows[1].Variable != "" || rows[1].Size != "S" {
		t.Fatalf("second row should be the blank-variable row for S: %+v", rows[1])
	}
	ext := rows[4]
	if ext.Size != "2XL" || ext.Price != 13.2 {
		t.Fatalf("extended row = %+v, want 2XL at 13.20", ext)
	}
}

func TestRowsDefaultsCardCode(t *testing.T) {
	r := exportable()
	r.Fabrics[0].VendorCode = ""
	r.Variables = nil

	rows, err := Rows(r, pricing.DefaultRates())
	if err != nil {
		t.Fatalf("rows: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("expected one row per size without variables, got %d", len(rows))
	}
	if rows[0].CardCode != "V100" {
		t.Fatalf("card code = %q, want V100", rows[0].CardCode)
	}
}

func TestRowsForAllReportsEveryInvalidStyle(t *testing.T) {
	bad1 := exportable()
	bad1.VendorStyle = "200-VS1"
	bad1.Colors = nil
	bad2 := exportable()
	bad2.VendorStyle = "300-PT1"
	bad2.SizeRange = nil

	_, err := RowsForAll([]styles.Record{exportable(), bad1, bad2}, pricing.DefaultRates())
	var verrs ValidationErrors
	if !errors.As(err, &verrs) {
		t.Fatalf("expected ValidationErrors, got %v", err)
	}
	if len(verrs) != 2 || verrs[0].VendorStyle != "200-VS1" || verrs[1].VendorStyle != "300-PT1" {
		t.Fatalf("unexpected validation errors: %+v", verrs)
	}

	rows, err := RowsForAll([]styles.Record{exportable(), exportable()}, pricing.DefaultRates())
	if err != nil {
		t.Fatalf("rows for all: %v", err)
	}
	if len(rows) != 12 {
		t.Fatalf("expected 12 rows, got %d", len(rows))
	}
}

func TestWriteCSVRepeatsHeader(t *testing.T) {
	rows, err := Rows(exportable(), pricing.DefaultRates())
	if err != nil {
		t.Fatalf("rows: %v", err)
	}

	var buf bytes.Buffer
	if err := WriteCSV(&buf, rows); err != nil {
		t.Fatalf("write csv: %v", err)
	}

	records, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatalf("read csv: %v", err)
	}
	if len(records) != 8 {
		t.Fatalf("expected 2 header lines and 6 rows, got %d", len(records))
	}
	if !slices.Equal(records[0], Header) || !slices.Equal(records[1], Header) {
		t.Fatalf("header should appear twice: %v / %v", records[0], records[1])
	}
}

func TestWriteXLSX(t *testing.T) {
	rows, err := Rows(exportable(), pricing.DefaultRates())
	if err != nil {
		t.Fatalf("rows: %v", err)
	}

	var buf bytes.Buffer
	if err := WriteXLSX(&buf, rows); err != nil {
		t.Fatalf("write xlsx: %v", err)
	}

	f, err := excelize.OpenReader(&buf)
	if err != nil {
		t.Fatalf("open xlsx: %v", err)
	}
	defer f.Close()

	got, err := f.GetRows(sheetName)
	if err != nil {
		t.Fatalf("get rows: %v", err)
	}
	if len(got) != 8 {
		t.Fatalf("expected 8 rows, got %d", len(got))
	}
	if got[1][7] != "U_STYLE" || got[2][2] != "NAVY" || got[2][5] != "12" {
		t.Fatalf("unexpected sheet content: %v", got[:3])
	}
}

func TestFilename(t *testing.T) {
	now := time.Date(2026, 3, 4, 5, 6, 7, 0, time.UTC)
	if got := Filename("100-AT1", now, "csv"); got != "SAP_100-AT1_20260304_050607.csv" {
		t.Fatalf("Filename = %q", got)
	}
	if got := Filename("", now, "xlsx"); got != "SAP_Export_20260304_050607.xlsx" {
		t.Fatalf("bulk Filename = %q", got)
	}
	if got := Filename("a/b c", now, "csv"); strings.ContainsAny(got, "/ ") {
		t.Fatalf("Filename should sanitize, got %q", got)
	}
}
