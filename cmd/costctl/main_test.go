package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/fatih/color"

	"github.com/JAITteam/ja-uniforms-pricing/internal/catalog"
	"github.com/JAITteam/ja-uniforms-pricing/internal/db"
	"github.com/JAITteam/ja-uniforms-pricing/internal/styles"
)

func run(t *testing.T, args ...string) string {
	t.Helper()
	color.NoColor = true

	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	if err := cmd.Execute(); err != nil {
		t.Fatalf("costctl %s: %v\n%s", strings.Join(args, " "), err, out.String())
	}
	return out.String()
}

func TestSizesCommand(t *testing.T) {
	got := run(t, "sizes", "XS-L", "--extended", "2XL-3XL")
	want := "XS\nS\nM\nL\n2XL (extended)\n3XL (extended)\n"
	if got != want {
		t.Fatalf("sizes output:\n%s\nwant:\n%s", got, want)
	}
}

// storeStyle saves a one-fabric apron directly through the stores.
func storeStyle(t *testing.T, path string) {
	t.Helper()
	ctx := context.Background()

	database, err := db.Open(path)
	if err != nil {
		t.Fatalf("open database: %v", err)
	}
	defer database.Close()

	cat := catalog.NewStore(database)
	vendorID, err := cat.CreateVendor(ctx, catalog.FabricVendors, catalog.Vendor{Name: "Carolina Mills", FreightShipCost: 0.35})
	if err != nil {
		t.Fatalf("create vendor: %v", err)
	}
	fabricID, err := cat.CreateFabric(ctx, catalog.Fabric{Name: "Poplin", CostPerYard: 4, VendorID: vendorID})
	if err != nil {
		t.Fatalf("create fabric: %v", err)
	}
	navy, err := cat.CreateNamed(ctx, catalog.Colors, catalog.Named{Name: "Navy"})
	if err != nil {
		t.Fatalf("create color: %v", err)
	}
	ranges, err := cat.ListSizeRanges(ctx)
	if err != nil {
		t.Fatalf("list size ranges: %v", err)
	}
	var rangeID int64
	for _, r := range ranges {
		if r.Name == "XS-XL" {
			rangeID = r.ID
		}
	}

	_, err = styles.NewStore(database).Save(ctx, styles.Input{
		VendorStyle:    "100T1",
		BaseItemNumber: "100",
		StyleName:      "Bistro Apron",
		Gender:         "UNISEX",
		SizeRangeID:    rangeID,
		Margin:         60,
		LabelCost:      0.20,
		Fabrics:        []styles.FabricInput{{FabricID: fabricID, Yards: 2}},
		ColorIDs:       []int64{navy},
	})
	if err != nil {
		t.Fatalf("save style: %v", err)
	}
}

func TestMigrateSeedEstimateExport(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "cli.db")

	if out := run(t, "--db", path, "migrate"); !strings.Contains(out, "schema at version 1") {
		t.Fatalf("unexpected migrate output: %q", out)
	}
	if out := run(t, "--db", path, "seed"); !strings.Contains(out, "seed complete") {
		t.Fatalf("unexpected seed output: %q", out)
	}
	if out := run(t, "--db", path, "seed"); !strings.Contains(out, "0 inserted") {
		t.Fatalf("second seed should insert nothing: %q", out)
	}

	storeStyle(t, path)

	out := run(t, "--db", path, "estimate", "100T1")
	for _, want := range []string{"100T1  Bistro Apron", "T1 Poplin", "Total", "$8.55"} {
		if !strings.Contains(out, want) {
			t.Fatalf("estimate output missing %q:\n%s", want, out)
		}
	}

	csvPath := filepath.Join(dir, "out", "export.csv")
	if out := run(t, "--db", path, "export", "--out", csvPath, "100T1"); !strings.Contains(out, "wrote 5 rows for 1 styles") {
		t.Fatalf("unexpected export output: %q", out)
	}
	raw, err := os.ReadFile(csvPath)
	if err != nil {
		t.Fatalf("read export: %v", err)
	}
	if !strings.Contains(string(raw), "NAVY,XS,,8.55,0.00,100T1,F101,Bistro Apron") {
		t.Fatalf("unexpected export content:\n%s", raw)
	}
}
