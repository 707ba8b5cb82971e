package styles

import (
	"context"
	"errors"
	"math"
	"path/filepath"
	"testing"

	"github.com/JAITteam/ja-uniforms-pricing/internal/catalog"
	"github.com/JAITteam/ja-uniforms-pricing/internal/db"
	"github.com/JAITteam/ja-uniforms-pricing/internal/migrations"
	"github.com/JAITteam/ja-uniforms-pricing/internal/pricing"
	"github.com/JAITteam/ja-uniforms-pricing/internal/seed"
)

type fixture struct {
	store    *Store
	catalog  *catalog.Store
	poplin   int64
	twill    int64
	button   int64
	navy     int64
	black    int64
	rangeID  int64
	vendorID int64
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	ctx := context.Background()

	database, err := db.Open(filepath.Join(t.TempDir(), "styles-test.db"))
	if err != nil {
		t.Fatalf("open sqlite database: %v", err)
	}
	t.Cleanup(func() { database.Close() })

	if err := migrations.Up(database); err != nil {
		t.Fatalf("run migrations: %v", err)
	}
	if _, err := seed.Run(database, seed.DefaultConfig("", "")); err != nil {
		t.Fatalf("run seed: %v", err)
	}

	cat := catalog.NewStore(database)
	f := fixture{store: NewStore(database), catalog: cat}

	if f.vendorID, err = cat.CreateVendor(ctx, catalog.FabricVendors, catalog.Vendor{Name: "Carolina Mills", FreightShipCost: 0.35}); err != nil {
		t.Fatalf("create fabric vendor: %v", err)
	}
	if f.poplin, err = cat.CreateFabric(ctx, catalog.Fabric{Name: "Poplin", CostPerYard: 4, VendorID: f.vendorID}); err != nil {
		t.Fatalf("create poplin: %v", err)
	}
	if f.twill, err = cat.CreateFabric(ctx, catalog.Fabric{Name: "Twill", CostPerYard: 6, VendorID: f.vendorID}); err != nil {
		t.Fatalf("create twill: %v", err)
	}
	notionVendor, err := cat.CreateVendor(ctx, catalog.NotionVendors, catalog.Vendor{Name: "Trim World"})
	if err != nil {
		t.Fatalf("create notion vendor: %v", err)
	}
	if f.button, err = cat.CreateNotion(ctx, catalog.Notion{Name: "Button", CostPerUnit: 0.25, VendorID: notionVendor}); err != nil {
		t.Fatalf("create notion: %v", err)
	}
	if f.navy, err = cat.CreateNamed(ctx, catalog.Colors, catalog.Named{Name: "Navy"}); err != nil {
		t.Fatalf("create color: %v", err)
	}
	if f.black, err = cat.CreateNamed(ctx, catalog.Colors, catalog.Named{Name: "Black"}); err != nil {
		t.Fatalf("create color: %v", err)
	}

	ranges, err := cat.ListSizeRanges(ctx)
	if err != nil {
		t.Fatalf("list size ranges: %v", err)
	}
	for _, r := range ranges {
		if r.Name == "XS-6XL" {
			f.rangeID = r.ID
		}
	}
	if f.rangeID == 0 {
		t.Fatalf("seeded size range XS-6XL not found")
	}
	return f
}

func (f fixture) input(vendorStyle, name string) Input {
	return Input{
		VendorStyle:    vendorStyle,
		BaseItemNumber: "100",
		StyleName:      name,
		Gender:         "UNISEX",
		GarmentType:    "APRON",
		SizeRangeID:    f.rangeID,
		Margin:         60,
		LabelCost:      0.20,
		Fabrics:        []FabricInput{{FabricID: f.poplin, Yards: 2, Sublimation: true}},
		Notions:        []NotionInput{{NotionID: f.button, Qty: 3}},
		Labor: []LaborInput{
			{Name: "sewing", QtyOrHours: 0.5},
			{Name: "Button/Snap/Grommet", QtyOrHours: 2.6},
			{Name: "Embroidery", QtyOrHours: 1},
		},
		ColorIDs: []int64{f.navy, f.black},
	}
}

func nearlyEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestSaveAndGet(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	id, err := f.store.Save(ctx, f.input("100-AT1P", "Bistro Apron"))
	if err != nil {
		t.Fatalf("save: %v", err)
	}

	r, err := f.store.Get(ctx, id)
	if err != nil {
		t.Fatalf("get: %v", err)
	}

	if r.VendorStyle != "100-AT1P" || r.StyleName != "Bistro Apron" || r.Margin != 60 {
		t.Fatalf("unexpected style fields: %+v", r)
	}
	if !nearlyEqual(r.CleaningCost, 0.96) {
		t.Fatalf("expected cleaning cost 0.96 from garment type, got %v", r.CleaningCost)
	}
	if r.SizeRange == nil || !r.SizeRange.HasExtended() {
		t.Fatalf("expected size range with extended sizes, got %+v", r.SizeRange)
	}
	if len(r.Fabrics) != 1 || !r.Fabrics[0].Primary || r.Fabrics[0].FabricCode != "T1" ||
		r.Fabrics[0].VendorCode != "F101" || !nearlyEqual(r.Fabrics[0].FreightShipCost, 0.35) {
		t.Fatalf("unexpected fabrics: %+v", r.Fabrics)
	}
	if len(r.Notions) != 1 || r.Notions[0].Qty != 3 || r.Notions[0].VendorName != "Trim World" {
		t.Fatalf("unexpected notions: %+v", r.Notions)
	}
	if len(r.Labor) != 2 {
		t.Fatalf("expected unknown labor to be skipped, got %+v", r.Labor)
	}
	for _, l := range r.Labor {
		switch l.Name {
		case "SEWING":
			if l.QtyOrHours != 0.5 || l.Rate != 20 {
				t.Fatalf("unexpected sewing row: %+v", l)
			}
		case "BUTTON/SNAP/GROMMET":
			if l.QtyOrHours != 3 {
				t.Fatalf("per-piece quantity should be rounded to 3, got %+v", l)
			}
		default:
			t.Fatalf("unexpected labor row %+v", l)
		}
	}
	if len(r.Colors) != 2 || r.Colors[0].Name != "BLACK" {
		t.Fatalf("unexpected colors: %+v", r.Colors)
	}

	// fabric 4+6 sublimation x 2 yd + 0.35 freight, notions 0.75, label 0.20,
	// labor 10 + 0.45, cleaning 0.96
	d := pricing.Recompute(r.Draft(pricing.DefaultRates()))
	if !nearlyEqual(d.Totals.Grand, 32.71) {
		t.Fatalf("grand total = %v, want 32.71", d.Totals.Grand)
	}
	if d.SuggestedMargin != 60 || d.StyleID == nil || *d.StyleID != id {
		t.Fatalf("unexpected draft: margin=%v id=%v", d.SuggestedMargin, d.StyleID)
	}
}

func TestSaveRejectsDuplicates(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	if _, err := f.store.Save(ctx, f.input("100-AT1", "Bistro Apron")); err != nil {
		t.Fatalf("save: %v", err)
	}

	if _, err := f.store.Save(ctx, f.input("100-at1", "Other Apron")); !errors.Is(err, ErrDuplicateVendorStyle) {
		t.Fatalf("expected ErrDuplicateVendorStyle, got %v", err)
	}
	if _, err := f.store.Save(ctx, f.input("100-AT2", "bistro apron")); !errors.Is(err, ErrDuplicateStyleName) {
		t.Fatalf("expected ErrDuplicateStyleName, got %v", err)
	}

	missing := int64(999)
	in := f.input("100-AT3", "Missing")
	in.ID = &missing
	if _, err := f.store.Save(ctx, in); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for unknown id, got %v", err)
	}

	if _, err := f.store.Save(ctx, Input{VendorStyle: " "}); !errors.Is(err, ErrInvalid) {
		t.Fatalf("expected ErrInvalid, got %v", err)
	}
}

func TestSaveUpdateReplacesRelations(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	id, err := f.store.Save(ctx, f.input("100-AT1", "Bistro Apron"))
	if err != nil {
		t.Fatalf("save: %v", err)
	}

	in := f.input("100-AT1", "Bistro Apron")
	in.ID = &id
	in.Fabrics = []FabricInput{{FabricID: f.twill, Yards: 1}, {FabricID: f.poplin, Yards: 0.5}}
	in.Notions = nil
	in.Labor = []LaborInput{{Name: "Fusion", QtyOrHours: 1}}
	in.ColorIDs = []int64{f.navy}
	in.SuggestedPrice = 30
	if _, err := f.store.Save(ctx, in); err != nil {
		t.Fatalf("update: %v", err)
	}

	r, err := f.store.Get(ctx, id)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if len(r.Fabrics) != 2 || r.Fabrics[0].FabricID != f.twill || !r.Fabrics[0].Primary || r.Fabrics[1].Primary {
		t.Fatalf("unexpected fabrics after update: %+v", r.Fabrics)
	}
	if len(r.Notions) != 0 || len(r.Colors) != 1 || len(r.Labor) != 1 || r.Labor[0].Name != "FUSION" {
		t.Fatalf("relations not replaced: notions=%+v colors=%+v labor=%+v", r.Notions, r.Colors, r.Labor)
	}
	if r.SuggestedPrice != 30 {
		t.Fatalf("suggested price = %v, want 30", r.SuggestedPrice)
	}

	byCode, err := f.store.GetByVendorStyle(ctx, "100-at1")
	if err != nil {
		t.Fatalf("get by vendor style: %v", err)
	}
	if byCode.ID != id {
		t.Fatalf("GetByVendorStyle returned id %d, want %d", byCode.ID, id)
	}
	if _, err := f.store.GetByVendorStyle(ctx, "NOPE"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestSearchListAndFavorites(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	names := map[string]string{"100-AT1": "Bistro Apron", "200-VS1": "Server Vest", "300-PT1": "Chef Pants"}
	ids := map[string]int64{}
	for code, name := range names {
		id, err := f.store.Save(ctx, f.input(code, name))
		if err != nil {
			t.Fatalf("save %s: %v", code, err)
		}
		ids[code] = id
	}

	got, err := f.store.Search(ctx, "a")
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("single character search should return nothing, got %d", len(got))
	}

	got, err = f.store.Search(ctx, "vest")
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(got) != 1 || got[0].VendorStyle != "200-VS1" {
		t.Fatalf("unexpected search result: %+v", got)
	}

	got, err = f.store.Search(ctx, "-")
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("search for a single hyphen should return nothing, got %d", len(got))
	}

	fav, err := f.store.ToggleFavorite(ctx, ids["300-PT1"])
	if err != nil {
		t.Fatalf("toggle favorite: %v", err)
	}
	if !fav {
		t.Fatalf("expected favorite after first toggle")
	}
	list, err := f.store.List(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 3 || list[0].VendorStyle != "300-PT1" || !list[0].Favorite {
		t.Fatalf("favorites should come first: %+v", list)
	}

	recent, err := f.store.Recent(ctx, 2)
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	if len(recent) != 2 {
		t.Fatalf("expected 2 recent styles, got %d", len(recent))
	}

	if _, err := f.store.ToggleFavorite(ctx, 999); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestDuplicate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	id, err := f.store.Save(ctx, f.input("100-AT1", "Bistro Apron"))
	if err != nil {
		t.Fatalf("save: %v", err)
	}

	firstID, err := f.store.Duplicate(ctx, id)
	if err != nil {
		t.Fatalf("duplicate: %v", err)
	}
	secondID, err := f.store.Duplicate(ctx, id)
	if err != nil {
		t.Fatalf("duplicate again: %v", err)
	}

	first, err := f.store.Get(ctx, firstID)
	if err != nil {
		t.Fatalf("get first copy: %v", err)
	}
	second, err := f.store.Get(ctx, secondID)
	if err != nil {
		t.Fatalf("get second copy: %v", err)
	}

	if first.VendorStyle != "100-AT1-COPY" || first.StyleName != "Bistro Apron (Copy)" {
		t.Fatalf("unexpected first copy: %s / %s", first.VendorStyle, first.StyleName)
	}
	if second.VendorStyle != "100-AT1-COPY1" || second.StyleName != "Bistro Apron (Copy 2)" {
		t.Fatalf("unexpected second copy: %s / %s", second.VendorStyle, second.StyleName)
	}
	if len(first.Fabrics) != 1 || len(first.Labor) != 2 || len(first.Colors) != 2 {
		t.Fatalf("relations not copied: %+v", first)
	}

	if _, err := f.store.Duplicate(ctx, 999); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestDeleteAndBulkDelete(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	a, err := f.store.Save(ctx, f.input("100-AT1", "Bistro Apron"))
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	b, err := f.store.Save(ctx, f.input("200-VS1", "Server Vest"))
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	c, err := f.store.Save(ctx, f.input("300-PT1", "Chef Pants"))
	if err != nil {
		t.Fatalf("save: %v", err)
	}

	if err := f.store.Delete(ctx, a); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := f.store.Delete(ctx, a); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound on second delete, got %v", err)
	}

	n, err := f.store.BulkDelete(ctx, []int64{b, c, 999})
	if err != nil {
		t.Fatalf("bulk delete: %v", err)
	}
	if n != 2 {
		t.Fatalf("bulk delete removed %d styles, want 2", n)
	}

	if err := f.catalog.DeleteFabric(ctx, f.poplin); err != nil {
		t.Fatalf("fabric should be free once its styles are gone: %v", err)
	}
}

func TestImages(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	id, err := f.store.Save(ctx, f.input("100-AT1", "Bistro Apron"))
	if err != nil {
		t.Fatalf("save: %v", err)
	}

	first, err := f.store.AddImage(ctx, id, "style_1_a.jpg", "style_1_a_thumb.jpg")
	if err != nil {
		t.Fatalf("add image: %v", err)
	}
	second, err := f.store.AddImage(ctx, id, "style_1_b.png", "")
	if err != nil {
		t.Fatalf("add image: %v", err)
	}
	if !first.Primary || second.Primary {
		t.Fatalf("only the first image should be primary: %+v %+v", first, second)
	}

	r, err := f.store.Get(ctx, id)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if len(r.Images) != 2 || r.Images[0].URL != "/uploads/style_1_a.jpg" || r.Images[0].ThumbURL != "/uploads/style_1_a_thumb.jpg" {
		t.Fatalf("unexpected images: %+v", r.Images)
	}

	deleted, err := f.store.DeleteImage(ctx, id, first.ID)
	if err != nil {
		t.Fatalf("delete image: %v", err)
	}
	if deleted.Filename != "style_1_a.jpg" {
		t.Fatalf("unexpected deleted image: %+v", deleted)
	}

	images, err := f.store.ListImages(ctx, id)
	if err != nil {
		t.Fatalf("list images: %v", err)
	}
	if len(images) != 1 || !images[0].Primary {
		t.Fatalf("remaining image should be promoted to primary: %+v", images)
	}

	if _, err := f.store.AddImage(ctx, 999, "x.jpg", ""); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if _, err := f.store.DeleteImage(ctx, id, first.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
