package main

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"math"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/JAITteam/ja-uniforms-pricing/internal/catalog"
	"github.com/JAITteam/ja-uniforms-pricing/internal/config"
	"github.com/JAITteam/ja-uniforms-pricing/internal/db"
	"github.com/JAITteam/ja-uniforms-pricing/internal/images"
	"github.com/JAITteam/ja-uniforms-pricing/internal/migrations"
	"github.com/JAITteam/ja-uniforms-pricing/internal/pricing"
	"github.com/JAITteam/ja-uniforms-pricing/internal/seed"
	"github.com/JAITteam/ja-uniforms-pricing/internal/styles"
	"github.com/JAITteam/ja-uniforms-pricing/internal/wizard"
)

const (
	testEmail    = "admin@example.com"
	testPassword = "s3cret-pass"
)

func newTestServer(t *testing.T) *server {
	t.Helper()

	database, err := db.Open(filepath.Join(t.TempDir(), "server-test.db"))
	if err != nil {
		t.Fatalf("failed to open sqlite db: %v", err)
	}
	t.Cleanup(func() {
		_ = database.Close()
	})

	if err := migrations.Up(database); err != nil {
		t.Fatalf("failed to run migrations: %v", err)
	}
	if _, err := seed.Run(database, seed.DefaultConfig(testEmail, testPassword)); err != nil {
		t.Fatalf("failed to seed database: %v", err)
	}

	imgs, err := images.New(filepath.Join(t.TempDir(), "uploads"))
	if err != nil {
		t.Fatalf("failed to prepare upload dir: %v", err)
	}

	return newServer(database, newAuthService(database, "test-secret"), imgs, config.DefaultPricing())
}

type testClient struct {
	t      *testing.T
	h      http.Handler
	cookie *http.Cookie
}

// login returns a client carrying the session cookie of the seeded admin.
func login(t *testing.T, srv *server) testClient {
	t.Helper()
	c := testClient{t: t, h: srv.routes()}
	rr := c.do(http.MethodPost, "/api/login", loginRequest{Email: testEmail, Password: testPassword})
	if rr.Code != http.StatusOK {
		t.Fatalf("login: expected 200, got %d: %s", rr.Code, rr.Body.String())
	}
	for _, ck := range rr.Result().Cookies() {
		if ck.Name == sessionCookieName {
			c.cookie = ck
		}
	}
	if c.cookie == nil {
		t.Fatalf("login did not set %s", sessionCookieName)
	}
	return c
}

func (c testClient) send(req *http.Request) *httptest.ResponseRecorder {
	if c.cookie != nil {
		req.AddCookie(c.cookie)
	}
	rr := httptest.NewRecorder()
	c.h.ServeHTTP(rr, req)
	return rr
}

func (c testClient) do(method, path string, body any) *httptest.ResponseRecorder {
	c.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			c.t.Fatalf("encode request body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	return c.send(req)
}

func decode[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(rr.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode response %q: %v", rr.Body.String(), err)
	}
	return v
}

func expectStatus(t *testing.T, rr *httptest.ResponseRecorder, want int) {
	t.Helper()
	if rr.Code != want {
		t.Fatalf("expected status %d, got %d: %s", want, rr.Code, rr.Body.String())
	}
}

func (c testClient) event(state wizard.State, e wizard.Event) wizardResponse {
	c.t.Helper()
	rr := c.do(http.MethodPost, "/api/wizard/event", wizardRequest{State: &state, Event: e})
	expectStatus(c.t, rr, http.StatusOK)
	return decode[wizardResponse](c.t, rr)
}

type catalogFixture struct {
	fabricID int64
	navyID   int64
	rangeID  int64
}

func (c testClient) seedCatalog() catalogFixture {
	c.t.Helper()
	var f catalogFixture

	rr := c.do(http.MethodPost, "/api/catalog/vendors/fabric", catalog.Vendor{Name: "Carolina Mills", FreightShipCost: 0.35})
	expectStatus(c.t, rr, http.StatusCreated)
	vendor := decode[catalog.Vendor](c.t, rr)
	if vendor.VendorCode != "F101" {
		c.t.Fatalf("expected generated vendor code F101, got %q", vendor.VendorCode)
	}

	rr = c.do(http.MethodPost, "/api/catalog/fabrics", catalog.Fabric{Name: "Poplin", CostPerYard: 4, VendorID: vendor.ID})
	expectStatus(c.t, rr, http.StatusCreated)
	fabric := decode[catalog.Fabric](c.t, rr)
	if fabric.FabricCode != "T1" || fabric.FreightShipCost != 0.35 {
		c.t.Fatalf("unexpected fabric: %+v", fabric)
	}
	f.fabricID = fabric.ID

	rr = c.do(http.MethodPost, "/api/catalog/names/colors", catalog.Named{Name: "navy"})
	expectStatus(c.t, rr, http.StatusCreated)
	f.navyID = decode[catalog.Named](c.t, rr).ID

	rr = c.do(http.MethodGet, "/api/catalog/size-ranges", nil)
	expectStatus(c.t, rr, http.StatusOK)
	for _, sr := range decode[[]catalog.SizeRange](c.t, rr) {
		if sr.Name == "XS-XL" {
			f.rangeID = sr.ID
		}
	}
	if f.rangeID == 0 {
		c.t.Fatalf("seeded size range XS-XL not found")
	}
	return f
}

// buildStyle drives the wizard to a saveable apron and returns its state.
func (c testClient) buildStyle(f catalogFixture) wizard.State {
	c.t.Helper()
	rr := c.do(http.MethodPost, "/api/wizard/new", nil)
	expectStatus(c.t, rr, http.StatusOK)
	state := decode[wizardResponse](c.t, rr).State

	events := []wizard.Event{
		{Action: wizard.ActionSetBaseItemNumber, Value: "100"},
		{Action: wizard.ActionSetStyleName, Value: "Bistro Apron"},
		{Action: wizard.ActionSelectFabric, Index: 0, ID: f.fabricID},
		{Action: wizard.ActionSetFabricYards, Index: 0, Value: "2"},
		{Action: wizard.ActionSetColors, Refs: []pricing.Ref{{ID: f.navyID, Name: "NAVY"}}},
		{Action: wizard.ActionSetSizeRange, ID: f.rangeID},
	}
	for _, e := range events {
		state = c.event(state, e).State
	}
	return state
}

func TestAuthMiddlewareRequiresSession(t *testing.T) {
	srv := newTestServer(t)
	anon := testClient{t: t, h: srv.routes()}

	expectStatus(t, anon.do(http.MethodGet, "/api/styles", nil), http.StatusUnauthorized)
	expectStatus(t, anon.do(http.MethodPost, "/api/login", loginRequest{Email: testEmail, Password: "wrong"}), http.StatusUnauthorized)
	expectStatus(t, anon.do(http.MethodPost, "/api/login", loginRequest{Email: "nobody@example.com", Password: testPassword}), http.StatusUnauthorized)

	c := login(t, srv)
	rr := c.do(http.MethodGet, "/api/styles", nil)
	expectStatus(t, rr, http.StatusOK)
	if strings.TrimSpace(rr.Body.String()) != "[]" {
		t.Fatalf("expected empty style list, got %s", rr.Body.String())
	}
}

func TestSessionValueExpiresAndRejectsTampering(t *testing.T) {
	now := time.Date(2026, 1, 1, 8, 0, 0, 0, time.UTC)
	auth := &authService{sessionSecret: []byte("secret"), now: func() time.Time { return now }}

	value := auth.createSessionValue(testEmail)
	if email, ok := auth.verifySessionValue(value); !ok || email != testEmail {
		t.Fatalf("fresh session rejected: %q %v", email, ok)
	}

	other := &authService{sessionSecret: []byte("other"), now: auth.now}
	if _, ok := other.verifySessionValue(value); ok {
		t.Fatalf("session signed with another secret was accepted")
	}
	if _, ok := auth.verifySessionValue("x" + value); ok {
		t.Fatalf("tampered session was accepted")
	}

	now = now.Add(sessionTTL + time.Second)
	if _, ok := auth.verifySessionValue(value); ok {
		t.Fatalf("expired session was accepted")
	}
}

func TestWizardBuildsAndSavesStyle(t *testing.T) {
	srv := newTestServer(t)
	c := login(t, srv)
	f := c.seedCatalog()

	state := c.buildStyle(f)
	if state.Draft.VendorStyle != "100T1" {
		t.Fatalf("expected encoded vendor style 100T1, got %q", state.Draft.VendorStyle)
	}
	// 2 yd x 4.00 + 0.35 freight + 0.20 label
	if math.Abs(state.Draft.Totals.Grand-8.55) > 1e-9 {
		t.Fatalf("grand total = %v, want 8.55", state.Draft.Totals.Grand)
	}
	if !state.Dirty {
		t.Fatalf("edited draft should be dirty")
	}

	rr := c.do(http.MethodPost, "/api/wizard/save", wizardRequest{State: &state})
	expectStatus(t, rr, http.StatusOK)
	saved := decode[wizardResponse](t, rr)
	if saved.StyleID == 0 || saved.State.Dirty {
		t.Fatalf("unexpected save response: id=%d dirty=%v", saved.StyleID, saved.State.Dirty)
	}

	rr = c.do(http.MethodGet, "/api/styles/"+strconv.FormatInt(saved.StyleID, 10), nil)
	expectStatus(t, rr, http.StatusOK)
	got := decode[styleResponse](t, rr)
	if got.VendorStyle != "100T1" || math.Abs(got.Totals.Grand-8.55) > 1e-9 {
		t.Fatalf("unexpected stored style: %s %v", got.VendorStyle, got.Totals.Grand)
	}

	fresh := c.buildStyle(f)
	rr = c.do(http.MethodPost, "/api/wizard/save", wizardRequest{State: &fresh})
	expectStatus(t, rr, http.StatusConflict)
}

func TestWizardReportsErrorsWithState(t *testing.T) {
	srv := newTestServer(t)
	c := login(t, srv)

	rr := c.do(http.MethodPost, "/api/wizard/new", nil)
	expectStatus(t, rr, http.StatusOK)
	state := decode[wizardResponse](t, rr).State

	rr = c.do(http.MethodPost, "/api/wizard/event", wizardRequest{State: &state, Event: wizard.Event{Action: "launch_rocket"}})
	expectStatus(t, rr, http.StatusBadRequest)

	rr = c.do(http.MethodPost, "/api/wizard/event", wizardRequest{State: &state, Event: wizard.Event{Action: wizard.ActionLoad, Value: "999-NOPE"}})
	expectStatus(t, rr, http.StatusNotFound)
	resp := decode[wizardResponse](t, rr)
	if resp.Error == "" || len(resp.Notices) == 0 {
		t.Fatalf("expected error and notice for a missing style, got %+v", resp)
	}

	rr = c.do(http.MethodPost, "/api/wizard/save", wizardRequest{State: &state})
	expectStatus(t, rr, http.StatusBadRequest)
	resp = decode[wizardResponse](t, rr)
	if resp.Guard == nil || resp.Guard.Allowed || resp.Guard.Reason != "style name is required" {
		t.Fatalf("unexpected guard: %+v", resp.Guard)
	}

	expectStatus(t, c.do(http.MethodPost, "/api/wizard/event", map[string]any{}), http.StatusBadRequest)
}

func TestCatalogErrorMapping(t *testing.T) {
	srv := newTestServer(t)
	c := login(t, srv)
	c.seedCatalog()

	expectStatus(t, c.do(http.MethodGet, "/api/catalog/vendors/bogus", nil), http.StatusBadRequest)
	expectStatus(t, c.do(http.MethodGet, "/api/catalog/fabrics/999", nil), http.StatusNotFound)
	expectStatus(t, c.do(http.MethodGet, "/api/catalog/fabrics/abc", nil), http.StatusBadRequest)
	expectStatus(t, c.do(http.MethodPost, "/api/catalog/names/colors", catalog.Named{Name: "NAVY"}), http.StatusConflict)

	rr := c.do(http.MethodGet, "/api/catalog/vendors/fabric", nil)
	expectStatus(t, rr, http.StatusOK)
	vendors := decode[[]catalog.Vendor](t, rr)
	if len(vendors) != 1 {
		t.Fatalf("expected 1 vendor, got %+v", vendors)
	}
	path := "/api/catalog/vendors/fabric/" + strconv.FormatInt(vendors[0].ID, 10)
	expectStatus(t, c.do(http.MethodDelete, path, nil), http.StatusConflict)

	rr = c.do(http.MethodGet, "/api/catalog/vendors/fabric/next-code", nil)
	expectStatus(t, rr, http.StatusOK)
	if code := decode[map[string]string](t, rr)["vendor_code"]; code != "F102" {
		t.Fatalf("next vendor code = %q, want F102", code)
	}

	rr = c.do(http.MethodPost, "/api/catalog/size-ranges", map[string]string{"name": "kids", "regular_sizes": "4-12"})
	expectStatus(t, rr, http.StatusCreated)
	sr := decode[catalog.SizeRange](t, rr)
	if sr.Name != "KIDS" || sr.MarkupPercent != 15 {
		t.Fatalf("unexpected size range: %+v", sr)
	}

	rr = c.do(http.MethodGet, "/api/catalog/cleaning/for/apron", nil)
	expectStatus(t, rr, http.StatusOK)
	if cc := decode[catalog.CleaningCost](t, rr); cc.FixedCost != 0.96 {
		t.Fatalf("unexpected cleaning cost: %+v", cc)
	}
}

func TestExportStyle(t *testing.T) {
	srv := newTestServer(t)
	c := login(t, srv)
	f := c.seedCatalog()

	state := c.buildStyle(f)
	rr := c.do(http.MethodPost, "/api/wizard/save", wizardRequest{State: &state})
	expectStatus(t, rr, http.StatusOK)
	id := decode[wizardResponse](t, rr).StyleID
	base := "/api/styles/" + strconv.FormatInt(id, 10)

	rr = c.do(http.MethodGet, base+"/export?format=csv", nil)
	expectStatus(t, rr, http.StatusOK)
	if cd := rr.Header().Get("Content-Disposition"); !strings.Contains(cd, "SAP_100T1_") {
		t.Fatalf("unexpected Content-Disposition %q", cd)
	}
	records, err := csv.NewReader(rr.Body).ReadAll()
	if err != nil {
		t.Fatalf("read csv: %v", err)
	}
	// two header lines, then XS..XL for NAVY
	if len(records) != 2+5 {
		t.Fatalf("expected 7 csv lines, got %d", len(records))
	}
	if records[2][2] != "NAVY" || records[2][3] != "XS" || records[2][5] != "8.55" {
		t.Fatalf("unexpected first row: %v", records[2])
	}

	expectStatus(t, c.do(http.MethodGet, base+"/export?format=pdf", nil), http.StatusBadRequest)

	state = c.event(saved(t, c, id), wizard.Event{Action: wizard.ActionSetColors}).State
	expectStatus(t, c.do(http.MethodPost, "/api/wizard/save", wizardRequest{State: &state}), http.StatusOK)

	rr = c.do(http.MethodGet, "/api/styles/export?ids="+strconv.FormatInt(id, 10), nil)
	expectStatus(t, rr, http.StatusUnprocessableEntity)
	body := decode[map[string]json.RawMessage](t, rr)
	if !strings.Contains(string(body["styles"]), "At least ONE Color") {
		t.Fatalf("expected missing color in %s", rr.Body.String())
	}
}

// saved loads a stored style into a fresh wizard state.
func saved(t *testing.T, c testClient, id int64) wizard.State {
	t.Helper()
	rr := c.do(http.MethodPost, "/api/wizard/new", nil)
	expectStatus(t, rr, http.StatusOK)
	state := decode[wizardResponse](t, rr).State

	rr = c.do(http.MethodGet, "/api/styles/"+strconv.FormatInt(id, 10), nil)
	expectStatus(t, rr, http.StatusOK)
	vendorStyle := decode[styleResponse](t, rr).VendorStyle

	return c.event(state, wizard.Event{Action: wizard.ActionLoad, Value: vendorStyle}).State
}

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			img.Set(x, y, color.RGBA{R: 200, G: 30, B: 30, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return buf.Bytes()
}

func TestImageUploadAndDelete(t *testing.T) {
	srv := newTestServer(t)
	c := login(t, srv)
	f := c.seedCatalog()

	state := c.buildStyle(f)
	rr := c.do(http.MethodPost, "/api/wizard/save", wizardRequest{State: &state})
	expectStatus(t, rr, http.StatusOK)
	id := decode[wizardResponse](t, rr).StyleID
	base := "/api/styles/" + strconv.FormatInt(id, 10) + "/images"

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("images", "apron.png")
	if err != nil {
		t.Fatalf("create form file: %v", err)
	}
	if _, err := part.Write(pngBytes(t, 40, 20)); err != nil {
		t.Fatalf("write form file: %v", err)
	}
	if err := mw.Close(); err != nil {
		t.Fatalf("close multipart writer: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, base, &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rr = c.send(req)
	expectStatus(t, rr, http.StatusCreated)
	added := decode[[]pricing.Image](t, rr)
	if len(added) != 1 || !added[0].Primary || !strings.HasPrefix(added[0].URL, styles.UploadsPath) {
		t.Fatalf("unexpected upload response: %+v", added)
	}

	rr = c.do(http.MethodGet, added[0].URL, nil)
	expectStatus(t, rr, http.StatusOK)

	recs, err := srv.styles.ListImages(context.Background(), id)
	if err != nil || len(recs) != 1 {
		t.Fatalf("list images: %v %+v", err, recs)
	}
	stored := filepath.Join(srv.images.Dir(), recs[0].Filename)

	expectStatus(t, c.do(http.MethodDelete, base+"/"+strconv.FormatInt(added[0].ID, 10), nil), http.StatusNoContent)
	if _, err := os.Stat(stored); !os.IsNotExist(err) {
		t.Fatalf("expected %s to be removed, stat err = %v", stored, err)
	}
}

func TestHandleStyleGetNotFound(t *testing.T) {
	srv := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/api/styles/42", nil)
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("id", "42")
	req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))

	rr := httptest.NewRecorder()
	srv.handleStyleGet(rr, req)

	expectStatus(t, rr, http.StatusNotFound)
	if !strings.Contains(rr.Header().Get("Content-Type"), "application/json") {
		t.Fatalf("expected JSON error, got %q", rr.Header().Get("Content-Type"))
	}
	if msg := decode[errorResponse](t, rr).Error; msg == "" {
		t.Fatalf("expected error message")
	}
}
