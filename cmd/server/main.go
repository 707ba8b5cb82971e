package main

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/JAITteam/ja-uniforms-pricing/internal/app"
	"github.com/JAITteam/ja-uniforms-pricing/internal/catalog"
	"github.com/JAITteam/ja-uniforms-pricing/internal/config"
	"github.com/JAITteam/ja-uniforms-pricing/internal/db"
	"github.com/JAITteam/ja-uniforms-pricing/internal/export"
	"github.com/JAITteam/ja-uniforms-pricing/internal/images"
	"github.com/JAITteam/ja-uniforms-pricing/internal/migrations"
	"github.com/JAITteam/ja-uniforms-pricing/internal/seed"
	"github.com/JAITteam/ja-uniforms-pricing/internal/styles"
	"github.com/JAITteam/ja-uniforms-pricing/internal/wizard"
)

const maxJSONBody = 1 << 20

var errBadRequest = errors.New("bad request")

type server struct {
	auth    *authService
	db      *sql.DB
	catalog *catalog.Store
	styles  *styles.Store
	images  *images.Storage
	pricing config.Pricing
}

func newServer(database *sql.DB, auth *authService, imgs *images.Storage, pricing config.Pricing) *server {
	return &server{
		auth:    auth,
		db:      database,
		catalog: catalog.NewStore(database),
		styles:  styles.NewStore(database),
		images:  imgs,
		pricing: pricing,
	}
}

func main() {
	cfg := config.Load()

	database, err := db.Open(cfg.DBPath)
	if err != nil {
		log.Fatalf("failed to open database: %v", err)
	}
	defer database.Close()

	if cfg.IsDev() {
		if err := migrations.Up(database); err != nil {
			log.Fatalf("failed to run database migrations: %v", err)
		}
	}

	seedCfg := seed.DefaultConfig(cfg.AdminEmail, cfg.AdminPassword)
	seedCfg.LabelCost = cfg.Pricing.DefaultLabelCost
	seedCfg.ShippingCost = cfg.Pricing.DefaultShippingCost
	seedCfg.Sublimation = cfg.Pricing.SublimationSurcharge
	stats, err := seed.Run(database, seedCfg)
	if err != nil {
		log.Fatalf("failed to seed database: %v", err)
	}
	if stats.Inserts > 0 {
		log.Printf("seeded %d rows", stats.Inserts)
	}

	imgs, err := images.New(cfg.UploadDir)
	if err != nil {
		log.Fatalf("failed to prepare upload dir: %v", err)
	}

	srv := newServer(database, newAuthService(database, cfg.SessionSecret), imgs, cfg.Pricing)

	addr := ":" + cfg.Port
	log.Printf("listening on %s", addr)
	if err := http.ListenAndServe(addr, srv.routes()); err != nil {
		log.Fatalf("server stopped: %v", err)
	}
}

func (s *server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(s.authMiddleware)
	r.Handle(styles.UploadsPath+"*", http.StripPrefix(styles.UploadsPath, http.FileServer(http.Dir(s.images.Dir()))))

	r.Route("/api", func(r chi.Router) {
		r.Post("/login", s.handleLogin)
		r.Post("/logout", s.handleLogout)

		r.Route("/wizard", func(r chi.Router) {
			r.Post("/new", s.handleWizardNew)
			r.Post("/event", s.handleWizardEvent)
			r.Post("/save", s.handleWizardSave)
		})

		r.Route("/styles", func(r chi.Router) {
			r.Get("/", s.handleStylesList)
			r.Get("/export", s.handleExportStyles)
			r.Post("/bulk-delete", s.handleStylesBulkDelete)
			r.Get("/by-vendor-style/{code}", s.handleStyleByVendorStyle)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", s.handleStyleGet)
				r.Delete("/", s.handleStyleDelete)
				r.Post("/favorite", s.handleStyleFavorite)
				r.Post("/duplicate", s.handleStyleDuplicate)
				r.Get("/export", s.handleExportStyle)
				r.Get("/images", s.handleImagesList)
				r.Post("/images", s.handleImageUpload)
				r.Delete("/images/{imageID}", s.handleImageDelete)
			})
		})

		r.Route("/catalog", s.catalogRoutes)
	})

	return r
}

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("encode response: %v", err)
	}
}

// statusFor maps domain errors to HTTP status codes.
func statusFor(err error) int {
	var verr *export.ValidationError
	var verrs export.ValidationErrors
	switch {
	case errors.Is(err, catalog.ErrNotFound),
		errors.Is(err, styles.ErrNotFound),
		errors.Is(err, wizard.ErrStyleNotFound),
		errors.Is(err, wizard.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, catalog.ErrDuplicate),
		errors.Is(err, catalog.ErrInUse),
		errors.Is(err, styles.ErrDuplicateVendorStyle),
		errors.Is(err, styles.ErrDuplicateStyleName):
		return http.StatusConflict
	case errors.As(err, &verr), errors.As(err, &verrs):
		return http.StatusUnprocessableEntity
	case errors.Is(err, errBadRequest),
		errors.Is(err, catalog.ErrInvalid),
		errors.Is(err, styles.ErrInvalid),
		errors.Is(err, wizard.ErrBlocked),
		errors.Is(err, wizard.ErrRowIndex),
		errors.Is(err, wizard.ErrUnknownLabor),
		errors.Is(err, wizard.ErrInvalidGender),
		errors.Is(err, wizard.ErrUnknownAction),
		errors.Is(err, images.ErrUnsupported),
		errors.Is(err, images.ErrInvalid):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

// writeError hides the details of unexpected errors from the client.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		log.Printf("%s %s: %v", r.Method, r.URL.Path, err)
		msg = "internal error"
	}
	writeJSON(w, status, errorResponse{Error: msg})
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxJSONBody))
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("%w: invalid JSON body: %v", errBadRequest, err)
	}
	return nil
}

func parseID(raw, field string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: invalid %s", errBadRequest, field)
	}
	return id, nil
}

func urlID(r *http.Request, param string) (int64, error) {
	return parseID(chi.URLParam(r, param), param)
}

// parseIDList reads a comma separated id list such as "1,2,3".
func parseIDList(raw string) ([]int64, error) {
	var ids []int64
	for _, part := range strings.Split(raw, ",") {
		if strings.TrimSpace(part) == "" {
			continue
		}
		id, err := parseID(part, "id list")
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func (s *server) lookup(r *http.Request) (app.Lookup, wizard.Defaults, error) {
	defaults, err := app.Defaults(r.Context(), s.catalog, s.pricing)
	if err != nil {
		return app.Lookup{}, wizard.Defaults{}, err
	}
	l := app.Lookup{Catalog: s.catalog, Styles: s.styles, Rates: defaults.Rates}
	return l, defaults, nil
}
