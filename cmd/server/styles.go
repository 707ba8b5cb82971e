package main

import (
	"bytes"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/JAITteam/ja-uniforms-pricing/internal/app"
	"github.com/JAITteam/ja-uniforms-pricing/internal/export"
	"github.com/JAITteam/ja-uniforms-pricing/internal/pricing"
	"github.com/JAITteam/ja-uniforms-pricing/internal/styles"
)

const (
	maxUploadBytes = 32 << 20
	defaultRecent  = 10
)

// styleResponse is a stored style with its totals derived at read time.
type styleResponse struct {
	styles.Record
	Totals pricing.Totals `json:"totals"`
}

func (s *server) respondStyle(w http.ResponseWriter, r *http.Request, rec styles.Record) {
	defaults, err := app.Defaults(r.Context(), s.catalog, s.pricing)
	if err != nil {
		writeError(w, r, err)
		return
	}
	d := pricing.Recompute(rec.Draft(defaults.Rates))
	writeJSON(w, http.StatusOK, styleResponse{Record: rec, Totals: d.Totals})
}

// handleStylesList serves ?q= search, ?recent=n and the full list.
func (s *server) handleStylesList(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	var (
		list []styles.Summary
		err  error
	)
	switch {
	case q.Has("q"):
		list, err = s.styles.Search(r.Context(), q.Get("q"))
	case q.Has("recent"):
		n := defaultRecent
		if raw := q.Get("recent"); raw != "" {
			n, err = strconv.Atoi(raw)
			if err != nil || n <= 0 {
				writeError(w, r, fmt.Errorf("%w: invalid recent count", errBadRequest))
				return
			}
		}
		list, err = s.styles.Recent(r.Context(), n)
	default:
		list, err = s.styles.List(r.Context())
	}
	if err != nil {
		writeError(w, r, err)
		return
	}
	if list == nil {
		list = []styles.Summary{}
	}
	writeJSON(w, http.StatusOK, list)
}

func (s *server) handleStyleGet(w http.ResponseWriter, r *http.Request) {
	id, err := urlID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	rec, err := s.styles.Get(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	s.respondStyle(w, r, rec)
}

func (s *server) handleStyleByVendorStyle(w http.ResponseWriter, r *http.Request) {
	rec, err := s.styles.GetByVendorStyle(r.Context(), chi.URLParam(r, "code"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	s.respondStyle(w, r, rec)
}

// imageFiles collects the stored file names of the given styles so they can
// be removed once the rows are gone.
func (s *server) imageFiles(r *http.Request, ids ...int64) []string {
	var names []string
	for _, id := range ids {
		imgs, err := s.styles.ListImages(r.Context(), id)
		if err != nil {
			log.Printf("list images of style %d: %v", id, err)
			continue
		}
		for _, img := range imgs {
			names = append(names, img.Filename, img.ThumbFilename)
		}
	}
	return names
}

func (s *server) removeFiles(names []string) {
	if err := s.images.Remove(names...); err != nil {
		log.Printf("remove image files: %v", err)
	}
}

func (s *server) handleStyleDelete(w http.ResponseWriter, r *http.Request) {
	id, err := urlID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	files := s.imageFiles(r, id)
	if err := s.styles.Delete(r.Context(), id); err != nil {
		writeError(w, r, err)
		return
	}
	s.removeFiles(files)
	w.WriteHeader(http.StatusNoContent)
}

type bulkDeleteRequest struct {
	IDs []int64 `json:"ids"`
}

func (s *server) handleStylesBulkDelete(w http.ResponseWriter, r *http.Request) {
	var req bulkDeleteRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if len(req.IDs) == 0 {
		writeError(w, r, fmt.Errorf("%w: no styles selected", errBadRequest))
		return
	}

	files := s.imageFiles(r, req.IDs...)
	n, err := s.styles.BulkDelete(r.Context(), req.IDs)
	if err != nil {
		writeError(w, r, err)
		return
	}
	s.removeFiles(files)
	writeJSON(w, http.StatusOK, map[string]int{"deleted": n})
}

func (s *server) handleStyleFavorite(w http.ResponseWriter, r *http.Request) {
	id, err := urlID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	fav, err := s.styles.ToggleFavorite(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"is_favorite": fav})
}

func (s *server) handleStyleDuplicate(w http.ResponseWriter, r *http.Request) {
	id, err := urlID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	newID, err := s.styles.Duplicate(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	rec, err := s.styles.Get(r.Context(), newID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, rec)
}

func (s *server) handleImagesList(w http.ResponseWriter, r *http.Request) {
	id, err := urlID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	recs, err := s.styles.ListImages(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	out := make([]pricing.Image, 0, len(recs))
	for _, rec := range recs {
		out = append(out, rec.Image())
	}
	writeJSON(w, http.StatusOK, out)
}

// handleImageUpload stores every file of the "images" multipart field.
func (s *server) handleImageUpload(w http.ResponseWriter, r *http.Request) {
	id, err := urlID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		writeError(w, r, fmt.Errorf("%w: invalid upload: %v", errBadRequest, err))
		return
	}
	files := r.MultipartForm.File["images"]
	if len(files) == 0 {
		writeError(w, r, fmt.Errorf("%w: no images uploaded", errBadRequest))
		return
	}

	added := make([]pricing.Image, 0, len(files))
	for _, fh := range files {
		f, err := fh.Open()
		if err != nil {
			writeError(w, r, fmt.Errorf("open upload %s: %w", fh.Filename, err))
			return
		}
		saved, err := s.images.Save(id, fh.Filename, f)
		f.Close()
		if err != nil {
			writeError(w, r, err)
			return
		}

		rec, err := s.styles.AddImage(r.Context(), id, saved.Filename, saved.ThumbFilename)
		if err != nil {
			s.removeFiles([]string{saved.Filename, saved.ThumbFilename})
			writeError(w, r, err)
			return
		}
		added = append(added, rec.Image())
	}
	writeJSON(w, http.StatusCreated, added)
}

func (s *server) handleImageDelete(w http.ResponseWriter, r *http.Request) {
	id, err := urlID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	imageID, err := urlID(r, "imageID")
	if err != nil {
		writeError(w, r, err)
		return
	}
	rec, err := s.styles.DeleteImage(r.Context(), id, imageID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	s.removeFiles([]string{rec.Filename, rec.ThumbFilename})
	w.WriteHeader(http.StatusNoContent)
}

func exportFormat(r *http.Request) (string, error) {
	switch f := r.URL.Query().Get("format"); f {
	case "", "csv":
		return "csv", nil
	case "xlsx":
		return "xlsx", nil
	default:
		return "", fmt.Errorf("%w: unsupported export format %q", errBadRequest, f)
	}
}

// writeExportError reports what keeps styles from being exported.
func writeExportError(w http.ResponseWriter, r *http.Request, err error) {
	var verr *export.ValidationError
	var verrs export.ValidationErrors
	switch {
	case errors.As(err, &verr):
		writeJSON(w, http.StatusUnprocessableEntity, map[string]any{"error": err.Error(), "styles": export.ValidationErrors{verr}})
	case errors.As(err, &verrs):
		writeJSON(w, http.StatusUnprocessableEntity, map[string]any{"error": "some styles cannot be exported", "styles": verrs})
	default:
		writeError(w, r, err)
	}
}

func writeExport(w http.ResponseWriter, r *http.Request, format, vendorStyle string, rows []export.Row) {
	var buf bytes.Buffer
	var err error
	contentType := "text/csv; charset=utf-8"
	if format == "xlsx" {
		contentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
		err = export.WriteXLSX(&buf, rows)
	} else {
		err = export.WriteCSV(&buf, rows)
	}
	if err != nil {
		writeError(w, r, err)
		return
	}

	name := export.Filename(vendorStyle, time.Now(), format)
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	w.WriteHeader(http.StatusOK)
	if _, err := buf.WriteTo(w); err != nil {
		log.Printf("write export %s: %v", name, err)
	}
}

func (s *server) handleExportStyle(w http.ResponseWriter, r *http.Request) {
	id, err := urlID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	format, err := exportFormat(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	rec, err := s.styles.Get(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	defaults, err := app.Defaults(r.Context(), s.catalog, s.pricing)
	if err != nil {
		writeError(w, r, err)
		return
	}

	rows, err := export.Rows(rec, defaults.Rates)
	if err != nil {
		writeExportError(w, r, err)
		return
	}
	writeExport(w, r, format, rec.VendorStyle, rows)
}

// handleExportStyles exports the styles named by ?ids=1,2,3, or every style
// when no ids are given. Nothing is written unless all of them validate.
func (s *server) handleExportStyles(w http.ResponseWriter, r *http.Request) {
	format, err := exportFormat(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	ids, err := parseIDList(r.URL.Query().Get("ids"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	if len(ids) == 0 {
		all, err := s.styles.List(r.Context())
		if err != nil {
			writeError(w, r, err)
			return
		}
		for _, sum := range all {
			ids = append(ids, sum.ID)
		}
	}
	if len(ids) == 0 {
		writeError(w, r, fmt.Errorf("%w: no styles to export", errBadRequest))
		return
	}

	records := make([]styles.Record, 0, len(ids))
	for _, id := range ids {
		rec, err := s.styles.Get(r.Context(), id)
		if err != nil {
			writeError(w, r, err)
			return
		}
		records = append(records, rec)
	}
	defaults, err := app.Defaults(r.Context(), s.catalog, s.pricing)
	if err != nil {
		writeError(w, r, err)
		return
	}

	rows, err := export.RowsForAll(records, defaults.Rates)
	if err != nil {
		writeExportError(w, r, err)
		return
	}
	writeExport(w, r, format, "", rows)
}
