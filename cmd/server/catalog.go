package main

import (
	"fmt"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/JAITteam/ja-uniforms-pricing/internal/catalog"
)

const maxImportBytes = 8 << 20

// resource serves list/create/get/update/delete for one catalog entity.
type resource[T any] struct {
	blank  func() T
	list   func(r *http.Request) ([]T, error)
	get    func(r *http.Request, id int64) (T, error)
	create func(r *http.Request, v T) (int64, error)
	update func(r *http.Request, id int64, v T) error
	remove func(r *http.Request, id int64) error
}

func (res resource[T]) mount(r chi.Router) {
	r.Get("/", res.handleList)
	r.Post("/", res.handleCreate)
	r.Get("/{id}", res.handleGet)
	r.Put("/{id}", res.handleUpdate)
	r.Delete("/{id}", res.handleDelete)
}

func (res resource[T]) decode(w http.ResponseWriter, r *http.Request) (T, error) {
	var v T
	if res.blank != nil {
		v = res.blank()
	}
	err := decodeJSON(w, r, &v)
	return v, err
}

func (res resource[T]) handleList(w http.ResponseWriter, r *http.Request) {
	items, err := res.list(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if items == nil {
		items = []T{}
	}
	writeJSON(w, http.StatusOK, items)
}

func (res resource[T]) handleGet(w http.ResponseWriter, r *http.Request) {
	id, err := urlID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	item, err := res.get(r, id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, item)
}

func (res resource[T]) handleCreate(w http.ResponseWriter, r *http.Request) {
	v, err := res.decode(w, r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	id, err := res.create(r, v)
	if err != nil {
		writeError(w, r, err)
		return
	}
	item, err := res.get(r, id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, item)
}

func (res resource[T]) handleUpdate(w http.ResponseWriter, r *http.Request) {
	id, err := urlID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	v, err := res.decode(w, r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := res.update(r, id, v); err != nil {
		writeError(w, r, err)
		return
	}
	item, err := res.get(r, id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, item)
}

func (res resource[T]) handleDelete(w http.ResponseWriter, r *http.Request) {
	id, err := urlID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := res.remove(r, id); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func vendorKind(r *http.Request) (catalog.VendorKind, error) {
	return catalog.ParseVendorKind(chi.URLParam(r, "kind"))
}

func namedKind(r *http.Request) (catalog.NamedKind, error) {
	return catalog.ParseNamedKind(chi.URLParam(r, "kind"))
}

// optionalID reads an id query parameter; a missing value yields 0.
func optionalID(r *http.Request, key string) (int64, error) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return 0, nil
	}
	return parseID(raw, key)
}

func (s *server) catalogRoutes(r chi.Router) {
	r.Get("/", s.handleMasterCosts)

	r.Route("/vendors/{kind}", func(r chi.Router) {
		r.Get("/next-code", s.handleNextVendorCode)
		s.vendorResource().mount(r)
	})
	r.Route("/fabrics", func(r chi.Router) {
		r.Get("/next-code", s.handleNextFabricCode)
		s.fabricResource().mount(r)
	})
	r.Route("/notions", s.notionResource().mount)
	r.Route("/labor", s.laborResource().mount)
	r.Route("/cleaning", func(r chi.Router) {
		r.Get("/for/{garmentType}", s.handleCleaningFor)
		s.cleaningResource().mount(r)
	})
	r.Route("/size-ranges", s.sizeRangeResource().mount)
	r.Route("/names/{kind}", s.namedResource().mount)
	r.Post("/colors/import", s.handleImportColors)

	r.Get("/settings", s.handleSettingsList)
	r.Put("/settings/{key}", s.handleSettingUpdate)
}

func (s *server) vendorResource() resource[catalog.Vendor] {
	return resource[catalog.Vendor]{
		list: func(r *http.Request) ([]catalog.Vendor, error) {
			kind, err := vendorKind(r)
			if err != nil {
				return nil, err
			}
			return s.catalog.ListVendors(r.Context(), kind)
		},
		get: func(r *http.Request, id int64) (catalog.Vendor, error) {
			kind, err := vendorKind(r)
			if err != nil {
				return catalog.Vendor{}, err
			}
			return s.catalog.GetVendor(r.Context(), kind, id)
		},
		create: func(r *http.Request, v catalog.Vendor) (int64, error) {
			kind, err := vendorKind(r)
			if err != nil {
				return 0, err
			}
			return s.catalog.CreateVendor(r.Context(), kind, v)
		},
		update: func(r *http.Request, id int64, v catalog.Vendor) error {
			kind, err := vendorKind(r)
			if err != nil {
				return err
			}
			v.ID = id
			return s.catalog.UpdateVendor(r.Context(), kind, v)
		},
		remove: func(r *http.Request, id int64) error {
			kind, err := vendorKind(r)
			if err != nil {
				return err
			}
			return s.catalog.DeleteVendor(r.Context(), kind, id)
		},
	}
}

func (s *server) fabricResource() resource[catalog.Fabric] {
	return resource[catalog.Fabric]{
		list: func(r *http.Request) ([]catalog.Fabric, error) {
			vendorID, err := optionalID(r, "vendor_id")
			if err != nil {
				return nil, err
			}
			return s.catalog.ListFabrics(r.Context(), vendorID)
		},
		get: func(r *http.Request, id int64) (catalog.Fabric, error) {
			return s.catalog.GetFabric(r.Context(), id)
		},
		create: func(r *http.Request, f catalog.Fabric) (int64, error) {
			return s.catalog.CreateFabric(r.Context(), f)
		},
		update: func(r *http.Request, id int64, f catalog.Fabric) error {
			f.ID = id
			return s.catalog.UpdateFabric(r.Context(), f)
		},
		remove: func(r *http.Request, id int64) error {
			return s.catalog.DeleteFabric(r.Context(), id)
		},
	}
}

func (s *server) notionResource() resource[catalog.Notion] {
	return resource[catalog.Notion]{
		list: func(r *http.Request) ([]catalog.Notion, error) {
			vendorID, err := optionalID(r, "vendor_id")
			if err != nil {
				return nil, err
			}
			return s.catalog.ListNotions(r.Context(), vendorID)
		},
		get: func(r *http.Request, id int64) (catalog.Notion, error) {
			return s.catalog.GetNotion(r.Context(), id)
		},
		create: func(r *http.Request, n catalog.Notion) (int64, error) {
			return s.catalog.CreateNotion(r.Context(), n)
		},
		update: func(r *http.Request, id int64, n catalog.Notion) error {
			n.ID = id
			return s.catalog.UpdateNotion(r.Context(), n)
		},
		remove: func(r *http.Request, id int64) error {
			return s.catalog.DeleteNotion(r.Context(), id)
		},
	}
}

func (s *server) laborResource() resource[catalog.LaborOperation] {
	return resource[catalog.LaborOperation]{
		blank: func() catalog.LaborOperation { return catalog.LaborOperation{Active: true} },
		list: func(r *http.Request) ([]catalog.LaborOperation, error) {
			activeOnly := false
			if raw := r.URL.Query().Get("active"); raw != "" {
				v, err := strconv.ParseBool(raw)
				if err != nil {
					return nil, fmt.Errorf("%w: invalid active flag", errBadRequest)
				}
				activeOnly = v
			}
			return s.catalog.ListLabor(r.Context(), activeOnly)
		},
		get: func(r *http.Request, id int64) (catalog.LaborOperation, error) {
			return s.catalog.GetLabor(r.Context(), id)
		},
		create: func(r *http.Request, op catalog.LaborOperation) (int64, error) {
			return s.catalog.CreateLabor(r.Context(), op)
		},
		update: func(r *http.Request, id int64, op catalog.LaborOperation) error {
			op.ID = id
			return s.catalog.UpdateLabor(r.Context(), op)
		},
		remove: func(r *http.Request, id int64) error {
			return s.catalog.DeleteLabor(r.Context(), id)
		},
	}
}

func (s *server) cleaningResource() resource[catalog.CleaningCost] {
	return resource[catalog.CleaningCost]{
		list: func(r *http.Request) ([]catalog.CleaningCost, error) {
			return s.catalog.ListCleaning(r.Context())
		},
		get: func(r *http.Request, id int64) (catalog.CleaningCost, error) {
			return s.catalog.GetCleaning(r.Context(), id)
		},
		create: func(r *http.Request, c catalog.CleaningCost) (int64, error) {
			return s.catalog.CreateCleaning(r.Context(), c)
		},
		update: func(r *http.Request, id int64, c catalog.CleaningCost) error {
			c.ID = id
			return s.catalog.UpdateCleaning(r.Context(), c)
		},
		remove: func(r *http.Request, id int64) error {
			return s.catalog.DeleteCleaning(r.Context(), id)
		},
	}
}

func (s *server) sizeRangeResource() resource[catalog.SizeRange] {
	return resource[catalog.SizeRange]{
		blank: func() catalog.SizeRange {
			var sr catalog.SizeRange
			sr.MarkupPercent = s.pricing.DefaultExtendedMarkup
			return sr
		},
		list: func(r *http.Request) ([]catalog.SizeRange, error) {
			return s.catalog.ListSizeRanges(r.Context())
		},
		get: func(r *http.Request, id int64) (catalog.SizeRange, error) {
			return s.catalog.GetSizeRange(r.Context(), id)
		},
		create: func(r *http.Request, sr catalog.SizeRange) (int64, error) {
			return s.catalog.CreateSizeRange(r.Context(), sr)
		},
		update: func(r *http.Request, id int64, sr catalog.SizeRange) error {
			sr.ID = id
			return s.catalog.UpdateSizeRange(r.Context(), sr)
		},
		remove: func(r *http.Request, id int64) error {
			return s.catalog.DeleteSizeRange(r.Context(), id)
		},
	}
}

func (s *server) namedResource() resource[catalog.Named] {
	return resource[catalog.Named]{
		list: func(r *http.Request) ([]catalog.Named, error) {
			kind, err := namedKind(r)
			if err != nil {
				return nil, err
			}
			return s.catalog.ListNamed(r.Context(), kind)
		},
		get: func(r *http.Request, id int64) (catalog.Named, error) {
			kind, err := namedKind(r)
			if err != nil {
				return catalog.Named{}, err
			}
			return s.catalog.GetNamed(r.Context(), kind, id)
		},
		create: func(r *http.Request, n catalog.Named) (int64, error) {
			kind, err := namedKind(r)
			if err != nil {
				return 0, err
			}
			return s.catalog.CreateNamed(r.Context(), kind, n)
		},
		update: func(r *http.Request, id int64, n catalog.Named) error {
			kind, err := namedKind(r)
			if err != nil {
				return err
			}
			n.ID = id
			return s.catalog.UpdateNamed(r.Context(), kind, n)
		},
		remove: func(r *http.Request, id int64) error {
			kind, err := namedKind(r)
			if err != nil {
				return err
			}
			return s.catalog.DeleteNamed(r.Context(), kind, id)
		},
	}
}

func (s *server) handleMasterCosts(w http.ResponseWriter, r *http.Request) {
	mc, err := s.catalog.MasterCosts(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, mc)
}

func (s *server) handleNextVendorCode(w http.ResponseWriter, r *http.Request) {
	kind, err := vendorKind(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	code, err := s.catalog.NextVendorCode(r.Context(), kind)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"vendor_code": code})
}

func (s *server) handleNextFabricCode(w http.ResponseWriter, r *http.Request) {
	code, err := s.catalog.NextFabricCode(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"fabric_code": code})
}

func (s *server) handleCleaningFor(w http.ResponseWriter, r *http.Request) {
	c, err := s.catalog.CleaningCostFor(r.Context(), chi.URLParam(r, "garmentType"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

// handleImportColors reads the "file" part of a multipart upload as an xlsx
// workbook and imports its Color column.
func (s *server) handleImportColors(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxImportBytes)
	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, r, fmt.Errorf("%w: missing file upload", errBadRequest))
		return
	}
	defer file.Close()

	if !strings.EqualFold(filepath.Ext(header.Filename), ".xlsx") {
		writeError(w, r, fmt.Errorf("%w: colors must be imported from an .xlsx file", errBadRequest))
		return
	}

	names, err := catalog.ReadColorNames(file)
	if err != nil {
		writeError(w, r, err)
		return
	}
	result, err := s.catalog.ImportColors(r.Context(), names)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *server) handleSettingsList(w http.ResponseWriter, r *http.Request) {
	settings, err := s.catalog.ListSettings(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, settings)
}

type settingRequest struct {
	Value float64 `json:"setting_value"`
}

func (s *server) handleSettingUpdate(w http.ResponseWriter, r *http.Request) {
	var req settingRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	key := chi.URLParam(r, "key")
	if err := s.catalog.SetSetting(r.Context(), key, req.Value); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"setting_key": key, "setting_value": req.Value})
}
