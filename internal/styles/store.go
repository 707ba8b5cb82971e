package styles

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/JAITteam/ja-uniforms-pricing/internal/pricing"
)

const (
	searchMinChars = 2
	searchLimit    = 20
	timestampFmt   = "2006-01-02 15:04:05"
)

var ErrInvalid = errors.New("invalid style")

// Store persists styles and their relations.
type Store struct {
	db *sql.DB
}

func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

type queryer interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Save creates the style when in.ID is nil and updates it otherwise. Fabric,
// notion, labor, color, variable and client relations are replaced as a
// whole. Labor rows name a catalog operation; unknown names are skipped.
func (s *Store) Save(ctx context.Context, in Input) (int64, error) {
	in.VendorStyle = strings.TrimSpace(in.VendorStyle)
	in.StyleName = strings.TrimSpace(in.StyleName)
	if in.VendorStyle == "" || in.StyleName == "" {
		return 0, fmt.Errorf("%w: vendor style and style name are required", ErrInvalid)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin style save: %w", err)
	}
	defer tx.Rollback()

	var id int64
	if in.ID == nil {
		id, err = insertStyle(ctx, tx, in)
	} else {
		id = *in.ID
		err = updateStyle(ctx, tx, in)
	}
	if err != nil {
		return 0, err
	}

	if err := replaceRelations(ctx, tx, id, in); err != nil {
		return 0, err
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit style save: %w", err)
	}
	return id, nil
}

// checkUnique rejects a vendor style or style name already used by another
// style. Both compare case-insensitively.
func checkUnique(ctx context.Context, tx *sql.Tx, in Input, selfID int64) error {
	var taken bool
	if err := tx.QueryRowContext(ctx, `
		SELECT EXISTS(SELECT 1 FROM styles WHERE vendor_style = ? COLLATE NOCASE AND id <> ?)
	`, in.VendorStyle, selfID).Scan(&taken); err != nil {
		return fmt.Errorf("check vendor style: %w", err)
	}
	if taken {
		return fmt.Errorf("%w: %s", ErrDuplicateVendorStyle, in.VendorStyle)
	}

	if err := tx.QueryRowContext(ctx, `
		SELECT EXISTS(SELECT 1 FROM styles WHERE style_name = ? AND id <> ?)
	`, in.StyleName, selfID).Scan(&taken); err != nil {
		return fmt.Errorf("check style name: %w", err)
	}
	if taken {
		return fmt.Errorf("%w: %s", ErrDuplicateStyleName, in.StyleName)
	}
	return nil
}

func nullPrice(v float64) sql.NullFloat64 {
	return sql.NullFloat64{Float64: v, Valid: v > 0}
}

func nullSizeRange(id int64) sql.NullInt64 {
	return sql.NullInt64{Int64: id, Valid: id > 0}
}

func insertStyle(ctx context.Context, tx *sql.Tx, in Input) (int64, error) {
	if err := checkUnique(ctx, tx, in, 0); err != nil {
		return 0, err
	}

	result, err := tx.ExecContext(ctx, `
		INSERT INTO styles (
			vendor_style, base_item_number, variant_code, style_name, gender, garment_type,
			size_range_id, base_margin_percent, avg_label_cost, shipping_cost, suggested_price, notes
		)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		in.VendorStyle, in.BaseItemNumber, in.VariantCode, in.StyleName, in.Gender, in.GarmentType,
		nullSizeRange(in.SizeRangeID), in.Margin, in.LabelCost, in.ShippingCost, nullPrice(in.SuggestedPrice), in.Notes,
	)
	if err != nil {
		return 0, fmt.Errorf("insert style: %w", err)
	}
	return result.LastInsertId()
}

func updateStyle(ctx context.Context, tx *sql.Tx, in Input) error {
	id := *in.ID
	var exists bool
	if err := tx.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM styles WHERE id = ?)`, id).Scan(&exists); err != nil {
		return fmt.Errorf("check style %d: %w", id, err)
	}
	if !exists {
		return fmt.Errorf("style %d: %w", id, ErrNotFound)
	}
	if err := checkUnique(ctx, tx, in, id); err != nil {
		return err
	}

	if _, err := tx.ExecContext(ctx, `
		UPDATE styles
		SET
			vendor_style = ?,
			base_item_number = ?,
			variant_code = ?,
			style_name = ?,
			gender = ?,
			garment_type = ?,
			size_range_id = ?,
			base_margin_percent = ?,
			avg_label_cost = ?,
			shipping_cost = ?,
			suggested_price = ?,
			notes = ?,
			updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`,
		in.VendorStyle, in.BaseItemNumber, in.VariantCode, in.StyleName, in.Gender, in.GarmentType,
		nullSizeRange(in.SizeRangeID), in.Margin, in.LabelCost, in.ShippingCost, nullPrice(in.SuggestedPrice), in.Notes,
		id,
	); err != nil {
		return fmt.Errorf("update style %d: %w", id, err)
	}
	return nil
}

func replaceRelations(ctx context.Context, tx *sql.Tx, id int64, in Input) error {
	for _, table := range []string{"style_fabrics", "style_notions", "style_labor", "style_colors", "style_variables", "style_clients"} {
		if _, err := tx.ExecContext(ctx, fmt.Sprintf(`DELETE FROM %s WHERE style_id = ?`, table), id); err != nil {
			return fmt.Errorf("clear %s for style %d: %w", table, id, err)
		}
	}

	for i, f := range in.Fabrics {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO style_fabrics (style_id, fabric_id, yards_required, is_primary, is_sublimation)
			VALUES (?, ?, ?, ?, ?)
		`, id, f.FabricID, f.Yards, i == 0, f.Sublimation); err != nil {
			return fmt.Errorf("insert fabric %d for style %d: %w", f.FabricID, id, err)
		}
	}

	for _, n := range in.Notions {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO style_notions (style_id, notion_id, quantity_required)
			VALUES (?, ?, ?)
		`, id, n.NotionID, n.Qty); err != nil {
			return fmt.Errorf("insert notion %d for style %d: %w", n.NotionID, id, err)
		}
	}

	if err := insertLabor(ctx, tx, id, in.Labor); err != nil {
		return err
	}

	refs := []struct {
		table, column string
		ids           []int64
	}{
		{"style_colors", "color_id", in.ColorIDs},
		{"style_variables", "variable_id", in.VariableIDs},
		{"style_clients", "client_id", in.ClientIDs},
	}
	for _, ref := range refs {
		for _, refID := range ref.ids {
			if _, err := tx.ExecContext(ctx, fmt.Sprintf(`
				INSERT OR IGNORE INTO %s (style_id, %s) VALUES (?, ?)
			`, ref.table, ref.column), id, refID); err != nil {
				return fmt.Errorf("insert %s %d for style %d: %w", ref.column, refID, id, err)
			}
		}
	}
	return nil
}

// insertLabor resolves each row against the labor catalog by name. Hourly
// operations store hours; the others store a whole quantity.
func insertLabor(ctx context.Context, tx *sql.Tx, styleID int64, labor []LaborInput) error {
	if len(labor) == 0 {
		return nil
	}

	type op struct {
		id       int64
		costType string
	}
	catalog := make(map[string]op)
	rows, err := tx.QueryContext(ctx, `SELECT id, name, cost_type FROM labor_operations`)
	if err != nil {
		return fmt.Errorf("query labor catalog: %w", err)
	}
	for rows.Next() {
		var o op
		var name string
		if err := rows.Scan(&o.id, &name, &o.costType); err != nil {
			rows.Close()
			return fmt.Errorf("scan labor operation: %w", err)
		}
		catalog[pricing.LaborKey(name)] = o
	}
	if err := rows.Close(); err != nil {
		return fmt.Errorf("close labor catalog: %w", err)
	}

	for _, l := range labor {
		o, ok := catalog[pricing.LaborKey(l.Name)]
		if !ok || l.QtyOrHours <= 0 {
			continue
		}
		hours, qty := 0.0, 0
		if o.costType == "hourly" {
			hours = l.QtyOrHours
		} else {
			qty = int(math.Round(l.QtyOrHours))
		}
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO style_labor (style_id, labor_operation_id, time_hours, quantity)
			VALUES (?, ?, ?, ?)
		`, styleID, o.id, hours, qty); err != nil {
			return fmt.Errorf("insert labor %s for style %d: %w", l.Name, styleID, err)
		}
	}
	return nil
}

// Get returns the style with its catalog data joined in.
func (s *Store) Get(ctx context.Context, id int64) (Record, error) {
	return getRecord(ctx, s.db, id)
}

// GetByVendorStyle looks a style up by vendor style, ignoring case.
func (s *Store) GetByVendorStyle(ctx context.Context, code string) (Record, error) {
	code = strings.TrimSpace(code)
	var id int64
	err := s.db.QueryRowContext(ctx, `SELECT id FROM styles WHERE vendor_style = ? COLLATE NOCASE`, code).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return Record{}, fmt.Errorf("vendor style %s: %w", code, ErrNotFound)
	}
	if err != nil {
		return Record{}, fmt.Errorf("query vendor style %s: %w", code, err)
	}
	return getRecord(ctx, s.db, id)
}

func getRecord(ctx context.Context, q queryer, id int64) (Record, error) {
	var (
		r                    Record
		suggested            sql.NullFloat64
		rangeID              sql.NullInt64
		rangeName, regular   sql.NullString
		extended             sql.NullString
		markup               sql.NullFloat64
		createdAt, updatedAt string
	)
	err := q.QueryRowContext(ctx, `
		SELECT
			s.id, s.vendor_style, s.base_item_number, s.variant_code, s.style_name, s.gender,
			s.garment_type, s.notes, s.base_margin_percent, s.suggested_price, s.avg_label_cost,
			s.shipping_cost, COALESCE(cc.fixed_cost, 0), s.is_favorite, s.created_at, s.updated_at,
			sr.id, sr.name, sr.regular_sizes, sr.extended_sizes, sr.extended_markup_percent
		FROM styles s
		LEFT JOIN cleaning_costs cc ON cc.garment_type = s.garment_type
		LEFT JOIN size_ranges sr ON sr.id = s.size_range_id
		WHERE s.id = ?
	`, id).Scan(
		&r.ID, &r.VendorStyle, &r.BaseItemNumber, &r.VariantCode, &r.StyleName, &r.Gender,
		&r.GarmentType, &r.Notes, &r.Margin, &suggested, &r.LabelCost,
		&r.ShippingCost, &r.CleaningCost, &r.Favorite, &createdAt, &updatedAt,
		&rangeID, &rangeName, &regular, &extended, &markup,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return Record{}, fmt.Errorf("style %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return Record{}, fmt.Errorf("query style %d: %w", id, err)
	}

	r.SuggestedPrice = suggested.Float64
	r.CreatedAt = parseTimestamp(createdAt)
	r.UpdatedAt = parseTimestamp(updatedAt)
	if rangeID.Valid {
		r.SizeRange = &pricing.SizeRange{
			ID:            rangeID.Int64,
			Name:          rangeName.String,
			RegularSizes:  regular.String,
			ExtendedSizes: extended.String,
			MarkupPercent: markup.Float64,
		}
	}

	if r.Fabrics, err = styleFabrics(ctx, q, id); err != nil {
		return Record{}, err
	}
	if r.Notions, err = styleNotions(ctx, q, id); err != nil {
		return Record{}, err
	}
	if r.Labor, err = styleLabor(ctx, q, id); err != nil {
		return Record{}, err
	}
	if r.Colors, err = styleRefs(ctx, q, id, "style_colors", "colors", "color_id"); err != nil {
		return Record{}, err
	}
	if r.Variables, err = styleRefs(ctx, q, id, "style_variables", "variables", "variable_id"); err != nil {
		return Record{}, err
	}
	if r.Clients, err = styleRefs(ctx, q, id, "style_clients", "clients", "client_id"); err != nil {
		return Record{}, err
	}
	images, err := listImages(ctx, q, id)
	if err != nil {
		return Record{}, err
	}
	for _, img := range images {
		r.Images = append(r.Images, img.Image())
	}
	return r, nil
}

func parseTimestamp(raw string) time.Time {
	for _, layout := range []string{timestampFmt, time.RFC3339Nano, time.RFC3339} {
		if t, err := time.Parse(layout, raw); err == nil {
			return t
		}
	}
	return time.Time{}
}

func styleFabrics(ctx context.Context, q queryer, id int64) ([]pricing.FabricLine, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT
			sf.fabric_id, f.name, COALESCE(f.fabric_code, ''), f.cost_per_yard,
			COALESCE(v.id, 0), COALESCE(v.name, ''), COALESCE(v.vendor_code, ''), COALESCE(v.freight_ship_cost, 0),
			sf.yards_required, sf.is_sublimation, sf.is_primary
		FROM style_fabrics sf
		JOIN fabrics f ON f.id = sf.fabric_id
		LEFT JOIN fabric_vendors v ON v.id = f.fabric_vendor_id
		WHERE sf.style_id = ?
		ORDER BY sf.is_primary DESC, sf.id
	`, id)
	if err != nil {
		return nil, fmt.Errorf("query fabrics of style %d: %w", id, err)
	}
	defer rows.Close()

	var lines []pricing.FabricLine
	for rows.Next() {
		var l pricing.FabricLine
		if err := rows.Scan(
			&l.FabricID, &l.FabricName, &l.FabricCode, &l.CatalogCost,
			&l.VendorID, &l.VendorName, &l.VendorCode, &l.FreightShipCost,
			&l.Yards, &l.Sublimation, &l.Primary,
		); err != nil {
			return nil, fmt.Errorf("scan fabric of style %d: %w", id, err)
		}
		lines = append(lines, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate fabrics of style %d: %w", id, err)
	}
	return lines, nil
}

func styleNotions(ctx context.Context, q queryer, id int64) ([]pricing.NotionLine, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT sn.notion_id, n.name, n.cost_per_unit, COALESCE(v.id, 0), COALESCE(v.name, ''), sn.quantity_required
		FROM style_notions sn
		JOIN notions n ON n.id = sn.notion_id
		LEFT JOIN notion_vendors v ON v.id = n.notion_vendor_id
		WHERE sn.style_id = ?
		ORDER BY sn.id
	`, id)
	if err != nil {
		return nil, fmt.Errorf("query notions of style %d: %w", id, err)
	}
	defer rows.Close()

	var lines []pricing.NotionLine
	for rows.Next() {
		var l pricing.NotionLine
		if err := rows.Scan(&l.NotionID, &l.NotionName, &l.CostPerUnit, &l.VendorID, &l.VendorName, &l.Qty); err != nil {
			return nil, fmt.Errorf("scan notion of style %d: %w", id, err)
		}
		l.Primary = len(lines) == 0
		lines = append(lines, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate notions of style %d: %w", id, err)
	}
	return lines, nil
}

func styleLabor(ctx context.Context, q queryer, id int64) ([]pricing.LaborLine, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT
			lo.name, lo.cost_type, COALESCE(lo.fixed_cost, 0), COALESCE(lo.cost_per_hour, 0),
			COALESCE(lo.cost_per_piece, 0), sl.time_hours, sl.quantity
		FROM style_labor sl
		JOIN labor_operations lo ON lo.id = sl.labor_operation_id
		WHERE sl.style_id = ?
		ORDER BY lo.id
	`, id)
	if err != nil {
		return nil, fmt.Errorf("query labor of style %d: %w", id, err)
	}
	defer rows.Close()

	var lines []pricing.LaborLine
	for rows.Next() {
		var (
			l                        pricing.LaborLine
			fixed, perHour, perPiece float64
			hours                    float64
			qty                      int
		)
		if err := rows.Scan(&l.Name, &l.CostType, &fixed, &perHour, &perPiece, &hours, &qty); err != nil {
			return nil, fmt.Errorf("scan labor of style %d: %w", id, err)
		}
		switch l.CostType {
		case "hourly":
			l.Rate, l.QtyOrHours = perHour, hours
		case "per_piece":
			l.Rate, l.QtyOrHours = perPiece, float64(qty)
		default:
			l.Rate, l.QtyOrHours = fixed, float64(qty)
		}
		lines = append(lines, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate labor of style %d: %w", id, err)
	}
	return lines, nil
}

func styleRefs(ctx context.Context, q queryer, id int64, joinTable, table, column string) ([]pricing.Ref, error) {
	rows, err := q.QueryContext(ctx, fmt.Sprintf(`
		SELECT t.id, t.name
		FROM %s j
		JOIN %s t ON t.id = j.%s
		WHERE j.style_id = ?
		ORDER BY t.name
	`, joinTable, table, column), id)
	if err != nil {
		return nil, fmt.Errorf("query %s of style %d: %w", table, id, err)
	}
	defer rows.Close()

	var refs []pricing.Ref
	for rows.Next() {
		var ref pricing.Ref
		if err := rows.Scan(&ref.ID, &ref.Name); err != nil {
			return nil, fmt.Errorf("scan %s of style %d: %w", table, id, err)
		}
		refs = append(refs, ref)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate %s of style %d: %w", table, id, err)
	}
	return refs, nil
}

func (s *Store) VendorStyleExists(ctx context.Context, code string) (bool, error) {
	var exists bool
	if err := s.db.QueryRowContext(ctx, `
		SELECT EXISTS(SELECT 1 FROM styles WHERE vendor_style = ? COLLATE NOCASE)
	`, strings.TrimSpace(code)).Scan(&exists); err != nil {
		return false, fmt.Errorf("check vendor style %s: %w", code, err)
	}
	return exists, nil
}

const summarySelect = `
	SELECT id, vendor_style, style_name, gender, garment_type, is_favorite, updated_at
	FROM styles
`

func (s *Store) summaries(ctx context.Context, query string, args ...any) ([]Summary, error) {
	rows, err := s.db.QueryContext(ctx, summarySelect+query, args...)
	if err != nil {
		return nil, fmt.Errorf("query styles: %w", err)
	}
	defer rows.Close()

	out := make([]Summary, 0)
	for rows.Next() {
		var sm Summary
		var updatedAt string
		if err := rows.Scan(&sm.ID, &sm.VendorStyle, &sm.StyleName, &sm.Gender, &sm.GarmentType, &sm.Favorite, &updatedAt); err != nil {
			return nil, fmt.Errorf("scan style: %w", err)
		}
		sm.UpdatedAt = parseTimestamp(updatedAt)
		out = append(out, sm)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate styles: %w", err)
	}
	return out, nil
}

// Search matches q against vendor style and style name. Queries shorter than
// two characters return nothing.
func (s *Store) Search(ctx context.Context, q string) ([]Summary, error) {
	q = strings.TrimSpace(q)
	if len([]rune(q)) < searchMinChars {
		return []Summary{}, nil
	}
	pattern := "%" + escapeLike(q) + "%"
	return s.summaries(ctx, `
		WHERE vendor_style LIKE ? ESCAPE '\' OR style_name LIKE ? ESCAPE '\'
		ORDER BY vendor_style
		LIMIT ?
	`, pattern, pattern, searchLimit)
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}

// List returns every style, favorites first.
func (s *Store) List(ctx context.Context) ([]Summary, error) {
	return s.summaries(ctx, `ORDER BY is_favorite DESC, vendor_style`)
}

// Recent returns the n most recently changed styles.
func (s *Store) Recent(ctx context.Context, n int) ([]Summary, error) {
	if n <= 0 {
		n = 10
	}
	return s.summaries(ctx, `ORDER BY updated_at DESC, id DESC LIMIT ?`, n)
}

// ToggleFavorite flips the favorite flag and returns the new value.
func (s *Store) ToggleFavorite(ctx context.Context, id int64) (bool, error) {
	var fav bool
	err := s.db.QueryRowContext(ctx, `
		UPDATE styles SET is_favorite = NOT is_favorite WHERE id = ? RETURNING is_favorite
	`, id).Scan(&fav)
	if errors.Is(err, sql.ErrNoRows) {
		return false, fmt.Errorf("style %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return false, fmt.Errorf("toggle favorite for style %d: %w", id, err)
	}
	return fav, nil
}

// Delete removes a style and, through cascades, all of its relations.
func (s *Store) Delete(ctx context.Context, id int64) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM styles WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete style %d: %w", id, err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete style %d: %w", id, err)
	}
	if affected == 0 {
		return fmt.Errorf("style %d: %w", id, ErrNotFound)
	}
	return nil
}

// BulkDelete removes the given styles in one transaction and returns how
// many existed.
func (s *Store) BulkDelete(ctx context.Context, ids []int64) (int, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin bulk delete: %w", err)
	}
	defer tx.Rollback()

	deleted := 0
	for _, id := range ids {
		result, err := tx.ExecContext(ctx, `DELETE FROM styles WHERE id = ?`, id)
		if err != nil {
			return 0, fmt.Errorf("delete style %d: %w", id, err)
		}
		n, err := result.RowsAffected()
		if err != nil {
			return 0, fmt.Errorf("delete style %d: %w", id, err)
		}
		deleted += int(n)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit bulk delete: %w", err)
	}
	return deleted, nil
}

// Duplicate copies a style with all of its relations except images. The copy
// gets the vendor style "<source>-COPY" (then -COPY1, -COPY2...) and the name
// "<source> (Copy)" (then "(Copy 2)"...).
func (s *Store) Duplicate(ctx context.Context, id int64) (int64, error) {
	src, err := s.Get(ctx, id)
	if err != nil {
		return 0, err
	}

	in := src.Input()
	in.ID = nil

	base := src.VendorStyle + "-COPY"
	in.VendorStyle = base
	for n := 1; ; n++ {
		taken, err := s.VendorStyleExists(ctx, in.VendorStyle)
		if err != nil {
			return 0, err
		}
		if !taken {
			break
		}
		in.VendorStyle = fmt.Sprintf("%s%d", base, n)
	}

	in.StyleName = src.StyleName + " (Copy)"
	for n := 2; ; n++ {
		var taken bool
		if err := s.db.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM styles WHERE style_name = ?)`, in.StyleName).Scan(&taken); err != nil {
			return 0, fmt.Errorf("check style name: %w", err)
		}
		if !taken {
			break
		}
		in.StyleName = fmt.Sprintf("%s (Copy %d)", src.StyleName, n)
	}

	return s.Save(ctx, in)
}
