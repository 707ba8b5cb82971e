// Package wizard holds the style wizard session: the draft being edited, the
// vendor style touched flag and the dirty flag, plus every edit operation.
//
// Each operation leaves the state fully recomputed. The session keeps no
// hidden state, so an HTTP client can send State back with its next event.
package wizard

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/JAITteam/ja-uniforms-pricing/internal/pricing"
	"github.com/JAITteam/ja-uniforms-pricing/internal/vendorstyle"
)

var (
	ErrStyleNotFound = errors.New("style not found")
	ErrBlocked       = errors.New("blocked")
	ErrRowIndex      = errors.New("row index out of range")
	ErrUnknownLabor  = errors.New("unknown labor operation")
	ErrInvalidGender = errors.New("invalid gender")
)

// State is everything the wizard knows about the style being edited.
type State struct {
	Draft              pricing.Draft `json:"draft"`
	VendorStyleTouched bool          `json:"vendor_style_touched"`
	Dirty              bool          `json:"dirty"`
	// DuplicateOf is the id of the source style while duplicating.
	DuplicateOf     *int64 `json:"duplicate_of,omitempty"`
	DuplicateSource string `json:"duplicate_source,omitempty"`
}

// Defaults are the values a fresh draft starts from.
type Defaults struct {
	Rates        pricing.Rates
	LabelCost    float64
	ShippingCost float64
}

// Notice is a non-blocking message for the user.
type Notice struct {
	Level   string `json:"level"`
	Message string `json:"message"`
}

const (
	LevelInfo    = "info"
	LevelWarning = "warning"
)

// Session applies edits to a State.
type Session struct {
	lookup   Lookup
	defaults Defaults
	state    State
	notices  []Notice
}

// New starts a session on an empty draft.
func New(lookup Lookup, defaults Defaults) *Session {
	s := &Session{lookup: lookup, defaults: defaults}
	s.state = State{Draft: s.freshDraft()}
	s.state.Draft = pricing.Recompute(s.state.Draft)
	return s
}

// Resume continues a session from a state previously returned by State.
func Resume(lookup Lookup, defaults Defaults, state State) *Session {
	s := &Session{lookup: lookup, defaults: defaults, state: state}
	if len(s.state.Draft.Fabrics) == 0 {
		s.state.Draft.Fabrics = []pricing.FabricLine{{Primary: true}}
	}
	if len(s.state.Draft.Notions) == 0 {
		s.state.Draft.Notions = []pricing.NotionLine{{Primary: true}}
	}
	if s.state.Draft.Labor == nil {
		s.state.Draft.Labor = pricing.LaborRows{}
	}
	s.state.Draft.Rates = defaults.Rates
	s.state.Draft.Loading = false
	s.state.Draft = pricing.Recompute(s.state.Draft)
	return s
}

// State returns a copy of the current state.
func (s *Session) State() State {
	out := s.state
	out.Draft = s.state.Draft.Clone()
	return out
}

// Notices returns the messages collected since the session was created.
func (s *Session) Notices() []Notice {
	return slices.Clone(s.notices)
}

func (s *Session) notify(level, format string, args ...any) {
	s.notices = append(s.notices, Notice{Level: level, Message: fmt.Sprintf(format, args...)})
}

func (s *Session) freshDraft() pricing.Draft {
	d := pricing.NewDraft(s.defaults.Rates)
	d.LabelCost = s.defaults.LabelCost
	d.ShippingCost = s.defaults.ShippingCost
	return d
}

// commit recomputes the draft and marks it dirty unless it is being hydrated.
func (s *Session) commit() {
	s.state.Draft = pricing.Recompute(s.state.Draft)
	if !s.state.Draft.Loading {
		s.state.Dirty = true
	}
}

func (s *Session) components() vendorstyle.Components {
	d := s.state.Draft
	c := vendorstyle.Components{Base: d.BaseItemNumber, Variant: d.VariantCode}
	if f, ok := d.PrimaryFabric(); ok && f.FabricID != 0 {
		c.FabricCode = f.FabricCode
		c.Sublimation = f.Sublimation
	}
	return c
}

// rebuildVendorStyle re-encodes the vendor style after a structural change
// unless the user has typed one. The fabric code display always follows the
// primary fabric.
func (s *Session) rebuildVendorStyle() {
	field := vendorstyle.Field{Value: s.state.Draft.VendorStyle, Touched: s.state.VendorStyleTouched}
	c := s.components()
	if field.Rebuild(c) {
		s.state.Draft.VendorStyle = field.Value
	}
	s.state.Draft.FabricCode = c.FabricCode
}

// RegenerateVendorStyle discards a typed vendor style and encodes it again
// from the current components.
func (s *Session) RegenerateVendorStyle() {
	field := vendorstyle.Field{Value: s.state.Draft.VendorStyle, Touched: s.state.VendorStyleTouched}
	c := s.components()
	field.Force(c)
	s.state.Draft.VendorStyle = field.Value
	s.state.Draft.FabricCode = c.FabricCode
	s.state.VendorStyleTouched = field.Touched
	s.commit()
}

func (s *Session) SetBaseItemNumber(v string) {
	s.state.Draft.BaseItemNumber = strings.TrimSpace(v)
	s.rebuildVendorStyle()
	s.commit()
}

func (s *Session) SetVariantCode(v string) {
	s.state.Draft.VariantCode = strings.TrimSpace(v)
	s.rebuildVendorStyle()
	s.commit()
}

// TypeVendorStyle records a keystroke in the vendor style field.
func (s *Session) TypeVendorStyle(v string) {
	field := vendorstyle.Field{Value: s.state.Draft.VendorStyle, Touched: s.state.VendorStyleTouched}
	field.Type(v)
	s.state.Draft.VendorStyle = field.Value
	s.state.VendorStyleTouched = field.Touched
	if !field.Touched {
		s.rebuildVendorStyle()
	}
	s.commit()
}

// CommitVendorStyle runs when the user leaves the vendor style field. A typed
// code is split back into base, variant and the fabric code display; the
// vendor style itself is not re-encoded.
func (s *Session) CommitVendorStyle() {
	field := vendorstyle.Field{Value: s.state.Draft.VendorStyle, Touched: s.state.VendorStyleTouched}
	c := vendorstyle.Components{
		Base:       s.state.Draft.BaseItemNumber,
		Variant:    s.state.Draft.VariantCode,
		FabricCode: s.state.Draft.FabricCode,
	}
	c, ok := field.Commit(c)
	if !ok {
		return
	}
	d := &s.state.Draft
	d.VendorStyle = field.Value
	d.BaseItemNumber = c.Base
	d.VariantCode = c.Variant
	d.FabricCode = c.FabricCode
	s.commit()
}

func (s *Session) SetStyleName(v string) {
	s.state.Draft.StyleName = strings.TrimSpace(v)
	s.commit()
}

func (s *Session) SetGender(v string) error {
	g := pricing.Gender(strings.ToUpper(strings.TrimSpace(v)))
	switch g {
	case pricing.GenderMens, pricing.GenderWomens, pricing.GenderUnisex:
	default:
		return fmt.Errorf("%w: %q", ErrInvalidGender, v)
	}
	s.state.Draft.Gender = g
	s.commit()
	return nil
}

func (s *Session) SetNotes(v string) {
	s.state.Draft.Notes = v
	s.commit()
}

// SetGarmentType stores the garment type and resolves its cleaning cost. An
// unknown type or a failed lookup leaves the cleaning cost at 0.00.
func (s *Session) SetGarmentType(ctx context.Context, v string) {
	gt := strings.TrimSpace(v)
	s.state.Draft.GarmentType = gt
	s.state.Draft.CleaningCost = s.cleaningCost(ctx, gt)
	s.commit()
}

func (s *Session) cleaningCost(ctx context.Context, garmentType string) float64 {
	if garmentType == "" {
		return 0
	}
	cost, err := s.lookup.CleaningCost(ctx, garmentType)
	switch {
	case errors.Is(err, ErrNotFound):
		s.notify(LevelWarning, "no cleaning cost for %s; using $0.00", garmentType)
		return 0
	case err != nil:
		s.notify(LevelWarning, "could not load cleaning cost for %s; using $0.00", garmentType)
		return 0
	}
	return cost
}

func (s *Session) SetLabelCost(v float64) {
	s.state.Draft.LabelCost = max(v, 0)
	s.commit()
}

func (s *Session) SetShippingCost(v float64) {
	s.state.Draft.ShippingCost = max(v, 0)
	s.commit()
}

// SetMargin sets the margin used for the retail price. The typed value is
// kept; Recompute clamps it at use.
func (s *Session) SetMargin(v float64) {
	s.state.Draft.Margin = v
	s.commit()
}

// SetSuggestedMargin makes the margin authoritative for the suggested
// price/margin pair.
func (s *Session) SetSuggestedMargin(v float64) {
	s.state.Draft.SuggestedMargin = pricing.ClampPercent(v)
	s.state.Draft.PriceBasis = pricing.BasisMargin
	s.commit()
}

// SetSuggestedPrice makes the price authoritative for the suggested
// price/margin pair. A zero price hands authority back to the margin.
func (s *Session) SetSuggestedPrice(v float64) {
	s.state.Draft.SuggestedPrice = max(v, 0)
	s.state.Draft.PriceBasis = pricing.BasisPrice
	if s.state.Draft.SuggestedPrice == 0 {
		s.state.Draft.PriceBasis = pricing.BasisMargin
	}
	s.commit()
}

// SetSizeRange selects a size range by id; 0 clears the selection. A failed
// lookup keeps the previous selection.
func (s *Session) SetSizeRange(ctx context.Context, id int64) error {
	if id == 0 {
		s.state.Draft.SizeRangeID = 0
		s.state.Draft.SizeRange = nil
		s.commit()
		return nil
	}
	sr, err := s.lookup.SizeRange(ctx, id)
	if err != nil {
		s.notify(LevelWarning, "could not load size range %d", id)
		return fmt.Errorf("load size range %d: %w", id, err)
	}
	s.state.Draft.SizeRangeID = id
	s.state.Draft.SizeRange = &sr
	s.commit()
	return nil
}
