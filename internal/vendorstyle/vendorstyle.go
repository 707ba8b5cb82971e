// Package vendorstyle converts between a compound vendor style code and the
// fields it is assembled from.
//
// The code is BASE[-VARIANT][FABRICCODE[P]]: the fabric code is appended to the
// variant without a separator, so Decode is a best-effort split for codes that
// were typed by hand with three hyphenated segments. It is not an inverse of
// Encode.
package vendorstyle

import "strings"

const sublimationSuffix = "P"

// Components are the fields a vendor style is built from.
type Components struct {
	Base        string `json:"base_item_number"`
	Variant     string `json:"variant_code"`
	FabricCode  string `json:"fabric_code"`
	Sublimation bool   `json:"sublimation"`
}

// Encode builds the vendor style for c. The variant is only attached to a
// base, and the sublimation suffix only to a fabric code.
func Encode(c Components) string {
	base := strings.TrimSpace(c.Base)
	variant := strings.TrimSpace(c.Variant)
	fabric := strings.TrimSpace(c.FabricCode)

	var b strings.Builder
	if base != "" {
		b.WriteString(base)
		if variant != "" {
			b.WriteString("-")
			b.WriteString(variant)
		}
	}
	if fabric != "" {
		b.WriteString(fabric)
		if c.Sublimation {
			b.WriteString(sublimationSuffix)
		}
	}
	return b.String()
}

// Decode splits a vendor style on hyphens: segment one is the base, two the
// variant, three the fabric code. Missing or blank segments stay empty.
// Sublimation is never inferred.
func Decode(code string) Components {
	var c Components
	parts := strings.Split(strings.TrimSpace(code), "-")
	if len(parts) > 0 {
		c.Base = strings.TrimSpace(parts[0])
	}
	if len(parts) > 1 {
		c.Variant = strings.TrimSpace(parts[1])
	}
	if len(parts) > 2 {
		c.FabricCode = strings.TrimSpace(parts[2])
	}
	return c
}

// Field is the vendor style input together with its touched flag. Touched
// means the user typed into the field since the last Rebuild; while it is set,
// structural changes do not overwrite the value.
type Field struct {
	Value   string `json:"value"`
	Touched bool   `json:"touched"`
}

// Rebuild re-encodes the value from c unless the field is touched. It reports
// whether the value was rebuilt.
func (f *Field) Rebuild(c Components) bool {
	if f.Touched {
		return false
	}
	f.Value = Encode(c)
	return true
}

// Force re-encodes regardless of the touched flag and clears it.
func (f *Field) Force(c Components) {
	f.Value = Encode(c)
	f.Touched = false
}

// Type records a direct edit of the field. Clearing the field hands it back
// to Rebuild.
func (f *Field) Type(value string) {
	f.Value = value
	f.Touched = strings.TrimSpace(value) != ""
}

// Commit runs when the user leaves the field. When the field is touched and
// non-empty it decodes the value and merges the non-empty segments into c.
// The touched flag is kept, so a later structural change still leaves the
// typed value alone.
func (f *Field) Commit(c Components) (Components, bool) {
	value := strings.TrimSpace(f.Value)
	if !f.Touched || value == "" {
		return c, false
	}
	f.Value = value

	parsed := Decode(value)
	if parsed.Base != "" {
		c.Base = parsed.Base
	}
	if parsed.Variant != "" {
		c.Variant = parsed.Variant
	}
	if parsed.FabricCode != "" {
		c.FabricCode = parsed.FabricCode
	}
	return c, true
}
