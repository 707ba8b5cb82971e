// Package sizes expands size range strings such as "XS-XL, 2XL-6XL" or
// "00-18" into individual size labels.
package sizes

import (
	"fmt"
	"slices"
	"strconv"
	"strings"
	"unicode"
)

var alphaLadder = []string{"XXS", "XS", "S", "M", "L", "XL", "2XL", "3XL", "4XL", "5XL", "6XL"}

// Normalize upper-cases a size label, drops spaces and reads "3X" as "3XL".
func Normalize(label string) string {
	s := strings.ToUpper(strings.ReplaceAll(strings.TrimSpace(label), " ", ""))
	if strings.HasSuffix(s, "X") && !strings.HasSuffix(s, "XL") {
		s += "L"
	}
	return s
}

// Expand turns a comma separated list of sizes and ranges into a flat list
// in order of appearance with duplicates removed.
func Expand(expr string) []string {
	var out []string
	for _, part := range strings.Split(expr, ",") {
		for _, size := range expandToken(part) {
			if !slices.Contains(out, size) {
				out = append(out, size)
			}
		}
	}
	return out
}

// All returns the regular sizes followed by any extended size not already
// listed.
func All(regular, extended string) []string {
	out := Expand(regular)
	for _, size := range Expand(extended) {
		if !slices.Contains(out, size) {
			out = append(out, size)
		}
	}
	return out
}

// IsExtended reports whether label is one of the sizes in the extended
// range expression.
func IsExtended(label, extended string) bool {
	return slices.Contains(Expand(extended), Normalize(label))
}

func expandToken(token string) []string {
	t := strings.TrimSpace(token)
	if t == "" {
		return nil
	}
	left, right, isRange := strings.Cut(t, "-")
	if !isRange {
		if s := Normalize(t); s != "" {
			return []string{s}
		}
		return nil
	}
	left, right = strings.TrimSpace(left), strings.TrimSpace(right)
	if strings.IndexFunc(left+right, unicode.IsLetter) >= 0 {
		return alphaRange(left, right)
	}
	return numericRange(left, right)
}

func alphaRange(a, b string) []string {
	from, to := Normalize(a), Normalize(b)
	i, j := slices.Index(alphaLadder, from), slices.Index(alphaLadder, to)
	if i < 0 || j < 0 {
		if from == to {
			return []string{from}
		}
		return []string{from, to}
	}
	if i <= j {
		return slices.Clone(alphaLadder[i : j+1])
	}
	out := slices.Clone(alphaLadder[j : i+1])
	slices.Reverse(out)
	return out
}

// numericRange steps by two. A range starting at "00" lists 00 and then the
// even sizes from 0.
func numericRange(a, b string) []string {
	from, errA := strconv.Atoi(a)
	to, errB := strconv.Atoi(b)
	if errA != nil || errB != nil {
		return []string{Normalize(a), Normalize(b)}
	}

	if a == "00" {
		end := max(from, to)
		out := []string{"00"}
		for n := 0; n <= end; n += 2 {
			out = append(out, strconv.Itoa(n))
		}
		return out
	}

	width := max(len(a), len(b))
	var out []string
	if from <= to {
		for n := from; n <= to; n += 2 {
			out = append(out, fmt.Sprintf("%0*d", width, n))
		}
	} else {
		for n := from; n >= to; n -= 2 {
			out = append(out, fmt.Sprintf("%0*d", width, n))
		}
	}
	return out
}
