package itemcode

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// DefaultPrefix is used when a category name has no letters at all.
const DefaultPrefix = "ITM"

var (
	codeRe     = regexp.MustCompile(`^\s*([A-Za-z]{1,8})-(\d+)\s*$`)
	nonLetter  = regexp.MustCompile(`[^a-z]`)
	vowelRe    = regexp.MustCompile(`[aeiou]`)
	categories = map[string]string{
		"minuman":        "MNM",
		"makanan ringan": "MKR",
		"rokok":          "ROK",
		"mie instan":     "MIE",
		"susu & dairy":   "SUS",
		"roti & kue":     "RTI",
		"toiletries":     "TLT",
		"obat-obatan":    "OBT",
		"es krim":        "ESK",
		"bumbu dapur":    "BMB",
	}
)

// Code is a parsed item code such as MNM-0001.
type Code struct {
	Prefix string
	Seq    int
}

func (c Code) String() string {
	return Format(c.Prefix, c.Seq)
}

// Prefix derives the code prefix of a category: a fixed table for the
// common categories, otherwise the first three consonants, otherwise the
// first letters of the name.
func Prefix(categoryName string) string {
	normalized := strings.ToLower(strings.TrimSpace(categoryName))
	if p, ok := categories[normalized]; ok {
		return p
	}

	letters := nonLetter.ReplaceAllString(normalized, "")
	consonants := vowelRe.ReplaceAllString(letters, "")
	if len(consonants) >= 3 {
		return strings.ToUpper(consonants[:3])
	}
	if letters == "" {
		return DefaultPrefix
	}
	if len(letters) > 3 {
		letters = letters[:3]
	}
	return strings.ToUpper(letters)
}

// Format renders prefix and seq as PREFIX-NNNN.
func Format(prefix string, seq int) string {
	return fmt.Sprintf("%s-%04d", strings.ToUpper(prefix), seq)
}

// Parse splits an item code into prefix and sequence number.
func Parse(raw string) (Code, error) {
	m := codeRe.FindStringSubmatch(raw)
	if m == nil {
		return Code{}, fmt.Errorf("unable to parse item code: %q", raw)
	}
	seq, err := strconv.Atoi(m[2])
	if err != nil {
		return Code{}, fmt.Errorf("unable to parse item code %q: %w", raw, err)
	}
	return Code{Prefix: strings.ToUpper(m[1]), Seq: seq}, nil
}

// Next returns the code following the highest sequence already used under
// prefix among existing. Codes with another prefix are ignored.
func Next(prefix string, existing []string) string {
	prefix = strings.ToUpper(prefix)
	highest := 0
	for _, raw := range existing {
		c, err := Parse(raw)
		if err != nil || c.Prefix != prefix {
			continue
		}
		if c.Seq > highest {
			highest = c.Seq
		}
	}
	return Format(prefix, highest+1)
}
