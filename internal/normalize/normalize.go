// =============================================================================
// IFRS Report - Text Normalizer
// =============================================================================
//
// This module maps accented text from the IFRS extract to an ASCII-safe
// approximation so that account names and entity names compare reliably:
//   - "Compañía"  -> "Compania"
//   - "ÑUÑOA"     -> "NUNOA"
//   - "CompaÃ±Ã­a" (UTF-8 read twice) -> "Compania"
//
// Only marks on Latin letters are removed. Any other character, including
// combining marks of other scripts, passes through unchanged.
//
// CONTRACT:
//   Text never fails. Invalid byte sequences are copied through as-is.
//
// =============================================================================

package normalize

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/ginjaninja78/ifrs-report/internal/types"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/unicode/norm"
)

// mojibakeMarkers are the lead characters of UTF-8 sequences that were
// decoded as Latin-1 or Windows-1252 ("Ã±" for "ñ", "Â´" for "´").
const mojibakeMarkers = "ÃÂ"

// legacyCharmaps are tried in order when repairing double-encoded text.
var legacyCharmaps = []*charmap.Charmap{
	charmap.Windows1252,
	charmap.ISO8859_1,
}

// Text returns the ASCII-approximated form of s.
func Text(s string) string {
	if isASCII(s) {
		return s
	}

	repaired := repairMojibake(s)

	return norm.NFC.String(stripLatinMarks(norm.NFD.String(repaired)))
}

// stripLatinMarks drops the nonspacing marks that follow a Latin base letter
// in decomposed text. Marks on other scripts are kept. Invalid bytes are
// copied through as they are.
func stripLatinMarks(s string) string {
	var b strings.Builder
	b.Grow(len(s))

	latinBase := false
	for i := 0; i < len(s); {
		r, size := utf8.DecodeRuneInString(s[i:])
		if unicode.Is(unicode.Mn, r) {
			if latinBase {
				i += size
				continue
			}
		} else {
			latinBase = unicode.Is(unicode.Latin, r)
		}
		b.WriteString(s[i : i+size])
		i += size
	}
	return b.String()
}

// RawRecord applies Text to every field of the record.
func RawRecord(r types.RawRecord) types.RawRecord {
	return r.Map(Text)
}

// repairMojibake undoes one level of UTF-8 -> Latin-1 mis-decoding.
// The value is returned unchanged unless re-encoding it with a legacy
// charmap yields different, valid UTF-8.
func repairMojibake(s string) string {
	if !strings.ContainsAny(s, mojibakeMarkers) {
		return s
	}

	for _, cm := range legacyCharmaps {
		encoded, err := cm.NewEncoder().String(s)
		if err != nil {
			continue
		}
		if encoded != s && utf8.ValidString(encoded) {
			return encoded
		}
	}
	return s
}

func isASCII(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] >= utf8.RuneSelf {
			return false
		}
	}
	return true
}
