package extract

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// Minimum run length that counts as salvageable text inside a binary .doc
// stream.
const minDocRun = 4

// docText is a best-effort salvage for legacy Word binaries: there is no
// native Go parser for the OLE2 .doc format, so keep the printable runs and
// drop the rest. Files saved as DOCX but declared as msword also pass
// through here and still yield their readable text.
func docText(data []byte) string {
	var sb strings.Builder
	var run []rune

	flush := func() {
		if len(run) >= minDocRun {
			if sb.Len() > 0 {
				sb.WriteByte('\n')
			}
			sb.WriteString(strings.TrimSpace(string(run)))
		}
		run = run[:0]
	}

	for i := 0; i < len(data); {
		r, size := utf8.DecodeRune(data[i:])
		i += size
		if r == utf8.RuneError && size == 1 {
			flush()
			continue
		}
		if unicode.IsPrint(r) || r == ' ' || r == '\t' {
			run = append(run, r)
			continue
		}
		flush()
	}
	flush()

	return sb.String()
}
