package textutil

import "strings"

// fileNameReplacer replaces filesystem-unsafe characters with safe alternatives.
var fileNameReplacer = strings.NewReplacer(
	"/", "-",
	"\\", "-",
	":", "-",
	"*", "-",
	"?", "",
	"\"", "",
	"<", "",
	">", "",
	"|", "",
	"\x00", "",
)

// SanitizeFileName replaces filesystem-unsafe characters in a filename.
// Slashes, backslashes, colons, and asterisks become dashes; other unsafe
// characters are removed. Non-ASCII letters are kept so Japanese script names
// stay readable on disk.
func SanitizeFileName(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return ""
	}
	out := strings.TrimSpace(fileNameReplacer.Replace(name))
	out = strings.Trim(out, ".")
	if out == "" {
		return "unnamed"
	}
	return out
}

// StoreFileName maps a script name to the database file holding its segments.
func StoreFileName(scriptName string) string {
	name := SanitizeFileName(scriptName)
	if name == "" {
		name = "unnamed"
	}
	return name + ".db"
}

// MemoryDSN builds the shared-cache in-memory SQLite DSN for a script name.
// Characters with meaning in a URI are percent-escaped.
func MemoryDSN(scriptName string) string {
	var b strings.Builder
	b.WriteString("file:")
	for _, c := range []byte(scriptName) {
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9',
			c == '-', c == '_', c == '.', c == '~':
			b.WriteByte(c)
		default:
			b.WriteString("%")
			b.WriteByte("0123456789ABCDEF"[c>>4])
			b.WriteByte("0123456789ABCDEF"[c&0x0F])
		}
	}
	b.WriteString("?mode=memory&cache=shared")
	return b.String()
}
