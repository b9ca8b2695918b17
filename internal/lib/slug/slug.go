// Package slug строит человекочитаемые URL-идентификаторы событий.
package slug

import (
	"strconv"
	"strings"
	"time"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Fallback используется, когда в названии не осталось допустимых символов.
const Fallback = "event"

// Make приводит title к виду "lower-case-words": диакритика снимается,
// пробелы заменяются дефисами, прочие символы кроме [a-z0-9-] отбрасываются.
func Make(title string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, title)
	if err != nil {
		folded = title
	}

	var b strings.Builder
	prevHyphen := true
	for _, r := range strings.ToLower(folded) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			prevHyphen = false
		case unicode.IsSpace(r) || r == '-' || r == '_':
			if !prevHyphen {
				b.WriteByte('-')
				prevHyphen = true
			}
		}
	}

	s := strings.Trim(b.String(), "-")
	if s == "" {
		return Fallback
	}
	return s
}

// WithSuffix присоединяет суффикс уникальности к базовому слагу.
func WithSuffix(base, suffix string) string {
	return base + "-" + suffix
}

// New возвращает слаг названия с меткой времени создания в миллисекундах.
func New(title string, createdAt time.Time) string {
	return WithSuffix(Make(title), strconv.FormatInt(createdAt.UnixMilli(), 10))
}
