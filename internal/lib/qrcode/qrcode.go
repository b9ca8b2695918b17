// Package qrcode генерирует текстовые токены билетов, которые интерфейс
// отображает в виде QR-кода.
package qrcode

import (
	"crypto/rand"
	"strconv"
	"strings"
	"time"
)

// Prefix фиксированное начало каждого токена.
const Prefix = "EVT"

const (
	alphabet     = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ"
	randomLength = 9
	// maxByte отсекает байты, дающие смещение при взятии по модулю 36.
	maxByte = 252
)

// Generate возвращает токен вида EVT-<unix millis>-<9 символов [0-9A-Z]>.
func Generate(now time.Time) string {
	var b strings.Builder
	b.Grow(len(Prefix) + 2 + 13 + randomLength)
	b.WriteString(Prefix)
	b.WriteByte('-')
	b.WriteString(strconv.FormatInt(now.UnixMilli(), 10))
	b.WriteByte('-')
	b.WriteString(randomSuffix(randomLength))
	return b.String()
}

func randomSuffix(n int) string {
	out := make([]byte, 0, n)
	buf := make([]byte, n*2)
	for len(out) < n {
		if _, err := rand.Read(buf); err != nil {
			panic("qrcode: crypto/rand failed: " + err.Error())
		}
		for _, c := range buf {
			if c >= maxByte {
				continue
			}
			out = append(out, alphabet[c%36])
			if len(out) == n {
				break
			}
		}
	}
	return string(out)
}
