package smtp

import (
	"fmt"
	"mime"
	"strings"
	"time"
)

// Message письмо посетителю события.
type Message struct {
	From    string
	To      []string
	Subject string
	Body    string
	Date    time.Time
}

// Bytes собирает письмо по RFC 5322. Тема кодируется по RFC 2047, строки тела
// заканчиваются CRLF.
func (m Message) Bytes() []byte {
	var b strings.Builder
	header := func(k, v string) {
		b.WriteString(k)
		b.WriteString(": ")
		b.WriteString(v)
		b.WriteString("\r\n")
	}
	header("From", m.From)
	header("To", strings.Join(m.To, ", "))
	header("Subject", mime.QEncoding.Encode("utf-8", m.Subject))
	if !m.Date.IsZero() {
		header("Date", m.Date.Format(time.RFC1123Z))
	}
	header("MIME-Version", "1.0")
	header("Content-Type", `text/plain; charset="UTF-8"`)
	header("Content-Transfer-Encoding", "8bit")
	b.WriteString("\r\n")

	body := strings.ReplaceAll(m.Body, "\r\n", "\n")
	b.WriteString(strings.ReplaceAll(body, "\n", "\r\n"))
	return []byte(b.String())
}

// Deliver передаёт письмо через открытую сессию и завершает её QUIT.
// Сессия закрывается в любом случае.
func Deliver(s Session, m Message) error {
	const op = "smtp.Deliver"
	defer func() { _ = s.Close() }()

	if len(m.To) == 0 {
		return fmt.Errorf("%s: no recipients", op)
	}
	if err := s.Mail(m.From); err != nil {
		return fmt.Errorf("%s: mail from %s: %w", op, m.From, err)
	}
	for _, addr := range m.To {
		if err := s.Rcpt(addr); err != nil {
			return fmt.Errorf("%s: rcpt %s: %w", op, addr, err)
		}
	}

	wc, err := s.Data()
	if err != nil {
		return fmt.Errorf("%s: data: %w", op, err)
	}
	if _, err := wc.Write(m.Bytes()); err != nil {
		_ = wc.Close()
		return fmt.Errorf("%s: write: %w", op, err)
	}
	if err := wc.Close(); err != nil {
		return fmt.Errorf("%s: message rejected: %w", op, err)
	}
	if err := s.Quit(); err != nil {
		return fmt.Errorf("%s: quit: %w", op, err)
	}
	return nil
}
