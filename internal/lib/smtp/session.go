// Package smtp доставляет письма о билетах через SMTP-релей.
package smtp

import "io"

// Session открытое соединение с релеем. *smtp.Client из net/smtp удовлетворяет ему напрямую.
type Session interface {
	Mail(from string) error
	Rcpt(to string) error
	Data() (io.WriteCloser, error)
	Quit() error
	Close() error
}

// Relay открывает сессии от имени адреса, с которого уходят билеты.
type Relay interface {
	Open() (Session, error)
	Sender() string
}
