package smtp

import (
	"crypto/tls"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/smtp"
	"time"

	"github.com/magabrotheeeer/eventhub/internal/config"
	"github.com/magabrotheeeer/eventhub/internal/lib/sl"
)

const defaultDialTimeout = 10 * time.Second

// ErrNoStartTLS релей не предлагает STARTTLS, а учётные данные заданы.
var ErrNoStartTLS = errors.New("relay does not offer STARTTLS")

// Transport открывает сессии с релеем из конфигурации уведомлений.
type Transport struct {
	cfg         config.SMTP
	log         *slog.Logger
	dialTimeout time.Duration
}

// NewTransport создает новый экземпляр Transport.
func NewTransport(cfg config.SMTP, log *slog.Logger) *Transport {
	return &Transport{
		cfg:         cfg,
		log:         log.With(slog.String("smtp_host", cfg.SMTPHost)),
		dialTimeout: defaultDialTimeout,
	}
}

// Open подключается к релею. С паролем в конфигурации STARTTLS обязателен,
// без пароля допускается релей без TLS, например локальный перехватчик почты.
func (t *Transport) Open() (Session, error) {
	const op = "smtp.Open"
	addr := net.JoinHostPort(t.cfg.SMTPHost, t.cfg.SMTPPort)

	conn, err := net.DialTimeout("tcp", addr, t.dialTimeout)
	if err != nil {
		return nil, fmt.Errorf("%s: dial %s: %w", op, addr, err)
	}
	client, err := smtp.NewClient(conn, t.cfg.SMTPHost)
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("%s: greeting: %w", op, err)
	}

	if err := t.secure(client); err != nil {
		t.abort(client)
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if t.cfg.SMTPPass != "" {
		auth := smtp.PlainAuth("", t.cfg.SMTPUser, t.cfg.SMTPPass, t.cfg.SMTPHost)
		if err := client.Auth(auth); err != nil {
			t.abort(client)
			return nil, fmt.Errorf("%s: auth: %w", op, err)
		}
	}
	return client, nil
}

func (t *Transport) secure(client *smtp.Client) error {
	if ok, _ := client.Extension("STARTTLS"); !ok {
		if t.cfg.SMTPPass != "" {
			return ErrNoStartTLS
		}
		t.log.Warn("relay without STARTTLS, tickets are sent in plain text")
		return nil
	}
	err := client.StartTLS(&tls.Config{
		ServerName: t.cfg.SMTPHost,
		MinVersion: tls.VersionTLS12,
	})
	if err != nil {
		return fmt.Errorf("starttls: %w", err)
	}
	return nil
}

func (t *Transport) abort(client *smtp.Client) {
	if err := client.Close(); err != nil {
		t.log.Debug("failed to close relay connection", sl.Err(err))
	}
}

// Sender адрес отправителя билетов.
func (t *Transport) Sender() string {
	return t.cfg.SMTPUser
}
