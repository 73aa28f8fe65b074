package notify

import (
	"bytes"
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"strconv"

	"github.com/emersion/go-sasl"
	"github.com/emersion/go-smtp"
)

// SMTPSender submits messages with PLAIN auth. Port 465 style servers need
// ImplicitTLS; otherwise STARTTLS is negotiated when offered.
type SMTPSender struct {
	Host        string
	Port        int
	Username    string
	Password    string
	ImplicitTLS bool

	dial func(ctx context.Context, network, addr string) (net.Conn, error)
}

func NewSMTPSender(host string, port int, username, password string, implicitTLS bool) *SMTPSender {
	s := &SMTPSender{
		Host:        host,
		Port:        port,
		Username:    username,
		Password:    password,
		ImplicitTLS: implicitTLS,
		dial:        (&net.Dialer{}).DialContext,
	}
	if implicitTLS {
		s.dial = (&tls.Dialer{Config: &tls.Config{ServerName: host}}).DialContext
	}
	return s
}

// Send runs the whole SMTP exchange on one connection that is closed as soon
// as ctx ends, so a stalled server cannot outlive the caller.
func (s *SMTPSender) Send(ctx context.Context, msg Message) error {
	if s.Host == "" {
		return errors.New("smtp host is empty")
	}
	addr := net.JoinHostPort(s.Host, strconv.Itoa(s.Port))

	if err := s.send(ctx, addr, msg); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return fmt.Errorf("smtp %s: %w", addr, ctxErr)
		}
		return fmt.Errorf("smtp %s: %w", addr, err)
	}
	return nil
}

func (s *SMTPSender) send(ctx context.Context, addr string, msg Message) error {
	conn, err := s.dial(ctx, "tcp", addr)
	if err != nil {
		return err
	}
	stop := context.AfterFunc(ctx, func() { _ = conn.Close() })
	defer stop()

	c := smtp.NewClient(conn)
	defer c.Close()

	if !s.ImplicitTLS {
		if ok, _ := c.Extension("STARTTLS"); ok {
			if err := c.StartTLS(&tls.Config{ServerName: s.Host}); err != nil {
				return fmt.Errorf("starttls: %w", err)
			}
		}
	}
	if s.Username != "" {
		if err := c.Auth(sasl.NewPlainClient("", s.Username, s.Password)); err != nil {
			return fmt.Errorf("auth: %w", err)
		}
	}
	if err := c.SendMail(msg.From, []string{msg.To}, bytes.NewReader(msg.Raw)); err != nil {
		return err
	}
	return c.Quit()
}
