// Package notify renders new postings into an email and hands it to a
// transport.
package notify

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/mail"
	"strings"
	"time"

	"jobalert-engine/internal/domain"
)

type Status string

const (
	StatusSent       Status = "SENT"
	StatusSendFailed Status = "SEND_FAILED"
	StatusSkipped    Status = "SKIPPED" // empty batch, nothing sent
)

type Result struct {
	Status Status `json:"status"`
	Reason string `json:"reason,omitempty"`
}

func (r Result) Failed() bool { return r.Status == StatusSendFailed }

// Message is a fully rendered email.
type Message struct {
	From    string
	To      string
	Subject string
	Raw     []byte // RFC 5322 bytes, headers included
}

// Sender delivers a rendered message.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

type Options struct {
	From          string
	SubjectPrefix string
	Timeout       time.Duration
}

type Notifier struct {
	sender Sender
	opts   Options
}

func New(sender Sender, opts Options) *Notifier {
	return &Notifier{sender: sender, opts: opts}
}

// Notify sends one summary of batch to recipient. An empty batch is a no-op.
// Failures come back in the result and are never returned as errors: a lost
// alert must not stop the seen set from advancing.
func (n *Notifier) Notify(ctx context.Context, batch domain.NotificationBatch, recipient string) Result {
	if len(batch.NewPostings) == 0 {
		return Result{Status: StatusSkipped, Reason: "no new postings"}
	}
	if _, err := mail.ParseAddress(strings.TrimSpace(recipient)); err != nil {
		return n.failed(fmt.Errorf("invalid recipient %q: %w", recipient, err))
	}
	if n.sender == nil {
		return n.failed(errors.New("no transport configured"))
	}

	msg, err := Render(batch, n.opts.From, recipient, n.opts.SubjectPrefix)
	if err != nil {
		return n.failed(fmt.Errorf("render: %w", err))
	}

	sctx := ctx
	if n.opts.Timeout > 0 {
		var cancel context.CancelFunc
		sctx, cancel = context.WithTimeout(ctx, n.opts.Timeout)
		defer cancel()
	}
	if err := n.sender.Send(sctx, msg); err != nil {
		return n.failed(err)
	}

	log.Printf("[notify] sent to=%q postings=%d subject=%q", recipient, len(batch.NewPostings), msg.Subject)
	return Result{Status: StatusSent}
}

func (n *Notifier) failed(err error) Result {
	log.Printf("[notify] SEND_FAILED: %v", err)
	return Result{Status: StatusSendFailed, Reason: err.Error()}
}
