package notify

import (
	"context"
	"io"
)

// WriterSender writes the raw message instead of sending it. Used for
// dry runs.
type WriterSender struct {
	W io.Writer
}

func (w WriterSender) Send(_ context.Context, msg Message) error {
	_, err := w.W.Write(msg.Raw)
	return err
}
