package browser

import (
	"context"
	"encoding/json"
	"strings"
	"sync"

	"github.com/chromedp/cdproto/runtime"

	"github.com/drummonds/pdfcover/render"
)

// readiness is a one-shot completion future, resolved by the first signal the
// renderer page sends. Later signals are ignored.
type readiness struct {
	once sync.Once
	done chan struct{}
	err  error
}

func newReadiness() *readiness {
	return &readiness{done: make(chan struct{})}
}

func (r *readiness) resolve(err error) {
	r.once.Do(func() {
		r.err = err
		close(r.done)
	})
}

// Wait blocks until the page signals or ctx ends.
func (r *readiness) Wait(ctx context.Context) error {
	select {
	case <-r.done:
		return r.err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// signalPayload is what the renderer page passes to the binding.
type signalPayload struct {
	Status  string `json:"status"`
	Kind    string `json:"kind,omitempty"`
	Message string `json:"message,omitempty"`
}

// parseSignal decodes a binding payload. done is false for payloads that are not
// completion messages; err is the failure the page reported, if any.
func parseSignal(payload, source string) (done bool, err error) {
	var p signalPayload
	if jerr := json.Unmarshal([]byte(payload), &p); jerr != nil {
		return false, nil
	}
	switch p.Status {
	case render.ReadyMessage:
		return true, nil
	case "error":
		return true, render.FromKind(p.Kind, source, p.Message)
	}
	return false, nil
}

// consoleText renders console arguments the way the page wrote them.
func consoleText(args []*runtime.RemoteObject) string {
	parts := make([]string, 0, len(args))
	for _, arg := range args {
		if arg == nil {
			continue
		}
		if len(arg.Value) > 0 {
			var s string
			if err := json.Unmarshal([]byte(arg.Value), &s); err == nil {
				parts = append(parts, s)
				continue
			}
			parts = append(parts, string(arg.Value))
			continue
		}
		parts = append(parts, arg.Description)
	}
	return strings.Join(parts, " ")
}
