// Package transport opens the external per-phone conversation surface.
//
// The only adapter here drives the WhatsApp web/deeplink surface through
// the OS URL opener. Opening means "presented for manual confirmation";
// nothing in this package confirms delivery.
package transport

import (
	"context"
	"fmt"
	"net/url"
	"os/exec"
	"runtime"
	"strings"
	"time"

	"dripsend/pkg/logx"
)

// Config configures the surface opener.
type Config struct {
	// Command overrides the OS default opener (xdg-open / open / rundll32).
	Command string
	// Timeout bounds one open invocation. 0 means a sensible default.
	Timeout time.Duration
	// DryRun logs the URL instead of launching anything. Used for rehearsal
	// runs and in environments without a display.
	DryRun bool
}

const defaultOpenTimeout = 20 * time.Second

// WAWeb presents messages by opening a prefilled wa.me conversation URL.
type WAWeb struct {
	cfg Config
	log logx.Logger
}

func NewWAWeb(cfg Config, log logx.Logger) *WAWeb {
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultOpenTimeout
	}
	return &WAWeb{cfg: cfg, log: log}
}

// Open implements dispatch.Transport. The phone must already be canonical;
// wa.me wants it without the leading "+".
func (w *WAWeb) Open(ctx context.Context, phone, text string) error {
	u := ConversationURL(phone, text)

	if w.cfg.DryRun {
		w.log.Info("dry-run open", logx.String("phone", phone), logx.String("url", u))
		return nil
	}

	name, args := w.openerCommand(u)
	cctx, cancel := context.WithTimeout(ctx, w.cfg.Timeout)
	defer cancel()

	cmd := exec.CommandContext(cctx, name, args...)
	if out, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("open conversation surface: %w (%s)", err, strings.TrimSpace(string(out)))
	}
	return nil
}

func (w *WAWeb) openerCommand(u string) (string, []string) {
	if c := strings.TrimSpace(w.cfg.Command); c != "" {
		return c, []string{u}
	}
	switch runtime.GOOS {
	case "darwin":
		return "open", []string{u}
	case "windows":
		return "rundll32", []string{"url.dll,FileProtocolHandler", u}
	default:
		return "xdg-open", []string{u}
	}
}

// ConversationURL builds the prefilled conversation link for a canonical
// phone.
func ConversationURL(phone, text string) string {
	digits := strings.TrimPrefix(phone, "+")
	v := url.Values{}
	if text != "" {
		v.Set("text", text)
	}
	u := "https://wa.me/" + digits
	if enc := v.Encode(); enc != "" {
		u += "?" + enc
	}
	return u
}
