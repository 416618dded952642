package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/lipgloss"
)

// Notifier forwards a notification to a channel outside the app.
type Notifier interface {
	Notify(ctx context.Context, n Notification) error
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(ctx context.Context, n Notification) error

func (f NotifierFunc) Notify(ctx context.Context, n Notification) error {
	return f(ctx, n)
}

// Multi sends to every notifier in order and joins their errors.
func Multi(notifiers ...Notifier) Notifier {
	return NotifierFunc(func(ctx context.Context, n Notification) error {
		var errs []error
		for _, notifier := range notifiers {
			if err := notifier.Notify(ctx, n); err != nil {
				errs = append(errs, err)
			}
		}
		return errors.Join(errs...)
	})
}

const defaultBarkServer = "https://api.day.app"

// BarkNotifier pushes notifications to a phone through a Bark server.
type BarkNotifier struct {
	serverURL  string
	deviceKey  string
	group      string
	httpClient *http.Client
}

func NewBarkNotifier(serverURL, deviceKey, group string) *BarkNotifier {
	if serverURL == "" {
		serverURL = defaultBarkServer
	}
	return &BarkNotifier{
		serverURL:  strings.TrimRight(serverURL, "/"),
		deviceKey:  deviceKey,
		group:      group,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

type barkPayload struct {
	DeviceKey string `json:"device_key"`
	Title     string `json:"title"`
	Body      string `json:"body"`
	Group     string `json:"group,omitempty"`
	Level     string `json:"level,omitempty"`
}

func (b *BarkNotifier) Notify(ctx context.Context, n Notification) error {
	if b.deviceKey == "" {
		return fmt.Errorf("bark device key not configured")
	}

	payload := barkPayload{
		DeviceKey: b.deviceKey,
		Title:     n.Title,
		Body:      n.Message,
		Group:     b.group,
	}
	if n.Kind == KindError {
		payload.Level = "timeSensitive"
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, b.serverURL+"/push", bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := b.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("bark push failed: %s", resp.Status)
	}
	return nil
}

var (
	warningStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("214"))
	errorStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("196"))
	infoStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("39"))
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
)

// KindStyle returns the terminal style of a notification kind.
func KindStyle(kind Kind) lipgloss.Style {
	switch kind {
	case KindWarning:
		return warningStyle
	case KindError:
		return errorStyle
	case KindSuccess:
		return successStyle
	default:
		return infoStyle
	}
}

// TerminalNotifier rings the bell and prints a styled line.
type TerminalNotifier struct {
	mu sync.Mutex
	w  io.Writer
}

func NewTerminalNotifier(w io.Writer) *TerminalNotifier {
	return &TerminalNotifier{w: w}
}

func (t *TerminalNotifier) Notify(_ context.Context, n Notification) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	_, err := fmt.Fprintf(t.w, "\a%s %s\n", KindStyle(n.Kind).Render(n.Title), n.Message)
	return err
}
