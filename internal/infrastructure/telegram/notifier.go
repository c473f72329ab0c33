package telegram

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"ElectionWatcher/internal/ports"
)

const defaultAPIBase = "https://api.telegram.org"

// Notifier sends announcements to a Telegram chat via bot API.
type Notifier struct {
	botToken string
	chatID   string
	apiBase  string
	client   *resty.Client
}

var _ ports.Notifier = (*Notifier)(nil)

// NewNotifier registers bot token and chat identifier.
func NewNotifier(botToken, chatID string) *Notifier {
	client := resty.New()
	client.SetTimeout(30 * time.Second)
	return &Notifier{
		botToken: botToken,
		chatID:   chatID,
		apiBase:  defaultAPIBase,
		client:   client,
	}
}

// WithAPIBase points the notifier at another Bot API server.
func (n *Notifier) WithAPIBase(base string) *Notifier {
	n.apiBase = strings.TrimSuffix(base, "/")
	return n
}

// Notify posts a text message, or a document with caption when a file is attached.
func (n *Notifier) Notify(ctx context.Context, msg ports.Message) error {
	if n.botToken == "" || n.chatID == "" || n.client == nil {
		return fmt.Errorf("telegram notifier misconfigured")
	}

	req := n.client.R().SetContext(ctx)

	method := "sendMessage"
	if msg.Attachment == nil {
		req.SetFormData(map[string]string{
			"chat_id": n.chatID,
			"text":    msg.Content,
		})
	} else {
		method = "sendDocument"

		file, err := os.Open(msg.Attachment.Path)
		if err != nil {
			return fmt.Errorf("open attachment: %w", err)
		}
		defer file.Close()

		name := msg.Attachment.Name
		if name == "" {
			name = filepath.Base(msg.Attachment.Path)
		}
		req.SetMultipartFormData(map[string]string{
			"chat_id": n.chatID,
			"caption": msg.Content,
		}).SetFileReader("document", name, file)
	}

	endpoint := fmt.Sprintf("%s/bot%s/%s", n.apiBase, n.botToken, method)
	res, err := req.Post(endpoint)
	if err != nil {
		return fmt.Errorf("do request: %w", err)
	}

	if res.StatusCode() != 200 {
		return fmt.Errorf("telegram error: %s", res.Status())
	}

	return nil
}
