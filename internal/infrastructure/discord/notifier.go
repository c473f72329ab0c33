package discord

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"ElectionWatcher/internal/ports"
)

// Notifier posts messages and file attachments to a Discord webhook.
type Notifier struct {
	webhookURL string
	client     *resty.Client
}

var _ ports.Notifier = (*Notifier)(nil)

// NewNotifier registers the webhook endpoint.
func NewNotifier(webhookURL string) *Notifier {
	client := resty.New()
	client.SetTimeout(30 * time.Second)
	return &Notifier{webhookURL: webhookURL, client: client}
}

// Notify sends the content as payload_json with the optional file attached.
func (n *Notifier) Notify(ctx context.Context, msg ports.Message) error {
	if n.webhookURL == "" || n.client == nil {
		return fmt.Errorf("discord notifier misconfigured")
	}

	payload, err := json.Marshal(map[string]any{
		"content": msg.Content,
		"allowed_mentions": map[string]any{
			"parse": []string{"roles", "users"},
		},
	})
	if err != nil {
		return fmt.Errorf("marshal discord payload: %w", err)
	}

	req := n.client.R().
		SetContext(ctx).
		SetQueryParam("wait", "true").
		SetMultipartFormData(map[string]string{"payload_json": string(payload)})

	if msg.Attachment != nil {
		file, err := os.Open(msg.Attachment.Path)
		if err != nil {
			return fmt.Errorf("open attachment: %w", err)
		}
		defer file.Close()

		name := msg.Attachment.Name
		if name == "" {
			name = filepath.Base(msg.Attachment.Path)
		}
		req.SetFileReader("files[0]", name, file)
	}

	res, err := req.Post(n.webhookURL)
	if err != nil {
		return fmt.Errorf("post webhook: %w", err)
	}
	if !res.IsSuccess() {
		return fmt.Errorf("discord error %s: %s", res.Status(), strings.TrimSpace(truncate(res.String(), 512)))
	}

	return nil
}

func truncate(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	return s[:limit]
}
