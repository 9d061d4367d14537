package mail

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// メール送信の約束。outboxディスパッチャだけが使う。
type Sender interface {
	Send(ctx context.Context, to, subject, body string) error
}

type resendClient struct {
	apiKey  string
	baseURL string
	from    string
	client  *http.Client
}

func NewResendClient(apiKey, baseURL, from string) Sender {
	return &resendClient{
		apiKey:  apiKey,
		baseURL: strings.TrimRight(baseURL, "/"),
		from:    from,
		client:  &http.Client{Timeout: 10 * time.Second},
	}
}

func (c *resendClient) Send(ctx context.Context, to, subject, body string) error {
	payload := map[string]any{
		"from":    c.from,
		"to":      []string{to},
		"subject": subject,
		"html":    textToHTML(body),
		"text":    body,
	}
	b, _ := json.Marshal(payload)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/emails", bytes.NewReader(b))
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return fmt.Errorf("mail send failed: %s", resp.Status)
	}

	var out struct {
		ID string `json:"id"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return err
	}
	return nil
}

// プレーンテキストを簡易HTML化する
func textToHTML(text string) string {
	s := strings.ReplaceAll(text, "\n\n", "</p><p>")
	s = strings.ReplaceAll(s, "\n", "<br>")
	return "<p>" + s + "</p>"
}
