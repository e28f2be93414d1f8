package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"regexp"
	"time"

	"github.com/confsync/confsync/pkg/log"
)

// DefaultWebhookTimeout bounds each outbound webhook request.
const DefaultWebhookTimeout = 30 * time.Second

// UniversalHook is the hook table key that receives every event code.
const UniversalHook = "universal"

var templateVarPattern = regexp.MustCompile(`\[([\w./-]+)\]`)

// WebhookSink POSTs events as JSON to configured URLs. The hook table
// maps event codes to URLs; the "universal" entry receives all codes.
// Text templates per code produce a human-readable summary carried in
// the payload's "text" and "content" fields, with [field] placeholders
// substituted from the payload.
type WebhookSink struct {
	hooks     map[string]string
	templates map[string]string
	client    *http.Client
	logger    log.Logger
	userAgent string
}

var _ Sink = &WebhookSink{}

// WebhookOption configures a WebhookSink.
type WebhookOption func(*WebhookSink)

// WithTemplates sets the per-code text templates.
func WithTemplates(templates map[string]string) WebhookOption {
	return func(s *WebhookSink) { s.templates = templates }
}

// WithHTTPClient overrides the HTTP client.
func WithHTTPClient(client *http.Client) WebhookOption {
	return func(s *WebhookSink) { s.client = client }
}

// WithUserAgent sets the User-Agent header on webhook requests.
func WithUserAgent(ua string) WebhookOption {
	return func(s *WebhookSink) { s.userAgent = ua }
}

// NewWebhookSink creates a webhook sink for the given code→URL table.
func NewWebhookSink(hooks map[string]string, logger log.Logger, opts ...WebhookOption) *WebhookSink {
	if logger == nil {
		logger = log.GetDefaultLogger()
	}
	s := &WebhookSink{
		hooks:     hooks,
		client:    &http.Client{Timeout: DefaultWebhookTimeout},
		logger:    logger.WithComponent("webhook"),
		userAgent: "ConfSync",
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Notify fires the webhooks registered for the event's code. Delivery
// failures are logged and swallowed; they are never retried.
func (s *WebhookSink) Notify(ctx context.Context, event Event) error {
	if len(s.hooks) == 0 {
		return nil
	}

	payload := make(map[string]interface{}, len(event.Payload)+3)
	for k, v := range event.Payload {
		payload[k] = v
	}
	text := "ConfSync: " + s.renderTemplate(string(event.Code), payload)
	payload["code"] = string(event.Code)
	payload["msg"] = event.SubjectID
	payload["text"] = text
	payload["content"] = text

	if url, ok := s.hooks[string(event.Code)]; ok && url != "" {
		s.post(ctx, url, payload)
	}
	if url, ok := s.hooks[UniversalHook]; ok && url != "" {
		s.post(ctx, url, payload)
	}
	return nil
}

func (s *WebhookSink) post(ctx context.Context, url string, payload map[string]interface{}) {
	body, err := json.Marshal(payload)
	if err != nil {
		s.logger.Error("Failed to encode webhook payload", log.Err(err), log.Str("url", url))
		return
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		s.logger.Error("Failed to build webhook request", log.Err(err), log.Str("url", url))
		return
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", s.userAgent)

	resp, err := s.client.Do(req)
	if err != nil {
		s.logger.Error("Web hook failed", log.Err(err), log.Str("url", url))
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		s.logger.Error("Web hook failed", log.Str("url", url), log.Int("status", resp.StatusCode))
		return
	}
	s.logger.Debug("Web hook fired successfully", log.Str("url", url))
}

// renderTemplate substitutes [field] placeholders from the payload
// into the code's text template.
func (s *WebhookSink) renderTemplate(code string, payload map[string]interface{}) string {
	tmpl, ok := s.templates[code]
	if !ok {
		return code
	}
	return templateVarPattern.ReplaceAllStringFunc(tmpl, func(match string) string {
		key := templateVarPattern.FindStringSubmatch(match)[1]
		if v, ok := payload[key]; ok {
			return fmt.Sprintf("%v", v)
		}
		return match
	})
}
