package enrich

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"leadgen-engine/internal/domain"
	"leadgen-engine/internal/netutil"
)

// Webhook relays leads to an enrichment table webhook (Clay-style). The
// table usually answers with a bare "Accepted" and enriches asynchronously,
// but synchronous tables answer with a JSON object that is merged directly.
type Webhook struct {
	url     string
	apiKey  string
	hc      *http.Client
	limiter *netutil.HostLimiter
	retry   netutil.RetryPolicy
}

func NewWebhook(url, apiKey string, limiter *netutil.HostLimiter) *Webhook {
	return &Webhook{
		url:     url,
		apiKey:  apiKey,
		hc:      &http.Client{Timeout: 30 * time.Second},
		limiter: limiter,
		retry: netutil.RetryPolicy{
			Attempts: 3,
			Backoff: func(attempt, status int) time.Duration {
				wait := time.Duration(1<<attempt) * time.Second
				if status == http.StatusTooManyRequests {
					wait *= 2
				}
				return wait
			},
		},
	}
}

// SetRetryPolicy overrides the backoff schedule, used by tests.
func (w *Webhook) SetRetryPolicy(p netutil.RetryPolicy) { w.retry = p }

func (w *Webhook) Name() string { return "webhook" }

type webhookPayload struct {
	LeadID        string `json:"lead_id,omitempty"`
	Email         string `json:"email"`
	FirstName     string `json:"first_name,omitempty"`
	LastName      string `json:"last_name,omitempty"`
	FullName      string `json:"full_name,omitempty"`
	Title         string `json:"title,omitempty"`
	Company       string `json:"company,omitempty"`
	CompanyDomain string `json:"company_domain,omitempty"`
	LinkedInURL   string `json:"linkedin_url,omitempty"`
}

func (w *Webhook) Enrich(ctx context.Context, lead domain.Lead) (Patch, error) {
	if w.url == "" {
		return nil, nil
	}

	body, err := json.Marshal(webhookPayload{
		LeadID:        lead.ID,
		Email:         lead.Email,
		FirstName:     lead.FirstName,
		LastName:      lead.LastName,
		FullName:      lead.FullName,
		Title:         lead.Title,
		Company:       lead.Company,
		CompanyDomain: lead.CompanyDomain,
		LinkedInURL:   lead.LinkedInURL,
	})
	if err != nil {
		return nil, err
	}

	if w.limiter != nil {
		if err := w.limiter.WaitURL(ctx, w.url); err != nil {
			return nil, err
		}
	}

	resp, err := w.retry.Do(ctx, w.hc, func() (*http.Request, error) {
		req, err := http.NewRequest(http.MethodPost, w.url, bytes.NewReader(body))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Accept", "application/json")
		if w.apiKey != "" {
			req.Header.Set("Authorization", "Bearer "+w.apiKey)
		}
		return req, nil
	})
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 256))
		return nil, fmt.Errorf("webhook: http %d: %s", resp.StatusCode, strings.TrimSpace(string(snippet)))
	}
	return parseWebhookResponse(resp.Body)
}

// parseWebhookResponse accepts the three shapes tables answer with: empty
// body, a plain-text acknowledgement, or a JSON object of enriched fields.
func parseWebhookResponse(r io.Reader) (Patch, error) {
	raw, err := io.ReadAll(io.LimitReader(r, 1<<20))
	if err != nil {
		return nil, err
	}
	text := strings.TrimSpace(string(raw))
	if text == "" {
		return Patch{"status": "accepted"}, nil
	}

	var obj map[string]any
	if err := json.Unmarshal(raw, &obj); err != nil {
		return Patch{"status": text}, nil
	}

	patch := Patch{}
	for k, v := range obj {
		switch val := v.(type) {
		case string:
			patch[k] = val
		case float64:
			patch[k] = fmt.Sprintf("%g", val)
		case bool:
			patch[k] = fmt.Sprintf("%t", val)
		}
	}
	if len(patch) == 0 {
		patch["status"] = "accepted"
	}
	return patch, nil
}
