package provider

import (
	"context"
	"encoding/json"
	"fmt"

	"travelops-dispatch/services/credential"

	"github.com/go-resty/resty/v2"
)

// MailRelay hands email bodies to the platform's mail collaborator; actual
// delivery is that service's problem.
type MailRelay struct {
	http     *resty.Client
	endpoint string
}

func NewMailRelay(endpoint string, client *resty.Client) *MailRelay {
	return &MailRelay{
		http:     client,
		endpoint: endpoint,
	}
}

type mailRequest struct {
	APIKey    string `json:"api_key"`
	AccountID string `json:"account_id"`
	Sender    string `json:"sender"`
	To        string `json:"to"`
	Body      string `json:"body"`
}

type mailResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

func (m *MailRelay) Send(ctx context.Context, creds *credential.MessagingCredential, address, body string) (*SendResult, error) {
	resp, err := m.http.R().
		SetContext(ctx).
		SetBody(mailRequest{
			APIKey:    creds.APIKey,
			AccountID: creds.AccountID,
			Sender:    creds.Sender,
			To:        address,
			Body:      body,
		}).
		Post(m.endpoint)
	if err != nil {
		return nil, err
	}
	if resp.IsError() {
		return nil, fmt.Errorf("mail relay returned status %d", resp.StatusCode())
	}

	var out mailResponse
	if err := json.Unmarshal(resp.Body(), &out); err != nil {
		return nil, fmt.Errorf("unexpected mail relay response: %w", err)
	}

	if out.Status != "ok" {
		return nil, fmt.Errorf("mail relay error %s: %s", out.Status, out.Message)
	}

	return &SendResult{Code: out.Status, Message: out.Message}, nil
}
