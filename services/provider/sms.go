package provider

import (
	"context"
	"encoding/json"
	"fmt"

	"travelops-dispatch/services/credential"

	"github.com/go-resty/resty/v2"
)

// The gateway bills short and long messages differently and rejects requests
// whose msg_type does not match the body length. The split is by encoded
// byte length, not rune count.
const longFormThreshold = 90

const (
	msgTypeShort = "SMS"
	msgTypeLong  = "LMS"
)

type SMSGateway struct {
	http     *resty.Client
	endpoint string
}

func NewSMSGateway(endpoint string, client *resty.Client) *SMSGateway {
	return &SMSGateway{
		http:     client,
		endpoint: endpoint,
	}
}

type gatewayResponse struct {
	ResultCode json.Number `json:"result_code"`
	Message    string      `json:"message"`
}

func (g *SMSGateway) Send(ctx context.Context, creds *credential.MessagingCredential, address, body string) (*SendResult, error) {
	msgType := msgTypeShort
	if len(body) > longFormThreshold {
		msgType = msgTypeLong
	}

	resp, err := g.http.R().
		SetContext(ctx).
		SetFormData(map[string]string{
			"key":      creds.APIKey,
			"user_id":  creds.AccountID,
			"sender":   creds.Sender,
			"receiver": address,
			"msg":      body,
			"msg_type": msgType,
		}).
		Post(g.endpoint)
	if err != nil {
		return nil, err
	}
	if resp.IsError() {
		return nil, fmt.Errorf("sms gateway returned status %d", resp.StatusCode())
	}

	var out gatewayResponse
	if err := json.Unmarshal(resp.Body(), &out); err != nil {
		return nil, fmt.Errorf("unexpected sms gateway response: %w", err)
	}

	if out.ResultCode.String() != "1" {
		return nil, fmt.Errorf("sms gateway error %s: %s", out.ResultCode.String(), out.Message)
	}

	return &SendResult{Code: out.ResultCode.String(), Message: out.Message}, nil
}
