package provider

import (
	"context"

	"travelops-dispatch/services/credential"
	"travelops-dispatch/services/funnel"
)

// SendResult carries the provider's structured response for a successful
// send. Failures are returned as errors with the provider message attached
// verbatim so tenants can see the gateway's own diagnostics.
type SendResult struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Sender is a single-attempt wire adapter to a messaging gateway. Retry
// policy lives in the dispatch worker, never here.
type Sender interface {
	Send(ctx context.Context, creds *credential.MessagingCredential, address, body string) (*SendResult, error)
}

// Senders maps a channel to its gateway adapter.
type Senders map[funnel.Channel]Sender
