package email

import "context"

// Message is one outbound HTML email.
type Message struct {
	To       string
	Subject  string
	HTMLBody string
}

// Transport hands a rendered email to the delivery provider and returns its
// delivery identifier. It does not retry.
type Transport interface {
	Send(ctx context.Context, msg Message) (deliveryID string, err error)
}
