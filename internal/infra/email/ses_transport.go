package email

import (
	"context"
	"errors"
	"fmt"

	domainEmail "review_reminder/internal/domain/email"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/ses/types"
)

const charsetUTF8 = "UTF-8"

// SESService is the part of the SES client the transport uses.
type SESService interface {
	SendEmail(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error)
}

// SESTransport implements email.Transport on Amazon SES.
type SESTransport struct {
	client SESService
	from   string
}

func NewSESTransport(client SESService, from string) *SESTransport {
	return &SESTransport{client: client, from: from}
}

// NewSESTransportFromRegion loads the default AWS credential chain for region.
func NewSESTransportFromRegion(ctx context.Context, region, from string) (*SESTransport, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("load AWS config: %w", err)
	}
	return NewSESTransport(ses.NewFromConfig(cfg), from), nil
}

// Send delivers msg and returns the SES message id.
func (t *SESTransport) Send(ctx context.Context, msg domainEmail.Message) (string, error) {
	if msg.To == "" {
		return "", errors.New("ses: recipient is empty")
	}

	out, err := t.client.SendEmail(ctx, &ses.SendEmailInput{
		Destination: &types.Destination{
			ToAddresses: []string{msg.To},
		},
		Message: &types.Message{
			Subject: &types.Content{Data: aws.String(msg.Subject), Charset: aws.String(charsetUTF8)},
			Body: &types.Body{
				Html: &types.Content{Data: aws.String(msg.HTMLBody), Charset: aws.String(charsetUTF8)},
			},
		},
		Source: aws.String(t.from),
	})
	if err != nil {
		return "", fmt.Errorf("ses send to %s: %w", msg.To, err)
	}
	return aws.ToString(out.MessageId), nil
}
