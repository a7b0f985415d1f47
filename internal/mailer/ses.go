package mailer

import (
	"context"
	"fmt"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	sestypes "github.com/aws/aws-sdk-go-v2/service/ses/types"
)

// SESTransport delivers email via Amazon SES raw sending, which preserves
// the MIME attachment.
type SESTransport struct {
	client *ses.Client
}

// NewSESTransport constructs an SESTransport for the given region.
func NewSESTransport(ctx context.Context, region string) (*SESTransport, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	return &SESTransport{client: ses.NewFromConfig(cfg)}, nil
}

// Send delivers the email through SES.
func (t *SESTransport) Send(ctx context.Context, email Email) error {
	message := BuildMIMEMessage(email)
	_, err := t.client.SendRawEmail(ctx, &ses.SendRawEmailInput{
		RawMessage:   &sestypes.RawMessage{Data: message},
		Source:       &email.From,
		Destinations: []string{email.To},
	})
	if err != nil {
		return fmt.Errorf("ses send raw email: %w", err)
	}
	return nil
}
