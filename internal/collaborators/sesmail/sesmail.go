// Package sesmail delivers signature-request emails over Amazon SES.
package sesmail

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/ses/types"

	"github.com/pehel/mortgage-app/internal/common/logger"
)

// SESService is the slice of the SES client the sender needs; it keeps the
// client mockable in tests.
type SESService interface {
	SendEmail(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error)
}

// Sender implements the wizard's email channel on SES.
type Sender struct {
	client SESService
	source string
	logger logger.Logger
}

// New loads the default AWS config for the region and builds a Sender with
// the given verified source address.
func New(ctx context.Context, region, source string, log logger.Logger) (*Sender, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, err
	}
	return NewWithClient(ses.NewFromConfig(cfg), source, log), nil
}

func NewWithClient(client SESService, source string, log logger.Logger) *Sender {
	return &Sender{
		client: client,
		source: source,
		logger: log.WithFields(map[string]interface{}{"component": "sesmail"}),
	}
}

func (s *Sender) Send(ctx context.Context, to, subject, body string) error {
	_, err := s.client.SendEmail(ctx, &ses.SendEmailInput{
		Destination: &types.Destination{
			ToAddresses: []string{to},
		},
		Message: &types.Message{
			Subject: &types.Content{Data: aws.String(subject)},
			Body: &types.Body{
				Text: &types.Content{Data: aws.String(body)},
			},
		},
		Source: aws.String(s.source),
	})
	if err != nil {
		s.logger.WithError(err).Error("email delivery failed", map[string]interface{}{"to": to})
		return err
	}
	s.logger.Info("email delivered", map[string]interface{}{"to": to, "subject": subject})
	return nil
}
