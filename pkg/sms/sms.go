package sms

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/aws/aws-sdk-go-v2/service/sns/types"
	"github.com/rs/zerolog/log"

	contractx "github.com/tanpawarit/insurance-copilot/agent/contract"
	"github.com/tanpawarit/insurance-copilot/pkg/whatsapp"
)

type Config struct {
	Region   string `split_words:"true"`
	SenderID string `envconfig:"SENDER_ID" split_words:"true" default:"INSCOPLT"`
}

// Enabled reports whether an AWS region was configured.
func (c Config) Enabled() bool {
	return strings.TrimSpace(c.Region) != ""
}

type Publisher interface {
	Publish(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error)
}

// Client sends transactional SMS through AWS SNS.
type Client struct {
	publisher Publisher
	senderID  string
}

var _ contractx.Messenger = (*Client)(nil)

func NewClient(ctx context.Context, cfg Config) (*Client, error) {
	if !cfg.Enabled() {
		return nil, errors.New("sns region is required")
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.Region))
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	return NewWithPublisher(sns.NewFromConfig(awsCfg), cfg.SenderID), nil
}

func NewWithPublisher(p Publisher, senderID string) *Client {
	return &Client{publisher: p, senderID: strings.TrimSpace(senderID)}
}

func (c *Client) Send(ctx context.Context, phone string, body string) (contractx.Delivery, error) {
	to := whatsapp.NormalizePhone(phone)
	delivery := contractx.Delivery{Phone: to, Status: contractx.DeliveryFailed}

	attrs := map[string]types.MessageAttributeValue{
		"AWS.SNS.SMS.SMSType": {
			DataType:    aws.String("String"),
			StringValue: aws.String("Transactional"),
		},
	}
	if c.senderID != "" {
		attrs["AWS.SNS.SMS.SenderID"] = types.MessageAttributeValue{
			DataType:    aws.String("String"),
			StringValue: aws.String(c.senderID),
		}
	}

	out, err := c.publisher.Publish(ctx, &sns.PublishInput{
		PhoneNumber:       aws.String(to),
		Message:           aws.String(body),
		MessageAttributes: attrs,
	})
	if err != nil {
		delivery.Error = err.Error()
		log.Warn().Err(err).Str("to", to).Msg("sms publish failed")
		return delivery, fmt.Errorf("%w: sns publish: %v", contractx.ErrDelivery, err)
	}

	delivery.Status = contractx.DeliverySent
	delivery.MessageID = aws.ToString(out.MessageId)
	log.Info().Str("to", to).Str("message_id", delivery.MessageID).Msg("sms sent")
	return delivery, nil
}
