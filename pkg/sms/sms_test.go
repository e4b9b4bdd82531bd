package sms

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sns"

	contractx "github.com/tanpawarit/insurance-copilot/agent/contract"
)

type fakePublisher struct {
	input *sns.PublishInput
	err   error
}

func (f *fakePublisher) Publish(_ context.Context, params *sns.PublishInput, _ ...func(*sns.Options)) (*sns.PublishOutput, error) {
	f.input = params
	if f.err != nil {
		return nil, f.err
	}
	return &sns.PublishOutput{MessageId: aws.String("sns-1")}, nil
}

func TestSend(t *testing.T) {
	t.Parallel()

	pub := &fakePublisher{}
	client := NewWithPublisher(pub, "INSCOPLT")

	d, err := client.Send(context.Background(), "9876543210", "Hello Asha")
	if err != nil {
		t.Fatalf("Send() error = %v", err)
	}
	if d.Status != contractx.DeliverySent || d.MessageID != "sns-1" {
		t.Fatalf("delivery = %+v", d)
	}
	if got := aws.ToString(pub.input.PhoneNumber); got != "+919876543210" {
		t.Fatalf("phone = %q", got)
	}
	if got := aws.ToString(pub.input.Message); got != "Hello Asha" {
		t.Fatalf("message = %q", got)
	}
	if got := aws.ToString(pub.input.MessageAttributes["AWS.SNS.SMS.SenderID"].StringValue); got != "INSCOPLT" {
		t.Fatalf("sender id = %q", got)
	}
}

func TestSendFailure(t *testing.T) {
	t.Parallel()

	client := NewWithPublisher(&fakePublisher{err: errors.New("throttled")}, "")

	d, err := client.Send(context.Background(), "+919876543210", "hi")
	if !errors.Is(err, contractx.ErrDelivery) {
		t.Fatalf("Send() error = %v, want ErrDelivery", err)
	}
	if d.Status != contractx.DeliveryFailed || d.Error != "throttled" {
		t.Fatalf("delivery = %+v", d)
	}
}

func TestNewClientRequiresRegion(t *testing.T) {
	t.Parallel()

	if _, err := NewClient(context.Background(), Config{}); err == nil {
		t.Fatal("expected error without region")
	}
}
