package otp

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	twilioapi "github.com/twilio/twilio-go/rest/api/v2010"
	"gopkg.in/gomail.v2"

	"github.com/homefix/homeservices-backend/pkg/config"
	"github.com/homefix/homeservices-backend/pkg/enums"
)

type fakeMessageCreator struct {
	params *twilioapi.CreateMessageParams
	err    error
}

func (f *fakeMessageCreator) CreateMessage(params *twilioapi.CreateMessageParams) (*twilioapi.ApiV2010Message, error) {
	f.params = params
	return &twilioapi.ApiV2010Message{}, f.err
}

type fakeDialer struct {
	messages []*gomail.Message
}

func (f *fakeDialer) DialAndSend(m ...*gomail.Message) error {
	f.messages = append(f.messages, m...)
	return nil
}

func TestTwilioSenderBuildsMessage(t *testing.T) {
	api := &fakeMessageCreator{}
	sender := &TwilioSender{api: api, from: "+15550001111"}

	err := sender.Send(context.Background(), Message{
		Phone:     "+919800000001",
		Code:      "123456",
		Type:      enums.OTPTypePhoneVerification,
		ExpiresAt: time.Now().Add(10 * time.Minute),
	})
	require.NoError(t, err)
	require.NotNil(t, api.params)
	assert.Equal(t, "+919800000001", *api.params.To)
	assert.Equal(t, "+15550001111", *api.params.From)
	assert.Contains(t, *api.params.Body, "123456")
}

func TestTwilioSenderWrapsErrors(t *testing.T) {
	sender := &TwilioSender{api: &fakeMessageCreator{err: errors.New("boom")}, from: "+1"}
	err := sender.Send(context.Background(), Message{Phone: "+91", Code: "123456"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "send sms")
}

func TestNewTwilioSenderRequiresCredentials(t *testing.T) {
	_, err := NewTwilioSender(config.TwilioConfig{AccountSID: "AC123"})
	require.Error(t, err)
}

func TestEmailSenderSkipsWithoutAddress(t *testing.T) {
	dialer := &fakeDialer{}
	sender := &EmailSender{dialer: dialer, from: "otp@homefix.test"}

	require.NoError(t, sender.Send(context.Background(), Message{Phone: "+91", Code: "123456"}))
	assert.Empty(t, dialer.messages)

	require.NoError(t, sender.Send(context.Background(), Message{Email: "a@b.test", Code: "123456"}))
	require.Len(t, dialer.messages, 1)
	assert.Equal(t, []string{"a@b.test"}, dialer.messages[0].GetHeader("To"))
}

func TestMultiSenderCombinesFailures(t *testing.T) {
	first := &recordingSender{err: errors.New("sms down")}
	second := &recordingSender{err: errors.New("smtp down")}
	multi := NewMultiSender(first, nil, second)

	err := multi.Send(context.Background(), Message{Code: "123456"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "sms down")
	assert.Contains(t, err.Error(), "smtp down")
	assert.Len(t, first.sent, 1)
	assert.Len(t, second.sent, 1)
}
