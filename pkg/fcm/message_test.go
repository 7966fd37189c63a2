package fcm_test

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/yusufsyaifudin/fcmv1/pkg/fcm"
	"github.com/yusufsyaifudin/fcmv1/pkg/fcmerr"
)

func TestMessage_Validate(t *testing.T) {
	notification := &fcm.Notification{Title: fcm.String("hello")}

	testCases := []struct {
		Name  string
		Msg   *fcm.Message
		Valid bool
	}{
		{Name: "nil", Msg: nil},
		{Name: "token", Msg: &fcm.Message{Token: "t", Notification: notification}, Valid: true},
		{Name: "topic with prefix", Msg: &fcm.Message{Topic: "/topics/news", Notification: notification}, Valid: true},
		{Name: "condition", Msg: &fcm.Message{Condition: "'a' in topics", Data: map[string]string{"k": "v"}}, Valid: true},
		{Name: "no target", Msg: &fcm.Message{Notification: notification}},
		{Name: "two targets", Msg: &fcm.Message{Token: "t", Topic: "news", Notification: notification}},
		{Name: "malformed topic", Msg: &fcm.Message{Topic: "news sport", Notification: notification}},
		{Name: "target only", Msg: &fcm.Message{Token: "t"}},
		{Name: "fcm options only", Msg: &fcm.Message{Token: "t", FCMOptions: &fcm.FCMOptions{AnalyticsLabel: fcm.String("x")}}, Valid: true},
		{Name: "reserved data key", Msg: &fcm.Message{Token: "t", Data: map[string]string{"from": "x"}}},
		{Name: "reserved data prefix", Msg: &fcm.Message{Token: "t", Data: map[string]string{"google.x": "x"}}},
		{
			Name: "two platforms",
			Msg:  &fcm.Message{Token: "t", Android: &fcm.AndroidConfig{}, APNS: &fcm.APNSConfig{}},
		},
		{
			Name: "invalid android priority",
			Msg:  &fcm.Message{Token: "t", Android: &fcm.AndroidConfig{Priority: fcm.String("urgent")}},
		},
		{
			Name: "apns alert twice",
			Msg: &fcm.Message{Token: "t", APNS: &fcm.APNSConfig{Payload: &fcm.APNSPayload{
				Aps: &fcm.Aps{AlertString: fcm.String("a"), Alert: &fcm.ApsAlert{Title: fcm.String("b")}},
			}}},
		},
	}

	for _, testCase := range testCases {
		t.Run(testCase.Name, func(t *testing.T) {
			err := testCase.Msg.Validate()
			if testCase.Valid {
				assert.NoError(t, err)
				return
			}

			assert.ErrorIs(t, err, fcmerr.ErrInvalidArgument)
		})
	}
}

func TestMulticastMessage(t *testing.T) {
	t.Run("to messages", func(t *testing.T) {
		mm := &fcm.MulticastMessage{
			Tokens:       []string{"a", "b"},
			Data:         map[string]string{"k": "v"},
			Notification: &fcm.Notification{Title: fcm.String("hello")},
		}

		assert.NoError(t, mm.Validate())

		msgs := mm.ToMessages()
		assert.Len(t, msgs, 2)
		assert.Equal(t, "a", msgs[0].Token)
		assert.Equal(t, "b", msgs[1].Token)
		assert.Equal(t, mm.Data, msgs[1].Data)
		assert.Equal(t, mm.Notification, msgs[1].Notification)
	})

	t.Run("no tokens", func(t *testing.T) {
		assert.ErrorIs(t, (&fcm.MulticastMessage{}).Validate(), fcmerr.ErrInvalidArgument)
	})

	t.Run("too many tokens", func(t *testing.T) {
		tokens := make([]string, fcm.MaxMulticastTokens+1)
		for i := range tokens {
			tokens[i] = fmt.Sprintf("token-%d", i)
		}

		err := (&fcm.MulticastMessage{Tokens: tokens}).Validate()
		assert.ErrorIs(t, err, fcmerr.ErrInvalidArgument)
	})
}
