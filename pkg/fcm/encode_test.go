package fcm_test

import (
	"testing"
	"time"

	"github.com/segmentio/encoding/json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yusufsyaifudin/fcmv1/pkg/fcm"
	"github.com/yusufsyaifudin/fcmv1/pkg/fcmerr"
)

func encodeJSON(t *testing.T, msg *fcm.Message, dryRun bool) string {
	t.Helper()

	body, err := fcm.EncodeMessage(msg, dryRun)
	require.NoError(t, err)

	b, err := json.Marshal(body)
	require.NoError(t, err)
	return string(b)
}

func TestEncodeMessage_Android(t *testing.T) {
	android, err := fcm.NewAndroidConfig(
		fcm.WithAndroidPriority(fcm.AndroidPriorityHigh),
		fcm.WithAndroidTTL(2419200*time.Second),
		fcm.WithAndroidData(map[string]interface{}{"k": "v"}),
	)
	require.NoError(t, err)

	got := encodeJSON(t, &fcm.Message{Token: "device-token", Android: android}, false)
	assert.JSONEq(t, `{"message": {"token": "device-token", "android": {"priority": "high", "ttl": "2419200s", "data": {"k": "v"}}}}`, got)
}

func TestEncodeMessage_AndroidNotification(t *testing.T) {
	android, err := fcm.NewAndroidConfig(
		fcm.WithAndroidTitle("title"),
		fcm.WithAndroidBody("body"),
		fcm.WithAndroidTitleLocKey("title_key", "a", "b"),
		fcm.WithAndroidNotificationCount(0),
		fcm.WithAndroidTTL(1500*time.Millisecond),
		fcm.WithAndroidAnalyticsLabel("campaign"),
	)
	require.NoError(t, err)

	got := encodeJSON(t, &fcm.Message{Token: "t", Android: android}, false)
	assert.JSONEq(t, `{"message": {"token": "t", "android": {
		"ttl": "1.5s",
		"notification": {"title": "title", "body": "body", "title_loc_key": "title_key", "title_loc_args": ["a", "b"], "notification_count": 0},
		"fcm_options": {"analytics_label": "campaign"}
	}}}`, got)
}

func TestEncodeMessage_APNS(t *testing.T) {
	t.Run("flags and custom data", func(t *testing.T) {
		apns, err := fcm.NewAPNSConfig(
			fcm.WithAPNSAlert("hello"),
			fcm.WithAPNSMutableContent(true),
			fcm.WithAPNSContentAvailable(false),
			fcm.WithAPNSCustomData(map[string]interface{}{"foo": "bar", "nested": map[string]interface{}{"n": 1}}),
		)
		require.NoError(t, err)

		got := encodeJSON(t, &fcm.Message{Token: "t", APNS: apns}, false)
		assert.JSONEq(t, `{"message": {"token": "t", "apns": {"payload": {
			"aps": {"alert": "hello", "sound": "default", "mutable-content": 1, "content-available": 0},
			"foo": "bar",
			"nested": {"n": 1}
		}}}}`, got)
	})

	t.Run("alert dictionary", func(t *testing.T) {
		apns, err := fcm.NewAPNSConfig(
			fcm.WithAPNSTitle("title"),
			fcm.WithAPNSAlert("body"),
			fcm.WithAPNSLocKey("loc", "x"),
			fcm.WithAPNSBadge(0),
			fcm.WithAPNSMutableContent(false),
			fcm.WithAPNSThreadID("thread"),
		)
		require.NoError(t, err)

		got := encodeJSON(t, &fcm.Message{Token: "t", APNS: apns}, false)
		assert.JSONEq(t, `{"message": {"token": "t", "apns": {"payload": {"aps": {
			"alert": {"title": "title", "body": "body", "loc-key": "loc", "loc-args": ["x"]},
			"badge": 0,
			"sound": "default",
			"thread-id": "thread",
			"mutable-content": 0
		}}}}}`, got)
	})

	t.Run("unset flags are omitted", func(t *testing.T) {
		aps := fcm.EncodeAps(&fcm.Aps{AlertString: fcm.String("hi")})
		assert.Equal(t, map[string]interface{}{"alert": "hi"}, aps)
		assert.Nil(t, fcm.EncodeAps(nil))
	})
}

func TestEncodeMessage_Webpush(t *testing.T) {
	webpush, err := fcm.NewWebpushConfig(
		fcm.WithWebpushTitle("title"),
		fcm.WithWebpushCustomData(map[string]interface{}{"foo": "bar"}),
		fcm.WithWebpushActions(&fcm.WebpushNotificationAction{Action: "open", Title: "Open"}),
		fcm.WithWebpushVibrate(100, 50),
		fcm.WithWebpushUrgency("high"),
		fcm.WithWebpushLink("https://example.com/news"),
	)
	require.NoError(t, err)

	got := encodeJSON(t, &fcm.Message{Topic: "/topics/news", Webpush: webpush}, true)
	assert.JSONEq(t, `{"validate_only": true, "message": {"topic": "news", "webpush": {
		"headers": {"Urgency": "high"},
		"notification": {
			"title": "title",
			"dir": "auto",
			"renotify": false,
			"silent": false,
			"actions": [{"action": "open", "title": "Open"}],
			"vibrate": [100, 50],
			"foo": "bar"
		},
		"fcm_options": {"link": "https://example.com/news"}
	}}}`, got)
}

func TestEncodeMessage_UnsetFieldsOmitted(t *testing.T) {
	msg := &fcm.Message{
		Condition:    "'news' in topics",
		Data:         map[string]string{},
		Notification: &fcm.Notification{Title: fcm.String("hello")},
		Android:      &fcm.AndroidConfig{Notification: &fcm.AndroidNotification{}},
	}

	got := encodeJSON(t, msg, false)
	assert.JSONEq(t, `{"message": {"condition": "'news' in topics", "notification": {"title": "hello"}}}`, got)
}

func TestEncodeMessage_ExplicitZeroValues(t *testing.T) {
	android, err := fcm.NewAndroidConfig(
		fcm.WithAndroidPriority(""),
		fcm.WithAndroidTTL(0),
		fcm.WithAndroidCollapseKey(""),
		fcm.WithAndroidRestrictedPackageName(""),
		fcm.WithAndroidTitle(""),
		fcm.WithAndroidBody(""),
		fcm.WithAndroidIcon(""),
		fcm.WithAndroidColor(""),
		fcm.WithAndroidSound(""),
		fcm.WithAndroidTag(""),
		fcm.WithAndroidClickAction(""),
		fcm.WithAndroidBodyLocKey(""),
		fcm.WithAndroidTitleLocKey(""),
		fcm.WithAndroidChannelID(""),
		fcm.WithAndroidImage(""),
		fcm.WithAndroidNotificationCount(0),
		fcm.WithAndroidAnalyticsLabel(""),
	)
	require.NoError(t, err)

	// every option except priority, which has no wire value for ""
	apns, err := fcm.NewAPNSConfig(
		fcm.WithAPNSClock(func() time.Time { return time.Unix(1000, 0) }),
		fcm.WithAPNSTTL(0),
		fcm.WithAPNSTopic(""),
		fcm.WithAPNSCollapseID(""),
		fcm.WithAPNSHeader("apns-id", ""),
		fcm.WithAPNSAlert(""),
		fcm.WithAPNSTitle(""),
		fcm.WithAPNSSubtitle(""),
		fcm.WithAPNSLocKey(""),
		fcm.WithAPNSTitleLocKey(""),
		fcm.WithAPNSActionLocKey(""),
		fcm.WithAPNSLaunchImage(""),
		fcm.WithAPNSBadge(0),
		fcm.WithAPNSSound(""),
		fcm.WithAPNSCategory(""),
		fcm.WithAPNSThreadID(""),
		fcm.WithAPNSContentAvailable(false),
		fcm.WithAPNSMutableContent(false),
		fcm.WithAPNSFCMOptions("", ""),
	)
	require.NoError(t, err)

	apnsAlertString, err := fcm.NewAPNSConfig(fcm.WithAPNSAlert(""))
	require.NoError(t, err)

	webpush, err := fcm.NewWebpushConfig(
		fcm.WithWebpushHeader("Topic", ""),
		fcm.WithWebpushTTL(0),
		fcm.WithWebpushUrgency(""),
		fcm.WithWebpushTitle(""),
		fcm.WithWebpushBody(""),
		fcm.WithWebpushIcon(""),
		fcm.WithWebpushImage(""),
		fcm.WithWebpushBadge(""),
		fcm.WithWebpushLanguage(""),
		fcm.WithWebpushTag(""),
		fcm.WithWebpushDirection(""),
		fcm.WithWebpushRenotify(false),
		fcm.WithWebpushRequireInteraction(false),
		fcm.WithWebpushSilent(false),
		fcm.WithWebpushTimestamp(time.Unix(0, 0)),
		fcm.WithWebpushLink(""),
	)
	require.NoError(t, err)

	testCases := []struct {
		Name string
		Msg  *fcm.Message
		JSON string
	}{
		{
			Name: "notification and fcm options",
			Msg: &fcm.Message{
				Token:        "t",
				Notification: &fcm.Notification{Title: fcm.String(""), Body: fcm.String(""), Image: fcm.String("")},
				FCMOptions:   &fcm.FCMOptions{AnalyticsLabel: fcm.String("")},
			},
			JSON: `{"message": {"token": "t",
				"notification": {"title": "", "body": "", "image": ""},
				"fcm_options": {"analytics_label": ""}
			}}`,
		},
		{
			Name: "android",
			Msg:  &fcm.Message{Token: "t", Android: android},
			JSON: `{"message": {"token": "t", "android": {
				"collapse_key": "",
				"priority": "",
				"ttl": "0s",
				"restricted_package_name": "",
				"notification": {
					"title": "", "body": "", "icon": "", "color": "", "sound": "", "tag": "", "click_action": "",
					"body_loc_key": "", "title_loc_key": "", "channel_id": "", "image": "", "notification_count": 0
				},
				"fcm_options": {"analytics_label": ""}
			}}}`,
		},
		{
			Name: "apns alert dictionary",
			Msg:  &fcm.Message{Token: "t", APNS: apns},
			JSON: `{"message": {"token": "t", "apns": {
				"headers": {"apns-expiration": "1000", "apns-topic": "", "apns-collapse-id": "", "apns-id": ""},
				"payload": {"aps": {
					"alert": {
						"title": "", "subtitle": "", "body": "", "loc-key": "", "title-loc-key": "",
						"action-loc-key": "", "launch-image": ""
					},
					"badge": 0,
					"sound": "",
					"content-available": 0,
					"category": "",
					"thread-id": "",
					"mutable-content": 0
				}},
				"fcm_options": {"analytics_label": "", "image": ""}
			}}}`,
		},
		{
			Name: "apns alert string",
			Msg:  &fcm.Message{Token: "t", APNS: apnsAlertString},
			JSON: `{"message": {"token": "t", "apns": {"payload": {"aps": {
				"alert": "", "sound": "default", "mutable-content": 1
			}}}}}`,
		},
		{
			Name: "webpush",
			Msg:  &fcm.Message{Token: "t", Webpush: webpush},
			JSON: `{"message": {"token": "t", "webpush": {
				"headers": {"Topic": "", "TTL": "0", "Urgency": ""},
				"notification": {
					"title": "", "body": "", "icon": "", "image": "", "badge": "", "lang": "", "tag": "", "dir": "",
					"renotify": false, "requireInteraction": false, "silent": false, "timestamp": 0
				},
				"fcm_options": {"link": ""}
			}}}`,
		},
	}

	for _, testCase := range testCases {
		t.Run(testCase.Name, func(t *testing.T) {
			assert.JSONEq(t, testCase.JSON, encodeJSON(t, testCase.Msg, false))
		})
	}
}

func TestEncodeMessage_Invalid(t *testing.T) {
	_, err := fcm.EncodeMessage(&fcm.Message{Token: "t"}, false)
	assert.ErrorIs(t, err, fcmerr.ErrInvalidArgument)
}
