package fcm

import (
	"net/url"
	"strconv"
	"time"

	"github.com/yusufsyaifudin/fcmv1/pkg/fcmerr"
	"github.com/yusufsyaifudin/fcmv1/pkg/validator"
)

const (
	WebpushDirectionAuto = "auto"
	WebpushDirectionLTR  = "ltr"
	WebpushDirectionRTL  = "rtl"

	HeaderWebpushTTL     = "TTL"
	HeaderWebpushUrgency = "Urgency"
)

// WebpushNotificationAction represents an action available to users when the notification is presented.
type WebpushNotificationAction struct {
	Action string `json:"action" validate:"required"`
	Title  string `json:"title" validate:"required"`
	Icon   *string `json:"icon,omitempty"`
}

// WebpushNotification is a webpush notification, its fields follow the
// Notification API of the browsers: https://developer.mozilla.org/en-US/docs/Web/API/Notification
// CustomData keys are merged into the notification object.
type WebpushNotification struct {
	Title              *string                      `json:"title,omitempty"`
	Body               *string                      `json:"body,omitempty"`
	Icon               *string                      `json:"icon,omitempty"`
	Image              *string                      `json:"image,omitempty"`
	Badge              *string                      `json:"badge,omitempty"`
	Language           *string                      `json:"lang,omitempty"`
	Tag                *string                      `json:"tag,omitempty"`
	Direction          *string                      `json:"dir,omitempty"`
	Renotify           *bool                        `json:"renotify,omitempty"`
	RequireInteraction *bool                        `json:"requireInteraction,omitempty"`
	Silent             *bool                        `json:"silent,omitempty"`
	Actions            []*WebpushNotificationAction `json:"actions,omitempty" validate:"omitempty,dive,required"`
	TimestampMillis    *int64                       `json:"timestamp,omitempty" validate:"omitempty,min=0"`
	Vibrate            []int                        `json:"vibrate,omitempty" validate:"omitempty,dive,min=0"`
	Data               interface{}                  `json:"data,omitempty"`
	CustomData         map[string]interface{}       `json:"-"`
}

type WebpushFCMOptions struct {
	Link *string `json:"link,omitempty"`
}

// WebpushConfig contains messaging options specific to the WebPush protocol.
// See https://tools.ietf.org/html/rfc8030#section-5 for additional details, and supported headers.
type WebpushConfig struct {
	Headers      map[string]string    `json:"headers,omitempty"`
	Data         map[string]string    `json:"data,omitempty"`
	Notification *WebpushNotification `json:"notification,omitempty"`
	FCMOptions   *WebpushFCMOptions   `json:"fcm_options,omitempty"`
}

func (w *WebpushConfig) Validate() error {
	if w == nil {
		return nil
	}

	if urgency, ok := w.Headers[HeaderWebpushUrgency]; ok {
		if err := validator.Var(urgency, "omitempty,oneof=very-low low normal high"); err != nil {
			return fcmerr.InvalidArgument("invalid webpush config: urgency must be one of [very-low low normal high], got %q", urgency)
		}
	}

	if w.FCMOptions != nil && !isEmpty(w.FCMOptions.Link) {
		link, err := url.Parse(*w.FCMOptions.Link)
		if err != nil || link.Scheme != "https" || link.Host == "" {
			return fcmerr.InvalidArgument("invalid webpush config: fcm_options.link must be a HTTPS URL, got %q", *w.FCMOptions.Link)
		}
	}

	if w.Notification == nil {
		return nil
	}

	if dir := w.Notification.Direction; dir != nil {
		if err := validator.Var(*dir, "omitempty,oneof=auto ltr rtl"); err != nil {
			return fcmerr.InvalidArgument("invalid webpush config: dir must be one of [auto ltr rtl], got %q", *dir)
		}
	}

	if err := validator.Validate(w.Notification); err != nil {
		return fcmerr.Wrap(fcmerr.CodeInvalidArgument, err, "invalid webpush config: %s", validator.Message(err))
	}

	for k := range w.Notification.CustomData {
		if _, ok := webpushNotificationKeys[k]; ok {
			return fcmerr.InvalidArgument("invalid webpush config: custom data key %q overrides a notification field", k)
		}
	}

	return nil
}

var webpushNotificationKeys = map[string]struct{}{
	"title": {}, "body": {}, "icon": {}, "image": {}, "badge": {}, "lang": {}, "tag": {}, "dir": {},
	"renotify": {}, "requireInteraction": {}, "silent": {}, "actions": {}, "timestamp": {}, "vibrate": {}, "data": {},
}

// WebpushOption sets one field of the WebpushConfig built by NewWebpushConfig.
type WebpushOption func(*WebpushConfig)

// NewWebpushConfig builds and validates a WebpushConfig.
// When any notification option is given, the notification starts with
// direction "auto", renotify and silent off.
func NewWebpushConfig(opts ...WebpushOption) (*WebpushConfig, error) {
	cfg := &WebpushConfig{}
	for _, opt := range opts {
		opt(cfg)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (w *WebpushConfig) notification() *WebpushNotification {
	if w.Notification == nil {
		w.Notification = &WebpushNotification{
			Direction: String(WebpushDirectionAuto),
			Renotify:  Bool(false),
			Silent:    Bool(false),
		}
	}

	return w.Notification
}

func (w *WebpushConfig) header(k, v string) {
	if w.Headers == nil {
		w.Headers = map[string]string{}
	}

	w.Headers[k] = v
}

func WithWebpushHeader(key, value string) WebpushOption {
	return func(w *WebpushConfig) {
		w.header(key, value)
	}
}

// WithWebpushTTL sets the TTL header in seconds.
func WithWebpushTTL(ttl time.Duration) WebpushOption {
	return func(w *WebpushConfig) {
		w.header(HeaderWebpushTTL, strconv.FormatInt(int64(ttl/time.Second), 10))
	}
}

// WithWebpushUrgency sets the Urgency header: very-low, low, normal or high.
func WithWebpushUrgency(urgency string) WebpushOption {
	return func(w *WebpushConfig) {
		w.header(HeaderWebpushUrgency, urgency)
	}
}

func WithWebpushData(data map[string]string) WebpushOption {
	return func(w *WebpushConfig) {
		w.Data = data
	}
}

func WithWebpushTitle(title string) WebpushOption {
	return func(w *WebpushConfig) {
		w.notification().Title = &title
	}
}

func WithWebpushBody(body string) WebpushOption {
	return func(w *WebpushConfig) {
		w.notification().Body = &body
	}
}

func WithWebpushIcon(icon string) WebpushOption {
	return func(w *WebpushConfig) {
		w.notification().Icon = &icon
	}
}

func WithWebpushImage(image string) WebpushOption {
	return func(w *WebpushConfig) {
		w.notification().Image = &image
	}
}

func WithWebpushBadge(badge string) WebpushOption {
	return func(w *WebpushConfig) {
		w.notification().Badge = &badge
	}
}

func WithWebpushLanguage(lang string) WebpushOption {
	return func(w *WebpushConfig) {
		w.notification().Language = &lang
	}
}

func WithWebpushTag(tag string) WebpushOption {
	return func(w *WebpushConfig) {
		w.notification().Tag = &tag
	}
}

// WithWebpushDirection sets the text direction: auto, ltr or rtl.
func WithWebpushDirection(dir string) WebpushOption {
	return func(w *WebpushConfig) {
		w.notification().Direction = &dir
	}
}

func WithWebpushRenotify(renotify bool) WebpushOption {
	return func(w *WebpushConfig) {
		w.notification().Renotify = &renotify
	}
}

func WithWebpushRequireInteraction(require bool) WebpushOption {
	return func(w *WebpushConfig) {
		w.notification().RequireInteraction = &require
	}
}

func WithWebpushSilent(silent bool) WebpushOption {
	return func(w *WebpushConfig) {
		w.notification().Silent = &silent
	}
}

func WithWebpushActions(actions ...*WebpushNotificationAction) WebpushOption {
	return func(w *WebpushConfig) {
		w.notification().Actions = actions
	}
}

func WithWebpushTimestamp(t time.Time) WebpushOption {
	return func(w *WebpushConfig) {
		ms := t.UnixNano() / int64(time.Millisecond)
		w.notification().TimestampMillis = &ms
	}
}

// WithWebpushVibrate sets the vibration pattern in milliseconds.
func WithWebpushVibrate(pattern ...int) WebpushOption {
	return func(w *WebpushConfig) {
		w.notification().Vibrate = pattern
	}
}

// WithWebpushNotificationData sets arbitrary data available to the service worker.
func WithWebpushNotificationData(data interface{}) WebpushOption {
	return func(w *WebpushConfig) {
		w.notification().Data = data
	}
}

func WithWebpushCustomData(data map[string]interface{}) WebpushOption {
	return func(w *WebpushConfig) {
		w.notification().CustomData = data
	}
}

// WithWebpushLink sets the page opened when the user clicks the notification, it must be HTTPS.
func WithWebpushLink(link string) WebpushOption {
	return func(w *WebpushConfig) {
		w.FCMOptions = &WebpushFCMOptions{Link: &link}
	}
}
