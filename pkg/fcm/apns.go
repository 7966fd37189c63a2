package fcm

import (
	"strconv"
	"time"

	"github.com/yusufsyaifudin/fcmv1/pkg/fcmerr"
	"github.com/yusufsyaifudin/fcmv1/pkg/validator"
)

const (
	APNSPriorityHigh   = "high"
	APNSPriorityNormal = "normal"

	HeaderAPNSPriority   = "apns-priority"
	HeaderAPNSExpiration = "apns-expiration"
	HeaderAPNSTopic      = "apns-topic"
	HeaderAPNSCollapseID = "apns-collapse-id"
	HeaderAPNSPushType   = "apns-push-type"

	defaultAPNSSound = "default"
)

var apnsPriorities = map[string]string{
	APNSPriorityHigh:   "10",
	APNSPriorityNormal: "5",
}

// ApsAlert is the dictionary form of the aps alert.
type ApsAlert struct {
	Title        *string  `json:"title,omitempty"`
	Subtitle     *string  `json:"subtitle,omitempty"`
	Body         *string  `json:"body,omitempty"`
	LocKey       *string  `json:"loc-key,omitempty"`
	LocArgs      []string `json:"loc-args,omitempty"`
	TitleLocKey  *string  `json:"title-loc-key,omitempty"`
	TitleLocArgs []string `json:"title-loc-args,omitempty"`
	ActionLocKey *string  `json:"action-loc-key,omitempty"`
	LaunchImage  *string  `json:"launch-image,omitempty"`
}

// Aps is the aps dictionary of an APNs payload.
// The alert is either a plain string (AlertString) or a dictionary (Alert), never both.
type Aps struct {
	AlertString      *string   `json:"-"`
	Alert            *ApsAlert `json:"-"`
	Badge            *int      `json:"badge,omitempty" validate:"omitempty,min=0"`
	Sound            *string   `json:"sound,omitempty"`
	ContentAvailable *bool     `json:"content-available,omitempty"`
	Category         *string   `json:"category,omitempty"`
	ThreadID         *string   `json:"thread-id,omitempty"`
	MutableContent   *bool     `json:"mutable-content,omitempty"`
}

// APNSPayload is the payload of the APNs message.
// CustomData keys are placed next to "aps" in the payload.
type APNSPayload struct {
	Aps        *Aps                   `json:"aps,omitempty"`
	CustomData map[string]interface{} `json:"-"`
}

type APNSFCMOptions struct {
	AnalyticsLabel *string `json:"analytics_label,omitempty"`
	Image          *string `json:"image,omitempty"`
}

// APNSConfig contains messaging options specific to the Apple Push Notification Service.
// See https://developer.apple.com/documentation/usernotifications/setting_up_a_remote_notification_server/sending_notification_requests_to_apns
type APNSConfig struct {
	Headers    map[string]string `json:"headers,omitempty"`
	Payload    *APNSPayload      `json:"payload,omitempty"`
	FCMOptions *APNSFCMOptions   `json:"fcm_options,omitempty"`
}

func (a *APNSConfig) Validate() error {
	if a == nil {
		return nil
	}

	if priority, ok := a.Headers[HeaderAPNSPriority]; ok && priority != "5" && priority != "10" {
		return fcmerr.InvalidArgument("invalid apns config: %s header must be 5 or 10, got %q", HeaderAPNSPriority, priority)
	}

	if a.Payload == nil {
		return nil
	}

	if _, ok := a.Payload.CustomData["aps"]; ok {
		return fcmerr.InvalidArgument(`invalid apns config: custom data must not contain the "aps" key`)
	}

	aps := a.Payload.Aps
	if aps == nil {
		return nil
	}

	if err := validator.Validate(aps); err != nil {
		return fcmerr.Wrap(fcmerr.CodeInvalidArgument, err, "invalid apns config: %s", validator.Message(err))
	}

	if aps.Alert != nil && aps.AlertString != nil {
		return fcmerr.InvalidArgument("invalid apns config: multiple alert specifications, use either a string or an alert dictionary")
	}

	if alert := aps.Alert; alert != nil {
		if len(alert.LocArgs) > 0 && isEmpty(alert.LocKey) {
			return fcmerr.InvalidArgument("invalid apns config: loc-key is required when specifying loc-args")
		}

		if len(alert.TitleLocArgs) > 0 && isEmpty(alert.TitleLocKey) {
			return fcmerr.InvalidArgument("invalid apns config: title-loc-key is required when specifying title-loc-args")
		}
	}

	return nil
}

// apnsOptions records which options were given, nil means not given.
type apnsOptions struct {
	now func() time.Time

	headers    map[string]string
	priority   *string
	ttl        *time.Duration
	alert      *string
	title      *string
	subtitle   *string
	locKey     *string
	locArgs    []string
	titleKey   *string
	titleArgs  []string
	actionKey  *string
	image      *string
	badge      *int
	sound      *string
	category   *string
	threadID   *string
	available  *bool
	mutable    bool
	customData map[string]interface{}
	fcmOptions *APNSFCMOptions
}

// APNSOption sets one value of the APNSConfig built by NewAPNSConfig.
type APNSOption func(*apnsOptions)

// NewAPNSConfig builds and validates an APNSConfig.
// Unless overridden the sound is "default" and mutable-content is on.
// A title or localization key turns the alert into a dictionary with the alert text as body.
func NewAPNSConfig(opts ...APNSOption) (*APNSConfig, error) {
	o := &apnsOptions{
		now:     time.Now,
		headers: map[string]string{},
		sound:   String(defaultAPNSSound),
		mutable: true,
	}

	for _, opt := range opts {
		opt(o)
	}

	if o.priority != nil {
		p, ok := apnsPriorities[*o.priority]
		if !ok {
			return nil, fcmerr.InvalidArgument("invalid apns config: priority must be one of [high normal], got %q", *o.priority)
		}

		o.headers[HeaderAPNSPriority] = p
	}

	if o.ttl != nil {
		if *o.ttl < 0 {
			return nil, fcmerr.InvalidArgument("invalid apns config: ttl must not be negative")
		}

		o.headers[HeaderAPNSExpiration] = strconv.FormatInt(o.now().Add(*o.ttl).Unix(), 10)
	}

	aps := &Aps{
		Badge:            o.badge,
		Sound:            o.sound,
		ContentAvailable: o.available,
		Category:         o.category,
		ThreadID:         o.threadID,
		MutableContent:   Bool(o.mutable),
	}

	if o.title != nil || o.subtitle != nil || o.locKey != nil || o.titleKey != nil || o.actionKey != nil || o.image != nil {
		aps.Alert = &ApsAlert{
			Title:        o.title,
			Subtitle:     o.subtitle,
			Body:         o.alert,
			LocKey:       o.locKey,
			LocArgs:      o.locArgs,
			TitleLocKey:  o.titleKey,
			TitleLocArgs: o.titleArgs,
			ActionLocKey: o.actionKey,
			LaunchImage:  o.image,
		}
	} else {
		aps.AlertString = o.alert
	}

	cfg := &APNSConfig{
		Payload: &APNSPayload{
			Aps:        aps,
			CustomData: o.customData,
		},
		FCMOptions: o.fcmOptions,
	}

	if len(o.headers) > 0 {
		cfg.Headers = o.headers
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// WithAPNSPriority sets apns-priority, "high" is sent as 10 and "normal" as 5.
func WithAPNSPriority(priority string) APNSOption {
	return func(o *apnsOptions) {
		o.priority = &priority
	}
}

// WithAPNSTTL sets apns-expiration to now plus ttl.
func WithAPNSTTL(ttl time.Duration) APNSOption {
	return func(o *apnsOptions) {
		o.ttl = &ttl
	}
}

// WithAPNSTopic sets apns-topic, usually the bundle id of the app.
func WithAPNSTopic(topic string) APNSOption {
	return func(o *apnsOptions) {
		o.headers[HeaderAPNSTopic] = topic
	}
}

// WithAPNSCollapseID sets apns-collapse-id, notifications with the same id are shown as one.
func WithAPNSCollapseID(id string) APNSOption {
	return func(o *apnsOptions) {
		o.headers[HeaderAPNSCollapseID] = id
	}
}

func WithAPNSHeader(key, value string) APNSOption {
	return func(o *apnsOptions) {
		o.headers[key] = value
	}
}

// WithAPNSAlert sets the alert text.
func WithAPNSAlert(alert string) APNSOption {
	return func(o *apnsOptions) {
		o.alert = &alert
	}
}

func WithAPNSTitle(title string) APNSOption {
	return func(o *apnsOptions) {
		o.title = &title
	}
}

func WithAPNSSubtitle(subtitle string) APNSOption {
	return func(o *apnsOptions) {
		o.subtitle = &subtitle
	}
}

func WithAPNSLocKey(key string, args ...string) APNSOption {
	return func(o *apnsOptions) {
		o.locKey = &key
		o.locArgs = args
	}
}

func WithAPNSTitleLocKey(key string, args ...string) APNSOption {
	return func(o *apnsOptions) {
		o.titleKey = &key
		o.titleArgs = args
	}
}

func WithAPNSActionLocKey(key string) APNSOption {
	return func(o *apnsOptions) {
		o.actionKey = &key
	}
}

func WithAPNSLaunchImage(image string) APNSOption {
	return func(o *apnsOptions) {
		o.image = &image
	}
}

func WithAPNSBadge(badge int) APNSOption {
	return func(o *apnsOptions) {
		o.badge = &badge
	}
}

func WithAPNSSound(sound string) APNSOption {
	return func(o *apnsOptions) {
		o.sound = &sound
	}
}

func WithAPNSCategory(category string) APNSOption {
	return func(o *apnsOptions) {
		o.category = &category
	}
}

func WithAPNSThreadID(id string) APNSOption {
	return func(o *apnsOptions) {
		o.threadID = &id
	}
}

// WithAPNSContentAvailable marks the message as a background update notification.
func WithAPNSContentAvailable(available bool) APNSOption {
	return func(o *apnsOptions) {
		o.available = &available
	}
}

func WithAPNSMutableContent(mutable bool) APNSOption {
	return func(o *apnsOptions) {
		o.mutable = mutable
	}
}

// WithAPNSCustomData adds app specific keys next to "aps".
func WithAPNSCustomData(data map[string]interface{}) APNSOption {
	return func(o *apnsOptions) {
		o.customData = data
	}
}

func WithAPNSFCMOptions(analyticsLabel, image string) APNSOption {
	return func(o *apnsOptions) {
		o.fcmOptions = &APNSFCMOptions{AnalyticsLabel: &analyticsLabel, Image: &image}
	}
}

func withAPNSClock(now func() time.Time) APNSOption {
	return func(o *apnsOptions) {
		o.now = now
	}
}
