package fcm

import (
	"fmt"
	"time"

	"github.com/yusufsyaifudin/fcmv1/pkg/fcmerr"
	"github.com/yusufsyaifudin/fcmv1/pkg/validator"
)

const (
	AndroidPriorityHigh   = "high"
	AndroidPriorityNormal = "normal"
)

// AndroidNotification is the notification to send to android devices.
// Title and Body override the ones of Message.Notification.
type AndroidNotification struct {
	Title             *string  `json:"title,omitempty"`
	Body              *string  `json:"body,omitempty"`
	Icon              *string  `json:"icon,omitempty"`
	Color             *string  `json:"color,omitempty"`
	Sound             *string  `json:"sound,omitempty"`
	Tag               *string  `json:"tag,omitempty"`
	ClickAction       *string  `json:"click_action,omitempty"`
	BodyLocKey        *string  `json:"body_loc_key,omitempty"`
	BodyLocArgs       []string `json:"body_loc_args,omitempty"`
	TitleLocKey       *string  `json:"title_loc_key,omitempty"`
	TitleLocArgs      []string `json:"title_loc_args,omitempty"`
	ChannelID         *string  `json:"channel_id,omitempty"`
	Image             *string  `json:"image,omitempty"`
	NotificationCount *int     `json:"notification_count,omitempty" validate:"omitempty,min=0"`
}

type AndroidFCMOptions struct {
	AnalyticsLabel *string `json:"analytics_label,omitempty"`
}

// AndroidConfig contains messaging options specific to the Android platform.
type AndroidConfig struct {
	CollapseKey           *string              `json:"collapse_key,omitempty"`
	Priority              *string              `json:"priority,omitempty"`
	TTL                   *time.Duration       `json:"ttl,omitempty"`
	RestrictedPackageName *string              `json:"restricted_package_name,omitempty"`
	Data                  map[string]string    `json:"data,omitempty"`
	Notification          *AndroidNotification `json:"notification,omitempty"`
	FCMOptions            *AndroidFCMOptions   `json:"fcm_options,omitempty"`
}

func (a *AndroidConfig) Validate() error {
	if a == nil {
		return nil
	}

	if err := validator.Validate(a); err != nil {
		return fcmerr.Wrap(fcmerr.CodeInvalidArgument, err, "invalid android config: %s", validator.Message(err))
	}

	if a.Priority != nil {
		if err := validator.Var(*a.Priority, "omitempty,oneof=high normal"); err != nil {
			return fcmerr.InvalidArgument("invalid android config: priority must be one of [high normal], got %q", *a.Priority)
		}
	}

	if a.TTL != nil && *a.TTL < 0 {
		return fcmerr.InvalidArgument("invalid android config: ttl must not be negative")
	}

	n := a.Notification
	if n == nil {
		return nil
	}

	if n.Color != nil {
		if err := validator.Var(*n.Color, "omitempty,hexcolor"); err != nil {
			return fcmerr.InvalidArgument("invalid android config: color must be in the form #RRGGBB, got %q", *n.Color)
		}
	}

	if len(n.BodyLocArgs) > 0 && isEmpty(n.BodyLocKey) {
		return fcmerr.InvalidArgument("invalid android config: body_loc_key is required when specifying body_loc_args")
	}

	if len(n.TitleLocArgs) > 0 && isEmpty(n.TitleLocKey) {
		return fcmerr.InvalidArgument("invalid android config: title_loc_key is required when specifying title_loc_args")
	}

	return nil
}

// AndroidOption sets one field of the AndroidConfig built by NewAndroidConfig.
type AndroidOption func(*AndroidConfig)

// NewAndroidConfig builds and validates an AndroidConfig.
//
//	cfg, err := fcm.NewAndroidConfig(
//		fcm.WithAndroidPriority(fcm.AndroidPriorityHigh),
//		fcm.WithAndroidTTL(28*24*time.Hour),
//		fcm.WithAndroidTitle("Hello"),
//	)
func NewAndroidConfig(opts ...AndroidOption) (*AndroidConfig, error) {
	cfg := &AndroidConfig{}
	for _, opt := range opts {
		opt(cfg)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (a *AndroidConfig) notification() *AndroidNotification {
	if a.Notification == nil {
		a.Notification = &AndroidNotification{}
	}

	return a.Notification
}

func WithAndroidPriority(priority string) AndroidOption {
	return func(a *AndroidConfig) {
		a.Priority = &priority
	}
}

// WithAndroidTTL sets how long the message is kept in FCM storage if the device is offline.
func WithAndroidTTL(ttl time.Duration) AndroidOption {
	return func(a *AndroidConfig) {
		a.TTL = &ttl
	}
}

func WithAndroidCollapseKey(key string) AndroidOption {
	return func(a *AndroidConfig) {
		a.CollapseKey = &key
	}
}

func WithAndroidRestrictedPackageName(name string) AndroidOption {
	return func(a *AndroidConfig) {
		a.RestrictedPackageName = &name
	}
}

// WithAndroidData sets the data payload. FCM only accepts string values:
// a nil value is sent as the string "null", others are formatted with fmt.Sprint.
func WithAndroidData(data map[string]interface{}) AndroidOption {
	return func(a *AndroidConfig) {
		if data == nil {
			return
		}

		a.Data = make(map[string]string, len(data))
		for k, v := range data {
			if v == nil {
				a.Data[k] = "null"
				continue
			}

			a.Data[k] = fmt.Sprint(v)
		}
	}
}

func WithAndroidTitle(title string) AndroidOption {
	return func(a *AndroidConfig) {
		a.notification().Title = &title
	}
}

func WithAndroidBody(body string) AndroidOption {
	return func(a *AndroidConfig) {
		a.notification().Body = &body
	}
}

func WithAndroidIcon(icon string) AndroidOption {
	return func(a *AndroidConfig) {
		a.notification().Icon = &icon
	}
}

// WithAndroidColor sets the icon color in #rrggbb format.
func WithAndroidColor(color string) AndroidOption {
	return func(a *AndroidConfig) {
		a.notification().Color = &color
	}
}

func WithAndroidSound(sound string) AndroidOption {
	return func(a *AndroidConfig) {
		a.notification().Sound = &sound
	}
}

func WithAndroidTag(tag string) AndroidOption {
	return func(a *AndroidConfig) {
		a.notification().Tag = &tag
	}
}

func WithAndroidClickAction(action string) AndroidOption {
	return func(a *AndroidConfig) {
		a.notification().ClickAction = &action
	}
}

func WithAndroidBodyLocKey(key string, args ...string) AndroidOption {
	return func(a *AndroidConfig) {
		a.notification().BodyLocKey = &key
		a.notification().BodyLocArgs = args
	}
}

func WithAndroidTitleLocKey(key string, args ...string) AndroidOption {
	return func(a *AndroidConfig) {
		a.notification().TitleLocKey = &key
		a.notification().TitleLocArgs = args
	}
}

func WithAndroidChannelID(id string) AndroidOption {
	return func(a *AndroidConfig) {
		a.notification().ChannelID = &id
	}
}

func WithAndroidImage(image string) AndroidOption {
	return func(a *AndroidConfig) {
		a.notification().Image = &image
	}
}

func WithAndroidNotificationCount(n int) AndroidOption {
	return func(a *AndroidConfig) {
		a.notification().NotificationCount = &n
	}
}

func WithAndroidAnalyticsLabel(label string) AndroidOption {
	return func(a *AndroidConfig) {
		a.FCMOptions = &AndroidFCMOptions{AnalyticsLabel: &label}
	}
}
