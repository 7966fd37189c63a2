package fcm

import (
	"github.com/yusufsyaifudin/fcmv1/internal/payload"
)

// EncodeMessage validates msg and turns it into the request body of messages:send,
// {"message": {...}} plus "validate_only": true when dryRun is set.
// Unset fields are never part of the output.
func EncodeMessage(msg *Message, dryRun bool) (map[string]interface{}, error) {
	if err := msg.Validate(); err != nil {
		return nil, err
	}

	body := map[string]interface{}{
		"message": encodeMessage(msg),
	}

	if dryRun {
		body["validate_only"] = true
	}

	return payload.RemoveNullValues(body), nil
}

func encodeMessage(msg *Message) map[string]interface{} {
	out := map[string]interface{}{
		"token":        target(msg.Token),
		"topic":        target(normalizeTopic(msg.Topic)),
		"condition":    target(msg.Condition),
		"data":         msg.Data,
		"notification": encodeNotification(msg.Notification),
		"android":      encodeAndroid(msg.Android),
		"apns":         encodeAPNS(msg.APNS),
		"webpush":      encodeWebpush(msg.Webpush),
	}

	if msg.FCMOptions != nil {
		out["fcm_options"] = map[string]interface{}{
			"analytics_label": optString(msg.FCMOptions.AnalyticsLabel),
		}
	}

	return out
}

func encodeNotification(n *Notification) map[string]interface{} {
	if n == nil {
		return nil
	}

	return map[string]interface{}{
		"title": optString(n.Title),
		"body":  optString(n.Body),
		"image": optString(n.Image),
	}
}

func encodeAndroid(a *AndroidConfig) map[string]interface{} {
	if a == nil {
		return nil
	}

	out := map[string]interface{}{
		"collapse_key":            optString(a.CollapseKey),
		"priority":                optString(a.Priority),
		"restricted_package_name": optString(a.RestrictedPackageName),
		"data":                    a.Data,
	}

	if a.TTL != nil {
		out["ttl"] = payload.FormatDuration(*a.TTL)
	}

	if n := a.Notification; n != nil {
		out["notification"] = map[string]interface{}{
			"title":              optString(n.Title),
			"body":               optString(n.Body),
			"icon":               optString(n.Icon),
			"color":              optString(n.Color),
			"sound":              optString(n.Sound),
			"tag":                optString(n.Tag),
			"click_action":       optString(n.ClickAction),
			"body_loc_key":       optString(n.BodyLocKey),
			"body_loc_args":      n.BodyLocArgs,
			"title_loc_key":      optString(n.TitleLocKey),
			"title_loc_args":     n.TitleLocArgs,
			"channel_id":         optString(n.ChannelID),
			"image":              optString(n.Image),
			"notification_count": n.NotificationCount,
		}
	}

	if a.FCMOptions != nil {
		out["fcm_options"] = map[string]interface{}{
			"analytics_label": optString(a.FCMOptions.AnalyticsLabel),
		}
	}

	return out
}

func encodeAPNS(a *APNSConfig) map[string]interface{} {
	if a == nil {
		return nil
	}

	out := map[string]interface{}{
		"headers": a.Headers,
	}

	if a.Payload != nil {
		out["payload"] = EncodeAPNSPayload(a.Payload)
	}

	if a.FCMOptions != nil {
		out["fcm_options"] = map[string]interface{}{
			"analytics_label": optString(a.FCMOptions.AnalyticsLabel),
			"image":           optString(a.FCMOptions.Image),
		}
	}

	return out
}

// EncodeAPNSPayload renders the payload the way APNs expects it: dashed aps keys,
// flags as 0 or 1, and custom data next to "aps".
func EncodeAPNSPayload(p *APNSPayload) map[string]interface{} {
	if p == nil {
		return nil
	}

	out := make(map[string]interface{}, len(p.CustomData)+1)
	for k, v := range p.CustomData {
		out[k] = v
	}

	if aps := EncodeAps(p.Aps); aps != nil {
		out["aps"] = aps
	}

	return payload.RemoveNullValues(out)
}

// EncodeAps renders the aps dictionary.
func EncodeAps(aps *Aps) map[string]interface{} {
	if aps == nil {
		return nil
	}

	out := map[string]interface{}{
		"badge":             aps.Badge,
		"sound":             optString(aps.Sound),
		"content-available": flag(aps.ContentAvailable),
		"category":          optString(aps.Category),
		"thread-id":         optString(aps.ThreadID),
		"mutable-content":   flag(aps.MutableContent),
	}

	switch {
	case aps.Alert != nil:
		out["alert"] = map[string]interface{}{
			"title":          optString(aps.Alert.Title),
			"subtitle":       optString(aps.Alert.Subtitle),
			"body":           optString(aps.Alert.Body),
			"loc-key":        optString(aps.Alert.LocKey),
			"loc-args":       aps.Alert.LocArgs,
			"title-loc-key":  optString(aps.Alert.TitleLocKey),
			"title-loc-args": aps.Alert.TitleLocArgs,
			"action-loc-key": optString(aps.Alert.ActionLocKey),
			"launch-image":   optString(aps.Alert.LaunchImage),
		}
	case aps.AlertString != nil:
		out["alert"] = *aps.AlertString
	}

	return payload.RemoveNullValues(out)
}

func encodeWebpush(w *WebpushConfig) map[string]interface{} {
	if w == nil {
		return nil
	}

	out := map[string]interface{}{
		"headers": w.Headers,
		"data":    w.Data,
	}

	if n := w.Notification; n != nil {
		notification := make(map[string]interface{}, len(n.CustomData)+15)
		for k, v := range n.CustomData {
			notification[k] = v
		}

		actions := make([]map[string]interface{}, 0, len(n.Actions))
		for _, action := range n.Actions {
			actions = append(actions, map[string]interface{}{
				"action": action.Action,
				"title":  action.Title,
				"icon":   optString(action.Icon),
			})
		}

		fields := map[string]interface{}{
			"title":              optString(n.Title),
			"body":               optString(n.Body),
			"icon":               optString(n.Icon),
			"image":              optString(n.Image),
			"badge":              optString(n.Badge),
			"lang":               optString(n.Language),
			"tag":                optString(n.Tag),
			"dir":                optString(n.Direction),
			"renotify":           n.Renotify,
			"requireInteraction": n.RequireInteraction,
			"silent":             n.Silent,
			"actions":            actions,
			"timestamp":          n.TimestampMillis,
			"vibrate":            n.Vibrate,
			"data":               n.Data,
		}

		for k, v := range fields {
			notification[k] = v
		}

		out["notification"] = notification
	}

	if w.FCMOptions != nil {
		out["fcm_options"] = map[string]interface{}{
			"link": optString(w.FCMOptions.Link),
		}
	}

	return out
}

// target treats the empty string as unset, the message has exactly one target.
func target(s string) interface{} {
	if s == "" {
		return nil
	}

	return s
}

// optString leaves out nil, an explicit empty string is kept.
func optString(s *string) interface{} {
	if s == nil {
		return nil
	}

	return *s
}

// flag renders an optional bool as APNs expects it, 1 or 0.
func flag(b *bool) interface{} {
	if b == nil {
		return nil
	}

	if *b {
		return 1
	}

	return 0
}
