package fcm

import (
	"context"
)

// SendAll is the former name of SendEach.
func (c *Client) SendAll(ctx context.Context, msgs []*Message) (*FCMBatchResponse, error) {
	return c.SendEach(ctx, msgs)
}

// SendMulticast is the former name of SendEachForMulticast.
func (c *Client) SendMulticast(ctx context.Context, msg *MulticastMessage) (*FCMBatchResponse, error) {
	return c.SendEachForMulticast(ctx, msg)
}

// SubscribeDevicesToTopic is the former name of SubscribeToTopic.
func (c *Client) SubscribeDevicesToTopic(ctx context.Context, tokens []string, topic string) (*TopicManagementResponse, error) {
	return c.SubscribeToTopic(ctx, tokens, topic)
}

// UnsubscribeDevicesFromTopic is the former name of UnsubscribeFromTopic.
func (c *Client) UnsubscribeDevicesFromTopic(ctx context.Context, tokens []string, topic string) (*TopicManagementResponse, error) {
	return c.UnsubscribeFromTopic(ctx, tokens, topic)
}

// BuildAndroidConfig is the former name of NewAndroidConfig.
func BuildAndroidConfig(opts ...AndroidOption) (*AndroidConfig, error) {
	return NewAndroidConfig(opts...)
}

// BuildAPNSConfig is the former name of NewAPNSConfig.
func BuildAPNSConfig(opts ...APNSOption) (*APNSConfig, error) {
	return NewAPNSConfig(opts...)
}

// BuildWebpushConfig is the former name of NewWebpushConfig.
func BuildWebpushConfig(opts ...WebpushOption) (*WebpushConfig, error) {
	return NewWebpushConfig(opts...)
}
