package logger

import (
	"context"

	"github.com/yusufsyaifudin/ylog"
)

// YLog forwards to the global ylog logger, for applications that already
// configured it with ylog.SetGlobalLogger.
type YLog struct{}

var _ Logger = YLog{}

func (YLog) Debug(ctx context.Context, msg string, fields ...KeyValue) {
	ylog.Debug(ctx, msg, toYLogKV(fields)...)
}

func (YLog) Info(ctx context.Context, msg string, fields ...KeyValue) {
	ylog.Info(ctx, msg, toYLogKV(fields)...)
}

func (YLog) Warn(ctx context.Context, msg string, fields ...KeyValue) {
	ylog.Warn(ctx, msg, toYLogKV(fields)...)
}

func (YLog) Error(ctx context.Context, msg string, fields ...KeyValue) {
	ylog.Error(ctx, msg, toYLogKV(fields)...)
}

func (YLog) Access(ctx context.Context, data AccessLogData) {
	ylog.Access(ctx, ylog.AccessLogData{
		Path: data.Path,
		Request: ylog.HTTPData{
			Header:     data.Request.Header,
			DataString: data.Request.DataString,
		},
		Response: ylog.HTTPData{
			Header:     data.Response.Header,
			DataString: data.Response.DataString,
		},
		Error:       data.Error,
		ElapsedTime: data.ElapsedTime,
	})
}

func toYLogKV(fields []KeyValue) []ylog.KeyValue {
	out := make([]ylog.KeyValue, 0, len(fields))
	for _, field := range fields {
		out = append(out, ylog.KV(field.Key, field.Value))
	}

	return out
}
