package logger_test

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/yusufsyaifudin/fcmv1/pkg/logger"
	"github.com/yusufsyaifudin/ylog"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestZap(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	log := logger.NewZap(zap.New(core))

	ctx := logger.Inject(context.Background(), logger.Tracer{RequestID: "req-1", BatchID: "batch-1"})
	log.Debug(ctx, "debug")
	log.Info(ctx, "info", logger.KV("key", "value"))
	log.Warn(context.Background(), "warn", logger.KV("error", errors.New("boom")))
	log.Error(ctx, "error")

	entries := logs.All()
	assert.Len(t, entries, 4)

	assert.Equal(t, zapcore.DebugLevel, entries[0].Level)
	assert.Equal(t, logger.Tracer{RequestID: "req-1", BatchID: "batch-1"}, entries[0].ContextMap()["tracer"])

	assert.Equal(t, "value", entries[1].ContextMap()["key"])

	assert.Equal(t, zapcore.WarnLevel, entries[2].Level)
	assert.Equal(t, "boom", entries[2].ContextMap()["error"])
	_, hasTracer := entries[2].ContextMap()["tracer"]
	assert.False(t, hasTracer)

	assert.Equal(t, zapcore.ErrorLevel, entries[3].Level)
}

func TestZap_Access(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	log := logger.NewZap(zap.New(core))

	data := logger.AccessLogData{
		Path:     "https://fcm.googleapis.com/v1/projects/p/messages:send",
		Request:  logger.HTTPData{Header: map[string]string{"Authorization": "[REDACTED]"}, DataString: `{"message":{}}`},
		Response: logger.HTTPData{DataString: `{"name":"projects/p/messages/1"}`},
	}
	log.Access(context.Background(), data)

	entries := logs.All()
	assert.Len(t, entries, 1)
	assert.Equal(t, logger.TypeAccessLog, entries[0].Message)
	assert.Equal(t, logger.TypeAccessLog, entries[0].ContextMap()["tag"])
	assert.Equal(t, data, entries[0].ContextMap()["data"])
}

func TestNoop(t *testing.T) {
	assert.NotPanics(t, func() {
		var log logger.Logger = logger.Noop{}
		log.Info(context.Background(), "discarded")
		log.Access(context.Background(), logger.AccessLogData{Path: "/"})
	})
}

func TestYLog(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	ylog.SetGlobalLogger(ylog.NewZap(zap.New(core)))
	t.Cleanup(func() {
		ylog.SetGlobalLogger(nil)
	})

	var log logger.Logger = logger.YLog{}
	log.Warn(context.Background(), "warn", logger.KV("key", "value"))
	log.Access(context.Background(), logger.AccessLogData{Path: "/v1/projects/p/messages:send", ElapsedTime: 12})

	entries := logs.All()
	assert.Len(t, entries, 2)

	assert.Equal(t, zapcore.WarnLevel, entries[0].Level)
	assert.Equal(t, "value", entries[0].ContextMap()["key"])

	accessData, ok := entries[1].ContextMap()["data"].(ylog.AccessLogData)
	assert.True(t, ok)
	assert.Equal(t, "/v1/projects/p/messages:send", accessData.Path)
	assert.EqualValues(t, 12, accessData.ElapsedTime)
}

func TestNewZap_Nil(t *testing.T) {
	log := logger.NewZap(nil)
	assert.NotPanics(t, func() {
		log.Info(context.Background(), "discarded")
	})
}

func TestExtract(t *testing.T) {
	_, ok := logger.Extract(context.Background())
	assert.False(t, ok)
	assert.Equal(t, logger.Tracer{}, logger.MustExtract(context.Background()))
}

func BenchmarkNewZap(b *testing.B) {
	core := zapcore.NewCore(
		zapcore.NewJSONEncoder(zapcore.EncoderConfig{
			TimeKey:        "ts",
			MessageKey:     "msg",
			EncodeDuration: zapcore.MillisDurationEncoder,
			EncodeTime:     zapcore.RFC3339NanoTimeEncoder,
			LineEnding:     zapcore.DefaultLineEnding,
			LevelKey:       "level",
			EncodeLevel:    zapcore.LowercaseLevelEncoder,
		}),
		zapcore.NewMultiWriteSyncer(zapcore.AddSync(io.Discard)), // pipe to multiple writer
		zapcore.DebugLevel,
	)
	zapLogger := zap.New(core)
	uniLogger := logger.NewZap(zapLogger)

	ctx := logger.Inject(context.Background(), logger.Tracer{RequestID: "test"})
	for i := 0; i < b.N; i++ {
		uniLogger.Error(ctx, "message")
	}
}
