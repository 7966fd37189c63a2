package config

import (
	"bytes"
	"fmt"
	"io"
	"os"

	"github.com/yusufsyaifudin/fcmv1/pkg/fcmerr"
	"github.com/yusufsyaifudin/fcmv1/pkg/validator"
	"github.com/yusufsyaifudin/ylog"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"
)

// Load reads and validates the YAML config file.
func Load(configFile string) (*Config, error) {
	fileContent, err := os.ReadFile(configFile)
	if err != nil {
		return nil, fmt.Errorf("error read file config %s: %w", configFile, err)
	}

	return Parse(fileContent)
}

// Parse is Load for config already in memory. Unknown keys are ignored.
func Parse(content []byte) (*Config, error) {
	cfg := &Config{}
	dec := yaml.NewDecoder(bytes.NewReader(content))
	if err := dec.Decode(cfg); err != nil && err != io.EOF {
		return nil, fmt.Errorf("error decode config: %w", err)
	}

	if err := validator.Validate(cfg); err != nil {
		return nil, fcmerr.Wrap(fcmerr.CodeInvalidArgument, err, "invalid config: %s", validator.Message(err))
	}

	return cfg, nil
}

// NewZapLogger writes JSON lines to w at the level, info when level is empty.
func NewZapLogger(level string, w io.Writer) (*zap.Logger, error) {
	lvl := zapcore.InfoLevel
	if level != "" {
		if err := lvl.UnmarshalText([]byte(level)); err != nil {
			return nil, fmt.Errorf("error parse log level %q: %w", level, err)
		}
	}

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
		zapcore.AddSync(w),
		lvl,
	)

	return zap.New(core), nil
}

// Setup loads the config file and prepares the logger writing to stdout.
// The logger also becomes the global ylog logger, which logger.YLog forwards to.
func Setup(configFile string) (*Config, *zap.Logger, error) {
	cfg, err := Load(configFile)
	if err != nil {
		return nil, nil, err
	}

	zapLog, err := NewZapLogger(cfg.Log.Level, os.Stdout)
	if err != nil {
		return nil, nil, err
	}

	ylog.SetGlobalLogger(ylog.NewZap(zapLog))
	return cfg, zapLog, nil
}
