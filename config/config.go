package config

import (
	"github.com/yusufsyaifudin/fcmv1/pkg/fcm"
)

// Log configures the zap logger built by Setup.
type Log struct {
	Level string `yaml:"level" validate:"omitempty,oneof=debug info warn error"`
}

// Config contains application config
type Config struct {
	FCM fcm.Config `yaml:"fcm"`
	Log Log        `yaml:"log"`
}
