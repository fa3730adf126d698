package config

import (
	"os"
	"path/filepath"
)

func Defaults() *Config {
	return &Config{
		General: GeneralConfig{
			LogLevel:  "info",
			LogFormat: "console",
		},
		Responder: ResponderConfig{
			DefaultTitle: "Simple Response",
			Fallback: ReplyConfig{
				Title: "Simple Response",
				Body:  "Sorry, I don't know how to answer that.",
			},
		},
		Host: HostConfig{
			WorkDir:        filepath.Join(os.TempDir(), "kudubot-exchange"),
			TimeoutSeconds: 30,
		},
	}
}
