package main

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

type appConfig struct {
	Server       string
	SessionFile  string
	Password     string
	LoginDelay   time.Duration
	WriteTimeout time.Duration
	LogLevel     string
}

func defaultSessionFile() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		dir = "."
	}
	return filepath.Join(dir, "finsheets", "session.json")
}

// registerFlags declares every setting as a persistent flag so viper can
// layer flag > FINSHEETS_* env > config file > default.
func registerFlags(fs *pflag.FlagSet) {
	fs.String("server", "http://localhost:8081", "finsheets server URL")
	fs.String("session-file", defaultSessionFile(), "where the login is remembered")
	fs.String("password", "160802", "access password the login is checked against")
	fs.Duration("login-delay", time.Second, "pause before a login attempt is answered")
	fs.Duration("write-timeout", 10*time.Second, "timeout of each server call")
	fs.String("log-level", "warn", "debug, info, warn or error")
}

func loadConfig(fs *pflag.FlagSet) (appConfig, error) {
	v := viper.New()
	v.SetEnvPrefix("FINSHEETS")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if err := v.BindPFlags(fs); err != nil {
		return appConfig{}, err
	}

	if dir, err := os.UserConfigDir(); err == nil {
		v.AddConfigPath(filepath.Join(dir, "finsheets"))
	}
	v.SetConfigName("config")
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return appConfig{}, err
		}
	}

	cfg := appConfig{
		Server:       v.GetString("server"),
		SessionFile:  v.GetString("session-file"),
		Password:     v.GetString("password"),
		LoginDelay:   v.GetDuration("login-delay"),
		WriteTimeout: v.GetDuration("write-timeout"),
		LogLevel:     v.GetString("log-level"),
	}
	if cfg.Server == "" {
		return appConfig{}, errors.New("server URL must not be empty")
	}
	return cfg, nil
}
