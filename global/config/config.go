package config

import (
	"os"
	"time"

	mongoutil "Linkup/data/database/mgo/mongoutil"
	redisstore "Linkup/service/storage/redis"
	"Linkup/tools/decode"

	"gopkg.in/yaml.v3"
)

// PresenceConfig tunes the reconciliation loop.
type PresenceConfig struct {
	SweepEvery    time.Duration `mapstructure:"sweep_every"`    // default 5s
	InactiveAfter time.Duration `mapstructure:"inactive_after"` // default 2m
}

// FanoutConfig sizes the room router's worker pool.
type FanoutConfig struct {
	Workers int `mapstructure:"workers"`
	Queue   int `mapstructure:"queue"`
}

type AppConfig struct {
	Port            int               `mapstructure:"port"`
	JWTSecret       string            `mapstructure:"jwt_secret"`
	MaxConnsPerUser int               `mapstructure:"max_conns_per_user"` // <=0 unlimited
	Mongo           mongoutil.Config  `mapstructure:"mongo"`
	Redis           redisstore.Config `mapstructure:"redis"`
	Presence        PresenceConfig    `mapstructure:"presence"`
	Fanout          FanoutConfig      `mapstructure:"fanout"`
}

func Default() AppConfig {
	return AppConfig{
		Port:      8080,
		JWTSecret: "change-me",
		Mongo: mongoutil.Config{
			Uri:         "mongodb://localhost:27017",
			Database:    "linkup",
			MaxPoolSize: 20,
			MaxRetry:    3,
		},
		Redis: redisstore.Config{Addr: "127.0.0.1:6379"},
		Presence: PresenceConfig{
			SweepEvery:    5 * time.Second,
			InactiveAfter: 2 * time.Minute,
		},
		Fanout: FanoutConfig{Workers: 4, Queue: 1024},
	}
}

// Load reads the YAML file at path over the defaults. Empty path returns
// the defaults unchanged.
func Load(path string) (AppConfig, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	var m map[string]any
	if err := yaml.Unmarshal(raw, &m); err != nil {
		return cfg, err
	}
	loaded, err := decode.Map[AppConfig](m)
	if err != nil {
		return cfg, err
	}
	merge(&cfg, loaded)
	return cfg, nil
}

// merge overlays non-zero loaded values onto the defaults.
func merge(dst *AppConfig, src *AppConfig) {
	if src.Port != 0 {
		dst.Port = src.Port
	}
	if src.JWTSecret != "" {
		dst.JWTSecret = src.JWTSecret
	}
	if src.MaxConnsPerUser != 0 {
		dst.MaxConnsPerUser = src.MaxConnsPerUser
	}
	if src.Mongo.Uri != "" {
		dst.Mongo.Uri = src.Mongo.Uri
	}
	if src.Mongo.Database != "" {
		dst.Mongo.Database = src.Mongo.Database
	}
	if src.Mongo.Username != "" {
		dst.Mongo.Username = src.Mongo.Username
		dst.Mongo.Password = src.Mongo.Password
	}
	if src.Mongo.MaxPoolSize != 0 {
		dst.Mongo.MaxPoolSize = src.Mongo.MaxPoolSize
	}
	if src.Mongo.MaxRetry != 0 {
		dst.Mongo.MaxRetry = src.Mongo.MaxRetry
	}
	if src.Redis.Addr != "" {
		dst.Redis = src.Redis
	}
	if src.Presence.SweepEvery > 0 {
		dst.Presence.SweepEvery = src.Presence.SweepEvery
	}
	if src.Presence.InactiveAfter > 0 {
		dst.Presence.InactiveAfter = src.Presence.InactiveAfter
	}
	if src.Fanout.Workers > 0 {
		dst.Fanout.Workers = src.Fanout.Workers
	}
	if src.Fanout.Queue > 0 {
		dst.Fanout.Queue = src.Fanout.Queue
	}
}
