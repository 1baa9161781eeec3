package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env/v2"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
	log "github.com/sirupsen/logrus"
)

// MaxMinorUnits is the scale of the money columns in the database.
const MaxMinorUnits = 2

var ErrInvalidConfig = errors.New("invalid configuration")

type Application struct {
	Host     string   `koanf:"host"`
	Server   Server   `koanf:"server"`
	Database Database `koanf:"db"`
	Currency Currency `koanf:"currency"`
}

type Server struct {
	Addr string `koanf:"addr"`

	// RequestsPerMinute caps requests per client IP. Zero disables the limit.
	RequestsPerMinute int `koanf:"requestsperminute"`
}

type Database struct {
	Host   string `koanf:"host"`
	Port   int    `koanf:"port"`
	User   string `koanf:"user"`
	Pass   string `koanf:"pass"`
	Name   string `koanf:"name"`
	Schema string `koanf:"schema"`

	// MaxConns and MinConns size the pgx pool. Zero keeps the pgx defaults.
	MaxConns int32 `koanf:"maxconns"`
	MinConns int32 `koanf:"minconns"`
}

// Currency controls money rounding. MinorUnits is the number of decimal places (2 for INR),
// the reconciliation tolerance is two minor units.
type Currency struct {
	Code       string `koanf:"code"`
	MinorUnits int32  `koanf:"minorunits"`
}

func defaults() Application {
	return Application{
		Host: "http://localhost:3000",
		Server: Server{
			Addr:              ":8181",
			RequestsPerMinute: 300,
		},
		Database: Database{
			Host:     "localhost",
			Port:     5432,
			User:     "sitebook",
			Pass:     "",
			Name:     "sitebook",
			Schema:   "sitebook",
			MaxConns: 10,
			MinConns: 2,
		},
		Currency: Currency{
			Code:       "INR",
			MinorUnits: 2,
		},
	}
}

func Load(path string) (Application, error) {
	var k = koanf.New(".")

	err := k.Load(structs.Provider(defaults(), "koanf"), nil)
	if err != nil {
		log.Errorf("error loading config from structs: %v", err)
		return Application{}, err
	}

	if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
		if os.IsNotExist(err) {
			log.Infof("Config file not found at %s, using defaults and environment variables", path)
		} else {
			log.Errorf("error loading config from YAML: %v", err)
			return Application{}, err
		}
	} else {
		log.Infof("Loaded configuration from file: %s", path)
	}

	err = k.Load(env.Provider(".", env.Opt{
		Prefix: "SITEBOOK_",
		TransformFunc: func(k, v string) (string, any) {
			k = strings.ReplaceAll(strings.ToLower(strings.TrimPrefix(k, "SITEBOOK_")), "_", ".")
			return k, v
		},
	}), nil)
	if err != nil {
		log.Errorf("error loading config from envs: %v", err)
		return Application{}, err
	}

	var app Application
	if err := k.Unmarshal("", &app); err != nil {
		return Application{}, err
	}
	if app.Currency.MinorUnits < 0 || app.Currency.MinorUnits > MaxMinorUnits {
		return Application{}, fmt.Errorf("%w: currency.minorunits must be between 0 and %d, got %d",
			ErrInvalidConfig, MaxMinorUnits, app.Currency.MinorUnits)
	}

	return app, nil
}
