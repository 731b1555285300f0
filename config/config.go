package config

import (
	"fmt"
	"os"
	"strings"
)

type Config struct {
	Env              Env
	Port             int
	Oracle           OracleConfig
	HeadlessFallback bool
	MaxBrowserCount  int
}

type Env int

const (
	EnvDevelopment Env = iota
	EnvTesting
	EnvProduction
)

func (e Env) IsDevOrTest() bool {
	return e == EnvDevelopment || e == EnvTesting
}

type OracleConfig struct {
	ApiUrl string
	ApiKey string
	// Model identifiers in fallback order, optionally namespaced as
	// provider/model the way OpenRouter does it.
	Models []string
}

const DefaultModel = "openai/gpt-4o-mini"

var Cfg Config

func init() {
	switch os.Getenv("STORELENS_ENV") {
	case "production":
		Cfg = productionConfig()
	case "testing":
		Cfg = testingConfig()
	default:
		Cfg = developmentConfig()
	}
}

func parseModels(commaSeparated string) []string {
	if commaSeparated == "" {
		return []string{DefaultModel}
	}

	var models []string
	for _, token := range strings.Split(commaSeparated, ",") {
		token = strings.TrimSpace(token)
		if token != "" {
			models = append(models, token)
		}
	}
	if len(models) == 0 {
		return []string{DefaultModel}
	}
	return models
}

func mustLookupEnv(key string) string {
	value, ok := os.LookupEnv(key)
	if !ok {
		panic(fmt.Errorf("%s environment variable not set", key))
	}
	return value
}
