package config

import "os"

func developmentConfig() Config {
	return Config{
		Env:  EnvDevelopment,
		Port: 3000,
		Oracle: OracleConfig{
			ApiUrl: envOrDefault("ORACLE_API_URL", "https://openrouter.ai/api/v1/chat/completions"),
			ApiKey: os.Getenv("ORACLE_API_KEY"),
			Models: parseModels(os.Getenv("ORACLE_MODELS")),
		},
		HeadlessFallback: os.Getenv("HEADLESS_FALLBACK") == "1",
		MaxBrowserCount:  2,
	}
}

func envOrDefault(key string, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}
