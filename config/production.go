package config

import (
	"os"
	"strconv"
)

func productionConfig() Config {
	port, err := strconv.Atoi(mustLookupEnv("PORT"))
	if err != nil {
		panic(err)
	}

	return Config{
		Env:  EnvProduction,
		Port: port,
		Oracle: OracleConfig{
			ApiUrl: mustLookupEnv("ORACLE_API_URL"),
			ApiKey: mustLookupEnv("ORACLE_API_KEY"),
			Models: parseModels(os.Getenv("ORACLE_MODELS")),
		},
		HeadlessFallback: os.Getenv("HEADLESS_FALLBACK") == "1",
		MaxBrowserCount:  2,
	}
}
