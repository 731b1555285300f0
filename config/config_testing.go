package config

func testingConfig() Config {
	devCfg := developmentConfig()
	return Config{
		Env:  EnvTesting,
		Port: devCfg.Port,
		Oracle: OracleConfig{
			ApiUrl: "http://localhost:0/unreachable",
			ApiKey: "test-key",
			Models: []string{DefaultModel},
		},
		HeadlessFallback: false,
		MaxBrowserCount:  devCfg.MaxBrowserCount,
	}
}
