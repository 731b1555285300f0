package main

import (
	"fmt"
	"net/http"
	"os"

	"storelens/analysis"
	"storelens/config"
	"storelens/crawler"
	"storelens/llm"
	"storelens/log"
	slmiddleware "storelens/middleware"
	"storelens/routes"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/goccy/go-json"
	"github.com/spf13/cobra"
)

func main() {
	rootCmd := &cobra.Command{
		Use: "storelens",
		Run: func(_ *cobra.Command, _ []string) {
			runServer()
		},
	}

	analyzeCmd := &cobra.Command{
		Use:   "analyze <url>",
		Short: "Analyze one site and print events to stdout",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			runAnalyze(cmd, args[0])
		},
	}
	rootCmd.AddCommand(analyzeCmd)

	if err := rootCmd.Execute(); err != nil {
		panic(err)
	}
}

func newOrchestrator() *analysis.Orchestrator {
	var headless crawler.HeadlessClient
	if config.Cfg.HeadlessFallback {
		crawler.SetMaxBrowserCount(config.Cfg.MaxBrowserCount)
		headless = crawler.NewRodClient()
	}

	return &analysis.Orchestrator{ //nolint:exhaustruct
		HttpClient:  crawler.NewHttpClientImpl(),
		Headless:    headless,
		Client:      llm.NewApiClient(),
		Models:      llm.NewModelRing(config.Cfg.Oracle.Models),
		CollectMode: crawler.CollectParallel,
	}
}

func runServer() {
	orchestrator := newOrchestrator()
	analyzeHandler := &routes.AnalyzeHandler{Orchestrator: orchestrator}

	r := chi.NewRouter()
	r.Use(slmiddleware.Logger)
	r.Use(middleware.Compress(5))
	r.Use(slmiddleware.Recoverer)
	r.Use(slmiddleware.DefaultHeaders)

	r.Get("/health", routes.MiscHealth)
	r.Post("/api/analyze", analyzeHandler.Analyze)
	r.Post("/api/analyze/stream", analyzeHandler.Stream)

	addr := fmt.Sprintf(":%d", config.Cfg.Port)
	var logger log.BackgroundLogger
	logger.Info().Str("addr", addr).Msg("Started")
	if err := http.ListenAndServe(addr, r); err != nil {
		logger.Error().Err(err).Msg("Server stopped")
		panic(err)
	}
}

func runAnalyze(cmd *cobra.Command, websiteUrl string) {
	orchestrator := newOrchestrator()
	// Serial collection is kinder to the target when a human is watching
	// output scroll by anyway
	orchestrator.CollectMode = crawler.CollectSerial

	encoder := json.NewEncoder(os.Stdout)
	for event := range orchestrator.Run(cmd.Context(), websiteUrl) {
		if err := encoder.Encode(&event); err != nil {
			panic(err)
		}
	}
}
