package main

import (
	"github.com/mashcatg/visa-cracked/internal/auth"
	"github.com/mashcatg/visa-cracked/internal/config"
	"github.com/mashcatg/visa-cracked/internal/database"
	"github.com/mashcatg/visa-cracked/internal/engine"
	"github.com/mashcatg/visa-cracked/internal/handlers"
	logger "github.com/mashcatg/visa-cracked/internal/logging"
	"github.com/mashcatg/visa-cracked/internal/models"
	"github.com/mashcatg/visa-cracked/internal/provider"
	"github.com/mashcatg/visa-cracked/internal/repository"
	"github.com/mashcatg/visa-cracked/internal/router"
	"github.com/mashcatg/visa-cracked/internal/services"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func main() {
	// Local development keys live in .env; absence is fine elsewhere.
	godotenv.Load()

	// Initialize Logger
	log, err := logger.Init(".")
	if err != nil {
		panic("failed to initialize logger: " + err.Error())
	}
	defer log.Sync()

	// Initialize Configuration
	if err := config.Init(".", log); err != nil {
		log.Fatal("Failed to load configuration", zap.Error(err))
	}

	// Initialize Database
	database.Init(log)

	// Load interview content (farewell phrases, difficulty prompts) at startup
	content, err := models.LoadInterviewContent("config/interview.yaml")
	if err != nil {
		log.Fatal("Failed to load interview content", zap.Error(err))
	}

	store := repository.Store{}
	calls := provider.New(config.Conf.Provider, log)
	analysisEngine := engine.New(config.Conf.Engine, log)

	results := services.NewResults(log, store, calls)
	analyzer := services.NewAnalyzer(log, store, analysisEngine, content, config.Conf.Pipeline.MinTranscriptLength)
	reports := services.NewReports(log, store)

	verifier := auth.NewJWTVerifier(config.Conf.Auth.JWTSecret, config.Conf.Auth.Issuer)

	interviewHandler := handlers.NewInterviewHandler(log, store, calls)
	resultsHandler := handlers.NewResultsHandler(log, results, analyzer)
	reportHandler := handlers.NewReportHandler(log, reports)

	r := router.Setup(log, verifier, interviewHandler, resultsHandler, reportHandler)

	port := ":" + config.Conf.Server.Port
	log.Info("Server listening on http://localhost" + port)
	if err := r.Run(port); err != nil {
		log.Fatal("Failed to run Gin server", zap.Error(err))
	}
}
