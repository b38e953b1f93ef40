package main

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"
	"github.com/rs/cors"
	"github.com/rs/zerolog/log"

	"github.com/stena13/Final-project/config"
	"github.com/stena13/Final-project/database"
	"github.com/stena13/Final-project/handlers"
	"github.com/stena13/Final-project/logging"
	"github.com/stena13/Final-project/repository"
)

func main() {
	err := godotenv.Load()
	if err != nil {
		log.Info().Msgf("no .env file found or error loading: %v", err)
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}
	logging.Setup(cfg.LogLevel)

	gormDB, err := database.InitGormDB(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize GORM database")
	}
	if err := database.AutoMigrateModels(gormDB); err != nil {
		log.Fatal().Err(err).Msg("failed to migrate database schema")
	}

	db, err := database.InitDB(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize database pool")
	}
	defer db.Close()
	log.Info().Str("host", cfg.DBHost).Str("database", cfg.DBName).Msg("connected to the database")

	perevalRepo := repository.NewPerevalRepository(db)

	r := chi.NewRouter()

	corsOptions := cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PATCH", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}
	corsHandler := cors.New(corsOptions)

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(logging.RequestLogger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))
	r.Use(corsHandler.Handler)

	perevalHandler := &handlers.PerevalHandler{Repo: perevalRepo}
	healthHandler := &handlers.HealthHandler{DB: db}

	r.Get("/", handlers.APIInfo)
	r.Get("/health", healthHandler.CheckHealth)

	r.Route("/submitData", func(r chi.Router) {
		r.Post("/", perevalHandler.SubmitData)
		r.Get("/", perevalHandler.ListByEmail)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", perevalHandler.GetPereval)
			r.Patch("/", perevalHandler.UpdatePereval)
		})
	})

	serverAddr := ":" + cfg.Port
	log.Info().Str("addr", serverAddr).Msg("server starting")
	server := &http.Server{
		Addr:         serverAddr,
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}
	if err := server.ListenAndServe(); err != nil {
		log.Fatal().Err(err).Msg("server stopped")
	}
}
