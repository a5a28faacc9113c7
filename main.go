package main

import (
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"
	"github.com/rs/cors"

	"github.com/kinship-app/kinshipbackend/config"
	"github.com/kinship-app/kinshipbackend/database"
	"github.com/kinship-app/kinshipbackend/graph"
	"github.com/kinship-app/kinshipbackend/handlers"
	"github.com/kinship-app/kinshipbackend/realtime"
	"github.com/kinship-app/kinshipbackend/repository"
	"github.com/kinship-app/kinshipbackend/workers"
)

func main() {
	err := godotenv.Load()
	if err != nil {
		log.Printf("Info: No .env file found or error loading: %v", err)
	}
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("FATAL: Failed to load configuration: %v", err)
	}

	db, err := database.InitGormDB(cfg.DatabasePath)
	if err != nil {
		log.Fatalf("FATAL: Failed to initialize database: %v", err)
	}
	if err := database.AutoMigrateModels(db); err != nil {
		log.Fatalf("FATAL: Failed to migrate database: %v", err)
	}

	personStore := repository.NewPersonStore(db)
	personStore.MaxRetries = cfg.TxMaxRetries
	accountRepo := repository.NewGormAccountRepository(db)
	inviteRepo := repository.NewGormClaimInviteRepository(db)

	engine := graph.NewEngine(personStore)
	engine.MaxDistance = cfg.MaxDistance
	engine.SiblingDescentCutoff = cfg.SiblingDescentCutoff

	hub := realtime.NewHub()
	go hub.Run()

	sweeper := workers.NewInviteSweeper(inviteRepo, cfg.InviteSweepInterval)
	sweeper.Start()
	defer sweeper.Stop()

	log.Printf("Using database: %s", cfg.DatabasePath)
	log.Printf("Tree window: max distance %d, sibling descent cutoff %d", cfg.MaxDistance, cfg.SiblingDescentCutoff)

	r := chi.NewRouter()

	corsOptions := cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}
	corsHandler := cors.New(corsOptions)

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))
	r.Use(corsHandler.Handler)

	authHandler := handlers.NewAuthHandler(accountRepo, []byte(cfg.JWTSecret), cfg.JWTExpiration)
	personHandler := &handlers.PersonHandler{
		Engine:     engine,
		Store:      personStore,
		InviteRepo: inviteRepo,
		Hub:        hub,
		InviteTTL:  cfg.InviteTTL,
	}
	claimHandler := &handlers.ClaimHandler{
		Engine:     engine,
		Store:      personStore,
		InviteRepo: inviteRepo,
		Hub:        hub,
		InviteTTL:  cfg.InviteTTL,
	}

	requireAuth := handlers.AuthMiddleware(accountRepo, []byte(cfg.JWTSecret))

	r.Route("/api", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.Post("/register", authHandler.Register)
			r.Post("/login", authHandler.Login)
		})

		r.Get("/stats", personHandler.Stats)

		r.Route("/people", func(r chi.Router) {
			r.Get("/", personHandler.ListRoots)
			r.Get("/search", personHandler.Search)
			r.With(requireAuth).Post("/", personHandler.CreateRoot)

			r.Route("/{person_id}", func(r chi.Router) {
				r.Get("/", personHandler.GetPerson)
				r.Get("/tree", personHandler.GetTree)
				r.With(requireAuth).Put("/profile", personHandler.UpdateProfile)
				r.With(requireAuth).Post("/connections", personHandler.AddConnection)
				r.With(requireAuth).Delete("/", personHandler.DeletePerson)
				r.With(requireAuth).Post("/invites", claimHandler.CreateInvite)
				r.With(requireAuth).Get("/invites", claimHandler.ListInvites)
			})
		})

		r.Route("/invites/{code}", func(r chi.Router) {
			r.Get("/", claimHandler.GetInvite)
			r.With(requireAuth).Post("/claim", claimHandler.Claim)
		})
	})

	r.Get("/ws", hub.ServeWS)

	serverAddr := ":" + cfg.Port
	log.Printf("Server listening on %s", serverAddr)
	server := &http.Server{
		Addr:         serverAddr,
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}
	log.Fatal(server.ListenAndServe())
}
