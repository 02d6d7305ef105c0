package main

import (
	"log"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"

	"github.com/airops/auth-service/internal/config"
	"github.com/airops/auth-service/internal/database"
	"github.com/airops/auth-service/internal/handler"
	"github.com/airops/auth-service/internal/queue"
	"github.com/airops/auth-service/internal/repository"
	"github.com/airops/auth-service/internal/router"
	"github.com/airops/auth-service/internal/token"
)

func main() {
	_ = godotenv.Load() // .env is optional; real deployments set the environment directly

	cfg := config.Load()

	db, err := database.Open(cfg)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	tokens, err := token.NewManager(cfg.AccessSecret, cfg.RefreshSecret)
	if err != nil {
		log.Fatalf("token manager: %v", err)
	}

	users := repository.NewUserRepo(db)
	clients := repository.NewClientRepo(db)

	rdb := config.NewRedisClient()
	if rdb == nil {
		log.Printf("redis unavailable; rate limiting and response cache disabled")
	}

	go func() {
		if err := queue.StartAuthEventConsumer(); err != nil {
			log.Printf("auth event consumer stopped: %v", err)
		}
	}()

	e := echo.New()
	e.HideBanner = true

	authHandler := handler.NewAuthHandler(cfg, tokens, users, clients)
	userHandler := handler.NewUserHandler(users)
	router.Register(e, authHandler, userHandler, users, tokens, rdb)

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env)
	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}
