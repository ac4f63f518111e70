package main // Entry point package

import (
	"context"
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"

	"github.com/potager/plant-catalog/internal/config"
	"github.com/potager/plant-catalog/internal/database"
	"github.com/potager/plant-catalog/internal/handler"
	"github.com/potager/plant-catalog/internal/media"
	appmw "github.com/potager/plant-catalog/internal/middleware"
	"github.com/potager/plant-catalog/internal/queue"
	"github.com/potager/plant-catalog/internal/repository"
	"github.com/potager/plant-catalog/internal/router"
	queue_publisher "github.com/potager/plant-catalog/internal/service"
)

func main() {
	// .env is a development convenience; in production the variables come
	// from the environment directly.
	if err := godotenv.Load(); err != nil {
		log.Printf("no .env file loaded: %v", err)
	}

	cfg := config.Load()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	migCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := database.Migrate(migCtx, db); err != nil {
		log.Fatalf("database: %v", err)
	}

	users := repository.NewUserRepo(db)
	sessions := repository.NewSessionRepo(db)
	plants := repository.NewPlantRepo(db)
	favorites := repository.NewFavoriteRepo(db)
	events := repository.NewEventRepo(db)

	var uploader handler.Uploader
	if cfg.MediaUploadURL != "" {
		uploader = media.NewClient(cfg.MediaUploadURL)
	} else {
		log.Printf("MEDIA_UPLOAD_URL not set; plant image uploads disabled")
	}
	publisher := queue_publisher.ActivityPublisher{}

	// Redis is optional: with no client the cache and the rate limiter
	// degrade to no-ops and the API keeps serving.
	rdb := config.NewRedisClient()
	if rdb == nil {
		log.Printf("redis unavailable; response cache and rate limiting disabled")
	}
	cacheCfg := config.LoadCacheConfig()
	ratelimit := appmw.NewTokenBucket(config.LoadRateLimitConfig(), rdb)
	cache := appmw.NewRedisCache(cacheCfg, rdb)
	var catalogPurge handler.CachePurger
	if p := appmw.NewCatalogPurge(cacheCfg, rdb); p != nil {
		catalogPurge = p
	}

	auth := handler.NewAuthHandler(cfg, users, sessions)
	userH := handler.NewUserHandler(cfg, users, sessions)
	catalog := handler.NewCatalogHandler(plants)
	plantAdmin := handler.NewPlantAdminHandler(plants, uploader, publisher, catalogPurge)
	favH := handler.NewFavoriteHandler(favorites, plants)
	evH := handler.NewEventHandler(events, plants, publisher)

	e := echo.New()
	router.RegisterHealth(e, db)
	router.RegisterPublic(e, auth, catalog, ratelimit, cache)
	router.RegisterUser(e, cfg.JWTSecret, sessions, users, auth, userH, favH, evH)
	router.RegisterAdmin(e, cfg.JWTSecret, sessions, users, userH, plantAdmin)

	// Background consumer for the activity queue; reconnects on its own.
	go func() {
		if err := queue.StartActivityConsumer(); err != nil {
			log.Printf("activity consumer stopped: %v", err)
		}
	}()

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env)

	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}
