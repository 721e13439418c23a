package main

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill-redisstream/pkg/redisstream"
	"github.com/redis/go-redis/v9"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"

	"github.com/veristamp/veristamp/adapters/events"
	"github.com/veristamp/veristamp/adapters/store"
	"github.com/veristamp/veristamp/adapters/tokenizer"
	"github.com/veristamp/veristamp/adapters/verifier"
	"github.com/veristamp/veristamp/policy"
	"github.com/veristamp/veristamp/service"
	"github.com/veristamp/veristamp/transport/http"
)

func main() {
	// Generate a new ECDSA key pair for token signing (you would normally
	// load this from somewhere secure)
	signKey, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		log.Fatalf("Failed to generate signing key: %v", err)
	}

	dsn := os.Getenv("MYSQL_DSN")
	if dsn == "" {
		log.Fatalf("MYSQL_DSN is not set")
	}
	db, err := gorm.Open(mysql.Open(dsn), &gorm.Config{TranslateError: true})
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}

	redisURL := envOr("REDIS_URL", "redis://localhost:6379/0")
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		log.Fatalf("Failed to parse Redis URL: %v", err)
	}
	redisClient := redis.NewClient(opts)

	logger := watermill.NewStdLogger(false, false)
	publisher, err := redisstream.NewPublisher(
		redisstream.PublisherConfig{Client: redisClient},
		logger,
	)
	if err != nil {
		log.Fatalf("Failed to create Redis publisher: %v", err)
	}

	chainID, err := strconv.Atoi(envOr("CHAIN_ID", "1"))
	if err != nil {
		log.Fatalf("Invalid CHAIN_ID: %v", err)
	}
	siweCfg := service.SiweConfig{
		Domain:  envOr("SIWE_DOMAIN", "veristamp.io"),
		URI:     envOr("SIWE_URI", "https://veristamp.io"),
		ChainID: chainID,
	}

	gormStore, err := store.NewGormStore(db)
	if err != nil {
		log.Fatalf("Failed to initialize store: %v", err)
	}
	redisStore := store.NewRedisStore(redisClient)
	eventPub := events.NewWatermillPublisher(publisher)

	guard := service.NewGuard(verifier.NewEthVerifier(), siweCfg)
	engine := policy.NewEngine(policy.DefaultConfig())

	sessions := service.NewSessionService(
		tokenizer.NewJWTTokenizer(signKey),
		redisStore, redisStore, guard, eventPub, siweCfg,
	)
	artifacts := service.NewArtifactService(
		gormStore, guard, engine, eventPub,
		envOr("PUBLIC_URL", "https://veristamp.io"),
	)
	proofs := service.NewProofService(gormStore, gormStore, guard, eventPub)

	router := http.SetupRouter(http.RouterConfig{
		Sessions:     sessions,
		Artifacts:    artifacts,
		Proofs:       proofs,
		AllowOrigins: strings.Split(envOr("ALLOW_ORIGINS", "http://localhost:3000"), ","),
	})

	addr := envOr("HTTP_ADDR", ":9000")
	if err := router.Run(addr); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
