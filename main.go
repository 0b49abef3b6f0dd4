package main

import (
	"fmt"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"
)

func main() {
	// Set properties of the predefined Logger: a fixed prefix, no file/line.
	log.SetPrefix("limbus-api: ")
	log.SetFlags(log.LstdFlags)

	// .env is optional in deployed environments where variables are injected.
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		fmt.Fprintf(os.Stderr, "Error loading .env: %v\n", err)
		os.Exit(1)
	}

	cfg, err := loadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Invalid configuration: %v\n", err)
		os.Exit(1)
	}

	pool := getDBPool(cfg.DBURL)
	defer pool.Close()

	var store keyedStore[riskFactorRecord]
	switch cfg.RiskStore {
	case "postgres":
		store = &pgRiskFactorStore{db: pool}
	default:
		store = newMemoryStore[riskFactorRecord]()
	}

	var events riskEventPublisher = logPublisher{}
	if cfg.AMQPURL != "" {
		p, err := newAMQPPublisher(cfg.AMQPURL, cfg.RiskEventsQueue)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Unable to connect to RabbitMQ: %v\n", err)
			os.Exit(1)
		}
		events = p
	}
	defer events.Close()

	h := &Handler{
		db:   pool,
		risk: newRiskFactorService(store, events, cfg.SubmitDelay, cfg.RequireSelection),
		now:  time.Now,
	}

	router := newRouter(cfg.AllowOrigins)
	h.registerRoutes(router)

	log.Printf("Starting gin app on :%s (risk store: %s)", cfg.Port, cfg.RiskStore)
	if err := router.Run(":" + cfg.Port); err != nil {
		log.Printf("server stopped: %v", err)
	}
}
