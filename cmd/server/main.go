package main

import (
	"log"

	"comanda/internal/cache"
	"comanda/internal/config"
	"comanda/internal/database"
	"comanda/internal/server"
)

func main() {
	cfg := config.Load()
	database.Init(cfg)
	cache.Init(cfg.RedisAddr)

	app := server.New(cfg)

	log.Println("Server listening on port:", cfg.HTTPPort)
	if err := app.Listen(":" + cfg.HTTPPort); err != nil {
		log.Fatal(err)
	}
}
