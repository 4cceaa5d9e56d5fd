package main

import (
	"log"

	"vnmarket-stream/app"
	"vnmarket-stream/config"
)

func main() {
	cfg := config.LoadFromEnv()

	application := app.New(cfg)
	if err := application.Start(); err != nil {
		log.Fatal(err)
	}
}
