package main

import (
	"flag"

	"buscapet/backend/config"
	"buscapet/backend/server"

	"github.com/apex/log"
	"github.com/joho/godotenv"
)

func main() {
	flag.Parse()
	if err := godotenv.Load(); err != nil {
		log.Infof("No .env file, using process environment: %v", err)
	}
	server.StartService(config.Load())
}
