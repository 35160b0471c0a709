package main

import (
	"github.com/joho/godotenv"

	"github.com/jcchakradhar/homenest/startup"
	"github.com/jcchakradhar/homenest/startup/config"
)

func main() {
	_ = godotenv.Load()

	cfg := config.NewConfig()
	server := startup.NewServer(cfg)
	server.Start()
}
