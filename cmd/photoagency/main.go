package main

import (
	"photo-agency/internal/adapters/cli"

	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load()
	cli.Execute()
}
