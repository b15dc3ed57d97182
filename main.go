package main

import (
	"github.com/joho/godotenv"

	"github.com/pixel-beads/api/cli"
)

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	cli.Execute()
}
