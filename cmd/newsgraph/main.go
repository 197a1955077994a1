package main

import (
	"newsgraph/cmd/handlers"
	"newsgraph/internal/logger"
)

func main() {
	logger.Init() // Initialize the logger
	handlers.Execute()
}
