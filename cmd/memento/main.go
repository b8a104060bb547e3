package main

import (
	"log"

	"github.com/MrSnakeDoc/memento/internal/app"
)

func main() {
	if err := app.New().Run(); err != nil {
		log.Fatalf("❌ memento failed to start: %v", err)
	}
}
