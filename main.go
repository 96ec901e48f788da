package main

import (
	"log"

	"event-builder/cmd"
	_ "event-builder/migrations"
)

func main() {
	if err := cmd.Start(); err != nil {
		log.Fatal(err)
	}
}
