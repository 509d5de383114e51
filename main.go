package main

import (
	"log"

	"shop-app/auth-service/internal"
)

func main() {
	if err := internal.Run(); err != nil {
		log.Fatal(err)
	}
}
