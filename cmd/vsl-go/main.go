package main

import (
	"fmt"
	"log"
	"os"

	"github.com/AtRiskMedia/vsl-go/internal/application/startup"
	"github.com/AtRiskMedia/vsl-go/internal/infrastructure/security"
)

func main() {
	// vsl-go hash-password <password> prints a value for ADMIN_PASSWORD_HASH
	if len(os.Args) == 3 && os.Args[1] == "hash-password" {
		hash, err := security.HashPassword(os.Args[2])
		if err != nil {
			log.Fatalf("Failed to hash password: %v", err)
		}
		fmt.Println(hash)
		return
	}

	if err := startup.Initialize(); err != nil {
		log.Fatalf("Application startup failed: %v", err)
	}

	log.Println("Application has shut down gracefully.")
}
