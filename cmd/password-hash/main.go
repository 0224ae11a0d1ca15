package main

import (
	"flag"
	"fmt"
	"log"
	"strings"

	"github.com/ivankudzin/loveconnect/backend/internal/services/credentials"
)

// Prints a bcrypt hash for seeding users by hand.
func main() {
	password := flag.String("password", "", "plain password")
	cost := flag.Int("cost", 10, "bcrypt cost")
	flag.Parse()

	if strings.TrimSpace(*password) == "" {
		log.Fatal("use -password to pass plain password")
	}

	hash, err := credentials.NewHasher(*cost).Hash(*password)
	if err != nil {
		log.Fatalf("hash password: %v", err)
	}
	fmt.Println(hash)
}
