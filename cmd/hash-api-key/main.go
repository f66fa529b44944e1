package main

import (
	"fmt"
	"os"

	"golang.org/x/crypto/bcrypt"
)

// Prints the bcrypt hash of an API key, for ADMIN_API_KEY_HASH /
// CUSTOMER_API_KEY_HASH configuration.
//
// Usage: go run ./cmd/hash-api-key <api-key>
func main() {
	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, "Usage: hash-api-key <api-key>")
		os.Exit(1)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(os.Args[1]), 10)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to hash key: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(string(hash))
}
