//go:build ignore

// Prints an INSERT for a seed user: go run scripts/genhash.go user@example.com secret
package main

import (
	"fmt"
	"os"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

func main() {
	email, password := "admin@example.com", "admin"
	if len(os.Args) > 1 {
		email = os.Args[1]
	}
	if len(os.Args) > 2 {
		password = os.Args[2]
	}
	h, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		panic(err)
	}
	fmt.Printf("INSERT INTO users (email, password_hash) VALUES ('%s', '%s');\n",
		strings.ToLower(strings.TrimSpace(email)), h)
}
