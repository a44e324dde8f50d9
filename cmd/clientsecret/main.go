// Command clientsecret prints the bcrypt hash of an API client secret for
// the auth.clients section of the config file.
package main

import (
	"fmt"
	"os"

	"rental-engine-backend/internal/security"
)

func main() {
	if len(os.Args) != 2 {
		fmt.Fprintln(os.Stderr, "usage: clientsecret <secret>")
		os.Exit(2)
	}
	hash, err := security.HashSecret(os.Args[1])
	if err != nil {
		fmt.Fprintf(os.Stderr, "hash secret: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(hash)
}
