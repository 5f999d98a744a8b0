package main

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"syscall"

	"golang.org/x/crypto/bcrypt"
	"golang.org/x/term"
)

// Minimum password length; matches what the API expects operators to use.
const minPasswordLength = 6

func main() {
	if len(os.Args) > 1 {
		printUsage()
		switch os.Args[1] {
		case "-h", "--help", "help":
			return
		}
		os.Exit(1)
	}

	password, err := promptPassword()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	hash, err := hashPassword(password)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: Failed to hash password: %v\n", err)
		os.Exit(1)
	}

	fmt.Println()
	fmt.Println("Set this as API_PASSWORD_HASH to enable API authentication:")
	fmt.Println()
	fmt.Println(hash)
}

// promptPassword reads the password twice without echo and validates it.
func promptPassword() ([]byte, error) {
	fmt.Print("Password: ")
	password, err := term.ReadPassword(syscall.Stdin)
	fmt.Println()
	if err != nil {
		return nil, fmt.Errorf("failed to read password: %w", err)
	}

	fmt.Print("Confirm Password: ")
	confirm, err := term.ReadPassword(syscall.Stdin)
	fmt.Println()
	if err != nil {
		return nil, fmt.Errorf("failed to read password: %w", err)
	}

	if err := validatePassword(password, confirm); err != nil {
		return nil, err
	}
	return password, nil
}

func validatePassword(password, confirm []byte) error {
	if !bytes.Equal(password, confirm) {
		return errors.New("passwords do not match")
	}
	if len(password) < minPasswordLength {
		return fmt.Errorf("password must be at least %d characters", minPasswordLength)
	}
	return nil
}

func hashPassword(password []byte) (string, error) {
	hash, err := bcrypt.GenerateFromPassword(password, bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

func printUsage() {
	fmt.Println("Photo Library API Password Hashing")
	fmt.Println("")
	fmt.Println("Usage: hashpw")
	fmt.Println("")
	fmt.Println("Prompts for a password twice and prints its bcrypt hash.")
	fmt.Println("Set the hash as API_PASSWORD_HASH on the server to require")
	fmt.Println("Authorization: Bearer <password> on the API routes.")
}
