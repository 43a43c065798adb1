// Command hashsecret prints the bcrypt hash to put in CRON_SECRET_HASH.
//
//	go run ./cmd/hashsecret <secret>
//	echo -n <secret> | go run ./cmd/hashsecret
package main

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"

	"resellerdash/pkg/utils"
)

func main() {
	secret, err := readSecret(os.Args[1:])
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	hash, err := utils.HashSecret(secret)
	if err != nil {
		fmt.Fprintln(os.Stderr, "hash secret:", err)
		os.Exit(1)
	}
	fmt.Println(hash)
}

func readSecret(args []string) (string, error) {
	if len(args) > 0 {
		return args[0], nil
	}
	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	line = strings.TrimRight(line, "\r\n")
	if line == "" {
		if err != nil {
			return "", fmt.Errorf("read secret: %w", err)
		}
		return "", errors.New("empty secret")
	}
	return line, nil
}
