// Command seal encrypts a provider credential with SECRET_KEY so it can be
// stored in the environment in place of the plain value.
//
//	SECRET_KEY=... seal <value>
//	echo -n <value> | SECRET_KEY=... seal
package main

import (
	"bufio"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"waphone/internal/config"
	"waphone/internal/logging"
	"waphone/internal/secrets"
)

func main() {
	logging.Init("seal", "text", "warn")
	cfg := config.LoadSeal()

	out, err := run(cfg.SecretKey, os.Args[1:], os.Stdin)
	if err != nil {
		slog.Error("seal failed", "err", err)
		os.Exit(1)
	}
	fmt.Println(out)
}

func run(key string, args []string, stdin io.Reader) (string, error) {
	box, err := secrets.NewBox(key)
	if err != nil {
		return "", err
	}
	value, err := readValue(args, stdin)
	if err != nil {
		return "", err
	}
	return box.Encrypt(value)
}

func readValue(args []string, stdin io.Reader) (string, error) {
	if len(args) > 0 {
		return args[0], nil
	}
	b, err := io.ReadAll(bufio.NewReader(stdin))
	if err != nil {
		return "", fmt.Errorf("read stdin: %w", err)
	}
	v := strings.TrimRight(string(b), "\r\n")
	if v == "" {
		return "", fmt.Errorf("no value given")
	}
	return v, nil
}
