package main

import (
	"bufio"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/penshort/adminboard/internal/auth"
)

type output struct {
	Hash string `json:"hash"`
	Env  string `json:"env"`
}

func main() {
	var (
		password = flag.String("password", "", "Password to hash; read from stdin when empty")
		verify   = flag.String("verify", os.Getenv("ADMIN_PASSWORD_HASH"), "Check the password against this hash instead of hashing it")
		format   = flag.String("format", "plain", "Output format: plain, env or json")
	)
	flag.Parse()

	plaintext := *password
	if plaintext == "" {
		line, err := bufio.NewReader(os.Stdin).ReadString('\n')
		if err != nil && line == "" {
			fmt.Fprintln(os.Stderr, "read password:", err)
			os.Exit(1)
		}
		plaintext = strings.TrimRight(line, "\r\n")
	}
	if plaintext == "" {
		fmt.Fprintln(os.Stderr, "password is required")
		os.Exit(1)
	}

	if *verify != "" {
		hash, err := auth.ParsePasswordHash(*verify)
		if err != nil {
			fmt.Fprintln(os.Stderr, "parse hash:", err)
			os.Exit(1)
		}
		ok, err := hash.Verify(plaintext)
		if err != nil {
			fmt.Fprintln(os.Stderr, "verify:", err)
			os.Exit(1)
		}
		if !ok {
			fmt.Println("mismatch")
			os.Exit(2)
		}
		fmt.Println("match")
		return
	}

	hash, err := auth.HashPassword(plaintext)
	if err != nil {
		fmt.Fprintln(os.Stderr, "hash password:", err)
		os.Exit(1)
	}

	out := output{Hash: hash, Env: "ADMIN_PASSWORD_HASH='" + hash + "'"}

	switch strings.ToLower(*format) {
	case "plain":
		fmt.Println(out.Hash)
	case "env":
		fmt.Println(out.Env)
	case "json":
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		_ = enc.Encode(out)
	default:
		fmt.Fprintln(os.Stderr, "invalid format; use plain, env or json")
		os.Exit(1)
	}
}
