package main

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"os"

	"github.com/spf13/pflag"
)

// Length of HS256 key
const defaultKeyBytes = 32

func main() {
	n := pflag.IntP("bytes", "b", defaultKeyBytes, "Secret key length in bytes")
	pflag.Parse()

	if *n < defaultKeyBytes {
		fmt.Fprintf(os.Stderr, "secret key shorter than %d bytes is too weak for SECRET_KEY\n", defaultKeyBytes)
		os.Exit(1)
	}

	b := make([]byte, *n)

	_, err := rand.Read(b)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error while generating secret key: %v\n", err)
		os.Exit(1)
	}

	fmt.Println(hex.EncodeToString(b))
}
