//go:build !js && !wasm
// +build !js,!wasm

package main

import (
	"fmt"

	"github.com/joho/godotenv"
)

func main() {
	// A missing .env is fine.
	_ = godotenv.Load()

	printBanner()
	Execute()
}

func printBanner() {
	banner := `
  ____                    _____
 / ___|  ___  _ __   __ _|_   _|_ _  __ _
 \___ \ / _ \| '_ \ / _' | | |/ _' |/ _' |
  ___) | (_) | | | | (_| | | | (_| | (_| |
 |____/ \___/|_| |_|\__, | |_|\__,_|\__, |
                    |___/           |___/
         Song recognition from the command line
`
	fmt.Fprintln(stderr, banner)
}
