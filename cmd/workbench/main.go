package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"github.com/hitoshi/workbench/internal/app"
)

func main() {
	// .envはローカル開発用。存在しなくてもよい。
	_ = godotenv.Load()

	if err := app.Run(os.Stderr, os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "workbench: %v\n", err)
		os.Exit(1)
	}
}
