package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

func main() {
	root := &cobra.Command{
		Use:           "stocklens",
		Short:         "Inventory movement ingestion and analytics",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newRunCommand())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "stocklens:", err)
		os.Exit(1)
	}
}

func init() {
	// Missing .env is fine; everything has defaults or comes from the
	// real environment.
	_ = godotenv.Load()
}
