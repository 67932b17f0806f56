// Package main is the entry point for the gRPC server
package main

import (
	"fmt"
	"log"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "rpg-rules-api",
	Short: "RPG Rules API gRPC Server",
	Long:  `RPG Rules API serves D&D 5e character choice resolution, resource counters, and hit point progression.`,
}

func main() {
	// .env is for local development; absence is fine
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.AddCommand(serverCmd)
	rootCmd.AddCommand(importCmd)
}
