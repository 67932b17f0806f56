package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"

	"github.com/spf13/cobra"

	"github.com/KirkDiggler/rpg-rules-api/internal/config"
	catalogrepo "github.com/KirkDiggler/rpg-rules-api/internal/repositories/catalog"
	redisclient "github.com/KirkDiggler/rpg-rules-api/internal/redis"
	"github.com/KirkDiggler/rpg-rules-api/internal/types/choices"
)

var importFile string

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Import rules content into the catalog",
	Long:  `Import choice groups and resource grants from a JSON content file. Re-importing upserts under the same identity.`,
	RunE:  runImport,
}

func init() {
	importCmd.Flags().StringVarP(&importFile, "file", "f", "", "content file to import (required)")
	_ = importCmd.MarkFlagRequired("file")
}

// contentFile is the on-disk import format
type contentFile struct {
	Groups []*choices.Group             `json:"groups"`
	Grants []*catalogrepo.ResourceGrant `json:"grants"`
}

func runImport(cmd *cobra.Command, args []string) error {
	data, err := os.ReadFile(importFile)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", importFile, err)
	}

	var content contentFile
	if err := json.Unmarshal(data, &content); err != nil {
		return fmt.Errorf("failed to parse %s: %w", importFile, err)
	}
	if len(content.Groups) == 0 && len(content.Grants) == 0 {
		return fmt.Errorf("%s contains no groups or grants", importFile)
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	redis, err := redisclient.NewClient(cfg.Redis.Addr, nil)
	if err != nil {
		return fmt.Errorf("failed to create redis client: %w", err)
	}
	defer func() {
		if err := redis.Close(); err != nil {
			log.Printf("Error closing redis client: %v", err)
		}
	}()

	repo, err := catalogrepo.NewRedis(&catalogrepo.RedisConfig{Client: redis})
	if err != nil {
		return fmt.Errorf("failed to create catalog repository: %w", err)
	}

	ctx := context.Background()

	if len(content.Groups) > 0 {
		output, err := repo.PutGroups(ctx, catalogrepo.PutGroupsInput{Groups: content.Groups})
		if err != nil {
			return fmt.Errorf("failed to import groups: %w", err)
		}
		log.Printf("Imported %d choice groups", output.Count)
	}

	if len(content.Grants) > 0 {
		output, err := repo.PutResourceGrants(ctx, catalogrepo.PutResourceGrantsInput{Grants: content.Grants})
		if err != nil {
			return fmt.Errorf("failed to import grants: %w", err)
		}
		log.Printf("Imported %d resource grants", output.Count)
	}

	return nil
}
