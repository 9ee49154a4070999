// Package main provides admin management utilities for Yatube.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"

	"yatube/internal/cache"
	"yatube/internal/config"
	"yatube/internal/database"
	"yatube/internal/repository"
	"yatube/internal/service"

	"gorm.io/gorm"
)

func usage() {
	fmt.Println("Usage:")
	fmt.Println("  go run ./cmd/admin/main.go migrate                                        - Apply the schema")
	fmt.Println("  go run ./cmd/admin/main.go group-create --title T --slug S [--description D] - Create a group")
	fmt.Println("  go run ./cmd/admin/main.go list-groups                                    - List all groups")
	fmt.Println("  go run ./cmd/admin/main.go cache-clear                                    - Drop cached index pages")
}

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	ctx := context.Background()

	switch command := os.Args[1]; command {
	case "migrate":
		runMigrate(cfg)
	case "group-create":
		createGroup(ctx, connect(cfg), os.Args[2:])
	case "list-groups":
		listGroups(ctx, connect(cfg))
	case "cache-clear":
		clearCache(ctx, cfg)
	default:
		fmt.Printf("Unknown command: %s\n", command)
		usage()
		os.Exit(1)
	}
}

func connect(cfg *config.Config) *gorm.DB {
	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	return db
}

func runMigrate(cfg *config.Config) {
	db := connect(cfg)
	if err := database.Migrate(db); err != nil {
		log.Fatalf("Migration failed: %v", err)
	}
	fmt.Println("Schema is up to date")
}

func createGroup(ctx context.Context, db *gorm.DB, args []string) {
	fs := flag.NewFlagSet("group-create", flag.ExitOnError)
	title := fs.String("title", "", "Group title")
	slug := fs.String("slug", "", "URL slug")
	description := fs.String("description", "", "Group description")
	_ = fs.Parse(args)

	groups := service.NewGroupService(repository.NewGroupRepository(db))
	group, err := groups.CreateGroup(ctx, service.CreateGroupInput{
		Title:       *title,
		Slug:        *slug,
		Description: *description,
	})
	if err != nil {
		log.Fatalf("Failed to create group: %v", err)
	}
	fmt.Printf("Created group %d: %s (/group/%s/)\n", group.ID, group.Title, group.Slug)
}

func listGroups(ctx context.Context, db *gorm.DB) {
	groups, err := service.NewGroupService(repository.NewGroupRepository(db)).ListGroups(ctx)
	if err != nil {
		log.Fatalf("Failed to list groups: %v", err)
	}
	if len(groups) == 0 {
		fmt.Println("No groups found")
		return
	}
	for _, g := range groups {
		fmt.Printf("%d\t%s\t%s\n", g.ID, g.Slug, g.Title)
	}
}

func clearCache(ctx context.Context, cfg *config.Config) {
	if cfg.CacheBackend != "redis" {
		fmt.Println("Cache backend is in-process; entries expire on their own after", cfg.IndexCacheDuration())
		return
	}

	rdb, err := cache.ConnectRedis(ctx, cfg.RedisURL)
	if err != nil {
		log.Fatalf("Failed to connect to redis: %v", err)
	}
	defer rdb.Close()

	store, err := cache.NewStore(cfg.CacheBackend, rdb)
	if err != nil {
		log.Fatalf("Failed to open cache: %v", err)
	}
	if err := cache.NewFeedCache(store, cache.IndexPrefix).Clear(ctx); err != nil {
		log.Fatalf("Failed to clear cache: %v", err)
	}
	fmt.Println("Index cache cleared")
}
