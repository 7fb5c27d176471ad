// Command admin manages administrator accounts from the command line.
package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"vidtube/internal/bootstrap"
	"vidtube/internal/config"
	"vidtube/internal/models"
	"vidtube/internal/repository"
)

func usage() {
	fmt.Println("Usage:")
	fmt.Println("  go run ./cmd/admin promote <username>   - Promote user to admin")
	fmt.Println("  go run ./cmd/admin demote <username>    - Demote user from admin")
	fmt.Println("  go run ./cmd/admin list-admins          - List all admins")
	os.Exit(1)
}

func main() {
	if len(os.Args) < 2 {
		usage()
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	db, rdb, err := bootstrap.InitRuntime(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize runtime: %v", err)
	}
	users := repository.NewUserRepository(db, rdb)
	ctx := context.Background()

	switch command := os.Args[1]; command {
	case "promote", "demote":
		if len(os.Args) < 3 {
			usage()
		}
		setAdmin(ctx, users, os.Args[2], command == "promote")
	case "list-admins":
		listAdmins(ctx, users)
	default:
		fmt.Printf("Unknown command: %s\n", command)
		os.Exit(1)
	}
}

func setAdmin(ctx context.Context, users repository.UserRepository, username string, isAdmin bool) {
	user, err := users.SetAdmin(ctx, username, isAdmin)
	if err != nil {
		if models.IsCode(err, models.CodeNotFound) {
			fmt.Printf("User %s not found\n", username)
			os.Exit(1)
		}
		log.Fatalf("Failed to update user: %v", err)
	}

	if isAdmin {
		fmt.Printf("Promoted %s (ID: %d) to admin\n", user.Username, user.ID)
	} else {
		fmt.Printf("Demoted %s (ID: %d) from admin\n", user.Username, user.ID)
	}
}

func listAdmins(ctx context.Context, users repository.UserRepository) {
	admins, err := users.ListAdmins(ctx)
	if err != nil {
		log.Fatalf("Failed to fetch admins: %v", err)
	}

	if len(admins) == 0 {
		fmt.Println("No admins found in the system")
		return
	}

	fmt.Printf("Admins (%d):\n", len(admins))
	for _, admin := range admins {
		fmt.Printf("  - %s (ID: %d, Email: %s)\n", admin.Username, admin.ID, admin.Email)
	}
}
