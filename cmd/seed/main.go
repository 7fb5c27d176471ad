// Command seed fills the database with demo data.
package main

import (
	"flag"
	"log"

	"vidtube/internal/config"
	"vidtube/internal/database"
	"vidtube/internal/seed"
)

func main() {
	numUsers := flag.Int("users", 25, "Number of users to create")
	videosPerUser := flag.Int("videos", 4, "Number of videos per user")
	shouldClean := flag.Bool("clean", true, "Clean database before seeding")
	fast := flag.Bool("fast", false, "Use the minimum bcrypt cost for seeded passwords")
	flag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if cfg.IsProduction() {
		log.Fatal("Refusing to seed a production database")
	}

	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	sum, err := seed.Seed(db, seed.Options{
		NumUsers:      *numUsers,
		VideosPerUser: *videosPerUser,
		ShouldClean:   *shouldClean,
		SkipBcrypt:    *fast,
	})
	if err != nil {
		log.Fatalf("Seeding failed: %v", err)
	}

	log.Printf("Seeded %d users, %d videos, %d comments, %d playlists, %d subscriptions",
		sum.Users, sum.Videos, sum.Comments, sum.Playlists, sum.Subscriptions)
	log.Printf("All seeded users have the password: %s", seed.DefaultPassword)
}
