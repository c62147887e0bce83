package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/KirkDiggler/sessionscribe/internal/dispatch"
	"github.com/KirkDiggler/sessionscribe/internal/handlers/discord"
	sessionRepo "github.com/KirkDiggler/sessionscribe/internal/repositories/session"
	"github.com/KirkDiggler/sessionscribe/internal/services/tracker"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
)

func main() {
	// Load a local .env if present; real deployments set the environment
	_ = godotenv.Load()

	// Initialize Redis client
	redisClient := redis.NewClient(&redis.Options{
		Addr:     getEnv("REDIS_ADDR", "localhost:6379"),
		Password: getEnv("REDIS_PASSWORD", ""),
		DB:       0,
	})

	// Test Redis connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := redisClient.Ping(ctx).Err(); err != nil {
		log.Fatalf("Failed to connect to Redis: %v", err)
	}

	// Initialize repositories
	repo, err := sessionRepo.NewRedis(&sessionRepo.Config{
		RedisClient: redisClient,
	})
	if err != nil {
		log.Fatalf("Failed to create session repository: %v", err)
	}

	// Initialize tracker service
	trackerSvc, err := tracker.New(&tracker.Config{
		SessionRepo: repo,
	})
	if err != nil {
		log.Fatalf("Failed to create tracker service: %v", err)
	}

	// Initialize the lifecycle event dispatcher
	dispatcher, err := dispatch.New(&dispatch.Config{
		Tracker: trackerSvc,
	})
	if err != nil {
		log.Fatalf("Failed to create dispatcher: %v", err)
	}

	// Get Discord token from environment
	discordToken := getEnv("DISCORD_TOKEN", "")
	if discordToken == "" {
		log.Fatal("DISCORD_TOKEN environment variable is required")
	}

	// Get application ID for the bot
	applicationID := getEnv("APPLICATION_ID", "")

	// Get optional guild ID for development
	guildID := getEnv("GUILD_ID", "")

	// Initialize Discord bot
	bot, err := discord.New(&discord.Config{
		Token:         discordToken,
		ApplicationID: applicationID,
		GuildID:       guildID,
		Tracker:       trackerSvc,
		Dispatcher:    dispatcher,
	})
	if err != nil {
		log.Fatalf("Failed to create Discord bot: %v", err)
	}

	// Start the dispatcher and the bot
	dispatcher.Start()

	if err := bot.Start(); err != nil {
		log.Fatalf("Failed to start Discord bot: %v", err)
	}

	// Wait for interrupt signal to gracefully shutdown
	sc := make(chan os.Signal, 1)
	signal.Notify(sc, syscall.SIGINT, syscall.SIGTERM, os.Interrupt)
	<-sc

	// Shut down the bot first so no new events arrive, then drain the queue
	if err := bot.Stop(); err != nil {
		log.Printf("Error stopping bot: %v", err)
	}

	dispatcher.Stop()

	log.Println("Bot has been shut down")
}

// getEnv gets an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}
