package main

import (
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/axis-hub/subverify/src/data"
	"github.com/axis-hub/subverify/src/verifybot/bot"
	"github.com/axis-hub/subverify/src/verifybot/components/ocr"
	"github.com/axis-hub/subverify/src/verifybot/components/verification"
	"github.com/axis-hub/subverify/src/verifybot/config"
)

func main() {
	_ = godotenv.Load()

	// Settings store is optional; without it the bot runs on environment
	// config alone.
	var db *gorm.DB
	if dsn := data.GetMySQLDSN(); dsn != "" {
		var err error
		db, err = data.ConnectMySQL(dsn)
		if err != nil {
			log.Printf("WARNING: settings store unavailable: %v", err)
			db = nil
		}
	}

	cfg := config.Load(db)
	if cfg.Token == "" {
		log.Fatal("DISCORD_TOKEN not set in database or environment")
	}
	if cfg.VerifyChannelID == "" {
		log.Fatal("VERIFY_CHANNEL_ID not set in database or environment")
	}
	if cfg.VerifyRoleID == "" {
		log.Fatal("VERIFY_ROLE_ID not set in database or environment")
	}

	engine, err := ocr.New(cfg.OCREngine, cfg.OCR)
	if err != nil {
		log.Printf("WARNING: OCR engine unavailable, continuing with filename fallback: %v", err)
		engine = nil
	}

	// Outcome stream is optional; without it outcomes are visible in logs only.
	var rdb *redis.Client
	if cfg.RedisURL != "" {
		rdb, err = data.ConnectRedis(cfg.RedisURL)
		if err != nil {
			log.Printf("WARNING: redis unavailable, outcome stream disabled: %v", err)
			rdb = nil
		}
	}

	handler := verification.NewHandler(verification.Config{
		ChannelID:    cfg.VerifyChannelID,
		RoleID:       cfg.VerifyRoleID,
		TargetHandle: cfg.TargetHandle,
		Engine:       engine,
		Redis:        rdb,
	})

	b, err := bot.New(bot.Config{
		Token:           cfg.Token,
		VerifyChannelID: cfg.VerifyChannelID,
		VerifyRoleID:    cfg.VerifyRoleID,
		GuildID:         cfg.GuildID,
		Handler:         handler,
		Engine:          engine,
	})
	if err != nil {
		log.Fatalf("Failed to create bot: %v", err)
	}

	if err := b.Start(); err != nil {
		log.Fatalf("Failed to start bot: %v", err)
	}

	log.Println("Verification bot is running. Press CTRL-C to exit.")

	sc := make(chan os.Signal, 1)
	signal.Notify(sc, syscall.SIGINT, syscall.SIGTERM, os.Interrupt)
	<-sc

	b.Stop()
	log.Println("Verification bot stopped gracefully")
}
