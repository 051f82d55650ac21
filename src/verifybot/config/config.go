package config

import (
	"log"
	"os"

	"github.com/axis-hub/subverify/src/data"
	"github.com/axis-hub/subverify/src/verifybot/components/ocr"
	"gorm.io/gorm"
)

type Config struct {
	Token           string
	VerifyChannelID string
	VerifyRoleID    string
	GuildID         string
	TargetHandle    string
	OCREngine       string
	OCR             ocr.Config
	RedisURL        string
}

// Load resolves configuration from the database settings table first and the
// environment second. db may be nil when no settings store is configured.
func Load(db *gorm.DB) Config {
	if db != nil {
		if err := data.LoadSettings(db); err != nil {
			log.Printf("Failed to load settings: %v", err)
		}
	}

	return Config{
		Token:           setting("discord_token", "DISCORD_TOKEN"),
		VerifyChannelID: setting("verify_channel_id", "VERIFY_CHANNEL_ID"),
		VerifyRoleID:    setting("verify_role_id", "VERIFY_ROLE_ID"),
		GuildID:         setting("guild_id", "GUILD_ID"),
		TargetHandle:    setting("target_handle", "TARGET_HANDLE"),
		OCREngine:       setting("ocr_engine", "OCR_ENGINE"),
		OCR: ocr.Config{
			TesseractCmd:  setting("tesseract_cmd", "TESSERACT_CMD"),
			OpenAIKey:     setting("openai_api_key", "OPENAI_API_KEY"),
			OpenAIBaseURL: setting("openai_base_url", "OPENAI_BASE_URL"),
			OpenAIModel:   setting("openai_model", "OPENAI_MODEL"),
		},
		RedisURL: getenv("REDIS_URL", ""),
	}
}

// setting reads a value from the settings cache with an environment fallback.
func setting(name, env string) string {
	if v := data.GetSetting(name); v != "" {
		return v
	}
	return os.Getenv(env)
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
