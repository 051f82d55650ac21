package bot

import (
	"context"
	"log"

	"github.com/bwmarrin/discordgo"

	"github.com/axis-hub/subverify/src/verifybot/components/ocr"
	"github.com/axis-hub/subverify/src/verifybot/components/verification"
)

type Config struct {
	Token           string
	VerifyChannelID string
	VerifyRoleID    string
	GuildID         string
	Handler         *verification.Handler
	Engine          ocr.Engine
}

// Bot owns the Discord session hosting the verification pipeline.
type Bot struct {
	session *discordgo.Session
	config  Config
}

func New(config Config) (*Bot, error) {
	dg, err := discordgo.New("Bot " + config.Token)
	if err != nil {
		return nil, err
	}

	bot := &Bot{
		session: dg,
		config:  config,
	}

	dg.AddHandler(bot.handleReady)
	dg.AddHandler(config.Handler.HandleMessage)

	dg.Identify.Intents = discordgo.IntentsGuildMessages |
		discordgo.IntentsMessageContent |
		discordgo.IntentsGuilds

	return bot, nil
}

func (b *Bot) Start() error {
	return b.session.Open()
}

func (b *Bot) Stop() {
	b.session.Close()
}

// handleReady logs the session identity and probes the environment: the
// configured channel and role, and the OCR engine. All probes are log-only;
// a broken collaborator degrades verification, it does not stop the bot.
func (b *Bot) handleReady(s *discordgo.Session, event *discordgo.Ready) {
	log.Printf("Discord bot logged in as %s", event.User.Username)
	log.Printf("Bot is ready to verify subscriptions")

	if _, err := s.Channel(b.config.VerifyChannelID); err != nil {
		log.Printf("WARNING: verify channel %s not reachable: %v", b.config.VerifyChannelID, err)
	}

	b.probeRole(s)
	b.probeOCR()
}

func (b *Bot) probeRole(s *discordgo.Session) {
	if b.config.GuildID == "" {
		return
	}

	roles, err := s.GuildRoles(b.config.GuildID)
	if err != nil {
		log.Printf("WARNING: could not list roles for guild %s: %v", b.config.GuildID, err)
		return
	}

	for _, role := range roles {
		if role.ID == b.config.VerifyRoleID {
			log.Printf("Verify role found: %s", role.Name)
			return
		}
	}
	log.Printf("WARNING: could not find role with ID %s", b.config.VerifyRoleID)
}

func (b *Bot) probeOCR() {
	if b.config.Engine == nil {
		log.Printf("WARNING: no OCR engine available, verification will fall back to filenames")
		return
	}

	if t, ok := b.config.Engine.(*ocr.Tesseract); ok {
		version, err := t.Version(context.Background())
		if err != nil {
			log.Printf("WARNING: Tesseract OCR not available: %v", err)
			return
		}
		log.Printf("Tesseract OCR is working: %s", version)
		return
	}

	log.Printf("OCR engine ready: %s", b.config.Engine.Name())
}
