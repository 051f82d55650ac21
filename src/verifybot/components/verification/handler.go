// Package verification implements the screenshot verification pipeline: fetch
// the first eligible attachment, extract its text, classify it, and act on the
// result by granting the verified role or rejecting the message.
package verification

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/axis-hub/subverify/src/data"
	"github.com/axis-hub/subverify/src/discord"
	"github.com/axis-hub/subverify/src/verifybot/components/attachment"
	"github.com/axis-hub/subverify/src/verifybot/components/ocr"
)

// Outcome is the terminal result of one pipeline run.
type Outcome string

const (
	OutcomePromoted     Outcome = "promoted"
	OutcomeRejected     Outcome = "rejected"
	OutcomeErrored      Outcome = "errored"
	OutcomeNoAttachment Outcome = "no_attachment"
)

// Default notice lifetimes. Rejections stay visible longer so the user can
// read why.
const (
	DefaultNoticeLifetime          = 5 * time.Second
	DefaultRejectionNoticeLifetime = 10 * time.Second
)

type Config struct {
	ChannelID    string
	RoleID       string
	TargetHandle string
	Fetcher      *attachment.Fetcher
	Engine       ocr.Engine
	Redis        *redis.Client

	// Zero values take the defaults above.
	NoticeLifetime          time.Duration
	RejectionNoticeLifetime time.Duration
}

// Handler runs the pipeline for every message posted in the verification
// channel. It holds no per-message state; concurrent messages from different
// users share nothing.
type Handler struct {
	config     Config
	classifier *Classifier
	extractor  *Extractor
	fetcher    *attachment.Fetcher
	rdb        *redis.Client
}

func NewHandler(config Config) *Handler {
	fetcher := config.Fetcher
	if fetcher == nil {
		fetcher = attachment.NewFetcher()
	}

	handle := config.TargetHandle
	if handle == "" {
		handle = DefaultHandle
	}
	config.TargetHandle = handle

	if config.NoticeLifetime == 0 {
		config.NoticeLifetime = DefaultNoticeLifetime
	}
	if config.RejectionNoticeLifetime == 0 {
		config.RejectionNoticeLifetime = DefaultRejectionNoticeLifetime
	}

	return &Handler{
		config:     config,
		classifier: NewClassifier(handle),
		extractor:  NewExtractor(config.Engine),
		fetcher:    fetcher,
		rdb:        config.Redis,
	}
}

// HandleMessage is registered on the discordgo session. Nothing escapes it:
// every failure is logged and converted into best-effort cleanup so one bad
// message cannot take the listener down.
func (h *Handler) HandleMessage(s *discordgo.Session, m *discordgo.MessageCreate) {
	if m.Author == nil || m.Author.Bot {
		return
	}
	if m.ChannelID != h.config.ChannelID {
		return
	}

	defer func() {
		if r := recover(); r != nil {
			log.Printf("verification handler panic for message %s: %v", m.ID, r)
		}
	}()

	outcome := h.Process(context.Background(), s, m)
	h.publishOutcome(m, outcome)
}

// Process runs one verification and returns its terminal outcome. The session
// is the narrow mutation interface so tests can substitute a fake.
func (h *Handler) Process(ctx context.Context, s discord.Session, m *discordgo.MessageCreate) Outcome {
	att := firstEligible(m.Attachments)
	if att == nil {
		h.deleteMessage(s, m)
		discord.Ephemeral(s, m.ChannelID,
			fmt.Sprintf("%s, please upload a screenshot of your YouTube subscription to @%s!",
				discord.Mention(m.Author.ID), h.config.TargetHandle),
			h.config.NoticeLifetime)
		return OutcomeNoAttachment
	}

	image, err := h.fetcher.Fetch(ctx, att.URL)
	if err != nil {
		log.Printf("Error processing image: %v", err)
		h.deleteMessage(s, m)
		discord.Ephemeral(s, m.ChannelID,
			fmt.Sprintf("%s, there was an error processing your image. Please try again.",
				discord.Mention(m.Author.ID)),
			h.config.NoticeLifetime)
		return OutcomeErrored
	}

	text := h.extractor.Extract(ctx, image, att.Filename)

	if !h.classifier.Classify(text) {
		h.deleteMessage(s, m)
		discord.Ephemeral(s, m.ChannelID,
			fmt.Sprintf("%s, your screenshot doesn't show a valid subscription to @%s. "+
				"Please make sure you're subscribed and the screenshot is clear.",
				discord.Mention(m.Author.ID), h.config.TargetHandle),
			h.config.RejectionNoticeLifetime)
		return OutcomeRejected
	}

	return h.promote(s, m)
}

// promote grants the verified role, cleans up, and locks the user out of the
// verification channel. Platform API failures here are logged and otherwise
// silent to the user.
func (h *Handler) promote(s discord.Session, m *discordgo.MessageCreate) Outcome {
	if err := s.GuildMemberRoleAdd(m.GuildID, m.Author.ID, h.config.RoleID); err != nil {
		log.Printf("Error verifying user %s: %v", m.Author.ID, err)
		return OutcomeErrored
	}

	h.deleteMessage(s, m)

	discord.Ephemeral(s, m.ChannelID,
		fmt.Sprintf("✅ %s has been successfully verified! Thank you for subscribing to @%s!",
			discord.Mention(m.Author.ID), h.config.TargetHandle),
		h.config.NoticeLifetime)

	// Verified users no longer need the channel; revoke read and send.
	deny := int64(discordgo.PermissionViewChannel | discordgo.PermissionSendMessages)
	if err := s.ChannelPermissionSet(h.config.ChannelID, m.Author.ID,
		discordgo.PermissionOverwriteTypeMember, 0, deny); err != nil {
		log.Printf("Error locking verification channel for %s: %v", m.Author.ID, err)
	}

	log.Printf("Successfully verified user: %s", m.Author.Username)
	return OutcomePromoted
}

func (h *Handler) deleteMessage(s discord.Session, m *discordgo.MessageCreate) {
	if err := s.ChannelMessageDelete(m.ChannelID, m.ID); err != nil {
		log.Printf("Failed to delete message %s: %v", m.ID, err)
	}
}

// firstEligible returns the first image attachment, or nil. Only one
// attachment is ever evaluated per message.
func firstEligible(atts []*discordgo.MessageAttachment) *discordgo.MessageAttachment {
	for _, att := range atts {
		if attachment.Eligible(att.Filename) {
			return att
		}
	}
	return nil
}

// publishOutcome records the terminal outcome on the Redis outcome stream so
// operators can watch for errored verifications. Best-effort: the stream being
// down never affects the user-facing result.
func (h *Handler) publishOutcome(m *discordgo.MessageCreate, outcome Outcome) {
	if h.rdb == nil {
		return
	}

	err := data.PublishOutcome(context.Background(), h.rdb, map[string]interface{}{
		"id":         uuid.NewString(),
		"user_id":    m.Author.ID,
		"channel_id": m.ChannelID,
		"message_id": m.ID,
		"outcome":    string(outcome),
		"time":       time.Now().Unix(),
	})
	if err != nil {
		log.Printf("Failed to publish outcome for message %s: %v", m.ID, err)
	}
}
