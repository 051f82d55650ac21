package discord

import (
	"log"
	"time"
)

// Ephemeral posts a notice to a channel, leaves it visible for the given
// lifetime, then deletes it. The delete is best-effort: a notice removed by
// someone else in the meantime is not an error worth surfacing.
func Ephemeral(s Session, channelID, content string, lifetime time.Duration) {
	msg, err := s.ChannelMessageSend(channelID, content)
	if err != nil {
		log.Printf("ephemeral notice send: %v", err)
		return
	}

	time.Sleep(lifetime)

	if err := s.ChannelMessageDelete(channelID, msg.ID); err != nil {
		log.Printf("ephemeral notice delete: %v", err)
	}
}
