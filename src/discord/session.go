package discord

import (
	"fmt"

	"github.com/bwmarrin/discordgo"
)

// Session is the subset of *discordgo.Session the verification pipeline
// mutates the platform through. *discordgo.Session satisfies it; tests
// substitute a fake.
type Session interface {
	ChannelMessageSend(channelID string, content string, options ...discordgo.RequestOption) (*discordgo.Message, error)
	ChannelMessageDelete(channelID, messageID string, options ...discordgo.RequestOption) error
	GuildMemberRoleAdd(guildID, userID, roleID string, options ...discordgo.RequestOption) error
	ChannelPermissionSet(channelID, targetID string, targetType discordgo.PermissionOverwriteType, allow, deny int64, options ...discordgo.RequestOption) error
}

// Mention formats a user mention for message content.
func Mention(userID string) string {
	return fmt.Sprintf("<@%s>", userID)
}
