package notifier

import (
	"fmt"
	"strings"

	"github.com/bwmarrin/discordgo"
	"github.com/gracechurch/retreat-api/internal/config"
	"github.com/gracechurch/retreat-api/internal/models"
	"go.uber.org/zap"
)

type Notifier interface {
	NotifyRegistration(retreat models.Retreat, registration models.Registration, updated bool) error
	NotifySessionsGenerated(retreat models.Retreat, count int) error
}

// MessageSender is the subset of *discordgo.Session the notifier uses.
type MessageSender interface {
	ChannelMessageSend(channelID string, content string, options ...discordgo.RequestOption) (*discordgo.Message, error)
}

type DiscordNotifier struct {
	session   MessageSender
	channelID string
}

func NewDiscordNotifier(session MessageSender, channelID string) *DiscordNotifier {
	return &DiscordNotifier{
		session:   session,
		channelID: channelID,
	}
}

// FromConfig opens a bot session when a token and channel are configured.
func FromConfig(cfg *config.Config) (*DiscordNotifier, error) {
	if cfg.DiscordBotToken == "" || cfg.DiscordNotificationsChannelID == "" {
		return nil, fmt.Errorf("discord bot token or channel not configured")
	}
	session, err := discordgo.New("Bot " + cfg.DiscordBotToken)
	if err != nil {
		return nil, fmt.Errorf("create discord session: %w", err)
	}
	return NewDiscordNotifier(session, cfg.DiscordNotificationsChannelID), nil
}

func retreatTitle(r models.Retreat) string {
	t := string(r.Type)
	if t != "" {
		t = strings.ToUpper(t[:1]) + t[1:]
	}
	return fmt.Sprintf("%d %s Retreat", r.Year, t)
}

func (n *DiscordNotifier) send(message string) error {
	if n.session == nil {
		return fmt.Errorf("discord session is nil")
	}
	if n.channelID == "" {
		return fmt.Errorf("discord channel ID is empty")
	}

	if _, err := n.session.ChannelMessageSend(n.channelID, message); err != nil {
		zap.L().Error("failed to send discord message", zap.Error(err))
		return err
	}
	return nil
}

func (n *DiscordNotifier) NotifyRegistration(retreat models.Retreat, registration models.Registration, updated bool) error {
	status := "new registration"
	if updated {
		status = "registration updated"
	}

	noteStr := ""
	if registration.Note != "" {
		noteStr = fmt.Sprintf("\n**Note:** %s", registration.Note)
	}

	message := fmt.Sprintf("📝 **%s**\n**Retreat:** %s\n**Name:** %s (%s, %d)\n**Category:** %s\n**Invitation:** %s\n**From:** %s, %s\n**Day:** %d%s",
		status,
		retreatTitle(retreat),
		registration.Name,
		registration.Gender,
		registration.Age,
		registration.Category,
		registration.InvitationType,
		registration.Location,
		registration.Nationality,
		registration.Day,
		noteStr,
	)
	return n.send(message)
}

func (n *DiscordNotifier) NotifySessionsGenerated(retreat models.Retreat, count int) error {
	return n.send(fmt.Sprintf("🗓️ **Schedule ready**\n%d sessions generated for the %s (%d days).", count, retreatTitle(retreat), retreat.TotalDays))
}
