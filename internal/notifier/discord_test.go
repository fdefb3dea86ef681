package notifier

import (
	"errors"
	"testing"

	"github.com/bwmarrin/discordgo"
	"github.com/gracechurch/retreat-api/internal/config"
	"github.com/gracechurch/retreat-api/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSender struct {
	channel  string
	messages []string
	err      error
}

func (f *fakeSender) ChannelMessageSend(channelID string, content string, options ...discordgo.RequestOption) (*discordgo.Message, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.channel = channelID
	f.messages = append(f.messages, content)
	return &discordgo.Message{Content: content}, nil
}

func TestNotifyRegistration(t *testing.T) {
	sender := &fakeSender{}
	n := NewDiscordNotifier(sender, "chan-1")

	retreat := models.Retreat{Year: 2025, Type: models.RetreatSummer, TotalDays: 4}
	reg := models.Registration{RegistrationFields: models.RegistrationFields{
		Name:           "Grace Kim",
		Gender:         models.GenderFemale,
		Age:            29,
		Category:       models.CategoryAdult,
		InvitationType: models.InvitationNewcomer,
		Nationality:    "Korea",
		Location:       "Seoul",
		Day:            2,
		Note:           "Vegetarian",
	}}

	require.NoError(t, n.NotifyRegistration(retreat, reg, false))
	require.Len(t, sender.messages, 1)
	assert.Equal(t, "chan-1", sender.channel)
	assert.Contains(t, sender.messages[0], "new registration")
	assert.Contains(t, sender.messages[0], "2025 Summer Retreat")
	assert.Contains(t, sender.messages[0], "Grace Kim (Female, 29)")
	assert.Contains(t, sender.messages[0], "**Note:** Vegetarian")

	require.NoError(t, n.NotifyRegistration(retreat, reg, true))
	assert.Contains(t, sender.messages[1], "registration updated")
}

func TestNotifySessionsGenerated(t *testing.T) {
	sender := &fakeSender{}
	n := NewDiscordNotifier(sender, "chan-1")

	require.NoError(t, n.NotifySessionsGenerated(models.Retreat{Year: 2026, Type: models.RetreatWinter, TotalDays: 3}, 12))
	assert.Contains(t, sender.messages[0], "12 sessions generated for the 2026 Winter Retreat (3 days)")
}

func TestNotifierErrors(t *testing.T) {
	assert.Error(t, NewDiscordNotifier(nil, "chan").NotifySessionsGenerated(models.Retreat{}, 1))
	assert.Error(t, NewDiscordNotifier(&fakeSender{}, "").NotifySessionsGenerated(models.Retreat{}, 1))

	failing := &fakeSender{err: errors.New("rate limited")}
	assert.Error(t, NewDiscordNotifier(failing, "chan").NotifySessionsGenerated(models.Retreat{}, 1))
}

func TestFromConfig(t *testing.T) {
	_, err := FromConfig(&config.Config{})
	assert.Error(t, err)

	n, err := FromConfig(&config.Config{DiscordBotToken: "token", DiscordNotificationsChannelID: "chan"})
	require.NoError(t, err)
	assert.NotNil(t, n)
}
