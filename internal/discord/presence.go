package discord

import (
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/ykvlv/bedtime-bot/internal/presence"
)

// isOnline maps a Discord status to the online flag.
// Invisible users are reported as offline to everyone but themselves.
func isOnline(s discordgo.Status) bool {
	switch s {
	case discordgo.StatusOffline, discordgo.StatusInvisible, "":
		return false
	default:
		return true
	}
}

// toEvent converts a gateway presence into a registry event.
// It returns false for presences without a user or belonging to bots.
func toEvent(p *discordgo.Presence, at time.Time) (presence.Event, bool) {
	if p == nil || p.User == nil || p.User.ID == "" || p.User.Bot {
		return presence.Event{}, false
	}
	return presence.Event{UserID: p.User.ID, Online: isOnline(p.Status), At: at}, true
}
