package domain

import "time"

// ChannelTenant is one owner's monitoring configuration for one channel.
// MonitoredChannelID is 0 until the owner completes the setup flow.
type ChannelTenant struct {
	OwnerID               int64     `json:"owner_id"`
	MonitoredChannelID    int64     `json:"monitored_channel_id"`
	MonitoredChannelTitle string    `json:"monitored_channel_title"`
	BanningEnabled        bool      `json:"banning_enabled"`
	LastMenuMessageID     int       `json:"last_menu_message_id"`
	Verified              bool      `json:"verified"`
	CreatedAt             time.Time `json:"created_at"`
	UpdatedAt             time.Time `json:"updated_at"`
}

// HasTarget reports whether a monitored channel has been configured.
func (t *ChannelTenant) HasTarget() bool {
	return t.MonitoredChannelID != 0
}

// GroupTenant is a group's self-moderation configuration. The tenant is the
// chat it protects.
type GroupTenant struct {
	ChatID            int64     `json:"chat_id"`
	BanningEnabled    bool      `json:"banning_enabled"`
	LastMenuMessageID int       `json:"last_menu_message_id"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}
