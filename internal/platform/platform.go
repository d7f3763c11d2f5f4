// Package platform is the boundary between the bot and the chat platform.
// Everything the bot does to a guild goes through Adapter.
package platform

import (
	"context"
	"errors"
	"time"

	"github.com/disgoorg/snowflake/v2"
)

var (
	// ErrNotFound is returned when a user, member, guild or channel does not exist.
	ErrNotFound = errors.New("not found on platform")
	// ErrUnavailable is returned when the platform cannot serve the request right now.
	ErrUnavailable = errors.New("platform unavailable")
)

// Capability is a permission the platform can grant to a member.
type Capability int

const (
	CapabilityAdministrator Capability = iota
	CapabilityManageGuild
	CapabilityManageRoles
	CapabilityManageChannels
	CapabilityManageMessages
	CapabilityModerateMembers
	CapabilityKickMembers
	CapabilityBanMembers
)

// String returns a readable name of the capability.
func (c Capability) String() string {
	switch c {
	case CapabilityAdministrator:
		return "Administrator"
	case CapabilityManageGuild:
		return "Manage Server"
	case CapabilityManageRoles:
		return "Manage Roles"
	case CapabilityManageChannels:
		return "Manage Channels"
	case CapabilityManageMessages:
		return "Manage Messages"
	case CapabilityModerateMembers:
		return "Moderate Members"
	case CapabilityKickMembers:
		return "Kick Members"
	case CapabilityBanMembers:
		return "Ban Members"
	default:
		return "Unknown"
	}
}

// Field is a name/value pair inside an embed.
type Field struct {
	Name   string
	Value  string
	Inline bool
}

// Embed is a rich message card.
type Embed struct {
	Title       string
	Description string
	Color       int
	AuthorName  string
	AuthorIcon  string
	Thumbnail   string
	Image       string
	Footer      string
	Fields      []Field
	Timestamp   time.Time
}

// ButtonStyle selects the look of a button.
type ButtonStyle int

const (
	ButtonPrimary ButtonStyle = iota
	ButtonSecondary
	ButtonDanger
)

// Button is a clickable component identified by CustomID.
type Button struct {
	CustomID string
	Label    string
	Emoji    string
	Style    ButtonStyle
}

// Message is an outgoing message.
type Message struct {
	Content string
	Embeds  []Embed
	Buttons []Button
	// ReplyTo makes the message a reply when non-zero.
	ReplyTo snowflake.ID
}

// User is a platform account.
type User struct {
	ID         snowflake.ID
	Username   string
	GlobalName string
	Bot        bool
	AvatarURL  string
}

// CreatedAt derives the account creation time from the ID.
func (u User) CreatedAt() time.Time {
	return u.ID.Time()
}

// DisplayName prefers the global name over the username.
func (u User) DisplayName() string {
	if u.GlobalName != "" {
		return u.GlobalName
	}
	return u.Username
}

// Mention renders the user mention markup.
func (u User) Mention() string {
	return "<@" + u.ID.String() + ">"
}

// Member is a user inside a guild.
type Member struct {
	User
	GuildID  snowflake.ID
	Nickname string
	JoinedAt time.Time
	RoleIDs  []snowflake.ID
}

// Role is a guild role.
type Role struct {
	ID          snowflake.ID
	Name        string
	Color       int
	Position    int
	Hoist       bool
	Managed     bool
	Mentionable bool
}

// Mention renders the role mention markup.
func (r Role) Mention() string {
	return "<@&" + r.ID.String() + ">"
}

// Guild summarizes a guild.
type Guild struct {
	ID           snowflake.ID
	Name         string
	OwnerID      snowflake.ID
	IconURL      string
	MemberCount  int
	ChannelCount int
	RoleCount    int
	BoostCount   int
}

// CreatedAt derives the guild creation time from the ID.
func (g Guild) CreatedAt() time.Time {
	return g.ID.Time()
}

// TicketChannel describes the private channel created for a ticket.
type TicketChannel struct {
	GuildID snowflake.ID
	OwnerID snowflake.ID
	Name    string
	// Category is created when no category with this name exists.
	Category string
	// StaffRole, when found, gets access to the channel too.
	StaffRole string
}

// Adapter performs platform actions on behalf of the bot.
type Adapter interface {
	HasCapability(ctx context.Context, guildID, userID snowflake.ID, capability Capability) (bool, error)

	SendMessage(ctx context.Context, channelID snowflake.ID, message Message) (snowflake.ID, error)
	DeleteMessage(ctx context.Context, channelID, messageID snowflake.ID) error
	// BulkDelete removes up to count recent messages and returns how many were removed.
	BulkDelete(ctx context.Context, channelID snowflake.ID, count int) (int, error)
	AddReaction(ctx context.Context, channelID, messageID snowflake.ID, emoji string) error

	CreateTicketChannel(ctx context.Context, req TicketChannel) (snowflake.ID, error)
	DeleteChannel(ctx context.Context, channelID snowflake.ID) error
	FindChannelByName(ctx context.Context, guildID snowflake.ID, name string) (snowflake.ID, bool, error)

	AddRole(ctx context.Context, guildID, userID, roleID snowflake.ID) error
	RemoveRole(ctx context.Context, guildID, userID, roleID snowflake.ID) error
	FindRoleByName(ctx context.Context, guildID snowflake.ID, name string) (Role, bool, error)
	Roles(ctx context.Context, guildID snowflake.ID) ([]Role, error)

	Kick(ctx context.Context, guildID, userID snowflake.ID, reason string) error
	// Timeout mutes the member until the given time; a zero time lifts the timeout.
	Timeout(ctx context.Context, guildID, userID snowflake.ID, until time.Time) error

	FetchUser(ctx context.Context, userID snowflake.ID) (User, error)
	FetchMember(ctx context.Context, guildID, userID snowflake.ID) (Member, error)
	FetchGuild(ctx context.Context, guildID snowflake.ID) (Guild, error)

	Latency() time.Duration
}
