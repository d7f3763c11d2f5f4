package platform

import (
	"context"
	"sync"
	"time"

	"github.com/disgoorg/snowflake/v2"
)

// SentMessage is a message recorded by Fake.
type SentMessage struct {
	ID        snowflake.ID
	ChannelID snowflake.ID
	Message
}

// RoleChange is a role grant or revocation recorded by Fake.
type RoleChange struct {
	GuildID snowflake.ID
	UserID  snowflake.ID
	RoleID  snowflake.ID
	Added   bool
}

// Fake is an in-memory Adapter for tests. Zero value is not usable; call NewFake.
type Fake struct {
	mu sync.Mutex

	nextID       snowflake.ID
	capabilities map[snowflake.ID]map[Capability]bool
	channels     map[snowflake.ID]map[string]snowflake.ID
	roles        map[snowflake.ID][]Role
	users        map[snowflake.ID]User
	guilds       map[snowflake.ID]Guild

	sent       []SentMessage
	deleted    []snowflake.ID
	reactions  []string
	purged     int
	removed    []snowflake.ID
	roleEvents []RoleChange
	kicked     []snowflake.ID
	timeouts   map[snowflake.ID]time.Time

	// CreateChannelErr makes CreateTicketChannel fail when set.
	CreateChannelErr error
	// DeleteMessageErr makes DeleteMessage fail when set.
	DeleteMessageErr error
}

// NewFake returns an empty Fake.
func NewFake() *Fake {
	return &Fake{
		nextID:       1_000_000,
		capabilities: make(map[snowflake.ID]map[Capability]bool),
		channels:     make(map[snowflake.ID]map[string]snowflake.ID),
		roles:        make(map[snowflake.ID][]Role),
		users:        make(map[snowflake.ID]User),
		guilds:       make(map[snowflake.ID]Guild),
		timeouts:     make(map[snowflake.ID]time.Time),
	}
}

// Grant gives the user a capability in every guild.
func (f *Fake) Grant(userID snowflake.ID, capabilities ...Capability) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.capabilities[userID] == nil {
		f.capabilities[userID] = make(map[Capability]bool)
	}
	for _, c := range capabilities {
		f.capabilities[userID][c] = true
	}
}

// AddChannel registers a named text channel.
func (f *Fake) AddChannel(guildID snowflake.ID, name string) snowflake.ID {
	f.mu.Lock()
	defer f.mu.Unlock()

	return f.addChannelLocked(guildID, name)
}

// AddRoleDefinition registers a guild role.
func (f *Fake) AddRoleDefinition(guildID snowflake.ID, role Role) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.roles[guildID] = append(f.roles[guildID], role)
}

// AddUser registers a user.
func (f *Fake) AddUser(user User) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.users[user.ID] = user
}

// AddGuild registers a guild.
func (f *Fake) AddGuild(guild Guild) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.guilds[guild.ID] = guild
}

// Sent returns the messages sent so far.
func (f *Fake) Sent() []SentMessage {
	f.mu.Lock()
	defer f.mu.Unlock()

	return append([]SentMessage(nil), f.sent...)
}

// Deleted returns the IDs of deleted messages.
func (f *Fake) Deleted() []snowflake.ID {
	f.mu.Lock()
	defer f.mu.Unlock()

	return append([]snowflake.ID(nil), f.deleted...)
}

// RemovedChannels returns the IDs of deleted channels.
func (f *Fake) RemovedChannels() []snowflake.ID {
	f.mu.Lock()
	defer f.mu.Unlock()

	return append([]snowflake.ID(nil), f.removed...)
}

// RoleChanges returns recorded role grants and revocations.
func (f *Fake) RoleChanges() []RoleChange {
	f.mu.Lock()
	defer f.mu.Unlock()

	return append([]RoleChange(nil), f.roleEvents...)
}

// Kicked returns the IDs of kicked users.
func (f *Fake) Kicked() []snowflake.ID {
	f.mu.Lock()
	defer f.mu.Unlock()

	return append([]snowflake.ID(nil), f.kicked...)
}

// TimeoutOf returns the active timeout of a user.
func (f *Fake) TimeoutOf(userID snowflake.ID) (time.Time, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()

	until, ok := f.timeouts[userID]
	return until, ok
}

// Reactions returns the emojis added so far.
func (f *Fake) Reactions() []string {
	f.mu.Lock()
	defer f.mu.Unlock()

	return append([]string(nil), f.reactions...)
}

func (f *Fake) HasCapability(_ context.Context, _, userID snowflake.ID, capability Capability) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	granted := f.capabilities[userID]

	return granted[CapabilityAdministrator] || granted[capability], nil
}

func (f *Fake) SendMessage(_ context.Context, channelID snowflake.ID, message Message) (snowflake.ID, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.nextID++
	f.sent = append(f.sent, SentMessage{ID: f.nextID, ChannelID: channelID, Message: message})

	return f.nextID, nil
}

func (f *Fake) DeleteMessage(_ context.Context, _, messageID snowflake.ID) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.DeleteMessageErr != nil {
		return f.DeleteMessageErr
	}

	f.deleted = append(f.deleted, messageID)

	return nil
}

func (f *Fake) BulkDelete(_ context.Context, _ snowflake.ID, count int) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.purged += count

	return count, nil
}

func (f *Fake) AddReaction(_ context.Context, _, _ snowflake.ID, emoji string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.reactions = append(f.reactions, emoji)

	return nil
}

func (f *Fake) CreateTicketChannel(_ context.Context, req TicketChannel) (snowflake.ID, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.CreateChannelErr != nil {
		return 0, f.CreateChannelErr
	}

	return f.addChannelLocked(req.GuildID, req.Name), nil
}

func (f *Fake) DeleteChannel(_ context.Context, channelID snowflake.ID) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.removed = append(f.removed, channelID)

	return nil
}

func (f *Fake) FindChannelByName(_ context.Context, guildID snowflake.ID, name string) (snowflake.ID, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	id, ok := f.channels[guildID][name]

	return id, ok, nil
}

func (f *Fake) AddRole(_ context.Context, guildID, userID, roleID snowflake.ID) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.roleEvents = append(f.roleEvents, RoleChange{GuildID: guildID, UserID: userID, RoleID: roleID, Added: true})

	return nil
}

func (f *Fake) RemoveRole(_ context.Context, guildID, userID, roleID snowflake.ID) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.roleEvents = append(f.roleEvents, RoleChange{GuildID: guildID, UserID: userID, RoleID: roleID})

	return nil
}

func (f *Fake) FindRoleByName(_ context.Context, guildID snowflake.ID, name string) (Role, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, role := range f.roles[guildID] {
		if role.Name == name {
			return role, true, nil
		}
	}

	return Role{}, false, nil
}

func (f *Fake) Roles(_ context.Context, guildID snowflake.ID) ([]Role, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	return append([]Role(nil), f.roles[guildID]...), nil
}

func (f *Fake) Kick(_ context.Context, _, userID snowflake.ID, _ string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.kicked = append(f.kicked, userID)

	return nil
}

func (f *Fake) Timeout(_ context.Context, _, userID snowflake.ID, until time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if until.IsZero() {
		delete(f.timeouts, userID)
		return nil
	}

	f.timeouts[userID] = until

	return nil
}

func (f *Fake) FetchUser(_ context.Context, userID snowflake.ID) (User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	user, ok := f.users[userID]
	if !ok {
		return User{}, ErrNotFound
	}

	return user, nil
}

func (f *Fake) FetchMember(_ context.Context, guildID, userID snowflake.ID) (Member, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	user, ok := f.users[userID]
	if !ok {
		return Member{}, ErrNotFound
	}

	return Member{User: user, GuildID: guildID}, nil
}

func (f *Fake) FetchGuild(_ context.Context, guildID snowflake.ID) (Guild, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	guild, ok := f.guilds[guildID]
	if !ok {
		return Guild{}, ErrNotFound
	}

	return guild, nil
}

func (f *Fake) Latency() time.Duration {
	return 42 * time.Millisecond
}

func (f *Fake) addChannelLocked(guildID snowflake.ID, name string) snowflake.ID {
	if f.channels[guildID] == nil {
		f.channels[guildID] = make(map[string]snowflake.ID)
	}

	f.nextID++
	f.channels[guildID][name] = f.nextID

	return f.nextID
}
