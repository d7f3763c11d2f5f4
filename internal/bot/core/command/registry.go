// Package command holds the prefix command registry. Each command declares
// its aliases, the capability it requires and its minimum argument count so
// that the registry can reject bad invocations before the handler runs.
package command

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/disgoorg/snowflake/v2"
	"github.com/robalyx/keeper/internal/platform"
)

var (
	// ErrUnknownCommand is returned by Dispatch for names nobody registered.
	ErrUnknownCommand = errors.New("unknown command")
	// ErrDuplicateCommand is returned by Register when a name or alias is taken.
	ErrDuplicateCommand = errors.New("duplicate command name")
)

// DeniedError is returned when the author lacks the command's capability.
type DeniedError struct {
	Capability platform.Capability
}

func (e *DeniedError) Error() string {
	return "missing capability: " + e.Capability.String()
}

// UsageError is returned when fewer arguments than required were given.
type UsageError struct {
	Usage string
}

func (e *UsageError) Error() string {
	return "usage: " + e.Usage
}

// Category groups commands in the help listing.
type Category string

const (
	CategoryLeveling   Category = "📊 Leveling"
	CategoryEconomy    Category = "💰 Economy"
	CategoryModeration Category = "🛡️ Moderation"
	CategoryAdmin      Category = "👑 Admin Tools"
	CategoryTickets    Category = "🎫 Ticket System"
	CategoryFun        Category = "🎮 Fun"
	CategoryUtility    Category = "⚙️ Utility"
)

// Categories lists the categories in help order.
var Categories = []Category{
	CategoryLeveling, CategoryEconomy, CategoryModeration, CategoryAdmin,
	CategoryTickets, CategoryFun, CategoryUtility,
}

// HandlerFunc runs a command.
type HandlerFunc func(c *Context) error

// Command describes one prefix command.
type Command struct {
	Name        string
	Aliases     []string
	Category    Category
	Description string
	// Usage omits the prefix, e.g. "warn @user [reason]".
	Usage string
	// Requires lists capabilities the author must hold; any one of them suffices.
	Requires []platform.Capability
	MinArgs  int
	Handler  HandlerFunc
}

// Context carries one invocation.
type Context struct {
	context.Context

	Adapter   platform.Adapter
	GuildID   snowflake.ID
	ChannelID snowflake.ID
	MessageID snowflake.ID
	Author    platform.User
	Prefix    string
	Name      string
	Args      []string
	// Mentions in the order the platform reported them.
	MentionedUsers []snowflake.ID
	MentionedRoles []snowflake.ID
}

// Send posts a message to the invocation channel.
func (c *Context) Send(message platform.Message) (snowflake.ID, error) {
	return c.Adapter.SendMessage(c, c.ChannelID, message)
}

// SendEmbed posts a single embed to the invocation channel.
func (c *Context) SendEmbed(embed platform.Embed) error {
	_, err := c.Send(platform.Message{Embeds: []platform.Embed{embed}})
	return err
}

// Reply answers the invoking message with text.
func (c *Context) Reply(content string) error {
	_, err := c.Send(platform.Message{Content: content, ReplyTo: c.MessageID})
	return err
}

// Rest joins the arguments from index i on.
func (c *Context) Rest(i int) string {
	if i >= len(c.Args) {
		return ""
	}
	return strings.Join(c.Args[i:], " ")
}

// Registry maps names and aliases to commands.
type Registry struct {
	commands []*Command
	lookup   map[string]*Command
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{lookup: make(map[string]*Command)}
}

// Register adds commands. Names and aliases are case-insensitive and unique.
func (r *Registry) Register(commands ...*Command) error {
	for _, cmd := range commands {
		names := append([]string{cmd.Name}, cmd.Aliases...)
		for _, name := range names {
			if _, exists := r.lookup[strings.ToLower(name)]; exists {
				return fmt.Errorf("%w: %s", ErrDuplicateCommand, name)
			}
		}

		for _, name := range names {
			r.lookup[strings.ToLower(name)] = cmd
		}
		r.commands = append(r.commands, cmd)
	}

	return nil
}

// Lookup finds a command by name or alias.
func (r *Registry) Lookup(name string) (*Command, bool) {
	cmd, ok := r.lookup[strings.ToLower(name)]
	return cmd, ok
}

// Commands returns the registered commands in registration order.
func (r *Registry) Commands() []*Command {
	return append([]*Command(nil), r.commands...)
}

// Dispatch checks capability and argument count, then runs the handler.
// c.Name selects the command.
func (r *Registry) Dispatch(c *Context) error {
	cmd, ok := r.Lookup(c.Name)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownCommand, c.Name)
	}

	if len(cmd.Requires) > 0 {
		allowed := false
		for _, capability := range cmd.Requires {
			has, err := c.Adapter.HasCapability(c, c.GuildID, c.Author.ID, capability)
			if err != nil {
				return fmt.Errorf("failed to check capability: %w", err)
			}
			if has {
				allowed = true
				break
			}
		}
		if !allowed {
			return &DeniedError{Capability: cmd.Requires[0]}
		}
	}

	if len(c.Args) < cmd.MinArgs {
		return &UsageError{Usage: cmd.Usage}
	}

	return cmd.Handler(c)
}

// Parse splits content into a lower-cased command name and arguments when it
// starts with prefix.
func Parse(content, prefix string) (name string, args []string, ok bool) {
	if prefix == "" || !strings.HasPrefix(content, prefix) {
		return "", nil, false
	}

	fields := strings.Fields(content[len(prefix):])
	if len(fields) == 0 {
		return "", nil, false
	}

	return strings.ToLower(fields[0]), fields[1:], true
}
