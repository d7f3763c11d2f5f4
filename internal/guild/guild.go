// Package guild stores per-guild settings: command prefixes, custom commands
// and reaction-role bindings.
package guild

import (
	"errors"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/disgoorg/snowflake/v2"
	"github.com/robalyx/keeper/internal/storage"
	"github.com/robalyx/keeper/internal/storage/types"
)

// MaxPrefixLength is the longest accepted command prefix.
const MaxPrefixLength = 3

var (
	// ErrInvalidPrefix is returned for prefixes that are empty, too long or contain spaces.
	ErrInvalidPrefix = errors.New("prefix must be 1 to 3 characters without spaces")
	// ErrInvalidTrigger is returned for empty custom command triggers or responses.
	ErrInvalidTrigger = errors.New("trigger and response must not be empty")
	// ErrCommandNotFound is returned when deleting an unknown custom command.
	ErrCommandNotFound = errors.New("custom command not found")
)

// Settings reads and writes guild settings in the document.
type Settings struct {
	store         *storage.Store
	defaultPrefix string
}

// NewSettings creates guild settings with the prefix used by guilds that never set one.
func NewSettings(store *storage.Store, defaultPrefix string) *Settings {
	if defaultPrefix == "" {
		defaultPrefix = "!"
	}

	return &Settings{
		store:         store,
		defaultPrefix: defaultPrefix,
	}
}

// Prefix returns the guild's command prefix.
func (s *Settings) Prefix(guildID snowflake.ID) string {
	prefix := s.defaultPrefix

	s.store.View(func(doc *types.Document) {
		if p, ok := doc.Prefixes[guildID.String()]; ok && p != "" {
			prefix = p
		}
	})

	return prefix
}

// SetPrefix changes the guild's command prefix.
func (s *Settings) SetPrefix(guildID snowflake.ID, prefix string) error {
	if n := utf8.RuneCountInString(prefix); n < 1 || n > MaxPrefixLength || strings.ContainsAny(prefix, " \t\n") {
		return ErrInvalidPrefix
	}

	return s.store.Update(func(doc *types.Document) error {
		doc.Prefixes[guildID.String()] = prefix
		return nil
	})
}

// CustomResponse returns the response of the custom command whose trigger equals
// the whole message, ignoring case.
func (s *Settings) CustomResponse(guildID snowflake.ID, content string) (string, bool) {
	var (
		response string
		ok       bool
	)

	s.store.View(func(doc *types.Document) {
		response, ok = doc.CustomCommands[guildID.String()][strings.ToLower(content)]
	})

	return response, ok
}

// SetCustomCommand stores or replaces a custom command.
func (s *Settings) SetCustomCommand(guildID snowflake.ID, trigger, response string) error {
	trigger = strings.ToLower(strings.TrimSpace(trigger))
	if trigger == "" || strings.TrimSpace(response) == "" {
		return ErrInvalidTrigger
	}

	return s.store.Update(func(doc *types.Document) error {
		key := guildID.String()
		if doc.CustomCommands[key] == nil {
			doc.CustomCommands[key] = make(map[string]string)
		}
		doc.CustomCommands[key][trigger] = response

		return nil
	})
}

// DeleteCustomCommand removes a custom command.
func (s *Settings) DeleteCustomCommand(guildID snowflake.ID, trigger string) error {
	trigger = strings.ToLower(strings.TrimSpace(trigger))

	return s.store.Update(func(doc *types.Document) error {
		commands := doc.CustomCommands[guildID.String()]
		if _, ok := commands[trigger]; !ok {
			return ErrCommandNotFound
		}
		delete(commands, trigger)

		return nil
	})
}

// CustomCommands returns the guild's triggers in alphabetical order.
func (s *Settings) CustomCommands(guildID snowflake.ID) []string {
	var triggers []string

	s.store.View(func(doc *types.Document) {
		for trigger := range doc.CustomCommands[guildID.String()] {
			triggers = append(triggers, trigger)
		}
	})

	sort.Strings(triggers)

	return triggers
}

// SetReactionRole binds an emoji on a message to a role.
func (s *Settings) SetReactionRole(messageID snowflake.ID, emoji string, roleID snowflake.ID) error {
	return s.store.Update(func(doc *types.Document) error {
		key := messageID.String()
		if doc.ReactionRoles[key] == nil {
			doc.ReactionRoles[key] = make(map[string]string)
		}
		doc.ReactionRoles[key][emoji] = roleID.String()

		return nil
	})
}

// ReactionRole returns the role bound to an emoji on a message.
func (s *Settings) ReactionRole(messageID snowflake.ID, emoji string) (snowflake.ID, bool) {
	var raw string

	s.store.View(func(doc *types.Document) {
		raw = doc.ReactionRoles[messageID.String()][emoji]
	})

	if raw == "" {
		return 0, false
	}

	roleID, err := snowflake.Parse(raw)
	if err != nil {
		return 0, false
	}

	return roleID, true
}
