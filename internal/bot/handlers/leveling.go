package handlers

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/robalyx/keeper/internal/bot/constants"
	"github.com/robalyx/keeper/internal/bot/core/command"
	"github.com/robalyx/keeper/internal/bot/utils"
	"github.com/robalyx/keeper/internal/leveling"
	"github.com/robalyx/keeper/internal/platform"
	"github.com/sourcegraph/conc/pool"
)

func (h *Handlers) rank(c *command.Context) error {
	userID, _ := target(c, true)
	user := h.user(c, userID)

	record := h.leveling.GetRecord(userID, c.GuildID)

	rank := "Unranked"
	if position := h.leveling.Rank(userID, c.GuildID); position > 0 && position <= constants.RankLookupSize {
		rank = "#" + strconv.Itoa(position)
	}

	return c.SendEmbed(platform.Embed{
		AuthorName: user.Username,
		AuthorIcon: user.AvatarURL,
		Thumbnail:  user.AvatarURL,
		Color:      constants.ColorBlurple,
		Description: fmt.Sprintf("**Level:** %d\n**XP:** %d/%d\n**Rank:** %s\n**Messages:** %d",
			record.Level, record.XP, leveling.XPNeeded(record.Level), rank, record.Messages),
	})
}

func (h *Handlers) leaderboard(c *command.Context) error {
	entries := h.leveling.GetLeaderboard(c.GuildID, constants.LeaderboardSize)
	names := h.resolveNames(c, entries)

	var b strings.Builder
	for i, entry := range entries {
		fmt.Fprintf(&b, "%s %s - Level **%d** | %s messages\n",
			utils.Medal(i), names[i], entry.Level, utils.FormatNumber(entry.Messages))
	}

	description := b.String()
	if description == "" {
		description = "No leveling data yet"
	}

	return c.SendEmbed(platform.Embed{
		Title:       "🏆 Server Leaderboard",
		Description: description,
		Color:       constants.ColorGold,
		Footer:      fmt.Sprintf("Total %d users tracked", len(h.leveling.GetLeaderboard(c.GuildID, -1))),
		Timestamp:   h.clock.Now(),
	})
}

// resolveNames looks up the usernames of the leaderboard concurrently.
// Failed lookups render as the unknown-user placeholder.
func (h *Handlers) resolveNames(ctx context.Context, entries []leveling.Entry) []string {
	names := make([]string, len(entries))

	p := pool.New().WithContext(ctx).WithMaxGoroutines(constants.LeaderboardFetchConcurrency)
	for i, entry := range entries {
		p.Go(func(ctx context.Context) error {
			names[i] = h.user(ctx, entry.UserID).Username
			return nil
		})
	}
	_ = p.Wait()

	return names
}

func (h *Handlers) setLevel(c *command.Context) error {
	usage := "❌ Usage: `" + c.Prefix + "setlevel @user <level>`"

	userID, err := target(c, false)
	if err != nil {
		return c.Reply(usage)
	}

	level, err := strconv.ParseUint(c.Args[len(c.Args)-1], 10, 64)
	if err != nil {
		return c.Reply(usage)
	}

	if _, err := h.leveling.SetLevel(userID, c.GuildID, level); err != nil {
		if errors.Is(err, leveling.ErrInvalidLevel) {
			return c.Reply(usage)
		}
		return err
	}

	return c.Reply(fmt.Sprintf("✅ Level of <@%s> set to **%d**!", userID, level))
}
