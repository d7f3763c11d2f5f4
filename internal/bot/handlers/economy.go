package handlers

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/robalyx/keeper/internal/bot/constants"
	"github.com/robalyx/keeper/internal/bot/core/command"
	"github.com/robalyx/keeper/internal/bot/utils"
	"github.com/robalyx/keeper/internal/economy"
	"github.com/robalyx/keeper/internal/platform"
	pkgUtils "github.com/robalyx/keeper/pkg/utils"
)

func (h *Handlers) balance(c *command.Context) error {
	userID, _ := target(c, true)
	user := h.user(c, userID)

	record, err := h.economy.GetOrCreate(userID, c.GuildID)
	if err != nil {
		return err
	}

	return c.SendEmbed(platform.Embed{
		AuthorName: user.Username + "'s Balance",
		AuthorIcon: user.AvatarURL,
		Color:      constants.ColorGold,
		Fields: []platform.Field{
			{Name: "💰 Wallet", Value: utils.FormatCoins(record.Wallet), Inline: true},
			{Name: "🏦 Bank", Value: utils.FormatCoins(record.Bank), Inline: true},
			{Name: "💎 Total", Value: utils.FormatCoins(record.Total()), Inline: true},
		},
		Timestamp: h.clock.Now(),
	})
}

func (h *Handlers) claim(kind economy.ClaimKind) command.HandlerFunc {
	title := "💰 Daily Reward"
	if kind == economy.ClaimWeekly {
		title = "💰 Weekly Reward"
	}

	return func(c *command.Context) error {
		record, amount, err := h.economy.Claim(c.Author.ID, c.GuildID, kind)
		if err != nil {
			var cooldown *economy.CooldownError
			if errors.As(err, &cooldown) {
				return c.Reply(fmt.Sprintf("⏰ You already claimed your %s reward! Try again in **%s**",
					kind, pkgUtils.FormatDuration(cooldown.Remaining)))
			}
			return err
		}

		return c.SendEmbed(platform.Embed{
			Title: title,
			Description: fmt.Sprintf("You received **%s**!\n💎 Wallet: **%s**",
				utils.FormatCoins(amount), utils.FormatCoins(record.Wallet)),
			Color:     constants.ColorGreen,
			Timestamp: h.clock.Now(),
		})
	}
}

func (h *Handlers) work(c *command.Context) error {
	job, amount, err := h.economy.Work(c.Author.ID, c.GuildID)
	if err != nil {
		return err
	}

	return c.SendEmbed(platform.Embed{
		Title:       "💼 Work Result",
		Description: fmt.Sprintf("You worked as **%s** and earned **%s**!", job.Name, utils.FormatCoins(amount)),
		Color:       constants.ColorBlurple,
		Timestamp:   h.clock.Now(),
	})
}

func (h *Handlers) pay(c *command.Context) error {
	usage := "❌ Usage: `" + c.Prefix + "pay @user <amount>`"

	recipient, err := target(c, false)
	if err != nil {
		return c.Reply(usage)
	}

	amount, err := strconv.ParseInt(c.Args[len(c.Args)-1], 10, 64)
	if err != nil {
		return c.Reply(usage)
	}

	record, err := h.economy.Transfer(c.Author.ID, recipient, c.GuildID, amount)
	if err != nil {
		if reply, ok := economyErrorReply(err); ok {
			return c.Reply(reply)
		}
		return err
	}

	return c.SendEmbed(platform.Embed{
		Title: "💸 Payment Sent",
		Description: fmt.Sprintf("%s sent **%s** to <@%s>.\n💰 Your wallet: **%s**",
			c.Author.Mention(), utils.FormatCoins(amount), recipient, utils.FormatCoins(record.Wallet)),
		Color:     constants.ColorGreen,
		Timestamp: h.clock.Now(),
	})
}

func (h *Handlers) deposit(c *command.Context) error {
	amount, err := h.amountArgument(c, economy.Wallet)
	if err != nil {
		return c.Reply("❌ Usage: `" + c.Prefix + "deposit <amount|all>`")
	}

	record, err := h.economy.Deposit(c.Author.ID, c.GuildID, amount)
	if err != nil {
		if reply, ok := economyErrorReply(err); ok {
			return c.Reply(reply)
		}
		return err
	}

	return c.Reply(fmt.Sprintf("🏦 Deposited **%s**. Bank: **%s**",
		utils.FormatCoins(amount), utils.FormatCoins(record.Bank)))
}

func (h *Handlers) withdraw(c *command.Context) error {
	amount, err := h.amountArgument(c, economy.Bank)
	if err != nil {
		return c.Reply("❌ Usage: `" + c.Prefix + "withdraw <amount|all>`")
	}

	record, err := h.economy.Withdraw(c.Author.ID, c.GuildID, amount)
	if err != nil {
		if reply, ok := economyErrorReply(err); ok {
			return c.Reply(reply)
		}
		return err
	}

	return c.Reply(fmt.Sprintf("💰 Withdrew **%s**. Wallet: **%s**",
		utils.FormatCoins(amount), utils.FormatCoins(record.Wallet)))
}

// amountArgument parses the first argument; "all" means the whole source balance.
func (h *Handlers) amountArgument(c *command.Context, source economy.Target) (int64, error) {
	if strings.EqualFold(c.Args[0], "all") {
		record, err := h.economy.GetOrCreate(c.Author.ID, c.GuildID)
		if err != nil {
			return 0, err
		}
		if source == economy.Bank {
			return record.Bank, nil
		}
		return record.Wallet, nil
	}

	return strconv.ParseInt(c.Args[0], 10, 64)
}

// economyErrorReply maps ledger rejections to replies.
func economyErrorReply(err error) (string, bool) {
	switch {
	case errors.Is(err, economy.ErrInvalidAmount):
		return "❌ Amount must be a positive number!", true
	case errors.Is(err, economy.ErrInsufficientFunds):
		return "❌ You don't have enough coins!", true
	case errors.Is(err, economy.ErrSelfTransfer):
		return "❌ You can't pay yourself!", true
	default:
		return "", false
	}
}
