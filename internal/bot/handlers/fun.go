package handlers

import (
	"fmt"
	"strconv"

	"github.com/robalyx/keeper/internal/bot/constants"
	"github.com/robalyx/keeper/internal/bot/core/command"
	"github.com/robalyx/keeper/internal/platform"
)

const (
	defaultDieSides = 6
	maxDieSides     = 1_000_000
)

func (h *Handlers) eightBall(c *command.Context) error {
	answer := constants.EightBallAnswers[h.intN(len(constants.EightBallAnswers))]

	return c.SendEmbed(platform.Embed{
		Title: "🎱 Magic 8Ball",
		Color: constants.ColorBlurple,
		Fields: []platform.Field{
			{Name: "Question", Value: c.Rest(0)},
			{Name: "Answer", Value: answer},
		},
	})
}

func (h *Handlers) coinFlip(c *command.Context) error {
	result := "🪙 Heads!"
	if h.intN(2) == 1 {
		result = "🪙 Tails!"
	}

	return c.Reply(result)
}

func (h *Handlers) roll(c *command.Context) error {
	sides := defaultDieSides
	if len(c.Args) > 0 {
		n, err := strconv.Atoi(c.Args[0])
		if err != nil || n < 2 || n > maxDieSides {
			return c.Reply(fmt.Sprintf("❌ Sides must be a number between 2 and %d!", maxDieSides))
		}
		sides = n
	}

	return c.Reply(fmt.Sprintf("🎲 You rolled **%d** (1-%d)", h.intN(sides)+1, sides))
}
