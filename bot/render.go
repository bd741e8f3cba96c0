package bot

import (
	"fmt"
	"strconv"

	"github.com/bwmarrin/discordgo"
	"github.com/samber/lo"

	"github.com/warp/primo-estimator/estimate"
)

const (
	colorMenu     = 0x5865F2
	colorEstimate = 0xF1C40F
)

const howtoText = `Using the command '%[1]sprimos' spawns an interactive menu for the parameters an estimate needs:
- Blessing: whether you own the Blessing of the Welkin Moon.
- Abyss chambers: how many Spiral Abyss chambers you are confident you will 3-star each rotation.
- Imaginarium Theater stages: how many Imaginarium Theater stages you complete each rotation.
- Days: use the +1/+10/-10/-1 buttons to pick how many days ahead to estimate.
Press Estimate for a breakdown. The menu disappears after a period of inactivity.`

// howtoEmbed explains the menu.
func howtoEmbed(prefix string) *discordgo.MessageEmbed {
	return &discordgo.MessageEmbed{
		Title:       "How to use the primogem estimator",
		Description: fmt.Sprintf(howtoText, prefix),
		Color:       colorMenu,
	}
}

// menuMessage is the initial menu.
func menuMessage(c Choices) *discordgo.MessageSend {
	return &discordgo.MessageSend{
		Embeds:     []*discordgo.MessageEmbed{menuEmbed(c)},
		Components: menuComponents(c),
	}
}

func menuEmbed(c Choices) *discordgo.MessageEmbed {
	blessing := lo.Ternary(c.Blessing, "Yes", "No")
	return &discordgo.MessageEmbed{
		Title:       "Primogem Estimator",
		Description: "Estimate the minimum amount of primogems you will get in a certain amount of days",
		Color:       colorMenu,
		Fields: []*discordgo.MessageEmbedField{
			{Name: "Days", Value: strconv.Itoa(c.Days), Inline: true},
			{Name: "Welkin Moon", Value: blessing, Inline: true},
			{Name: "Abyss chambers", Value: strconv.Itoa(c.MidMonthUnits), Inline: true},
			{Name: "Theater stages", Value: strconv.Itoa(c.MonthStartUnits), Inline: true},
		},
	}
}

// menuComponents renders the three selects and the button row, marking the
// current choices as selected.
func menuComponents(c Choices) []discordgo.MessageComponent {
	one := 1
	return []discordgo.MessageComponent{
		discordgo.ActionsRow{Components: []discordgo.MessageComponent{
			discordgo.SelectMenu{
				MenuType:    discordgo.StringSelectMenu,
				CustomID:    IDBlessingMenu,
				Placeholder: "Welkin Moon",
				MinValues:   &one,
				MaxValues:   1,
				Options: []discordgo.SelectMenuOption{
					{Label: "Blessing", Value: "1", Default: c.Blessing},
					{Label: "No Blessing", Value: "0", Default: !c.Blessing},
				},
			},
		}},
		discordgo.ActionsRow{Components: []discordgo.MessageComponent{
			discordgo.SelectMenu{
				MenuType:    discordgo.StringSelectMenu,
				CustomID:    IDAbyssMenu,
				Placeholder: "3 star Abyss Chambers",
				MinValues:   &one,
				MaxValues:   1,
				Options:     numberOptions(MaxAbyssChambers, c.MidMonthUnits),
			},
		}},
		discordgo.ActionsRow{Components: []discordgo.MessageComponent{
			discordgo.SelectMenu{
				MenuType:    discordgo.StringSelectMenu,
				CustomID:    IDTheaterMenu,
				Placeholder: "Imaginarium Theater stages completed",
				MinValues:   &one,
				MaxValues:   1,
				Options:     numberOptions(MaxTheaterStages, c.MonthStartUnits),
			},
		}},
		discordgo.ActionsRow{Components: []discordgo.MessageComponent{
			discordgo.Button{CustomID: IDEstimate, Label: "Estimate", Style: discordgo.PrimaryButton},
			discordgo.Button{CustomID: IDPlusOne, Label: "+1 day", Style: discordgo.SuccessButton},
			discordgo.Button{CustomID: IDPlusTen, Label: "+10 days", Style: discordgo.SuccessButton},
			discordgo.Button{CustomID: IDMinusTen, Label: "-10 days", Style: discordgo.DangerButton},
			discordgo.Button{CustomID: IDMinusOne, Label: "-1 day", Style: discordgo.DangerButton},
		}},
	}
}

func numberOptions(maxValue, selected int) []discordgo.SelectMenuOption {
	return lo.Map(lo.RangeFrom(0, maxValue+1), func(v, _ int) discordgo.SelectMenuOption {
		s := strconv.Itoa(v)
		return discordgo.SelectMenuOption{Label: s, Value: s, Default: v == selected}
	})
}

// estimateEmbed renders a result as the reply to the Estimate button.
func estimateEmbed(r *estimate.Result) *discordgo.MessageEmbed {
	return &discordgo.MessageEmbed{
		Title:       "Primogem estimate",
		Description: estimate.FormatBreakdown(r),
		Color:       colorEstimate,
		Footer:      &discordgo.MessageEmbedFooter{Text: estimate.Summary(r)},
	}
}

// errorEmbed tells the user an estimate could not be produced.
func errorEmbed(err error) *discordgo.MessageEmbed {
	reason := "Something went wrong while estimating."
	if estimate.IsOverflow(err) {
		reason = "That many days goes past the end of the calendar. Try fewer days."
	}
	return &discordgo.MessageEmbed{
		Title:       "No estimate",
		Description: reason,
		Color:       0xE74C3C,
	}
}
