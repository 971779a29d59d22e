package commands

import (
	"github.com/disgoorg/disgo/discord"
)

var Commands = []discord.ApplicationCommandCreate{
	Stock,
	Import,
	Imports,
	Merchant,
	Version,
}
