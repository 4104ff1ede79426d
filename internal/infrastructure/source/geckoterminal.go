package source

const GeckoTerminal = "geckoterminal"

func init() {
	Register(GeckoTerminal, "https://api.geckoterminal.com/api/v2/networks/solana/tokens/"+QueryPlaceholder)
}
