package source

const DexScreener = "dexscreener"

func init() {
	Register(DexScreener, "https://api.dexscreener.com/latest/dex/search?q="+QueryPlaceholder)
}
