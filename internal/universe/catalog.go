package universe

import "argus/internal/domain"

const (
	sectorTech        = "Technology"
	sectorFinancials  = "Financial Services"
	sectorHealthcare  = "Healthcare"
	sectorConsumerDef = "Consumer Defensive"
	sectorConsumerCyc = "Consumer Cyclical"
	sectorIndustrials = "Industrials"
	sectorEnergy      = "Energy"
	sectorComms       = "Communication Services"
	sectorUtilities   = "Utilities"
	sectorRealEstate  = "Real Estate"
	sectorMaterials   = "Basic Materials"
)

// defaultCatalog is the large-cap seed set used when the universe table is
// empty.
var defaultCatalog = []domain.UniverseEntry{
	{Symbol: "AAPL", Name: "Apple Inc.", Sector: sectorTech},
	{Symbol: "MSFT", Name: "Microsoft Corporation", Sector: sectorTech},
	{Symbol: "GOOGL", Name: "Alphabet Inc.", Sector: sectorTech},
	{Symbol: "AMZN", Name: "Amazon.com Inc.", Sector: sectorConsumerCyc},
	{Symbol: "NVDA", Name: "NVIDIA Corporation", Sector: sectorTech},
	{Symbol: "META", Name: "Meta Platforms Inc.", Sector: sectorTech},
	{Symbol: "TSLA", Name: "Tesla Inc.", Sector: sectorConsumerCyc},
	{Symbol: "AVGO", Name: "Broadcom Inc.", Sector: sectorTech},
	{Symbol: "ORCL", Name: "Oracle Corporation", Sector: sectorTech},
	{Symbol: "ADBE", Name: "Adobe Inc.", Sector: sectorTech},
	{Symbol: "CRM", Name: "Salesforce Inc.", Sector: sectorTech},
	{Symbol: "AMD", Name: "Advanced Micro Devices", Sector: sectorTech},
	{Symbol: "CSCO", Name: "Cisco Systems Inc.", Sector: sectorTech},
	{Symbol: "ACN", Name: "Accenture plc", Sector: sectorTech},
	{Symbol: "INTC", Name: "Intel Corporation", Sector: sectorTech},
	{Symbol: "IBM", Name: "IBM Corporation", Sector: sectorTech},
	{Symbol: "QCOM", Name: "Qualcomm Inc.", Sector: sectorTech},
	{Symbol: "TXN", Name: "Texas Instruments", Sector: sectorTech},
	{Symbol: "INTU", Name: "Intuit Inc.", Sector: sectorTech},
	{Symbol: "AMAT", Name: "Applied Materials", Sector: sectorTech},
	{Symbol: "NOW", Name: "ServiceNow Inc.", Sector: sectorTech},
	{Symbol: "MU", Name: "Micron Technology", Sector: sectorTech},
	{Symbol: "LRCX", Name: "Lam Research", Sector: sectorTech},
	{Symbol: "ADI", Name: "Analog Devices", Sector: sectorTech},
	{Symbol: "KLAC", Name: "KLA Corporation", Sector: sectorTech},

	{Symbol: "BRK-B", Name: "Berkshire Hathaway", Sector: sectorFinancials},
	{Symbol: "JPM", Name: "JPMorgan Chase", Sector: sectorFinancials},
	{Symbol: "V", Name: "Visa Inc.", Sector: sectorFinancials},
	{Symbol: "MA", Name: "Mastercard Inc.", Sector: sectorFinancials},
	{Symbol: "BAC", Name: "Bank of America", Sector: sectorFinancials},
	{Symbol: "WFC", Name: "Wells Fargo", Sector: sectorFinancials},
	{Symbol: "GS", Name: "Goldman Sachs", Sector: sectorFinancials},
	{Symbol: "MS", Name: "Morgan Stanley", Sector: sectorFinancials},
	{Symbol: "BLK", Name: "BlackRock Inc.", Sector: sectorFinancials},
	{Symbol: "SPGI", Name: "S&P Global", Sector: sectorFinancials},
	{Symbol: "AXP", Name: "American Express", Sector: sectorFinancials},
	{Symbol: "C", Name: "Citigroup Inc.", Sector: sectorFinancials},
	{Symbol: "SCHW", Name: "Charles Schwab", Sector: sectorFinancials},
	{Symbol: "PGR", Name: "Progressive Corp.", Sector: sectorFinancials},
	{Symbol: "CB", Name: "Chubb Limited", Sector: sectorFinancials},

	{Symbol: "UNH", Name: "UnitedHealth Group", Sector: sectorHealthcare},
	{Symbol: "JNJ", Name: "Johnson & Johnson", Sector: sectorHealthcare},
	{Symbol: "LLY", Name: "Eli Lilly", Sector: sectorHealthcare},
	{Symbol: "PFE", Name: "Pfizer Inc.", Sector: sectorHealthcare},
	{Symbol: "ABBV", Name: "AbbVie Inc.", Sector: sectorHealthcare},
	{Symbol: "MRK", Name: "Merck & Co.", Sector: sectorHealthcare},
	{Symbol: "TMO", Name: "Thermo Fisher Scientific", Sector: sectorHealthcare},
	{Symbol: "ABT", Name: "Abbott Laboratories", Sector: sectorHealthcare},
	{Symbol: "DHR", Name: "Danaher Corporation", Sector: sectorHealthcare},
	{Symbol: "BMY", Name: "Bristol-Myers Squibb", Sector: sectorHealthcare},
	{Symbol: "AMGN", Name: "Amgen Inc.", Sector: sectorHealthcare},
	{Symbol: "GILD", Name: "Gilead Sciences", Sector: sectorHealthcare},
	{Symbol: "ISRG", Name: "Intuitive Surgical", Sector: sectorHealthcare},
	{Symbol: "VRTX", Name: "Vertex Pharmaceuticals", Sector: sectorHealthcare},
	{Symbol: "REGN", Name: "Regeneron Pharmaceuticals", Sector: sectorHealthcare},

	{Symbol: "WMT", Name: "Walmart Inc.", Sector: sectorConsumerDef},
	{Symbol: "PG", Name: "Procter & Gamble", Sector: sectorConsumerDef},
	{Symbol: "KO", Name: "Coca-Cola Company", Sector: sectorConsumerDef},
	{Symbol: "PEP", Name: "PepsiCo Inc.", Sector: sectorConsumerDef},
	{Symbol: "COST", Name: "Costco Wholesale", Sector: sectorConsumerDef},
	{Symbol: "HD", Name: "Home Depot", Sector: sectorConsumerCyc},
	{Symbol: "MCD", Name: "McDonald's Corp.", Sector: sectorConsumerCyc},
	{Symbol: "NKE", Name: "Nike Inc.", Sector: sectorConsumerCyc},
	{Symbol: "SBUX", Name: "Starbucks Corp.", Sector: sectorConsumerCyc},
	{Symbol: "TGT", Name: "Target Corporation", Sector: sectorConsumerCyc},
	{Symbol: "LOW", Name: "Lowe's Companies", Sector: sectorConsumerCyc},
	{Symbol: "TJX", Name: "TJX Companies", Sector: sectorConsumerCyc},
	{Symbol: "BKNG", Name: "Booking Holdings", Sector: sectorConsumerCyc},
	{Symbol: "CMG", Name: "Chipotle Mexican Grill", Sector: sectorConsumerCyc},
	{Symbol: "ORLY", Name: "O'Reilly Automotive", Sector: sectorConsumerCyc},

	{Symbol: "CAT", Name: "Caterpillar Inc.", Sector: sectorIndustrials},
	{Symbol: "GE", Name: "General Electric", Sector: sectorIndustrials},
	{Symbol: "UNP", Name: "Union Pacific", Sector: sectorIndustrials},
	{Symbol: "RTX", Name: "RTX Corporation", Sector: sectorIndustrials},
	{Symbol: "HON", Name: "Honeywell International", Sector: sectorIndustrials},
	{Symbol: "BA", Name: "Boeing Company", Sector: sectorIndustrials},
	{Symbol: "UPS", Name: "United Parcel Service", Sector: sectorIndustrials},
	{Symbol: "LMT", Name: "Lockheed Martin", Sector: sectorIndustrials},
	{Symbol: "DE", Name: "Deere & Company", Sector: sectorIndustrials},
	{Symbol: "MMM", Name: "3M Company", Sector: sectorIndustrials},
	{Symbol: "GD", Name: "General Dynamics", Sector: sectorIndustrials},
	{Symbol: "ETN", Name: "Eaton Corporation", Sector: sectorIndustrials},
	{Symbol: "ITW", Name: "Illinois Tool Works", Sector: sectorIndustrials},
	{Symbol: "EMR", Name: "Emerson Electric", Sector: sectorIndustrials},
	{Symbol: "FDX", Name: "FedEx Corporation", Sector: sectorIndustrials},

	{Symbol: "XOM", Name: "Exxon Mobil", Sector: sectorEnergy},
	{Symbol: "CVX", Name: "Chevron Corporation", Sector: sectorEnergy},
	{Symbol: "COP", Name: "ConocoPhillips", Sector: sectorEnergy},
	{Symbol: "SLB", Name: "Schlumberger", Sector: sectorEnergy},
	{Symbol: "EOG", Name: "EOG Resources", Sector: sectorEnergy},
	{Symbol: "MPC", Name: "Marathon Petroleum", Sector: sectorEnergy},
	{Symbol: "PSX", Name: "Phillips 66", Sector: sectorEnergy},
	{Symbol: "VLO", Name: "Valero Energy", Sector: sectorEnergy},
	{Symbol: "OXY", Name: "Occidental Petroleum", Sector: sectorEnergy},
	{Symbol: "PXD", Name: "Pioneer Natural Resources", Sector: sectorEnergy},

	{Symbol: "DIS", Name: "Walt Disney Company", Sector: sectorComms},
	{Symbol: "NFLX", Name: "Netflix Inc.", Sector: sectorComms},
	{Symbol: "CMCSA", Name: "Comcast Corporation", Sector: sectorComms},
	{Symbol: "VZ", Name: "Verizon Communications", Sector: sectorComms},
	{Symbol: "T", Name: "AT&T Inc.", Sector: sectorComms},
	{Symbol: "TMUS", Name: "T-Mobile US", Sector: sectorComms},
	{Symbol: "CHTR", Name: "Charter Communications", Sector: sectorComms},

	{Symbol: "NEE", Name: "NextEra Energy", Sector: sectorUtilities},
	{Symbol: "DUK", Name: "Duke Energy", Sector: sectorUtilities},
	{Symbol: "SO", Name: "Southern Company", Sector: sectorUtilities},
	{Symbol: "D", Name: "Dominion Energy", Sector: sectorUtilities},
	{Symbol: "AEP", Name: "American Electric Power", Sector: sectorUtilities},
	{Symbol: "PLD", Name: "Prologis Inc.", Sector: sectorRealEstate},
	{Symbol: "AMT", Name: "American Tower", Sector: sectorRealEstate},
	{Symbol: "EQIX", Name: "Equinix Inc.", Sector: sectorRealEstate},
	{Symbol: "CCI", Name: "Crown Castle", Sector: sectorRealEstate},
	{Symbol: "SPG", Name: "Simon Property Group", Sector: sectorRealEstate},

	{Symbol: "LIN", Name: "Linde plc", Sector: sectorMaterials},
	{Symbol: "APD", Name: "Air Products", Sector: sectorMaterials},
	{Symbol: "SHW", Name: "Sherwin-Williams", Sector: sectorMaterials},
	{Symbol: "ECL", Name: "Ecolab Inc.", Sector: sectorMaterials},
	{Symbol: "FCX", Name: "Freeport-McMoRan", Sector: sectorMaterials},
	{Symbol: "NEM", Name: "Newmont Corporation", Sector: sectorMaterials},
	{Symbol: "DOW", Name: "Dow Inc.", Sector: sectorMaterials},
}

// DefaultEntries returns a copy of the seed catalog.
func DefaultEntries() []domain.UniverseEntry {
	out := make([]domain.UniverseEntry, len(defaultCatalog))
	copy(out, defaultCatalog)
	return out
}
