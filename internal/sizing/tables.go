package sizing

// sizingTable maps (band, side) to its sizing rule. Long exposure shrinks
// and short exposure grows as risk rises; EXTREME rules out longs entirely.
var sizingTable = map[Band]map[Side]Rule{
	BandMinimal: {
		SideLong:  {EquityPct: 0.54, Multiplier: 1.35, Leverage: 4.0, HoldDays: 10},
		SideShort: {EquityPct: 0.10, Multiplier: 0.25, Leverage: 4.0, HoldDays: 3},
	},
	BandLow: {
		SideLong:  {EquityPct: 0.44, Multiplier: 1.10, Leverage: 4.0, HoldDays: 10},
		SideShort: {EquityPct: 0.20, Multiplier: 0.50, Leverage: 4.0, HoldDays: 3},
	},
	BandMedium: {
		SideLong:  {EquityPct: 0.14, Multiplier: 0.35, Leverage: 2.5, HoldDays: 6},
		SideShort: {EquityPct: 0.46, Multiplier: 1.15, Leverage: 4.0, HoldDays: 5},
	},
	BandHigh: {
		SideLong:  {EquityPct: 0.08, Multiplier: 0.20, Leverage: 1.5, HoldDays: 4},
		SideShort: {EquityPct: 0.50, Multiplier: 1.25, Leverage: 4.0, HoldDays: 6},
	},
	BandExtreme: {
		SideLong:  {EquityPct: 0, Multiplier: 0, Leverage: 0, HoldDays: 0},
		SideShort: {EquityPct: 0.50, Multiplier: 1.25, Leverage: 4.0, HoldDays: 6},
	},
}

// trendOverride applies instead of the table when risk is MEDIUM or HIGH but
// improving: position like a calm regime while the stress unwinds. Leverage
// is zero here, meaning the sizer's base leverage applies.
var trendOverride = map[Side]Rule{
	SideLong:  {EquityPct: 0.50, Multiplier: 1.25, HoldDays: 10},
	SideShort: {EquityPct: 0.20, Multiplier: 0.50, HoldDays: 3},
}

// Hedging rule parameters
const (
	// hedgeMinThreshold is the score below which hedging is never
	// recommended
	hedgeMinThreshold = 0.41

	// hedgeAutoThreshold is the score at or above which hedging is
	// recommended regardless of trend
	hedgeAutoThreshold = 0.48

	hedgeLeverage = 3.2
	hedgeHoldDays = 20

	// hedgeDefaultEquityPct applies to bands without a specific entry
	hedgeDefaultEquityPct = 0.40
)

// hedgeEquityPct maps a band to the fraction of equity allocated to the
// hedge instrument when hedging is recommended
var hedgeEquityPct = map[Band]float64{
	BandExtreme: 0.50,
	BandHigh:    0.42,
}
