package config

import "time"

// Application constants for the deposit-beta panel builder.
const (
	AppName    = "depositbeta"
	AppVersion = "1.2.0"

	// Column naming. Fields slated for annualization are stored under the
	// raw_ prefix so the cumulative figure never collides with its
	// annualized counterpart.
	RawFieldPrefix   = "raw_"
	AnnualizedPrefix = "annualized_"

	// Panel defaults
	DefaultRankThreshold = 200
	DefaultStartYear     = 1950

	// Upstream APIs
	FDICFinancialsURL   = "https://banks.data.fdic.gov/api/financials"
	FREDObservationsURL = "https://api.stlouisfed.org/fred/series/observations"

	// Fetch tuning
	DefaultFetchBatchSize = 100
	DefaultFetchRPS       = 5.0
	DefaultFetchBurst     = 5
	DefaultHTTPTimeout    = 30 * time.Second

	// RateDecimalPlaces bounds persisted rate precision; the downstream
	// fit expects six decimals.
	RateDecimalPlaces = 6

	// File layout (relative to the data directory)
	DefaultRawFilingsDir = "raw/fdic"
	DefaultRatesFile     = "raw/rates/fred_data.csv"
	DefaultProcessedDir  = "processed"
	RankReferenceName    = "institution_details.csv"

	// NameField is the filing field holding the institution's legal name,
	// sampled roughly once a year when resolving rank-reference names.
	NameField = "NAME"

	// AssetField drives the institution size ranking.
	AssetField = "ASSET"
)

// AnnualizeFields are the cumulative year-to-date flow fields converted to
// annualized run rates by the pipeline.
var AnnualizeFields = []string{"EDEPDOM", "INTINCY", "NONII"}

// NonAnnualizeFields are point-in-time balance fields carried through as-is.
var NonAnnualizeFields = []string{
	"DEPDOM", "DEP", "DEPFOR", "DEPNIDOM", "DEPIDOM", "BRO", "DEPINS",
	"LNLSNET", "SC", "ASSET", "LNCON",
}

// RatioSpec names one derived ratio: Output = Numerator / Denominator, null
// when either operand is null or the denominator is zero.
type RatioSpec struct {
	Numerator   string
	Denominator string
	Output      string
}

// RatioSpecs is the fixed table of derived panel ratios. The last entry is
// the deposit cost rate, the primary regression target downstream.
var RatioSpecs = []RatioSpec{
	{"DEPINS", "DEPDOM", "insured_deposit_percentage"},
	{"DEPNIDOM", "DEPDOM", "nib_deposit_percentage"},
	{"BRO", "DEPDOM", "brokered_deposit_percentage"},
	{"SC", "ASSET", "securities_asset_percentage"},
	{"annualized_NONII", "annualized_INTINCY", "nonii_revenue_percentage"},
	{"annualized_EDEPDOM", "DEPDOM", "deposit_expense_rate"},
}

// RateFields are the macro rate columns joined onto the panel, in output
// order.
var RateFields = []string{
	"ff_t", "ff_e", "t_1m", "t_3m", "t_6m", "t_12m",
	"t_2y", "t_3y", "t_5y", "t_7y", "t_10y", "t_30y",
}

// FREDSeriesIDs maps each rate column to its FRED series identifier.
var FREDSeriesIDs = map[string]string{
	"ff_t":  "DFEDTAR",
	"ff_e":  "DFF",
	"t_1m":  "DGS1MO",
	"t_3m":  "DGS3MO",
	"t_6m":  "DGS6MO",
	"t_12m": "DGS1",
	"t_2y":  "DGS2",
	"t_3y":  "DGS3",
	"t_5y":  "DGS5",
	"t_7y":  "DGS7",
	"t_10y": "DGS10",
	"t_30y": "DGS30",
}

// DownloadFields is the full set of financial fields pulled from the FDIC
// API per period. It is a superset of the modeled fields so the raw extent
// can serve future panels without re-downloading.
var DownloadFields = []string{
	"DEPSMAMT", "DEPSMB", "NTRCDSM", "NTRTMMED", "NTRTMLGJ", "DEPLGAMT",
	"DEPDOM", "DEP", "DEPFOR", "DDT", "NTRSMMDA", "NTRSOTH", "TS",
	"DEPNIDOM", "DEPIDOM", "COREDEP", "BRO", "DEPINS", "EDEPDOM",
	"EINTEXP", "EDEPFOR", "INTINCY", "INTEXPY", "NIMY", "LNLSNET",
	"SC", "ASSET", "LNCON", "LNRECON", "NONII", "ROA", "ROE",
	"CAPRATE", "EFFRATIO", "NPL", "T1CAPR", "DIVPAYOUT", "COF", "NCO",
	"LIQRATIO", "MKTDEP", "IRR", "OPINC", "OPEXP", "DEFLOAN",
	"SHORTDEBT", "DEBT",
}
