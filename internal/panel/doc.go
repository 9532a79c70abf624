// Package panel implements the transformation pipeline that turns raw
// per-institution filing records into the analysis-ready modeling panel:
// aggregation of raw fields into one row per (period, institution),
// asset-based institution ranking with a small-bank tail aggregate,
// quarter-aware annualization of year-to-date flow fields, derived ratio
// computation, and the backward as-of join against the macro rate series.
//
// Every function here is a pure in-memory transform: the pipeline is a
// single-pass batch computation, re-running it over the same raw extent
// reproduces the same panel byte for byte.
package panel
