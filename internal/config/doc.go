// Package config provides centralized configuration for the deposit-beta
// panel builder: environment variables (DB_* prefix) layered over an optional
// YAML file, the fixed reporting field lists and ratio table consumed by the
// pipeline, and path resolution relative to the executable.
//
// Configuration precedence, highest first:
//
//	1. Environment variables (DB_PANEL_RANK_THRESHOLD, DB_FETCH_FRED_API_KEY, ...)
//	2. config.yaml / configs/config.yaml
//	3. Struct defaults
//
// The field lists (AnnualizeFields, NonAnnualizeFields), the ratio
// derivation table (RatioSpecs), and the FRED series map are compile-time
// constants here rather than runtime configuration: the downstream model is
// fit against these exact columns.
package config
