// Package exporter writes the pipeline's CSV artifacts.
//
// PanelWriter persists the finished institution-by-quarter panel and can read
// it back for serving. RankWriter persists the asset rank reference table.
// RawWriter writes the raw per-period filing files and the macro rate series
// produced by the fetch tooling.
//
// All writers go through a temp file plus rename so a crash mid-write never
// leaves a truncated artifact behind.
package exporter
