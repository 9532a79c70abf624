// Package fetch pulls the raw inputs from their upstream sources: quarterly
// financial filings from the FDIC BankFind API and daily macro rate series
// from FRED. Both clients are rate limited and resumable; they write through
// the exporter so the raw extent on disk is always complete files.
package fetch
