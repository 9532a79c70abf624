// Package rawstore reads the immutable raw inputs of the panel pipeline:
// the per-period filing files (one CSV or Excel workbook per reporting
// period, named YYYYMMDD), the rank reference table, and the macro rate
// series. It only ever reads; the raw extent is append-only and owned by the
// fetch tooling.
package rawstore
