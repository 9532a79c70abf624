package rawstore

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"depositbeta/pkg/contracts/domain"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestDiscoverFilings(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "20230630.csv", "Cert,Field,Value\n")
	writeFile(t, dir, "20230331.csv", "Cert,Field,Value\n")
	writeFile(t, dir, "20231231.xlsx", "")
	writeFile(t, dir, "19400331.csv", "Cert,Field,Value\n")
	writeFile(t, dir, "notes.txt", "ignore me")
	writeFile(t, dir, "summary.csv", "not a period\n")
	require.NoError(t, os.Mkdir(filepath.Join(dir, "20230930.csv"), 0o755))

	files, err := DiscoverFilings(dir, 1950)
	require.NoError(t, err)

	require.Len(t, files, 3)
	assert.Equal(t, domain.Period("20230331"), files[0].Period)
	assert.Equal(t, domain.Period("20230630"), files[1].Period)
	assert.Equal(t, domain.Period("20231231"), files[2].Period)
	assert.Equal(t, "20231231.xlsx", files[2].Name)
}

func TestReadFilingCSV(t *testing.T) {
	t.Run("parses rows and ignores extra columns", func(t *testing.T) {
		dir := t.TempDir()
		path := writeFile(t, dir, "20230331.csv",
			"Date,Cert,Field,Value\n"+
				"20230331,14,ASSET,1234.5\n"+
				"20230331,14,EDEPDOM,40\n"+
				"20230331,628,ASSET,999\n")

		records, err := ReadFiling(FilingFile{Path: path, Name: "20230331.csv", Period: "20230331"})
		require.NoError(t, err)

		require.Len(t, records, 3)
		assert.Equal(t, domain.RawRecord{Period: "20230331", Cert: 14, Field: "ASSET", Value: 1234.5}, records[0])
		assert.Equal(t, 628, records[2].Cert)
	})

	t.Run("drops rows with unparseable cells", func(t *testing.T) {
		dir := t.TempDir()
		path := writeFile(t, dir, "20230331.csv",
			"Cert,Field,Value\n"+
				"14,ASSET,100\n"+
				"not-a-cert,ASSET,100\n"+
				"14,ASSET,\n"+
				"14,,5\n")

		records, err := ReadFiling(FilingFile{Path: path, Name: "20230331.csv", Period: "20230331"})
		require.NoError(t, err)
		require.Len(t, records, 1)
	})

	t.Run("missing required column is a schema error", func(t *testing.T) {
		dir := t.TempDir()
		path := writeFile(t, dir, "20230331.csv", "Cert,Amount\n14,100\n")

		_, err := ReadFiling(FilingFile{Path: path, Name: "20230331.csv", Period: "20230331"})
		require.ErrorIs(t, err, ErrSchemaMismatch)
	})
}

func TestReadFilingXLSX(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "20230630.xlsx")

	wb := excelize.NewFile()
	sheet := wb.GetSheetName(0)
	require.NoError(t, wb.SetSheetRow(sheet, "A1", &[]any{"Cert", "Field", "Value"}))
	require.NoError(t, wb.SetSheetRow(sheet, "A2", &[]any{14, "ASSET", 1234.5}))
	require.NoError(t, wb.SetSheetRow(sheet, "A3", &[]any{628, "DEPDOM", 500}))
	require.NoError(t, wb.SaveAs(path))

	records, err := ReadFiling(FilingFile{Path: path, Name: "20230630.xlsx", Period: "20230630"})
	require.NoError(t, err)

	require.Len(t, records, 2)
	assert.Equal(t, domain.RawRecord{Period: "20230630", Cert: 14, Field: "ASSET", Value: 1234.5}, records[0])
	assert.Equal(t, domain.RawRecord{Period: "20230630", Cert: 628, Field: "DEPDOM", Value: 500}, records[1])
}

func TestLoadRawRecords(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "20230331.csv", "Cert,Field,Value\n14,ASSET,100\n")
	writeFile(t, dir, "20230630.csv", "Cert,Field,Value\n14,ASSET,110\n628,ASSET,90\n")

	records, err := LoadRawRecords(context.Background(), dir, 1950)
	require.NoError(t, err)

	require.Len(t, records, 3)
	assert.Equal(t, domain.Period("20230331"), records[0].Period)
	assert.Equal(t, domain.Period("20230630"), records[1].Period)
}

func TestLoadRankReference(t *testing.T) {
	t.Run("reads entries including pandas-style float ranks", func(t *testing.T) {
		dir := t.TempDir()
		path := writeFile(t, dir, "ranks.csv",
			"Cert,Best_Asset_Rank,Asset_Value,Period,Institution_Name\n"+
				"14,1.0,1234.5,20230331,First National\n"+
				"628,2,999,20230630,Second State\n")

		entries, err := LoadRankReference(path)
		require.NoError(t, err)

		require.Len(t, entries, 2)
		assert.Equal(t, domain.RankEntry{
			Cert: 14, BestRank: 1, AssetValue: 1234.5,
			Period: "20230331", Name: "First National",
		}, entries[0])
		assert.Equal(t, 2, entries[1].BestRank)
	})

	t.Run("missing rank column is a schema error", func(t *testing.T) {
		dir := t.TempDir()
		path := writeFile(t, dir, "ranks.csv", "Cert,Rank\n14,1\n")

		_, err := LoadRankReference(path)
		require.ErrorIs(t, err, ErrSchemaMismatch)
	})
}

func TestLoadRateSeries(t *testing.T) {
	t.Run("reads series with nulls for empty cells", func(t *testing.T) {
		dir := t.TempDir()
		path := writeFile(t, dir, "rates.csv",
			"date,ff_t,t_10y\n"+
				"2023-03-15,4.5,\n"+
				"2023-06-15,5.0,3.5\n")

		rs, err := LoadRateSeries(path, []string{"ff_t", "t_10y"})
		require.NoError(t, err)

		require.Len(t, rs.Points, 2)
		assert.Equal(t, []string{"ff_t", "t_10y"}, rs.Names)
		assert.Equal(t, domain.Num(4.5), rs.Points[0].Values["ff_t"])
		assert.False(t, rs.Points[0].Values["t_10y"].Valid)
		assert.Equal(t, domain.Num(3.5), rs.Points[1].Values["t_10y"])
	})

	t.Run("missing expected series is a schema error", func(t *testing.T) {
		dir := t.TempDir()
		path := writeFile(t, dir, "rates.csv", "date,ff_t\n2023-03-15,4.5\n")

		_, err := LoadRateSeries(path, []string{"ff_t", "t_10y"})
		require.ErrorIs(t, err, ErrSchemaMismatch)
	})
}
