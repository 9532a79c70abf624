package pipeline

import (
	"time"

	"depositbeta/pkg/contracts/domain"
)

// RunState carries the data flowing through a panel build. Stages run
// strictly in sequence, so no locking is needed on the data fields.
type RunState struct {
	// RunID identifies this build in logs and the run summary.
	RunID string

	// Records is the combined raw extent loaded from the filing files.
	Records []domain.RawRecord

	// Ranks holds the best-ever asset rank per institution.
	Ranks []domain.RankEntry

	// RankedCerts are the certificates at or under the rank threshold.
	RankedCerts map[int]bool

	// Panel is the working panel, rewritten as stages transform it.
	Panel *domain.Panel

	// Rates is the prepared macro rate series.
	Rates *domain.RateSeries

	// OutputPath is where the terminal stage wrote the panel.
	OutputPath string
}

// RunSummary is what a finished (or failed) build reports back.
type RunSummary struct {
	RunID      string        `json:"run_id"`
	Status     StageStatus   `json:"status"`
	Stages     []*StageState `json:"stages"`
	Rows       int           `json:"rows"`
	Columns    int           `json:"columns"`
	OutputPath string        `json:"output_path,omitempty"`
	Duration   time.Duration `json:"duration"`
}
