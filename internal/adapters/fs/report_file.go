package fs

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/bft-labs/driveseq/internal/domain"
	"github.com/bft-labs/driveseq/internal/ports"
)

// ReportFileRepository implements ports.ReportRepository using a JSON file.
type ReportFileRepository struct {
	path string
}

var _ ports.ReportRepository = (*ReportFileRepository)(nil)

// NewReportFileRepository creates a repository writing to path.
func NewReportFileRepository(path string) *ReportFileRepository {
	return &ReportFileRepository{path: path}
}

// Load reads the last saved report.
func (r *ReportFileRepository) Load(ctx context.Context) (domain.RunReport, error) {
	data, err := os.ReadFile(r.path)
	if err != nil {
		return domain.RunReport{}, err
	}

	var report domain.RunReport
	if err := json.Unmarshal(data, &report); err != nil {
		return domain.RunReport{}, err
	}
	return report, nil
}

// Save persists the report atomically.
// Uses atomic write (write to temp file, then rename) to prevent corruption.
func (r *ReportFileRepository) Save(ctx context.Context, report domain.RunReport) error {
	if err := os.MkdirAll(filepath.Dir(r.path), 0o755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return err
	}

	tmp := r.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}

	// Atomic rename
	return os.Rename(tmp, r.path)
}

// Path returns the report file path.
func (r *ReportFileRepository) Path() string {
	return r.path
}
