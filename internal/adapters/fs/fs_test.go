package fs

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bft-labs/driveseq/internal/domain"
	"github.com/bft-labs/driveseq/pkg/log"
)

func TestLoadDescription(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "commands.yaml")
	doc := "commands:\n  - cmd: move\n    data: {distance_m: 1}\ncontour:\n  points:\n    - {x: 0, y: 0, z: 0}\n    - {x: 1, y: 0, z: 0}\n"
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o600))

	desc, err := LoadDescription(path)
	require.NoError(t, err)
	assert.Equal(t, []domain.Command{domain.Move(1)}, desc.Commands)
	require.NotNil(t, desc.Contour)
	assert.Len(t, desc.Contour.Points, 2)
}

func TestLoadDescription_Errors(t *testing.T) {
	dir := t.TempDir()

	_, err := LoadDescription(filepath.Join(dir, "missing.json"))
	assert.ErrorIs(t, err, os.ErrNotExist)

	bad := filepath.Join(dir, "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte(`{"commands": [{"cmd": "move"}]}`), 0o600))
	_, err = LoadDescription(bad)
	assert.ErrorIs(t, err, domain.ErrMissingField)

	_, err = LoadDescription(filepath.Join(dir, "commands.txt"))
	assert.ErrorIs(t, err, domain.ErrMalformedDescription)
}

func TestReportFileRepository_SaveLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "reports", "run.json")
	repo := NewReportFileRepository(path)

	report := domain.RunReport{
		RunID:            "6f1c",
		StartedAt:        time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
		FinishedAt:       time.Date(2026, 1, 2, 3, 4, 9, 0, time.UTC),
		Phase:            "Finished",
		ContourDelivered: 20,
		Commands: []domain.CommandResult{
			{Index: 0, Command: "rotate(90deg)", Ticks: 39, Duration: time.Second, Heading: 1.56},
		},
	}
	require.NoError(t, repo.Save(context.Background(), report))

	got, err := repo.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, report, got)
	assert.Equal(t, path, repo.Path())

	_, err = os.Stat(path + ".tmp")
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestWaitForFile_AlreadyExists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "commands.json")
	require.NoError(t, os.WriteFile(path, []byte(`{}`), 0o600))

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, WaitForFile(ctx, path, log.NewNoopLogger()))
}

func TestWaitForFile_Created(t *testing.T) {
	path := filepath.Join(t.TempDir(), "commands.json")

	go func() {
		time.Sleep(50 * time.Millisecond)
		_ = os.WriteFile(path, []byte(`{"commands": []}`), 0o600)
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, WaitForFile(ctx, path, log.NewNoopLogger()))
}

func TestWaitForFile_Cancelled(t *testing.T) {
	path := filepath.Join(t.TempDir(), "never.json")

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	err := WaitForFile(ctx, path, log.NewNoopLogger())
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestDescriptionWatcher_ReloadsOnWrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "commands.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"commands": []}`), 0o600))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	reloads := make(chan domain.Description, 16)
	done := make(chan error, 1)
	w := NewDescriptionWatcher(path, 10*time.Millisecond, log.NewNoopLogger())
	go func() {
		done <- w.Watch(ctx, func(d domain.Description) { reloads <- d })
	}()

	doc := []byte(`{"commands": [{"cmd": "rotate", "data": {"delta_angle": 90}}]}`)
	var got domain.Description
	require.Eventually(t, func() bool {
		_ = os.WriteFile(path, doc, 0o600)
		select {
		case got = <-reloads:
			return true
		case <-time.After(50 * time.Millisecond):
			return false
		}
	}, 5*time.Second, 10*time.Millisecond)
	assert.Equal(t, []domain.Command{domain.Rotate(90)}, got.Commands)

	cancel()
	assert.ErrorIs(t, <-done, context.Canceled)
}

func TestDescriptionWatcher_SkipsMalformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "commands.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"commands": []}`), 0o600))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	reloads := make(chan domain.Description, 16)
	w := NewDescriptionWatcher(path, 10*time.Millisecond, log.NewNoopLogger())
	go func() { _ = w.Watch(ctx, func(d domain.Description) { reloads <- d }) }()

	valid := []byte(`{"commands": [{"cmd": "move", "data": {"distance_m": 2}}]}`)
	require.Eventually(t, func() bool {
		_ = os.WriteFile(path, []byte(`{"commands": [`), 0o600)
		time.Sleep(30 * time.Millisecond)
		_ = os.WriteFile(path, valid, 0o600)
		select {
		case d := <-reloads:
			return assert.Equal(t, []domain.Command{domain.Move(2)}, d.Commands)
		case <-time.After(50 * time.Millisecond):
			return false
		}
	}, 5*time.Second, 10*time.Millisecond)
}
