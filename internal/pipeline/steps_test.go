package pipeline

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/nao1215/usercrawl/internal/database"
	"github.com/nao1215/usercrawl/internal/model"
	"github.com/nao1215/usercrawl/internal/report"
)

func finishedSummary(seed string) *model.RunSummary {
	started := time.Date(2026, 5, 2, 9, 0, 0, 0, time.UTC)
	return &model.RunSummary{
		Seed:        seed,
		StartedAt:   started,
		FinishedAt:  started.Add(time.Second),
		Status:      model.RunStatusDone,
		Crawled:     []string{seed},
		Pending:     []string{},
		Results:     []model.Triplet{model.NewTriplet("title", seed+"/comments/1/", "golang")},
		Submissions: 1,
	}
}

func TestArchiveStep(t *testing.T) {
	t.Parallel()

	db, err := database.Open(t.TempDir(), database.DefaultOptions())
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	step := NewArchiveStep(db)
	if step.Name() != "archive" {
		t.Errorf("Name() = %q", step.Name())
	}

	seed := "https://old.reddit.com/user/archived"
	if err := step.Do(context.Background(), finishedSummary(seed)); err != nil {
		t.Fatalf("Do() error = %v", err)
	}

	runs, err := db.ListRuns(context.Background(), seed, 0)
	if err != nil {
		t.Fatalf("ListRuns() error = %v", err)
	}
	if len(runs) != 1 {
		t.Fatalf("expected 1 archived run, got %d", len(runs))
	}
	if runs[0].Results != 1 || runs[0].Status != model.RunStatusDone {
		t.Errorf("archived run = %+v", runs[0])
	}
}

func TestArchiveStepClosedDB(t *testing.T) {
	t.Parallel()

	db, err := database.Open(t.TempDir(), database.DefaultOptions())
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	_ = db.Close()

	err = NewArchiveStep(db).Do(context.Background(), finishedSummary("https://old.reddit.com/user/x"))
	if err == nil {
		t.Fatal("expected error from closed database")
	}
	if !strings.Contains(err.Error(), "archiving run for https://old.reddit.com/user/x") {
		t.Errorf("error = %v", err)
	}
}

func TestReportStep(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	step := NewReportStep(report.NewJSONWriter(&buf))
	if step.Name() != "report" {
		t.Errorf("Name() = %q", step.Name())
	}

	if err := step.Do(context.Background(), finishedSummary("https://old.reddit.com/user/a")); err != nil {
		t.Fatalf("Do() error = %v", err)
	}
	if err := step.Do(context.Background(), finishedSummary("https://old.reddit.com/user/b")); err != nil {
		t.Fatalf("Do() error = %v", err)
	}

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected one JSON line per run, got %d", len(lines))
	}
	if !strings.Contains(lines[1], `"seed":"https://old.reddit.com/user/b"`) {
		t.Errorf("second line = %s", lines[1])
	}
}
