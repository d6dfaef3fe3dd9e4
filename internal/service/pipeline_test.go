package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/TueLindhart/load-electricity-data-from-api/internal/models"
)

type fakeRetriever struct {
	inputs  []RetrievalInput
	results []*models.RetrievalResult
	errs    []error
}

func (f *fakeRetriever) Retrieve(_ context.Context, in RetrievalInput) (*models.RetrievalResult, error) {
	call := len(f.inputs)
	f.inputs = append(f.inputs, in)
	if call < len(f.errs) && f.errs[call] != nil {
		return nil, f.errs[call]
	}
	if call < len(f.results) {
		return f.results[call], nil
	}
	return &models.RetrievalResult{}, nil
}

func TestPipelineChunks(t *testing.T) {
	now := time.Date(2023, 8, 1, 12, 0, 0, 0, time.UTC)
	retriever := &fakeRetriever{
		results: []*models.RetrievalResult{
			{
				FilePaths:        []string{"a.csv", "b.csv"},
				AccessToken:      "acc-123",
				MeteringPointIDs: []string{"555"},
			},
			{
				FilePaths:        []string{"c.csv"},
				AccessToken:      "acc-123",
				MeteringPointIDs: []string{"555"},
			},
		},
	}
	driver := NewPipelineDriver(retriever, zap.NewNop())
	driver.now = func() time.Time { return now }

	paths, err := driver.Run(context.Background(), "tok-A", "user-1")
	if err != nil {
		t.Fatalf("run pipeline: %v", err)
	}
	if len(paths) != 3 {
		t.Fatalf("expected paths from both chunks, got %v", paths)
	}
	if len(retriever.inputs) != 2 {
		t.Fatalf("expected two chunked calls, got %d", len(retriever.inputs))
	}

	first := retriever.inputs[0]
	if !first.DateTo.Equal(now) || !first.DateFrom.Equal(now.AddDate(0, 0, -720)) {
		t.Fatalf("unexpected first window: %v to %v", first.DateFrom, first.DateTo)
	}
	if !first.IncludeMasterAndCharge {
		t.Fatalf("first chunk must fetch master and charge data")
	}
	if first.AccessToken != "" || len(first.MeteringPointIDs) != 0 {
		t.Fatalf("first chunk must resolve token and ids itself: %+v", first)
	}

	second := retriever.inputs[1]
	if !second.DateTo.Equal(now.AddDate(0, 0, -720)) || !second.DateFrom.Equal(now.AddDate(0, 0, -1440)) {
		t.Fatalf("unexpected second window: %v to %v", second.DateFrom, second.DateTo)
	}
	if second.IncludeMasterAndCharge {
		t.Fatalf("second chunk must not refetch master and charge data")
	}
	if second.AccessToken != "acc-123" {
		t.Fatalf("second chunk must reuse the first chunk's token, got %q", second.AccessToken)
	}
	if len(second.MeteringPointIDs) != 1 || second.MeteringPointIDs[0] != "555" {
		t.Fatalf("second chunk must reuse resolved ids, got %v", second.MeteringPointIDs)
	}
}

func TestPipelineAbortsAfterFirstChunkFailure(t *testing.T) {
	retriever := &fakeRetriever{
		errs: []error{&models.StepError{Step: models.StepToken, Message: "Error getting access token"}},
	}
	driver := NewPipelineDriver(retriever, zap.NewNop())

	_, err := driver.Run(context.Background(), "tok-A", "user-1")
	if err == nil {
		t.Fatalf("expected error from first chunk")
	}
	if len(retriever.inputs) != 1 {
		t.Fatalf("second chunk attempted after first failed: %d calls", len(retriever.inputs))
	}
}

func TestPipelineFailsWhenSecondChunkFails(t *testing.T) {
	retriever := &fakeRetriever{
		results: []*models.RetrievalResult{
			{FilePaths: []string{"a.csv"}, AccessToken: "acc", MeteringPointIDs: []string{"1"}},
		},
		errs: []error{nil, errors.New("window too early")},
	}
	driver := NewPipelineDriver(retriever, zap.NewNop())

	_, err := driver.Run(context.Background(), "tok-A", "user-1")
	if err == nil {
		t.Fatalf("expected failure when second chunk fails")
	}
	if len(retriever.inputs) != 2 {
		t.Fatalf("expected both chunks attempted, got %d", len(retriever.inputs))
	}
}
