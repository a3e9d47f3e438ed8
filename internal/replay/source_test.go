package replay

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"liquidityAuction/internal/model"
)

func writeTradeFile(t *testing.T, lines ...string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "trades.jsonl")
	var data []byte
	for _, line := range lines {
		data = append(data, line...)
		data = append(data, '\n')
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write trades: %v", err)
	}
	return path
}

func tradeLine(t *testing.T, block, ts uint64, asset, proceeds string) string {
	t.Helper()
	data, err := json.Marshal(model.TradeEvent{
		BlockNumber:   block,
		Timestamp:     ts,
		AssetDelta:    asset,
		ProceedsDelta: proceeds,
	})
	if err != nil {
		t.Fatalf("marshal trade: %v", err)
	}
	return string(data)
}

func collectTrades(t *testing.T, src Source, cp Checkpoint) ([]model.TradeEvent, []Checkpoint) {
	t.Helper()
	var trades []model.TradeEvent
	var marks []Checkpoint
	err := src.Stream(context.Background(), cp,
		func(tr model.TradeEvent) error {
			trades = append(trades, tr)
			return nil
		},
		func(pos Checkpoint) error {
			marks = append(marks, pos)
			return nil
		})
	if err != nil {
		t.Fatalf("Stream: %v", err)
	}
	return trades, marks
}

func TestFileSourceStreamsInOrder(t *testing.T) {
	path := writeTradeFile(t,
		tradeLine(t, 10, 1010, "100", "110"),
		"",
		"{not json",
		tradeLine(t, 20, 1020, "200", "220"),
		tradeLine(t, 30, 1030, "300", "330"),
	)

	trades, marks := collectTrades(t, NewFileSource(path, nil), Checkpoint{})
	if len(trades) != 3 {
		t.Fatalf("emitted %d trades, want 3", len(trades))
	}
	for i, wantTS := range []uint64{1010, 1020, 1030} {
		if trades[i].Timestamp != wantTS {
			t.Fatalf("trade %d at %d, want %d", i, trades[i].Timestamp, wantTS)
		}
	}
	if len(marks) != 1 || marks[0].Events != 3 || marks[0].LastBlock != 30 {
		t.Fatalf("marks = %+v", marks)
	}
}

func TestFileSourceResumesAfterCheckpoint(t *testing.T) {
	path := writeTradeFile(t,
		tradeLine(t, 10, 1010, "100", "110"),
		tradeLine(t, 20, 1020, "200", "220"),
		tradeLine(t, 30, 1030, "300", "330"),
	)

	trades, marks := collectTrades(t, NewFileSource(path, nil), Checkpoint{Events: 2})
	if len(trades) != 1 || trades[0].Timestamp != 1030 {
		t.Fatalf("resumed trades = %+v", trades)
	}
	if len(marks) != 1 || marks[0].Events != 3 {
		t.Fatalf("resumed marks = %+v", marks)
	}
}

func TestFileSourceFullyConsumedMarksNothing(t *testing.T) {
	path := writeTradeFile(t, tradeLine(t, 10, 1010, "100", "110"))
	trades, marks := collectTrades(t, NewFileSource(path, nil), Checkpoint{Events: 1})
	if len(trades) != 0 || len(marks) != 0 {
		t.Fatalf("consumed file emitted trades %d, marks %d", len(trades), len(marks))
	}
}

func TestFileSourceMissingFile(t *testing.T) {
	src := NewFileSource(filepath.Join(t.TempDir(), "absent.jsonl"), nil)
	err := src.Stream(context.Background(), Checkpoint{},
		func(model.TradeEvent) error { return nil },
		func(Checkpoint) error { return nil })
	if err == nil {
		t.Fatalf("missing file accepted")
	}
}

func TestFileSourcePropagatesEmitError(t *testing.T) {
	path := writeTradeFile(t, tradeLine(t, 10, 1010, "100", "110"))
	wantErr := fmt.Errorf("sink full")
	err := NewFileSource(path, nil).Stream(context.Background(), Checkpoint{},
		func(model.TradeEvent) error { return wantErr },
		func(Checkpoint) error { return nil })
	if err == nil || err.Error() != wantErr.Error() {
		t.Fatalf("err = %v, want %v", err, wantErr)
	}
}
