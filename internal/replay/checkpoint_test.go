package replay

import (
	"math/big"
	"os"
	"path/filepath"
	"testing"

	"liquidityAuction/internal/auction"
)

func testEngineState() *auction.State {
	st := auction.NewState()
	st.LastEpoch = 3
	st.TickAccumulator.SetString("-326666666666666666800", 10)
	st.TotalTokensSold.SetString("1100000000000000000", 10)
	st.TotalTokensSoldLastEpoch.SetString("1000000000000000000", 10)
	st.TotalProceeds.SetString("1135000000000000000", 10)
	return st
}

func TestCheckpointRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "replay", "checkpoint.json")
	store := NewCheckpointStore(path, true)

	sale := NewSaleState(testEngineState())
	sale.LastTick = -310
	if err := store.Save(Checkpoint{LastBlock: 42, Events: 7, Sale: sale}); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if _, err := os.Stat(path + ".tmp"); !os.IsNotExist(err) {
		t.Fatalf("tmp file left behind: %v", err)
	}

	cp, found, err := store.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !found {
		t.Fatalf("saved checkpoint not found")
	}
	if cp.LastBlock != 42 || cp.Events != 7 || cp.UpdatedAt == "" {
		t.Fatalf("checkpoint = %+v", cp)
	}
	if cp.Sale == nil || cp.Sale.LastTick != -310 {
		t.Fatalf("sale state = %+v", cp.Sale)
	}

	st, err := cp.Sale.State()
	if err != nil {
		t.Fatalf("parse sale state: %v", err)
	}
	want := testEngineState()
	if st.LastEpoch != want.LastEpoch ||
		st.TickAccumulator.Cmp(want.TickAccumulator) != 0 ||
		st.TotalTokensSold.Cmp(want.TotalTokensSold) != 0 ||
		st.TotalTokensSoldLastEpoch.Cmp(want.TotalTokensSoldLastEpoch) != 0 ||
		st.TotalProceeds.Cmp(want.TotalProceeds) != 0 {
		t.Fatalf("restored state = %+v, want %+v", st, want)
	}
}

func TestCheckpointDisabled(t *testing.T) {
	path := filepath.Join(t.TempDir(), "checkpoint.json")
	store := NewCheckpointStore(path, false)

	if err := store.Save(Checkpoint{LastBlock: 1}); err != nil {
		t.Fatalf("disabled Save: %v", err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Fatalf("disabled store wrote a file")
	}
	if _, found, err := store.Load(); err != nil || found {
		t.Fatalf("disabled Load = found %v, err %v", found, err)
	}
}

func TestCheckpointMissingFile(t *testing.T) {
	store := NewCheckpointStore(filepath.Join(t.TempDir(), "absent.json"), true)
	if _, found, err := store.Load(); err != nil || found {
		t.Fatalf("missing file Load = found %v, err %v", found, err)
	}
}

func TestCheckpointRejectsDirectory(t *testing.T) {
	store := NewCheckpointStore(t.TempDir(), true)
	if _, _, err := store.Load(); err == nil {
		t.Fatalf("directory path accepted")
	}
}

func TestSaleStateRejectsGarbage(t *testing.T) {
	bad := &SaleState{
		TickAccumulator: "not-a-number",
		TotalTokensSold: "1",
		SoldLastEpoch:   "0",
		TotalProceeds:   "0",
	}
	if _, err := bad.State(); err == nil {
		t.Fatalf("garbage accumulator accepted")
	}
}

func TestSaleStateCarriesSign(t *testing.T) {
	st := auction.NewState()
	st.TickAccumulator = big.NewInt(-5)
	restored, err := NewSaleState(st).State()
	if err != nil {
		t.Fatalf("State: %v", err)
	}
	if restored.TickAccumulator.Cmp(big.NewInt(-5)) != 0 {
		t.Fatalf("accumulator sign lost: %s", restored.TickAccumulator)
	}
}
