package config

import (
	"os"
	"path/filepath"
	"testing"

	"liquidityAuction/internal/model"
)

func writeScheduleFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write schedule file: %v", err)
	}
	return path
}

func TestLoadScheduleJSON(t *testing.T) {
	path := writeScheduleFile(t, "sale.json", `{
  "sale": "launch-42",
  "start_time": "2024-05-01T00:00:00Z",
  "end_time": "2024-05-02T00:00:00Z",
  "epoch_length": "1h",
  "tick_spacing": 8,
  "start_tick": 0,
  "end_tick": -16800,
  "gamma": 800,
  "num_tokens_to_sell": "600000000000000000000000",
  "minimum_proceeds": "150000000000000000000",
  "maximum_proceeds": "9000000000000000000000",
  "is_ascending": false
}`)

	sc, err := LoadSchedule(path)
	if err != nil {
		t.Fatalf("load schedule: %v", err)
	}
	if sc.Sale != "launch-42" {
		t.Fatalf("sale = %q", sc.Sale)
	}
	if sc.TickSpacing != 8 || sc.StartTick != 0 || sc.EndTick != -16800 || sc.Gamma != 800 {
		t.Fatalf("tick fields mismatch: %+v", sc)
	}

	sched, err := BuildSchedule(sc)
	if err != nil {
		t.Fatalf("build schedule: %v", err)
	}
	if sched.StartTime != 1714521600 {
		t.Fatalf("start time = %d", sched.StartTime)
	}
	if sched.EndTime != 1714608000 {
		t.Fatalf("end time = %d", sched.EndTime)
	}
	if sched.EpochLength != 3600 {
		t.Fatalf("epoch length = %d", sched.EpochLength)
	}
	if sched.NumTokensToSell.String() != "600000000000000000000000" {
		t.Fatalf("tokens to sell = %s", sched.NumTokensToSell)
	}
	if sched.MinimumProceeds.String() != "150000000000000000000" {
		t.Fatalf("minimum proceeds = %s", sched.MinimumProceeds)
	}
	if sched.MaximumProceeds.String() != "9000000000000000000000" {
		t.Fatalf("maximum proceeds = %s", sched.MaximumProceeds)
	}
	if sched.IsAscending {
		t.Fatalf("expected descending sale")
	}

	if err := sched.Validate(sc.TickSpacing); err != nil {
		t.Fatalf("built schedule does not validate: %v", err)
	}
}

func TestLoadScheduleYAML(t *testing.T) {
	path := writeScheduleFile(t, "sale.yaml", `sale: yaml-sale
start_time: 1700000000
end_time: 1700086400
epoch_length: 3600
tick_spacing: 8
start_tick: 0
end_tick: 9600
gamma: 800
num_tokens_to_sell: "1000000000000000000000000"
is_ascending: true
`)

	sc, err := LoadSchedule(path)
	if err != nil {
		t.Fatalf("load schedule: %v", err)
	}
	if sc.Sale != "yaml-sale" || !sc.IsAscending {
		t.Fatalf("schedule mismatch: %+v", sc)
	}

	sched, err := BuildSchedule(sc)
	if err != nil {
		t.Fatalf("build schedule: %v", err)
	}
	if sched.StartTime != 1700000000 || sched.EndTime != 1700086400 || sched.EpochLength != 3600 {
		t.Fatalf("window mismatch: %+v", sched)
	}
	if sched.MinimumProceeds != nil || sched.MaximumProceeds != nil {
		t.Fatalf("expected unset proceeds bounds")
	}
	if err := sched.Validate(sc.TickSpacing); err != nil {
		t.Fatalf("built schedule does not validate: %v", err)
	}
}

func TestLoadScheduleRequiresSaleName(t *testing.T) {
	path := writeScheduleFile(t, "sale.json", `{"start_time": "100"}`)
	if _, err := LoadSchedule(path); err == nil {
		t.Fatalf("expected error for missing sale name")
	}

	if _, err := LoadSchedule(filepath.Join(t.TempDir(), "absent.json")); err == nil {
		t.Fatalf("expected error for missing file")
	}
	if _, err := LoadSchedule(""); err == nil {
		t.Fatalf("expected error for empty path")
	}
}

func TestBuildScheduleRejectsBadValues(t *testing.T) {
	base := model.ScheduleConfig{
		Sale:            "bad",
		StartTime:       "1000",
		EndTime:         "2000",
		EpochLength:     "100",
		NumTokensToSell: "1000",
	}

	sc := base
	sc.StartTime = "yesterday"
	if _, err := BuildSchedule(sc); err == nil {
		t.Fatalf("expected error for bad start time")
	}

	sc = base
	sc.NumTokensToSell = ""
	if _, err := BuildSchedule(sc); err == nil {
		t.Fatalf("expected error for missing sell amount")
	}

	sc = base
	sc.NumTokensToSell = "12.5"
	if _, err := BuildSchedule(sc); err == nil {
		t.Fatalf("expected error for fractional sell amount")
	}

	sc = base
	sc.MaximumProceeds = "0x10"
	if _, err := BuildSchedule(sc); err == nil {
		t.Fatalf("expected error for non-decimal proceeds bound")
	}
}

func TestParseTimestamp(t *testing.T) {
	got, err := ParseTimestamp("1714521600")
	if err != nil || got != 1714521600 {
		t.Fatalf("unix parse = %d, %v", got, err)
	}
	got, err = ParseTimestamp("2024-05-01T00:00:00Z")
	if err != nil || got != 1714521600 {
		t.Fatalf("rfc3339 parse = %d, %v", got, err)
	}
	got, err = ParseTimestamp(" ")
	if err != nil || got != 0 {
		t.Fatalf("blank parse = %d, %v", got, err)
	}
	if _, err := ParseTimestamp("May 1st"); err == nil {
		t.Fatalf("expected error for prose date")
	}
}

func TestParseSeconds(t *testing.T) {
	got, err := ParseSeconds("90")
	if err != nil || got != 90 {
		t.Fatalf("numeric parse = %d, %v", got, err)
	}
	got, err = ParseSeconds("1h30m")
	if err != nil || got != 5400 {
		t.Fatalf("duration parse = %d, %v", got, err)
	}
	got, err = ParseSeconds("")
	if err != nil || got != 0 {
		t.Fatalf("blank parse = %d, %v", got, err)
	}
	if _, err := ParseSeconds("-5s"); err == nil {
		t.Fatalf("expected error for negative duration")
	}
	if _, err := ParseSeconds("soon"); err == nil {
		t.Fatalf("expected error for prose duration")
	}
}
