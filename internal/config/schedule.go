package config

import (
	"fmt"
	"math/big"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"

	"liquidityAuction/internal/auction"
	"liquidityAuction/internal/model"
)

// LoadSchedule reads a schedule file into its raw form. Viper picks the
// format from the extension, so JSON and YAML both work.
func LoadSchedule(path string) (model.ScheduleConfig, error) {
	if strings.TrimSpace(path) == "" {
		return model.ScheduleConfig{}, fmt.Errorf("schedule file is required")
	}

	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return model.ScheduleConfig{}, fmt.Errorf("read schedule: %w", err)
	}

	cfg := model.ScheduleConfig{
		Sale:            v.GetString("sale"),
		StartTime:       v.GetString("start_time"),
		EndTime:         v.GetString("end_time"),
		EpochLength:     v.GetString("epoch_length"),
		TickSpacing:     v.GetInt32("tick_spacing"),
		StartTick:       v.GetInt32("start_tick"),
		EndTick:         v.GetInt32("end_tick"),
		Gamma:           v.GetInt32("gamma"),
		NumTokensToSell: v.GetString("num_tokens_to_sell"),
		MinimumProceeds: v.GetString("minimum_proceeds"),
		MaximumProceeds: v.GetString("maximum_proceeds"),
		IsAscending:     v.GetBool("is_ascending"),
	}

	if cfg.Sale == "" {
		return model.ScheduleConfig{}, fmt.Errorf("schedule %s: sale name is required", path)
	}

	return cfg, nil
}

// BuildSchedule turns the raw schedule into engine terms. Consistency
// checks beyond parsing happen in Schedule.Validate, which needs the
// pool's tick spacing.
func BuildSchedule(sc model.ScheduleConfig) (auction.Schedule, error) {
	start, err := ParseTimestamp(sc.StartTime)
	if err != nil {
		return auction.Schedule{}, fmt.Errorf("parse start_time: %w", err)
	}
	end, err := ParseTimestamp(sc.EndTime)
	if err != nil {
		return auction.Schedule{}, fmt.Errorf("parse end_time: %w", err)
	}
	length, err := ParseSeconds(sc.EpochLength)
	if err != nil {
		return auction.Schedule{}, fmt.Errorf("parse epoch_length: %w", err)
	}

	sell, err := parseAmount(sc.NumTokensToSell)
	if err != nil {
		return auction.Schedule{}, fmt.Errorf("parse num_tokens_to_sell: %w", err)
	}
	if sell == nil {
		return auction.Schedule{}, fmt.Errorf("num_tokens_to_sell is required")
	}
	minProceeds, err := parseAmount(sc.MinimumProceeds)
	if err != nil {
		return auction.Schedule{}, fmt.Errorf("parse minimum_proceeds: %w", err)
	}
	maxProceeds, err := parseAmount(sc.MaximumProceeds)
	if err != nil {
		return auction.Schedule{}, fmt.Errorf("parse maximum_proceeds: %w", err)
	}

	return auction.Schedule{
		StartTime:       start,
		EndTime:         end,
		EpochLength:     length,
		StartTick:       sc.StartTick,
		EndTick:         sc.EndTick,
		Gamma:           sc.Gamma,
		NumTokensToSell: sell,
		MinimumProceeds: minProceeds,
		MaximumProceeds: maxProceeds,
		IsAscending:     sc.IsAscending,
	}, nil
}

// ParseTimestamp parses a timestamp value (unix seconds or RFC3339).
func ParseTimestamp(input string) (uint64, error) {
	if strings.TrimSpace(input) == "" {
		return 0, nil
	}

	if isNumeric(input) {
		val, err := strconv.ParseUint(input, 10, 64)
		if err != nil {
			return 0, err
		}
		return val, nil
	}

	tm, err := time.Parse(time.RFC3339, input)
	if err != nil {
		return 0, err
	}
	return uint64(tm.Unix()), nil
}

// ParseSeconds parses a length of time (bare seconds or a Go duration
// string such as "1h").
func ParseSeconds(input string) (uint64, error) {
	if strings.TrimSpace(input) == "" {
		return 0, nil
	}

	if isNumeric(input) {
		return strconv.ParseUint(input, 10, 64)
	}

	d, err := time.ParseDuration(input)
	if err != nil {
		return 0, err
	}
	if d < 0 {
		return 0, fmt.Errorf("negative duration %q", input)
	}
	return uint64(d / time.Second), nil
}

func parseAmount(input string) (*big.Int, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return nil, nil
	}
	val, ok := new(big.Int).SetString(input, 10)
	if !ok {
		return nil, fmt.Errorf("not a base-10 integer: %q", input)
	}
	return val, nil
}

func isNumeric(input string) bool {
	for _, r := range input {
		if r < '0' || r > '9' {
			return false
		}
	}
	return input != ""
}
