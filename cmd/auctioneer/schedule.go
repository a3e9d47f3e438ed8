package main

import (
	"fmt"
	"math/big"
	"os"
	"text/tabwriter"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"liquidityAuction/internal/config"
)

func runSchedule(cmd *cobra.Command, _ []string) error {
	path, _ := cmd.Flags().GetString("schedule")

	sc, err := config.LoadSchedule(path)
	if err != nil {
		return err
	}
	sched, err := config.BuildSchedule(sc)
	if err != nil {
		return err
	}
	if err := sched.Validate(sc.TickSpacing); err != nil {
		return fmt.Errorf("schedule %s: %w", sc.Sale, err)
	}

	direction := "descending"
	if sched.IsAscending {
		direction = "ascending"
	}

	fmt.Printf("sale %s: %s dutch auction, tick %d -> %d, gamma %d\n",
		sc.Sale, direction, sched.StartTick, sched.EndTick, sched.Gamma)
	fmt.Printf("window %s -> %s, %d epochs of %s\n",
		formatTime(sched.StartTime), formatTime(sched.EndTime),
		sched.TotalEpochs(), time.Duration(sched.EpochLength)*time.Second)
	fmt.Printf("selling %s tokens", formatAmount(sched.NumTokensToSell))
	if sched.MinimumProceeds != nil && sched.MinimumProceeds.Sign() > 0 {
		fmt.Printf(", minimum proceeds %s", formatAmount(sched.MinimumProceeds))
	}
	if sched.MaximumProceeds != nil && sched.MaximumProceeds.Sign() > 0 {
		fmt.Printf(", maximum proceeds %s", formatAmount(sched.MaximumProceeds))
	}
	fmt.Println()
	fmt.Println()

	total := decimal.NewFromBigInt(sched.NumTokensToSell, 0)

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "EPOCH\tSTART\tEXPECTED SOLD\tFILLED")
	for epoch := uint64(0); epoch < sched.TotalEpochs(); epoch++ {
		ts := sched.EpochStart(epoch)
		expected := sched.ExpectedAmountSold(ts)
		filled := decimal.NewFromBigInt(expected, 0).Div(total).Mul(decimal.NewFromInt(100))
		fmt.Fprintf(w, "%d\t%s\t%s\t%s%%\n",
			epoch, formatTime(ts), formatAmount(expected), filled.StringFixed(2))
	}
	fmt.Fprintf(w, "end\t%s\t%s\t100.00%%\n",
		formatTime(sched.EndTime), formatAmount(sched.NumTokensToSell))
	return w.Flush()
}

func formatTime(ts uint64) string {
	return time.Unix(int64(ts), 0).UTC().Format(time.RFC3339)
}

// formatAmount renders a base-unit amount at 18 decimals, the auctioned
// token convention throughout.
func formatAmount(x *big.Int) string {
	return decimal.NewFromBigInt(x, -18).String()
}
