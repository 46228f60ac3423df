package main

import (
	"fmt"
	"time"

	"github.com/urfave/cli/v2"
)

var (
	flagWorkers = &cli.IntFlag{
		Name:  "workers",
		Usage: "Number of concurrent span emitters.",
		Value: 1,
		Action: func(_ *cli.Context, value int) error {
			if value <= 0 {
				return fmt.Errorf("invalid value \"%d\" for flag --workers", value)
			}
			return nil
		},
	}
	flagSpanCount = &cli.IntFlag{
		Name:  "span-count",
		Usage: "Number of spans each worker emits.",
		Value: 10,
		Action: func(_ *cli.Context, value int) error {
			if value <= 0 {
				return fmt.Errorf("invalid value \"%d\" for flag --span-count", value)
			}
			return nil
		},
	}
	flagSpanDuration = &cli.DurationFlag{
		Name:  "span-duration",
		Usage: "Duration of each emitted span.",
		Value: 10 * time.Millisecond,
	}
)
