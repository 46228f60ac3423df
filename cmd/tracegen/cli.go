package main

import (
	"github.com/urfave/cli/v2"

	"github.com/kakao/otelboot/internal/flags"
)

func newTracegenApp() *cli.App {
	appFlags := []cli.Flag{
		flagWorkers,
		flagSpanCount,
		flagSpanDuration,
	}
	appFlags = append(appFlags, flags.TelemetryFlags()...)
	appFlags = append(appFlags, flags.LoggerFlags()...)

	return &cli.App{
		Name:   "tracegen",
		Usage:  "Generate annotated spans through the telemetry bootstrap pipeline.",
		Flags:  appFlags,
		Action: start,
	}
}
