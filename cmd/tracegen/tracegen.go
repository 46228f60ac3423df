package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/urfave/cli/v2"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/kakao/otelboot/internal/flags"
	"github.com/kakao/otelboot/pkg/log"
	"github.com/kakao/otelboot/pkg/telemetry"
)

const defaultServiceName = "tracegen"

func start(c *cli.Context) error {
	logOpts, err := flags.ParseLoggerFlags(c, "tracegen.log")
	if err != nil {
		return err
	}
	logger, err := log.New(logOpts...)
	if err != nil {
		return err
	}
	defer func() {
		_ = logger.Sync()
	}()

	serviceName := c.String(flags.ServiceName.Name)
	if len(serviceName) == 0 {
		serviceName = defaultServiceName
	}

	ctx, cancel := signal.NotifyContext(c.Context, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	collectorCfg, initOpts, err := flags.ParseTelemetryFlags(c)
	if err != nil {
		return err
	}
	initOpts = append(initOpts, telemetry.WithLogger(logger.Zap()))
	guard, err := telemetry.TryInit(ctx, serviceName, collectorCfg, initOpts...)
	if err != nil {
		return err
	}
	defer guard.Release()

	meterOpts, err := flags.ParseMeterFlags(ctx, c, serviceName, collectorCfg)
	if err != nil {
		return err
	}
	mp, stopMeter, err := telemetry.NewMeterProvider(meterOpts...)
	if err != nil {
		return err
	}
	telemetry.SetGlobalMeterProvider(mp)
	defer func() {
		stopCtx, stopCancel := context.WithTimeout(context.Background(), c.Duration(flags.TelemetryStopTimeout.Name))
		defer stopCancel()
		if err := stopMeter(stopCtx); err != nil {
			logger.Warn("meter provider stop failed", zap.Error(err))
		}
	}()

	emitLatency, err := telemetry.NewInt64HistogramSet(
		telemetry.Meter("tracegen"),
		"tracegen.emit.latency",
		metric.WithUnit("us"),
		metric.WithDescription("Latency of emitting one span."),
	)
	if err != nil {
		return err
	}

	workers := c.Int(flagWorkers.Name)
	spanCount := c.Int(flagSpanCount.Name)
	spanDuration := c.Duration(flagSpanDuration.Name)
	tracer := telemetry.Tracer("tracegen")

	g, gctx := errgroup.WithContext(ctx)
	for i := 0; i < workers; i++ {
		worker := fmt.Sprintf("worker-%d", i)
		g.Go(func() error {
			for seq := 0; seq < spanCount; seq++ {
				if gctx.Err() != nil {
					return gctx.Err()
				}
				begin := time.Now()
				spanCtx, span := tracer.Start(gctx, "tracegen.emit",
					trace.WithAttributes(
						attribute.String("worker", worker),
						attribute.Int("seq", seq),
					),
				)
				logger.DebugC(spanCtx, "emitting span",
					zap.String("worker", worker),
					zap.Int("seq", seq),
				)
				time.Sleep(spanDuration)
				span.End()
				emitLatency.Record(gctx, worker, time.Since(begin).Microseconds(), func() []metric.RecordOption {
					return []metric.RecordOption{
						metric.WithAttributes(attribute.String("worker", worker)),
					}
				})
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	logger.Info("emitted spans",
		zap.Int("workers", workers),
		zap.Int("spansPerWorker", spanCount),
	)
	return nil
}
