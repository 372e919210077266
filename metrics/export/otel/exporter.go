package otel

import (
	"context"
	"errors"
	"fmt"

	"github.com/seedkit/seedauth"
	"github.com/seedkit/seedauth/metrics/export/internaldefs"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

var (
	// ErrNilMeter is returned when no meter is supplied.
	ErrNilMeter = errors.New("nil meter")
	// ErrNilSource is returned when no metrics source is supplied.
	ErrNilSource = errors.New("nil metrics source")
)

type metricsSource interface {
	MetricsSnapshot() seedauth.MetricsSnapshot
}

type histogramGauges struct {
	buckets metric.Int64ObservableGauge
	count   metric.Int64ObservableGauge
}

// OTelExporter publishes engine metrics through observable instruments. Denial
// reasons share one counter with a "symbol" attribute and histogram buckets share
// one gauge with an "le" attribute.
type OTelExporter struct {
	registration metric.Registration
}

// NewOTelExporter registers instruments on meter that read from engine.
func NewOTelExporter(meter metric.Meter, engine *seedauth.Engine) (*OTelExporter, error) {
	return NewOTelExporterFromSource(meter, engine)
}

// NewOTelExporterFromSource registers instruments on meter that read snapshots from
// source on every collection.
func NewOTelExporterFromSource(meter metric.Meter, source metricsSource) (*OTelExporter, error) {
	if meter == nil {
		return nil, ErrNilMeter
	}
	if source == nil {
		return nil, ErrNilSource
	}

	var observables []metric.Observable
	counter := func(name, help string) (metric.Int64ObservableCounter, error) {
		ins, err := meter.Int64ObservableCounter(name, metric.WithDescription(help))
		if err != nil {
			return nil, fmt.Errorf("create counter %s: %w", name, err)
		}
		observables = append(observables, ins)
		return ins, nil
	}
	gauge := func(name, help string) (metric.Int64ObservableGauge, error) {
		ins, err := meter.Int64ObservableGauge(name, metric.WithDescription(help))
		if err != nil {
			return nil, fmt.Errorf("create gauge %s: %w", name, err)
		}
		observables = append(observables, ins)
		return ins, nil
	}

	counters := make([]metric.Int64ObservableCounter, len(internaldefs.CounterDefs))
	for i, def := range internaldefs.CounterDefs {
		ins, err := counter(def.Name, def.Help)
		if err != nil {
			return nil, err
		}
		counters[i] = ins
	}

	denials, err := counter(internaldefs.DenialFamily, internaldefs.DenialFamilyHelp)
	if err != nil {
		return nil, err
	}
	symbols := make([]metric.ObserveOption, len(internaldefs.DenialDefs))
	for i, def := range internaldefs.DenialDefs {
		symbols[i] = metric.WithAttributes(attribute.String(internaldefs.DenialSymbolLabel, string(def.Symbol)))
	}

	histograms := make([]histogramGauges, len(internaldefs.HistogramDefs))
	for i, def := range internaldefs.HistogramDefs {
		if histograms[i].buckets, err = gauge(def.Name+"_bucket", "Cumulative bucket counts of "+def.Name+"."); err != nil {
			return nil, err
		}
		if histograms[i].count, err = gauge(def.Name+"_count", "Sample count of "+def.Name+"."); err != nil {
			return nil, err
		}
	}
	bounds := make([]metric.ObserveOption, len(internaldefs.HistogramBounds))
	for i, le := range internaldefs.HistogramBounds {
		bounds[i] = metric.WithAttributes(attribute.String("le", le))
	}

	registration, err := meter.RegisterCallback(func(_ context.Context, o metric.Observer) error {
		snap := source.MetricsSnapshot()
		for i, def := range internaldefs.CounterDefs {
			o.ObserveInt64(counters[i], int64(snap.Counters[def.ID]))
		}
		for i, def := range internaldefs.DenialDefs {
			o.ObserveInt64(denials, int64(snap.Counters[def.ID]), symbols[i])
		}
		for i, def := range internaldefs.HistogramDefs {
			cumulative := internaldefs.CumulativeBuckets(internaldefs.NormalizeBuckets(snap.Histograms[def.ID]))
			for j, v := range cumulative {
				o.ObserveInt64(histograms[i].buckets, int64(v), bounds[j])
			}
			o.ObserveInt64(histograms[i].count, int64(cumulative[len(cumulative)-1]))
		}
		return nil
	}, observables...)
	if err != nil {
		return nil, fmt.Errorf("register callback: %w", err)
	}
	return &OTelExporter{registration: registration}, nil
}

// Close unregisters the collection callback.
func (e *OTelExporter) Close() error {
	if e == nil || e.registration == nil {
		return nil
	}
	return e.registration.Unregister()
}
