package prometheus

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/seedkit/seedauth"
	"github.com/seedkit/seedauth/metrics/export/internaldefs"
)

type metricsSource interface {
	MetricsSnapshot() seedauth.MetricsSnapshot
}

// PrometheusExporter renders engine metrics in Prometheus text exposition format.
type PrometheusExporter struct {
	source metricsSource
}

// NewPrometheusExporter creates an exporter reading from engine.
func NewPrometheusExporter(engine *seedauth.Engine) *PrometheusExporter {
	return &PrometheusExporter{source: engine}
}

// NewPrometheusExporterFromSource creates an exporter reading snapshots from source.
func NewPrometheusExporterFromSource(source metricsSource) *PrometheusExporter {
	return &PrometheusExporter{source: source}
}

// Handler serves Render with the text exposition content type.
func (p *PrometheusExporter) Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; version=0.0.4; charset=utf-8")
		_, _ = w.Write([]byte(p.Render()))
	})
}

// Render returns the current metrics, or "" when the engine has metrics disabled.
func (p *PrometheusExporter) Render() string {
	if p == nil || p.source == nil {
		return ""
	}
	snap := p.source.MetricsSnapshot()
	if len(snap.Counters) == 0 && len(snap.Histograms) == 0 {
		return ""
	}

	var b strings.Builder
	b.Grow(4096)

	for _, def := range internaldefs.CounterDefs {
		family(&b, def.Name, def.Help, "counter")
		sample(&b, def.Name, "", "", snap.Counters[def.ID])
	}

	family(&b, internaldefs.DenialFamily, internaldefs.DenialFamilyHelp, "counter")
	for _, def := range internaldefs.DenialDefs {
		sample(&b, internaldefs.DenialFamily, internaldefs.DenialSymbolLabel, string(def.Symbol), snap.Counters[def.ID])
	}

	for _, def := range internaldefs.HistogramDefs {
		buckets := internaldefs.CumulativeBuckets(internaldefs.NormalizeBuckets(snap.Histograms[def.ID]))
		family(&b, def.Name, def.Help, "histogram")
		for i, le := range internaldefs.HistogramBounds {
			sample(&b, def.Name+"_bucket", "le", le, buckets[i])
		}
		sample(&b, def.Name+"_count", "", "", buckets[len(buckets)-1])
		// the engine keeps bucket counts only
		sample(&b, def.Name+"_sum", "", "", 0)
	}

	return b.String()
}

var helpEscaper = strings.NewReplacer(`\`, `\\`, "\n", `\n`)

func family(b *strings.Builder, name, help, kind string) {
	b.WriteString("# HELP " + name + " " + helpEscaper.Replace(help) + "\n")
	b.WriteString("# TYPE " + name + " " + kind + "\n")
}

func sample(b *strings.Builder, name, label, value string, v uint64) {
	b.WriteString(name)
	if label != "" {
		b.WriteString("{" + label + `="` + value + `"}`)
	}
	b.WriteByte(' ')
	b.WriteString(strconv.FormatUint(v, 10))
	b.WriteByte('\n')
}
