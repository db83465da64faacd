package main

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Exporter collects metrics from an agora server.
type Exporter struct {
	address   string
	timeout   time.Duration
	namespace string

	up               *prometheus.Desc
	contextsLive     *prometheus.Desc
	convsLive        *prometheus.Desc
	subsLive         *prometheus.Desc
	propagationRuns  *prometheus.Desc
	reconcileRuns    *prometheus.Desc
	reconcileErrors  *prometheus.Desc
	malloced         *prometheus.Desc
}

var errKeyNotFound = errors.New("key not found")

// NewExporter returns an initialized exporter.
func NewExporter(server, namespace string, timeout time.Duration) *Exporter {
	return &Exporter{
		address:   server,
		timeout:   timeout,
		namespace: namespace,
		up: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "", "up"),
			"If agora instance is reachable.",
			nil,
			nil,
		),
		contextsLive: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "", "contexts_live_count"),
			"Number of currently existing contexts.",
			nil,
			nil,
		),
		convsLive: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "", "conversations_live_count"),
			"Number of currently existing conversations.",
			nil,
			nil,
		),
		subsLive: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "", "subscriptions_live_count"),
			"Number of currently existing context subscriptions.",
			nil,
			nil,
		),
		propagationRuns: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "", "propagation_passes_total"),
			"Total number of propagation fan-out passes since instance start.",
			nil,
			nil,
		),
		reconcileRuns: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "", "reconciliation_runs_total"),
			"Total number of reconciliation passes since instance start.",
			nil,
			nil,
		),
		reconcileErrors: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "", "reconciliation_errors"),
			"Number of record errors in the last reconciliation pass.",
			nil,
			nil,
		),
		malloced: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "", "malloced_bytes"),
			"Number of bytes of memory allocated and in use.",
			nil,
			nil,
		),
	}
}

// Describe describes all the metrics exported by the agora exporter. It
// implements prometheus.Collector.
func (e *Exporter) Describe(ch chan<- *prometheus.Desc) {
	ch <- e.up
	ch <- e.contextsLive
	ch <- e.convsLive
	ch <- e.subsLive
	ch <- e.propagationRuns
	ch <- e.reconcileRuns
	ch <- e.reconcileErrors
	ch <- e.malloced
}

// Collect fetches statistics from the configured Agora instance, and
// delivers them as Prometheus metrics. It implements prometheus.Collector.
func (e *Exporter) Collect(ch chan<- prometheus.Metric) {
	resp, err := http.Get(e.address)
	if err != nil {
		ch <- prometheus.MustNewConstMetric(e.up, prometheus.GaugeValue, 0)
		log.Println("Failed to connect to server", err)
		return
	}
	defer resp.Body.Close()

	up := float64(1)

	var stats map[string]interface{}
	err = json.NewDecoder(resp.Body).Decode(&stats)
	if err != nil {
		log.Println("Failed to fetch or parse response", err)
		up = 0
	} else {
		if err := e.parseStats(ch, stats); err != nil {
			up = 0
		}
	}

	ch <- prometheus.MustNewConstMetric(e.up, prometheus.GaugeValue, up)
}

func (e *Exporter) parseStats(ch chan<- prometheus.Metric, stats map[string]interface{}) error {
	return firstError(
		e.parseAndUpdate(ch, e.contextsLive, prometheus.GaugeValue, stats, "LiveContexts"),
		e.parseAndUpdate(ch, e.convsLive, prometheus.GaugeValue, stats, "LiveConversations"),
		e.parseAndUpdate(ch, e.subsLive, prometheus.GaugeValue, stats, "LiveSubscriptions"),
		e.parseAndUpdate(ch, e.propagationRuns, prometheus.CounterValue, stats, "PropagationPasses"),
		e.parseAndUpdate(ch, e.reconcileRuns, prometheus.CounterValue, stats, "ReconciliationRuns"),
		e.parseAndUpdate(ch, e.reconcileErrors, prometheus.GaugeValue, stats, "ReconciliationErrors"),
		e.parseAndUpdate(ch, e.malloced, prometheus.GaugeValue, stats, "memstats.Alloc"),
	)
}

func (e *Exporter) parseAndUpdate(ch chan<- prometheus.Metric, desc *prometheus.Desc, valueType prometheus.ValueType,
	stats map[string]interface{}, key string) error {

	v, err := parseNumeric(stats, key)

	if err == errKeyNotFound {
		return nil
	}
	if err != nil {
		return err
	}

	ch <- prometheus.MustNewConstMetric(desc, valueType, v)
	return nil
}

func firstError(errs ...error) error {
	for _, v := range errs {
		if v != nil {
			return v
		}
	}
	return nil
}

func parseNumeric(stats map[string]interface{}, path string) (float64, error) {
	parts := strings.Split(path, ".")
	var value interface{}
	var found bool
	value = stats
	for i := 0; i < len(parts); i++ {
		subset, ok := value.(map[string]interface{})
		if !ok {
			log.Println("Invalid key path:", path)
			return 0, errKeyNotFound
		}
		value, found = subset[parts[i]]
		if !found {
			log.Println("Invalid key path:", path, "(", parts[i], ")")
			return 0, errKeyNotFound
		}
	}

	floatval, ok := value.(float64)
	if !ok {
		log.Println("Value at path is not a float64:", path, value)
		return 0, errKeyNotFound
	}

	return floatval, nil
}
