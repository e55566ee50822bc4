// Package metrics exports channel statistics to Prometheus.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/webbmaffian/go-chan/channel"
)

// ChannelLabel carries the name given to NewCollector.
const ChannelLabel = "channel"

var _ prometheus.Collector = (*Collector)(nil)

// Collector reads a channel's Stats on every scrape.
type Collector struct {
	src channel.StatsProvider

	length        *prometheus.Desc
	capacity      *prometheus.Desc
	closed        *prometheus.Desc
	itemsSent     *prometheus.Desc
	itemsReceived *prometheus.Desc
	grows         *prometheus.Desc
	growFailures  *prometheus.Desc
	rejected      *prometheus.Desc
}

// NewCollector describes src under namespace, labelled with name. Register
// one collector per channel.
func NewCollector(namespace, name string, src channel.StatsProvider) *Collector {
	labels := prometheus.Labels{ChannelLabel: name}

	desc := func(metric, help string) *prometheus.Desc {
		return prometheus.NewDesc(prometheus.BuildFQName(namespace, "channel", metric), help, nil, labels)
	}

	return &Collector{
		src:           src,
		length:        desc("length", "Number of queued, unread items."),
		capacity:      desc("capacity", "Number of allocated slots."),
		closed:        desc("closed", "1 once the channel is closed."),
		itemsSent:     desc("items_sent_total", "Items accepted by Send."),
		itemsReceived: desc("items_received_total", "Items returned by Receive."),
		grows:         desc("grows_total", "Times an unbounded channel doubled its storage."),
		growFailures:  desc("grow_failures_total", "Failed attempts to grow an unbounded channel."),
		rejected:      desc("rejected_sends_total", "Sends that returned false."),
	}
}

func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.length
	ch <- c.capacity
	ch <- c.closed
	ch <- c.itemsSent
	ch <- c.itemsReceived
	ch <- c.grows
	ch <- c.growFailures
	ch <- c.rejected
}

func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	s := c.src.Stats()

	var closed float64
	if s.State == channel.Closed {
		closed = 1
	}

	ch <- prometheus.MustNewConstMetric(c.length, prometheus.GaugeValue, float64(s.Len))
	ch <- prometheus.MustNewConstMetric(c.capacity, prometheus.GaugeValue, float64(s.Cap))
	ch <- prometheus.MustNewConstMetric(c.closed, prometheus.GaugeValue, closed)
	ch <- prometheus.MustNewConstMetric(c.itemsSent, prometheus.CounterValue, float64(s.ItemsSent))
	ch <- prometheus.MustNewConstMetric(c.itemsReceived, prometheus.CounterValue, float64(s.ItemsReceived))
	ch <- prometheus.MustNewConstMetric(c.grows, prometheus.CounterValue, float64(s.Grows))
	ch <- prometheus.MustNewConstMetric(c.growFailures, prometheus.CounterValue, float64(s.GrowFailures))
	ch <- prometheus.MustNewConstMetric(c.rejected, prometheus.CounterValue, float64(s.Rejected))
}
