package nut

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"

	"github.com/jamesprial/nut-mcp/internal/config"
)

// VariableReader reads a single NUT variable. *Client implements it.
type VariableReader interface {
	Variable(ctx context.Context, name string) string
}

// Compile-time interface check.
var _ VariableReader = (*Client)(nil)

// Entry is one key/value pair of a ReadingSet.
type Entry struct {
	Key   string
	Value string
}

// ReadingSet is an ordered snapshot of UPS metrics. Values are the raw tool
// output with the unit appended and line breaks flattened; nothing is parsed.
type ReadingSet struct {
	Entries []Entry
}

// Get returns the value stored under key.
func (r ReadingSet) Get(key string) (string, bool) {
	for _, e := range r.Entries {
		if e.Key == key {
			return e.Value, true
		}
	}
	return "", false
}

// Keys returns the entry keys in order.
func (r ReadingSet) Keys() []string {
	keys := make([]string, len(r.Entries))
	for i, e := range r.Entries {
		keys[i] = e.Key
	}
	return keys
}

// MarshalJSON encodes the set as a JSON object with keys in entry order.
func (r ReadingSet) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, e := range r.Entries {
		if i > 0 {
			buf.WriteByte(',')
		}
		if err := writeJSONString(&buf, e.Key); err != nil {
			return nil, err
		}
		buf.WriteByte(':')
		if err := writeJSONString(&buf, e.Value); err != nil {
			return nil, err
		}
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// Render returns the set as a JSON object indented by four spaces.
func (r ReadingSet) Render() (string, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "    ")
	if err := enc.Encode(r); err != nil {
		return "", err
	}
	return strings.TrimSuffix(buf.String(), "\n"), nil
}

func writeJSONString(buf *bytes.Buffer, s string) error {
	enc := json.NewEncoder(buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(s); err != nil {
		return err
	}
	// Encode terminates every value with a newline.
	buf.Truncate(buf.Len() - 1)
	return nil
}

// Aggregator assembles a ReadingSet by querying each configured metric in
// turn. Queries are independent, so a set is not an atomic snapshot.
type Aggregator struct {
	reader  VariableReader
	metrics []config.MetricConfig
}

// NewAggregator returns an Aggregator over metrics. An empty list selects
// config.DefaultMetrics.
func NewAggregator(reader VariableReader, metrics []config.MetricConfig) *Aggregator {
	if len(metrics) == 0 {
		metrics = config.DefaultMetrics()
	}
	m := make([]config.MetricConfig, len(metrics))
	copy(m, metrics)
	return &Aggregator{reader: reader, metrics: m}
}

// Read queries every metric once, in order. A failed query stores its error
// text as the value.
func (a *Aggregator) Read(ctx context.Context) ReadingSet {
	set := ReadingSet{Entries: make([]Entry, 0, len(a.metrics))}
	for _, m := range a.metrics {
		raw := a.reader.Variable(ctx, m.Variable)
		set.Entries = append(set.Entries, Entry{
			Key:   m.Key,
			Value: normalize(raw + m.Unit),
		})
	}
	return set
}

// normalize flattens line breaks to spaces and trims the result.
func normalize(s string) string {
	return strings.TrimSpace(strings.ReplaceAll(s, "\n", " "))
}
