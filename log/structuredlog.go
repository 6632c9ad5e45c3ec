package log

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// StructuredLog is a machine-readable run report, one per finished job.
type StructuredLog struct {
	Time     time.Time       `json:"time"`
	Job      string          `json:"job"`
	Event    string          `json:"event"`
	Payload  json.RawMessage `json:"payload"`
	Metadata *string         `json:"metadata,omitempty"`
	Elapsed  uint32          `json:"elapsed_ms,omitempty"`
}

var fieldOrder = []string{"time", "job", "event", "payload", "metadata", "elapsed_ms"}

// Custom JSON marshaling to preserve field order and omit zero/empty values.
func (l StructuredLog) MarshalJSON() ([]byte, error) {
	buf := &bytes.Buffer{}
	buf.WriteByte('{')
	writeField := func(key string, val []byte) {
		if buf.Len() > 1 {
			buf.WriteByte(',')
		}
		fmt.Fprintf(buf, `"%s":`, key)
		buf.Write(val)
	}
	for _, f := range fieldOrder {
		switch f {
		case "time":
			b, _ := json.Marshal(l.Time)
			writeField(f, b)
		case "job":
			b, _ := json.Marshal(l.Job)
			writeField(f, b)
		case "event":
			b, _ := json.Marshal(l.Event)
			writeField(f, b)
		case "payload":
			if len(l.Payload) == 0 {
				writeField(f, []byte("null"))
			} else {
				writeField(f, l.Payload)
			}
		case "metadata":
			if l.Metadata != nil {
				b, _ := json.Marshal(*l.Metadata)
				writeField(f, b)
			}
		case "elapsed_ms":
			if l.Elapsed != 0 {
				b, _ := json.Marshal(l.Elapsed)
				writeField(f, b)
			}
		}
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// NewStructuredLog builds a report. Recognised kv keys are "metadata",
// "elapsed" and "time".
func NewStructuredLog(job string, event string, payload interface{}, kv ...interface{}) (StructuredLog, error) {
	payloadJSON, err := json.Marshal(payload)
	if err != nil {
		return StructuredLog{}, err
	}
	sl := StructuredLog{
		Time:    time.Now().UTC(),
		Job:     job,
		Event:   event,
		Payload: payloadJSON,
	}

	kvMap := toMap(kv...)
	if userMeta, ok := kvMap["metadata"]; ok && userMeta != nil {
		meta := strings.TrimSpace(fmt.Sprint(userMeta))
		if meta != "" {
			sl.Metadata = &meta
		}
	}
	if v, ok := kvMap["elapsed"]; ok {
		sl.Elapsed = parseUint32(v)
	}
	if v, ok := kvMap["time"]; ok {
		if t, ok := v.(time.Time); ok {
			sl.Time = t
		}
	}
	return sl, nil
}

// Report logs a StructuredLog at info level under the given module.
func Report(module string, job string, event string, payload interface{}, kv ...interface{}) {
	sl, err := NewStructuredLog(job, event, payload, kv...)
	if err != nil {
		Error(module, "Report: Failed to marshal payload", "err", err)
		return
	}
	b, err := json.Marshal(sl)
	if err != nil {
		Error(module, "Report: Failed to marshal report", "err", err)
		return
	}
	Info(module, "report", "json", string(b))
}

func toMap(kv ...interface{}) map[string]interface{} {
	m := make(map[string]interface{}, len(kv)/2)
	for i := 0; i+1 < len(kv); i += 2 {
		if k, ok := kv[i].(string); ok {
			m[k] = kv[i+1]
		}
	}
	return m
}

func parseUint32(v interface{}) uint32 {
	switch t := v.(type) {
	case int:
		return uint32(t)
	case int64:
		return uint32(t)
	case float64:
		return uint32(t)
	case uint32:
		return t
	case uint64:
		return uint32(t)
	case time.Duration:
		return uint32(t.Milliseconds())
	case string:
		if n, err := strconv.ParseUint(t, 10, 32); err == nil {
			return uint32(n)
		}
	}
	return 0
}
