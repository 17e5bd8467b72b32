package logfields

import (
	"errors"
	"testing"
)

// TestHelperKeyNames verifies string-based helper key/value stability.
func TestHelperKeyNames(t *testing.T) {
	cases := []struct {
		name    string
		attrKey string
		attrVal string
	}{
		{"Node", KeyNode, "agg-1"},
		{"Task", KeyTask, "t1"},
		{"Operation", KeyOperation, "process"},
		{"Sensor", KeySensor, "processor-node.task.t1.agg-1.process"},
		{"Subject", KeySubject, "records.in"},
		{"URL", KeyURL, "nats://localhost:4222"},
		{"Interval", KeyInterval, "30s"},
	}

	attrs := []struct {
		key string
		val string
	}{
		{Node("agg-1").Key, Node("agg-1").Value.String()},
		{Task("t1").Key, Task("t1").Value.String()},
		{Operation("process").Key, Operation("process").Value.String()},
		{Sensor("processor-node.task.t1.agg-1.process").Key, Sensor("processor-node.task.t1.agg-1.process").Value.String()},
		{Subject("records.in").Key, Subject("records.in").Value.String()},
		{URL("nats://localhost:4222").Key, URL("nats://localhost:4222").Value.String()},
		{Interval("30s").Key, Interval("30s").Value.String()},
	}

	for i, tc := range cases {
		if attrs[i].key != tc.attrKey {
			t.Errorf("%s: key = %q, want %q", tc.name, attrs[i].key, tc.attrKey)
		}
		if attrs[i].val != tc.attrVal {
			t.Errorf("%s: value = %q, want %q", tc.name, attrs[i].val, tc.attrVal)
		}
	}
}

func TestErrorHelper(t *testing.T) {
	if got := Error(nil).Value.String(); got != "" {
		t.Errorf("Error(nil) = %q, want empty", got)
	}
	if got := Error(errors.New("boom")).Value.String(); got != "boom" {
		t.Errorf("Error = %q, want boom", got)
	}
}
