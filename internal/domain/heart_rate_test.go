package domain

import (
	"testing"
	"time"
)

func TestHeartRateSample_NaturalKey(t *testing.T) {
	ts := NewAPITime(time.Date(2026, 8, 25, 10, 0, 0, 0, time.UTC))

	a := &HeartRateSample{Timestamp: ts, HeartRate: 72, SourceDevice: "Apple Watch"}
	b := &HeartRateSample{Timestamp: ts, HeartRate: 72, SourceDevice: "Apple Watch", MetadataJSON: `{"ctx":"workout"}`}
	if a.NaturalKey() != b.NaturalKey() {
		t.Fatal("metadata must not affect the natural key")
	}

	// 同一时刻、同一数值、不同设备，是不同的观测
	c := &HeartRateSample{Timestamp: ts, HeartRate: 72, SourceDevice: "Polar H10"}
	if a.NaturalKey() == c.NaturalKey() {
		t.Fatal("different source devices must yield different keys")
	}

	d := &HeartRateSample{Timestamp: ts, HeartRate: 73, SourceDevice: "Apple Watch"}
	if a.NaturalKey() == d.NaturalKey() {
		t.Fatal("different heart rates must yield different keys")
	}
}

func TestHeartRateSample_Validate(t *testing.T) {
	ts := NewAPITime(time.Now())

	cases := []struct {
		name    string
		sample  HeartRateSample
		wantErr bool
	}{
		{"ok", HeartRateSample{Timestamp: ts, HeartRate: 72, SourceDevice: "w"}, false},
		{"zero rate ok", HeartRateSample{Timestamp: ts, HeartRate: 0, SourceDevice: "w"}, false},
		{"max rate ok", HeartRateSample{Timestamp: ts, HeartRate: 300, SourceDevice: "w"}, false},
		{"missing timestamp", HeartRateSample{HeartRate: 72, SourceDevice: "w"}, true},
		{"negative rate", HeartRateSample{Timestamp: ts, HeartRate: -1, SourceDevice: "w"}, true},
		{"rate too high", HeartRateSample{Timestamp: ts, HeartRate: 301, SourceDevice: "w"}, true},
		{"missing device", HeartRateSample{Timestamp: ts, HeartRate: 72}, true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.sample.Validate()
			if (err != nil) != tc.wantErr {
				t.Fatalf("Validate() = %v, wantErr %v", err, tc.wantErr)
			}
		})
	}
}

func TestBatchOutcome(t *testing.T) {
	ok := BatchOutcome{Received: 5, Inserted: 3, Duplicates: 2}
	if !ok.Consistent() || !ok.Clean() {
		t.Fatal("expected consistent clean outcome")
	}

	withErrors := BatchOutcome{Received: 5, Inserted: 3, Duplicates: 1, Errors: 1}
	if !withErrors.Consistent() {
		t.Fatal("expected consistent outcome")
	}
	if withErrors.Clean() {
		t.Fatal("outcome with errors must not be clean")
	}

	broken := BatchOutcome{Received: 5, Inserted: 3}
	if broken.Consistent() || broken.Clean() {
		t.Fatal("tally must balance against received")
	}
}
