package monitoring

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"
)

func TestSendTagged(t *testing.T) {
	var got sample

	srv := httptest.NewServer(http.HandlerFunc(
		func(w http.ResponseWriter, r *http.Request) {
			if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
				http.Error(w, err.Error(), http.StatusBadRequest)
			}
		},
	))
	defer srv.Close()

	sender, err := Dial(srv.URL)
	if err != nil {
		t.Fatalf("Dial failed: %v", err)
	}
	defer sender.Close()

	tags := []Tag{
		{Key: "process.number", Value: "4"},
		{Key: "param.structure", Value: "tree"},
	}

	err = sender.SendTagged(context.Background(), 1234, "time", tags)
	if err != nil {
		t.Fatalf("SendTagged failed: %v", err)
	}

	if got.Metric != "time" {
		t.Errorf("metric = %q, want time", got.Metric)
	}
	if got.Value != 1234 {
		t.Errorf("value = %d, want 1234", got.Value)
	}
	if got.Timestamp == 0 {
		t.Error("timestamp not set")
	}

	wantTags := map[string]string{
		"process.number":  "4",
		"param.structure": "tree",
	}
	if !reflect.DeepEqual(got.Tags, wantTags) {
		t.Errorf("tags = %v, want %v", got.Tags, wantTags)
	}
}

func TestSendTaggedCollectorError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(
		func(w http.ResponseWriter, _ *http.Request) {
			http.Error(w, "full", http.StatusInsufficientStorage)
		},
	))
	defer srv.Close()

	sender, err := Dial(srv.URL)
	if err != nil {
		t.Fatalf("Dial failed: %v", err)
	}
	defer sender.Close()

	err = sender.SendTagged(context.Background(), 1, "time", nil)
	if err == nil {
		t.Error("expected error from failing collector")
	}
}

func TestDialRejectsBadScheme(t *testing.T) {
	if _, err := Dial("udp://localhost:8125"); err == nil {
		t.Error("expected error for unsupported scheme")
	}
}
