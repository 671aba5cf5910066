package models

import (
	"encoding/json"
	"reflect"
	"testing"
)

func TestResult_MarshalJSON(t *testing.T) {
	tests := []struct {
		name   string
		result Result
		want   string
	}{
		{"payload verbatim", Result{Payload: json.RawMessage(`{"id":12345678901234567891,"temp":15.0}`)}, `{"id":12345678901234567891,"temp":15.0}`},
		{"null payload", Result{Payload: json.RawMessage(`null`)}, `null`},
		{"error record", Result{Error: &UpstreamError{Error: "Not found", Status: 404}}, `{"error":"Not found","status":404}`},
		{"empty result", Result{}, `{}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := json.Marshal(tt.result)
			if err != nil {
				t.Fatalf("Marshal() error = %v", err)
			}
			if string(got) != tt.want {
				t.Errorf("Marshal() = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestResult_UnmarshalJSON(t *testing.T) {
	tests := []struct {
		name    string
		data    string
		want    Result
		wantErr bool
	}{
		{
			name: "payload",
			data: `{"resolvedAddress":"Boston","days":[{"temp":1.5}]}`,
			want: Result{Payload: json.RawMessage(`{"resolvedAddress":"Boston","days":[{"temp":1.5}]}`)},
		},
		{
			name: "error record",
			data: `{"error":"Bad API Request","status":400}`,
			want: Result{Error: &UpstreamError{Error: "Bad API Request", Status: 400}},
		},
		{
			name: "extra keys beside error and status",
			data: `{"error":"x","status":400,"days":[]}`,
			want: Result{Payload: json.RawMessage(`{"error":"x","status":400,"days":[]}`)},
		},
		{
			name: "error and status of the wrong types",
			data: `{"error":1,"status":"bad"}`,
			want: Result{Payload: json.RawMessage(`{"error":1,"status":"bad"}`)},
		},
		{
			name: "null",
			data: `null`,
			want: Result{Payload: json.RawMessage(`null`)},
		},
		{
			name:    "invalid JSON",
			data:    `{not json`,
			wantErr: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got Result
			err := json.Unmarshal([]byte(tt.data), &got)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Unmarshal() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Unmarshal() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

// TestResult_RoundTrip verifies that encoding then decoding yields the same result.
func TestResult_RoundTrip(t *testing.T) {
	for _, r := range []Result{
		{Payload: json.RawMessage(`{"temp":15,"conditions":"Clear"}`)},
		{Error: &UpstreamError{Error: "No account found with API key ''", Status: 401}},
	} {
		data, err := json.Marshal(r)
		if err != nil {
			t.Fatalf("Marshal() error = %v", err)
		}
		var got Result
		if err := json.Unmarshal(data, &got); err != nil {
			t.Fatalf("Unmarshal(%s) error = %v", data, err)
		}
		if !reflect.DeepEqual(got, r) {
			t.Errorf("round trip = %+v, want %+v", got, r)
		}
	}
}

func TestKey_String(t *testing.T) {
	if got := (Key{Location: "New York", Date: "2024-01-01"}).String(); got != "New York/2024-01-01" {
		t.Errorf("String() = %q", got)
	}
}
