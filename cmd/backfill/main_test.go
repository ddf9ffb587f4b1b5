//go:build !integration

package main

import (
	"bytes"
	"errors"
	"strings"
	"testing"
	"time"

	"support-kb-ingest/internal/config"
	"support-kb-ingest/internal/usecase"
)

func TestBuildRequest(t *testing.T) {
	t.Parallel()
	defaults := config.BatchConfig{After: "2023-01-01T00:00:00Z", Delay: time.Second}

	tests := []struct {
		name          string
		after, before string
		delay         time.Duration
		want          usecase.BatchRequest
		wantErr       bool
	}{
		{name: "defaults", want: usecase.BatchRequest{After: "2023-01-01T00:00:00Z", Delay: time.Second}},
		{
			name:  "flags win",
			after: "2024-03-01T00:00:00Z", before: "2024-04-01T00:00:00Z", delay: 5 * time.Second,
			want: usecase.BatchRequest{After: "2024-03-01T00:00:00Z", Before: "2024-04-01T00:00:00Z", Delay: 5 * time.Second},
		},
		{name: "bad after", after: "yesterday", wantErr: true},
		{name: "bad before", before: "2024-13-01", wantErr: true},
		{name: "inverted window", after: "2024-04-01T00:00:00Z", before: "2024-03-01T00:00:00Z", wantErr: true},
	}
	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			got, err := buildRequest(defaults, tc.after, tc.before, tc.delay)
			if tc.wantErr {
				if err == nil {
					t.Fatalf("expected error, got %+v", got)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tc.want {
				t.Fatalf("got %+v want %+v", got, tc.want)
			}
		})
	}
}

func TestConfirm(t *testing.T) {
	t.Parallel()
	cfg := &config.Config{Archive: config.ArchiveConfig{Bucket: "kb", Offline: true}}
	req := usecase.BatchRequest{After: "2024-01-01T00:00:00Z"}

	var out bytes.Buffer
	if err := confirm(strings.NewReader("y\n"), &out, cfg, req); err != nil {
		t.Fatalf("expected confirmation, got %v", err)
	}
	if !strings.Contains(out.String(), "2024-01-01T00:00:00Z .. now") || !strings.Contains(out.String(), "offline") {
		t.Fatalf("unexpected prompt: %q", out.String())
	}

	for _, answer := range []string{"n\n", "\n", ""} {
		if err := confirm(strings.NewReader(answer), &bytes.Buffer{}, cfg, req); !errors.Is(err, errAborted) {
			t.Fatalf("answer %q: expected errAborted, got %v", answer, err)
		}
	}
}
