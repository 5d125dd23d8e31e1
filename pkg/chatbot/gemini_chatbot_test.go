package chatbot

import (
	"testing"
)

func TestTrimCodeFence(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{
			name: "plain json untouched",
			raw:  `["a","b"]`,
			want: `["a","b"]`,
		},
		{
			name: "json fence",
			raw:  "```json\n[\"a\"]\n```",
			want: `["a"]`,
		},
		{
			name: "bare fence",
			raw:  "```\n{\"found\":true}\n```",
			want: `{"found":true}`,
		},
		{
			name: "surrounding whitespace",
			raw:  "  \n```json\n{}\n```\n  ",
			want: `{}`,
		},
		{
			name: "empty input",
			raw:  "",
			want: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := string(TrimCodeFence([]byte(tt.raw)))
			if got != tt.want {
				t.Errorf("TrimCodeFence(%q) = %q, want %q", tt.raw, got, tt.want)
			}
		})
	}
}
