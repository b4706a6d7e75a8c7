package llm

import "testing"

func TestNewOpenRouterProvider(t *testing.T) {
	tests := []struct {
		name    string
		cfg     OpenRouterConfig
		wantErr bool
	}{
		{"valid", OpenRouterConfig{APIKey: "sk-or-test", Model: "google/gemini-2.5-flash-lite"}, false},
		{"custom base URL", OpenRouterConfig{APIKey: "sk-or-test", Model: "meta-llama/llama-3-8b", BaseURL: "https://gw.example/v1"}, false},
		{"missing key", OpenRouterConfig{Model: "google/gemini-2.5-flash-lite"}, true},
		{"missing model", OpenRouterConfig{APIKey: "sk-or-test"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := NewOpenRouterProvider(tt.cfg)
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if err == nil && p.ModelID() != tt.cfg.Model {
				t.Errorf("ModelID = %q, want %q (no alias mapping)", p.ModelID(), tt.cfg.Model)
			}
		})
	}
}
