package llmclient

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	genai "google.golang.org/genai"
)

func TestClassifyAPIError(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		permanent bool
	}{
		{"bad request", genai.APIError{Code: 400, Status: "INVALID_ARGUMENT"}, true},
		{"unauthenticated", genai.APIError{Code: 401}, true},
		{"forbidden", genai.APIError{Code: 403, Status: "PERMISSION_DENIED"}, true},
		{"unknown model", genai.APIError{Code: 404}, true},
		{"wrapped forbidden", fmt.Errorf("generate: %w", genai.APIError{Code: 403}), true},
		{"rate limited", genai.APIError{Code: 429, Status: "RESOURCE_EXHAUSTED"}, false},
		{"server error", genai.APIError{Code: 503}, false},
		{"transport", errors.New("connection reset"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := classifyAPIError(tt.err)
			assert.Equal(t, tt.permanent, IsPermanent(got))
			assert.Equal(t, tt.err.Error(), got.Error())
		})
	}
}
