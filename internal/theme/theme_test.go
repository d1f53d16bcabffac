package theme

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/nhle/devflow/internal/model"
)

func TestSummary(t *testing.T) {
	tests := []struct {
		name     string
		result   model.BatchResult
		contains []string
	}{
		{
			name:     "all succeeded",
			result:   model.BatchResult{Success: 3},
			contains: []string{"3 succeeded"},
		},
		{
			name:     "with failures",
			result:   model.BatchResult{Success: 1, Failed: 1, Errors: []string{"ABC-2: worklog: HTTP 403"}},
			contains: []string{"1 succeeded", "1 failed", "ABC-2: worklog: HTTP 403"},
		},
		{
			name:     "nothing attempted",
			result:   model.BatchResult{Errors: []string{"Nothing to do."}},
			contains: []string{"Nothing was attempted.", "Nothing to do."},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Summary(tt.result)
			for _, want := range tt.contains {
				assert.Contains(t, got, want)
			}
		})
	}
}
