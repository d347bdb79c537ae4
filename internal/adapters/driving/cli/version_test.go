package cli

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestVersionCmd(t *testing.T) {
	tests := []struct {
		name    string
		version string
		want    string
	}{
		{"default", "dev", "docs-agent version dev"},
		{"release", "1.2.0", "docs-agent version 1.2.0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			original := version
			version = tt.version
			defer func() { version = original }()

			buf := new(bytes.Buffer)
			rootCmd.SetOut(buf)
			rootCmd.SetArgs([]string{"version"})
			defer rootCmd.SetArgs(nil)

			err := rootCmd.Execute()

			assert.NoError(t, err)
			assert.Contains(t, buf.String(), tt.want)
		})
	}
}
