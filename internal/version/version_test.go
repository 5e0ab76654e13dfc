package version

import (
	"bytes"
	"runtime"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"
)

// TestVersionStrings ensures Short and Full return consistent information.
func TestVersionStrings(t *testing.T) {
	t.Parallel()

	require.NotEmpty(t, Short())
	require.Contains(t, Full(), Short())
	require.Contains(t, Full(), runtime.Version())
	require.Len(t, KV(), 8)
}

// TestAttachCobraVersionCommand runs the subcommand with and without --short.
func TestAttachCobraVersionCommand(t *testing.T) {
	t.Parallel()

	tests := []struct {
		args []string
		want string
	}{
		{args: []string{"version", "--short"}, want: Short() + "\n"},
		{args: []string{"version"}, want: Full() + "\n"},
	}

	for _, tt := range tests {
		root := &cobra.Command{Use: "meet-desk"}
		AttachCobraVersionCommand(root)

		var out bytes.Buffer

		root.SetOut(&out)
		root.SetArgs(tt.args)

		require.NoError(t, root.Execute())
		require.Equal(t, tt.want, out.String())
		require.Equal(t, Short(), root.Version)
	}
}
