package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const orderYAML = `id: order-1
readableId: A-7
cartItems:
  - name: Burger
    quantity: 2
    price: 150
cost:
  subtotalAmount: 300
`

const orderJSON = `{"id":"order-1","readableId":"A-7","cartItems":[{"name":"Burger","quantity":2,"price":150}],"cost":{"subtotalAmount":300}}`

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestRunRendersOrder(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		content string
	}{
		{"yaml", "order.yaml", orderYAML},
		{"json", "order.json", orderJSON},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var stdout, stderr bytes.Buffer
			code := run([]string{"--width", "32", writeFile(t, tt.file, tt.content)}, &stdout, &stderr)

			require.Equal(t, 0, code, stderr.String())
			out := stdout.String()
			assert.Contains(t, out, "Order #A-7")
			assert.Contains(t, out, "2x Burger")
			assert.Contains(t, out, "$3.00")
			for _, line := range strings.Split(strings.TrimRight(out, "\n"), "\n") {
				assert.LessOrEqual(t, len([]rune(line)), 32, line)
			}
		})
	}
}

func TestRunSameOutputForJSONAndYAML(t *testing.T) {
	var fromYAML, fromJSON, stderr bytes.Buffer
	require.Equal(t, 0, run([]string{writeFile(t, "o.yml", orderYAML)}, &fromYAML, &stderr))
	require.Equal(t, 0, run([]string{writeFile(t, "o.JSON", orderJSON)}, &fromJSON, &stderr))
	assert.Equal(t, fromYAML.String(), fromJSON.String())
}

func TestRunErrors(t *testing.T) {
	tests := []struct {
		name   string
		args   func(t *testing.T) []string
		code   int
		stderr string
	}{
		{
			name:   "no files",
			args:   func(t *testing.T) []string { return nil },
			code:   2,
			stderr: "usage:",
		},
		{
			name:   "width out of range",
			args:   func(t *testing.T) []string { return []string{"-w", "8", writeFile(t, "o.yaml", orderYAML)} },
			code:   2,
			stderr: "outside 16..96",
		},
		{
			name:   "missing file",
			args:   func(t *testing.T) []string { return []string{filepath.Join(t.TempDir(), "nope.yaml")} },
			code:   1,
			stderr: "failed to read order",
		},
		{
			name:   "malformed json",
			args:   func(t *testing.T) []string { return []string{writeFile(t, "o.json", "{")} },
			code:   1,
			stderr: "failed to decode",
		},
		{
			name: "invalid order",
			args: func(t *testing.T) []string {
				return []string{writeFile(t, "o.yaml", "cartItems:\n  - name: Tea\n    quantity: 0\n")}
			},
			code:   1,
			stderr: "cartItems[0].quantity: quantity must be at least 1",
		},
		{
			name:   "unknown flag",
			args:   func(t *testing.T) []string { return []string{"--bogus"} },
			code:   2,
			stderr: "unknown flag",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var stdout, stderr bytes.Buffer
			code := run(tt.args(t), &stdout, &stderr)
			assert.Equal(t, tt.code, code)
			assert.Contains(t, stderr.String(), tt.stderr)
			assert.Empty(t, stdout.String())
		})
	}
}

func TestRunHelp(t *testing.T) {
	var stdout, stderr bytes.Buffer
	assert.Equal(t, 0, run([]string{"--help"}, &stdout, &stderr))
	assert.Contains(t, stderr.String(), "--width")
}
