package config

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadAndArgs(t *testing.T) {
	c, err := Read(filepath.Join("testdata", "pipeline.yaml"))
	require.NoError(t, err)
	require.NoError(t, c.Validate())

	args, err := c.Args()
	require.NoError(t, err)
	assert.Equal(t, []string{
		"extract", "--repository-path", ".", "--mlflow-url", "http://localhost:5000",
		"transform", "--use-pseudonyms", "--eliminate-duplicates",
		"merge",
		"save", "--format", "json", "--format", "provn", "--output", "graph", "--overwrite",
		"statistics", "--resolution", "fine", "--format", "csv",
	}, args)
}

func TestReadMissingFile(t *testing.T) {
	_, err := Read(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestValidateRejects(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"unknown stage", "- publish:\n    to: s3\n"},
		{"unknown option", "- save:\n    compress: true\n"},
		{"bad format", "- save:\n    format: yaml\n"},
		{"bad format in list", "- save:\n    format: [json, yaml]\n"},
		{"wrong type", "- extract:\n    refresh: yes please\n"},
		{"two stages in one item", "- merge:\n  save:\n"},
		{"not a list", "extract:\n  repository-path: .\n"},
		{"bad resolution", "- statistics:\n    resolution: medium\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := New("pipeline.yaml", []byte(tt.content)).Validate()
			require.Error(t, err)

			var verr *ValidationError
			require.True(t, errors.As(err, &verr), "got %T: %v", err, err)
			assert.NotEmpty(t, verr.Issues)
			assert.Contains(t, err.Error(), "invalid config pipeline.yaml")
		})
	}
}

func TestValidateAcceptsEmptyStages(t *testing.T) {
	c := New("p.yaml", []byte("- merge:\n- load:\n    input: [a.json, 'b/**/*.json']\n"))
	require.NoError(t, c.Validate())

	args, err := c.Args()
	require.NoError(t, err)
	assert.Equal(t, []string{"merge", "load", "--input", "a.json", "--input", "b/**/*.json"}, args)
}

func TestArgsUnknownLiteral(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"integer", "- save:\n    output: 3\n"},
		{"map", "- save:\n    output: {a: b}\n"},
		{"integer in list", "- load:\n    input: [a, 1]\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New("p.yaml", []byte(tt.content)).Args()
			assert.ErrorIs(t, err, ErrUnknownLiteral)
		})
	}
}

func TestArgsShape(t *testing.T) {
	_, err := New("p.yaml", []byte("a: b\n")).Args()
	assert.ErrorContains(t, err, "expected a list of stages")

	_, err = New("p.yaml", []byte("- merge:\n  save:\n")).Args()
	assert.ErrorContains(t, err, "single-key map")

	args, err := New("p.yaml", nil).Args()
	require.NoError(t, err)
	assert.Empty(t, args)
}

func TestIssueString(t *testing.T) {
	assert.Equal(t, "boom", Issue{Message: "boom"}.String())
}
