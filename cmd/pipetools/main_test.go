package main

import (
	"testing"

	"github.com/harrison/pipetools/internal/cmd"
)

func TestRootCommandBuilds(t *testing.T) {
	root := cmd.NewRootCommand()
	if root.Use != "pipetools" {
		t.Errorf("expected root command pipetools, got %q", root.Use)
	}
	if cmd.Version == "" {
		t.Error("Version should not be empty")
	}
}
