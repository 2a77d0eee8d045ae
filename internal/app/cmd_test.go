package app

import (
	"bytes"
	"errors"
	"reflect"
	"strings"
	"testing"
)

func TestParseCommand(t *testing.T) {
	tests := []struct {
		name     string
		args     []string
		wantCmd  Command
		wantRest []string
	}{
		{"no args", nil, CommandServe, nil},
		{"serve", []string{"serve", "--port", "9000"}, CommandServe, []string{"--port", "9000"}},
		{"migrate", []string{"migrate"}, CommandMigrate, []string{}},
		{"import users", []string{"import-users", "-f", "users.csv"}, CommandImportUsers, []string{"-f", "users.csv"}},
		{"flags only", []string{"--port", "9000"}, CommandServe, []string{"--port", "9000"}},
		{"unknown", []string{"frobnicate"}, CommandServe, []string{"frobnicate"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd, rest := ParseCommand(tt.args)
			if cmd != tt.wantCmd {
				t.Errorf("command = %q, want %q", cmd, tt.wantCmd)
			}
			if !reflect.DeepEqual(rest, tt.wantRest) {
				t.Errorf("rest = %#v, want %#v", rest, tt.wantRest)
			}
		})
	}
}

func TestParseFlags(t *testing.T) {
	var out bytes.Buffer

	f, err := parseFlags(CommandServe, []string{"-p", "9000", "--store", "postgres", "--log-level", "debug"}, &out)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if f.Port != "9000" || f.Store != "postgres" || f.LogLevel != "debug" {
		t.Errorf("unexpected flags: %+v", f)
	}

	f, err = parseFlags(CommandImportUsers, []string{"--file", "users.csv"}, &out)
	if err != nil || f.File != "users.csv" {
		t.Errorf("expected file flag, got %+v %v", f, err)
	}

	if _, err := parseFlags(CommandImportUsers, []string{"--port", "9000"}, &out); err == nil {
		t.Error("--port is only registered for serve")
	}
	if _, err := parseFlags(CommandMigrate, []string{"extra"}, &out); err == nil {
		t.Error("expected error for positional arguments")
	}
}

func TestParseFlags_Help(t *testing.T) {
	var out bytes.Buffer

	_, err := parseFlags(CommandImportUsers, []string{"--help"}, &out)
	if !errors.Is(err, errHelp) {
		t.Fatalf("expected errHelp, got %v", err)
	}
	if !strings.Contains(out.String(), "Usage: eatwhat import-users") || !strings.Contains(out.String(), "--file") {
		t.Errorf("usage not printed: %q", out.String())
	}
}
