package app

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/pflag"
)

// Command is the mode the binary runs in.
type Command string

const (
	// CommandServe starts the HTTP API.
	CommandServe Command = "serve"
	// CommandMigrate prepares the store schema (Postgres migrations or Mongo indexes) and exits.
	CommandMigrate Command = "migrate"
	// CommandImportUsers loads a username,email,role CSV into the user directory and exits.
	CommandImportUsers Command = "import-users"
)

// ParseCommand splits args into a subcommand and its remaining arguments.
// Empty or unknown input selects CommandServe and leaves args untouched.
func ParseCommand(args []string) (Command, []string) {
	if len(args) == 0 {
		return CommandServe, nil
	}

	switch Command(args[0]) {
	case CommandServe, CommandMigrate, CommandImportUsers:
		return Command(args[0]), args[1:]
	default:
		return CommandServe, args
	}
}

// Flags are the command-line overrides layered on top of the environment.
type Flags struct {
	Port     string
	Store    string
	LogLevel string
	File     string
}

// errHelp signals that usage was printed and the process should exit cleanly.
var errHelp = errors.New("help requested")

func parseFlags(cmd Command, args []string, w io.Writer) (Flags, error) {
	var f Flags
	fs := pflag.NewFlagSet(string(cmd), pflag.ContinueOnError)
	fs.SetOutput(w)
	fs.Usage = func() {
		fmt.Fprintf(w, "Usage: eatwhat %s [flags]\n\n", cmd)
		fs.PrintDefaults()
	}

	fs.StringVar(&f.LogLevel, "log-level", "", "override LOG_LEVEL (trace, debug, info, warn, error)")
	fs.StringVar(&f.Store, "store", "", "override STORE_DRIVER (mongo or postgres)")
	switch cmd {
	case CommandServe:
		fs.StringVarP(&f.Port, "port", "p", "", "override PORT")
	case CommandImportUsers:
		fs.StringVarP(&f.File, "file", "f", "", "CSV file to import (defaults to USERS_CSV)")
	}

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return f, errHelp
		}
		return f, err
	}
	if fs.NArg() > 0 {
		return f, fmt.Errorf("unexpected arguments: %v", fs.Args())
	}
	return f, nil
}
