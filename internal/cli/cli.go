package cli

import (
	"fmt"
	"os"

	goflags "github.com/jessevdk/go-flags"
)

// commands holds references to all subcommand structs for inspection/testing.
type commands struct {
	Serve    *ServeCommand
	Generate *GenerateCommand
	History  *HistoryCommand
	Open     *OpenCommand
	Status   *StatusCommand
}

// buildParser constructs the go-flags parser with all subcommands registered.
func buildParser(version string) (*goflags.Parser, *GlobalFlags, *commands) {
	var globals GlobalFlags

	parser := goflags.NewParser(&globals, goflags.Default)
	parser.Name = "storycard"
	parser.LongDescription = "Render user stories as numbered PNG cards and keep a browsable history."

	cmds := &commands{
		Serve:    &ServeCommand{globals: &globals, version: version},
		Generate: &GenerateCommand{globals: &globals, version: version},
		History:  &HistoryCommand{globals: &globals, version: version},
		Open:     &OpenCommand{globals: &globals, version: version},
		Status:   &StatusCommand{globals: &globals, version: version},
	}

	parser.AddCommand("serve", "Start the web front", "Serve the story form, card history and card images over HTTP.", cmds.Serve)
	parser.AddCommand("generate", "Render a story card", "Allocate the next story id and render a card from the given fields.", cmds.Generate)
	parser.AddCommand("history", "List generated cards", "List generated cards, most recent first.", cmds.History)
	parser.AddCommand("open", "Show a stored card", "Print the stored record and image path of a card.", cmds.Open)
	parser.AddCommand("status", "Show counter and storage statistics", "Show the story counter, card directory usage and index statistics.", cmds.Status)

	return parser, &globals, cmds
}

// Run is the main entry point for the storycard CLI using os.Args.
func Run(version string) error {
	return RunWithArgs(version, nil)
}

// RunWithArgs parses the given args (or os.Args if nil) and executes the matched subcommand.
func RunWithArgs(version string, args []string) error {
	// --version is valid without a subcommand, which go-flags would reject.
	checkArgs := args
	if checkArgs == nil {
		checkArgs = os.Args[1:]
	}
	for _, arg := range checkArgs {
		if arg == "--version" {
			fmt.Printf("storycard %s\n", version)
			return nil
		}
		if arg == "--" {
			break
		}
	}

	parser, _, _ := buildParser(version)

	var err error
	if args != nil {
		_, err = parser.ParseArgs(args)
	} else {
		_, err = parser.Parse()
	}

	if err != nil {
		if flagsErr, ok := err.(*goflags.Error); ok {
			if flagsErr.Type == goflags.ErrHelp {
				return nil
			}
		}
		return err
	}

	return nil
}
