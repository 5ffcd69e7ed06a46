package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/nextlevelbuilder/droidbench/pkg/action"
	"github.com/nextlevelbuilder/droidbench/pkg/hierarchy"
)

func actionCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "action",
		Short: "Inspect agent action strings",
	}
	cmd.AddCommand(actionParseCmd())
	return cmd
}

func actionParseCmd() *cobra.Command {
	var snapshot string
	cmd := &cobra.Command{
		Use:   "parse ACTION",
		Short: "Parse an agent action string into an action record",
		Long: `Parse an agent action string such as "click [3]" or "swipe [100,800] [100,200]".
Id-based actions resolve against the widgets of --xml; without it the
coordinate grammar is used.`,
		Example: `  droidbench action parse --xml 0.xml 'text [1] [hello]'
  droidbench action parse 'click [540,1200]'`,
		Args: cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			a, err := parseAction(args[0], snapshot)
			if err != nil {
				fmt.Fprintf(os.Stderr, "Error: %s\n", err)
				os.Exit(1)
			}

			fmt.Println(a.Describe())
			data, _ := json.MarshalIndent(a, "", "  ")
			fmt.Println(string(data))
		},
	}
	cmd.Flags().StringVar(&snapshot, "xml", "", "snapshot the widget ids refer to")
	return cmd
}

// parseAction parses s with the coordinate grammar, or with the id grammar
// against the widgets of snapshot when one is given.
func parseAction(s, snapshot string) (action.Action, error) {
	if snapshot == "" {
		return action.ParseByCoords(s)
	}
	h, err := hierarchy.ParseFile(snapshot)
	if err != nil {
		return action.Action{}, err
	}
	ws := hierarchy.NewWidgetStore()
	ws.Store(snapshot, h)
	return action.ParseByRef(s, ws, snapshot)
}
