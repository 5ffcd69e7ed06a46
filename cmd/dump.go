package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/pkoukk/tiktoken-go"
	"github.com/spf13/cobra"

	"github.com/nextlevelbuilder/droidbench/pkg/hierarchy"
)

func dumpCmd() *cobra.Command {
	var (
		widgets  bool
		annotate string
		out      string
		tokens   bool
		encoding string
	)
	cmd := &cobra.Command{
		Use:   "dump SNAPSHOT_XML",
		Short: "Print the indented text dump of a view hierarchy snapshot",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			h, err := hierarchy.ParseFile(args[0])
			if err != nil {
				fmt.Fprintf(os.Stderr, "Error: %s\n", err)
				os.Exit(1)
			}

			var text string
			if widgets {
				var b strings.Builder
				for _, w := range h.Widgets() {
					fmt.Fprintf(&b, "[%d] %s\n", w.Index, w.Describe())
				}
				text = b.String()
			} else {
				text = h.DumpText()
			}
			fmt.Print(text)

			if tokens {
				n, err := countTokens(encoding, text)
				if err != nil {
					fmt.Fprintf(os.Stderr, "Token count unavailable: %s\n", err)
				} else {
					fmt.Fprintf(os.Stderr, "%d tokens (%s)\n", n, encoding)
				}
			}

			if annotate != "" {
				img, err := imaging.Open(annotate)
				if err != nil {
					fmt.Fprintf(os.Stderr, "Error: %s\n", err)
					os.Exit(1)
				}
				if out == "" {
					out = strings.TrimSuffix(annotate, ".png") + "_annotated.png"
				}
				if err := imaging.Save(h.DumpAnnotatedImage(img), out); err != nil {
					fmt.Fprintf(os.Stderr, "Error: %s\n", err)
					os.Exit(1)
				}
				fmt.Fprintf(os.Stderr, "Annotated screenshot written to %s\n", out)
			}
		},
	}
	cmd.Flags().BoolVar(&widgets, "widgets", false, "list only the numbered interactable widgets")
	cmd.Flags().StringVar(&annotate, "annotate", "", "screenshot to draw numbered widget boxes on")
	cmd.Flags().StringVarP(&out, "out", "o", "", "annotated image output path")
	cmd.Flags().BoolVar(&tokens, "tokens", false, "report the observation size in LLM tokens")
	cmd.Flags().StringVar(&encoding, "encoding", "cl100k_base", "tiktoken encoding for --tokens")
	return cmd
}

// countTokens estimates what the dump costs as an agent observation.
// The encoding tables are downloaded on first use and cached by tiktoken-go.
func countTokens(encoding, text string) (int, error) {
	enc, err := tiktoken.GetEncoding(encoding)
	if err != nil {
		return 0, err
	}
	return len(enc.Encode(text, nil, nil)), nil
}
