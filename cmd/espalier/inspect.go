package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/aretw0/espalier"
	"github.com/aretw0/espalier/internal/tui"
	"github.com/aretw0/espalier/pkg/adapters/memory"
	"github.com/spf13/cobra"
)

var inspectCmd = &cobra.Command{
	Use:   "inspect [file]",
	Short: "Enhance a document and report what attached where",
	Long: `Parses the document, binds a generic type to every declared name,
runs the full attachment lifecycle, and renders a report of the resulting
registry.`,
	Run: func(cmd *cobra.Command, args []string) {
		if err := runInspect(documentPath(cmd, args)); err != nil {
			fmt.Printf("Inspect failed: %v\n", err)
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(inspectCmd)
}

func runInspect(path string) error {
	doc, err := memory.LoadDocument(path)
	if err != nil {
		return err
	}

	decls := collectDeclarations(doc.Root())
	eng, err := espalier.New(doc, espalier.WithName(path))
	if err != nil {
		return err
	}
	if err := registerDeclared(eng, decls); err != nil {
		return err
	}
	if err := eng.Enhance(context.Background(), doc.Root()); err != nil {
		return err
	}

	tui.PrintBanner(espalier.Version)

	var b strings.Builder
	fmt.Fprintf(&b, "# Document: %s\n\n", path)
	fmt.Fprintf(&b, "## Catalogs\n\n")
	fmt.Fprintf(&b, "- **Behaviors**: %s\n", orNone(decls.behaviorNames()))
	fmt.Fprintf(&b, "- **Components**: %s\n\n", orNone(decls.componentNames()))
	fmt.Fprintf(&b, "## Registry\n\n")
	fmt.Fprintf(&b, "| Node | Types | Subscriptions |\n")
	fmt.Fprintf(&b, "|------|-------|---------------|\n")
	for _, snap := range eng.Snapshot() {
		fmt.Fprintf(&b, "| %s | %s | %d |\n", snap.NodeID, strings.Join(snap.Types, ", "), snap.Subscriptions)
	}

	render := tui.NewRenderer()
	out, err := render(b.String())
	if err != nil {
		return err
	}
	fmt.Print(out)
	return nil
}

func orNone(names []string) string {
	if len(names) == 0 {
		return "(none)"
	}
	return strings.Join(names, ", ")
}
