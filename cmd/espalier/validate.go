package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/aretw0/espalier/pkg/adapters/memory"
	"github.com/aretw0/espalier/pkg/domain"
	"github.com/spf13/cobra"
)

var validateCmd = &cobra.Command{
	Use:   "validate [file]",
	Short: "Check a document definition for consistency",
	Long: `Parses the document and reports structural problems: nodes that
declare bindings without an identity, and identities that collide after case
normalization.`,
	Run: func(cmd *cobra.Command, args []string) {
		if err := runValidate(documentPath(cmd, args)); err != nil {
			fmt.Printf("Validation failed: %v\n", err)
			os.Exit(1)
		}
		fmt.Println("Document is valid! ✅")
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
}

func runValidate(path string) error {
	doc, err := memory.LoadDocument(path)
	if err != nil {
		return err
	}

	var problems []string
	seen := make(map[string]string)
	walkValidate(doc.Root(), seen, &problems)

	if len(problems) > 0 {
		return fmt.Errorf("%d problem(s):\n  - %s", len(problems), strings.Join(problems, "\n  - "))
	}
	return nil
}

func walkValidate(n domain.Node, seen map[string]string, problems *[]string) {
	if !n.IsElement() {
		return
	}

	id := n.ID()
	hasBindings := len(domain.Tokens(n, domain.AttrBehavior)) > 0
	if declared, ok := n.Attr(domain.AttrComponent); ok && strings.TrimSpace(declared) != "" {
		hasBindings = true
	}

	if id == "" {
		if hasBindings {
			*problems = append(*problems, "node declares bindings but has no id")
		}
	} else {
		key := strings.ToLower(id)
		if prev, dup := seen[key]; dup {
			*problems = append(*problems, fmt.Sprintf("identity collision: %q and %q normalize to %q", prev, id, key))
		} else {
			seen[key] = id
		}
	}

	for _, child := range n.Children() {
		walkValidate(child, seen, problems)
	}
}
