package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/rolodex-dev/rolodex/internal/store"
	"github.com/rolodex-dev/rolodex/internal/ui"
)

var listCmd = &cobra.Command{
	Use:     "list",
	GroupID: "inspect",
	Short:   "List stored contacts with their tags",
	Long: `List stored contacts, one per line, as "Name | TagA, TagB".

Examples:
  rolo list                        # everything
  rolo list --tag Stanford         # contacts linked to one tag
  rolo list --query intel          # name, company, title or tag contains "intel"
  rolo list --yaml > backup.yaml   # export that 'rolo import --source' can read`,
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()
		e := mustOpenEnv(ctx)
		defer e.Close()

		tag, _ := cmd.Flags().GetString("tag")
		query, _ := cmd.Flags().GetString("query")
		limit, _ := cmd.Flags().GetInt("limit")
		asJSON, _ := cmd.Flags().GetBool("json")
		asYAML, _ := cmd.Flags().GetBool("yaml")

		rows, err := e.db.Display(ctx, store.DisplayFilter{Tag: tag, Query: query, Limit: limit})
		if err != nil {
			fatalf("%v", err)
		}

		switch {
		case asJSON:
			printJSON(rows)
		case asYAML:
			enc := yaml.NewEncoder(os.Stdout)
			enc.SetIndent(2)
			if err := enc.Encode(rows); err != nil {
				fatalf("failed to encode YAML: %v", err)
			}
			_ = enc.Close()
		default:
			printDisplay(rows)
		}
	},
}

var tagsCmd = &cobra.Command{
	Use:     "tags",
	GroupID: "inspect",
	Short:   "List tags and how many contacts carry each",
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()
		e := mustOpenEnv(ctx)
		defer e.Close()

		tags, err := e.db.ListTags(ctx)
		if err != nil {
			fatalf("%v", err)
		}

		if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
			if tags == nil {
				tags = []*store.Tag{}
			}
			printJSON(tags)
			return
		}
		if len(tags) == 0 {
			fmt.Println(ui.RenderMuted("No tags yet."))
			return
		}

		rows := make([][]string, 0, len(tags))
		for _, t := range tags {
			rows = append(rows, []string{t.Name, strconv.Itoa(t.Contacts)})
		}
		fmt.Println(ui.Table([]string{"Tag", "Contacts"}, rows))
	},
}

func init() {
	listCmd.Flags().String("tag", "", "only contacts linked to this tag")
	listCmd.Flags().String("query", "", "case-insensitive text filter")
	listCmd.Flags().Int("limit", 0, "maximum number of contacts (0 = all)")
	listCmd.Flags().Bool("json", false, "output JSON")
	listCmd.Flags().Bool("yaml", false, "output YAML")
	listCmd.MarkFlagsMutuallyExclusive("json", "yaml")

	tagsCmd.Flags().Bool("json", false, "output JSON")

	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(tagsCmd)
}

func printDisplay(rows []store.DisplayRow) {
	if len(rows) == 0 {
		fmt.Println(ui.RenderMuted("No contacts stored."))
		return
	}
	for _, r := range rows {
		fmt.Printf("%s | %s\n", r.Name, ui.RenderTags(r.Tags))
	}
}

func printJSON(v any) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		fatalf("failed to encode JSON: %v", err)
	}
}
