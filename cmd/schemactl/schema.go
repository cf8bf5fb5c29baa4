package main

import (
	"fmt"

	"github.com/datacurio/schemactl/internal/schema"
	"github.com/spf13/cobra"
)

var schemaCmd = &cobra.Command{
	Use:   "schema",
	Short: "Query the schema graph",
}

var schemaDepsCmd = &cobra.Command{
	Use:   "dependencies <node>",
	Short: "List the immediate dependencies of a node",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		resolver, done, err := buildResolver(cmd)
		if err != nil {
			return err
		}
		defer done()

		displayNames, _ := cmd.Flags().GetBool("display-names")
		schemaOrdered, _ := cmd.Flags().GetBool("schema-order")

		ctx, cancel := signalContext()
		defer cancel()

		deps, err := resolver.Dependencies(ctx, schemaURLFlag(cmd), args[0], displayNames, schemaOrdered)
		if err != nil {
			return err
		}
		printLines(cmd, deps)
		return nil
	},
}

var schemaRangeCmd = &cobra.Command{
	Use:   "range <node>",
	Short: "List the valid values of a node",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		resolver, done, err := buildResolver(cmd)
		if err != nil {
			return err
		}
		defer done()

		displayNames, _ := cmd.Flags().GetBool("display-names")

		ctx, cancel := signalContext()
		defer cancel()

		values, err := resolver.Range(ctx, schemaURLFlag(cmd), args[0], displayNames)
		if err != nil {
			return err
		}
		printLines(cmd, values)
		return nil
	},
}

var schemaRequiredCmd = &cobra.Command{
	Use:   "required <display-name>",
	Short: "Report whether an attribute is required",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		resolver, done, err := buildResolver(cmd)
		if err != nil {
			return err
		}
		defer done()

		ctx, cancel := signalContext()
		defer cancel()

		required, err := resolver.IsRequired(ctx, schemaURLFlag(cmd), args[0])
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), required)
		return nil
	},
}

var schemaRulesCmd = &cobra.Command{
	Use:   "rules <display-name>",
	Short: "List the validation rules of an attribute",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		resolver, done, err := buildResolver(cmd)
		if err != nil {
			return err
		}
		defer done()

		ctx, cancel := signalContext()
		defer cancel()

		rules, err := resolver.ValidationRules(ctx, schemaURLFlag(cmd), args[0])
		if err != nil {
			return err
		}
		printLines(cmd, rules)
		return nil
	},
}

var schemaDisplayNamesCmd = &cobra.Command{
	Use:   "display-names <label>...",
	Short: "Map node labels to display names",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		resolver, done, err := buildResolver(cmd)
		if err != nil {
			return err
		}
		defer done()

		ctx, cancel := signalContext()
		defer cancel()

		names, err := resolver.DisplayNames(ctx, schemaURLFlag(cmd), args)
		if err != nil {
			return err
		}
		printLines(cmd, names)
		return nil
	},
}

var schemaLabelCmd = &cobra.Command{
	Use:   "label <display-name>",
	Short: "Derive the property label of a display name",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		strict, _ := cmd.Flags().GetBool("strict-camel-case")

		// Resolving against a schema is optional: without a URL the
		// label is a pure transformation of the display name.
		if schemaURLFlag(cmd) == "" {
			fmt.Fprintln(cmd.OutOrStdout(), schema.PropertyLabel(args[0], strict))
			return nil
		}

		resolver, done, err := buildResolver(cmd)
		if err != nil {
			return err
		}
		defer done()

		ctx, cancel := signalContext()
		defer cancel()

		label, err := resolver.PropertyLabelFor(ctx, schemaURLFlag(cmd), args[0], strict)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), label)
		return nil
	},
}

var schemaRequirementsCmd = &cobra.Command{
	Use:   "requirements <component>",
	Short: "List the components a component transitively requires",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := setup(cmd)
		if err != nil {
			return err
		}
		engine, closeCache, err := buildEngine(cfg)
		if err != nil {
			return err
		}
		defer closeCache()

		asGraph, _ := cmd.Flags().GetBool("graph")
		expander := schema.NewExpander(engine)

		ctx, cancel := signalContext()
		defer cancel()

		if asGraph {
			edges, err := expander.RequirementEdges(ctx, schemaURLFlag(cmd), args[0])
			if err != nil {
				return err
			}
			for _, e := range edges {
				fmt.Fprintf(cmd.OutOrStdout(), "%s -> %s\n", e[0], e[1])
			}
			return nil
		}

		components, err := expander.Requirements(ctx, schemaURLFlag(cmd), args[0])
		if err != nil {
			return err
		}
		printLines(cmd, components)
		return nil
	},
}

func init() {
	schemaCmd.PersistentFlags().String("schema-url", "", "Schema document URL")

	schemaDepsCmd.Flags().Bool("display-names", false, "Return display names instead of labels")
	schemaDepsCmd.Flags().Bool("schema-order", false, "Preserve the schema's declared attribute order")
	schemaRangeCmd.Flags().Bool("display-names", false, "Return display names instead of labels")
	schemaLabelCmd.Flags().Bool("strict-camel-case", false, "Use strict camelCase derivation")
	schemaRequirementsCmd.Flags().Bool("graph", false, "Print requirement edges instead of the component list")

	schemaCmd.AddCommand(schemaDepsCmd)
	schemaCmd.AddCommand(schemaRangeCmd)
	schemaCmd.AddCommand(schemaRequiredCmd)
	schemaCmd.AddCommand(schemaRulesCmd)
	schemaCmd.AddCommand(schemaDisplayNamesCmd)
	schemaCmd.AddCommand(schemaLabelCmd)
	schemaCmd.AddCommand(schemaRequirementsCmd)
}

func schemaURLFlag(cmd *cobra.Command) string {
	url, _ := cmd.Flags().GetString("schema-url")
	return url
}

func buildResolver(cmd *cobra.Command) (*schema.Resolver, func(), error) {
	cfg, err := setup(cmd)
	if err != nil {
		return nil, nil, err
	}
	engine, closeCache, err := buildEngine(cfg)
	if err != nil {
		return nil, nil, err
	}
	return schema.NewResolver(engine), closeCache, nil
}

func printLines(cmd *cobra.Command, lines []string) {
	for _, line := range lines {
		fmt.Fprintln(cmd.OutOrStdout(), line)
	}
}
