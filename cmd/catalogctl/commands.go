package main

import (
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"listing-billing-be/internal/bootstrap"
	"listing-billing-be/internal/config"
	"listing-billing-be/internal/dto"
	"listing-billing-be/pkg/database"
	"listing-billing-be/pkg/entitlement/dependency"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
)

var rootCommand = &cobra.Command{
	Use:   "catalogctl",
	Short: "Inspect the plan and upgrade catalog",
}

var treeCommand = &cobra.Command{
	Use:   "tree <upgrade-code>",
	Short: "Print the prerequisite tree of an upgrade",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		container, err := open()
		if err != nil {
			return err
		}
		defer container.Close()

		node, err := container.CatalogService.GetUpgradeTree(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		renderTree(cmd.OutOrStdout(), node)
		return nil
	},
}

var validatePlanCommand = &cobra.Command{
	Use:   "validate-plan <plan-code>",
	Short: "Check every upgrade a plan bundles for missing prerequisites",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		container, err := open()
		if err != nil {
			return err
		}
		defer container.Close()

		report, err := container.CatalogService.GetPlanUpgradeReport(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		renderPlanReport(cmd.OutOrStdout(), report)
		if !report.Valid {
			return fmt.Errorf("plan %s has unsatisfied bundled upgrades", report.PlanCode)
		}
		return nil
	},
}

var checkGraphCommand = &cobra.Command{
	Use:   "check-graph",
	Short: "Verify the stored upgrade graph is acyclic",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		container, err := open()
		if err != nil {
			return err
		}
		defer container.Close()

		order, err := container.CatalogService.CheckGraph(cmd.Context())
		if err != nil {
			return err
		}
		color.New(color.FgGreen).Fprintf(cmd.OutOrStdout(), "Graph is acyclic (%d upgrades)\n", len(order))
		fmt.Fprintln(cmd.OutOrStdout(), strings.Join(order, " -> "))
		return nil
	},
}

var plansCommand = &cobra.Command{
	Use:   "plans",
	Short: "List plans with their variants",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		container, err := open()
		if err != nil {
			return err
		}
		defer container.Close()

		all, _ := cmd.Flags().GetBool("all")
		res, err := container.CatalogService.AdminListPlans(cmd.Context(), dto.ListRequest{Limit: 100, IncludeInactive: all})
		if err != nil {
			return err
		}
		renderPlans(cmd.OutOrStdout(), res.Items)
		return nil
	},
}

func init() {
	plansCommand.Flags().Bool("all", false, "include inactive plans")
	rootCommand.AddCommand(treeCommand, validatePlanCommand, checkGraphCommand, plansCommand)
}

func open() (*bootstrap.Container, error) {
	cfg := config.Load()
	// Keep the tool quiet: no file log, no broker.
	cfg.App.LogFilePath = ""
	cfg.Infra.NatsURL = ""

	db, err := database.NewGormDBFromDSN(cfg.Database.Connection, false)
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}
	return bootstrap.NewContainer(db, cfg)
}

func renderTree(w io.Writer, root *dependency.Node) {
	var walk func(n *dependency.Node, prefix string, last bool, top bool)
	walk = func(n *dependency.Node, prefix string, last bool, top bool) {
		branch, next := "", ""
		if !top {
			branch, next = "├── ", "│   "
			if last {
				branch, next = "└── ", "    "
			}
		}
		fmt.Fprintf(w, "%s%s%s\n", prefix, branch, label(n))
		for i, child := range n.Requires {
			walk(child, prefix+next, i == len(n.Requires)-1, false)
		}
	}
	walk(root, "", true, true)
}

func label(n *dependency.Node) string {
	switch {
	case n.Missing:
		return color.RedString("%s (missing)", n.Code)
	case !n.Active:
		return color.YellowString("%s (inactive)", n.Code)
	case n.Name != "":
		return color.GreenString("%s", n.Code) + " " + n.Name
	default:
		return color.GreenString("%s", n.Code)
	}
}

func renderPlanReport(w io.Writer, report *dependency.PlanReport) {
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Bundled Upgrade", "Missing Prerequisites"})

	codes := make([]string, 0, len(report.ByUpgrade))
	for code := range report.ByUpgrade {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	for _, code := range codes {
		table.Append([]string{code, strings.Join(report.ByUpgrade[code], ", ")})
	}
	table.Render()

	if report.Valid {
		color.New(color.FgGreen).Fprintf(w, "Plan %s: all bundled upgrades satisfied\n", report.PlanCode)
		return
	}
	color.New(color.FgRed).Fprintf(w, "Plan %s: missing %s\n", report.PlanCode, strings.Join(report.Missing, ", "))
}

func renderPlans(w io.Writer, plans []dto.PlanResponse) {
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Code", "Name", "Level", "Variants", "Bundles", "Stacking", "Active"})
	for _, p := range plans {
		variants := make([]string, 0, len(p.Variants))
		for _, v := range p.Variants {
			variants = append(variants, fmt.Sprintf("%dd=%s", v.Days, v.Price.StringFixed(2)))
		}
		table.Append([]string{
			p.Code,
			p.Name,
			strconv.Itoa(p.Level),
			strings.Join(variants, " "),
			strings.Join(p.IncludedUpgrades, ", "),
			p.StackingPolicy,
			strconv.FormatBool(p.IsActive),
		})
	}
	table.Render()
}
