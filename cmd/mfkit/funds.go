package main

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/seenimoa/mfkit/internal/client"
	"github.com/seenimoa/mfkit/pkg/models"
	"github.com/seenimoa/mfkit/pkg/utils"
)

func init() {
	rootCmd.AddCommand(codesCmd)
	rootCmd.AddCommand(validCmd)
	rootCmd.AddCommand(quoteCmd)
	rootCmd.AddCommand(detailsCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(balanceCmd)
	rootCmd.AddCommand(changeCmd)
	rootCmd.AddCommand(performanceCmd)
	rootCmd.AddCommand(amcProfilesCmd)
	rootCmd.AddCommand(aumCmd)

	codesCmd.Flags().String("q", "", "only schemes whose name contains this text")
	historyCmd.Flags().Int("year", 0, "only NAVs of this calendar year")
	historyCmd.Flags().String("from", "", "range start (DD-MM-YYYY)")
	historyCmd.Flags().String("to", "", "range end (DD-MM-YYYY)")
	performanceCmd.Flags().String("category", "", "one sub-category by name or code")
}

// render prints v as JSON when --json is set; otherwise text is called.
func render(v any, text func()) error {
	if asJSON {
		return client.Render(os.Stdout, v, true)
	}
	text()
	return nil
}

// --- Scheme Commands ---

var codesCmd = &cobra.Command{
	Use:   "codes",
	Short: "List scheme codes and names",
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := newClient(cmd.Context())
		if err != nil {
			return err
		}
		q, _ := cmd.Flags().GetString("q")
		q = strings.ToLower(q)

		all := c.ListSchemeCodes()
		codes := make([]string, 0, len(all))
		out := make(map[string]string, len(all))
		for code, name := range all {
			if q != "" && !strings.Contains(strings.ToLower(name), q) {
				continue
			}
			codes = append(codes, code)
			out[code] = name
		}
		sort.Strings(codes)

		return render(out, func() {
			for _, code := range codes {
				fmt.Printf("%-8s %s\n", code, out[code])
			}
			fmt.Printf("\n%d schemes\n", len(codes))
		})
	},
}

var validCmd = &cobra.Command{
	Use:   "valid [code]",
	Short: "Check whether a scheme code exists",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := newClient(cmd.Context())
		if err != nil {
			return err
		}
		ok := c.IsValidCode(args[0])
		return render(map[string]bool{args[0]: ok}, func() {
			if ok {
				fmt.Printf("✅ %s is a valid scheme code\n", args[0])
			} else {
				fmt.Printf("❌ %s is not a valid scheme code\n", args[0])
			}
		})
	},
}

var quoteCmd = &cobra.Command{
	Use:   "quote [code]",
	Short: "Show the latest NAV of a scheme",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := newClient(cmd.Context())
		if err != nil {
			return err
		}
		q, err := c.GetQuote(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		return render(q, func() { printQuote(q) })
	},
}

var detailsCmd = &cobra.Command{
	Use:   "details [code]",
	Short: "Show scheme metadata",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := newClient(cmd.Context())
		if err != nil {
			return err
		}
		d, err := c.GetDetail(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		return render(d, func() { printDetail(d) })
	},
}

var historyCmd = &cobra.Command{
	Use:   "history [code]",
	Short: "Show the NAV history of a scheme",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		year, _ := cmd.Flags().GetInt("year")
		from, _ := cmd.Flags().GetString("from")
		to, _ := cmd.Flags().GetString("to")
		if year != 0 && (from != "" || to != "") {
			return fmt.Errorf("use either --year or --from/--to")
		}

		c, err := newClient(cmd.Context())
		if err != nil {
			return err
		}

		var h *models.SchemeHistory
		switch {
		case year != 0:
			h, err = c.GetHistoryForYear(cmd.Context(), args[0], year)
		case from != "" || to != "":
			h, err = c.GetHistoryForRange(cmd.Context(), args[0], from, to)
		default:
			h, err = c.GetHistory(cmd.Context(), args[0])
		}
		if err != nil {
			return err
		}

		return render(h, func() {
			printDetail(&h.SchemeDetail)
			fmt.Println()
			if !h.Found {
				fmt.Println("  No NAV records for this period.")
				return
			}
			fmt.Printf("  %-12s %s\n", "Date", "NAV")
			for _, r := range h.Data {
				fmt.Printf("  %-12s %s\n", r.Date, r.NAV)
			}
			fmt.Printf("\n  %d records\n", len(h.Data))
		})
	},
}

var balanceCmd = &cobra.Command{
	Use:   "balance [code] [units]",
	Short: "Value a holding of units at the latest NAV",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := newClient(cmd.Context())
		if err != nil {
			return err
		}
		q, err := c.GetBalanceValue(cmd.Context(), args[0], args[1])
		if err != nil {
			return err
		}
		return render(q, func() {
			printQuote(q)
			units, _ := utils.ParseUnits(args[1])
			value, _ := utils.ParseIndianNumber(q.BalanceUnitsValue)
			fmt.Printf("  Units:      %s\n", units.String())
			fmt.Printf("  Value:      %s\n", utils.FormatINR(value))
		})
	},
}

var changeCmd = &cobra.Command{
	Use:   "change [code]",
	Short: "Show the change between the last two NAVs",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := newClient(cmd.Context())
		if err != nil {
			return err
		}
		d, err := c.GetOneDayChange(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		return render(map[string]any{"scheme_code": args[0], "change": json.Number(d.String())}, func() {
			fmt.Printf("%s one-day NAV change: %s\n", args[0], utils.FormatChange(d, 4))
		})
	},
}

// --- Report Commands ---

var performanceCmd = &cobra.Command{
	Use:   "performance [group]",
	Short: "Show daily performance reports of a category group",
	Long: `Show daily performance reports of a category group (equity, debt,
hybrid, solution, other) or, with --category, of one sub-category.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := newClient(cmd.Context())
		if err != nil {
			return err
		}

		var reports []models.CategoryPerformance
		if category, _ := cmd.Flags().GetString("category"); category != "" {
			p, err := c.GetSubCategoryPerformance(cmd.Context(), args[0], category)
			if err != nil {
				return err
			}
			reports = []models.CategoryPerformance{*p}
		} else {
			reports, err = c.GetCategoryPerformance(cmd.Context(), args[0])
			if err != nil {
				return err
			}
		}

		return render(reports, func() {
			for _, r := range reports {
				printPerformance(r)
			}
		})
	},
}

var amcProfilesCmd = &cobra.Command{
	Use:   "amc-profiles",
	Short: "Show the profile of every AMC",
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := newClient(cmd.Context())
		if err != nil {
			return err
		}
		profiles, err := c.GetAllAmcProfiles(cmd.Context())
		if err != nil {
			return err
		}
		return render(profiles, func() {
			for _, p := range profiles {
				fmt.Printf("── AMC %s ──\n", p.AmcID)
				keys := make([]string, 0, len(p.Fields))
				for k := range p.Fields {
					keys = append(keys, k)
				}
				sort.Strings(keys)
				for _, k := range keys {
					fmt.Printf("  %-30s %s\n", k+":", p.Fields[k])
				}
				fmt.Println()
			}
		})
	},
}

var aumCmd = &cobra.Command{
	Use:   "aum [quarter]",
	Short: `Show fund-house-wise average AUM, e.g. "July - September 2020"`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := newClient(cmd.Context())
		if err != nil {
			return err
		}
		aum, err := c.GetAverageAum(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		return render(aum, func() {
			fmt.Printf("Average AUM (₹ lakh) — %s\n\n", aum.Quarter)
			fmt.Printf("  %-50s %18s %18s\n", "Fund house", "Domestic", "Overseas")
			for _, r := range aum.Rows {
				fmt.Printf("  %-50s %18s %18s\n", r.FundName, r.AAUMDomestic, r.AAUMOverseas)
			}
		})
	},
}

// --- Text output ---

func printQuote(q *models.SchemeQuote) {
	fmt.Printf("📈 %s (%s)\n", q.SchemeName, q.SchemeCode)
	fmt.Printf("  NAV:        %s\n", q.NAV)
	fmt.Printf("  As of:      %s\n", q.LastUpdated)
}

func printDetail(d *models.SchemeDetail) {
	fmt.Printf("📄 %s (%s)\n", d.SchemeName, d.SchemeCode)
	fmt.Printf("  Fund house: %s\n", d.FundHouse)
	fmt.Printf("  Type:       %s\n", d.SchemeType)
	fmt.Printf("  Category:   %s\n", d.SchemeCategory)
	if d.SchemeStartDate != nil {
		fmt.Printf("  Started:    %s (NAV %s)\n", d.SchemeStartDate.Date, d.SchemeStartDate.NAV)
	}
}

func printPerformance(r models.CategoryPerformance) {
	fmt.Printf("── %s / %s (%s) ──\n", r.Group, r.Category, r.ReportDate)
	if !r.Available {
		fmt.Println("  Report not available for this date.")
		fmt.Println()
		return
	}
	fmt.Printf("  %-55s %10s %10s %8s %8s %8s\n", "Scheme", "NAV Reg", "NAV Dir", "1Y Dir", "3Y Dir", "5Y Dir")
	for _, row := range r.Rows {
		fmt.Printf("  %-55s %10s %10s %8s %8s %8s\n",
			truncate(row.SchemeName, 55), row.NAVRegular, row.NAVDirect,
			row.Return1YDirect, row.Return3YDirect, row.Return5YDirect)
	}
	fmt.Printf("  %d schemes\n\n", len(r.Rows))
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
