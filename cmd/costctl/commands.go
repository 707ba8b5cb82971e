package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/JAITteam/ja-uniforms-pricing/internal/app"
	"github.com/JAITteam/ja-uniforms-pricing/internal/catalog"
	"github.com/JAITteam/ja-uniforms-pricing/internal/export"
	"github.com/JAITteam/ja-uniforms-pricing/internal/migrations"
	"github.com/JAITteam/ja-uniforms-pricing/internal/pricing"
	"github.com/JAITteam/ja-uniforms-pricing/internal/seed"
	"github.com/JAITteam/ja-uniforms-pricing/internal/sizes"
	"github.com/JAITteam/ja-uniforms-pricing/internal/styles"
)

var (
	heading = color.New(color.Bold)
	success = color.New(color.FgGreen)
	warn    = color.New(color.FgYellow)
	dim     = color.New(color.Faint)
)

func migrateCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending schema migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			database, err := e.open()
			if err != nil {
				return err
			}
			if err := migrations.Up(database); err != nil {
				return err
			}
			version, err := migrations.Version(database)
			if err != nil {
				return err
			}
			success.Fprintf(cmd.OutOrStdout(), "schema at version %d\n", version)
			return nil
		},
	}
}

func seedCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Insert the admin user and default catalog rows that are missing",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			database, err := e.open()
			if err != nil {
				return err
			}
			cfg := seed.DefaultConfig(e.cfg.AdminEmail, e.cfg.AdminPassword)
			cfg.LabelCost = e.cfg.Pricing.DefaultLabelCost
			cfg.ShippingCost = e.cfg.Pricing.DefaultShippingCost
			cfg.Sublimation = e.cfg.Pricing.SublimationSurcharge

			stats, err := seed.Run(database, cfg)
			if err != nil {
				return err
			}
			success.Fprintf(cmd.OutOrStdout(), "seed complete: %d inserted, %d updated\n", stats.Inserts, stats.Updates)
			return nil
		},
	}
}

func estimateCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "estimate <vendor-style>",
		Short: "Print the cost breakdown of a stored style",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			database, err := e.open()
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			rec, err := styles.NewStore(database).GetByVendorStyle(ctx, args[0])
			if err != nil {
				return err
			}
			defaults, err := app.Defaults(ctx, catalog.NewStore(database), e.cfg.Pricing)
			if err != nil {
				return err
			}
			printBreakdown(cmd.OutOrStdout(), rec, pricing.Recompute(rec.Draft(defaults.Rates)))
			return nil
		},
	}
}

func line(w io.Writer, label string, amount float64) {
	fmt.Fprintf(w, "  %-36s %10s\n", label, pricing.FormatMoney(amount))
}

func printBreakdown(w io.Writer, rec styles.Record, d pricing.Draft) {
	heading.Fprintf(w, "%s  %s\n", d.VendorStyle, d.StyleName)
	if d.GarmentType != "" {
		dim.Fprintf(w, "%s, %s\n", d.Gender, d.GarmentType)
	}

	heading.Fprintln(w, "Fabrics")
	for _, f := range d.Fabrics {
		if f.IsEmpty() {
			continue
		}
		label := fmt.Sprintf("%s %s %.2f yd x %.2f", f.FabricCode, f.FabricName, f.Yards, f.CostPerYard)
		if f.FreightShipCost > 0 {
			label += fmt.Sprintf(" + %.2f", f.FreightShipCost)
		}
		line(w, label, f.RowTotal)
	}

	if slices.ContainsFunc(d.Notions, func(n pricing.NotionLine) bool { return !n.IsEmpty() }) {
		heading.Fprintln(w, "Notions")
		for _, n := range d.Notions {
			if !n.IsEmpty() {
				line(w, fmt.Sprintf("%s %g x %.2f", n.NotionName, n.Qty, n.CostPerUnit), n.RowTotal)
			}
		}
	}

	if len(rec.Labor) > 0 {
		heading.Fprintln(w, "Labor")
		for _, l := range rec.Labor {
			row := d.Labor[pricing.LaborKey(l.Name)]
			line(w, fmt.Sprintf("%s %g x %.2f", row.Name, row.QtyOrHours, row.Rate), row.RowTotal)
		}
	}

	heading.Fprintln(w, "Other")
	line(w, "Cleaning", d.CleaningCost)
	line(w, "Label", d.LabelCost)
	line(w, "Shipping", d.ShippingCost)

	heading.Fprintln(w, "Totals")
	line(w, "Materials", d.Totals.Materials)
	line(w, "Labor", d.Totals.Labor)
	success.Fprintf(w, "  %-36s %10s\n", "Total", pricing.FormatMoney(d.Totals.Grand))
	if d.Totals.Extended != nil && d.SizeRange != nil {
		line(w, fmt.Sprintf("Extended sizes (+%g%%)", d.SizeRange.MarkupPercent), *d.Totals.Extended)
	}
	line(w, fmt.Sprintf("Retail at %g%% margin", pricing.ClampPercent(d.Margin)), d.Totals.Retail)
	line(w, fmt.Sprintf("Suggested at %.1f%% margin", d.SuggestedMargin), d.SuggestedPrice)
}

func exportCmd(e *env) *cobra.Command {
	var format, out string

	cmd := &cobra.Command{
		Use:   "export [vendor-style...]",
		Short: "Write the SAP item import file for the given styles, or all styles",
		RunE: func(cmd *cobra.Command, args []string) error {
			if format != "csv" && format != "xlsx" {
				return fmt.Errorf("unsupported format %q: use csv or xlsx", format)
			}
			database, err := e.open()
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			store := styles.NewStore(database)

			var records []styles.Record
			if len(args) == 0 {
				all, err := store.List(ctx)
				if err != nil {
					return err
				}
				for _, s := range all {
					rec, err := store.Get(ctx, s.ID)
					if err != nil {
						return err
					}
					records = append(records, rec)
				}
			}
			for _, code := range args {
				rec, err := store.GetByVendorStyle(ctx, code)
				if err != nil {
					return err
				}
				records = append(records, rec)
			}
			if len(records) == 0 {
				return fmt.Errorf("no styles to export")
			}

			defaults, err := app.Defaults(ctx, catalog.NewStore(database), e.cfg.Pricing)
			if err != nil {
				return err
			}
			rows, err := export.RowsForAll(records, defaults.Rates)
			if err != nil {
				return err
			}

			if out == "" {
				name := ""
				if len(records) == 1 {
					name = records[0].VendorStyle
				}
				out = export.Filename(name, time.Now(), format)
			}
			if err := writeExportFile(out, format, rows); err != nil {
				return err
			}
			success.Fprintf(cmd.OutOrStdout(), "wrote %d rows for %d styles to %s\n", len(rows), len(records), out)
			return nil
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", "csv", "output format: csv or xlsx")
	cmd.Flags().StringVarP(&out, "out", "o", "", "output file (defaults to SAP_<style>_<timestamp>.<format>)")
	return cmd
}

func writeExportFile(path, format string, rows []export.Row) (err error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create %s: %w", dir, err)
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer func() {
		if cerr := f.Close(); err == nil && cerr != nil {
			err = fmt.Errorf("close %s: %w", path, cerr)
		}
	}()

	if format == "xlsx" {
		return export.WriteXLSX(f, rows)
	}
	return export.WriteCSV(f, rows)
}

func sizesCmd() *cobra.Command {
	var extended string

	cmd := &cobra.Command{
		Use:   "sizes <expr>",
		Short: "Expand a size expression such as \"XS-XL\" or \"0-16\"",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			all := sizes.All(args[0], extended)
			if len(all) == 0 {
				return fmt.Errorf("no sizes in %q", args[0])
			}
			w := cmd.OutOrStdout()
			for _, s := range all {
				if sizes.IsExtended(s, extended) {
					warn.Fprintf(w, "%s (extended)\n", s)
					continue
				}
				fmt.Fprintln(w, s)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&extended, "extended", "", "extended size expression, e.g. 2XL-6XL")
	return cmd
}

func importColorsCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "import-colors <file.xlsx>",
		Short: "Import color names from the Color column of a workbook",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !strings.EqualFold(filepath.Ext(args[0]), ".xlsx") {
				return fmt.Errorf("%s is not an .xlsx file", args[0])
			}
			f, err := os.Open(args[0])
			if err != nil {
				return fmt.Errorf("open %s: %w", args[0], err)
			}
			defer f.Close()

			names, err := catalog.ReadColorNames(f)
			if err != nil {
				return err
			}
			database, err := e.open()
			if err != nil {
				return err
			}
			result, err := catalog.NewStore(database).ImportColors(cmd.Context(), names)
			if err != nil {
				return err
			}
			success.Fprintf(cmd.OutOrStdout(), "imported %d colors", result.Imported)
			if result.Skipped > 0 {
				dim.Fprintf(cmd.OutOrStdout(), " (%d already present or blank)", result.Skipped)
			}
			fmt.Fprintln(cmd.OutOrStdout())
			return nil
		},
	}
}
