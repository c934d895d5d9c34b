package main

import (
	"fmt"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/talgya/snow-globe/internal/world"
)

var generateOpts struct {
	halfExtent int
	night      bool
	plotPath   string
}

var generateCmd = &cobra.Command{
	Use:   "generate <city>",
	Short: "Generate a city scene and print its summary",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openStore()
		if err != nil {
			return err
		}
		if db != nil {
			defer db.Close()
		}
		styles, err := loadStyleTable(db)
		if err != nil {
			return err
		}

		city := strings.Join(args, " ")
		cfg := world.DefaultGenConfig()
		if generateOpts.halfExtent > 0 {
			cfg.HalfExtent = generateOpts.halfExtent
		}

		start := time.Now()
		scene := world.GenerateCity(styles, city, cfg)
		took := time.Since(start)
		rs := scene.Render(!generateOpts.night, 0)
		c := scene.Counts()

		out := cmd.OutOrStdout()
		style := scene.Style.Name
		if !styles.Known(city) {
			style += " (fallback)"
		}
		fmt.Fprintf(out, "%s: style %s, layout %s\n", scene.City, style, scene.Style.Layout)
		fmt.Fprintf(out, "fingerprint %016x, generated in %s\n\n", scene.Fingerprint(), took.Round(time.Microsecond))

		w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
		rows := []struct {
			label string
			n     int
		}{
			{"cells", len(scene.Cells)},
			{"  water", c.Water},
			{"  park", c.Park},
			{"  road", c.Road},
			{"  building", c.Building},
			{"buildings", c.Buildings},
			{"  spires", c.Spires},
			{"lamps", c.Lamps},
			{"vehicles", c.Vehicles},
			{"trees", c.Trees},
			{"boats", c.Boats},
			{"markers", c.Markers},
		}
		for _, r := range rows {
			fmt.Fprintf(w, "%s\t%s\n", r.label, humanize.Comma(int64(r.n)))
		}
		total := len(rs.Terrain) + len(rs.Buildings) + len(rs.Props) + len(rs.Markers)
		fmt.Fprintf(w, "instances\t%s\n", humanize.Comma(int64(total)))
		if err := w.Flush(); err != nil {
			return err
		}

		if generateOpts.plotPath != "" {
			if err := plotScene(scene, !generateOpts.night, generateOpts.plotPath); err != nil {
				return err
			}
			fmt.Fprintf(out, "\nmap written to %s\n", generateOpts.plotPath)
		}
		return nil
	},
}

var stylesCmd = &cobra.Command{
	Use:   "styles",
	Short: "List the city style catalog",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openStore()
		if err != nil {
			return err
		}
		if db != nil {
			defer db.Close()
		}
		styles, err := loadStyleTable(db)
		if err != nil {
			return err
		}

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "CITY\tLAYOUT\tHEIGHT\tWATER\tFEATURES")
		for _, name := range styles.Names() {
			p := styles.Resolve(name)
			fmt.Fprintf(w, "%s\t%s\t%.2f\t%+.2f\t%s\n", name, p.Layout, p.HeightScale, p.WaterBias, featureList(p.Features))
		}
		return w.Flush()
	},
}

var historyLimit int

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recent scene generations from the store",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openStore()
		if err != nil {
			return err
		}
		if db == nil {
			return fmt.Errorf("history needs a store (--db)")
		}
		defer db.Close()

		gens, err := db.RecentGenerations(historyLimit)
		if err != nil {
			return err
		}
		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "WHEN\tCITY\tBUILDINGS\tTOOK\tFINGERPRINT\tRUN")
		for _, g := range gens {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%016x\t%s\n",
				humanize.Time(g.At), g.City, humanize.Comma(int64(g.Counts.Buildings)),
				g.Took.Round(time.Microsecond), g.Fingerprint, g.RunID.String()[:8])
		}
		return w.Flush()
	},
}

func init() {
	generateCmd.Flags().IntVar(&generateOpts.halfExtent, "half-extent", 0, "grid half-extent override")
	generateCmd.Flags().BoolVar(&generateOpts.night, "night", false, "apply the night color pass")
	generateCmd.Flags().StringVar(&generateOpts.plotPath, "plot", "", "write a top-down map image (png, svg, pdf)")
	historyCmd.Flags().IntVar(&historyLimit, "limit", 20, "number of entries")
}

func featureList(f world.Features) string {
	var out []string
	for _, kv := range []struct {
		on   bool
		name string
	}{
		{f.HasRiver, "river"},
		{f.HasBoats, "boats"},
		{f.HasSpire, "spire"},
		{f.HasTaxis, "taxis"},
		{f.HasRedVehicles, "red vehicles"},
		{f.HasCentralPark, "central park"},
	} {
		if kv.on {
			out = append(out, kv.name)
		}
	}
	if len(out) == 0 {
		return "-"
	}
	return strings.Join(out, ", ")
}
