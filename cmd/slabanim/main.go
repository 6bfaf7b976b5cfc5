// Command slabanim slices the objects of a scene script into slabs, keys
// the sequential animation and writes the curve reports. Runs are
// recorded in a sqlite history when -db is given.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/chazu/slabanim/internal/config"
	"github.com/chazu/slabanim/pkg/anim"
	"github.com/chazu/slabanim/pkg/engine"
	"github.com/chazu/slabanim/pkg/kernel/sdfx"
	"github.com/chazu/slabanim/pkg/report"
	"github.com/chazu/slabanim/pkg/scene"
	"github.com/chazu/slabanim/pkg/slicer"
	"github.com/chazu/slabanim/pkg/store"
)

func main() {
	if err := run(os.Args[1:], os.Stdout); err != nil {
		log.Fatal(err)
	}
}

type options struct {
	configPath string
	script     string
	slices     int
	duration   int
	timing     string
	strict     bool
	objects    string
	reportDir  string
	dbPath     string
	history    int
	show       string
	noReport   bool
}

func parseFlags(args []string) (*options, map[string]bool, error) {
	var o options
	fs := flag.NewFlagSet("slabanim", flag.ContinueOnError)
	fs.StringVar(&o.configPath, "config", "", "path to JSON settings (default "+config.DefaultConfigPath+" if present)")
	fs.StringVar(&o.script, "script", "", "scene script to slice")
	fs.IntVar(&o.slices, "slices", 0, "number of slabs per object")
	fs.IntVar(&o.duration, "duration", 0, "total animation length in frames")
	fs.StringVar(&o.timing, "timing", "", "per-object or shared")
	fs.BoolVar(&o.strict, "strict", false, "fail on fragments that fit no slab")
	fs.StringVar(&o.objects, "objects", "", "comma separated objects to slice (default all)")
	fs.StringVar(&o.reportDir, "report", "", "directory for curves.png and timeline.html")
	fs.BoolVar(&o.noReport, "no-report", false, "skip writing reports")
	fs.StringVar(&o.dbPath, "db", "", "sqlite run history")
	fs.IntVar(&o.history, "history", 0, "list the N most recent runs and exit")
	fs.StringVar(&o.show, "show", "", "print the schedule of a recorded run and exit")
	if err := fs.Parse(args); err != nil {
		return nil, nil, err
	}
	set := map[string]bool{}
	fs.Visit(func(f *flag.Flag) { set[f.Name] = true })
	return &o, set, nil
}

func run(args []string, stdout io.Writer) error {
	o, set, err := parseFlags(args)
	if err != nil {
		return err
	}
	cfg, err := config.LoadOrEmpty(o.configPath)
	if err != nil {
		return err
	}

	dbPath := cfg.GetDatabase()
	if set["db"] {
		dbPath = o.dbPath
	}
	var st *store.Store
	if dbPath != "" {
		if st, err = store.Open(dbPath); err != nil {
			return err
		}
		defer st.Close()
	}

	ctx := context.Background()
	switch {
	case o.history > 0:
		if st == nil {
			return errors.New("-history needs -db")
		}
		return listRuns(ctx, st, o.history, stdout)
	case o.show != "":
		if st == nil {
			return errors.New("-show needs -db")
		}
		return showRun(ctx, st, o.show, stdout)
	}

	if o.script == "" {
		return errors.New("-script is required")
	}
	source, err := os.ReadFile(o.script)
	if err != nil {
		return fmt.Errorf("read script: %w", err)
	}

	k := sdfx.NewWithOptions(cfg.KernelOptions())
	eng := engine.NewEngine(k)
	eng.SetDefaults(cfg.Params())
	prog, evalErrs, err := eng.Evaluate(string(source))
	if err != nil {
		return err
	}
	if len(evalErrs) > 0 {
		for _, e := range evalErrs {
			log.Printf("%s:%d:%d: %s", o.script, e.Line, e.Col, e.Message)
		}
		return fmt.Errorf("%s: %d evaluation errors", o.script, len(evalErrs))
	}
	for _, w := range prog.Warnings {
		log.Printf("%s: warning: %s", o.script, w)
	}

	p := cfg.Params()
	if prog.Params != nil {
		p = *prog.Params
	}
	if set["slices"] {
		p.Slices = o.slices
	}
	if set["duration"] {
		p.Duration = o.duration
	}
	if set["strict"] {
		p.Strict = o.strict
	}
	if set["timing"] {
		if p.Timing, err = slicer.ParseTimingMode(o.timing); err != nil {
			return err
		}
	}

	sc := scene.New(k)
	for _, obj := range prog.Objects {
		if _, err := sc.Add(obj.Name, obj.Solid); err != nil {
			return err
		}
	}
	var names []string
	if o.objects != "" {
		names = strings.Split(o.objects, ",")
	} else {
		for _, obj := range prog.Objects {
			names = append(names, obj.Name)
		}
	}
	var handles []slicer.Handle
	for _, n := range names {
		h, ok := sc.Lookup(strings.TrimSpace(n))
		if !ok {
			return fmt.Errorf("%w: no object named %q", slicer.ErrInvalidInput, n)
		}
		handles = append(handles, h)
	}

	curves := anim.NewCurves()
	res, err := slicer.Run(sc, curves, handles, p)
	if err != nil {
		return err
	}
	printSchedule(stdout, res, sc.Name)

	if !o.noReport {
		dir := cfg.GetReportDir()
		if set["report"] {
			dir = o.reportDir
		}
		tl, err := report.Build(o.script, res, curves, p.Key.Attribute, sc.Name)
		if err != nil {
			return err
		}
		paths, err := tl.WriteDir(dir)
		if err != nil {
			return err
		}
		for _, path := range paths {
			fmt.Fprintln(stdout, "wrote", path)
		}
	}

	if st != nil {
		id, err := st.SaveRun(ctx, store.Run{
			Label:  o.script,
			Script: string(source),
			Params: p,
			Result: res,
			Curves: curves,
			Name:   sc.Name,
		})
		if err != nil {
			return err
		}
		fmt.Fprintln(stdout, "recorded run", id)
	}
	return nil
}

func printSchedule(w io.Writer, res *slicer.Result, name func(slicer.Handle) string) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "OBJECT\tSLAB\tUNIT\tSTART\tEND")
	for _, e := range res.Schedule {
		unit := "-"
		if !e.Skipped() {
			unit = name(e.Target)
		}
		fmt.Fprintf(tw, "%s\t%d\t%s\t%d\t%d\n", res.Objects[e.Object].Name, e.Slab, unit, e.Start, e.End)
	}
	tw.Flush()
	if d := res.Dropped(); d > 0 {
		fmt.Fprintf(w, "%d fragments dropped\n", d)
	}
}

func listRuns(ctx context.Context, st *store.Store, limit int, w io.Writer) error {
	runs, err := st.Runs(ctx, limit)
	if err != nil {
		return err
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tCREATED\tLABEL\tSLICES\tDURATION")
	for _, r := range runs {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%d\n", r.ID, r.CreatedAt.Format("2006-01-02 15:04:05"), r.Label, r.Params.Slices, r.Params.Duration)
	}
	return tw.Flush()
}

func showRun(ctx context.Context, st *store.Store, id string, w io.Writer) error {
	entries, err := st.Schedule(ctx, id)
	if err != nil {
		return err
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "OBJECT\tSLAB\tUNIT\tSTART\tEND")
	for _, e := range entries {
		unit := e.Name
		if unit == "" {
			unit = "-"
		}
		fmt.Fprintf(tw, "%d\t%d\t%s\t%d\t%d\n", e.Object, e.Slab, unit, e.Start, e.End)
	}
	return tw.Flush()
}
