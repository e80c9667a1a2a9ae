package main

import (
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/vldtecno/PTN-Engine-sub000/engine"
	"github.com/vldtecno/PTN-Engine-sub000/executor"
	"github.com/vldtecno/PTN-Engine-sub000/netlog"
	"github.com/vldtecno/PTN-Engine-sub000/parser"
)

func validate(args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("usage: ptnet validate <file>")
	}

	doc, err := parser.LoadFile(args[0])
	if err != nil {
		return err
	}

	problems := parser.Validate(doc)
	if len(problems) == 0 {
		fmt.Printf("%s: OK (%d places, %d transitions)\n", args[0], len(doc.Places), len(doc.Transitions))
		return nil
	}
	for _, p := range problems {
		fmt.Fprintf(os.Stderr, "  %v\n", p)
	}
	return fmt.Errorf("%d problem(s) found", len(problems))
}

func show(args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("usage: ptnet show <file>")
	}

	doc, err := parser.LoadFile(args[0])
	if err != nil {
		return err
	}

	if doc.Mode != "" {
		fmt.Printf("mode: %s\n", doc.Mode)
	}
	fmt.Printf("places (%d):\n", len(doc.Places))
	for _, p := range doc.Places {
		line := fmt.Sprintf("  %s: %d", p.Name, p.InitialTokens)
		if p.Input {
			line += " [input]"
		}
		if p.OnEnterAction != "" {
			line += " onEnter=" + p.OnEnterAction
		}
		if p.OnExitAction != "" {
			line += " onExit=" + p.OnExitAction
		}
		fmt.Println(line)
	}

	fmt.Printf("transitions (%d):\n", len(doc.Transitions))
	for _, t := range doc.Transitions {
		fmt.Printf("  %s: %s -> %s", t.Name, formatArcs(t.Activation), formatArcs(t.Destination))
		if len(t.Inhibitor) > 0 {
			fmt.Printf(" inhibited by %s", formatArcs(t.Inhibitor))
		}
		if len(t.Conditions) > 0 {
			fmt.Printf(" when %s", strings.Join(t.Conditions, ","))
		}
		fmt.Println()
	}
	return nil
}

func formatArcs(arcs []parser.ArcDef) string {
	if len(arcs) == 0 {
		return "()"
	}
	parts := make([]string, 0, len(arcs))
	for _, arc := range arcs {
		if arc.Weight > 1 {
			parts = append(parts, fmt.Sprintf("%s x%d", arc.Place, arc.Weight))
		} else {
			parts = append(parts, arc.Place)
		}
	}
	return "(" + strings.Join(parts, ", ") + ")"
}

func convert(args []string) error {
	if len(args) < 2 {
		return fmt.Errorf("usage: ptnet convert <in-file> <out-file>")
	}

	doc, err := parser.LoadFile(args[0])
	if err != nil {
		return err
	}
	if err := parser.SaveFile(args[1], doc); err != nil {
		return err
	}
	fmt.Printf("wrote %s\n", args[1])
	return nil
}

func run(args []string) error {
	fs := flag.NewFlagSet("run", flag.ContinueOnError)
	mode := fs.String("mode", "", "actions thread option override (SINGLE_THREAD, EVENT_LOOP, JOB_QUEUE, DETACHED)")
	logState := fs.Bool("log", false, "print the marking before every firing iteration")
	wait := fs.Duration("wait", time.Second, "how long to let a background event loop run")
	eventsOut := fs.String("events", "", "write a JSONL event log to this file")
	var inputs inputFlags
	fs.Var(&inputs, "input", "inject tokens, e.g. -input Input=3 (repeatable)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() < 1 {
		return fmt.Errorf("usage: ptnet run [options] <file>")
	}

	doc, err := parser.LoadFile(fs.Arg(0))
	if err != nil {
		return err
	}
	if *mode != "" {
		doc.Mode = *mode
	}

	e, err := engine.New(executor.SingleThread)
	if err != nil {
		return err
	}
	if err := e.SetLogger(zerolog.New(os.Stderr).With().Timestamp().Logger()); err != nil {
		return err
	}
	if err := parser.Build(e, doc); err != nil {
		return err
	}

	if *eventsOut != "" {
		f, err := os.Create(*eventsOut)
		if err != nil {
			return err
		}
		defer f.Close()
		e.OnEvent(netlog.NewJSONLWriter(f).Record)
	}

	for _, input := range inputs {
		for i := uint64(0); i < input.count; i++ {
			if err := e.IncrementInputPlace(input.place); err != nil {
				return err
			}
		}
	}

	if err := e.Execute(*logState, os.Stdout); err != nil {
		return err
	}
	if e.IsEventLoopRunning() {
		time.Sleep(*wait)
		e.Stop()
	}

	fmt.Println("final marking:")
	e.PrintState(os.Stdout)
	return nil
}

// inputFlags collects repeated -input name=count flags.
type inputFlags []struct {
	place string
	count uint64
}

func (f *inputFlags) String() string {
	parts := make([]string, 0, len(*f))
	for _, input := range *f {
		parts = append(parts, fmt.Sprintf("%s=%d", input.place, input.count))
	}
	return strings.Join(parts, ",")
}

func (f *inputFlags) Set(value string) error {
	place, countStr, found := strings.Cut(value, "=")
	count := uint64(1)
	if found {
		parsed, err := strconv.ParseUint(countStr, 10, 64)
		if err != nil {
			return fmt.Errorf("invalid token count %q: %w", countStr, err)
		}
		count = parsed
	}
	if place == "" {
		return fmt.Errorf("empty place name in -input %q", value)
	}
	*f = append(*f, struct {
		place string
		count uint64
	}{place, count})
	return nil
}
