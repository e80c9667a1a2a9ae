package main

import (
	"fmt"
	"os"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	command := os.Args[1]
	args := os.Args[2:]

	switch command {
	case "validate":
		if err := validate(args); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	case "show":
		if err := show(args); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	case "convert":
		if err := convert(args); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	case "run":
		if err := run(args); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	case "help", "-h", "--help":
		printUsage()
	case "version", "-v", "--version":
		fmt.Println("ptnet version 1.0.0")
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", command)
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`ptnet - Petri net execution tool

Usage:
  ptnet <command> [options]

Commands:
  validate   Validate a net description file
  show       Display places and transitions of a net description
  convert    Convert a net description between JSON and YAML
  run        Execute a net description
  help       Show this help message
  version    Show version information

Examples:
  # Validate a net description
  ptnet validate dispatcher.yaml

  # Run a net, injecting three tokens into the Input place
  ptnet run -input Input=3 -log dispatcher.yaml

  # Convert YAML to JSON
  ptnet convert dispatcher.yaml dispatcher.json`)
}
