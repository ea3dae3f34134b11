package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/zalepa/educenso/cmd"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	switch os.Args[1] {
	case "process":
		cmd.Process(ctx, os.Args[2:])
	case "parse":
		cmd.Parse(os.Args[2:])
	case "viz":
		cmd.Viz(ctx, os.Args[2:])
	case "web":
		cmd.Web(ctx, os.Args[2:])
	default:
		usage()
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintf(os.Stderr, `Usage: educenso <command>

Commands:
  process    Normalize the census tables into semicolon-delimited CSV files
  parse      Run the motives pipeline on one table and write a JSON report
  viz        Visualize the reasons for leaving school over the years
  web        Start an interactive web dashboard
`)
}
