// Command iptpoolctl is a local demo harness for the pool engine: it wires
// one in-memory ledger to one Engine and drives it through a scripted
// scenario or a keeper loop, dispatched from a handful of flat subcommands.
package main

import (
	"fmt"
	"os"
)

func main() {
	args := os.Args[1:]
	if len(args) < 1 {
		printUsage()
		return
	}

	switch args[0] {
	case "demo":
		runDemo()
	case "keeper":
		seconds := 5
		if len(args) > 1 {
			fmt.Sscanf(args[1], "%d", &seconds)
		}
		runKeeper(seconds)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "iptpoolctl: unknown command %q\n", args[0])
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`iptpoolctl — local demo harness for the IPT pool engine

Usage:
  iptpoolctl demo              run the scripted deposit/withdraw/batch scenario
  iptpoolctl keeper [seconds]  run the batch-settlement keeper loop for N seconds (default 5)
  iptpoolctl help              show this message`)
}
