package main

import (
	"flag"
	"fmt"
	"os"
)

var version = "dev"

func main() {
	configPath := flag.String("config", "", "Path to config file (default: discovered)")
	showVersion := flag.Bool("version", false, "Print version and exit")
	install := flag.Bool("install-browsers", false, "Install the playwright driver and Chromium, then exit")
	flag.Parse()

	if *showVersion {
		fmt.Printf("fixturesyncd %s\n", version)
		os.Exit(0)
	}

	if *install {
		if err := installBrowsers(); err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			os.Exit(1)
		}
		os.Exit(0)
	}

	if err := runServer(*configPath); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
