package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/apexlab/sema/internal/config"
	"github.com/apexlab/sema/internal/engine"
	"github.com/apexlab/sema/internal/stdlib"
)

var version = "dev"

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}
	switch os.Args[1] {
	case "--version":
		fmt.Println("apex-sema", version)
	case "catalog":
		if len(os.Args) < 3 {
			log.Fatal("usage: apex-sema catalog <catalog.db>")
		}
		if err := runCatalog(os.Args[2]); err != nil {
			log.Fatalf("catalog err=%v", err)
		}
	case "index":
		if len(os.Args) < 3 {
			log.Fatal("usage: apex-sema index <workspace-dir>")
		}
		if err := runIndex(os.Args[2]); err != nil {
			log.Fatalf("index err=%v", err)
		}
	default:
		usage()
		os.Exit(2)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, `usage: apex-sema <command>

commands:
  index <dir>        index a workspace and report graph stats
  catalog <db>       inspect a standard-library catalog
  --version          print version`)
}

func runCatalog(path string) error {
	cat, err := stdlib.Open(path)
	if err != nil {
		return err
	}
	defer cat.Close()

	total, err := cat.CountTypes()
	if err != nil {
		return err
	}
	namespaces, err := cat.Namespaces()
	if err != nil {
		return err
	}
	fmt.Printf("catalog %s: %d types, %d namespaces\n", path, total, len(namespaces))
	for _, ns := range namespaces {
		entries, err := cat.Entries(ns)
		if err != nil {
			return err
		}
		fmt.Printf("  %-16s %d types\n", ns, len(entries))
	}
	return nil
}

func runIndex(dir string) error {
	cfg := config.Load(dir)

	var lib stdlib.Provider
	if path := cfg.EffectiveCatalogPath(); path != "" {
		cat, err := stdlib.Open(path)
		if err != nil {
			return fmt.Errorf("open catalog: %w", err)
		}
		defer cat.Close()
		lib = cat
	}

	files, err := collectSources(dir)
	if err != nil {
		return err
	}

	e := engine.New(newOutlineProvider(), lib, cfg)
	report, err := e.IndexWorkspace(context.Background(), files)
	if err != nil {
		return err
	}

	st := e.Graph().Stats()
	fmt.Printf("indexed %d files in %s\n", report.Files, report.Duration.Round(time.Millisecond))
	fmt.Printf("  symbols     %d\n", st.Symbols)
	fmt.Printf("  references  %d bound, %d failed\n", report.RefsBound, report.RefsFailed)
	fmt.Printf("  namespaces  %d (load order: %v)\n", st.Namespaces, report.LoadOrder)
	if report.ParseFailed > 0 {
		fmt.Printf("  parse failures: %d\n", report.ParseFailed)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return e.Shutdown(ctx)
}
