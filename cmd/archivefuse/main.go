// Package main provides a command-line tool for inspecting and
// extracting archives with the formatfuse pipeline.
package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/RayLabsHQ/formatfuse/pkg/archive"
	"github.com/RayLabsHQ/formatfuse/pkg/extract"
	"github.com/RayLabsHQ/formatfuse/pkg/format"
	"github.com/RayLabsHQ/formatfuse/pkg/session"
)

var (
	mode       string
	inputPath  string
	outputPath string
	selectList string
	verbose    bool
)

func init() {
	flag.StringVar(&mode, "mode", "list", "Operation mode: detect, list, extract")
	flag.StringVar(&inputPath, "in", "", "Input archive file")
	flag.StringVar(&outputPath, "out", "", "Output file (single selection) or bundle zip (multiple)")
	flag.StringVar(&selectList, "select", "", "Comma-separated entry paths; empty selects everything")
	flag.BoolVar(&verbose, "v", false, "Print warnings")
}

func main() {
	flag.Parse()

	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	if inputPath == "" {
		flag.Usage()
		return fmt.Errorf("input file is required")
	}

	data, err := os.ReadFile(inputPath)
	if err != nil {
		return fmt.Errorf("read input: %w", err)
	}
	name := filepath.Base(inputPath)

	if mode == "detect" {
		return runDetect(data, name)
	}

	res, err := extract.Extract(data, name, extract.Options{})
	if err != nil {
		return err
	}
	if verbose {
		for _, w := range res.Warnings {
			fmt.Fprintf(os.Stderr, "Warning: %s\n", w)
		}
	}

	switch mode {
	case "list":
		return runList(res)
	case "extract":
		return runExtract(res, name)
	default:
		return fmt.Errorf("unknown mode: %s", mode)
	}
}

func runDetect(data []byte, name string) error {
	f := format.Detect(data, name)
	fmt.Printf("format: %s\n", f)
	fmt.Printf("confidence: %.2f\n", f.Confidence)
	fmt.Printf("delegated: %t\n", format.ShouldDelegate(f))
	if f.ExtensionMismatch {
		fmt.Println("note: filename extension disagrees with the detected signature")
	}
	return nil
}

func runList(res *extract.Result) error {
	res.Tree.Walk(func(n *archive.Node) {
		depth := strings.Count(n.Path, "/")
		indent := strings.Repeat("  ", depth)
		if n.IsDir {
			fmt.Printf("%s%s/\n", indent, n.Name)
			return
		}
		size := int64(0)
		if n.Entry != nil {
			size = n.Entry.Size
		}
		fmt.Printf("%s%s (%s)\n", indent, n.Name, formatSize(size))
	})
	return nil
}

func runExtract(res *extract.Result, name string) error {
	s := session.New(name, res.Format, res.Tree, res.Warnings)

	if selectList == "" {
		for _, n := range res.Tree.Roots {
			if err := s.Select(n.Path); err != nil {
				return err
			}
		}
	} else {
		for _, p := range strings.Split(selectList, ",") {
			if err := s.Select(strings.TrimSpace(p)); err != nil {
				return err
			}
		}
	}

	result, err := s.Export()
	if err != nil {
		return err
	}

	if result.Single != nil {
		out := outputPath
		if out == "" {
			out = result.Single.Name()
		}
		if err := os.WriteFile(out, result.Single.Data, 0644); err != nil {
			return fmt.Errorf("write output: %w", err)
		}
		fmt.Printf("wrote %s (%s)\n", out, formatSize(int64(len(result.Single.Data))))
		return nil
	}

	out := outputPath
	if out == "" {
		out = strings.TrimSuffix(name, filepath.Ext(name)) + "-export.zip"
	}
	f, err := os.Create(out)
	if err != nil {
		return fmt.Errorf("create bundle: %w", err)
	}
	defer f.Close()
	if err := session.WriteBundle(f, result.Bundle); err != nil {
		return err
	}
	fmt.Printf("wrote %s (%d files)\n", out, len(result.Bundle))
	return nil
}

func formatSize(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for v := n / unit; v >= unit; v /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}
