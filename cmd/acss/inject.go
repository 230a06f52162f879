package main

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"strings"

	cli "github.com/urfave/cli/v3"
	"go.uber.org/zap"
	"golang.org/x/net/html"

	"acss/runtime"
	"acss/state"
)

func runInject(ctx context.Context, cmd *cli.Command) error {

	env := state.EnvFromContext(ctx)

	if cmd.Args().Len() == 0 {
		return fmt.Errorf("no sheet files specified")
	}

	var rules []string
	for _, path := range cmd.Args().Slice() {
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("unable to read sheet file '%s': %w", path, err)
		}
		env.Rpt.Store(fmt.Sprintf("input/%s", path), path)
		for _, line := range strings.Split(string(data), "\n") {
			if line = strings.TrimSpace(line); len(line) > 0 {
				rules = append(rules, line)
			}
		}
	}

	out := os.Stdout
	if fname := cmd.String("out"); len(fname) > 0 {
		f, err := os.Create(fname)
		if err != nil {
			return fmt.Errorf("unable to create destination file '%s': %w", fname, err)
		}
		defer f.Close()
		out = f
	}

	htmlFile := cmd.String("html")
	if len(htmlFile) == 0 {
		// no document - just show the final cascade order
		doc := runtime.NewMemoryDocument()
		reg := runtime.NewRegistry(doc, env.Log)
		for _, r := range rules {
			reg.ApplySheet(r)
		}
		for _, r := range doc.Rules() {
			if _, err := fmt.Fprintln(out, r); err != nil {
				return fmt.Errorf("unable to write output: %w", err)
			}
		}
		env.Log.Info("Ordered", zap.Int("rules", len(rules)))
		return nil
	}

	data, err := os.ReadFile(htmlFile)
	if err != nil {
		return fmt.Errorf("unable to read HTML file '%s': %w", htmlFile, err)
	}
	tree, err := html.Parse(bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("unable to parse HTML file '%s': %w", htmlFile, err)
	}
	doc, err := runtime.NewHTMLDocument(tree)
	if err != nil {
		return fmt.Errorf("unable to use HTML file '%s': %w", htmlFile, err)
	}

	reg := runtime.NewRegistry(doc, env.Log)
	for _, r := range rules {
		reg.ApplySheet(r)
	}

	if err := html.Render(out, tree); err != nil {
		return fmt.Errorf("unable to render HTML: %w", err)
	}
	env.Log.Info("Injected", zap.String("html", htmlFile), zap.Int("rules", len(rules)))
	return nil
}
