package main

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"text/template"

	cli "github.com/urfave/cli/v3"
	"go.uber.org/zap"
	yaml "gopkg.in/yaml.v3"

	"acss/config"
	"acss/state"
	"acss/transform"
)

// classesSidecar is the YAML sidecar written next to the compiled sheet
// file: the class names the markup has to reference.
type classesSidecar struct {
	ClassNames            []string   `yaml:"class_names"`
	ConditionalClassNames [][]string `yaml:"conditional_class_names,omitempty"`
}

func runCompile(ctx context.Context, cmd *cli.Command) error {

	env := state.EnvFromContext(ctx)

	if cmd.Args().Len() == 0 {
		return fmt.Errorf("no source file specified")
	}
	if cmd.Args().Len() > 2 {
		env.Log.Warn("Malformed command line, too many arguments", zap.Strings("ignoring", cmd.Args().Slice()[2:]))
	}

	src := cmd.Args().Get(0)
	dst := cmd.Args().Get(1)
	if len(dst) == 0 {
		dst = "."
	}
	if err := os.MkdirAll(dst, 0755); err != nil {
		return fmt.Errorf("unable to create destination directory '%s': %w", dst, err)
	}

	input, err := os.ReadFile(src)
	if err != nil {
		return fmt.Errorf("unable to read source file '%s': %w", src, err)
	}
	env.Rpt.Store(fmt.Sprintf("input/%s", filepath.Base(src)), src)

	opts := env.Cfg.Compile.Options()
	opts.Global = cmd.Bool("global")

	if opts.ClassNameCompressionMap, err = env.Cfg.Compile.LoadCompressionMap(); err != nil {
		return err
	}

	for _, cpath := range cmd.StringSlice("conditional") {
		data, err := os.ReadFile(cpath)
		if err != nil {
			return fmt.Errorf("unable to read conditional file '%s': %w", cpath, err)
		}
		env.Rpt.Store(fmt.Sprintf("input/%s", filepath.Base(cpath)), cpath)
		opts.Conditionals = append(opts.Conditionals, string(data))
	}

	if env.Rpt != nil {
		opts.Trace = func(pass, state string) {
			env.Rpt.StoreData(fmt.Sprintf("trace/%s", pass), []byte(state))
		}
	}

	res, err := transform.NewCompiler(env.Log).Compile(string(input), opts)
	if err != nil {
		return fmt.Errorf("compilation of '%s' failed: %w", src, err)
	}

	name, err := outputName(env.Cfg.Compile.OutputNameTemplate, src)
	if err != nil {
		return err
	}
	sheetPath := filepath.Join(dst, name)
	sidecarPath := sheetPath + ".classes.yaml"

	if !cmd.Bool("overwrite") {
		for _, p := range []string{sheetPath, sidecarPath} {
			if _, err := os.Stat(p); err == nil {
				return fmt.Errorf("destination file '%s' already exists (use --overwrite)", p)
			}
		}
	}

	var sheets bytes.Buffer
	for _, s := range res.Sheets {
		sheets.WriteString(s)
		sheets.WriteByte('\n')
	}
	if err := os.WriteFile(sheetPath, sheets.Bytes(), 0644); err != nil {
		return fmt.Errorf("unable to write sheet file '%s': %w", sheetPath, err)
	}

	sidecar, err := yaml.Marshal(classesSidecar{
		ClassNames:            res.ClassNames,
		ConditionalClassNames: res.ConditionalClassNames,
	})
	if err != nil {
		return fmt.Errorf("unable to marshal class names: %w", err)
	}
	if err := os.WriteFile(sidecarPath, sidecar, 0644); err != nil {
		return fmt.Errorf("unable to write class names file '%s': %w", sidecarPath, err)
	}

	env.Rpt.Store("output/sheets.css", sheetPath)
	env.Rpt.Store("output/classes.yaml", sidecarPath)

	env.Log.Info("Compiled",
		zap.String("source", src),
		zap.String("sheets", sheetPath),
		zap.Int("rules", len(res.Sheets)),
		zap.Int("classes", len(res.ClassNames)))
	return nil
}

// outputName expands the configured output name template for one source
// file. Only "name" (source base name without extension) is available.
func outputName(tmpl, src string) (string, error) {
	base := filepath.Base(src)
	base = strings.TrimSuffix(base, filepath.Ext(base))

	t, err := template.New("output_name").Parse(tmpl)
	if err != nil {
		return "", fmt.Errorf("bad output name template '%s': %w", tmpl, err)
	}
	var buf bytes.Buffer
	if err := t.Execute(&buf, map[string]string{"name": base}); err != nil {
		return "", fmt.Errorf("unable to expand output name template: %w", err)
	}
	return config.CleanFileName(buf.String()), nil
}
