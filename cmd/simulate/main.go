// Command simulate runs a single study from a YAML or JSON input file and writes the result
// as JSON or as an XLSX workbook.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/levenlabs/go-lflag"
	"gopkg.in/yaml.v3"

	"github.com/energeticacoop/photovoltaic-studies/pkg/log"
	"github.com/energeticacoop/photovoltaic-studies/pkg/report"
	"github.com/energeticacoop/photovoltaic-studies/pkg/study"
	"github.com/energeticacoop/photovoltaic-studies/pkg/types"
)

func main() {
	st := study.Configured()
	input := lflag.String("input", "", "Study input file (YAML or JSON)")
	output := lflag.String("output", "-", "Output file, - for stdout")
	format := lflag.String("format", "json", "Output format: json or xlsx")
	lflag.Configure()

	if _, err := log.ConfigureFromFlags(); err != nil {
		panic(err)
	}
	ctx := context.Background()

	if err := run(ctx, st, *input, *output, *format); err != nil {
		log.Ctx(ctx).ErrorContext(ctx, "simulation failed", slog.Any("error", err))
		os.Exit(1)
	}
}

func run(ctx context.Context, st *study.Service, input, output, format string) error {
	if format != "json" && format != "xlsx" {
		return fmt.Errorf("unknown format %q", format)
	}
	if input == "" {
		return fmt.Errorf("--input is required")
	}
	in, err := readInput(input)
	if err != nil {
		return err
	}

	start := time.Now()
	res, err := st.Run(ctx, in)
	if err != nil {
		return fmt.Errorf("failed to run study: %w", err)
	}
	log.Ctx(ctx).InfoContext(
		ctx,
		"ran study",
		slog.String("name", in.Name),
		slog.Int("missingHours", res.MissingHours),
		slog.Duration("took", time.Since(start)),
	)
	s := types.Study{
		Name:      in.Name,
		CreatedAt: time.Now().UTC(),
		Version:   types.CurrentParamsVersion,
		Input:     in.WithoutRawData(),
		Result:    res,
	}

	if output == "-" {
		return writeStudy(os.Stdout, s, format)
	}
	f, err := os.Create(output)
	if err != nil {
		return fmt.Errorf("failed to create output: %w", err)
	}
	if err := writeStudy(f, s, format); err != nil {
		f.Close()
		return err
	}
	// a failed flush on close leaves a truncated file
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to close output: %w", err)
	}
	return nil
}

func writeStudy(w io.Writer, s types.Study, format string) error {
	if format == "xlsx" {
		return report.WriteXLSX(w, s)
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(s)
}

// readInput decodes a YAML (or JSON, which is YAML) document into a StudyInput. The document
// is normalized through JSON so the json tags and custom unmarshalers of the types apply.
func readInput(path string) (types.StudyInput, error) {
	var in types.StudyInput
	b, err := os.ReadFile(path)
	if err != nil {
		return in, fmt.Errorf("failed to read input: %w", err)
	}
	var doc any
	if err := yaml.Unmarshal(b, &doc); err != nil {
		return in, fmt.Errorf("failed to parse input: %w", err)
	}
	j, err := json.Marshal(doc)
	if err != nil {
		return in, fmt.Errorf("failed to convert input: %w", err)
	}
	if err := json.Unmarshal(j, &in); err != nil {
		return in, fmt.Errorf("failed to decode input: %w", err)
	}
	return in, nil
}
