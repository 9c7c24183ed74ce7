package main

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"gnurante/internal/config"
	"gnurante/internal/language"
	"gnurante/internal/pipeline"
	"gnurante/internal/services"
	"gnurante/internal/transcript"
)

// runOverrides are per-invocation flags layered over the loaded config.
type runOverrides struct {
	target string
	source string
	sync   string
}

// apply returns a copy of cfg with the overrides set. The shared config is
// left untouched.
func (o runOverrides) apply(cfg *config.Config) (*config.Config, error) {
	local := *cfg
	if target := strings.TrimSpace(o.target); target != "" {
		code, err := language.Normalize(target)
		if err != nil {
			return nil, services.Wrap(services.ErrValidation, "cli", "target", target, err)
		}
		local.Translation.TargetLanguage = code
	}
	if source := strings.TrimSpace(o.source); source != "" {
		if _, err := language.Normalize(source); err != nil {
			return nil, services.Wrap(services.ErrValidation, "cli", "source", source, err)
		}
		local.Translation.SourceLanguage = source
	}
	if mode := strings.TrimSpace(o.sync); mode != "" {
		if mode != config.SyncSegment && mode != config.SyncUniform {
			return nil, services.Wrap(services.ErrValidation, "cli", "sync",
				fmt.Sprintf("unsupported mode %q (want %s or %s)", mode, config.SyncSegment, config.SyncUniform), nil)
		}
		local.Sync.Mode = mode
	}
	return &local, nil
}

// classifyRunError tags malformed input so the CLI exits with a usage code.
func classifyRunError(err error) error {
	if errors.Is(err, transcript.ErrInvalidInterval) {
		return fmt.Errorf("%w: %w", services.ErrValidation, err)
	}
	return err
}

type summaryRow struct {
	label string
	value string
}

func runSummaryRows(result pipeline.Result) []summaryRow {
	rows := []summaryRow{{"Run", result.RunID}}
	if t := result.Transcript; t != nil {
		rows = append(rows,
			summaryRow{"Source language", fmt.Sprintf("%s (%.2f)", language.DisplayName(t.Language), t.Confidence)},
			summaryRow{"Sync mode", t.Mode.String()},
		)
	}
	rows = append(rows,
		summaryRow{"Cues", strconv.Itoa(len(result.Entries))},
		summaryRow{"Substituted units", strconv.Itoa(len(result.FailedUnits))},
		summaryRow{"Elapsed", result.Duration.Round(time.Millisecond).String()},
	)
	return rows
}

func printSummary(out io.Writer, rows []summaryRow) {
	table := make([][]string, 0, len(rows))
	for _, row := range rows {
		if row.value == "" {
			continue
		}
		table = append(table, []string{row.label, row.value})
	}
	fmt.Fprint(out, renderTable(out, []string{"Field", "Value"}, table, nil))
}
