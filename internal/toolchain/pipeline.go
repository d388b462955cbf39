// SPDX-License-Identifier: MIT

// Package toolchain runs the QA tool pipeline over a generated source
// tree: unused-code removal, import sorting, formatting, style
// checking and type checking, in that order, halting on the first
// failing tool.
package toolchain

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"go.opentelemetry.io/otel/codes"

	"github.com/greysonlalonde/js-utilities/internal/log"
	"github.com/greysonlalonde/js-utilities/internal/manifest"
	"github.com/greysonlalonde/js-utilities/internal/metrics"
	"github.com/greysonlalonde/js-utilities/internal/telemetry"
)

// Step names, in execution order.
const (
	StepClean        = "clean"
	StepImportsSplit = "imports-split"
	StepImportsGroup = "imports-group"
	StepFormat       = "format"
	StepStylecheck   = "stylecheck"
	StepTypecheck    = "typecheck"
)

// tailLines is how much tool output a StepError carries.
const tailLines = 20

// Step is one tool invocation.
type Step struct {
	Name string
	Argv []string
}

// StepError reports a failed pipeline step together with the tool's
// exit code and the tail of its output.
type StepError struct {
	Step     string
	ExitCode int
	Tail     []string
}

func (e *StepError) Error() string {
	return fmt.Sprintf("toolchain: step %s failed with exit code %d", e.Step, e.ExitCode)
}

// BuildSteps derives the tool invocations from the manifest's tool
// tables. The import sorter runs twice: a single-line pass first so
// that the grouping pass sees one import per line, then the grouping
// pass itself.
func BuildSteps(m *manifest.Manifest) ([]Step, error) {
	clean := []string{
		"autoflake",
		"--in-place",
		"--remove-all-unused-imports",
		"--remove-unused-variables",
		"--recursive",
		".",
	}

	split := []string{"isort", "--force-single-line-imports"}
	group := []string{"isort"}
	if p := m.Tool.Imports.Profile; p != "" {
		group = append(group, "--profile", p)
	}
	if l := importsLineLength(m); l > 0 {
		arg := strconv.Itoa(l)
		split = append(split, "--line-length", arg)
		group = append(group, "--line-length", arg)
	}
	split = append(split, ".")
	group = append(group, ".")

	format := []string{"black"}
	if l := m.Tool.Format.LineLength; l > 0 {
		format = append(format, "--line-length", strconv.Itoa(l))
	}
	if t := m.Tool.Format.Target; t != "" {
		compact, err := compactTarget(t)
		if err != nil {
			return nil, fmt.Errorf("toolchain: format target: %w", err)
		}
		format = append(format, "--target-version", compact)
	}
	format = append(format, ".")

	style := []string{"flake8"}
	if l := m.Tool.Stylecheck.MaxLineLength; l > 0 {
		style = append(style, "--max-line-length", strconv.Itoa(l))
	}
	if ignore := m.Tool.Stylecheck.Ignore; len(ignore) > 0 {
		style = append(style, "--extend-ignore", strings.Join(ignore, ","))
	}
	style = append(style, ".")

	typecheck := []string{"mypy"}
	if t := m.Tool.Typecheck.Target; t != "" {
		dotted, err := dottedTarget(t)
		if err != nil {
			return nil, fmt.Errorf("toolchain: typecheck target: %w", err)
		}
		typecheck = append(typecheck, "--python-version", dotted)
	}
	if m.Tool.Typecheck.Strict {
		typecheck = append(typecheck, "--strict")
	}
	typecheck = append(typecheck, ".")

	return []Step{
		{Name: StepClean, Argv: clean},
		{Name: StepImportsSplit, Argv: split},
		{Name: StepImportsGroup, Argv: group},
		{Name: StepFormat, Argv: format},
		{Name: StepStylecheck, Argv: style},
		{Name: StepTypecheck, Argv: typecheck},
	}, nil
}

func importsLineLength(m *manifest.Manifest) int {
	if l := m.Tool.Imports.LineLength; l > 0 {
		return l
	}
	return m.Tool.Format.LineLength
}

// compactTarget renders a tool target in the pyXY form.
func compactTarget(raw string) (string, error) {
	v, err := manifest.NormalizeTarget(raw)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("py%d%d", v.Major, v.Minor), nil
}

// dottedTarget renders a tool target in the X.Y form.
func dottedTarget(raw string) (string, error) {
	v, err := manifest.NormalizeTarget(raw)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%d.%d", v.Major, v.Minor), nil
}

// Pipeline runs the QA steps over a directory.
type Pipeline struct {
	Steps  []Step
	Runner Runner
	Trace  bool
}

// New builds a pipeline for the given manifest using a subprocess
// runner.
func New(m *manifest.Manifest) (*Pipeline, error) {
	steps, err := BuildSteps(m)
	if err != nil {
		return nil, err
	}
	return &Pipeline{Steps: steps, Runner: NewExecRunner()}, nil
}

// StepNames returns the step names in execution order.
func (p *Pipeline) StepNames() []string {
	names := make([]string, len(p.Steps))
	for i, step := range p.Steps {
		names[i] = step.Name
	}
	return names
}

// Run executes every step in order inside dir. The first failing step
// halts the run and is reported as a *StepError; downstream steps do
// not run.
func (p *Pipeline) Run(ctx context.Context, dir string) error {
	logger := log.WithContext(ctx, log.WithComponent("toolchain"))
	tracer := telemetry.Tracer("toolchain")
	start := time.Now()

	for _, step := range p.Steps {
		if err := ctx.Err(); err != nil {
			metrics.PipelineRunsTotal.WithLabelValues("error").Inc()
			return fmt.Errorf("toolchain: %w", err)
		}

		if p.Trace {
			logger.Info().
				Str("event", "toolchain.trace").
				Msg("+ " + strings.Join(step.Argv, " "))
		}

		stepStart := time.Now()
		stepCtx, span := tracer.Start(ctx, "toolchain."+step.Name)
		err := p.Runner.Run(stepCtx, dir, step.Argv)
		metrics.PipelineStepDuration.WithLabelValues(step.Name).Observe(time.Since(stepStart).Seconds())

		if err != nil {
			serr := &StepError{
				Step:     step.Name,
				ExitCode: exitCode(err),
				Tail:     p.Runner.LastOutput(tailLines),
			}
			span.SetAttributes(telemetry.StepAttributes(step.Name, serr.ExitCode)...)
			span.RecordError(serr)
			span.SetStatus(codes.Error, "step failed")
			span.End()
			metrics.PipelineStepFailuresTotal.WithLabelValues(step.Name).Inc()
			metrics.PipelineRunsTotal.WithLabelValues("error").Inc()
			logger.Error().
				Str("event", "toolchain.step.failed").
				Str("step", step.Name).
				Int("exit_code", serr.ExitCode).
				Strs("output", serr.Tail).
				Msg("pipeline step failed")
			return serr
		}

		span.SetAttributes(telemetry.StepAttributes(step.Name, 0)...)
		span.End()
		logger.Debug().
			Str("event", "toolchain.step.ok").
			Str("step", step.Name).
			Dur("duration", time.Since(stepStart)).
			Msg("pipeline step complete")
	}

	metrics.PipelineRunsTotal.WithLabelValues("ok").Inc()
	logger.Info().
		Str("event", "toolchain.run.ok").
		Int("steps", len(p.Steps)).
		Dur("duration", time.Since(start)).
		Msg("pipeline complete")
	return nil
}
