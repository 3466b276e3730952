// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package container locates a container runtime for the markitdown
// conversion fallback and pipes documents through it. Docker and Podman
// are supported; detection walks the candidates in order.
package container

import (
	"fmt"
	"io"
	"os/exec"
	"strings"
)

// Runtime is the container surface the conversion stage needs: confirm
// the engine works, confirm the converter image is present, and stream a
// document through a container.
type Runtime interface {
	// Name returns the engine binary name ("docker" or "podman").
	Name() string

	// Available reports whether the engine is on PATH and answers an
	// info command.
	Available() bool

	// ImageExists returns nil when the named image is present locally.
	ImageExists(image string) error

	// Run streams stdin through a one-shot container of the image and
	// writes the container's stdout to stdout.
	Run(image string, stdin io.Reader, stdout io.Writer) error
}

// commandRunner abstracts process execution so runtime behavior is
// testable without an engine installed.
type commandRunner interface {
	Look(bin string) (string, error)
	Quiet(bin string, args ...string) error
	Pipe(bin string, args []string, stdin io.Reader, stdout io.Writer) error
}

type osRunner struct{}

func (osRunner) Look(bin string) (string, error) { return exec.LookPath(bin) }

func (osRunner) Quiet(bin string, args ...string) error {
	return exec.Command(bin, args...).Run()
}

func (osRunner) Pipe(bin string, args []string, stdin io.Reader, stdout io.Writer) error {
	cmd := exec.Command(bin, args...)
	cmd.Stdin = stdin
	cmd.Stdout = stdout
	return cmd.Run()
}

// engine describes one supported container runtime. Docker and Podman
// differ only in the subcommand that checks for a local image.
type engine struct {
	bin        string
	imageCheck []string
	run        commandRunner
}

// candidates lists the supported engines in detection order.
var candidates = []engine{
	{bin: "docker", imageCheck: []string{"image", "inspect"}},
	{bin: "podman", imageCheck: []string{"image", "exists"}},
}

func (e *engine) Name() string { return e.bin }

func (e *engine) Available() bool {
	if _, err := e.run.Look(e.bin); err != nil {
		return false
	}
	return e.run.Quiet(e.bin, "info") == nil
}

func (e *engine) ImageExists(image string) error {
	args := append(append([]string{}, e.imageCheck...), image)
	if err := e.run.Quiet(e.bin, args...); err != nil {
		return fmt.Errorf("image %s not found in %s, pull it before converting: %w", image, e.bin, err)
	}
	return nil
}

func (e *engine) Run(image string, stdin io.Reader, stdout io.Writer) error {
	if err := e.run.Pipe(e.bin, []string{"run", "--rm", "-i", image}, stdin, stdout); err != nil {
		return fmt.Errorf("running %s container %s: %w", e.bin, image, err)
	}
	return nil
}

// DetectRuntime returns the first working engine, or an error when the
// conversion fallback has nothing to run on.
func DetectRuntime() (Runtime, error) {
	return detectRuntime(osRunner{})
}

func detectRuntime(run commandRunner) (Runtime, error) {
	names := make([]string, 0, len(candidates))
	for _, c := range candidates {
		e := c
		e.run = run
		if e.Available() {
			return &e, nil
		}
		names = append(names, e.bin)
	}
	return nil, fmt.Errorf("no container runtime available for conversion: tried %s", strings.Join(names, ", "))
}
