// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package container

import (
	"bytes"
	"errors"
	"io"
	"strings"
	"testing"
)

// scriptedRunner answers Look and Quiet from fixed maps and delegates
// Pipe to an optional hook.
type scriptedRunner struct {
	onPath  map[string]bool
	ok      map[string]bool
	pipe    func(bin string, args []string, stdin io.Reader, stdout io.Writer) error
	pipeLog []string
}

func (s *scriptedRunner) Look(bin string) (string, error) {
	if s.onPath[bin] {
		return "/usr/local/bin/" + bin, nil
	}
	return "", errors.New(bin + " not on PATH")
}

func (s *scriptedRunner) Quiet(bin string, args ...string) error {
	if s.ok[bin+" "+strings.Join(args, " ")] {
		return nil
	}
	return errors.New("exit 1")
}

func (s *scriptedRunner) Pipe(bin string, args []string, stdin io.Reader, stdout io.Writer) error {
	s.pipeLog = append(s.pipeLog, bin+" "+strings.Join(args, " "))
	if s.pipe != nil {
		return s.pipe(bin, args, stdin, stdout)
	}
	return nil
}

func TestDetectRuntime(t *testing.T) {
	tests := []struct {
		name    string
		onPath  map[string]bool
		ok      map[string]bool
		want    string
		wantErr bool
	}{
		{
			name:   "docker wins when both work",
			onPath: map[string]bool{"docker": true, "podman": true},
			ok:     map[string]bool{"docker info": true, "podman info": true},
			want:   "docker",
		},
		{
			name:   "podman when docker absent",
			onPath: map[string]bool{"podman": true},
			ok:     map[string]bool{"podman info": true},
			want:   "podman",
		},
		{
			name:   "podman when docker daemon is down",
			onPath: map[string]bool{"docker": true, "podman": true},
			ok:     map[string]bool{"podman info": true},
			want:   "podman",
		},
		{
			name:    "nothing usable",
			wantErr: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rt, err := detectRuntime(&scriptedRunner{onPath: tt.onPath, ok: tt.ok})
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				if !strings.Contains(err.Error(), "docker, podman") {
					t.Errorf("error should list the tried engines, got: %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("detectRuntime: %v", err)
			}
			if rt.Name() != tt.want {
				t.Errorf("engine = %q, want %q", rt.Name(), tt.want)
			}
		})
	}
}

func TestImageExists(t *testing.T) {
	run := &scriptedRunner{ok: map[string]bool{
		"docker image inspect markitdown:latest": true,
		"podman image exists markitdown:latest":  true,
	}}

	for _, c := range candidates {
		e := c
		e.run = run
		if err := e.ImageExists("markitdown:latest"); err != nil {
			t.Errorf("%s: ImageExists = %v", e.bin, err)
		}
		if err := e.ImageExists("grobid:latest"); err == nil {
			t.Errorf("%s: expected error for missing image", e.bin)
		} else if !strings.Contains(err.Error(), "grobid:latest") {
			t.Errorf("%s: error should name the image, got: %v", e.bin, err)
		}
	}
}

func TestRunPipesDocument(t *testing.T) {
	run := &scriptedRunner{
		pipe: func(bin string, args []string, stdin io.Reader, stdout io.Writer) error {
			doc, _ := io.ReadAll(stdin)
			_, err := stdout.Write(append([]byte("text of "), doc...))
			return err
		},
	}
	e := candidates[0]
	e.run = run

	var out bytes.Buffer
	if err := e.Run("markitdown:latest", strings.NewReader("%PDF-1.4"), &out); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if out.String() != "text of %PDF-1.4" {
		t.Errorf("output = %q", out.String())
	}
	if len(run.pipeLog) != 1 || run.pipeLog[0] != "docker run --rm -i markitdown:latest" {
		t.Errorf("pipe log = %v", run.pipeLog)
	}
}

func TestRunFailure(t *testing.T) {
	run := &scriptedRunner{
		pipe: func(string, []string, io.Reader, io.Writer) error {
			return errors.New("exit 125")
		},
	}
	e := candidates[1]
	e.run = run

	err := e.Run("markitdown:latest", strings.NewReader("x"), io.Discard)
	if err == nil || !strings.Contains(err.Error(), "podman") {
		t.Errorf("err = %v, want wrapped podman error", err)
	}
}
