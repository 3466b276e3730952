// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/pdiddy/review-engine/internal/query"
	"github.com/pdiddy/review-engine/pkg/types"
)

// templateSpec seeds a new criteria file so the operator has the field
// names in front of them instead of an empty document.
var templateSpec = types.PICOS{
	Population:   "adults with the condition under review",
	Intervention: "the intervention of interest",
	Comparison:   "placebo or standard care",
	Outcome:      "the primary outcome",
	StudyDesign:  "randomized controlled trial",
}

// loadSpec reads the PICOS criteria file. When the file does not exist a
// template is written in its place and the command stops so the operator
// can fill it in.
func loadSpec(path string) (types.PICOS, error) {
	spec, err := query.LoadSpec(path)
	if errors.Is(err, fs.ErrNotExist) {
		if werr := query.SaveSpec(path, templateSpec); werr != nil {
			return types.PICOS{}, fmt.Errorf("creating criteria template: %w", werr)
		}
		return types.PICOS{}, fmt.Errorf("no criteria file found; template written to %s, edit it and re-run", path)
	}
	if err != nil {
		return types.PICOS{}, err
	}
	return spec, nil
}
