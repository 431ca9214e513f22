// SPDX-License-Identifier: Apache-2.0
// Copyright Authors of rowscope

package view

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/derailed/tview"
	"github.com/wI2L/jsondiff"

	"github.com/rowscope/rowscope/internal/model"
	"github.com/rowscope/rowscope/internal/model1"
	"github.com/rowscope/rowscope/internal/render"
)

// Editor errors
var (
	ErrEditorCancelled = errors.New("editor cancelled")
	ErrNoChanges       = errors.New("no changes detected")
)

// CommitEdit writes value to a cell and notifies edit listeners with the
// JSON patch of the change.
func CommitEdit(ctx context.Context, g *model.Grid, row int, column, value string) (model.EditEvent, error) {
	old, err := g.SetValue(ctx, row, column, value)
	if err != nil {
		return model.EditEvent{}, fmt.Errorf("edit %s row %d: %w", column, row, err)
	}
	patch, err := GeneratePatch(map[string]any{column: old}, map[string]any{column: value})
	if err != nil && !errors.Is(err, ErrNoChanges) {
		return model.EditEvent{}, err
	}

	evt := model.EditEvent{Row: row, Column: column, Old: old, New: value, Patch: patch}
	g.ForwardEdit(evt)

	return evt, nil
}

// GeneratePatch returns the RFC 6902 patch between two documents, or
// ErrNoChanges when they are identical.
func GeneratePatch(original, modified map[string]any) (string, error) {
	patch, err := jsondiff.Compare(original, modified)
	if err != nil {
		return "", fmt.Errorf("failed to generate patch: %w", err)
	}
	if len(patch) == 0 {
		return "", ErrNoChanges
	}
	bb, err := json.Marshal(patch)
	if err != nil {
		return "", fmt.Errorf("failed to marshal patch: %w", err)
	}

	return string(bb), nil
}

// RowEdit edits the editable cells of one row as a JSON document.
type RowEdit struct {
	grid     *model.Grid
	index    int
	original map[string]any
	tempFile string
	errorMsg string
}

// NewRowEdit starts an edit session on a loaded row.
func NewRowEdit(g *model.Grid, it model1.Item) *RowEdit {
	s := RowEdit{
		grid:     g,
		index:    it.Index,
		original: make(map[string]any),
	}
	for _, c := range g.Columns() {
		if c.Attrs().Editable {
			s.original[c.Key()] = c.Value(it.Row)
		}
	}

	return &s
}

// Run loops through the editor until the changes apply or the user cancels.
func (s *RowEdit) Run(ctx context.Context, app *tview.Application) error {
	if len(s.original) == 0 {
		return fmt.Errorf("%w: row %d has no editable columns", render.ErrReadOnly, s.index)
	}

	doc := s.original
	for {
		modified, err := s.edit(app, doc)
		if err != nil {
			return err
		}
		err = s.Apply(ctx, modified)
		switch {
		case err == nil:
			return nil
		case errors.Is(err, ErrNoChanges) && s.errorMsg != "":
			return ErrEditorCancelled
		case errors.Is(err, ErrNoChanges):
			return err
		}
		s.errorMsg, doc = err.Error(), modified
	}
}

// Apply commits every cell that differs from the original row.
func (s *RowEdit) Apply(ctx context.Context, modified map[string]any) error {
	patch, err := jsondiff.Compare(s.original, modified)
	if err != nil {
		return fmt.Errorf("failed to diff row: %w", err)
	}
	if len(patch) == 0 {
		return ErrNoChanges
	}

	for _, op := range patch {
		if op.Type != jsondiff.OperationReplace {
			return fmt.Errorf("unsupported change %s %s: only existing columns can be edited", op.Type, op.Path)
		}
		col := unescapePointer(strings.TrimPrefix(op.Path, "/"))
		val, ok := op.Value.(string)
		if !ok {
			val = fmt.Sprint(op.Value)
		}
		if _, err := CommitEdit(ctx, s.grid, s.index, col, val); err != nil {
			return err
		}
	}

	return nil
}

// Cleanup removes the temporary file.
func (s *RowEdit) Cleanup() {
	if s.tempFile != "" {
		_ = os.Remove(s.tempFile)
		s.tempFile = ""
	}
}

func (s *RowEdit) edit(app *tview.Application, doc map[string]any) (map[string]any, error) {
	if s.tempFile == "" {
		f, err := os.CreateTemp("", "rowscope-edit-*.json")
		if err != nil {
			return nil, fmt.Errorf("failed to create temp file: %w", err)
		}
		s.tempFile = f.Name()
		_ = f.Close()
	}
	if err := s.write(doc); err != nil {
		return nil, err
	}

	code, err := spawnEditor(app, s.tempFile)
	if err != nil {
		return nil, fmt.Errorf("editor failed: %w", err)
	}
	if code != 0 {
		return nil, ErrEditorCancelled
	}

	bb, err := os.ReadFile(s.tempFile)
	if err != nil {
		return nil, fmt.Errorf("failed to read edited file: %w", err)
	}
	var modified map[string]any
	if err := json.Unmarshal(stripErrorComment(bb), &modified); err != nil {
		return nil, fmt.Errorf("invalid JSON: %w", err)
	}

	return modified, nil
}

func (s *RowEdit) write(doc map[string]any) error {
	var buf bytes.Buffer
	if s.errorMsg != "" {
		buf.WriteString("// ERROR: " + s.errorMsg + "\n")
		buf.WriteString("// Fix the issue below and save, or save without changes to cancel.\n")
		buf.WriteString("// ---\n\n")
	}
	bb, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal row: %w", err)
	}
	buf.Write(bb)
	buf.WriteString("\n")

	return os.WriteFile(s.tempFile, buf.Bytes(), 0o600)
}

// spawnEditor suspends the TUI while the editor runs.
func spawnEditor(app *tview.Application, path string) (int, error) {
	var code int
	ok := app.Suspend(func() {
		cmd := exec.Command(getEditor(), path)
		cmd.Stdin, cmd.Stdout, cmd.Stderr = os.Stdin, os.Stdout, os.Stderr
		if err := cmd.Run(); err != nil {
			code = 1
			var exitErr *exec.ExitError
			if errors.As(err, &exitErr) {
				code = exitErr.ExitCode()
			}
		}
	})
	if !ok {
		return 1, errors.New("failed to suspend application")
	}

	return code, nil
}

// getEditor checks $EDITOR, $VISUAL, then vim, then nano.
func getEditor() string {
	for _, env := range []string{"EDITOR", "VISUAL"} {
		if e := os.Getenv(env); e != "" {
			return e
		}
	}
	if _, err := exec.LookPath("vim"); err == nil {
		return "vim"
	}

	return "nano"
}

// stripErrorComment drops the leading // comment block.
func stripErrorComment(content []byte) []byte {
	lines := bytes.Split(content, []byte("\n"))
	start := 0
	for i, line := range lines {
		trimmed := bytes.TrimSpace(line)
		if len(trimmed) == 0 {
			continue
		}
		if bytes.HasPrefix(trimmed, []byte("//")) {
			start = i + 1
			continue
		}
		break
	}
	if start > 0 && start < len(lines) {
		return bytes.Join(lines[start:], []byte("\n"))
	}

	return content
}

func unescapePointer(s string) string {
	return strings.NewReplacer("~1", "/", "~0", "~").Replace(s)
}
