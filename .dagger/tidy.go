package main

import (
	"context"
	"errors"
	"fmt"

	"dagger/scribe/internal/dagger"
)

// CheckGoModTidy fails when "go mod tidy" would change go.mod or go.sum, or
// when go.mod carries a replace directive. Scribe builds only against
// published module versions.
//
// +check
func (t *Scribe) CheckGoModTidy(ctx context.Context) (string, error) {
	ctr := t.goContainer()

	_, err := ctr.
		WithExec([]string{"sh", "-c", "! grep -nE '^(replace|[[:space:]]*replace )' go.mod"}).
		Sync(ctx)
	var e *dagger.ExecError
	if errors.As(err, &e) {
		return "", fmt.Errorf("go.mod must not use replace directives:\n\n%s", e.Stdout)
	} else if err != nil {
		return "", fmt.Errorf("unexpected error: %w", err)
	}

	out, err := ctr.
		WithExec([]string{"cp", "go.mod", "go.mod.HEAD"}).
		WithExec([]string{"cp", "go.sum", "go.sum.HEAD"}).
		WithExec([]string{"go", "mod", "tidy"}).
		WithExec([]string{"sh", "-c", "diff -u go.mod.HEAD go.mod && diff -u go.sum.HEAD go.sum"}).
		Stdout(ctx)
	if errors.As(err, &e) {
		return "", fmt.Errorf("go.mod or go.sum are not tidy: run 'go mod tidy' and commit the changes\n\n%s", e.Stdout)
	} else if err != nil {
		return "", fmt.Errorf("unexpected error: %w", err)
	}

	return fmt.Sprintf("go.mod and go.sum are tidy: %s", out), nil
}
