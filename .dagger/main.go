// Scribe CI/CD
//
// Package main provides reproducible builds and tests locally and in GitHub actions.
// It is the main harness for handling nearly all dev operations.
package main

import (
	"context"

	"dagger/scribe/internal/dagger"
)

// Scribe is the main module for the Scribe CI/CD pipeline
type Scribe struct {
	// Project source directory
	//
	// +private
	Source *dagger.Directory
}

// New creates a new Scribe CI/CD module instance
func New(
	// Project source directory.
	//
	// +defaultPath="/"
	// +ignore=[".git", ".direnv", ".devenv", "build", "tmp", ".scribe"]
	source *dagger.Directory,
) *Scribe {
	return &Scribe{
		Source: source,
	}
}

// goContainer returns an Alpine-based Go container with the project source
// mounted. Scribe is pure Go, so CGO stays off.
//
// It is the shared foundation for tests, builds, and linting.
func (t *Scribe) goContainer() *dagger.Container {
	return dag.Container().
		From("golang:1.25-alpine").
		WithEnvVariable("CGO_ENABLED", "0").
		WithEnvVariable("PATH", "/go/bin:$PATH", dagger.ContainerWithEnvVariableOpts{Expand: true}).
		WithMountedCache("/go/pkg/mod", dag.CacheVolume("go-mod")).
		WithMountedCache("/root/.cache/go-build", dag.CacheVolume("go-build")).
		WithWorkdir("/src").
		WithDirectory("/src", t.Source)
}

// Test runs the scribe unit tests via ginkgo
func (t *Scribe) Test(ctx context.Context) (string, error) {
	return t.goContainer().
		WithExec([]string{"go", "run", "github.com/onsi/ginkgo/v2/ginkgo", "-r", "--randomize-all", "--fail-on-pending"}).
		Stdout(ctx)
}
