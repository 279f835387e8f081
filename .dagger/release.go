package main

import (
	"context"
	"fmt"
	"path"
	"strings"
	"time"

	"dagger/scribe/internal/dagger"
)

// bucket holds the S3-compatible target for release artifacts.
type bucket struct {
	endpoint        *dagger.Secret
	name            *dagger.Secret
	accessKeyId     *dagger.Secret
	secretAccessKey *dagger.Secret
}

// Package turns the Build output into one scribe_<version>_<os>_<arch>.tar.gz
// per platform plus a sha256 checksums.txt. The linux/amd64 binary must print
// its version before anything is packaged.
func (t *Scribe) Package(
	ctx context.Context,

	// Version string (e.g., "v1.0.0")
	version string,

	// Git commit SHA
	commit string,
) (*dagger.Directory, error) {
	binaries := t.BuildRelease(ctx, version, commit)

	out, err := dag.Container().
		From("alpine:3.20").
		WithFile("/usr/local/bin/scribe", binaries.File("linux/amd64/scribe")).
		WithExec([]string{"scribe", "version"}).
		Stdout(ctx)
	if err != nil {
		return nil, fmt.Errorf("release binary failed to run: %w", err)
	}
	if !strings.HasPrefix(out, "scribe "+version+"\n") {
		return nil, fmt.Errorf("release binary reports %q, want version %s", out, version)
	}

	script := fmt.Sprintf(`set -eu
mkdir -p /dist
for dir in */*/; do
	goos=${dir%%%%/*}
	goarch=$(basename "$dir")
	tar -C "$dir" -czf "/dist/scribe_%s_${goos}_${goarch}.tar.gz" scribe
done
cd /dist && sha256sum *.tar.gz > checksums.txt
`, version)

	return dag.Container().
		From("alpine:3.20").
		WithDirectory("/bin-out", binaries).
		WithWorkdir("/bin-out").
		WithExec([]string{"sh", "-c", script}).
		Directory("/dist"), nil
}

// upload syncs artifacts to the bucket under each prefix.
func (t *Scribe) upload(ctx context.Context, artifacts *dagger.Directory, target bucket, prefixes ...string) error {
	name, err := target.name.Plaintext(ctx)
	if err != nil {
		return fmt.Errorf("failed to get bucket name: %w", err)
	}
	endpoint, err := target.endpoint.Plaintext(ctx)
	if err != nil {
		return fmt.Errorf("failed to get endpoint: %w", err)
	}

	awsCli := dag.Container().
		From("amazon/aws-cli:latest").
		WithSecretVariable("AWS_ACCESS_KEY_ID", target.accessKeyId).
		WithSecretVariable("AWS_SECRET_ACCESS_KEY", target.secretAccessKey).
		WithEnvVariable("AWS_DEFAULT_REGION", "auto").
		WithDirectory("/artifacts", artifacts).
		WithWorkdir("/artifacts")

	for _, prefix := range prefixes {
		destination := "s3://" + path.Join(name, "scribe", prefix)
		_, err := awsCli.
			WithExec([]string{"aws", "s3", "sync", ".", destination, "--endpoint-url", endpoint, "--delete"}).
			Sync(ctx)
		if err != nil {
			return fmt.Errorf("failed to upload artifacts to %s: %w", prefix, err)
		}
	}
	return nil
}

// ReleaseLatest packages a versioned release and publishes it under both the
// version and "latest".
func (t *Scribe) ReleaseLatest(
	ctx context.Context,

	// Version string (e.g., "v1.0.0")
	version string,

	// Git commit SHA
	commit string,

	// Bucket endpoint URL
	endpoint *dagger.Secret,

	// Bucket name
	bucketName *dagger.Secret,

	// Bucket access key ID
	accessKeyId *dagger.Secret,

	// Bucket secret access key
	secretAccessKey *dagger.Secret,
) (*dagger.Directory, error) {
	artifacts, err := t.Package(ctx, version, commit)
	if err != nil {
		return nil, err
	}

	target := bucket{endpoint: endpoint, name: bucketName, accessKeyId: accessKeyId, secretAccessKey: secretAccessKey}
	if err := t.upload(ctx, artifacts, target, version, "latest"); err != nil {
		return artifacts, fmt.Errorf("could not publish release %s: %w", version, err)
	}
	return artifacts, nil
}

// Nightly packages the current commit as nightly-<date> and publishes it under
// that dated prefix and "nightly".
func (t *Scribe) Nightly(
	ctx context.Context,

	// Git commit SHA
	commit string,

	// Bucket endpoint URL
	endpoint *dagger.Secret,

	// Bucket name
	bucketName *dagger.Secret,

	// Bucket access key ID
	accessKeyId *dagger.Secret,

	// Bucket secret access key
	secretAccessKey *dagger.Secret,
) (*dagger.Directory, error) {
	version := "nightly-" + time.Now().UTC().Format("2006-01-02")
	artifacts, err := t.Package(ctx, version, commit)
	if err != nil {
		return nil, err
	}

	target := bucket{endpoint: endpoint, name: bucketName, accessKeyId: accessKeyId, secretAccessKey: secretAccessKey}
	if err := t.upload(ctx, artifacts, target, path.Join("nightly", version), "nightly"); err != nil {
		return artifacts, fmt.Errorf("could not publish %s: %w", version, err)
	}
	return artifacts, nil
}
