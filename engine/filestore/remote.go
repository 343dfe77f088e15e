package filestore

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/go-resty/resty/v2"
	"github.com/sethvargo/go-retry"
	"github.com/spf13/afero"

	"github.com/wdlrun/wdlrun/engine/core"
)

// RemoteImporter downloads http(s):// and s3:// URIs into a staging
// directory so LocalStore.WriteLocal can content-address them like any
// other local file.
type RemoteImporter struct {
	fs      afero.Fs
	staging string
	http    *resty.Client

	retryAttempts   uint64
	retryDelayStart time.Duration
	retryDelayMax   time.Duration
}

// NewRemoteImporter builds a RemoteImporter staging downloads under
// stagingDir.
func NewRemoteImporter(fs afero.Fs, stagingDir string, attempts int, delayStart, delayMax time.Duration) *RemoteImporter {
	return &RemoteImporter{
		fs:              fs,
		staging:         stagingDir,
		http:            resty.New(),
		retryAttempts:   uint64(attempts),
		retryDelayStart: delayStart,
		retryDelayMax:   delayMax,
	}
}

func (r *RemoteImporter) backoff() retry.Backoff {
	b := retry.NewExponential(r.retryDelayStart)
	b = retry.WithCappedDuration(r.retryDelayMax, b)
	b = retry.WithJitter(100*time.Millisecond, b)
	return retry.WithMaxRetries(r.retryAttempts, b)
}

// Import downloads uri (http://, https://, or s3://) into the staging
// directory and returns the local path, retrying transient failures with
// exponential backoff and jitter.
func (r *RemoteImporter) Import(ctx context.Context, uri string) (string, error) {
	if err := r.fs.MkdirAll(r.staging, 0o755); err != nil {
		return "", core.NewError(err, core.ErrIO, nil)
	}
	dest := stagingPath(r.staging, uri)

	switch {
	case strings.HasPrefix(uri, "http://"), strings.HasPrefix(uri, "https://"):
		return dest, retry.Do(ctx, r.backoff(), func(ctx context.Context) error {
			return r.importHTTP(ctx, uri, dest)
		})
	case strings.HasPrefix(uri, "s3://"):
		return dest, retry.Do(ctx, r.backoff(), func(ctx context.Context) error {
			return r.importS3(ctx, uri, dest)
		})
	default:
		return "", core.NewError(
			fmt.Errorf("unsupported remote scheme for %s", uri),
			core.ErrIO,
			map[string]any{"uri": uri},
		)
	}
}

func (r *RemoteImporter) importHTTP(ctx context.Context, uri, dest string) error {
	out, err := r.fs.Create(dest)
	if err != nil {
		return retry.RetryableError(fmt.Errorf("creating %s: %w", dest, err))
	}
	defer out.Close()

	resp, err := r.http.R().SetContext(ctx).SetDoNotParseResponse(true).Get(uri)
	if err != nil {
		return retry.RetryableError(fmt.Errorf("fetching %s: %w", uri, err))
	}
	body := resp.RawBody()
	defer body.Close()
	if resp.IsError() {
		return retry.RetryableError(fmt.Errorf("fetching %s: status %d", uri, resp.StatusCode()))
	}
	if _, err := io.Copy(out, body); err != nil {
		return retry.RetryableError(fmt.Errorf("writing %s: %w", dest, err))
	}
	return nil
}

func (r *RemoteImporter) importS3(ctx context.Context, uri, dest string) error {
	bucket, key, err := parseS3URI(uri)
	if err != nil {
		return err
	}
	sess, err := session.NewSession(aws.NewConfig())
	if err != nil {
		return retry.RetryableError(fmt.Errorf("creating s3 session: %w", err))
	}
	client := s3.New(sess)
	out, err := client.GetObjectWithContext(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return retry.RetryableError(fmt.Errorf("fetching s3://%s/%s: %w", bucket, key, err))
	}
	defer out.Body.Close()

	dst, err := r.fs.Create(dest)
	if err != nil {
		return retry.RetryableError(fmt.Errorf("creating %s: %w", dest, err))
	}
	defer dst.Close()
	if _, err := io.Copy(dst, out.Body); err != nil {
		return retry.RetryableError(fmt.Errorf("writing %s: %w", dest, err))
	}
	return nil
}

func parseS3URI(uri string) (bucket, key string, err error) {
	rest := strings.TrimPrefix(uri, "s3://")
	parts := strings.SplitN(rest, "/", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", core.NewError(fmt.Errorf("malformed s3 URI: %s", uri), core.ErrIO, nil)
	}
	return parts[0], parts[1], nil
}

func stagingPath(staging, uri string) string {
	digest := contentDigest([]byte(uri))
	return staging + "/" + digest
}
