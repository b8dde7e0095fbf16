package publish

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dbsmedya/riskbench/internal/bencherr"
	"github.com/dbsmedya/riskbench/internal/config"
)

func writeResult(t *testing.T, name, content string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(p, []byte(content), 0644))
	return p
}

func TestLocalPublish(t *testing.T) {
	base := filepath.Join(t.TempDir(), "published")
	up, err := NewLocal(base)
	require.NoError(t, err)

	flash := writeResult(t, "resultFlashCompare.csv", "Criterium;Dataset\n")
	self := writeResult(t, "resultSelfCompare.csv", "Criterium;Dataset\n(5)-Anonymity;ACS13\n")

	p := New(up, "riskbench", "sweep-1")
	require.NoError(t, p.Publish(context.Background(), flash, self))

	got, err := os.ReadFile(filepath.Join(base, "riskbench", "sweep-1", "resultSelfCompare.csv"))
	require.NoError(t, err)
	assert.Equal(t, "Criterium;Dataset\n(5)-Anonymity;ACS13\n", string(got))
	assert.FileExists(t, filepath.Join(base, "riskbench", "sweep-1", "resultFlashCompare.csv"))
}

func TestLocalPublishMissingFile(t *testing.T) {
	up, err := NewLocal(t.TempDir())
	require.NoError(t, err)

	err = New(up, "p", "s").Publish(context.Background(), filepath.Join(t.TempDir(), "missing.csv"))
	require.Error(t, err)
	assert.True(t, bencherr.IsIO(err))
}

func TestLocalUploadCancelled(t *testing.T) {
	up, err := NewLocal(t.TempDir())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, up.Upload(ctx, "x", "y"), context.Canceled)
}

type fakeS3 struct {
	failures int
	calls    int
	keys     []string
	bodies   []string
}

func (f *fakeS3) PutObject(ctx context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	f.calls++
	body, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	if f.calls <= f.failures {
		return nil, errors.New("503 slow down")
	}
	f.keys = append(f.keys, *in.Bucket+"/"+*in.Key)
	f.bodies = append(f.bodies, string(body))
	return &s3.PutObjectOutput{}, nil
}

func TestS3UploadRetries(t *testing.T) {
	client := &fakeS3{failures: 2}
	up := NewS3WithClient(client, "bench-results")
	up.backoff = time.Millisecond

	local := writeResult(t, "resultFlashCompare.csv", "payload")
	require.NoError(t, New(up, "riskbench", "abc").Publish(context.Background(), local))

	assert.Equal(t, 3, client.calls)
	assert.Equal(t, []string{"bench-results/riskbench/abc/resultFlashCompare.csv"}, client.keys)
	// the body is rewound before every attempt
	assert.Equal(t, []string{"payload"}, client.bodies)
}

func TestS3UploadGivesUp(t *testing.T) {
	client := &fakeS3{failures: 100}
	up := NewS3WithClient(client, "bench-results")
	up.backoff = time.Millisecond

	err := up.Upload(context.Background(), writeResult(t, "r.csv", "x"), "k")
	require.Error(t, err)
	assert.True(t, bencherr.IsIO(err))
	assert.Equal(t, up.maxRetries+1, client.calls)
}

func TestFromConfig(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "out")
	p, err := FromConfig(context.Background(), config.PublishConfig{Backend: "local", Dir: dir, Prefix: "rb"}, "id")
	require.NoError(t, err)
	assert.Equal(t, "rb/id/resultSelfCompare.csv", p.Key("/tmp/x/resultSelfCompare.csv"))
	assert.DirExists(t, dir)

	_, err = FromConfig(context.Background(), config.PublishConfig{Backend: "ftp"}, "id")
	require.Error(t, err)
	assert.True(t, bencherr.IsConfiguration(err))
}
