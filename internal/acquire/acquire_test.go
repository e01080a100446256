// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package acquire

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/pdiddy/patent-scout/internal/httputil"
	"github.com/pdiddy/patent-scout/pkg/types"
)

func init() {
	httputil.RetryBaseDelay = time.Millisecond
}

func pdfBody(id string) []byte {
	return []byte("%PDF-1.7\n% patent " + id + "\n%%EOF\n")
}

// newPatentServer serves /patent/<id>. Identifiers starting with HTML return
// a web page, MISSING returns 404, SLOW sleeps briefly; anything else is a PDF.
func newPatentServer(t *testing.T, inFlight, maxInFlight *int32) *httptest.Server {
	t.Helper()
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if inFlight != nil {
			n := atomic.AddInt32(inFlight, 1)
			defer atomic.AddInt32(inFlight, -1)
			for {
				old := atomic.LoadInt32(maxInFlight)
				if n <= old || atomic.CompareAndSwapInt32(maxInFlight, old, n) {
					break
				}
			}
			time.Sleep(20 * time.Millisecond)
		}

		id := strings.TrimPrefix(r.URL.Path, "/patent/")
		switch {
		case strings.HasPrefix(id, "HTML"):
			w.Header().Set("Content-Type", "text/html")
			io.WriteString(w, "<html><body>Sign in</body></html>")
		case strings.HasPrefix(id, "MISSING"):
			http.NotFound(w, r)
		default:
			w.Header().Set("Content-Type", "application/pdf")
			w.Write(pdfBody(id))
		}
	}))
	t.Cleanup(ts.Close)

	old := googlePatentsHTMLBase
	googlePatentsHTMLBase = ts.URL + "/patent/"
	t.Cleanup(func() { googlePatentsHTMLBase = old })
	return ts
}

func testConfig() types.AcquisitionConfig {
	return types.AcquisitionConfig{
		HTTPConfig: types.HTTPConfig{Timeout: 5 * time.Second, UserAgent: "patent-scout-test"},
		MaxRetries: 1,
	}
}

func TestAcquire_RoundTrip(t *testing.T) {
	ts := newPatentServer(t, nil, nil)
	dir := filepath.Join(t.TempDir(), "downloads")
	a := New(ts.Client(), FileStore{Dir: dir}, testConfig(), zaptest.NewLogger(t))

	path, err := a.Acquire(context.Background(), "US1234567B2", ts.URL+"/patent/US1234567B2")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "US1234567B2.pdf"), path)

	got, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, pdfBody("US1234567B2"), got)
}

func TestAcquire_RepeatOverwrites(t *testing.T) {
	ts := newPatentServer(t, nil, nil)
	dir := t.TempDir()
	a := New(ts.Client(), FileStore{Dir: dir}, testConfig(), nil)

	for i := 0; i < 2; i++ {
		_, err := a.Acquire(context.Background(), "US1234567B2", "")
		require.NoError(t, err)
	}

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1, "one file per identifier, no leftover temp files")
	assert.Equal(t, "US1234567B2.pdf", entries[0].Name())
}

func TestAcquire_InvalidContentWritesNothing(t *testing.T) {
	ts := newPatentServer(t, nil, nil)
	dir := filepath.Join(t.TempDir(), "downloads")
	store := FileStore{Dir: dir}
	a := New(ts.Client(), store, testConfig(), nil)

	_, err := a.Acquire(context.Background(), "HTML1", "")
	require.Error(t, err)

	var dlErr *DownloadError
	require.ErrorAs(t, err, &dlErr)
	assert.Equal(t, "HTML1", dlErr.PatentID)

	var contentErr *InvalidContentError
	require.ErrorAs(t, err, &contentErr)
	assert.Equal(t, []byte("<html><body>Sig"), contentErr.Prefix[:15])
	assert.Equal(t, "invalid_content", Outcome(err))

	_, statErr := os.Stat(store.Location("HTML1"))
	assert.True(t, errors.Is(statErr, os.ErrNotExist))
}

func TestAcquire_HTTPStatus(t *testing.T) {
	ts := newPatentServer(t, nil, nil)
	a := New(ts.Client(), FileStore{Dir: t.TempDir()}, testConfig(), nil)

	_, err := a.Acquire(context.Background(), "MISSING1", "")
	var statusErr *HTTPStatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusNotFound, statusErr.Code)
	assert.Equal(t, "http_status", Outcome(err))
}

func TestAcquire_IOError(t *testing.T) {
	ts := newPatentServer(t, nil, nil)
	blocker := filepath.Join(t.TempDir(), "not-a-dir")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0o644))

	a := New(ts.Client(), FileStore{Dir: blocker}, testConfig(), nil)
	_, err := a.Acquire(context.Background(), "US1234567B2", "")

	var ioErr *IOError
	require.ErrorAs(t, err, &ioErr)
	assert.Equal(t, "io", Outcome(err))
}

func TestAcquire_TransportError(t *testing.T) {
	ts := httptest.NewServer(http.NotFoundHandler())
	url := ts.URL
	ts.Close()

	a := New(nil, FileStore{Dir: t.TempDir()}, testConfig(), nil)
	_, err := a.Acquire(context.Background(), "US1234567B2", url+"/x.pdf")

	var dlErr *DownloadError
	require.ErrorAs(t, err, &dlErr)
	assert.Equal(t, "transport", Outcome(err))
}

func TestAcquire_OversizedPayload(t *testing.T) {
	ts := newPatentServer(t, nil, nil)
	cfg := testConfig()
	cfg.MaxBytes = 8
	a := New(ts.Client(), FileStore{Dir: t.TempDir()}, cfg, nil)

	_, err := a.Acquire(context.Background(), "US1234567B2", "")
	var contentErr *InvalidContentError
	require.ErrorAs(t, err, &contentErr)
	assert.Contains(t, contentErr.Reason, "exceeds 8 bytes")
}

func TestAcquire_RequestHeaders(t *testing.T) {
	var got http.Header
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Clone()
		w.Write(pdfBody("x"))
	}))
	defer ts.Close()

	old := googlePatentsHTMLBase
	googlePatentsHTMLBase = "https://patents.example/patent/"
	defer func() { googlePatentsHTMLBase = old }()

	cfg := testConfig()
	cfg.UserAgent = ""
	a := New(ts.Client(), FileStore{Dir: t.TempDir()}, cfg, nil)
	_, err := a.Acquire(context.Background(), "US1234567B2", ts.URL+"/file.pdf")
	require.NoError(t, err)

	assert.Equal(t, BrowserUserAgent, got.Get("User-Agent"))
	assert.Equal(t, "application/pdf,*/*", got.Get("Accept"))
	assert.Equal(t, "https://patents.example/patent/US1234567B2", got.Get("Referer"))
}

func TestAcquireBatch_OneResultPerID(t *testing.T) {
	ts := newPatentServer(t, nil, nil)
	dir := t.TempDir()
	a := New(ts.Client(), FileStore{Dir: dir, Prefix: "patent_"}, testConfig(), nil)

	ids := []string{"US1111111B1", "MISSING2", "EP2222222A1", "HTML3", " "}
	results := a.AcquireBatch(context.Background(), ids)
	require.Len(t, results, len(ids))

	assert.Equal(t, "US1111111B1", results[0].PatentID)
	assert.Equal(t, types.DownloadSuccess, results[0].Status)
	assert.Equal(t, filepath.Join(dir, "patent_US1111111B1.pdf"), results[0].FilePath)
	assert.Equal(t, int64(len(pdfBody("US1111111B1"))), results[0].SizeBytes)

	assert.Equal(t, types.DownloadFailed, results[1].Status)
	assert.Contains(t, results[1].Error, "HTTP 404")

	assert.Equal(t, types.DownloadSuccess, results[2].Status)

	assert.Equal(t, types.DownloadFailed, results[3].Status)
	assert.Contains(t, results[3].Error, "not a PDF")

	assert.Equal(t, types.DownloadFailed, results[4].Status)
	assert.Equal(t, "empty patent id", results[4].Error)

	s := Summarize(results)
	assert.Equal(t, 2, s.Succeeded)
	assert.Equal(t, 3, s.Failed)
	assert.True(t, s.HasFailures())
	assert.Equal(t, 5, s.Total())
}

func TestAcquireBatch_ConcurrencyCap(t *testing.T) {
	tests := []struct {
		name          string
		maxConcurrent int
		wantMax       int32
	}{
		{"sequential by default", 0, 1},
		{"capped at two", 2, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var inFlight, maxInFlight int32
			ts := newPatentServer(t, &inFlight, &maxInFlight)

			cfg := testConfig()
			cfg.MaxConcurrent = tt.maxConcurrent
			a := New(ts.Client(), FileStore{Dir: t.TempDir()}, cfg, nil)

			ids := []string{"US1000001A", "US1000002A", "US1000003A", "US1000004A", "US1000005A", "US1000006A"}
			results := a.AcquireBatch(context.Background(), ids)
			require.Len(t, results, len(ids))
			for i, r := range results {
				assert.Equal(t, ids[i], r.PatentID, "request order preserved")
				assert.True(t, r.Succeeded())
			}
			assert.LessOrEqual(t, atomic.LoadInt32(&maxInFlight), tt.wantMax)
		})
	}
}

func TestAcquireRequests_UsesGivenURL(t *testing.T) {
	ts := newPatentServer(t, nil, nil)
	cfg := testConfig()
	cfg.DownloadDelay = time.Millisecond
	a := New(ts.Client(), FileStore{Dir: t.TempDir()}, cfg, nil)

	results := a.AcquireRequests(context.Background(), []Request{
		{PatentID: "US1234567B2", URL: ts.URL + "/patent/HTMLPAGE"},
		{PatentID: "US7654321B2", URL: ts.URL + "/patent/US7654321B2"},
	})
	require.Len(t, results, 2)
	assert.False(t, results[0].Succeeded())
	assert.True(t, results[1].Succeeded())
}

func TestSlug(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"US1234567B2", "US1234567B2"},
		{"WO2021/123456", "WO2021_123456"},
		{" EP 1234567 ", "EP_1234567"},
		{"../../etc/passwd", "etc_passwd"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Slug(tt.in), tt.in)
	}
	assert.True(t, strings.HasPrefix(Slug("///"), "id-"))
	assert.Equal(t, Slug("///"), Slug("///"))
}

func TestDetailURL_EscapesIdentifier(t *testing.T) {
	assert.Equal(t, "https://patents.google.com/patent/US1234567B2", DetailURL(" US1234567B2 "))
	assert.Equal(t, "https://patents.google.com/patent/WO2021%2F123456", DetailURL("WO2021/123456"))
	assert.Equal(t, "https://patents.google.com/patent/1.%20US2017", DetailURL("1. US2017"))
}

type fakeMinio struct {
	buckets map[string]bool
	objects map[string][]byte
	makes   int
	putErr  error

	// existsErrs fail the next BucketExists calls, one error per call.
	existsErrs []error
}

func (f *fakeMinio) BucketExists(ctx context.Context, bucket string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	if len(f.existsErrs) > 0 {
		err := f.existsErrs[0]
		f.existsErrs = f.existsErrs[1:]
		return false, err
	}
	return f.buckets[bucket], nil
}

func (f *fakeMinio) MakeBucket(_ context.Context, bucket string, _ minio.MakeBucketOptions) error {
	f.makes++
	f.buckets[bucket] = true
	return nil
}

func (f *fakeMinio) PutObject(ctx context.Context, bucket, object string, r io.Reader, size int64, opts minio.PutObjectOptions) (minio.UploadInfo, error) {
	if err := ctx.Err(); err != nil {
		return minio.UploadInfo{}, err
	}
	if f.putErr != nil {
		return minio.UploadInfo{}, f.putErr
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return minio.UploadInfo{}, err
	}
	f.objects[bucket+"/"+object] = data
	return minio.UploadInfo{Bucket: bucket, Key: object, Size: size}, nil
}

func TestMinioStore(t *testing.T) {
	ts := newPatentServer(t, nil, nil)
	fake := &fakeMinio{buckets: map[string]bool{}, objects: map[string][]byte{}}
	store := NewMinioStore(fake, types.MinioConfig{Bucket: "patents"}, "pdf/", zaptest.NewLogger(t))
	a := New(ts.Client(), store, testConfig(), nil)

	loc, err := a.Acquire(context.Background(), "US1234567B2", "")
	require.NoError(t, err)
	assert.Equal(t, "s3://patents/pdf/US1234567B2.pdf", loc)
	assert.Equal(t, pdfBody("US1234567B2"), fake.objects["patents/pdf/US1234567B2.pdf"])

	_, err = a.Acquire(context.Background(), "EP1234567A1", "")
	require.NoError(t, err)
	assert.Equal(t, 1, fake.makes, "bucket created once")
}

func TestMinioStore_PutFailureIsIOError(t *testing.T) {
	ts := newPatentServer(t, nil, nil)
	fake := &fakeMinio{buckets: map[string]bool{"patents": true}, objects: map[string][]byte{}, putErr: errors.New("access denied")}
	a := New(ts.Client(), NewMinioStore(fake, types.MinioConfig{Bucket: "patents"}, "", nil), testConfig(), nil)

	_, err := a.Acquire(context.Background(), "US1234567B2", "")
	var ioErr *IOError
	require.ErrorAs(t, err, &ioErr)
	assert.Equal(t, "s3://patents/US1234567B2.pdf", ioErr.Path)
	assert.Equal(t, 0, fake.makes)
}

func TestMinioStore_CancelledPutDoesNotPoisonBucketCheck(t *testing.T) {
	fake := &fakeMinio{buckets: map[string]bool{}, objects: map[string][]byte{}}
	store := NewMinioStore(fake, types.MinioConfig{Bucket: "patents"}, "", nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := store.Put(ctx, "US1234567B2", pdfBody("US1234567B2"))
	var ioErr *IOError
	require.ErrorAs(t, err, &ioErr)
	assert.ErrorIs(t, err, context.Canceled)

	loc, err := store.Put(context.Background(), "US1234567B2", pdfBody("US1234567B2"))
	require.NoError(t, err)
	assert.Equal(t, "s3://patents/US1234567B2.pdf", loc)
	assert.Len(t, fake.objects, 1)
	assert.Equal(t, 1, fake.makes)
}

func TestMinioStore_BucketCheckRetriedAfterFailure(t *testing.T) {
	fake := &fakeMinio{
		buckets:    map[string]bool{"patents": true},
		objects:    map[string][]byte{},
		existsErrs: []error{errors.New("connection reset by peer")},
	}
	store := NewMinioStore(fake, types.MinioConfig{Bucket: "patents"}, "", nil)

	_, err := store.Put(context.Background(), "US1234567B2", pdfBody("US1234567B2"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "checking bucket patents")

	_, err = store.Put(context.Background(), "US1234567B2", pdfBody("US1234567B2"))
	require.NoError(t, err)
	assert.Len(t, fake.objects, 1)
	assert.Equal(t, 0, fake.makes)
}
