package httpx

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func newTestClient(opts Options) *Client {
	if opts.TransportWait == 0 {
		opts.TransportWait = time.Millisecond
	}
	if opts.RateLimitCooldown == 0 {
		opts.RateLimitCooldown = time.Millisecond
	}
	if opts.DelayMin == 0 && opts.DelayMax == 0 {
		opts.DelayMin = time.Millisecond
		opts.DelayMax = time.Millisecond
	}
	return NewClient(opts)
}

func TestNewClientDefaultsPolitenessDelay(t *testing.T) {
	c := NewClient(Options{})
	require.Equal(t, 2*time.Second, c.delayMin)
	require.Equal(t, 6*time.Second, c.delayMax)

	c = NewClient(Options{DelayMin: 3 * time.Second, DelayMax: 7 * time.Second})
	require.Equal(t, 3*time.Second, c.delayMin)
	require.Equal(t, 7*time.Second, c.delayMax)
}

func TestFetchBytesSuccess(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.Write([]byte("<html>ok</html>"))
	}))
	defer srv.Close()

	c := newTestClient(Options{})
	body, err := c.FetchBytes(context.Background(), srv.URL)
	require.NoError(t, err)
	require.Equal(t, "<html>ok</html>", string(body))
	require.EqualValues(t, 1, hits.Load())
}

func TestFetchBytesRetriesAfterRateLimit(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hits.Add(1) == 1 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.Write([]byte("recovered"))
	}))
	defer srv.Close()

	cooldown := 50 * time.Millisecond
	c := newTestClient(Options{RateLimitCooldown: cooldown})

	start := time.Now()
	body, err := c.FetchBytes(context.Background(), srv.URL)
	require.NoError(t, err)
	require.Equal(t, "recovered", string(body))
	require.EqualValues(t, 2, hits.Load())
	require.GreaterOrEqual(t, time.Since(start), cooldown)
}

func TestFetchBytesRateLimitCeiling(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	c := newTestClient(Options{MaxRateLimitRetries: 2})

	_, err := c.FetchBytes(context.Background(), srv.URL)
	require.ErrorIs(t, err, ErrRateLimitExceeded)

	var fe *FetchError
	require.ErrorAs(t, err, &fe)
	require.Equal(t, http.StatusTooManyRequests, fe.Status)
	// initial attempt + two retries
	require.EqualValues(t, 3, hits.Load())
}

func TestFetchBytesRemoteErrorNoRetry(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	c := newTestClient(Options{})

	_, err := c.FetchBytes(context.Background(), srv.URL)
	var fe *FetchError
	require.ErrorAs(t, err, &fe)
	require.Equal(t, http.StatusNotFound, fe.Status)
	require.EqualValues(t, 1, hits.Load())
}

func TestFetchBytesTransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // connection refused from here on

	c := newTestClient(Options{})

	_, err := c.FetchBytes(context.Background(), srv.URL)
	var fe *FetchError
	require.ErrorAs(t, err, &fe)
	require.Zero(t, fe.Status)
}

func TestFetchBytesPolitenessDelay(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	}))
	defer srv.Close()

	delay := 40 * time.Millisecond
	c := newTestClient(Options{DelayMin: delay, DelayMax: delay})

	start := time.Now()
	_, err := c.FetchBytes(context.Background(), srv.URL)
	require.NoError(t, err)
	require.GreaterOrEqual(t, time.Since(start), delay)
}

func TestFetchBytesContextCancelsCooldown(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	c := newTestClient(Options{RateLimitCooldown: time.Hour})

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := c.FetchBytes(ctx, srv.URL)
	require.ErrorIs(t, err, context.DeadlineExceeded)
}
