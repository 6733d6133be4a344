package webhook

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fastSender(secret string) *Sender {
	s := NewSender(secret)
	s.Delays = []time.Duration{0, time.Millisecond, time.Millisecond}
	return s
}

func TestSend_Signed(t *testing.T) {
	var (
		gotBody []byte
		gotSig  string
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotBody, _ = io.ReadAll(r.Body)
		gotSig = r.Header.Get(SignatureHeader)
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	ev := &Event{
		Type:  EventExtractCompleted,
		JobID: "job-1",
		Data:  ExtractData{URL: "https://youtu.be/x", Result: json.RawMessage(`{"title":"T"}`)},
	}
	require.NoError(t, fastSender("s3cret").Send(context.Background(), srv.URL, ev))

	assert.Equal(t, Sign("s3cret", gotBody), gotSig)
	assert.JSONEq(t,
		`{"type":"extract.completed","job_id":"job-1","timestamp":0,"data":{"url":"https://youtu.be/x","attempts":0,"total_ms":0,"result":{"title":"T"}}}`,
		string(gotBody))
}

func TestSend_Unsigned(t *testing.T) {
	var sawHeader bool
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, sawHeader = r.Header[SignatureHeader]
	}))
	defer srv.Close()

	require.NoError(t, fastSender("").Send(context.Background(), srv.URL, &Event{Type: EventExtractFailed}))
	assert.False(t, sawHeader)
}

func TestSend_ErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	err := fastSender("").Send(context.Background(), srv.URL, &Event{Type: EventExtractFailed})
	assert.ErrorContains(t, err, "status 502")
}

func TestDeliver_RetriesUntilSuccess(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 2 {
			w.WriteHeader(http.StatusServiceUnavailable)
		}
	}))
	defer srv.Close()

	require.NoError(t, fastSender("").Deliver(context.Background(), srv.URL, &Event{Type: EventExtractCompleted}))
	assert.Equal(t, int32(2), calls.Load())
}

func TestDeliver_GivesUp(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	err := fastSender("").Deliver(context.Background(), srv.URL, &Event{Type: EventExtractCompleted})
	assert.ErrorContains(t, err, "status 500")
	assert.Equal(t, int32(3), calls.Load())
}

func TestDeliver_StopsWaitingWhenContextDone(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	s := NewSender("")
	s.Delays = []time.Duration{0, time.Hour}
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	start := time.Now()
	err := s.Deliver(ctx, srv.URL, &Event{Type: EventExtractFailed})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, time.Since(start), 5*time.Second)
}
