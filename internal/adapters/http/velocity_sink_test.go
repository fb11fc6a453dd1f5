package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bft-labs/driveseq/internal/domain"
	"github.com/bft-labs/driveseq/pkg/log"
)

type recordedRequest struct {
	method string
	path   string
	body   commandBody
}

func newRobot(t *testing.T, status int) (*httptest.Server, func() []recordedRequest) {
	t.Helper()

	var (
		mu   sync.Mutex
		reqs []recordedRequest
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec := recordedRequest{method: r.Method, path: r.URL.Path}
		if r.URL.Path == commandEndpoint {
			_ = json.NewDecoder(r.Body).Decode(&rec.body)
		}
		mu.Lock()
		reqs = append(reqs, rec)
		mu.Unlock()

		w.WriteHeader(status)
		_, _ = w.Write([]byte(`{"detail":"ok"}`))
	}))
	t.Cleanup(srv.Close)

	return srv, func() []recordedRequest {
		mu.Lock()
		defer mu.Unlock()
		return append([]recordedRequest{}, reqs...)
	}
}

func TestVelocitySink_PostsCommandsAndStop(t *testing.T) {
	srv, requests := newRobot(t, http.StatusOK)
	sink := NewVelocitySink(srv.Client(), srv.URL+"/", log.NewNoopLogger())

	require.NoError(t, sink.Publish(context.Background(), domain.VelocityCommand{LinearX: 2.9}))
	require.NoError(t, sink.Publish(context.Background(), domain.VelocityCommand{AngularZ: -0.4}))
	require.NoError(t, sink.Publish(context.Background(), domain.Stop()))

	got := requests()
	require.Len(t, got, 3)
	assert.Equal(t, recordedRequest{method: http.MethodPost, path: "/command/", body: commandBody{LinearX: 2.9}}, got[0])
	assert.Equal(t, commandBody{AngularZ: -0.4}, got[1].body)
	assert.Equal(t, recordedRequest{method: http.MethodPost, path: "/stop/"}, got[2])
}

func TestVelocitySink_Non2xxIsError(t *testing.T) {
	srv, _ := newRobot(t, http.StatusServiceUnavailable)
	sink := NewVelocitySink(srv.Client(), srv.URL, log.NewNoopLogger())

	err := sink.Publish(context.Background(), domain.VelocityCommand{LinearX: 1})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "503")
}

func TestVelocitySink_Probe(t *testing.T) {
	srv, requests := newRobot(t, http.StatusOK)
	sink := NewVelocitySink(srv.Client(), srv.URL, log.NewNoopLogger())

	require.NoError(t, sink.Probe(context.Background()))
	got := requests()
	require.Len(t, got, 1)
	assert.Equal(t, http.MethodGet, got[0].method)
	assert.Equal(t, "/spec/", got[0].path)
}

type failingClient struct{ err error }

func (c failingClient) Do(*http.Request) (*http.Response, error) { return nil, c.err }

func TestVelocitySink_TransportError(t *testing.T) {
	boom := errors.New("connection refused")
	sink := NewVelocitySink(failingClient{err: boom}, "http://robot.local", log.NewNoopLogger())

	err := sink.Publish(context.Background(), domain.Stop())
	assert.ErrorIs(t, err, boom)
}
