package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"runtime"
	"strings"

	"github.com/bft-labs/driveseq/internal/domain"
	"github.com/bft-labs/driveseq/internal/ports"
	"github.com/bft-labs/driveseq/pkg/log"
)

const (
	commandEndpoint = "/command/"
	stopEndpoint    = "/stop/"
	specEndpoint    = "/spec/"
)

// maxErrorBody bounds how much of an error response is quoted.
const maxErrorBody = 512

type commandBody struct {
	LinearX  float64 `json:"linear_x"`
	AngularZ float64 `json:"angular_z"`
}

// VelocitySink implements ports.VelocitySink against the robot REST API.
// Non-zero commands are posted to /command/, the zero command to /stop/.
type VelocitySink struct {
	client  ports.HTTPClient
	baseURL string
	logger  log.Logger
}

var _ ports.VelocitySink = (*VelocitySink)(nil)

// NewVelocitySink creates a sink for the robot at baseURL.
func NewVelocitySink(client ports.HTTPClient, baseURL string, logger log.Logger) *VelocitySink {
	return &VelocitySink{
		client:  client,
		baseURL: strings.TrimRight(baseURL, "/"),
		logger:  logger,
	}
}

// Publish sends one velocity command.
func (s *VelocitySink) Publish(ctx context.Context, cmd domain.VelocityCommand) error {
	if cmd.IsStop() {
		return s.post(ctx, stopEndpoint, nil)
	}

	body, err := json.Marshal(commandBody{LinearX: cmd.LinearX, AngularZ: cmd.AngularZ})
	if err != nil {
		return fmt.Errorf("marshal command: %w", err)
	}
	return s.post(ctx, commandEndpoint, body)
}

// Probe fetches the robot specification to check the API is reachable.
func (s *VelocitySink) Probe(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+specEndpoint, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	s.setHeaders(req)
	if err := s.do(req); err != nil {
		return err
	}
	s.logger.Info("robot api reachable", log.String("url", s.baseURL))
	return nil
}

func (s *VelocitySink) post(ctx context.Context, endpoint string, body []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	s.setHeaders(req)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return s.do(req)
}

func (s *VelocitySink) setHeaders(req *http.Request) {
	req.Header.Set("User-Agent", "driveseq ("+runtime.GOOS+"/"+runtime.GOARCH+")")
	req.Header.Set("Accept", "application/json")
}

func (s *VelocitySink) do(req *http.Request) error {
	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode/100 != 2 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return fmt.Errorf("%s %s returned %d: %s", req.Method, req.URL.Path, resp.StatusCode, string(respBody))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}
