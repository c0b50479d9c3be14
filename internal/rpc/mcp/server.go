// Package mcp serves tool calls as newline-delimited JSON-RPC over a byte stream.
package mcp

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/jerzydziewierz/second-opinion/internal/advisor"
	"github.com/jerzydziewierz/second-opinion/internal/observability"
	"github.com/jerzydziewierz/second-opinion/internal/rpc"
)

const transportName = "stdio"

const instructions = "Second Opinion MCP server: consult a different AI coding assistant."

// ToolHandler lists and runs tools. *advisor.Advisor implements it.
type ToolHandler interface {
	Definitions() []advisor.ToolDefinition
	Call(ctx context.Context, name string, raw json.RawMessage) (advisor.Result, error)
}

// Server is an MCP server. Tool calls run concurrently; responses are written one
// message per line in completion order.
type Server struct {
	handler ToolHandler
	info    rpc.Implementation
	logger  *zap.Logger
	metrics *observability.Metrics

	writeMu sync.Mutex
	out     io.Writer
	calls   sync.WaitGroup
}

// NewServer creates a server announcing itself as info.
func NewServer(handler ToolHandler, info rpc.Implementation, logger *zap.Logger, metrics *observability.Metrics) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{handler: handler, info: info, logger: logger, metrics: metrics}
}

// Serve reads requests from r and writes responses to w until r is exhausted or ctx
// is canceled. Pending tool calls are awaited before returning.
func (s *Server) Serve(ctx context.Context, r io.Reader, w io.Writer) error {
	s.out = w
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	lines := make(chan []byte)
	readErr := make(chan error, 1)
	go func() {
		defer close(lines)
		br := bufio.NewReader(r)
		for {
			line, err := br.ReadBytes('\n')
			if len(bytes.TrimSpace(line)) > 0 {
				select {
				case lines <- line:
				case <-ctx.Done():
					return
				}
			}
			if err != nil {
				if !errors.Is(err, io.EOF) {
					readErr <- err
				}
				return
			}
		}
	}()

	s.logger.Info("mcp server started", zap.String("name", s.info.Name), zap.String("version", s.info.Version))
	defer s.calls.Wait()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case line, ok := <-lines:
			if !ok {
				select {
				case err := <-readErr:
					s.metrics.RecordTransportError(transportName, "read")
					return fmt.Errorf("read request: %w", err)
				default:
				}
				s.logger.Info("mcp input closed")
				return nil
			}
			s.dispatch(ctx, line)
		}
	}
}

func (s *Server) dispatch(ctx context.Context, line []byte) {
	var req rpc.Request
	if err := json.Unmarshal(line, &req); err != nil {
		s.metrics.RecordTransportError(transportName, "parse")
		s.writeError(nil, rpc.CodeParseError, "parse error: "+err.Error())
		return
	}
	if req.JSONRPC != rpc.JSONRPCVersion || req.Method == "" {
		s.metrics.RecordTransportError(transportName, "invalid_request")
		if !req.IsNotification() {
			s.writeError(req.ID, rpc.CodeInvalidRequest, "invalid request")
		}
		return
	}

	switch req.Method {
	case rpc.MethodInitialize:
		s.handleInitialize(req)
	case rpc.MethodInitialized:
		s.logger.Debug("client initialized")
	case rpc.MethodPing:
		s.reply(req, struct{}{})
	case rpc.MethodToolsList:
		s.reply(req, rpc.ListToolsResult{Tools: s.handler.Definitions()})
	case rpc.MethodToolsCall:
		s.calls.Add(1)
		go func() {
			defer s.calls.Done()
			s.handleCall(ctx, req)
		}()
	default:
		if !req.IsNotification() {
			s.writeError(req.ID, rpc.CodeMethodNotFound, "method not found: "+req.Method)
		}
	}
}

func (s *Server) handleInitialize(req rpc.Request) {
	var params rpc.InitializeParams
	if len(req.Params) > 0 {
		if err := json.Unmarshal(req.Params, &params); err != nil {
			s.writeError(req.ID, rpc.CodeInvalidParams, "invalid initialize params: "+err.Error())
			return
		}
	}
	version := params.ProtocolVersion
	if version == "" {
		version = rpc.ProtocolVersion
	}
	s.logger.Info("client connected",
		zap.String("client", params.ClientInfo.Name),
		zap.String("client_version", params.ClientInfo.Version),
		zap.String("protocol", version))
	s.reply(req, rpc.InitializeResult{
		ProtocolVersion: version,
		Capabilities:    rpc.ServerCapabilities{Tools: &rpc.ToolsCapability{}},
		ServerInfo:      s.info,
		Instructions:    instructions,
	})
}

func (s *Server) handleCall(ctx context.Context, req rpc.Request) {
	s.metrics.IncInFlight(transportName)
	defer s.metrics.DecInFlight(transportName)

	var params rpc.CallToolRequest
	if err := json.Unmarshal(req.Params, &params); err != nil || params.Name == "" {
		s.writeError(req.ID, rpc.CodeInvalidParams, "tools/call requires a tool name")
		return
	}

	start := time.Now()
	res, err := s.handler.Call(ctx, params.Name, params.Arguments)
	if err != nil {
		if errors.Is(err, advisor.ErrUnknownTool) {
			s.writeError(req.ID, rpc.CodeInvalidParams, "Unknown tool: "+params.Name)
			return
		}
		s.writeError(req.ID, rpc.CodeInternalError, err.Error())
		return
	}
	s.logger.Debug("tool call finished", zap.String("tool", params.Name),
		zap.Bool("is_error", res.IsError), zap.Duration("duration", time.Since(start)))
	if req.IsNotification() {
		return
	}
	s.reply(req, res)
}

func (s *Server) reply(req rpc.Request, result any) {
	if req.IsNotification() {
		return
	}
	s.write(rpc.Response{JSONRPC: rpc.JSONRPCVersion, ID: req.ID, Result: result})
}

func (s *Server) writeError(id json.RawMessage, code int, msg string) {
	s.write(rpc.Response{JSONRPC: rpc.JSONRPCVersion, ID: id, Error: &rpc.Error{Code: code, Message: msg}})
}

func (s *Server) write(resp rpc.Response) {
	data, err := json.Marshal(resp)
	if err != nil {
		s.logger.Error("encode response", zap.Error(err))
		s.metrics.RecordTransportError(transportName, "encode")
		return
	}
	data = append(data, '\n')

	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	if _, err := s.out.Write(data); err != nil {
		s.logger.Warn("write response", zap.Error(err))
		s.metrics.RecordTransportError(transportName, "write")
	}
}
