package advice

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/bufbuild/connect-go"

	"github.com/jerzydziewierz/second-opinion/internal/advisor"
	"github.com/jerzydziewierz/second-opinion/internal/observability"
	"github.com/jerzydziewierz/second-opinion/internal/rpc"
)

const ConnectCallToolProcedure = "/secondopinion.v1.AdvisorService/CallTool"

const transportName = "connect"

// ToolCaller runs a named tool. *advisor.Advisor implements it.
type ToolCaller interface {
	Call(ctx context.Context, name string, raw json.RawMessage) (advisor.Result, error)
}

// NewConnectHandler builds a Connect unary handler for CallTool.
func NewConnectHandler(caller ToolCaller, metrics *observability.Metrics) (string, http.Handler) {
	h := &connectCallHandler{caller: caller, metrics: metrics}
	return ConnectCallToolProcedure, connect.NewUnaryHandler(ConnectCallToolProcedure, h.handle, connect.WithCodec(Codec{}))
}

type connectCallHandler struct {
	caller  ToolCaller
	metrics *observability.Metrics
}

func (h *connectCallHandler) handle(ctx context.Context, req *connect.Request[rpc.CallToolRequest]) (*connect.Response[advisor.Result], error) {
	h.metrics.IncInFlight(transportName)
	defer h.metrics.DecInFlight(transportName)

	if req.Msg == nil || req.Msg.Name == "" {
		h.metrics.RecordTransportError(transportName, "missing_name")
		return nil, connect.NewError(connect.CodeInvalidArgument, errors.New("tool name is required"))
	}

	res, err := h.caller.Call(ctx, req.Msg.Name, req.Msg.Arguments)
	if err != nil {
		if errors.Is(err, advisor.ErrUnknownTool) {
			return nil, connect.NewError(connect.CodeNotFound, err)
		}
		h.metrics.RecordTransportError(transportName, "call")
		return nil, connect.NewError(connect.CodeInternal, err)
	}
	return connect.NewResponse(&res), nil
}
