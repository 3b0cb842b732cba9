package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"connectrpc.com/connect"

	"bootstrapper/internal/gateway/run"
	"bootstrapper/internal/plan"
	"bootstrapper/internal/planner"
	"bootstrapper/internal/scan"
	"bootstrapper/internal/util/jsonutil"
)

const (
	PlanServiceName             = "bootstrapper.v1.PlanService"
	PlanServiceExecuteProcedure = "/bootstrapper.v1.PlanService/Execute"
	PlanServicePlanProcedure    = "/bootstrapper.v1.PlanService/Plan"
)

// ExecuteRequest carries a plan in any shape plan.Decode accepts.
type ExecuteRequest struct {
	Plan json.RawMessage `json:"plan"`
}

type PlanRequest struct {
	Summary scan.Summary `json:"summary"`
}

// jsonCodec lets Connect exchange plain Go structs as JSON. The messages are
// not protobuf types, so the built-in protojson codec cannot serve them.
type jsonCodec struct{ name string }

func (c jsonCodec) Name() string { return c.name }

func (jsonCodec) Marshal(v any) ([]byte, error) { return jsonutil.MarshalNoEscape(v) }

func (jsonCodec) Unmarshal(data []byte, v any) error {
	if len(data) == 0 {
		return nil
	}
	return json.Unmarshal(data, v)
}

// NewPlanServiceHandler builds the Connect handler for PlanService and returns
// the path prefix to mount it on.
func NewPlanServiceHandler(h *Handler, opts ...connect.HandlerOption) (string, http.Handler) {
	opts = append([]connect.HandlerOption{
		connect.WithCodec(jsonCodec{name: "json"}),
		connect.WithCodec(jsonCodec{name: "json; charset=utf-8"}),
		connect.WithReadMaxBytes(maxBodyBytes),
	}, opts...)
	execute := connect.NewUnaryHandler(PlanServiceExecuteProcedure, h.ExecuteRPC, opts...)
	planH := connect.NewUnaryHandler(PlanServicePlanProcedure, h.PlanRPC, opts...)
	return "/" + PlanServiceName + "/", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case PlanServiceExecuteProcedure:
			execute.ServeHTTP(w, r)
		case PlanServicePlanProcedure:
			planH.ServeHTTP(w, r)
		default:
			http.NotFound(w, r)
		}
	})
}

func (h *Handler) ExecuteRPC(ctx context.Context, req *connect.Request[ExecuteRequest]) (*connect.Response[run.Outcome], error) {
	if len(req.Msg.Plan) == 0 {
		return nil, connect.NewError(connect.CodeInvalidArgument, errors.New("plan is required"))
	}
	steps, err := plan.Decode(req.Msg.Plan)
	if err != nil {
		return nil, connect.NewError(connect.CodeInvalidArgument, err)
	}
	out, err := h.runs.Execute(ctx, steps, nil)
	if err != nil {
		return nil, connect.NewError(connect.CodeInternal, err)
	}
	return connect.NewResponse(&out), nil
}

func (h *Handler) PlanRPC(ctx context.Context, req *connect.Request[PlanRequest]) (*connect.Response[planner.Draft], error) {
	if h.planner == nil {
		return nil, connect.NewError(connect.CodeUnavailable, errors.New("no model configured"))
	}
	draft, err := h.planner.Plan(ctx, req.Msg.Summary)
	if err != nil {
		if errors.Is(err, plan.ErrMalformedPlan) || errors.Is(err, planner.ErrEmptyResponse) {
			return nil, connect.NewError(connect.CodeFailedPrecondition, err)
		}
		return nil, connect.NewError(connect.CodeInternal, err)
	}
	return connect.NewResponse(&draft), nil
}
