package providers_service_api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/Domenick1991/orbitaltravel/internal/api/rpc"
	"github.com/Domenick1991/orbitaltravel/internal/domain"
	"github.com/Domenick1991/orbitaltravel/internal/service/providers"
	"github.com/grpc-ecosystem/grpc-gateway/v2/runtime"
	"google.golang.org/grpc/status"
)

const (
	defaultCallsLimit = 50
	maxCallsLimit     = 1000
)

// RegisterHTTP mounts the JSON tool endpoints on mux:
//
//	POST /tools/{tool}  body is the tool's arguments
//	GET  /healthz
//	GET  /calls?limit=N  (N capped at 1000)
func RegisterHTTP(mux *runtime.ServeMux, svc providers.ProviderUseCase) error {
	routes := []struct {
		method, path string
		handler      runtime.HandlerFunc
	}{
		{http.MethodPost, "/tools/{tool}", toolHandler(svc)},
		{http.MethodGet, "/healthz", func(w http.ResponseWriter, _ *http.Request, _ map[string]string) {
			writeJSON(w, http.StatusOK, svc.Health())
		}},
		{http.MethodGet, "/calls", callsHandler(svc)},
	}
	for _, r := range routes {
		if err := mux.HandlePath(r.method, r.path, r.handler); err != nil {
			return fmt.Errorf("register %s %s: %w", r.method, r.path, err)
		}
	}
	return nil
}

type toolFunc func(ctx context.Context, body []byte) (any, error)

func tool[Req, Resp any](call func(context.Context, Req) (*Resp, error)) toolFunc {
	return func(ctx context.Context, body []byte) (any, error) {
		var req Req
		if len(body) > 0 {
			if err := json.Unmarshal(body, &req); err != nil {
				return nil, &domain.ValidationError{Message: "invalid JSON body: " + err.Error()}
			}
		}
		return call(ctx, req)
	}
}

func toolHandler(svc providers.ProviderUseCase) runtime.HandlerFunc {
	tools := map[string]toolFunc{
		domain.ToolRoutes:       tool(svc.Routes),
		domain.ToolPricing:      tool(svc.Pricing),
		domain.ToolAvailability: tool(svc.Availability),
		domain.ToolRisk:         tool(svc.Risk),
		domain.ToolValidation:   tool(svc.ValidateSchema),
	}

	return func(w http.ResponseWriter, r *http.Request, params map[string]string) {
		call, ok := tools[params["tool"]]
		if !ok {
			writeJSON(w, http.StatusNotFound, map[string]string{"detail": fmt.Sprintf("unknown tool %q", params["tool"])})
			return
		}

		var body json.RawMessage
		if r.Body != nil {
			if err := json.NewDecoder(r.Body).Decode(&body); err != nil && !errors.Is(err, io.EOF) {
				writeJSON(w, http.StatusBadRequest, map[string]string{"detail": "invalid JSON body"})
				return
			}
		}

		result, err := call(r.Context(), body)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, result)
	}
}

func callsHandler(svc providers.ProviderUseCase) runtime.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request, _ map[string]string) {
		limit := defaultCallsLimit
		if raw := r.URL.Query().Get("limit"); raw != "" {
			n, err := strconv.Atoi(raw)
			if err != nil || n <= 0 {
				writeJSON(w, http.StatusBadRequest, map[string]string{"detail": "limit must be a positive integer"})
				return
			}
			limit = min(n, maxCallsLimit)
		}

		calls, err := svc.RecentCalls(r.Context(), limit)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"calls": calls})
	}
}

// writeError reuses the gateway's gRPC to HTTP code table so both surfaces
// report a fault the same way.
func writeError(w http.ResponseWriter, err error) {
	st := status.Convert(rpc.Status(err))
	writeJSON(w, runtime.HTTPStatusFromCode(st.Code()), map[string]string{"detail": st.Message()})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
