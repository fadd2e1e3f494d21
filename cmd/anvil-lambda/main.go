package main

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"log/slog"
	"os"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	"github.com/google/uuid"

	"anvil-optimizer/internal/anvil"
	"anvil-optimizer/internal/batch"
	"anvil-optimizer/internal/catalog"
	"anvil-optimizer/internal/config"
)

var jsonHeader = map[string]string{
	"Content-Type": "application/json",
}

type optimizeResult struct {
	RequestID string `json:"requestId"`
	anvil.Summary
	TimeMs int64 `json:"timeMs"`
}

type server struct {
	runner    *batch.Runner
	objective anvil.Objective
	log       *slog.Logger
}

func newServer(cfg config.App, logger *slog.Logger) (*server, error) {
	cat, err := catalog.Default()
	if cfg.Catalog != "" {
		cat, err = catalog.Load(cfg.Catalog)
	}
	if err != nil {
		return nil, err
	}
	solver := anvil.NewSolver(cfg.SolverConfig(), logger)
	return &server{
		runner:    batch.NewRunner(cat, solver, 1, logger),
		objective: cfg.Objective(),
		log:       logger,
	}, nil
}

func (s *server) handler(_ context.Context, event events.LambdaFunctionURLRequest) (events.LambdaFunctionURLResponse, error) {
	requestID := event.RequestContext.RequestID
	if requestID == "" {
		requestID = uuid.NewString()
	}

	body := event.Body
	if event.IsBase64Encoded {
		decoded, err := base64.StdEncoding.DecodeString(body)
		if err != nil {
			return errResp(400, "invalid base64 body")
		}
		body = string(decoded)
	}

	job, err := batch.ParseJob(body, s.objective)
	if err != nil {
		return errResp(400, err.Error())
	}
	if len(job.Selections) == 0 {
		return errResp(400, "missing enchantments")
	}
	job.ID = requestID

	r := s.runner.RunOne(job)
	if r.Err != nil {
		code := 500
		if errors.Is(r.Err, anvil.ErrInvalidInput) {
			code = 400
		}
		return errResp(code, r.Error)
	}
	s.log.Info("optimized", "request", requestID, "item", job.Item, "feasible", r.Plan.Feasible, "ms", r.TimeMs)

	resp := optimizeResult{RequestID: requestID, Summary: *r.Result, TimeMs: r.TimeMs}
	respJSON, _ := json.Marshal(resp)
	return events.LambdaFunctionURLResponse{StatusCode: 200, Headers: jsonHeader, Body: string(respJSON)}, nil
}

func errResp(code int, msg string) (events.LambdaFunctionURLResponse, error) {
	body, _ := json.Marshal(map[string]string{"error": msg})
	return events.LambdaFunctionURLResponse{StatusCode: code, Headers: jsonHeader, Body: string(body)}, nil
}

func main() {
	cfg, err := config.Load(config.ResolvePath(""))
	if err != nil {
		slog.Error("loading config", "err", err)
		os.Exit(1)
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.SlogLevel()}))
	slog.SetDefault(logger)

	srv, err := newServer(cfg, logger)
	if err != nil {
		slog.Error("starting", "err", err)
		os.Exit(1)
	}
	lambda.Start(srv.handler)
}
