// Copyright © 2022-2025 Obol Labs Inc. Licensed under the terms of a Business Source License 1.1

package app

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/obolnetwork/picarlo/app/errors"
	"github.com/obolnetwork/picarlo/app/featureset"
	"github.com/obolnetwork/picarlo/app/log"
	"github.com/obolnetwork/picarlo/app/z"
	"github.com/obolnetwork/picarlo/bench"
	"github.com/obolnetwork/picarlo/montecarlo"
)

const defaultTrials = 1_000_000

// apiError defines an api error that is converted to an errorResponse.
type apiError struct {
	// StatusCode is the http status code to return, defaults to 500.
	StatusCode int
	// Message is a safe human-readable message, defaults to "Internal server error".
	Message string
	// Err is the original error.
	Err error
}

func (a apiError) Error() string {
	return fmt.Sprintf("api error[status=%d,msg=%s]: %v", a.StatusCode, a.Message, a.Err)
}

type errorResponse struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

type estimateResponse struct {
	montecarlo.Estimate
	AbsError float64        `json:"abs_error"`
	Elapsed  bench.Duration `json:"elapsed"`
}

// handlerFunc is a convenient handler function providing a context and the query
// parameters and returning the response struct or an error.
type handlerFunc func(ctx context.Context, query url.Values) (res any, err error)

// NewRouter returns the estimation API router.
// Requests exceeding maxTrials or maxWorkers are rejected.
func NewRouter(maxTrials, maxWorkers int) *mux.Router {
	r := mux.NewRouter()
	r.Handle("/estimate", wrap("estimate", estimate(maxTrials, maxWorkers))).Methods(http.MethodGet)

	return r
}

// wrap adapts the handler function returning a standard http handler.
// It does tracing, metrics and response and error writing.
func wrap(endpoint string, handler handlerFunc) http.Handler {
	wrap := func(w http.ResponseWriter, r *http.Request) {
		defer observeAPILatency(endpoint)()

		ctx := r.Context()
		ctx = log.WithTopic(ctx, "api")
		ctx = log.WithCtx(ctx, z.Str("api_endpoint", endpoint))

		res, err := handler(ctx, r.URL.Query())
		if err != nil {
			writeError(ctx, w, endpoint, err)
			return
		}

		writeResponse(ctx, w, endpoint, res)
	}

	return otelhttp.NewHandler(http.HandlerFunc(wrap), "app/api."+endpoint)
}

// estimate returns a handler function for the estimate endpoint.
func estimate(maxTrials, maxWorkers int) handlerFunc {
	return func(ctx context.Context, query url.Values) (any, error) {
		trials, err := intQuery(query, "trials", defaultTrials)
		if err != nil {
			return nil, err
		} else if trials > maxTrials {
			return nil, apiError{
				StatusCode: http.StatusBadRequest,
				Message:    fmt.Sprintf("trials exceeds maximum of %d", maxTrials),
			}
		}

		workers, err := intQuery(query, "workers", 0)
		if err != nil {
			return nil, err
		} else if workers > maxWorkers {
			return nil, apiError{
				StatusCode: http.StatusBadRequest,
				Message:    fmt.Sprintf("workers exceeds maximum of %d", maxWorkers),
			}
		}

		var opts []montecarlo.Option
		if query.Has("seed") {
			seed, err := strconv.ParseUint(query.Get("seed"), 10, 64)
			if err != nil {
				return nil, apiError{
					StatusCode: http.StatusBadRequest,
					Message:    "invalid seed",
					Err:        err,
				}
			}
			opts = append(opts, montecarlo.WithSeed(seed))
		}

		if query.Get("redistribute") == "true" || featureset.Enabled(featureset.RedistributeRemainder) {
			opts = append(opts, montecarlo.WithRedistribute())
		}

		var est montecarlo.Estimate
		start := time.Now()
		if workers == 0 {
			est, err = montecarlo.Serial(ctx, trials, opts...)
		} else {
			est, err = montecarlo.Parallel(ctx, trials, workers, opts...)
		}

		if errors.Is(err, montecarlo.ErrInvalidArgument) {
			return nil, apiError{
				StatusCode: http.StatusBadRequest,
				Message:    err.Error(),
				Err:        err,
			}
		} else if err != nil {
			return nil, err
		}

		return estimateResponse{
			Estimate: est,
			AbsError: est.Error(),
			Elapsed:  bench.RoundDuration(bench.Duration{Duration: time.Since(start)}),
		}, nil
	}
}

// intQuery returns the integer query parameter or the default if absent.
func intQuery(query url.Values, key string, def int) (int, error) {
	if !query.Has(key) {
		return def, nil
	}

	val, err := strconv.Atoi(query.Get(key))
	if err != nil {
		return 0, apiError{
			StatusCode: http.StatusBadRequest,
			Message:    "invalid " + key,
			Err:        err,
		}
	}

	return val, nil
}

// writeResponse writes the 200 OK response and json response body.
func writeResponse(ctx context.Context, w http.ResponseWriter, endpoint string, response any) {
	b, err := json.Marshal(response)
	if err != nil {
		writeError(ctx, w, endpoint, errors.Wrap(err, "marshal response body"))
		return
	}

	w.Header().Set("Content-Type", "application/json")

	if _, err = w.Write(b); err != nil {
		// Too late to also try to writeError at this point, so just log.
		log.Error(ctx, "Failed writing api response", err)
	}
}

// writeError writes a http json error response object.
func writeError(ctx context.Context, w http.ResponseWriter, endpoint string, err error) {
	if ctx.Err() != nil {
		// Client cancelled the request
		err = apiError{
			StatusCode: http.StatusRequestTimeout,
			Message:    "client cancelled request",
			Err:        ctx.Err(),
		}
	}

	var aerr apiError
	if !errors.As(err, &aerr) {
		aerr = apiError{
			StatusCode: http.StatusInternalServerError,
			Message:    "Internal server error",
			Err:        err,
		}
	}

	if aerr.StatusCode/100 == 4 {
		// 4xx status codes are client errors (not server), so log as debug only.
		log.Debug(ctx, "API 4xx response",
			z.Int("status_code", aerr.StatusCode),
			z.Str("message", aerr.Message),
			z.Err(err))
	} else {
		log.Error(ctx, "API 5xx response", err,
			z.Int("status_code", aerr.StatusCode),
			z.Str("message", aerr.Message))
	}

	incAPIErrors(endpoint, aerr.StatusCode)

	b, err2 := json.Marshal(errorResponse{Code: aerr.StatusCode, Message: aerr.Message})
	if err2 != nil {
		// Log and continue to write nil b.
		log.Error(ctx, "Failed marshalling error response", err2)
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(aerr.StatusCode)

	if _, err2 = w.Write(b); err2 != nil {
		log.Error(ctx, "Failed writing api error", err2)
	}
}
