package server

import (
	"context"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strconv"

	"github.com/drakos74/impulse/internal/concurrent"
	"github.com/drakos74/impulse/internal/model"
	"github.com/drakos74/impulse/internal/nudge"
	"github.com/drakos74/impulse/internal/pipeline"
	"github.com/drakos74/impulse/internal/provider"
	"github.com/drakos74/impulse/internal/registry"
	"github.com/rs/zerolog/log"
)

// MaxUploadBytes limits the size of an uploaded file.
const MaxUploadBytes = 1 << 30

const uploadField = "file"

// Options configures the api.
type Options struct {
	DemoPath string
	MaxRows  int
	Seed     int64
	Debug    bool
}

// API serves the dataset, analysis and nudge routes.
type API struct {
	registry *registry.Registry
	memory   *provider.Memory
	nudges   *nudge.Service
	options  Options
}

// NewAPI creates the api over the given registry and dataset store.
func NewAPI(reg *registry.Registry, memory *provider.Memory, nudges *nudge.Service, opts Options) *API {
	return &API{
		registry: reg,
		memory:   memory,
		nudges:   nudges,
		options:  opts,
	}
}

// Routes lists all api routes.
func (a *API) Routes() []Route {
	return []Route{
		Live(),
		{Action: Api, Path: "upload", Method: POST, Exec: a.upload},
		{Action: Api, Path: "status", Method: GET, Exec: a.status},
		{Action: Api, Path: "retrain", Method: POST, Exec: a.retrain},
		{Action: Api, Path: "users", Method: GET, Exec: a.users},
		{Action: Api, Path: "analyze", Method: GET, Exec: a.analyze},
		{Action: Api, Path: "insights", Method: GET, Exec: a.insights},
		{Action: Api, Path: "model", Method: GET, Exec: a.model},
		{Action: Api, Path: "nudges", Method: POST, Exec: a.nudge},
	}
}

func (a *API) upload(r *http.Request) (interface{}, error) {
	opts := provider.Options{MaxRows: a.options.MaxRows}
	var txs []model.Transaction
	var err error
	if r.URL.Query().Get("demo") == "1" {
		if a.options.DemoPath == "" {
			return nil, fmt.Errorf("demo dataset path: %w", ErrNotConfigured)
		}
		txs, err = provider.LoadFile(a.options.DemoPath, opts)
	} else {
		var body io.ReadCloser
		body, err = uploadBody(r)
		if err != nil {
			return nil, err
		}
		defer body.Close()
		txs, err = provider.LoadCSV(body, opts)
	}
	if err != nil {
		return nil, err
	}

	d := a.memory.Add(txs)
	a.registry.Supersede(r.URL.Query().Get("replace"), d.ID)
	a.registry.Start(d.ID)
	return d, nil
}

// uploadBody returns the csv stream of a multipart form upload or of the raw body.
func uploadBody(r *http.Request) (io.ReadCloser, error) {
	r.Body = http.MaxBytesReader(nil, r.Body, MaxUploadBytes)
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType != "multipart/form-data" {
		return r.Body, nil
	}
	file, _, err := r.FormFile(uploadField)
	if err != nil {
		return nil, fmt.Errorf("no file provided: %v: %w", err, ErrValidation)
	}
	return file, nil
}

func (a *API) status(r *http.Request) (interface{}, error) {
	id, err := required(r, "dataset_id")
	if err != nil {
		return nil, err
	}
	return a.registry.Status(id)
}

func (a *API) retrain(r *http.Request) (interface{}, error) {
	id, err := required(r, "dataset_id")
	if err != nil {
		return nil, err
	}
	if _, err := a.registry.Status(id); err != nil {
		return nil, err
	}
	concurrent.Async(func() {
		if _, err := a.registry.Retrain(context.Background(), id); err != nil {
			log.Error().Err(err).Str("dataset", id).Msg("could not retrain dataset")
		}
	})
	return a.registry.Status(id)
}

func (a *API) users(r *http.Request) (interface{}, error) {
	id, err := required(r, "dataset_id")
	if err != nil {
		return nil, err
	}
	users, err := a.registry.Users(id)
	if err != nil {
		return nil, err
	}
	if s := r.URL.Query().Get("sample"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 1 {
			return nil, fmt.Errorf("sample must be a positive integer, got '%s': %w", s, ErrValidation)
		}
		users = pipeline.Sample(users, n, a.options.Seed)
	}
	return map[string]interface{}{"users": users}, nil
}

func (a *API) analyze(r *http.Request) (interface{}, error) {
	id, err := required(r, "dataset_id")
	if err != nil {
		return nil, err
	}
	cardID, err := required(r, "card_id")
	if err != nil {
		return nil, err
	}
	return a.registry.Analyze(id, cardID)
}

func (a *API) insights(r *http.Request) (interface{}, error) {
	id, err := required(r, "dataset_id")
	if err != nil {
		return nil, err
	}
	return a.registry.Insights(id)
}

func (a *API) model(r *http.Request) (interface{}, error) {
	id, err := required(r, "dataset_id")
	if err != nil {
		return nil, err
	}
	return a.registry.Model(id)
}

// nudgeRequest is an analysis result, optionally carrying the flat summary fields.
type nudgeRequest struct {
	model.AnalyzeResult
	ProfileLabel string             `json:"profile_label"`
	Metrics      map[string]float64 `json:"metrics"`
}

func (a *API) nudge(r *http.Request) (interface{}, error) {
	var request nudgeRequest
	if err := JsonRead(r, a.options.Debug, &request); err != nil {
		return nil, err
	}
	if request.Score < 0 || request.Score > 100 {
		return nil, fmt.Errorf("risk score out of range: %d: %w", request.Score, ErrValidation)
	}
	if request.Band == "" {
		request.Band = model.BandOf(request.Score)
	}

	summary := nudge.NewSummary(request.AnalyzeResult)
	if request.ProfileLabel != "" {
		summary.Profile = request.ProfileLabel
	}
	for k, v := range request.Metrics {
		summary.Metrics[k] = v
	}

	nudges, source := a.nudges.Nudges(r.Context(), summary)
	return map[string]interface{}{
		"nudges": nudges,
		"source": source,
	}, nil
}

func required(r *http.Request, key string) (string, error) {
	v := r.URL.Query().Get(key)
	if v == "" {
		return "", fmt.Errorf("%s is required: %w", key, ErrValidation)
	}
	return v, nil
}
