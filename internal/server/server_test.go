package server

import (
	"bytes"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/drakos74/impulse/internal/model"
	"github.com/drakos74/impulse/internal/nudge"
	"github.com/drakos74/impulse/internal/pipeline"
	"github.com/drakos74/impulse/internal/provider"
	"github.com/drakos74/impulse/internal/registry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type response struct {
	Data  json.RawMessage `json:"data"`
	Error *ErrorBody      `json:"error"`
}

type fixture struct {
	registry *registry.Registry
	memory   *provider.Memory
	handler  http.Handler
}

func newFixture(t *testing.T, opts Options) *fixture {
	memory := provider.NewMemory()
	opts.Seed = 42
	reg := registry.New(memory, pipeline.DefaultOptions(), nil)
	api := NewAPI(reg, memory, nudge.NewService(nil, time.Second), opts)
	srv := NewServer("test", 0).Add(api.Routes()...)
	return &fixture{
		registry: reg,
		memory:   memory,
		handler:  srv.Mux(),
	}
}

func (f *fixture) do(t *testing.T, method, target string, body []byte, contentType string) (int, response) {
	req := httptest.NewRequest(method, target, bytes.NewReader(body))
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)
	var resp response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp), rec.Body.String())
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	return rec.Code, resp
}

// transactions renders a csv with a steady, an end-of-month and a late-night user.
func transactions() []byte {
	var b strings.Builder
	b.WriteString("authorized_flag,card_id,purchase_date,purchase_amount,category_1,category_2,category_3\n")
	for d := 0; d < 40; d++ {
		day := time.Date(2023, time.January, 1, 12, 0, 0, 0, time.UTC).AddDate(0, 0, d)
		b.WriteString(fmt.Sprintf("Y,C_steady,%s,%.2f,N,1,%c\n", day.Format("2006-01-02 15:04:05"), 20+float64(d%3), 'A'+rune(d%4)))
	}
	for _, m := range []time.Month{time.January, time.February, time.March} {
		for d := 24; d <= 28; d++ {
			b.WriteString(fmt.Sprintf("Y,C_eom,2023-%02d-%02d 09:00:00,60,Y,2,A\n", m, d))
		}
	}
	for d := 1; d <= 10; d++ {
		for m := 0; m < 3; m++ {
			b.WriteString(fmt.Sprintf("Y,C_night,2023-01-%02d 23:%02d:00,15,N,3,Z\n", d, 10*m))
		}
	}
	b.WriteString("Y,C_steady,not-a-date,10,N,1,A\n")
	return []byte(b.String())
}

func (f *fixture) upload(t *testing.T, target string) provider.Dataset {
	code, resp := f.do(t, http.MethodPost, target, transactions(), "text/csv")
	require.Equal(t, http.StatusOK, code)
	var d provider.Dataset
	require.NoError(t, json.Unmarshal(resp.Data, &d))
	assert.Eventually(t, func() bool {
		status, err := f.registry.Status(d.ID)
		return err == nil && status.Status == model.Ready
	}, 10*time.Second, 10*time.Millisecond)
	return d
}

func TestServer_Health(t *testing.T) {
	f := newFixture(t, Options{})
	code, resp := f.do(t, http.MethodGet, "/api/health", nil, "")
	assert.Equal(t, http.StatusOK, code)
	assert.JSONEq(t, `{"status":"ok"}`, string(resp.Data))
}

func TestServer_Flow(t *testing.T) {
	f := newFixture(t, Options{})
	d := f.upload(t, "/api/upload")

	assert.Equal(t, 3, d.Users)
	assert.Equal(t, 40+15+30, d.Rows)
	assert.Equal(t, "2023-01-01", d.Range.From)

	code, resp := f.do(t, http.MethodGet, "/api/status?dataset_id="+d.ID, nil, "")
	assert.Equal(t, http.StatusOK, code)
	var status model.TrainingStatus
	require.NoError(t, json.Unmarshal(resp.Data, &status))
	assert.Equal(t, model.Ready, status.Status)

	code, resp = f.do(t, http.MethodGet, "/api/users?dataset_id="+d.ID, nil, "")
	assert.Equal(t, http.StatusOK, code)
	var users struct {
		Users []model.User `json:"users"`
	}
	require.NoError(t, json.Unmarshal(resp.Data, &users))
	require.Len(t, users.Users, 3)
	assert.Equal(t, "C_eom", users.Users[0].CardID)

	code, resp = f.do(t, http.MethodGet, "/api/users?sample=2&dataset_id="+d.ID, nil, "")
	assert.Equal(t, http.StatusOK, code)
	require.NoError(t, json.Unmarshal(resp.Data, &users))
	assert.Len(t, users.Users, 2)

	code, resp = f.do(t, http.MethodGet, "/api/analyze?card_id=C_night&dataset_id="+d.ID, nil, "")
	assert.Equal(t, http.StatusOK, code)
	var result model.AnalyzeResult
	require.NoError(t, json.Unmarshal(resp.Data, &result))
	assert.Equal(t, "C_night", result.CardID)
	assert.Equal(t, model.BandOf(result.Score), result.Band)
	assert.Len(t, result.ChartSeries.Hourly, 24)

	code, resp = f.do(t, http.MethodGet, "/api/insights?dataset_id="+d.ID, nil, "")
	assert.Equal(t, http.StatusOK, code)
	var insights model.Insights
	require.NoError(t, json.Unmarshal(resp.Data, &insights))
	assert.Equal(t, 3, insights.Users)
	assert.Len(t, insights.BandCounts, 4)

	code, resp = f.do(t, http.MethodGet, "/api/model?dataset_id="+d.ID, nil, "")
	assert.Equal(t, http.StatusOK, code)
	var snapshot pipeline.Snapshot
	require.NoError(t, json.Unmarshal(resp.Data, &snapshot))
	assert.Equal(t, d.ID, snapshot.DatasetID)

	code, _ = f.do(t, http.MethodPost, "/api/retrain?dataset_id="+d.ID, nil, "")
	assert.Equal(t, http.StatusOK, code)
}

func TestServer_Replace(t *testing.T) {
	f := newFixture(t, Options{})
	old := f.upload(t, "/api/upload")
	d := f.upload(t, "/api/upload?replace="+old.ID)

	code, resp := f.do(t, http.MethodGet, "/api/status?dataset_id="+old.ID, nil, "")
	assert.Equal(t, http.StatusNotFound, code)
	assert.Equal(t, NotFound, resp.Error.Code)

	code, _ = f.do(t, http.MethodGet, "/api/status?dataset_id="+d.ID, nil, "")
	assert.Equal(t, http.StatusOK, code)
}

func TestServer_Multipart(t *testing.T) {
	f := newFixture(t, Options{})

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile(uploadField, "transactions.csv")
	require.NoError(t, err)
	_, err = part.Write(transactions())
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	code, resp := f.do(t, http.MethodPost, "/api/upload", body.Bytes(), writer.FormDataContentType())
	require.Equal(t, http.StatusOK, code)
	var d provider.Dataset
	require.NoError(t, json.Unmarshal(resp.Data, &d))
	assert.Equal(t, 3, d.Users)
}

func TestServer_Demo(t *testing.T) {
	path := filepath.Join(t.TempDir(), "demo.csv")
	require.NoError(t, os.WriteFile(path, transactions(), 0o644))

	f := newFixture(t, Options{DemoPath: path})
	code, resp := f.do(t, http.MethodPost, "/api/upload?demo=1", nil, "")
	require.Equal(t, http.StatusOK, code)
	var d provider.Dataset
	require.NoError(t, json.Unmarshal(resp.Data, &d))
	assert.Equal(t, 3, d.Users)

	f = newFixture(t, Options{DemoPath: filepath.Join(t.TempDir(), "missing.csv")})
	code, resp = f.do(t, http.MethodPost, "/api/upload?demo=1", nil, "")
	assert.Equal(t, http.StatusNotFound, code)
	assert.Equal(t, NotFound, resp.Error.Code)
}

func TestServer_Errors(t *testing.T) {
	type test struct {
		method string
		target string
		body   string
		status int
		code   Code
	}

	tests := map[string]test{
		"missing-dataset-id": {
			method: http.MethodGet,
			target: "/api/users",
			status: http.StatusBadRequest,
			code:   ValidationError,
		},
		"missing-card-id": {
			method: http.MethodGet,
			target: "/api/analyze?dataset_id=pending",
			status: http.StatusBadRequest,
			code:   ValidationError,
		},
		"unknown-dataset": {
			method: http.MethodGet,
			target: "/api/insights?dataset_id=unknown",
			status: http.StatusNotFound,
			code:   NotFound,
		},
		"not-ready": {
			method: http.MethodGet,
			target: "/api/analyze?dataset_id=pending&card_id=C_1",
			status: http.StatusConflict,
			code:   NotReady,
		},
		"not-ready-users": {
			method: http.MethodGet,
			target: "/api/users?dataset_id=pending",
			status: http.StatusConflict,
			code:   NotReady,
		},
		"wrong-method": {
			method: http.MethodGet,
			target: "/api/upload",
			status: http.StatusMethodNotAllowed,
			code:   ValidationError,
		},
		"unknown-route": {
			method: http.MethodGet,
			target: "/api/unknown",
			status: http.StatusNotFound,
			code:   NotFound,
		},
		"missing-column": {
			method: http.MethodPost,
			target: "/api/upload",
			body:   "card_id,purchase_amount\nC_1,10\n",
			status: http.StatusBadRequest,
			code:   ValidationError,
		},
		"demo-not-configured": {
			method: http.MethodPost,
			target: "/api/upload?demo=1",
			status: http.StatusInternalServerError,
			code:   ServerError,
		},
		"bad-nudge-body": {
			method: http.MethodPost,
			target: "/api/nudges",
			body:   "{",
			status: http.StatusBadRequest,
			code:   ValidationError,
		},
		"nudge-score-out-of-range": {
			method: http.MethodPost,
			target: "/api/nudges",
			body:   `{"risk_score": 120}`,
			status: http.StatusBadRequest,
			code:   ValidationError,
		},
		"nudge-body-too-large": {
			method: http.MethodPost,
			target: "/api/nudges",
			body:   `{"card_id":"` + strings.Repeat("x", MaxBodyBytes) + `"}`,
			status: http.StatusBadRequest,
			code:   ValidationError,
		},
		"sample-on-unknown-dataset": {
			method: http.MethodGet,
			target: "/api/users?dataset_id=unknown&sample=x",
			status: http.StatusNotFound,
			code:   NotFound,
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			f := newFixture(t, Options{})
			f.registry.Register("pending")
			code, resp := f.do(t, tt.method, tt.target, []byte(tt.body), "")
			assert.Equal(t, tt.status, code)
			require.NotNil(t, resp.Error)
			assert.Equal(t, tt.code, resp.Error.Code)
			assert.NotEmpty(t, resp.Error.Message)
		})
	}
}

func TestServer_Nudges(t *testing.T) {
	type test struct {
		body   string
		titles []string
	}

	tests := map[string]test{
		"analysis": {
			body: `{"card_id":"C_1","risk_score":80,"risk_band":"Critical","top_drivers":["Burst buying","Timing triggers"],
				"score_breakdown":{"spike":0.1,"burst":0.9,"eom":0,"timing":0.8,"category":0.2},
				"profile":{"cluster_id":1,"profile_label":"Late-night / burst spender"}}`,
			titles: []string{"Cooldown after bursts", "Sleep-mode spending", "Review spending patterns"},
		},
		"summary": {
			body:   `{"risk_score":30,"risk_band":"Medium","profile_label":"Payday splurger","top_drivers":["End-of-month surge"],"metrics":{"eom":0.9}}`,
			titles: []string{"End-of-month cap"},
		},
		"empty": {
			body:   `{}`,
			titles: []string{"Stay aware"},
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			f := newFixture(t, Options{})
			code, resp := f.do(t, http.MethodPost, "/api/nudges", []byte(tt.body), "application/json")
			require.Equal(t, http.StatusOK, code)
			var out struct {
				Nudges []model.Nudge `json:"nudges"`
				Source nudge.Source  `json:"source"`
			}
			require.NoError(t, json.Unmarshal(resp.Data, &out))
			assert.Equal(t, nudge.Rules, out.Source)
			titles := make([]string, len(out.Nudges))
			for i, n := range out.Nudges {
				titles[i] = n.Title
				assert.True(t, n.Valid())
			}
			assert.Equal(t, tt.titles, titles)
		})
	}
}
