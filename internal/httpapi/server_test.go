package httpapi

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pehel/mortgage-app/internal/catalog"
	"github.com/pehel/mortgage-app/internal/collaborators/simulated"
	"github.com/pehel/mortgage-app/internal/common/config"
	"github.com/pehel/mortgage-app/internal/common/logger"
	"github.com/pehel/mortgage-app/internal/decision"
	"github.com/pehel/mortgage-app/internal/intent"
	"github.com/pehel/mortgage-app/internal/loan"
	"github.com/pehel/mortgage-app/internal/workflow"
	"github.com/pehel/mortgage-app/pkg/registry"
)

func testServer(t *testing.T) *httptest.Server {
	t.Helper()
	log := logger.NewTestLogger(t)
	cat := catalog.New()

	extraction, err := simulated.NewExtractionService(0, log)
	require.NoError(t, err)

	deps := workflow.Deps{
		Catalog:    cat,
		Classifier: intent.NewClassifier(cat, log),
		Calculator: loan.NewCalculator(config.ProductsConfig{
			Rates:           map[string]float64{"green_loan": 3.8, "term_loan": 4.2},
			DefaultLoanRate: 5.5,
		}),
		Policy:            decision.NewHeuristicPolicy(0.70, func() float64 { return 0.0 }, log),
		Extraction:        extraction,
		Signatures:        simulated.NewSignatureService(0, nil, log),
		DecisionTimeout:   time.Second,
		ExtractionTimeout: time.Second,
		SignatureTimeout:  time.Second,
		Logger:            log,
	}

	srv := NewServer(deps, log).WithStepRegistry(&registry.StepRegistry{
		Version: "1.0.0",
		Steps:   []registry.Step{{ID: "chat", Index: -1, DisplayName: "Chat"}},
	})
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return ts
}

func post(t *testing.T, ts *httptest.Server, path string, body interface{}) (*http.Response, map[string]interface{}) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	} else {
		buf.WriteString("{}")
	}
	resp, err := http.Post(ts.URL+path, "application/json", &buf)
	require.NoError(t, err)
	defer resp.Body.Close()

	var decoded map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&decoded))
	return resp, decoded
}

func createSession(t *testing.T, ts *httptest.Server) string {
	t.Helper()
	resp, body := post(t, ts, "/sessions", nil)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	id, ok := body["sessionId"].(string)
	require.True(t, ok)
	return id
}

func TestHealthz(t *testing.T) {
	ts := testServer(t)
	resp, err := http.Get(ts.URL + "/healthz")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestProductsEndpoint(t *testing.T) {
	ts := testServer(t)

	resp, err := http.Get(ts.URL + "/products")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body struct {
		Products []catalog.Product `json:"products"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Len(t, body.Products, 5)
}

func TestStepsEndpoint(t *testing.T) {
	ts := testServer(t)

	resp, err := http.Get(ts.URL + "/steps")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var reg registry.StepRegistry
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&reg))
	assert.Equal(t, "1.0.0", reg.Version)
}

func TestSessionLifecycle(t *testing.T) {
	ts := testServer(t)
	id := createSession(t, ts)

	resp, body := post(t, ts, "/sessions/"+id+"/classify", map[string]string{
		"message": "I need a personal loan quickly",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "personal_loan", body["rule"])

	resp, body = post(t, ts, "/sessions/"+id+"/product", map[string]string{
		"productId": "personal_loan",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "applicant_details", body["stepName"])
}

func TestUnknownSession(t *testing.T) {
	ts := testServer(t)

	resp, _ := post(t, ts, "/sessions/nope/browse", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestValidationErrorMapsTo422(t *testing.T) {
	ts := testServer(t)
	id := createSession(t, ts)

	resp, body := post(t, ts, "/sessions/"+id+"/product", map[string]string{
		"productId": "mortgage",
	})
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)

	errBody, ok := body["error"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "VALIDATION_ERROR", errBody["kind"])
	assert.Equal(t, "UNKNOWN_PRODUCT", errBody["code"])
}

func TestSequenceErrorMapsTo409(t *testing.T) {
	ts := testServer(t)
	id := createSession(t, ts)

	resp, body := post(t, ts, "/sessions/"+id+"/review", nil)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	errBody, ok := body["error"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "SEQUENCE_ERROR", errBody["kind"])
}

func TestMalformedBody(t *testing.T) {
	ts := testServer(t)
	id := createSession(t, ts)

	resp, err := http.Post(ts.URL+"/sessions/"+id+"/product", "application/json",
		bytes.NewBufferString("{not json"))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestSessionsAreIndependent(t *testing.T) {
	ts := testServer(t)
	first := createSession(t, ts)
	second := createSession(t, ts)
	require.NotEqual(t, first, second)

	resp, _ := post(t, ts, fmt.Sprintf("/sessions/%s/product", first), map[string]string{
		"productId": "personal_loan",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	// The second session is still at chat.
	getResp, err := http.Get(ts.URL + "/sessions/" + second)
	require.NoError(t, err)
	defer getResp.Body.Close()
	var snap map[string]interface{}
	require.NoError(t, json.NewDecoder(getResp.Body).Decode(&snap))
	assert.Equal(t, "chat", snap["stepName"])
}
