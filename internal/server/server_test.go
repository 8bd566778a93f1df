package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spigell/jd-tailor/internal/ai"
	"github.com/spigell/jd-tailor/internal/keywords"
	"github.com/spigell/jd-tailor/internal/metrics"
	"github.com/spigell/jd-tailor/internal/tailor"
)

var fakePDF = []byte("%PDF-1.4\n%fake document body\n%%EOF\n")

type stubExtractor struct {
	result keywords.TaxonomyResult
	jd     string
	calls  int
}

func (s *stubExtractor) ExtractTaxonomy(_ context.Context, jd string) keywords.TaxonomyResult {
	s.calls++
	s.jd = jd
	return s.result
}

type stubRewriter struct {
	result tailor.Result
	jd     string
	resume string
	target int
	calls  int
}

func (s *stubRewriter) Rewrite(_ context.Context, jd, resume string, target int) tailor.Result {
	s.calls++
	s.jd, s.resume, s.target = jd, resume, target
	return s.result
}

type fixture struct {
	handler   http.Handler
	extractor *stubExtractor
	rewriter  *stubRewriter
	metrics   *metrics.Metrics
	pdfPages  int
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	f := &fixture{
		extractor: &stubExtractor{result: keywords.TaxonomyResult{Taxonomy: &keywords.Taxonomy{
			Groups:  []keywords.Group{{"Product Manager", "Product Management"}, {"Agile"}},
			Exclude: []string{"No freshers"},
		}}},
		rewriter: &stubRewriter{result: tailor.Result{
			MatchScore:     82,
			RoleTitle:      "Product Manager",
			RoleType:       "Strategic",
			Level:          "Manager",
			Bullets:        []string{"Led agile delivery"},
			KeywordsUsed:   []string{"Agile"},
			KeywordsMissed: []string{},
		}},
		metrics: metrics.New(),
	}

	srv := New(Config{Addr: ":0", RateLimitPerMin: 1000}, f.extractor, f.rewriter, f.metrics, zap.NewNop(),
		WithTextExtractor(func(_ []byte, maxPages int) (string, error) {
			f.pdfPages = maxPages
			return "text from pdf", nil
		}),
	)
	f.handler = srv.Router()
	return f
}

func (f *fixture) do(t *testing.T, req *http.Request) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)
	return rec
}

func jsonRequest(t *testing.T, path string, body any) *http.Request {
	t.Helper()

	var buf bytes.Buffer
	switch b := body.(type) {
	case string:
		buf.WriteString(b)
	default:
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}

	req := httptest.NewRequest(http.MethodPost, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	return req
}

func multipartRequest(t *testing.T, path string, fields map[string]string, fileField string, file []byte) *http.Request {
	t.Helper()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	if fileField != "" {
		part, err := mw.CreateFormFile(fileField, "upload.pdf")
		require.NoError(t, err)
		_, err = part.Write(file)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, path, &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&out))
	return out
}

func TestHealthzAssignsRequestID(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	_, err := uuid.Parse(rec.Header().Get(requestIDHeader))
	assert.NoError(t, err, "expected a uuid request id")
}

func TestRequestIDIsPreserved(t *testing.T) {
	f := newFixture(t)

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set(requestIDHeader, "abc-123")

	rec := f.do(t, req)
	assert.Equal(t, "abc-123", rec.Header().Get(requestIDHeader))
}

func TestExtractJDText(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, jsonRequest(t, "/extract-jd-text", map[string]string{"text": "  We need a PM.  "}))
	require.Equal(t, http.StatusOK, rec.Code)

	body := decode[map[string]any](t, rec)
	assert.Equal(t, "We need a PM.", f.extractor.jd)
	assert.Len(t, body["groups"], 2)
	assert.Equal(t, []any{"No freshers"}, body["exclude"])
	assert.NotContains(t, body, "error")
}

func TestExtractJDTextRejectsMalformed(t *testing.T) {
	tests := []struct {
		name string
		body any
	}{
		{name: "blank text", body: map[string]string{"text": "   "}},
		{name: "missing text", body: map[string]string{}},
		{name: "invalid json", body: "{not json"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture(t)

			rec := f.do(t, jsonRequest(t, "/extract-jd-text", tc.body))
			require.Equal(t, http.StatusBadRequest, rec.Code)

			body := decode[map[string]any](t, rec)
			assert.NotEmpty(t, body["error"])
			assert.Zero(t, f.extractor.calls)
		})
	}
}

func TestExtractJDTextFailureIsData(t *testing.T) {
	f := newFixture(t)
	f.extractor.result = keywords.TaxonomyResult{
		Taxonomy: &keywords.Taxonomy{},
		Err:      ai.NewError(ai.KindMalformedJSON, "invalid JSON format from oracle", errors.New("unexpected token")),
	}

	rec := f.do(t, jsonRequest(t, "/extract-jd-text", map[string]string{"text": "jd"}))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t,
		`{"groups": [], "exclude": [], "error": "MalformedJson: invalid JSON format from oracle: unexpected token"}`,
		rec.Body.String(),
	)

	metricsRec := f.do(t, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Contains(t, metricsRec.Body.String(), `jd_tailor_pipeline_failures_total{kind="MalformedJson",pipeline="taxonomy"} 1`)
}

func TestExtractJDUpload(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, multipartRequest(t, "/extract-jd", nil, "file", fakePDF))
	require.Equal(t, http.StatusOK, rec.Code)

	assert.Equal(t, "text from pdf", f.extractor.jd)
	assert.Equal(t, 2, f.pdfPages)
}

func TestExtractJDUploadErrors(t *testing.T) {
	tests := []struct {
		name   string
		req    func(t *testing.T) *http.Request
		status int
	}{
		{
			name:   "not multipart",
			req:    func(t *testing.T) *http.Request { return jsonRequest(t, "/extract-jd", map[string]string{"text": "x"}) },
			status: http.StatusBadRequest,
		},
		{
			name:   "missing file",
			req:    func(t *testing.T) *http.Request { return multipartRequest(t, "/extract-jd", map[string]string{"a": "b"}, "", nil) },
			status: http.StatusBadRequest,
		},
		{
			name:   "not a pdf",
			req:    func(t *testing.T) *http.Request { return multipartRequest(t, "/extract-jd", nil, "file", []byte("plain text, not a pdf")) },
			status: http.StatusUnsupportedMediaType,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture(t)

			rec := f.do(t, tc.req(t))
			require.Equal(t, tc.status, rec.Code)
			assert.Zero(t, f.extractor.calls)
		})
	}
}

func TestExtractJDUploadUnreadablePDF(t *testing.T) {
	ext := &stubExtractor{}
	srv := New(Config{Addr: ":0"}, ext, &stubRewriter{}, nil, zap.NewNop(),
		WithTextExtractor(func([]byte, int) (string, error) { return "", errors.New("broken xref") }),
	)

	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, multipartRequest(t, "/extract-jd", nil, "file", fakePDF))

	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "broken xref")
	assert.Zero(t, ext.calls)
}

func TestGenerateBoolean(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, jsonRequest(t, "/generate-boolean", map[string]any{
		"groups":  [][]string{{"Product Manager", "Product Management"}, {"Agile"}},
		"exclude": []string{"No freshers"},
	}))
	require.Equal(t, http.StatusOK, rec.Code)

	body := decode[booleanResponse](t, rec)
	assert.Equal(t, `("Product Manager" OR "Product Management") AND ("Agile") AND NOT ("No freshers")`, body.BooleanQuery)
}

func TestGenerateBooleanEmpty(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, jsonRequest(t, "/generate-boolean", map[string]any{"groups": [][]string{}, "exclude": []string{}}))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"boolean_query": ""}`, rec.Body.String())
}

func TestGenerateBooleanValidation(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, jsonRequest(t, "/generate-boolean", map[string]any{
		"groups": [][]string{{strings.Repeat("x", 201)}},
	}))
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGeneratePointers(t *testing.T) {
	f := newFixture(t)

	req := multipartRequest(t, "/generate-pointers", map[string]string{
		"target_match": "60",
		"jd_text":      "We need an agile PM.",
	}, "resume", fakePDF)

	rec := f.do(t, req)
	require.Equal(t, http.StatusOK, rec.Code)

	assert.Equal(t, 1, f.rewriter.calls)
	assert.Equal(t, "We need an agile PM.", f.rewriter.jd)
	assert.Equal(t, "text from pdf", f.rewriter.resume)
	assert.Equal(t, 60, f.rewriter.target)

	body := decode[map[string]any](t, rec)
	assert.Equal(t, 82.0, body["match_score"])
	assert.Equal(t, []any{"Led agile delivery"}, body["updated_pointers"])
	assert.Equal(t, []any{"Agile"}, body["keywords_used"])
	assert.Equal(t, []any{}, body["keywords_missed"])
}

func TestGeneratePointersPassesOutOfRangeTarget(t *testing.T) {
	f := newFixture(t)

	req := multipartRequest(t, "/generate-pointers", map[string]string{"target_match": "-5"}, "resume", fakePDF)

	rec := f.do(t, req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, -5, f.rewriter.target)
	assert.Equal(t, "", f.rewriter.jd)
}

func TestGeneratePointersRejectsMalformed(t *testing.T) {
	tests := []struct {
		name   string
		fields map[string]string
		file   []byte
		status int
	}{
		{name: "missing target", fields: map[string]string{"jd_text": "jd"}, file: fakePDF, status: http.StatusBadRequest},
		{name: "non numeric target", fields: map[string]string{"target_match": "high"}, file: fakePDF, status: http.StatusBadRequest},
		{name: "fractional target", fields: map[string]string{"target_match": "60.5"}, file: fakePDF, status: http.StatusBadRequest},
		{name: "missing resume", fields: map[string]string{"target_match": "60"}, status: http.StatusBadRequest},
		{name: "non pdf resume", fields: map[string]string{"target_match": "60"}, file: []byte("just text"), status: http.StatusUnsupportedMediaType},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture(t)

			fileField := ""
			if tc.file != nil {
				fileField = "resume"
			}

			rec := f.do(t, multipartRequest(t, "/generate-pointers", tc.fields, fileField, tc.file))
			require.Equal(t, tc.status, rec.Code)
			assert.Zero(t, f.rewriter.calls)
		})
	}
}

func TestGeneratePointersFailureIsData(t *testing.T) {
	f := newFixture(t)
	f.rewriter.result = tailor.Result{
		Bullets:        []string{},
		KeywordsUsed:   []string{},
		KeywordsMissed: []string{},
		Error:          "OracleUnavailable: deadline exceeded",
		Kind:           ai.KindOracleUnavailable,
	}

	rec := f.do(t, multipartRequest(t, "/generate-pointers", map[string]string{"target_match": "80"}, "resume", fakePDF))
	require.Equal(t, http.StatusOK, rec.Code)

	body := decode[map[string]any](t, rec)
	assert.Equal(t, 0.0, body["match_score"])
	assert.Equal(t, "OracleUnavailable: deadline exceeded", body["error"])

	metricsRec := f.do(t, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	out, err := io.ReadAll(metricsRec.Body)
	require.NoError(t, err)
	assert.Contains(t, string(out), `jd_tailor_pipeline_failures_total{kind="OracleUnavailable",pipeline="rewrite"} 1`)
}

func TestParseOrigins(t *testing.T) {
	assert.Equal(t, []string{"*"}, parseOrigins(nil))
	assert.Equal(t, []string{"*"}, parseOrigins([]string{" ", ""}))
	assert.Equal(t, []string{"https://a.example", "https://b.example", "https://c.example"},
		parseOrigins([]string{"https://a.example, https://b.example", "https://c.example"}))
}
