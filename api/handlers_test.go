package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gcbaptista/go-mrc-prep/config"
	"github.com/gcbaptista/go-mrc-prep/internal/dataset"
	"github.com/gcbaptista/go-mrc-prep/internal/engine"
	"github.com/gcbaptista/go-mrc-prep/internal/spansearch"
	"github.com/gcbaptista/go-mrc-prep/model"
	"github.com/gcbaptista/go-mrc-prep/services"
)

func setupTestRouter(t *testing.T) (*gin.Engine, *API) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	eng := engine.NewEngine(t.TempDir())
	t.Cleanup(eng.GetJobManager().Stop)

	router := gin.New()
	router.Use(RequestIDMiddleware(), MetricsMiddleware())
	apiHandler := SetupRoutes(router, eng,
		WithPipelineDefaults(config.PipelineConfig{Workers: 2}),
		WithJobsRoot(t.TempDir()))
	return router, apiHandler
}

func performRequest(router *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decodeBody[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

func waitForJob(t *testing.T, api *API, jobID string) *model.Job {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	job, err := api.jobs.WaitForJob(ctx, jobID)
	require.NoError(t, err)
	return job
}

func TestHealthCheckHandler(t *testing.T) {
	router, _ := setupTestRouter(t)

	w := performRequest(router, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok","indexes":0}`, w.Body.String())
}

func TestFakeAnswerHandler(t *testing.T) {
	router, _ := setupTestRouter(t)
	body := `{"question_id": 7, "documents": [{"is_selected": true, "segmented_paragraphs": [["the", "cat", "sat"]]}], "segmented_answers": [["cat", "sat"]]}`

	w := performRequest(router, http.MethodPost, "/samples/fake-answer", body)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	resp := decodeBody[struct {
		Sample map[string]json.RawMessage `json:"sample"`
		Result FakeAnswerResult           `json:"result"`
	}](t, w)
	assert.True(t, resp.Result.Found)
	assert.Equal(t, []string{"catsat"}, resp.Result.FakeAnswers)
	assert.Equal(t, []model.Span{{1, 2}}, resp.Result.AnswerSpans)
	assert.Equal(t, []int{0}, resp.Result.MostRelatedParas)
	assert.JSONEq(t, `7`, string(resp.Sample["question_id"]))
	assert.JSONEq(t, `["catsat"]`, string(resp.Sample["fake_answers"]))
}

func TestFakeAnswerHandlerKeepsMarkupUnescaped(t *testing.T) {
	router, _ := setupTestRouter(t)
	body := `{"question_id": 8, "documents": [{"is_selected": true, "segmented_paragraphs": [["x", "<b>", "&", "y"]]}], "segmented_answers": [["<b>", "&"]], "note": "a<b"}`

	w := performRequest(router, http.MethodPost, "/samples/fake-answer", body)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "application/json; charset=utf-8", w.Header().Get("Content-Type"))

	out := w.Body.String()
	assert.Contains(t, out, `"fake_answers":["<b>&"]`)
	assert.Contains(t, out, `"a<b"`)
	assert.NotContains(t, out, `\u003c`)
	assert.NotContains(t, out, `\u0026`)

	var annotated bytes.Buffer
	writer := dataset.NewWriter(&annotated)
	var sample model.Sample
	require.NoError(t, json.Unmarshal([]byte(body), &sample))
	spansearch.FindFakeAnswer(&sample).Apply(&sample)
	require.NoError(t, writer.Write(&sample))
	require.NoError(t, writer.Close())

	resp := decodeBody[struct {
		Sample json.RawMessage `json:"sample"`
	}](t, w)
	assert.JSONEq(t, annotated.String(), string(resp.Sample))
}

func TestFakeAnswerHandlerInvalidJSON(t *testing.T) {
	router, _ := setupTestRouter(t)

	w := performRequest(router, http.MethodPost, "/samples/fake-answer", `{"documents": `)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	apiErr := decodeBody[APIError](t, w)
	assert.Equal(t, ErrorCodeInvalidJSON, apiErr.Code)
	assert.NotEmpty(t, apiErr.RequestID)
}

func TestBestMatchHandler(t *testing.T) {
	router, _ := setupTestRouter(t)

	tests := []struct {
		name      string
		body      string
		wantIndex int
		wantScore float64
	}{
		{
			name:      "question tokens",
			body:      `{"paragraphs": [["a", "b", "c"], ["北京", "是", "首都"]], "question": ["北京", "首都"]}`,
			wantIndex: 1,
			wantScore: 1,
		},
		{
			name:      "raw question text is segmented",
			body:      `{"paragraphs": [["北京", "是", "首都"], ["a", "b"]], "question_text": "a b"}`,
			wantIndex: 1,
			wantScore: 1,
		},
		{
			name:      "no overlap keeps the first paragraph",
			body:      `{"paragraphs": [["x"], ["y"]], "question": ["z"]}`,
			wantIndex: 0,
			wantScore: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := performRequest(router, http.MethodPost, "/paragraphs/best-match", tt.body)
			require.Equal(t, http.StatusOK, w.Code, w.Body.String())
			resp := decodeBody[struct {
				Index int     `json:"index"`
				Score float64 `json:"score"`
			}](t, w)
			assert.Equal(t, tt.wantIndex, resp.Index)
			assert.InDelta(t, tt.wantScore, resp.Score, 1e-9)
		})
	}
}

func TestBestMatchHandlerValidation(t *testing.T) {
	router, _ := setupTestRouter(t)

	w := performRequest(router, http.MethodPost, "/paragraphs/best-match", `{"paragraphs": []}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	apiErr := decodeBody[APIError](t, w)
	assert.Equal(t, ErrorCodeValidationFailed, apiErr.Code)
	assert.Len(t, apiErr.Details, 2)
}

func TestScoresHandler(t *testing.T) {
	router, _ := setupTestRouter(t)

	w := performRequest(router, http.MethodPost, "/scores",
		`{"prediction": ["a", "b"], "ground_truths": [["a", "c"], ["a", "b", "c"]]}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	resp := decodeBody[ScoreResponse](t, w)
	assert.Equal(t, 1, resp.BestIndex)
	assert.InDelta(t, 1.0, resp.Precision, 1e-9)
	assert.InDelta(t, 2.0/3.0, resp.Recall, 1e-9)
	assert.InDelta(t, 0.8, resp.F1, 1e-9)
	assert.InDelta(t, 0.8, resp.MaxF1, 1e-9)
	assert.InDelta(t, 2.0/3.0, resp.MaxRecall, 1e-9)
}

func TestScoresHandlerRequiresGroundTruths(t *testing.T) {
	router, _ := setupTestRouter(t)

	w := performRequest(router, http.MethodPost, "/scores", `{"prediction": ["a"], "ground_truths": []}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	apiErr := decodeBody[APIError](t, w)
	require.Len(t, apiErr.Details, 1)
	assert.Equal(t, "ground_truths", apiErr.Details[0].Field)
}

func TestIndexLifecycle(t *testing.T) {
	router, api := setupTestRouter(t)

	w := performRequest(router, http.MethodPost, "/indexes", `{"name": "dureader"}`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = performRequest(router, http.MethodPut, "/indexes/dureader/paragraphs",
		`[{"id": 0, "paragraph": "北京 是 中国 的 首都"}, {"id": 1, "paragraph": "北京 北京 天安门"}, {"id": 2, "paragraph": "上海 是 城市"}]`)
	require.Equal(t, http.StatusAccepted, w.Code, w.Body.String())
	accepted := decodeBody[struct {
		JobID          string `json:"job_id"`
		ParagraphCount int    `json:"paragraph_count"`
	}](t, w)
	assert.Equal(t, 3, accepted.ParagraphCount)

	job := waitForJob(t, api, accepted.JobID)
	require.Equal(t, model.JobStatusCompleted, job.Status, job.Error)
	assert.Equal(t, "dureader", job.Target)

	w = performRequest(router, http.MethodPost, "/indexes/dureader/_search", `{"query": "北京", "limit": 1}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	result := decodeBody[services.SearchResult](t, w)
	assert.Equal(t, 2, result.Total)
	require.Len(t, result.Hits, 1)
	assert.Equal(t, 1, result.Hits[0].ParagraphID)
	assert.Equal(t, []string{"北京"}, result.Hits[0].MatchedTerms)

	w = performRequest(router, http.MethodGet, "/indexes/dureader", "")
	require.Equal(t, http.StatusOK, w.Code)
	details := decodeBody[struct {
		Settings config.IndexSettings `json:"settings"`
		Stats    services.IndexStats  `json:"stats"`
	}](t, w)
	assert.Equal(t, config.SimilarityLMJelinekMercer, details.Settings.Similarity.Type)
	assert.Equal(t, 3, details.Stats.Paragraphs)

	w = performRequest(router, http.MethodGet, "/jobs?target=dureader", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), accepted.JobID)

	w = performRequest(router, http.MethodDelete, "/indexes/dureader", "")
	assert.Equal(t, http.StatusOK, w.Code)
	w = performRequest(router, http.MethodPost, "/indexes/dureader/_search", `{"query": "北京"}`)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func loadTestIndex(t *testing.T, router *gin.Engine, api *API, name string) {
	t.Helper()
	w := performRequest(router, http.MethodPost, "/indexes", `{"name": "`+name+`"}`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	w = performRequest(router, http.MethodPut, "/indexes/"+name+"/paragraphs",
		`[{"id": 0, "paragraph": "北京 是 中国 的 首都"}, {"id": 1, "paragraph": "北京 北京 天安门"}, {"id": 2, "paragraph": "上海 是 城市"}]`)
	require.Equal(t, http.StatusAccepted, w.Code, w.Body.String())
	jobID := decodeBody[struct {
		JobID string `json:"job_id"`
	}](t, w).JobID
	job := waitForJob(t, api, jobID)
	require.Equal(t, model.JobStatusCompleted, job.Status, job.Error)
}

func TestUpdateIndexSettingsHandler(t *testing.T) {
	router, api := setupTestRouter(t)
	loadTestIndex(t, router, api, "dureader")

	w := performRequest(router, http.MethodPatch, "/indexes/dureader/settings", `{"similarity": {"type": "BM25"}}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	updated := decodeBody[struct {
		Settings config.IndexSettings `json:"settings"`
	}](t, w)
	assert.Equal(t, config.SimilarityBM25, updated.Settings.Similarity.Type)
	assert.Equal(t, "dureader", updated.Settings.Name)

	w = performRequest(router, http.MethodPost, "/indexes/dureader/_search", `{"query": "北京"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 2, decodeBody[services.SearchResult](t, w).Total)

	w = performRequest(router, http.MethodPatch, "/indexes/dureader/settings", `{"name": "other"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	w = performRequest(router, http.MethodPatch, "/indexes/missing/settings", `{}`)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestDeleteParagraphHandlers(t *testing.T) {
	router, api := setupTestRouter(t)
	loadTestIndex(t, router, api, "dureader")

	w := performRequest(router, http.MethodDelete, "/indexes/dureader/paragraphs/1", "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = performRequest(router, http.MethodPost, "/indexes/dureader/_search", `{"query": "北京"}`)
	require.Equal(t, http.StatusOK, w.Code)
	result := decodeBody[services.SearchResult](t, w)
	require.Len(t, result.Hits, 1)
	assert.Equal(t, 0, result.Hits[0].ParagraphID)

	w = performRequest(router, http.MethodDelete, "/indexes/dureader/paragraphs/1", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, ErrorCodeParagraphNotFound, decodeBody[APIError](t, w).Code)
	w = performRequest(router, http.MethodDelete, "/indexes/dureader/paragraphs/abc", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	w = performRequest(router, http.MethodDelete, "/indexes/missing/paragraphs/0", "")
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = performRequest(router, http.MethodDelete, "/indexes/dureader/paragraphs", "")
	require.Equal(t, http.StatusOK, w.Code)
	w = performRequest(router, http.MethodGet, "/indexes/dureader", "")
	require.Equal(t, http.StatusOK, w.Code)
	details := decodeBody[struct {
		Stats services.IndexStats `json:"stats"`
	}](t, w)
	assert.Zero(t, details.Stats.Paragraphs)
}

func TestAddParagraphsAcceptsCorpusForm(t *testing.T) {
	router, api := setupTestRouter(t)
	require.Equal(t, http.StatusCreated, performRequest(router, http.MethodPost, "/indexes", `{"name": "corpus"}`).Code)

	w := performRequest(router, http.MethodPut, "/indexes/corpus/paragraphs",
		`{"1": {"paragraph": "长城 在 北京"}, "0": {"paragraph": "西湖 在 杭州"}}`)
	require.Equal(t, http.StatusAccepted, w.Code, w.Body.String())
	accepted := decodeBody[struct {
		JobID string `json:"job_id"`
	}](t, w)
	require.Equal(t, model.JobStatusCompleted, waitForJob(t, api, accepted.JobID).Status)

	w = performRequest(router, http.MethodPost, "/indexes/corpus/_search", `{"tokens": ["杭州"]}`)
	require.Equal(t, http.StatusOK, w.Code)
	result := decodeBody[services.SearchResult](t, w)
	require.Len(t, result.Hits, 1)
	assert.Equal(t, 0, result.Hits[0].ParagraphID)
}

func TestAddParagraphsValidation(t *testing.T) {
	router, _ := setupTestRouter(t)
	require.Equal(t, http.StatusCreated, performRequest(router, http.MethodPost, "/indexes", `{"name": "v"}`).Code)

	tests := []struct {
		name     string
		path     string
		body     string
		wantCode int
	}{
		{"unknown index", "/indexes/missing/paragraphs", `[{"id": 0, "paragraph": "a"}]`, http.StatusNotFound},
		{"malformed body", "/indexes/v/paragraphs", `[{"id": "x"}]`, http.StatusBadRequest},
		{"duplicate ids", "/indexes/v/paragraphs", `[{"id": 0, "paragraph": "a"}, {"id": 0, "paragraph": "b"}]`, http.StatusBadRequest},
		{"negative id", "/indexes/v/paragraphs", `[{"id": -1, "paragraph": "a"}]`, http.StatusBadRequest},
		{"empty list", "/indexes/v/paragraphs", `[]`, http.StatusBadRequest},
		{"non integer key", "/indexes/v/paragraphs", `{"a": {"paragraph": "x"}}`, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := performRequest(router, http.MethodPut, tt.path, tt.body)
			assert.Equal(t, tt.wantCode, w.Code, w.Body.String())
		})
	}
}

func TestCreateIndexHandlerValidation(t *testing.T) {
	router, _ := setupTestRouter(t)

	tests := []struct {
		name string
		body string
	}{
		{"invalid JSON", `"invalid json"`},
		{"missing name", `{"similarity": {"type": "BM25"}}`},
		{"lambda out of range", `{"name": "x", "similarity": {"type": "LMJelinekMercer", "lambda": 2}}`},
		{"unknown similarity", `{"name": "x", "similarity": {"type": "TFIDF"}}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := performRequest(router, http.MethodPost, "/indexes", tt.body)
			assert.Equal(t, http.StatusBadRequest, w.Code, w.Body.String())
		})
	}
}

func TestSearchHandlerNegativeLimit(t *testing.T) {
	router, _ := setupTestRouter(t)
	require.Equal(t, http.StatusCreated, performRequest(router, http.MethodPost, "/indexes", `{"name": "s"}`).Code)

	w := performRequest(router, http.MethodPost, "/indexes/s/_search", `{"query": "a", "limit": -1}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestJobHandlers(t *testing.T) {
	router, _ := setupTestRouter(t)

	w := performRequest(router, http.MethodGet, "/jobs/does-not-exist", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, ErrorCodeJobNotFound, decodeBody[APIError](t, w).Code)

	w = performRequest(router, http.MethodGet, "/jobs/metrics", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"success_rate"`)
}

func TestFakeAnswersJob(t *testing.T) {
	router, api := setupTestRouter(t)
	input := filepath.Join(api.jobsRoot, "train.json")
	output := filepath.Join(api.jobsRoot, "annotated", "train.fake.json")

	w, err := dataset.Create(input)
	require.NoError(t, err)
	require.NoError(t, w.Write(json.RawMessage(`{"question_id": 1, "documents": [{"is_selected": true, "segmented_paragraphs": [["the", "cat", "sat"]]}], "segmented_answers": [["cat"]]}`)))
	require.NoError(t, w.Write(json.RawMessage(`{"question_id": 2, "documents": [{"is_selected": true, "segmented_paragraphs": [["no", "match"]]}], "segmented_answers": [["cat"]]}`)))
	require.NoError(t, w.Close())

	resp := performRequest(router, http.MethodPost, "/jobs/fake-answers",
		`{"input": "train.json", "output": "annotated/train.fake.json"}`)
	require.Equal(t, http.StatusAccepted, resp.Code, resp.Body.String())
	jobID := decodeBody[struct {
		JobID string `json:"job_id"`
	}](t, resp).JobID

	job := waitForJob(t, api, jobID)
	require.Equal(t, model.JobStatusCompleted, job.Status, job.Error)
	assert.Equal(t, model.JobTypeFakeAnswers, job.Type)
	assert.Equal(t, input, job.Target)
	assert.Equal(t, output, job.Metadata["output"])
	require.NotNil(t, job.Progress)
	assert.Equal(t, 2, job.Progress.Current)

	r, err := dataset.Open(output)
	require.NoError(t, err)
	defer r.Close()
	sample, err := r.Next()
	require.NoError(t, err)
	assert.Equal(t, "1", sample.QuestionID())
	assert.Equal(t, []string{"cat"}, sample.FakeAnswers)
}

func TestFakeAnswersJobValidation(t *testing.T) {
	router, _ := setupTestRouter(t)

	w := performRequest(router, http.MethodPost, "/jobs/fake-answers", `{"input": "a.json", "output": "a.json"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	w = performRequest(router, http.MethodPost, "/jobs/fake-answers", `{}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Len(t, decodeBody[APIError](t, w).Details, 2)
}

func TestFakeAnswersJobMissingInputFails(t *testing.T) {
	router, api := setupTestRouter(t)

	resp := performRequest(router, http.MethodPost, "/jobs/fake-answers", `{"input": "missing.json", "output": "out.json"}`)
	require.Equal(t, http.StatusAccepted, resp.Code)
	jobID := decodeBody[struct {
		JobID string `json:"job_id"`
	}](t, resp).JobID

	job := waitForJob(t, api, jobID)
	assert.Equal(t, model.JobStatusFailed, job.Status)
	assert.NotEmpty(t, job.Error)
}

func writeJobDataset(t *testing.T, dir string) string {
	t.Helper()
	input := filepath.Join(dir, "dev.json.gz")
	w, err := dataset.Create(input)
	require.NoError(t, err)
	require.NoError(t, w.Write(json.RawMessage(`{"question_id": 1, "documents": [{"is_selected": true, "segmented_paragraphs": [["北京", "是", "中国", "的", "首都"], ["北京", "北京", "天安门"]]}], "segmented_answers": [["首都"]]}`)))
	require.NoError(t, w.Write(json.RawMessage(`{"question_id": 2, "documents": [{"is_selected": false, "segmented_paragraphs": [["上海", "是", "城市"]]}], "segmented_answers": []}`)))
	require.NoError(t, w.Close())
	return input
}

func startJob(t *testing.T, router *gin.Engine, path, body string) string {
	t.Helper()
	resp := performRequest(router, http.MethodPost, path, body)
	require.Equal(t, http.StatusAccepted, resp.Code, resp.Body.String())
	return decodeBody[struct {
		JobID string `json:"job_id"`
	}](t, resp).JobID
}

func TestExportCorpusJob(t *testing.T) {
	router, api := setupTestRouter(t)
	dir := api.jobsRoot
	input := writeJobDataset(t, dir)
	output := filepath.Join(dir, "corpus.json")

	jobID := startJob(t, router, "/jobs/export-corpus",
		`{"input": "`+filepath.ToSlash(input)+`", "output": "`+filepath.ToSlash(output)+`"}`)

	job := waitForJob(t, api, jobID)
	require.Equal(t, model.JobStatusCompleted, job.Status, job.Error)
	assert.Equal(t, model.JobTypeExportCorpus, job.Type)
	assert.Equal(t, "json", job.Metadata["format"])
	require.NotNil(t, job.Progress)
	assert.Equal(t, 3, job.Progress.Total)

	raw, err := os.ReadFile(output)
	require.NoError(t, err)
	var byID map[string]map[string]string
	require.NoError(t, json.Unmarshal(raw, &byID))
	assert.Equal(t, "上海 是 城市", byID["2"]["paragraph"])
}

func TestExportCorpusJobValidation(t *testing.T) {
	router, _ := setupTestRouter(t)

	w := performRequest(router, http.MethodPost, "/jobs/export-corpus", `{"input": "a.json", "output": "b.csv", "format": "csv"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	w = performRequest(router, http.MethodPost, "/jobs/export-corpus", `{"input": "a.json", "output": "a.json"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestBuildIndexJob(t *testing.T) {
	router, api := setupTestRouter(t)
	input := writeJobDataset(t, api.jobsRoot)

	jobID := startJob(t, router, "/jobs/build-index",
		`{"input": "`+filepath.ToSlash(input)+`", "settings": {"name": "dev", "similarity": {"type": "BM25"}, "bulk_size": 2}}`)

	job := waitForJob(t, api, jobID)
	require.Equal(t, model.JobStatusCompleted, job.Status, job.Error)
	assert.Equal(t, model.JobTypeBuildIndex, job.Type)
	assert.Equal(t, "dev", job.Target)
	require.NotNil(t, job.Progress)
	assert.Equal(t, 3, job.Progress.Current)

	w := performRequest(router, http.MethodPost, "/indexes/dev/_search", `{"query": "上海"}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	result := decodeBody[services.SearchResult](t, w)
	require.Len(t, result.Hits, 1)
	assert.Equal(t, 2, result.Hits[0].ParagraphID)

	w = performRequest(router, http.MethodGet, "/indexes/dev", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), config.SimilarityBM25)
}

func TestBuildIndexJobValidation(t *testing.T) {
	router, _ := setupTestRouter(t)

	w := performRequest(router, http.MethodPost, "/jobs/build-index", `{"input": "a.json", "settings": {}}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	w = performRequest(router, http.MethodPost, "/jobs/build-index", `{"settings": {"name": "dev", "similarity": {"type": "TFIDF"}}}`)
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.GreaterOrEqual(t, len(decodeBody[APIError](t, w).Details), 2)
}

func TestRequestIDIsPropagated(t *testing.T) {
	router, _ := setupTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/jobs/unknown", nil)
	req.Header.Set(requestIDHeader, "req-42")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, "req-42", w.Header().Get(requestIDHeader))
	assert.Equal(t, "req-42", decodeBody[APIError](t, w).RequestID)
}

func TestJobPathsConfinedToRoot(t *testing.T) {
	router, api := setupTestRouter(t)
	writeJobDataset(t, api.jobsRoot)

	outside := filepath.Join(t.TempDir(), "important.txt")
	require.NoError(t, os.WriteFile(outside, []byte("important data"), 0600))
	outsideJSON, err := json.Marshal(outside)
	require.NoError(t, err)

	tests := []struct {
		name string
		path string
		body string
	}{
		{"absolute output outside root", "/jobs/fake-answers", `{"input": "dev.json.gz", "output": ` + string(outsideJSON) + `}`},
		{"parent directory output", "/jobs/fake-answers", `{"input": "dev.json.gz", "output": "../important.txt"}`},
		{"nested parent directory output", "/jobs/fake-answers", `{"input": "dev.json.gz", "output": "a/../../important.txt"}`},
		{"root itself as output", "/jobs/fake-answers", `{"input": "dev.json.gz", "output": "."}`},
		{"absolute input outside root", "/jobs/fake-answers", `{"input": ` + string(outsideJSON) + `, "output": "out.json"}`},
		{"export outside root", "/jobs/export-corpus", `{"input": "dev.json.gz", "output": ` + string(outsideJSON) + `}`},
		{"export parent directory input", "/jobs/export-corpus", `{"input": "../dev.json.gz", "output": "corpus.json"}`},
		{"build index input outside root", "/jobs/build-index", `{"input": "../../etc/passwd", "settings": {"name": "dev"}}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := performRequest(router, http.MethodPost, tt.path, tt.body)
			require.Equal(t, http.StatusBadRequest, w.Code, w.Body.String())
			assert.Contains(t, w.Body.String(), "escapes the jobs root")
		})
	}

	raw, err := os.ReadFile(outside)
	require.NoError(t, err)
	assert.Equal(t, "important data", string(raw))
	assert.Empty(t, api.jobs.ListJobs("", nil))
}

func TestJobPathsRejectSymlinkEscape(t *testing.T) {
	router, api := setupTestRouter(t)
	writeJobDataset(t, api.jobsRoot)

	outsideDir := t.TempDir()
	if err := os.Symlink(outsideDir, filepath.Join(api.jobsRoot, "link")); err != nil {
		t.Skipf("symlinks unavailable: %v", err)
	}

	w := performRequest(router, http.MethodPost, "/jobs/export-corpus", `{"input": "dev.json.gz", "output": "link/corpus.json"}`)
	require.Equal(t, http.StatusBadRequest, w.Code, w.Body.String())
	_, err := os.Stat(filepath.Join(outsideDir, "corpus.json"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestJobPathsWithoutRoot(t *testing.T) {
	gin.SetMode(gin.TestMode)
	eng := engine.NewEngine(t.TempDir())
	t.Cleanup(eng.GetJobManager().Stop)
	router := gin.New()
	SetupRoutes(router, eng)

	w := performRequest(router, http.MethodPost, "/jobs/fake-answers", `{"input": "a.json", "output": "b.json"}`)
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "no jobs root configured")
}

func TestResolveJobPath(t *testing.T) {
	root := t.TempDir()

	tests := []struct {
		name    string
		path    string
		want    string
		wantErr bool
	}{
		{"relative file", "train.json", filepath.Join(root, "train.json"), false},
		{"relative nested", "out/dev.json.gz", filepath.Join(root, "out", "dev.json.gz"), false},
		{"cleaned inside root", "out/../train.json", filepath.Join(root, "train.json"), false},
		{"absolute inside root", filepath.Join(root, "a", "b.json"), filepath.Join(root, "a", "b.json"), false},
		{"dot dot prefixed name", "..train.json", filepath.Join(root, "..train.json"), false},
		{"parent", "../train.json", "", true},
		{"root itself", ".", "", true},
		{"absolute outside root", filepath.Join(filepath.Dir(root), "other.json"), "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := resolveJobPath(root, tt.path)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
