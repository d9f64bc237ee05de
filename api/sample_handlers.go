package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/gcbaptista/go-mrc-prep/internal/overlap"
	"github.com/gcbaptista/go-mrc-prep/internal/paragraph"
	"github.com/gcbaptista/go-mrc-prep/internal/spansearch"
	"github.com/gcbaptista/go-mrc-prep/model"
)

// FakeAnswerResult is the JSON view of a span search.
type FakeAnswerResult struct {
	Found            bool         `json:"found"`
	MostRelatedParas []int        `json:"most_related_paras"`
	AnswerDocs       []int        `json:"answer_docs"`
	AnswerSpans      []model.Span `json:"answer_spans"`
	FakeAnswers      []string     `json:"fake_answers"`
	MatchScores      []float64    `json:"match_scores"`
}

// FakeAnswerResponse carries the annotated sample and the raw search result.
type FakeAnswerResponse struct {
	Sample *model.Sample    `json:"sample"`
	Result FakeAnswerResult `json:"result"`
}

func newFakeAnswerResult(r spansearch.Result) FakeAnswerResult {
	paras := make([]int, len(r.MostRelatedParas))
	for i, sel := range r.MostRelatedParas {
		paras[i] = sel.Sentinel()
	}
	return FakeAnswerResult{
		Found:            r.Found(),
		MostRelatedParas: paras,
		AnswerDocs:       append([]int{}, r.AnswerDocs...),
		AnswerSpans:      append([]model.Span{}, r.AnswerSpans...),
		FakeAnswers:      append([]string{}, r.FakeAnswers...),
		MatchScores:      append([]float64{}, r.MatchScores...),
	}
}

// FakeAnswerHandler computes the fake answer of one sample.
// Request Body: a dataset sample
func (api *API) FakeAnswerHandler(c *gin.Context) {
	var sample model.Sample
	if err := c.ShouldBindJSON(&sample); err != nil {
		SendInvalidJSONError(c, err)
		return
	}

	result := spansearch.FindFakeAnswer(&sample)
	result.Apply(&sample)

	c.Render(http.StatusOK, unescapedJSON{Data: FakeAnswerResponse{
		Sample: &sample,
		Result: newFakeAnswerResult(result),
	}})
}

// BestMatchRequest asks for the paragraph most relevant to a question. The
// question is given either as tokens or as raw text that is segmented first.
type BestMatchRequest struct {
	Paragraphs   []overlap.Tokens `json:"paragraphs"`
	Question     overlap.Tokens   `json:"question"`
	QuestionText string           `json:"question_text"`
}

// BestMatchHandler returns the index and recall score of the best matching paragraph.
func (api *API) BestMatchHandler(c *gin.Context) {
	var req BestMatchRequest
	if result := ValidateJSONBinding(c, &req); result.HasErrors() {
		SendValidationError(c, result)
		return
	}

	result := newValidationResult()
	if len(req.Paragraphs) == 0 {
		result.AddError("paragraphs", "At least one paragraph is required")
	}
	question := req.Question
	if len(question) == 0 && req.QuestionText != "" {
		question = overlap.Tokens(api.segmenter.Cut(req.QuestionText))
	}
	if len(question) == 0 {
		result.AddError("question", "Either question tokens or question_text is required")
	}
	if result.HasErrors() {
		SendValidationError(c, result)
		return
	}

	idx, score := paragraph.FindBestQuestionMatchWithScore(req.Paragraphs, question)
	c.Render(http.StatusOK, unescapedJSON{Data: gin.H{
		"index":    idx,
		"score":    score,
		"question": question,
	}})
}

// ScoreRequest compares one tokenized prediction against reference answers.
type ScoreRequest struct {
	Prediction   overlap.Tokens   `json:"prediction"`
	GroundTruths []overlap.Tokens `json:"ground_truths"`
}

// ScoreResponse reports precision, recall and F1 against the reference with
// the highest F1, plus the best F1 and recall over all references.
type ScoreResponse struct {
	Precision float64 `json:"precision"`
	Recall    float64 `json:"recall"`
	F1        float64 `json:"f1"`
	BestIndex int     `json:"best_index"`
	MaxF1     float64 `json:"max_f1"`
	MaxRecall float64 `json:"max_recall"`
}

// ScoresHandler scores a prediction against its ground truths.
func (api *API) ScoresHandler(c *gin.Context) {
	var req ScoreRequest
	if result := ValidateJSONBinding(c, &req); result.HasErrors() {
		SendValidationError(c, result)
		return
	}
	if result := ValidateGroundTruths(req.GroundTruths); result.HasErrors() {
		SendValidationError(c, result)
		return
	}

	resp := ScoreResponse{BestIndex: -1}
	for i, gt := range req.GroundTruths {
		p, r, f1 := overlap.PrecisionRecallF1(req.Prediction, gt)
		if resp.BestIndex < 0 || f1 > resp.F1 {
			resp.Precision, resp.Recall, resp.F1, resp.BestIndex = p, r, f1, i
		}
	}

	var err error
	if resp.MaxF1, err = overlap.MaxOverGroundTruths(overlap.F1, req.Prediction, req.GroundTruths); err != nil {
		sendInputError(c, err, func() { SendInternalError(c, "scoring", err) })
		return
	}
	if resp.MaxRecall, err = overlap.MaxOverGroundTruths(overlap.Recall, req.Prediction, req.GroundTruths); err != nil {
		sendInputError(c, err, func() { SendInternalError(c, "scoring", err) })
		return
	}

	c.JSON(http.StatusOK, resp)
}
