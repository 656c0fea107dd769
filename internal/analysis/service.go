// Package analysis turns an uploaded table and a question into a four-part
// business analysis, using the primary provider's multi-step run and
// falling back to a single prompt on the secondary provider.
package analysis

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/business-analyst/internal/agents"
	"github.com/sells-group/business-analyst/internal/extract"
	"github.com/sells-group/business-analyst/internal/frame"
)

// Kind classifies errors that end a request.
type Kind int

const (
	KindInput Kind = iota + 1
	KindBuild
	KindUnavailable
)

// HTTPStatus maps a Kind to its response status.
func (k Kind) HTTPStatus() int {
	switch k {
	case KindInput:
		return http.StatusBadRequest
	case KindUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// Error is a request-ending failure. Detail is safe to show to callers.
type Error struct {
	Kind   Kind
	Detail string
	Err    error
}

func (e *Error) Error() string { return e.Detail }

func (e *Error) Unwrap() error { return e.Err }

// Source records which path produced a Result.
type Source string

const (
	SourcePrimary            Source = "primary"
	SourceSecondaryJSON      Source = "secondary_json"
	SourceSecondaryHeuristic Source = "secondary_heuristic"
)

// Result is the response body of a successful analysis.
type Result struct {
	Summary          string `json:"summary"`
	DataIssues       string `json:"data_issues"`
	Trends           string `json:"trends"`
	AnswerToQuestion string `json:"answer_to_question"`

	Source Source `json:"-"`
}

// Placeholders used when a section cannot be found.
const (
	NoDataIssuesSection = "No specific data issues section found."
	NoTrendsSection     = "No specific trends section found."
	NoDataIssues        = "No specific data issues found."
	NoTrendsListed      = "No trends found."
)

// Planner builds the primary steps for a data context and question.
type Planner func(dataContext, question string) ([]agents.Step, error)

// Options holds the per-request tunables.
type Options struct {
	PrimaryRows     int
	FallbackRows    int
	SectionMaxLen   int
	DefaultQuestion string
}

func (o Options) withDefaults() Options {
	if o.PrimaryRows <= 0 {
		o.PrimaryRows = 10
	}
	if o.FallbackRows <= 0 {
		o.FallbackRows = 500
	}
	if o.SectionMaxLen <= 0 {
		o.SectionMaxLen = extract.DefaultMaxLen
	}
	if strings.TrimSpace(o.DefaultQuestion) == "" {
		o.DefaultQuestion = "What are the most important insights from this data?"
	}
	return o
}

// Service handles analysis requests. It holds no per-request state.
type Service struct {
	ctrl *Controller
	opts Options
	plan Planner
}

// NewService creates a Service. A nil plan uses agents.Build.
func NewService(ctrl *Controller, opts Options, plan Planner) *Service {
	if plan == nil {
		plan = agents.Build
	}
	return &Service{ctrl: ctrl, opts: opts.withDefaults(), plan: plan}
}

// Analyze runs the full request: parse the upload, try the primary
// provider, fall back to the secondary, and shape the result.
func (s *Service) Analyze(ctx context.Context, upload []byte, question string) (*Result, error) {
	if RequestID(ctx) == "" {
		ctx = WithRequestID(ctx, uuid.NewString())
	}
	log := loggerFrom(ctx)
	state(log, "received_upload", zap.Int("bytes", len(upload)))

	f, err := frame.Read(upload)
	if err != nil {
		log.Info("analysis: upload unreadable", zap.Error(err))
		return nil, &Error{
			Kind:   KindInput,
			Detail: "Failed to read file as CSV or Excel: " + err.Error(),
			Err:    err,
		}
	}
	state(log, "parsed_frame", zap.Int("rows", f.NumRows()), zap.Int("columns", len(f.Columns)))

	if strings.TrimSpace(question) == "" {
		question = s.opts.DefaultQuestion
	}

	steps, err := s.plan(frame.BuildContext(f, s.opts.PrimaryRows), question)
	if err == nil {
		err = agents.Validate(steps)
	}
	if err != nil {
		log.Error("analysis: build crew", zap.Error(err))
		return nil, &Error{
			Kind:   KindBuild,
			Detail: "Failed to build analysis crew: " + err.Error(),
			Err:    err,
		}
	}

	if text, ok := s.ctrl.RunPrimary(ctx, steps); ok {
		state(log, "primary_succeeded")
		res := s.fromPrimary(text)
		state(log, "responded", zap.String("source", string(res.Source)))
		return res, nil
	}
	state(log, "primary_exhausted")

	prompt := agents.FallbackPrompt(frame.BuildFallbackContext(f, s.opts.FallbackRows), question)
	state(log, "secondary_attempt", zap.String("provider", s.ctrl.SecondaryName()))
	text, err := s.ctrl.RunSecondary(ctx, prompt)
	if err != nil || strings.TrimSpace(text) == "" {
		state(log, "secondary_failed")
		log.Error("analysis: all providers failed", zap.Error(err))
		if err == nil {
			err = eris.New("analysis: secondary returned empty text")
		}
		return nil, &Error{
			Kind: KindUnavailable,
			Detail: fmt.Sprintf("LLM providers unavailable (%s quota + %s failed). Try again later.",
				s.ctrl.PrimaryName(), s.ctrl.SecondaryName()),
			Err: err,
		}
	}

	var res *Result
	if doc, ok := extract.RecoverJSON(text); ok && hasReportKeys(doc) {
		state(log, "secondary_json")
		checkSchema(log, doc)
		res = fromDocument(doc)
	} else {
		state(log, "secondary_heuristic")
		res = s.fromHeuristic(text)
	}
	state(log, "responded", zap.String("source", string(res.Source)))
	return res, nil
}

func (s *Service) fromPrimary(text string) *Result {
	n := s.opts.SectionMaxLen

	issues := extract.FirstSection(text, n, "clean", "data issue")
	if issues == "" {
		issues = NoDataIssuesSection
	}
	trends := extract.Section(text, "trend", n)
	if trends == "" {
		trends = NoTrendsSection
	}
	answer := extract.Section(text, "answer", n)
	if answer == "" {
		answer = extract.Tail(text, n)
	}

	return &Result{
		Summary:          extract.Head(text, n),
		DataIssues:       issues,
		Trends:           trends,
		AnswerToQuestion: answer,
		Source:           SourcePrimary,
	}
}

func (s *Service) fromHeuristic(text string) *Result {
	sec := extract.ParseSections(text, s.opts.SectionMaxLen)
	return &Result{
		Summary:          sec.Summary,
		DataIssues:       sec.DataIssues,
		Trends:           sec.Trends,
		AnswerToQuestion: sec.Answer,
		Source:           SourceSecondaryHeuristic,
	}
}

// reportKeys are the fields a secondary JSON document is read from.
var reportKeys = []string{"summary", "data_issues", "trends", "answer"}

// hasReportKeys reports whether doc carries at least one report field. A
// stray object or array recovered from prose does not.
func hasReportKeys(doc map[string]any) bool {
	for _, k := range reportKeys {
		if _, ok := doc[k]; ok {
			return true
		}
	}
	return false
}

func fromDocument(doc map[string]any) *Result {
	issues := bulletList(asList(doc["data_issues"]))
	if issues == "" {
		issues = NoDataIssues
	}
	trends := bulletList(asList(doc["trends"]))
	if trends == "" {
		trends = NoTrendsListed
	}
	return &Result{
		Summary:          asString(doc["summary"]),
		DataIssues:       issues,
		Trends:           trends,
		AnswerToQuestion: asString(doc["answer"]),
		Source:           SourceSecondaryJSON,
	}
}

// asList treats a bare value as a one-item list and null as empty.
func asList(v any) []any {
	switch t := v.(type) {
	case nil:
		return nil
	case []any:
		return t
	case string:
		if strings.TrimSpace(t) == "" {
			return nil
		}
		return []any{t}
	default:
		return []any{t}
	}
}

func asString(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	default:
		b, err := json.Marshal(t)
		if err != nil {
			return fmt.Sprint(t)
		}
		return string(b)
	}
}

func bulletList(items []any) string {
	lines := make([]string, 0, len(items))
	for _, it := range items {
		s := strings.TrimSpace(asString(it))
		if s == "" {
			continue
		}
		lines = append(lines, "- "+s)
	}
	return strings.Join(lines, "\n")
}

func state(log *zap.Logger, name string, fields ...zap.Field) {
	log.Debug("analysis: state", append([]zap.Field{zap.String("state", name)}, fields...)...)
}

type requestIDKey struct{}

// WithRequestID returns a context carrying id for log correlation.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, id)
}

// RequestID returns the request id carried by ctx, if any.
func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}

func loggerFrom(ctx context.Context) *zap.Logger {
	if id := RequestID(ctx); id != "" {
		return zap.L().With(zap.String("request_id", id))
	}
	return zap.L()
}
