package httpadapter

import (
	"context"
	"io"
	"net/http"

	"sapirag/internal/core/domain"
	"sapirag/internal/core/ports"
)

type searchFake struct {
	mode    domain.SearchMode
	query   string
	scope   domain.Scope
	topK    int
	results []domain.RankedResult
	err     error
}

func (f *searchFake) Search(_ context.Context, mode domain.SearchMode, query string, scope domain.Scope, topK int) ([]domain.RankedResult, error) {
	f.mode = mode
	f.query = query
	f.scope = scope
	f.topK = topK
	return f.results, f.err
}

type answerFake struct {
	calls  int
	req    domain.AnswerRequest
	answer *domain.Answer
	err    error
}

func (f *answerFake) Answer(_ context.Context, req domain.AnswerRequest) (*domain.Answer, error) {
	f.calls++
	f.req = req
	if f.err != nil {
		return nil, f.err
	}
	return f.answer, nil
}

type ingestorFake struct {
	uploaded  []string
	scheduled []string
	uploadErr error
}

func (f *ingestorFake) Upload(_ context.Context, workspace, filename string, _ io.Reader, _ int64) error {
	if f.uploadErr != nil {
		return f.uploadErr
	}
	f.uploaded = append(f.uploaded, workspace+"/"+filename)
	return nil
}

func (f *ingestorFake) ScheduleIndexing(_ context.Context, workspace, filename string) error {
	f.scheduled = append(f.scheduled, workspace+"/"+filename)
	return nil
}

type workspaceFake struct {
	workspaces []string
	deleted    []string
	err        error
}

func (f *workspaceFake) ListWorkspaces(context.Context) ([]string, error) {
	return f.workspaces, f.err
}

func (f *workspaceFake) CreateWorkspace(_ context.Context, name string) (bool, error) {
	if f.err != nil {
		return false, f.err
	}
	f.workspaces = append(f.workspaces, name)
	return true, nil
}

func (f *workspaceFake) DeleteWorkspace(_ context.Context, name string) error {
	if f.err != nil {
		return f.err
	}
	f.deleted = append(f.deleted, name)
	return nil
}

func (f *workspaceFake) ListPDFs(context.Context, string) ([]string, error) {
	return []string{"ptk.pdf"}, f.err
}

func (f *workspaceFake) DeletePDF(_ context.Context, workspace, filename string) error {
	if f.err != nil {
		return f.err
	}
	f.deleted = append(f.deleted, workspace+"/"+filename)
	return nil
}

type testDeps struct {
	search    *searchFake
	answer    *answerFake
	ingestor  *ingestorFake
	workspace *workspaceFake
}

func newTestHandler(traffic TrafficConfig) (http.Handler, *testDeps) {
	deps := &testDeps{
		search:    &searchFake{},
		answer:    &answerFake{answer: &domain.Answer{Text: "válasz"}},
		ingestor:  &ingestorFake{},
		workspace: &workspaceFake{},
	}
	router := NewRouter(
		deps.search,
		map[string]ports.AnswerService{"ollama": deps.answer},
		"ollama",
		deps.ingestor,
		deps.workspace,
		nil,
		"api",
		traffic,
	)
	return router.Handler(), deps
}
