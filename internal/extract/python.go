package extract

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"log/slog"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"codegraph/internal/graph"
)

// WorkerCaller issues a single request/response round trip to the Python
// worker process.
type WorkerCaller interface {
	Call(ctx context.Context, method string, params any, result any) error
}

// PythonExtractor delegates parsing to the codegraph-pyworker process over
// JSON-RPC. One round trip returns both declarations and imports; the
// result is cached by source hash so Parse and ExtractImports on the same
// file cost one exchange. Worker failures degrade to empty results, the
// same contract the in-process extractors honor.
type PythonExtractor struct {
	worker  WorkerCaller
	timeout time.Duration
	cache   *lru.Cache[string, *pyParseResult]
	logger  *slog.Logger
}

type pyParseRequest struct {
	Source string `json:"source"`
	Path   string `json:"path"`
}

type pyParseResult struct {
	Declarations []graph.Declaration `json:"declarations"`
	Imports      []graph.Import      `json:"imports"`
}

const (
	defaultPyTimeout  = 10 * time.Second
	pyParseCacheSize  = 256
	methodWorkerParse = "parse"
)

type PythonOption func(*PythonExtractor)

func WithTimeout(d time.Duration) PythonOption {
	return func(e *PythonExtractor) {
		if d > 0 {
			e.timeout = d
		}
	}
}

func WithLogger(logger *slog.Logger) PythonOption {
	return func(e *PythonExtractor) {
		if logger != nil {
			e.logger = logger
		}
	}
}

func NewPythonExtractor(worker WorkerCaller, opts ...PythonOption) *PythonExtractor {
	cache, _ := lru.New[string, *pyParseResult](pyParseCacheSize)
	e := &PythonExtractor{
		worker:  worker,
		timeout: defaultPyTimeout,
		cache:   cache,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func (e *PythonExtractor) Parse(ctx context.Context, source []byte, filePath string) []graph.Declaration {
	res := e.roundTrip(ctx, source, filePath)
	if res == nil {
		return nil
	}
	return res.Declarations
}

func (e *PythonExtractor) ExtractImports(ctx context.Context, source []byte) []graph.Import {
	res := e.roundTrip(ctx, source, "")
	if res == nil {
		return nil
	}
	return res.Imports
}

func (e *PythonExtractor) roundTrip(ctx context.Context, source []byte, filePath string) *pyParseResult {
	key := sourceKey(source)
	if cached, ok := e.cache.Get(key); ok {
		return cached
	}

	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	var res pyParseResult
	req := pyParseRequest{Source: string(source), Path: filePath}
	if err := e.worker.Call(ctx, methodWorkerParse, req, &res); err != nil {
		e.logger.Warn("python worker parse failed", "path", filePath, "error", err)
		return nil
	}
	e.cache.Add(key, &res)
	return &res
}

func sourceKey(source []byte) string {
	sum := sha256.Sum256(source)
	return hex.EncodeToString(sum[:])
}
