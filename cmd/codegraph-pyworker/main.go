// codegraph-pyworker parses Python source on behalf of the indexing engine.
// It reads JSON-RPC 2.0 requests from stdin, one per line, and writes one
// response line per request to stdout. The engine launches it as a
// subprocess and restarts it if an exchange goes wrong, so the loop here
// stays deliberately simple: decode, dispatch, answer.
package main

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"

	"codegraph/internal/bridge"
	"codegraph/internal/graph"
)

const maxLineBytes = 16 << 20

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	if err := serve(os.Stdin, os.Stdout, logger); err != nil {
		logger.Error("worker terminated", "error", err)
		os.Exit(1)
	}
}

func serve(in io.Reader, out io.Writer, logger *slog.Logger) error {
	parser := newPythonParser()
	enc := json.NewEncoder(out)

	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var req bridge.Request
		if err := json.Unmarshal(line, &req); err != nil {
			if err := enc.Encode(errorResponse(0, bridge.ErrCodeParse, "malformed request")); err != nil {
				return err
			}
			continue
		}

		resp := dispatch(parser, &req, logger)
		if err := enc.Encode(resp); err != nil {
			return err
		}
	}
	return scanner.Err()
}

type parseParams struct {
	Source string `json:"source"`
	Path   string `json:"path"`
}

type parseResult struct {
	Declarations []graph.Declaration `json:"declarations"`
	Imports      []graph.Import      `json:"imports"`
}

func dispatch(parser *pythonParser, req *bridge.Request, logger *slog.Logger) bridge.Response {
	switch req.Method {
	case bridge.MethodPing:
		return resultResponse(req.ID, map[string]bool{"ok": true})

	case bridge.MethodParse:
		var params parseParams
		if err := json.Unmarshal(req.Params, &params); err != nil {
			return errorResponse(req.ID, bridge.ErrCodeInvalidParams, "parse params: "+err.Error())
		}
		decls, imports := parser.parse([]byte(params.Source))
		logger.Debug("parsed file", "path", params.Path, "declarations", len(decls), "imports", len(imports))
		return resultResponse(req.ID, parseResult{Declarations: decls, Imports: imports})

	default:
		return errorResponse(req.ID, bridge.ErrCodeMethodNotFound, fmt.Sprintf("unknown method %q", req.Method))
	}
}

func resultResponse(id uint64, result any) bridge.Response {
	raw, err := json.Marshal(result)
	if err != nil {
		return errorResponse(id, bridge.ErrCodeInternal, err.Error())
	}
	return bridge.Response{JSONRPC: bridge.Version, ID: id, Result: raw}
}

func errorResponse(id uint64, code int, message string) bridge.Response {
	return bridge.Response{
		JSONRPC: bridge.Version,
		ID:      id,
		Error:   &bridge.ResponseError{Code: code, Message: message},
	}
}
