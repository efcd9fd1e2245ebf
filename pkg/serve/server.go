package serve

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"strings"

	"github.com/corelgott/dotless/pkg/engine"
	"github.com/corelgott/dotless/pkg/logging"
	"github.com/corelgott/dotless/pkg/parser"
)

// Version is the server protocol version
const Version = "1.0.0"

// Server compiles style sheets sent as NDJSON requests. Requests are handled
// one at a time on a single engine.
type Server struct {
	engine   *engine.Engine
	recorder *logging.Recorder
	encoder  *json.Encoder
	decoder  *json.Decoder
}

// NewServer creates a server compiling with p. Engine options apply to every
// request; parse failures are captured and sent back to the client instead
// of being logged.
func NewServer(p parser.Parser, in io.Reader, out io.Writer, opts ...engine.Option) *Server {
	rec := &logging.Recorder{}
	opts = append(opts, engine.WithLogger(rec))
	return &Server{
		engine:   engine.New(p, opts...),
		recorder: rec,
		encoder:  json.NewEncoder(out),
		decoder:  json.NewDecoder(bufio.NewReader(in)),
	}
}

// Run starts the server main loop
func (s *Server) Run(ctx context.Context) error {
	// Send ready signal
	s.sendReady()

	reqChan := make(chan Request, 1)
	errChan := make(chan error, 1)

	go func() {
		for {
			var req Request
			if err := s.decoder.Decode(&req); err != nil {
				errChan <- err
				return
			}
			select {
			case reqChan <- req:
			case <-ctx.Done():
				return
			}
		}
	}()

	// Process requests until the input closes or the context cancels
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case err := <-errChan:
			// Drain any pending requests before handling EOF
			for {
				select {
				case req := <-reqChan:
					if s.processRequest(req) {
						return nil
					}
				default:
					if err == io.EOF {
						return nil
					}
					s.sendError("decode", err.Error())
					return nil
				}
			}
		case req := <-reqChan:
			if s.processRequest(req) {
				return nil
			}
		}
	}
}

// processRequest handles a single request and returns true if the server should exit
func (s *Server) processRequest(req Request) bool {
	switch req.Type {
	case "compile":
		s.handleCompile(req.Payload)
	case "imports":
		s.send("imports", ImportsResult{Imports: s.engine.Imports()})
	case "reset_imports":
		s.engine.ResetImports()
		s.send("reset_imports", struct{}{})
	case "close":
		return true
	default:
		s.sendError("unknown", "unknown request type: "+req.Type)
	}
	return false
}

func (s *Server) sendReady() {
	s.send("ready", ReadyData{Version: Version})
}

func (s *Server) handleCompile(payload json.RawMessage) {
	var p CompilePayload
	if err := json.Unmarshal(payload, &p); err != nil {
		s.sendError("compile", err.Error())
		return
	}
	if p.FileName == "" {
		s.sendError("compile", "file_name is required")
		return
	}

	s.recorder.Drain()
	var (
		css    string
		mapBuf bytes.Buffer
		err    error
	)
	if p.SourceMap {
		css, err = s.engine.TransformToCSSWithSourceMap(p.Source, p.FileName, &mapBuf)
	} else {
		css, err = s.engine.TransformToCSS(p.Source, p.FileName)
	}
	if err == nil && !s.engine.LastTransformationSuccessful() {
		err = errors.New(strings.Join(s.recorder.Errors(), "; "))
	}
	if err != nil {
		s.sendError("compile", err.Error())
		return
	}

	result := CompileResult{CSS: css, Imports: s.engine.Imports()}
	if p.SourceMap {
		result.Map = json.RawMessage(mapBuf.Bytes())
	}
	s.send("compile", result)
}

func (s *Server) send(respType string, v interface{}) {
	data, err := json.Marshal(v)
	if err != nil {
		s.sendError(respType, err.Error())
		return
	}
	s.encoder.Encode(Response{
		Success: true,
		Type:    respType,
		Data:    data,
	})
}

func (s *Server) sendError(reqType, msg string) {
	s.encoder.Encode(Response{
		Success: false,
		Type:    reqType,
		Error:   msg,
	})
}
