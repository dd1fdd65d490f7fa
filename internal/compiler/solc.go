package compiler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"txLogScope/internal/metrics"
	"txLogScope/internal/model"
)

const defaultTimeout = 2 * time.Minute

// Config controls where solc binaries live and whether missing ones are fetched.
type Config struct {
	Dir         string
	Download    bool
	BinariesURL string
	Timeout     time.Duration
}

// Solc compiles verified sources with a version-pinned solc binary.
type Solc struct {
	cfg        Config
	httpClient *http.Client
	logger     *zap.Logger

	mu sync.Mutex
}

func New(cfg Config, logger *zap.Logger) *Solc {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	if cfg.BinariesURL == "" {
		cfg.BinariesURL = DefaultBinariesURL
	}
	return &Solc{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		logger:     logger,
	}
}

type outputContract struct {
	ABI json.RawMessage `json:"abi"`
}

type output struct {
	Errors    []Diagnostic                         `json:"errors"`
	Contracts map[string]map[string]outputContract `json:"contracts"`
}

// Compile returns the ABI JSON of contractName compiled from source with
// compilerVersion. An empty result means the contract was not in the output.
func (s *Solc) Compile(ctx context.Context, source, contractName, compilerVersion string) (string, error) {
	start := time.Now()
	abiJSON, err := s.compile(ctx, source, contractName, compilerVersion)
	status := "ok"
	if err != nil {
		status = "error"
	}
	metrics.CompileDuration.WithLabelValues(status).Observe(time.Since(start).Seconds())
	return abiJSON, err
}

func (s *Solc) compile(ctx context.Context, source, contractName, compilerVersion string) (string, error) {
	version := strings.TrimSpace(compilerVersion)
	if strings.HasPrefix(strings.ToLower(version), "vyper") {
		return "", &Error{Version: version, Diagnostics: []Diagnostic{{
			Severity: "error",
			Type:     "UnsupportedLanguage",
			Message:  "vyper sources cannot be recompiled",
		}}}
	}

	input, err := BuildInput(source, contractName)
	if err != nil {
		return "", fmt.Errorf("%w: %w", model.ErrCompile, err)
	}
	payload, err := json.Marshal(input)
	if err != nil {
		return "", fmt.Errorf("encode input: %w", err)
	}

	bin, err := s.binary(ctx, version)
	if err != nil {
		return "", err
	}

	ctx, cancel := context.WithTimeout(ctx, s.cfg.Timeout)
	defer cancel()

	s.logger.Debug("running solc", zap.String("version", version), zap.String("contract", contractName))

	cmd := exec.CommandContext(ctx, bin, "--standard-json")
	cmd.Stdin = bytes.NewReader(payload)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("solc %s failed: %w: %w\nOutput: %s", version, model.ErrCompile, err, stderr.String())
	}

	return ParseOutput(stdout.Bytes(), contractName, version)
}

// ParseOutput extracts the ABI of contractName from solc standard-JSON output.
func ParseOutput(raw []byte, contractName, version string) (string, error) {
	var out output
	if err := json.Unmarshal(raw, &out); err != nil {
		return "", fmt.Errorf("decode solc output: %w", err)
	}
	if diags := errorDiagnostics(out.Errors); len(diags) > 0 {
		return "", &Error{Version: version, Diagnostics: diags}
	}

	for _, contracts := range out.Contracts {
		if c, ok := contracts[contractName]; ok && len(c.ABI) > 0 {
			return string(c.ABI), nil
		}
	}
	return "", nil
}

// binary returns the solc path for version, downloading it when allowed.
func (s *Solc) binary(ctx context.Context, version string) (string, error) {
	if version == "" {
		return "", fmt.Errorf("%w: missing compiler version", model.ErrCompile)
	}
	if strings.ContainsAny(version, `/\`) {
		return "", fmt.Errorf("%w: invalid compiler version %q", model.ErrCompile, version)
	}
	if !strings.HasPrefix(version, "v") {
		version = "v" + version
	}
	path := filepath.Join(s.cfg.Dir, "solc-"+version)

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := os.Stat(path); err == nil {
		return path, nil
	} else if !errors.Is(err, os.ErrNotExist) {
		return "", fmt.Errorf("stat solc: %w", err)
	}
	if !s.cfg.Download {
		return "", fmt.Errorf("%w: solc %s not installed in %s", model.ErrCompile, version, s.cfg.Dir)
	}
	if err := s.download(ctx, version, path); err != nil {
		return "", fmt.Errorf("%w: %w", model.ErrNetworkFailure, err)
	}
	return path, nil
}
