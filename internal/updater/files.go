package updater

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/pigdbc/dat-conditional-updater/internal/audit"
	"github.com/pigdbc/dat-conditional-updater/internal/codec"
	"github.com/pigdbc/dat-conditional-updater/internal/config"
	"github.com/pigdbc/dat-conditional-updater/internal/format"
	"github.com/pigdbc/dat-conditional-updater/internal/logger"
	"github.com/pigdbc/dat-conditional-updater/internal/mmfile"
	"github.com/pigdbc/dat-conditional-updater/internal/rules"
	"github.com/pigdbc/dat-conditional-updater/internal/writer"
)

// ErrInputNotFound indicates the input file does not exist.
var ErrInputNotFound = errors.New("updater: input file not found")

// Options configures a file-to-file run.
type Options struct {
	ConfigPath string
	InputPath  string
	OutDir     string // Output is written to OutDir/<input base name>
	LogDir     string // Audit is written to LogDir/<stem>_<timestamp>.log
	DryRun     bool   // Evaluate only; neither output nor audit file is written
	RetainDays int    // Prune older audit files of this input; 0 keeps all
	Now        func() time.Time
}

// FileResult is the outcome of RunFiles.
type FileResult struct {
	Result
	RunID        string
	OutputPath   string // Empty on dry runs
	AuditPath    string // Empty on dry runs
	Report       string // Rendered audit document
	ConfigErrors []*rules.ConfigError
	Pruned       []string
}

// LoadRules loads the configuration at path and builds its rule set. Rules
// with config errors are excluded and returned alongside.
func LoadRules(path string) (*config.Config, *rules.RuleSet, []*rules.ConfigError, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return nil, nil, nil, err
	}
	rs, cerrs := rules.Load(cfg.Rules, codec.Codec{})
	for _, ce := range cerrs {
		logger.Warn("rule excluded", "rule", ce.Rule, "field", ce.Field, "error", ce.Cause)
	}
	return cfg, rs, cerrs, nil
}

// RunFiles loads the configuration, maps the input file and runs it. The
// output and audit files are written atomically, so a failed run leaves
// neither behind.
func RunFiles(ctx context.Context, opts Options) (*FileResult, error) {
	now := time.Now
	if opts.Now != nil {
		now = opts.Now
	}
	started := now()

	cfg, rs, cerrs, err := LoadRules(opts.ConfigPath)
	if err != nil {
		return nil, err
	}

	data, unmap, err := mmfile.Map(opts.InputPath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, format.Fatal("open", opts.InputPath, ErrInputNotFound)
		}
		return nil, format.Fatal("open", opts.InputPath, err)
	}
	defer func() { _ = unmap() }()

	res := &FileResult{ConfigErrors: cerrs}
	outputPath := filepath.Join(opts.OutDir, filepath.Base(opts.InputPath))

	log := audit.New(audit.Preamble{
		Started:      started,
		ConfigPath:   opts.ConfigPath,
		InputPath:    opts.InputPath,
		OutputPath:   outputPath,
		InputSize:    int64(len(data)),
		DryRun:       opts.DryRun,
		Settings:     cfg.Settings,
		Rules:        rs.Rules(),
		ConfigErrors: cerrs,
	})
	logger.Info("run started",
		"run", log.Preamble().RunID,
		"input", opts.InputPath,
		"bytes", len(data),
		"rules", rs.Len(),
	)

	var out *writer.AtomicFile
	if !opts.DryRun {
		if err := ensureDir(opts.OutDir); err != nil {
			return nil, err
		}
		if err := ensureDir(opts.LogDir); err != nil {
			return nil, err
		}
		out, err = writer.Create(outputPath)
		if err != nil {
			return nil, format.Fatal("write", outputPath, err)
		}
	}

	var report bytes.Buffer
	job := Job{
		Settings:  cfg.Settings,
		Rules:     rs,
		Input:     bytes.NewReader(data),
		InputSize: int64(len(data)),
		Audit:     log,
		AuditSink: &report,
	}
	if out != nil {
		job.Output = out
	}

	result, err := Run(ctx, job)
	if err != nil {
		if out != nil {
			if abortErr := out.Abort(); abortErr != nil {
				logger.Error("discarding partial output", "path", outputPath, "error", abortErr)
			}
		}
		return nil, err
	}
	res.Result = result
	res.RunID = log.Preamble().RunID
	res.Report = report.String()

	if opts.DryRun {
		return res, nil
	}

	// Both files are staged before either is committed; if the audit cannot
	// be committed the already renamed output is removed again.
	auditPath := filepath.Join(opts.LogDir, audit.FileName(opts.InputPath, started))
	auditFile, err := writer.Create(auditPath)
	if err != nil {
		_ = out.Abort()
		return nil, format.Fatal("audit", auditPath, err)
	}
	if _, err := auditFile.Write(report.Bytes()); err != nil {
		_ = auditFile.Abort()
		_ = out.Abort()
		return nil, format.Fatal("audit", auditPath, err)
	}

	if err := out.Commit(); err != nil {
		_ = auditFile.Abort()
		return nil, format.Fatal("write", outputPath, err)
	}
	if err := auditFile.Commit(); err != nil {
		if rmErr := os.Remove(outputPath); rmErr != nil {
			logger.Error("removing output after audit failure", "path", outputPath, "error", rmErr)
		}
		return nil, format.Fatal("audit", auditPath, err)
	}
	res.OutputPath = outputPath
	res.AuditPath = auditPath

	pruned, err := audit.Prune(opts.LogDir, opts.InputPath, opts.RetainDays, started)
	if err != nil {
		logger.Warn("pruning audit logs", "dir", opts.LogDir, "error", err)
	}
	res.Pruned = pruned
	return res, nil
}

func ensureDir(dir string) error {
	if dir == "" {
		return nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return format.Fatal("mkdir", fmt.Sprintf("creating %s", dir), err)
	}
	return nil
}
