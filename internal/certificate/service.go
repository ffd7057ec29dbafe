// Package certificate is the service facade over the generation pipeline. It
// confines file access to the configured directories, loads templates and
// records, and writes generated certificates.
package certificate

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/a3tai/ahc-engine/internal/config"
	"github.com/a3tai/ahc-engine/internal/crossout"
	"github.com/a3tai/ahc-engine/internal/document"
	"github.com/a3tai/ahc-engine/internal/errors"
	"github.com/a3tai/ahc-engine/internal/generate"
	"github.com/a3tai/ahc-engine/internal/geometry"
	"github.com/a3tai/ahc-engine/internal/mapping"
	"github.com/a3tai/ahc-engine/internal/profile"
	"github.com/a3tai/ahc-engine/internal/schema"
)

// maxListedTemplates caps the template listing in server info.
const maxListedTemplates = 100

var unsafeNameChars = regexp.MustCompile(`[^A-Za-z0-9_-]+`)

// Service handles certificate operations against the configured directories.
type Service struct {
	maxFileSize int64
	templates   *PathValidator
	outputs     *PathValidator
	generator   *generate.Generator
	strict      bool
	textHint    bool
	serverName  string
	version     string
	logger      *slog.Logger
}

// NewService creates a service from cfg. The reference layout is the
// embedded one unless cfg names a replacement file.
func NewService(cfg *config.Config, logger *slog.Logger) (*Service, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	templates, err := NewPathValidator(cfg.TemplateDirectory)
	if err != nil {
		return nil, fmt.Errorf("failed to create path validator: %w", err)
	}
	outputs, err := NewPathValidator(cfg.OutputDirectory)
	if err != nil {
		return nil, fmt.Errorf("failed to create output path validator: %w", err)
	}

	ref, err := loadReference(cfg.GeometryFile)
	if err != nil {
		return nil, err
	}

	return &Service{
		maxFileSize: cfg.MaxFileSize,
		templates:   templates,
		outputs:     outputs,
		generator:   generate.New(ref, cfg.Strict, logger),
		strict:      cfg.Strict,
		textHint:    cfg.TextHint,
		serverName:  cfg.ServerName,
		version:     cfg.Version,
		logger:      logger,
	}, nil
}

func loadReference(path string) (*geometry.Reference, error) {
	if path == "" {
		return geometry.Default()
	}
	return geometry.Load(path)
}

// MaxFileSize returns the maximum template size in bytes.
func (s *Service) MaxFileSize() int64 {
	return s.maxFileSize
}

// DetectProfile classifies the field set of a template.
func (s *Service) DetectProfile(req DetectRequest) (*DetectResult, error) {
	doc, abs, err := s.openTemplate(req.Path)
	if err != nil {
		return nil, err
	}

	hint := s.hint(abs, req.Hint)
	info := profile.Detect(document.Names(doc), profile.Options{Hint: hint})
	s.logger.Debug("detected profile", "path", abs, "profile", info.Profile)

	return &DetectResult{
		Path:    abs,
		Pages:   len(doc.Pages()),
		Fields:  len(doc.Fields()),
		Hint:    hint,
		Profile: info,
	}, nil
}

// MapFields resolves the canonical keys of a template onto its fields.
func (s *Service) MapFields(req MapRequest) (*MapResult, error) {
	overrides, err := s.overrides(req.OverridesPath, Overrides{Fields: req.FieldOverrides})
	if err != nil {
		return nil, err
	}
	doc, abs, err := s.openTemplate(req.Path)
	if err != nil {
		return nil, err
	}

	names := document.Names(doc)
	info := profile.Detect(names, profile.Options{Hint: s.hint(abs, req.Hint)})
	resolved := mapping.Resolve(info.Profile, mapping.NewFieldSet(names), overrides.Fields)

	return &MapResult{
		Path:                abs,
		Profile:             info,
		Mapping:             resolved,
		MissingRequiredKeys: resolved.Mapping.Missing(schema.RequiredKeys()),
	}, nil
}

// ComputeCrossouts evaluates the cross-out rules for one trip.
func (s *Service) ComputeCrossouts(req CrossoutRequest) (*CrossoutResult, error) {
	var facts crossout.Facts
	if req.Facts != nil {
		facts = *req.Facts
	} else {
		sub, err := s.submission(req.Submission, req.SubmissionPath)
		if err != nil {
			return nil, err
		}
		facts = sub.Facts()
	}

	categories := crossout.Compute(facts).Sorted()
	slots := make([]int, 0, len(categories))
	for _, c := range categories {
		if n, ok := schema.SlotForCategory(c); ok {
			slots = append(slots, n)
		}
	}
	sort.Ints(slots)

	return &CrossoutResult{Facts: facts, Categories: categories, Slots: slots}, nil
}

// Generate fills and renders one certificate and writes it to the output
// directory. When the pipeline fails the result still carries the partial
// report.
func (s *Service) Generate(ctx context.Context, req GenerateRequest) (*GenerateResult, error) {
	sub, err := s.submission(req.Submission, req.SubmissionPath)
	if err != nil {
		return nil, err
	}
	overrides, err := s.overrides(req.OverridesPath, Overrides{
		Fields:     req.FieldOverrides,
		Categories: req.CategoryOverrides,
	})
	if err != nil {
		return nil, err
	}
	doc, abs, err := s.openTemplate(req.Path)
	if err != nil {
		return nil, err
	}

	tpl := req.Template
	if tpl.Path == "" {
		tpl.Path = filepath.Base(abs)
	}
	if tpl.Code == "" {
		tpl.Code = overrides.TemplateCode
	}

	result := &GenerateResult{Path: abs}
	report, err := s.generator.Run(ctx, doc, sub, generate.Options{
		Template:          tpl,
		TextHint:          s.pageHint(abs),
		Strict:            req.Strict,
		FieldOverrides:    overrides.Fields,
		CategoryOverrides: overrides.Categories,
	})
	result.Report = report
	if err != nil {
		s.logger.Warn("generation failed", "path", abs, "error", err)
		return result, err
	}

	out, err := s.outputPath(req.Output, abs, sub.CertificateNumber)
	if err != nil {
		return result, err
	}
	if err := writeDocument(doc, out); err != nil {
		return result, errors.Wrap(errors.ErrorTypeDocument, "failed to write certificate", err).WithFile(out)
	}
	result.OutputPath = out

	s.logger.Info("generated certificate",
		"template", abs,
		"output", out,
		"profile", report.Profile.Profile,
		"crossed", report.Render.Crossed,
		"unrendered", len(report.Render.Unrendered))
	return result, nil
}

// ServerInfo describes the service and lists the available templates.
func (s *Service) ServerInfo() (*ServerInfo, error) {
	files, truncated, err := s.ListTemplates(maxListedTemplates)
	if err != nil {
		return nil, err
	}
	return &ServerInfo{
		ServerName:        s.serverName,
		Version:           s.version,
		TemplateDirectory: s.templates.Root(),
		OutputDirectory:   s.outputs.Root(),
		Strict:            s.strict,
		TextHint:          s.textHint,
		MaxFileSize:       s.maxFileSize,
		Templates:         files,
		Truncated:         truncated,
	}, nil
}

// ListTemplates walks the template directory for PDF files, skipping hidden
// directories and the output directory. A limit of zero lists everything.
func (s *Service) ListTemplates(limit int) ([]TemplateFile, bool, error) {
	root := s.templates.Root()
	files := []TemplateFile{}
	truncated := false

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == root {
				return err
			}
			return nil
		}
		if d.IsDir() {
			if path != root && (strings.HasPrefix(d.Name(), ".") || path == s.outputs.Root()) {
				return filepath.SkipDir
			}
			return nil
		}
		if !strings.EqualFold(filepath.Ext(d.Name()), ".pdf") {
			return nil
		}
		if limit > 0 && len(files) >= limit {
			truncated = true
			return filepath.SkipAll
		}
		info, err := d.Info()
		if err != nil {
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			rel = path
		}
		files = append(files, TemplateFile{
			Path:         rel,
			Name:         d.Name(),
			Size:         info.Size(),
			ModifiedTime: info.ModTime().Format(time.RFC3339),
		})
		return nil
	})
	if err != nil {
		return nil, false, fmt.Errorf("failed to list templates: %w", err)
	}
	return files, truncated, nil
}

// openTemplate resolves path inside the template directory and loads it.
func (s *Service) openTemplate(path string) (*document.PDF, string, error) {
	abs, err := s.templates.Resolve(path)
	if err != nil {
		return nil, "", errors.Wrap(errors.ErrorTypeSecurityRestriction, "security validation failed", err).WithFile(path)
	}
	if !strings.EqualFold(filepath.Ext(abs), ".pdf") {
		return nil, "", errors.New(errors.ErrorTypeInvalidInput, "file is not a PDF").WithFile(abs)
	}
	if _, err := statFile(abs, s.maxFileSize); err != nil {
		return nil, "", errors.Wrap(errors.ErrorTypeInvalidInput, "template rejected", err).WithFile(abs)
	}

	doc, err := document.OpenFile(abs)
	if err != nil {
		return nil, "", errors.Wrap(errors.ErrorTypeDocument, "failed to load template", err).WithFile(abs)
	}
	return doc, abs, nil
}

// readRecord reads a small record file from the template directory.
func (s *Service) readRecord(path string) ([]byte, string, error) {
	abs, err := s.templates.Resolve(path)
	if err != nil {
		return nil, "", errors.Wrap(errors.ErrorTypeSecurityRestriction, "security validation failed", err).WithFile(path)
	}
	if _, err := statFile(abs, s.maxFileSize); err != nil {
		return nil, "", errors.Wrap(errors.ErrorTypeInvalidInput, "record rejected", err).WithFile(abs)
	}
	data, err := os.ReadFile(abs)
	if err != nil {
		return nil, "", errors.Wrap(errors.ErrorTypeInvalidInput, "failed to read record", err).WithFile(abs)
	}
	return data, abs, nil
}

func (s *Service) submission(inline *generate.Submission, path string) (generate.Submission, error) {
	if inline != nil {
		return *inline, nil
	}
	if path == "" {
		return generate.Submission{}, errors.New(errors.ErrorTypeInvalidInput, "a submission or submission_path is required")
	}
	data, abs, err := s.readRecord(path)
	if err != nil {
		return generate.Submission{}, err
	}
	sub, err := DecodeSubmission(data)
	if err != nil {
		return generate.Submission{}, errors.Wrap(errors.ErrorTypeInvalidInput, "invalid submission", err).WithFile(abs)
	}
	return sub, nil
}

// overrides layers inline overrides over the record at path, if any.
func (s *Service) overrides(path string, inline Overrides) (Overrides, error) {
	var base Overrides
	if path != "" {
		data, abs, err := s.readRecord(path)
		if err != nil {
			return Overrides{}, err
		}
		if base, err = DecodeOverrides(data); err != nil {
			return Overrides{}, errors.Wrap(errors.ErrorTypeInvalidInput, "invalid override record", err).WithFile(abs)
		}
	}
	return base.Merge(inline), nil
}

// hint joins the request hint, the file name and, when enabled, page text.
func (s *Service) hint(abs, extra string) string {
	parts := []string{extra, filepath.Base(abs), s.pageHint(abs)}
	var out []string
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return strings.Join(out, " ")
}

func (s *Service) pageHint(abs string) string {
	if !s.textHint {
		return ""
	}
	text, err := PageText(abs, maxHintText)
	if err != nil {
		s.logger.Warn("page text unavailable for hint", "path", abs, "error", err)
		return ""
	}
	return text
}

// outputPath picks the destination inside the output directory. The default
// name is the template name with the certificate number appended.
func (s *Service) outputPath(name, template, certificateNumber string) (string, error) {
	if name == "" {
		base := strings.TrimSuffix(filepath.Base(template), filepath.Ext(template))
		suffix := "filled"
		if safe := strings.Trim(unsafeNameChars.ReplaceAllString(certificateNumber, "_"), "_"); safe != "" {
			suffix = safe
		}
		name = base + "-" + suffix + ".pdf"
	}
	if !strings.EqualFold(filepath.Ext(name), ".pdf") {
		name += ".pdf"
	}

	abs, err := s.outputs.Resolve(name)
	if err != nil {
		return "", errors.Wrap(errors.ErrorTypeSecurityRestriction, "invalid output path", err).WithFile(name)
	}
	return abs, nil
}

// writeDocument writes through a temp file in the destination directory and
// renames it into place.
func writeDocument(doc *document.PDF, path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, config.DefaultDirPerm); err != nil {
		return fmt.Errorf("cannot create output directory: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".ahc-*.pdf")
	if err != nil {
		return fmt.Errorf("cannot create output file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := doc.Write(tmp); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("cannot close output file: %w", err)
	}
	return os.Rename(tmp.Name(), path)
}
