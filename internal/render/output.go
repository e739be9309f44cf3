package render

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/couchcryptid/event-map-index/internal/pipeline"
)

// Option configures an Output.
type Option func(*Output)

// WithGrid writes the event grid to path.
func WithGrid(path, eventURL string) Option {
	return func(o *Output) { o.gridPath, o.eventURL = path, eventURL }
}

// WithRegionIndex writes the region index page to path.
func WithRegionIndex(path string) Option {
	return func(o *Output) { o.regionPath = path }
}

// WithMapIndex writes the map index page to path.
func WithMapIndex(path string) Option {
	return func(o *Output) { o.mapPath = path }
}

// WithJSON writes the JSON export to path.
func WithJSON(path string) Option {
	return func(o *Output) { o.jsonPath = path }
}

// WithQRSize sets the QR code size in pixels. Default: DefaultQRSize.
func WithQRSize(px int) Option {
	return func(o *Output) { o.qrSize = px }
}

// Output is the file sink of a run. All artifacts are rendered to temporary
// files next to their targets at Stage and renamed into place at Commit, so a
// failed or cancelled run leaves existing files alone.
type Output struct {
	gridPath   string
	eventURL   string
	regionPath string
	mapPath    string
	jsonPath   string
	qrSize     int
	logger     *slog.Logger
}

// NewOutput creates a file sink. Artifacts without a configured path are skipped.
func NewOutput(logger *slog.Logger, opts ...Option) *Output {
	o := &Output{qrSize: DefaultQRSize, logger: logger}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

type artifact struct {
	path   string
	render func(io.Writer) error
	tmp    string
}

// Stage implements pipeline.Sink. It renders every artifact to a temporary
// file; nothing at the target paths changes until Commit.
func (o *Output) Stage(ctx context.Context, result *pipeline.Result) (pipeline.Staged, error) {
	arts, err := o.artifacts(result)
	if err != nil {
		return nil, err
	}
	staged := &stagedFiles{arts: arts, logger: o.logger}

	for i := range arts {
		if err := ctx.Err(); err != nil {
			staged.Discard()
			return nil, err
		}
		tmp, err := writeTemp(arts[i].path, arts[i].render)
		if err != nil {
			staged.Discard()
			return nil, fmt.Errorf("file output: %s: %w", arts[i].path, err)
		}
		arts[i].tmp = tmp
	}
	return staged, nil
}

// stagedFiles holds rendered temporary files waiting to be renamed into place.
type stagedFiles struct {
	arts   []artifact
	logger *slog.Logger
}

// Commit renames every temporary file onto its target.
func (s *stagedFiles) Commit(_ context.Context) error {
	for i := range s.arts {
		if err := os.Rename(s.arts[i].tmp, s.arts[i].path); err != nil {
			s.Discard()
			return fmt.Errorf("file output: rename %s: %w", s.arts[i].path, err)
		}
		s.arts[i].tmp = ""
		s.logger.Info("output written", "path", s.arts[i].path)
	}
	return nil
}

// Discard removes the temporary files that were not renamed.
func (s *stagedFiles) Discard() {
	for i := range s.arts {
		if s.arts[i].tmp != "" {
			os.Remove(s.arts[i].tmp)
			s.arts[i].tmp = ""
		}
	}
}

func (o *Output) artifacts(result *pipeline.Result) ([]artifact, error) {
	var arts []artifact
	if o.gridPath != "" {
		cards, err := Cards(result.Resolutions, o.eventURL, o.qrSize)
		if err != nil {
			return nil, fmt.Errorf("file output: %w", err)
		}
		title := "Events of " + result.RegNum
		arts = append(arts, artifact{path: o.gridPath, render: func(w io.Writer) error {
			return Grid(w, title, cards)
		}})
	}
	if o.regionPath != "" {
		arts = append(arts, artifact{path: o.regionPath, render: func(w io.Writer) error {
			return IndexPage(w, "Region index", result.RegionIndex)
		}})
	}
	if o.mapPath != "" {
		arts = append(arts, artifact{path: o.mapPath, render: func(w io.Writer) error {
			return IndexPage(w, "Map index", result.MapIndex)
		}})
	}
	if o.jsonPath != "" {
		arts = append(arts, artifact{path: o.jsonPath, render: func(w io.Writer) error {
			return JSON(w, result)
		}})
	}
	if len(arts) == 0 {
		return nil, errors.New("file output: no output paths configured")
	}
	return arts, nil
}

// writeTemp renders into a temporary file in the target's directory and
// returns its name.
func writeTemp(path string, render func(io.Writer) error) (string, error) {
	f, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return "", err
	}
	name := f.Name()
	if err := render(f); err != nil {
		f.Close()
		os.Remove(name)
		return "", err
	}
	if err := f.Sync(); err != nil {
		f.Close()
		os.Remove(name)
		return "", err
	}
	if err := f.Close(); err != nil {
		os.Remove(name)
		return "", err
	}
	if err := os.Chmod(name, 0o644); err != nil {
		os.Remove(name)
		return "", err
	}
	return name, nil
}
