package savestate

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/okian/signingday/internal/domain/ledger"
	"github.com/okian/signingday/internal/domain/model"
	"github.com/okian/signingday/pkg/logger"
)

// Format is a save-state encoding.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// FormatFromPath picks the encoding from a file extension; anything other
// than .yaml or .yml is JSON.
func FormatFromPath(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	default:
		return FormatJSON
	}
}

// Codec encodes and decodes save-states.
type Codec struct {
	thresholds model.LevelThresholds
	logger     logger.Logger
}

// CodecOption configures a Codec.
type CodecOption func(*Codec)

// WithThresholds sets the thresholds used to derive award levels.
func WithThresholds(th model.LevelThresholds) CodecOption {
	return func(c *Codec) {
		c.thresholds = th
	}
}

// WithLogger sets the codec logger.
func WithLogger(l logger.Logger) CodecOption {
	return func(c *Codec) {
		c.logger = l
	}
}

// NewCodec builds a codec.
func NewCodec(opts ...CodecOption) *Codec {
	c := &Codec{thresholds: model.DefaultLevelThresholds}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = logger.OrDefault(c.logger, "savestate")
	return c
}

// Thresholds returns the level thresholds in use.
func (c *Codec) Thresholds() model.LevelThresholds { return c.thresholds }

// Encode writes st in format. Award levels are re-derived from shares.
func (c *Codec) Encode(w io.Writer, st SaveState, format Format) error {
	if st.Version != CurrentVersion {
		return fmt.Errorf("encode version %d: %w", st.Version, ErrUnsupportedVersion)
	}
	st.Teams = append([]TeamRecord(nil), st.Teams...)
	for i := range st.Teams {
		st.Teams[i].Awards = append([]AwardRecord{}, st.Teams[i].Awards...)
	}
	c.deriveLevels(&st)

	switch format {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(st); err != nil {
			return fmt.Errorf("encode save-state json: %w", err)
		}
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(st); err != nil {
			return fmt.Errorf("encode save-state yaml: %w", err)
		}
		if err := enc.Close(); err != nil {
			return fmt.Errorf("encode save-state yaml: %w", err)
		}
	default:
		return fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
	return nil
}

// Marshal is Encode into a byte slice.
func (c *Codec) Marshal(st SaveState, format Format) ([]byte, error) {
	var buf bytes.Buffer
	if err := c.Encode(&buf, st, format); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Decode reads a save-state in format, migrating legacy blobs to the
// current version. Stored award levels are ignored and re-derived.
func (c *Codec) Decode(ctx context.Context, r io.Reader, format Format) (SaveState, error) {
	var st SaveState
	switch format {
	case FormatJSON:
		if err := json.NewDecoder(r).Decode(&st); err != nil {
			return SaveState{}, fmt.Errorf("decode save-state json: %w", err)
		}
	case FormatYAML:
		if err := yaml.NewDecoder(r).Decode(&st); err != nil {
			return SaveState{}, fmt.Errorf("decode save-state yaml: %w", err)
		}
	default:
		return SaveState{}, fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}

	switch st.Version {
	case CurrentVersion:
	case VersionLegacy:
		n := migrate(&st)
		c.logger.Info(ctx, "migrated legacy save-state",
			logger.Int("entries", n),
			logger.Int("teams", len(st.Teams)))
	default:
		return SaveState{}, fmt.Errorf("decode version %d: %w", st.Version, ErrUnsupportedVersion)
	}

	for _, n := range st.Negotiations {
		if _, err := n.Negotiation(); err != nil {
			return SaveState{}, fmt.Errorf("decode save-state: %w", err)
		}
	}
	c.deriveLevels(&st)
	return st, nil
}

// Unmarshal is Decode from a byte slice.
func (c *Codec) Unmarshal(ctx context.Context, data []byte, format Format) (SaveState, error) {
	return c.Decode(ctx, bytes.NewReader(data), format)
}

func (c *Codec) deriveLevels(st *SaveState) {
	for i := range st.Teams {
		awards := st.Teams[i].Awards
		for j := range awards {
			awards[j].Level = ledger.Classify(awards[j].Share, c.thresholds)
		}
	}
}
