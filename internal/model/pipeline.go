package model

import (
	"bufio"
	"bytes"
	"encoding/gob"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/klauspost/compress/zstd"
)

// ErrBadFormat is returned when a pipeline file has the wrong header or
// an unsupported version.
var ErrBadFormat = errors.New("model: not a loan pipeline file")

const formatVersion byte = 1

var magic = []byte("LOANPIPE")

// Pipeline is the fitted encoder followed by the forest.
type Pipeline struct {
	Encoder   *Encoder
	Forest    *Forest
	Target    string
	TrainedAt time.Time
}

// Fit trains a pipeline on ds.
func Fit(ds *Dataset, cfg ForestConfig) (*Pipeline, error) {
	if ds == nil || len(ds.Rows) == 0 {
		return nil, errors.New("model: empty dataset")
	}
	enc := FitEncoder(ds.Columns, ds.Rows)
	X := make([][]float64, len(ds.Rows))
	for i, r := range ds.Rows {
		X[i] = enc.Transform(r)
	}
	forest, err := TrainForest(X, ds.Labels, cfg)
	if err != nil {
		return nil, err
	}
	return &Pipeline{Encoder: enc, Forest: forest, Target: ds.Target, TrainedAt: time.Now().UTC()}, nil
}

// Predict encodes row and classifies it as 0 or 1.
func (p *Pipeline) Predict(row Row) (int, error) {
	if p == nil || p.Encoder == nil || p.Forest == nil {
		return 0, errors.New("model: pipeline not loaded")
	}
	x := p.Encoder.Transform(row)
	if len(x) != p.Forest.Width {
		return 0, fmt.Errorf("model: encoded %d features, forest expects %d", len(x), p.Forest.Width)
	}
	return p.Forest.Predict(x), nil
}

// Accuracy is the share of ds rows predicted correctly.
func (p *Pipeline) Accuracy(ds *Dataset) (float64, error) {
	if len(ds.Rows) == 0 {
		return 0, nil
	}
	correct := 0
	for i, r := range ds.Rows {
		got, err := p.Predict(r)
		if err != nil {
			return 0, err
		}
		if got == ds.Labels[i] {
			correct++
		}
	}
	return float64(correct) / float64(len(ds.Rows)), nil
}

// WriteTo writes the header followed by the zstd compressed gob stream.
func (p *Pipeline) WriteTo(w io.Writer) (int64, error) {
	cw := &countingWriter{w: w}
	if _, err := cw.Write(append(append([]byte{}, magic...), formatVersion)); err != nil {
		return cw.n, err
	}
	zw, err := zstd.NewWriter(cw)
	if err != nil {
		return cw.n, err
	}
	if err := gob.NewEncoder(zw).Encode(p); err != nil {
		zw.Close()
		return cw.n, fmt.Errorf("encode pipeline: %w", err)
	}
	if err := zw.Close(); err != nil {
		return cw.n, err
	}
	return cw.n, nil
}

// Read decodes a pipeline written by WriteTo.
func Read(r io.Reader) (*Pipeline, error) {
	br := bufio.NewReader(r)
	head := make([]byte, len(magic)+1)
	if _, err := io.ReadFull(br, head); err != nil {
		return nil, ErrBadFormat
	}
	if !bytes.Equal(head[:len(magic)], magic) {
		return nil, ErrBadFormat
	}
	if head[len(magic)] != formatVersion {
		return nil, fmt.Errorf("%w: version %d", ErrBadFormat, head[len(magic)])
	}

	zr, err := zstd.NewReader(br)
	if err != nil {
		return nil, err
	}
	defer zr.Close()

	var p Pipeline
	if err := gob.NewDecoder(zr).Decode(&p); err != nil {
		return nil, fmt.Errorf("decode pipeline: %w", err)
	}
	if p.Encoder == nil || p.Forest == nil {
		return nil, ErrBadFormat
	}
	return &p, nil
}

// Save writes the pipeline to path, creating parent directories.
func (p *Pipeline) Save(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if _, err := p.WriteTo(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// Load reads a pipeline file from path.
func Load(path string) (*Pipeline, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Read(f)
}

type countingWriter struct {
	w io.Writer
	n int64
}

func (c *countingWriter) Write(b []byte) (int, error) {
	n, err := c.w.Write(b)
	c.n += int64(n)
	return n, err
}
