package loader

import (
	"bufio"
	"compress/gzip"
	"context"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/go-sift/sift/internal/dataset"
)

// idx magic numbers: unsigned byte payload, 3 dims for images and 1 for labels.
const (
	idxImagesMagic uint32 = 0x00000803
	idxLabelsMagic uint32 = 0x00000801
)

type idxLoader struct {
	opts Options
}

func newIDXLoader(opts Options) *idxLoader {
	return &idxLoader{opts: opts}
}

// Load reads an mnist-style image archive from source and the matching label
// archive from the LabelsSource option. Plain and gzip-compressed archives
// are both accepted; pixels are normalized to [0,1].
func (l *idxLoader) Load(ctx context.Context, source string) (*dataset.Dataset, error) {
	if l.opts.LabelsSource == "" {
		return nil, fmt.Errorf("idx loader requires a labels source")
	}

	images, rows, cols, err := l.readImages(ctx, source)
	if err != nil {
		return nil, fmt.Errorf("unable read idx images: %w", err)
	}
	labels, err := l.readLabels(ctx, l.opts.LabelsSource)
	if err != nil {
		return nil, fmt.Errorf("unable read idx labels: %w", err)
	}
	if len(images) != len(labels) {
		return nil, fmt.Errorf("idx archives disagree: %d images, %d labels", len(images), len(labels))
	}

	name := l.opts.Name
	if name == "" {
		name = nameOf(source)
	}
	d, err := dataset.New(name, images, labels)
	if err != nil {
		return nil, fmt.Errorf("unable build dataset from idx: %w", err)
	}
	d.FeatureNames = pixelNames(rows, cols)
	return d, nil
}

func (l *idxLoader) readImages(ctx context.Context, source string) ([][]float64, int, int, error) {
	rc, err := openSource(ctx, source)
	if err != nil {
		return nil, 0, 0, err
	}
	defer rc.Close()

	r, err := maybeGunzip(rc)
	if err != nil {
		return nil, 0, 0, err
	}

	var header [4]uint32
	for i := range header {
		if err := binary.Read(r, binary.BigEndian, &header[i]); err != nil {
			return nil, 0, 0, fmt.Errorf("unable read header: %w", err)
		}
	}
	if header[0] != idxImagesMagic {
		return nil, 0, 0, fmt.Errorf("bad images magic: 0x%08x", header[0])
	}
	count, rows, cols := int(header[1]), int(header[2]), int(header[3])
	if rows <= 0 || cols <= 0 {
		return nil, 0, 0, fmt.Errorf("bad image dims: %dx%d", rows, cols)
	}

	pixels := rows * cols
	buf := make([]byte, pixels)
	images := make([][]float64, count)
	for i := 0; i < count; i++ {
		if _, err := io.ReadFull(r, buf); err != nil {
			return nil, 0, 0, fmt.Errorf("unable read image %d: %w", i, err)
		}
		img := make([]float64, pixels)
		for p, b := range buf {
			img[p] = float64(b) / 255.0
		}
		images[i] = img
	}
	return images, rows, cols, nil
}

func (l *idxLoader) readLabels(ctx context.Context, source string) ([]int, error) {
	rc, err := openSource(ctx, source)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	r, err := maybeGunzip(rc)
	if err != nil {
		return nil, err
	}

	var header [2]uint32
	for i := range header {
		if err := binary.Read(r, binary.BigEndian, &header[i]); err != nil {
			return nil, fmt.Errorf("unable read header: %w", err)
		}
	}
	if header[0] != idxLabelsMagic {
		return nil, fmt.Errorf("bad labels magic: 0x%08x", header[0])
	}
	count := int(header[1])

	buf := make([]byte, count)
	if _, err := io.ReadFull(r, buf); err != nil {
		return nil, fmt.Errorf("unable read labels: %w", err)
	}
	labels := make([]int, count)
	for i, b := range buf {
		labels[i] = int(b)
	}
	return labels, nil
}

func maybeGunzip(rc io.Reader) (io.Reader, error) {
	br := bufio.NewReader(rc)
	magic, err := br.Peek(2)
	if err != nil {
		return nil, fmt.Errorf("unable peek archive: %w", err)
	}
	if magic[0] == 0x1f && magic[1] == 0x8b {
		gz, err := gzip.NewReader(br)
		if err != nil {
			return nil, fmt.Errorf("unable open gzip archive: %w", err)
		}
		return gz, nil
	}
	return br, nil
}

func pixelNames(rows, cols int) []string {
	names := make([]string, 0, rows*cols)
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			names = append(names, fmt.Sprintf("px_%d_%d", r, c))
		}
	}
	return names
}
