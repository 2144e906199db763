// Package embedder runs local CLIP-style two-tower inference: an image
// encoder and a text encoder exported to ONNX, producing embeddings in a
// shared space.
package embedder

import (
	"fmt"
	"image"
	"path/filepath"
)

// Embedder produces vector embeddings from images and texts.
type Embedder interface {
	EmbedImage(img image.Image) ([]float32, error)
	EmbedTexts(texts []string) ([][]float32, error)
	Device() string
	Close() error
}

// CLIP wraps the visual and textual ONNX sessions plus the BPE tokenizer.
// Expensive to construct; create once per process and share.
type CLIP struct {
	visual  *imageSession
	textual *textSession
	tok     *tokenizer
	device  string
}

// New loads the model files from dir. Expected layout: visual.onnx,
// textual.onnx, vocab.json, merges.txt, libonnxruntime.so. An accelerator
// execution provider is attempted first; falling back to CPU is not an
// error and is reflected in Device().
func New(dir string) (*CLIP, error) {
	if err := initORT(filepath.Join(dir, "libonnxruntime.so")); err != nil {
		return nil, fmt.Errorf("embedder: %w", err)
	}

	device := selectDevice()

	visual, err := newImageSession(filepath.Join(dir, "visual.onnx"), device)
	if err != nil {
		return nil, fmt.Errorf("embedder: %w", err)
	}

	textual, err := newTextSession(filepath.Join(dir, "textual.onnx"), device)
	if err != nil {
		visual.close()
		return nil, fmt.Errorf("embedder: %w", err)
	}

	if visual.embedDim != textual.embedDim {
		visual.close()
		textual.close()
		return nil, fmt.Errorf("embedder: visual dim %d != textual dim %d",
			visual.embedDim, textual.embedDim)
	}

	tok, err := newTokenizer(filepath.Join(dir, "vocab.json"), filepath.Join(dir, "merges.txt"))
	if err != nil {
		visual.close()
		textual.close()
		return nil, fmt.Errorf("embedder: %w", err)
	}

	return &CLIP{visual: visual, textual: textual, tok: tok, device: device}, nil
}

// EmbedDim returns the shared embedding dimensionality.
func (c *CLIP) EmbedDim() int {
	return int(c.visual.embedDim)
}

// Device reports the compute device selected at initialization.
func (c *CLIP) Device() string {
	return c.device
}

// EmbedImage preprocesses img to the model's input resolution and returns
// its embedding vector.
func (c *CLIP) EmbedImage(img image.Image) ([]float32, error) {
	pixels := prepareImage(img)
	vec, err := c.visual.infer(pixels)
	if err != nil {
		return nil, fmt.Errorf("embedder: %w", err)
	}
	return vec, nil
}

// EmbedTexts tokenizes and embeds a batch of texts in one inference call.
func (c *CLIP) EmbedTexts(texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	ids := c.tok.encodeBatch(texts)
	flat, err := c.textual.infer(ids, int64(len(texts)))
	if err != nil {
		return nil, fmt.Errorf("embedder: %w", err)
	}

	dim := c.textual.embedDim
	vecs := make([][]float32, len(texts))
	for i := range texts {
		vecs[i] = flat[int64(i)*dim : int64(i+1)*dim]
	}
	return vecs, nil
}

// Close releases ONNX Runtime resources.
func (c *CLIP) Close() error {
	var first error
	if c.visual != nil {
		if err := c.visual.close(); err != nil {
			first = err
		}
	}
	if c.textual != nil {
		if err := c.textual.close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}
