package onnx

import "fmt"

// Tensor is a runtime-neutral dense tensor of float32 or int64 data.
type Tensor struct {
	shape []int64
	data  any
}

// NewTensor validates the shape against the data length and wraps both.
func NewTensor[T ~int64 | ~float32](data []T, shape []int64) (*Tensor, error) {
	count := int64(1)
	for _, dim := range shape {
		if dim < 0 {
			return nil, fmt.Errorf("negative dimension %d in shape %v", dim, shape)
		}
		count *= dim
	}
	if count != int64(len(data)) {
		return nil, fmt.Errorf("shape %v wants %d elements, data has %d", shape, count, len(data))
	}

	t := &Tensor{shape: append([]int64(nil), shape...)}
	switch any(*new(T)).(type) {
	case float32:
		converted := make([]float32, len(data))
		for i, v := range data {
			converted[i] = float32(v)
		}
		t.data = converted
	case int64:
		converted := make([]int64, len(data))
		for i, v := range data {
			converted[i] = int64(v)
		}
		t.data = converted
	default:
		return nil, fmt.Errorf("unsupported tensor element type %T", *new(T))
	}
	return t, nil
}

// Shape returns the tensor dimensions.
func (t *Tensor) Shape() []int64 { return t.shape }

// Data returns the backing slice, either []float32 or []int64.
func (t *Tensor) Data() any { return t.data }

// Float32 returns the backing data as []float32.
func (t *Tensor) Float32() ([]float32, error) {
	d, ok := t.data.([]float32)
	if !ok {
		return nil, fmt.Errorf("tensor holds %T, not []float32", t.data)
	}
	return d, nil
}
