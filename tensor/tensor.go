// Package tensor provides a fixed-shape float32 buffer that is allocated once
// and reused. All element access is bounds checked against the shape.
package tensor

import (
	"fmt"
	"strings"
)

type Shape []int64

func NewShape(dims ...int64) Shape {
	return Shape(dims)
}

func (s Shape) Elements() int64 {
	if len(s) == 0 {
		return 0
	}
	n := int64(1)
	for _, d := range s {
		n *= d
	}
	return n
}

func (s Shape) Equal(other Shape) bool {
	if len(s) != len(other) {
		return false
	}
	for i := range s {
		if s[i] != other[i] {
			return false
		}
	}
	return true
}

func (s Shape) String() string {
	parts := make([]string, len(s))
	for i, d := range s {
		parts[i] = fmt.Sprintf("%d", d)
	}
	return "[" + strings.Join(parts, " ") + "]"
}

type Tensor struct {
	shape Shape
	data  []float32
}

func New(shape Shape) (*Tensor, error) {
	for _, d := range shape {
		if d <= 0 {
			return nil, fmt.Errorf("invalid tensor shape %s", shape)
		}
	}
	if len(shape) == 0 {
		return nil, fmt.Errorf("empty tensor shape")
	}
	return &Tensor{
		shape: append(Shape(nil), shape...),
		data:  make([]float32, shape.Elements()),
	}, nil
}

func (t *Tensor) Shape() Shape {
	return append(Shape(nil), t.shape...)
}

func (t *Tensor) Len() int {
	return len(t.data)
}

// Data exposes the backing slice. It is overwritten on every reuse of the tensor.
func (t *Tensor) Data() []float32 {
	return t.data
}

func (t *Tensor) offset(idx []int) (int, error) {
	if len(idx) != len(t.shape) {
		return 0, fmt.Errorf("index rank %d does not match tensor rank %d", len(idx), len(t.shape))
	}
	off := 0
	for i, v := range idx {
		if v < 0 || int64(v) >= t.shape[i] {
			return 0, fmt.Errorf("index %v out of range for shape %s", idx, t.shape)
		}
		off = off*int(t.shape[i]) + v
	}
	return off, nil
}

func (t *Tensor) At(idx ...int) (float32, error) {
	off, err := t.offset(idx)
	if err != nil {
		return 0, err
	}
	return t.data[off], nil
}

func (t *Tensor) Set(v float32, idx ...int) error {
	off, err := t.offset(idx)
	if err != nil {
		return err
	}
	t.data[off] = v
	return nil
}

// CopyFrom overwrites the tensor with src, which must have exactly Len elements.
func (t *Tensor) CopyFrom(src []float32) error {
	if len(src) != len(t.data) {
		return fmt.Errorf("copy of %d elements into tensor of shape %s (%d elements)", len(src), t.shape, len(t.data))
	}
	copy(t.data, src)
	return nil
}

// CopyTo writes the tensor into dst, which must have exactly Len elements.
func (t *Tensor) CopyTo(dst []float32) error {
	if len(dst) != len(t.data) {
		return fmt.Errorf("copy of tensor of shape %s (%d elements) into %d elements", t.shape, len(t.data), len(dst))
	}
	copy(dst, t.data)
	return nil
}

func (t *Tensor) Zero() {
	for i := range t.data {
		t.data[i] = 0
	}
}
