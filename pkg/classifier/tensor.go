package classifier

// ImageSize is the side length the model input is resized to.
const ImageSize = 128

const tensorLen = 1 * ImageSize * ImageSize * 1

// Tensor holds one normalized grayscale image in NHWC layout with shape
// (1, ImageSize, ImageSize, 1). Every value lies in [0, 1].
type Tensor struct {
	data []float32
}

func newTensor() *Tensor {
	return &Tensor{data: make([]float32, tensorLen)}
}

func (t *Tensor) Data() []float32 {
	return t.data
}

func (t *Tensor) Shape() []int64 {
	return []int64{1, ImageSize, ImageSize, 1}
}

// At returns the normalized value of the pixel at row y, column x.
func (t *Tensor) At(y, x int) float32 {
	return t.data[y*ImageSize+x]
}
