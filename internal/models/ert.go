// internal/models/ert.go
package models

// ERTSection is a gridded resistivity pseudo-section. Grid is indexed
// [zi][xi]; cells without a measurement hold NaN.
type ERTSection struct {
	Xs   []float64   `json:"xs"`
	Zs   []float64   `json:"zs"`
	Grid [][]float64 `json:"grid"`

	// Synthetic marks sections generated by the fallback renderer rather
	// than parsed from survey data.
	Synthetic bool `json:"synthetic"`
}

// ERTArtifacts are the files produced by processing one ERT upload.
type ERTArtifacts struct {
	ImagePath string `json:"imagePath"`
	ModelPath string `json:"modelPath"`
}

// Width returns the number of grid columns.
func (s *ERTSection) Width() int {
	return len(s.Xs)
}

// Height returns the number of grid rows.
func (s *ERTSection) Height() int {
	return len(s.Zs)
}
