// Package coco holds the COCO detection dataset model and its serialization.
package coco

// Info is the free-form dataset description.
type Info struct {
	Description string `json:"description"`
}

// Image is one entry of the images collection.
type Image struct {
	ID       int    `json:"id"`
	Width    int    `json:"width"`
	Height   int    `json:"height"`
	FileName string `json:"file_name"`
}

// Category maps a class id to its name.
type Category struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// Annotation is one object instance. Segmentation always holds exactly one polygon.
type Annotation struct {
	ID           int         `json:"id"`
	IsCrowd      int         `json:"iscrowd"`
	ImageID      int         `json:"image_id"`
	CategoryID   int         `json:"category_id"`
	Segmentation [][]float64 `json:"segmentation"`
	BBox         [4]float64  `json:"bbox"`
	Area         float64     `json:"area"`
}

// Dataset is the aggregate written to disk.
type Dataset struct {
	Info        Info         `json:"info"`
	Images      []Image      `json:"images"`
	Annotations []Annotation `json:"annotations"`
	Categories  []Category   `json:"categories"`
}
