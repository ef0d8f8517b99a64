package coco

import (
	"errors"
	"fmt"

	"github.com/MeKo-Tech/yolo2coco/internal/geometry"
)

var (
	// ErrDuplicateImage is returned when an image id is added twice.
	ErrDuplicateImage = errors.New("duplicate image id")
	// ErrUnknownImage is returned when an annotation references an image that was never added.
	ErrUnknownImage = errors.New("unknown image id")
	// ErrNonFinite is returned when a polygon's coordinates, bbox or area overflow
	// to Inf or NaN. Such values have no JSON encoding.
	ErrNonFinite = errors.New("non-finite geometry")
)

// Builder accumulates images and annotations and owns the annotation id counter.
// Annotation ids start at 0 and grow by one per accepted annotation.
type Builder struct {
	dataset  Dataset
	imageIDs map[int]struct{}
	nextID   int
}

// NewBuilder starts an empty dataset with the given info and categories.
func NewBuilder(info Info, categories []Category) *Builder {
	cats := make([]Category, len(categories))
	copy(cats, categories)
	return &Builder{
		dataset: Dataset{
			Info:        info,
			Images:      []Image{},
			Annotations: []Annotation{},
			Categories:  cats,
		},
		imageIDs: make(map[int]struct{}),
	}
}

// AddImage appends an image record.
func (b *Builder) AddImage(img Image) error {
	if _, ok := b.imageIDs[img.ID]; ok {
		return fmt.Errorf("%w: %d", ErrDuplicateImage, img.ID)
	}
	b.imageIDs[img.ID] = struct{}{}
	b.dataset.Images = append(b.dataset.Images, img)
	return nil
}

// AddPolygon derives bbox and area from a pixel-space polygon, assigns the next
// annotation id and appends the annotation. A rejected polygon does not
// consume an id.
func (b *Builder) AddPolygon(imageID, categoryID int, polygon []geometry.Point) (Annotation, error) {
	if _, ok := b.imageIDs[imageID]; !ok {
		return Annotation{}, fmt.Errorf("%w: %d", ErrUnknownImage, imageID)
	}

	flat := geometry.Flatten(polygon)
	bbox := geometry.Bounds(polygon).XYWH()
	area := geometry.PolygonArea(polygon)
	if !geometry.AllFinite(flat...) || !geometry.AllFinite(bbox[:]...) || !geometry.AllFinite(area) {
		return Annotation{}, fmt.Errorf("%w: polygon with %d vertices", ErrNonFinite, len(polygon))
	}

	ann := Annotation{
		ID:           b.nextID,
		IsCrowd:      0,
		ImageID:      imageID,
		CategoryID:   categoryID,
		Segmentation: [][]float64{flat},
		BBox:         bbox,
		Area:         area,
	}
	b.dataset.Annotations = append(b.dataset.Annotations, ann)
	b.nextID++

	return ann, nil
}

// NextAnnotationID returns the id the next accepted annotation will receive.
func (b *Builder) NextAnnotationID() int { return b.nextID }

// Dataset returns the accumulated dataset. The builder must not be used afterwards.
func (b *Builder) Dataset() *Dataset { return &b.dataset }
