package support

import (
	"bytes"
	"fmt"
	"image/color"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/MeKo-Tech/yolo2coco/internal/coco"
	"github.com/cucumber/godog"
	"github.com/disintegration/imaging"
)

func (testCtx *TestContext) aDatasetDirectory() error {
	for _, dir := range []string{testCtx.ImagesDir, testCtx.LabelsDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create %s: %w", dir, err)
		}
	}
	return nil
}

func (testCtx *TestContext) anImageOfSize(name string, width, height int) error {
	img := imaging.New(width, height, color.NRGBA{R: 40, G: 160, B: 60, A: 255})
	if err := imaging.Save(img, filepath.Join(testCtx.ImagesDir, name)); err != nil {
		return fmt.Errorf("failed to write image %s: %w", name, err)
	}
	return nil
}

func (testCtx *TestContext) anImageFileContaining(name, content string) error {
	return os.WriteFile(filepath.Join(testCtx.ImagesDir, name), []byte(content), 0o600)
}

func (testCtx *TestContext) aLabelFileWithLines(name string, doc *godog.DocString) error {
	content := strings.TrimSpace(doc.Content) + "\n"
	return os.WriteFile(filepath.Join(testCtx.LabelsDir, name), []byte(content), 0o600)
}

func (testCtx *TestContext) aLabelFileContaining(name, line string) error {
	return os.WriteFile(filepath.Join(testCtx.LabelsDir, name), []byte(line+"\n"), 0o600)
}

func (testCtx *TestContext) aConfigFileWith(name string, doc *godog.DocString) error {
	path := testCtx.path(name)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, []byte(doc.Content), 0o600)
}

func (testCtx *TestContext) theDatasetIsWrittenTo(name string) error {
	testCtx.DatasetPath = testCtx.path(name)
	return testCtx.theFileShouldExist(name)
}

func (testCtx *TestContext) readDataset() (*coco.Dataset, error) {
	ds, err := coco.ReadFile(testCtx.DatasetPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read dataset: %w", err)
	}
	return ds, nil
}

func (testCtx *TestContext) theDatasetShouldHaveImages(n int) error {
	ds, err := testCtx.readDataset()
	if err != nil {
		return err
	}
	if len(ds.Images) != n {
		return fmt.Errorf("expected %d images, got %d", n, len(ds.Images))
	}
	return nil
}

func (testCtx *TestContext) theDatasetShouldHaveAnnotations(n int) error {
	ds, err := testCtx.readDataset()
	if err != nil {
		return err
	}
	if len(ds.Annotations) != n {
		return fmt.Errorf("expected %d annotations, got %d", n, len(ds.Annotations))
	}
	return nil
}

func (testCtx *TestContext) imageShouldBe(id int, name string, width, height int) error {
	ds, err := testCtx.readDataset()
	if err != nil {
		return err
	}
	for _, img := range ds.Images {
		if img.ID != id {
			continue
		}
		if img.FileName != name || img.Width != width || img.Height != height {
			return fmt.Errorf("image %d is %s %dx%d, want %s %dx%d",
				id, img.FileName, img.Width, img.Height, name, width, height)
		}
		return nil
	}
	return fmt.Errorf("no image with id %d", id)
}

func (testCtx *TestContext) findAnnotation(id int) (*coco.Annotation, error) {
	ds, err := testCtx.readDataset()
	if err != nil {
		return nil, err
	}
	for i := range ds.Annotations {
		if ds.Annotations[i].ID == id {
			return &ds.Annotations[i], nil
		}
	}
	return nil, fmt.Errorf("no annotation with id %d", id)
}

func (testCtx *TestContext) annotationShouldHaveBBoxAndArea(id int, bbox string, area float64) error {
	ann, err := testCtx.findAnnotation(id)
	if err != nil {
		return err
	}

	parts := strings.Split(bbox, ",")
	if len(parts) != 4 {
		return fmt.Errorf("bbox %q must have four values", bbox)
	}
	for i, p := range parts {
		want, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return err
		}
		if math.Abs(ann.BBox[i]-want) > 1e-6 {
			return fmt.Errorf("annotation %d bbox = %v, want [%s]", id, ann.BBox, bbox)
		}
	}
	if math.Abs(ann.Area-area) > 1e-6 {
		return fmt.Errorf("annotation %d area = %v, want %v", id, ann.Area, area)
	}
	return nil
}

func (testCtx *TestContext) annotationShouldReference(id, imageID, categoryID int) error {
	ann, err := testCtx.findAnnotation(id)
	if err != nil {
		return err
	}
	if ann.ImageID != imageID || ann.CategoryID != categoryID {
		return fmt.Errorf("annotation %d references image %d category %d, want image %d category %d",
			id, ann.ImageID, ann.CategoryID, imageID, categoryID)
	}
	if ann.IsCrowd != 0 {
		return fmt.Errorf("annotation %d has iscrowd %d", id, ann.IsCrowd)
	}
	return nil
}

func (testCtx *TestContext) theDatasetCategoriesShouldBe(list string) error {
	ds, err := testCtx.readDataset()
	if err != nil {
		return err
	}
	got := make([]string, len(ds.Categories))
	for i, c := range ds.Categories {
		got[i] = fmt.Sprintf("%d:%s", c.ID, c.Name)
	}
	if strings.Join(got, ",") != list {
		return fmt.Errorf("categories = %s, want %s", strings.Join(got, ","), list)
	}
	return nil
}

// theDatasetFileShouldBeCompact checks for the compact single-line encoding.
func (testCtx *TestContext) theDatasetFileShouldBeCompact() error {
	data, err := os.ReadFile(testCtx.DatasetPath)
	if err != nil {
		return err
	}
	if bytes.ContainsAny(data, "\n\t") || bytes.Contains(data, []byte(": ")) || bytes.Contains(data, []byte(", ")) {
		return fmt.Errorf("dataset file is not compact: %s", data)
	}
	for _, key := range []string{`"info":`, `"images":`, `"annotations":`, `"categories":`} {
		if !bytes.Contains(data, []byte(key)) {
			return fmt.Errorf("dataset file lacks %s", key)
		}
	}
	return nil
}

// RegisterDatasetSteps registers dataset fixtures and output assertions.
func (testCtx *TestContext) RegisterDatasetSteps(sc *godog.ScenarioContext) {
	sc.Step(`^a dataset directory$`, testCtx.aDatasetDirectory)
	sc.Step(`^an image "([^"]*)" of size (\d+)x(\d+)$`, testCtx.anImageOfSize)
	sc.Step(`^an image file "([^"]*)" containing "([^"]*)"$`, testCtx.anImageFileContaining)
	sc.Step(`^a label file "([^"]*)" with:$`, testCtx.aLabelFileWithLines)
	sc.Step(`^a label file "([^"]*)" containing "([^"]*)"$`, testCtx.aLabelFileContaining)
	sc.Step(`^a config file "([^"]*)" with:$`, testCtx.aConfigFileWith)

	sc.Step(`^the dataset is written to "([^"]*)"$`, testCtx.theDatasetIsWrittenTo)
	sc.Step(`^the dataset should have (\d+) images?$`, testCtx.theDatasetShouldHaveImages)
	sc.Step(`^the dataset should have (\d+) annotations?$`, testCtx.theDatasetShouldHaveAnnotations)
	sc.Step(`^image (\d+) should be "([^"]*)" of size (\d+)x(\d+)$`, testCtx.imageShouldBe)
	sc.Step(`^annotation (\d+) should have bbox "([^"]*)" and area ([0-9.]+)$`,
		testCtx.annotationShouldHaveBBoxAndArea)
	sc.Step(`^annotation (\d+) should reference image (\d+) and category (\d+)$`,
		testCtx.annotationShouldReference)
	sc.Step(`^the dataset categories should be "([^"]*)"$`, testCtx.theDatasetCategoriesShouldBe)
	sc.Step(`^the dataset file should be compact JSON$`, testCtx.theDatasetFileShouldBeCompact)
}
