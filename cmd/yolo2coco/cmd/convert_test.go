package cmd

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/MeKo-Tech/yolo2coco/internal/coco"
	"github.com/MeKo-Tech/yolo2coco/internal/config"
	"github.com/MeKo-Tech/yolo2coco/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func datasetArgs(ds *testutil.Dataset, extra ...string) []string {
	args := []string{
		"convert",
		"--images", ds.ImagesDir,
		"--labels", ds.LabelsDir,
		"--output", ds.OutputDir,
	}
	return append(args, extra...)
}

func readDataset(t *testing.T, path string) *coco.Dataset {
	t.Helper()
	ds, err := coco.ReadFile(path)
	require.NoError(t, err)
	return ds
}

func TestConvertCommand(t *testing.T) {
	isolate(t)
	ds := testutil.NewDataset(t)
	ds.AddImage(t, "a.png", 100, 200)
	ds.AddLabel(t, "a.txt", testutil.SquareLine)
	ds.AddImage(t, "b.png", 10, 10)

	output, err := execute(t, datasetArgs(ds, "--category", "0=leaf", "--description", "leaves")...)
	require.NoError(t, err, output)

	assert.Contains(t, output, "Conversion complete!")
	assert.Contains(t, output, "Images:         2")
	assert.Contains(t, output, "Annotations:    1")

	out := readDataset(t, filepath.Join(ds.OutputDir, "coco_format.json"))
	assert.Equal(t, "leaves", out.Info.Description)
	assert.Equal(t, []coco.Category{{ID: 0, Name: "leaf"}}, out.Categories)
	require.Len(t, out.Images, 2)
	assert.Equal(t, "a.png", out.Images[0].FileName)
	assert.Equal(t, 1, out.Images[0].ID)
	require.Len(t, out.Annotations, 1)
	assert.Equal(t, [4]float64{10, 20, 40, 80}, out.Annotations[0].BBox)
	assert.InDelta(t, 3200.0, out.Annotations[0].Area, 1e-9)
}

func TestConvertCommandStrictFailure(t *testing.T) {
	isolate(t)
	ds := testutil.NewDataset(t)
	ds.AddImage(t, "a.png", 10, 10)
	ds.AddLabel(t, "a.txt", "0 0.1 abc 0.5 0.1 0.5 0.5")

	_, err := execute(t, datasetArgs(ds, "--strict")...)
	require.Error(t, err)
	assert.NoFileExists(t, filepath.Join(ds.OutputDir, "coco_format.json"))
}

func TestConvertCommandCustomOutputAndExtensions(t *testing.T) {
	isolate(t)
	ds := testutil.NewDataset(t)
	ds.AddImage(t, "a.png", 10, 10)
	ds.AddImage(t, "b.jpg", 20, 10)

	output, err := execute(t, datasetArgs(ds, "--ext", ".jpg", "--ext", "PNG", "--output-file", "train.json")...)
	require.NoError(t, err, output)

	out := readDataset(t, filepath.Join(ds.OutputDir, "train.json"))
	assert.Len(t, out.Images, 2)
}

func TestConvertCommandMetricsFile(t *testing.T) {
	isolate(t)
	ds := testutil.NewDataset(t)
	ds.AddImage(t, "a.png", 10, 10)
	ds.AddLabel(t, "a.txt", testutil.SquareLine)
	metrics := filepath.Join(ds.Root, "run.prom")

	_, err := execute(t, datasetArgs(ds, "--metrics-file", metrics)...)
	require.NoError(t, err)

	data, err := os.ReadFile(metrics)
	require.NoError(t, err)
	assert.Contains(t, string(data), "yolo2coco_annotations_total 1")
}

func TestConvertCommandConfigFile(t *testing.T) {
	dir := isolate(t)
	ds := testutil.NewDataset(t)
	ds.AddImage(t, "a.png", 10, 10)
	ds.AddLabel(t, "a.txt", "3 0.1 0.1 0.5 0.1 0.5 0.5")

	cfgPath := filepath.Join(dir, "custom.yaml")
	cfgDoc := map[string]any{
		"input":   map[string]any{"images_dir": ds.ImagesDir, "labels_dir": ds.LabelsDir},
		"output":  map[string]any{"dir": ds.OutputDir},
		"dataset": map[string]any{"categories": []map[string]any{{"id": 0, "name": "leaf"}}},
		"policy":  map[string]any{"unknown_category": "skip"},
	}
	data, err := json.Marshal(cfgDoc)
	require.NoError(t, err)
	// JSON is valid YAML.
	require.NoError(t, os.WriteFile(cfgPath, data, 0o600))

	output, err := execute(t, "--config", cfgPath, "convert")
	require.NoError(t, err, output)

	out := readDataset(t, filepath.Join(ds.OutputDir, "coco_format.json"))
	assert.Empty(t, out.Annotations, "class 3 is undeclared and the skip policy drops it")
}

func TestConvertCommandFlagOverridesEnv(t *testing.T) {
	isolate(t)
	ds := testutil.NewDataset(t)
	ds.AddImage(t, "a.png", 10, 10)
	t.Setenv("YOLO2COCO_OUTPUT_FILE", "from-env.json")

	_, err := execute(t, datasetArgs(ds)...)
	require.NoError(t, err)
	assert.FileExists(t, filepath.Join(ds.OutputDir, "from-env.json"))

	_, err = execute(t, datasetArgs(ds, "--output-file", "from-flag.json")...)
	require.NoError(t, err)
	assert.FileExists(t, filepath.Join(ds.OutputDir, "from-flag.json"))
}

func TestConvertCommandMissingImagesDir(t *testing.T) {
	dir := isolate(t)
	_, err := execute(t, "convert",
		"--images", filepath.Join(dir, "nope"),
		"--labels", dir,
		"--output", filepath.Join(dir, "out"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to list images")
}

func TestConvertCommandRejectsArgs(t *testing.T) {
	isolate(t)
	_, err := execute(t, "convert", "extra")
	require.Error(t, err)
}

func TestParseCategoryFlags(t *testing.T) {
	cats, err := parseCategoryFlags([]string{"0=person", " 2 = traffic light "})
	require.NoError(t, err)
	assert.Equal(t, []config.CategoryConfig{{ID: 0, Name: "person"}, {ID: 2, Name: "traffic light"}}, cats)

	for _, bad := range []string{"person", "x=person", "1="} {
		_, err := parseCategoryFlags([]string{bad})
		assert.Error(t, err, bad)
	}
}

func TestConvertCommandDuplicateCategoryFlag(t *testing.T) {
	isolate(t)
	ds := testutil.NewDataset(t)

	_, err := execute(t, datasetArgs(ds, "--category", "0=a", "--category", "0=b")...)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate category id 0")
}
