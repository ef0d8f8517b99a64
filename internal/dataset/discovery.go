// Package dataset discovers the image and label files of a YOLO dataset and
// joins them by filename stem.
package dataset

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// DefaultLabelExtension is the extension of YOLO label files.
const DefaultLabelExtension = ".txt"

// Listing is the result of discovery: sorted image names and a stem keyed label lookup.
type Listing struct {
	ImagesDir string
	LabelsDir string
	// Images holds image base names in lexicographic order.
	Images []string
	// Collisions lists stems that resolve ambiguously, ordered by stem.
	Collisions []StemCollision
	labels     map[string]string
}

// CollisionKind tells which side of the stem join is ambiguous.
type CollisionKind string

const (
	// LabelCollision means several label files share a stem. The last one in
	// lexicographic order is used.
	LabelCollision CollisionKind = "label"
	// ImageCollision means several images share a stem and therefore the
	// same label file.
	ImageCollision CollisionKind = "image"
)

// StemCollision is a group of files whose names reduce to the same stem.
type StemCollision struct {
	Stem  string
	Kind  CollisionKind
	Names []string
}

// Discover lists imagesDir and labelsDir (non-recursively). Images are kept when
// their extension matches one of imageExts, labels when it matches labelExt.
// Extension matching ignores case.
func Discover(imagesDir, labelsDir string, imageExts []string, labelExt string) (*Listing, error) {
	if len(imageExts) == 0 {
		return nil, errors.New("no image extensions configured")
	}
	if labelExt == "" {
		labelExt = DefaultLabelExtension
	}

	images, err := listFiles(imagesDir, imageExts)
	if err != nil {
		return nil, fmt.Errorf("failed to list images: %w", err)
	}
	labelFiles, err := listFiles(labelsDir, []string{labelExt})
	if err != nil {
		return nil, fmt.Errorf("failed to list labels: %w", err)
	}

	labelGroups := groupByStem(labelFiles)
	labels := make(map[string]string, len(labelGroups))
	for stem, names := range labelGroups {
		labels[stem] = names[len(names)-1]
	}

	var collisions []StemCollision
	for stem, names := range labelGroups {
		if len(names) > 1 {
			collisions = append(collisions, StemCollision{Stem: stem, Kind: LabelCollision, Names: names})
		}
	}
	for stem, names := range groupByStem(images) {
		if _, labeled := labels[stem]; labeled && len(names) > 1 {
			collisions = append(collisions, StemCollision{Stem: stem, Kind: ImageCollision, Names: names})
		}
	}
	slices.SortFunc(collisions, func(a, b StemCollision) int {
		if c := strings.Compare(a.Stem, b.Stem); c != 0 {
			return c
		}
		return strings.Compare(string(a.Kind), string(b.Kind))
	})

	return &Listing{
		ImagesDir:  imagesDir,
		LabelsDir:  labelsDir,
		Images:     images,
		Collisions: collisions,
		labels:     labels,
	}, nil
}

// groupByStem keys sorted names by stem; each group keeps the input order.
func groupByStem(names []string) map[string][]string {
	groups := make(map[string][]string, len(names))
	for _, name := range names {
		stem := Stem(name)
		groups[stem] = append(groups[stem], name)
	}
	return groups
}

// ImagePath returns the full path of an image name from the listing.
func (l *Listing) ImagePath(name string) string {
	return filepath.Join(l.ImagesDir, name)
}

// LabelFor returns the label file path for an image name, if one exists.
func (l *Listing) LabelFor(imageName string) (string, bool) {
	name, ok := l.labels[Stem(imageName)]
	if !ok {
		return "", false
	}
	return filepath.Join(l.LabelsDir, name), true
}

// LabelCount returns the number of discovered label files.
func (l *Listing) LabelCount() int { return len(l.labels) }

// OrphanLabels returns label names, sorted, that match no discovered image.
func (l *Listing) OrphanLabels() []string {
	used := make(map[string]struct{}, len(l.Images))
	for _, img := range l.Images {
		used[Stem(img)] = struct{}{}
	}
	var orphans []string
	for stem, name := range l.labels {
		if _, ok := used[stem]; !ok {
			orphans = append(orphans, name)
		}
	}
	slices.Sort(orphans)
	return orphans
}

// Stem returns the file name without its extension, NFC normalized.
func Stem(name string) string {
	base := filepath.Base(name)
	return norm.NFC.String(strings.TrimSuffix(base, filepath.Ext(base)))
}

// HasExtension reports whether name ends in one of exts, ignoring case.
// Extensions may be given with or without the leading dot.
func HasExtension(name string, exts []string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	if ext == "" {
		return false
	}
	for _, e := range exts {
		if ext == NormalizeExtension(e) {
			return true
		}
	}
	return false
}

// NormalizeExtension lowercases ext and ensures a leading dot.
func NormalizeExtension(ext string) string {
	ext = strings.ToLower(strings.TrimSpace(ext))
	if ext != "" && !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	return ext
}

func listFiles(dir string, exts []string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	var files []string
	for _, e := range entries {
		if e.IsDir() || !HasExtension(e.Name(), exts) {
			continue
		}
		files = append(files, e.Name())
	}
	slices.Sort(files)
	return files, nil
}
