// Package ingest loads the on-disk dataset collection into the in-memory
// grid model. The input directory is organized as
// <root>/<sector>/<variable>/ with one or more JSON dataset files per
// variable; multi-file variables are concatenated along the time axis.
package ingest

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"waterprep/internal/convention"
	"waterprep/internal/grid"
	"waterprep/internal/preprocess"
	"waterprep/pkg/errors"
)

// fileDataset is the on-disk JSON layout of one dataset file.
type fileDataset struct {
	Variables []fileVariable `json:"variables"`
	Time      []string       `json:"time,omitempty"`
	Lat       []float64      `json:"lat,omitempty"`
	Lon       []float64      `json:"lon,omitempty"`
}

type fileVariable struct {
	Name  string      `json:"name"`
	Units string      `json:"units,omitempty"`
	Data  [][]float64 `json:"data,omitempty"`
}

// timeLayouts are the accepted timestamp formats, tried in order.
var timeLayouts = []string{
	"2006-01-02",
	time.RFC3339,
	"2006-01-02T15:04:05",
}

// LoadCollection walks the input directory and assembles the ordered item
// list for the pipeline. Sectors and variables are visited in the order
// the convention declares them, so two runs over the same tree always
// produce the same item sequence. A sector or variable directory that
// does not exist is skipped silently; a file that exists but cannot be
// decoded fails the load.
func LoadCollection(root string, conv *convention.Convention) ([]preprocess.Item, error) {
	sectors := make([]string, 0, len(conv.SectorRequirements))
	for name := range conv.SectorRequirements {
		sectors = append(sectors, name)
	}
	sort.Strings(sectors)

	var items []preprocess.Item
	for _, sector := range sectors {
		req := conv.Sector(sector)
		for _, variable := range req.ExpectedVars {
			dir := filepath.Join(root, sector, variable)
			ds, err := loadVariableDir(dir)
			if err != nil {
				return nil, err
			}
			if ds == nil {
				continue
			}
			items = append(items, preprocess.Item{
				Dataset:  ds,
				Sector:   sector,
				Variable: variable,
			})
		}
	}
	return items, nil
}

// loadVariableDir reads every JSON file in one variable directory, sorted
// by filename, and concatenates them along the time axis. A missing
// directory or one without JSON files yields (nil, nil).
func loadVariableDir(dir string) (*grid.Dataset, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read dataset directory %s: %w", dir, err)
	}

	var files []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(strings.ToLower(e.Name()), ".json") {
			continue
		}
		files = append(files, filepath.Join(dir, e.Name()))
	}
	if len(files) == 0 {
		return nil, nil
	}
	sort.Strings(files)

	var combined *grid.Dataset
	for _, path := range files {
		ds, err := LoadFile(path)
		if err != nil {
			return nil, err
		}
		if combined == nil {
			combined = ds
			continue
		}
		appendAlongTime(combined, ds)
	}

	if combined.HasTime() {
		sortByTime(combined)
	}
	return combined, nil
}

// LoadFile decodes one JSON dataset file.
func LoadFile(path string) (*grid.Dataset, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.NewDatasetParseError(path, err.Error())
	}
	return Decode(raw, path)
}

// Decode unmarshals raw JSON dataset bytes. The path is used only for
// error reporting.
func Decode(raw []byte, path string) (*grid.Dataset, error) {
	var fd fileDataset
	if err := json.Unmarshal(raw, &fd); err != nil {
		return nil, errors.NewDatasetParseError(path, err.Error())
	}
	if len(fd.Variables) == 0 {
		return nil, errors.NewDatasetParseError(path, "dataset declares no variables")
	}

	ds := &grid.Dataset{
		Vars: make([]grid.Variable, len(fd.Variables)),
		Axis: grid.Axis{Lat: fd.Lat, Lon: fd.Lon},
	}
	for i, v := range fd.Variables {
		ds.Vars[i] = grid.Variable{Name: v.Name, Units: v.Units, Data: v.Data}
	}

	for _, s := range fd.Time {
		t, err := parseTime(s)
		if err != nil {
			return nil, errors.NewDatasetParseError(path, fmt.Sprintf("bad timestamp %q", s))
		}
		ds.Time = append(ds.Time, t)
	}
	return ds, nil
}

// appendAlongTime concatenates src's time slices onto dst. The first
// file's variable metadata and spatial axis win; later files only
// contribute rows and timestamps.
func appendAlongTime(dst, src *grid.Dataset) {
	dst.Time = append(dst.Time, src.Time...)
	for i := range dst.Vars {
		if i < len(src.Vars) {
			dst.Vars[i].Data = append(dst.Vars[i].Data, src.Vars[i].Data...)
		}
	}
}

// sortByTime orders the time axis ascending and permutes every variable's
// rows in step.
func sortByTime(ds *grid.Dataset) {
	order := make([]int, len(ds.Time))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return ds.Time[order[a]].Before(ds.Time[order[b]])
	})

	sortedTime := make([]time.Time, len(order))
	for i, idx := range order {
		sortedTime[i] = ds.Time[idx]
	}
	ds.Time = sortedTime

	for v := range ds.Vars {
		if len(ds.Vars[v].Data) != len(order) {
			continue
		}
		rows := make([][]float64, len(order))
		for i, idx := range order {
			rows[i] = ds.Vars[v].Data[idx]
		}
		ds.Vars[v].Data = rows
	}
}

func parseTime(s string) (time.Time, error) {
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized time format: %s", s)
}
