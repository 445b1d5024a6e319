package templates

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"

	"github.com/kosarica/pricelist-import/internal/types"
)

var templateExtensions = map[string]bool{
	".yaml": true,
	".yml":  true,
	".json": true,
}

// LoadFile reads one template file
func LoadFile(path string) (types.ImportTemplate, error) {
	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return types.ImportTemplate{}, fmt.Errorf("failed to read template %s: %w", path, err)
	}

	var t types.ImportTemplate
	if err := v.Unmarshal(&t); err != nil {
		return types.ImportTemplate{}, fmt.Errorf("failed to decode template %s: %w", path, err)
	}
	if t.ID == "" {
		t.ID = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	restoreColumnCase(&t)
	return t, nil
}

// LoadDir registers every template file in dir, in file name order. It stops
// at the first invalid template and returns how many were registered.
func (r *Registry) LoadDir(dir string) (int, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return 0, fmt.Errorf("failed to read templates dir: %w", err)
	}

	var files []string
	for _, e := range entries {
		if e.IsDir() || !templateExtensions[strings.ToLower(filepath.Ext(e.Name()))] {
			continue
		}
		files = append(files, filepath.Join(dir, e.Name()))
	}
	sort.Strings(files)

	loaded := 0
	for _, path := range files {
		t, err := LoadFile(path)
		if err != nil {
			return loaded, err
		}
		if err := r.Register(t); err != nil {
			return loaded, fmt.Errorf("%s: %w", path, err)
		}
		loaded++
		log.Debug().Str("template", t.ID).Str("path", path).Msg("Loaded import template")
	}

	log.Info().Int("count", loaded).Str("dir", dir).Msg("Loaded import templates")
	return loaded, nil
}

// restoreColumnCase maps transformation keys, which viper lower-cases, back
// to the column names the template declares
func restoreColumnCase(t *types.ImportTemplate) {
	if len(t.ParseConfig.Transformations) == 0 {
		return
	}

	byLower := make(map[string]string)
	for _, c := range t.ParseConfig.FixedWidthColumns {
		byLower[strings.ToLower(c.Name)] = c.Name
	}
	for _, a := range t.ColumnMapping {
		if _, ok := byLower[strings.ToLower(a.Column)]; !ok {
			byLower[strings.ToLower(a.Column)] = a.Column
		}
	}

	restored := make(map[string]types.TransformationSpec, len(t.ParseConfig.Transformations))
	for column, spec := range t.ParseConfig.Transformations {
		if original, ok := byLower[column]; ok {
			column = original
		}
		restored[column] = spec
	}
	t.ParseConfig.Transformations = restored
}
