package catalog

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// Load reads every story definition (*.json, *.yaml, *.yml) from dir.
// A malformed story is logged and skipped, the rest still load.
// The returned error is reserved for an unreadable directory.
func Load(dir string, logger *zap.Logger) (*Catalog, error) {
	log := logger.Named("Catalog").With(zap.String("dir", dir))

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read stories directory %s: %w", dir, err)
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })

	c := &Catalog{stories: make(map[string]*Story)}
	for _, entry := range entries {
		if entry.IsDir() || !isStoryFile(entry.Name()) {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		story, err := decodeFile(path)
		if err == nil {
			err = c.add(story, entry.Name())
		}
		if err != nil {
			var contentErr *ContentError
			if !errors.As(err, &contentErr) {
				contentErr = &ContentError{File: entry.Name(), Reasons: []string{err.Error()}}
			}
			c.rejected = append(c.rejected, contentErr)
			log.Error("Story rejected", zap.String("file", entry.Name()), zap.String("storyID", contentErr.StoryID), zap.Strings("reasons", contentErr.Reasons))
			continue
		}
		log.Debug("Story loaded", zap.String("storyID", story.ID), zap.Int("nodes", len(story.Nodes)))
	}

	log.Info("Story catalog loaded", zap.Int("stories", len(c.order)), zap.Int("rejected", len(c.rejected)))
	return c, nil
}

func isStoryFile(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".json", ".yaml", ".yml":
		return true
	}
	return false
}

func decodeFile(path string) (*Story, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if strings.EqualFold(filepath.Ext(path), ".json") {
		return decodeJSON(data)
	}
	return decodeYAML(data)
}

func decodeJSON(data []byte) (*Story, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	var s Story
	if err := dec.Decode(&s); err != nil {
		return nil, fmt.Errorf("decode json: %w", err)
	}
	return &s, nil
}

func decodeYAML(data []byte) (*Story, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	var s Story
	if err := dec.Decode(&s); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.New("decode yaml: empty document")
		}
		return nil, fmt.Errorf("decode yaml: %w", err)
	}
	return &s, nil
}
