// Package catalog holds the immutable graph of stories served by the engine.
// A Catalog is built once at startup and is safe for concurrent reads.
package catalog

import (
	"errors"
	"fmt"

	"quest-server/internal/models"
)

// Node returns the node with the given id.
func (s *Story) Node(id string) (*Node, error) {
	if node, ok := s.index[id]; ok {
		return node, nil
	}
	return nil, fmt.Errorf("%w: story %q node %q", models.ErrNodeNotFound, s.ID, id)
}

// FirstNode is the entry point of a fresh session: the first declared node.
func (s *Story) FirstNode() string {
	return s.Nodes[0].ID
}

// prepare validates the definition and builds the node index.
func (s *Story) prepare(file string) error {
	if reasons := validate(s); len(reasons) > 0 {
		return &ContentError{File: file, StoryID: s.ID, Reasons: reasons}
	}
	s.index = make(map[string]*Node, len(s.Nodes))
	for _, node := range s.Nodes {
		s.index[node.ID] = node
	}
	return nil
}

// Catalog is a read-only registry of stories.
type Catalog struct {
	stories  map[string]*Story
	order    []*Story
	rejected []*ContentError
}

// New builds a catalog from already decoded stories. Any invalid story makes
// the whole call fail; use Load for the tolerant, per-story behaviour.
func New(stories ...*Story) (*Catalog, error) {
	c := &Catalog{stories: make(map[string]*Story, len(stories))}
	var errs []error
	for _, s := range stories {
		if err := c.add(s, ""); err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return c, nil
}

func (c *Catalog) add(s *Story, file string) error {
	if err := s.prepare(file); err != nil {
		return err
	}
	if _, dup := c.stories[s.ID]; dup {
		return &ContentError{File: file, StoryID: s.ID, Reasons: []string{"duplicate story id"}}
	}
	c.stories[s.ID] = s
	c.order = append(c.order, s)
	return nil
}

// Get returns a story by id.
func (c *Catalog) Get(storyID string) (*Story, error) {
	if s, ok := c.stories[storyID]; ok {
		return s, nil
	}
	return nil, fmt.Errorf("%w: %q", models.ErrStoryNotFound, storyID)
}

// FirstNode returns the entry node of the story.
func (c *Catalog) FirstNode(s *Story) string {
	return s.FirstNode()
}

// Stories returns the loaded stories in load order.
func (c *Catalog) Stories() []*Story {
	out := make([]*Story, len(c.order))
	copy(out, c.order)
	return out
}

// Rejected returns the content errors collected by Load.
func (c *Catalog) Rejected() []*ContentError {
	return c.rejected
}

// OptionKeys lists the natural key of every option in the catalog.
func (c *Catalog) OptionKeys() []models.OptionKey {
	var keys []models.OptionKey
	for _, s := range c.order {
		for _, node := range s.Nodes {
			for _, opt := range node.Options {
				keys = append(keys, models.OptionKey{StoryID: s.ID, NodeID: node.ID, Text: opt.Text})
			}
		}
	}
	return keys
}
