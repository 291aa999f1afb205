package catalog

import (
	"encoding/json"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// Lines is node display text. Content may provide it either as a single
// string or as a list of lines.
type Lines []string

// UnmarshalJSON accepts both "text" and ["line 1", "line 2"].
func (l *Lines) UnmarshalJSON(data []byte) error {
	var single string
	if err := json.Unmarshal(data, &single); err == nil {
		*l = splitLines(single)
		return nil
	}
	var many []string
	if err := json.Unmarshal(data, &many); err != nil {
		return fmt.Errorf("text must be a string or a list of strings: %w", err)
	}
	*l = many
	return nil
}

// UnmarshalYAML accepts both a scalar and a sequence of scalars.
func (l *Lines) UnmarshalYAML(value *yaml.Node) error {
	switch value.Kind {
	case yaml.ScalarNode:
		var single string
		if err := value.Decode(&single); err != nil {
			return err
		}
		*l = splitLines(single)
		return nil
	case yaml.SequenceNode:
		var many []string
		if err := value.Decode(&many); err != nil {
			return err
		}
		*l = many
		return nil
	default:
		return fmt.Errorf("line %d: text must be a string or a list of strings", value.Line)
	}
}

// String joins the lines back into a single block of text.
func (l Lines) String() string {
	return strings.Join(l, "\n")
}

func splitLines(s string) Lines {
	s = strings.TrimRight(s, "\n")
	if s == "" {
		return nil
	}
	return strings.Split(s, "\n")
}

// Option is a labelled edge between two nodes of a story.
type Option struct {
	Text         string `json:"text" yaml:"text"`
	NextID       string `json:"next_id,omitempty" yaml:"next_id,omitempty"`
	RequiredItem string `json:"required_item,omitempty" yaml:"required_item,omitempty"`
	AddItem      string `json:"add_item,omitempty" yaml:"add_item,omitempty"`
	RemoveItem   string `json:"remove_item,omitempty" yaml:"remove_item,omitempty"`
	// Chance (0-100) replaces NextID with a draw between SuccessID and FailID.
	Chance    *int   `json:"chance,omitempty" yaml:"chance,omitempty"`
	SuccessID string `json:"success_id,omitempty" yaml:"success_id,omitempty"`
	FailID    string `json:"fail_id,omitempty" yaml:"fail_id,omitempty"`
}

// IsChance reports whether the destination is chosen at random.
func (o Option) IsChance() bool {
	return o.Chance != nil
}

// Targets returns every node id the option may lead to.
func (o Option) Targets() []string {
	if o.IsChance() {
		return []string{o.SuccessID, o.FailID}
	}
	return []string{o.NextID}
}

// Node is a point of the narrative graph.
type Node struct {
	ID      string   `json:"id" yaml:"id"`
	Text    Lines    `json:"text" yaml:"text"`
	Options []Option `json:"options" yaml:"options"`
}

// IsTerminal reports whether reaching the node finishes the story.
func (n *Node) IsTerminal() bool {
	return len(n.Options) == 0
}

// Option looks an option up by its display text.
func (n *Node) Option(text string) (Option, bool) {
	for _, opt := range n.Options {
		if opt.Text == text {
			return opt, true
		}
	}
	return Option{}, false
}

// Story is an immutable graph of nodes. Nodes keep their declaration order.
type Story struct {
	ID    string  `json:"id" yaml:"id"`
	Title string  `json:"title" yaml:"title"`
	Nodes []*Node `json:"nodes" yaml:"nodes"`

	index map[string]*Node
}
