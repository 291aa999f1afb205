package catalog

import "fmt"

// validate returns every problem found in the story definition.
// An empty result means the story can be indexed and served.
func validate(s *Story) []string {
	var reasons []string
	if s.ID == "" {
		reasons = append(reasons, "story id is required")
	}
	if s.Title == "" {
		reasons = append(reasons, "story title is required")
	}
	if len(s.Nodes) == 0 {
		reasons = append(reasons, "story has no nodes")
		return reasons
	}

	known := make(map[string]struct{}, len(s.Nodes))
	produced := make(map[string]struct{})
	for i, node := range s.Nodes {
		if node == nil {
			reasons = append(reasons, fmt.Sprintf("node #%d is empty", i+1))
			continue
		}
		if node.ID == "" {
			reasons = append(reasons, fmt.Sprintf("node #%d has no id", i+1))
			continue
		}
		if _, dup := known[node.ID]; dup {
			reasons = append(reasons, fmt.Sprintf("duplicate node id %q", node.ID))
			continue
		}
		known[node.ID] = struct{}{}
		for _, opt := range node.Options {
			if opt.AddItem != "" {
				produced[opt.AddItem] = struct{}{}
			}
		}
	}

	for _, node := range s.Nodes {
		if node == nil || node.ID == "" {
			continue
		}
		texts := make(map[string]struct{}, len(node.Options))
		for j, opt := range node.Options {
			where := fmt.Sprintf("node %q option %q", node.ID, opt.Text)
			if opt.Text == "" {
				reasons = append(reasons, fmt.Sprintf("node %q option #%d has no text", node.ID, j+1))
				continue
			}
			if _, dup := texts[opt.Text]; dup {
				reasons = append(reasons, fmt.Sprintf("node %q has duplicate option text %q", node.ID, opt.Text))
				continue
			}
			texts[opt.Text] = struct{}{}

			if opt.IsChance() {
				if c := *opt.Chance; c < 0 || c > 100 {
					reasons = append(reasons, fmt.Sprintf("%s: chance %d is outside 0..100", where, c))
				}
				if opt.SuccessID == "" || opt.FailID == "" {
					reasons = append(reasons, fmt.Sprintf("%s: chance requires both success_id and fail_id", where))
				}
			} else if opt.NextID == "" {
				reasons = append(reasons, fmt.Sprintf("%s: next_id is required", where))
			}

			for _, target := range opt.Targets() {
				if target == "" {
					continue
				}
				if _, ok := known[target]; !ok {
					reasons = append(reasons, fmt.Sprintf("%s: references unknown node %q", where, target))
				}
			}

			// Inventory always starts empty, so an item nobody hands out can never be held.
			if opt.RequiredItem != "" {
				if _, ok := produced[opt.RequiredItem]; !ok {
					reasons = append(reasons, fmt.Sprintf("%s: required item %q is never added", where, opt.RequiredItem))
				}
			}
			if opt.RemoveItem != "" {
				if _, ok := produced[opt.RemoveItem]; !ok {
					reasons = append(reasons, fmt.Sprintf("%s: removed item %q is never added", where, opt.RemoveItem))
				}
			}
		}
	}
	return reasons
}
