package handler

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"quest-server/internal/catalog"
	"quest-server/internal/models"
)

// Кнопки клавиатуры выглядят как "2. Пойти налево"; принимаем и голый номер.
var labelRe = regexp.MustCompile(`^(\d+)(?:\.\s*(.*))?$`)

// matchOption maps player input to an option of node: exact text first, then a numbered label.
func matchOption(node *catalog.Node, input string) (catalog.Option, error) {
	input = strings.TrimSpace(input)
	if opt, ok := node.Option(input); ok {
		return opt, nil
	}

	m := labelRe.FindStringSubmatch(input)
	if m == nil {
		return catalog.Option{}, fmt.Errorf("%w: %q", models.ErrUnknownOption, input)
	}
	idx, err := strconv.Atoi(m[1])
	if err != nil || idx < 1 || idx > len(node.Options) {
		return catalog.Option{}, fmt.Errorf("%w: no option number %s", models.ErrUnknownOption, m[1])
	}
	opt := node.Options[idx-1]
	if m[2] != "" && strings.TrimSpace(m[2]) != opt.Text {
		return catalog.Option{}, fmt.Errorf("%w: label %q does not match option %d", models.ErrUnknownOption, input, idx)
	}
	return opt, nil
}
