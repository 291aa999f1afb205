package catalog_test

import (
	"errors"
	"testing"

	"quest-server/internal/catalog"
	"quest-server/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func intPtr(v int) *int { return &v }

func TestLoad(t *testing.T) {
	c, err := catalog.Load("testdata", zap.NewNop())
	require.NoError(t, err)

	t.Run("valid stories are loaded in file order", func(t *testing.T) {
		stories := c.Stories()
		require.Len(t, stories, 2)
		assert.Equal(t, "forest", stories[0].ID)
		assert.Equal(t, "tower", stories[1].ID)
	})

	t.Run("first node follows declaration order", func(t *testing.T) {
		forest, err := c.Get("forest")
		require.NoError(t, err)
		assert.Equal(t, "start", c.FirstNode(forest))
		assert.Equal(t, "Тёмный лес", forest.Title)

		tower, err := c.Get("tower")
		require.NoError(t, err)
		assert.Equal(t, "gate", c.FirstNode(tower))
	})

	t.Run("text accepts string and list forms", func(t *testing.T) {
		forest, _ := c.Get("forest")
		start, err := forest.Node("start")
		require.NoError(t, err)
		assert.Equal(t, catalog.Lines{"Ты стоишь на опушке.", "Тропа уходит в чащу."}, start.Text)

		clearing, err := forest.Node("clearing")
		require.NoError(t, err)
		assert.Equal(t, catalog.Lines{"На поляне тихо.", "Впереди пещера."}, clearing.Text)

		tower, _ := c.Get("tower")
		hall, err := tower.Node("hall")
		require.NoError(t, err)
		assert.Equal(t, "Зал пуст.\nТолько эхо.", hall.Text.String())
		assert.True(t, hall.IsTerminal())
	})

	t.Run("option attributes are decoded", func(t *testing.T) {
		forest, _ := c.Get("forest")
		clearing, _ := forest.Node("clearing")

		gated, ok := clearing.Option("Войти в пещеру")
		require.True(t, ok)
		assert.Equal(t, "torch", gated.RequiredItem)
		assert.False(t, gated.IsChance())

		jump, ok := clearing.Option("Перепрыгнуть ручей")
		require.True(t, ok)
		require.True(t, jump.IsChance())
		assert.Equal(t, 30, *jump.Chance)
		assert.Equal(t, []string{"cave", "river"}, jump.Targets())
	})

	t.Run("malformed stories are rejected, not loaded", func(t *testing.T) {
		rejected := c.Rejected()
		require.Len(t, rejected, 5)

		files := make([]string, 0, len(rejected))
		for _, r := range rejected {
			files = append(files, r.File)
			assert.True(t, errors.Is(r, models.ErrInvalidContent))
		}
		assert.ElementsMatch(t, []string{
			"03_dangling.json",
			"04_duplicate_option.json",
			"05_half_chance.json",
			"06_duplicate_story.yml",
			"07_unknown_field.json",
		}, files)

		for _, id := range []string{"dangling", "dup-option", "half-chance", "typo"} {
			_, err := c.Get(id)
			assert.ErrorIs(t, err, models.ErrStoryNotFound, id)
		}
		// Второй файл с тем же id не перетирает первый.
		forest, _ := c.Get("forest")
		assert.Equal(t, "Тёмный лес", forest.Title)
	})

	t.Run("unknown ids", func(t *testing.T) {
		_, err := c.Get("nope")
		assert.ErrorIs(t, err, models.ErrStoryNotFound)
		assert.ErrorIs(t, err, models.ErrNotFound)

		forest, _ := c.Get("forest")
		_, err = forest.Node("nope")
		assert.ErrorIs(t, err, models.ErrNodeNotFound)
	})

	t.Run("option keys cover every option", func(t *testing.T) {
		keys := c.OptionKeys()
		assert.Len(t, keys, 6)
		assert.Contains(t, keys, models.OptionKey{StoryID: "forest", NodeID: "cave", Text: "Бросить факел"})
		assert.Contains(t, keys, models.OptionKey{StoryID: "tower", NodeID: "gate", Text: "Постучать"})
	})
}

func TestLoad_MissingDirectory(t *testing.T) {
	_, err := catalog.Load("testdata/does-not-exist", zap.NewNop())
	assert.Error(t, err)
}

func TestNew_Validation(t *testing.T) {
	terminal := func(id string) *catalog.Node { return &catalog.Node{ID: id, Text: catalog.Lines{id}} }

	tests := []struct {
		name   string
		story  *catalog.Story
		reason string
	}{
		{
			name:   "missing title",
			story:  &catalog.Story{ID: "s", Nodes: []*catalog.Node{terminal("a")}},
			reason: "story title is required",
		},
		{
			name:   "no nodes",
			story:  &catalog.Story{ID: "s", Title: "S"},
			reason: "story has no nodes",
		},
		{
			name:   "duplicate node id",
			story:  &catalog.Story{ID: "s", Title: "S", Nodes: []*catalog.Node{terminal("a"), terminal("a")}},
			reason: `duplicate node id "a"`,
		},
		{
			name: "option without next id",
			story: &catalog.Story{ID: "s", Title: "S", Nodes: []*catalog.Node{
				{ID: "a", Options: []catalog.Option{{Text: "go"}}},
			}},
			reason: "next_id is required",
		},
		{
			name: "chance out of range",
			story: &catalog.Story{ID: "s", Title: "S", Nodes: []*catalog.Node{
				{ID: "a", Options: []catalog.Option{{Text: "roll", Chance: intPtr(101), SuccessID: "b", FailID: "b"}}},
				terminal("b"),
			}},
			reason: "outside 0..100",
		},
		{
			name: "dangling fail id",
			story: &catalog.Story{ID: "s", Title: "S", Nodes: []*catalog.Node{
				{ID: "a", Options: []catalog.Option{{Text: "roll", Chance: intPtr(10), SuccessID: "b", FailID: "zzz"}}},
				terminal("b"),
			}},
			reason: `unknown node "zzz"`,
		},
		{
			name: "required item never added",
			story: &catalog.Story{ID: "s", Title: "S", Nodes: []*catalog.Node{
				{ID: "a", Options: []catalog.Option{{Text: "open", NextID: "b", RequiredItem: "key"}}},
				terminal("b"),
			}},
			reason: `required item "key" is never added`,
		},
		{
			name: "removed item never added",
			story: &catalog.Story{ID: "s", Title: "S", Nodes: []*catalog.Node{
				{ID: "a", Options: []catalog.Option{{Text: "drop", NextID: "b", RemoveItem: "key"}}},
				terminal("b"),
			}},
			reason: `removed item "key" is never added`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := catalog.New(tt.story)
			assert.Nil(t, c)
			require.Error(t, err)
			assert.ErrorIs(t, err, models.ErrInvalidContent)
			assert.Contains(t, err.Error(), tt.reason)
		})
	}
}

func TestNew_AddAndRemoveSameItem(t *testing.T) {
	story := &catalog.Story{ID: "s", Title: "S", Nodes: []*catalog.Node{
		{ID: "a", Options: []catalog.Option{{Text: "juggle", NextID: "b", AddItem: "key", RemoveItem: "key"}}},
		{ID: "b"},
	}}
	c, err := catalog.New(story)
	require.NoError(t, err)

	got, err := c.Get("s")
	require.NoError(t, err)
	assert.Equal(t, "a", got.FirstNode())
}

func TestLoad_ShippedStories(t *testing.T) {
	c, err := catalog.Load("../../stories", zap.NewNop())
	require.NoError(t, err)
	assert.Empty(t, c.Rejected())
	assert.NotEmpty(t, c.Stories())
}
