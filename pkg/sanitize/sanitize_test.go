package sanitize

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkgerrors "memvault/pkg/errors"
)

func TestSanitizeText(t *testing.T) {
	svc := NewService()

	t.Run("removes script elements entirely", func(t *testing.T) {
		assert.Equal(t, "", svc.SanitizeText("<script>alert(1)</script>"))
	})

	t.Run("strips markup but keeps text", func(t *testing.T) {
		assert.Equal(t, "hello world", svc.SanitizeText("<b>hello</b> <i>world</i>"))
	})

	t.Run("removes style bodies", func(t *testing.T) {
		assert.Equal(t, "after", svc.SanitizeText("<style>body{color:red}</style>after"))
	})

	t.Run("strips control characters", func(t *testing.T) {
		assert.Equal(t, "ab", svc.SanitizeText("a\x00\x07\x1bb"))
	})

	t.Run("preserves tabs and newlines", func(t *testing.T) {
		assert.Equal(t, "line1\n\tline2\r\n", svc.SanitizeText("line1\n\tline2\r\n"))
	})

	t.Run("plain text passes through", func(t *testing.T) {
		assert.Equal(t, "recuerdo de verano", svc.SanitizeText("recuerdo de verano"))
	})

	t.Run("idempotent", func(t *testing.T) {
		inputs := []string{
			"<script>alert(1)</script>",
			"<b>hello</b> & <i>goodbye</i>",
			"plain text",
			"a\x00b\nc",
		}
		for _, in := range inputs {
			once := svc.SanitizeText(in)
			assert.Equal(t, once, svc.SanitizeText(once), "input %q", in)
		}
	})
}

func TestSanitizeObject(t *testing.T) {
	svc := NewService()

	t.Run("sanitizes nested strings", func(t *testing.T) {
		obj := map[string]any{
			"title": "<script>x</script>hola",
			"nested": map[string]any{
				"note": "<b>bold</b>",
			},
			"tags":  []any{"<i>a</i>", "b"},
			"count": 3,
			"flag":  true,
		}

		out, err := svc.SanitizeObject(obj)
		require.NoError(t, err)

		cleaned := out.(map[string]any)
		assert.Equal(t, "hola", cleaned["title"])
		assert.Equal(t, "bold", cleaned["nested"].(map[string]any)["note"])
		assert.Equal(t, []any{"a", "b"}, cleaned["tags"])
		assert.Equal(t, 3, cleaned["count"])
		assert.Equal(t, true, cleaned["flag"])
	})

	t.Run("does not mutate the input", func(t *testing.T) {
		obj := map[string]any{"title": "<b>x</b>"}
		_, err := svc.SanitizeObject(obj)
		require.NoError(t, err)
		assert.Equal(t, "<b>x</b>", obj["title"])
	})

	t.Run("rejects cycles", func(t *testing.T) {
		obj := map[string]any{}
		obj["self"] = obj

		_, err := svc.SanitizeObject(obj)
		require.Error(t, err)
		assert.ErrorIs(t, err, pkgerrors.ErrCyclicReference)
	})

	t.Run("rejects indirect cycles", func(t *testing.T) {
		a := map[string]any{}
		b := map[string]any{"back": a}
		a["fwd"] = b

		_, err := svc.SanitizeObject(a)
		assert.ErrorIs(t, err, pkgerrors.ErrCyclicReference)
	})

	t.Run("allows shared non-cyclic references", func(t *testing.T) {
		shared := map[string]any{"v": "<b>x</b>"}
		obj := map[string]any{"a": shared, "b": shared}

		out, err := svc.SanitizeObject(obj)
		require.NoError(t, err)

		cleaned := out.(map[string]any)
		assert.Equal(t, "x", cleaned["a"].(map[string]any)["v"])
		assert.Equal(t, "x", cleaned["b"].(map[string]any)["v"])
	})

	t.Run("rejects nesting beyond the depth bound", func(t *testing.T) {
		svc := NewServiceWithDepth(3)

		obj := map[string]any{"leaf": "v"}
		for i := 0; i < 5; i++ {
			obj = map[string]any{"nested": obj}
		}

		_, err := svc.SanitizeObject(obj)
		require.Error(t, err)
		assert.ErrorIs(t, err, pkgerrors.ErrMaxDepthExceeded)
	})

	t.Run("nil passes through", func(t *testing.T) {
		out, err := svc.SanitizeObject(nil)
		require.NoError(t, err)
		assert.Nil(t, out)
	})
}

func TestSanitizeStrings(t *testing.T) {
	svc := NewService()

	out := svc.SanitizeStrings([]string{"ok", "<script>alert(1)</script>", "<b>b</b>"})
	assert.Equal(t, []string{"ok", "", "b"}, out)
}
