package rewrite

import (
	"bytes"

	"golang.org/x/net/html"
)

// Markers identify already-injected scripts. They must stay byte-identical
// to the paths used in the markup below.
const (
	ClientMarker  = "/@vite/client"
	RefreshMarker = "/@react-refresh"
)

// ClientScript returns the client bootstrap tag for the given public base.
func ClientScript(base string) string {
	return `<script type="module" src="` + base + `@vite/client"></script>`
}

// RefreshPreamble returns the fast-refresh preamble for the given public base.
// It has to run before any component module is evaluated.
func RefreshPreamble(base string) string {
	src := base + "@react-refresh"
	return `<script type="module" src="` + src + `"></script>` +
		`<script type="module">
import RefreshRuntime from '` + src + `'
RefreshRuntime.injectIntoGlobalHook(window)
window.$RefreshReg$ = () => {}
window.$RefreshSig$ = () => (type) => type
window.__vite_plugin_react_preamble_installed__ = true
</script>`
}

// Inject inserts block right after the <head> start tag, else right after
// the <html> start tag, else at the start of the document.
func Inject(doc []byte, block string) []byte {
	at := insertionPoint(doc)

	out := make([]byte, 0, len(doc)+len(block))
	out = append(out, doc[:at]...)
	out = append(out, block...)
	out = append(out, doc[at:]...)
	return out
}

// insertionPoint returns the byte offset just past the <head> start tag, or
// past <html> when there is no head before <body>, or 0.
func insertionPoint(doc []byte) int {
	z := html.NewTokenizer(bytes.NewReader(doc))

	offset, afterHTML := 0, -1
	for {
		tt := z.Next()
		if tt == html.ErrorToken {
			break
		}
		// Tokens are contiguous, so raw lengths add up to byte offsets
		offset += len(z.Raw())

		if tt != html.StartTagToken && tt != html.SelfClosingTagToken {
			continue
		}
		name, _ := z.TagName()
		switch string(name) {
		case "head":
			return offset
		case "html":
			if afterHTML < 0 {
				afterHTML = offset
			}
		case "body":
			// A head can no longer follow
			if afterHTML >= 0 {
				return afterHTML
			}
			return 0
		}
	}

	if afterHTML >= 0 {
		return afterHTML
	}
	return 0
}
