// Package crawlinput parses the output of the external recon/crawl
// collaborators: discovered endpoints, HTML forms, and detected technology
// labels. The producers are outside this module's control, so parsing is
// tolerant — malformed input yields empty slices, never an abort.
package crawlinput

import (
	"os"
	"strings"

	"github.com/tidwall/gjson"
)

// Form is one discovered HTML form: action URL, HTTP method, and the
// ordered set of named input fields. Consumed read-only by probes.
type Form struct {
	Action string   `json:"action"`
	Method string   `json:"method"`
	Inputs []string `json:"inputs"`
}

// Data is everything the probe phase consumes from recon/crawl.
type Data struct {
	Endpoints []string `json:"endpoints,omitempty"`
	Forms     []Form   `json:"forms,omitempty"`
	Tech      []string `json:"tech,omitempty"`
	Pages     int      `json:"pages,omitempty"`
}

// Merge combines two collaborator outputs, de-duplicating endpoints and
// tech labels while preserving first-seen order.
func Merge(a, b Data) Data {
	out := Data{Pages: a.Pages + b.Pages}
	out.Endpoints = dedup(append(append([]string{}, a.Endpoints...), b.Endpoints...))
	out.Forms = append(append([]Form{}, a.Forms...), b.Forms...)
	out.Tech = dedup(append(append([]string{}, a.Tech...), b.Tech...))
	return out
}

// ParseFile reads collaborator JSON from disk. A missing file is treated
// like malformed content: empty Data.
func ParseFile(path string) Data {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Data{}
	}
	return Parse(raw)
}

// Parse extracts endpoints, forms, and tech labels from collaborator JSON.
// Both flat ({"endpoints": [...]}) and nested ({"crawl": {...}},
// {"enrichment": {"tech_detection": [...]}}) layouts are accepted.
func Parse(raw []byte) Data {
	if !gjson.ValidBytes(raw) {
		return Data{}
	}
	doc := gjson.ParseBytes(raw)

	var d Data
	d.Endpoints = stringList(first(doc, "endpoints", "crawl.endpoints"))
	d.Tech = techList(doc)
	d.Pages = int(first(doc, "pages", "crawl.pages_crawled").Int())

	forms := first(doc, "forms", "crawl.forms")
	forms.ForEach(func(_, f gjson.Result) bool {
		form := Form{
			Action: f.Get("action").String(),
			Method: strings.ToUpper(f.Get("method").String()),
		}
		if form.Action == "" {
			form.Action = "/"
		}
		if form.Method == "" {
			form.Method = "GET"
		}
		for _, in := range f.Get("inputs").Array() {
			if name := in.String(); name != "" {
				form.Inputs = append(form.Inputs, name)
			}
		}
		d.Forms = append(d.Forms, form)
		return true
	})

	return d
}

// techList collects technology labels from either a flat "tech" array or
// the enrichment agent's nested tech_detection entries.
func techList(doc gjson.Result) []string {
	tech := stringList(doc.Get("tech"))
	doc.Get("enrichment.tech_detection").ForEach(func(_, td gjson.Result) bool {
		tech = append(tech, stringList(td.Get("tech"))...)
		return true
	})
	doc.Get("tech_detection").ForEach(func(_, td gjson.Result) bool {
		tech = append(tech, stringList(td.Get("tech"))...)
		return true
	})
	return dedup(tech)
}

func first(doc gjson.Result, paths ...string) gjson.Result {
	for _, p := range paths {
		if r := doc.Get(p); r.Exists() {
			return r
		}
	}
	return gjson.Result{}
}

func stringList(r gjson.Result) []string {
	var out []string
	for _, v := range r.Array() {
		if s := v.String(); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func dedup(in []string) []string {
	seen := make(map[string]bool, len(in))
	out := in[:0]
	for _, s := range in {
		if !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	return out
}
