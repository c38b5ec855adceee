package provider

import (
	"context"
	"net/http"
	"net/url"
)

// Query is one PostgREST request against `<url>/rest/v1/<Table>`.
type Query struct {
	Op     string     // metrics label, e.g. "profile_get"
	Method string     // GET, POST, PATCH, or DELETE
	Table  string     // table or view name
	Params url.Values // PostgREST filters, e.g. id=eq.<uuid>
	Prefer string     // optional Prefer header, e.g. "return=minimal"
	Body   any        // JSON body for writes
}

// Rest runs q with the client's credentials and decodes the response into
// out (nil to discard).  Use WithToken first so row-level security sees
// the caller.
func (c *Client) Rest(ctx context.Context, q Query, out any) error {
	h := http.Header{}
	if q.Prefer != "" {
		h.Set("Prefer", q.Prefer)
	}
	return c.do(ctx, call{
		op:     q.Op,
		method: q.Method,
		path:   "/rest/v1/" + url.PathEscape(q.Table),
		query:  q.Params,
		header: h,
		body:   q.Body,
		out:    out,
	})
}
