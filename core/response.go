package core

import "net/http"

// Response renders itself onto the ResponseWriter. Handlers return a
// Response instead of writing directly, keeping status/body decisions in
// one place.
type Response interface {
	Render(w http.ResponseWriter, r *http.Request) error
}

// Render writes the response, falling back to a plain 500 when rendering
// itself fails.
func Render(w http.ResponseWriter, r *http.Request, resp Response) {
	if resp == nil {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	if err := resp.Render(w, r); err != nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
	}
}
