package errors

import (
	"encoding/json"
	"net/http"
)

// ProblemContentType is the RFC 7807 media type.
const ProblemContentType = "application/problem+json"

// ProblemDetails is an RFC 7807 body. Extensions are written as top-level
// members and can not shadow the standard ones.
type ProblemDetails struct {
	Type     string `json:"type"`
	Title    string `json:"title"`
	Status   int    `json:"status"`
	Detail   string `json:"detail,omitempty"`
	Instance string `json:"instance,omitempty"`

	Extensions map[string]any `json:"-"`
}

func NewProblemDetails(status int, problemType, title, detail, instance string) *ProblemDetails {
	return &ProblemDetails{Type: problemType, Title: title, Status: status, Detail: detail, Instance: instance}
}

func (pd *ProblemDetails) WithExtension(key string, value any) *ProblemDetails {
	if pd.Extensions == nil {
		pd.Extensions = map[string]any{}
	}
	pd.Extensions[key] = value
	return pd
}

// Write sends pd with its own status code.
func (pd *ProblemDetails) Write(w http.ResponseWriter) error {
	h := w.Header()
	h.Set("Content-Type", ProblemContentType)
	h.Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(pd.Status)
	return json.NewEncoder(w).Encode(pd)
}

func (pd *ProblemDetails) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(pd.Extensions)+5)
	for k, v := range pd.Extensions {
		out[k] = v
	}
	out["type"], out["title"], out["status"] = pd.Type, pd.Title, pd.Status
	if pd.Detail != "" {
		out["detail"] = pd.Detail
	}
	if pd.Instance != "" {
		out["instance"] = pd.Instance
	}
	return json.Marshal(out)
}
