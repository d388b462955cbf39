// SPDX-License-Identifier: MIT

package api

import (
	"encoding/json"
	"net/http"
)

// errorBody is the canonical JSON error shape: a machine readable code
// plus a human readable detail.
type errorBody struct {
	Error  string `json:"error"`
	Detail string `json:"detail,omitempty"`
}

// writeJSON serialises v with the given status. Encoding failures are
// dropped; the status line is already on the wire.
func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, short, detail string) {
	writeJSON(w, code, errorBody{Error: short, Detail: detail})
}
