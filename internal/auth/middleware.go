package auth

import (
	"encoding/json"
	"net/http"

	"github.com/easyaudioflip/audioflip/internal/models"
)

const (
	// HeaderAPIKey is the request header carrying a client key.
	HeaderAPIKey     = "X-API-Key"
	apiKeyQueryParam = "api-key"
)

// Middleware enforces API-key authentication. In open mode all requests pass.
// Otherwise the X-API-Key header or the api-key query parameter must match a
// configured key; failures get a 401 JSON error.
func (s *Service) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.IsOpenMode() {
			next.ServeHTTP(w, r)
			return
		}

		if s.VerifyKey(r.Header.Get(HeaderAPIKey)) {
			next.ServeHTTP(w, r)
			return
		}

		// EventSource cannot set headers, so SSE clients pass the key in the URL.
		if key := r.URL.Query().Get(apiKeyQueryParam); key != "" && s.VerifyKey(key) {
			next.ServeHTTP(w, r)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_ = json.NewEncoder(w).Encode(models.ErrUnauthorized)
	})
}
