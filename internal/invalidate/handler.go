package invalidate

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"
)

// maxEventBytes bounds one request body.
const maxEventBytes = 1 << 16

// Handler accepts one JSON Event per POST and answers 202 with the number
// of evicted entries.
func (x *Invalidator) Handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			w.Header().Set("Allow", http.MethodPost)
			http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
			return
		}

		var ev Event
		dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxEventBytes))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&ev); err != nil {
			http.Error(w, "malformed event", http.StatusBadRequest)
			return
		}

		n, err := x.Handle(r.Context(), ev)
		switch {
		case errors.Is(err, ErrUnknownEvent):
			http.Error(w, err.Error(), http.StatusUnprocessableEntity)
			return
		case err != nil:
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusAccepted)
		if err := json.NewEncoder(w).Encode(map[string]int{"evicted": n}); err != nil {
			zap.L().Warn("event response write failed", zap.Error(err))
		}
	}
}
